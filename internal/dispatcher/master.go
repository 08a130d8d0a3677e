package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"task-dispatcher/internal/collector"
	"task-dispatcher/internal/config"
	"task-dispatcher/internal/executor"
	qgrpc "task-dispatcher/internal/grpc"
	"task-dispatcher/internal/logger"
	"task-dispatcher/internal/queue"
	"task-dispatcher/internal/task"
	"task-dispatcher/internal/worker"
)

const (
	Prompt     = "> "
	socketName = "queue.sock"
)

// Options параметры мастера
type Options struct {
	Workers        int
	Mode           string
	SocketDir      string
	PollTimeout    time.Duration
	MaxGetFailures int

	// Executor используется только воркерами в горутинах
	Executor executor.Executor

	// Binary и WorkerArgs задают процесс воркера; по умолчанию текущий бинарь и подкоманда worker
	Binary     string
	WorkerArgs []string
	WorkerEnv  []string

	// Spawner заменяет стандартный запуск воркеров
	Spawner Spawner

	// Output для результатов и ответов оператору
	Output  io.Writer
	Journal collector.Journal
}

// OptionsFromConfig собирает Options из config.AppConfig
func OptionsFromConfig(out io.Writer) Options {
	cfg := config.AppConfig
	if cfg == nil {
		cfg = config.Default()
	}
	return Options{
		Workers:        cfg.WorkerCount,
		Mode:           cfg.WorkerMode,
		SocketDir:      cfg.SocketDir,
		PollTimeout:    cfg.CollectorPollTimeout,
		MaxGetFailures: cfg.WorkerMaxGetFailures,
		Output:         out,
	}
}

// Stats снимок состояния мастера
type Stats struct {
	Workers      int    `json:"workers"`
	Mode         string `json:"mode"`
	Submitted    int64  `json:"submitted"`
	Rejected     int64  `json:"rejected"`
	Completed    int64  `json:"completed"`
	Pending      int    `json:"pending"`
	ShuttingDown bool   `json:"shutting_down"`
}

// Master владеет очередями, воркерами, коллектором и порядком остановки
type Master struct {
	opts Options

	tasks    *queue.Queue[task.Item]
	results  *queue.Queue[task.Result]
	shutdown *queue.Signal
	drain    *queue.Signal

	out       io.Writer
	outMu     sync.Mutex
	handles   []worker.Handle
	collector *collector.Collector
	server    *qgrpc.Server
	socketDir string

	mu       sync.Mutex
	launched bool
	started  bool
	stopOnce sync.Once
	stopped  chan struct{}

	submitted atomic.Int64
	rejected  atomic.Int64
}

func NewMaster(opts Options) *Master {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Mode == "" {
		opts.Mode = config.WorkerModeProcess
	}
	if opts.Output == nil {
		opts.Output = io.Discard
	}

	m := &Master{
		opts:     opts,
		tasks:    queue.New[task.Item](),
		results:  queue.New[task.Result](),
		shutdown: queue.NewSignal(),
		drain:    queue.NewSignal(),
		stopped:  make(chan struct{}),
	}
	m.out = m.lockedWriter(opts.Output)
	return m
}

// Start запускает транспорт, ровно N воркеров и коллектор.
// Если какой-то воркер не стартовал, уже запущенные останавливаются.
func (m *Master) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.launched {
		m.mu.Unlock()
		return errors.New("dispatcher already started")
	}
	m.launched = true
	m.mu.Unlock()

	spawner, err := m.spawner()
	if err != nil {
		m.cleanupTransport()
		return err
	}

	// Воркеры не должны умирать вместе с контекстом сессии: их останавливает Shutdown
	workerCtx := context.WithoutCancel(ctx)

	for i := 0; i < m.opts.Workers; i++ {
		h, err := spawner.Spawn(workerCtx, i)
		if err != nil {
			logger.ERROR.Printf("Master: failed to start worker %d: %v", i, err)
			m.abortStart()
			return fmt.Errorf("failed to start worker %d: %w", i, err)
		}
		m.mu.Lock()
		m.handles = append(m.handles, h)
		m.mu.Unlock()
		logger.INFO.Printf("Master: started worker %d", i)
	}

	renderer := collector.NewTextRenderer(m.out, Prompt)
	m.collector = collector.New(m.results, m.drain, renderer, m.opts.PollTimeout)
	if m.opts.Journal != nil {
		m.collector.WithJournal(m.opts.Journal)
	}
	m.collector.Start()

	m.mu.Lock()
	m.started = true
	m.mu.Unlock()

	logger.INFO.Printf("Master: %d workers started in %s mode", len(m.handles), m.opts.Mode)
	return nil
}

func (m *Master) spawner() (Spawner, error) {
	if m.opts.Spawner != nil {
		return m.opts.Spawner, nil
	}

	switch m.opts.Mode {
	case config.WorkerModeInproc:
		return &InprocSpawner{
			Tasks:          m.tasks,
			Results:        m.results,
			Shutdown:       m.shutdown,
			Executor:       m.opts.Executor,
			MaxGetFailures: m.opts.MaxGetFailures,
		}, nil

	case config.WorkerModeProcess:
		socket, err := m.startTransport()
		if err != nil {
			return nil, err
		}
		binary := m.opts.Binary
		if binary == "" {
			if binary, err = os.Executable(); err != nil {
				return nil, fmt.Errorf("failed to locate worker binary: %w", err)
			}
		}
		args := m.opts.WorkerArgs
		if len(args) == 0 {
			args = []string{"worker"}
		}
		return &ProcessSpawner{Spec: worker.ProcessSpec{
			Binary:     binary,
			Args:       args,
			SocketPath: socket,
			Env:        append(os.Environ(), m.opts.WorkerEnv...),
			Stdout:     os.Stderr,
			Stderr:     os.Stderr,
		}}, nil

	default:
		return nil, fmt.Errorf("unknown worker mode %q", m.opts.Mode)
	}
}

// startTransport поднимает gRPC сервер очередей в приватном временном каталоге
func (m *Master) startTransport() (string, error) {
	dir, err := os.MkdirTemp(m.opts.SocketDir, "dispatcher-")
	if err != nil {
		return "", fmt.Errorf("failed to create socket directory: %w", err)
	}
	m.socketDir = dir

	socket := filepath.Join(dir, socketName)
	server, err := qgrpc.StartQueueServer(socket, &qgrpc.QueueServer{
		Tasks:    m.tasks,
		Results:  m.results,
		Shutdown: m.shutdown,
	})
	if err != nil {
		return "", fmt.Errorf("failed to start queue transport: %w", err)
	}
	m.server = server
	return socket, nil
}

func (m *Master) cleanupTransport() {
	if m.server != nil {
		m.server.Stop(5 * time.Second)
		m.server = nil
	}
	if m.socketDir != "" {
		_ = os.RemoveAll(m.socketDir)
		m.socketDir = ""
	}
}

// abortStart останавливает воркеров, запущенных до сбоя
func (m *Master) abortStart() {
	m.stopOnce.Do(func() {
		defer close(m.stopped)
		m.mu.Lock()
		m.sendStopItems()
		m.mu.Unlock()

		for _, h := range m.handles {
			if err := h.Wait(); err != nil {
				logger.ERROR.Printf("Master: worker %d exited with error: %v", h.ID(), err)
			}
		}
		m.cleanupTransport()
	})
}

// sendStopItems кладет по стоп-сигналу на воркера и только потом взводит флаг:
// воркер в режиме Draining всегда находит в очереди свой стоп-сигнал. Вызывается под m.mu.
func (m *Master) sendStopItems() {
	for range m.handles {
		m.tasks.Put(task.StopItem())
	}
	m.shutdown.Set()
}

// Submit разбирает строку и ставит задачу в очередь
func (m *Master) Submit(line string) (task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return task.Task{}, ErrNotStarted
	}
	if m.shutdown.IsSet() {
		m.rejected.Add(1)
		return task.Task{}, ErrShuttingDown
	}

	t, err := ParseCommand(line)
	if err != nil {
		if !errors.Is(err, ErrEmptyCommand) {
			m.rejected.Add(1)
		}
		return task.Task{}, err
	}

	m.tasks.Put(task.TaskItem(t))
	m.submitted.Add(1)
	logger.INFO.Printf("Master: task submitted %s (%s)", t.ShortID(), t)
	return t, nil
}

// Shutdown останавливает систему. Повторные вызовы ждут первого и ничего не добавляют в очередь.
func (m *Master) Shutdown() {
	m.stopOnce.Do(func() {
		defer close(m.stopped)

		// Под мутексом, чтобы ни одна задача не попала в очередь за стоп-сигналами
		m.mu.Lock()
		m.sendStopItems()
		m.mu.Unlock()
		logger.INFO.Printf("Master: shutdown signal set, %d stop signals sent", len(m.handles))

		for _, h := range m.handles {
			if err := h.Wait(); err != nil {
				logger.ERROR.Printf("Master: worker %d exited with error: %v", h.ID(), err)
			}
			logger.INFO.Printf("Master: worker %d has finished", h.ID())
		}

		m.drain.Set()
		if m.collector != nil {
			m.collector.Wait()
			logger.INFO.Println("Master: result collector has finished")
		}

		m.cleanupTransport()
		logger.INFO.Println("Master: all workers have finished")
	})
	<-m.stopped
}

// Done закрывается после завершения Shutdown
func (m *Master) Done() <-chan struct{} {
	return m.stopped
}

func (m *Master) Stats() Stats {
	s := Stats{
		Workers:      len(m.workerHandles()),
		Mode:         m.opts.Mode,
		Submitted:    m.submitted.Load(),
		Rejected:     m.rejected.Load(),
		Pending:      m.tasks.Len(),
		ShuttingDown: m.shutdown.IsSet(),
	}
	if m.collector != nil {
		s.Completed = m.collector.Rendered() + m.collector.Failed()
	}
	return s
}

func (m *Master) workerHandles() []worker.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handles
}

// writer общий для сессии и коллектора, чтобы строки не перемешивались
type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (l lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func (m *Master) lockedWriter(w io.Writer) io.Writer {
	return lockedWriter{mu: &m.outMu, w: w}
}
