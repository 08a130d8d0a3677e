package collector

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"task-dispatcher/internal/logger"
	"task-dispatcher/internal/queue"
	"task-dispatcher/internal/task"
)

// Renderer выводит результат оператору
type Renderer interface {
	Render(result task.Result) error
}

// Journal сохраняет результаты, например в sqlite
type Journal interface {
	SaveResult(result task.Result) error
}

// Signal флаг, после которого коллектор дочищает очередь и завершается
type Signal interface {
	IsSet() bool
}

// Collector забирает результаты из очереди и показывает их по мере поступления
type Collector struct {
	results     *queue.Queue[task.Result]
	drain       Signal
	renderer    Renderer
	journal     Journal
	pollTimeout time.Duration

	rendered atomic.Int64
	failed   atomic.Int64
	done     chan struct{}
	start    sync.Once
}

func New(results *queue.Queue[task.Result], drain Signal, renderer Renderer, pollTimeout time.Duration) *Collector {
	if pollTimeout <= 0 {
		pollTimeout = time.Second
	}
	return &Collector{
		results:     results,
		drain:       drain,
		renderer:    renderer,
		pollTimeout: pollTimeout,
		done:        make(chan struct{}),
	}
}

// WithJournal включает сохранение каждого результата
func (c *Collector) WithJournal(j Journal) *Collector {
	c.journal = j
	return c
}

// Start запускает Run в фоне. Повторные вызовы ничего не делают.
func (c *Collector) Start() {
	c.start.Do(func() {
		go c.Run()
	})
}

// Run крутится, пока сигнал не взведен или в очереди что-то есть
func (c *Collector) Run() {
	defer close(c.done)
	logger.INFO.Println("Result collector started")

	for !c.drain.IsSet() || !c.results.Empty() {
		result, ok := c.results.GetTimeout(c.pollTimeout)
		if !ok {
			continue
		}
		c.handle(result)
	}

	logger.INFO.Printf("Result collector stopped, %d results rendered", c.rendered.Load())
}

func (c *Collector) handle(result task.Result) {
	defer func() {
		if r := recover(); r != nil {
			c.failed.Add(1)
			logger.ERROR.Printf("Result collector: failed to render result of task %s: %v", result.Task.ShortID(), r)
		}
	}()

	if c.journal != nil {
		if err := c.journal.SaveResult(result); err != nil {
			logger.ERROR.Printf("Result collector: failed to journal task %s: %v", result.Task.ShortID(), err)
		}
	}

	if err := c.renderer.Render(result); err != nil {
		c.failed.Add(1)
		logger.ERROR.Printf("Result collector: failed to render result of task %s: %v", result.Task.ShortID(), err)
		return
	}
	c.rendered.Add(1)

	logger.L().Debug("result collected",
		zap.Int("worker", result.WorkerID),
		zap.String("task_id", result.Task.ID),
		zap.String("outcome", string(result.Outcome.Kind)),
		zap.Duration("latency", result.CompletedAt.Sub(result.Task.SubmittedAt)),
	)
}

// Wait ждет завершения Run
func (c *Collector) Wait() {
	<-c.done
}

// Done закрывается после завершения Run
func (c *Collector) Done() <-chan struct{} {
	return c.done
}

// Rendered число показанных результатов
func (c *Collector) Rendered() int64 {
	return c.rendered.Load()
}

// Failed число результатов, которые не удалось показать
func (c *Collector) Failed() int64 {
	return c.failed.Load()
}

// TextRenderer печатает результат и заново выводит приглашение ввода
type TextRenderer struct {
	mu     sync.Mutex
	Out    io.Writer
	Prompt string
}

func NewTextRenderer(out io.Writer, prompt string) *TextRenderer {
	return &TextRenderer{Out: out, Prompt: prompt}
}

func (r *TextRenderer) Render(result task.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := fmt.Fprintf(r.Out, "\n[result] worker %d completed task %s (%s): %s\n%s",
		result.WorkerID, result.Task, result.Task.ShortID(), result.Outcome, r.Prompt)
	return err
}
