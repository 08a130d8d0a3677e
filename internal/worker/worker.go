package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"task-dispatcher/internal/config"
	"task-dispatcher/internal/executor"
	"task-dispatcher/internal/logger"
	"task-dispatcher/internal/task"
)

var ErrSourceUnavailable = errors.New("task source unavailable")

// Пауза между повторными попытками получить задачу после ошибки
var getRetryDelay = 200 * time.Millisecond

// TaskSource представляет интерфейс очереди задач со стороны воркера
type TaskSource interface {
	// Get блокируется до появления элемента
	Get(ctx context.Context) (task.Item, error)
	// TryGet не ждет; false означает пустую очередь
	TryGet(ctx context.Context) (task.Item, bool, error)
}

// ResultSink принимает результаты выполнения
type ResultSink interface {
	Put(ctx context.Context, result task.Result) error
}

// ShutdownSignal общий флаг остановки, воркер только читает его
type ShutdownSignal interface {
	IsSet() bool
}

type State int32

const (
	StateRunning State = iota
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Worker выполняет задачи по одной, пока не получит стоп-сигнал
type Worker struct {
	ID             int
	tasks          TaskSource
	results        ResultSink
	shutdown       ShutdownSignal
	exec           executor.Executor
	maxGetFailures int

	state     atomic.Int32
	processed atomic.Int64
}

// New создает воркера. exec == nil означает исполнитель по умолчанию.
func New(id int, tasks TaskSource, results ResultSink, shutdown ShutdownSignal, exec executor.Executor) *Worker {
	if exec == nil {
		exec = executor.Default
	}
	return &Worker{
		ID:             id,
		tasks:          tasks,
		results:        results,
		shutdown:       shutdown,
		exec:           exec,
		maxGetFailures: config.DefaultWorkerMaxGetFailures,
	}
}

// WithMaxGetFailures задает число подряд идущих ошибок получения задачи, после которого воркер сдается
func (w *Worker) WithMaxGetFailures(n int) *Worker {
	if n > 0 {
		w.maxGetFailures = n
	}
	return w
}

func (w *Worker) State() State {
	return State(w.state.Load())
}

func (w *Worker) setState(s State) {
	w.state.Store(int32(s))
}

// Processed количество выполненных задач
func (w *Worker) Processed() int64 {
	return w.processed.Load()
}

// Run основной цикл воркера: Running -> (Draining) -> Stopped
func (w *Worker) Run(ctx context.Context) error {
	w.setState(StateRunning)
	logger.INFO.Printf("Worker %d: started", w.ID)
	defer func() {
		w.setState(StateStopped)
		logger.INFO.Printf("Worker %d: shutting down gracefully, %d tasks processed", w.ID, w.Processed())
	}()

	failures := 0
	for {
		if w.State() == StateRunning && w.shutdown != nil && w.shutdown.IsSet() {
			logger.INFO.Printf("Worker %d: shutdown signal observed, draining", w.ID)
			w.setState(StateDraining)
		}

		item, ok, err := w.next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failures++
			logger.ERROR.Printf("Worker %d: failed to get task (%d/%d): %v", w.ID, failures, w.maxGetFailures, err)
			if failures >= w.maxGetFailures {
				return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
			}
			select {
			case <-time.After(getRetryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		failures = 0

		if !ok {
			logger.INFO.Printf("Worker %d: queue drained", w.ID)
			return nil
		}
		if item.Stop {
			logger.INFO.Printf("Worker %d: received stop signal", w.ID)
			return nil
		}

		w.handle(ctx, item.Task)
	}
}

func (w *Worker) next(ctx context.Context) (task.Item, bool, error) {
	if w.State() == StateDraining {
		return w.tasks.TryGet(ctx)
	}
	item, err := w.tasks.Get(ctx)
	if err != nil {
		return item, false, err
	}
	return item, true, nil
}

func (w *Worker) handle(ctx context.Context, t task.Task) {
	logger.INFO.Printf("Worker %d: executing task %s (%s)", w.ID, t.ShortID(), t)

	outcome := w.execute(t)
	if outcome.IsError() {
		logger.INFO.Printf("Worker %d: task %s finished with error: %s", w.ID, t.ShortID(), outcome.Error)
	}

	w.deliver(ctx, task.NewResult(w.ID, t, outcome))
	w.processed.Add(1)
}

// deliver отправляет результат. Если сам результат не принят (например, слишком велик
// для транспорта), отправляется ошибка по той же задаче, чтобы у задачи все равно был результат.
func (w *Worker) deliver(ctx context.Context, result task.Result) {
	err := w.results.Put(ctx, result)
	if err == nil {
		return
	}
	logger.ERROR.Printf("Worker %d: failed to send result for task %s: %v", w.ID, result.Task.ShortID(), err)

	fallback := task.NewResult(w.ID, result.Task, task.ErrorOutcome("failed to deliver result: %v", err))
	if err := w.results.Put(ctx, fallback); err != nil {
		logger.ERROR.Printf("Worker %d: failed to send error result for task %s: %v", w.ID, result.Task.ShortID(), err)
	}
}

// execute не дает панике одной задачи остановить воркера
func (w *Worker) execute(t task.Task) (outcome task.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.ERROR.Printf("Worker %d: unexpected fault in task %s: %v", w.ID, t.ShortID(), r)
			outcome = task.ErrorOutcome("unexpected fault: %v", r)
		}
	}()
	return w.exec.Execute(t)
}
