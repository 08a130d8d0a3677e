package worker

import (
	"context"
	"errors"

	"task-dispatcher/internal/queue"
	"task-dispatcher/internal/task"
)

// LocalSource очередь задач в том же процессе
type LocalSource struct {
	Tasks *queue.Queue[task.Item]
}

func (s LocalSource) Get(ctx context.Context) (task.Item, error) {
	return s.Tasks.Get(ctx)
}

func (s LocalSource) TryGet(ctx context.Context) (task.Item, bool, error) {
	item, err := s.Tasks.TryGet()
	if errors.Is(err, queue.ErrQueueIsEmpty) {
		return item, false, nil
	}
	if err != nil {
		return item, false, err
	}
	return item, true, nil
}

// LocalSink очередь результатов в том же процессе
type LocalSink struct {
	Results *queue.Queue[task.Result]
}

func (s LocalSink) Put(ctx context.Context, result task.Result) error {
	s.Results.Put(result)
	return nil
}
