package queue

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrQueueIsEmpty = errors.New("queue is empty")

// Queue неограниченная потокобезопасная FIFO-очередь.
// Put никогда не блокируется, Get ждет элемент или отмену контекста.
type Queue[T any] struct {
	mu      sync.Mutex
	storage []T
	// ready закрывается и пересоздается при каждом Put, будя всех ожидающих
	ready chan struct{}
}

func New[T any]() *Queue[T] {
	return &Queue[T]{ready: make(chan struct{})}
}

// Put добавляет элемент в конец очереди
func (q *Queue[T]) Put(item T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.storage = append(q.storage, item)
	close(q.ready)
	q.ready = make(chan struct{})
}

func (q *Queue[T]) pop() (T, bool) {
	var zero T
	if len(q.storage) == 0 {
		return zero, false
	}
	item := q.storage[0]
	q.storage[0] = zero
	q.storage = q.storage[1:]
	return item, true
}

// TryGet забирает первый элемент без ожидания
func (q *Queue[T]) TryGet() (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	item, ok := q.pop()
	if !ok {
		return item, ErrQueueIsEmpty
	}
	return item, nil
}

// Get блокируется до появления элемента или отмены ctx
func (q *Queue[T]) Get(ctx context.Context) (T, error) {
	for {
		q.mu.Lock()
		item, ok := q.pop()
		ready := q.ready
		q.mu.Unlock()
		if ok {
			return item, nil
		}

		select {
		case <-ready:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// GetTimeout ждет элемент не дольше timeout. Второй результат false означает "пусто".
func (q *Queue[T]) GetTimeout(timeout time.Duration) (T, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	item, err := q.Get(ctx)
	if err != nil {
		return item, false
	}
	return item, true
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.storage)
}

func (q *Queue[T]) Empty() bool {
	return q.Len() == 0
}
