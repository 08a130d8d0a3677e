package dispatcher

import (
	"context"
	"fmt"

	"task-dispatcher/internal/executor"
	qgrpc "task-dispatcher/internal/grpc"
	"task-dispatcher/internal/queue"
	"task-dispatcher/internal/task"
	"task-dispatcher/internal/worker"
)

// Spawner запускает одного воркера с заданным id
type Spawner interface {
	Spawn(ctx context.Context, id int) (worker.Handle, error)
}

// SpawnerFunc адаптер для функций
type SpawnerFunc func(ctx context.Context, id int) (worker.Handle, error)

func (f SpawnerFunc) Spawn(ctx context.Context, id int) (worker.Handle, error) {
	return f(ctx, id)
}

// InprocSpawner запускает воркеров горутинами поверх очередей мастера
type InprocSpawner struct {
	Tasks          *queue.Queue[task.Item]
	Results        *queue.Queue[task.Result]
	Shutdown       *queue.Signal
	Executor       executor.Executor
	MaxGetFailures int
}

func (s *InprocSpawner) Spawn(ctx context.Context, id int) (worker.Handle, error) {
	w := worker.New(id,
		worker.LocalSource{Tasks: s.Tasks},
		worker.LocalSink{Results: s.Results},
		s.Shutdown,
		s.Executor,
	).WithMaxGetFailures(s.MaxGetFailures)
	return worker.StartInproc(ctx, w), nil
}

// ProcessSpawner запускает воркеров отдельными процессами
type ProcessSpawner struct {
	Spec worker.ProcessSpec
}

func (s *ProcessSpawner) Spawn(_ context.Context, id int) (worker.Handle, error) {
	h, err := worker.StartProcess(s.Spec, id)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// ServeWorker тело процесса воркера: подключается к мастеру и работает до стоп-сигнала
func ServeWorker(ctx context.Context, id int, socketPath string, maxGetFailures int) error {
	client, err := qgrpc.DialUnix(socketPath, id)
	if err != nil {
		return fmt.Errorf("worker %d: failed to connect to master: %w", id, err)
	}
	defer client.Close()

	w := worker.New(id, client, client, client, nil).WithMaxGetFailures(maxGetFailures)
	return w.Run(ctx)
}
