package worker

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"

	"task-dispatcher/internal/logger"
)

// Handle запущенный воркер, которого мастер может дождаться
type Handle interface {
	ID() int
	Wait() error
}

// InprocHandle воркер в отдельной горутине текущего процесса
type InprocHandle struct {
	id   int
	done chan struct{}
	err  error
}

// StartInproc запускает воркера в горутине. Паника, вышедшая из Run, не роняет процесс,
// а становится ошибкой Wait.
func StartInproc(ctx context.Context, w *Worker) *InprocHandle {
	h := &InprocHandle{id: w.ID, done: make(chan struct{})}
	go func() {
		defer close(h.done)
		defer func() {
			if r := recover(); r != nil {
				logger.ERROR.Printf("Worker %d: crashed: %v", w.ID, r)
				h.err = fmt.Errorf("worker %d crashed: %v", w.ID, r)
			}
		}()
		h.err = w.Run(ctx)
	}()
	return h
}

func (h *InprocHandle) ID() int { return h.id }

func (h *InprocHandle) Wait() error {
	<-h.done
	return h.err
}

// ProcessHandle воркер в отдельном процессе ОС
type ProcessHandle struct {
	id  int
	cmd *exec.Cmd
}

// ProcessSpec описывает, как запустить процесс воркера
type ProcessSpec struct {
	// Binary путь к исполняемому файлу с подкомандой worker
	Binary string
	// Args аргументы до флагов воркера, обычно {"worker"}
	Args       []string
	SocketPath string
	Env        []string
	Stdout     io.Writer
	Stderr     io.Writer
}

// StartProcess запускает процесс воркера с заданным id
func StartProcess(spec ProcessSpec, id int) (*ProcessHandle, error) {
	args := append([]string{}, spec.Args...)
	args = append(args, "--id", strconv.Itoa(id), "--socket", spec.SocketPath)

	cmd := exec.Command(spec.Binary, args...)
	cmd.Stdout = spec.Stdout
	cmd.Stderr = spec.Stderr
	cmd.Env = spec.Env

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("exec %s: %w", spec.Binary, err)
	}
	logger.INFO.Printf("Worker %d: process started, pid %d", id, cmd.Process.Pid)
	return &ProcessHandle{id: id, cmd: cmd}, nil
}

func (h *ProcessHandle) ID() int { return h.id }

func (h *ProcessHandle) Wait() error {
	return h.cmd.Wait()
}
