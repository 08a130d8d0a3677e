package dispatcher

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"task-dispatcher/internal/logger"
)

const banner = `
Welcome to the master-worker task dispatcher.
Enter tasks in one of these formats:
  - arithmetic: add 1 2 3 | subtract 10 5 | multiply 4 5 | divide 20 4
  - file reading: read_file path/to/file.txt
Type 'quit' to exit.

`

// Run ведет сессию оператора: читает команды из in до quit, конца ввода или отмены ctx,
// затем выполняет Shutdown. out обычно тот же поток, что и Options.Output.
func (m *Master) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	out = m.lockedWriter(out)
	fmt.Fprint(out, banner)

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-m.stopped:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	var err error
loop:
	for {
		fmt.Fprint(out, Prompt)

		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nMaster: interrupt received, shutting down...")
			logger.INFO.Println("Master: session interrupted")
			break loop

		case <-m.stopped:
			fmt.Fprintln(out, "\nMaster: dispatcher stopped")
			break loop

		case line, ok := <-lines:
			if !ok {
				select {
				case err = <-readErr:
				default:
				}
				fmt.Fprintln(out, "\nMaster: end of input, shutting down...")
				break loop
			}

			line = strings.TrimSpace(line)
			if strings.EqualFold(line, "quit") {
				fmt.Fprintln(out, "Master: shutdown requested")
				break loop
			}

			t, submitErr := m.Submit(line)
			switch {
			case errors.Is(submitErr, ErrEmptyCommand):
			case submitErr != nil:
				fmt.Fprintf(out, "Master: %v\n", submitErr)
			default:
				fmt.Fprintf(out, "Master: task submitted: %s (%s)\n", t, t.ShortID())
			}
		}
	}

	m.Shutdown()
	fmt.Fprintln(out, "Master: all workers have finished. Exiting.")

	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}
