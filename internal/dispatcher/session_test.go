package dispatcher

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-dispatcher/internal/config"
)

func TestSessionQuit(t *testing.T) {
	out := &syncBuffer{}
	m := NewMaster(Options{Workers: 2, Mode: config.WorkerModeInproc, PollTimeout: 10 * time.Millisecond, Output: out})
	require.NoError(t, m.Start(context.Background()))

	input := strings.Join([]string{
		"add 2 3 5",
		"foo 1 2",
		"",
		"divide 1",
		"QUIT",
		"add 1 1",
	}, "\n")

	require.NoError(t, m.Run(context.Background(), strings.NewReader(input), out))

	rendered := out.String()
	assert.Contains(t, rendered, "Welcome to the master-worker task dispatcher.")
	assert.Contains(t, rendered, "Master: task submitted: add 2 3 5 (")
	assert.Contains(t, rendered, "Master: unknown command 'foo'\n")
	assert.Contains(t, rendered, "Master: operation 'divide' requires at least two operands\n")
	assert.Contains(t, rendered, "): 10\n> ")
	assert.NotContains(t, rendered, "add 1 1")
	assert.True(t, strings.HasSuffix(rendered, "Master: all workers have finished. Exiting.\n"))

	stats := m.Stats()
	assert.EqualValues(t, 1, stats.Submitted)
	assert.EqualValues(t, 2, stats.Rejected)
	assert.EqualValues(t, 1, stats.Completed)
}

func TestSessionEndOfInput(t *testing.T) {
	out := &syncBuffer{}
	m := NewMaster(Options{Workers: 1, Mode: config.WorkerModeInproc, PollTimeout: 10 * time.Millisecond, Output: out})
	require.NoError(t, m.Start(context.Background()))

	require.NoError(t, m.Run(context.Background(), strings.NewReader("multiply 2 3\nsubtract 1 1 1"), out))

	rendered := out.String()
	assert.Contains(t, rendered, "end of input")
	assert.Contains(t, rendered, "): 6\n")
	assert.Contains(t, rendered, "): -1\n")
}

func TestSessionInterrupt(t *testing.T) {
	out := &syncBuffer{}
	m := NewMaster(Options{Workers: 3, Mode: config.WorkerModeInproc, PollTimeout: 10 * time.Millisecond, Output: out})
	require.NoError(t, m.Start(context.Background()))

	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- m.Run(ctx, pr, out)
	}()

	_, err := pw.Write([]byte("add 1 2\n"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return m.Stats().Submitted == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("session did not stop on interrupt")
	}

	assert.Contains(t, out.String(), "interrupt received")
	assert.Contains(t, out.String(), "): 3\n")
	assert.Equal(t, 0, m.tasks.Len(), "every worker consumed its stop signal")
}
