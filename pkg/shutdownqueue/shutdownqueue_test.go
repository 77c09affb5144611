package shutdownqueue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reset empties the global queue before and after a test. Tests touching it
// cannot run in parallel.
func reset(t *testing.T) {
	t.Helper()

	clearQueue := func() {
		q.mu.Lock()
		defer q.mu.Unlock()

		q.entries = nil
		q.closed = false
	}

	clearQueue()
	t.Cleanup(clearQueue)
}

// captureLogs routes the default slog logger into a buffer for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer

	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	return &buf
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any

	dec := json.NewDecoder(buf)
	for dec.More() {
		var line map[string]any
		require.NoError(t, dec.Decode(&line))

		out = append(out, line)
	}

	return out
}

// recorder hands out tasks that note their name when they run.
type recorder struct {
	mu  sync.Mutex
	ran []string
}

func (r *recorder) task(name string, err error) Task {
	return func(context.Context) error {
		r.mu.Lock()
		defer r.mu.Unlock()

		r.ran = append(r.ran, name)

		return err
	}
}

//nolint:paralleltest
func TestShutdown_RunsNewestFirst(t *testing.T) {
	reset(t)

	rec := &recorder{}

	// Registration order of cmd/api.
	for _, name := range []string{"tracing", "postgres", "record exporter", "http server"} {
		Add(name, rec.task(name, nil))
	}

	Add("ignored", nil)
	assert.Equal(t, 4, Len())

	require.NoError(t, Shutdown(t.Context()))

	assert.Equal(t, []string{"http server", "record exporter", "postgres", "tracing"}, rec.ran)
	assert.Zero(t, Len())

	// Drained once.
	require.NoError(t, Shutdown(t.Context()))
	assert.Len(t, rec.ran, 4)
}

//nolint:paralleltest
func TestShutdown_ErrorsCarryTaskNames(t *testing.T) {
	reset(t)

	flush := errors.New("flush failed")
	closeErr := errors.New("close failed")
	rec := &recorder{}

	Add("postgres", rec.task("postgres", closeErr))
	Add("healthy", rec.task("healthy", nil))
	Add("record exporter", rec.task("record exporter", flush))
	Add("exploding", func(context.Context) error { panic("boom") })

	err := Shutdown(t.Context())
	require.Error(t, err)

	assert.ErrorIs(t, err, flush)
	assert.ErrorIs(t, err, closeErr)
	assert.Contains(t, err.Error(), "record exporter: flush failed")
	assert.Contains(t, err.Error(), "postgres: close failed")
	assert.Contains(t, err.Error(), `panic in shutdown task "exploding": boom`)
	assert.NotContains(t, err.Error(), "healthy")

	assert.Equal(t, []string{"record exporter", "healthy", "postgres"}, rec.ran, "a failing task does not stop the drain")
}

//nolint:paralleltest
func TestShutdown_CancelNamesSkippedTask(t *testing.T) {
	reset(t)

	rec := &recorder{}
	entered := make(chan struct{})

	Add("postgres", rec.task("postgres", nil))
	Add("record exporter", rec.task("record exporter", nil))
	Add("http server", func(ctx context.Context) error {
		close(entered)
		<-ctx.Done()

		return nil
	})

	ctx, cancel := context.WithCancel(t.Context())
	errCh := make(chan error, 1)

	go func() { errCh <- Shutdown(ctx) }()

	<-entered
	cancel()

	err := <-errCh
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), `shutdown canceled before "record exporter"`)
	assert.Empty(t, rec.ran)
}

//nolint:paralleltest
func TestShutdown_LogsEachTask(t *testing.T) {
	reset(t)

	buf := captureLogs(t)

	Add("tracing", func(context.Context) error { return nil })
	Add("postgres", func(context.Context) error { return errors.New("connection reset") })

	require.Error(t, Shutdown(t.Context()))

	lines := logLines(t, buf)
	require.Len(t, lines, 2)

	assert.Equal(t, "shutdown task failed", lines[0]["msg"])
	assert.Equal(t, "postgres", lines[0]["task"])
	assert.Equal(t, "postgres: connection reset", lines[0]["error"])
	assert.Contains(t, lines[0], "took")

	assert.Equal(t, "shutdown task done", lines[1]["msg"])
	assert.Equal(t, "tracing", lines[1]["task"])
}

//nolint:paralleltest
func TestAdd_DuringShutdownIsRejectedAndLogged(t *testing.T) {
	reset(t)

	buf := captureLogs(t)
	started := make(chan struct{})
	release := make(chan struct{})

	Add("blocker", func(context.Context) error {
		close(started)
		<-release

		return nil
	})

	done := make(chan error, 1)

	go func() { done <- Shutdown(context.Background()) }()

	<-started

	rec := &recorder{}
	Add("late sweeper", rec.task("late sweeper", nil))
	assert.Zero(t, Len())

	close(release)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not finish")
	}

	assert.Empty(t, rec.ran)

	var warned bool

	for _, line := range logLines(t, buf) {
		if line["msg"] == "shutdown task registered too late" {
			warned = true

			assert.Equal(t, "late sweeper", line["task"])
		}
	}

	assert.True(t, warned)
}
