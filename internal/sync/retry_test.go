package sync

import (
	"context"
	"testing"

	"github.com/dest-ash/bnncache/internal/logging"
	"github.com/dest-ash/bnncache/internal/utils"
)

// scriptedRunner fails each task a fixed number of times before
// succeeding
type scriptedRunner struct {
	failures map[string]int
	calls    map[string]int
	err      func() error
}

func newScriptedRunner(failures map[string]int, err func() error) *scriptedRunner {
	return &scriptedRunner{
		failures: failures,
		calls:    make(map[string]int),
		err:      err,
	}
}

func (r *scriptedRunner) Run(_ context.Context, task FetchTask) error {
	r.calls[task.Path]++
	if r.calls[task.Path] <= r.failures[task.Path] {
		return r.err()
	}
	return nil
}

func retryableErr() error {
	return utils.NewAppError(utils.NewCLIError(utils.ErrCodeFetchFailed, "transient").
		WithHTTPStatus(404).
		WithRetryable(true).
		Build())
}

func fatalErr() error {
	return utils.NewAppError(utils.NewCLIError(utils.ErrCodeAuthRequired, "denied").
		WithHTTPStatus(401).
		Build())
}

func deferredFor(paths ...string) []DeferredFailure {
	var out []DeferredFailure
	for _, p := range paths {
		out = append(out, DeferredFailure{
			Task: FetchTask{Path: p, Backend: BackendPrimary},
			Err:  retryableErr(),
		})
	}
	return out
}

func TestCoordinatorRecoversWithinRounds(t *testing.T) {
	runner := newScriptedRunner(map[string]int{"a": 1, "b": 2}, retryableErr)
	c := NewCoordinator(runner, 3, 0, &logging.NoOpLogger{})

	remaining := c.Resolve(context.Background(), deferredFor("a", "b"))
	if len(remaining) != 0 {
		t.Fatalf("expected full recovery, got %d failures", len(remaining))
	}
	if runner.calls["a"] != 2 || runner.calls["b"] != 3 {
		t.Errorf("unexpected call counts %v", runner.calls)
	}
}

func TestCoordinatorExhaustsRounds(t *testing.T) {
	runner := newScriptedRunner(map[string]int{"stuck": 10}, retryableErr)
	c := NewCoordinator(runner, 3, 0, &logging.NoOpLogger{})

	remaining := c.Resolve(context.Background(), deferredFor("stuck"))
	if len(remaining) != 1 {
		t.Fatalf("expected 1 exhausted failure, got %d", len(remaining))
	}
	if remaining[0].AttemptsMade != 3 {
		t.Errorf("attempts = %d, want 3", remaining[0].AttemptsMade)
	}
	if runner.calls["stuck"] != 3 {
		t.Errorf("calls = %d, want 3", runner.calls["stuck"])
	}
}

func TestCoordinatorStopsOnNonRetryable(t *testing.T) {
	runner := newScriptedRunner(map[string]int{"denied": 10}, fatalErr)
	c := NewCoordinator(runner, 5, 0, &logging.NoOpLogger{})

	remaining := c.Resolve(context.Background(), deferredFor("denied"))
	if len(remaining) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(remaining))
	}
	if runner.calls["denied"] != 1 {
		t.Errorf("non-retryable error should stop retries, got %d calls", runner.calls["denied"])
	}
}

func TestCoordinatorZeroRetries(t *testing.T) {
	runner := newScriptedRunner(nil, retryableErr)
	c := NewCoordinator(runner, 0, 0, &logging.NoOpLogger{})

	remaining := c.Resolve(context.Background(), deferredFor("a"))
	if len(remaining) != 1 {
		t.Fatalf("expected failure to pass through, got %d", len(remaining))
	}
	if runner.calls["a"] != 0 {
		t.Errorf("no rounds should run, got %d calls", runner.calls["a"])
	}
}
