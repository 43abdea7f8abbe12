package sync

import (
	"context"
	"time"

	"github.com/dest-ash/bnncache/internal/logging"
	"github.com/dest-ash/bnncache/internal/utils"
)

// TaskRunner re-executes a fetch task during retry rounds
type TaskRunner interface {
	Run(ctx context.Context, task FetchTask) error
}

// Coordinator drives bounded retry rounds over the failures a walk
// deferred. Each round retries every still-pending task once, with an
// exponentially growing pause between rounds.
type Coordinator struct {
	runner     TaskRunner
	maxRetries int
	baseDelay  time.Duration
	logger     logging.Logger
}

// NewCoordinator creates a retry coordinator
func NewCoordinator(runner TaskRunner, maxRetries int, baseDelay time.Duration, logger logging.Logger) *Coordinator {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Coordinator{
		runner:     runner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

// Resolve retries pending failures for up to maxRetries rounds and
// returns whatever is still failing. A failure that turns
// non-retryable is given up immediately instead of wasting rounds.
func (c *Coordinator) Resolve(ctx context.Context, pending []DeferredFailure) []DeferredFailure {
	var exhausted []DeferredFailure

	for round := 1; round <= c.maxRetries && len(pending) > 0; round++ {
		if err := c.sleep(ctx, round); err != nil {
			return append(exhausted, pending...)
		}

		c.logger.Info("Retry round",
			logging.F("round", round),
			logging.F("pending", len(pending)),
		)

		var still []DeferredFailure
		for _, failure := range pending {
			if ctx.Err() != nil {
				return append(exhausted, append(still, failure)...)
			}

			err := c.runner.Run(ctx, failure.Task)
			if err == nil {
				c.logger.Info("Recovered on retry",
					logging.F("path", failure.Task.Path),
					logging.F("round", round),
				)
				continue
			}

			failure.AttemptsMade = round
			failure.Err = err
			if !utils.IsRetryable(err) {
				c.logger.Warn("Giving up, error is not transient",
					logging.F("path", failure.Task.Path),
					logging.F("error", err.Error()),
				)
				exhausted = append(exhausted, failure)
				continue
			}
			still = append(still, failure)
		}
		pending = still
	}

	for _, failure := range pending {
		c.logger.Error("Still failing after retries",
			logging.F("path", failure.Task.Path),
			logging.F("attempts", failure.AttemptsMade),
			logging.F("error", failure.Err.Error()),
		)
	}
	return append(exhausted, pending...)
}

// sleep waits before a retry round, doubling each time up to a cap
func (c *Coordinator) sleep(ctx context.Context, round int) error {
	if c.baseDelay <= 0 {
		return ctx.Err()
	}

	delay := c.baseDelay << (round - 1)
	if max := time.Duration(utils.MaxRetryDelayMs) * time.Millisecond; delay > max {
		delay = max
	}

	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
