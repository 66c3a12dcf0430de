package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"placesmap/pkg/metrics"
	"placesmap/pkg/utils"
)

// runStep races fn against its budget. The caller regains control once the
// budget elapses even if fn ignores ctx; the abandoned call finishes on its own.
func runStep[T any](ctx context.Context, step string, budget time.Duration, fn func(context.Context) (T, error)) (T, error) {
	stepCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	start := time.Now()

	go func() {
		v, err := fn(stepCtx)
		done <- result{value: v, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(stepCtx.Err(), context.DeadlineExceeded) {
			observeStep(step, "timeout", start)
			return r.value, fmt.Errorf("%s: %w", step, utils.ErrTimeout)
		}
		observeStep(step, outcomeOf(r.err), start)
		return r.value, r.err
	case <-stepCtx.Done():
		observeStep(step, "timeout", start)
		var zero T
		if errors.Is(stepCtx.Err(), context.DeadlineExceeded) {
			return zero, fmt.Errorf("%s after %s: %w", step, budget, utils.ErrTimeout)
		}
		return zero, fmt.Errorf("%s: %w", step, stepCtx.Err())
	}
}

func outcomeOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func observeStep(step, outcome string, start time.Time) {
	metrics.PipelineStepDuration.WithLabelValues(step, outcome).Observe(time.Since(start).Seconds())
}
