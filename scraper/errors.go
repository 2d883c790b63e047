package scraper

import (
	"errors"
	"fmt"
)

// ErrTimeout indicates the initial card marker never appeared in time. This
// is fatal: without a first card there is nothing to scroll toward.
type ErrTimeout struct {
	Err error
}

func (e ErrTimeout) Error() string {
	return fmt.Errorf("timeout: %w", e.Err).Error()
}

func (e ErrTimeout) Unwrap() error {
	return e.Err
}

// ErrEvaluation indicates an in-page script evaluation failed, which usually
// means the browser session is gone.
type ErrEvaluation struct {
	Err error
}

func (e ErrEvaluation) Error() string {
	return fmt.Errorf("evaluation: %w", e.Err).Error()
}

func (e ErrEvaluation) Unwrap() error {
	return e.Err
}

// ErrInteraction indicates a recovery interaction (pointer move or click)
// failed. Non-fatal; the loop keeps accumulating stalls toward termination.
type ErrInteraction struct {
	Err error
}

func (e ErrInteraction) Error() string {
	return fmt.Errorf("interaction: %w", e.Err).Error()
}

func (e ErrInteraction) Unwrap() error {
	return e.Err
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return "timeout"
	}
	var evaluation ErrEvaluation
	if errors.As(err, &evaluation) {
		return "evaluation"
	}
	var interaction ErrInteraction
	if errors.As(err, &interaction) {
		return "interaction"
	}
	return "other"
}
