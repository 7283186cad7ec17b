package service

import (
	"context"
	"errors"
	"fmt"
	"net"

	"rankings-proxy/internal/model"
)

// ForwardError reports a failed backend call together with its classification.
type ForwardError struct {
	Outcome model.Outcome
	Err     error
}

func (e *ForwardError) Error() string {
	return fmt.Sprintf("%s: %v", e.Outcome, e.Err)
}

func (e *ForwardError) Unwrap() error {
	return e.Err
}

// Classify maps a transport error onto an Outcome. Caller cancellation wins
// over timeouts; everything else means the backend could not be reached.
func Classify(err error) model.Outcome {
	if err == nil {
		return model.OutcomeOK
	}
	var fe *ForwardError
	if errors.As(err, &fe) {
		return fe.Outcome
	}
	if errors.Is(err, context.Canceled) {
		return model.OutcomeCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return model.OutcomeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.OutcomeTimeout
	}
	return model.OutcomeUnreachable
}

func backendError(err error) error {
	return &ForwardError{Outcome: Classify(err), Err: err}
}
