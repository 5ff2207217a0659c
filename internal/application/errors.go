package application

import "errors"

// OperationError carries the caller's identity alongside a failure so the
// error output can keep the same envelope as a successful result.
type OperationError struct {
	Envelope Envelope
	Err      error
}

func (e *OperationError) Error() string {
	return e.Err.Error()
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

func withEnvelope(env Envelope, err error) error {
	if err == nil {
		return nil
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return err
	}
	return &OperationError{Envelope: env, Err: err}
}
