package errors

import (
	"errors"
)

type retryableAnnotation struct {
	wrapped   error
	retryable bool
}

// let compiler verify interface compliance
var _ error = (*retryableAnnotation)(nil)

func (a *retryableAnnotation) Error() string {
	return a.wrapped.Error()
}

func (a *retryableAnnotation) Unwrap() error {
	return a.wrapped
}

func (a *retryableAnnotation) Is(target error) bool {
	return errors.Is(a.wrapped, target)
}

// Retryable marks an export failure as transient. Reporters retry
// retryable failures with backoff.
func Retryable(err error) error {
	return markRetryable(err, true)
}

// Permanent marks an error as not worth retrying. This is needed only to
// override an inner Retryable mark, unmarked errors are permanent.
func Permanent(err error) error {
	return markRetryable(err, false)
}

func markRetryable(err error, retryable bool) error {
	if err == nil {
		return nil
	}
	if IsRetryable(err) == retryable {
		return err
	}
	return &retryableAnnotation{
		wrapped:   err,
		retryable: retryable,
	}
}

// IsRetryable returns true if the outermost retry mark of err is
// Retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if annotation := (*retryableAnnotation)(nil); errors.As(err, &annotation) {
		return annotation.retryable
	}
	return false
}
