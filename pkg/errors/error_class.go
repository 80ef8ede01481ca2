package errors

import (
	"errors"
)

// Class is the category of a pipeline failure.
type Class string

// Error classes
const (
	// ClassUndefined is the class of unclassified errors.
	ClassUndefined Class = ""

	// ClassProducer marks events rejected by a collector.
	ClassProducer Class = "producer"

	// ClassCollectionTimeout marks contributors that did not deliver
	// their contribution in time.
	ClassCollectionTimeout Class = "collection_timeout"

	// ClassMergeConflict marks contributions dropped during the merge.
	ClassMergeConflict Class = "merge_conflict"

	// ClassListenerFailure marks tick listeners that failed.
	ClassListenerFailure Class = "listener_failure"

	// ClassExport marks reporters that failed to export a snapshot.
	ClassExport Class = "export"
)

type errorClassAnnotation struct {
	wrapped error
	class   Class
}

// let compiler verify interface compliance
var _ error = (*errorClassAnnotation)(nil)

func (a *errorClassAnnotation) Error() string {
	return a.wrapped.Error()
}

func (a *errorClassAnnotation) Unwrap() error {
	return a.wrapped
}

// Is provides a shortcut for errors.Is() in case target is the
// wrapped error.
func (a *errorClassAnnotation) Is(target error) bool {
	return errors.Is(a.wrapped, target)
}

// Classify annotates a given error with an error class.
// If err is nil, nil is returned.
func Classify(err error, class Class) error {
	if err == nil {
		return nil
	}
	return &errorClassAnnotation{
		wrapped: err,
		class:   class,
	}
}

// GetClass returns the class of the error. The outermost annotation wins.
func GetClass(err error) Class {
	if err == nil {
		return ClassUndefined
	}
	if annotation := (*errorClassAnnotation)(nil); errors.As(err, &annotation) {
		return annotation.class
	}
	return ClassUndefined
}
