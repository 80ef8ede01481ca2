package errors

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"gotest.tools/v3/assert"
)

func Test_GetClass_UnclassifiedError(t *testing.T) {
	err1 := fmt.Errorf("err1")

	assert.Equal(t, ClassUndefined, GetClass(err1))
	assert.Equal(t, ClassUndefined, GetClass(nil))
}

func Test_Classify(t *testing.T) {
	err1 := fmt.Errorf("err1")

	for _, tc := range []struct {
		class Class
	}{
		{ClassProducer},
		{ClassCollectionTimeout},
		{ClassMergeConflict},
		{ClassListenerFailure},
		{ClassExport},
	} {
		t.Run(string(tc.class), func(t *testing.T) {

			// EXERCISE
			classifiedErr := Classify(err1, tc.class)

			// VERIFY
			assert.Equal(t, tc.class, GetClass(classifiedErr))
			assert.Equal(t, classifiedErr.Error(), "err1")
			assert.Assert(t, errors.Is(classifiedErr, err1))
		})
	}
}

func Test_Classify_Nil(t *testing.T) {
	assert.NilError(t, Classify(nil, ClassExport))
}

func Test_GetClass_WrappedAnnotation(t *testing.T) {
	// SETUP
	err1 := fmt.Errorf("err1")
	classified := Classify(err1, ClassMergeConflict)

	// EXERCISE
	wrapped := pkgerrors.Wrap(classified, "context")

	// VERIFY
	assert.Equal(t, GetClass(wrapped), ClassMergeConflict)
	assert.Equal(t, wrapped.Error(), "context: err1")
}
