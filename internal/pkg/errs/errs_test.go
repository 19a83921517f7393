package errs_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"orderflow/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectNotFoundError(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := errs.NewObjectNotFoundError("orderId", "42")

		assert.Equal(t, "object not found: 42", err.Error())
		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})

	t.Run("with cause", func(t *testing.T) {
		err := errs.NewObjectNotFoundErrorWithCause("orderId", "42", errors.New("db down"))

		assert.Equal(t, "object not found: param is: orderId, ID is: 42 (cause: db down)", err.Error())
	})
}

func TestValueErrors(t *testing.T) {
	assert.Equal(t, "value is invalid: screen", errs.NewValueIsInvalidError("screen").Error())
	assert.Equal(t, "value is required: idempotency key", errs.NewValueIsRequiredError("idempotency key").Error())

	err := errs.NewValueIsOutOfRangeError("quantity", "1\n2", 1, 10)
	assert.NotContains(t, err.Error(), "\n")
	require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
}

func TestValueErrorsMatchCause(t *testing.T) {
	cause := errors.New("order is inactive")
	testCases := []error{
		errs.NewObjectNotFoundErrorWithCause("orderId", "42", cause),
		errs.NewValueIsInvalidErrorWithCause("order", cause),
		errs.NewValueIsOutOfRangeErrorWithCause("quantity", 11, 1, 10, cause),
		errs.NewValueIsRequiredErrorWithCause("toStatus", cause),
		errs.NewVersionIsInvalidError("version", cause),
	}

	for _, err := range testCases {
		t.Run(fmt.Sprintf("%T", err), func(t *testing.T) {
			require.ErrorIs(t, err, cause)
			assert.NotEqual(t, errs.CodeInternal, errs.CodeOf(err))
		})
	}

	require.ErrorIs(t, errs.NewValueIsInvalidErrorWithCause("order", cause), errs.ErrValueIsInvalid)
	assert.NotErrorIs(t, errs.NewValueIsInvalidError("order"), cause)
}

func TestCodeOf(t *testing.T) {
	testCases := []struct {
		err  error
		code errs.Code
	}{
		{errs.NewUnknownTemplateError("t1", ""), errs.CodeUnknownTemplate},
		{errs.NewUnknownStageError("X"), errs.CodeUnknownStage},
		{errs.NewStaleStateError("A", "B"), errs.CodeStaleState},
		{errs.NewIllegalTransitionError("A", "B"), errs.CodeIllegalTransition},
		{errs.NewPreConditionNotMetError("p", "r"), errs.CodePreConditionNotMet},
		{errs.NewMissingArtifactError("pod"), errs.CodeMissingArtifact},
		{errs.NewConcurrentModificationError(1, 2), errs.CodeConcurrentModification},
		{errs.NewTimeoutError(context.DeadlineExceeded), errs.CodeTimeout},
		{context.DeadlineExceeded, errs.CodeTimeout},
		{errs.NewPermissionDeniedError("u", "p"), errs.CodePermissionDenied},
		{errs.NewIdempotencyKeyConflictError("k"), errs.CodeIdempotencyKeyConflict},
		{errs.NewInsufficientStockError("sku", 2, 1), errs.CodeInsufficientStock},
		{errs.NewObjectNotFoundError("order", "1"), errs.CodeNotFound},
		{errs.NewValueIsRequiredError("x"), errs.CodeInvalidInput},
		{fmt.Errorf("wrapped: %w", errs.NewMissingArtifactError("invoice")), errs.CodeMissingArtifact},
		{errors.New("connection reset"), errs.CodeInternal},
	}

	for _, tc := range testCases {
		t.Run(string(tc.code), func(t *testing.T) {
			assert.Equal(t, tc.code, errs.CodeOf(tc.err))
		})
	}
}

func TestClassification(t *testing.T) {
	assert.True(t, errs.IsTransient(errs.NewTimeoutError(nil)))
	assert.True(t, errs.IsTransient(errors.New("io")))
	assert.False(t, errs.IsTransient(errs.NewStaleStateError("A", "B")))

	assert.True(t, errs.IsCallerInputError(errs.NewPreConditionNotMetError("p", "r")))
	assert.True(t, errs.IsCallerInputError(errs.NewIllegalTransitionError("A", "B")))
	assert.False(t, errs.IsCallerInputError(errs.NewConcurrentModificationError(1, 2)))
	assert.False(t, errs.IsCallerInputError(errs.NewTimeoutError(nil)))
	assert.False(t, errs.IsCallerInputError(errs.NewInsufficientStockError("SKU-1", 3, 1)))
}

func TestTimeoutErrorMatchesCause(t *testing.T) {
	err := errs.NewTimeoutError(context.DeadlineExceeded)

	require.ErrorIs(t, err, errs.ErrTimeout)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDescriptorRoundTrip(t *testing.T) {
	testCases := []error{
		errs.NewIllegalTransitionErrorWithReason("RECEIVED", "DELIVERED", "manual transition not allowed"),
		errs.NewPreConditionNotMetError("all_items_scanned", "scanned_items != total_items"),
		errs.NewMissingArtifactError("pod"),
		errs.NewInsufficientStockError("SKU-1", 3, 1),
	}

	for _, original := range testCases {
		t.Run(original.Error(), func(t *testing.T) {
			restored := errs.Describe(original).Err()

			assert.Equal(t, original, restored)
			assert.Equal(t, errs.CodeOf(original), errs.CodeOf(restored))
		})
	}
}
