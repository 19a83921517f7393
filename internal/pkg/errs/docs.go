// Package errs provides the typed errors of the order workflow engine.
//
// Two families live here:
//   - value errors shared by every layer (ObjectNotFoundError, ValueIsInvalidError,
//     ValueIsRequiredError, ValueIsOutOfRangeError, VersionIsInvalidError);
//   - transition errors raised by the workflow core (UnknownTemplateError,
//     UnknownStageError, StaleStateError, IllegalTransitionError,
//     PreConditionNotMetError, MissingArtifactError, ConcurrentModificationError,
//     TimeoutError, PermissionDeniedError, IdempotencyKeyConflictError,
//     InsufficientStockError).
//
// Each error type follows the same shape: a sentinel variable, a struct with the
// details, New… constructors, Error() and Unwrap(). Callers branch with errors.Is
// on the sentinel or errors.As on the struct. CodeOf maps any error to a stable
// Code, and Describe/Descriptor.Err round-trip an error through storage so a
// replayed request fails with the same typed error as the original attempt.
package errs
