package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	// It is reported to the caller as a ValidationError and never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or backend name.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrDimensionMismatch indicates a vector whose length differs from the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrZeroVector indicates a vector that cannot be normalised to unit length.
	ErrZeroVector = errors.New("zero-length vector")

	// ErrExternalService indicates an embedding, index, or generation call failed.
	// Progress made before the failure stays valid because chunk ids are deterministic.
	ErrExternalService = errors.New("external service failure")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Evaluation runs are disabled without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// Error kinds reported to callers of the query surfaces.
const (
	ErrorKindValidation = "ValidationError"
	ErrorKindExternal   = "ExternalServiceError"
	ErrorKindInternal   = "InternalError"
)

// ErrorKind maps an error onto the taxonomy name surfaced as error_type.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrDimensionMismatch), errors.Is(err, ErrZeroVector):
		return ErrorKindValidation
	case errors.Is(err, ErrExternalService),
		errors.Is(err, ErrRateLimited),
		errors.Is(err, ErrEmbeddingUnavailable),
		errors.Is(err, ErrLLMUnavailable),
		errors.Is(err, ErrVectorIndexUnavailable):
		return ErrorKindExternal
	default:
		return ErrorKindInternal
	}
}
