package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Retrieval Errors.

	// ErrRetrievalUnavailable indicates the chunk corpus cannot be reached.
	// Callers treat it as recoverable and continue without context.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Semantic retrieval is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// Generation Errors.

	// ErrLLMUnavailable indicates the LLM service is not configured or unreachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrGenerationFailed indicates every generation attempt failed.
	ErrGenerationFailed = errors.New("outline generation failed")

	// ErrEmptyCompletion indicates the model answered with no text.
	ErrEmptyCompletion = errors.New("empty completion")

	// ErrMalformedCompletion indicates the model answered with text that
	// holds no usable outline items.
	ErrMalformedCompletion = errors.New("malformed completion")

	// ErrModelRejected indicates the model backend refused the request
	// in a way that will not change on retry (bad credentials, bad request).
	ErrModelRejected = errors.New("model rejected request")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// Reference Errors.

	// ErrDuplicateReference indicates the chunk is already referenced
	// from the same paragraph of the draft.
	ErrDuplicateReference = errors.New("duplicate reference")

	// ErrDraftNotFound indicates the draft has never had a reference attached.
	ErrDraftNotFound = errors.New("draft not found")

	// ErrReferenceNotFound indicates the draft exists but the reference id does not.
	ErrReferenceNotFound = errors.New("reference not found")
)
