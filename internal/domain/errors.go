package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput signals a malformed request payload.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidConfig signals a configuration value outside its allowed range.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrDimensionMismatch signals a vector whose length differs from the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrIndexUnavailable signals that the knowledge index cannot serve queries.
	ErrIndexUnavailable = errors.New("knowledge index unavailable")
	// ErrIndexSealed signals an insertion after the index was opened for reads.
	ErrIndexSealed = errors.New("knowledge index sealed")

	// ErrSessionNotFound signals an unknown conversation session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionClosed signals a session in ended or error state.
	ErrSessionClosed = errors.New("session closed")
	// ErrSessionExpired signals a session idle past its timeout.
	ErrSessionExpired = errors.New("session expired")

	// ErrGenerationFailed signals a failure of the answer backend.
	ErrGenerationFailed = errors.New("answer generation failed")
	// ErrBudgetExceeded signals an exhausted token budget.
	ErrBudgetExceeded = errors.New("token budget exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
