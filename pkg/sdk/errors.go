package nutrirag

import (
	"errors"

	"github.com/kailas-cloud/nutrirag/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidInput     = domain.ErrInvalidInput
	ErrSessionNotFound  = domain.ErrSessionNotFound
	ErrSessionClosed    = domain.ErrSessionClosed
	ErrSessionExpired   = domain.ErrSessionExpired
	ErrIndexUnavailable = domain.ErrIndexUnavailable
)

// ErrAnswerFailed is returned with the apology answer when the pipeline
// could not produce a real one.
var ErrAnswerFailed = errors.New("nutrirag: answer failed")
