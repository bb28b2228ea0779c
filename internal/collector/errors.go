package collector

import "codeberg.org/mutker/scrapster/internal/errors"

const (
	ErrAlreadyStarted = errors.ErrorCode("collector_already_started")
	ErrStopped        = errors.ErrorCode("collector_stopped")
	ErrCancelled      = errors.ErrorCode("collector_cancelled")
)
