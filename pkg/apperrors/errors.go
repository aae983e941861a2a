package apperrors

import "errors"

var (
	ErrSyncTimeout    = errors.New("sync timed out")
	ErrToolNotFound   = errors.New("sync tool not found")
	ErrSyncInProgress = errors.New("a sync is already in progress")
)
