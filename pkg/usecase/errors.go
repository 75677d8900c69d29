package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// Sync errors
	ErrNoUsers = errors.New("no users available")

	// Query errors
	ErrInvalidSortKey   = errors.New("invalid sort key")
	ErrInvalidSortOrder = errors.New("invalid sort order")
	ErrInvalidPage      = errors.New("invalid page")
)

// Context keys for error values
const (
	SyncIDKey = "sync_id"
	ModeKey   = "mode"
)
