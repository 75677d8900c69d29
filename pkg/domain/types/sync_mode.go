package types

import "fmt"

// SyncMode tells how the outcome of a sync attempt is surfaced to the user
type SyncMode string

const (
	// SyncModeExplicit is a user initiated sync. Both success and failure are surfaced.
	SyncModeExplicit SyncMode = "explicit"
	// SyncModeSilent is a background or periodic sync. Failure keeps the previous data quietly.
	SyncModeSilent SyncMode = "silent"
)

// AllSyncModes returns all valid sync modes
func AllSyncModes() []SyncMode {
	return []SyncMode{
		SyncModeExplicit,
		SyncModeSilent,
	}
}

// IsValid checks if the sync mode is valid
func (m SyncMode) IsValid() bool {
	switch m {
	case SyncModeExplicit, SyncModeSilent:
		return true
	default:
		return false
	}
}

// IsSilent reports whether m suppresses user visible errors
func (m SyncMode) IsSilent() bool {
	return m == SyncModeSilent
}

// String returns the string representation of the sync mode
func (m SyncMode) String() string {
	return string(m)
}

// ParseSyncMode parses a string into a SyncMode
func ParseSyncMode(s string) (SyncMode, error) {
	mode := SyncMode(s)
	if !mode.IsValid() {
		return "", fmt.Errorf("invalid sync mode: %s", s)
	}
	return mode, nil
}
