package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound   = goerr.New("configuration file not found")
	ErrInvalidConfig    = goerr.New("invalid configuration")
	ErrInvalidCandidate = goerr.New("invalid backend candidate URL")
	ErrInvalidDuration  = goerr.New("invalid duration")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	CandidateKey  = "candidate"
	FieldKey      = "field"
)
