package config

import "time"

// NewSyncForTest creates a Sync config holding the flag defaults
func NewSyncForTest(configPath string) *Sync {
	return &Sync{
		discoveryTimeout: 5 * time.Second,
		pageLimit:        50,
		interval:         time.Hour,
		staleThreshold:   time.Hour,
		configPath:       configPath,
	}
}

// Apply exposes the file merge for testing
func (x *Sync) Apply(file *SyncFile, isSet func(name string) bool) error {
	return x.apply(file, isSet)
}

func (x *Sync) DiscoveryTimeout() time.Duration { return x.discoveryTimeout }
func (x *Sync) PageLimit() int                  { return x.pageLimit }
func (x *Sync) StaleThreshold() time.Duration   { return x.staleThreshold }

// SetCandidates overrides the candidate list for testing
func (x *Sync) SetCandidates(candidates []string) {
	x.candidates = candidates
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format string) *Logger {
	return &Logger{level: level, format: format}
}

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(botToken, channelID string) *Slack {
	return &Slack{botToken: botToken, channelID: channelID}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, projectID string) *Repository {
	return &Repository{backend: backend, projectID: projectID}
}

// NewRelayForTest creates a Relay config for testing purposes
func NewRelayForTest(addr, apiBase, apiKey string) *Relay {
	return &Relay{addr: addr, apiBase: apiBase, apiKey: apiKey}
}

// NewExportForTest creates an Export config for testing purposes
func NewExportForTest(output, bucket, object string) *Export {
	return &Export{output: output, gcsBucket: bucket, gcsObject: object}
}

// NewSentryForTest creates a Sentry config for testing purposes
func NewSentryForTest(dsn string) *Sentry {
	return &Sentry{dsn: dsn}
}
