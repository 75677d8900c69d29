package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/idconsole/pkg/service/locator"
	"github.com/secmon-lab/idconsole/pkg/service/spectro"
	"github.com/secmon-lab/idconsole/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// DefaultCandidates returns the built-in relay candidates in priority order.
// host is the name this process is reachable by and is skipped when empty.
func DefaultCandidates(host string) []string {
	candidates := []string{"http://10.129.152.5:3001"}
	if host != "" {
		candidates = append(candidates, "http://"+host+":3001")
	}
	return append(candidates, "http://helixit.bmc.com:3001", "http://localhost:3001")
}

// SyncFile is the optional TOML file of sync settings
type SyncFile struct {
	Backend  SyncFileBackend  `toml:"backend"`
	Schedule SyncFileSchedule `toml:"schedule"`
}

type SyncFileBackend struct {
	Candidates       []string `toml:"candidates"`
	DiscoveryTimeout string   `toml:"discovery_timeout"`
	PageLimit        int      `toml:"page_limit"`
}

type SyncFileSchedule struct {
	Interval       string `toml:"interval"`
	StaleThreshold string `toml:"stale_threshold"`
}

// Validate checks candidate URLs and durations of the file
func (f *SyncFile) Validate() error {
	for _, c := range f.Backend.Candidates {
		if err := validateCandidate(c); err != nil {
			return err
		}
	}
	for field, raw := range map[string]string{
		"backend.discovery_timeout": f.Backend.DiscoveryTimeout,
		"schedule.interval":         f.Schedule.Interval,
		"schedule.stale_threshold":  f.Schedule.StaleThreshold,
	} {
		if raw == "" {
			continue
		}
		if _, err := parsePositiveDuration(field, raw); err != nil {
			return err
		}
	}
	if f.Backend.PageLimit < 0 {
		return goerr.Wrap(ErrInvalidConfig, "page_limit must not be negative", goerr.V("page_limit", f.Backend.PageLimit))
	}
	return nil
}

// LoadSyncFile reads and validates a sync settings file
func LoadSyncFile(path string) (*SyncFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "sync config file not found", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read sync config file", goerr.V(ConfigPathKey, path))
	}

	var file SyncFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse sync config file",
			goerr.V(ConfigPathKey, path),
			goerr.V("error", err.Error()))
	}

	if err := file.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid sync config file", goerr.V(ConfigPathKey, path))
	}
	return &file, nil
}

// Sync holds CLI flags for backend discovery, fetching and the sync schedule
type Sync struct {
	candidates       []string
	discoveryTimeout time.Duration
	pageLimit        int
	interval         time.Duration
	staleThreshold   time.Duration
	configPath       string
}

func (x *Sync) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "backend-url",
			Usage:       "Relay base URL candidate, in priority order (repeatable). Defaults to the built-in list",
			Category:    "Sync",
			Sources:     cli.EnvVars("IDCONSOLE_BACKEND_URLS"),
			Destination: &x.candidates,
		},
		&cli.DurationFlag{
			Name:        "discovery-timeout",
			Usage:       "Timeout of relay discovery",
			Category:    "Sync",
			Value:       locator.DefaultTimeout,
			Sources:     cli.EnvVars("IDCONSOLE_DISCOVERY_TIMEOUT"),
			Destination: &x.discoveryTimeout,
		},
		&cli.IntFlag{
			Name:        "page-limit",
			Usage:       "Number of items requested per page",
			Category:    "Sync",
			Value:       spectro.DefaultPageLimit,
			Sources:     cli.EnvVars("IDCONSOLE_PAGE_LIMIT"),
			Destination: &x.pageLimit,
		},
		&cli.DurationFlag{
			Name:        "sync-interval",
			Usage:       "Interval of the background silent sync",
			Category:    "Sync",
			Value:       time.Hour,
			Sources:     cli.EnvVars("IDCONSOLE_SYNC_INTERVAL"),
			Destination: &x.interval,
		},
		&cli.DurationFlag{
			Name:        "stale-threshold",
			Usage:       "Cache age after which startup triggers a sync",
			Category:    "Sync",
			Value:       usecase.DefaultStaleThreshold,
			Sources:     cli.EnvVars("IDCONSOLE_STALE_THRESHOLD"),
			Destination: &x.staleThreshold,
		},
		&cli.StringFlag{
			Name:        "sync-config",
			Usage:       "Path of a TOML file with sync settings. Explicit flags take precedence",
			Category:    "Sync",
			Sources:     cli.EnvVars("IDCONSOLE_SYNC_CONFIG"),
			Destination: &x.configPath,
		},
	}
}

func (x Sync) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("candidates", x.candidates),
		slog.Duration("discovery_timeout", x.discoveryTimeout),
		slog.Int("page_limit", x.pageLimit),
		slog.Duration("interval", x.interval),
		slog.Duration("stale_threshold", x.staleThreshold),
		slog.String("config", x.configPath),
	)
}

// Configure merges the optional file into unset flags, fills the default
// candidate list and validates the result
func (x *Sync) Configure(c *cli.Command) error {
	if x.configPath != "" {
		file, err := LoadSyncFile(x.configPath)
		if err != nil {
			return err
		}
		if err := x.apply(file, c.IsSet); err != nil {
			return err
		}
	}

	if len(x.candidates) == 0 {
		host, _ := os.Hostname()
		x.candidates = DefaultCandidates(host)
	}
	for _, candidate := range x.candidates {
		if err := validateCandidate(candidate); err != nil {
			return err
		}
	}

	if x.discoveryTimeout <= 0 || x.interval <= 0 || x.staleThreshold <= 0 {
		return goerr.Wrap(ErrInvalidDuration, "durations must be positive",
			goerr.V("discovery_timeout", x.discoveryTimeout),
			goerr.V("interval", x.interval),
			goerr.V("stale_threshold", x.staleThreshold))
	}
	if x.pageLimit <= 0 {
		return goerr.Wrap(ErrInvalidConfig, "page-limit must be positive", goerr.V("page_limit", x.pageLimit))
	}
	return nil
}

// apply copies file values for every flag isSet reports as not given
func (x *Sync) apply(file *SyncFile, isSet func(name string) bool) error {
	if !isSet("backend-url") && len(file.Backend.Candidates) > 0 {
		x.candidates = file.Backend.Candidates
	}
	if !isSet("page-limit") && file.Backend.PageLimit > 0 {
		x.pageLimit = file.Backend.PageLimit
	}

	durations := []struct {
		flag  string
		field string
		raw   string
		dst   *time.Duration
	}{
		{"discovery-timeout", "backend.discovery_timeout", file.Backend.DiscoveryTimeout, &x.discoveryTimeout},
		{"sync-interval", "schedule.interval", file.Schedule.Interval, &x.interval},
		{"stale-threshold", "schedule.stale_threshold", file.Schedule.StaleThreshold, &x.staleThreshold},
	}
	for _, d := range durations {
		if isSet(d.flag) || d.raw == "" {
			continue
		}
		v, err := parsePositiveDuration(d.field, d.raw)
		if err != nil {
			return err
		}
		*d.dst = v
	}
	return nil
}

// Candidates returns the effective relay candidates
func (x *Sync) Candidates() []string {
	return x.candidates
}

// Interval returns the background sync period
func (x *Sync) Interval() time.Duration {
	return x.interval
}

// NewService builds the locator, the paginated fetcher and the upstream service
func (x *Sync) NewService() (spectro.Service, *locator.Locator, error) {
	loc, err := locator.New(x.candidates, locator.WithTimeout(x.discoveryTimeout))
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create backend locator")
	}

	fetcher := spectro.NewFetcher(loc, spectro.WithPageLimit(x.pageLimit))
	svc, err := spectro.New(fetcher)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create spectro service")
	}
	return svc, loc, nil
}

// UseCaseOptions returns the sync use case options derived from the flags
func (x *Sync) UseCaseOptions() []usecase.SyncOption {
	return []usecase.SyncOption{
		usecase.WithStaleThreshold(x.staleThreshold),
	}
}

func validateCandidate(candidate string) error {
	u, err := url.Parse(candidate)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return goerr.Wrap(ErrInvalidCandidate, "candidate must be an absolute http(s) URL", goerr.V(CandidateKey, candidate))
	}
	return nil
}

func parsePositiveDuration(field, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, goerr.Wrap(ErrInvalidDuration, "duration must be positive", goerr.V(FieldKey, field), goerr.V("value", raw))
	}
	return d, nil
}
