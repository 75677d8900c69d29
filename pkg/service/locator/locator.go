package locator

import (
	"context"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/idconsole/pkg/utils/logging"
	"github.com/secmon-lab/idconsole/pkg/utils/safe"
)

const (
	// DefaultTimeout bounds the whole discovery, not each probe
	DefaultTimeout = 5 * time.Second
)

// ErrNoReachableBackend is returned when no candidate answered with a 2xx status in time
var ErrNoReachableBackend = goerr.New("no reachable backend")

// Locator discovers a reachable relay from a prioritized candidate list.
// It is a best-effort helper: callers fall back to the first candidate when discovery fails.
type Locator struct {
	candidates []string
	timeout    time.Duration
	httpClient *http.Client
}

// Option is a functional option for Locator configuration
type Option func(*Locator)

// WithTimeout sets the shared timeout for all probes
func WithTimeout(d time.Duration) Option {
	return func(l *Locator) {
		l.timeout = d
	}
}

// WithHTTPClient sets the HTTP client used for probing
func WithHTTPClient(c *http.Client) Option {
	return func(l *Locator) {
		l.httpClient = c
	}
}

// New creates a Locator. Candidates are deduplicated preserving order and
// the first one becomes the fallback of last resort.
func New(candidates []string, opts ...Option) (*Locator, error) {
	unique := dedup(candidates)
	if len(unique) == 0 {
		return nil, goerr.New("at least one backend candidate is required")
	}

	l := &Locator{
		candidates: unique,
		timeout:    DefaultTimeout,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// Candidates returns the deduplicated candidate list
func (l *Locator) Candidates() []string {
	out := make([]string, len(l.candidates))
	copy(out, l.candidates)
	return out
}

// Fallback returns the designated last-resort candidate
func (l *Locator) Fallback() string {
	return l.candidates[0]
}

// Resolve probes every candidate concurrently and returns the first one that
// completes with a successful status. Slower probes are left to finish and their
// results are discarded.
func (l *Locator) Resolve(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	type result struct {
		url string
		err error
	}

	// Buffered so that losing probes never block after the race is decided
	results := make(chan result, len(l.candidates))
	for _, candidate := range l.candidates {
		go func(url string) {
			results <- result{url: url, err: l.probe(ctx, url)}
		}(candidate)
	}

	var failures []error
	for range l.candidates {
		select {
		case r := <-results:
			if r.err == nil {
				logging.From(ctx).Info("Connected to backend", "url", r.url)
				return r.url, nil
			}
			failures = append(failures, r.err)

		case <-ctx.Done():
			return "", goerr.Wrap(ErrNoReachableBackend, "backend discovery timed out",
				goerr.V("timeout", l.timeout.String()),
				goerr.V("failures", len(failures)))
		}
	}

	return "", goerr.Wrap(ErrNoReachableBackend, "all backend candidates failed",
		goerr.V("candidates", l.candidates),
		goerr.V("errors", failures))
}

// ResolveOrDefault never fails. On discovery failure it logs and returns Fallback().
func (l *Locator) ResolveOrDefault(ctx context.Context) string {
	url, err := l.Resolve(ctx)
	if err != nil {
		logging.From(ctx).Warn("Discovery failed, defaulting to first candidate",
			"fallback", l.Fallback(),
			"error", err.Error())
		return l.Fallback()
	}
	return url
}

func (l *Locator) probe(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to build probe request", goerr.V("url", url))
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "probe failed", goerr.V("url", url))
	}
	defer safe.DrainClose(ctx, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return goerr.New("probe returned non-success status",
			goerr.V("url", url),
			goerr.V("status", resp.StatusCode))
	}
	return nil
}

func dedup(candidates []string) []string {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
