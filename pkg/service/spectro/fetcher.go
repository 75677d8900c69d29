package spectro

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/idconsole/pkg/utils/logging"
	"github.com/secmon-lab/idconsole/pkg/utils/safe"
)

const (
	// DefaultPageLimit is the page size requested from the relay
	DefaultPageLimit = 50

	// Cursors of this length or shorter are placeholders, not real continuation tokens
	maxPlaceholderCursorLength = 2

	maxErrorBodyBytes = 1024
)

// ErrTagFirstPage marks a failure before any item of a collection was retrieved.
// Such a failure means the collection is unreachable and aborts the sync.
var ErrTagFirstPage = goerr.NewTag("first_page")

// Fetcher retrieves paginated collections from the relay
type Fetcher struct {
	resolver   BaseURLResolver
	httpClient *http.Client
	pageLimit  int
}

// FetcherOption is a functional option for Fetcher configuration
type FetcherOption func(*Fetcher)

// WithHTTPClient sets the HTTP client used for page requests
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.httpClient = c
	}
}

// WithPageLimit overrides the page size
func WithPageLimit(limit int) FetcherOption {
	return func(f *Fetcher) {
		if limit > 0 {
			f.pageLimit = limit
		}
	}
}

// NewFetcher creates a Fetcher resolving the relay base URL through resolver
func NewFetcher(resolver BaseURLResolver, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		resolver:   resolver,
		httpClient: http.DefaultClient,
		pageLimit:  DefaultPageLimit,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchAll follows the continuation cursor of resourcePath until it is exhausted and
// returns every item in server order.
//
// A failure before any item was retrieved is returned as an error tagged ErrTagFirstPage.
// A failure after that ends pagination and the items accumulated so far are returned,
// unless ctx is done: a canceled or expired context is always an error.
//
// The base URL pinned in ctx by WithBaseURL is used when present.
func FetchAll[T any](ctx context.Context, f *Fetcher, resourcePath string, onProgress ProgressFunc) ([]T, error) {
	logger := logging.From(ctx)

	base, ok := BaseURLFrom(ctx)
	if !ok {
		base = f.resolver.ResolveOrDefault(ctx)
	}
	endpoint, err := resolveEndpoint(base, resourcePath)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid relay endpoint",
			goerr.V("base", base),
			goerr.V("path", resourcePath),
			goerr.T(ErrTagFirstPage))
	}

	var items []T
	var cursor string
	for page := 1; ; page++ {
		resp, err := fetchPage[T](ctx, f, endpoint, cursor)
		if err != nil {
			if len(items) == 0 {
				return nil, goerr.Wrap(err, "failed to fetch first page",
					goerr.V("path", resourcePath),
					goerr.V("page", page),
					goerr.T(ErrTagFirstPage))
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, goerr.Wrap(ctxErr, "fetch interrupted",
					goerr.V("path", resourcePath),
					goerr.V("page", page),
					goerr.V("count", len(items)))
			}

			logger.Warn("Fetch error, returning partial collection",
				"path", resourcePath,
				"page", page,
				"count", len(items),
				"error", err.Error())
			return items, nil
		}

		items = append(items, resp.Items...)
		if onProgress != nil {
			onProgress(len(items))
		}

		next := resp.nextCursor()
		if len(next) <= maxPlaceholderCursorLength {
			break
		}
		cursor = next
	}

	logger.Debug("Fetched collection", "path", resourcePath, "count", len(items))
	return items, nil
}

func fetchPage[T any](ctx context.Context, f *Fetcher, endpoint url.URL, cursor string) (*listResponse[T], error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(f.pageLimit))
	if cursor != "" {
		query.Set("continue", cursor)
	}
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build page request", goerr.V("url", endpoint.String()))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "page request failed", goerr.V("url", endpoint.String()))
	}
	defer safe.DrainClose(ctx, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, goerr.New("relay returned non-success status",
			goerr.V("url", endpoint.String()),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(body)))
	}

	var page listResponse[T]
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, goerr.Wrap(err, "failed to decode page", goerr.V("url", endpoint.String()))
	}

	return &page, nil
}

func resolveEndpoint(base, resourcePath string) (url.URL, error) {
	u, err := url.Parse(base)
	if err != nil {
		return url.URL{}, err
	}
	if u.Scheme == "" || u.Host == "" {
		return url.URL{}, goerr.New("base URL must be absolute", goerr.V("base", base))
	}
	return *u.ResolveReference(&url.URL{Path: resourcePath}), nil
}

// IsFirstPageFailure reports whether err means a collection was entirely unreachable
func IsFirstPageFailure(err error) bool {
	return err != nil && goerr.HasTag(err, ErrTagFirstPage)
}
