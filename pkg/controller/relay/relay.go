package relay

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/idconsole/pkg/service/spectro"
	"github.com/secmon-lab/idconsole/pkg/utils/logging"
	"github.com/secmon-lab/idconsole/pkg/utils/safe"
)

const (
	// DefaultAPIBase is the upstream identity API
	DefaultAPIBase = "https://api.spectrocloud.com/v1"

	// DefaultTimeout bounds one upstream round trip
	DefaultTimeout = 60 * time.Second

	userAgent   = "SpectroBackend/1.0"
	activeText  = "Spectro Proxy Active"
	notFoundMsg = "Endpoint Not Found"
)

// upstreamPaths maps relay paths to upstream API paths
var upstreamPaths = map[string]string{
	spectro.UsersPath: "/users",
	spectro.RolesPath: "/roles",
	spectro.TeamsPath: "/teams/summary",
}

// Relay forwards the three read-only collection endpoints to the upstream API,
// attaching the API key and answering browser CORS checks itself
type Relay struct {
	router     *chi.Mux
	apiBase    string
	apiKey     string
	httpClient *http.Client
}

type Option func(*Relay)

// WithAPIBase replaces DefaultAPIBase
func WithAPIBase(base string) Option {
	return func(r *Relay) {
		r.apiBase = strings.TrimRight(base, "/")
	}
}

// WithHTTPClient replaces the client used for upstream requests
func WithHTTPClient(client *http.Client) Option {
	return func(r *Relay) {
		r.httpClient = client
	}
}

// New creates a relay. apiKey is sent upstream verbatim and may be empty.
func New(apiKey string, opts ...Option) (*Relay, error) {
	r := &Relay{
		apiBase:    DefaultAPIBase,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(r)
	}

	if _, err := url.Parse(r.apiBase); err != nil {
		return nil, goerr.Wrap(err, "invalid upstream API base", goerr.V("api_base", r.apiBase))
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(accessLogger)
	router.Use(middleware.Recoverer)
	router.Use(corsHeaders)
	router.Use(middleware.GetHead)

	router.Get("/", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		safe.Write(req.Context(), w, []byte(activeText))
	})
	for relayPath, upstreamPath := range upstreamPaths {
		router.Get(relayPath, r.forward(upstreamPath))
	}
	router.NotFound(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusNotFound)
		safe.Write(req.Context(), w, []byte(notFoundMsg))
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Allow", allowMethods)
		w.WriteHeader(http.StatusMethodNotAllowed)
	})

	r.router = router
	return r, nil
}

func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}

func (r *Relay) forward(upstreamPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		target := r.apiBase + upstreamPath
		if req.URL.RawQuery != "" {
			target += "?" + req.URL.RawQuery
		}

		upstreamReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			writeBadGateway(w, req, err, goerr.Wrap(err, "failed to build upstream request", goerr.V("target", target)))
			return
		}
		upstreamReq.Header.Set("Accept", "application/json")
		upstreamReq.Header.Set("ApiKey", r.apiKey)
		upstreamReq.Header.Set("User-Agent", userAgent)

		resp, err := r.httpClient.Do(upstreamReq)
		if err != nil {
			writeBadGateway(w, req, err, goerr.Wrap(err, "upstream request failed", goerr.V("target", upstreamPath)))
			return
		}
		defer safe.Close(ctx, resp.Body)

		copyUpstreamHeaders(w.Header(), resp.Header)
		w.WriteHeader(resp.StatusCode)
		n := safe.Copy(ctx, w, resp.Body)
		logging.From(ctx).Debug("relayed upstream response",
			"target", upstreamPath,
			"status", resp.StatusCode,
			"bytes", n)
	}
}

// copyUpstreamHeaders copies upstream response headers except the CORS pair
// the relay sets itself and hop-by-hop headers
func copyUpstreamHeaders(dst, src http.Header) {
	for key, values := range src {
		switch http.CanonicalHeaderKey(key) {
		case "Access-Control-Allow-Origin", "Access-Control-Allow-Methods",
			"Connection", "Transfer-Encoding", "Keep-Alive":
			continue
		}
		dst.Del(key)
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}

// writeBadGateway reports cause to the client and logs the wrapped error
func writeBadGateway(w http.ResponseWriter, req *http.Request, cause, err error) {
	logging.From(req.Context()).Error("Upstream Error", "error", err.Error(), "path", req.URL.Path)

	body, _ := json.Marshal(map[string]string{
		"error":   "Backend Connection Failed",
		"details": cause.Error(),
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadGateway)
	safe.Write(req.Context(), w, body)
}
