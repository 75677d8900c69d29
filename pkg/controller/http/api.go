package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/idconsole/pkg/domain/types"
	"github.com/secmon-lab/idconsole/pkg/usecase"
	"github.com/secmon-lab/idconsole/pkg/utils/errutil"
	"github.com/secmon-lab/idconsole/pkg/utils/logging"
)

// DashboardUseCase is the dashboard behavior served over HTTP
type DashboardUseCase interface {
	Query(q usecase.UserQuery) (*usecase.UserPage, error)
	Sync(ctx context.Context, mode types.SyncMode) (*usecase.SyncOutcome, error)
	Status(ctx context.Context) (*usecase.DashboardStatus, error)
	Stats() *usecase.Stats
	ExportCSV(ctx context.Context, w io.Writer) (int, error)
}

var _ DashboardUseCase = (*usecase.DashboardUseCase)(nil)

type syncResponse struct {
	*usecase.SyncOutcome
	Error string `json:"error,omitempty"`
}

func usersHandler(dashboard DashboardUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parseUserQuery(r)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}

		page, err := dashboard.Query(q)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, usecase.ErrInvalidSortKey) ||
				errors.Is(err, usecase.ErrInvalidSortOrder) ||
				errors.Is(err, usecase.ErrInvalidPage) {
				status = http.StatusBadRequest
			}
			errutil.HandleHTTP(r.Context(), w, err, status)
			return
		}

		writeJSON(r.Context(), w, http.StatusOK, page)
	}
}

func parseUserQuery(r *http.Request) (usecase.UserQuery, error) {
	values := r.URL.Query()
	q := usecase.UserQuery{
		Search: values.Get("q"),
		SortBy: usecase.SortKey(values.Get("sort")),
		Order:  usecase.SortOrder(values.Get("order")),
	}

	for name, dst := range map[string]*int{"page": &q.Page, "per_page": &q.PerPage} {
		raw := values.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, goerr.Wrap(usecase.ErrInvalidPage, "query parameter is not a number",
				goerr.V("param", name),
				goerr.V("value", raw))
		}
		*dst = n
	}
	return q, nil
}

func syncHandler(dashboard DashboardUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mode := types.SyncModeExplicit
		if raw := r.URL.Query().Get("mode"); raw != "" {
			parsed, err := types.ParseSyncMode(raw)
			if err != nil {
				errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
				return
			}
			mode = parsed
		}

		outcome, err := dashboard.Sync(r.Context(), mode)
		if err != nil {
			logging.From(r.Context()).Warn("sync request failed", "mode", mode.String(), "error", err.Error())
			// a silent failure keeps the displayed data and is not reported to the client
			if mode.IsSilent() && outcome != nil {
				writeJSON(r.Context(), w, http.StatusOK, syncResponse{SyncOutcome: outcome})
				return
			}
			if outcome == nil {
				outcome = &usecase.SyncOutcome{Mode: mode}
			}
			writeJSON(r.Context(), w, http.StatusBadGateway, syncResponse{SyncOutcome: outcome, Error: err.Error()})
			return
		}

		writeJSON(r.Context(), w, http.StatusOK, syncResponse{SyncOutcome: outcome})
	}
}

func statusHandler(dashboard DashboardUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := dashboard.Status(r.Context())
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, status)
	}
}

func statsHandler(dashboard DashboardUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, http.StatusOK, dashboard.Stats())
	}
}

func exportHandler(dashboard DashboardUseCase, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if _, err := dashboard.ExportCSV(r.Context(), &buf); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, usecase.ErrNoUsers) {
				status = http.StatusNotFound
			}
			errutil.HandleHTTP(r.Context(), w, err, status)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+usecase.ExportFileName(now())+`"`)
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes()) //nolint:errcheck // header already committed
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) //nolint:errcheck // header already committed
}
