package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"taxbridge/internal/catalog"
	"taxbridge/internal/flat"
	"taxbridge/internal/runner"
	"taxbridge/internal/state"
	"taxbridge/internal/store"
)

// Archive stores and loads result tables.
type Archive interface {
	SaveRun(ctx context.Context, mode string, table flat.Table) (string, error)
	LoadRun(ctx context.Context, id string) (store.Run, flat.Table, error)
	ListRuns(ctx context.Context) ([]store.Run, error)
}

// Handler holds API route handlers.
type Handler struct {
	runner  *runner.Runner
	catalog *catalog.Catalog
	states  *state.Registry
	archive Archive
	logger  *slog.Logger
}

// NewHandler creates a new Handler. archive may be nil.
func NewHandler(r *runner.Runner, cat *catalog.Catalog, states *state.Registry, archive Archive, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{runner: r, catalog: cat, states: states, archive: archive, logger: logger}
}

// Situations handles POST /api/situations.
func (h *Handler) Situations(w http.ResponseWriter, r *http.Request) {
	var req RecordsRequest

	if !h.decode(w, r, &req) {
		return
	}

	sits, err := h.runner.Situations(req.Records)
	if err != nil {
		h.fail(w, "build situations", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"situations": sits})
}

// Calculate handles POST /api/calculate.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest

	if !h.decode(w, r, &req) {
		return
	}

	table, err := h.runner.Run(r.Context(), req.Records)
	if err != nil {
		h.fail(w, "calculate", err)
		return
	}

	var runID string

	if req.Archive && h.archive != nil {
		runID, err = h.archive.SaveRun(r.Context(), string(h.runner.Mode()), table)
		if err != nil {
			h.logger.Error("api: archive run failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))

			return
		}
	}

	writeJSON(w, http.StatusOK, newTableResponse(runID, table))
}

// Variables handles GET /api/catalog/variables?level=&state=.
func (h *Handler) Variables(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	level := flat.LevelStandard

	if raw := q.Get("level"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || !flat.Level(n).IsKnown() {
			writeJSON(w, http.StatusBadRequest, errorBody("level must be 0, 2 or 5"))
			return
		}

		level = flat.Level(n)
	}

	st := strings.ToUpper(q.Get("state"))
	if st == "" || !h.states.IsKnown(st) {
		writeJSON(w, http.StatusBadRequest, errorBody("state must be a known two-letter abbreviation"))
		return
	}

	writeJSON(w, http.StatusOK, VariablesResponse{
		Level:     int(level),
		State:     st,
		Variables: h.catalog.Variables(level, st),
	})
}

// ListRuns handles GET /api/runs.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		writeJSON(w, http.StatusNotFound, errorBody("archive is disabled"))
		return
	}

	runs, err := h.archive.ListRuns(r.Context())
	if err != nil {
		h.logger.Error("api: list runs failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))

		return
	}

	if runs == nil {
		runs = []store.Run{}
	}

	writeJSON(w, http.StatusOK, RunsResponse{Runs: runs})
}

// GetRun handles GET /api/runs/{id}.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		writeJSON(w, http.StatusNotFound, errorBody("archive is disabled"))
		return
	}

	id := chi.URLParam(r, "id")

	run, table, err := h.archive.LoadRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}

		h.logger.Error("api: load run failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))

		return
	}

	writeJSON(w, http.StatusOK, newTableResponse(run.ID, table))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		var malformed *flat.MalformedInputError
		if errors.As(err, &malformed) {
			writeJSON(w, http.StatusBadRequest, errorBody(malformed.Error()))
			return false
		}

		writeJSON(w, http.StatusBadRequest, errorBody("invalid json"))

		return false
	}

	return true
}

// fail writes 400 for input errors and 502 for everything else.
func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	var malformed *flat.MalformedInputError

	switch {
	case errors.As(err, &malformed),
		errors.Is(err, runner.ErrMissingID),
		errors.Is(err, runner.ErrDuplicateID):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	default:
		h.logger.Error("api: "+op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody(err.Error()))
	}
}
