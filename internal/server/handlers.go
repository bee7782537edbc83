package server

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vanshika/geosocial/backend/internal/density"
	"github.com/vanshika/geosocial/backend/internal/domain"
	"github.com/vanshika/geosocial/backend/internal/export"
)

// UserReader looks up merged user documents.
type UserReader interface {
	Get(ctx context.Context, userID int64) (domain.UserRecord, error)
}

// SubgraphSource yields the current sampled subgraph.
type SubgraphSource interface {
	Subgraph(ctx context.Context) (domain.Subgraph, error)
}

// FileSubgraph reads the sampled subgraph from its JSON document on each call.
type FileSubgraph struct {
	Path string
}

// Subgraph implements SubgraphSource.
func (f FileSubgraph) Subgraph(context.Context) (domain.Subgraph, error) {
	return export.ReadSubgraph(f.Path)
}

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger *slog.Logger
	users  UserReader
	graph  SubgraphSource
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, users UserReader, graph SubgraphSource) *APIHandlers {
	return &APIHandlers{
		logger: logger,
		users:  users,
		graph:  graph,
	}
}

// handleGraph serves the visualization payload. When either threshold is
// given, a node is kept if it passes at least one of them; an omitted
// threshold passes nothing.
func (h *APIHandlers) handleGraph(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	maxDuration, err := parseFloat(query.Get("maxDuration"), math.Inf(-1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid maxDuration")
		return
	}
	maxFrequency, err := parseInt(query.Get("maxFrequency"), -1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid maxFrequency")
		return
	}

	sub, err := h.graph.Subgraph(r.Context())
	if err != nil {
		h.logger.Error("failed to load sampled graph", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load sampled graph")
		return
	}

	viz := export.BuildVisualization(sub)
	if query.Has("maxDuration") || query.Has("maxFrequency") {
		viz = export.Filter(viz, maxDuration, maxFrequency)
	}
	respondJSON(w, http.StatusOK, viz)
}

func (h *APIHandlers) handleStats(w http.ResponseWriter, r *http.Request) {
	sub, err := h.graph.Subgraph(r.Context())
	if err != nil {
		h.logger.Error("failed to load sampled graph", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load sampled graph")
		return
	}

	result, err := density.Report(sub.Nodes, sub.Links)
	if errors.Is(err, domain.ErrEmptyGraph) {
		writeError(w, http.StatusNotFound, "sampled graph is empty")
		return
	}
	if err != nil {
		h.logger.Error("failed to compute clustering", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute clustering")
		return
	}

	resp := statsResponse{
		AverageClustering: result.Average,
		Vertices:          result.Vertices,
		Edges:             result.Edges,
		Triangles:         result.Triangles,
		Coefficients:      make(map[string]float64, len(result.Coefficients)),
	}
	for id, c := range result.Coefficients {
		resp.Coefficients[strconv.FormatInt(id, 10)] = c
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *APIHandlers) handleUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if errors.Is(err, domain.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to fetch user", "error", err, "userId", id)
		writeError(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

type statsResponse struct {
	AverageClustering float64            `json:"averageClustering"`
	Vertices          int                `json:"vertices"`
	Edges             int                `json:"edges"`
	Triangles         int                `json:"triangles"`
	Coefficients      map[string]float64 `json:"coefficients"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func parseFloat(value string, fallback float64) (float64, error) {
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(value, 64)
}

func parseInt(value string, fallback int) (int, error) {
	if value == "" {
		return fallback, nil
	}
	return strconv.Atoi(value)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}
