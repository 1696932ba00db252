package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sealedreg/internal/registry/models"
	"sealedreg/internal/registry/stats"
	dErrors "sealedreg/pkg/domain-errors"
	"sealedreg/pkg/requestcontext"
)

// Service defines the registry operations consumed by the HTTP layer.
type Service interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.Record, error)
	RegisterBatch(ctx context.Context, req models.BatchRegisterRequest) ([]string, error)
	Finalize(ctx context.Context, owner string, req models.FinalizeRequest) (*models.Record, error)
	IsRegistered(ctx context.Context, owner string) (bool, error)
	ListRegistered(ctx context.Context) ([]string, error)
	GetInfo(ctx context.Context, owner string) (models.Snapshot, error)
	Statistics(ctx context.Context) stats.Snapshot
}

// Handler is the thin HTTP layer over the registry service. It delegates to
// the service without embedding business logic so transport concerns remain
// isolated.
type Handler struct {
	registry    Service
	logger      *slog.Logger
	coordinator func(http.Handler) http.Handler
}

// New creates a registry Handler. coordinator guards the privileged finalize
// route.
func New(registry Service, logger *slog.Logger, coordinator func(http.Handler) http.Handler) *Handler {
	return &Handler{registry: registry, logger: logger, coordinator: coordinator}
}

// Register mounts the registry routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/registry", func(r chi.Router) {
		r.Post("/participants", h.handleRegister)
		r.Post("/participants/batch", h.handleRegisterBatch)
		r.Get("/participants", h.handleList)
		r.Get("/participants/{owner}", h.handleGetInfo)
		r.Get("/participants/{owner}/registered", h.handleIsRegistered)
		r.Get("/statistics", h.handleStatistics)

		r.Group(func(r chi.Router) {
			r.Use(h.coordinator)
			r.Post("/participants/{owner}/finalize", h.handleFinalize)
		})
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	record, err := h.registry.Register(ctx, req)
	if err != nil {
		h.logRejection(ctx, "register", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{
		Owner:       record.Owner,
		SubmittedAt: record.SubmittedAt,
	})
}

func (h *Handler) handleRegisterBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.BatchRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	owners, err := h.registry.RegisterBatch(ctx, req)
	if err != nil {
		h.logRejection(ctx, "register_batch", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, batchRegisterResponse{Owners: owners, Admitted: len(owners)})
}

func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := chi.URLParam(r, "owner")

	var req models.FinalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	record, err := h.registry.Finalize(ctx, owner, req)
	if err != nil {
		h.logRejection(ctx, "finalize", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.SnapshotOf(record))
}

func (h *Handler) handleIsRegistered(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	registered, err := h.registry.IsRegistered(r.Context(), owner)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, isRegisteredResponse{Owner: owner, Registered: registered})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	owners, err := h.registry.ListRegistered(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Owners: owners})
}

func (h *Handler) handleGetInfo(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	snapshot, err := h.registry.GetInfo(r.Context(), owner)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	snap := h.registry.Statistics(r.Context())
	writeJSON(w, http.StatusOK, statisticsResponse{
		TotalRecords:     snap.TotalRecords,
		DecryptedRecords: snap.DecryptedRecords,
		AverageLatencyMS: snap.AverageLatency.Milliseconds(),
	})
}

func (h *Handler) logRejection(ctx context.Context, operation string, err error) {
	h.logger.WarnContext(ctx, "request rejected",
		"operation", operation,
		"code", string(dErrors.CodeOf(err)),
		"request_id", requestcontext.RequestID(ctx),
	)
}

type registerResponse struct {
	Owner       string    `json:"owner"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type batchRegisterResponse struct {
	Owners   []string `json:"owners"`
	Admitted int      `json:"admitted"`
}

type isRegisteredResponse struct {
	Owner      string `json:"owner"`
	Registered bool   `json:"registered"`
}

type listResponse struct {
	Owners []string `json:"owners"`
}

type statisticsResponse struct {
	TotalRecords     uint64 `json:"total_records"`
	DecryptedRecords uint64 `json:"decrypted_records"`
	AverageLatencyMS int64  `json:"average_latency_ms"`
}

// writeError centralizes domain error translation to HTTP responses so every
// handler returns the same JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	writeJSON(w, dErrors.ToHTTPStatus(code), map[string]string{"error": string(code)})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
