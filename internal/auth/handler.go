package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	dErrors "sealedreg/pkg/domain-errors"
)

// TokenTTL bounds how long a coordinator token stays valid.
const TokenTTL = 15 * time.Minute

// Handler exposes coordinator token issuance.
type Handler struct {
	jwt        *JWTService
	logger     *slog.Logger
	id         string
	secretHash string
}

// NewHandler creates the auth handler. id and secretHash identify the single
// configured coordinator credential.
func NewHandler(jwt *JWTService, logger *slog.Logger, id, secretHash string) *Handler {
	return &Handler{jwt: jwt, logger: logger, id: id, secretHash: secretHash}
}

// Register mounts the auth routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/token", h.handleToken)
}

type tokenRequest struct {
	CoordinatorID string `json:"coordinator_id"`
	Secret        string `json:"secret"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthError(w, dErrors.CodeValidation, "invalid request body")
		return
	}

	if h.id == "" || req.CoordinatorID != h.id {
		writeAuthError(w, dErrors.CodeUnauthorized, "invalid credentials")
		return
	}
	if err := VerifySecret(req.Secret, h.secretHash); err != nil {
		h.logger.WarnContext(r.Context(), "coordinator credential rejected", "coordinator_id", req.CoordinatorID)
		writeAuthError(w, dErrors.CodeUnauthorized, "invalid credentials")
		return
	}

	token, err := h.jwt.GenerateToken(req.CoordinatorID, TokenTTL)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "token generation failed", "error", err)
		writeAuthError(w, dErrors.CodeInternal, "could not issue token")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(TokenTTL.Seconds()),
	})
}

func writeAuthError(w http.ResponseWriter, code dErrors.Code, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             string(code),
		"error_description": description,
	})
}
