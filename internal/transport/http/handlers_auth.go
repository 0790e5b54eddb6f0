package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"insurechain/internal/party"
	"insurechain/internal/platform/middleware"
	"insurechain/internal/transport/http/shared"
	dErrors "insurechain/pkg/domain-errors"
)

// AuthHandler serves organization registration and login.
type AuthHandler struct {
	party  *party.Service
	logger *slog.Logger
}

func NewAuthHandler(party *party.Service, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{party: party, logger: logger}
}

func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
}

type registerRequest struct {
	Name   string `json:"name"`
	Role   string `json:"role"`
	Secret string `json:"secret"`
}

type registerResponse struct {
	PartyID   string    `json:"party_id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	p, err := h.party.Register(ctx, req.Name, party.Role(req.Role), req.Secret)
	if err != nil {
		h.logger.WarnContext(ctx, "registration rejected",
			"name", req.Name,
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, registerResponse{
		PartyID:   p.ID.String(),
		Name:      p.Name,
		Role:      string(p.Role),
		CreatedAt: p.CreatedAt,
	})
}

type loginRequest struct {
	Name   string `json:"name"`
	Secret string `json:"secret"`
}

type loginResponse struct {
	Token string `json:"token"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	token, p, err := h.party.Authenticate(ctx, req.Name, req.Secret)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, loginResponse{
		Token: token,
		Name:  p.Name,
		Role:  string(p.Role),
	})
}
