package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"insurechain/internal/ledger"
	"insurechain/internal/party"
	"insurechain/internal/platform/middleware"
	"insurechain/internal/transport/http/shared"
	dErrors "insurechain/pkg/domain-errors"
)

// LedgerHandler serves the authoritative policy/claim endpoints.
type LedgerHandler struct {
	ledger *ledger.Service
	logger *slog.Logger
}

func NewLedgerHandler(ledger *ledger.Service, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, logger: logger}
}

// Register mounts the ledger routes. Every route requires a valid party
// token; role checks happen in the service, except claim processing which is
// an insurer-only route.
func (h *LedgerHandler) Register(r chi.Router, validator middleware.TokenValidator) {
	ledgerRouter := chi.NewRouter()
	ledgerRouter.Use(middleware.RequireAuth(validator, h.logger))

	ledgerRouter.Post("/policies", h.handleRegisterPolicy)
	ledgerRouter.Post("/policies/{id}/deactivate", h.handleDeactivatePolicy)
	ledgerRouter.Get("/policies/{id}", h.handleGetPolicy)
	ledgerRouter.Post("/claims", h.handleSubmitClaim)
	ledgerRouter.Get("/claims/{id}", h.handleGetClaim)
	ledgerRouter.Get("/parties/{holder}/policies", h.handleListPolicies)
	ledgerRouter.Get("/parties/{holder}/claims", h.handleListClaims)
	ledgerRouter.Get("/stats", h.handleStats)

	ledgerRouter.Group(func(g chi.Router) {
		g.Use(middleware.RequireRole(party.RoleInsurer, h.logger))
		g.Post("/claims/{id}/process", h.handleProcessClaim)
	})

	r.Mount("/ledger", ledgerRouter)
}

func actorFromContext(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (party.Actor, bool) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		// Unreachable when RequireAuth is mounted.
		logger.ErrorContext(r.Context(), "actor missing from context despite auth middleware",
			"request_id", middleware.GetRequestID(r.Context()),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return party.Actor{}, false
	}
	return actor, true
}

type registerPolicyRequest struct {
	Holder        string    `json:"holder"`
	InsuredAmount int64     `json:"insured_amount"`
	Premium       int64     `json:"premium"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	DocumentHash  string    `json:"document_hash,omitempty"`
}

func (h *LedgerHandler) handleRegisterPolicy(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(w, r, h.logger)
	if !ok {
		return
	}

	var req registerPolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	policy, err := h.ledger.RegisterPolicy(r.Context(), ledger.RegisterPolicyInput{
		Holder:        req.Holder,
		InsuredAmount: req.InsuredAmount,
		Premium:       req.Premium,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		DocumentHash:  req.DocumentHash,
	}, actor)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, policy)
}

type submitClaimRequest struct {
	PolicyID    string `json:"policy_id"`
	Amount      int64  `json:"amount"`
	Description string `json:"description,omitempty"`
}

func (h *LedgerHandler) handleSubmitClaim(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(w, r, h.logger)
	if !ok {
		return
	}

	var req submitClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	claim, err := h.ledger.SubmitClaim(r.Context(), ledger.SubmitClaimInput{
		PolicyID:    req.PolicyID,
		Amount:      req.Amount,
		Description: req.Description,
	}, actor)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, claim)
}

type processClaimResponse struct {
	ClaimID  string `json:"claim_id"`
	Approved bool   `json:"approved"`
}

func (h *LedgerHandler) handleProcessClaim(w http.ResponseWriter, r *http.Request) {
	claimID := chi.URLParam(r, "id")

	approved, err := h.ledger.ProcessClaim(r.Context(), claimID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, processClaimResponse{ClaimID: claimID, Approved: approved})
}

func (h *LedgerHandler) handleDeactivatePolicy(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.ledger.DeactivatePolicy(r.Context(), chi.URLParam(r, "id"), actor); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LedgerHandler) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.ledger.GetPolicy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, policy)
}

func (h *LedgerHandler) handleGetClaim(w http.ResponseWriter, r *http.Request) {
	claim, err := h.ledger.GetClaim(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, claim)
}

func (h *LedgerHandler) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.ledger.GetUserPolicies(r.Context(), chi.URLParam(r, "holder"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, policies)
}

func (h *LedgerHandler) handleListClaims(w http.ResponseWriter, r *http.Request) {
	claims, err := h.ledger.GetUserClaims(r.Context(), chi.URLParam(r, "holder"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, claims)
}

func (h *LedgerHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.ledger.GetStats(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, stats)
}
