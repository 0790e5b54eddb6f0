package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"insurechain/internal/mirror"
	"insurechain/internal/party"
	"insurechain/internal/platform/middleware"
	"insurechain/internal/syncbridge"
	"insurechain/internal/transport/http/shared"
	dErrors "insurechain/pkg/domain-errors"
)

// MirrorHandler serves the organization-local read endpoints.
type MirrorHandler struct {
	mirror *mirror.Service
	bridge *syncbridge.Bridge
	logger *slog.Logger
}

func NewMirrorHandler(mirror *mirror.Service, bridge *syncbridge.Bridge, logger *slog.Logger) *MirrorHandler {
	return &MirrorHandler{mirror: mirror, bridge: bridge, logger: logger}
}

// Register mounts the mirror routes. Reads require any valid party token;
// patient record submission is hospital-only.
func (h *MirrorHandler) Register(r chi.Router, validator middleware.TokenValidator) {
	mirrorRouter := chi.NewRouter()
	mirrorRouter.Use(middleware.RequireAuth(validator, h.logger))

	mirrorRouter.Get("/records/{kind}/{id}", h.handleGetRecord)
	mirrorRouter.Get("/records/{kind}", h.handleQueryRecords)
	mirrorRouter.Get("/status", h.handleStatus)

	mirrorRouter.Group(func(g chi.Router) {
		g.Use(middleware.RequireRole(party.RoleHospital, h.logger))
		g.Post("/patient-records", h.handleSubmitPatientRecord)
	})

	r.Mount("/mirror", mirrorRouter)
}

func (h *MirrorHandler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	kind := mirror.RecordKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		shared.WriteError(w, dErrors.Newf(dErrors.CodeInvalidInput, "unknown record kind %q", kind))
		return
	}

	record, err := h.mirror.Get(r.Context(), kind, chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, record)
}

func (h *MirrorHandler) handleQueryRecords(w http.ResponseWriter, r *http.Request) {
	kind := mirror.RecordKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		shared.WriteError(w, dErrors.Newf(dErrors.CodeInvalidInput, "unknown record kind %q", kind))
		return
	}

	field := r.URL.Query().Get("field")
	value := r.URL.Query().Get("value")
	if field == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "field query parameter is required"))
		return
	}

	records, err := h.mirror.QueryByField(r.Context(), kind, field, value)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if records == nil {
		records = []mirror.Record{}
	}
	shared.WriteJSON(w, http.StatusOK, records)
}

func (h *MirrorHandler) handleSubmitPatientRecord(w http.ResponseWriter, r *http.Request) {
	var sub syncbridge.PatientRecordSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	record, err := h.bridge.SubmitPatientRecord(r.Context(), sub)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, record)
}

func (h *MirrorHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.mirror.Status(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, status)
}
