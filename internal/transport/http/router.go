// Package httptransport is the thin HTTP layer. Handlers delegate to domain
// services without embedding business logic so transport concerns remain
// isolated.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"insurechain/internal/ledger"
	"insurechain/internal/mirror"
	"insurechain/internal/party"
	"insurechain/internal/platform/middleware"
	"insurechain/internal/syncbridge"
	"insurechain/internal/transport/http/shared"
)

// Deps carries everything the router wires together.
type Deps struct {
	Logger    *slog.Logger
	Ledger    *ledger.Service
	Mirror    *mirror.Service
	Bridge    *syncbridge.Bridge
	Party     *party.Service
	Validator middleware.TokenValidator
}

// NewRouter wires all public endpoints.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.Logger(d.Logger))

	r.Get("/healthz", handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	authHandler := NewAuthHandler(d.Party, d.Logger)
	authHandler.Register(r)

	ledgerHandler := NewLedgerHandler(d.Ledger, d.Logger)
	ledgerHandler.Register(r, d.Validator)

	mirrorHandler := NewMirrorHandler(d.Mirror, d.Bridge, d.Logger)
	mirrorHandler.Register(r, d.Validator)

	return r
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
