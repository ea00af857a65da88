// ABOUTME: Chi router wiring the lease engine's REST surface
// ABOUTME: Session middleware guards everything except health; admin routes add a role gate

package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lodgekeep/lodgekeep/internal/auth"
	"github.com/lodgekeep/lodgekeep/internal/engine"
)

// Server holds the handler dependencies.
type Server struct {
	engine   *engine.Engine
	verifier auth.TokenVerifier
	cookie   string
	logger   *slog.Logger
}

// NewServer creates the API server around an assembled engine.
func NewServer(eng *engine.Engine, verifier auth.TokenVerifier, cookieName string, logger *slog.Logger) *Server {
	return &Server{
		engine:   eng,
		verifier: verifier,
		cookie:   cookieName,
		logger:   logger.With("component", "api"),
	}
}

// Router builds the full route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(s.verifier, s.cookie))

		r.Route("/leases", func(r chi.Router) {
			r.Post("/applications", s.handleCreateApplication)
			r.Post("/drafts", s.handleCreateDraft)
			r.Get("/", s.handleList)
			r.Get("/stats", s.handleStats)
			r.Get("/trash", s.handleListTrash)

			r.Route("/{leaseID}", func(r chi.Router) {
				r.Get("/", s.handleGet)
				r.Delete("/", s.handleSoftDelete)
				r.Post("/restore", s.handleRestore)

				r.Post("/review", s.handleReview)
				r.Patch("/draft", s.handleUpdateDraft)
				r.Post("/send-to-tenant", s.handleSendToTenant)
				r.Post("/changes", s.handleRequestChanges)
				r.Post("/changes/resolve", s.handleResolveChanges)
				r.Post("/send-to-landlord", s.handleSendToLandlord)
				r.Post("/sign", s.handleSign)

				r.Post("/inspections/{kind}/schedule", s.handleScheduleInspection)
				r.Post("/inspections/{kind}/conduct", s.handleConductInspection)

				r.Post("/notices", s.handleGiveNotice)
				r.Post("/renewal/respond", s.handleRespondToRenewal)

				r.Post("/deposit/payment", s.handleRecordDepositPayment)
				r.Post("/deposit/return", s.handleProcessDepositReturn)

				r.Post("/cancel", s.handleCancel)

				r.Post("/messages", s.handleAddMessage)
				r.Post("/messages/read", s.handleMarkMessagesRead)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireAdmin())
			r.Get("/leases/{leaseID}", s.handleAdminGet)
			r.Delete("/leases/{leaseID}", s.handlePermanentDelete)
			r.Get("/trash", s.handleAdminListTrash)
			r.Get("/audit", s.handleAuditTrail)
			r.Get("/stats", s.handleAdminStats)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, "ok", nil)
}
