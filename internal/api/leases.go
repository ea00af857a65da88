// ABOUTME: Handlers for lease creation, reads, lists, stats, and trash
// ABOUTME: The acting user always comes from the verified session, never the body

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lodgekeep/lodgekeep/internal/auth"
	"github.com/lodgekeep/lodgekeep/internal/lease"
)

func actorID(r *http.Request) string {
	return auth.MustFromContext(r.Context()).UserID
}

func leaseID(r *http.Request) string {
	return chi.URLParam(r, "leaseID")
}

func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PropertyID string `json:"propertyId"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	l, err := s.engine.CreateApplication(r.Context(), actorID(r), req.PropertyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "application submitted", leaseToView(l))
}

func (s *Server) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TenantID   string `json:"tenantId"`
		PropertyID string `json:"propertyId"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	l, err := s.engine.CreateDraft(r.Context(), actorID(r), req.TenantID, req.PropertyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "draft created", leaseToView(l))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	l, err := s.engine.GetByID(r.Context(), leaseID(r), actorID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "lease", leaseToView(l))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var status *lease.Status
	if v := q.Get("status"); v != "" {
		st := lease.Status(v)
		status = &st
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	summaries, err := s.engine.ListForUser(r.Context(), actorID(r), q.Get("propertyId"), status, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "leases", summariesToView(summaries))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.GetStats(r.Context(), actorID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "stats", stats)
}

func (s *Server) handleListTrash(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	summaries, err := s.engine.ListTrash(r.Context(), actorID(r), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "trash", summariesToView(summaries))
}

func (s *Server) handleSoftDelete(w http.ResponseWriter, r *http.Request) {
	l, err := s.engine.SoftDelete(r.Context(), leaseID(r), actorID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "lease moved to trash", leaseToView(l))
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	ac := auth.MustFromContext(r.Context())
	l, err := s.engine.Restore(r.Context(), leaseID(r), ac.UserID, ac.IsAdmin())
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "lease restored", leaseToView(l))
}
