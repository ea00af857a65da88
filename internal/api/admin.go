// ABOUTME: Administrative handlers: unscoped reads, permanent delete, audit trail
// ABOUTME: All routes here sit behind the admin role gate

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/lodgekeep/lodgekeep/internal/store"
)

func (s *Server) handleAdminGet(w http.ResponseWriter, r *http.Request) {
	l, err := s.engine.AdminGetByID(r.Context(), leaseID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "lease", leaseToView(l))
}

func (s *Server) handlePermanentDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.PermanentDelete(r.Context(), leaseID(r), actorID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "lease permanently deleted", nil)
}

func (s *Server) handleAdminListTrash(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	summaries, err := s.engine.ListTrash(r.Context(), r.URL.Query().Get("userId"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "trash", summariesToView(summaries))
}

func (s *Server) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.AuditFilter{}
	if v := q.Get("actorId"); v != "" {
		f.ActorID = &v
	}
	if v := q.Get("targetId"); v != "" {
		f.TargetID = &v
	}
	if v := q.Get("action"); v != "" {
		a := store.AuditAction(v)
		f.Action = &a
	}
	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeBadRequest(w, "since must be RFC3339")
			return
		}
		f.Since = &since
	}
	f.Limit, _ = strconv.Atoi(q.Get("limit"))

	entries, err := s.engine.AuditTrail(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]auditView, 0, len(entries))
	for _, e := range entries {
		views = append(views, auditView{
			ID:         e.ID,
			ActorID:    e.ActorID,
			Action:     string(e.Action),
			TargetType: e.TargetType,
			TargetID:   e.TargetID,
			Timestamp:  e.Timestamp,
			Detail:     e.Detail,
		})
	}
	writeSuccess(w, http.StatusOK, "audit trail", views)
}

type auditView struct {
	ID         string         `json:"id"`
	ActorID    string         `json:"actorId"`
	Action     string         `json:"action"`
	TargetType string         `json:"targetType"`
	TargetID   string         `json:"targetId"`
	Timestamp  time.Time      `json:"timestamp"`
	Detail     map[string]any `json:"detail,omitempty"`
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.GetStats(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "stats", stats)
}
