package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/vbonduro/lostfound/internal/domain"
)

// parseStatusFilter accepts "", "all" or a lifecycle status. The empty status
// means no filter.
func parseStatusFilter(raw string) (domain.Status, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "all" {
		return "", nil
	}
	status, err := domain.ParseStatus(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	return status, nil
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	status, err := parseStatusFilter(r.URL.Query().Get("status"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	items, err := s.service.List(r.Context(), status)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		if err := s.renderPartial(w, http.StatusOK, "admin_rows", items,
			"partials/admin_rows.html", "partials/admin_row.html",
		); err != nil {
			s.logger.Error("render partial failed", "error", err)
		}
		return
	}

	stats, err := s.service.Stats(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var username string
	if claims := adminClaims(r.Context()); claims != nil {
		username = claims.Username
	}

	if err := s.renderPage(w, http.StatusOK,
		map[string]any{
			"Items":     items,
			"Status":    status,
			"Statuses":  domain.Statuses,
			"Stats":     stats,
			"Username":  username,
			"ActiveNav": "admin",
		},
		"base.html", "pages/admin.html", "partials/admin_rows.html", "partials/admin_row.html",
	); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

func (s *Server) handleItemDetails(w http.ResponseWriter, r *http.Request) {
	item, err := s.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.renderPartial(w, http.StatusOK, "item_details", item, "partials/item_details.html"); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	item, err := s.service.Approve(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if !isHTMX(r) {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	if err := s.renderPartial(w, http.StatusOK, "admin_row", item, "partials/admin_row.html"); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}

// handleDelete answers with an empty body so htmx removes the row.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
