package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vbonduro/lostfound/internal/domain"
	"github.com/vbonduro/lostfound/internal/photostore"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.renderPage(w, http.StatusOK,
		map[string]any{"Stats": stats, "ActiveNav": "home"},
		"base.html", "pages/home.html",
	); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

// parseCategory accepts an empty category (no filter) or a known one.
func parseCategory(raw string) (domain.Category, error) {
	c := domain.Category(strings.TrimSpace(raw))
	if c != "" && !c.Valid() {
		return "", fmt.Errorf("%w: unknown category %q", domain.ErrValidation, raw)
	}
	return c, nil
}

func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	category, err := parseCategory(r.URL.Query().Get("category"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	// HTMX partial update: filter the snapshot held since the page load.
	if isHTMX(r) {
		items, err := s.service.Browse(r.Context(), query, category)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		if err := s.renderPartial(w, http.StatusOK, "item_grid", items, "partials/item_grid.html"); err != nil {
			s.logger.Error("render partial failed", "error", err)
		}
		return
	}

	if err := s.service.RefreshBrowse(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	items, err := s.service.Browse(r.Context(), query, category)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.renderPage(w, http.StatusOK,
		map[string]any{
			"Items":      items,
			"Query":      query,
			"Category":   category,
			"Categories": domain.Categories,
			"ActiveNav":  "items",
		},
		"base.html", "pages/items.html", "partials/item_grid.html",
	); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	req := domain.ClaimRequest{
		Name:    r.FormValue("claimant_name"),
		Contact: r.FormValue("claimant_contact"),
		Message: r.FormValue("claim_message"),
	}

	item, err := s.service.Claim(r.Context(), id, req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if !isHTMX(r) {
		http.Redirect(w, r, "/items", http.StatusSeeOther)
		return
	}
	if err := s.renderPartial(w, http.StatusOK, "claim_result", item, "partials/claim_result.html"); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}

func (s *Server) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	reader, mimeType, err := s.photoStore.Get(r.Context(), key)
	if err != nil {
		if !errors.Is(err, photostore.ErrNotFound) {
			s.logger.Warn("get photo failed", "storage_key", key, "error", err)
		}
		http.NotFound(w, r)
		return
	}
	defer closeWithLog(reader, "photo reader", s.logger)

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write photo failed", "storage_key", key, "error", err)
	}
}
