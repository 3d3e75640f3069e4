package web

import (
	"errors"
	"net/http"

	"github.com/vbonduro/lostfound/internal/domain"
	"github.com/vbonduro/lostfound/internal/service"
)

var errRateLimited = errors.New("too many submissions, try again in a minute")

type errorView struct {
	Status  int
	Title   string
	Message string
	Fields  []domain.FieldError
}

// classify maps a service error onto an HTTP status and a message safe to
// show to the user.
func classify(err error) errorView {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return errorView{Status: http.StatusBadRequest, Title: "Please fix the form", Fields: verr.Fields}
	case errors.Is(err, domain.ErrValidation):
		return errorView{Status: http.StatusBadRequest, Title: "Invalid request", Message: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return errorView{Status: http.StatusNotFound, Title: "Not found", Message: "That item no longer exists."}
	case errors.Is(err, domain.ErrPreconditionFailed):
		return errorView{Status: http.StatusConflict, Title: "Already changed", Message: "Someone else updated this item first. Reload to see its current state."}
	case errors.Is(err, errRateLimited):
		return errorView{Status: http.StatusTooManyRequests, Title: "Slow down", Message: errRateLimited.Error()}
	case errors.Is(err, service.ErrSuggestionsDisabled):
		return errorView{Status: http.StatusNotFound, Title: "Unavailable", Message: "Photo suggestions are not enabled."}
	default:
		return errorView{Status: http.StatusInternalServerError, Title: "Something went wrong", Message: "The request could not be completed. Please try again."}
	}
}

// respondError renders err as an error fragment for htmx requests and as a
// full page otherwise. Server-side failures are logged.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	view := classify(err)
	if view.Status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	if isHTMX(r) {
		if rerr := s.renderPartial(w, view.Status, "error", view, "partials/error.html"); rerr != nil {
			s.logger.Error("render partial failed", "error", rerr)
		}
		return
	}
	if rerr := s.renderPage(w, view.Status,
		map[string]any{"Error": view, "ActiveNav": ""},
		"base.html", "pages/error.html", "partials/error.html",
	); rerr != nil {
		s.logger.Error("render page failed", "error", rerr)
	}
}
