package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vbonduro/lostfound/internal/domain"
	"github.com/vbonduro/lostfound/internal/service"
)

const maxPhotoSize = 10 << 20 // 10 MB

// reportView is the data behind the report form.
type reportView struct {
	Form               domain.Report
	Errors             map[string]string
	Categories         []domain.Category
	Today              string
	SuggestionsEnabled bool
	Submitted          *domain.Item
	ActiveNav          string
}

func (s *Server) newReportView(form domain.Report) *reportView {
	return &reportView{
		Form:               form,
		Errors:             map[string]string{},
		Categories:         domain.Categories,
		Today:              time.Now().Format(domain.DateLayout),
		SuggestionsEnabled: s.service.SuggestionsEnabled(),
		ActiveNav:          "report",
	}
}

func (s *Server) renderReport(w http.ResponseWriter, status int, view *reportView) {
	if err := s.renderPage(w, status, view,
		"base.html", "pages/report.html", "partials/report_fields.html",
	); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

func (s *Server) handleReportForm(w http.ResponseWriter, r *http.Request) {
	s.renderReport(w, http.StatusOK, s.newReportView(domain.Report{}))
}

func (s *Server) handleSubmitReport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize+1<<20)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.respondError(w, r, formError(err))
		return
	}

	form := domain.Report{
		Title:         r.FormValue("title"),
		Category:      r.FormValue("category"),
		Description:   r.FormValue("description"),
		Location:      r.FormValue("location"),
		DateFound:     r.FormValue("date_found"),
		FinderName:    r.FormValue("finder_name"),
		FinderContact: r.FormValue("finder_contact"),
	}

	photo, err := s.readPhoto(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	item, err := s.service.SubmitReport(r.Context(), form, photo)
	if err != nil {
		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			s.respondError(w, r, err)
			return
		}
		view := s.newReportView(form)
		for _, f := range verr.Fields {
			view.Errors[f.Field] = f.Message
		}
		s.renderReport(w, http.StatusBadRequest, view)
		return
	}

	view := s.newReportView(domain.Report{})
	view.Submitted = item
	s.renderReport(w, http.StatusCreated, view)
}

// readPhoto returns the optional "photo" upload, or nil when none was sent.
func (s *Server) readPhoto(r *http.Request) (*service.PhotoUpload, error) {
	file, header, err := r.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, formError(err)
	}
	defer closeWithLog(file, "upload file", s.logger)

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, formError(err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &service.PhotoUpload{Filename: header.Filename, Data: data}, nil
}

func formError(err error) error {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return fmt.Errorf("%w: photo must be smaller than %d MB", domain.ErrValidation, maxPhotoSize>>20)
	}
	return fmt.Errorf("%w: could not read form: %w", domain.ErrValidation, err)
}

// handleSuggest runs the uploaded photo through the vision backend and
// returns the title, category and description fields prefilled.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize+1<<20)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		s.respondError(w, r, formError(err))
		return
	}

	photo, err := s.readPhoto(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if photo == nil {
		s.respondError(w, r, fmt.Errorf("%w: choose a photo first", domain.ErrValidation))
		return
	}

	suggestion, err := s.service.SuggestFromPhoto(r.Context(), photo.Data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	view := s.newReportView(domain.Report{
		Title:       suggestion.Title,
		Category:    string(suggestion.Category),
		Description: suggestion.Description,
	})
	if err := s.renderPartial(w, http.StatusOK, "report_fields", view, "partials/report_fields.html"); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}
