package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vbonduro/lostfound/internal/catalog"
	"github.com/vbonduro/lostfound/internal/domain"
	"github.com/vbonduro/lostfound/internal/imaging"
	"github.com/vbonduro/lostfound/internal/metrics"
	"github.com/vbonduro/lostfound/internal/notify"
	"github.com/vbonduro/lostfound/internal/photostore"
	"github.com/vbonduro/lostfound/internal/vision"
)

// photoPrefix is the storage key prefix for report photos.
const photoPrefix = "items"

// ErrSuggestionsDisabled is returned by SuggestFromPhoto when no vision
// backend is configured.
var ErrSuggestionsDisabled = errors.New("photo suggestions are disabled")

// itemRepository is the subset of store.ItemStore that ItemService requires.
type itemRepository interface {
	Create(ctx context.Context, in domain.NewItem) (*domain.Item, error)
	GetByID(ctx context.Context, id string) (*domain.Item, error)
	List(ctx context.Context, status domain.Status) ([]*domain.Item, error)
	Transition(ctx context.Context, id string, from, to domain.Status, claim *domain.Claim) (*domain.Item, error)
	Delete(ctx context.Context, id string) (*domain.Item, error)
	CountByStatus(ctx context.Context) (domain.Stats, error)
}

// PhotoUpload is an optional photo attached to a report.
type PhotoUpload struct {
	Filename string
	Data     []byte
}

type ItemService struct {
	itemStore itemRepository
	photoStg  photostore.PhotoStore
	notifier  notify.Notifier
	suggester vision.Suggester
	metrics   *metrics.Metrics
	logger    *slog.Logger
	browse    *catalog.Session
	now       func() time.Time
}

// NewItemService wires the lifecycle operations to their collaborators.
// suggester may be nil, which disables SuggestFromPhoto.
func NewItemService(
	itemStore itemRepository,
	photoStg photostore.PhotoStore,
	notifier notify.Notifier,
	suggester vision.Suggester,
	m *metrics.Metrics,
	logger *slog.Logger,
) *ItemService {
	s := &ItemService{
		itemStore: itemStore,
		photoStg:  photoStg,
		notifier:  notifier,
		suggester: suggester,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
	s.browse = catalog.NewSession(func(ctx context.Context) ([]*domain.Item, error) {
		return s.itemStore.List(ctx, domain.StatusApproved)
	})
	return s
}

// SuggestionsEnabled reports whether a vision backend is configured.
func (s *ItemService) SuggestionsEnabled() bool {
	return s.suggester != nil
}

// SubmitReport validates a report and stores it as a pending item. A photo
// that cannot be processed or stored is logged and dropped; it never fails the
// submission.
func (s *ItemService) SubmitReport(ctx context.Context, report domain.Report, photo *PhotoUpload) (*domain.Item, error) {
	in, err := report.ToNewItem(s.now())
	if err != nil {
		s.metrics.Transition("submit", "invalid")
		return nil, err
	}

	if photo != nil && len(photo.Data) > 0 {
		in.PhotoKey, in.PhotoURL = s.storePhoto(ctx, photo)
	}

	item, err := s.itemStore.Create(ctx, in)
	if err != nil {
		s.metrics.Transition("submit", "error")
		if in.PhotoKey != "" {
			s.deletePhoto(ctx, in.PhotoKey)
		}
		return nil, err
	}

	s.metrics.Transition("submit", "ok")
	s.logger.Info("report submitted", "item_id", item.ID, "category", item.Category, "has_photo", item.PhotoKey != "")
	return item, nil
}

func (s *ItemService) storePhoto(ctx context.Context, photo *PhotoUpload) (key, url string) {
	s.logger.Info("photo upload started", "filename", photo.Filename, "bytes", len(photo.Data))

	processed, err := imaging.Process(photo.Data)
	if err != nil {
		s.metrics.PhotoUploads.WithLabelValues("rejected").Inc()
		s.logger.Warn("photo rejected, continuing without it", "filename", photo.Filename, "error", err)
		return "", ""
	}

	key, err = s.photoStg.Save(ctx, photoPrefix, processed.MIME, bytes.NewReader(processed.Data))
	if err != nil {
		s.metrics.PhotoUploads.WithLabelValues("failed").Inc()
		s.logger.Error("photo upload failed, continuing without it", "filename", photo.Filename, "error", err)
		return "", ""
	}

	s.metrics.PhotoUploads.WithLabelValues("stored").Inc()
	s.logger.Debug("photo saved", "storage_key", key, "bytes", len(processed.Data))
	return key, s.photoStg.URL(key)
}

// Approve publishes a pending item.
func (s *ItemService) Approve(ctx context.Context, id string) (*domain.Item, error) {
	item, err := s.itemStore.Transition(ctx, id, domain.StatusPending, domain.StatusApproved, nil)
	s.recordTransition("approve", err)
	if err != nil {
		return nil, err
	}

	s.browse.Invalidate()
	s.logger.Info("item approved", "item_id", id)
	return item, nil
}

// Claim attaches claimant details to an approved item and tells the finder.
func (s *ItemService) Claim(ctx context.Context, id string, req domain.ClaimRequest) (*domain.Item, error) {
	claim, err := req.ToClaim()
	if err != nil {
		s.metrics.Transition("claim", "invalid")
		return nil, err
	}

	item, err := s.itemStore.Transition(ctx, id, domain.StatusApproved, domain.StatusClaimed, &claim)
	s.recordTransition("claim", err)
	if err != nil {
		return nil, err
	}

	s.browse.Invalidate()
	s.logger.Info("item claimed", "item_id", id)

	if err := s.notifier.ItemClaimed(ctx, item); err != nil {
		s.logger.Error("failed to notify finder", "item_id", id, "error", err)
	}
	return item, nil
}

// Delete removes an item in any state, then its photo.
func (s *ItemService) Delete(ctx context.Context, id string) error {
	item, err := s.itemStore.Delete(ctx, id)
	s.recordTransition("delete", err)
	if err != nil {
		return err
	}

	s.browse.Invalidate()
	s.logger.Info("item deleted", "item_id", id, "status", item.Status)

	if item.PhotoKey != "" {
		s.deletePhoto(ctx, item.PhotoKey)
	}
	return nil
}

func (s *ItemService) deletePhoto(ctx context.Context, key string) {
	if err := s.photoStg.Delete(ctx, key); err != nil && !errors.Is(err, photostore.ErrNotFound) {
		s.logger.Error("failed to delete photo file", "storage_key", key, "error", err)
	}
}

// Get returns an item or domain.ErrNotFound.
func (s *ItemService) Get(ctx context.Context, id string) (*domain.Item, error) {
	item, err := s.itemStore.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

// List returns items newest first. An empty status lists every item.
func (s *ItemService) List(ctx context.Context, status domain.Status) ([]*domain.Item, error) {
	return s.itemStore.List(ctx, status)
}

// RefreshBrowse refetches the approved items shown on the browse page.
func (s *ItemService) RefreshBrowse(ctx context.Context) error {
	_, err := s.browse.Load(ctx)
	return err
}

// Browse filters the approved items by free text and category.
func (s *ItemService) Browse(ctx context.Context, query string, category domain.Category) ([]*domain.Item, error) {
	return s.browse.View(ctx, query, category)
}

func (s *ItemService) Stats(ctx context.Context) (domain.Stats, error) {
	return s.itemStore.CountByStatus(ctx)
}

// SuggestFromPhoto asks the vision backend to propose report fields for a
// photo.
func (s *ItemService) SuggestFromPhoto(ctx context.Context, data []byte) (*vision.Suggestion, error) {
	if s.suggester == nil {
		return nil, ErrSuggestionsDisabled
	}

	processed, err := imaging.Process(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	s.logger.Info("vision suggestion started", "bytes", len(processed.Data))
	suggestion, err := s.suggester.Suggest(ctx, bytes.NewReader(processed.Data), processed.MIME)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest from photo: %w", err)
	}
	s.logger.Info("vision suggestion complete", "title", suggestion.Title, "category", suggestion.Category)
	return suggestion, nil
}

func (s *ItemService) recordTransition(action string, err error) {
	switch {
	case err == nil:
		s.metrics.Transition(action, "ok")
	case errors.Is(err, domain.ErrNotFound):
		s.metrics.Transition(action, "not_found")
	case errors.Is(err, domain.ErrPreconditionFailed):
		s.metrics.Transition(action, "precondition_failed")
	default:
		s.metrics.Transition(action, "error")
	}
}
