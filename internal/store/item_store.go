package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vbonduro/lostfound/internal/domain"
)

const itemColumns = `id, title, category, description, location_found, date_found,
	photo_url, photo_key, finder_name, finder_contact, status,
	claimed_by, claim_contact, claim_message, created_at, updated_at`

type ItemStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Create inserts a pending item. The identifier and both timestamps are
// assigned here.
func (s *ItemStore) Create(ctx context.Context, in domain.NewItem) (*domain.Item, error) {
	id := uuid.NewString()
	now := s.now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, title, category, description, location_found, date_found,
			photo_url, photo_key, finder_name, finder_contact, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, in.Title, string(in.Category), in.Description, in.Location, in.DateFound.Format(domain.DateLayout),
		nullString(in.PhotoURL), nullString(in.PhotoKey), in.FinderName, in.FinderContact,
		string(domain.StatusPending), now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	item, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("failed to read back item %s", id)
	}
	return item, nil
}

func (s *ItemStore) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+` FROM items WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// List returns items newest first. An empty status lists every item.
func (s *ItemStore) List(ctx context.Context, status domain.Status) ([]*domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var items []*domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

// Transition moves an item from one status to another in a single
// conditional update, so the write only lands if the item is still in from.
// claim is written as the claimant details (nil clears them).
func (s *ItemStore) Transition(ctx context.Context, id string, from, to domain.Status, claim *domain.Claim) (*domain.Item, error) {
	var name, contact, message sql.NullString
	if claim != nil {
		name, contact, message = nullString(claim.Name), nullString(claim.Contact), nullString(claim.Message)
	}

	item, err := scanItem(s.db.QueryRowContext(ctx, `
		UPDATE items
		SET status = ?, claimed_by = ?, claim_contact = ?, claim_message = ?, updated_at = ?
		WHERE id = ? AND status = ?
		RETURNING `+itemColumns,
		string(to), name, contact, message, s.now(), id, string(from)))
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.ErrNotFound
	}
	return nil, fmt.Errorf("item %s is %s, want %s: %w", id, current.Status, from, domain.ErrPreconditionFailed)
}

// Delete removes an item and returns the removed record so callers can clean
// up its photo.
func (s *ItemStore) Delete(ctx context.Context, id string) (*domain.Item, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx, `
		DELETE FROM items WHERE id = ? RETURNING `+itemColumns, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete item: %w", err)
	}
	return item, nil
}

func (s *ItemStore) CountByStatus(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM items GROUP BY status
	`)
	if err != nil {
		return stats, fmt.Errorf("failed to count items: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return stats, fmt.Errorf("failed to scan count: %w", err)
		}
		switch domain.Status(status) {
		case domain.StatusPending:
			stats.Pending = n
		case domain.StatusApproved:
			stats.Approved = n
		case domain.StatusClaimed:
			stats.Claimed = n
		}
		stats.Total += n
	}

	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("error iterating counts: %w", err)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.Item, error) {
	var (
		item                              domain.Item
		category, status, dateFound       string
		photoURL, photoKey                sql.NullString
		claimedBy, claimContact, claimMsg sql.NullString
	)
	err := row.Scan(&item.ID, &item.Title, &category, &item.Description, &item.Location, &dateFound,
		&photoURL, &photoKey, &item.FinderName, &item.FinderContact, &status,
		&claimedBy, &claimContact, &claimMsg, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}

	item.DateFound, err = time.Parse(domain.DateLayout, dateFound)
	if err != nil {
		return nil, fmt.Errorf("invalid date_found %q: %w", dateFound, err)
	}
	item.Category = domain.Category(category)
	item.Status = domain.Status(status)
	item.PhotoURL = photoURL.String
	item.PhotoKey = photoKey.String
	if claimedBy.Valid {
		item.Claim = &domain.Claim{
			Name:    claimedBy.String,
			Contact: claimContact.String,
			Message: claimMsg.String,
		}
	}
	return &item, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
