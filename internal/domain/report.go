package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxShortField = 200
	maxLongField  = 2000
)

// Report is a report submission as entered on the form.
type Report struct {
	Title         string
	Category      string
	Description   string
	Location      string
	DateFound     string
	FinderName    string
	FinderContact string
}

// ToNewItem validates r against the calendar date of today and returns the
// trimmed record to insert. All problems are reported together.
func (r Report) ToNewItem(today time.Time) (NewItem, error) {
	verr := &ValidationError{}
	item := NewItem{
		Title:         strings.TrimSpace(r.Title),
		Category:      Category(strings.TrimSpace(r.Category)),
		Description:   strings.TrimSpace(r.Description),
		Location:      strings.TrimSpace(r.Location),
		FinderName:    strings.TrimSpace(r.FinderName),
		FinderContact: strings.TrimSpace(r.FinderContact),
	}

	requireText(verr, "title", item.Title, maxShortField)
	requireText(verr, "description", item.Description, maxLongField)
	requireText(verr, "location", item.Location, maxShortField)
	requireText(verr, "finder_name", item.FinderName, maxShortField)
	requireText(verr, "finder_contact", item.FinderContact, maxShortField)

	switch {
	case item.Category == "":
		verr.add("category", "is required")
	case !item.Category.Valid():
		verr.add("category", "is not a known category")
	}

	raw := strings.TrimSpace(r.DateFound)
	if raw == "" {
		verr.add("date_found", "is required")
	} else if d, err := time.Parse(DateLayout, raw); err != nil {
		verr.add("date_found", "must be a date (YYYY-MM-DD)")
	} else if d.After(calendarDate(today)) {
		verr.add("date_found", "cannot be in the future")
	} else {
		item.DateFound = d
	}

	if err := verr.orNil(); err != nil {
		return NewItem{}, err
	}
	return item, nil
}

// ClaimRequest is a public claim submission for an approved item.
type ClaimRequest struct {
	Name    string
	Contact string
	Message string
}

// ToClaim validates the request and returns the trimmed claimant details.
func (c ClaimRequest) ToClaim() (Claim, error) {
	verr := &ValidationError{}
	claim := Claim{
		Name:    strings.TrimSpace(c.Name),
		Contact: strings.TrimSpace(c.Contact),
		Message: strings.TrimSpace(c.Message),
	}
	requireText(verr, "claimant_name", claim.Name, maxShortField)
	if utf8.RuneCountInString(claim.Contact) > maxShortField {
		verr.add("claimant_contact", "is too long")
	}
	if utf8.RuneCountInString(claim.Message) > maxLongField {
		verr.add("claim_message", "is too long")
	}
	if err := verr.orNil(); err != nil {
		return Claim{}, err
	}
	return claim, nil
}

func requireText(verr *ValidationError, field, value string, max int) {
	if value == "" {
		verr.add(field, "is required")
		return
	}
	if utf8.RuneCountInString(value) > max {
		verr.add(field, "is too long")
	}
}

// calendarDate drops the clock part of t, keeping t's own calendar day.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
