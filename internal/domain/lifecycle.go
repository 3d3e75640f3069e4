package domain

import "fmt"

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusClaimed:
		return true
	}
	return false
}

// ParseStatus converts a raw status string. The empty string and "all" are
// rejected; callers that accept "any status" handle those before parsing.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return s, nil
}

// CanApprove reports whether an item in status s may be approved.
func (s Status) CanApprove() bool { return s == StatusPending }

// CanClaim reports whether an item in status s may be claimed.
func (s Status) CanClaim() bool { return s == StatusApproved }

// Label returns the status with its first letter upper-cased.
func (s Status) Label() string {
	if s == "" {
		return ""
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Emoji returns the placeholder glyph shown for items without a photo.
func (c Category) Emoji() string {
	switch c {
	case CategoryElectronics:
		return "📱"
	case CategoryClothing:
		return "👕"
	case CategoryBooks:
		return "📚"
	case CategorySports:
		return "⚽"
	case CategoryKeys:
		return "🔑"
	case CategoryBags:
		return "🎒"
	default:
		return "📦"
	}
}
