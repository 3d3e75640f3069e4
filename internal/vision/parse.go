package vision

import (
	"errors"
	"strings"

	"github.com/vbonduro/lostfound/internal/domain"
)

// ErrNoSuggestion is returned when a model response contains no usable line.
var ErrNoSuggestion = errors.New("no suggestion in model response")

// ParseResponse extracts the first "title | category | description" line
// from a model response. Preamble lines without a pipe are skipped and an
// unrecognised category becomes Other.
func ParseResponse(raw string) (*Suggestion, error) {
	for _, line := range strings.Split(raw, "\n") {
		if s := ParseLine(line); s != nil {
			s.RawResponse = raw
			return s, nil
		}
	}
	return nil, ErrNoSuggestion
}

// ParseLine parses a single "title | category | description" line. It returns
// nil for lines without a pipe or without a title.
func ParseLine(line string) *Suggestion {
	line = strings.Trim(strings.TrimSpace(line), "`")
	if !strings.Contains(line, "|") {
		return nil
	}

	parts := strings.SplitN(line, "|", 3)
	s := &Suggestion{Title: strings.TrimSpace(parts[0])}
	if s.Title == "" {
		return nil
	}
	s.Category = matchCategory(strings.TrimSpace(parts[1]))
	if len(parts) == 3 {
		s.Description = strings.TrimSpace(parts[2])
	}
	return s
}

func matchCategory(raw string) domain.Category {
	for _, c := range domain.Categories {
		if strings.EqualFold(raw, string(c)) {
			return c
		}
	}
	return domain.CategoryOther
}
