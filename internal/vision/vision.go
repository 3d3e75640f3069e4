package vision

import (
	"context"
	"io"
	"strings"

	"github.com/vbonduro/lostfound/internal/domain"
)

// SuggestionPrompt is the shared prompt used by all vision adapters.
var SuggestionPrompt = `This photo shows an item that someone found and handed in to a lost-and-found desk.
Describe it so its owner can recognise it. Respond with exactly one line in the format:
title | category | description
The title is a short name such as "Blue backpack". The category must be one of: ` +
	categoryList() + `. The description is one sentence about colour, brand and distinguishing marks.`

// Suggester proposes report fields from a photo of a found item.
type Suggester interface {
	Suggest(ctx context.Context, r io.Reader, mimeType string) (*Suggestion, error)
}

type Suggestion struct {
	Title       string
	Category    domain.Category
	Description string
	RawResponse string
}

func categoryList() string {
	names := make([]string, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}
