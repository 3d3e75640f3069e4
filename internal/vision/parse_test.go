package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/lostfound/internal/domain"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected *Suggestion
	}{
		{
			name:     "full line",
			line:     "Blue backpack | Bags | Navy backpack with a red keychain",
			expected: &Suggestion{Title: "Blue backpack", Category: domain.CategoryBags, Description: "Navy backpack with a red keychain"},
		},
		{
			name:     "category case folded",
			line:     "iPhone | electronics | Black case",
			expected: &Suggestion{Title: "iPhone", Category: domain.CategoryElectronics, Description: "Black case"},
		},
		{
			name:     "unknown category",
			line:     "Umbrella | Accessories | Folding, green",
			expected: &Suggestion{Title: "Umbrella", Category: domain.CategoryOther, Description: "Folding, green"},
		},
		{
			name:     "description keeps extra pipes",
			line:     "Keys | Keys | 3 keys | red tag",
			expected: &Suggestion{Title: "Keys", Category: domain.CategoryKeys, Description: "3 keys | red tag"},
		},
		{
			name:     "no description",
			line:     "Scarf | Clothing",
			expected: &Suggestion{Title: "Scarf", Category: domain.CategoryClothing},
		},
		{
			name:     "wrapped in backticks",
			line:     "`Book | Books | Hardcover`",
			expected: &Suggestion{Title: "Book", Category: domain.CategoryBooks, Description: "Hardcover"},
		},
		{name: "no pipe", line: "Here is what I see:", expected: nil},
		{name: "empty title", line: " | Bags | something", expected: nil},
		{name: "empty line", line: "", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLine(tt.line))
		})
	}
}

func TestParseResponse_SkipsPreamble(t *testing.T) {
	raw := "Sure! Here is the description:\n\nWater bottle | Sports | Steel bottle with stickers\n"
	s, err := ParseResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Water bottle", s.Title)
	assert.Equal(t, domain.CategorySports, s.Category)
	assert.Equal(t, raw, s.RawResponse)
}

func TestParseResponse_Empty(t *testing.T) {
	_, err := ParseResponse("I cannot tell what this is.")
	assert.ErrorIs(t, err, ErrNoSuggestion)
}

func TestSuggestionPromptListsCategories(t *testing.T) {
	for _, c := range domain.Categories {
		assert.Contains(t, SuggestionPrompt, string(c))
	}
}
