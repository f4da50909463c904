package textgroup

import (
	"strings"

	"github.com/google/uuid"
	"github.com/ironsheep/image-text-mcp/internal/geometry"
)

// Fragment is one unit of recognized text and its normalized bounding box.
type Fragment struct {
	ID   string        `json:"id"`
	Text string        `json:"text"`
	Box  geometry.Rect `json:"box"`

	// Confidence is the engine's recognition confidence (0.0 to 1.0), or 0
	// when the engine does not report one.
	Confidence float64 `json:"confidence,omitempty"`
}

// NewFragment returns a fragment with a fresh identifier.
func NewFragment(text string, box geometry.Rect) Fragment {
	return Fragment{ID: uuid.NewString(), Text: text, Box: box}
}

// Group is a set of fragments merged into one user-facing unit of text.
type Group struct {
	ID string `json:"id"`

	// Texts holds the member strings in reading order (leftmost first).
	Texts []string `json:"texts"`

	// Box is the union of the member boxes.
	Box geometry.Rect `json:"box"`

	// FragmentIDs lists the members in the same order as Texts.
	FragmentIDs []string `json:"fragment_ids"`
}

// CombinedText returns the member texts joined with a single space.
func (g Group) CombinedText() string {
	return strings.Join(g.Texts, " ")
}

// CombinedAll joins the combined text of every group with newlines.
func CombinedAll(groups []Group) string {
	lines := make([]string, len(groups))
	for i, g := range groups {
		lines[i] = g.CombinedText()
	}
	return strings.Join(lines, "\n")
}
