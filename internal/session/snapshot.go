package session

import (
	"image"

	"github.com/ironsheep/image-text-mcp/internal/geometry"
	"github.com/ironsheep/image-text-mcp/internal/orientation"
	"github.com/ironsheep/image-text-mcp/internal/textgroup"
)

// Snapshot is the outcome of one scan. It is never modified after it has
// been built; a new scan produces a new Snapshot.
type Snapshot struct {
	// Generation orders published snapshots. Batch scans are not published
	// and carry 0.
	Generation uint64 `json:"generation"`

	// ImageSize is the upright image size in pixels.
	ImageSize   geometry.Size           `json:"image_size"`
	Orientation orientation.Orientation `json:"orientation"`

	Fragments []textgroup.Fragment `json:"fragments"`
	Groups    []textgroup.Group    `json:"groups"`

	// NoText is set when the scan produced no groups, whether because the
	// image holds no text or because recognition failed.
	NoText bool   `json:"no_text"`
	Error  string `json:"error,omitempty"`

	image image.Image
}

// Image returns the scanned image turned upright, the image every box in the
// snapshot refers to.
func (s *Snapshot) Image() image.Image {
	return s.image
}

// Group returns the group with the given id.
func (s *Snapshot) Group(id string) (textgroup.Group, bool) {
	for _, g := range s.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return textgroup.Group{}, false
}

// CombinedText joins every group's text with newlines.
func (s *Snapshot) CombinedText() string {
	return textgroup.CombinedAll(s.Groups)
}

// Placement is where one group appears when the image is shown in a
// container.
type Placement struct {
	GroupID   string               `json:"group_id"`
	Text      string               `json:"text"`
	Rect      geometry.DisplayRect `json:"rect"`
	Highlight geometry.DisplayRect `json:"highlight"`
	TapTarget geometry.DisplayRect `json:"tap_target"`
}

// Layout places every group inside container. ok is false when the image or
// container size is degenerate.
func (s *Snapshot) Layout(container geometry.Size) (geometry.Layout, []Placement, bool) {
	layout, ok := geometry.NewLayout(s.ImageSize, container)
	if !ok {
		return geometry.Layout{}, nil, false
	}
	placements := make([]Placement, len(s.Groups))
	for i, g := range s.Groups {
		r := layout.ToDisplay(g.Box)
		placements[i] = Placement{
			GroupID:   g.ID,
			Text:      g.CombinedText(),
			Rect:      r,
			Highlight: geometry.Highlight(r),
			TapTarget: geometry.TapTarget(r),
		}
	}
	return layout, placements, true
}

// HitTest returns the group whose tap target contains p. Groups drawn later
// sit on top, so when targets overlap the last one wins.
func (s *Snapshot) HitTest(container geometry.Size, p geometry.Point) (textgroup.Group, bool) {
	_, placements, ok := s.Layout(container)
	if !ok {
		return textgroup.Group{}, false
	}
	for i := len(placements) - 1; i >= 0; i-- {
		if placements[i].TapTarget.Contains(p) {
			return s.Groups[i], true
		}
	}
	return textgroup.Group{}, false
}
