package textgroup

import (
	"sort"

	"github.com/google/uuid"
	"github.com/ironsheep/image-text-mcp/internal/geometry"
)

// Params tunes the proximity rule.
type Params struct {
	// LineOverlap is the fraction of the average height two boxes must
	// overlap vertically to count as the same line.
	LineOverlap float64 `json:"line_overlap" mapstructure:"line_overlap"`

	// GapFactor is the largest horizontal gap, as a multiple of the average
	// height, that still joins two boxes.
	GapFactor float64 `json:"gap_factor" mapstructure:"gap_factor"`
}

// DefaultParams returns the thresholds used by ShouldGroup.
func DefaultParams() Params {
	return Params{LineOverlap: 0.5, GapFactor: 1.5}
}

// Joinable reports whether a and b belong in the same group. It is symmetric.
func (p Params) Joinable(a, b Fragment) bool {
	avgHeight := (a.Box.Height + b.Box.Height) / 2
	sameLine := geometry.VerticalOverlap(a.Box, b.Box) > p.LineOverlap*avgHeight
	closeEnough := geometry.HorizontalGap(a.Box, b.Box) < p.GapFactor*avgHeight
	return sameLine && closeEnough
}

// ShouldGroup reports whether a and b are joinable under DefaultParams.
func ShouldGroup(a, b Fragment) bool {
	return DefaultParams().Joinable(a, b)
}

// Cluster partitions fragments into the connected components of the
// ShouldGroup relation.
func Cluster(fragments []Fragment) [][]Fragment {
	return ClusterWith(DefaultParams(), fragments)
}

// ClusterWith partitions fragments into the connected components of
// p.Joinable. Every fragment lands in exactly one component. Components are
// ordered by the input position of their first member and keep input order
// internally.
func ClusterWith(p Params, fragments []Fragment) [][]Fragment {
	n := len(fragments)
	uf := newUnionFind(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if uf.find(i) == uf.find(j) {
				continue
			}
			if p.Joinable(fragments[i], fragments[j]) {
				uf.union(i, j)
			}
		}
	}

	components := make([][]Fragment, 0)
	index := make(map[int]int, n)
	for i, f := range fragments {
		root := uf.find(i)
		k, ok := index[root]
		if !ok {
			k = len(components)
			index[root] = k
			components = append(components, nil)
		}
		components[k] = append(components[k], f)
	}
	return components
}

// Assemble orders a component left to right and derives its text and box.
// The input slice is not modified.
func Assemble(component []Fragment) Group {
	sorted := make([]Fragment, len(component))
	copy(sorted, component)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Box.X < sorted[j].Box.X
	})

	g := Group{
		ID:          uuid.NewString(),
		Texts:       make([]string, len(sorted)),
		FragmentIDs: make([]string, len(sorted)),
	}
	boxes := make([]geometry.Rect, len(sorted))
	for i, f := range sorted {
		g.Texts[i] = f.Text
		g.FragmentIDs[i] = f.ID
		boxes[i] = f.Box
	}
	g.Box = geometry.UnionAll(boxes...)
	return g
}

// GroupFragments clusters fragments with DefaultParams and assembles each
// component.
func GroupFragments(fragments []Fragment) []Group {
	return GroupFragmentsWith(DefaultParams(), fragments)
}

// GroupFragmentsWith clusters fragments with p and assembles each component.
func GroupFragmentsWith(p Params, fragments []Fragment) []Group {
	components := ClusterWith(p, fragments)
	groups := make([]Group, len(components))
	for i, c := range components {
		groups[i] = Assemble(c)
	}
	return groups
}

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	switch {
	case u.rank[ra] < u.rank[rb]:
		u.parent[ra] = rb
	case u.rank[ra] > u.rank[rb]:
		u.parent[rb] = ra
	default:
		u.parent[rb] = ra
		u.rank[ra]++
	}
}
