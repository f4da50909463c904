package orientation

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allTags = []ImageOrientation{Up, Down, Left, Right, UpMirrored, DownMirrored, LeftMirrored, RightMirrored}

func TestNormalize_OneToOne(t *testing.T) {
	seen := make(map[Orientation]ImageOrientation)
	for _, tag := range allTags {
		o := Normalize(tag)
		assert.GreaterOrEqual(t, int(o), 1)
		assert.LessOrEqual(t, int(o), 8)
		if prev, dup := seen[o]; dup {
			t.Fatalf("%v and %v both map to %d", prev, tag, o)
		}
		seen[o] = tag
	}
	assert.Len(t, seen, 8)
}

func TestNormalize_KnownValues(t *testing.T) {
	assert.Equal(t, OrientationUp, Normalize(Up))
	assert.Equal(t, OrientationDown, Normalize(Down))
	assert.Equal(t, OrientationLeft, Normalize(Left))
	assert.Equal(t, OrientationRight, Normalize(Right))
	assert.Equal(t, OrientationRightMirrored, Normalize(RightMirrored))
}

func TestNormalize_UnknownFallsBackToUp(t *testing.T) {
	for _, tag := range []ImageOrientation{-1, 8, 99} {
		assert.Equal(t, OrientationUp, Normalize(tag), "tag %d", tag)
	}
	assert.Equal(t, "up", ImageOrientation(42).String())
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want ImageOrientation
	}{
		{"", Up},
		{"up", Up},
		{"DOWN", Down},
		{"left-mirrored", LeftMirrored},
		{"leftMirrored", LeftMirrored},
		{"right_mirrored", RightMirrored},
		{" right ", Right},
		{"1", Up},
		{"3", Down},
		{"6", Right},
		{"8", Left},
		{"5", LeftMirrored},
		{"0", Up},
		{"9", Up},
		{"sideways", Up},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.in))
		})
	}
}

func TestParse_RoundTripsNames(t *testing.T) {
	for _, tag := range allTags {
		assert.Equal(t, tag, Parse(tag.String()))
	}
}

func TestSwapsAxes(t *testing.T) {
	assert.False(t, OrientationUp.SwapsAxes())
	assert.False(t, OrientationDownMirrored.SwapsAxes())
	assert.True(t, OrientationRight.SwapsAxes())
	assert.True(t, OrientationLeftMirrored.SwapsAxes())
}

// stripe returns a 2x1 image: red on the left, blue on the right.
func stripe() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	img.Set(1, 0, color.RGBA{0, 0, 255, 255})
	return img
}

func isRed(c color.Color) bool {
	r, _, b, _ := c.RGBA()
	return r > 0x8000 && b < 0x8000
}

func TestApply(t *testing.T) {
	src := stripe()

	assert.Same(t, src, Apply(src, OrientationUp))
	assert.Same(t, src, Apply(src, Orientation(0)))

	right := Apply(src, OrientationRight)
	require.Equal(t, image.Rect(0, 0, 1, 2), right.Bounds())
	assert.True(t, isRed(right.At(0, 0)), "clockwise turn puts the left edge on top")

	left := Apply(src, OrientationLeft)
	require.Equal(t, image.Rect(0, 0, 1, 2), left.Bounds())
	assert.False(t, isRed(left.At(0, 0)))

	mirrored := Apply(src, OrientationUpMirrored)
	assert.False(t, isRed(mirrored.At(0, 0)))
	assert.True(t, isRed(mirrored.At(1, 0)))

	for _, o := range []Orientation{OrientationLeftMirrored, OrientationRight, OrientationRightMirrored, OrientationLeft} {
		b := Apply(src, o).Bounds()
		assert.Equal(t, 1, b.Dx(), "orientation %d", o)
		assert.Equal(t, 2, b.Dy(), "orientation %d", o)
	}
}
