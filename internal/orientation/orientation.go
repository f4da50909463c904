// Package orientation maps image orientation tags to the canonical orientation
// an OCR engine expects, and rotates pixels for engines that only read upright
// images.
//
// Two enumerations are involved. ImageOrientation is the tag a camera or image
// picker attaches to a photo, in the order devices usually report it.
// Orientation is the canonical EXIF-numbered tag (1 to 8) that describes how
// the stored pixels must be transformed to appear upright. Normalize maps the
// first onto the second and never fails: anything it does not recognize is
// treated as upright.
package orientation

import (
	"image"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
)

// ImageOrientation is the orientation tag reported with a captured or picked
// image.
type ImageOrientation int

const (
	Up ImageOrientation = iota
	Down
	Left
	Right
	UpMirrored
	DownMirrored
	LeftMirrored
	RightMirrored
)

var imageOrientationNames = map[ImageOrientation]string{
	Up:            "up",
	Down:          "down",
	Left:          "left",
	Right:         "right",
	UpMirrored:    "up-mirrored",
	DownMirrored:  "down-mirrored",
	LeftMirrored:  "left-mirrored",
	RightMirrored: "right-mirrored",
}

// String returns the tag name, or "up" for values outside the enumeration.
func (o ImageOrientation) String() string {
	if name, ok := imageOrientationNames[o]; ok {
		return name
	}
	return imageOrientationNames[Up]
}

// Orientation is the canonical orientation tag using EXIF numbering.
type Orientation int

const (
	OrientationUp            Orientation = 1
	OrientationUpMirrored    Orientation = 2
	OrientationDown          Orientation = 3
	OrientationDownMirrored  Orientation = 4
	OrientationLeftMirrored  Orientation = 5
	OrientationRight         Orientation = 6
	OrientationRightMirrored Orientation = 7
	OrientationLeft          Orientation = 8
)

// SwapsAxes reports whether making the image upright exchanges its width and
// height.
func (o Orientation) SwapsAxes() bool {
	switch o {
	case OrientationLeftMirrored, OrientationRight, OrientationRightMirrored, OrientationLeft:
		return true
	}
	return false
}

// Normalize maps an image orientation tag to the canonical orientation.
// Unrecognized values map to OrientationUp.
func Normalize(o ImageOrientation) Orientation {
	switch o {
	case Up:
		return OrientationUp
	case Down:
		return OrientationDown
	case Left:
		return OrientationLeft
	case Right:
		return OrientationRight
	case UpMirrored:
		return OrientationUpMirrored
	case DownMirrored:
		return OrientationDownMirrored
	case LeftMirrored:
		return OrientationLeftMirrored
	case RightMirrored:
		return OrientationRightMirrored
	default:
		return OrientationUp
	}
}

// Parse reads an orientation tag by name ("up", "left-mirrored", also
// "leftMirrored" or "left_mirrored") or by EXIF number ("1" to "8"). Empty and
// unknown input yield Up.
func Parse(s string) ImageOrientation {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return fromEXIF(Orientation(n))
	}
	key := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(s))
	for o, name := range imageOrientationNames {
		if strings.ReplaceAll(name, "-", "") == key {
			return o
		}
	}
	return Up
}

func fromEXIF(o Orientation) ImageOrientation {
	for tag := Up; tag <= RightMirrored; tag++ {
		if Normalize(tag) == o {
			return tag
		}
	}
	return Up
}

// Apply transforms img so that it appears upright, given the orientation its
// pixels are stored in. OrientationUp and unknown values return img unchanged.
func Apply(img image.Image, o Orientation) image.Image {
	switch o {
	case OrientationUpMirrored:
		return imaging.FlipH(img)
	case OrientationDown:
		return imaging.Rotate180(img)
	case OrientationDownMirrored:
		return imaging.FlipV(img)
	case OrientationLeftMirrored:
		return imaging.Transpose(img)
	case OrientationRight:
		return imaging.Rotate270(img)
	case OrientationRightMirrored:
		return imaging.Transverse(img)
	case OrientationLeft:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
