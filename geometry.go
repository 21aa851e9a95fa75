package imgframe

import (
	"fmt"
	"image"

	"github.com/gogpu/imgframe/safe"
)

// Point is a pixel position in frame coordinates.
type Point struct {
	X, Y uint
}

// Pt is a convenience function to create a Point.
func Pt(x, y uint) Point {
	return Point{X: x, Y: y}
}

// String returns "(x,y)".
func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Size is a frame or region extent in pixels.
type Size struct {
	Width, Height uint
}

// Sz is a convenience function to create a Size.
func Sz(width, height uint) Size {
	return Size{Width: width, Height: height}
}

// String returns "WxH".
func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Empty returns true if either dimension is zero.
func (s Size) Empty() bool {
	return s.Width == 0 || s.Height == 0
}

// Area returns Width*Height, or an error wrapping ErrOverflow.
func (s Size) Area() (uint, error) {
	return safe.Multiply(s.Width, s.Height)
}

// ROI is a rectangular region of interest: an origin and an extent.
type ROI struct {
	Origin Point
	Extent Size
}

// Rect is a convenience function to create an ROI from its origin and extent.
func Rect(x, y, width, height uint) ROI {
	return ROI{Origin: Pt(x, y), Extent: Sz(width, height)}
}

// String returns "WxH+X+Y".
func (r ROI) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Extent.Width, r.Extent.Height, r.Origin.X, r.Origin.Y)
}

// Max returns the exclusive lower-right corner of the region.
// Returns an error wrapping ErrOverflow if the corner is not representable.
func (r ROI) Max() (Point, error) {
	x, err := safe.Add(r.Origin.X, r.Extent.Width)
	if err != nil {
		return Point{}, err
	}
	y, err := safe.Add(r.Origin.Y, r.Extent.Height)
	if err != nil {
		return Point{}, err
	}
	return Point{X: x, Y: y}, nil
}

// ROIFromRectangle converts an image.Rectangle to an ROI.
// Returns ErrInvalidArgument if the rectangle has a negative coordinate or
// is not canonical.
func ROIFromRectangle(r image.Rectangle) (ROI, error) {
	if r.Min.X < 0 || r.Min.Y < 0 || r.Max.X < r.Min.X || r.Max.Y < r.Min.Y {
		return ROI{}, fmt.Errorf("%w: rectangle %v", ErrInvalidArgument, r)
	}
	return Rect(uint(r.Min.X), uint(r.Min.Y), uint(r.Dx()), uint(r.Dy())), nil
}
