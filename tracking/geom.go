package tracking

import (
	"math"

	"github.com/golang/geo/r3"
)

// Rect is an axis-aligned bounding box in normalized image coordinates.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

func NewRect(x, y, width, height float64) Rect {
	return Rect{
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
	}
}

// Point2 is a 2D point in normalized image coordinates.
type Point2 struct {
	X float64
	Y float64
}

// Center returns the rectangle's center point.
func (r Rect) Center() Point2 {
	return Point2{
		X: r.X + r.Width/2.0,
		Y: r.Y + r.Height/2.0,
	}
}

// Area returns the rectangle's area. Degenerate boxes yield 0 or negative area
// and are treated as non-matches by IoU.
func (r Rect) Area() float64 {
	return r.Width * r.Height
}

// IoU calculates Intersection over Union between two rectangles.
// Empty intersection is guarded explicitly so degenerate (zero-area) boxes
// never cause division by zero.
func IoU(r1, r2 Rect) float64 {
	xA := math.Max(r1.X, r2.X)
	yA := math.Max(r1.Y, r2.Y)
	xB := math.Min(r1.X+r1.Width, r2.X+r2.Width)
	yB := math.Min(r1.Y+r1.Height, r2.Y+r2.Height)

	interArea := math.Max(0, xB-xA) * math.Max(0, yB-yA)
	if interArea == 0 {
		return 0.0
	}

	return interArea / (r1.Area() + r2.Area() - interArea)
}

// finiteVec reports whether every component of v is finite.
func finiteVec(v r3.Vector) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}
