package types

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BoundingBox is an axis-aligned box. A box with Valid=false holds no points.
type BoundingBox struct {
	Min   mgl64.Vec3 `json:"min"`
	Max   mgl64.Vec3 `json:"max"`
	Valid bool       `json:"valid"`
}

// NewBoundingBox builds a valid box from two corners in any order.
func NewBoundingBox(a, b mgl64.Vec3) BoundingBox {
	box := BoundingBox{Valid: true}
	for i := 0; i < 3; i++ {
		box.Min[i] = math.Min(a[i], b[i])
		box.Max[i] = math.Max(a[i], b[i])
	}
	return box
}

// Extend grows the box to include p.
func (b BoundingBox) Extend(p mgl64.Vec3) BoundingBox {
	if !b.Valid {
		return BoundingBox{Min: p, Max: p, Valid: true}
	}
	for i := 0; i < 3; i++ {
		b.Min[i] = math.Min(b.Min[i], p[i])
		b.Max[i] = math.Max(b.Max[i], p[i])
	}
	return b
}

// Union returns the smallest box holding both boxes.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	if !o.Valid {
		return b
	}
	return b.Extend(o.Min).Extend(o.Max)
}

// Center is the box midpoint, the origin for an empty box.
func (b BoundingBox) Center() mgl64.Vec3 {
	if !b.Valid {
		return mgl64.Vec3{}
	}
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size is the per-axis extent, never negative.
func (b BoundingBox) Size() mgl64.Vec3 {
	if !b.Valid {
		return mgl64.Vec3{}
	}
	s := b.Max.Sub(b.Min)
	for i := range s {
		if s[i] < 0 || math.IsNaN(s[i]) {
			s[i] = 0
		}
	}
	return s
}

// BoxSummary is the center/size form reported to clients.
type BoxSummary struct {
	Center mgl64.Vec3 `json:"center"`
	Size   mgl64.Vec3 `json:"size"`
}

// CameraFitResult frames a set of parts.
type CameraFitResult struct {
	Position mgl64.Vec3 `json:"position"`
	Target   mgl64.Vec3 `json:"target"`
	Distance float64    `json:"distance"`
	Box      BoxSummary `json:"box"`
}
