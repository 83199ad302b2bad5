package services

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/localnerve/jam-build-configurator/internal/configdoc"
	"github.com/localnerve/jam-build-configurator/internal/types"
)

const (
	// DefaultFitMargin pads the framed box so parts do not touch the viewport edge.
	DefaultFitMargin = 1.5

	// fitEpsilon is the smallest extent treated as a real box.
	fitEpsilon = 1e-6
)

// Three-quarter view offset applied to the fit distance along X, Y and Z.
// A fixed viewing heuristic.
var fitOffset = mgl64.Vec3{0.5, 0.3, 1}

// ComputeFit frames a bounding box with a camera of the given vertical fov
// (degrees). A margin <= 0 uses DefaultFitMargin. Degenerate boxes (empty,
// zero or negative extents) produce a zero-distance result at the box center.
// The result never contains NaN or Inf.
func ComputeFit(box types.BoundingBox, fov, margin float64) types.CameraFitResult {
	if margin <= 0 || math.IsNaN(margin) || math.IsInf(margin, 0) {
		margin = DefaultFitMargin
	}
	if fov <= 0 || fov >= 180 || math.IsNaN(fov) {
		fov = configdoc.DefaultFov
	}

	center := finiteVec(box.Center())
	size := finiteVec(box.Size())

	result := types.CameraFitResult{
		Position: center,
		Target:   center,
		Box:      types.BoxSummary{Center: center, Size: size},
	}

	maxDim := math.Max(size.X(), math.Max(size.Y(), size.Z()))
	if maxDim < fitEpsilon {
		return result
	}

	distance := (maxDim * margin) / (2 * math.Tan(mgl64.DegToRad(fov)/2))
	if math.IsNaN(distance) || math.IsInf(distance, 0) {
		return result
	}

	result.Distance = distance
	result.Position = center.Add(mgl64.Vec3{
		fitOffset.X() * distance,
		fitOffset.Y() * distance,
		fitOffset.Z() * distance,
	})
	return result
}

func finiteVec(v mgl64.Vec3) mgl64.Vec3 {
	for i := range v {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			v[i] = 0
		}
	}
	return v
}
