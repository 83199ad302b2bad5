package types

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Transform is a node's local placement. Rotation holds Euler angles in degrees.
type Transform struct {
	Position mgl64.Vec3 `json:"position"`
	Rotation mgl64.Vec3 `json:"rotation"`
	Scale    mgl64.Vec3 `json:"scale"`
}

// IdentityTransform has unit scale and no offset or rotation.
func IdentityTransform() Transform {
	return Transform{Scale: mgl64.Vec3{1, 1, 1}}
}

// Material is an optional per-part override.
type Material struct {
	Tint     string     `json:"tint,omitempty"`
	Texture  string     `json:"texture,omitempty"`
	Repeat   [2]float64 `json:"repeat,omitempty"`
	Offset   [2]float64 `json:"offset,omitempty"`
	Rotation float64    `json:"rotation,omitempty"`
}

// Part is one named, independently visible unit of a scene.
type Part struct {
	Name      string      `json:"name"`
	Visible   bool        `json:"visible"`
	Transform Transform   `json:"transform"`
	Rest      Transform   `json:"rest"`
	Material  *Material   `json:"material,omitempty"`
	Bounds    BoundingBox `json:"bounds"`
}

// PartState is what a scene-graph provider reports for a node on enumeration.
type PartState struct {
	Name      string
	Visible   bool
	Transform Transform
	Bounds    BoundingBox
}

// Mutation is pushed to a scene-graph provider. Nil fields are left untouched.
type Mutation struct {
	Visible   *bool
	Transform *Transform
	Material  *Material
}
