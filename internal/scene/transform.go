package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/localnerve/jam-build-configurator/internal/types"
	"github.com/qmuntal/gltf"
)

var identity32 = [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// localMatrix is the node's matrix when one is set, else T*R*S.
func localMatrix(n *gltf.Node) mgl64.Mat4 {
	if n.Matrix != identity32 && n.Matrix != ([16]float32{}) {
		var m mgl64.Mat4
		for i, v := range n.Matrix {
			m[i] = float64(v)
		}
		return m
	}

	t := localTransform(n)
	q := eulerToQuat(t.Rotation)
	return mgl64.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z()).
		Mul4(q.Mat4()).
		Mul4(mgl64.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z()))
}

// localTransform reads node TRS, treating zero scale and zero quaternions as
// unset.
func localTransform(n *gltf.Node) types.Transform {
	t := types.IdentityTransform()
	t.Position = mgl64.Vec3{float64(n.Translation[0]), float64(n.Translation[1]), float64(n.Translation[2])}
	if n.Scale != ([3]float32{}) {
		t.Scale = mgl64.Vec3{float64(n.Scale[0]), float64(n.Scale[1]), float64(n.Scale[2])}
	}
	if n.Rotation != ([4]float32{}) {
		q := mgl64.Quat{
			W: float64(n.Rotation[3]),
			V: mgl64.Vec3{float64(n.Rotation[0]), float64(n.Rotation[1]), float64(n.Rotation[2])},
		}
		t.Rotation = quatToEuler(q.Normalize())
	}
	return t
}

func setLocalTransform(n *gltf.Node, t types.Transform) {
	q := eulerToQuat(t.Rotation)
	n.Matrix = identity32
	n.Translation = [3]float32{float32(t.Position[0]), float32(t.Position[1]), float32(t.Position[2])}
	n.Rotation = [4]float32{float32(q.V[0]), float32(q.V[1]), float32(q.V[2]), float32(q.W)}
	n.Scale = [3]float32{float32(t.Scale[0]), float32(t.Scale[1]), float32(t.Scale[2])}
}

// eulerToQuat composes X, then Y, then Z rotations given in degrees
// (matrix Rx*Ry*Rz).
func eulerToQuat(deg mgl64.Vec3) mgl64.Quat {
	qx := mgl64.QuatRotate(mgl64.DegToRad(deg[0]), mgl64.Vec3{1, 0, 0})
	qy := mgl64.QuatRotate(mgl64.DegToRad(deg[1]), mgl64.Vec3{0, 1, 0})
	qz := mgl64.QuatRotate(mgl64.DegToRad(deg[2]), mgl64.Vec3{0, 0, 1})
	return qx.Mul(qy).Mul(qz).Normalize()
}

// quatToEuler inverts eulerToQuat, in degrees.
func quatToEuler(q mgl64.Quat) mgl64.Vec3 {
	m := q.Mat4()
	m13 := mgl64.Clamp(m.At(0, 2), -1, 1)

	var e mgl64.Vec3
	e[1] = math.Asin(m13)
	if math.Abs(m13) < 0.9999999 {
		e[0] = math.Atan2(-m.At(1, 2), m.At(2, 2))
		e[2] = math.Atan2(-m.At(0, 1), m.At(0, 0))
	} else {
		e[0] = math.Atan2(m.At(2, 1), m.At(1, 1))
	}
	return mgl64.Vec3{mgl64.RadToDeg(e[0]), mgl64.RadToDeg(e[1]), mgl64.RadToDeg(e[2])}
}
