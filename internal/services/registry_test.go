package services

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/localnerve/jam-build-configurator/internal/configdoc"
	"github.com/localnerve/jam-build-configurator/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingScene is a SceneGraph that remembers the mutations pushed to it.
type recordingScene struct {
	parts     []types.PartState
	fail      map[string]bool
	mutations map[string][]types.Mutation
}

func newRecordingScene(parts ...types.PartState) *recordingScene {
	return &recordingScene{
		parts:     parts,
		fail:      map[string]bool{},
		mutations: map[string][]types.Mutation{},
	}
}

func (s *recordingScene) EnumerateParts() []types.PartState {
	return s.parts
}

func (s *recordingScene) ApplyMutation(name string, m types.Mutation) error {
	if s.fail[name] {
		return errors.New("scene rejected mutation")
	}
	s.mutations[name] = append(s.mutations[name], m)
	return nil
}

func part(name string, box types.BoundingBox) types.PartState {
	return types.PartState{Name: name, Visible: true, Transform: types.IdentityTransform(), Bounds: box}
}

func unitBox(x float64) types.BoundingBox {
	return types.NewBoundingBox(mgl64.Vec3{x, 0, 0}, mgl64.Vec3{x + 1, 1, 1})
}

func TestRegistryMirrorsScene(t *testing.T) {
	hidden := part("Glass_Door_01", unitBox(0))
	hidden.Visible = false
	r := NewPartRegistry(newRecordingScene(part("Door_01", unitBox(0)), hidden, part("", unitBox(5))))

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"Door_01", "Glass_Door_01"}, r.Names())

	p, ok := r.Get("Glass_Door_01")
	require.True(t, ok)
	assert.False(t, p.Visible)
	assert.Equal(t, p.Transform, p.Rest)

	_, ok = r.Get("Foo")
	assert.False(t, ok)
}

func TestApplyDiffSkipsUnknownNames(t *testing.T) {
	scene := newRecordingScene(part("Door_01", unitBox(0)), part("Door_02", unitBox(1)))
	r := NewPartRegistry(scene)

	res := r.ApplyDiff([]string{"Door_01", "Foo"}, []string{"Door_02"})

	assert.Equal(t, types.ApplyResult{Applied: 2, Skipped: 1}, res)
	d1, _ := r.Get("Door_01")
	d2, _ := r.Get("Door_02")
	assert.True(t, d1.Visible)
	assert.False(t, d2.Visible)
	require.Len(t, scene.mutations["Door_02"], 1)
	assert.False(t, *scene.mutations["Door_02"][0].Visible)
	assert.Empty(t, scene.mutations["Foo"])
}

func TestApplyDiffIsIdempotent(t *testing.T) {
	r := NewPartRegistry(newRecordingScene(part("Door_01", unitBox(0)), part("Door_02", unitBox(1))))

	r.ApplyDiff([]string{"Door_01"}, []string{"Door_02"})
	first := r.Parts()
	r.ApplyDiff([]string{"Door_01"}, []string{"Door_02"})

	assert.Equal(t, first, r.Parts())
}

func TestApplyDiffHideWins(t *testing.T) {
	r := NewPartRegistry(newRecordingScene(part("Door_01", unitBox(0))))

	r.ApplyDiff([]string{"Door_01"}, []string{"Door_01"})

	p, _ := r.Get("Door_01")
	assert.False(t, p.Visible)
}

func TestApplyDiffSceneFailureLeavesPartUnchanged(t *testing.T) {
	scene := newRecordingScene(part("Door_01", unitBox(0)))
	scene.fail["Door_01"] = true
	r := NewPartRegistry(scene)

	res := r.ApplyDiff(nil, []string{"Door_01"})

	assert.Equal(t, types.ApplyResult{Skipped: 1}, res)
	p, _ := r.Get("Door_01")
	assert.True(t, p.Visible)
}

func TestHideInitially(t *testing.T) {
	r := NewPartRegistryFromNames([]string{"Door_01", "Glass_Door_01", "Glass_Door_02"})

	res := r.HideInitially([]string{"Glass_Door_01", "Glass_Door_02", "Glass_Door_09"})

	assert.Equal(t, types.ApplyResult{Applied: 2, Skipped: 1}, res)
	p, _ := r.Get("Door_01")
	assert.True(t, p.Visible)
	p, _ = r.Get("Glass_Door_01")
	assert.False(t, p.Visible)
}

func TestMotionsAreRelativeToRest(t *testing.T) {
	door := part("Door_01", unitBox(0))
	door.Transform.Rotation = mgl64.Vec3{0, 10, 0}
	drawer := part("Drawer-04", unitBox(1))
	drawer.Transform.Position = mgl64.Vec3{0, 0, 0.5}

	scene := newRecordingScene(door, drawer)
	r := NewPartRegistry(scene)

	open := map[string]types.Motion{
		"Door_01":   {Kind: types.MotionRotate, Axis: "y", Amount: -100},
		"Drawer-04": {Kind: types.MotionTranslate, Axis: "-z", Amount: 0.35},
	}

	// Applying twice must not accumulate
	assert.Equal(t, types.ApplyResult{Applied: 2}, r.ApplyMotions(open))
	r.ApplyMotions(open)

	p, _ := r.Get("Door_01")
	assert.InDelta(t, -90.0, p.Transform.Rotation.Y(), 1e-9)
	assert.Equal(t, mgl64.Vec3{0, 10, 0}, p.Rest.Rotation)

	p, _ = r.Get("Drawer-04")
	assert.InDelta(t, 0.15, p.Transform.Position.Z(), 1e-9)
	require.Len(t, scene.mutations["Drawer-04"], 2)
	assert.InDelta(t, 0.15, scene.mutations["Drawer-04"][1].Transform.Position.Z(), 1e-9)

	r.ApplyMotions(map[string]types.Motion{"Door_01": {Kind: types.MotionRotate, Axis: "y"}})
	p, _ = r.Get("Door_01")
	assert.Equal(t, p.Rest, p.Transform)
}

func TestMotionsSkipBadInput(t *testing.T) {
	r := NewPartRegistry(newRecordingScene(part("Door_01", unitBox(0))))

	res := r.ApplyMotions(map[string]types.Motion{
		"Door_01": {Kind: types.MotionRotate, Axis: "w", Amount: 90},
		"Door_09": {Kind: types.MotionRotate, Axis: "y", Amount: 90},
	})

	assert.Equal(t, types.ApplyResult{Skipped: 2}, res)
	p, _ := r.Get("Door_01")
	assert.Equal(t, p.Rest, p.Transform)
}

func TestApplyCombinesDiffAndMotions(t *testing.T) {
	r := NewPartRegistry(newRecordingScene(part("Door_01", unitBox(0)), part("Door_02", unitBox(1))))

	res := r.Apply(types.Diff{
		Show:    []string{"Door_01"},
		Hide:    []string{"Door_02"},
		Motions: map[string]types.Motion{"Door_01": {Kind: types.MotionRotate, Axis: "y", Amount: 45}},
	})

	assert.Equal(t, types.ApplyResult{Applied: 3}, res)
}

func TestSetTransformUnknownPart(t *testing.T) {
	r := NewPartRegistryFromNames([]string{"Door_01"})
	err := r.SetTransform("Foo", types.IdentityTransform())
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestVisibleBoundsIgnoresHiddenParts(t *testing.T) {
	r := NewPartRegistry(newRecordingScene(
		part("Body", unitBox(0)),
		part("Door_01", unitBox(1)),
		part("Far", unitBox(10)),
	))
	r.ApplyDiff(nil, []string{"Far"})

	box := r.VisibleBounds()
	require.True(t, box.Valid)
	assert.Equal(t, mgl64.Vec3{0, 0, 0}, box.Min)
	assert.Equal(t, mgl64.Vec3{2, 1, 1}, box.Max)

	r.ApplyDiff(nil, []string{"Body", "Door_01"})
	assert.False(t, r.VisibleBounds().Valid)
}

func TestApplyTextures(t *testing.T) {
	scene := newRecordingScene(part("Door_01", unitBox(0)), part("Door_02", unitBox(1)))
	r := NewPartRegistry(scene)

	res := r.ApplyTextures([]configdoc.TextureMapping{{
		Parts:  []string{"Door_01", "Door_02", "Door_09"},
		Path:   "textures/brushed-steel.jpg",
		Repeat: [2]float64{2, 2},
	}})

	assert.Equal(t, types.ApplyResult{Applied: 2, Skipped: 1}, res)
	p, _ := r.Get("Door_01")
	require.NotNil(t, p.Material)
	assert.Equal(t, "textures/brushed-steel.jpg", p.Material.Texture)
	assert.Equal(t, [2]float64{2, 2}, p.Material.Repeat)
	require.Len(t, scene.mutations["Door_02"], 1)
	assert.Equal(t, "textures/brushed-steel.jpg", scene.mutations["Door_02"][0].Material.Texture)

	// Get hands out copies
	p.Material.Texture = "changed"
	again, _ := r.Get("Door_01")
	assert.Equal(t, "textures/brushed-steel.jpg", again.Material.Texture)
}

func TestStandaloneRegistry(t *testing.T) {
	r := NewPartRegistry(nil)
	assert.Equal(t, 0, r.Len())

	r.Register(part("Door_01", unitBox(0)))
	assert.Equal(t, types.ApplyResult{Applied: 1}, r.ApplyDiff(nil, []string{"Door_01"}))
}
