package scene

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/localnerve/jam-build-configurator/internal/configdoc"
	"github.com/localnerve/jam-build-configurator/internal/testutil"
	"github.com/localnerve/jam-build-configurator/internal/types"
	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const delta = 1e-5

func cabinetDoc() *gltf.Document {
	return testutil.NewModelDocument(
		testutil.Box("Body", [3]float32{0, 0, 0}, [3]float32{-1, 0, -0.5}, [3]float32{1, 2, 0.5}),
		testutil.Box("Door_01", [3]float32{1, 0, 0}, [3]float32{-0.5, 0, -0.25}, [3]float32{0.5, 1, 0.25}),
		testutil.PartFixture{
			Name:  "Glass_Door_01",
			Scale: [3]float32{2, 2, 2},
			Min:   [3]float32{0, 0, 0},
			Max:   [3]float32{1, 1, 1},
		},
	)
}

func partByName(t *testing.T, parts []types.PartState, name string) types.PartState {
	t.Helper()
	for _, p := range parts {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("part %q not enumerated", name)
	return types.PartState{}
}

func assertVec(t *testing.T, want, got mgl64.Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], delta, "component %d of %v", i, got)
	}
}

func TestEnumeratePartsSortedWithBounds(t *testing.T) {
	s := FromDocument(cabinetDoc())
	parts := s.EnumerateParts()

	require.Len(t, parts, 3)
	assert.Equal(t, "Body", parts[0].Name)
	assert.Equal(t, "Door_01", parts[1].Name)
	assert.Equal(t, "Glass_Door_01", parts[2].Name)

	door := partByName(t, parts, "Door_01")
	assert.True(t, door.Visible)
	assert.True(t, door.Bounds.Valid)
	assertVec(t, mgl64.Vec3{0.5, 0, -0.25}, door.Bounds.Min)
	assertVec(t, mgl64.Vec3{1.5, 1, 0.25}, door.Bounds.Max)
	assertVec(t, mgl64.Vec3{1, 0, 0}, door.Transform.Position)

	glass := partByName(t, parts, "Glass_Door_01")
	assertVec(t, mgl64.Vec3{0, 0, 0}, glass.Bounds.Min)
	assertVec(t, mgl64.Vec3{2, 2, 2}, glass.Bounds.Max)
	assertVec(t, mgl64.Vec3{2, 2, 2}, glass.Transform.Scale)
}

func TestBoundsFollowParentTransform(t *testing.T) {
	doc := cabinetDoc()
	doc.Nodes = append(doc.Nodes, &gltf.Node{
		Name:        "Cabinet",
		Translation: [3]float32{0, 3, 0},
		Rotation:    [4]float32{0, 0, 0, 1},
		Scale:       [3]float32{1, 1, 1},
		Children:    []uint32{1},
	})

	door := partByName(t, FromDocument(doc).EnumerateParts(), "Door_01")
	assertVec(t, mgl64.Vec3{0.5, 3, -0.25}, door.Bounds.Min)
	assertVec(t, mgl64.Vec3{1.5, 4, 0.25}, door.Bounds.Max)
}

func TestNodeWithoutMeshHasNoBounds(t *testing.T) {
	doc := gltf.NewDocument()
	doc.Nodes = []*gltf.Node{{Name: "Empty"}}

	parts := FromDocument(doc).EnumerateParts()
	require.Len(t, parts, 1)
	assert.False(t, parts[0].Bounds.Valid)
	assertVec(t, mgl64.Vec3{1, 1, 1}, parts[0].Transform.Scale)
}

func TestApplyMutationVisibility(t *testing.T) {
	src := cabinetDoc()
	s := FromDocument(src)

	hidden := false
	require.NoError(t, s.ApplyMutation("Door_01", types.Mutation{Visible: &hidden}))
	assert.False(t, partByName(t, s.EnumerateParts(), "Door_01").Visible)

	// The source document backs other scenes and stays untouched
	assert.Nil(t, src.Nodes[1].Extras)
	assert.True(t, partByName(t, FromDocument(src).EnumerateParts(), "Door_01").Visible)

	shown := true
	require.NoError(t, s.ApplyMutation("Door_01", types.Mutation{Visible: &shown}))
	assert.True(t, partByName(t, s.EnumerateParts(), "Door_01").Visible)
}

func TestApplyMutationUnknownNode(t *testing.T) {
	hidden := false
	err := FromDocument(cabinetDoc()).ApplyMutation("Foo", types.Mutation{Visible: &hidden})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestApplyMutationTransformRoundTrip(t *testing.T) {
	s := FromDocument(cabinetDoc())
	want := types.Transform{
		Position: mgl64.Vec3{0.25, 0.5, 0.75},
		Rotation: mgl64.Vec3{30, 45, 60},
		Scale:    mgl64.Vec3{1, 1, 1},
	}
	require.NoError(t, s.ApplyMutation("Door_01", types.Mutation{Transform: &want}))

	got := partByName(t, s.EnumerateParts(), "Door_01").Transform
	assertVec(t, want.Position, got.Position)
	assert.InDelta(t, want.Rotation[0], got.Rotation[0], 1e-3)
	assert.InDelta(t, want.Rotation[1], got.Rotation[1], 1e-3)
	assert.InDelta(t, want.Rotation[2], got.Rotation[2], 1e-3)
	assertVec(t, want.Scale, got.Scale)
}

func TestEulerRoundTrip(t *testing.T) {
	cases := []mgl64.Vec3{
		{0, 0, 0},
		{90, 0, 0},
		{-45, 30, 170},
		{10, -80, -10},
	}
	for _, e := range cases {
		got := quatToEuler(eulerToQuat(e))
		for i := range e {
			assert.InDelta(t, e[i], got[i], 1e-6, "euler %v", e)
		}
	}
}

func TestDoorSwingRotatesBounds(t *testing.T) {
	s := FromDocument(testutil.NewModelDocument(
		testutil.Box("Door_01", [3]float32{0, 0, 0}, [3]float32{0, 0, 0}, [3]float32{1, 1, 0.1}),
	))
	open := types.Transform{Rotation: mgl64.Vec3{0, -90, 0}, Scale: mgl64.Vec3{1, 1, 1}}
	require.NoError(t, s.ApplyMutation("Door_01", types.Mutation{Transform: &open}))

	// Rotating -90 about Y swings +X onto +Z
	box := partByName(t, s.EnumerateParts(), "Door_01").Bounds
	assertVec(t, mgl64.Vec3{-0.1, 0, 0}, box.Min)
	assertVec(t, mgl64.Vec3{0, 1, 1}, box.Max)
}

func TestWriteBinaryRoundTrip(t *testing.T) {
	s := FromDocument(cabinetDoc())
	hidden := false
	require.NoError(t, s.ApplyMutation("Door_01", types.Mutation{
		Visible:  &hidden,
		Material: &types.Material{Texture: "textures/steel.jpg", Repeat: [2]float64{2, 2}},
	}))

	var buf bytes.Buffer
	require.NoError(t, s.WriteBinary(&buf, ""))
	assert.Equal(t, "glTF", buf.String()[:4])

	doc := new(gltf.Document)
	require.NoError(t, gltf.NewDecoder(bytes.NewReader(buf.Bytes())).Decode(doc))

	parts := FromDocument(doc).EnumerateParts()
	assert.False(t, partByName(t, parts, "Door_01").Visible)
	assert.True(t, partByName(t, parts, "Body").Visible)
	assertVec(t, mgl64.Vec3{1.5, 1, 0.25}, partByName(t, parts, "Door_01").Bounds.Max)
}

func TestWriteBinaryUnknownGroup(t *testing.T) {
	err := FromDocument(cabinetDoc()).WriteBinary(&bytes.Buffer{}, "doors")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestSaveAndLoad(t *testing.T) {
	s := FromDocument(cabinetDoc())
	moved := types.IdentityTransform()
	moved.Position = mgl64.Vec3{0, 0, 0.35}
	require.NoError(t, s.ApplyMutation("Door_01", types.Mutation{Transform: &moved}))

	path := filepath.Join(t.TempDir(), "cabinet.glb")
	require.NoError(t, s.Save(path, ""))

	loaded, err := Load(path)
	require.NoError(t, err)
	door := partByName(t, loaded.EnumerateParts(), "Door_01")
	assertVec(t, mgl64.Vec3{0, 0, 0.35}, door.Transform.Position)

	_, err = Load(filepath.Join(t.TempDir(), "missing.glb"))
	assert.Error(t, err)
	assert.Error(t, s.Save(filepath.Join(t.TempDir(), "no-dir", "cabinet.glb"), ""))
}

func TestLayeredGroupsFirstNameWins(t *testing.T) {
	body := testutil.NewModelDocument(
		testutil.Box("Body", [3]float32{}, [3]float32{0, 0, 0}, [3]float32{1, 1, 1}),
		testutil.Box("Door_01", [3]float32{}, [3]float32{0, 0, 0}, [3]float32{1, 1, 1}),
	)
	doors := testutil.NewModelDocument(
		testutil.Box("Door_01", [3]float32{5, 0, 0}, [3]float32{0, 0, 0}, [3]float32{1, 1, 1}),
		testutil.Box("Glass_Door_01", [3]float32{}, [3]float32{0, 0, 0}, [3]float32{1, 1, 1}),
	)

	s := New(map[string]*gltf.Document{"doors": doors, "body": body})
	assert.Equal(t, []string{"body", "doors"}, s.Groups())

	parts := s.EnumerateParts()
	require.Len(t, parts, 3)
	assertVec(t, mgl64.Vec3{1, 1, 1}, partByName(t, parts, "Door_01").Bounds.Max)

	hidden := false
	require.NoError(t, s.ApplyMutation("Glass_Door_01", types.Mutation{Visible: &hidden}))

	var buf bytes.Buffer
	require.NoError(t, s.WriteBinary(&buf, "doors"))
	doc := new(gltf.Document)
	require.NoError(t, gltf.NewDecoder(&buf).Decode(doc))
	assert.False(t, partByName(t, FromDocument(doc).EnumerateParts(), "Glass_Door_01").Visible)
}

func TestPrefetcherCachesAssets(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteModelGLB(t, dir, "body.glb",
		testutil.Box("Body", [3]float32{}, [3]float32{-1, 0, -0.5}, [3]float32{1, 2, 0.5}))
	testutil.WriteModelGLB(t, dir, "doors.glb",
		testutil.Box("Door_01", [3]float32{1, 0, 0}, [3]float32{-0.5, 0, -0.25}, [3]float32{0.5, 1, 0.25}))

	p := NewPrefetcher(dir)
	opens := 0
	open := p.open
	p.open = func(path string) (*gltf.Document, error) {
		opens++
		return open(path)
	}

	doc := configdoc.NewBuilder("Cabinet").
		Asset("body", "body.glb").
		Asset("doors", "doors.glb").
		Build()

	ctx := context.Background()
	require.NoError(t, p.PrefetchAssets(ctx, doc))
	assert.Equal(t, 2, opens)
	assert.True(t, p.Cached("body.glb"))
	assert.True(t, p.Cached("doors.glb"))

	s, err := p.SceneFor(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, 2, opens)
	assert.Len(t, s.EnumerateParts(), 2)

	// Scenes built from the cache are independent
	hidden := false
	require.NoError(t, s.ApplyMutation("Door_01", types.Mutation{Visible: &hidden}))
	other, err := p.SceneFor(ctx, doc)
	require.NoError(t, err)
	assert.True(t, partByName(t, other.EnumerateParts(), "Door_01").Visible)
}

func TestPrefetchReportsEveryFailure(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteModelGLB(t, dir, "body.glb",
		testutil.Box("Body", [3]float32{}, [3]float32{0, 0, 0}, [3]float32{1, 1, 1}))

	doc := configdoc.NewBuilder("Cabinet").
		Asset("body", "body.glb").
		Asset("doors", "missing-doors.glb").
		Asset("drawers", "missing-drawers.glb").
		Build()

	p := NewPrefetcher(dir)
	err := p.PrefetchAssets(context.Background(), doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 3 assets failed")
	assert.True(t, p.Cached("body.glb"))
	assert.False(t, p.Cached("missing-doors.glb"))

	_, err = p.SceneFor(context.Background(), doc)
	assert.Error(t, err)
}

func TestSceneForWithoutAssets(t *testing.T) {
	_, err := NewPrefetcher(t.TempDir()).SceneFor(context.Background(), configdoc.NewBuilder("Empty").Build())
	assert.Error(t, err)
}

func TestDocumentHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewPrefetcher(t.TempDir()).Document(ctx, "body.glb")
	assert.ErrorIs(t, err, context.Canceled)
}
