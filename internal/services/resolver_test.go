package services

import (
	"testing"

	"github.com/localnerve/jam-build-configurator/data"
	"github.com/localnerve/jam-build-configurator/internal/configdoc"
	"github.com/localnerve/jam-build-configurator/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func undercounter(t *testing.T) configdoc.Document {
	t.Helper()
	doc, ok, err := data.Preset("Undercounter")
	require.NoError(t, err)
	require.True(t, ok, "Undercounter preset missing")
	return doc
}

func TestResolveSingleSolidDoor(t *testing.T) {
	doc := undercounter(t)

	diff := Resolve(doc, types.Selection{DoorCount: 1})

	assert.Equal(t, []string{"Door_01"}, diff.Show)
	assert.Equal(t, []string{
		"Door_02", "Door_03",
		"Drawer-01001", "Drawer-04", "Drawer-07",
		"Glass_Door_01", "Glass_Door_02", "Glass_Door_03",
	}, diff.Hide)
}

func TestResolveSingleGlassDoor(t *testing.T) {
	doc := undercounter(t)

	diff := Resolve(doc, types.Selection{
		DoorCount: 1,
		DoorTypes: map[int]types.DoorType{1: types.DoorGlass},
	})

	assert.Equal(t, []string{"Glass_Door_01"}, diff.Show)
	assert.NotContains(t, diff.Hide, "Glass_Door_01")
	assert.Contains(t, diff.Hide, "Door_01")
}

func TestResolveMixedSlotTypes(t *testing.T) {
	doc := undercounter(t)

	diff := Resolve(doc, types.Selection{
		DoorCount: 2,
		DoorTypes: map[int]types.DoorType{1: types.DoorSolid, 2: types.DoorGlass},
	})

	assert.Equal(t, []string{"Door_01", "Drawer-01001", "Glass_Door_02"}, diff.Show)
	assert.Equal(t, []string{
		"Door_02", "Door_03", "Drawer-04", "Drawer-07", "Glass_Door_01", "Glass_Door_03",
	}, diff.Hide)
}

func TestResolveUnknownCountIsEmpty(t *testing.T) {
	doc := undercounter(t)

	diff := Resolve(doc, types.Selection{DoorCount: 99})

	require.NotNil(t, diff.Show)
	require.NotNil(t, diff.Hide)
	assert.Empty(t, diff.Show)
	assert.Empty(t, diff.Hide)
	assert.True(t, diff.Empty())
}

func TestResolveHideWins(t *testing.T) {
	doc := configdoc.NewBuilder("Cabinet").
		Rule(2, types.DoorSolid, []string{"A", "B"}, []string{"C"}).
		SlotRule(2, types.DoorSolid, 2, []string{"C"}, []string{"A"}).
		Build()

	diff := Resolve(doc, types.Selection{DoorCount: 2})

	assert.Equal(t, []string{"B"}, diff.Show)
	assert.Equal(t, []string{"A", "C"}, diff.Hide)
}

func TestResolveMissingTypeBucketContributesNothing(t *testing.T) {
	doc := configdoc.NewBuilder("Cabinet").
		Rule(2, types.DoorSolid, []string{"Door_01", "Door_02"}, []string{"Glass_Door_01"}).
		Build()

	diff := Resolve(doc, types.Selection{
		DoorCount: 2,
		DoorTypes: map[int]types.DoorType{2: types.DoorGlass},
	})

	assert.Equal(t, []string{"Door_01", "Door_02"}, diff.Show)
	assert.Equal(t, []string{"Glass_Door_01"}, diff.Hide)
}

func TestResolveIsDeterministicAndPure(t *testing.T) {
	doc := undercounter(t)
	sel := types.Selection{
		DoorCount: 3,
		DoorTypes: map[int]types.DoorType{2: types.DoorGlass},
		Doors:     map[int]bool{2: true},
	}

	first := Resolve(doc, sel)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Resolve(doc, sel))
	}
	assert.Equal(t, undercounter(t), doc)
}

func TestResolveMotions(t *testing.T) {
	doc := undercounter(t)

	closed := Resolve(doc, types.Selection{DoorCount: 3})
	require.Len(t, closed.Motions, 9)
	for name, m := range closed.Motions {
		assert.Zero(t, m.Amount, "closed motion for %s", name)
	}

	open := Resolve(doc, types.Selection{
		DoorCount: 3,
		Doors:     map[int]bool{1: true, 3: true},
		Drawers:   map[int]bool{2: true},
	})

	assert.Equal(t, types.Motion{Kind: types.MotionRotate, Axis: "y", Amount: -100}, open.Motions["Door_01"])
	assert.Equal(t, types.Motion{Kind: types.MotionRotate, Axis: "y", Amount: -100}, open.Motions["Glass_Door_01"])
	assert.Equal(t, types.Motion{Kind: types.MotionRotate, Axis: "y"}, open.Motions["Door_02"])
	assert.Equal(t, types.Motion{Kind: types.MotionRotate, Axis: "y", Amount: 100}, open.Motions["Door_03"])
	assert.Equal(t, types.Motion{Kind: types.MotionTranslate, Axis: "z", Amount: 0.35}, open.Motions["Drawer-04"])
	assert.Equal(t, types.Motion{Kind: types.MotionTranslate, Axis: "z"}, open.Motions["Drawer-01001"])
}

func TestResolveWithoutGroupsHasNoMotions(t *testing.T) {
	doc := configdoc.NewBuilder("Cabinet").
		Rule(1, types.DoorSolid, []string{"Door_01"}, nil).
		Build()

	assert.Nil(t, Resolve(doc, types.Selection{DoorCount: 1}).Motions)
}
