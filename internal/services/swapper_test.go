package services

import (
	"testing"

	"github.com/localnerve/jam-build-configurator/internal/configdoc"
	"github.com/localnerve/jam-build-configurator/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwapRoundTrip(t *testing.T) {
	doc := undercounter(t)
	require.NotEmpty(t, doc.DoorTypeMap.ToGlass)

	for solid, glass := range doc.DoorTypeMap.ToGlass {
		got, err := Swap(solid, ToGlass, doc)
		require.NoError(t, err)
		assert.Equal(t, glass, got)

		back, err := Swap(got, ToSolid, doc)
		require.NoError(t, err)
		assert.Equal(t, solid, back)
	}
}

func TestSwapMissingMapping(t *testing.T) {
	doc := undercounter(t)

	_, err := Swap("Door_09", ToGlass, doc)
	assert.ErrorIs(t, err, types.ErrNotFound)

	// Already glass: nothing maps a glass door to glass
	_, err = Swap("Glass_Door_01", ToGlass, doc)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestSwapInvalidDirection(t *testing.T) {
	_, err := Swap("Door_01", SwapDirection("sideways"), undercounter(t))
	assert.ErrorIs(t, err, types.ErrInvalidDirection)

	_, err = SwapDirection("").Target()
	assert.ErrorIs(t, err, types.ErrInvalidDirection)
}

func TestSwapDirectionTarget(t *testing.T) {
	got, err := ToGlass.Target()
	require.NoError(t, err)
	assert.Equal(t, types.DoorGlass, got)

	got, err = ToSolid.Target()
	require.NoError(t, err)
	assert.Equal(t, types.DoorSolid, got)
}

func TestSlotDoorName(t *testing.T) {
	doc := undercounter(t)

	assert.Equal(t, "Door_01", SlotDoorName(doc, types.Selection{DoorCount: 1}, 1))
	assert.Equal(t, "Door_02", SlotDoorName(doc, types.Selection{DoorCount: 2}, 2))
	assert.Equal(t, "Glass_Door_03", SlotDoorName(doc, types.Selection{
		DoorCount: 3,
		DoorTypes: map[int]types.DoorType{3: types.DoorGlass},
	}, 3))
	assert.Equal(t, "", SlotDoorName(doc, types.Selection{DoorCount: 99}, 1))
}

func TestSlotDoorNameSharedBucket(t *testing.T) {
	doc := configdoc.NewBuilder("Cabinet").
		Rule(2, types.DoorSolid, []string{"Door_01", "Drawer_01", "Door_02"}, nil).
		DoorPair("Door_01", "Glass_Door_01").
		DoorPair("Door_02", "Glass_Door_02").
		Build()
	sel := types.Selection{DoorCount: 2}

	assert.Equal(t, "Door_01", SlotDoorName(doc, sel, 1))
	assert.Equal(t, "Door_02", SlotDoorName(doc, sel, 2))
	assert.Equal(t, "", SlotDoorName(doc, sel, 3))
}

func TestSlotDoorNameSharedBucketIgnoresListOrder(t *testing.T) {
	doc := configdoc.NewBuilder("Cabinet").
		Rule(2, types.DoorSolid, []string{"Door_02", "Drawer_01", "Door_01"}, nil).
		DoorPair("Door_02", "Glass_Door_02").
		DoorPair("Door_01", "Glass_Door_01").
		Build()
	sel := types.Selection{DoorCount: 2}

	assert.Equal(t, "Door_01", SlotDoorName(doc, sel, 1))
	assert.Equal(t, "Door_02", SlotDoorName(doc, sel, 2))
}

func TestSwapSlot(t *testing.T) {
	doc := undercounter(t)
	sel := types.Selection{DoorCount: 2}

	next, swapped, err := SwapSlot(doc, sel, 2, SlotDoorName(doc, sel, 2), ToGlass)
	require.NoError(t, err)
	assert.Equal(t, "Glass_Door_02", swapped)
	assert.Equal(t, types.DoorGlass, next.TypeOf(2))
	assert.Equal(t, types.DoorSolid, next.TypeOf(1))
	assert.Nil(t, sel.DoorTypes, "input selection must not change")

	diff := Resolve(doc, next)
	assert.Contains(t, diff.Show, "Glass_Door_02")
	assert.Contains(t, diff.Hide, "Door_02")

	back, swapped, err := SwapSlot(doc, next, 2, SlotDoorName(doc, next, 2), ToSolid)
	require.NoError(t, err)
	assert.Equal(t, "Door_02", swapped)
	assert.Equal(t, types.DoorSolid, back.TypeOf(2))
}

func TestSwapSlotErrors(t *testing.T) {
	doc := undercounter(t)
	sel := types.Selection{DoorCount: 2}

	_, _, err := SwapSlot(doc, sel, 3, "", ToGlass)
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, _, err = SwapSlot(doc, sel, 0, "", ToGlass)
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, _, err = SwapSlot(doc, sel, 1, "Door_09", ToGlass)
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, _, err = SwapSlot(doc, sel, 1, "Door_01", SwapDirection("up"))
	assert.ErrorIs(t, err, types.ErrInvalidDirection)
}

func TestSwapSlotWithoutDoorName(t *testing.T) {
	sel := types.Selection{DoorCount: 1}
	next, swapped, err := SwapSlot(undercounter(t), sel, 1, "", ToGlass)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Empty(t, swapped)
	assert.Equal(t, types.DoorSolid, next.TypeOf(1))
}

func TestSwapSlotSameFinish(t *testing.T) {
	doc := undercounter(t)

	glass := types.Selection{DoorCount: 2, DoorTypes: map[int]types.DoorType{2: types.DoorGlass}}
	next, swapped, err := SwapSlot(doc, glass, 2, SlotDoorName(doc, glass, 2), ToGlass)
	require.NoError(t, err)
	assert.Empty(t, swapped)
	assert.Equal(t, glass, next)

	solid := types.Selection{DoorCount: 2}
	next, swapped, err = SwapSlot(doc, solid, 1, SlotDoorName(doc, solid, 1), ToSolid)
	require.NoError(t, err)
	assert.Empty(t, swapped)
	assert.Equal(t, types.DoorSolid, next.TypeOf(1))
	assert.Nil(t, next.DoorTypes)

	// No mapping is needed when nothing changes
	_, _, err = SwapSlot(doc, solid, 1, "", ToSolid)
	assert.NoError(t, err)
}
