package services

import (
	"fmt"
	"sort"

	"github.com/localnerve/jam-build-configurator/internal/configdoc"
	"github.com/localnerve/jam-build-configurator/internal/types"
)

// SwapDirection selects which half of the door type map a swap reads.
type SwapDirection string

const (
	ToGlass SwapDirection = "toGlass"
	ToSolid SwapDirection = "toSolid"
)

// Target is the door type a swap in this direction produces.
func (d SwapDirection) Target() (types.DoorType, error) {
	switch d {
	case ToGlass:
		return types.DoorGlass, nil
	case ToSolid:
		return types.DoorSolid, nil
	}
	return "", fmt.Errorf("%w: %q", types.ErrInvalidDirection, string(d))
}

// Swap maps a door part name to its counterpart in the other finish.
// A missing mapping is an authoring error and returns types.ErrNotFound.
func Swap(name string, direction SwapDirection, doc configdoc.Document) (string, error) {
	var table map[string]string
	switch direction {
	case ToGlass:
		table = doc.DoorTypeMap.ToGlass
	case ToSolid:
		table = doc.DoorTypeMap.ToSolid
	default:
		return "", fmt.Errorf("%w: %q", types.ErrInvalidDirection, string(direction))
	}

	target, ok := table[name]
	if !ok || target == "" {
		return "", fmt.Errorf("swap %s %q: %w", direction, name, types.ErrNotFound)
	}
	return target, nil
}

// SwapSlot switches one door slot to the finish the direction produces and
// returns the new selection. It does not touch visibility: callers re-run
// Resolve on the returned selection.
//
// A slot that already has the target finish is returned unchanged. Otherwise
// doorName is the slot's current door part and must have a mapping, so a
// slot without one surfaces as types.ErrNotFound.
func SwapSlot(doc configdoc.Document, sel types.Selection, slot int, doorName string, direction SwapDirection) (types.Selection, string, error) {
	target, err := direction.Target()
	if err != nil {
		return sel, "", err
	}
	if slot < 1 || slot > sel.DoorCount {
		return sel, "", fmt.Errorf("swap slot %d of %d: %w", slot, sel.DoorCount, types.ErrNotFound)
	}
	if sel.TypeOf(slot) == target {
		return sel.Clone(), "", nil
	}
	if doorName == "" {
		return sel, "", fmt.Errorf("swap slot %d %s: %w", slot, direction, types.ErrNotFound)
	}

	swapped, err := Swap(doorName, direction, doc)
	if err != nil {
		return sel, "", err
	}
	return sel.WithSlotType(slot, target), swapped, nil
}

// SlotDoorName finds the door part a slot currently shows. It looks through
// the slot's bucket shows for a name that participates in the door type map
// in the slot's current finish.
func SlotDoorName(doc configdoc.Document, sel types.Selection, slot int) string {
	current := sel.TypeOf(slot)
	bucket, ok := doc.BucketFor(sel.DoorCount, current)
	if !ok {
		return ""
	}

	table := doc.DoorTypeMap.ToGlass
	if current == types.DoorGlass {
		table = doc.DoorTypeMap.ToSolid
	}

	s := bucket.ForSlot(slot)
	candidates := s.Show
	if _, hasOverride := bucket.Slots[slot]; !hasOverride {
		// Shared bucket: the slot's door is the slot-th mapped name by name order.
		var mapped []string
		for _, n := range s.Show {
			if _, ok := table[n]; ok {
				mapped = append(mapped, n)
			}
		}
		sort.Strings(mapped)
		if slot-1 < len(mapped) {
			return mapped[slot-1]
		}
		return ""
	}

	for _, n := range candidates {
		if _, ok := table[n]; ok {
			return n
		}
	}
	return ""
}
