package services

import (
	"sort"

	"github.com/localnerve/jam-build-configurator/internal/configdoc"
	"github.com/localnerve/jam-build-configurator/internal/types"
)

// Resolve computes the parts to show and hide for a selection.
//
// An unknown door count yields an empty diff so the current scene state is
// left untouched. Every slot 1..DoorCount contributes the show/hide sets of
// its door type's bucket (or the bucket's override for that slot). Hides are
// unioned last and subtracted from the shows, so a part hidden by any slot
// ends hidden. Output names are sorted. The document is never modified.
func Resolve(doc configdoc.Document, sel types.Selection) types.Diff {
	byType, ok := doc.Rules[sel.DoorCount]
	if !ok {
		return types.Diff{Show: []string{}, Hide: []string{}}
	}

	show := map[string]struct{}{}
	hide := map[string]struct{}{}

	for _, slot := range configdoc.Slots(sel.DoorCount) {
		bucket, ok := byType[sel.TypeOf(slot)]
		if !ok {
			continue
		}
		s := bucket.ForSlot(slot)
		for _, n := range s.Show {
			show[n] = struct{}{}
		}
		for _, n := range s.Hide {
			hide[n] = struct{}{}
		}
	}

	for n := range hide {
		delete(show, n)
	}

	return types.Diff{
		Show:    sortedKeys(show),
		Hide:    sortedKeys(hide),
		Motions: resolveMotions(doc, sel),
	}
}

// resolveMotions opens or closes interaction-group parts. The k-th drawer
// group follows sel.Drawers[k] and the k-th door group follows sel.Doors[k].
func resolveMotions(doc configdoc.Document, sel types.Selection) map[string]types.Motion {
	if len(doc.InteractionGroups) == 0 {
		return nil
	}

	motions := map[string]types.Motion{}
	doorIndex, drawerIndex := 0, 0
	for _, g := range doc.InteractionGroups {
		var open bool
		switch g.Type {
		case configdoc.GroupDoor:
			doorIndex++
			open = sel.Doors[doorIndex]
		case configdoc.GroupDrawer:
			drawerIndex++
			open = sel.Drawers[drawerIndex]
		default:
			continue
		}

		for _, p := range g.Parts {
			var m types.Motion
			switch {
			case p.RotationAxis != "":
				m = types.Motion{Kind: types.MotionRotate, Axis: p.RotationAxis}
				if open {
					m.Amount = p.OpenAngle
				}
			case p.PositionAxis != "":
				m = types.Motion{Kind: types.MotionTranslate, Axis: p.PositionAxis}
				if open {
					m.Amount = p.OpenPosition
				}
			default:
				continue
			}
			motions[p.Name] = m
		}
	}

	if len(motions) == 0 {
		return nil
	}
	return motions
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
