package configdoc

import (
	"github.com/localnerve/jam-build-configurator/internal/types"
)

// Clone returns a deep copy. Edits made through the With* methods go to a
// clone so a document loaded for a viewing session is never mutated.
func (d Document) Clone() Document {
	out := d
	out.Assets = cloneMap(d.Assets)
	out.HiddenInitially = cloneStrings(d.HiddenInitially)
	out.DoorCountOptions = cloneInts(d.DoorCountOptions)
	out.DrawerCountOptions = cloneInts(d.DrawerCountOptions)

	if d.Rules != nil {
		out.Rules = make(map[int]map[types.DoorType]Bucket, len(d.Rules))
		for count, byType := range d.Rules {
			m := make(map[types.DoorType]Bucket, len(byType))
			for t, b := range byType {
				m[t] = b.clone()
			}
			out.Rules[count] = m
		}
	}

	out.DoorTypeMap = DoorTypeMap{
		ToGlass: cloneMap(d.DoorTypeMap.ToGlass),
		ToSolid: cloneMap(d.DoorTypeMap.ToSolid),
	}

	if d.InteractionGroups != nil {
		out.InteractionGroups = make([]InteractionGroup, len(d.InteractionGroups))
		for i, g := range d.InteractionGroups {
			if g.Parts != nil {
				g.Parts = append(make([]InteractionPart, 0, len(g.Parts)), g.Parts...)
			}
			out.InteractionGroups[i] = g
		}
	}
	if d.UIWidgets != nil {
		out.UIWidgets = make([]Widget, len(d.UIWidgets))
		for i, w := range d.UIWidgets {
			w.Options = cloneInts(w.Options)
			out.UIWidgets[i] = w
		}
	}
	if d.Lights != nil {
		out.Lights = append(make([]Light, 0, len(d.Lights)), d.Lights...)
	}
	if d.Textures != nil {
		out.Textures = make([]TextureMapping, len(d.Textures))
		for i, t := range d.Textures {
			t.Parts = cloneStrings(t.Parts)
			out.Textures[i] = t
		}
	}
	return out
}

// WithRule returns a copy with the bucket for (count, doorType) replaced.
func (d Document) WithRule(count int, doorType types.DoorType, b Bucket) Document {
	out := d.Clone()
	if out.Rules == nil {
		out.Rules = map[int]map[types.DoorType]Bucket{}
	}
	if out.Rules[count] == nil {
		out.Rules[count] = map[types.DoorType]Bucket{}
	}
	out.Rules[count][doorType] = b.clone()
	return out
}

// WithoutRule returns a copy without the bucket for (count, doorType). The
// count entry is dropped when it becomes empty.
func (d Document) WithoutRule(count int, doorType types.DoorType) Document {
	out := d.Clone()
	if byType, ok := out.Rules[count]; ok {
		delete(byType, doorType)
		if len(byType) == 0 {
			delete(out.Rules, count)
		}
	}
	return out
}

// WithWidgets returns a copy with the widget list replaced.
func (d Document) WithWidgets(widgets []Widget) Document {
	out := d.Clone()
	out.UIWidgets = make([]Widget, len(widgets))
	for i, w := range widgets {
		w.Options = cloneInts(w.Options)
		out.UIWidgets[i] = w
	}
	return out
}

func (b Bucket) clone() Bucket {
	out := Bucket{Show: cloneStrings(b.Show), Hide: cloneStrings(b.Hide)}
	if b.Slots != nil {
		out.Slots = make(map[int]SlotBucket, len(b.Slots))
		for slot, s := range b.Slots {
			out.Slots[slot] = SlotBucket{Show: cloneStrings(s.Show), Hide: cloneStrings(s.Hide)}
		}
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append(make([]string, 0, len(in)), in...)
}

func cloneInts(in []int) []int {
	if in == nil {
		return nil
	}
	return append(make([]int, 0, len(in)), in...)
}

func cloneMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
