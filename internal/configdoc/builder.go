package configdoc

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/localnerve/jam-build-configurator/internal/types"
)

// Builder assembles a Document with chained calls. Build returns an
// independent copy, so one builder can stamp out several variants.
//
//	doc := configdoc.NewBuilder("Undercounter").
//		Asset("body", "undercounter/body.glb").
//		DoorCounts(1, 2, 3).
//		Rule(1, types.DoorSolid, []string{"Door_01"}, []string{"Door_02"}).
//		Build()
type Builder struct {
	doc Document
}

// NewBuilder starts a document for the named model.
func NewBuilder(name string) *Builder {
	b := &Builder{doc: Document{Name: name}}
	b.doc.Normalize()
	return b
}

// Asset registers an asset group path.
func (b *Builder) Asset(group, path string) *Builder {
	b.doc.Assets[group] = path
	return b
}

// HiddenInitially appends parts hidden when the model loads.
func (b *Builder) HiddenInitially(names ...string) *Builder {
	b.doc.HiddenInitially = append(b.doc.HiddenInitially, names...)
	return b
}

// DoorCounts sets the selectable door counts.
func (b *Builder) DoorCounts(counts ...int) *Builder {
	b.doc.DoorCountOptions = append([]int{}, counts...)
	return b
}

// DrawerCounts sets the selectable drawer counts.
func (b *Builder) DrawerCounts(counts ...int) *Builder {
	b.doc.DrawerCountOptions = append([]int{}, counts...)
	return b
}

// Rule sets the show/hide bucket for a door count and door type.
func (b *Builder) Rule(count int, doorType types.DoorType, show, hide []string) *Builder {
	bucket := b.bucket(count, doorType)
	bucket.Show = append([]string{}, show...)
	bucket.Hide = append([]string{}, hide...)
	b.doc.Rules[count][doorType] = bucket
	return b
}

// SlotRule sets a per-slot override inside a door count/type bucket.
func (b *Builder) SlotRule(count int, doorType types.DoorType, slot int, show, hide []string) *Builder {
	bucket := b.bucket(count, doorType)
	if bucket.Slots == nil {
		bucket.Slots = map[int]SlotBucket{}
	}
	bucket.Slots[slot] = SlotBucket{Show: append([]string{}, show...), Hide: append([]string{}, hide...)}
	b.doc.Rules[count][doorType] = bucket
	return b
}

// DoorPair maps a solid door onto its glass counterpart in both directions.
func (b *Builder) DoorPair(solid, glass string) *Builder {
	b.doc.DoorTypeMap.ToGlass[solid] = glass
	b.doc.DoorTypeMap.ToSolid[glass] = solid
	return b
}

// Group appends an interaction group.
func (b *Builder) Group(groupType, label string, parts ...InteractionPart) *Builder {
	b.doc.InteractionGroups = append(b.doc.InteractionGroups, InteractionGroup{
		Type:  groupType,
		Label: label,
		Parts: append([]InteractionPart{}, parts...),
	})
	return b
}

// Widget appends a UI widget descriptor.
func (b *Builder) Widget(w Widget) *Builder {
	b.doc.UIWidgets = append(b.doc.UIWidgets, w)
	return b
}

// Camera sets the default camera.
func (b *Builder) Camera(position, target mgl64.Vec3, fov float64) *Builder {
	b.doc.Camera = Camera{Position: position, Target: target, Fov: fov}
	return b
}

// Light appends a light.
func (b *Builder) Light(l Light) *Builder {
	b.doc.Lights = append(b.doc.Lights, l)
	return b
}

// Texture appends a texture mapping.
func (b *Builder) Texture(t TextureMapping) *Builder {
	b.doc.Textures = append(b.doc.Textures, t)
	return b
}

// Build returns the finished document.
func (b *Builder) Build() Document {
	out := b.doc.Clone()
	out.Normalize()
	return out
}

func (b *Builder) bucket(count int, doorType types.DoorType) Bucket {
	if b.doc.Rules[count] == nil {
		b.doc.Rules[count] = map[types.DoorType]Bucket{}
	}
	return b.doc.Rules[count][doorType]
}

// Rotating is an InteractionPart that swings open about axis.
func Rotating(name, axis string, angle float64) InteractionPart {
	return InteractionPart{Name: name, RotationAxis: axis, OpenAngle: angle}
}

// Sliding is an InteractionPart that slides open along axis.
func Sliding(name, axis string, distance float64) InteractionPart {
	return InteractionPart{Name: name, PositionAxis: axis, OpenPosition: distance}
}
