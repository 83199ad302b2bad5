// Package configdoc defines the declarative per-model configuration document:
// which assets make up a model, which parts are hidden on load, which parts
// each door-count/door-type combination shows or hides, how solid and glass
// doors map onto each other, and the interaction groups, widgets, lights,
// textures and camera a viewer starts with.
package configdoc

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/localnerve/jam-build-configurator/internal/types"
)

// DefaultFov is used when a document carries no camera field of view.
const DefaultFov = 45.0

// Bucket is the show/hide set for one door count and door type.
// Slots optionally overrides the bucket for individual door slots. Without an
// override every slot shares the bucket, and slot N's door is the Nth show
// name with a door type mapping, taken in name order (Door_01, Door_02, ...).
type Bucket struct {
	Show  []string           `json:"show" yaml:"show"`
	Hide  []string           `json:"hide" yaml:"hide"`
	Slots map[int]SlotBucket `json:"slots,omitempty" yaml:"slots,omitempty"`
}

// SlotBucket is a per-slot show/hide override.
type SlotBucket struct {
	Show []string `json:"show" yaml:"show"`
	Hide []string `json:"hide" yaml:"hide"`
}

// ForSlot returns the show/hide pair that applies to a door slot.
func (b Bucket) ForSlot(slot int) SlotBucket {
	if s, ok := b.Slots[slot]; ok {
		return s
	}
	return SlotBucket{Show: b.Show, Hide: b.Hide}
}

// DoorTypeMap holds the bidirectional solid/glass door name mapping.
type DoorTypeMap struct {
	ToGlass map[string]string `json:"toGlass" yaml:"toGlass"`
	ToSolid map[string]string `json:"toSolid" yaml:"toSolid"`
}

// InteractionPart is one moving part of an interaction group. A part either
// rotates about RotationAxis by OpenAngle degrees or slides along
// PositionAxis by OpenPosition.
type InteractionPart struct {
	Name         string  `json:"name" yaml:"name"`
	RotationAxis string  `json:"rotationAxis,omitempty" yaml:"rotationAxis,omitempty"`
	OpenAngle    float64 `json:"openAngle,omitempty" yaml:"openAngle,omitempty"`
	PositionAxis string  `json:"positionAxis,omitempty" yaml:"positionAxis,omitempty"`
	OpenPosition float64 `json:"openPosition,omitempty" yaml:"openPosition,omitempty"`
}

// Interaction group types.
const (
	GroupDoor   = "door"
	GroupDrawer = "drawer"
)

// InteractionGroup is a set of parts that open and close together.
type InteractionGroup struct {
	Type  string            `json:"type" yaml:"type"`
	Label string            `json:"label" yaml:"label"`
	Parts []InteractionPart `json:"parts" yaml:"parts"`
}

// Widget describes one configurator control.
type Widget struct {
	Type    string `json:"type" yaml:"type"`
	Label   string `json:"label" yaml:"label"`
	Bind    string `json:"bind,omitempty" yaml:"bind,omitempty"`
	Options []int  `json:"options,omitempty" yaml:"options,omitempty"`
}

// Camera is the default viewpoint of a model.
type Camera struct {
	Position mgl64.Vec3 `json:"position" yaml:"position"`
	Target   mgl64.Vec3 `json:"target" yaml:"target"`
	Fov      float64    `json:"fov" yaml:"fov"`
}

// Light is a scene light carried through for the viewer.
type Light struct {
	Type      string     `json:"type" yaml:"type"`
	Position  mgl64.Vec3 `json:"position" yaml:"position"`
	Intensity float64    `json:"intensity" yaml:"intensity"`
	Color     string     `json:"color,omitempty" yaml:"color,omitempty"`
}

// TextureMapping assigns a texture and its UV parameters to parts.
type TextureMapping struct {
	Parts    []string   `json:"parts" yaml:"parts"`
	Path     string     `json:"path" yaml:"path"`
	Repeat   [2]float64 `json:"repeat" yaml:"repeat"`
	Offset   [2]float64 `json:"offset" yaml:"offset"`
	Rotation float64    `json:"rotation" yaml:"rotation"`
}

// Document is the configuration of one model.
type Document struct {
	Name               string                            `json:"name" yaml:"name"`
	Assets             map[string]string                 `json:"assets" yaml:"assets"`
	HiddenInitially    []string                          `json:"hiddenInitially" yaml:"hiddenInitially"`
	DoorCountOptions   []int                             `json:"doorCountOptions" yaml:"doorCountOptions"`
	DrawerCountOptions []int                             `json:"drawerCountOptions" yaml:"drawerCountOptions"`
	Rules              map[int]map[types.DoorType]Bucket `json:"rules" yaml:"rules"`
	DoorTypeMap        DoorTypeMap                       `json:"doorTypeMap" yaml:"doorTypeMap"`
	InteractionGroups  []InteractionGroup                `json:"interactionGroups" yaml:"interactionGroups"`
	UIWidgets          []Widget                          `json:"uiWidgets" yaml:"uiWidgets"`
	Camera             Camera                            `json:"camera" yaml:"camera"`
	Lights             []Light                           `json:"lights" yaml:"lights"`
	Textures           []TextureMapping                  `json:"textures" yaml:"textures"`
}

// Normalize replaces absent optional fields with empty values so that
// partially-filled documents never need nil checks downstream.
func (d *Document) Normalize() {
	if d.Assets == nil {
		d.Assets = map[string]string{}
	}
	if d.HiddenInitially == nil {
		d.HiddenInitially = []string{}
	}
	if d.DoorCountOptions == nil {
		d.DoorCountOptions = []int{}
	}
	if d.DrawerCountOptions == nil {
		d.DrawerCountOptions = []int{}
	}
	if d.Rules == nil {
		d.Rules = map[int]map[types.DoorType]Bucket{}
	}
	if d.DoorTypeMap.ToGlass == nil {
		d.DoorTypeMap.ToGlass = map[string]string{}
	}
	if d.DoorTypeMap.ToSolid == nil {
		d.DoorTypeMap.ToSolid = map[string]string{}
	}
	if d.InteractionGroups == nil {
		d.InteractionGroups = []InteractionGroup{}
	}
	if d.UIWidgets == nil {
		d.UIWidgets = []Widget{}
	}
	if d.Lights == nil {
		d.Lights = []Light{}
	}
	if d.Textures == nil {
		d.Textures = []TextureMapping{}
	}
	if d.Camera.Fov <= 0 || d.Camera.Fov >= 180 {
		d.Camera.Fov = DefaultFov
	}
}

// DefaultSelection is the smallest configured door count with every slot solid.
func (d Document) DefaultSelection() types.Selection {
	counts := d.DoorCounts()
	sel := types.Selection{}
	if len(counts) > 0 {
		sel.DoorCount = counts[0]
	}
	return sel
}

// DoorCounts returns the door counts a viewer may select, sorted. It prefers
// doorCountOptions and falls back to the counts that have rules.
func (d Document) DoorCounts() []int {
	var counts []int
	if len(d.DoorCountOptions) > 0 {
		counts = append(counts, d.DoorCountOptions...)
	} else {
		for c := range d.Rules {
			counts = append(counts, c)
		}
	}
	sort.Ints(counts)
	return counts
}

// ReferencedParts returns every part name the document mentions, sorted and
// de-duplicated.
func (d Document) ReferencedParts() []string {
	seen := map[string]struct{}{}
	add := func(names ...string) {
		for _, n := range names {
			if n != "" {
				seen[n] = struct{}{}
			}
		}
	}

	add(d.HiddenInitially...)
	for _, byType := range d.Rules {
		for _, b := range byType {
			add(b.Show...)
			add(b.Hide...)
			for _, s := range b.Slots {
				add(s.Show...)
				add(s.Hide...)
			}
		}
	}
	for k, v := range d.DoorTypeMap.ToGlass {
		add(k, v)
	}
	for k, v := range d.DoorTypeMap.ToSolid {
		add(k, v)
	}
	for _, g := range d.InteractionGroups {
		for _, p := range g.Parts {
			add(p.Name)
		}
	}
	for _, t := range d.Textures {
		add(t.Parts...)
	}

	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
