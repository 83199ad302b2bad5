// Package scene adapts glTF documents to the part registry: it enumerates
// named nodes with their world-space bounds, applies visibility, transform
// and material mutations, and writes the configured result back out as GLB.
package scene

import (
	"io"
	"log"
	"os"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/localnerve/jam-build-configurator/internal/types"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

const (
	extrasVisible  = "visible"
	extrasMaterial = "material"
)

type nodeRef struct {
	layer int
	index int
}

type layer struct {
	group  string
	doc    *gltf.Document
	parent map[int]int
}

// Scene is a mutable view over one or more glTF documents (one per asset
// group). Node names are unique across the scene; the first occurrence wins.
type Scene struct {
	layers []*layer
	byName map[string]nodeRef
}

// Load opens a single glTF/GLB file as a one-layer scene.
func Load(path string) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to open gltf %q", path)
	}
	return FromDocument(doc), nil
}

// FromDocument wraps one parsed document as a single-group scene.
func FromDocument(doc *gltf.Document) *Scene {
	return New(map[string]*gltf.Document{"": doc})
}

// New builds a scene over asset-group documents. Documents are cloned at the
// node level, so cached documents can back many scenes.
func New(groups map[string]*gltf.Document) *Scene {
	names := make([]string, 0, len(groups))
	for g := range groups {
		names = append(names, g)
	}
	sort.Strings(names)

	s := &Scene{byName: map[string]nodeRef{}}
	for _, g := range names {
		doc := cloneDocument(groups[g])
		l := &layer{group: g, doc: doc, parent: map[int]int{}}
		for i, n := range doc.Nodes {
			for _, c := range n.Children {
				l.parent[int(c)] = i
			}
		}
		li := len(s.layers)
		s.layers = append(s.layers, l)

		for i, n := range doc.Nodes {
			if n.Name == "" {
				continue
			}
			if prev, dup := s.byName[n.Name]; dup {
				log.Printf("scene: duplicate node %q in group %q, keeping group %q", n.Name, g, s.layers[prev.layer].group)
				continue
			}
			s.byName[n.Name] = nodeRef{layer: li, index: i}
		}
	}
	return s
}

// Groups lists the asset groups in the scene.
func (s *Scene) Groups() []string {
	out := make([]string, 0, len(s.layers))
	for _, l := range s.layers {
		out = append(out, l.group)
	}
	return out
}

// EnumerateParts reports every named node, sorted by name.
func (s *Scene) EnumerateParts() []types.PartState {
	names := make([]string, 0, len(s.byName))
	for n := range s.byName {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make([]types.PartState, 0, len(names))
	for _, name := range names {
		ref := s.byName[name]
		l := s.layers[ref.layer]
		node := l.doc.Nodes[ref.index]
		out = append(out, types.PartState{
			Name:      name,
			Visible:   nodeVisible(node),
			Transform: localTransform(node),
			Bounds:    l.nodeBounds(ref.index),
		})
	}
	return out
}

// ApplyMutation writes a registry mutation onto the named node.
func (s *Scene) ApplyMutation(name string, m types.Mutation) error {
	ref, ok := s.byName[name]
	if !ok {
		return errors.Wrapf(types.ErrNotFound, "node %q", name)
	}
	node := s.layers[ref.layer].doc.Nodes[ref.index]

	if m.Visible != nil {
		setExtra(node, extrasVisible, *m.Visible)
	}
	if m.Transform != nil {
		setLocalTransform(node, *m.Transform)
	}
	if m.Material != nil {
		setExtra(node, extrasMaterial, map[string]interface{}{
			"tint":     m.Material.Tint,
			"texture":  m.Material.Texture,
			"repeat":   m.Material.Repeat,
			"offset":   m.Material.Offset,
			"rotation": m.Material.Rotation,
		})
	}
	return nil
}

// WriteBinary encodes one asset group as GLB.
func (s *Scene) WriteBinary(w io.Writer, group string) error {
	for _, l := range s.layers {
		if l.group != group {
			continue
		}
		encoder := gltf.NewEncoder(w)
		encoder.AsBinary = true
		if err := encoder.Encode(l.doc); err != nil {
			return errors.Wrapf(err, "Failed to encode group %q", group)
		}
		return nil
	}
	return errors.Wrapf(types.ErrNotFound, "group %q", group)
}

// Save writes one asset group to a GLB file.
func (s *Scene) Save(path, group string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "Failed to create %q", path)
	}
	defer f.Close()
	return s.WriteBinary(f, group)
}

func (l *layer) nodeBounds(index int) types.BoundingBox {
	var box types.BoundingBox
	node := l.doc.Nodes[index]
	if node.Mesh == nil || int(*node.Mesh) >= len(l.doc.Meshes) {
		return box
	}

	world := l.worldMatrix(index)
	for _, prim := range l.doc.Meshes[*node.Mesh].Primitives {
		ai, ok := prim.Attributes["POSITION"]
		if !ok || int(ai) >= len(l.doc.Accessors) {
			continue
		}
		acc := l.doc.Accessors[ai]
		if len(acc.Min) < 3 || len(acc.Max) < 3 {
			continue
		}
		for _, corner := range boxCorners(acc.Min, acc.Max) {
			box = box.Extend(world.Mul4x1(corner.Vec4(1)).Vec3())
		}
	}
	return box
}

func (l *layer) worldMatrix(index int) mgl64.Mat4 {
	m := localMatrix(l.doc.Nodes[index])
	seen := map[int]bool{index: true}
	for p, ok := l.parent[index]; ok && !seen[p]; p, ok = l.parent[p] {
		seen[p] = true
		m = localMatrix(l.doc.Nodes[p]).Mul4(m)
	}
	return m
}

func boxCorners(min, max []float32) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, 0, 8)
	for i := 0; i < 8; i++ {
		c := mgl64.Vec3{float64(min[0]), float64(min[1]), float64(min[2])}
		if i&1 != 0 {
			c[0] = float64(max[0])
		}
		if i&2 != 0 {
			c[1] = float64(max[1])
		}
		if i&4 != 0 {
			c[2] = float64(max[2])
		}
		out = append(out, c)
	}
	return out
}

func nodeVisible(n *gltf.Node) bool {
	if extras, ok := n.Extras.(map[string]interface{}); ok {
		if v, ok := extras[extrasVisible].(bool); ok {
			return v
		}
	}
	return true
}

func setExtra(n *gltf.Node, key string, value interface{}) {
	extras := map[string]interface{}{}
	if old, ok := n.Extras.(map[string]interface{}); ok {
		for k, v := range old {
			extras[k] = v
		}
	}
	extras[key] = value
	n.Extras = extras
}

func cloneDocument(doc *gltf.Document) *gltf.Document {
	out := *doc
	out.Nodes = make([]*gltf.Node, len(doc.Nodes))
	for i, n := range doc.Nodes {
		c := *n
		c.Children = append([]uint32(nil), n.Children...)
		out.Nodes[i] = &c
	}
	return &out
}
