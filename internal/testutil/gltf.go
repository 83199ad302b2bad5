package testutil

import (
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// PartFixture is one named box mesh node of a generated model
type PartFixture struct {
	Name        string
	Translation [3]float32
	Scale       [3]float32
	Min         [3]float32
	Max         [3]float32
}

// Box is a part with unit scale spanning min..max at translation
func Box(name string, translation, min, max [3]float32) PartFixture {
	return PartFixture{Name: name, Translation: translation, Scale: [3]float32{1, 1, 1}, Min: min, Max: max}
}

// NewModelDocument builds a glTF document with one box mesh node per part
func NewModelDocument(parts ...PartFixture) *gltf.Document {
	doc := gltf.NewDocument()
	for _, p := range parts {
		position := modeler.WritePosition(doc, [][3]float32{p.Min, p.Max})
		doc.Meshes = append(doc.Meshes, &gltf.Mesh{
			Name: p.Name,
			Primitives: []*gltf.Primitive{{
				Attributes: map[string]uint32{"POSITION": position},
			}},
		})

		scale := p.Scale
		if scale == ([3]float32{}) {
			scale = [3]float32{1, 1, 1}
		}
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)))
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:        p.Name,
			Mesh:        gltf.Index(uint32(len(doc.Meshes) - 1)),
			Translation: p.Translation,
			Rotation:    [4]float32{0, 0, 0, 1},
			Scale:       scale,
		})
	}
	return doc
}

// WriteModelGLB saves a generated model as a GLB file under dir
func WriteModelGLB(t *testing.T, dir, name string, parts ...PartFixture) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := gltf.SaveBinary(NewModelDocument(parts...), path); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}
