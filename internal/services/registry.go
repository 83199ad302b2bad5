package services

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/localnerve/jam-build-configurator/internal/configdoc"
	"github.com/localnerve/jam-build-configurator/internal/types"
)

// SceneGraph is the scene a registry mirrors.
type SceneGraph interface {
	EnumerateParts() []types.PartState
	ApplyMutation(name string, m types.Mutation) error
}

// PartRegistry indexes the named parts of one viewer's scene. It is owned by
// a single session and is not safe for concurrent use.
type PartRegistry struct {
	parts map[string]*types.Part
	scene SceneGraph
}

// NewPartRegistry mirrors every part the scene enumerates. A nil scene gives
// an empty standalone registry.
func NewPartRegistry(scene SceneGraph) *PartRegistry {
	r := &PartRegistry{parts: map[string]*types.Part{}, scene: scene}
	if scene == nil {
		return r
	}
	for _, st := range scene.EnumerateParts() {
		if st.Name == "" {
			continue
		}
		r.parts[st.Name] = &types.Part{
			Name:      st.Name,
			Visible:   st.Visible,
			Transform: st.Transform,
			Rest:      st.Transform,
			Bounds:    st.Bounds,
		}
	}
	return r
}

// NewPartRegistryFromNames builds a standalone registry of visible parts with
// identity transforms and no bounds.
func NewPartRegistryFromNames(names []string) *PartRegistry {
	r := &PartRegistry{parts: map[string]*types.Part{}}
	for _, n := range names {
		r.Register(types.PartState{Name: n, Visible: true, Transform: types.IdentityTransform()})
	}
	return r
}

// Register adds or replaces a part.
func (r *PartRegistry) Register(st types.PartState) {
	r.parts[st.Name] = &types.Part{
		Name:      st.Name,
		Visible:   st.Visible,
		Transform: st.Transform,
		Rest:      st.Transform,
		Bounds:    st.Bounds,
	}
}

// Get returns a copy of the named part.
func (r *PartRegistry) Get(name string) (types.Part, bool) {
	p, ok := r.parts[name]
	if !ok {
		return types.Part{}, false
	}
	out := *p
	if p.Material != nil {
		m := *p.Material
		out.Material = &m
	}
	return out, true
}

// Len is the number of registered parts.
func (r *PartRegistry) Len() int {
	return len(r.parts)
}

// Names lists the registered part names, sorted.
func (r *PartRegistry) Names() []string {
	out := make([]string, 0, len(r.parts))
	for n := range r.parts {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Parts returns copies of all parts, sorted by name.
func (r *PartRegistry) Parts() []types.Part {
	out := make([]types.Part, 0, len(r.parts))
	for _, n := range r.Names() {
		p, _ := r.Get(n)
		out = append(out, p)
	}
	return out
}

// ApplyDiff makes every known name in show visible, then every known name in
// hide invisible, so a name in both ends hidden. Unknown names are skipped and
// counted, never reported as errors.
func (r *PartRegistry) ApplyDiff(show, hide []string) types.ApplyResult {
	var res types.ApplyResult
	for _, n := range show {
		res = res.Add(r.setVisible(n, true))
	}
	for _, n := range hide {
		res = res.Add(r.setVisible(n, false))
	}
	return res
}

// Apply applies a full resolver diff including interaction motions.
func (r *PartRegistry) Apply(d types.Diff) types.ApplyResult {
	return r.ApplyDiff(d.Show, d.Hide).Add(r.ApplyMotions(d.Motions))
}

// HideInitially hides the document's initially hidden parts.
func (r *PartRegistry) HideInitially(names []string) types.ApplyResult {
	return r.ApplyDiff(nil, names)
}

func (r *PartRegistry) setVisible(name string, visible bool) types.ApplyResult {
	p, ok := r.parts[name]
	if !ok {
		return types.ApplyResult{Skipped: 1}
	}
	if r.scene != nil {
		if err := r.scene.ApplyMutation(name, types.Mutation{Visible: &visible}); err != nil {
			log.Printf("registry: visibility of %q not applied to scene: %v", name, err)
			return types.ApplyResult{Skipped: 1}
		}
	}
	p.Visible = visible
	return types.ApplyResult{Applied: 1}
}

// SetTransform replaces a part's current transform. The rest transform that
// motions are relative to is unchanged.
func (r *PartRegistry) SetTransform(name string, t types.Transform) error {
	p, ok := r.parts[name]
	if !ok {
		return fmt.Errorf("set transform %q: %w", name, types.ErrNotFound)
	}
	if r.scene != nil {
		if err := r.scene.ApplyMutation(name, types.Mutation{Transform: &t}); err != nil {
			return fmt.Errorf("set transform %q: %w", name, err)
		}
	}
	p.Transform = t
	return nil
}

// ApplyMotions positions interaction parts relative to their rest transform.
func (r *PartRegistry) ApplyMotions(motions map[string]types.Motion) types.ApplyResult {
	var res types.ApplyResult
	names := make([]string, 0, len(motions))
	for n := range motions {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		p, ok := r.parts[n]
		if !ok {
			res.Skipped++
			continue
		}
		t, err := moveFromRest(p.Rest, motions[n])
		if err != nil {
			log.Printf("registry: motion for %q ignored: %v", n, err)
			res.Skipped++
			continue
		}
		if err := r.SetTransform(n, t); err != nil {
			log.Printf("registry: %v", err)
			res.Skipped++
			continue
		}
		res.Applied++
	}
	return res
}

// ApplyTextures sets the material override of every part a mapping names.
func (r *PartRegistry) ApplyTextures(mappings []configdoc.TextureMapping) types.ApplyResult {
	var res types.ApplyResult
	for _, tm := range mappings {
		for _, n := range tm.Parts {
			p, ok := r.parts[n]
			if !ok {
				res.Skipped++
				continue
			}
			m := types.Material{
				Texture:  tm.Path,
				Repeat:   tm.Repeat,
				Offset:   tm.Offset,
				Rotation: tm.Rotation,
			}
			if p.Material != nil {
				m.Tint = p.Material.Tint
			}
			if r.scene != nil {
				if err := r.scene.ApplyMutation(n, types.Mutation{Material: &m}); err != nil {
					log.Printf("registry: texture for %q not applied to scene: %v", n, err)
					res.Skipped++
					continue
				}
			}
			p.Material = &m
			res.Applied++
		}
	}
	return res
}

// VisibleBounds is the union of the bounds of all visible parts.
func (r *PartRegistry) VisibleBounds() types.BoundingBox {
	var box types.BoundingBox
	for _, p := range r.parts {
		if p.Visible {
			box = box.Union(p.Bounds)
		}
	}
	return box
}

func moveFromRest(rest types.Transform, m types.Motion) (types.Transform, error) {
	axis, err := axisVector(m.Axis)
	if err != nil {
		return rest, err
	}

	t := rest
	switch m.Kind {
	case types.MotionRotate:
		t.Rotation = rest.Rotation.Add(axis.Mul(m.Amount))
	case types.MotionTranslate:
		t.Position = rest.Position.Add(axis.Mul(m.Amount))
	default:
		return rest, fmt.Errorf("unknown motion kind %q", m.Kind)
	}
	return t, nil
}

func axisVector(axis string) (mgl64.Vec3, error) {
	sign := 1.0
	a := strings.ToLower(strings.TrimSpace(axis))
	if strings.HasPrefix(a, "-") {
		sign = -1
		a = a[1:]
	}
	switch a {
	case "x":
		return mgl64.Vec3{sign, 0, 0}, nil
	case "y":
		return mgl64.Vec3{0, sign, 0}, nil
	case "z":
		return mgl64.Vec3{0, 0, sign}, nil
	}
	return mgl64.Vec3{}, fmt.Errorf("unknown axis %q", axis)
}
