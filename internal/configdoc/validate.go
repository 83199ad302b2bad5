package configdoc

import (
	"fmt"
	"sort"
	"strings"

	"github.com/localnerve/jam-build-configurator/internal/types"
)

// MissingReference is a part name a document uses that the loaded assets lack.
type MissingReference struct {
	Part   string   `json:"part"`
	Fields []string `json:"fields"`
}

// Problem is a structural issue that makes part of a document unusable.
type Problem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Report is the outcome of Validate.
type Report struct {
	Missing  []MissingReference `json:"missing"`
	Problems []Problem          `json:"problems"`
}

// OK reports whether the document passed validation.
func (r Report) OK() bool {
	return len(r.Missing) == 0 && len(r.Problems) == 0
}

func (r Report) String() string {
	var parts []string
	for _, m := range r.Missing {
		parts = append(parts, fmt.Sprintf("missing part %q (%s)", m.Part, strings.Join(m.Fields, ", ")))
	}
	for _, p := range r.Problems {
		parts = append(parts, fmt.Sprintf("%s: %s", p.Field, p.Message))
	}
	return strings.Join(parts, "; ")
}

// Validate checks a document against the part names available in its loaded
// assets. A nil knownParts skips the reference check and only reports
// structural problems. Validation happens at load; the resolver and registry
// tolerate whatever slips through.
func Validate(d Document, knownParts []string) Report {
	report := Report{Missing: []MissingReference{}, Problems: []Problem{}}

	for count, byType := range d.Rules {
		if count <= 0 {
			report.Problems = append(report.Problems, Problem{
				Field:   fmt.Sprintf("rules.%d", count),
				Message: "door count must be positive",
			})
		}
		for t, b := range byType {
			if !t.Valid() {
				report.Problems = append(report.Problems, Problem{
					Field:   fmt.Sprintf("rules.%d.%s", count, t),
					Message: "door type must be solid or glass",
				})
			}
			for slot := range b.Slots {
				if slot < 1 || slot > count {
					report.Problems = append(report.Problems, Problem{
						Field:   fmt.Sprintf("rules.%d.%s.slots.%d", count, t, slot),
						Message: "slot outside 1..door count",
					})
				}
			}
		}
	}

	for solid, glass := range d.DoorTypeMap.ToGlass {
		if back, ok := d.DoorTypeMap.ToSolid[glass]; !ok || back != solid {
			report.Problems = append(report.Problems, Problem{
				Field:   "doorTypeMap.toSolid." + glass,
				Message: fmt.Sprintf("does not map back to %q", solid),
			})
		}
	}

	for i, g := range d.InteractionGroups {
		if g.Type != GroupDoor && g.Type != GroupDrawer {
			report.Problems = append(report.Problems, Problem{
				Field:   fmt.Sprintf("interactionGroups.%d.type", i),
				Message: fmt.Sprintf("unknown group type %q", g.Type),
			})
		}
		for j, p := range g.Parts {
			if p.RotationAxis == "" && p.PositionAxis == "" {
				report.Problems = append(report.Problems, Problem{
					Field:   fmt.Sprintf("interactionGroups.%d.parts.%d", i, j),
					Message: "needs rotationAxis or positionAxis",
				})
			}
			for _, axis := range []string{p.RotationAxis, p.PositionAxis} {
				if axis != "" && !validAxis(axis) {
					report.Problems = append(report.Problems, Problem{
						Field:   fmt.Sprintf("interactionGroups.%d.parts.%d", i, j),
						Message: fmt.Sprintf("unknown axis %q", axis),
					})
				}
			}
		}
	}

	sort.Slice(report.Problems, func(i, j int) bool {
		return report.Problems[i].Field < report.Problems[j].Field
	})

	if knownParts == nil {
		return report
	}

	known := make(map[string]struct{}, len(knownParts))
	for _, n := range knownParts {
		known[n] = struct{}{}
	}

	fields := map[string]map[string]struct{}{}
	note := func(field string, names ...string) {
		for _, n := range names {
			if _, ok := known[n]; ok || n == "" {
				continue
			}
			if fields[n] == nil {
				fields[n] = map[string]struct{}{}
			}
			fields[n][field] = struct{}{}
		}
	}

	note("hiddenInitially", d.HiddenInitially...)
	for count, byType := range d.Rules {
		for t, b := range byType {
			field := fmt.Sprintf("rules.%d.%s", count, t)
			note(field, b.Show...)
			note(field, b.Hide...)
			for slot, s := range b.Slots {
				sf := fmt.Sprintf("%s.slots.%d", field, slot)
				note(sf, s.Show...)
				note(sf, s.Hide...)
			}
		}
	}
	for k, v := range d.DoorTypeMap.ToGlass {
		note("doorTypeMap.toGlass", k, v)
	}
	for k, v := range d.DoorTypeMap.ToSolid {
		note("doorTypeMap.toSolid", k, v)
	}
	for i, g := range d.InteractionGroups {
		for _, p := range g.Parts {
			note(fmt.Sprintf("interactionGroups.%d", i), p.Name)
		}
	}
	for i, t := range d.Textures {
		note(fmt.Sprintf("textures.%d", i), t.Parts...)
	}

	for part, fs := range fields {
		m := MissingReference{Part: part}
		for f := range fs {
			m.Fields = append(m.Fields, f)
		}
		sort.Strings(m.Fields)
		report.Missing = append(report.Missing, m)
	}
	sort.Slice(report.Missing, func(i, j int) bool {
		return report.Missing[i].Part < report.Missing[j].Part
	})

	return report
}

func validAxis(axis string) bool {
	switch strings.ToLower(axis) {
	case "x", "y", "z", "-x", "-y", "-z":
		return true
	}
	return false
}

// Slots reports the number of door slots a count covers. It exists so callers
// iterate slots the same way the resolver does.
func Slots(count int) []int {
	if count <= 0 {
		return nil
	}
	out := make([]int, count)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// BucketFor looks up the rule bucket for a door count and type.
func (d Document) BucketFor(count int, t types.DoorType) (Bucket, bool) {
	byType, ok := d.Rules[count]
	if !ok {
		return Bucket{}, false
	}
	b, ok := byType[t]
	return b, ok
}
