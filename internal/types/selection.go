package types

// DoorType is the finish of a door slot.
type DoorType string

const (
	DoorSolid DoorType = "solid"
	DoorGlass DoorType = "glass"
)

// Valid reports whether t is solid or glass.
func (t DoorType) Valid() bool {
	return t == DoorSolid || t == DoorGlass
}

// Selection is the transient per-session configurator state.
// Slot and drawer indexes are 1-based.
type Selection struct {
	DoorCount int              `json:"doorCount"`
	DoorTypes map[int]DoorType `json:"doorTypes,omitempty"`
	Drawers   map[int]bool     `json:"drawers,omitempty"`
	Doors     map[int]bool     `json:"doors,omitempty"`
}

// TypeOf returns the door type of a slot, solid when unset or unknown.
func (s Selection) TypeOf(slot int) DoorType {
	if t, ok := s.DoorTypes[slot]; ok && t.Valid() {
		return t
	}
	return DoorSolid
}

// Clone returns a deep copy.
func (s Selection) Clone() Selection {
	out := Selection{DoorCount: s.DoorCount}
	if s.DoorTypes != nil {
		out.DoorTypes = make(map[int]DoorType, len(s.DoorTypes))
		for k, v := range s.DoorTypes {
			out.DoorTypes[k] = v
		}
	}
	if s.Drawers != nil {
		out.Drawers = make(map[int]bool, len(s.Drawers))
		for k, v := range s.Drawers {
			out.Drawers[k] = v
		}
	}
	if s.Doors != nil {
		out.Doors = make(map[int]bool, len(s.Doors))
		for k, v := range s.Doors {
			out.Doors[k] = v
		}
	}
	return out
}

// WithSlotType returns a copy with one slot's door type replaced.
func (s Selection) WithSlotType(slot int, t DoorType) Selection {
	out := s.Clone()
	if out.DoorTypes == nil {
		out.DoorTypes = make(map[int]DoorType)
	}
	out.DoorTypes[slot] = t
	return out
}
