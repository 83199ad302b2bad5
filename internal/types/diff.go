package types

// MotionKind selects whether a motion rotates or translates a part.
type MotionKind string

const (
	MotionRotate    MotionKind = "rotate"
	MotionTranslate MotionKind = "translate"
)

// Motion moves a part relative to its rest transform along one axis.
// Amount is degrees for rotations and scene units for translations.
type Motion struct {
	Kind   MotionKind `json:"kind"`
	Axis   string     `json:"axis"`
	Amount float64    `json:"amount"`
}

// Diff is the resolver output applied to a part registry.
type Diff struct {
	Show    []string          `json:"show"`
	Hide    []string          `json:"hide"`
	Motions map[string]Motion `json:"motions,omitempty"`
}

// Empty reports whether the diff changes nothing.
func (d Diff) Empty() bool {
	return len(d.Show) == 0 && len(d.Hide) == 0 && len(d.Motions) == 0
}

// ApplyResult counts the names a registry mutation touched or skipped.
type ApplyResult struct {
	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
}

// Add accumulates another result.
func (r ApplyResult) Add(o ApplyResult) ApplyResult {
	return ApplyResult{Applied: r.Applied + o.Applied, Skipped: r.Skipped + o.Skipped}
}
