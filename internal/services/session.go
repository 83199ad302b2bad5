package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/localnerve/jam-build-configurator/internal/configdoc"
	"github.com/localnerve/jam-build-configurator/internal/scene"
	"github.com/localnerve/jam-build-configurator/internal/types"
)

// Session is one viewer's configurator: a document snapshot, the registry
// mirroring its scene, and the current selection.
type Session struct {
	ID        string
	Model     string
	Version   uint64
	CreatedAt time.Time

	mu        sync.Mutex
	doc       configdoc.Document
	registry  *PartRegistry
	scene     *scene.Scene
	selection types.Selection
	diff      types.Diff
	applied   types.ApplyResult
}

// SessionState is the API view of a session.
type SessionState struct {
	ID        string            `json:"id"`
	Model     string            `json:"model"`
	Version   uint64            `json:"version"`
	Selection types.Selection   `json:"selection"`
	Diff      types.Diff        `json:"diff"`
	Applied   types.ApplyResult `json:"applied"`
	Visible   []string          `json:"visible"`
	HasScene  bool              `json:"hasScene"`
	Swapped   string            `json:"swapped,omitempty"`
}

// SessionStore owns the live sessions.
type SessionStore struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	configs   ConfigStore
	assets    *scene.Prefetcher
	fitMargin float64
}

// NewSessionStore creates a store. assets may be nil, in which case every
// session runs on a standalone registry built from the document's part names.
func NewSessionStore(configs ConfigStore, assets *scene.Prefetcher, fitMargin float64) *SessionStore {
	return &SessionStore{
		sessions:  map[string]*Session{},
		configs:   configs,
		assets:    assets,
		fitMargin: fitMargin,
	}
}

// Create opens a session on the stored model and applies its initial state:
// textures, hiddenInitially, then the default selection.
func (s *SessionStore) Create(ctx context.Context, model string) (SessionState, error) {
	doc, version, err := s.configs.LoadConfig(ctx, model)
	if err != nil {
		return SessionState{}, err
	}

	sess := &Session{
		ID:        uuid.NewString(),
		Model:     model,
		Version:   version,
		CreatedAt: time.Now(),
		doc:       doc,
	}

	if s.assets != nil && len(doc.Assets) > 0 {
		sc, err := s.assets.SceneFor(ctx, doc)
		if err != nil {
			log.Printf("Session for %s falls back to part names: %v", model, err)
		} else {
			sess.scene = sc
		}
	}
	if sess.scene != nil {
		sess.registry = NewPartRegistry(sess.scene)
	} else {
		sess.registry = NewPartRegistryFromNames(doc.ReferencedParts())
	}

	sess.registry.ApplyTextures(doc.Textures)
	sess.registry.HideInitially(doc.HiddenInitially)
	sess.apply(doc.DefaultSelection())

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess.state(""), nil
}

func (s *SessionStore) get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, types.ErrNotFound)
	}
	return sess, nil
}

// State returns the current state of a session.
func (s *SessionStore) State(id string) (SessionState, error) {
	sess, err := s.get(id)
	if err != nil {
		return SessionState{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state(""), nil
}

// Select replaces the session selection and applies the resolved diff.
// A door count without rules is accepted and changes nothing. Door type keys
// must name a slot in 1..DoorCount.
func (s *SessionStore) Select(id string, sel types.Selection) (SessionState, error) {
	for slot, t := range sel.DoorTypes {
		if slot < 1 || slot > sel.DoorCount {
			return SessionState{}, fmt.Errorf("%w: slot %d outside 1..%d", types.ErrInvalidSelection, slot, sel.DoorCount)
		}
		if !t.Valid() {
			return SessionState{}, fmt.Errorf("%w: slot %d has door type %q", types.ErrInvalidSelection, slot, t)
		}
	}

	sess, err := s.get(id)
	if err != nil {
		return SessionState{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.apply(sel.Clone())
	return sess.state(""), nil
}

// Swap switches the finish of one door slot and re-resolves visibility.
func (s *SessionStore) Swap(id string, slot int, direction SwapDirection) (SessionState, error) {
	sess, err := s.get(id)
	if err != nil {
		return SessionState{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	doorName := SlotDoorName(sess.doc, sess.selection, slot)
	sel, swapped, err := SwapSlot(sess.doc, sess.selection, slot, doorName, direction)
	if err != nil {
		return SessionState{}, err
	}
	sess.apply(sel)
	return sess.state(swapped), nil
}

// Fit frames the visible parts of a session. fov <= 0 uses the document
// camera fov and margin <= 0 the store default.
func (s *SessionStore) Fit(id string, fov, margin float64) (types.CameraFitResult, error) {
	sess, err := s.get(id)
	if err != nil {
		return types.CameraFitResult{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if fov <= 0 {
		fov = sess.doc.Camera.Fov
	}
	if margin <= 0 {
		margin = s.fitMargin
	}
	return ComputeFit(sess.registry.VisibleBounds(), fov, margin), nil
}

// Export writes one asset group of the session scene as GLB. An empty group
// selects the first group.
func (s *SessionStore) Export(id, group string, w io.Writer) error {
	sess, err := s.get(id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.scene == nil {
		return fmt.Errorf("session %q has no scene: %w", id, types.ErrNotFound)
	}
	if group == "" {
		group = sess.scene.Groups()[0]
	}
	return sess.scene.WriteBinary(w, group)
}

// Delete closes a session.
func (s *SessionStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("session %q: %w", id, types.ErrNotFound)
	}
	delete(s.sessions, id)
	return nil
}

// Len is the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Expire closes sessions created before cutoff and returns how many closed.
func (s *SessionStore) Expire(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		if sess.CreatedAt.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

func (sess *Session) apply(sel types.Selection) {
	sess.selection = sel
	sess.diff = Resolve(sess.doc, sel)
	sess.applied = sess.registry.Apply(sess.diff)
}

func (sess *Session) state(swapped string) SessionState {
	visible := []string{}
	for _, p := range sess.registry.Parts() {
		if p.Visible {
			visible = append(visible, p.Name)
		}
	}
	sort.Strings(visible)

	return SessionState{
		ID:        sess.ID,
		Model:     sess.Model,
		Version:   sess.Version,
		Selection: sess.selection.Clone(),
		Diff:      sess.diff,
		Applied:   sess.applied,
		Visible:   visible,
		HasScene:  sess.scene != nil,
		Swapped:   swapped,
	}
}
