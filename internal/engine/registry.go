package engine

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/railops/phaseline/internal/core/phase"
	"github.com/railops/phaseline/internal/core/task"
)

// Registry holds phase definitions (immutable built-ins plus mutable
// custom ones), the blueprint catalog, and per-phase automation
// overrides. Readers observe an immutable snapshot; writers replace the
// snapshot atomically.
type Registry struct {
	log zerolog.Logger

	mu   sync.RWMutex
	snap *registrySnapshot
}

type registrySnapshot struct {
	defOrder  []string
	defs      map[string]phase.Definition
	bpOrder   []string
	bps       map[string]task.Blueprint
	overrides map[string]bool
}

// NewRegistry creates a registry seeded with the built-in phases and
// blueprints.
func NewRegistry(log zerolog.Logger) *Registry {
	snap := &registrySnapshot{
		defs:      map[string]phase.Definition{},
		bps:       map[string]task.Blueprint{},
		overrides: map[string]bool{},
	}
	for _, d := range phase.BuiltIns() {
		snap.defOrder = append(snap.defOrder, d.ID)
		snap.defs[d.ID] = d
	}
	for _, b := range task.BuiltinBlueprints() {
		snap.bpOrder = append(snap.bpOrder, b.ID)
		snap.bps[b.ID] = b
	}

	return &Registry{
		log:  log.With().Str("component", "registry").Logger(),
		snap: snap,
	}
}

func (r *Registry) snapshot() *registrySnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}

// update clones the current snapshot, applies fn, and swaps the result in.
func (r *Registry) update(fn func(*registrySnapshot) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.snap.clone()
	if err := fn(next); err != nil {
		return err
	}
	r.snap = next
	return nil
}

func (s *registrySnapshot) clone() *registrySnapshot {
	next := &registrySnapshot{
		defOrder:  append([]string(nil), s.defOrder...),
		defs:      make(map[string]phase.Definition, len(s.defs)),
		bpOrder:   append([]string(nil), s.bpOrder...),
		bps:       make(map[string]task.Blueprint, len(s.bps)),
		overrides: make(map[string]bool, len(s.overrides)),
	}
	for id, d := range s.defs {
		next.defs[id] = d.Clone()
	}
	for id, b := range s.bps {
		next.bps[id] = b.Clone()
	}
	for id, v := range s.overrides {
		next.overrides[id] = v
	}
	return next
}

// Get resolves a phase definition by id.
// Returns phase.ErrNotFound if no definition exists.
func (r *Registry) Get(phaseID string) (phase.Definition, error) {
	snap := r.snapshot()
	d, ok := snap.defs[phaseID]
	if !ok {
		return phase.Definition{}, fmt.Errorf("get phase %s: %w", phaseID, phase.ErrNotFound)
	}
	return d.Clone(), nil
}

// List returns all definitions, built-ins first, custom ones in
// creation order.
func (r *Registry) List() []phase.Definition {
	snap := r.snapshot()
	out := make([]phase.Definition, 0, len(snap.defOrder))
	for _, id := range snap.defOrder {
		out = append(out, snap.defs[id].Clone())
	}
	return out
}

// AutomationEnabled reports whether automatic task creation is enabled
// for the phase. A per-phase override wins; otherwise the definition's
// AutoCreate flag decides. Unknown phases are disabled.
func (r *Registry) AutomationEnabled(phaseID string) bool {
	snap := r.snapshot()
	if v, ok := snap.overrides[phaseID]; ok {
		return v
	}
	d, ok := snap.defs[phaseID]
	return ok && d.AutoCreate
}

// SetAutomationEnabled overrides automatic instantiation for one phase.
// Returns phase.ErrNotFound for unknown phases. This does not mutate
// the definition, so it is permitted for built-ins.
func (r *Registry) SetAutomationEnabled(phaseID string, enabled bool) error {
	return r.update(func(s *registrySnapshot) error {
		if _, ok := s.defs[phaseID]; !ok {
			return fmt.Errorf("set automation for phase %s: %w", phaseID, phase.ErrNotFound)
		}
		s.overrides[phaseID] = enabled
		return nil
	})
}

// Create registers a custom definition and returns its id.
// Returns a validation error for malformed definitions and
// phase.ErrExists for duplicate ids.
func (r *Registry) Create(def phase.Definition) (string, error) {
	if err := def.Validate(); err != nil {
		return "", err
	}
	def.BuiltIn = false

	err := r.update(func(s *registrySnapshot) error {
		if _, ok := s.defs[def.ID]; ok {
			return fmt.Errorf("create phase %s: %w", def.ID, phase.ErrExists)
		}
		if _, ok := s.bps[def.BlueprintID]; !ok {
			return fmt.Errorf("create phase %s: blueprint %s: %w", def.ID, def.BlueprintID, task.ErrBlueprintNotFound)
		}
		s.defOrder = append(s.defOrder, def.ID)
		s.defs[def.ID] = def
		return nil
	})
	if err != nil {
		return "", err
	}

	r.log.Info().Str("phase", def.ID).Msg("custom phase definition created")
	return def.ID, nil
}

// UpdateWindow replaces a custom definition's window and timeline
// reference. Returns phase.ErrBuiltIn for built-ins.
func (r *Registry) UpdateWindow(phaseID string, window phase.WindowConfig, ref phase.TimelineReference) error {
	if err := window.Validate("window"); err != nil {
		return err
	}

	return r.update(func(s *registrySnapshot) error {
		d, ok := s.defs[phaseID]
		if !ok {
			return fmt.Errorf("update window of %s: %w", phaseID, phase.ErrNotFound)
		}
		if d.BuiltIn {
			return fmt.Errorf("update window of %s: %w", phaseID, phase.ErrBuiltIn)
		}
		d.Window = window
		d.TimelineReference = ref
		s.defs[phaseID] = d
		return nil
	})
}

// UpdateConditions replaces a custom definition's conditions.
// Returns phase.ErrBuiltIn for built-ins.
func (r *Registry) UpdateConditions(phaseID string, conditions []phase.Condition) error {
	if err := phase.ValidateConditions("conditions", conditions); err != nil {
		return err
	}

	return r.update(func(s *registrySnapshot) error {
		d, ok := s.defs[phaseID]
		if !ok {
			return fmt.Errorf("update conditions of %s: %w", phaseID, phase.ErrNotFound)
		}
		if d.BuiltIn {
			return fmt.Errorf("update conditions of %s: %w", phaseID, phase.ErrBuiltIn)
		}
		d.Conditions = append([]phase.Condition(nil), conditions...)
		s.defs[phaseID] = d
		return nil
	})
}

// Delete removes a custom definition.
// Returns phase.ErrBuiltIn for built-ins; the registry is unchanged.
func (r *Registry) Delete(phaseID string) error {
	return r.update(func(s *registrySnapshot) error {
		d, ok := s.defs[phaseID]
		if !ok {
			return fmt.Errorf("delete phase %s: %w", phaseID, phase.ErrNotFound)
		}
		if d.BuiltIn {
			return fmt.Errorf("delete phase %s: %w", phaseID, phase.ErrBuiltIn)
		}
		delete(s.defs, phaseID)
		delete(s.overrides, phaseID)
		for i, id := range s.defOrder {
			if id == phaseID {
				s.defOrder = append(s.defOrder[:i], s.defOrder[i+1:]...)
				break
			}
		}
		return nil
	})
}

// Blueprint resolves a task blueprint by id.
// Returns task.ErrBlueprintNotFound if no blueprint exists.
func (r *Registry) Blueprint(id string) (task.Blueprint, error) {
	snap := r.snapshot()
	b, ok := snap.bps[id]
	if !ok {
		return task.Blueprint{}, fmt.Errorf("get blueprint %s: %w", id, task.ErrBlueprintNotFound)
	}
	return b.Clone(), nil
}

// Blueprints returns the catalog, built-ins first.
func (r *Registry) Blueprints() []task.Blueprint {
	snap := r.snapshot()
	out := make([]task.Blueprint, 0, len(snap.bpOrder))
	for _, id := range snap.bpOrder {
		out = append(out, snap.bps[id].Clone())
	}
	return out
}

// RegisterBlueprint upserts a blueprint into the catalog. Used by the
// config layer to extend the catalog with customer-specific blueprints.
func (r *Registry) RegisterBlueprint(b task.Blueprint) error {
	if b.ID == "" {
		return fmt.Errorf("register blueprint: id must not be empty")
	}

	return r.update(func(s *registrySnapshot) error {
		if _, ok := s.bps[b.ID]; !ok {
			s.bpOrder = append(s.bpOrder, b.ID)
		}
		s.bps[b.ID] = b.Clone()
		return nil
	})
}

// ApplyCustom replaces all custom definitions and automation overrides
// in one atomic swap. Built-ins are preserved. Used on config (re)load.
func (r *Registry) ApplyCustom(defs []phase.Definition, overrides map[string]bool) error {
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("custom phase %s: %w", d.ID, err)
		}
	}

	return r.update(func(s *registrySnapshot) error {
		// Drop existing customs.
		keep := s.defOrder[:0]
		for _, id := range s.defOrder {
			if s.defs[id].BuiltIn {
				keep = append(keep, id)
			} else {
				delete(s.defs, id)
			}
		}
		s.defOrder = keep

		for _, d := range defs {
			if existing, ok := s.defs[d.ID]; ok && existing.BuiltIn {
				return fmt.Errorf("custom phase %s: %w", d.ID, phase.ErrBuiltIn)
			}
			d.BuiltIn = false
			s.defOrder = append(s.defOrder, d.ID)
			s.defs[d.ID] = d
		}

		s.overrides = make(map[string]bool, len(overrides))
		for id, v := range overrides {
			s.overrides[id] = v
		}
		return nil
	})
}

// TemplateTag returns the dedup tag for a blueprint.
func (r *Registry) TemplateTag(blueprintID string) string {
	return phase.TemplateTag(blueprintID)
}

// PhaseTag returns the tag identifying tasks created for a phase.
func (r *Registry) PhaseTag(phaseID string) string {
	return phase.PhaseTag(phaseID)
}

// PhaseBucketTag returns the dedup bucket tag for a phase.
func (r *Registry) PhaseBucketTag(phaseID, bucketKey string) string {
	return phase.PhaseBucketTag(phaseID, bucketKey)
}
