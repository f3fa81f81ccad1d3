package attributes

import (
	"io"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/KirkDiggler/ability-system/internal/observer"
)

// Set holds the attribute instances of one entity together with the stack of
// active modifier sources applied on top of their base values.
//
// Changed attributes are collected as dirty and announced by
// FlushDirtyAttributes, which the owner calls once per tick.
type Set struct {
	defs         []*Attribute
	values       map[*Attribute]*Instance
	callbacks    map[*Attribute]*observer.List[ChangeEvent]
	dependencies map[*Attribute][]*Attribute
	applied      []ModifierSource
	dirty        []*Attribute
	dirtySet     map[*Attribute]struct{}
	owner        Owner
	initialized  bool
	log          logrus.FieldLogger
}

// NewSet creates an uninitialized set for the given definitions
func NewSet(defs ...*Attribute) *Set {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	return &Set{
		defs:         defs,
		values:       make(map[*Attribute]*Instance),
		callbacks:    make(map[*Attribute]*observer.List[ChangeEvent]),
		dependencies: make(map[*Attribute][]*Attribute),
		dirtySet:     make(map[*Attribute]struct{}),
		log:          discard,
	}
}

// SetLogger replaces the set's logger
func (s *Set) SetLogger(log logrus.FieldLogger) {
	if log != nil {
		s.log = log
	}
}

// Initialize allocates a zeroed instance per declared attribute and wires
// max-attribute dependencies
func (s *Set) Initialize(owner Owner) {
	if s.initialized {
		s.log.Warn("[ATTRIBUTES] set already initialized")
		return
	}
	s.owner = owner

	for _, attr := range s.defs {
		if attr == nil {
			continue
		}
		if _, exists := s.values[attr]; exists {
			continue
		}
		s.values[attr] = &Instance{}

		if attr.Max != nil {
			s.OnAttributeChanged(attr.Max, s.onDependencyUpdated)
			s.dependencies[attr.Max] = append(s.dependencies[attr.Max], attr)
		}
	}

	s.initialized = true
}

// IsInitialized reports whether Initialize ran
func (s *Set) IsInitialized() bool {
	return s.initialized
}

// Attributes returns the declared attributes in declaration order
func (s *Set) Attributes() []*Attribute {
	defs := make([]*Attribute, 0, len(s.defs))
	for _, attr := range s.defs {
		if _, ok := s.values[attr]; ok {
			defs = append(defs, attr)
		}
	}
	return defs
}

// Has reports whether attr is registered in this set
func (s *Set) Has(attr *Attribute) bool {
	_, ok := s.values[attr]
	return ok
}

// CurrentValue returns the current value of attr, zero when unregistered
func (s *Set) CurrentValue(attr *Attribute) float64 {
	if inst, ok := s.values[attr]; ok {
		return inst.Current
	}
	return 0
}

// BaseValue returns the base value of attr, zero when unregistered
func (s *Set) BaseValue(attr *Attribute) float64 {
	if inst, ok := s.values[attr]; ok {
		return inst.Base
	}
	return 0
}

// Instance returns a copy of the value pair for attr
func (s *Set) Instance(attr *Attribute) (Instance, bool) {
	inst, ok := s.values[attr]
	if !ok {
		return Instance{}, false
	}
	return *inst, true
}

// Dependents returns the attributes capped by maxAttr
func (s *Set) Dependents(maxAttr *Attribute) []*Attribute {
	return s.dependencies[maxAttr]
}

// SetBaseValue overwrites the base value of attr, clamps it, and recomputes
func (s *Set) SetBaseValue(attr *Attribute, value float64) bool {
	inst, ok := s.values[attr]
	if !ok {
		return false
	}

	inst.Base = s.clamp(attr, value)
	s.markDirty(attr)
	s.Recompute()
	return true
}

// OnAttributeChanged subscribes fn to flushed changes of attr
func (s *Set) OnAttributeChanged(attr *Attribute, fn func(ChangeEvent)) observer.Subscription {
	if attr == nil || fn == nil {
		return 0
	}

	list, ok := s.callbacks[attr]
	if !ok {
		list = &observer.List[ChangeEvent]{}
		s.callbacks[attr] = list
	}
	return list.Subscribe(fn)
}

// RemoveAttributeChanged drops a subscription made by OnAttributeChanged
func (s *Set) RemoveAttributeChanged(attr *Attribute, sub observer.Subscription) {
	list, ok := s.callbacks[attr]
	if !ok {
		return
	}

	list.Unsubscribe(sub)
	if list.Len() == 0 {
		delete(s.callbacks, attr)
	}
}

// FlushDirtyAttributes notifies each attribute that changed since the last
// flush exactly once. Changes made by callbacks are held for the next flush.
func (s *Set) FlushDirtyAttributes() {
	if len(s.dirty) == 0 {
		return
	}

	dirty := s.dirty
	s.dirty = nil
	s.dirtySet = make(map[*Attribute]struct{})

	for _, attr := range dirty {
		s.notify(attr)
	}
}

// DirtyAttributes returns the attributes pending notification
func (s *Set) DirtyAttributes() []*Attribute {
	dirty := make([]*Attribute, len(s.dirty))
	copy(dirty, s.dirty)
	return dirty
}

// ExecuteEffectSpec applies an instant spec permanently to base values
func (s *Set) ExecuteEffectSpec(spec ModifierSource) {
	if spec == nil {
		s.log.Error("[ATTRIBUTES] cannot execute modifiers on a nil effect spec")
		return
	}

	spec.RecalculateModifiers(s)

	for _, mod := range spec.Modifiers() {
		inst, ok := s.values[mod.Attribute]
		if !ok {
			continue
		}

		inst.Base = s.clamp(mod.Attribute, mod.Method.Apply(inst.Base, mod.Magnitude))
		s.markDirty(mod.Attribute)
	}

	s.Recompute()
}

// ApplyActiveEffectSpec pushes a duration or infinite spec onto the modifier
// stack. Specs that resolve to no modifiers are not kept.
func (s *Set) ApplyActiveEffectSpec(spec ModifierSource) {
	if spec == nil {
		s.log.Error("[ATTRIBUTES] cannot apply modifiers on a nil effect spec")
		return
	}

	spec.RecalculateModifiers(s)
	if len(spec.Modifiers()) == 0 {
		return
	}

	s.rederive()
	s.applied = append(s.applied, spec)
	s.Recompute()
}

// RemoveActiveEffectSpec pops spec from the modifier stack
func (s *Set) RemoveActiveEffectSpec(spec ModifierSource) {
	for i, applied := range s.applied {
		if applied != spec {
			continue
		}

		s.applied = append(s.applied[:i], s.applied[i+1:]...)
		s.rederive()
		s.Recompute()
		return
	}
}

// IsApplied reports whether spec is on the modifier stack
func (s *Set) IsApplied(spec ModifierSource) bool {
	for _, applied := range s.applied {
		if applied == spec {
			return true
		}
	}
	return false
}

// AppliedCount returns the number of specs on the modifier stack
func (s *Set) AppliedCount() int {
	return len(s.applied)
}

// Recompute rebuilds every current value from its base value and the
// applied specs' cached modifiers, in application order. Attributes whose
// current value moved are marked dirty.
func (s *Set) Recompute() {
	previous := make(map[*Attribute]float64, len(s.values))
	for _, attr := range s.defs {
		inst, ok := s.values[attr]
		if !ok {
			continue
		}
		previous[attr] = inst.Current
		inst.Current = inst.Base
	}

	for _, spec := range s.applied {
		for _, mod := range spec.Modifiers() {
			inst, ok := s.values[mod.Attribute]
			if !ok {
				continue
			}

			inst.Current = mod.Method.Apply(inst.Current, mod.Magnitude)
			if capInst, capped := s.capOf(mod.Attribute); capped {
				inst.Current = math.Min(inst.Current, capInst.Current)
			}
		}
	}

	for _, attr := range s.defs {
		inst, ok := s.values[attr]
		if !ok {
			continue
		}
		if previous[attr] != inst.Current {
			s.markDirty(attr)
		}
	}
}

// rederive re-resolves every applied spec against current values
func (s *Set) rederive() {
	for _, spec := range s.applied {
		spec.RecalculateModifiers(s)
	}
}

func (s *Set) clamp(attr *Attribute, value float64) float64 {
	if capInst, capped := s.capOf(attr); capped {
		return math.Min(value, capInst.Current)
	}
	return value
}

func (s *Set) capOf(attr *Attribute) (*Instance, bool) {
	if attr == nil || attr.Max == nil {
		return nil, false
	}
	capInst, ok := s.values[attr.Max]
	return capInst, ok
}

func (s *Set) markDirty(attr *Attribute) {
	if _, ok := s.dirtySet[attr]; ok {
		return
	}
	s.dirtySet[attr] = struct{}{}
	s.dirty = append(s.dirty, attr)
}

func (s *Set) notify(attr *Attribute) {
	list, ok := s.callbacks[attr]
	if !ok {
		return
	}

	inst, _ := s.Instance(attr)
	list.Notify(ChangeEvent{
		Attribute: attr,
		Instance:  inst,
		Owner:     s.owner,
	})
}

// onDependencyUpdated is the hook for max-attribute changes. Clamping is
// single-hop and happens inline, so nothing cascades from here.
func (s *Set) onDependencyUpdated(ChangeEvent) {}
