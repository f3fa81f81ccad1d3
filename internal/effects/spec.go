package effects

import (
	"time"

	"github.com/KirkDiggler/ability-system/internal/attributes"
	"github.com/KirkDiggler/ability-system/internal/tags"
)

// Owner is an entity effects are applied by or to
type Owner interface {
	EntityID() string
	ActiveEffects() *ActiveContainer
}

// Spec is a runtime instance of an effect bound to its source and target
type Spec struct {
	effect      *Effect
	source      Owner
	target      Owner
	appliedAt   time.Duration
	duration    time.Duration
	setByCaller map[*tags.Tag]float64
	modifiers   []attributes.Modifier
	handle      Handle
	inhibited   bool
}

// NewSpec creates a spec for effect applied by source
func NewSpec(effect *Effect, source Owner) *Spec {
	return &Spec{
		effect:      effect,
		source:      source,
		setByCaller: make(map[*tags.Tag]float64),
		handle:      InvalidHandle,
	}
}

func (s *Spec) Effect() *Effect          { return s.effect }
func (s *Spec) Source() Owner            { return s.source }
func (s *Spec) Target() Owner            { return s.target }
func (s *Spec) AppliedAt() time.Duration { return s.appliedAt }
func (s *Spec) Handle() Handle           { return s.handle }

// Duration is the lifetime resolved when the spec became active
func (s *Spec) Duration() time.Duration {
	return s.duration
}

// Inhibited reports whether ongoing requirements currently suppress the
// spec's modifiers
func (s *Spec) Inhibited() bool {
	return s.inhibited
}

// SetTarget binds the entity the spec applies to
func (s *Spec) SetTarget(target Owner) {
	s.target = target
}

// SetByCallerMagnitude stores a caller supplied value under tag
func (s *Spec) SetByCallerMagnitude(tag *tags.Tag, value float64) *Spec {
	if tag != nil {
		s.setByCaller[tag] = value
	}
	return s
}

// SetByCaller returns a caller supplied value
func (s *Spec) SetByCaller(tag *tags.Tag) (float64, bool) {
	v, ok := s.setByCaller[tag]
	return v, ok
}

// SetByCallerValues returns the caller supplied values keyed by tag path
func (s *Spec) SetByCallerValues() map[string]float64 {
	values := make(map[string]float64, len(s.setByCaller))
	for tag, v := range s.setByCaller {
		values[tag.Path()] = v
	}
	return values
}

// RecalculateModifiers resolves every authored modifier against values
func (s *Spec) RecalculateModifiers(values attributes.Reader) {
	if s == nil || s.effect == nil {
		return
	}

	s.modifiers = s.modifiers[:0]
	for _, info := range s.effect.Modifiers {
		s.modifiers = append(s.modifiers, attributes.Modifier{
			Attribute: info.Attribute,
			Method:    info.Method,
			Magnitude: info.Magnitude.Resolve(values, info.Attribute, s.setByCaller),
		})
	}
}

// Modifiers returns the modifiers resolved by the last recalculation
func (s *Spec) Modifiers() []attributes.Modifier {
	if s == nil {
		return nil
	}
	return s.modifiers
}

// resolveDuration fixes the spec's duration from the template magnitude
func (s *Spec) resolveDuration(values attributes.Reader) {
	if s.effect == nil || s.effect.DurationPolicy != DurationHasDuration {
		s.duration = 0
		return
	}
	s.duration = Seconds(s.effect.Duration.Resolve(values, nil, s.setByCaller))
}
