// Package effects implements gameplay effect templates, their runtime specs
// and the per-entity container of active duration and infinite effects.
package effects

import (
	"github.com/KirkDiggler/ability-system/internal/abilities"
	"github.com/KirkDiggler/ability-system/internal/attributes"
	"github.com/KirkDiggler/ability-system/internal/tags"
)

// DurationPolicy is the lifetime of an applied effect
type DurationPolicy int

const (
	DurationInstant DurationPolicy = iota
	DurationHasDuration
	DurationInfinite
)

// String implements fmt.Stringer
func (p DurationPolicy) String() string {
	switch p {
	case DurationInstant:
		return "instant"
	case DurationHasDuration:
		return "duration"
	case DurationInfinite:
		return "infinite"
	default:
		return "unknown"
	}
}

// ModifierInfo is an authored modifier
type ModifierInfo struct {
	Attribute *attributes.Attribute
	Method    attributes.Method
	Magnitude Magnitude
}

// Effect is an immutable gameplay effect template
type Effect struct {
	Key            string
	DurationPolicy DurationPolicy
	// Duration is resolved once when the effect becomes active. Only read
	// for DurationHasDuration, in seconds.
	Duration Magnitude

	// EffectTags describe the effect and are matched by other effects'
	// RemoveGameplayEffectsWithTags
	EffectTags tags.Container
	// GrantedTags are added to the target while the effect is active
	GrantedTags tags.Container

	// OngoingTagRequirements inhibit the effect's modifiers while unmet
	OngoingTagRequirements tags.Requirements
	// ApplicationTagRequirements must be met for the effect to apply
	ApplicationTagRequirements tags.Requirements
	// RemovalTagRequirements remove the active effect once met
	RemovalTagRequirements tags.Requirements
	// RemoveGameplayEffectsWithTags removes other active effects on apply
	RemoveGameplayEffectsWithTags tags.Container

	Modifiers []ModifierInfo

	// GrantedAbilities are granted to the target while the effect is active
	GrantedAbilities []abilities.Grant
}

// IsInstant reports whether the effect applies to base values once
func (e *Effect) IsInstant() bool {
	return e != nil && e.DurationPolicy == DurationInstant
}

// HasValidModifiers reports whether every modifier names an attribute
func (e *Effect) HasValidModifiers() bool {
	if e == nil {
		return false
	}
	for _, mod := range e.Modifiers {
		if mod.Attribute == nil {
			return false
		}
	}
	return true
}

// ListenedTags returns every tag the removal and ongoing requirements
// depend on, without duplicates
func (e *Effect) ListenedTags() tags.Container {
	if e == nil {
		return nil
	}

	var listened tags.Container
	for _, tag := range append(e.RemovalTagRequirements.Tags(), e.OngoingTagRequirements.Tags()...) {
		if !listened.HasTag(tag) {
			listened = append(listened, tag)
		}
	}
	return listened
}
