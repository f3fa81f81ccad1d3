package library

import (
	"github.com/sirupsen/logrus"

	"github.com/KirkDiggler/ability-system/internal/abilities"
	"github.com/KirkDiggler/ability-system/internal/effects"
	"github.com/KirkDiggler/ability-system/internal/tags"
)

// ApplyEffect applies an effect to the event target, or to its owner when
// the event has no target, then ends
type ApplyEffect struct {
	abilities.Base
	Effect *effects.Effect
	// MagnitudeTag, when set, stores the event magnitude as a set-by-caller
	// value on the spec
	MagnitudeTag *tags.Tag
}

// NewApplyEffect creates an effect-applying ability
func NewApplyEffect(def *abilities.Definition, effect *effects.Effect, magnitudeTag *tags.Tag) *ApplyEffect {
	return &ApplyEffect{Base: abilities.Base{Def: def}, Effect: effect, MagnitudeTag: magnitudeTag}
}

// Activate builds the spec from the owner and applies it
func (a *ApplyEffect) Activate(spec *abilities.Spec, payload abilities.EventData) {
	defer spec.End(false)

	source := applierOf(spec.Owner())
	if source == nil || a.Effect == nil {
		loggerOf(spec.Owner()).WithField("ability", spec.Key()).Warn("[ABILITIES] cannot apply effect")
		return
	}

	target := source
	if payload.Target != nil {
		if applier := applierOf(payload.Target); applier != nil {
			target = applier
		}
	}

	outgoing := source.MakeOutgoingSpec(a.Effect)
	if a.MagnitudeTag != nil {
		outgoing.SetByCallerMagnitude(a.MagnitudeTag, payload.Magnitude)
	}

	h := target.ApplyGameplayEffectSpecToSelf(outgoing)
	loggerOf(spec.Owner()).WithFields(logrus.Fields{
		"ability": spec.Key(),
		"effect":  a.Effect.Key,
		"handle":  h.ID,
	}).Debug("[ABILITIES] effect applied")
}

// Channel keeps an effect on its owner for as long as the ability stays
// active, typically while the bound input is held. Every grant gets its own
// instance.
type Channel struct {
	abilities.Base
	Effect *effects.Effect

	handle effects.Handle
}

// NewChannel creates a channelled ability
func NewChannel(def *abilities.Definition, effect *effects.Effect) *Channel {
	return &Channel{Base: abilities.Base{Def: def}, Effect: effect, handle: effects.InvalidHandle}
}

// NewInstance implements abilities.Instancer
func (c *Channel) NewInstance() abilities.Ability {
	return NewChannel(c.Def, c.Effect)
}

// Handle returns the handle of the channelled effect
func (c *Channel) Handle() effects.Handle {
	return c.handle
}

// Activate applies the channelled effect
func (c *Channel) Activate(spec *abilities.Spec, _ abilities.EventData) {
	applier := applierOf(spec.Owner())
	if applier == nil || c.Effect == nil {
		loggerOf(spec.Owner()).WithField("ability", spec.Key()).Warn("[ABILITIES] cannot channel effect")
		spec.End(true)
		return
	}

	if c.handle.IsValid() {
		return
	}
	c.handle = applier.ApplyGameplayEffectSpecToSelf(applier.MakeOutgoingSpec(c.Effect))
}

// InputReleased ends the channel
func (c *Channel) InputReleased(spec *abilities.Spec) {
	spec.End(false)
}

// Ended implements abilities.Ender
func (c *Channel) Ended(spec *abilities.Spec, _ bool) {
	if applier := applierOf(spec.Owner()); applier != nil {
		applier.RemoveActiveEffectByHandle(c.handle)
	}
	c.handle = effects.InvalidHandle
}
