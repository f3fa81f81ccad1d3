package abilitysystem

import (
	"github.com/sirupsen/logrus"

	"github.com/KirkDiggler/ability-system/internal/abilities"
	"github.com/KirkDiggler/ability-system/internal/effects"
)

// MakeOutgoingSpec creates a spec for effect with this entity as source
func (s *System) MakeOutgoingSpec(effect *effects.Effect) *effects.Spec {
	return effects.NewSpec(effect, s)
}

// ApplyGameplayEffectToSelf applies effect with this entity as both source
// and target
func (s *System) ApplyGameplayEffectToSelf(effect *effects.Effect) effects.Handle {
	return s.ApplyGameplayEffectSpecToSelf(s.MakeOutgoingSpec(effect))
}

// ApplyGameplayEffectSpecToSelf applies spec to this entity.
//
// The whole application is refused when a modifier has no attribute, when
// the application requirements are unmet, or when the removal requirements
// already hold. Instant effects change base values and return an invalid
// handle; other effects become active and return their handle.
func (s *System) ApplyGameplayEffectSpecToSelf(spec *effects.Spec) effects.Handle {
	if spec == nil || spec.Effect() == nil {
		s.log.Error("[EFFECTS] cannot apply a nil effect spec")
		return effects.InvalidHandle
	}

	spec.SetTarget(s)
	effect := spec.Effect()
	log := s.log.WithField("effect", effect.Key)

	if !effect.HasValidModifiers() {
		log.Warn("[EFFECTS] effect has a modifier without an attribute")
		return effects.InvalidHandle
	}

	if !effect.ApplicationTagRequirements.Met(s.ownedTags) {
		log.Debug("[EFFECTS] application requirements not met")
		return effects.InvalidHandle
	}

	removal := effect.RemovalTagRequirements
	if !removal.IsEmpty() && removal.Met(s.ownedTags) {
		log.Debug("[EFFECTS] removal requirements already met")
		return effects.InvalidHandle
	}

	if effect.IsInstant() {
		s.attributeSet.ExecuteEffectSpec(spec)
		log.Debug("[EFFECTS] instant effect executed")
		s.OnEffectExecuted.Notify(ExecutedEvent{System: s, Spec: spec})
		return effects.InvalidHandle
	}

	h := s.activeEffects.Add(spec)
	if !h.IsValid() {
		return effects.InvalidHandle
	}

	if !spec.Inhibited() && !s.attributeSet.IsApplied(spec) {
		s.attributeSet.ApplyActiveEffectSpec(spec)
	}
	return h
}

// ApplyGameplayEffectSpecToTarget applies spec through target's own
// apply-to-self
func (s *System) ApplyGameplayEffectSpecToTarget(spec *effects.Spec, target *System) effects.Handle {
	if target == nil {
		s.log.Warn("[EFFECTS] cannot apply an effect to a nil target")
		return effects.InvalidHandle
	}
	return target.ApplyGameplayEffectSpecToSelf(spec)
}

// RemoveActiveEffectByHandle removes an active effect from this entity.
// Unknown handles are ignored.
func (s *System) RemoveActiveEffectByHandle(h effects.Handle) bool {
	return s.activeEffects.RemoveByHandle(h)
}

func (s *System) handleEffectAdded(ev effects.AddedEvent) {
	effect := ev.Spec.Effect()
	s.ownedTags.AddTags(effect.GrantedTags)

	for _, grant := range effect.GrantedAbilities {
		if spec := s.GrantAbility(grant); spec != nil {
			s.effectGrants[ev.Handle] = append(s.effectGrants[ev.Handle], spec)
		}
	}
}

func (s *System) handleEffectRemoved(ev effects.RemovedEvent) {
	effect := ev.Spec.Effect()
	s.ownedTags.RemoveTags(effect.GrantedTags)
	s.attributeSet.RemoveActiveEffectSpec(ev.Spec)

	granted := s.effectGrants[ev.Handle]
	delete(s.effectGrants, ev.Handle)
	for _, spec := range granted {
		if s.HasAbility(spec) {
			s.revokeSpec(spec)
		}
	}
}

func (s *System) handleInhibitionChanged(ev effects.InhibitionEvent) {
	s.log.WithFields(logrus.Fields{
		"effect":    ev.Spec.Effect().Key,
		"handle":    ev.Handle.ID,
		"inhibited": ev.Inhibited,
	}).Debug("[EFFECTS] effect inhibition changed")

	applied := s.attributeSet.IsApplied(ev.Spec)
	switch {
	case ev.Inhibited && applied:
		s.attributeSet.RemoveActiveEffectSpec(ev.Spec)
	case !ev.Inhibited && !applied:
		s.attributeSet.ApplyActiveEffectSpec(ev.Spec)
	}
}

// AbilitiesGrantedBy returns the ability specs granted by an active effect
func (s *System) AbilitiesGrantedBy(h effects.Handle) []*abilities.Spec {
	granted := make([]*abilities.Spec, len(s.effectGrants[h]))
	copy(granted, s.effectGrants[h])
	return granted
}
