package abilitysystem

import (
	"github.com/KirkDiggler/ability-system/internal/entities"
)

// Snapshot captures the entity's observable state
func (s *System) Snapshot(worldID string) *entities.Snapshot {
	snap := &entities.Snapshot{
		EntityID:      s.id,
		WorldID:       worldID,
		TakenAt:       s.clock.Now().Seconds(),
		Attributes:    make(map[string]entities.AttributeValue),
		Tags:          s.ownedTags.Counts(),
		ActiveEffects: make([]entities.ActiveEffect, 0, s.activeEffects.Len()),
		Abilities:     make([]entities.GrantedAbility, 0, len(s.specs)),
	}

	for _, attr := range s.attributeSet.Attributes() {
		inst, _ := s.attributeSet.Instance(attr)
		snap.Attributes[attr.Name] = entities.AttributeValue{Base: inst.Base, Current: inst.Current}
	}

	for _, spec := range s.activeEffects.Specs() {
		snap.ActiveEffects = append(snap.ActiveEffects, entities.ActiveEffect{
			HandleID:    spec.Handle().ID,
			Effect:      spec.Effect().Key,
			AppliedAt:   spec.AppliedAt().Seconds(),
			Duration:    spec.Duration().Seconds(),
			Inhibited:   spec.Inhibited(),
			SetByCaller: spec.SetByCallerValues(),
		})
	}

	for _, spec := range s.specs {
		snap.Abilities = append(snap.Abilities, entities.GrantedAbility{
			Key:          spec.Key(),
			InputBinding: spec.InputBinding(),
			Active:       spec.IsActive(),
		})
	}

	return snap
}
