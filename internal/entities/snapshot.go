// Package entities holds plain data types shared between the simulation,
// persistence and observers
package entities

import "sort"

// AttributeValue is the value pair of one attribute
type AttributeValue struct {
	Base    float64 `json:"base"`
	Current float64 `json:"current"`
}

// ActiveEffect describes one active gameplay effect
type ActiveEffect struct {
	HandleID    int                `json:"handle_id"`
	Effect      string             `json:"effect"`
	AppliedAt   float64            `json:"applied_at"`
	Duration    float64            `json:"duration,omitempty"`
	Inhibited   bool               `json:"inhibited,omitempty"`
	SetByCaller map[string]float64 `json:"set_by_caller,omitempty"`
}

// GrantedAbility describes one granted ability
type GrantedAbility struct {
	Key          string `json:"key"`
	InputBinding string `json:"input_binding,omitempty"`
	Active       bool   `json:"active"`
}

// Snapshot is the observable state of an entity at one point of simulation
// time. Times are in simulation seconds.
type Snapshot struct {
	EntityID      string                    `json:"entity_id"`
	WorldID       string                    `json:"world_id"`
	TakenAt       float64                   `json:"taken_at"`
	Attributes    map[string]AttributeValue `json:"attributes"`
	Tags          map[string]int            `json:"tags"`
	ActiveEffects []ActiveEffect            `json:"active_effects"`
	Abilities     []GrantedAbility          `json:"abilities"`
}

// TagPaths returns the owned tag paths sorted alphabetically
func (s *Snapshot) TagPaths() []string {
	paths := make([]string, 0, len(s.Tags))
	for path := range s.Tags {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// HasTag reports whether the snapshot holds the exact tag path
func (s *Snapshot) HasTag(path string) bool {
	return s.Tags[path] > 0
}
