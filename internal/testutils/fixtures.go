package testutils

import (
	"github.com/KirkDiggler/ability-system/internal/entities"
)

// CreateTestSnapshot creates a snapshot of a slowed entity in the arena
// world
func CreateTestSnapshot(entityID string) *entities.Snapshot {
	return &entities.Snapshot{
		EntityID: entityID,
		WorldID:  "arena",
		TakenAt:  2.5,
		Attributes: map[string]entities.AttributeValue{
			"MoveSpeed": {Base: 10, Current: 5},
			"Health":    {Base: 60, Current: 60},
		},
		Tags: map[string]int{"Status.Slowed": 1},
		ActiveEffects: []entities.ActiveEffect{
			{
				HandleID:    0,
				Effect:      "chill",
				AppliedAt:   1,
				Duration:    2,
				SetByCaller: map[string]float64{"Data.Magnitude": -5},
			},
		},
		Abilities: []entities.GrantedAbility{
			{Key: "Jump", InputBinding: "jump"},
			{Key: "Focus", InputBinding: "channel", Active: true},
		},
	}
}

// CreateTestSnapshotInWorld creates a test snapshot owned by worldID
func CreateTestSnapshotInWorld(entityID, worldID string) *entities.Snapshot {
	snapshot := CreateTestSnapshot(entityID)
	snapshot.WorldID = worldID
	return snapshot
}
