// Package snapshots persists entity snapshots
package snapshots

//go:generate mockgen -destination=mock/mock_repository.go -package=mocksnapshots -source=interface.go

import (
	"context"

	"github.com/KirkDiggler/ability-system/internal/entities"
)

// Repository defines snapshot persistence
type Repository interface {
	// Save stores the latest snapshot of an entity, replacing any previous one
	Save(ctx context.Context, snapshot *entities.Snapshot) error

	// Get retrieves the latest snapshot of an entity
	Get(ctx context.Context, entityID string) (*entities.Snapshot, error)

	// Delete removes an entity's snapshot
	Delete(ctx context.Context, entityID string) error

	// ListByWorld retrieves every snapshot saved for a world, ordered by entity ID
	ListByWorld(ctx context.Context, worldID string) ([]*entities.Snapshot, error)
}
