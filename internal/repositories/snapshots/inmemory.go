package snapshots

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/KirkDiggler/ability-system/internal/entities"
	apperr "github.com/KirkDiggler/ability-system/internal/errors"
)

// InMemoryRepository is an in-memory implementation of the snapshot repository
// Useful for testing and runs without Redis
type InMemoryRepository struct {
	mu        sync.RWMutex
	snapshots map[string]*entities.Snapshot
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() Repository {
	return &InMemoryRepository{
		snapshots: make(map[string]*entities.Snapshot),
	}
}

// Save stores a copy of the snapshot
func (r *InMemoryRepository) Save(ctx context.Context, snapshot *entities.Snapshot) error {
	if snapshot == nil {
		return apperr.InvalidArgument("snapshot cannot be nil")
	}
	if snapshot.EntityID == "" {
		return apperr.MissingParam("snapshot.EntityID")
	}

	stored, err := clone(snapshot)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots[snapshot.EntityID] = stored

	return nil
}

// Get returns a copy of the stored snapshot
func (r *InMemoryRepository) Get(ctx context.Context, entityID string) (*entities.Snapshot, error) {
	if entityID == "" {
		return nil, apperr.MissingParam("entityID")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot, exists := r.snapshots[entityID]
	if !exists {
		return nil, apperr.NotFoundf("snapshot for entity '%s' not found", entityID).
			WithMeta("entity_id", entityID)
	}

	return clone(snapshot)
}

// Delete removes a snapshot
func (r *InMemoryRepository) Delete(ctx context.Context, entityID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.snapshots[entityID]; !exists {
		return apperr.NotFoundf("snapshot for entity '%s' not found", entityID).
			WithMeta("entity_id", entityID)
	}
	delete(r.snapshots, entityID)

	return nil
}

// ListByWorld returns copies of a world's snapshots ordered by entity ID
func (r *InMemoryRepository) ListByWorld(ctx context.Context, worldID string) ([]*entities.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found []*entities.Snapshot
	for _, snapshot := range r.snapshots {
		if snapshot.WorldID != worldID {
			continue
		}
		copied, err := clone(snapshot)
		if err != nil {
			return nil, err
		}
		found = append(found, copied)
	}

	return compact(found), nil
}

// clone deep copies through the same JSON form Redis stores
func clone(snapshot *entities.Snapshot) (*entities.Snapshot, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, apperr.WrapWithCode(err, apperr.CodeInternal, "failed to copy snapshot")
	}

	var copied entities.Snapshot
	if err := json.Unmarshal(data, &copied); err != nil {
		return nil, apperr.WrapWithCode(err, apperr.CodeInternal, "failed to copy snapshot")
	}
	return &copied, nil
}
