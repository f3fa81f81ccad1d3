package snapshots

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/KirkDiggler/ability-system/internal/entities"
	apperr "github.com/KirkDiggler/ability-system/internal/errors"
)

type redisRepo struct {
	client redis.UniversalClient
}

// NewRedis creates a Redis-backed snapshot repository
func NewRedis(client redis.UniversalClient) Repository {
	return &redisRepo{
		client: client,
	}
}

func snapshotKey(entityID string) string {
	return fmt.Sprintf("snapshot:%s", entityID)
}

func worldKey(worldID string) string {
	return fmt.Sprintf("world:%s:snapshots", worldID)
}

func (r *redisRepo) Save(ctx context.Context, snapshot *entities.Snapshot) error {
	if snapshot == nil {
		return apperr.InvalidArgument("snapshot cannot be nil")
	}
	if snapshot.EntityID == "" {
		return apperr.MissingParam("snapshot.EntityID")
	}

	jsonData, err := json.Marshal(snapshot)
	if err != nil {
		return apperr.WrapWithCode(err, apperr.CodeInternal, "failed to marshal snapshot")
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, snapshotKey(snapshot.EntityID), string(jsonData), 0)
	pipe.SAdd(ctx, worldKey(snapshot.WorldID), snapshot.EntityID)
	if _, err = pipe.Exec(ctx); err != nil {
		return apperr.WrapWithCode(err, apperr.CodeUnavailable, "failed to save snapshot in Redis").
			WithMeta("entity_id", snapshot.EntityID)
	}

	return nil
}

func (r *redisRepo) Get(ctx context.Context, entityID string) (*entities.Snapshot, error) {
	if entityID == "" {
		return nil, apperr.MissingParam("entityID")
	}

	jsonData, err := r.client.Get(ctx, snapshotKey(entityID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NotFoundf("snapshot for entity '%s' not found", entityID).
				WithMeta("entity_id", entityID)
		}
		return nil, apperr.WrapWithCode(err, apperr.CodeUnavailable, "failed to get snapshot from Redis").
			WithMeta("entity_id", entityID)
	}

	var snapshot entities.Snapshot
	if err := json.Unmarshal(jsonData, &snapshot); err != nil {
		return nil, apperr.WrapWithCode(err, apperr.CodeInternal, "failed to unmarshal snapshot").
			WithMeta("entity_id", entityID)
	}

	return &snapshot, nil
}

func (r *redisRepo) Delete(ctx context.Context, entityID string) error {
	snapshot, err := r.Get(ctx, entityID)
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, snapshotKey(entityID))
	pipe.SRem(ctx, worldKey(snapshot.WorldID), entityID)
	if _, err = pipe.Exec(ctx); err != nil {
		return apperr.WrapWithCode(err, apperr.CodeUnavailable, "failed to delete snapshot from Redis").
			WithMeta("entity_id", entityID)
	}

	return nil
}

func (r *redisRepo) ListByWorld(ctx context.Context, worldID string) ([]*entities.Snapshot, error) {
	entityIDs, err := r.client.SMembers(ctx, worldKey(worldID)).Result()
	if err != nil {
		return nil, apperr.WrapWithCode(err, apperr.CodeUnavailable, "failed to get world snapshots from Redis").
			WithMeta("world_id", worldID)
	}

	found := make([]*entities.Snapshot, len(entityIDs))

	g, ctx := errgroup.WithContext(ctx)
	for i, id := range entityIDs {
		i, id := i, id
		g.Go(func() error {
			snapshot, err := r.Get(ctx, id)
			if err != nil {
				// members can outlive their snapshot key
				if apperr.IsNotFound(err) {
					return nil
				}
				return apperr.Wrapf(err, "failed to get snapshot %s", id)
			}
			found[i] = snapshot
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return compact(found), nil
}

// compact drops missing entries and orders the rest by entity ID
func compact(found []*entities.Snapshot) []*entities.Snapshot {
	result := make([]*entities.Snapshot, 0, len(found))
	for _, snapshot := range found {
		if snapshot != nil {
			result = append(result, snapshot)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].EntityID < result[j].EntityID
	})
	return result
}
