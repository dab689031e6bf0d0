// Package redis provides a Redis-backed ExecutionRepository.
//
// Each record is a hash under <prefix>:execution:<id> holding the JSON snapshot plus
// the status and type fields. A sorted set <prefix>:executions indexes ids by creation time.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/hsetrack/hseflow/pkg/persistence"
	redis "github.com/redis/go-redis/v9"
)

const defaultPrefix = "hseflow"

// Repository implements persistence.ExecutionRepository on Redis.
type Repository struct {
	client redis.UniversalClient
	logger *slog.Logger
	prefix string
}

// NewRepository connects using a redis:// URL and verifies the connection.
func NewRepository(ctx context.Context, logger *slog.Logger, url string) (*Repository, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	repo := NewRepositoryWithClient(redis.NewClient(opts), logger, defaultPrefix)

	err = repo.HealthCheck(ctx)
	if err != nil {
		_ = repo.client.Close()

		return nil, err
	}

	return repo, nil
}

// NewRepositoryWithClient wraps an existing client. Keys are namespaced by prefix.
func NewRepositoryWithClient(client redis.UniversalClient, logger *slog.Logger, prefix string) *Repository {
	if prefix == "" {
		prefix = defaultPrefix
	}

	return &Repository{client: client, logger: logger, prefix: prefix}
}

func (r *Repository) recordKey(id string) string {
	return r.prefix + ":execution:" + id
}

func (r *Repository) indexKey() string {
	return r.prefix + ":executions"
}

func (r *Repository) Save(ctx context.Context, record *models.ExecutionRecord) error {
	err := persistence.CheckExecutionID(record.ID)
	if err != nil {
		return persistence.NewExecutionError("Save", record.ID, err)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return persistence.NewExecutionError("Save", record.ID, fmt.Errorf("failed to marshal record: %w", err))
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.recordKey(record.ID),
			"record", data,
			"status", string(record.Status),
			"type", string(record.Action.Type),
		)
		pipe.ZAdd(ctx, r.indexKey(), redis.Z{
			Score:  float64(record.CreatedAt.UnixMilli()),
			Member: record.ID,
		})

		return nil
	})
	if err != nil {
		return persistence.NewExecutionError("Save", record.ID, err)
	}

	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*models.ExecutionRecord, error) {
	data, err := r.client.HGet(ctx, r.recordKey(id), "record").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.NewExecutionError("Get", id, persistence.ErrExecutionNotFound)
		}

		return nil, persistence.NewExecutionError("Get", id, err)
	}

	return decode(id, data)
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	var deleted *redis.IntCmd

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, r.recordKey(id))
		pipe.ZRem(ctx, r.indexKey(), id)

		return nil
	})
	if err != nil {
		return persistence.NewExecutionError("Delete", id, err)
	}

	if deleted.Val() == 0 {
		return persistence.NewExecutionError("Delete", id, persistence.ErrExecutionNotFound)
	}

	return nil
}

// List returns records newest first. Index entries whose hash has vanished are skipped.
func (r *Repository) List(ctx context.Context) ([]*models.ExecutionRecord, error) {
	ids, err := r.client.ZRevRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, persistence.NewExecutionError("List", "", err)
	}

	if len(ids) == 0 {
		return []*models.ExecutionRecord{}, nil
	}

	cmds := make([]*redis.StringCmd, len(ids))

	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGet(ctx, r.recordKey(id), "record")
		}

		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, persistence.NewExecutionError("List", "", err)
	}

	records := make([]*models.ExecutionRecord, 0, len(ids))

	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if errors.Is(err, redis.Nil) {
			r.logger.WarnContext(ctx, "Dropping stale execution index entry", "execution_id", ids[i])

			continue
		}

		if err != nil {
			return nil, persistence.NewExecutionError("List", ids[i], err)
		}

		record, err := decode(ids[i], data)
		if err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	return records, nil
}

func (r *Repository) HealthCheck(ctx context.Context) error {
	err := r.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (r *Repository) Close(_ context.Context) error {
	err := r.client.Close()
	if err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}

func decode(id string, data []byte) (*models.ExecutionRecord, error) {
	var record models.ExecutionRecord

	err := json.Unmarshal(data, &record)
	if err != nil {
		return nil, persistence.NewExecutionError("Get", id, fmt.Errorf("failed to unmarshal record: %w", err))
	}

	return &record, nil
}
