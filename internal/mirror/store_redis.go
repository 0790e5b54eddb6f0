package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	dErrors "insurechain/pkg/domain-errors"
)

const redisKeyPrefix = "mirror:"

// RedisStore is the multi-instance mirror backend: hospital deployments that
// run more than one reader share mirror state through Redis. Records are
// stored as JSON under "mirror:<kind>:<id>".
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a Redis-backed mirror store. The client lifecycle
// is managed externally.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(kind RecordKind, id string) string {
	return redisKeyPrefix + string(kind) + ":" + id
}

// Put inserts or replaces a record, preserving CreatedAt across replacements.
func (s *RedisStore) Put(ctx context.Context, kind RecordKind, id string, payload map[string]any, ref uuid.UUID) (bool, error) {
	if !kind.Valid() {
		return false, dErrors.Newf(dErrors.CodeInvalidInput, "unknown record kind %q", kind)
	}
	if id == "" {
		return false, dErrors.New(dErrors.CodeInvalidInput, "record id is required")
	}

	now := time.Now().UTC()
	record := Record{
		Kind:             kind,
		ID:               id,
		Payload:          payload,
		AuthoritativeRef: ref,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	key := redisKey(kind, id)
	created := true
	existing, err := s.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read mirror record")
	default:
		created = false
		var prev Record
		if err := json.Unmarshal(existing, &prev); err == nil {
			record.CreatedAt = prev.CreatedAt
		}
	}

	data, err := json.Marshal(record)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode mirror record")
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to write mirror record")
	}
	return created, nil
}

// Get returns the record stored under kind/id.
func (s *RedisStore) Get(ctx context.Context, kind RecordKind, id string) (*Record, error) {
	data, err := s.client.Get(ctx, redisKey(kind, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read mirror record")
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to decode mirror record")
	}
	return &record, nil
}

// QueryByField scans the kind partition and filters on a payload field.
func (s *RedisStore) QueryByField(ctx context.Context, kind RecordKind, field, value string) ([]Record, error) {
	var out []Record
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+string(kind)+":*", 0).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read mirror record")
		}
		var record Record
		if err := json.Unmarshal(data, &record); err != nil {
			continue
		}
		if got, ok := record.Payload[field].(string); ok && got == value {
			out = append(out, record)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to scan mirror records")
	}
	return out, nil
}

// Stats reports the record count per kind.
func (s *RedisStore) Stats(ctx context.Context) (map[RecordKind]int, error) {
	counts := make(map[RecordKind]int)
	for _, kind := range []RecordKind{KindPatientRecord, KindClaimRequest, KindPolicyVerification} {
		iter := s.client.Scan(ctx, 0, redisKeyPrefix+string(kind)+":*", 0).Iterator()
		for iter.Next(ctx) {
			counts[kind]++
		}
		if err := iter.Err(); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to scan mirror records")
		}
	}
	return counts, nil
}
