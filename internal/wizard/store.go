// internal/wizard/store.go
package wizard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rental-portal/internal/common/errors"
)

const (
	draftKeyPrefix = "wizard:draft:"
	lockKeyPrefix  = "wizard:submit:"
)

// DraftStore persists drafts between requests.
type DraftStore interface {
	Save(ctx context.Context, draft *Draft) error
	Get(ctx context.Context, id string) (*Draft, error)
	Delete(ctx context.Context, id string) error
	AcquireSubmitLock(ctx context.Context, id string) (bool, error)
	ReleaseSubmitLock(ctx context.Context, id string) error
}

// RedisDraftStore keeps each draft as one JSON document with a sliding TTL.
type RedisDraftStore struct {
	redis   *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

func NewRedisDraftStore(client *redis.Client, ttl, lockTTL time.Duration) *RedisDraftStore {
	return &RedisDraftStore{redis: client, ttl: ttl, lockTTL: lockTTL}
}

func draftKey(id string) string { return draftKeyPrefix + id }
func lockKey(id string) string  { return lockKeyPrefix + id }

// storedDraft splits files from the other values so the decoder can restore
// each entry to its proper type.
type storedDraft struct {
	Draft
	Values map[string]interface{} `json:"values"`
	Files  map[string]*File       `json:"files,omitempty"`
}

func encodeDraft(d *Draft) ([]byte, error) {
	return json.Marshal(storedDraft{
		Draft:  *d,
		Values: d.State.Scalars(),
		Files:  d.State.Files(),
	})
}

func decodeDraft(data []byte) (*Draft, error) {
	var sd storedDraft
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, err
	}
	state, err := NormalizeState(sd.Values)
	if err != nil {
		return nil, err
	}
	for k, f := range sd.Files {
		state[k] = f
	}
	d := sd.Draft
	d.State = state
	return &d, nil
}

func (s *RedisDraftStore) Save(ctx context.Context, draft *Draft) error {
	data, err := encodeDraft(draft)
	if err != nil {
		return errors.NewInternalError(fmt.Errorf("encode draft %s: %w", draft.ID, err))
	}
	if err := s.redis.Set(ctx, draftKey(draft.ID), data, s.ttl).Err(); err != nil {
		return errors.NewStorageFailedError("save draft", err)
	}
	return nil
}

func (s *RedisDraftStore) Get(ctx context.Context, id string) (*Draft, error) {
	data, err := s.redis.Get(ctx, draftKey(id)).Bytes()
	if err == redis.Nil {
		return nil, errors.NewDraftNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewStorageFailedError("load draft", err)
	}
	d, err := decodeDraft(data)
	if err != nil {
		return nil, errors.NewInternalError(fmt.Errorf("decode draft %s: %w", id, err))
	}
	return d, nil
}

func (s *RedisDraftStore) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, draftKey(id)).Err(); err != nil {
		return errors.NewStorageFailedError("delete draft", err)
	}
	return nil
}

// AcquireSubmitLock returns false when another submission of the same draft
// holds the lock.
func (s *RedisDraftStore) AcquireSubmitLock(ctx context.Context, id string) (bool, error) {
	ok, err := s.redis.SetNX(ctx, lockKey(id), 1, s.lockTTL).Result()
	if err != nil {
		return false, errors.NewStorageFailedError("acquire submit lock", err)
	}
	return ok, nil
}

func (s *RedisDraftStore) ReleaseSubmitLock(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, lockKey(id)).Err(); err != nil {
		return errors.NewStorageFailedError("release submit lock", err)
	}
	return nil
}
