package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const draftKeyPrefix = "atlas:draft:"

// Store persists drafts as JSON documents in Redis with a TTL, so an
// abandoned editing session expires on its own. Saves are guarded by
// an optimistic version check: a stale load cannot overwrite a newer
// save.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func draftKey(id string) string {
	return draftKeyPrefix + id
}

// Create assigns a fresh id and persists the draft.
func (s *Store) Create(ctx context.Context, d *Draft) error {
	d.ID = uuid.NewString()
	d.Version = 1
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("draft: marshal: %w", err)
	}
	return s.client.Set(ctx, draftKey(d.ID), data, s.ttl).Err()
}

// Get loads a draft by id.
func (s *Store) Get(ctx context.Context, id string) (*Draft, error) {
	payload, err := s.client.Get(ctx, draftKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrDraftNotFound
		}
		return nil, err
	}
	var d Draft
	if err := json.Unmarshal(payload, &d); err != nil {
		return nil, fmt.Errorf("draft: unmarshal: %w", err)
	}
	if d.Lines == nil {
		d.Lines = NewLineCollection(minLinesFor(d.Kind))
	}
	if d.Composer == nil {
		d.Composer = NewComposer()
	}
	return &d, nil
}

// Save persists the draft if its version still matches the stored one,
// then bumps the version. The key is WATCHed so a concurrent save
// aborts the transaction instead of silently losing the other write.
func (s *Store) Save(ctx context.Context, d *Draft) error {
	key := draftKey(d.ID)
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		payload, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrDraftNotFound
			}
			return err
		}
		var stored struct {
			Version int64 `json:"version"`
		}
		if err := json.Unmarshal(payload, &stored); err != nil {
			return fmt.Errorf("draft: unmarshal stored: %w", err)
		}
		if stored.Version != d.Version {
			return ErrStaleDraft
		}
		d.Version++
		d.UpdatedAt = time.Now().UTC()
		data, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("draft: marshal: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrStaleDraft
	}
	return err
}

// Delete removes the draft; deleting a missing draft is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	err := s.client.Del(ctx, draftKey(id)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
