// Package archive stores ended conversation sessions as JSON with a TTL.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/nutrirag/internal/db"
	"github.com/kailas-cloud/nutrirag/internal/domain"
	"github.com/kailas-cloud/nutrirag/internal/domain/conversation"
)

var keyPrefix = domain.KeyPrefix + "session:"

// store is the consumer interface for the archive (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Repo is the session archive.
type Repo struct {
	store store
	ttl   time.Duration
}

// New creates an archive keeping sessions for ttl.
func New(s store, ttl time.Duration) *Repo {
	return &Repo{store: s, ttl: ttl}
}

// Save stores a snapshot of the session.
func (r *Repo) Save(ctx context.Context, s *conversation.Session) error {
	data, err := json.Marshal(toRecord(s))
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", s.ID(), err)
	}
	if err := r.store.SetWithTTL(ctx, keyPrefix+s.ID(), data, r.ttl); err != nil {
		return fmt.Errorf("archive session %s: %w", s.ID(), err)
	}
	return nil
}

// Get loads an archived session. Returns domain.ErrSessionNotFound when absent.
func (r *Repo) Get(ctx context.Context, id string) (Archived, error) {
	data, err := r.store.Get(ctx, keyPrefix+id)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return Archived{}, domain.ErrSessionNotFound
		}
		return Archived{}, fmt.Errorf("get archived session %s: %w", id, err)
	}
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return Archived{}, fmt.Errorf("parse archived session %s: %w", id, err)
	}
	return rec.toArchived(), nil
}
