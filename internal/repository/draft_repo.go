package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"scalepos/internal/model"
)

// ErrDraftNotFound: the draft id is unknown — expired, discarded, or already
// committed.
var ErrDraftNotFound = errors.New("draft order not found")

// DraftRepository stores open draft orders ("tabs"). Drafts are ephemeral —
// no catalog quantity is locked by an open draft; the stock ledger derives a
// virtual "remaining" view by scanning ListOpen at query time.
type DraftRepository interface {
	Save(ctx context.Context, d *model.DraftOrder) error
	Find(ctx context.Context, id uuid.UUID) (*model.DraftOrder, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// ListOpen returns every currently open draft across all sessions.
	ListOpen(ctx context.Context) ([]model.DraftOrder, error)
	// ListBySession returns the session's own tabs, oldest first.
	ListBySession(ctx context.Context, sessionID string) ([]model.DraftOrder, error)
}

const (
	draftKeyPrefix = "draft:"
	draftOpenSet   = "drafts:open"
)

// redisDraftRepo keeps each draft as a JSON document under draft:<id> with a
// TTL, plus a set of open ids for the ledger scan. A draft whose key expired
// is pruned from the set lazily on the next scan.
type redisDraftRepo struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewDraftRepository(rdb *redis.Client, ttl time.Duration) DraftRepository {
	return &redisDraftRepo{rdb: rdb, ttl: ttl}
}

func (r *redisDraftRepo) Save(ctx context.Context, d *model.DraftOrder) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, draftKeyPrefix+d.ID.String(), data, r.ttl)
	pipe.SAdd(ctx, draftOpenSet, d.ID.String())
	_, err = pipe.Exec(ctx)
	return err
}

func (r *redisDraftRepo) Find(ctx context.Context, id uuid.UUID) (*model.DraftOrder, error) {
	data, err := r.rdb.Get(ctx, draftKeyPrefix+id.String()).Bytes()
	if err == redis.Nil {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, err
	}
	var d model.DraftOrder
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *redisDraftRepo) Delete(ctx context.Context, id uuid.UUID) error {
	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, draftKeyPrefix+id.String())
	pipe.SRem(ctx, draftOpenSet, id.String())
	_, err := pipe.Exec(ctx)
	return err
}

func (r *redisDraftRepo) ListOpen(ctx context.Context) ([]model.DraftOrder, error) {
	ids, err := r.rdb.SMembers(ctx, draftOpenSet).Result()
	if err != nil {
		return nil, err
	}
	drafts := make([]model.DraftOrder, 0, len(ids))
	for _, id := range ids {
		data, err := r.rdb.Get(ctx, draftKeyPrefix+id).Bytes()
		if err == redis.Nil {
			// TTL expired — prune the stale set member
			r.rdb.SRem(ctx, draftOpenSet, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		var d model.DraftOrder
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	return drafts, nil
}

func (r *redisDraftRepo) ListBySession(ctx context.Context, sessionID string) ([]model.DraftOrder, error) {
	all, err := r.ListOpen(ctx)
	if err != nil {
		return nil, err
	}
	drafts := make([]model.DraftOrder, 0, len(all))
	for _, d := range all {
		if d.SessionID == sessionID {
			drafts = append(drafts, d)
		}
	}
	// Oldest tab first
	sort.Slice(drafts, func(i, j int) bool {
		return drafts[i].CreatedAt.Before(drafts[j].CreatedAt)
	})
	return drafts, nil
}
