package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/toripushy/milkyway-calendar"
	"github.com/toripushy/milkyway-calendar/internal/usecase"
)

const (
	versionKey    = "records:ver"
	monthCacheTTL = 300 // seconds
)

type monthCache interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
	Increment(key string, delta uint64) (uint64, error)
}

// CachedRecordRepository wraps a record repository with a memcached
// layer for the month query, the hot read path of the calendar view.
// Invalidation is by generation: every mutation bumps a version counter
// that namespaces the month keys, so stale entries simply age out.
type CachedRecordRepository struct {
	inner usecase.RecordRepository
	cache monthCache
}

func NewCachedRecordRepository(inner usecase.RecordRepository, mc *memcache.Client) *CachedRecordRepository {
	return &CachedRecordRepository{inner: inner, cache: mc}
}

func (r *CachedRecordRepository) List(ctx context.Context) ([]milkyway.Record, error) {
	return r.inner.List(ctx)
}

func (r *CachedRecordRepository) ListByMonth(ctx context.Context, year, month int) (map[string][]milkyway.Record, error) {
	key := r.monthKey(year, month)

	if item, err := r.cache.Get(key); err == nil {
		var byDate map[string][]milkyway.Record
		if err := json.Unmarshal(item.Value, &byDate); err == nil {
			return byDate, nil
		}
	}

	byDate, err := r.inner.ListByMonth(ctx, year, month)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(byDate); err == nil {
		err = r.cache.Set(&memcache.Item{Key: key, Value: payload, Expiration: monthCacheTTL})
		if err != nil {
			slog.DebugContext(
				ctx, "failed to cache month query",
				slog.String("error", err.Error()),
				slog.String("module", "repository"),
			)
		}
	}
	return byDate, nil
}

func (r *CachedRecordRepository) Insert(ctx context.Context, record milkyway.Record) error {
	if err := r.inner.Insert(ctx, record); err != nil {
		return err
	}
	r.bump(ctx)
	return nil
}

func (r *CachedRecordRepository) Update(ctx context.Context, id string, patch milkyway.RecordPatch) (milkyway.Record, error) {
	updated, err := r.inner.Update(ctx, id, patch)
	if err != nil {
		return milkyway.Record{}, err
	}
	r.bump(ctx)
	return updated, nil
}

func (r *CachedRecordRepository) Delete(ctx context.Context, id string) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	r.bump(ctx)
	return nil
}

func (r *CachedRecordRepository) monthKey(year, month int) string {
	ver := "0"
	if item, err := r.cache.Get(versionKey); err == nil {
		ver = string(item.Value)
	}
	return fmt.Sprintf("records:v%s:month:%s", ver, milkyway.MonthPrefix(year, month))
}

// bump invalidates all cached months. Cache faults degrade to stale
// reads bounded by the item TTL, never to a failed mutation.
func (r *CachedRecordRepository) bump(ctx context.Context) {
	_, err := r.cache.Increment(versionKey, 1)
	if err == memcache.ErrCacheMiss {
		err = r.cache.Set(&memcache.Item{Key: versionKey, Value: []byte("1")})
	}
	if err != nil {
		slog.DebugContext(
			ctx, "failed to bump cache version",
			slog.String("error", err.Error()),
			slog.String("module", "repository"),
		)
	}
}
