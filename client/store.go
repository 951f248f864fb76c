package client

import (
	"context"
	"log/slog"
	"sync"

	"github.com/toripushy/milkyway-calendar"
)

// Store coordinates the local cache with the remote record store.
//
// Mutations are optimistic: the local cache is updated synchronously so
// readers see the change immediately, then the mutation is mirrored to
// the remote store in a detached task whose outcome is only logged. A
// failed mirror is not retried; the record stays local-only until the
// next successful Refresh overwrites the cache with the remote state.
// That full overwrite is the accepted data-loss window for unmirrored
// records.
type Store struct {
	api   *Client
	cache *LocalCache

	mu      sync.Mutex
	subs    map[int]func([]milkyway.Record)
	nextSub int

	mirrors sync.WaitGroup
}

func NewStore(api *Client, cache *LocalCache) *Store {
	return &Store{
		api:   api,
		cache: cache,
		subs:  map[int]func([]milkyway.Record){},
	}
}

// Records is the synchronous read path: the local cache as-is.
// Reads after a mutation always reflect that mutation.
func (s *Store) Records() []milkyway.Record {
	return s.cache.ReadAll()
}

// Add appends the record locally and mirrors the insert remotely.
func (s *Store) Add(record milkyway.Record) {
	record = record.Normalized()
	s.cache.Append(record)
	s.notify()

	s.mirror("create", record.ID, func(ctx context.Context) error {
		return s.api.Insert(ctx, record)
	})
}

// Update patches the record locally and mirrors the update remotely.
func (s *Store) Update(id string, patch milkyway.RecordPatch) {
	s.cache.MergePatch(id, patch)
	s.notify()

	s.mirror("update", id, func(ctx context.Context) error {
		return s.api.Update(ctx, id, patch)
	})
}

// Delete removes the record locally and mirrors the delete remotely.
func (s *Store) Delete(id string) {
	s.cache.Remove(id)
	s.notify()

	s.mirror("delete", id, func(ctx context.Context) error {
		return s.api.Delete(ctx, id)
	})
}

// Refresh pulls the authoritative listing and overwrites the local
// cache with it, discarding records that were never mirrored. On
// failure the cache is left untouched and keeps serving reads.
func (s *Store) Refresh(ctx context.Context) {
	records, err := s.api.List(ctx)
	if err != nil {
		slog.Warn(
			"refresh failed, keeping local cache",
			slog.String("error", err.Error()),
			slog.String("module", "store"),
		)
		return
	}

	s.cache.ReplaceAll(records)
	s.notify()
}

// RecordsByMonth prefers the authoritative projection and silently
// recomputes from the local cache when the remote store is unreachable.
func (s *Store) RecordsByMonth(ctx context.Context, year, month int) map[string][]milkyway.Record {
	byDate, err := s.authoritative(ctx, year, month)
	if err != nil {
		slog.Warn(
			"month query failed, using local cache",
			slog.String("error", err.Error()),
			slog.String("module", "store"),
		)
		return s.cached(year, month)
	}
	return byDate
}

func (s *Store) authoritative(ctx context.Context, year, month int) (map[string][]milkyway.Record, error) {
	return s.api.ListByMonth(ctx, year, month)
}

func (s *Store) cached(year, month int) map[string][]milkyway.Record {
	return milkyway.GroupByMonth(s.cache.ReadAll(), year, month)
}

// Subscribe registers a reader for cache change broadcasts. Every
// successful local mutation pushes the full current snapshot to all
// subscribers; there is no diffing. The returned function cancels the
// subscription.
func (s *Store) Subscribe(fn func(snapshot []milkyway.Record)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Wait blocks until in-flight mirror writes settle. Meant for shutdown;
// callers of the mutation methods never wait on mirroring.
func (s *Store) Wait() {
	s.mirrors.Wait()
}

func (s *Store) notify() {
	snapshot := s.cache.ReadAll()

	s.mu.Lock()
	subs := make([]func([]milkyway.Record), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// mirror runs op detached. The caller never observes its outcome; a
// failure leaves the mutation local-only and is only logged.
func (s *Store) mirror(kind, id string, op func(ctx context.Context) error) {
	s.mirrors.Add(1)
	go func() {
		defer s.mirrors.Done()
		if err := op(context.Background()); err != nil {
			slog.Warn(
				"failed to mirror "+kind+", change kept locally",
				slog.String("id", id),
				slog.String("error", err.Error()),
				slog.String("module", "store"),
			)
		}
	}()
}
