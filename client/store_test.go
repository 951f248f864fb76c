package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/toripushy/milkyway-calendar"
)

// fakeRemote is a minimal in-memory record store server.
type fakeRemote struct {
	mu      sync.Mutex
	records []milkyway.Record
}

func (f *fakeRemote) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/records", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			all := append([]milkyway.Record{}, f.records...)
			milkyway.SortNewestFirst(all)
			json.NewEncoder(w).Encode(all)
		case http.MethodPost:
			var record milkyway.Record
			json.NewDecoder(r.Body).Decode(&record)
			f.records = append(f.records, record)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]any{"success": true, "id": record.ID})
		}
	})
	mux.HandleFunc("/records/month/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/records/month/"), "/")
		year := atoi(parts[0])
		month := atoi(parts[1])
		json.NewEncoder(w).Encode(milkyway.GroupByMonth(f.records, year, month))
	})
	mux.HandleFunc("/records/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id := strings.TrimPrefix(r.URL.Path, "/records/")
		switch r.Method {
		case http.MethodPut:
			var patch milkyway.RecordPatch
			json.NewDecoder(r.Body).Decode(&patch)
			for i, rec := range f.records {
				if rec.ID == id {
					f.records[i] = rec.Apply(patch)
					json.NewEncoder(w).Encode(map[string]any{"success": true})
					return
				}
			}
			w.WriteHeader(http.StatusNotFound)
		case http.MethodDelete:
			kept := f.records[:0]
			for _, rec := range f.records {
				if rec.ID != id {
					kept = append(kept, rec)
				}
			}
			f.records = kept
			json.NewEncoder(w).Encode(map[string]any{"success": true})
		}
	})
	return mux
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

func newTestStore(t *testing.T, baseURL string) *Store {
	t.Helper()
	cache := NewLocalCache(filepath.Join(t.TempDir(), "records.json"))
	return NewStore(New(baseURL), cache)
}

func TestStoreAddIsOptimisticAndMirrored(t *testing.T) {
	remote := &fakeRemote{}
	server := httptest.NewServer(remote.handler())
	defer server.Close()

	store := newTestStore(t, server.URL)
	store.Add(record("a", "2024-03-01", "2024-03-01T08:00:00Z"))

	// Read-your-writes against the cache, before the mirror settles.
	if got := store.Records(); len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("expected immediate local visibility, got %+v", got)
	}

	store.Wait()
	remote.mu.Lock()
	defer remote.mu.Unlock()
	if len(remote.records) != 1 || remote.records[0].ID != "a" {
		t.Fatalf("expected mirrored insert, got %+v", remote.records)
	}
}

func TestStoreAddSurvivesUnreachableRemote(t *testing.T) {
	store := newTestStore(t, "http://127.0.0.1:1")

	store.Add(record("a", "2024-03-01", "2024-03-01T08:00:00Z"))
	store.Wait()

	if got := store.Records(); len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("record must stay in local cache after failed mirror, got %+v", got)
	}
}

func TestStoreUpdateAndDeleteAreOptimistic(t *testing.T) {
	remote := &fakeRemote{}
	server := httptest.NewServer(remote.handler())
	defer server.Close()

	store := newTestStore(t, server.URL)
	store.Add(record("a", "2024-03-01", "2024-03-01T08:00:00Z"))
	store.Add(record("b", "2024-03-02", "2024-03-02T08:00:00Z"))
	store.Wait()

	shop := "night market"
	store.Update("a", milkyway.RecordPatch{Shop: &shop})
	if got := store.Records(); got[0].Shop == nil || *got[0].Shop != shop {
		t.Fatalf("update must be locally visible at once, got %+v", got[0])
	}

	store.Delete("b")
	if got := store.Records(); len(got) != 1 {
		t.Fatalf("delete must be locally visible at once, got %+v", got)
	}

	store.Wait()
	remote.mu.Lock()
	defer remote.mu.Unlock()
	if len(remote.records) != 1 || remote.records[0].Shop == nil {
		t.Fatalf("expected mirrored update and delete, got %+v", remote.records)
	}
}

func TestStoreRefreshOverwritesLocalOnlyRecords(t *testing.T) {
	remote := &fakeRemote{records: []milkyway.Record{
		record("remote", "2024-03-05", "2024-03-05T08:00:00Z"),
	}}
	server := httptest.NewServer(remote.handler())
	defer server.Close()

	store := newTestStore(t, server.URL)

	// A record that never reached the remote store.
	store.cache.Append(record("local-only", "2024-03-01", "2024-03-01T08:00:00Z"))

	store.Refresh(context.Background())

	got := store.Records()
	if len(got) != 1 || got[0].ID != "remote" {
		t.Fatalf("refresh must replace the cache with the remote set, got %+v", got)
	}
}

func TestStoreRefreshFailureKeepsCache(t *testing.T) {
	store := newTestStore(t, "http://127.0.0.1:1")
	store.cache.Append(record("a", "2024-03-01", "2024-03-01T08:00:00Z"))

	store.Refresh(context.Background())

	if got := store.Records(); len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("failed refresh must leave the cache untouched, got %+v", got)
	}
}

func TestStoreMonthProjectionFallbackMatchesRemote(t *testing.T) {
	seed := []milkyway.Record{
		record("a", "2024-03-01", "2024-03-01T08:00:00Z"),
		record("b", "2024-03-01", "2024-03-01T12:00:00Z"),
		record("c", "2024-03-02", "2024-03-02T09:00:00Z"),
		record("d", "2024-04-01", "2024-04-01T09:00:00Z"),
	}

	remote := &fakeRemote{records: seed}
	server := httptest.NewServer(remote.handler())

	store := newTestStore(t, server.URL)
	store.Refresh(context.Background())

	authoritative := store.RecordsByMonth(context.Background(), 2024, 3)

	// Take the remote away; the projection must now come from the local
	// cache and be indistinguishable.
	server.Close()
	store.api.months.Flush()

	fallback := store.RecordsByMonth(context.Background(), 2024, 3)

	if !reflect.DeepEqual(authoritative, fallback) {
		t.Fatalf("projections diverge:\nremote %+v\nlocal  %+v", authoritative, fallback)
	}
	if len(fallback) != 2 {
		t.Fatalf("expected 2 dates in march, got %+v", fallback)
	}
	day := fallback["2024-03-01"]
	if len(day) != 2 || day[0].ID != "a" || day[1].ID != "b" {
		t.Fatalf("expected ascending createdAt within a date, got %+v", day)
	}
}

func TestStoreBroadcastsSnapshotsToSubscribers(t *testing.T) {
	store := newTestStore(t, "http://127.0.0.1:1")

	var snapshots [][]milkyway.Record
	cancel := store.Subscribe(func(snapshot []milkyway.Record) {
		snapshots = append(snapshots, snapshot)
	})

	store.Add(record("a", "2024-03-01", "2024-03-01T08:00:00Z"))
	store.Delete("a")

	if len(snapshots) != 2 {
		t.Fatalf("expected a broadcast per mutation, got %d", len(snapshots))
	}
	if len(snapshots[0]) != 1 || len(snapshots[1]) != 0 {
		t.Fatalf("broadcasts must carry the full current snapshot, got %+v", snapshots)
	}

	cancel()
	store.Add(record("b", "2024-03-02", "2024-03-02T08:00:00Z"))
	if len(snapshots) != 2 {
		t.Fatalf("cancelled subscriber must not be notified")
	}
	store.Wait()
}
