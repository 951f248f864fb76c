package client

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"

	"github.com/toripushy/milkyway-calendar"
)

// LocalCache is the client-resident mirror of the record list, persisted
// as a JSON file so it survives across sessions. It is the synchronous
// read path and the fallback when the record store is unreachable.
//
// It never fails observably: a missing or corrupted file reads as an
// empty list, and write faults degrade to keeping the previous state.
type LocalCache struct {
	mu   sync.Mutex
	path string
}

func NewLocalCache(path string) *LocalCache {
	return &LocalCache{path: path}
}

func (l *LocalCache) ReadAll() []milkyway.Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

func (l *LocalCache) ReplaceAll(records []milkyway.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.save(records)
}

func (l *LocalCache) Append(record milkyway.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.save(append(l.load(), record))
}

// MergePatch applies a partial update to the cached record with the
// given id. An unknown id is a no-op.
func (l *LocalCache) MergePatch(id string, patch milkyway.RecordPatch) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records := l.load()
	for i, r := range records {
		if r.ID == id {
			records[i] = r.Apply(patch)
			l.save(records)
			return
		}
	}
}

func (l *LocalCache) Remove(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records := l.load()
	kept := records[:0]
	for _, r := range records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	l.save(kept)
}

func (l *LocalCache) load() []milkyway.Record {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return []milkyway.Record{}
	}

	var records []milkyway.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		slog.Debug(
			"local cache unreadable, starting empty",
			slog.String("error", err.Error()),
			slog.String("module", "cache"),
		)
		return []milkyway.Record{}
	}
	if records == nil {
		return []milkyway.Record{}
	}
	return records
}

func (l *LocalCache) save(records []milkyway.Record) {
	payload, err := json.Marshal(records)
	if err != nil {
		slog.Warn(
			"failed to encode local cache",
			slog.String("error", err.Error()),
			slog.String("module", "cache"),
		)
		return
	}
	if err := os.WriteFile(l.path, payload, 0644); err != nil {
		slog.Warn(
			"failed to write local cache",
			slog.String("error", err.Error()),
			slog.String("module", "cache"),
		)
	}
}
