package usecase

import (
	"context"

	"github.com/toripushy/milkyway-calendar"
)

// RecordRepository defines storage operations for beverage records.
type RecordRepository interface {
	List(ctx context.Context) ([]milkyway.Record, error)
	ListByMonth(ctx context.Context, year, month int) (map[string][]milkyway.Record, error)
	Insert(ctx context.Context, record milkyway.Record) error
	Update(ctx context.Context, id string, patch milkyway.RecordPatch) (milkyway.Record, error)
	Delete(ctx context.Context, id string) error
}

// ChangePublisher fans out record change events to realtime listeners.
type ChangePublisher interface {
	PublishChange(ctx context.Context, event milkyway.ChangeEvent) error
}
