package usecase

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"

	"github.com/toripushy/milkyway-calendar"
	"github.com/toripushy/milkyway-calendar/internal/domain"
)

var tracer = otel.Tracer("record")

type RecordUsecase struct {
	repo   RecordRepository
	signal ChangePublisher
}

// NewRecordUsecase wires the repository and an optional change publisher.
// A nil publisher disables realtime notification.
func NewRecordUsecase(repo RecordRepository, signal ChangePublisher) *RecordUsecase {
	return &RecordUsecase{repo: repo, signal: signal}
}

func (uc *RecordUsecase) List(ctx context.Context) ([]milkyway.Record, error) {
	ctx, span := tracer.Start(ctx, "Record.Usecase.List")
	defer span.End()

	return uc.repo.List(ctx)
}

func (uc *RecordUsecase) ListByMonth(ctx context.Context, year, month int) (map[string][]milkyway.Record, error) {
	ctx, span := tracer.Start(ctx, "Record.Usecase.ListByMonth")
	defer span.End()

	return uc.repo.ListByMonth(ctx, year, month)
}

func (uc *RecordUsecase) Create(ctx context.Context, record milkyway.Record) error {
	ctx, span := tracer.Start(ctx, "Record.Usecase.Create")
	defer span.End()

	record = record.Normalized()
	if err := record.Validate(); err != nil {
		return domain.ValidationError{Reason: err.Error()}
	}

	if err := uc.repo.Insert(ctx, record); err != nil {
		span.RecordError(err)
		return err
	}

	uc.publish(ctx, milkyway.ChangeEvent{
		Type:   milkyway.ChangeCreated,
		ID:     record.ID,
		Date:   record.Date,
		Record: &record,
	})
	return nil
}

func (uc *RecordUsecase) Update(ctx context.Context, id string, patch milkyway.RecordPatch) error {
	ctx, span := tracer.Start(ctx, "Record.Usecase.Update")
	defer span.End()

	updated, err := uc.repo.Update(ctx, id, patch)
	if err != nil {
		span.RecordError(err)
		return err
	}

	uc.publish(ctx, milkyway.ChangeEvent{
		Type:   milkyway.ChangeUpdated,
		ID:     id,
		Date:   updated.Date,
		Record: &updated,
	})
	return nil
}

func (uc *RecordUsecase) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Record.Usecase.Delete")
	defer span.End()

	if err := uc.repo.Delete(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}

	uc.publish(ctx, milkyway.ChangeEvent{Type: milkyway.ChangeDeleted, ID: id})
	return nil
}

// publish is best-effort: a broken signal channel never fails the mutation.
func (uc *RecordUsecase) publish(ctx context.Context, event milkyway.ChangeEvent) {
	if uc.signal == nil {
		return
	}
	if err := uc.signal.PublishChange(ctx, event); err != nil {
		slog.WarnContext(
			ctx, "failed to publish change event",
			slog.String("error", err.Error()),
			slog.String("module", "usecase"),
		)
	}
}
