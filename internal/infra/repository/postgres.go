package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/toripushy/milkyway-calendar"
	"github.com/toripushy/milkyway-calendar/internal/domain"
	"github.com/toripushy/milkyway-calendar/internal/infra/database/models"
)

// PostgresRecordRepository backs the record store with postgres. The
// database serializes writers itself, so unlike the sqlite store there
// is no process-level write lock; the update still runs its
// read-merge-write cycle inside one transaction with a row lock.
type PostgresRecordRepository struct {
	db *gorm.DB
}

func NewPostgresRecordRepository(db *gorm.DB) *PostgresRecordRepository {
	return &PostgresRecordRepository{db: db}
}

func (r *PostgresRecordRepository) List(ctx context.Context) ([]milkyway.Record, error) {
	var rows []models.Record
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to query records")
	}

	records := make([]milkyway.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, fromModel(row))
	}
	return records, nil
}

func (r *PostgresRecordRepository) ListByMonth(ctx context.Context, year, month int) (map[string][]milkyway.Record, error) {
	prefix := milkyway.MonthPrefix(year, month)

	var rows []models.Record
	err := r.db.WithContext(ctx).
		Where("date LIKE ?", prefix+"%").
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to query records by month")
	}

	byDate := map[string][]milkyway.Record{}
	for _, row := range rows {
		byDate[row.Date] = append(byDate[row.Date], fromModel(row))
	}
	return byDate, nil
}

func (r *PostgresRecordRepository) Insert(ctx context.Context, record milkyway.Record) error {
	record = record.Normalized()
	if err := record.Validate(); err != nil {
		return domain.ValidationError{Reason: err.Error()}
	}

	err := r.db.WithContext(ctx).Create(toModel(record)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ValidationError{Reason: "duplicate id: " + record.ID}
	}
	return errors.Wrap(err, "failed to insert record")
}

func (r *PostgresRecordRepository) Update(ctx context.Context, id string, patch milkyway.RecordPatch) (milkyway.Record, error) {
	var updated milkyway.Record
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.Record
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NotFoundError{Resource: "record"}
		}
		if err != nil {
			return errors.Wrap(err, "failed to load record")
		}

		updated = fromModel(row).Apply(patch)
		if err := updated.Validate(); err != nil {
			return domain.ValidationError{Reason: err.Error()}
		}
		return errors.Wrap(
			tx.Model(&models.Record{}).Where("id = ?", id).
				Select("*").Omit("id").Updates(toModel(updated)).Error,
			"failed to update record")
	})
	if err != nil {
		return milkyway.Record{}, err
	}
	return updated, nil
}

// Delete is idempotent: removing an unknown id succeeds.
func (r *PostgresRecordRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Delete(&models.Record{}, "id = ?", id).Error
	return errors.Wrap(err, "failed to delete record")
}

func toModel(r milkyway.Record) *models.Record {
	return &models.Record{
		ID:          r.ID,
		Date:        r.Date,
		Name:        r.Name,
		ImageBase64: r.ImageBase64,
		Price:       r.Price,
		SugarIce:    r.SugarIce,
		Rating:      r.Rating,
		Shop:        r.Shop,
		MoodNote:    r.MoodNote,
		IconID:      string(r.IconID),
		CreatedAt:   r.CreatedAt,
		Brand:       r.Brand,
		Ingredients: r.Ingredients,
		Calories:    r.Calories,
	}
}

func fromModel(m models.Record) milkyway.Record {
	return milkyway.Record{
		ID:          m.ID,
		Date:        m.Date,
		Name:        m.Name,
		ImageBase64: m.ImageBase64,
		Price:       m.Price,
		SugarIce:    m.SugarIce,
		Rating:      m.Rating,
		Shop:        m.Shop,
		MoodNote:    m.MoodNote,
		IconID:      milkyway.NormalizeIconID(milkyway.IconID(m.IconID)),
		CreatedAt:   m.CreatedAt,
		Brand:       m.Brand,
		Ingredients: m.Ingredients,
		Calories:    m.Calories,
	}
}
