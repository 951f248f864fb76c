package repository

import (
	"context"
	"database/sql"
	"sync"

	"github.com/pkg/errors"

	"github.com/toripushy/milkyway-calendar"
	"github.com/toripushy/milkyway-calendar/internal/domain"
)

const recordColumns = `id, date, name, imageBase64, price, sugarIce, rating, shop, moodNote, iconId, createdAt, brand, ingredients, calories`

// SQLiteRecordRepository is the file-backed record store. Mutations run
// as read-modify-write cycles against a single database file, so they
// hold one write lock for the whole cycle; a stale read must never
// overwrite a concurrent write.
type SQLiteRecordRepository struct {
	db *sql.DB
	mu sync.Mutex
}

func NewSQLiteRecordRepository(db *sql.DB) *SQLiteRecordRepository {
	return &SQLiteRecordRepository{db: db}
}

func (r *SQLiteRecordRepository) List(ctx context.Context) ([]milkyway.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records ORDER BY createdAt DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query records")
	}
	defer rows.Close()

	records := []milkyway.Record{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate records")
	}
	return records, nil
}

func (r *SQLiteRecordRepository) ListByMonth(ctx context.Context, year, month int) (map[string][]milkyway.Record, error) {
	prefix := milkyway.MonthPrefix(year, month)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE date LIKE ? ORDER BY createdAt ASC`,
		prefix+"%")
	if err != nil {
		return nil, errors.Wrap(err, "failed to query records by month")
	}
	defer rows.Close()

	byDate := map[string][]milkyway.Record{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		byDate[record.Date] = append(byDate[record.Date], record)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate records")
	}
	return byDate, nil
}

func (r *SQLiteRecordRepository) Insert(ctx context.Context, record milkyway.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record = record.Normalized()
	if err := record.Validate(); err != nil {
		return domain.ValidationError{Reason: err.Error()}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT id FROM records WHERE id = ?`, record.ID).Scan(&existing)
	if err == nil {
		return domain.ValidationError{Reason: "duplicate id: " + record.ID}
	}
	if err != sql.ErrNoRows {
		return errors.Wrap(err, "failed to check for duplicate id")
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO records (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.Date, record.Name, record.ImageBase64, record.Price,
		record.SugarIce, record.Rating, record.Shop, record.MoodNote,
		string(record.IconID), record.CreatedAt, record.Brand, record.Ingredients,
		record.Calories)
	if err != nil {
		return errors.Wrap(err, "failed to insert record")
	}

	return errors.Wrap(tx.Commit(), "failed to commit insert")
}

func (r *SQLiteRecordRepository) Update(ctx context.Context, id string, patch milkyway.RecordPatch) (milkyway.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return milkyway.Record{}, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	existing, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return milkyway.Record{}, domain.NotFoundError{Resource: "record"}
	}
	if err != nil {
		return milkyway.Record{}, err
	}

	updated := existing.Apply(patch)
	if err := updated.Validate(); err != nil {
		return milkyway.Record{}, domain.ValidationError{Reason: err.Error()}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE records SET
			date = ?, name = ?, imageBase64 = ?, price = ?, sugarIce = ?,
			rating = ?, shop = ?, moodNote = ?, iconId = ?, createdAt = ?,
			brand = ?, ingredients = ?, calories = ?
		WHERE id = ?`,
		updated.Date, updated.Name, updated.ImageBase64, updated.Price,
		updated.SugarIce, updated.Rating, updated.Shop, updated.MoodNote,
		string(updated.IconID), updated.CreatedAt, updated.Brand,
		updated.Ingredients, updated.Calories, id)
	if err != nil {
		return milkyway.Record{}, errors.Wrap(err, "failed to update record")
	}

	if err := tx.Commit(); err != nil {
		return milkyway.Record{}, errors.Wrap(err, "failed to commit update")
	}
	return updated, nil
}

// Delete is idempotent: removing an unknown id succeeds.
func (r *SQLiteRecordRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	return errors.Wrap(err, "failed to delete record")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (milkyway.Record, error) {
	var (
		record   milkyway.Record
		iconID   string
		image    sql.NullString
		price    sql.NullString
		sugarIce sql.NullString
		rating   sql.NullInt64
		shop     sql.NullString
		mood     sql.NullString
		brand    sql.NullString
		ingr     sql.NullString
		calories sql.NullInt64
	)

	err := row.Scan(&record.ID, &record.Date, &record.Name, &image, &price,
		&sugarIce, &rating, &shop, &mood, &iconID, &record.CreatedAt,
		&brand, &ingr, &calories)
	if err == sql.ErrNoRows {
		return milkyway.Record{}, err
	}
	if err != nil {
		return milkyway.Record{}, errors.Wrap(err, "failed to scan record")
	}

	record.IconID = milkyway.NormalizeIconID(milkyway.IconID(iconID))
	record.ImageBase64 = strPtr(image)
	record.Price = strPtr(price)
	record.SugarIce = strPtr(sugarIce)
	record.Rating = intPtr(rating)
	record.Shop = strPtr(shop)
	record.MoodNote = strPtr(mood)
	record.Brand = strPtr(brand)
	record.Ingredients = strPtr(ingr)
	record.Calories = intPtr(calories)
	return record, nil
}

func strPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
