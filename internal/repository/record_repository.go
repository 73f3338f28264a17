package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/gridbase/gridbase/internal/utils"
)

// Record is a row of user data inside a table. Fields are stored as a JSON
// document; this subsystem treats them as opaque.
type Record struct {
	ID        string
	TableID   string
	Fields    json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

type RecordRepo struct{ DB *sql.DB }

func NewRecordRepo(db *sql.DB) *RecordRepo { return &RecordRepo{DB: db} }

// Create inserts a record into a table.
func (r *RecordRepo) Create(ctx context.Context, tableID string, fields json.RawMessage) (Record, error) {
	id, err := utils.NewID(utils.IDPrefixRecord)
	if err != nil {
		return Record{}, err
	}
	now := time.Now().UTC()
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO records (id, table_id, fields, created_at, updated_at) VALUES (?,?,?,?,?)",
		id, tableID, []byte(fields), now, now)
	if err != nil {
		return Record{}, err
	}
	return Record{ID: id, TableID: tableID, Fields: fields, CreatedAt: now, UpdatedAt: now}, nil
}

// GetByID fetches one record and the table it belongs to, so callers can
// resolve access on the owning table before returning anything.
func (r *RecordRepo) GetByID(ctx context.Context, id string) (Record, error) {
	var (
		rec    Record
		fields []byte
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, table_id, fields, created_at, updated_at FROM records WHERE id=? LIMIT 1", id).
		Scan(&rec.ID, &rec.TableID, &fields, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	rec.Fields = json.RawMessage(fields)
	return rec, nil
}

// ListByTable returns all records of a table, oldest first.
func (r *RecordRepo) ListByTable(ctx context.Context, tableID string) ([]Record, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, table_id, fields, created_at, updated_at FROM records WHERE table_id=? ORDER BY created_at ASC",
		tableID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec    Record
			fields []byte
		)
		if err := rows.Scan(&rec.ID, &rec.TableID, &fields, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		rec.Fields = json.RawMessage(fields)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Update replaces the record's fields.
func (r *RecordRepo) Update(ctx context.Context, id string, fields json.RawMessage) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE records SET fields=?, updated_at=? WHERE id=?",
		[]byte(fields), time.Now().UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes one record.
func (r *RecordRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM records WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
