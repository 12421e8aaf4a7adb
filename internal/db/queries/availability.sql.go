package queries

import (
	"context"
	"database/sql"
)

const availabilityColumns = `id, day, start_time, end_time, is_blocked, block_reason, created_at`

func scanAvailability(row interface{ Scan(...any) error }) (Availability, error) {
	var i Availability
	err := row.Scan(
		&i.ID,
		&i.Day,
		&i.StartTime,
		&i.EndTime,
		&i.IsBlocked,
		&i.BlockReason,
		&i.CreatedAt,
	)
	return i, err
}

func (q *Queries) listAvailability(ctx context.Context, query string, args ...interface{}) ([]Availability, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Availability{}
	for rows.Next() {
		i, err := scanAvailability(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getAvailability = `SELECT ` + availabilityColumns + ` FROM availability WHERE id = ?`

func (q *Queries) GetAvailability(ctx context.Context, id int64) (Availability, error) {
	return scanAvailability(q.db.QueryRowContext(ctx, getAvailability, id))
}

const listAvailabilityByDay = `SELECT ` + availabilityColumns + ` FROM availability
WHERE day = ?
ORDER BY start_time, id`

func (q *Queries) ListAvailabilityByDay(ctx context.Context, day string) ([]Availability, error) {
	return q.listAvailability(ctx, listAvailabilityByDay, day)
}

const listAvailabilityBetween = `SELECT ` + availabilityColumns + ` FROM availability
WHERE day >= ? AND day <= ?
ORDER BY day, start_time, id`

type ListAvailabilityBetweenParams struct {
	FromDay string
	ToDay   string
}

func (q *Queries) ListAvailabilityBetween(ctx context.Context, arg ListAvailabilityBetweenParams) ([]Availability, error) {
	return q.listAvailability(ctx, listAvailabilityBetween, arg.FromDay, arg.ToDay)
}

const createAvailability = `INSERT INTO availability (day, start_time, end_time, is_blocked, block_reason)
VALUES (?, ?, ?, ?, ?)`

type CreateAvailabilityParams struct {
	Day         string
	StartTime   string
	EndTime     string
	IsBlocked   bool
	BlockReason sql.NullString
}

func (q *Queries) CreateAvailability(ctx context.Context, arg CreateAvailabilityParams) (Availability, error) {
	result, err := q.db.ExecContext(ctx, createAvailability,
		arg.Day,
		arg.StartTime,
		arg.EndTime,
		arg.IsBlocked,
		arg.BlockReason,
	)
	if err != nil {
		return Availability{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Availability{}, err
	}
	return q.GetAvailability(ctx, id)
}

const updateAvailability = `UPDATE availability
SET day = ?, start_time = ?, end_time = ?, is_blocked = ?, block_reason = ?
WHERE id = ?`

type UpdateAvailabilityParams struct {
	ID          int64
	Day         string
	StartTime   string
	EndTime     string
	IsBlocked   bool
	BlockReason sql.NullString
}

// UpdateAvailability replaces every field of the window. It returns
// sql.ErrNoRows when the window does not exist.
func (q *Queries) UpdateAvailability(ctx context.Context, arg UpdateAvailabilityParams) (Availability, error) {
	if _, err := q.db.ExecContext(ctx, updateAvailability,
		arg.Day,
		arg.StartTime,
		arg.EndTime,
		arg.IsBlocked,
		arg.BlockReason,
		arg.ID,
	); err != nil {
		return Availability{}, err
	}
	return q.GetAvailability(ctx, arg.ID)
}

const deleteAvailability = `DELETE FROM availability WHERE id = ?`

func (q *Queries) DeleteAvailability(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteAvailability, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
