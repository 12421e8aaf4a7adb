package queries

import (
	"context"
)

const serviceColumns = `id, name, description, duration_minutes, price_cents, is_addon, is_active, created_at, updated_at`

func scanService(row interface{ Scan(...any) error }) (Service, error) {
	var i Service
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Description,
		&i.DurationMinutes,
		&i.PriceCents,
		&i.IsAddon,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getService = `SELECT ` + serviceColumns + ` FROM services WHERE id = ?`

func (q *Queries) GetService(ctx context.Context, id int64) (Service, error) {
	return scanService(q.db.QueryRowContext(ctx, getService, id))
}

const listServices = `SELECT ` + serviceColumns + ` FROM services ORDER BY is_addon, name, id`

func (q *Queries) ListServices(ctx context.Context) ([]Service, error) {
	rows, err := q.db.QueryContext(ctx, listServices)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Service{}
	for rows.Next() {
		i, err := scanService(rows)
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

const listActiveServices = `SELECT ` + serviceColumns + ` FROM services
WHERE is_active = 1 AND is_addon = ?
ORDER BY name, id`

func (q *Queries) ListActiveServices(ctx context.Context, isAddon bool) ([]Service, error) {
	rows, err := q.db.QueryContext(ctx, listActiveServices, isAddon)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Service{}
	for rows.Next() {
		i, err := scanService(rows)
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

const createService = `INSERT INTO services (name, description, duration_minutes, price_cents, is_addon, is_active)
VALUES (?, ?, ?, ?, ?, ?)`

type CreateServiceParams struct {
	Name            string
	Description     string
	DurationMinutes int64
	PriceCents      int64
	IsAddon         bool
	IsActive        bool
}

func (q *Queries) CreateService(ctx context.Context, arg CreateServiceParams) (Service, error) {
	result, err := q.db.ExecContext(ctx, createService,
		arg.Name,
		arg.Description,
		arg.DurationMinutes,
		arg.PriceCents,
		arg.IsAddon,
		arg.IsActive,
	)
	if err != nil {
		return Service{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Service{}, err
	}
	return q.GetService(ctx, id)
}

const updateService = `UPDATE services
SET name = ?, description = ?, duration_minutes = ?, price_cents = ?, is_addon = ?, is_active = ?,
    updated_at = CURRENT_TIMESTAMP
WHERE id = ?`

type UpdateServiceParams struct {
	ID              int64
	Name            string
	Description     string
	DurationMinutes int64
	PriceCents      int64
	IsAddon         bool
	IsActive        bool
}

// UpdateService returns sql.ErrNoRows when the service does not exist.
func (q *Queries) UpdateService(ctx context.Context, arg UpdateServiceParams) (Service, error) {
	result, err := q.db.ExecContext(ctx, updateService,
		arg.Name,
		arg.Description,
		arg.DurationMinutes,
		arg.PriceCents,
		arg.IsAddon,
		arg.IsActive,
		arg.ID,
	)
	if err != nil {
		return Service{}, err
	}
	if _, err := result.RowsAffected(); err != nil {
		return Service{}, err
	}
	return q.GetService(ctx, arg.ID)
}

const deleteService = `DELETE FROM services WHERE id = ?`

func (q *Queries) DeleteService(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteService, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
