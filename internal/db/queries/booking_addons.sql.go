package queries

import (
	"context"
)

const addBookingAddon = `INSERT INTO booking_addons (booking_id, addon_id) VALUES (?, ?)`

type AddBookingAddonParams struct {
	BookingID int64
	AddonID   int64
}

func (q *Queries) AddBookingAddon(ctx context.Context, arg AddBookingAddonParams) error {
	_, err := q.db.ExecContext(ctx, addBookingAddon, arg.BookingID, arg.AddonID)
	return err
}

const deleteBookingAddons = `DELETE FROM booking_addons WHERE booking_id = ?`

func (q *Queries) DeleteBookingAddons(ctx context.Context, bookingID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteBookingAddons, bookingID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listBookingAddons = `SELECT s.id, s.name, s.description, s.duration_minutes, s.price_cents, s.is_addon, s.is_active,
       s.created_at, s.updated_at
FROM booking_addons ba
JOIN services s ON s.id = ba.addon_id
WHERE ba.booking_id = ?
ORDER BY s.name, s.id`

func (q *Queries) ListBookingAddons(ctx context.Context, bookingID int64) ([]Service, error) {
	rows, err := q.db.QueryContext(ctx, listBookingAddons, bookingID)
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
