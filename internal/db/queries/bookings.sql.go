package queries

import (
	"context"
)

const bookingDetailColumns = `b.id, b.service_id, b.day, b.start_time, b.client_name, b.client_phone, b.client_email,
       b.language, b.notes, b.token, b.created_at, b.updated_at,
       s.name, s.duration_minutes, s.price_cents`

type BookingDetailRow struct {
	Booking
	ServiceName            string `json:"service_name"`
	ServiceDurationMinutes int64  `json:"service_duration_minutes"`
	ServicePriceCents      int64  `json:"service_price_cents"`
}

func scanBookingDetail(row interface{ Scan(...any) error }) (BookingDetailRow, error) {
	var i BookingDetailRow
	err := row.Scan(
		&i.ID,
		&i.ServiceID,
		&i.Day,
		&i.StartTime,
		&i.ClientName,
		&i.ClientPhone,
		&i.ClientEmail,
		&i.Language,
		&i.Notes,
		&i.Token,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.ServiceName,
		&i.ServiceDurationMinutes,
		&i.ServicePriceCents,
	)
	return i, err
}

func (q *Queries) listBookingDetails(ctx context.Context, query string, args ...interface{}) ([]BookingDetailRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []BookingDetailRow{}
	for rows.Next() {
		i, err := scanBookingDetail(rows)
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

const createBooking = `INSERT INTO bookings (service_id, day, start_time, client_name, client_phone, client_email, language, notes, token)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

type CreateBookingParams struct {
	ServiceID   int64
	Day         string
	StartTime   string
	ClientName  string
	ClientPhone string
	ClientEmail string
	Language    string
	Notes       string
	Token       string
}

// CreateBooking inserts a booking row and returns its id.
func (q *Queries) CreateBooking(ctx context.Context, arg CreateBookingParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, createBooking,
		arg.ServiceID,
		arg.Day,
		arg.StartTime,
		arg.ClientName,
		arg.ClientPhone,
		arg.ClientEmail,
		arg.Language,
		arg.Notes,
		arg.Token,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const getBookingDetail = `SELECT ` + bookingDetailColumns + `
FROM bookings b
JOIN services s ON s.id = b.service_id
WHERE b.id = ?`

func (q *Queries) GetBookingDetail(ctx context.Context, id int64) (BookingDetailRow, error) {
	return scanBookingDetail(q.db.QueryRowContext(ctx, getBookingDetail, id))
}

const getBookingDetailByToken = `SELECT ` + bookingDetailColumns + `
FROM bookings b
JOIN services s ON s.id = b.service_id
WHERE b.token = ?`

func (q *Queries) GetBookingDetailByToken(ctx context.Context, token string) (BookingDetailRow, error) {
	return scanBookingDetail(q.db.QueryRowContext(ctx, getBookingDetailByToken, token))
}

const listBookingDetailsBetween = `SELECT ` + bookingDetailColumns + `
FROM bookings b
JOIN services s ON s.id = b.service_id
WHERE b.day >= ? AND b.day <= ?
ORDER BY b.day, b.start_time, b.id`

type ListBookingDetailsBetweenParams struct {
	FromDay string
	ToDay   string
}

func (q *Queries) ListBookingDetailsBetween(ctx context.Context, arg ListBookingDetailsBetweenParams) ([]BookingDetailRow, error) {
	return q.listBookingDetails(ctx, listBookingDetailsBetween, arg.FromDay, arg.ToDay)
}

const updateBooking = `UPDATE bookings
SET service_id = ?, day = ?, start_time = ?, client_name = ?, client_phone = ?, client_email = ?,
    language = ?, notes = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?`

type UpdateBookingParams struct {
	ID          int64
	ServiceID   int64
	Day         string
	StartTime   string
	ClientName  string
	ClientPhone string
	ClientEmail string
	Language    string
	Notes       string
}

func (q *Queries) UpdateBooking(ctx context.Context, arg UpdateBookingParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateBooking,
		arg.ServiceID,
		arg.Day,
		arg.StartTime,
		arg.ClientName,
		arg.ClientPhone,
		arg.ClientEmail,
		arg.Language,
		arg.Notes,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteBooking = `DELETE FROM bookings WHERE id = ?`

func (q *Queries) DeleteBooking(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteBooking, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countBookings = `SELECT COUNT(*) FROM bookings`

func (q *Queries) CountBookings(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countBookings).Scan(&count)
	return count, err
}

type BookingSpanRow struct {
	ID              int64
	StartTime       string
	DurationMinutes int64
}

const listBookingSpansByDay = `SELECT b.id, b.start_time,
       s.duration_minutes + COALESCE((
           SELECT SUM(a.duration_minutes)
           FROM booking_addons ba
           JOIN services a ON a.id = ba.addon_id
           WHERE ba.booking_id = b.id
       ), 0) AS duration_minutes
FROM bookings b
JOIN services s ON s.id = b.service_id
WHERE b.day = ?
ORDER BY b.start_time, b.id`

// ListBookingSpansByDay reports each booking's start and total duration,
// add-ons included. Requires the booking_addons table.
func (q *Queries) ListBookingSpansByDay(ctx context.Context, day string) ([]BookingSpanRow, error) {
	return q.listBookingSpans(ctx, listBookingSpansByDay, day)
}

const listServiceSpansByDay = `SELECT b.id, b.start_time, s.duration_minutes
FROM bookings b
JOIN services s ON s.id = b.service_id
WHERE b.day = ?
ORDER BY b.start_time, b.id`

// ListServiceSpansByDay is ListBookingSpansByDay for schemas without add-ons.
func (q *Queries) ListServiceSpansByDay(ctx context.Context, day string) ([]BookingSpanRow, error) {
	return q.listBookingSpans(ctx, listServiceSpansByDay, day)
}

func (q *Queries) listBookingSpans(ctx context.Context, query string, day string) ([]BookingSpanRow, error) {
	rows, err := q.db.QueryContext(ctx, query, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []BookingSpanRow{}
	for rows.Next() {
		var i BookingSpanRow
		if err := rows.Scan(&i.ID, &i.StartTime, &i.DurationMinutes); err != nil {
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
