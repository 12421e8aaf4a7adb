package queries

import (
	"context"
)

const getAdminUserByEmail = `SELECT id, email, password_hash, created_at FROM admin_users WHERE email = ?`

func (q *Queries) GetAdminUserByEmail(ctx context.Context, email string) (AdminUser, error) {
	row := q.db.QueryRowContext(ctx, getAdminUserByEmail, email)
	var i AdminUser
	err := row.Scan(&i.ID, &i.Email, &i.PasswordHash, &i.CreatedAt)
	return i, err
}

const upsertAdminUser = `INSERT INTO admin_users (email, password_hash) VALUES (?, ?)
ON CONFLICT (email) DO UPDATE SET password_hash = excluded.password_hash`

type UpsertAdminUserParams struct {
	Email        string
	PasswordHash string
}

func (q *Queries) UpsertAdminUser(ctx context.Context, arg UpsertAdminUserParams) (AdminUser, error) {
	if _, err := q.db.ExecContext(ctx, upsertAdminUser, arg.Email, arg.PasswordHash); err != nil {
		return AdminUser{}, err
	}
	return q.GetAdminUserByEmail(ctx, arg.Email)
}
