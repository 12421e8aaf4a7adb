package authz

import (
	"context"
	"errors"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// AdminUser is the dashboard operator attached to an authenticated request.
type AdminUser struct {
	ID    int64
	Email string
}

type adminContextKey struct{}

func ContextWithAdmin(ctx context.Context, admin *AdminUser) context.Context {
	return context.WithValue(ctx, adminContextKey{}, admin)
}

// AdminFromContext retrieves the AdminUser stored in ctx.
// It returns nil if ctx is nil, if no admin is stored, or if the stored value has a different type.
func AdminFromContext(ctx context.Context) *AdminUser {
	if ctx == nil {
		return nil
	}

	admin, ok := ctx.Value(adminContextKey{}).(*AdminUser)
	if !ok {
		return nil
	}

	return admin
}

func RequireAdmin(ctx context.Context) error {
	admin := AdminFromContext(ctx)
	if admin == nil {
		return ErrUnauthenticated
	}
	if admin.ID <= 0 {
		return ErrForbidden
	}
	return nil
}
