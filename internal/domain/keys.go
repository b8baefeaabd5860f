package domain

import "context"

type CtxKey string

const (
	KeyUserID    CtxKey = "UserID"
	KeyUserEmail CtxKey = "Email"
	KeyUserRole  CtxKey = "Role"
	KeyRequestID CtxKey = "RequestID"
)

// WithIdentity stores the authenticated caller on ctx.
func WithIdentity(ctx context.Context, userID, email, role string) context.Context {
	ctx = context.WithValue(ctx, KeyUserID, userID)
	ctx = context.WithValue(ctx, KeyUserEmail, email)
	return context.WithValue(ctx, KeyUserRole, role)
}

// UserIDFrom returns the authenticated account ID carried by ctx, or "".
func UserIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(KeyUserID).(string)
	return id
}

// RoleFrom returns the authenticated account role carried by ctx, or "".
func RoleFrom(ctx context.Context) string {
	role, _ := ctx.Value(KeyUserRole).(string)
	return role
}

// RequestIDFrom returns the request ID carried by ctx, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(KeyRequestID).(string)
	return id
}
