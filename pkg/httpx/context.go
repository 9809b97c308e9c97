package httpx

import (
	"context"

	"github.com/twineproject/twine/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyUserEmail ctxKey = "user_email"
	CtxKeyUserRole  ctxKey = "user_role"
	CtxKeyClaims    ctxKey = "claims" // full jwtx.Claims
)

// ClaimsFromContext returns the verified claims injected by AuthnMiddleware.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(jwtx.Claims)
	return c, ok
}

// UserEmailFromContext returns the authenticated account email, if any.
func UserEmailFromContext(ctx context.Context) (string, bool) {
	e, ok := ctx.Value(CtxKeyUserEmail).(string)
	return e, ok
}
