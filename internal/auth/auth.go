// Package auth связывает заявленную в запросе личность с аутентифицированным вызовом.
package auth

import (
	"context"

	"github.com/senyabanana/sealed-tender/internal/models"
)

type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal attaches the authenticated identity to the context.
func WithPrincipal(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, principalKey, id)
}

// PrincipalFromContext retrieves the authenticated identity from the context.
func PrincipalFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(principalKey).(string)
	return id, ok && id != ""
}

// Authorizer отвечает, вправе ли текущий вызов действовать от имени claimed.
type Authorizer interface {
	Authorize(ctx context.Context, claimed string) error
}

// TokenAuthorizer разрешает вызов, только если claimed совпадает с субъектом токена.
type TokenAuthorizer struct{}

func (TokenAuthorizer) Authorize(ctx context.Context, claimed string) error {
	if claimed == "" {
		return models.NewError(models.KindUnauthorized, "identity is required")
	}
	principal, ok := PrincipalFromContext(ctx)
	if !ok {
		return models.NewError(models.KindUnauthorized, "authentication required to act as %s", claimed)
	}
	if principal != claimed {
		return models.NewError(models.KindUnauthorized, "%s is not allowed to act as %s", principal, claimed)
	}
	return nil
}

// TrustingAuthorizer принимает любую непустую личность. Только для локальной разработки.
type TrustingAuthorizer struct{}

func (TrustingAuthorizer) Authorize(_ context.Context, claimed string) error {
	if claimed == "" {
		return models.NewError(models.KindUnauthorized, "identity is required")
	}
	return nil
}
