// Package identity resuelve el caller autenticado de un request a partir del
// bearer token emitido por el proveedor de identidad externo.
package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// Caller es el principal autenticado. Vive lo que dura un request.
type Caller struct {
	Subject  string
	Email    string
	TenantID string
}

// Resolver es el colaborador de identidad: devuelve nil si el request no
// trae una identidad válida.
type Resolver interface {
	CurrentUser(r *http.Request) (*Caller, error)
}

var (
	ErrTokenMissing = errors.New("identity: bearer token missing")
	ErrTokenInvalid = errors.New("identity: invalid token")
	ErrNoEmail      = errors.New("identity: token has no email claim")
)

type ctxKey struct{}

// WithCaller inyecta el caller en el contexto.
func WithCaller(ctx context.Context, c *Caller) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext obtiene el caller del contexto o nil.
func FromContext(ctx context.Context) *Caller {
	if c, ok := ctx.Value(ctxKey{}).(*Caller); ok {
		return c
	}
	return nil
}

// BearerToken extrae el token de "Authorization: Bearer <token>".
func BearerToken(r *http.Request) (string, error) {
	ah := strings.TrimSpace(r.Header.Get("Authorization"))
	if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
		return "", ErrTokenMissing
	}
	raw := strings.TrimSpace(ah[len("Bearer "):])
	if raw == "" {
		return "", ErrTokenMissing
	}
	return raw, nil
}
