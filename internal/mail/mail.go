// Package mail envía un mensaje por SMTP autenticándose con las credenciales
// del propio remitente. Una sesión por envío, sin reintentos.
package mail

import (
	"context"
	"fmt"
)

// Credentials son usuario/clave del buzón del remitente (ya descifrados).
type Credentials struct {
	Username string
	Password string
}

// Message es el correo saliente. FromAddress coincide con Credentials.Username.
type Message struct {
	FromName    string
	FromAddress string
	To          string
	Subject     string
	Text        string
}

// Transport entrega un Message usando las credenciales dadas.
type Transport interface {
	Send(ctx context.Context, creds Credentials, msg Message) error
}

// TransportError envuelve la causa del fallo con su diagnóstico.
type TransportError struct {
	Code      string
	Temporary bool
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("smtp %s: %v", e.Code, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TransportFunc adapta una función a Transport (tests, wiring).
type TransportFunc func(ctx context.Context, creds Credentials, msg Message) error

func (f TransportFunc) Send(ctx context.Context, creds Credentials, msg Message) error {
	return f(ctx, creds, msg)
}
