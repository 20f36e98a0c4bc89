// Package directory resuelve las credenciales SMTP de un empleado a partir de su
// email, sobre el directorio de empleados del tenant. Sólo lectura.
//
// Adapters:
//
//	memory  listado en memoria (tests, dev)
//	fs      listado YAML en disco
//	pg      tabla mitarbeiter en PostgreSQL (pgx)
//	sqlite  tabla mitarbeiter en SQLite (sqlx + modernc)
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vertriebsportal/maildispatch/internal/security/secretbox"
)

var (
	// ErrNotFound indica que no hay entrada para el email (y tenant, si aplica).
	ErrNotFound = errors.New("directory: entry not found")

	// ErrIncomplete indica que la entrada existe pero le falta usuario o password SMTP.
	ErrIncomplete = errors.New("directory: entry has no smtp credentials")
)

// Entry es el registro de credenciales de un empleado.
type Entry struct {
	Email        string `yaml:"email" db:"email"`
	TenantID     string `yaml:"tenant_id" db:"tenant_id"`
	FullName     string `yaml:"full_name" db:"full_name"`
	SMTPUser     string `yaml:"email_adresse" db:"email_adresse"`
	SMTPPassword string `yaml:"email_password" db:"email_password"`
	Sparte       string `yaml:"sparte" db:"sparte"`
}

// Complete indica si la entrada sirve para enviar: usuario y password SMTP no vacíos.
func (e *Entry) Complete() bool {
	return e != nil &&
		strings.TrimSpace(e.SMTPUser) != "" &&
		strings.TrimSpace(e.SMTPPassword) != ""
}

// Key identifica la entrada buscada. TenantID vacío = búsqueda plana por email.
type Key struct {
	TenantID string
	Email    string
}

// Directory es el contrato de lookup. Igualdad exacta sobre el email
// (sin normalizar mayúsculas) y, si Key.TenantID no está vacío, sobre el tenant.
type Directory interface {
	Lookup(ctx context.Context, key Key) (*Entry, error)
}

// Pinger lo implementan los adapters con backend remoto (readiness).
type Pinger interface {
	Ping(ctx context.Context) error
}

// matches aplica la regla de igualdad compartida por los adapters en memoria.
func (k Key) matches(e *Entry) bool {
	if e.Email != k.Email {
		return false
	}
	return k.TenantID == "" || e.TenantID == k.TenantID
}

// encPrefix marca passwords cifradas por la administración del tenant.
const encPrefix = "enc:"

// Decrypting envuelve un Directory y descifra passwords "enc:..." con la master key.
// Las passwords en claro pasan sin cambios.
type Decrypting struct {
	next      Directory
	masterKey string
}

func NewDecrypting(next Directory, masterKey string) *Decrypting {
	return &Decrypting{next: next, masterKey: masterKey}
}

func (d *Decrypting) Lookup(ctx context.Context, key Key) (*Entry, error) {
	e, err := d.next.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(e.SMTPPassword, encPrefix) {
		return e, nil
	}
	if d.masterKey == "" {
		return nil, fmt.Errorf("directory: encrypted password for %s but no master key configured", e.Email)
	}
	pt, err := secretbox.DecryptWithKey(d.masterKey, strings.TrimPrefix(e.SMTPPassword, encPrefix))
	if err != nil {
		return nil, fmt.Errorf("directory: decrypt password: %w", err)
	}
	out := *e
	out.SMTPPassword = pt
	return &out, nil
}

func (d *Decrypting) Ping(ctx context.Context) error {
	if p, ok := d.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
