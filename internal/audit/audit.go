// Package audit registra cada envío exitoso en un log append-only.
// No hay camino de lectura, actualización ni borrado.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DirectionOutbound es el valor de "typ" para envíos salientes.
const DirectionOutbound = "Ausgang"

// ErrInvalidRecord indica un Record sin los campos mínimos.
var ErrInvalidRecord = errors.New("audit: invalid record")

// Record es una entrada inmutable del log de envíos.
type Record struct {
	ID         string    `json:"id" db:"id"`
	TenantID   string    `json:"tenant_id,omitempty" db:"tenant_id"`
	Owner      string    `json:"owner" db:"owner"`
	Subject    string    `json:"betreff" db:"betreff"`
	From       string    `json:"absender" db:"absender"`
	To         string    `json:"empfaenger" db:"empfaenger"`
	Body       string    `json:"nachricht" db:"nachricht"`
	Mailbox    string    `json:"email_adresse" db:"email_adresse"`
	SenderName string    `json:"absender_name" db:"absender_name"`
	Sparte     string    `json:"sparte" db:"sparte"`
	Direction  string    `json:"typ" db:"typ"`
	Read       bool      `json:"gelesen" db:"gelesen"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Recorder agrega registros al store de auditoría.
type Recorder interface {
	Record(ctx context.Context, rec *Record) error
}

// prepare completa ID y timestamp (UTC) si faltan y valida lo mínimo.
// Lo llaman todos los Recorders antes de escribir.
func prepare(rec *Record) error {
	if rec == nil || rec.From == "" || rec.To == "" || rec.Direction == "" {
		return ErrInvalidRecord
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	} else {
		rec.CreatedAt = rec.CreatedAt.UTC()
	}
	return nil
}
