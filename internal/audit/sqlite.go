package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLite inserta en la tabla emails de una base SQLite local.
type SQLite struct {
	db *sqlx.DB
}

func NewSQLite(db *sqlx.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) Record(ctx context.Context, rec *Record) error {
	if err := prepare(rec); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO emails (
			id, tenant_id, owner, betreff, absender, empfaenger, nachricht,
			email_adresse, absender_name, sparte, typ, gelesen, created_at
		) VALUES (?, NULLIF(?, ''), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.TenantID, rec.Owner, rec.Subject, rec.From, rec.To, rec.Body,
		rec.Mailbox, rec.SenderName, rec.Sparte, rec.Direction, rec.Read,
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("audit insert: %w", err)
	}
	return nil
}
