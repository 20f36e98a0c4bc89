package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres inserta en la tabla emails.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Record(ctx context.Context, rec *Record) error {
	if err := prepare(rec); err != nil {
		return err
	}
	query := `
		INSERT INTO emails (
			id, tenant_id, owner, betreff, absender, empfaenger, nachricht,
			email_adresse, absender_name, sparte, typ, gelesen, created_at
		) VALUES (
			$1, NULLIF($2, ''), $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13
		)
	`
	_, err := p.pool.Exec(ctx, query,
		rec.ID, rec.TenantID, rec.Owner, rec.Subject, rec.From, rec.To, rec.Body,
		rec.Mailbox, rec.SenderName, rec.Sparte, rec.Direction, rec.Read, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit insert: %w", err)
	}
	return nil
}
