package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres lee la tabla mitarbeiter.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Lookup toma la primera fila que matchea (ORDER BY created_at, como un listado).
// El tenant vacío en la Key desactiva el filtro por tenant.
func (p *Postgres) Lookup(ctx context.Context, key Key) (*Entry, error) {
	query := `
		SELECT email, COALESCE(tenant_id, ''), COALESCE(full_name, ''),
			COALESCE(email_adresse, ''), COALESCE(email_password, ''), COALESCE(sparte, '')
		FROM mitarbeiter
		WHERE email = $1 AND ($2 = '' OR tenant_id = $2)
		ORDER BY created_at
		LIMIT 1
	`

	var e Entry
	err := p.pool.QueryRow(ctx, query, key.Email, key.TenantID).Scan(
		&e.Email, &e.TenantID, &e.FullName, &e.SMTPUser, &e.SMTPPassword, &e.Sparte,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("directory lookup: %w", err)
	}
	return &e, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}
