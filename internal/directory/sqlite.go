package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SQLite lee la tabla mitarbeiter de una base SQLite local.
type SQLite struct {
	db *sqlx.DB
}

func NewSQLite(db *sqlx.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) Lookup(ctx context.Context, key Key) (*Entry, error) {
	var e Entry
	err := s.db.GetContext(ctx, &e, `
		SELECT email,
			COALESCE(tenant_id, '') AS tenant_id,
			COALESCE(full_name, '') AS full_name,
			COALESCE(email_adresse, '') AS email_adresse,
			COALESCE(email_password, '') AS email_password,
			COALESCE(sparte, '') AS sparte
		FROM mitarbeiter
		WHERE email = ? AND (? = '' OR tenant_id = ?)
		ORDER BY rowid
		LIMIT 1`,
		key.Email, key.TenantID, key.TenantID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("directory lookup: %w", err)
	}
	return &e, nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
