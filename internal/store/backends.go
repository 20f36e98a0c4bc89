// Package store abre los backends de datos (directorio de empleados y log de
// envíos) según la configuración y aplica las migraciones del esquema.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/vertriebsportal/maildispatch/internal/audit"
	"github.com/vertriebsportal/maildispatch/internal/config"
	"github.com/vertriebsportal/maildispatch/internal/directory"
	"github.com/vertriebsportal/maildispatch/internal/observability/logger"
)

// Backends agrupa los colaboradores de datos del dispatch.
type Backends struct {
	Directory directory.Directory
	Audit     audit.Recorder

	pool *pgxpool.Pool
	db   *sqlx.DB
}

// Ping verifica los backends remotos (readiness).
func (b *Backends) Ping(ctx context.Context) error {
	if p, ok := b.Directory.(directory.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("directory: %w", err)
		}
	}
	return nil
}

// Close libera conexiones.
func (b *Backends) Close() error {
	if b.pool != nil {
		b.pool.Close()
	}
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

// Open construye los backends. Con migrate=true aplica el esquema antes de devolver.
func Open(ctx context.Context, cfg *config.Config, migrate bool) (*Backends, error) {
	log := logger.From(ctx).With(logger.Component("store"), logger.String("driver", cfg.Storage.Driver))
	b := &Backends{}

	switch cfg.Storage.Driver {
	case "pg", "postgres":
		pool, err := OpenPostgres(ctx, cfg.Storage.DSN, PostgresOptions{
			MaxConns:        cfg.Storage.Postgres.MaxConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		b.pool = pool
		if migrate {
			if _, err := MigratePostgres(ctx, pool); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		b.Directory = directory.NewPostgres(pool)
		b.Audit = audit.NewPostgres(pool)

	case "sqlite":
		db, err := OpenSQLite(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		b.db = db
		if migrate {
			if _, err := MigrateSQLite(ctx, db); err != nil {
				db.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		b.Directory = directory.NewSQLite(db)
		b.Audit = audit.NewSQLite(db)

	case "fs":
		b.Directory = directory.NewFile(cfg.Storage.Path)

	case "memory":
		log.Warn("memory storage: directory is empty and audit records are lost on restart")
		b.Directory = directory.NewMemory()
		b.Audit = audit.NewMemory()

	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Storage.Driver)
	}

	if cfg.Audit.Sink == "log" {
		b.Audit = audit.NewLog(logger.L())
	}
	if b.Audit == nil {
		_ = b.Close()
		return nil, errors.New("no audit recorder for this configuration")
	}

	b.Directory = directory.NewDecrypting(b.Directory, cfg.Directory.MasterKey)

	log.Info("storage ready", logger.String("audit_sink", cfg.Audit.Sink))
	return b, nil
}

// Migrate aplica el esquema sin construir los backends (comando "migrate").
func Migrate(ctx context.Context, cfg *config.Config) (int, error) {
	switch cfg.Storage.Driver {
	case "pg", "postgres":
		pool, err := OpenPostgres(ctx, cfg.Storage.DSN, PostgresOptions{MaxConns: 2})
		if err != nil {
			return 0, err
		}
		defer pool.Close()
		return MigratePostgres(ctx, pool)
	case "sqlite":
		db, err := OpenSQLite(cfg.Storage.Path)
		if err != nil {
			return 0, err
		}
		defer db.Close()
		return MigrateSQLite(ctx, db)
	default:
		return 0, fmt.Errorf("driver %s has no schema to migrate", cfg.Storage.Driver)
	}
}
