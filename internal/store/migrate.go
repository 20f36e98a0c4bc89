package store

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/vertriebsportal/maildispatch/internal/observability/logger"
	pgmigrations "github.com/vertriebsportal/maildispatch/migrations/postgres"
	sqlitemigrations "github.com/vertriebsportal/maildispatch/migrations/sqlite"
)

const migrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	applied_at TEXT NOT NULL
)`

// migrationLockID es el id de pg_advisory_lock compartido por todas las instancias.
func migrationLockID() int64 {
	h := sha256.Sum256([]byte("maildispatch_migrations"))
	return int64(binary.BigEndian.Uint64(h[:8]))
}

// migrationFiles lista los *.sql del FS en orden lexicográfico.
func migrationFiles(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// MigratePostgres aplica las migraciones pendientes bajo advisory lock.
// Todo corre sobre una misma conexión: el lock es de sesión.
// Devuelve cuántos scripts se aplicaron.
func MigratePostgres(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	log := logger.From(ctx).With(logger.Component("migrate"), logger.String("driver", "pg"))
	lockID := migrationLockID()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire conn: %w", err)
	}
	defer conn.Release()

	lockCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := conn.Exec(lockCtx, "SELECT pg_advisory_lock($1)", lockID); err != nil {
		return 0, fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		if _, err := conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", lockID); err != nil {
			log.Warn("failed to release migration lock", logger.Err(err))
		}
	}()

	if _, err := conn.Exec(ctx, migrationsTable); err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}

	files, err := migrationFiles(pgmigrations.FS)
	if err != nil {
		return 0, err
	}

	var applied int
	for _, f := range files {
		var exists bool
		if err := conn.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", f).Scan(&exists); err != nil {
			return applied, fmt.Errorf("check %s: %w", f, err)
		}
		if exists {
			continue
		}
		b, err := fs.ReadFile(pgmigrations.FS, f)
		if err != nil {
			return applied, err
		}
		if _, err := conn.Exec(ctx, string(b)); err != nil {
			return applied, fmt.Errorf("exec %s: %w", f, err)
		}
		if _, err := conn.Exec(ctx, "INSERT INTO schema_migrations (version, applied_at) VALUES ($1, $2)",
			f, time.Now().UTC().Format(time.RFC3339)); err != nil {
			return applied, fmt.Errorf("track %s: %w", f, err)
		}
		log.Info("migration applied", logger.String("version", f))
		applied++
	}
	return applied, nil
}

// MigrateSQLite aplica las migraciones pendientes en una transacción por archivo.
func MigrateSQLite(ctx context.Context, db *sqlx.DB) (int, error) {
	if _, err := db.ExecContext(ctx, migrationsTable); err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}

	files, err := migrationFiles(sqlitemigrations.FS)
	if err != nil {
		return 0, err
	}

	var applied int
	for _, f := range files {
		var n int
		if err := db.GetContext(ctx, &n, "SELECT COUNT(*) FROM schema_migrations WHERE version = ?", f); err != nil {
			return applied, fmt.Errorf("check %s: %w", f, err)
		}
		if n > 0 {
			continue
		}
		b, err := fs.ReadFile(sqlitemigrations.FS, f)
		if err != nil {
			return applied, err
		}

		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			return applied, fmt.Errorf("begin %s: %w", f, err)
		}
		if _, err := tx.ExecContext(ctx, string(b)); err != nil {
			_ = tx.Rollback()
			return applied, fmt.Errorf("exec %s: %w", f, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
			f, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return applied, fmt.Errorf("track %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return applied, fmt.Errorf("commit %s: %w", f, err)
		}
		applied++
	}
	return applied, nil
}
