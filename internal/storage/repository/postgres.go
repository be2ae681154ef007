package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS client_storage (
    namespace  TEXT NOT NULL,
    key        TEXT NOT NULL,
    value      TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (namespace, key)
)`

type storageRow struct {
	Value string `db:"value"`
}

// PGRepository stores entries in one table, scoped by namespace so several
// storefront installations can share a database.
type PGRepository struct {
	DB        *sqlx.DB
	Namespace string
}

func NewPGRepository(db *sqlx.DB, namespace string) *PGRepository {
	return &PGRepository{DB: db, Namespace: namespace}
}

func (r *PGRepository) Migrate(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, schema)
	return err
}

func (r *PGRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var row storageRow
	query := `SELECT value FROM client_storage WHERE namespace = $1 AND key = $2 LIMIT 1`
	err := r.DB.GetContext(ctx, &row, query, r.Namespace, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return row.Value, true, nil
}

func (r *PGRepository) Set(ctx context.Context, key, value string) error {
	query := `
        INSERT INTO client_storage (namespace, key, value, updated_at)
        VALUES (:namespace, :key, :value, now())
        ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
    `
	_, err := r.DB.NamedExecContext(ctx, query, map[string]interface{}{
		"namespace": r.Namespace,
		"key":       key,
		"value":     value,
	})
	return err
}

func (r *PGRepository) Remove(ctx context.Context, key string) error {
	query := `DELETE FROM client_storage WHERE namespace = $1 AND key = $2`
	_, err := r.DB.ExecContext(ctx, query, r.Namespace, key)
	return err
}
