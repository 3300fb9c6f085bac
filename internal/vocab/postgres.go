package vocab

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/entityforge/enrich-cli/internal/resilience"
)

// Pool is the subset of pgxpool.Pool the repository uses; pgxmock satisfies
// it in tests.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresRepository implements Repository and Locker over Postgres. The
// distributed lock is a transaction-scoped advisory lock, released when the
// holding transaction ends.
type PostgresRepository struct {
	pool Pool
}

// NewPostgres connects a PostgresRepository with a tuned connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "vocab: parse postgres config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "vocab: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "vocab: ping")
	}
	return &PostgresRepository{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool (tests).
func NewPostgresWithPool(pool Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS vocabularies (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	key_prefix TEXT NOT NULL UNIQUE,
	grouping   TEXT NOT NULL,
	is_active  BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS vocabulary_keys (
	id            UUID PRIMARY KEY,
	vocabulary_id UUID NOT NULL REFERENCES vocabularies(id),
	name          TEXT NOT NULL,
	full_name     TEXT NOT NULL UNIQUE,
	display_name  TEXT NOT NULL,
	group_name    TEXT NOT NULL,
	data_type     TEXT NOT NULL,
	storage       TEXT NOT NULL,
	is_visible    BOOLEAN NOT NULL DEFAULT true,
	is_active     BOOLEAN NOT NULL DEFAULT false,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_vocabulary_keys_vocabulary_id ON vocabulary_keys(vocabulary_id);`

// Migrate creates the vocabulary schema if it does not exist.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "vocab: migrate")
	}
	return nil
}

// Close releases the connection pool.
func (r *PostgresRepository) Close() {
	r.pool.Close()
}

func (r *PostgresRepository) GetVocabularyByPrefix(ctx context.Context, keyPrefix string) (*Vocabulary, error) {
	var v Vocabulary
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, key_prefix, grouping, is_active FROM vocabularies WHERE key_prefix = $1`,
		keyPrefix,
	).Scan(&v.ID, &v.Name, &v.KeyPrefix, &v.Grouping, &v.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "vocab: get vocabulary by prefix")
	}
	return &v, nil
}

func (r *PostgresRepository) AddVocabulary(ctx context.Context, name, keyPrefix, grouping string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO vocabularies (id, name, key_prefix, grouping) VALUES ($1, $2, $3, $4)`,
		id, name, keyPrefix, grouping,
	)
	if err != nil {
		return uuid.Nil, eris.Wrap(err, "vocab: add vocabulary")
	}
	return id, nil
}

func (r *PostgresRepository) ActivateVocabulary(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `UPDATE vocabularies SET is_active = true WHERE id = $1`, id); err != nil {
		return eris.Wrap(err, "vocab: activate vocabulary")
	}
	return nil
}

func (r *PostgresRepository) GetKeyByFullName(ctx context.Context, fullName string) (*Key, error) {
	var k Key
	err := r.pool.QueryRow(ctx,
		`SELECT id, vocabulary_id, name, full_name, display_name, group_name, data_type, storage, is_visible, is_active
		 FROM vocabulary_keys WHERE full_name = $1`,
		fullName,
	).Scan(&k.ID, &k.VocabularyID, &k.Name, &k.FullName, &k.DisplayName, &k.GroupName, &k.DataType, &k.Storage, &k.Visible, &k.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "vocab: get key by full name")
	}
	return &k, nil
}

func (r *PostgresRepository) AddKey(ctx context.Context, key AddKey) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO vocabulary_keys (id, vocabulary_id, name, full_name, display_name, group_name, data_type, storage, is_visible)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, key.VocabularyID, key.Name, KeyPrefix+"."+key.Name, key.DisplayName, key.GroupName, key.DataType, key.Storage, key.Visible,
	)
	if err != nil {
		return uuid.Nil, eris.Wrap(err, "vocab: add key")
	}
	return id, nil
}

func (r *PostgresRepository) ActivateKey(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `UPDATE vocabulary_keys SET is_active = true WHERE id = $1`, id); err != nil {
		return eris.Wrap(err, "vocab: activate key")
	}
	return nil
}

// Acquire takes a transaction-scoped advisory lock on resource, waiting at
// most timeout. The release function ends the holding transaction; writes
// performed while the lock is held go through the pool, the transaction
// exists only to scope the lock.
func (r *PostgresRepository) Acquire(ctx context.Context, resource string, timeout time.Duration) (func(), error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "vocab: begin lock tx")
	}

	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", timeout.Milliseconds())); err != nil {
		_ = tx.Rollback(ctx)
		return nil, eris.Wrap(err, "vocab: set lock timeout")
	}

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, resource); err != nil {
		_ = tx.Rollback(ctx)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "55P03" {
			return nil, &resilience.LockTimeoutError{Resource: resource, Timeout: timeout}
		}
		return nil, eris.Wrapf(err, "vocab: acquire lock %s", resource)
	}

	release := func() {
		if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			zap.L().Warn("release advisory lock", zap.String("resource", resource), zap.Error(err))
		}
	}
	return release, nil
}
