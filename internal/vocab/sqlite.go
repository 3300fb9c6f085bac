package vocab

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/entityforge/enrich-cli/internal/resilience"
)

// SQLiteRepository implements Repository and Locker over a local SQLite
// file. Single-node deployments only: the "distributed" lock degrades to a
// per-resource in-process mutex, with the schema's UNIQUE constraints as the
// backstop against writers in other processes.
type SQLiteRepository struct {
	db *sql.DB

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode with a bounded busy wait.
func NewSQLite(dsn string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "vocab: sqlite open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=60000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "vocab: sqlite exec %s", pragma)
		}
	}
	return &SQLiteRepository{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS vocabularies (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	key_prefix TEXT NOT NULL UNIQUE,
	grouping   TEXT NOT NULL,
	is_active  INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS vocabulary_keys (
	id            TEXT PRIMARY KEY,
	vocabulary_id TEXT NOT NULL REFERENCES vocabularies(id),
	name          TEXT NOT NULL,
	full_name     TEXT NOT NULL UNIQUE,
	display_name  TEXT NOT NULL,
	group_name    TEXT NOT NULL,
	data_type     TEXT NOT NULL,
	storage       TEXT NOT NULL,
	is_visible    INTEGER NOT NULL DEFAULT 1,
	is_active     INTEGER NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_vocabulary_keys_vocabulary_id ON vocabulary_keys(vocabulary_id);`

// Migrate creates the vocabulary schema if it does not exist.
func (r *SQLiteRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "vocab: sqlite migrate")
	}
	return nil
}

// Close closes the database handle.
func (r *SQLiteRepository) Close() {
	if err := r.db.Close(); err != nil {
		zap.L().Warn("close sqlite", zap.Error(err))
	}
}

func (r *SQLiteRepository) GetVocabularyByPrefix(ctx context.Context, keyPrefix string) (*Vocabulary, error) {
	var v Vocabulary
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, key_prefix, grouping, is_active FROM vocabularies WHERE key_prefix = ?`,
		keyPrefix,
	).Scan(&id, &v.Name, &v.KeyPrefix, &v.Grouping, &v.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "vocab: sqlite get vocabulary by prefix")
	}
	v.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, eris.Wrap(err, "vocab: sqlite parse vocabulary id")
	}
	return &v, nil
}

func (r *SQLiteRepository) AddVocabulary(ctx context.Context, name, keyPrefix, grouping string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO vocabularies (id, name, key_prefix, grouping) VALUES (?, ?, ?, ?)`,
		id.String(), name, keyPrefix, grouping,
	)
	if err != nil {
		return uuid.Nil, eris.Wrap(err, "vocab: sqlite add vocabulary")
	}
	return id, nil
}

func (r *SQLiteRepository) ActivateVocabulary(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE vocabularies SET is_active = 1 WHERE id = ?`, id.String()); err != nil {
		return eris.Wrap(err, "vocab: sqlite activate vocabulary")
	}
	return nil
}

func (r *SQLiteRepository) GetKeyByFullName(ctx context.Context, fullName string) (*Key, error) {
	var k Key
	var id, vocabID string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, vocabulary_id, name, full_name, display_name, group_name, data_type, storage, is_visible, is_active
		 FROM vocabulary_keys WHERE full_name = ?`,
		fullName,
	).Scan(&id, &vocabID, &k.Name, &k.FullName, &k.DisplayName, &k.GroupName, &k.DataType, &k.Storage, &k.Visible, &k.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "vocab: sqlite get key by full name")
	}
	if k.ID, err = uuid.Parse(id); err != nil {
		return nil, eris.Wrap(err, "vocab: sqlite parse key id")
	}
	if k.VocabularyID, err = uuid.Parse(vocabID); err != nil {
		return nil, eris.Wrap(err, "vocab: sqlite parse key vocabulary id")
	}
	return &k, nil
}

func (r *SQLiteRepository) AddKey(ctx context.Context, key AddKey) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO vocabulary_keys (id, vocabulary_id, name, full_name, display_name, group_name, data_type, storage, is_visible)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), key.VocabularyID.String(), key.Name, KeyPrefix+"."+key.Name, key.DisplayName, key.GroupName, key.DataType, key.Storage, key.Visible,
	)
	if err != nil {
		return uuid.Nil, eris.Wrap(err, "vocab: sqlite add key")
	}
	return id, nil
}

func (r *SQLiteRepository) ActivateKey(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE vocabulary_keys SET is_active = 1 WHERE id = ?`, id.String()); err != nil {
		return eris.Wrap(err, "vocab: sqlite activate key")
	}
	return nil
}

// Acquire serializes creators within this process with a bounded wait.
// SQLite mode is single-node; cross-process creators on the same host are
// still caught by the UNIQUE constraints on key_prefix and full_name.
func (r *SQLiteRepository) Acquire(ctx context.Context, resource string, timeout time.Duration) (func(), error) {
	mu := r.lockFor(resource)

	acquired := make(chan struct{})
	go func() {
		mu.Lock()
		close(acquired)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-acquired:
		return mu.Unlock, nil
	case <-ctx.Done():
		go func() { <-acquired; mu.Unlock() }()
		return nil, eris.Wrapf(ctx.Err(), "vocab: sqlite acquire lock %s", resource)
	case <-timer.C:
		go func() { <-acquired; mu.Unlock() }()
		return nil, &resilience.LockTimeoutError{Resource: resource, Timeout: timeout}
	}
}

func (r *SQLiteRepository) lockFor(resource string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locks == nil {
		r.locks = map[string]*sync.Mutex{}
	}
	if _, ok := r.locks[resource]; !ok {
		r.locks[resource] = &sync.Mutex{}
	}
	return r.locks[resource]
}
