package vocab

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/entityforge/enrich-cli/internal/resilience"
)

func init() {
	// Replace global logger with a no-op to avoid noisy output in tests.
	zap.ReplaceGlobals(zap.NewNop())
}

func newMockRepo(t *testing.T) (*PostgresRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func TestPostgresMigrate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS vocabularies").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, repo.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetVocabularyByPrefix_Found(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT id, name, key_prefix, grouping, is_active FROM vocabularies").
		WithArgs(KeyPrefix).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "key_prefix", "grouping", "is_active"}).
			AddRow(id, VocabularyName, KeyPrefix, Grouping, true))

	got, err := repo.GetVocabularyByPrefix(context.Background(), KeyPrefix)

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.True(t, got.Active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetVocabularyByPrefix_Missing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT id, name, key_prefix, grouping, is_active FROM vocabularies").
		WithArgs(KeyPrefix).
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetVocabularyByPrefix(context.Background(), KeyPrefix)

	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetKeyByFullName_Missing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("FROM vocabulary_keys WHERE full_name").
		WithArgs(KeyPrefix + ".infobox.industry").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetKeyByFullName(context.Background(), KeyPrefix+".infobox.industry")

	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddKey_InsertsFullName(t *testing.T) {
	repo, mock := newMockRepo(t)
	vocabID := uuid.New()

	mock.ExpectExec("INSERT INTO vocabulary_keys").
		WithArgs(pgxmock.AnyArg(), vocabID, "infobox.industry", KeyPrefix+".infobox.industry",
			"Infobox-industry", "group", DataTypeText, StorageKeyword, true).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	id, err := repo.AddKey(context.Background(), AddKey{
		VocabularyID: vocabID,
		Name:         "infobox.industry",
		DisplayName:  "Infobox-industry",
		GroupName:    "group",
		DataType:     DataTypeText,
		Storage:      StorageKeyword,
		Visible:      true,
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivateKey(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectExec("UPDATE vocabulary_keys SET is_active = true").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.ActivateKey(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquire_HoldsAdvisoryLock(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("SET LOCAL lock_timeout").
		WillReturnResult(pgxmock.NewResult("SET", 0))
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs("resource-1").
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectRollback()

	release, err := repo.Acquire(context.Background(), "resource-1", time.Minute)

	require.NoError(t, err)
	release()
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquire_TimeoutMapsToLockTimeoutError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("SET LOCAL lock_timeout").
		WillReturnResult(pgxmock.NewResult("SET", 0))
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs("resource-1").
		WillReturnError(&pgconn.PgError{Code: "55P03"})
	mock.ExpectRollback()

	_, err := repo.Acquire(context.Background(), "resource-1", time.Minute)

	require.Error(t, err)
	var lt *resilience.LockTimeoutError
	require.ErrorAs(t, err, &lt)
	assert.Equal(t, "resource-1", lt.Resource)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquire_BeginFailure(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin().WillReturnError(assert.AnError)

	_, err := repo.Acquire(context.Background(), "resource-1", time.Minute)

	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
