package vocab

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entityforge/enrich-cli/internal/resilience"
)

func newSQLiteRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "vocab.db"))
	require.NoError(t, err)
	t.Cleanup(repo.Close)
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func TestSQLite_VocabularyRoundTrip(t *testing.T) {
	t.Parallel()

	repo := newSQLiteRepo(t)
	ctx := context.Background()

	got, err := repo.GetVocabularyByPrefix(ctx, KeyPrefix)
	require.NoError(t, err)
	assert.Nil(t, got)

	id, err := repo.AddVocabulary(ctx, VocabularyName, KeyPrefix, Grouping)
	require.NoError(t, err)
	require.NoError(t, repo.ActivateVocabulary(ctx, id))

	got, err = repo.GetVocabularyByPrefix(ctx, KeyPrefix)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, VocabularyName, got.Name)
	assert.True(t, got.Active)
}

func TestSQLite_KeyRoundTrip(t *testing.T) {
	t.Parallel()

	repo := newSQLiteRepo(t)
	ctx := context.Background()

	vocabID, err := repo.AddVocabulary(ctx, VocabularyName, KeyPrefix, Grouping)
	require.NoError(t, err)

	fullName := KeyPrefix + ".infobox.industry"

	got, err := repo.GetKeyByFullName(ctx, fullName)
	require.NoError(t, err)
	assert.Nil(t, got)

	id, err := repo.AddKey(ctx, AddKey{
		VocabularyID: vocabID,
		Name:         "infobox.industry",
		DisplayName:  "Infobox-industry",
		GroupName:    "group",
		DataType:     DataTypeText,
		Storage:      StorageKeyword,
		Visible:      true,
	})
	require.NoError(t, err)
	require.NoError(t, repo.ActivateKey(ctx, id))

	got, err = repo.GetKeyByFullName(ctx, fullName)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, vocabID, got.VocabularyID)
	assert.Equal(t, fullName, got.FullName)
	assert.True(t, got.Visible)
	assert.True(t, got.Active)
}

func TestSQLite_DuplicateFullNameRejected(t *testing.T) {
	t.Parallel()

	repo := newSQLiteRepo(t)
	ctx := context.Background()

	vocabID, err := repo.AddVocabulary(ctx, VocabularyName, KeyPrefix, Grouping)
	require.NoError(t, err)

	key := AddKey{VocabularyID: vocabID, Name: "infobox.industry", DataType: DataTypeText, Storage: StorageKeyword}
	_, err = repo.AddKey(ctx, key)
	require.NoError(t, err)

	_, err = repo.AddKey(ctx, key)
	assert.Error(t, err)
}

func TestSQLite_AcquireSerializes(t *testing.T) {
	t.Parallel()

	repo := newSQLiteRepo(t)
	ctx := context.Background()

	release, err := repo.Acquire(ctx, "res", time.Second)
	require.NoError(t, err)

	// A second caller times out while the lock is held.
	_, err = repo.Acquire(ctx, "res", 20*time.Millisecond)
	var lt *resilience.LockTimeoutError
	require.ErrorAs(t, err, &lt)

	release()

	release2, err := repo.Acquire(ctx, "res", time.Second)
	require.NoError(t, err)
	release2()
}

func TestSQLite_AcquireIndependentResources(t *testing.T) {
	t.Parallel()

	repo := newSQLiteRepo(t)
	ctx := context.Background()

	r1, err := repo.Acquire(ctx, "a", time.Second)
	require.NoError(t, err)
	defer r1()

	r2, err := repo.Acquire(ctx, "b", 50*time.Millisecond)
	require.NoError(t, err)
	r2()
}
