package vocab

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/entityforge/enrich-cli/internal/resilience"
)

// memRepo is an in-memory Repository counting lookups and creations.
type memRepo struct {
	mu sync.Mutex

	vocabulary *Vocabulary
	keys       map[string]*Key

	vocabLookups int
	keyLookups   int
	vocabAdds    int
	keyAdds      int
}

func newMemRepo() *memRepo {
	return &memRepo{keys: map[string]*Key{}}
}

func (r *memRepo) GetVocabularyByPrefix(ctx context.Context, keyPrefix string) (*Vocabulary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vocabLookups++
	if r.vocabulary == nil || r.vocabulary.KeyPrefix != keyPrefix {
		return nil, nil
	}
	v := *r.vocabulary
	return &v, nil
}

func (r *memRepo) AddVocabulary(ctx context.Context, name, keyPrefix, grouping string) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vocabAdds++
	r.vocabulary = &Vocabulary{
		ID:        uuid.New(),
		Name:      name,
		KeyPrefix: keyPrefix,
		Grouping:  grouping,
	}
	return r.vocabulary.ID, nil
}

func (r *memRepo) ActivateVocabulary(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.vocabulary != nil && r.vocabulary.ID == id {
		r.vocabulary.Active = true
	}
	return nil
}

func (r *memRepo) GetKeyByFullName(ctx context.Context, fullName string) (*Key, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keyLookups++
	k, ok := r.keys[fullName]
	if !ok {
		return nil, nil
	}
	cp := *k
	return &cp, nil
}

func (r *memRepo) AddKey(ctx context.Context, key AddKey) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keyAdds++
	id := uuid.New()
	fullName := KeyPrefix + "." + key.Name
	r.keys[fullName] = &Key{
		ID:           id,
		VocabularyID: key.VocabularyID,
		Name:         key.Name,
		FullName:     fullName,
		DisplayName:  key.DisplayName,
		GroupName:    key.GroupName,
		DataType:     key.DataType,
		Storage:      key.Storage,
		Visible:      key.Visible,
	}
	return id, nil
}

func (r *memRepo) ActivateKey(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range r.keys {
		if k.ID == id {
			k.Active = true
		}
	}
	return nil
}

// mutexLocker serializes callers with a single in-process mutex.
type mutexLocker struct {
	mu sync.Mutex
}

func (l *mutexLocker) Acquire(ctx context.Context, resource string, timeout time.Duration) (func(), error) {
	l.mu.Lock()
	return l.mu.Unlock, nil
}

// failLocker always times out.
type failLocker struct{}

func (failLocker) Acquire(ctx context.Context, resource string, timeout time.Duration) (func(), error) {
	return nil, &resilience.LockTimeoutError{Resource: resource, Timeout: timeout}
}

func TestEnsureVocabulary_CreatesOnce(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	s := NewSynchronizer(repo, &mutexLocker{})

	id1, err := s.EnsureVocabulary(context.Background())
	require.NoError(t, err)
	id2, err := s.EnsureVocabulary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, repo.vocabAdds)
	assert.True(t, repo.vocabulary.Active)
	assert.Equal(t, VocabularyName, repo.vocabulary.Name)
	assert.Equal(t, Grouping, repo.vocabulary.Grouping)
}

func TestEnsureKey_CreatesAndActivates(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	s := NewSynchronizer(repo, &mutexLocker{})

	fullName := KeyPrefix + ".infobox.industry"
	err := s.EnsureKey(context.Background(), fullName, "Infobox-industry", "DuckDuckGo Organization Infobox")
	require.NoError(t, err)

	key := repo.keys[fullName]
	require.NotNil(t, key)
	assert.Equal(t, "infobox.industry", key.Name)
	assert.Equal(t, "Infobox-industry", key.DisplayName)
	assert.Equal(t, DataTypeText, key.DataType)
	assert.Equal(t, StorageKeyword, key.Storage)
	assert.True(t, key.Visible)
	assert.True(t, key.Active)
}

func TestEnsureKey_ConcurrentCallersCreateOneRecord(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()

	// All goroutines share the lock but each has its own Synchronizer, so the
	// TTL cache cannot mask the store round trips.
	lock := &mutexLocker{}
	fullName := KeyPrefix + ".infobox.industry"

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 16; i++ {
		s := NewSynchronizer(repo, lock)
		g.Go(func() error {
			return s.EnsureKey(ctx, fullName, "Infobox-industry", "group")
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 1, repo.keyAdds)
	assert.Equal(t, 1, repo.vocabAdds)
	assert.Len(t, repo.keys, 1)
}

func TestEnsureKey_CacheSuppressesLookups(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	s := NewSynchronizer(repo, &mutexLocker{})
	fullName := KeyPrefix + ".infobox.industry"

	require.NoError(t, s.EnsureKey(context.Background(), fullName, "d", "g"))
	lookupsAfterFirst := repo.keyLookups

	for i := 0; i < 5; i++ {
		require.NoError(t, s.EnsureKey(context.Background(), fullName, "d", "g"))
	}

	assert.Equal(t, lookupsAfterFirst, repo.keyLookups)
}

func TestEnsureKey_ExistingKeyNotRecreated(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	s1 := NewSynchronizer(repo, &mutexLocker{})
	fullName := KeyPrefix + ".infobox.industry"
	require.NoError(t, s1.EnsureKey(context.Background(), fullName, "d", "g"))

	// A second process with a cold cache sees the existing record.
	s2 := NewSynchronizer(repo, &mutexLocker{})
	require.NoError(t, s2.EnsureKey(context.Background(), fullName, "d", "g"))

	assert.Equal(t, 1, repo.keyAdds)
}

func TestEnsureKey_LockTimeoutPropagates(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	s := NewSynchronizer(repo, failLocker{})

	err := s.EnsureKey(context.Background(), KeyPrefix+".infobox.industry", "d", "g")

	require.Error(t, err)
	var lt *resilience.LockTimeoutError
	assert.ErrorAs(t, err, &lt)
	assert.Equal(t, 0, repo.keyAdds)
}
