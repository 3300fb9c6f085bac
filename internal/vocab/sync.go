package vocab

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Connector vocabulary identity and key attributes.
const (
	KeyPrefix      = "duckDuckGo.organization"
	VocabularyName = "DuckDuckGo Organization"
	Grouping       = "/Organization"

	DataTypeText   = "Text"
	StorageKeyword = "Keyword"

	// lockResource is shared by every caller racing to create this
	// connector's vocabulary or keys, across all processes.
	lockResource = "duckduckgo_vocabulary_sync"
	lockTimeout  = time.Minute
	cacheTTL     = time.Minute

	vocabularyCacheKey = "vocabulary-id"
)

// Synchronizer idempotently materializes vocabulary schema in the shared
// store. Correctness under concurrent callers comes from the distributed
// lock plus a re-check under the lock; the TTL cache only trims repeated
// round trips inside its freshness window.
type Synchronizer struct {
	repo  Repository
	lock  Locker
	cache *TTLCache
}

// NewSynchronizer creates a Synchronizer over the given store and lock.
func NewSynchronizer(repo Repository, lock Locker) *Synchronizer {
	return &Synchronizer{repo: repo, lock: lock, cache: NewTTLCache()}
}

// EnsureVocabulary returns the id of this connector's vocabulary container,
// creating and activating it if it does not exist yet.
func (s *Synchronizer) EnsureVocabulary(ctx context.Context) (uuid.UUID, error) {
	if v, ok := s.cache.Get(vocabularyCacheKey); ok {
		return v.(uuid.UUID), nil
	}

	if vocab, err := s.repo.GetVocabularyByPrefix(ctx, KeyPrefix); err != nil {
		return uuid.Nil, eris.Wrap(err, "vocab: lookup vocabulary")
	} else if vocab != nil {
		s.cache.Set(vocabularyCacheKey, vocab.ID, cacheTTL)
		return vocab.ID, nil
	}

	release, err := s.lock.Acquire(ctx, lockResource, lockTimeout)
	if err != nil {
		return uuid.Nil, err
	}
	defer release()

	// Another process may have created it while we waited for the lock.
	vocab, err := s.repo.GetVocabularyByPrefix(ctx, KeyPrefix)
	if err != nil {
		return uuid.Nil, eris.Wrap(err, "vocab: re-check vocabulary")
	}

	var id uuid.UUID
	if vocab != nil {
		id = vocab.ID
	} else {
		id, err = s.repo.AddVocabulary(ctx, VocabularyName, KeyPrefix, Grouping)
		if err != nil {
			return uuid.Nil, eris.Wrap(err, "vocab: add vocabulary")
		}
		if err := s.repo.ActivateVocabulary(ctx, id); err != nil {
			return uuid.Nil, eris.Wrap(err, "vocab: activate vocabulary")
		}
		zap.L().Info("created vocabulary", zap.String("key_prefix", KeyPrefix), zap.String("id", id.String()))
	}

	s.cache.Set(vocabularyCacheKey, id, cacheTTL)
	return id, nil
}

// EnsureKey guarantees a registered, activated vocabulary key exists for
// fullName. Concurrent callers across processes end up with exactly one
// record: lookup, then lock, then re-check, then create + activate while the
// lock holds.
func (s *Synchronizer) EnsureKey(ctx context.Context, fullName, displayName, groupName string) error {
	cacheKey := "key:" + fullName
	if _, ok := s.cache.Get(cacheKey); ok {
		return nil
	}

	vocabID, err := s.EnsureVocabulary(ctx)
	if err != nil {
		return err
	}

	if key, err := s.repo.GetKeyByFullName(ctx, fullName); err != nil {
		return eris.Wrapf(err, "vocab: lookup key %s", fullName)
	} else if key != nil {
		s.cache.Set(cacheKey, struct{}{}, cacheTTL)
		return nil
	}

	release, err := s.lock.Acquire(ctx, lockResource, lockTimeout)
	if err != nil {
		return err
	}
	defer release()

	key, err := s.repo.GetKeyByFullName(ctx, fullName)
	if err != nil {
		return eris.Wrapf(err, "vocab: re-check key %s", fullName)
	}
	if key == nil {
		id, err := s.repo.AddKey(ctx, AddKey{
			VocabularyID: vocabID,
			Name:         strings.TrimPrefix(fullName, KeyPrefix+"."),
			DisplayName:  displayName,
			GroupName:    groupName,
			DataType:     DataTypeText,
			Storage:      StorageKeyword,
			Visible:      true,
		})
		if err != nil {
			return eris.Wrapf(err, "vocab: add key %s", fullName)
		}
		if err := s.repo.ActivateKey(ctx, id); err != nil {
			return eris.Wrapf(err, "vocab: activate key %s", fullName)
		}
		zap.L().Info("created vocabulary key", zap.String("full_name", fullName))
	}

	s.cache.Set(cacheKey, struct{}{}, cacheTTL)
	return nil
}
