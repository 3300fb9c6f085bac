package vocab

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Vocabulary is the top-level schema container owned by this connector.
type Vocabulary struct {
	ID        uuid.UUID
	Name      string
	KeyPrefix string
	Grouping  string
	Active    bool
}

// Key is a registered vocabulary key record. At most one record exists per
// FullName in the shared store; creation is append-only.
type Key struct {
	ID           uuid.UUID
	VocabularyID uuid.UUID
	Name         string
	FullName     string
	DisplayName  string
	GroupName    string
	DataType     string
	Storage      string
	Visible      bool
	Active       bool
}

// AddKey is the creation model for a vocabulary key.
type AddKey struct {
	VocabularyID uuid.UUID
	Name         string
	DisplayName  string
	GroupName    string
	DataType     string
	Storage      string
	Visible      bool
}

// Repository is the shared vocabulary store. All methods must be safe to
// call from multiple processes concurrently; lookups return (nil, nil) when
// the record is absent.
type Repository interface {
	GetVocabularyByPrefix(ctx context.Context, keyPrefix string) (*Vocabulary, error)
	AddVocabulary(ctx context.Context, name, keyPrefix, grouping string) (uuid.UUID, error)
	ActivateVocabulary(ctx context.Context, id uuid.UUID) error

	GetKeyByFullName(ctx context.Context, fullName string) (*Key, error)
	AddKey(ctx context.Context, key AddKey) (uuid.UUID, error)
	ActivateKey(ctx context.Context, id uuid.UUID) error
}

// Locker acquires a named distributed lock with a bounded wait. The returned
// release function must be called exactly once. A timed-out acquisition
// returns a resilience.LockTimeoutError.
type Locker interface {
	Acquire(ctx context.Context, resource string, timeout time.Duration) (release func(), err error)
}
