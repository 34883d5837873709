package ledger

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/dcrodman/connect4/internal/core"
)

// ErrNotPersisted is returned by a memory-only store on every save.
var ErrNotPersisted = errors.New("scores are kept in memory only")

// MemoryStore holds nothing durable. It stands in for the configured store
// when that couldn't be opened, so that scoring still works until restart.
type MemoryStore struct{}

func (MemoryStore) Load() (map[string]Record, error) { return map[string]Record{}, nil }
func (MemoryStore) Save(map[string]Record) error { return ErrNotPersisted }
func (MemoryStore) Close() error { return nil }

// OpenStoreOrMemory opens the configured store, falling back to a MemoryStore
// if it can't be opened.
func OpenStoreOrMemory(cfg *core.Config, logger *logrus.Logger) Store {
	store, err := OpenStore(cfg)
	if err != nil {
		logger.Errorf("error opening score ledger, scores will not be saved: %v", err)
		return MemoryStore{}
	}
	return store
}
