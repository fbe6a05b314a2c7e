package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
)

// LevelDB stores cache entries in an on-disk leveldb directory
type LevelDB struct {
	db *leveldb.DB
}

// NewLevelDB opens (or creates) a leveldb store at root
func NewLevelDB(root string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(root, nil)
	if err != nil {
		return nil, fmt.Errorf("open cache db %s: %w", root, err)
	}
	return &LevelDB{db: db}, nil
}

// Get implements Store
func (s *LevelDB) Get(_ context.Context, key string) ([]byte, error) {
	v, err := s.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrMiss
	}
	return v, err
}

// Set implements Store; expiry is carried inside the encoded entry
func (s *LevelDB) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	return s.db.Put([]byte(key), value, nil)
}

// Delete implements Store
func (s *LevelDB) Delete(_ context.Context, key string) error {
	return s.db.Delete([]byte(key), nil)
}

// Prune implements Store
func (s *LevelDB) Prune(ctx context.Context, now time.Time) (int, error) {
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()

	batch := new(leveldb.Batch)
	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		e, err := decode(iter.Value())
		if err != nil || e.expired(now) {
			// copy: the iterator reuses its key buffer
			batch.Delete(append([]byte(nil), iter.Key()...))
		}
	}
	if err := iter.Error(); err != nil {
		return 0, err
	}

	if batch.Len() == 0 {
		return 0, nil
	}
	if err := s.db.Write(batch, nil); err != nil {
		return 0, err
	}
	return batch.Len(), nil
}

// Close implements Store
func (s *LevelDB) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
