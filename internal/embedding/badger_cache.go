package embedding

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// DefaultCacheTTL is how long a persisted embedding stays valid
const DefaultCacheTTL = 30 * 24 * time.Hour

const badgerKeyPrefix = "emb:"

// BadgerCache persists embeddings on disk so they survive restarts
type BadgerCache struct {
	db  *badger.DB
	ttl time.Duration
}

type badgerLogger struct{}

func (badgerLogger) Errorf(msg string, args ...interface{}) {
	log.Printf("[EMBEDDING] badger error: "+msg, args...)
}

func (badgerLogger) Warningf(msg string, args ...interface{}) {
	log.Printf("[EMBEDDING] badger warning: "+msg, args...)
}

func (badgerLogger) Infof(string, ...interface{})  {}
func (badgerLogger) Debugf(string, ...interface{}) {}

// OpenBadgerCache opens a cache at dir, creating it if needed. An empty dir opens
// an in-memory cache.
func OpenBadgerCache(dir string, ttl time.Duration) (*BadgerCache, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts.Logger = badgerLogger{}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding cache: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &BadgerCache{db: db, ttl: ttl}, nil
}

// Get returns the cached vector for key
func (c *BadgerCache) Get(key string) ([]float32, bool) {
	var vec []float32
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerKeyPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var decodeErr error
			vec, decodeErr = DecodeVector(val)
			return decodeErr
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			log.Printf("[EMBEDDING] Cache read failed: %v", err)
		}
		return nil, false
	}
	return vec, true
}

// Set stores vector under key with the cache TTL. Write failures are logged only.
func (c *BadgerCache) Set(key string, vector []float32) {
	err := c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(badgerKeyPrefix+key), EncodeVector(vector)).WithTTL(c.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		log.Printf("[EMBEDDING] Cache write failed: %v", err)
	}
}

// Close closes the underlying database
func (c *BadgerCache) Close() error {
	return c.db.Close()
}
