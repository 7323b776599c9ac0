package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/mmcdole/komsync/internal/domain"
)

// Bucket names
var (
	bucketTiles   = []byte("tiles")
	bucketDetails = []byte("details")
	bucketMeta    = []byte("meta")

	allBuckets = [][]byte{bucketTiles, bucketDetails, bucketMeta}
)

const (
	keyTiles    = "list"
	keyLastSync = "last_sync"
)

// MirrorStore implements domain.MirrorStore using BoltDB.
type MirrorStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

var _ domain.MirrorStore = (*MirrorStore)(nil)

// NewMirrorStore opens the mirror database for serverURL under baseCacheDir.
// An empty baseCacheDir keeps everything in memory.
func NewMirrorStore(baseCacheDir, serverURL string) (*MirrorStore, error) {
	if baseCacheDir == "" {
		return &MirrorStore{cache: make(map[string][]byte)}, nil
	}

	dir := baseCacheDir
	if serverURL != "" {
		dir = filepath.Join(baseCacheDir, hashServerURL(serverURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "komsync.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &MirrorStore{db: db, cache: make(map[string][]byte)}, nil
}

// hashServerURL gives each server its own database directory
func hashServerURL(serverURL string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *MirrorStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *MirrorStore) get(bucket []byte, key string, dest any) bool {
	cacheKey := string(bucket) + ":" + key

	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *MirrorStore) set(bucket []byte, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), data)
	})
}

func (s *MirrorStore) delete(bucket []byte, key string) {
	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	delete(s.cache, cacheKey)
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		if b := tx.Bucket(bucket); b != nil {
			b.Delete([]byte(key))
		}
		return nil
	})
}

// === Tiles ===

func (s *MirrorStore) GetTiles() ([]domain.Tile, bool) {
	var tiles []domain.Tile
	ok := s.get(bucketTiles, keyTiles, &tiles)
	return tiles, ok
}

func (s *MirrorStore) SaveTiles(tiles []domain.Tile) error {
	return s.set(bucketTiles, keyTiles, tiles)
}

// === Details (key: item id) ===

func (s *MirrorStore) GetDetail(itemID string) (*domain.ItemDetail, bool) {
	var detail domain.ItemDetail
	if !s.get(bucketDetails, itemID, &detail) {
		return nil, false
	}
	return &detail, true
}

func (s *MirrorStore) SaveDetail(detail *domain.ItemDetail) error {
	if detail == nil || detail.ID == "" {
		return fmt.Errorf("%w: detail without id", domain.ErrNormalize)
	}
	return s.set(bucketDetails, detail.ID, detail)
}

// InvalidateDetail drops one cached detail so the next read refetches it
func (s *MirrorStore) InvalidateDetail(itemID string) {
	s.delete(bucketDetails, itemID)
}

// === Sync bookkeeping ===

// LastSync returns the unix time of the last completed sync
func (s *MirrorStore) LastSync() (int64, bool) {
	var ts int64
	ok := s.get(bucketMeta, keyLastSync, &ts)
	return ts, ok
}

func (s *MirrorStore) SaveLastSync(ts int64) error {
	return s.set(bucketMeta, keyLastSync, ts)
}

// InvalidateAll wipes the memory cache and every bucket
func (s *MirrorStore) InvalidateAll() {
	s.mu.Lock()
	s.cache = make(map[string][]byte)
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range allBuckets {
			if tx.Bucket(bucket) != nil {
				if err := tx.DeleteBucket(bucket); err != nil {
					return err
				}
			}
			if _, err := tx.CreateBucket(bucket); err != nil {
				return err
			}
		}
		return nil
	})
}
