package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
)

// SnapshotKey is the single cache key under which the unified raw record
// sets are persisted.
const SnapshotKey = "unified_snapshot"

// Cache is the local persistent key-value store used to survive reloads and
// transient remote failures. Entries carry their save time; freshness is
// judged by the caller.
type Cache interface {
	Save(key string, value []byte) error
	Load(key string) (value []byte, savedAt time.Time, ok bool)
}

// PendingOp is one queued offline mutation awaiting replay.
type PendingOp struct {
	Collection string          `json:"collection"`
	Action     string          `json:"action"` // create, update, delete
	ID         string          `json:"id,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// QueueStore durably holds pending offline mutations in enqueue order.
type QueueStore interface {
	Append(op PendingOp) error
	List() ([]PendingOp, error)
	Clear() error
}

type cacheEntry struct {
	Key     string `gorm:"primaryKey;size:64"`
	Payload []byte `gorm:"not null"`
	SavedAt time.Time
}

type queueRow struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	Collection string `gorm:"size:40"`
	Action     string `gorm:"size:10"`
	DocID      string `gorm:"size:40"`
	Payload    []byte
	CreatedAt  time.Time
}

// SQLiteCache implements Cache and QueueStore on a single local SQLite
// file, so cached snapshots and the offline queue both survive restarts.
type SQLiteCache struct {
	db *gorm.DB
}

func NewSQLiteCache(db *gorm.DB) (*SQLiteCache, error) {
	if err := db.AutoMigrate(&cacheEntry{}, &queueRow{}); err != nil {
		return nil, fmt.Errorf("migrate cache tables: %w", err)
	}
	return &SQLiteCache{db: db}, nil
}

func (c *SQLiteCache) Save(key string, value []byte) error {
	entry := cacheEntry{Key: key, Payload: value, SavedAt: time.Now().UTC()}
	return c.db.Save(&entry).Error
}

func (c *SQLiteCache) Load(key string) ([]byte, time.Time, bool) {
	var entry cacheEntry
	if err := c.db.First(&entry, "key = ?", key).Error; err != nil {
		// Malformed or missing entries are a cache miss, never an error.
		return nil, time.Time{}, false
	}
	return entry.Payload, entry.SavedAt, true
}

func (c *SQLiteCache) Append(op PendingOp) error {
	row := queueRow{
		Collection: op.Collection,
		Action:     op.Action,
		DocID:      op.ID,
		Payload:    op.Payload,
		CreatedAt:  op.Timestamp,
	}
	return c.db.Create(&row).Error
}

func (c *SQLiteCache) List() ([]PendingOp, error) {
	var rows []queueRow
	if err := c.db.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	ops := make([]PendingOp, 0, len(rows))
	for _, r := range rows {
		ops = append(ops, PendingOp{
			Collection: r.Collection,
			Action:     r.Action,
			ID:         r.DocID,
			Payload:    json.RawMessage(r.Payload),
			Timestamp:  r.CreatedAt,
		})
	}
	return ops, nil
}

func (c *SQLiteCache) Clear() error {
	return c.db.Where("1 = 1").Delete(&queueRow{}).Error
}

// MemoryCache is a goroutine-safe in-memory Cache and QueueStore, used in
// tests and as a fallback when no cache file is configured.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	queue   []PendingOp
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]cacheEntry)}
}

func (c *MemoryCache) Save(key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{Key: key, Payload: value, SavedAt: time.Now().UTC()}
	return nil
}

func (c *MemoryCache) Load(key string) ([]byte, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, time.Time{}, false
	}
	return entry.Payload, entry.SavedAt, true
}

func (c *MemoryCache) Append(op PendingOp) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = append(c.queue, op)
	return nil
}

func (c *MemoryCache) List() ([]PendingOp, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ops := make([]PendingOp, len(c.queue))
	copy(ops, c.queue)
	return ops, nil
}

func (c *MemoryCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = nil
	return nil
}
