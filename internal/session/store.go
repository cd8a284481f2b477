package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Persisted client state keys
const (
	KeyToken   = "access_token"
	KeyUser    = "sallamaty_user"
	KeySidebar = "sidebar-collapsed"
)

// ErrNotFound is returned by Store.Get for an absent key
var ErrNotFound = errors.New("key not found")

// Store persists the client-side state of one browser or CLI session
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore is a Store held in process memory
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// RedisStore keeps one session's keys in a Redis hash that expires after
// ttl of inactivity
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStore creates a store for sessionID
func NewRedisStore(client *redis.Client, sessionID string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		key:    HashKey(sessionID),
		ttl:    ttl,
	}
}

// HashKey returns the Redis key holding sessionID's state
func HashKey(sessionID string) string {
	return "rounds:session:" + sessionID
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.HGet(ctx, s.key, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session key %s: %w", key, err)
	}
	return v, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.key, key, value)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write session key %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.HDel(ctx, s.key, key).Err(); err != nil {
		return fmt.Errorf("failed to delete session key %s: %w", key, err)
	}
	return nil
}

// Exists reports whether the session hash is present
func (s *RedisStore) Exists(ctx context.Context) (bool, error) {
	n, err := s.client.Exists(ctx, s.key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session: %w", err)
	}
	return n > 0, nil
}

// Destroy removes every key of the session
func (s *RedisStore) Destroy(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

// Stores opens the Store of a session id
type Stores interface {
	Open(sessionID string) Store
	Destroy(ctx context.Context, sessionID string) error
}

// MemoryStores keeps every session in process memory
type MemoryStores struct {
	mu     sync.Mutex
	stores map[string]*MemoryStore
}

// NewMemoryStores creates an empty MemoryStores
func NewMemoryStores() *MemoryStores {
	return &MemoryStores{stores: make(map[string]*MemoryStore)}
}

func (m *MemoryStores) Open(sessionID string) Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stores[sessionID]
	if !ok {
		s = NewMemoryStore()
		m.stores[sessionID] = s
	}
	return s
}

func (m *MemoryStores) Destroy(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stores, sessionID)
	return nil
}

// RedisStores opens RedisStore sessions sharing one client and TTL
type RedisStores struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStores creates a RedisStores
func NewRedisStores(client *redis.Client, ttl time.Duration) *RedisStores {
	return &RedisStores{client: client, ttl: ttl}
}

func (r *RedisStores) Open(sessionID string) Store {
	return NewRedisStore(r.client, sessionID, r.ttl)
}

func (r *RedisStores) Destroy(ctx context.Context, sessionID string) error {
	return NewRedisStore(r.client, sessionID, r.ttl).Destroy(ctx)
}

var (
	_ Stores = (*MemoryStores)(nil)
	_ Stores = (*RedisStores)(nil)
)
