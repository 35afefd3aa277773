package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"zkpass/internal/domain"
)

// DefaultRedisKey is the key the session record is stored under.
const DefaultRedisKey = "zkpass:session"

// RedisSessionStore keeps the session record as one JSON value in redis.
type RedisSessionStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisSessionStore returns a store using key (DefaultRedisKey when empty).
// A zero ttl keeps the record until it is deleted.
func NewRedisSessionStore(client *redis.Client, key string, ttl time.Duration) *RedisSessionStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisSessionStore{client: client, key: key, ttl: ttl}
}

// NewRedisClient connects to addr and checks the connection with a ping.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, errors.New("redis address is not configured")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "failed to ping redis")
	}
	return client, nil
}

// SaveSession replaces the stored session.
func (s *RedisSessionStore) SaveSession(ctx context.Context, session domain.Session) error {
	b, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return errors.Wrap(s.client.Set(ctx, s.key, b, s.ttl).Err(), "redis set session")
}

// LoadSession returns the stored session; found is false when the key is absent.
func (s *RedisSessionStore) LoadSession(ctx context.Context) (domain.Session, bool, error) {
	b, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, false, nil
	}
	if err != nil {
		return domain.Session{}, false, errors.Wrap(err, "redis get session")
	}
	var session domain.Session
	if err := json.Unmarshal(b, &session); err != nil {
		return domain.Session{}, false, errors.Wrap(err, "decode session")
	}
	return session, true, nil
}

// DeleteSession removes the stored session.
func (s *RedisSessionStore) DeleteSession(ctx context.Context) error {
	return errors.Wrap(s.client.Del(ctx, s.key).Err(), "redis delete session")
}

var _ domain.SessionStore = (*RedisSessionStore)(nil)
