package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/upb/qms-dashboard/internal/authz"
	"github.com/upb/qms-dashboard/services"
)

const redisKeyPrefix = "qms:session:"

type redisSession struct {
	Role      authz.Role `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RedisStore keeps sessions in Redis, one JSON value per session, expiring
// after ttl. Role switches keep the remaining TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient creates a Redis client from url and verifies the connection
func NewRedisClient(ctx context.Context, url, password string, db int) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if password != "" {
		opts.Password = password
	}
	if db >= 0 {
		opts.DB = db
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// NewRedisStore creates a session store on client
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return redisKeyPrefix + id
}

// Create stores a new session with role
func (r *RedisStore) Create(ctx context.Context, role authz.Role) (*Snapshot, error) {
	now := time.Now().UTC()
	id := uuid.NewString()
	data, err := json.Marshal(redisSession{Role: role, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, sessionKey(id), data, r.ttl).Err(); err != nil {
		return nil, services.WrapError(services.ErrorTypeInternal, "failed to create session", err)
	}
	return newSnapshot(id, role, now, now), nil
}

// Get loads session id
func (r *RedisStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	stored, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return newSnapshot(id, stored.Role, stored.CreatedAt, stored.UpdatedAt), nil
}

// SwitchRole overwrites the stored role with a single SET XX KEEPTTL, so a
// session that expired in the meantime is not resurrected.
func (r *RedisStore) SwitchRole(ctx context.Context, id string, role authz.Role) (*Snapshot, error) {
	stored, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}

	stored.Role = role
	stored.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}

	err = r.client.SetArgs(ctx, sessionKey(id), data, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if errors.Is(err, redis.Nil) {
		return nil, services.ErrSessionNotFound
	}
	if err != nil {
		return nil, services.WrapError(services.ErrorTypeInternal, "failed to switch role", err)
	}

	return newSnapshot(id, stored.Role, stored.CreatedAt, stored.UpdatedAt), nil
}

// Ping checks the Redis connection
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) load(ctx context.Context, id string) (*redisSession, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, services.ErrSessionNotFound
	}
	if err != nil {
		return nil, services.WrapError(services.ErrorTypeInternal, "failed to load session", err)
	}

	var stored redisSession
	if err := json.Unmarshal(data, &stored); err != nil {
		// corrupt entries are dropped
		r.client.Del(ctx, sessionKey(id))
		return nil, services.ErrSessionNotFound
	}
	return &stored, nil
}
