package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"checkout-gateway/internal/models"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb        *redis.Client
	sessionTTL time.Duration
}

// NewClient creates a new Redis client and verifies the connection
func NewClient(addr, password string, db int, sessionTTL time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewClientWithRedis(rdb, sessionTTL), nil
}

// NewClientWithRedis wraps an existing redis client
func NewClientWithRedis(rdb *redis.Client, sessionTTL time.Duration) *Client {
	return &Client{rdb: rdb, sessionTTL: sessionTTL}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the Redis connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func sessionKey(id string) string {
	return fmt.Sprintf("checkout:session:%s", id)
}

// LoadSession returns the stored checkout session, or an empty one when none exists
func (c *Client) LoadSession(ctx context.Context, id string) (*models.CheckoutSession, error) {
	data, err := c.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return &models.CheckoutSession{ID: id}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var sess models.CheckoutSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	sess.ID = id
	return &sess, nil
}

// SaveSession stores the checkout session and refreshes its TTL
func (c *Client) SaveSession(ctx context.Context, sess *models.CheckoutSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := c.rdb.Set(ctx, sessionKey(sess.ID), string(data), c.sessionTTL).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// SetIdempotencyKey stores an idempotency key with TTL
func (c *Client) SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("idempotency:%s", key), value, ttl).Err()
}

// CheckIdempotencyKey checks if an idempotency key exists
func (c *Client) CheckIdempotencyKey(ctx context.Context, key string) (bool, error) {
	result, err := c.rdb.Exists(ctx, fmt.Sprintf("idempotency:%s", key)).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}
