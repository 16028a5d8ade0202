package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"chatproxy-backend/internal/models"
)

var (
	// ErrMiss is returned by Get when no list is cached for the user.
	ErrMiss = errors.New("cache miss")
	// ErrStale is returned by SetIfGeneration when the list was invalidated after the
	// generation was read; the caller's list must not be cached.
	ErrStale = errors.New("cached list invalidated since read")
)

// generationTTL outlives any list TTL so a generation can't reset to zero under a reader.
const generationTTL = 24 * time.Hour

// ChatListCache keeps each user's chat list as one JSON value next to a per-user
// generation counter. Invalidate bumps the counter; a list read from the database is
// only cached if the counter has not moved since before that read.
type ChatListCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewChatListCache(client *redis.Client, ttl time.Duration) *ChatListCache {
	return &ChatListCache{client: client, ttl: ttl}
}

func chatListKey(userID string) string {
	return "chats:list:" + userID
}

func generationKey(userID string) string {
	return "chats:gen:" + userID
}

func (c *ChatListCache) Get(ctx context.Context, userID string) ([]models.Chat, error) {
	data, err := c.client.Get(ctx, chatListKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}

	var chats []models.Chat
	if err := json.Unmarshal(data, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// Generation returns the user's current invalidation counter (0 when never invalidated).
func (c *ChatListCache) Generation(ctx context.Context, userID string) (int64, error) {
	n, err := c.client.Get(ctx, generationKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// SetIfGeneration caches chats only while the user's generation still equals gen.
func (c *ChatListCache) SetIfGeneration(ctx context.Context, userID string, gen int64, chats []models.Chat) error {
	data, err := json.Marshal(chats)
	if err != nil {
		return err
	}

	genKey := generationKey(userID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return ErrStale
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, chatListKey(userID), data, c.ttl)
			return nil
		})
		return err
	}, genKey)

	if errors.Is(err, redis.TxFailedErr) {
		return ErrStale
	}
	return err
}

// Invalidate drops the cached list and bumps the generation in one transaction.
func (c *ChatListCache) Invalidate(ctx context.Context, userID string) error {
	genKey := generationKey(userID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, generationTTL)
		pipe.Del(ctx, chatListKey(userID))
		return nil
	})
	return err
}
