package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestCacheKeys(t *testing.T) {
	if got := chatListKey("user_2abc"); got != "chats:list:user_2abc" {
		t.Fatalf("unexpected list key %q", got)
	}
	if got := generationKey("user_2abc"); got != "chats:gen:user_2abc" {
		t.Fatalf("unexpected generation key %q", got)
	}
}

func unreachableCache(t *testing.T) *ChatListCache {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })
	return NewChatListCache(client, time.Minute)
}

func TestChatListCache_UnreachableRedisIsNotAMiss(t *testing.T) {
	c := unreachableCache(t)
	ctx := context.Background()

	_, err := c.Get(ctx, "user_1")
	if err == nil {
		t.Fatal("expected error from unreachable redis")
	}
	if errors.Is(err, ErrMiss) {
		t.Fatal("connection failures must not be reported as a miss")
	}
	if _, err := c.Generation(ctx, "user_1"); err == nil {
		t.Fatal("expected generation error from unreachable redis")
	}
	if err := c.Invalidate(ctx, "user_1"); err == nil {
		t.Fatal("expected invalidate error from unreachable redis")
	}
}

func TestChatListCache_SetIfGenerationUnreachableIsNotStale(t *testing.T) {
	c := unreachableCache(t)

	err := c.SetIfGeneration(context.Background(), "user_1", 0, nil)
	if err == nil {
		t.Fatal("expected error from unreachable redis")
	}
	if errors.Is(err, ErrStale) {
		t.Fatal("connection failures must not be reported as a stale list")
	}
}
