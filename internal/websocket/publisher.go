package websocket

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"chatproxy-backend/internal/models"
)

// UserChannel is the Redis pub/sub channel carrying realtime events for one user.
func UserChannel(userID string) string {
	return "user_updates:" + userID
}

// Publisher sends realtime events through Redis so any server instance's hub can deliver them.
type Publisher struct {
	redis *redis.Client
}

func NewPublisher(redisClient *redis.Client) *Publisher {
	return &Publisher{redis: redisClient}
}

func (p *Publisher) Publish(ctx context.Context, userID string, msg models.WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.redis.Publish(ctx, UserChannel(userID), data).Err()
}
