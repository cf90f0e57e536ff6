package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/covault/covault"
	"github.com/covault/covault/internal/usecase"
)

// NotificationGateway publishes notification documents to the per-user
// channel the push relay subscribes to. Delivery is fire-and-forget;
// callers treat failures as soft.
type NotificationGateway struct {
	rdb *redis.Client
}

func NewNotificationGateway(rdb *redis.Client) *NotificationGateway {
	return &NotificationGateway{rdb: rdb}
}

func (g *NotificationGateway) Notify(ctx context.Context, userID, title, body, category string, metadata map[string]string) error {
	notification := covault.Notification{
		UserID:    userID,
		Title:     title,
		Body:      body,
		Category:  category,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}

	jsonstr, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	return g.rdb.Publish(ctx, covault.NotifyChannel(userID), jsonstr).Err()
}

var _ usecase.Notifier = (*NotificationGateway)(nil)
