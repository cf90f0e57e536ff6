package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/covault/covault"
	"github.com/covault/covault/internal/usecase"
)

type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) Publish(ctx context.Context, channel string, event covault.Event) error {

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, channel, jsonstr).Err()
	if err != nil {
		return err
	}

	return nil
}

// Realtime relays events from the subscribed channels into response until
// the context ends or request is closed. Each message on request replaces
// the active subscription set.
func (s *SignalService) Realtime(ctx context.Context, request <-chan []string, response chan<- covault.Event) {
	pubsub := s.rdb.Subscribe(ctx)
	defer pubsub.Close()

	messages := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return

		case channels, ok := <-request:
			if !ok {
				return
			}

			err := pubsub.Unsubscribe(ctx)
			if err != nil {
				slog.ErrorContext(
					ctx, "Failed to reset subscriptions",
					slog.String("error", err.Error()),
					slog.String("module", "signal"),
				)
				return
			}

			if len(channels) == 0 {
				continue
			}

			err = pubsub.Subscribe(ctx, channels...)
			if err != nil {
				slog.ErrorContext(
					ctx, "Failed to subscribe",
					slog.String("error", err.Error()),
					slog.String("module", "signal"),
				)
				return
			}

		case message, ok := <-messages:
			if !ok {
				return
			}

			var event covault.Event
			err := json.Unmarshal([]byte(message.Payload), &event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Failed to unmarshal event",
					slog.String("error", err.Error()),
					slog.String("module", "signal"),
				)
				continue
			}

			select {
			case response <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}

var _ usecase.Signaler = (*SignalService)(nil)
