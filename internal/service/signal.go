package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/toripushy/milkyway-calendar"
)

const changeChannel = "milkyway:changes"

// SignalService fans record change events out through redis pub/sub so
// every connected realtime listener sees mutations from any client.
type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) PublishChange(ctx context.Context, event milkyway.ChangeEvent) error {
	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return s.rdb.Publish(ctx, changeChannel, jsonstr).Err()
}

// SubscribeChanges delivers change events until ctx is cancelled. The
// returned channel closes when the subscription ends.
func (s *SignalService) SubscribeChanges(ctx context.Context) <-chan milkyway.ChangeEvent {
	events := make(chan milkyway.ChangeEvent)

	pubsub := s.rdb.Subscribe(ctx, changeChannel)
	go func() {
		defer close(events)
		defer pubsub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-pubsub.Channel():
				if !ok {
					return
				}
				var event milkyway.ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					slog.WarnContext(
						ctx, "dropping malformed change event",
						slog.String("error", err.Error()),
						slog.String("module", "signal"),
					)
					continue
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events
}
