package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisNotifier carries QR bind events over Redis pub/sub so the instance
// holding the long poll hears a bind served by any other instance.
type RedisNotifier struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

func NewRedisNotifier(client *redis.Client, prefix string, logger *zap.Logger) *RedisNotifier {
	if prefix == "" {
		prefix = "auth:qr"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisNotifier{client: client, prefix: prefix, logger: logger}
}

func (n *RedisNotifier) channel(code string) string {
	return fmt.Sprintf("%s:bound:%s", n.prefix, code)
}

func (n *RedisNotifier) Publish(ctx context.Context, code string) error {
	if err := n.client.Publish(ctx, n.channel(code), "bound").Err(); err != nil {
		return fmt.Errorf("publish qr bind: %w", err)
	}
	return nil
}

func (n *RedisNotifier) Subscribe(ctx context.Context, code string) (<-chan struct{}, func(), error) {
	pubsub := n.client.Subscribe(ctx, n.channel(code))
	// Receive blocks until the subscription is confirmed; a publish issued
	// after this point is guaranteed to reach us.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe qr bind: %w", err)
	}

	out := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		msgs := pubsub.Channel()
		for {
			select {
			case <-done:
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			if err := pubsub.Close(); err != nil {
				n.logger.Debug("close qr subscription", zap.String("channel", n.channel(code)), zap.Error(err))
			}
		})
	}
	return out, cancel, nil
}
