package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/gosuda/atlasdash/internal/domain"
)

type PubSub struct {
	client *redis.Client
}

func New(ctx context.Context, addr, password string, db int) (*PubSub, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}

	return &PubSub{client: client}, nil
}

func (ps *PubSub) Close() error {
	if err := ps.client.Close(); err != nil {
		return fmt.Errorf("redis.PubSub.Close: %w", err)
	}
	return nil
}

// PublishAudit sends entry to the global audit channel and to the channel of
// its resource.
func (ps *PubSub) PublishAudit(ctx context.Context, entry *domain.AuditEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redis.PubSub.PublishAudit: marshal: %w", err)
	}

	pipe := ps.client.Pipeline()
	pipe.Publish(ctx, AuditChannel(), payload)
	pipe.Publish(ctx, AuditResourceChannel(entry.ResourceType, entry.ResourceID), payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis.PubSub.PublishAudit: %w", err)
	}

	return nil
}

func (ps *PubSub) Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error) {
	sub := ps.client.Subscribe(ctx, channel)

	// Wait for subscription confirmation.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("redis.PubSub.Subscribe: receive confirmation: %w", err)
	}

	out := make(chan []byte, 64)
	redisCh := sub.Channel()

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-redisCh:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	cleanup := func() {
		_ = sub.Close()
	}

	return out, cleanup, nil
}

// AuditChannel carries every recorded audit entry.
func AuditChannel() string {
	return "audit:entries"
}

// AuditResourceChannel carries the entries of a single resource, e.g.
// "audit:server:lobby".
func AuditResourceChannel(rt domain.ResourceType, resourceID string) string {
	return "audit:" + string(rt) + ":" + resourceID
}
