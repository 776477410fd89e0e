// Package broadcast publishes catalog events over redis pub/sub. The
// websocket gateway that owns client connections subscribes to the same
// channel; this process only produces.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/avelarde/storefront/internal/port"
)

type RedisBus struct {
	client  *redis.Client
	channel string
}

func NewRedisBus(client *redis.Client, channel string) *RedisBus {
	return &RedisBus{client: client, channel: channel}
}

func (b *RedisBus) Publish(ctx context.Context, event port.CatalogEvent) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode catalog event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, raw).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

func (b *RedisBus) Close() error {
	return b.client.Close()
}
