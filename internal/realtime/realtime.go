// Package realtime publishes live events over redis pub/sub. Subscribers are
// the websocket edge, which is outside this service.
package realtime

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
)

// Publisher publishes JSON-encoded payloads to a redis channel.
type Publisher struct {
	rdb *redis.Client
}

// NewPublisher creates a Publisher.
func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// Publish marshals the payload and publishes it on the channel.
func (p *Publisher) Publish(ctx context.Context, channel string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal payload")
	}
	if err := p.rdb.Publish(ctx, channel, data).Err(); err != nil {
		return errors.Wrap(err, "publish")
	}
	return nil
}
