package schemacache

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// AllTemplates is the invalidation payload that drops every entry.
const AllTemplates = "*"

// Subscriber is the part of a Redis client used for invalidation messages.
type Subscriber interface {
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// Subscription relays Redis invalidation messages to a Cache.
type Subscription struct {
	ps   *redis.PubSub
	once sync.Once
	wg   sync.WaitGroup
}

// SubscribeRedis invalidates entries named by messages published on channel.
// The payload is a template id, or AllTemplates.
func (c *Cache) SubscribeRedis(ctx context.Context, client Subscriber, channel string) (*Subscription, error) {
	ps := client.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("schemacache: subscribe %s: %w", channel, err)
	}
	sub := &Subscription{ps: ps}
	sub.wg.Add(1)
	go func() {
		defer sub.wg.Done()
		for msg := range ps.Channel() {
			if msg.Payload == AllTemplates {
				c.InvalidateAll()
				continue
			}
			c.log.Info("template invalidation received", zap.String("template", msg.Payload), zap.String("channel", msg.Channel))
			c.Invalidate(msg.Payload)
		}
	}()
	c.log.Info("subscribed to template invalidations", zap.String("channel", channel))
	return sub, nil
}

// Close unsubscribes and waits for the relay to stop.
func (s *Subscription) Close() error {
	var err error
	s.once.Do(func() {
		err = s.ps.Close()
		s.wg.Wait()
	})
	return err
}

// PublishInvalidation announces that id changed. Use AllTemplates to drop
// every entry in every subscribed cache.
func PublishInvalidation(ctx context.Context, client redis.Cmdable, channel, id string) error {
	if err := client.Publish(ctx, channel, id).Err(); err != nil {
		return fmt.Errorf("schemacache: publish %s: %w", channel, err)
	}
	return nil
}
