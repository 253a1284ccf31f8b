// Package notify publishes best-effort portfolio notifications
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/bobmcallan/stocktrader/internal/common"
	"github.com/bobmcallan/stocktrader/internal/interfaces"
	"github.com/bobmcallan/stocktrader/internal/models"
)

const (
	DefaultQueue = "stocktrader:notifications"

	opPublishTierChange = "notify.PublishTierChange"
)

// listPusher is the part of the redis client used by the queue.
type listPusher interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// RedisQueue delivers loyalty tier changes onto a Redis list used as a
// work queue. Consumers BRPOP from the same key.
type RedisQueue struct {
	client listPusher
	queue  string
	logger *common.Logger
}

// NewRedisQueue wraps an existing redis client.
func NewRedisQueue(client redis.UniversalClient, queue string, logger *common.Logger) *RedisQueue {
	return newRedisQueue(client, queue, logger)
}

func newRedisQueue(client listPusher, queue string, logger *common.Logger) *RedisQueue {
	if queue == "" {
		queue = DefaultQueue
	}
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &RedisQueue{client: client, queue: queue, logger: logger}
}

// NewRedisClient builds a redis client from config.
func NewRedisClient(cfg common.RedisConfig) redis.UniversalClient {
	return redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{cfg.Address},
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// PublishTierChange pushes the change as JSON onto the queue.
func (q *RedisQueue) PublishTierChange(ctx context.Context, change models.LoyaltyChange) error {
	if q == nil || q.client == nil {
		return common.NewFailure(common.FailureUnconfigured, opPublishTierChange, nil)
	}

	data, err := json.Marshal(change)
	if err != nil {
		return common.NewFailure(common.FailureMalformed, opPublishTierChange, err)
	}

	if err := q.client.LPush(ctx, q.queue, data).Err(); err != nil {
		return common.TransportFailure(opPublishTierChange, fmt.Errorf("lpush %s: %w", q.queue, err))
	}

	q.logger.Info().Str("owner", change.Owner).Str("old", change.Old.String()).Str("new", change.New.String()).Str("queue", q.queue).Msg("Loyalty change queued")
	return nil
}

var _ interfaces.TierChangePublisher = (*RedisQueue)(nil)
