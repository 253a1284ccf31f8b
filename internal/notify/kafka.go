package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/bobmcallan/stocktrader/internal/common"
	"github.com/bobmcallan/stocktrader/internal/interfaces"
	"github.com/bobmcallan/stocktrader/internal/models"
)

const opPublishTrade = "notify.PublishTrade"

// messageWriter is the part of kafka.Writer used by the trade log.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// TradeLog appends executed trades to a Kafka topic, keyed by owner so one
// owner's trades stay ordered within a partition.
type TradeLog struct {
	writer messageWriter
	topic  string
	logger *common.Logger
}

// NewTradeLog creates a writer for topic on the broker at address.
func NewTradeLog(cfg common.KafkaConfig, timeout time.Duration, logger *common.Logger) *TradeLog {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Address),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           timeout,
		AllowAutoTopicCreation: true,
	}
	return newTradeLog(w, cfg.Topic, logger)
}

func newTradeLog(w messageWriter, topic string, logger *common.Logger) *TradeLog {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &TradeLog{writer: w, topic: topic, logger: logger}
}

// PublishTrade writes trade as a JSON message.
func (l *TradeLog) PublishTrade(ctx context.Context, trade models.StockPurchase) error {
	if l == nil || l.writer == nil {
		return common.NewFailure(common.FailureUnconfigured, opPublishTrade, nil)
	}

	data, err := json.Marshal(trade)
	if err != nil {
		return common.NewFailure(common.FailureMalformed, opPublishTrade, err)
	}

	msg := kafka.Message{
		Key:   []byte(trade.Owner),
		Value: data,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte("StockPurchase")},
		},
	}
	if err := l.writer.WriteMessages(ctx, msg); err != nil {
		return common.TransportFailure(opPublishTrade, fmt.Errorf("write to %s: %w", l.topic, err))
	}

	l.logger.Info().Str("trade_id", trade.ID).Str("owner", trade.Owner).Str("symbol", trade.Symbol).Int("shares", trade.Shares).Str("topic", l.topic).Msg("Trade event delivered")
	return nil
}

// Close flushes and closes the underlying writer.
func (l *TradeLog) Close() error {
	if l == nil || l.writer == nil {
		return nil
	}
	return l.writer.Close()
}

var _ interfaces.TradeEventPublisher = (*TradeLog)(nil)
