package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"portfolioSim/internal/domain"
	"portfolioSim/internal/ports"
)

// EventTradeExecuted is the event type of every message the producer writes.
const EventTradeExecuted = "TRADE_EXECUTED"

// TradeEvent is the JSON payload announcing one executed trade.
type TradeEvent struct {
	EventType string             `json:"event_type"`
	Stock     string             `json:"stock"`
	Trade     domain.TradeRecord `json:"trade"`
	Timestamp time.Time          `json:"timestamp"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer implements ports.TradePublisher on a Kafka topic.
type Producer struct {
	writer messageWriter
	topic  string
	logger ports.Logger
	now    func() time.Time
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string, logger ports.Logger) (*Producer, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, fmt.Errorf("kafka brokers and topic are required: %w", ports.ErrConfigurationError)
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for kafka producer")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return newProducer(writer, topic, logger), nil
}

func newProducer(w messageWriter, topic string, logger ports.Logger) *Producer {
	return &Producer{writer: w, topic: topic, logger: logger, now: time.Now}
}

// PublishTrade publishes a trade executed event keyed by stock.
func (p *Producer) PublishTrade(ctx context.Context, trade domain.TradeRecord) error {
	msg, err := p.message(trade)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %v: %w", err, ports.ErrPublishFailed)
	}
	p.logger.Debug(ctx, "Trade event published", map[string]interface{}{"topic": p.topic, "stock": trade.Stock, "id": trade.ID})
	return nil
}

func (p *Producer) message(trade domain.TradeRecord) (kafka.Message, error) {
	event := TradeEvent{
		EventType: EventTradeExecuted,
		Stock:     trade.Stock,
		Trade:     trade,
		Timestamp: p.now(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal event: %v: %w", err, ports.ErrPublishFailed)
	}
	return kafka.Message{
		Key:   []byte(trade.Stock),
		Value: data,
	}, nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
