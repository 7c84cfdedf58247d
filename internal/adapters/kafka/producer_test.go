package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolioSim/internal/domain"
	"portfolioSim/internal/ports"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestNewProducer_Validation(t *testing.T) {
	_, err := NewProducer(nil, "trades", &mockLogger{})
	assert.ErrorIs(t, err, ports.ErrConfigurationError)

	_, err = NewProducer([]string{"localhost:9092"}, "", &mockLogger{})
	assert.ErrorIs(t, err, ports.ErrConfigurationError)

	p, err := NewProducer([]string{"localhost:9092"}, "trades", &mockLogger{})
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestProducer_PublishTrade(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "trades", &mockLogger{})
	stamp := time.Date(2024, 3, 4, 9, 15, 0, 0, time.UTC)
	p.now = func() time.Time { return stamp }

	trade := domain.TradeRecord{ID: "t-1", Date: stamp, Stock: "ACME", Type: domain.Buy, Price: 10, Quantity: 5, Value: 50, CapitalRemaining: 950}
	require.NoError(t, p.PublishTrade(context.Background(), trade))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "ACME", string(w.msgs[0].Key))

	var event TradeEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &event))
	assert.Equal(t, EventTradeExecuted, event.EventType)
	assert.Equal(t, "ACME", event.Stock)
	assert.Equal(t, "t-1", event.Trade.ID)
	assert.Equal(t, 950.0, event.Trade.CapitalRemaining)
	assert.True(t, stamp.Equal(event.Timestamp))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_PublishTradeWriteError(t *testing.T) {
	p := newProducer(&fakeWriter{err: errors.New("broker down")}, "trades", &mockLogger{})
	err := p.PublishTrade(context.Background(), domain.TradeRecord{Stock: "ACME"})
	assert.ErrorIs(t, err, ports.ErrPublishFailed)
}
