package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jwalitptl/hospital-api/pkg/logger"
)

type BrokerAdapter struct {
	broker Broker
	logger *logger.Logger
}

func NewBrokerAdapter(broker Broker, logger *logger.Logger) MessageBroker {
	return &BrokerAdapter{broker: broker, logger: logger}
}

// Publish forwards payload unchanged. It must already be valid JSON.
func (a *BrokerAdapter) Publish(ctx context.Context, topic string, payload []byte) error {
	if !json.Valid(payload) {
		return fmt.Errorf("payload for %s is not valid JSON", topic)
	}
	return a.broker.Publish(ctx, topic, json.RawMessage(payload))
}

func (a *BrokerAdapter) Close() error {
	return a.broker.Close()
}

// Subscribe runs handler for every message on topic in a background
// goroutine. Handler errors are logged and do not stop the subscription.
func (a *BrokerAdapter) Subscribe(ctx context.Context, topic string, handler func([]byte) error) error {
	msgChan, err := a.broker.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgChan {
			if err := handler(msg); err != nil {
				a.logger.Error(err, "Message handler failed", "topic", topic)
			}
		}
	}()

	return nil
}
