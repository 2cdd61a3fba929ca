package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/flowgate/pkg/channels/gochannel"
	"github.com/dukex/flowgate/pkg/channels/kafka"
	"github.com/dukex/flowgate/pkg/eventbus"
)

const serviceName = "flowgate"

// NewEventBus builds the lifecycle event bus. Provider "kafka" publishes to
// the comma separated brokers; "gochannel" or an empty provider keeps events
// in process.
func NewEventBus(provider string, logger *slog.Logger, brokers string) (eventbus.EventBus, error) {
	watermillLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(watermillLogger, kafka.ParseBrokers(brokers), serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	case "", "gochannel":
		pub, sub, err := gochannel.CreateChannel(watermillLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider: %s", provider)
	}
}
