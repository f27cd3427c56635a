package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nkeys"
)

// NATSConfig configures the JetStream-backed bus.
type NATSConfig struct {
	URL        string
	NKeySeed   string
	Stream     string
	Subjects   []string
	QueueGroup string
	MaxAge     time.Duration
}

func (c NATSConfig) withDefaults() NATSConfig {
	if c.Stream == "" {
		c.Stream = "RSO_EVENTS"
	}
	if len(c.Subjects) == 0 {
		c.Subjects = []string{"competition.>", "detachment.>"}
	}
	if c.QueueGroup == "" {
		c.QueueGroup = "competition"
	}
	if c.MaxAge == 0 {
		c.MaxAge = 7 * 24 * time.Hour
	}
	return c
}

// NewNATS connects to NATS, makes sure the JetStream stream covering the
// configured subjects exists, and returns a bus over it.
func NewNATS(cfg NATSConfig, logger *slog.Logger) (EventBus, error) {
	cfg = cfg.withDefaults()
	wmLogger := watermill.NewSlogLogger(logger)

	options, err := connectOptions(cfg)
	if err != nil {
		return nil, err
	}

	if err := ensureStream(context.Background(), cfg, options, logger); err != nil {
		return nil, err
	}

	jsConfig := wmnats.JetStreamConfig{
		Disabled:      false,
		AutoProvision: false,
		DurablePrefix: cfg.QueueGroup,
	}

	publisher, err := wmnats.NewPublisher(
		wmnats.PublisherConfig{
			URL:               cfg.URL,
			NatsOptions:       options,
			Marshaler:         &wmnats.NATSMarshaler{},
			JetStream:         jsConfig,
			SubjectCalculator: wmnats.DefaultSubjectCalculator,
		},
		wmLogger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
	}

	subscriber, err := wmnats.NewSubscriber(
		wmnats.SubscriberConfig{
			URL:               cfg.URL,
			QueueGroupPrefix:  cfg.QueueGroup,
			SubscribersCount:  4,
			CloseTimeout:      30 * time.Second,
			AckWaitTimeout:    30 * time.Second,
			NatsOptions:       options,
			Unmarshaler:       &wmnats.NATSMarshaler{},
			JetStream:         jsConfig,
			SubjectCalculator: wmnats.DefaultSubjectCalculator,
		},
		wmLogger,
	)
	if err != nil {
		_ = publisher.Close()
		return nil, fmt.Errorf("failed to create NATS subscriber: %w", err)
	}

	logger.Info("NATS event bus connected",
		slog.String("url", cfg.URL),
		slog.String("stream", cfg.Stream),
	)

	return &bus{publisher: publisher, subscriber: subscriber, logger: logger}, nil
}

func connectOptions(cfg NATSConfig) ([]nc.Option, error) {
	options := []nc.Option{
		nc.Name("rso-competitions"),
		nc.RetryOnFailedConnect(true),
		nc.Timeout(30 * time.Second),
		nc.ReconnectWait(1 * time.Second),
	}

	if cfg.NKeySeed != "" {
		kp, err := nkeys.FromSeed([]byte(cfg.NKeySeed))
		if err != nil {
			return nil, fmt.Errorf("failed to parse NATS nkey seed: %w", err)
		}
		pub, err := kp.PublicKey()
		if err != nil {
			return nil, fmt.Errorf("failed to derive NATS public key: %w", err)
		}
		options = append(options, nc.Nkey(pub, kp.Sign))
	}

	return options, nil
}
