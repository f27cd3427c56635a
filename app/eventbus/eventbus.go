// Package eventbus provides the watermill publisher/subscriber pair shared by all modules.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// TopicMetadataKey carries the destination topic of a message published with an empty topic.
const TopicMetadataKey = "topic"

// ErrNoTopic is returned when a message has neither an explicit nor a metadata topic.
var ErrNoTopic = errors.New("eventbus: message has no topic")

// EventBus is a watermill publisher and subscriber.
type EventBus interface {
	message.Publisher
	message.Subscriber
}

type bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     *slog.Logger
}

// NewInMemory returns a bus backed by watermill's gochannel pub/sub.
func NewInMemory(logger *slog.Logger) EventBus {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermill.NewSlogLogger(logger),
	)
	return &bus{publisher: pubSub, subscriber: pubSub, logger: logger}
}

// Publish sends messages to topic. With an empty topic every message is routed
// by its TopicMetadataKey metadata, which lets a router handler fan out to
// several topics.
func (b *bus) Publish(topic string, messages ...*message.Message) error {
	if topic != "" {
		return b.publisher.Publish(topic, messages...)
	}
	for _, msg := range messages {
		t := msg.Metadata.Get(TopicMetadataKey)
		if t == "" {
			return fmt.Errorf("%w: %s", ErrNoTopic, msg.UUID)
		}
		if err := b.publisher.Publish(t, msg); err != nil {
			return fmt.Errorf("failed to publish to %s: %w", t, err)
		}
	}
	return nil
}

func (b *bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.subscriber.Subscribe(ctx, topic)
}

func (b *bus) Close() error {
	var errs []error
	if err := b.publisher.Close(); err != nil {
		errs = append(errs, err)
	}
	if any(b.subscriber) != any(b.publisher) {
		if err := b.subscriber.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	b.logger.Info("Event bus closed")
	return errors.Join(errs...)
}
