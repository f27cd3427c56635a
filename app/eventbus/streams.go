package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

func streamConfig(cfg NATSConfig) jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:      cfg.Stream,
		Subjects:  cfg.Subjects,
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    cfg.MaxAge,
	}
}

// ensureStream creates the stream on first start and keeps its subjects and
// retention in line with the config afterwards.
func ensureStream(ctx context.Context, cfg NATSConfig, options []nc.Option, logger *slog.Logger) error {
	conn, err := nc.Connect(cfg.URL, options...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer conn.Close()

	js, err := jetstream.New(conn)
	if err != nil {
		return fmt.Errorf("failed to open JetStream context: %w", err)
	}

	want := streamConfig(cfg)
	_, err = js.Stream(ctx, want.Name)
	switch {
	case errors.Is(err, jetstream.ErrStreamNotFound):
		if _, err := js.CreateStream(ctx, want); err != nil {
			logger.Error("Failed to create JetStream stream", slog.String("stream", want.Name), slog.Any("error", err))
			return fmt.Errorf("failed to create stream %s: %w", want.Name, err)
		}
		logger.Info("Created JetStream stream", slog.String("stream", want.Name))
	case err != nil:
		return fmt.Errorf("failed to look up stream %s: %w", want.Name, err)
	default:
		if _, err := js.UpdateStream(ctx, want); err != nil {
			return fmt.Errorf("failed to update stream %s: %w", want.Name, err)
		}
	}
	return nil
}
