package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcnats "github.com/testcontainers/testcontainers-go/modules/nats"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/d2avids/rso-sub000/config"
	"github.com/d2avids/rso-sub000/integration_tests/containers"
)

// TestJWTSecret signs tokens in integration tests.
const TestJWTSecret = "integration-test-secret-0123456789abcdef"

// TestEnvironment holds all resources needed for integration testing
type TestEnvironment struct {
	Ctx            context.Context
	CancelContext  context.CancelFunc
	PgContainer    *postgres.PostgresContainer
	NatsContainer  *tcnats.NATSContainer
	RedisContainer testcontainers.Container
	DB             *bun.DB
	Config         *config.Config
}

// NewTestEnvironment starts Postgres, NATS and Redis and migrates the schema.
func NewTestEnvironment() (*TestEnvironment, error) {
	ctx, cancel := context.WithCancel(context.Background())
	env := &TestEnvironment{Ctx: ctx, CancelContext: cancel}

	if err := env.setupContainers(ctx); err != nil {
		env.Cleanup()
		return nil, err
	}
	return env, nil
}

func (env *TestEnvironment) setupContainers(ctx context.Context) error {
	pgContainer, pgConnStr, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		return fmt.Errorf("failed to setup postgres container: %w", err)
	}
	env.PgContainer = pgContainer

	natsContainer, natsURL, err := containers.SetupNatsContainer(ctx)
	if err != nil {
		return fmt.Errorf("failed to setup nats container: %w", err)
	}
	env.NatsContainer = natsContainer

	redisContainer, redisURL, err := containers.SetupRedisContainer(ctx)
	if err != nil {
		return fmt.Errorf("failed to setup redis container: %w", err)
	}
	env.RedisContainer = redisContainer

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(pgConnStr)))
	env.DB = bun.NewDB(sqldb, pgdialect.New())

	if err := runMigrations(ctx, env.DB, pgConnStr); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	env.Config = &config.Config{
		Postgres: config.PostgresConfig{DSN: pgConnStr},
		NATS:     config.NATSConfig{URL: natsURL, Stream: "RSO_TEST"},
		Redis:    config.RedisConfig{URL: redisURL},
		HTTP:     config.HTTPConfig{RateLimit: 1000, RateBurst: 1000},
		JWT:      config.JWTConfig{Secret: TestJWTSecret},
		Ranking: config.RankingConfig{
			SweepInterval:    time.Hour,
			RecomputeTimeout: 30 * time.Second,
			Timezone:         "Europe/Moscow",
			CacheTTL:         time.Minute,
			QueueWorkers:     2,
		},
	}
	return nil
}

// Reset truncates all tables between tests.
func (env *TestEnvironment) Reset() error {
	return CleanupDatabase(env.Ctx, env.DB)
}

// Cleanup closes connections and terminates containers.
func (env *TestEnvironment) Cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if env.DB != nil {
		env.DB.Close()
	}
	for name, c := range map[string]testcontainers.Container{
		"postgres": env.PgContainer,
		"nats":     env.NatsContainer,
		"redis":    env.RedisContainer,
	} {
		if c == nil {
			continue
		}
		if err := c.Terminate(ctx); err != nil {
			log.Printf("Failed to terminate %s container: %v", name, err)
		}
	}
	if env.CancelContext != nil {
		env.CancelContext()
	}
}
