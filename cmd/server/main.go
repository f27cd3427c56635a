package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/d2avids/rso-sub000/app"
	authdomain "github.com/d2avids/rso-sub000/app/modules/auth/domain"
	competitiondomain "github.com/d2avids/rso-sub000/app/modules/competition/domain"
	"github.com/d2avids/rso-sub000/app/shared/observability"
	"github.com/d2avids/rso-sub000/config"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// A missing .env is fine; the environment may be set by the orchestrator.
	_ = godotenv.Load()

	cliApp := &cli.App{
		Name:  "server",
		Usage: "competition ranking service",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "path to the configuration file", EnvVars: []string{"CONFIG_PATH"}},
		},
		Commands: []*cli.Command{
			serveCommand(),
			recomputeCommand(),
			sweepCommand(),
			tokenCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// bootstrap loads configuration and initializes the application.
func bootstrap(c *cli.Context, opts app.Options) (*app.App, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	obs, err := observability.Init(c.Context, config.ToObsConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	application := &app.App{}
	if err := application.Initialize(c.Context, cfg, obs, opts); err != nil {
		application.Close()
		return nil, err
	}
	return application, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API, event handlers and ranking scheduler",
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			c.Context = ctx

			application, err := bootstrap(c, app.Options{Serve: true, Queue: true})
			if err != nil {
				return err
			}
			defer application.Close()

			return application.Run(ctx)
		},
	}
}

func recomputeCommand() *cli.Command {
	return &cli.Command{
		Name:  "recompute",
		Usage: "recompute one metric of a competition synchronously",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "competition", Required: true},
			&cli.StringFlag{Name: "metric", Required: true, Usage: "metric id, e.g. q7"},
		},
		Action: func(c *cli.Context) error {
			metric, err := competitiondomain.ParseMetricID(c.String("metric"))
			if err != nil {
				return err
			}

			application, err := bootstrap(c, app.Options{})
			if err != nil {
				return err
			}
			defer application.Close()

			outcome, err := application.CompetitionModule.Service.Recompute(c.Context, competitiondomain.CompetitionID(c.Int64("competition")), metric)
			if err != nil {
				return err
			}
			fmt.Printf("%d %s: %s (solo %d, tandem %d)\n",
				outcome.CompetitionID, outcome.Metric, outcome.Status, outcome.SoloEntries, outcome.TandemEntries)
			return nil
		},
	}
}

func sweepCommand() *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "enqueue a recompute job for every open metric",
		Action: func(c *cli.Context) error {
			application, err := bootstrap(c, app.Options{Queue: true})
			if err != nil {
				return err
			}
			defer application.Close()

			n, err := application.CompetitionModule.Queue.SweepNow(c.Context)
			if err != nil {
				return err
			}
			fmt.Printf("enqueued %d recompute jobs\n", n)
			return nil
		},
	}
}

// tokenCommand mints a bearer token for local testing and operator access.
func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "issue a bearer token",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Required: true},
			&cli.StringFlag{Name: "role", Value: string(authdomain.RoleMember)},
			&cli.StringFlag{Name: "detachments", Usage: "comma separated detachment ids"},
			&cli.DurationFlag{Name: "ttl", Value: 24 * time.Hour},
		},
		Action: func(c *cli.Context) error {
			var detachments []int64
			for _, raw := range strings.Split(c.String("detachments"), ",") {
				if raw = strings.TrimSpace(raw); raw == "" {
					continue
				}
				id, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid detachment id %q: %w", raw, err)
				}
				detachments = append(detachments, id)
			}

			application, err := bootstrap(c, app.Options{})
			if err != nil {
				return err
			}
			defer application.Close()

			token, err := application.AuthModule.IssueToken(c.String("user"), authdomain.Role(c.String("role")), detachments, c.Duration("ttl"))
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
}

