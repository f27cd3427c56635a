package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"

	competitionmigrations "github.com/d2avids/rso-sub000/app/modules/competition/infrastructure/repositories/migrations"
	"github.com/d2avids/rso-sub000/config"
)

func main() {
	_ = godotenv.Load()

	var db *bun.DB
	migrators := map[string]*migrate.Migrator{}

	cliApp := &cli.App{
		Name:  "bun",
		Usage: "database migrations for the competition schema",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "path to the configuration file"},
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			pgdb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN)))
			db = bun.NewDB(pgdb, pgdialect.New())
			migrators["competition"] = migrate.NewMigrator(db, competitionmigrations.Migrations)
			return nil
		},
		After: func(c *cli.Context) error {
			if db != nil {
				return db.Close()
			}
			return nil
		},
		Commands: []*cli.Command{
			newMultiModuleDBCommand(migrators),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// moduleNames returns migrator keys in a stable order.
func moduleNames(migrators map[string]*migrate.Migrator) []string {
	names := make([]string, 0, len(migrators))
	for name := range migrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newMultiModuleDBCommand(migrators map[string]*migrate.Migrator) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create migration tables",
				Action: func(c *cli.Context) error {
					for _, name := range moduleNames(migrators) {
						fmt.Printf("Initializing migrations for module: %s\n", name)
						if err := migrators[name].Init(c.Context); err != nil {
							return fmt.Errorf("init %s: %w", name, err)
						}
					}
					return nil
				},
			},
			{
				Name:  "migrate",
				Usage: "migrate database",
				Action: func(c *cli.Context) error {
					for _, name := range moduleNames(migrators) {
						migrator := migrators[name]
						if err := migrator.Lock(c.Context); err != nil {
							return err
						}
						group, err := migrator.Migrate(c.Context)
						migrator.Unlock(c.Context)
						if err != nil {
							return fmt.Errorf("migrate %s: %w", name, err)
						}
						if group.IsZero() {
							fmt.Printf("No new migrations to run for module: %s\n", name)
						} else {
							fmt.Printf("Migrated module: %s to %s\n", name, group)
						}
					}
					return nil
				},
			},
			{
				Name:  "rollback",
				Usage: "rollback the last migration group",
				Action: func(c *cli.Context) error {
					for _, name := range moduleNames(migrators) {
						group, err := migrators[name].Rollback(c.Context)
						if err != nil {
							return fmt.Errorf("rollback %s: %w", name, err)
						}
						if group.IsZero() {
							fmt.Printf("No groups to roll back for module: %s\n", name)
						} else {
							fmt.Printf("Rolled back module: %s to %s\n", name, group)
						}
					}
					return nil
				},
			},
			{
				Name:      "create_go",
				Usage:     "create Go migration",
				ArgsUsage: "<module> <name...>",
				Action: func(c *cli.Context) error {
					name := c.Args().First()
					migrator, ok := migrators[name]
					if !ok {
						return fmt.Errorf("invalid module name: %s", name)
					}
					mf, err := migrator.CreateGoMigration(c.Context, strings.Join(c.Args().Tail(), "_"))
					if err != nil {
						return err
					}
					fmt.Printf("Created migration for module %s: %s (%s)\n", name, mf.Name, mf.Path)
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "print migrations status",
				Action: func(c *cli.Context) error {
					for _, name := range moduleNames(migrators) {
						ms, err := migrators[name].MigrationsWithStatus(c.Context)
						if err != nil {
							return err
						}
						fmt.Printf("Migrations for module: %s\n", name)
						fmt.Printf("  Applied: %s\n", ms.Applied())
						fmt.Printf("  Unapplied: %s\n", ms.Unapplied())
					}
					return nil
				},
			},
		},
	}
}
