package main

import (
	"context"
	"fmt"

	"civicsnap/internal/db"
	"civicsnap/internal/seed"
	"civicsnap/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the database with sample reports",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "count",
			Usage: "Number of fake reports to create",
			Value: 25,
		},
		&cli.BoolFlag{
			Name:  "reset",
			Usage: "Delete previously seeded reports first",
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(true)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logrus.Info("Connected to database")

		reportRepo := store.NewReportRepository(pool)

		logrus.Info("Seeding reports...")
		if _, err := seed.SeedFakeReports(ctx, pool, reportRepo, c.Int("count"), c.Bool("reset")); err != nil {
			return fmt.Errorf("failed to seed reports: %w", err)
		}

		logrus.Info("Reports seeded successfully")

		return nil
	},
}
