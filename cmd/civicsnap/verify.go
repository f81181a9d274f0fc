package main

import (
	"fmt"
	"os"

	"civicsnap/internal/verify"
	"civicsnap/pkg/types"

	"github.com/gabriel-vasile/mimetype"
	"github.com/k0kubun/pp/v3"
	"github.com/urfave/cli/v2"
)

var verifyCommand = &cli.Command{
	Name:  "verify",
	Usage: "Run image verification locally against the inference API",
	Flags: []cli.Flag{
		&cli.PathFlag{
			Name:     "image",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "description",
			Required: true,
		},
		&cli.StringFlag{
			Name: "location",
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(false)
		if err != nil {
			return err
		}

		logger := newLogger(cfg, false)

		data, err := os.ReadFile(c.Path("image"))
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}

		var model verify.Model
		if cfg.GeminiAPIKey != "" {
			gemini, err := verify.NewGeminiModel(c.Context, cfg.GeminiAPIKey, cfg.GeminiModel)
			if err != nil {
				return err
			}
			defer gemini.Close()
			model = gemini
		}

		gateway := verify.NewGateway(model, verify.Sentinels{
			Mismatch:    cfg.VerifyMismatchTokens,
			NotEligible: cfg.VerifyNotEligibleTokens,
		}, logger)

		outcome, err := gateway.Verify(c.Context, c.String("description"), c.String("location"), data, mimetype.Detect(data).String())
		if err != nil {
			return err
		}

		pp.Println(outcome)
		if outcome.Kind == types.OutcomeAccepted {
			pp.Println(verify.Extract(outcome.RawText))
		}

		return nil
	},
}
