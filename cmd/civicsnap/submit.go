package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"civicsnap/internal/submission"

	"github.com/gabriel-vasile/mimetype"
	"github.com/urfave/cli/v2"
)

var submitCommand = &cli.Command{
	Name:  "submit",
	Usage: "Submit a photo issue report through the API",
	Flags: append([]cli.Flag{
		&cli.PathFlag{
			Name:     "image",
			Usage:    "Path to the photo",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "description",
			Usage:    "What is wrong, in at least two words",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "location",
			Usage: "Address or landmark",
		},
		&cli.Float64Flag{
			Name:  "lat",
			Usage: "Latitude, used with --lng when --location is empty",
		},
		&cli.Float64Flag{
			Name:  "lng",
			Usage: "Longitude, used with --lat when --location is empty",
		},
		&cli.BoolFlag{
			Name:  "public",
			Usage: "Show the report in the public feed (signed-in users only)",
		},
	}, clientFlags...),
	Action: submit,
}

func submit(c *cli.Context) error {
	env, err := newClientEnv(c)
	if err != nil {
		return err
	}

	o := submission.New(submission.Deps{
		Uploader: env.client,
		Verifier: env.client,
		Reports:  env.client,
		Notifier: env.client,
		Geocoder: env.client,
		Session:  env.session,
		Logger:   env.logger,
	})
	defer o.Close()

	path := c.Path("image")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	if err := o.AcceptImage(data, mimetype.Detect(data).String(), filepath.Base(path)); err != nil {
		return errors.New(submission.UserMessage(err))
	}

	if err := o.SetDescription(c.String("description")); err != nil {
		return errors.New(submission.UserMessage(err))
	}

	switch {
	case c.String("location") != "":
		err = o.SetLocation(c.String("location"))
	case c.IsSet("lat") && c.IsSet("lng"):
		var location string
		location, err = o.DetectLocation(c.Context, c.Float64("lat"), c.Float64("lng"))
		if err == nil {
			env.logger.WithField("location", location).Info("location detected")
		}
	default:
		err = o.SetLocation("")
	}
	if err != nil {
		return errors.New(submission.UserMessage(err))
	}

	if err := o.SetPublic(c.Bool("public")); err != nil {
		return errors.New(submission.UserMessage(err))
	}

	report, err := o.Submit(c.Context)
	if err != nil {
		env.logger.WithError(err).Debug("submission failed")
		return errors.New(submission.UserMessage(err))
	}

	fmt.Println("Report submitted.")
	printReport(report)
	return nil
}
