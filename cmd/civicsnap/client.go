package main

import (
	"fmt"

	"civicsnap/internal/session"
	"civicsnap/pkg/sdk"
	"civicsnap/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var clientFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "api-url",
		Usage:   "Base URL of the civicsnap API",
		Value:   "http://localhost:8080",
		EnvVars: []string{"CIVICSNAP_API_URL"},
	},
	&cli.StringFlag{
		Name:    "email",
		Usage:   "Sign in with this email; anonymous when empty",
		EnvVars: []string{"CIVICSNAP_EMAIL"},
	},
	&cli.StringFlag{
		Name:    "password",
		Usage:   "Password for --email",
		EnvVars: []string{"CIVICSNAP_PASSWORD"},
	},
}

type clientEnv struct {
	client  *sdk.Client
	session *session.Session
	logger  *logrus.Logger
}

// newClientEnv builds an API client and signs in when credentials are given.
func newClientEnv(c *cli.Context) (*clientEnv, error) {
	cfg, err := loadConfig(false)
	if err != nil {
		return nil, err
	}

	env := &clientEnv{
		session: session.New(),
		logger:  newLogger(cfg, false),
	}
	env.client = sdk.New(c.String("api-url"), env.session)

	if email := c.String("email"); email != "" {
		identity, err := env.client.Login(c.Context, email, c.String("password"))
		if err != nil {
			return nil, fmt.Errorf("login failed: %w", err)
		}
		env.logger.WithField("user_id", identity.UserID).Info("signed in")
	}

	return env, nil
}

func (e *clientEnv) userID() string {
	if id := e.session.Current(); id != nil {
		return id.UserID
	}
	return ""
}

func printReport(r *types.Report) {
	owner := "anonymous"
	if r.UserID != nil {
		owner = *r.UserID
	}
	location := "-"
	if r.Location != nil {
		location = *r.Location
	}
	visibility := "private"
	if r.IsPublic {
		visibility = "public"
	}

	fmt.Printf("%s  %s  %-7s  %s\n    %s\n    %s\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04"), visibility, owner, r.Description, location)
}
