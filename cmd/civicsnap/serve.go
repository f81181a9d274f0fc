package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"civicsnap/internal/db"
	"civicsnap/internal/geocode"
	"civicsnap/internal/notify"
	"civicsnap/internal/server"
	"civicsnap/internal/storage"
	"civicsnap/internal/store"
	"civicsnap/internal/verify"
	"civicsnap/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "Start the HTTP API",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "in-memory",
			Usage: "Keep reports in memory instead of Postgres",
		},
	},
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	inMemory := cCtx.Bool("in-memory")

	config, err := loadConfig(!inMemory)
	if err != nil {
		return err
	}

	logger := newLogger(config, true)

	awsConfig, err := loadAWSConfig(ctx)
	if err != nil {
		return err
	}

	var reports store.ReportStore
	if inMemory {
		logger.Warn("using in-memory report repository; reports are lost on restart")
		reports = store.NewMemoryReportRepository()
	} else {
		pool, err := db.Connect(ctx, config)
		if err != nil {
			return err
		}
		defer pool.Close()

		reports = store.NewReportRepository(pool)
	}

	objects, err := newObjectStore(awsConfig, config)
	if err != nil {
		return err
	}
	uploads := storage.NewGateway(objects, logger, config.MaxUploadBytes, config.AllowedMimeTypes)

	var model verify.Model
	if strings.TrimSpace(config.GeminiAPIKey) != "" {
		gemini, err := verify.NewGeminiModel(ctx, config.GeminiAPIKey, config.GeminiModel)
		if err != nil {
			return err
		}
		defer gemini.Close()
		model = gemini
	} else {
		logger.Warn("GEMINI_API_KEY not set; verification requests will fail")
	}

	verifier := verify.NewGateway(model, verify.Sentinels{
		Mismatch:    config.VerifyMismatchTokens,
		NotEligible: config.VerifyNotEligibleTokens,
	}, logger)

	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if config.EmailCityContact != "" && config.EmailFrom != "" {
		notifier = notify.NewSESNotifier(sesv2.NewFromConfig(awsConfig), config.EmailFrom, config.EmailCityContact, logger)
	}

	opts := server.Options{
		Reports:  reports,
		Uploads:  uploads,
		Verifier: verifier,
		Notifier: notifier,
		Geocoder: geocode.NewNominatim(config.NominatimURL, config.GeocodeUserAgent),
	}

	if config.CognitoIssuerURL != "" {
		jwkCache, err := jwk.NewCache(ctx, httprc.NewClient())
		if err != nil {
			return fmt.Errorf("failed to initilaize jwk cache: %w", err)
		}

		err = jwkCache.Register(ctx, server.JWKSURL(config.CognitoIssuerURL))
		if err != nil {
			return fmt.Errorf("failed to register cognito jwk with cache: %w", err)
		}

		opts.Tokens = server.NewJWKSVerifier(jwkCache, config.CognitoIssuerURL, config.CognitoClientID)
		opts.Cognito = cognitoidentityprovider.NewFromConfig(awsConfig)
	} else {
		logger.Warn("COGNITO_ISSUER_URL not set; all requests are anonymous")
	}

	srv, err := server.New(config, logger, opts)
	if err != nil {
		return err
	}

	go func() {
		logger.WithField("port", config.ServerPort).Infof("server starting http://localhost:%d", config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}

func newObjectStore(awsConfig aws.Config, config *types.Config) (storage.ObjectStore, error) {
	switch strings.ToLower(config.StorageDriver) {
	case "supabase":
		if config.SupabaseProjectID == "" || config.SupabaseServiceKey == "" {
			return nil, fmt.Errorf("set SUPABASE_PROJECT_ID and SUPABASE_SERVICE_KEY for the supabase storage driver")
		}
		return storage.NewSupabaseStorage(config.SupabaseProjectID, config.SupabaseServiceKey, config.S3BucketName), nil
	case "s3", "":
		base := config.StoragePublicBaseURL
		if base == "" {
			base = fmt.Sprintf("https://%s.s3.amazonaws.com/", config.S3BucketName)
		}
		return storage.NewS3Store(newS3Client(awsConfig, config), config.S3BucketName, base), nil
	}

	return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", config.StorageDriver)
}
