package server

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"civicsnap/internal/notify"
	"civicsnap/internal/store"
	"civicsnap/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-playground/form/v4"
	"github.com/gorilla/securecookie"
	"github.com/sirupsen/logrus"
)

var decoder = form.NewDecoder()

type Uploader interface {
	Upload(ctx context.Context, data []byte, mimeType, originalName string) (*types.UploadResult, error)
	MaxBytes() int64
}

type Verifier interface {
	Verify(ctx context.Context, description, location string, image []byte, mimeType string) (*types.Outcome, error)
}

type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (string, error)
}

// TokenVerifier validates an access token and returns the identity it was
// issued to.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*types.Identity, error)
}

type Options struct {
	Reports  store.ReportStore
	Uploads  Uploader
	Verifier Verifier
	Notifier notify.Notifier
	Geocoder Geocoder
	Tokens   TokenVerifier
	Cognito  cognitoAPI
}

type Service struct {
	logger *logrus.Logger
	config *types.Config

	reports  store.ReportStore
	uploads  Uploader
	verifier Verifier
	notifier notify.Notifier
	geocoder Geocoder

	cognito cognitoAPI
	tokens  TokenVerifier
	cookie  *securecookie.SecureCookie

	handler http.Handler
	server  *http.Server
}

func New(config *types.Config, logger *logrus.Logger, opts Options) (*Service, error) {
	mux := flow.New()

	hashKey, err := base64.StdEncoding.DecodeString(config.CookieHashKey)
	if err != nil {
		return nil, fmt.Errorf("decode COOKIE_HASH_KEY: %w", err)
	}
	blockKey, err := base64.StdEncoding.DecodeString(config.CookieBlockKey)
	if err != nil {
		return nil, fmt.Errorf("decode COOKIE_BLOCK_KEY: %w", err)
	}
	if len(hashKey) == 0 {
		hashKey = securecookie.GenerateRandomKey(32)
		logger.Warn("COOKIE_HASH_KEY not set, using a random key; sessions will not survive a restart")
	}
	if len(blockKey) == 0 {
		blockKey = securecookie.GenerateRandomKey(32)
	}

	s := &Service{
		logger: logger,
		config: config,

		reports:  opts.Reports,
		uploads:  opts.Uploads,
		verifier: opts.Verifier,
		notifier: opts.Notifier,
		geocoder: opts.Geocoder,

		cognito: opts.Cognito,
		tokens:  opts.Tokens,
		cookie:  securecookie.New(hashKey, blockKey),

		handler: mux,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			Handler:           mux,
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	if s.notifier == nil {
		s.notifier = notify.NewLogNotifier(logger)
	}

	s.buildRouter(mux)

	return s, nil
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the routed handler for in-process use.
func (s *Service) Handler() http.Handler {
	return s.handler
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.StripTrailingSlash)
	r.Use(s.LoggingMiddleware)
	r.Use(s.OptionalAuth)

	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)

	r.HandleFunc("/login", s.handlePostLogin, http.MethodPost)
	r.HandleFunc("/register", s.handlePostRegister, http.MethodPost)
	r.HandleFunc("/logout", s.handlePostLogout, http.MethodPost)

	r.HandleFunc("/upload", s.handlePostUpload, http.MethodPost)
	r.HandleFunc("/verify", s.handlePostVerify, http.MethodPost)

	r.HandleFunc("/reports", s.handleGetReports, http.MethodGet)
	r.HandleFunc("/reports", s.handlePostReport, http.MethodPost)
	r.HandleFunc("/reports/:id/notify", s.handlePostReportNotify, http.MethodPost)

	r.HandleFunc("/geocode/reverse", s.handleGetReverseGeocode, http.MethodGet)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAuth)

		r.HandleFunc("/reports/:id", s.handlePatchReport, http.MethodPatch)
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) identityFromContext(ctx context.Context) *types.Identity {
	id, _ := ctx.Value(contextKeyIdentity).(*types.Identity)
	return id
}
