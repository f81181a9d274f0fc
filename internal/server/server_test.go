package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"civicsnap/internal"
	"civicsnap/internal/notify"
	"civicsnap/internal/storage"
	"civicsnap/internal/store"
	"civicsnap/internal/utils"
	"civicsnap/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ctypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokens map[string]types.Identity

func (f fakeTokens) Verify(_ context.Context, token string) (*types.Identity, error) {
	id, ok := f[token]
	if !ok {
		return nil, types.ErrUnauthorized
	}
	return &id, nil
}

type memoryObjects struct {
	keys []string
}

func (m *memoryObjects) Put(_ context.Context, key string, _ []byte, _ string) error {
	m.keys = append(m.keys, key)
	return nil
}

func (m *memoryObjects) PublicURL(key string) string {
	return "https://cdn.example.com/reports/" + key
}

type fakeVerifier struct {
	outcome *types.Outcome
	err     error
	got     []string
}

func (f *fakeVerifier) Verify(_ context.Context, description, location string, _ []byte, mimeType string) (*types.Outcome, error) {
	f.got = []string{description, location, mimeType}
	if f.err != nil {
		return nil, f.err
	}
	if strings.TrimSpace(description) == "" {
		return nil, types.NewValidationError("description", "Missing required fields")
	}
	return f.outcome, nil
}

type fakeNotifier struct {
	sent []notify.Notification
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, n notify.Notification) error {
	f.sent = append(f.sent, n)
	return f.err
}

type fakeCognito struct {
	token  string
	err    error
	signUp *cognitoidentityprovider.SignUpInput
}

func (f *fakeCognito) InitiateAuth(_ context.Context, _ *cognitoidentityprovider.InitiateAuthInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &cognitoidentityprovider.InitiateAuthOutput{
		AuthenticationResult: &ctypes.AuthenticationResultType{
			AccessToken: aws.String(f.token),
			ExpiresIn:   3600,
		},
	}, nil
}

func (f *fakeCognito) SignUp(_ context.Context, params *cognitoidentityprovider.SignUpInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error) {
	f.signUp = params
	if f.err != nil {
		return nil, f.err
	}
	return &cognitoidentityprovider.SignUpOutput{UserSub: aws.String("sub-1"), UserConfirmed: false}, nil
}

type testEnv struct {
	svc      *Service
	repo     *store.MemoryReportRepository
	objects  *memoryObjects
	verifier *fakeVerifier
	notifier *fakeNotifier
	cognito  *fakeCognito
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	env := &testEnv{
		repo:     store.NewMemoryReportRepository(),
		objects:  &memoryObjects{},
		verifier: &fakeVerifier{outcome: &types.Outcome{Kind: types.OutcomeAccepted, RawText: "Description of Issue:\nx"}},
		notifier: &fakeNotifier{},
		cognito:  &fakeCognito{token: "tok-u1"},
	}

	svc, err := New(&types.Config{ServerPort: 0}, logger, Options{
		Reports:  env.repo,
		Uploads:  storage.NewGateway(env.objects, logger, 1024, nil),
		Verifier: env.verifier,
		Notifier: env.notifier,
		Tokens: fakeTokens{
			"tok-u1": {UserID: "u1", Email: "one@example.com"},
			"tok-u2": {UserID: "u2", Email: "two@example.com"},
		},
		Cognito: env.cognito,
	})
	require.NoError(t, err)

	env.svc = svc
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.svc.Handler().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seed(t *testing.T, userID string, isPublic bool) *types.Report {
	t.Helper()
	in := &types.CreateReport{Description: "Broken light", ImageURL: "https://cdn.example.com/a.jpg"}
	if userID != "" {
		in.UserID = utils.StringPtr(userID)
		in.IsPublic = utils.BoolPtr(isPublic)
	}
	r, err := e.repo.CreateReport(context.Background(), in)
	require.NoError(t, err)
	return r
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPostReport(t *testing.T) {
	env := newTestEnv(t)

	t.Run("authenticated defaults to caller", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/reports", "tok-u1", map[string]any{
			"description": "Pothole on Main St",
			"imageUrl":    "https://cdn.example.com/a.jpg",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		r := decode[types.Report](t, rec)
		assert.Equal(t, "u1", *r.UserID)
		assert.False(t, r.IsPublic)
		assert.NotEmpty(t, r.ID)
	})

	t.Run("anonymous", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/reports", "", map[string]any{
			"description": "Pothole",
			"imageUrl":    "https://cdn.example.com/a.jpg",
			"isPublic":    true,
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		r := decode[types.Report](t, rec)
		assert.Nil(t, r.UserID)
		assert.False(t, r.IsPublic)
	})

	t.Run("other user id is forbidden", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/reports", "tok-u1", map[string]any{
			"description": "Pothole",
			"imageUrl":    "https://cdn.example.com/a.jpg",
			"userId":      "u2",
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		before, _ := env.repo.Reports(context.Background(), types.ReportListOptions{UserID: "u1"}.Normalize())

		rec := env.do(t, http.MethodPost, "/reports", "tok-u1", map[string]any{"description": "Pothole"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "imageUrl is required", decode[types.ErrorResponse](t, rec).Error)

		after, _ := env.repo.Reports(context.Background(), types.ReportListOptions{UserID: "u1"}.Normalize())
		assert.Equal(t, before.Total, after.Total)
	})
}

func TestGetReports(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "u1", true)
	env.seed(t, "u1", false)
	env.seed(t, "u2", false)
	env.seed(t, "u2", true)

	tests := []struct {
		name  string
		path  string
		token string
		total int
	}{
		{"anonymous feed", "/reports", "", 2},
		{"anonymous asking for private", "/reports?visibility=private", "", 2},
		{"own reports", "/reports?userId=u1", "tok-u1", 2},
		{"own private", "/reports?userId=u1&visibility=private", "tok-u1", 1},
		{"someone else", "/reports?userId=u2", "tok-u1", 1},
		{"someone else private", "/reports?userId=u2&visibility=private", "tok-u1", 1},
		{"anonymous by user", "/reports?userId=u1", "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, tt.path, tt.token, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			out := decode[types.ReportListResponse](t, rec)
			assert.Equal(t, tt.total, out.Pagination.Total)
			for _, r := range out.Items {
				if tt.token == "" {
					assert.True(t, r.IsPublic)
				}
			}
		})
	}

	rec := env.do(t, http.MethodGet, "/reports?visibility=secret", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetReports_Pagination(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 25; i++ {
		env.seed(t, "u1", true)
	}

	rec := env.do(t, http.MethodGet, "/reports?page=3&limit=10", "", nil)
	out := decode[types.ReportListResponse](t, rec)
	assert.Len(t, out.Items, 5)
	assert.Equal(t, types.Pagination{Total: 25, Page: 3, Limit: 10, Pages: 3}, out.Pagination)

	rec = env.do(t, http.MethodGet, "/reports?page=4&limit=10", "", nil)
	out = decode[types.ReportListResponse](t, rec)
	assert.Empty(t, out.Items)
	assert.NotNil(t, out.Items)

	rec = env.do(t, http.MethodGet, "/reports?page=1844674407370955161&limit=10", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out = decode[types.ReportListResponse](t, rec)
	assert.Empty(t, out.Items)
	assert.Equal(t, 25, out.Pagination.Total)
}

func TestPatchReport(t *testing.T) {
	env := newTestEnv(t)
	owned := env.seed(t, "u1", false)
	anon := env.seed(t, "", false)

	rec := env.do(t, http.MethodPatch, "/reports/"+owned.ID, "", map[string]any{"is_public": true})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPatch, "/reports/"+owned.ID, "tok-u2", map[string]any{"is_public": true})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPatch, "/reports/"+anon.ID, "tok-u1", map[string]any{"is_public": true})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPatch, "/reports/missing", "tok-u1", map[string]any{"is_public": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPatch, "/reports/"+owned.ID, "tok-u1", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPatch, "/reports/"+owned.ID, "tok-u1", map[string]any{"is_public": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[types.Report](t, rec).IsPublic)

	stored, err := env.repo.Report(context.Background(), owned.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPublic)
}

func TestNotify(t *testing.T) {
	env := newTestEnv(t)
	r := env.seed(t, "u1", false)

	rec := env.do(t, http.MethodPost, "/reports/"+r.ID+"/notify", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/reports/"+r.ID+"/notify", "tok-u2", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, env.notifier.sent)

	rec = env.do(t, http.MethodPost, "/reports/"+r.ID+"/notify", "tok-u1", nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, env.notifier.sent, 1)
	assert.Equal(t, "one@example.com", env.notifier.sent[0].ReporterEmail)

	rec = env.do(t, http.MethodPost, "/reports/"+r.ID+"/notify", "tok-u1", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, env.notifier.sent, 1)

	rec = env.do(t, http.MethodPost, "/reports/missing/notify", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotify_AnonymousReport(t *testing.T) {
	env := newTestEnv(t)
	anon := env.seed(t, "", false)

	rec := env.do(t, http.MethodPost, "/reports/"+anon.ID+"/notify", "tok-u2", nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, env.notifier.sent, 1)
	assert.Empty(t, env.notifier.sent[0].ReporterEmail)

	rec = env.do(t, http.MethodPost, "/reports/"+anon.ID+"/notify", "", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, env.notifier.sent, 1)
}

func TestNotify_FailedSendCanBeRetried(t *testing.T) {
	env := newTestEnv(t)
	r := env.seed(t, "u1", false)

	env.notifier.err = errors.New("ses down")
	rec := env.do(t, http.MethodPost, "/reports/"+r.ID+"/notify", "tok-u1", nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	env.notifier.err = nil
	rec = env.do(t, http.MethodPost, "/reports/"+r.ID+"/notify", "tok-u1", nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Len(t, env.notifier.sent, 2)

	rec = env.do(t, http.MethodPost, "/reports/"+r.ID+"/notify", "tok-u1", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func multipartRequest(t *testing.T, path string, fields map[string]string, image []byte, mimeType string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="photo.png"`)
		h.Set("Content-Type", mimeType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestUpload(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.svc.Handler().ServeHTTP(rec, multipartRequest(t, "/upload", nil, pngBytes, "image/png"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[types.UploadResult](t, rec)
	assert.True(t, strings.HasPrefix(res.Path, "public/"))
	assert.True(t, strings.HasSuffix(res.Path, ".png"))
	assert.Equal(t, "https://cdn.example.com/reports/"+res.Path, res.PublicURL)

	rec = httptest.NewRecorder()
	env.svc.Handler().ServeHTTP(rec, multipartRequest(t, "/upload", nil, make([]byte, 1025), "image/png"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	env.svc.Handler().ServeHTTP(rec, multipartRequest(t, "/upload", nil, []byte("%PDF-1.4"), "application/pdf"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	env.svc.Handler().ServeHTTP(rec, multipartRequest(t, "/upload", nil, nil, ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Len(t, env.objects.keys, 1)
}

func TestVerify(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.svc.Handler().ServeHTTP(rec, multipartRequest(t, "/verify", map[string]string{
		"description": "broken light",
		"location":    "Main St",
	}, pngBytes, "image/png"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, types.OutcomeAccepted, decode[types.Outcome](t, rec).Kind)
	assert.Equal(t, []string{"broken light", "Main St", "image/png"}, env.verifier.got)

	rec = httptest.NewRecorder()
	env.svc.Handler().ServeHTTP(rec, multipartRequest(t, "/verify", map[string]string{"description": "broken light"}, pngBytes, "application/octet-stream"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", env.verifier.got[2])

	rec = httptest.NewRecorder()
	env.svc.Handler().ServeHTTP(rec, multipartRequest(t, "/verify", map[string]string{"location": "x"}, pngBytes, "image/png"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	env.svc.Handler().ServeHTTP(rec, multipartRequest(t, "/verify", map[string]string{"description": "broken light"}, nil, ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.verifier.err = types.UpstreamError("inference call failed", nil)
	rec = httptest.NewRecorder()
	env.svc.Handler().ServeHTTP(rec, multipartRequest(t, "/verify", map[string]string{"description": "broken light"}, pngBytes, "image/png"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "please try again")

	env.verifier.err = types.ConfigurationError("missing inference API key")
	rec = httptest.NewRecorder()
	env.svc.Handler().ServeHTTP(rec, multipartRequest(t, "/verify", map[string]string{"description": "broken light"}, pngBytes, "image/png"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "API key")
}

func TestLoginSetsCookie(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/login", "", types.Credentials{Email: "one@example.com", Password: "hunter22"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	id := decode[types.Identity](t, rec)
	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, "tok-u1", id.AccessToken)
	assert.Equal(t, 3600, id.ExpiresIn)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == internal.COOKIE_ACCESS_TOKEN_NAME {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.NotEqual(t, "tok-u1", cookie.Value)

	env.seed(t, "u1", false)
	req := httptest.NewRequest(http.MethodGet, "/reports?userId=u1&visibility=private", nil)
	req.AddCookie(cookie)
	list := httptest.NewRecorder()
	env.svc.Handler().ServeHTTP(list, req)
	assert.Equal(t, 1, decode[types.ReportListResponse](t, list).Pagination.Total)
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/login", "", types.Credentials{Email: "one@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.cognito.err = &ctypes.NotAuthorizedException{Message: aws.String("Incorrect username or password.")}
	rec = env.do(t, http.MethodPost, "/login", "", types.Credentials{Email: "one@example.com", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", decode[types.ErrorResponse](t, rec).Error)
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/register", "", types.Credentials{Email: "new@example.com", Password: "longenough"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "sub-1", decode[types.RegisterResponse](t, rec).UserID)
	assert.Equal(t, "new@example.com", aws.ToString(env.cognito.signUp.Username))

	rec = env.do(t, http.MethodPost, "/register", "", types.Credentials{Email: "not-an-email", Password: "longenough"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.cognito.err = &ctypes.UsernameExistsException{Message: aws.String("exists")}
	rec = env.do(t, http.MethodPost, "/register", "", types.Credentials{Email: "new@example.com", Password: "longenough"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/logout", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotEmpty(t, rec.Result().Cookies())
	assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)
}

type stubGeocoder struct{}

func (stubGeocoder) Reverse(_ context.Context, lat, lng float64) (string, error) {
	return fmt.Sprintf("near %.1f %.1f", lat, lng), nil
}

func TestReverseGeocode(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/geocode/reverse?lat=37.33&lng=-121.88", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "37.33,-121.88", decode[types.GeocodeResponse](t, rec).Location)

	env.svc.geocoder = stubGeocoder{}
	rec = env.do(t, http.MethodGet, "/geocode/reverse?lat=37.33&lng=-121.88", "", nil)
	assert.Equal(t, "near 37.3 -121.9", decode[types.GeocodeResponse](t, rec).Location)

	rec = env.do(t, http.MethodGet, "/geocode/reverse?lat=abc&lng=1", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for _, q := range []string{"lat=NaN&lng=1", "lat=1&lng=Inf", "lat=-Inf&lng=1", "lat=95&lng=1"} {
		rec = env.do(t, http.MethodGet, "/geocode/reverse?"+q, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestIdentityFromToken(t *testing.T) {
	secret := []byte("test-secret-test-secret-test-sec")
	const issuer = "https://cognito-idp.us-east-1.amazonaws.com/us-east-1_pool"

	sign := func(t *testing.T, iss, tokenUse, clientID string) string {
		t.Helper()
		tok, err := jwt.NewBuilder().
			Issuer(iss).
			Subject("u1").
			Expiration(time.Now().Add(time.Hour)).
			Claim("email", "one@example.com").
			Claim("token_use", tokenUse).
			Claim("client_id", clientID).
			Build()
		require.NoError(t, err)

		signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256(), secret))
		require.NoError(t, err)
		return string(signed)
	}

	parse := func(token string, key []byte) (*types.Identity, error) {
		return identityFromToken(token, "client-1",
			jwt.WithKey(jwa.HS256(), key),
			jwt.WithValidate(true),
			jwt.WithIssuer(issuer),
		)
	}

	id, err := parse(sign(t, issuer, "access", "client-1"), secret)
	require.NoError(t, err)
	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, "one@example.com", id.Email)

	tests := []struct {
		name  string
		token string
		key   []byte
	}{
		{"wrong key", sign(t, issuer, "access", "client-1"), []byte("another-secret-another-secret-an")},
		{"wrong issuer", sign(t, "https://evil.example.com", "access", "client-1"), secret},
		{"id token", sign(t, issuer, "id", "client-1"), secret},
		{"other client", sign(t, issuer, "access", "client-2"), secret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(tt.token, tt.key)
			require.ErrorIs(t, err, types.ErrUnauthorized)
		})
	}
}

func TestJWKSURL(t *testing.T) {
	assert.Equal(t, "https://cognito-idp.us-east-1.amazonaws.com/pool/.well-known/jwks.json",
		JWKSURL("https://cognito-idp.us-east-1.amazonaws.com/pool/"))
}
