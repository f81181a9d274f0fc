// Package sdk is the client for the civicsnap HTTP API. Client implements the
// gateway interfaces the submission orchestrator and dashboard feed depend on,
// so both can run against a remote server.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"civicsnap/internal/notify"
	"civicsnap/internal/session"
	"civicsnap/pkg/types"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *session.Session
}

// New returns a client for the API at baseURL. The bearer token is read from
// sess on every request; sess may be nil for anonymous use.
func New(baseURL string, sess *session.Session) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		session: sess,
	}
}

func (c *Client) Login(ctx context.Context, email, password string) (*types.Identity, error) {
	var identity types.Identity
	err := c.doJSON(ctx, http.MethodPost, "/login", &types.Credentials{Email: email, Password: password}, &identity)
	if err != nil {
		return nil, err
	}

	if c.session != nil {
		c.session.Set(identity)
	}

	return &identity, nil
}

func (c *Client) Register(ctx context.Context, email, password string) (*types.RegisterResponse, error) {
	var out types.RegisterResponse
	if err := c.doJSON(ctx, http.MethodPost, "/register", &types.Credentials{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, "/logout", nil, nil)
	if c.session != nil {
		c.session.Clear()
	}
	return err
}

func (c *Client) Upload(ctx context.Context, data []byte, mimeType, originalName string) (*types.UploadResult, error) {
	body, contentType, err := multipartBody(nil, data, mimeType, originalName)
	if err != nil {
		return nil, err
	}

	var out types.UploadResult
	if err := c.do(ctx, http.MethodPost, "/upload", contentType, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Verify(ctx context.Context, description, location string, image []byte, mimeType string) (*types.Outcome, error) {
	fields := map[string]string{
		"description": description,
		"location":    location,
	}

	body, contentType, err := multipartBody(fields, image, mimeType, "image")
	if err != nil {
		return nil, err
	}

	var out types.Outcome
	if err := c.do(ctx, http.MethodPost, "/verify", contentType, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateReport(ctx context.Context, in *types.CreateReport) (*types.Report, error) {
	var out types.Report
	if err := c.doJSON(ctx, http.MethodPost, "/reports", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Reports(ctx context.Context, opts types.ReportListOptions) (*types.ReportPage, error) {
	q := url.Values{}
	if opts.UserID != "" {
		q.Set("userId", opts.UserID)
	}
	if opts.Visibility != types.VisibilityAny {
		q.Set("visibility", string(opts.Visibility))
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}

	path := "/reports"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out types.ReportListResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Page(), nil
}

func (c *Client) SetVisibility(ctx context.Context, reportID string, isPublic bool) (*types.Report, error) {
	var out types.Report
	err := c.doJSON(ctx, http.MethodPatch, "/reports/"+url.PathEscape(reportID), &types.VisibilityUpdate{IsPublic: &isPublic}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Notify asks the server to email the city about a stored report. The
// reporter address is taken from the caller's session on the server side.
func (c *Client) Notify(ctx context.Context, n notify.Notification) error {
	if n.Report == nil || n.Report.ID == "" {
		return types.NewValidationError("report", "report is required")
	}
	return c.doJSON(ctx, http.MethodPost, "/reports/"+url.PathEscape(n.Report.ID)+"/notify", nil, nil)
}

func (c *Client) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))

	var out types.GeocodeResponse
	if err := c.doJSON(ctx, http.MethodGet, "/geocode/reverse?"+q.Encode(), nil, &out); err != nil {
		return "", err
	}
	return out.Location, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, contentType, body, out)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	if c.session != nil {
		if id := c.session.Current(); id != nil && id.AccessToken != "" {
			req.Header.Set("Authorization", "Bearer "+id.AccessToken)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return types.UpstreamError(method+" "+path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return types.UpstreamError("decode response", err)
	}

	return nil
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body types.ErrorResponse
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
		return &types.ValidationError{Message: msg}
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", types.ErrUnauthorized, msg)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", types.ErrForbidden, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", types.ErrReportNotFound, msg)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", types.ErrAlreadyNotified, msg)
	}

	return types.UpstreamError(fmt.Sprintf("status %d: %s", resp.StatusCode, msg), nil)
}

func multipartBody(fields map[string]string, image []byte, mimeType, name string) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", k, err)
		}
	}

	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	if name == "" {
		name = "image"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, name))
	h.Set("Content-Type", mimeType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create image part: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", fmt.Errorf("failed to write image part: %w", err)
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart body: %w", err)
	}

	return &buf, mw.FormDataContentType(), nil
}
