package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"civicsnap/pkg/types"
)

// Nominatim resolves coordinates to a display address with the OpenStreetMap
// reverse geocoding API.
type Nominatim struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func NewNominatim(baseURL, userAgent string) *Nominatim {
	return &Nominatim{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// CheckCoordinates rejects values outside the WGS84 range, NaN and infinities.
func CheckCoordinates(lat, lng float64) error {
	if !(lat >= -90 && lat <= 90) {
		return types.NewValidationError("lat", "lat must be between -90 and 90")
	}
	if !(lng >= -180 && lng <= 180) {
		return types.NewValidationError("lng", "lng must be between -180 and 180")
	}
	return nil
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

func (n *Nominatim) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	if err := CheckCoordinates(lat, lng); err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return "", types.UpstreamError("reverse geocode", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", types.UpstreamError(fmt.Sprintf("reverse geocode status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var out reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", types.UpstreamError("decode reverse geocode response", err)
	}

	if out.Error != "" || strings.TrimSpace(out.DisplayName) == "" {
		return "", types.UpstreamError("no address for coordinates", nil)
	}

	return strings.TrimSpace(out.DisplayName), nil
}

// Coordinates formats a position the way it is stored when no address is
// available.
func Coordinates(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)
}
