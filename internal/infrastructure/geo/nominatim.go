package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/pkg/errors"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "conecta-ongs/1.0"
)

var (
	reverseOKCounter    = metrics.GetOrCreateCounter(`lookup_requests_total{service="nominatim",result="found"}`)
	reverseEmptyCounter = metrics.GetOrCreateCounter(`lookup_requests_total{service="nominatim",result="not_found"}`)
	reverseErrorCounter = metrics.GetOrCreateCounter(`lookup_requests_total{service="nominatim",result="error"}`)
)

var ErrNoState = errors.New("no state in reverse geocoding result")

// ReverseGeocoder turns coordinates into the name of the state they fall in.
type ReverseGeocoder interface {
	StateAt(ctx context.Context, lat, lon float64) (string, error)
}

type reverseResponse struct {
	Address struct {
		State         string `json:"state"`
		StateDistrict string `json:"state_district"`
	} `json:"address"`
}

type NominatimClient struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func NewNominatimClient(baseURL, userAgent string, timeout time.Duration) *NominatimClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &NominatimClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *NominatimClient) StateAt(ctx context.Context, lat, lon float64) (string, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("lat", fmt.Sprintf("%f", lat))
	params.Set("lon", fmt.Sprintf("%f", lon))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		reverseErrorCounter.Inc()
		return "", errors.Wrap(err, "build nominatim request")
	}
	// Nominatim rejects anonymous clients
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		reverseErrorCounter.Inc()
		return "", errors.Wrap(err, "call nominatim")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		reverseErrorCounter.Inc()
		return "", errors.Errorf("nominatim error (status %d): %s", resp.StatusCode, string(body))
	}

	var result reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		reverseErrorCounter.Inc()
		return "", errors.Wrap(err, "decode nominatim response")
	}

	state := result.Address.State
	if state == "" {
		state = result.Address.StateDistrict
	}
	if state == "" {
		reverseEmptyCounter.Inc()
		return "", ErrNoState
	}
	reverseOKCounter.Inc()
	return state, nil
}
