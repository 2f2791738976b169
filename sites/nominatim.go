package sites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/amalgamconnect/docqa/common"
	"github.com/amalgamconnect/docqa/logger"
	"github.com/hashicorp/go-retryablehttp"
)

// Location is a geocoding hit.
type Location struct {
	Address   string
	Latitude  float64
	Longitude float64
}

// Geocoder resolves a free-form address. A nil Location with a nil error
// means the address was not found.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Location, error)
}

// Nominatim geocodes through an OpenStreetMap Nominatim server.
type Nominatim struct {
	client    *retryablehttp.Client
	baseURL   string
	userAgent string
}

// NewNominatim returns a client for baseURL. Nominatim's usage policy
// rejects requests without an identifying User-Agent.
func NewNominatim(baseURL, userAgent string) (*Nominatim, error) {
	if userAgent == "" {
		return nil, errors.New("nominatim user agent cannot be empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid nominatim base URL %q: %w", baseURL, err)
	}

	return &Nominatim{
		client:    common.NewRetryableClient(common.DefaultRetryConfig()),
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: userAgent,
	}, nil
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (n *Nominatim) Geocode(ctx context.Context, address string) (*Location, error) {
	query := url.Values{}
	query.Set("q", address)
	query.Set("format", "json")
	query.Set("limit", "1")

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create geocoding request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read geocoding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding status %d: %s", resp.StatusCode, string(body))
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, fmt.Errorf("decode geocoding response: %w", err)
	}
	if len(places) == 0 {
		logger.Debugf("No geocoding result for %q", address)
		return nil, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parse latitude %q: %w", places[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parse longitude %q: %w", places[0].Lon, err)
	}

	return &Location{
		Address:   places[0].DisplayName,
		Latitude:  lat,
		Longitude: lon,
	}, nil
}
