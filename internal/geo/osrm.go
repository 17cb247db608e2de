package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"sushikoi/internal/config"
	"sushikoi/internal/domain"
)

// Route is a driving route between two points
type Route struct {
	DistanceMeters  float64         `json:"distance_m"`
	DurationSeconds float64         `json:"duration_s"`
	Points          []domain.LatLng `json:"points"`
	// Straight is set when the route is a straight line, not a road route
	Straight bool `json:"straight,omitempty"`
}

// ETAMinutes rounds the duration up to whole minutes
func (r Route) ETAMinutes() int {
	return int(math.Ceil(r.DurationSeconds / 60))
}

// OSRM is a client for the OSRM route service
type OSRM struct {
	baseURL   string
	profile   string
	userAgent string
	client    *http.Client
}

// NewOSRM creates a client; a nil http client gets one with cfg.Timeout
func NewOSRM(cfg config.RoutingConfig, userAgent string, client *http.Client) *OSRM {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	profile := cfg.Profile
	if profile == "" {
		profile = "driving"
	}
	return &OSRM{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		profile:   profile,
		userAgent: userAgent,
		client:    client,
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// Route asks for the driving route from -> to. (nil, nil) means OSRM found
// no route.
func (o *OSRM) Route(ctx context.Context, from, to domain.LatLng) (*Route, error) {
	q := url.Values{}
	q.Set("overview", "full")
	q.Set("geometries", "geojson")
	q.Set("alternatives", "false")
	q.Set("steps", "false")
	endpoint := fmt.Sprintf("%s/route/v1/%s/%s,%s;%s,%s?%s", o.baseURL, o.profile,
		coord(from.Lng), coord(from.Lat), coord(to.Lng), coord(to.Lat), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if o.userAgent != "" {
		req.Header.Set("User-Agent", o.userAgent)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	var body osrmResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)
	if decodeErr == nil && (body.Code == "NoRoute" || body.Code == "NoSegment") {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrServiceUnavailable, decodeErr)
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		return nil, nil
	}

	r := body.Routes[0]
	points := make([]domain.LatLng, 0, len(r.Geometry.Coordinates))
	for _, c := range r.Geometry.Coordinates {
		if len(c) < 2 {
			continue
		}
		points = append(points, domain.LatLng{Lat: c[1], Lng: c[0]})
	}
	return &Route{DistanceMeters: r.Distance, DurationSeconds: r.Duration, Points: points}, nil
}

// StraightLine is the fallback drawn when no road route is known
func StraightLine(from, to domain.LatLng) *Route {
	return &Route{
		DistanceMeters: HaversineMeters(from, to),
		Points:         []domain.LatLng{from, to},
		Straight:       true,
	}
}

const earthRadiusMeters = 6371000

// HaversineMeters is the great-circle distance between a and b
func HaversineMeters(a, b domain.LatLng) float64 {
	rad := math.Pi / 180
	dLat := (b.Lat - a.Lat) * rad
	dLng := (b.Lng - a.Lng) * rad
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*rad)*math.Cos(b.Lat*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
