// Package geo talks to the public map services the dashboard depends on:
// Nominatim for geocoding and reverse geocoding, and OSRM for routes.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"sushikoi/internal/config"
	"sushikoi/internal/domain"
)

var (
	// ErrServiceUnavailable wraps network failures and non-2xx answers
	ErrServiceUnavailable = errors.New("map service unavailable")
	// ErrStale is returned for a lookup superseded by a newer one
	ErrStale = errors.New("superseded by a newer request")
)

// SearchParams describes one Nominatim /search request. Query selects the
// free-text form; otherwise the structured fields are sent.
type SearchParams struct {
	Query   string
	Street  string
	City    string
	County  string
	Bounded bool
}

// Place is one Nominatim candidate
type Place struct {
	DisplayName string       `json:"display_name"`
	Lat         string       `json:"lat"`
	Lon         string       `json:"lon"`
	Address     PlaceAddress `json:"address"`
	Error       string       `json:"error,omitempty"`
}

// PlaceAddress is the addressdetails sub-object of a candidate
type PlaceAddress struct {
	HouseNumber   string `json:"house_number"`
	Road          string `json:"road"`
	Pedestrian    string `json:"pedestrian"`
	Footway       string `json:"footway"`
	Path          string `json:"path"`
	Neighbourhood string `json:"neighbourhood"`
	Suburb        string `json:"suburb"`
	City          string `json:"city"`
	Town          string `json:"town"`
	Village       string `json:"village"`
	Hamlet        string `json:"hamlet"`
	State         string `json:"state"`
	Postcode      string `json:"postcode"`
	Country       string `json:"country"`
}

// Street returns the first non-empty way name of the candidate
func (a PlaceAddress) Street() string {
	return firstNonEmpty(a.Road, a.Pedestrian, a.Footway, a.Path)
}

// Location parses lat/lon; nil when the candidate has none
func (p Place) Location() *domain.LatLng {
	lat, err1 := strconv.ParseFloat(p.Lat, 64)
	lng, err2 := strconv.ParseFloat(p.Lon, 64)
	if p.Lat == "" || p.Lon == "" || err1 != nil || err2 != nil {
		return nil
	}
	return &domain.LatLng{Lat: lat, Lng: lng}
}

// ToAddress converts a candidate to a domain address. Confidence and source
// are left for the caller to assign.
func (p Place) ToAddress() domain.Address {
	a := p.Address
	return domain.Address{
		Raw:         p.DisplayName,
		DisplayName: p.DisplayName,
		HouseNumber: a.HouseNumber,
		Street:      firstNonEmpty(a.Street(), a.Neighbourhood),
		Sector:      firstNonEmpty(a.Suburb, a.Neighbourhood),
		City:        firstNonEmpty(a.City, a.Town, a.Village, a.Hamlet),
		Region:      a.State,
		Postcode:    a.Postcode,
		Country:     a.Country,
		Location:    p.Location(),
	}
}

// Nominatim is an HTTP client for the Nominatim search and reverse endpoints
type Nominatim struct {
	cfg    config.GeocodingConfig
	client *http.Client
}

// NewNominatim creates a client; a nil http client gets one with cfg.Timeout
func NewNominatim(cfg config.GeocodingConfig, client *http.Client) *Nominatim {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 5
	}
	return &Nominatim{cfg: cfg, client: client}
}

// Search runs one /search request and returns all candidates
func (n *Nominatim) Search(ctx context.Context, p SearchParams) ([]Place, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("addressdetails", "1")
	q.Set("limit", strconv.Itoa(n.cfg.Limit))
	if n.cfg.CountryCodes != "" {
		q.Set("countrycodes", n.cfg.CountryCodes)
	}
	if n.cfg.Viewbox != "" {
		q.Set("viewbox", n.cfg.Viewbox)
		if p.Bounded {
			q.Set("bounded", "1")
		}
	}
	if p.Query != "" {
		q.Set("q", p.Query)
	} else {
		setIf(q, "street", p.Street)
		setIf(q, "city", p.City)
		setIf(q, "county", p.County)
	}

	var places []Place
	if err := n.get(ctx, n.cfg.SearchURL, q, &places); err != nil {
		return nil, err
	}
	return places, nil
}

// Reverse runs one /reverse request. A nil place means "nothing there".
func (n *Nominatim) Reverse(ctx context.Context, ll domain.LatLng) (*Place, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("addressdetails", "1")
	q.Set("lat", strconv.FormatFloat(ll.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(ll.Lng, 'f', -1, 64))

	var place Place
	if err := n.get(ctx, n.cfg.ReverseURL, q, &place); err != nil {
		return nil, err
	}
	if place.Error != "" || place.Location() == nil {
		return nil, nil
	}
	return &place, nil
}

func (n *Nominatim) get(ctx context.Context, endpoint string, q url.Values, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", n.cfg.UserAgent)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrServiceUnavailable, err)
	}
	return nil
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
