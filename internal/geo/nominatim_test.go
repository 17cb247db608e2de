package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sushikoi/internal/config"
	"sushikoi/internal/domain"
)

func testGeocodingConfig(base string) config.GeocodingConfig {
	cfg := config.Default().Geocoding
	cfg.SearchURL = base + "/search"
	cfg.ReverseURL = base + "/reverse"
	return cfg
}

func TestNominatim_SearchStructured(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"display_name":"6191, Playa Guabil","lat":"-41.4","lon":"-72.9","address":{"house_number":"6191","road":"Playa Guabil","town":"Puerto Montt","state":"Los Lagos","suburb":"Mirasol"}}]`))
	}))
	defer srv.Close()

	n := NewNominatim(testGeocodingConfig(srv.URL), srv.Client())
	places, err := n.Search(context.Background(), SearchParams{Street: "6191 Playa Guabil", City: "Puerto Montt", Bounded: true})
	require.NoError(t, err)
	require.Len(t, places, 1)

	require.NotNil(t, got)
	assert.Equal(t, "/search", got.URL.Path)
	assert.Equal(t, "SushiKoi-Delivery/1.0 (iacortex)", got.Header.Get("User-Agent"))
	q := got.URL.Query()
	assert.Equal(t, "json", q.Get("format"))
	assert.Equal(t, "1", q.Get("addressdetails"))
	assert.Equal(t, "cl", q.Get("countrycodes"))
	assert.Equal(t, "5", q.Get("limit"))
	assert.Equal(t, "1", q.Get("bounded"))
	assert.NotEmpty(t, q.Get("viewbox"))
	assert.Equal(t, "6191 Playa Guabil", q.Get("street"))
	assert.Equal(t, "Puerto Montt", q.Get("city"))
	assert.Empty(t, q.Get("q"))

	addr := places[0].ToAddress()
	assert.Equal(t, "Playa Guabil", addr.Street)
	assert.Equal(t, "Puerto Montt", addr.City)
	assert.Equal(t, "Mirasol", addr.Sector)
	assert.Equal(t, "Los Lagos", addr.Region)
}

func TestNominatim_SearchFreeText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Playa Guabil, Puerto Montt", r.URL.Query().Get("q"))
		assert.Empty(t, r.URL.Query().Get("bounded"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	places, err := NewNominatim(testGeocodingConfig(srv.URL), nil).Search(context.Background(), SearchParams{Query: "Playa Guabil, Puerto Montt"})
	require.NoError(t, err)
	assert.Empty(t, places)
}

func TestNominatim_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewNominatim(testGeocodingConfig(srv.URL), nil).Search(context.Background(), SearchParams{Query: "x"})
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestReverseResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lat") == "0" {
			_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
			return
		}
		_, _ = w.Write([]byte(`{"display_name":"Playa Guabil 6191, Puerto Montt","lat":"-41.47","lon":"-72.94","address":{"road":"Playa Guabil","house_number":"6191","city":"Puerto Montt"}}`))
	}))
	defer srv.Close()

	rg := NewReverseGeocoder(NewNominatim(testGeocodingConfig(srv.URL), nil))

	addr, err := rg.ReverseResolve(context.Background(), domain.LatLng{Lat: -41.47, Lng: -72.94})
	require.NoError(t, err)
	require.NotNil(t, addr)
	assert.Equal(t, domain.ConfidenceApprox, addr.Confidence)
	assert.Equal(t, domain.SourceReverse, addr.Source)
	assert.Equal(t, "Playa Guabil 6191, Puerto Montt", addr.Raw)

	addr, err = rg.ReverseResolve(context.Background(), domain.LatLng{})
	require.NoError(t, err)
	assert.Nil(t, addr)
}

func TestManualAddress(t *testing.T) {
	a := ManualAddress(domain.LatLng{Lat: -41.5, Lng: -72.95})
	assert.Equal(t, "-41.500000,-72.950000", a.Raw)
	assert.Equal(t, domain.ConfidenceManual, a.Confidence)
	assert.Equal(t, domain.SourceManual, a.Source)
	assert.Empty(t, a.DisplayName)
}
