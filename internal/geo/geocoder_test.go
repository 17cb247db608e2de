package geo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sushikoi/internal/domain"
)

type fakeSearcher struct {
	calls   []SearchParams
	answers map[int][]Place
	errs    map[int]error
}

func (f *fakeSearcher) Search(_ context.Context, p SearchParams) ([]Place, error) {
	i := len(f.calls)
	f.calls = append(f.calls, p)
	if err := f.errs[i]; err != nil {
		return nil, err
	}
	return f.answers[i], nil
}

func place(number, road string) Place {
	return Place{
		DisplayName: road + " " + number + ", Puerto Montt",
		Lat:         "-41.47",
		Lon:         "-72.94",
		Address:     PlaceAddress{HouseNumber: number, Road: road, City: "Puerto Montt", State: "Los Lagos"},
	}
}

func TestParseFreeText(t *testing.T) {
	q := ParseFreeText("Playa Guabil 6191, Puerto Montt", "")
	assert.Equal(t, "Playa Guabil", q.Street)
	assert.Equal(t, "6191", q.Number)
	assert.Equal(t, "Puerto Montt", q.City)
	assert.Empty(t, q.Sector)

	q = ParseFreeText("Av. Capitán Ávalos #6130, Mirasol, Puerto Montt", "")
	assert.Equal(t, "Av. Capitán Ávalos", q.Street)
	assert.Equal(t, "6130", q.Number)
	assert.Equal(t, "Mirasol", q.Sector)

	q = ParseFreeText("Los Aromos", "Puerto Varas")
	assert.Equal(t, "Los Aromos", q.Street)
	assert.Empty(t, q.Number)
	assert.Equal(t, "Puerto Varas", q.City)
}

func TestVariants_Order(t *testing.T) {
	g := NewGeocoder(&fakeSearcher{}, "Puerto Montt", "Los Lagos")
	v := g.Variants(AddressQuery{Street: "Playa Guabil", Number: "6191", Sector: "Mirasol"})
	require.Len(t, v, 5)
	assert.Equal(t, SearchParams{Street: "6191 Playa Guabil", City: "Puerto Montt", Bounded: true}, v[0])
	assert.Equal(t, "Mirasol", v[1].County)
	assert.Equal(t, SearchParams{Street: "Playa Guabil", City: "Puerto Montt", Bounded: true}, v[2])
	assert.Equal(t, "Playa Guabil 6191, Mirasol, Puerto Montt, Los Lagos", v[3].Query)
	assert.Equal(t, "Playa Guabil, Puerto Montt", v[4].Query)

	v = g.Variants(AddressQuery{Street: "Playa Guabil"})
	assert.Len(t, v, 3, "no number means no house-number variants")

	assert.Empty(t, g.Variants(AddressQuery{}))
}

func TestResolve_ExactMatch(t *testing.T) {
	s := &fakeSearcher{answers: map[int][]Place{0: {place("6190", "Playa Guabil"), place("6191", "Playa Guabil")}}}
	addr, err := NewGeocoder(s, "Puerto Montt", "").Resolve(context.Background(), AddressQuery{Street: "Playa Guabil", Number: " 6191 "})
	require.NoError(t, err)
	require.NotNil(t, addr)
	assert.Equal(t, domain.ConfidenceExact, addr.Confidence)
	assert.Equal(t, domain.SourceNominatim, addr.Source)
	assert.Equal(t, "6191", addr.HouseNumber)
	require.NotNil(t, addr.Location)
	assert.InDelta(t, -41.47, addr.Location.Lat, 1e-9)
	assert.Len(t, s.calls, 1)
}

func TestResolve_RoadMatch(t *testing.T) {
	s := &fakeSearcher{answers: map[int][]Place{2: {place("", "Avenida Presidente Ibáñez"), place("", "PLAYA GUABIL")}}}
	addr, err := NewGeocoder(s, "Puerto Montt", "").Resolve(context.Background(), AddressQuery{Street: "playa guabil", Number: "6191"})
	require.NoError(t, err)
	require.NotNil(t, addr)
	assert.Equal(t, domain.ConfidenceRoad, addr.Confidence)
	assert.Equal(t, "PLAYA GUABIL", addr.Street)
	assert.Len(t, s.calls, 3, "stops at the first variant with candidates")
}

func TestResolve_Fallback(t *testing.T) {
	s := &fakeSearcher{answers: map[int][]Place{3: {place("", "Ruta 5"), place("", "Otra")}}}
	addr, err := NewGeocoder(s, "Puerto Montt", "").Resolve(context.Background(), AddressQuery{Street: "Playa Guabil", Number: "6191"})
	require.NoError(t, err)
	require.NotNil(t, addr)
	assert.Equal(t, domain.ConfidenceFallback, addr.Confidence)
	assert.Equal(t, "Ruta 5", addr.Street)
}

func TestResolve_NoResults(t *testing.T) {
	s := &fakeSearcher{}
	addr, err := NewGeocoder(s, "Puerto Montt", "").Resolve(context.Background(), AddressQuery{Street: "Nowhere", Number: "1"})
	require.NoError(t, err)
	assert.Nil(t, addr)
	assert.Len(t, s.calls, 4)
}

func TestResolve_NetworkErrors(t *testing.T) {
	boom := errors.New("boom")

	// some variants fail, one answers empty: no result, no error
	s := &fakeSearcher{errs: map[int]error{0: boom, 1: boom}}
	addr, err := NewGeocoder(s, "Puerto Montt", "").Resolve(context.Background(), AddressQuery{Street: "X", Number: "1"})
	require.NoError(t, err)
	assert.Nil(t, addr)

	// a failing variant does not stop later ones
	s = &fakeSearcher{errs: map[int]error{0: boom}, answers: map[int][]Place{1: {place("1", "X")}}}
	addr, err = NewGeocoder(s, "Puerto Montt", "").Resolve(context.Background(), AddressQuery{Street: "X", Number: "1"})
	require.NoError(t, err)
	require.NotNil(t, addr)
	assert.Equal(t, domain.ConfidenceExact, addr.Confidence)

	// all fail: error
	s = &fakeSearcher{errs: map[int]error{0: boom, 1: boom, 2: boom}}
	addr, err = NewGeocoder(s, "Puerto Montt", "").Resolve(context.Background(), AddressQuery{Street: "X"})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, addr)
}

type cancellingSearcher struct {
	cancel context.CancelFunc
	calls  int
}

func (c *cancellingSearcher) Search(ctx context.Context, _ SearchParams) ([]Place, error) {
	c.calls++
	if c.calls == 1 {
		return nil, nil
	}
	c.cancel()
	return nil, ctx.Err()
}

func TestResolve_CancelledAfterEmptyAnswer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := &cancellingSearcher{cancel: cancel}

	addr, err := NewGeocoder(s, "Puerto Montt", "").Resolve(ctx, AddressQuery{Street: "X", Number: "1"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, addr)
	assert.Equal(t, 2, s.calls)
}
