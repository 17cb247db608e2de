package geo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sushikoi/internal/domain"
)

type scriptedForward struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
	err   error
}

func (s *scriptedForward) Resolve(_ context.Context, q AddressQuery) (*domain.Address, error) {
	s.mu.Lock()
	gate := s.gates[q.Street]
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Address{Raw: q.Street, Confidence: domain.ConfidenceRoad, Source: domain.SourceNominatim}, nil
}

type scriptedReverse struct {
	addr *domain.Address
	err  error
}

func (s scriptedReverse) ReverseResolve(context.Context, domain.LatLng) (*domain.Address, error) {
	return s.addr, s.err
}

func TestResolver_StaleResponseDropped(t *testing.T) {
	slow := make(chan struct{})
	fwd := &scriptedForward{gates: map[string]chan struct{}{"old": slow}}
	r := NewResolver(fwd, scriptedReverse{})

	oldDone := make(chan error, 1)
	go func() {
		_, err := r.Geocode(context.Background(), AddressQuery{Street: "old"})
		oldDone <- err
	}()
	require.Eventually(t, r.Loading, time.Second, 5*time.Millisecond)

	addr, err := r.Geocode(context.Background(), AddressQuery{Street: "new"})
	require.NoError(t, err)
	assert.Equal(t, "new", addr.Raw)
	assert.False(t, r.Loading())

	close(slow)
	assert.ErrorIs(t, <-oldDone, ErrStale)
	assert.Equal(t, "new", r.Latest().Raw, "stale result must not overwrite")
}

func TestResolver_GeocodeFailureMessage(t *testing.T) {
	r := NewResolver(&scriptedForward{err: ErrServiceUnavailable}, scriptedReverse{})
	addr, err := r.Geocode(context.Background(), AddressQuery{Street: "x"})
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Nil(t, addr)
	assert.Equal(t, MsgGeocodeFailed, r.Error())
	assert.False(t, r.Loading())
}

func TestResolver_ReverseFallsBackToManual(t *testing.T) {
	ll := domain.LatLng{Lat: -41.47, Lng: -72.94}

	r := NewResolver(&scriptedForward{}, scriptedReverse{err: errors.New("timeout")})
	addr, err := r.Reverse(context.Background(), ll)
	require.NoError(t, err)
	assert.Equal(t, domain.ConfidenceManual, addr.Confidence)
	assert.Equal(t, ll.String(), addr.Raw)
	assert.Equal(t, MsgReverseFailed, r.Error())

	ok := &domain.Address{Raw: "Playa Guabil", Confidence: domain.ConfidenceApprox, Source: domain.SourceReverse}
	r = NewResolver(&scriptedForward{}, scriptedReverse{addr: ok})
	addr, err = r.Reverse(context.Background(), ll)
	require.NoError(t, err)
	assert.Equal(t, domain.ConfidenceApprox, addr.Confidence)
	assert.Empty(t, r.Error())
}

func TestSessions_PerClient(t *testing.T) {
	s := NewSessions(&scriptedForward{}, scriptedReverse{})
	a := s.For("tab-a")
	assert.Same(t, a, s.For("tab-a"))
	assert.NotSame(t, a, s.For("tab-b"))
}

func TestSessions_EvictsLeastRecentlyUsed(t *testing.T) {
	s := NewSessions(&scriptedForward{}, scriptedReverse{})
	a := s.For("tab-a")
	for i := 0; i < maxSessions-1; i++ {
		s.For(fmt.Sprintf("client-%d", i))
	}
	// touching tab-a makes client-0 the oldest
	assert.Same(t, a, s.For("tab-a"))
	s.For("newcomer")

	assert.Equal(t, maxSessions, s.Len())
	assert.Same(t, a, s.For("tab-a"))
	assert.Equal(t, maxSessions, s.Len())

	s.limit = 3
	s.For("another")
	assert.Equal(t, 3, s.Len())
	assert.Same(t, a, s.For("tab-a"))
}
