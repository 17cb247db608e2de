package geo

import (
	"container/list"
	"context"
	"sync"

	"sushikoi/internal/domain"
)

// User-facing messages shown when a lookup fails
const (
	MsgGeocodeFailed = "No se pudo geocodificar la dirección"
	MsgReverseFailed = "No se pudo obtener la dirección"
)

// ForwardResolver resolves typed addresses
type ForwardResolver interface {
	Resolve(ctx context.Context, q AddressQuery) (*domain.Address, error)
}

// ReverseResolver resolves map pins
type ReverseResolver interface {
	ReverseResolve(ctx context.Context, ll domain.LatLng) (*domain.Address, error)
}

// Resolver wraps both lookups for one caller. Every call takes a new
// sequence number; only the newest call may publish its result, older ones
// get ErrStale.
type Resolver struct {
	fwd ForwardResolver
	rev ReverseResolver

	mu     sync.Mutex
	seq    uint64
	done   uint64
	errMsg string
	latest *domain.Address
}

func NewResolver(fwd ForwardResolver, rev ReverseResolver) *Resolver {
	return &Resolver{fwd: fwd, rev: rev}
}

// Geocode resolves q. (nil, nil) means no match.
func (r *Resolver) Geocode(ctx context.Context, q AddressQuery) (*domain.Address, error) {
	id := r.begin()
	addr, err := r.fwd.Resolve(ctx, q)
	msg := ""
	if err != nil {
		addr, msg = nil, MsgGeocodeFailed
	}
	if !r.finish(id, addr, msg) {
		return nil, ErrStale
	}
	if err != nil {
		return nil, err
	}
	return addr, nil
}

// Reverse resolves ll. A failed or empty lookup yields ManualAddress, with
// the error message set only for a failed call.
func (r *Resolver) Reverse(ctx context.Context, ll domain.LatLng) (*domain.Address, error) {
	id := r.begin()
	addr, err := r.rev.ReverseResolve(ctx, ll)
	msg := ""
	if err != nil {
		msg = MsgReverseFailed
	}
	if err != nil || addr == nil {
		addr = ManualAddress(ll)
	}
	if !r.finish(id, addr, msg) {
		return nil, ErrStale
	}
	return addr, nil
}

// Loading reports whether the newest call is still in flight
func (r *Resolver) Loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done < r.seq
}

// Error is the message of the newest finished call, "" on success
func (r *Resolver) Error() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errMsg
}

// Latest is the address published by the newest finished call
func (r *Resolver) Latest() *domain.Address {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest
}

func (r *Resolver) begin() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.errMsg = ""
	return r.seq
}

func (r *Resolver) finish(id uint64, addr *domain.Address, msg string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id != r.seq {
		return false
	}
	r.done = id
	r.latest = addr
	r.errMsg = msg
	return true
}

// maxSessions bounds the per-client resolver map
const maxSessions = 1024

// Sessions hands out one Resolver per client id so that two browser tabs do
// not invalidate each other's lookups. Past the limit the least recently
// used client is evicted.
type Sessions struct {
	fwd   ForwardResolver
	rev   ReverseResolver
	limit int

	mu       sync.Mutex
	byClient map[string]*list.Element
	lru      *list.List // front is most recent
}

type session struct {
	clientID string
	resolver *Resolver
}

func NewSessions(fwd ForwardResolver, rev ReverseResolver) *Sessions {
	return &Sessions{
		fwd:      fwd,
		rev:      rev,
		limit:    maxSessions,
		byClient: make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// For returns the resolver of clientID, creating it on first use
func (s *Sessions) For(clientID string) *Resolver {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.byClient[clientID]; ok {
		s.lru.MoveToFront(el)
		return el.Value.(*session).resolver
	}
	for s.lru.Len() >= s.limit {
		oldest := s.lru.Back()
		s.lru.Remove(oldest)
		delete(s.byClient, oldest.Value.(*session).clientID)
	}
	r := NewResolver(s.fwd, s.rev)
	s.byClient[clientID] = s.lru.PushFront(&session{clientID: clientID, resolver: r})
	return r
}

// Len is the number of live sessions
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}
