package geo

import (
	"context"

	"sushikoi/internal/domain"
)

// Reverser is the subset of the Nominatim client reverse lookups need
type Reverser interface {
	Reverse(ctx context.Context, ll domain.LatLng) (*Place, error)
}

// ReverseGeocoder turns a map pin into an address
type ReverseGeocoder struct {
	rev Reverser
}

func NewReverseGeocoder(rev Reverser) *ReverseGeocoder {
	return &ReverseGeocoder{rev: rev}
}

// ReverseResolve returns an approx address for ll, nil when the service
// knows nothing there, or an error when the call failed.
func (r *ReverseGeocoder) ReverseResolve(ctx context.Context, ll domain.LatLng) (*domain.Address, error) {
	place, err := r.rev.Reverse(ctx, ll)
	if err != nil {
		return nil, err
	}
	if place == nil {
		return nil, nil
	}
	addr := place.ToAddress()
	addr.Confidence = domain.ConfidenceApprox
	addr.Source = domain.SourceReverse
	if addr.Location == nil {
		addr.Location = &ll
	}
	return &addr, nil
}

// ManualAddress is the record kept when a pin cannot be reverse geocoded:
// only the coordinate string is known.
func ManualAddress(ll domain.LatLng) *domain.Address {
	loc := ll
	return &domain.Address{
		Raw:        ll.String(),
		Location:   &loc,
		Confidence: domain.ConfidenceManual,
		Source:     domain.SourceManual,
	}
}
