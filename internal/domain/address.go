package domain

import "fmt"

// LatLng координаты точки
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String формат "lat,lng" с шестью знаками
func (ll LatLng) String() string {
	return fmt.Sprintf("%.6f,%.6f", ll.Lat, ll.Lng)
}

// Confidence уровень доверия к найденному адресу
type Confidence string

const (
	ConfidenceExact    Confidence = "exact"
	ConfidenceRoad     Confidence = "road"
	ConfidenceApprox   Confidence = "approx"
	ConfidenceManual   Confidence = "manual"
	ConfidenceFallback Confidence = "fallback"
)

// AddressSource откуда пришёл адрес
type AddressSource string

const (
	SourceNominatim AddressSource = "nominatim"
	SourceReverse   AddressSource = "reverse"
	SourceManual    AddressSource = "manual"
)

// Address результат разрешения адреса
type Address struct {
	Raw         string        `json:"raw"`
	DisplayName string        `json:"display_name,omitempty"`
	HouseNumber string        `json:"house_number,omitempty"`
	Street      string        `json:"street,omitempty"`
	Sector      string        `json:"sector,omitempty"`
	City        string        `json:"city,omitempty"`
	Region      string        `json:"region,omitempty"`
	Postcode    string        `json:"postcode,omitempty"`
	Country     string        `json:"country,omitempty"`
	Location    *LatLng       `json:"location,omitempty"`
	Confidence  Confidence    `json:"confidence"`
	Source      AddressSource `json:"source"`
}
