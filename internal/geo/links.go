package geo

import (
	"fmt"
	"net/url"

	"sushikoi/internal/domain"
)

// Links are the deep links handed to the rider
type Links struct {
	GoogleMaps string `json:"google_maps"`
	Waze       string `json:"waze"`
	QR         string `json:"qr"`
}

// NavigationLinks builds directions from origin to dest for Google Maps and
// Waze, plus a QR image encoding the Waze link.
func NavigationLinks(origin, dest domain.LatLng) Links {
	waze := fmt.Sprintf("https://waze.com/ul?ll=%s,%s&navigate=yes", coord(dest.Lat), coord(dest.Lng))
	return Links{
		GoogleMaps: fmt.Sprintf("https://www.google.com/maps/dir/%s,%s/%s,%s",
			coord(origin.Lat), coord(origin.Lng), coord(dest.Lat), coord(dest.Lng)),
		Waze: waze,
		QR:   "https://api.qrserver.com/v1/create-qr-code/?size=220x220&data=" + url.QueryEscape(waze),
	}
}
