package geo

import (
	"context"
	"regexp"
	"strings"

	"sushikoi/internal/domain"
)

// AddressQuery is the user-supplied address to resolve
type AddressQuery struct {
	Raw    string `json:"raw,omitempty"`
	Street string `json:"street"`
	Number string `json:"number,omitempty"`
	Sector string `json:"sector,omitempty"`
	City   string `json:"city,omitempty"`
	Region string `json:"region,omitempty"`
}

var streetNumberRe = regexp.MustCompile(`^(.*?\D)\s*#?\s*(\d+[A-Za-z]?)$`)

// ParseFreeText splits "Playa Guabil 6191, Sector Sur, Puerto Montt" into a
// query. With two comma parts the second is the city, with three or more the
// second is the sector and the last the city. cityHint fills a missing city.
func ParseFreeText(text, cityHint string) AddressQuery {
	q := AddressQuery{Raw: strings.TrimSpace(text)}
	parts := strings.Split(q.Raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	head := parts[0]
	if m := streetNumberRe.FindStringSubmatch(head); m != nil {
		q.Street = strings.TrimSpace(m[1])
		q.Number = m[2]
	} else {
		q.Street = head
	}
	switch {
	case len(parts) == 2:
		q.City = parts[1]
	case len(parts) >= 3:
		q.Sector = parts[1]
		q.City = parts[len(parts)-1]
	}
	if q.City == "" {
		q.City = strings.TrimSpace(cityHint)
	}
	return q
}

// Searcher is the subset of the Nominatim client the geocoder needs
type Searcher interface {
	Search(ctx context.Context, p SearchParams) ([]Place, error)
}

// Geocoder resolves free-text addresses with a prioritized list of queries
type Geocoder struct {
	search      Searcher
	defaultCity string
	region      string
}

func NewGeocoder(search Searcher, defaultCity, region string) *Geocoder {
	return &Geocoder{search: search, defaultCity: defaultCity, region: region}
}

// Variants builds the query sequence, most specific first:
// structured number+street+city, the same with the sector, structured
// street+city, free text with everything, free text street+city.
func (g *Geocoder) Variants(q AddressQuery) []SearchParams {
	city := firstNonEmpty(q.City, g.defaultCity)
	region := firstNonEmpty(q.Region, g.region)
	street := strings.TrimSpace(q.Street)
	number := strings.TrimSpace(q.Number)
	sector := strings.TrimSpace(q.Sector)

	var out []SearchParams
	if street == "" {
		return out
	}
	if number != "" {
		out = append(out, SearchParams{Street: number + " " + street, City: city, Bounded: true})
		if sector != "" {
			out = append(out, SearchParams{Street: number + " " + street, City: city, County: sector, Bounded: true})
		}
	}
	out = append(out, SearchParams{Street: street, City: city, Bounded: true})
	out = append(out, SearchParams{Query: joinNonEmpty(", ", strings.TrimSpace(street+" "+number), sector, city, region)})
	out = append(out, SearchParams{Query: joinNonEmpty(", ", street, city)})
	return dedupe(out)
}

// Resolve tries each variant until one returns candidates, then grades
// them. A nil address with a nil error means nothing matched anywhere; an
// error is returned when ctx ends first or every variant failed at the
// network level.
func (g *Geocoder) Resolve(ctx context.Context, q AddressQuery) (*domain.Address, error) {
	var (
		lastErr   error
		succeeded bool
	)
	for _, v := range g.Variants(q) {
		places, err := g.search.Search(ctx, v)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		succeeded = true
		if len(places) == 0 {
			continue
		}
		best, conf := Classify(q, places)
		addr := best.ToAddress()
		addr.Raw = firstNonEmpty(q.Raw, joinNonEmpty(", ", strings.TrimSpace(q.Street+" "+q.Number), q.Sector, q.City))
		addr.Confidence = conf
		addr.Source = domain.SourceNominatim
		return &addr, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !succeeded && lastErr != nil {
		return nil, lastErr
	}
	return nil, nil
}

// Classify picks the best candidate: a matching house number is exact, a
// matching street is road level, anything else is the first candidate as
// fallback. places must not be empty.
func Classify(q AddressQuery, places []Place) (Place, domain.Confidence) {
	if number := strings.TrimSpace(q.Number); number != "" {
		for _, p := range places {
			if strings.TrimSpace(p.Address.HouseNumber) == number {
				return p, domain.ConfidenceExact
			}
		}
	}
	if street := strings.ToLower(strings.TrimSpace(q.Street)); street != "" {
		for _, p := range places {
			if strings.Contains(strings.ToLower(p.Address.Street()), street) {
				return p, domain.ConfidenceRoad
			}
		}
	}
	return places[0], domain.ConfidenceFallback
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

func dedupe(in []SearchParams) []SearchParams {
	seen := make(map[SearchParams]bool, len(in))
	out := in[:0]
	for _, p := range in {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
