package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"sushikoi/internal/domain"
	"sushikoi/internal/format"
	"sushikoi/internal/geo"
)

// clientIDHeader identifies a browser tab so its lookups are ordered
// independently of other tabs.
const clientIDHeader = "X-Client-ID"

type lookupResp struct {
	Address *domain.Address `json:"address"`
	Loading bool            `json:"loading"`
	Error   string          `json:"error,omitempty"`
	Stale   bool            `json:"stale,omitempty"`
}

func (s *Server) resolverFor(c *gin.Context) *geo.Resolver {
	id := strings.TrimSpace(c.GetHeader(clientIDHeader))
	if id == "" {
		id = c.ClientIP()
	}
	return s.Sessions.For(id)
}

// @Summary Resolve an address
// @Description Either q (free text) or street with optional number, sector and city.
// @Tags lookups
// @Produce json
// @Param q query string false "Free text, e.g. Playa Guabil 6191, Puerto Montt"
// @Param street query string false "Street"
// @Param number query string false "House number"
// @Param sector query string false "Sector or neighbourhood"
// @Param city query string false "City"
// @Param X-Client-ID header string false "Client id"
// @Success 200 {object} lookupResp
// @Failure 400 {object} map[string]string
// @Failure 502 {object} lookupResp
// @Router /geocode [get]
func (s *Server) geocode(c *gin.Context) {
	var q geo.AddressQuery
	if text := strings.TrimSpace(c.Query("q")); text != "" {
		q = geo.ParseFreeText(text, s.CityHint)
	} else {
		q = geo.AddressQuery{
			Street: strings.TrimSpace(c.Query("street")),
			Number: strings.TrimSpace(c.Query("number")),
			Sector: strings.TrimSpace(c.Query("sector")),
			City:   strings.TrimSpace(c.Query("city")),
		}
		if q.City == "" {
			q.City = s.CityHint
		}
	}
	if q.Street == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "street or q is required"})
		return
	}

	r := s.resolverFor(c)
	addr, err := r.Geocode(c, q)
	switch {
	case errors.Is(err, geo.ErrStale):
		c.JSON(http.StatusOK, lookupResp{Stale: true, Loading: r.Loading()})
	case err != nil:
		s.Log.Warn("geocode failed", "street", q.Street, "error", err)
		c.JSON(http.StatusBadGateway, lookupResp{Error: r.Error()})
	default:
		c.JSON(http.StatusOK, lookupResp{Address: addr})
	}
}

// @Summary Reverse geocode a map pin
// @Description Falls back to a manual address holding only the coordinates.
// @Tags lookups
// @Produce json
// @Param lat query number true "Latitude"
// @Param lng query number true "Longitude"
// @Param X-Client-ID header string false "Client id"
// @Success 200 {object} lookupResp
// @Failure 400 {object} map[string]string
// @Router /reverse [get]
func (s *Server) reverse(c *gin.Context) {
	ll, err := parseLatLng(c.Query("lat"), c.Query("lng"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r := s.resolverFor(c)
	addr, err := r.Reverse(c, ll)
	if errors.Is(err, geo.ErrStale) {
		c.JSON(http.StatusOK, lookupResp{Stale: true, Loading: r.Loading()})
		return
	}
	c.JSON(http.StatusOK, lookupResp{Address: addr, Error: r.Error()})
}

type routeResp struct {
	*geo.Route
	ETAMinutes int    `json:"eta_minutes"`
	Distance   string `json:"distance"`
	Duration   string `json:"duration,omitempty"`
}

// @Summary Driving route from the shop
// @Description Without a road route the straight line is returned with straight=true.
// @Tags lookups
// @Produce json
// @Param lat query number true "Destination latitude"
// @Param lng query number true "Destination longitude"
// @Param from_lat query number false "Origin latitude, defaults to the shop"
// @Param from_lng query number false "Origin longitude, defaults to the shop"
// @Success 200 {object} routeResp
// @Failure 400 {object} map[string]string
// @Router /route [get]
func (s *Server) route(c *gin.Context) {
	dest, err := parseLatLng(c.Query("lat"), c.Query("lng"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	from := s.Origin
	if c.Query("from_lat") != "" || c.Query("from_lng") != "" {
		if from, err = parseLatLng(c.Query("from_lat"), c.Query("from_lng")); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	var route *geo.Route
	if s.Router != nil {
		route, err = s.Router.Route(c, from, dest)
		if err != nil {
			s.Log.Warn("route lookup failed", "error", err)
		}
	}
	if route == nil {
		route = geo.StraightLine(from, dest)
	}
	resp := routeResp{Route: route, ETAMinutes: route.ETAMinutes(), Distance: format.Km(route.DistanceMeters)}
	if route.DurationSeconds > 0 {
		resp.Duration = format.Duration(route.DurationSeconds)
	}
	c.JSON(http.StatusOK, resp)
}

var errBadCoordinates = errors.New("lat and lng must be valid coordinates")

func parseLatLng(lat, lng string) (domain.LatLng, error) {
	la, err1 := strconv.ParseFloat(lat, 64)
	ln, err2 := strconv.ParseFloat(lng, 64)
	if err1 != nil || err2 != nil || la < -90 || la > 90 || ln < -180 || ln > 180 {
		return domain.LatLng{}, errBadCoordinates
	}
	return domain.LatLng{Lat: la, Lng: ln}, nil
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(s)
}
