package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"sushikoi/internal/config"
	"sushikoi/internal/domain"
	"sushikoi/internal/format"
	"sushikoi/internal/geo"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode <address>",
	Short: "Resolve an address and print the best candidate",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		nominatim := geo.NewNominatim(cfg.Geocoding, nil)
		g := geo.NewGeocoder(nominatim, cfg.Shop.DefaultCity, cfg.Shop.Region)
		q := geo.ParseFreeText(strings.Join(args, " "), cfg.Shop.DefaultCity)
		addr, err := g.Resolve(cmd.Context(), q)
		if err != nil {
			return fmt.Errorf("%s: %w", geo.MsgGeocodeFailed, err)
		}
		if addr == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "no result")
			return nil
		}
		return printJSON(cmd.OutOrStdout(), addr)
	},
}

var reverseCmd = &cobra.Command{
	Use:   "reverse <lat> <lng>",
	Short: "Reverse geocode a coordinate",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ll, err := parseArgsLatLng(args[0], args[1])
		if err != nil {
			return err
		}
		rg := geo.NewReverseGeocoder(geo.NewNominatim(cfg.Geocoding, nil))
		addr, err := rg.ReverseResolve(cmd.Context(), ll)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), geo.MsgReverseFailed)
		}
		if err != nil || addr == nil {
			addr = geo.ManualAddress(ll)
		}
		return printJSON(cmd.OutOrStdout(), addr)
	},
}

var routeCmd = &cobra.Command{
	Use:   "route <lat> <lng>",
	Short: "Driving distance and time from the shop",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		dest, err := parseArgsLatLng(args[0], args[1])
		if err != nil {
			return err
		}
		origin := domain.LatLng{Lat: cfg.Shop.OriginLat, Lng: cfg.Shop.OriginLng}
		route, err := geo.NewOSRM(cfg.Routing, cfg.Geocoding.UserAgent, nil).Route(cmd.Context(), origin, dest)
		if err != nil {
			return err
		}
		if route == nil {
			route = geo.StraightLine(origin, dest)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "distance: %s\n", format.Km(route.DistanceMeters))
		if route.DurationSeconds > 0 {
			fmt.Fprintf(out, "duration: %s\n", format.Duration(route.DurationSeconds))
		}
		if route.Straight {
			fmt.Fprintln(out, "no road route, straight line")
		}
		links := geo.NavigationLinks(origin, dest)
		fmt.Fprintf(out, "google maps: %s\nwaze: %s\n", links.GoogleMaps, links.Waze)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(geocodeCmd, reverseCmd, routeCmd)
}

func parseArgsLatLng(lat, lng string) (domain.LatLng, error) {
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return domain.LatLng{}, fmt.Errorf("invalid latitude %q", lat)
	}
	ln, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil {
		return domain.LatLng{}, fmt.Errorf("invalid longitude %q", lng)
	}
	return domain.LatLng{Lat: la, Lng: ln}, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
