package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRouteCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"Ok","routes":[{"distance":5300,"duration":600,"geometry":{"coordinates":[]}}]}`))
	}))
	defer srv.Close()

	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("routing.base_url", srv.URL)

	out, err := runCmd(t, "route", "--", "-41.47", "-72.94")
	require.NoError(t, err)
	assert.Contains(t, out, "distance: 5.3 km")
	assert.Contains(t, out, "duration: 10 min")
	assert.Contains(t, out, "waze: https://waze.com/ul?ll=-41.47,-72.94&navigate=yes")
}

func TestReverseCommand_FallsBackToManual(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("geocoding.reverse_url", srv.URL)

	out, err := runCmd(t, "reverse", "--", "-41.5", "-72.95")
	require.NoError(t, err)
	assert.Contains(t, out, "No se pudo obtener la dirección")
	assert.Contains(t, out, `"raw": "-41.500000,-72.950000"`)
	assert.Contains(t, out, `"confidence": "manual"`)
}

func TestParseArgsLatLng(t *testing.T) {
	ll, err := parseArgsLatLng(" -41.47", "-72.94 ")
	require.NoError(t, err)
	assert.InDelta(t, -41.47, ll.Lat, 1e-9)

	_, err = parseArgsLatLng("x", "1")
	assert.Error(t, err)
}
