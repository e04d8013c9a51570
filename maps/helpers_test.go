package maps

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rightfit/rightfit-navigation/config"
	"github.com/rightfit/rightfit-navigation/geo"
)

func pt(lat, lng float64) geo.Point {
	return geo.Point{Lat: lat, Lng: lng}
}

// testConfig points every provider at baseURL.
func testConfig(baseURL string) config.NavigationConfig {
	cfg := config.DefaultNavigationConfig()
	cfg.NominatimBaseURL = baseURL
	cfg.OSRMBaseURL = baseURL
	cfg.TomTomBaseURL = baseURL
	cfg.WeatherBaseURL = baseURL
	cfg.What3WordsBaseURL = baseURL
	cfg.WeatherAPIKey = "weather-key"
	cfg.TomTomAPIKey = "tomtom-key"
	cfg.What3WordsAPIKey = "w3w-key"
	cfg.GeocodeRatePerSecond = 1000
	cfg.GeocodeTimeout = 2 * time.Second
	cfg.RoutingTimeout = 2 * time.Second
	cfg.TrafficTimeout = 2 * time.Second
	cfg.WeatherTimeout = 2 * time.Second
	cfg.What3WordsTimeout = 2 * time.Second
	return cfg
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

// closedServerURL returns a URL nothing is listening on.
func closedServerURL(t *testing.T) string {
	t.Helper()
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()
	return url
}
