package maps

import (
	"context"
	"net/http"
	"testing"
)

func TestWeatherAPIClient_Current(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/current.json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("q") != "51.507400,-0.127800" || r.URL.Query().Get("key") != "weather-key" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{
			"location": {"name": "London", "region": "City of London", "country": "UK", "localtime": "2025-01-10 08:00"},
			"current": {"last_updated": "2025-01-10 07:45", "temp_c": -2.5, "feelslike_c": -6.1, "humidity": 88,
				"precip_mm": 0.2, "wind_kph": 14.4, "gust_kph": 25.1, "wind_dir": "NE", "vis_km": 4, "uv": 1, "is_day": 1,
				"condition": {"text": "Freezing fog", "code": 1147}}
		}`))
	})

	client := NewWeatherAPIClient(testConfig(server.URL), nil, nil)
	cur, err := client.Current(context.Background(), pt(51.5074, -0.1278))
	if err != nil {
		t.Fatalf("Current: %v", err)
	}

	if cur.LocationName != "London" || cur.TempC != -2.5 || cur.VisibilityKM != 4 || cur.Condition != "Freezing fog" {
		t.Errorf("conditions = %+v", cur)
	}
	if !cur.IsDay || cur.Humidity != 88 || cur.GustKPH != 25.1 {
		t.Errorf("conditions = %+v", cur)
	}
}

func TestWeatherAPIClient_Forbidden(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"code": 2008, "message": "API key has been disabled."}}`))
	})

	client := NewWeatherAPIClient(testConfig(server.URL), nil, nil)
	_, err := client.Current(context.Background(), pt(0, 0))
	if StatusCode(err) != http.StatusForbidden {
		t.Errorf("StatusCode = %d, want 403 (err %v)", StatusCode(err), err)
	}
}
