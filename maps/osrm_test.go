package maps

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestOSRMClient_Route(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/route/v1/driving/-0.127800,51.507400;-2.242600,53.480800") {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("steps") != "true" || q.Get("overview") != "full" || q.Get("geometries") != "polyline" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{
			"code": "Ok",
			"routes": [{
				"distance": 335012.4, "duration": 14100.2, "geometry": "_p~iF~ps|U_ulLnnqC",
				"legs": [
					{"steps": [{"distance": 120.5, "duration": 30, "name": "Whitehall",
						"maneuver": {"type": "depart", "modifier": "north"}}]},
					{"steps": [{"distance": 0, "duration": 0, "name": "",
						"maneuver": {"type": "arrive"}}]}
				]
			}]
		}`))
	})

	client := NewOSRMClient(testConfig(server.URL), nil, nil)
	route, err := client.Route(context.Background(), pt(51.5074, -0.1278), pt(53.4808, -2.2426))
	if err != nil {
		t.Fatalf("Route: %v", err)
	}

	if route.Distance != 335012.4 || route.Duration != 14100.2 {
		t.Errorf("route = %+v", route)
	}
	if route.Geometry != "_p~iF~ps|U_ulLnnqC" {
		t.Errorf("geometry = %q", route.Geometry)
	}
	if len(route.Steps) != 2 || route.Steps[0].Name != "Whitehall" || route.Steps[1].Maneuver.Type != "arrive" {
		t.Errorf("steps = %+v", route.Steps)
	}
}

func TestOSRMClient_NoRoute(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"400 NoRoute", http.StatusBadRequest, `{"code": "NoRoute", "message": "Impossible route"}`},
		{"200 non-Ok code", http.StatusOK, `{"code": "NoSegment", "routes": []}`},
		{"200 empty routes", http.StatusOK, `{"code": "Ok", "routes": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			client := NewOSRMClient(testConfig(server.URL), nil, nil)
			_, err := client.Route(context.Background(), pt(0, 0), pt(10, 10))
			if !errors.Is(err, ErrNoRoute) {
				t.Errorf("err = %v, want ErrNoRoute", err)
			}
		})
	}
}

func TestOSRMClient_ServerError(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	client := NewOSRMClient(testConfig(server.URL), nil, nil)
	_, err := client.Route(context.Background(), pt(0, 0), pt(1, 1))
	if errors.Is(err, ErrNoRoute) {
		t.Fatal("server errors must not look like missing routes")
	}
	if StatusCode(err) != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", StatusCode(err))
	}
}

func TestOSRMClient_InvalidQueryIsNotNoRoute(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code": "InvalidQuery", "message": "Query string malformed"}`))
	})

	client := NewOSRMClient(testConfig(server.URL), nil, nil)
	_, err := client.Route(context.Background(), pt(0, 0), pt(1, 1))
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrNoRoute) {
		t.Errorf("InvalidQuery must not map to ErrNoRoute: %v", err)
	}
	if StatusCode(err) != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want 400", StatusCode(err))
	}
}

func TestOSRMClient_ConnectionRefused(t *testing.T) {
	client := NewOSRMClient(testConfig(closedServerURL(t)), nil, nil)

	_, err := client.Route(context.Background(), pt(0, 0), pt(1, 1))
	if !IsConnectionRefused(err) {
		t.Errorf("IsConnectionRefused(%v) = false", err)
	}
	if client.Ping(context.Background()) == nil {
		t.Error("Ping should fail against a closed port")
	}
}
