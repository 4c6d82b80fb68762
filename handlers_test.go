package main

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"tour-planner/arena"
	"tour-planner/config"
)

func newTestServer(obstacles []arena.Obstacle) *httptest.Server {
	return httptest.NewServer(newServer(config.Default(), obstacles, zap.NewNop()).routes())
}

func post(t *testing.T, url, body string, out interface{}) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func TestRouteHandler(t *testing.T) {
	ts := newTestServer(nil)
	defer ts.Close()

	var resp RouteResponse
	code := post(t, ts.URL+"/route", `{"start":{"x":50,"y":100,"heading":0},"goal":{"x":100,"y":100,"heading":0}}`, &resp)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if !resp.Success || math.Abs(resp.Cost-50) > 1e-9 {
		t.Errorf("expected a path costing 50, got %+v", resp)
	}
	if resp.RequestID == "" {
		t.Error("expected a request id")
	}
	if len(resp.Path) != len(resp.Movements)+1 {
		t.Errorf("expected one more pose than movements, got %d and %d", len(resp.Path), len(resp.Movements))
	}
	for _, mv := range resp.Movements {
		if mv != "FWD" {
			t.Errorf("expected forward moves, got %v", resp.Movements)
			break
		}
	}
	if resp.GeoJSON == nil || len(resp.GeoJSON.Features) != 1 {
		t.Errorf("expected the path as a single feature")
	}
}

func TestRouteHandlerRequestObstacles(t *testing.T) {
	ts := newTestServer(nil)
	defer ts.Close()

	// the goal sits inside the obstacle, so no pose can reach it
	var resp RouteResponse
	body := `{"start":{"x":50,"y":100,"heading":0},"goal":{"x":150,"y":100,"heading":0},
		"obstacles":[{"id":1,"x":140,"y":80,"facing":"N"},{"id":2,"x":140,"y":90,"facing":"N"},{"id":3,"x":140,"y":100,"facing":"N"},{"id":4,"x":140,"y":110,"facing":"N"}]}`
	if code := post(t, ts.URL+"/route", body, &resp); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if resp.Success || resp.Message == "" || len(resp.Path) != 0 {
		t.Errorf("expected no path, got %+v", resp)
	}
}

func TestRouteHandlerRejectsBadRequests(t *testing.T) {
	ts := newTestServer(nil)
	defer ts.Close()

	if code := post(t, ts.URL+"/route", `{"start":`, nil); code != http.StatusBadRequest {
		t.Errorf("expected 400 for a malformed body, got %d", code)
	}
	if code := post(t, ts.URL+"/route", `{"obstacles":[{"x":1,"y":1,"facing":"UP"}]}`, nil); code != http.StatusBadRequest {
		t.Errorf("expected 400 for an unknown facing, got %d", code)
	}
	resp, err := http.Get(ts.URL + "/route")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", resp.StatusCode)
	}
}

func TestTourHandler(t *testing.T) {
	ts := newTestServer(nil)
	defer ts.Close()

	var resp TourResponse
	body := `{"start":{"x":20,"y":100,"heading":0},"targets":[{"x":120,"y":100,"heading":0},{"x":60,"y":100,"heading":0},{"x":90,"y":100,"heading":0}]}`
	if code := post(t, ts.URL+"/tour", body, &resp); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if !resp.Success || !reflect.DeepEqual(resp.Order, []int{1, 2, 0}) {
		t.Errorf("expected order [1 2 0], got %+v", resp)
	}
	if math.Abs(resp.Cost-100) > 1e-9 || resp.Legs != 3 {
		t.Errorf("expected 3 legs costing 100, got %d costing %f", resp.Legs, resp.Cost)
	}
}

func TestTourHandlerObstacleTargets(t *testing.T) {
	// one west-facing obstacle; its docking pose is (116, 100, 0)
	obstacles := []arena.Obstacle{{ID: 1, X: 150, Y: 95, Facing: arena.West}}
	ts := newTestServer(obstacles)
	defer ts.Close()

	var resp TourResponse
	if code := post(t, ts.URL+"/tour", `{"start":{"x":46,"y":100,"heading":0}}`, &resp); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if !resp.Success || !reflect.DeepEqual(resp.Order, []int{0}) {
		t.Fatalf("expected to visit the only target, got %+v", resp)
	}
	if math.Abs(resp.Cost-70) > 1e-9 {
		t.Errorf("expected cost 70, got %f", resp.Cost)
	}
	// the obstacle block, its docking point and the path
	if resp.GeoJSON == nil || len(resp.GeoJSON.Features) != 3 {
		t.Errorf("expected three features in the map output")
	}
}

func TestTourHandlerTooManyTargets(t *testing.T) {
	ts := newTestServer(nil)
	defer ts.Close()

	targets := make([]string, 9)
	for i := range targets {
		targets[i] = `{"x":100,"y":100,"heading":0}`
	}
	body := `{"start":{"x":20,"y":100,"heading":0},"targets":[` + strings.Join(targets, ",") + `]}`
	if code := post(t, ts.URL+"/tour", body, nil); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestHealthHandler(t *testing.T) {
	ts := newTestServer([]arena.Obstacle{{ID: 1, X: 10, Y: 10, Facing: arena.North}})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["status"] != "ready" || body["numObstacles"] != float64(1) {
		t.Errorf("unexpected health response %v", body)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected CORS header, got %q", got)
	}
}
