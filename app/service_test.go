package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lucasmnd/hkroster/config"
	"github.com/lucasmnd/hkroster/core/dispatch"
	"github.com/lucasmnd/hkroster/core/model"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.API.Token = "secret"
	cfg.Logging.Path = filepath.Join(t.TempDir(), "runs.log")
	cfg.SetDefaults()
	return cfg
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func seed(svc *Service) {
	svc.StaffStore.Put(model.Staff{ID: "s1", Role: model.RoleCleaner, Team: "Team 1", Active: true})
	svc.StaffStore.Put(model.Staff{ID: "s2", Role: model.RoleCleaner, Team: "Team 2", Active: true})
	svc.Rooms.Put(model.Room{Number: "101", Status: model.StatusPending, CleaningType: model.CleanDeparture, GuestStatus: model.GuestOut})
	svc.Rooms.Put(model.Room{Number: "102", Status: model.StatusPending, CleaningType: model.CleanPreArrival, GuestStatus: model.GuestOut})
}

func TestService_GenerateThenAssign(t *testing.T) {
	svc := newTestService(t)
	seed(svc)

	monday := model.DateOf(time.Now())
	res, err := svc.Generate(context.Background(), monday)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(res.Shifts) == 0 {
		t.Fatalf("no shifts generated")
	}

	out, err := svc.AssignDaily(context.Background())
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if out.Assigned != 2 || out.Unassigned != 0 {
		t.Fatalf("dispatch result = %+v", out)
	}
}

func TestService_AssignWithoutRoster(t *testing.T) {
	svc := newTestService(t)
	seed(svc)

	if _, err := svc.AssignDaily(context.Background()); err != dispatch.ErrNoStaffScheduled {
		t.Fatalf("expected ErrNoStaffScheduled, got %v", err)
	}
}

func TestService_HTTPRoundTrip(t *testing.T) {
	svc := newTestService(t)
	seed(svc)
	srv := httptest.NewServer(svc.Handler())
	defer srv.Close()

	start := model.DateKey(time.Now())
	body := strings.NewReader(`{"start_date":"` + start + `"}`)
	resp, err := http.Post(srv.URL+"/api/roster/generate", "application/json", body)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate status = %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	resp, err = http.Post(srv.URL+"/api/assign/daily", "application/json", nil)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	var res dispatch.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	_ = resp.Body.Close()
	if res.Assigned != 2 {
		t.Fatalf("assigned = %d, want 2", res.Assigned)
	}

	resp, err = http.Get(srv.URL + "/api/roster/forecast?start_date=" + start)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("forecast status = %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	// Run history is guarded by the bearer token.
	resp, err = http.Get(srv.URL + "/api/assign/runs")
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated runs status = %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/assign/runs", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("runs status = %d", resp.StatusCode)
	}
	var runs []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&runs); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(runs))
	}
}
