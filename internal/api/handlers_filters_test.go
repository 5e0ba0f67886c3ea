// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/storelens/storelens/internal/config"
	"github.com/storelens/storelens/internal/filterctx"
	"github.com/storelens/storelens/internal/models"
)

// filterTestServer wires only the pieces the filter endpoints touch.
func filterTestServer(t *testing.T) (*filterctx.Context, http.Handler) {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			CORSOrigins: []string{"*"},
			RateLimit:   0, // disabled
		},
	}
	filters := filterctx.New(0)
	h := NewHandler(cfg, filters, nil, nil, nil, nil, nil, nil, nil)
	return filters, h.Routes()
}

type envelope struct {
	Status string           `json:"status"`
	Data   json.RawMessage  `json:"data"`
	Error  *models.APIError `json:"error"`
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) (int, envelope) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not an envelope: %v\nbody: %s", err, rec.Body.String())
	}
	return rec.Code, env
}

func TestSetDateFilterPreset(t *testing.T) {
	filters, router := filterTestServer(t)

	status, env := doJSON(t, router, http.MethodPut, "/api/v1/filters/date",
		`{"mode":"preset","preset":"last_7_days"}`)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if env.Status != "success" {
		t.Errorf("envelope status = %q, want success", env.Status)
	}

	var data map[string]uint64
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("data decode: %v", err)
	}
	if data["generation"] != 1 {
		t.Errorf("generation = %d, want 1", data["generation"])
	}

	snap := filters.Snapshot()
	if snap.DateMode != models.DateModePreset || snap.DatePreset != models.PresetLast7Days {
		t.Errorf("filter state = (%q, %q), mutation not applied", snap.DateMode, snap.DatePreset)
	}
}

func TestSetDateFilterCustomInclusiveEnd(t *testing.T) {
	filters, router := filterTestServer(t)

	status, _ := doJSON(t, router, http.MethodPut, "/api/v1/filters/date",
		`{"mode":"custom","start_date":"2026-08-01","end_date":"2026-08-31"}`)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}

	snap := filters.Snapshot()
	if snap.StartDate == nil || snap.EndDate == nil {
		t.Fatal("custom range not applied")
	}
	// The window must cover the whole final day.
	if snap.EndDate.Day() != 31 || snap.EndDate.Hour() != 23 {
		t.Errorf("EndDate = %v, want end of Aug 31", snap.EndDate)
	}
}

func TestSetDateFilterValidation(t *testing.T) {
	_, router := filterTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"unknown mode", `{"mode":"fortnight"}`},
		{"preset mode without preset", `{"mode":"preset"}`},
		{"unknown preset", `{"mode":"preset","preset":"last_decade"}`},
		{"custom without dates", `{"mode":"custom"}`},
		{"malformed date", `{"mode":"custom","start_date":"01/08/2026","end_date":"2026-08-31"}`},
		{"inverted range", `{"mode":"custom","start_date":"2026-08-31","end_date":"2026-08-01"}`},
		{"unknown field", `{"mode":"all_time","bogus":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := doJSON(t, router, http.MethodPut, "/api/v1/filters/date", tt.body)
			if status != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", status)
			}
			if env.Error == nil {
				t.Error("envelope missing error")
			}
		})
	}
}

func TestSelectionEndpoints(t *testing.T) {
	filters, router := filterTestServer(t)

	if status, _ := doJSON(t, router, http.MethodPut, "/api/v1/filters/regions", `{"codes":["NORTH","SOUTH"]}`); status != http.StatusOK {
		t.Fatalf("regions status = %d, want 200", status)
	}
	if status, _ := doJSON(t, router, http.MethodPut, "/api/v1/filters/groups", `{"codes":["FRANCHISE"]}`); status != http.StatusOK {
		t.Fatalf("groups status = %d, want 200", status)
	}
	if status, _ := doJSON(t, router, http.MethodPut, "/api/v1/filters/stores", `{"codes":[]}`); status != http.StatusOK {
		t.Fatalf("stores status = %d, want 200", status)
	}

	snap := filters.Snapshot()
	if len(snap.RegionCodes) != 2 || len(snap.GroupCodes) != 1 || len(snap.StoreIDs) != 0 {
		t.Errorf("selections = %v/%v/%v", snap.RegionCodes, snap.GroupCodes, snap.StoreIDs)
	}
	if snap.Generation != 3 {
		t.Errorf("generation = %d, want 3", snap.Generation)
	}
}

func TestCrossFilterEndpoints(t *testing.T) {
	filters, router := filterTestServer(t)

	status, _ := doJSON(t, router, http.MethodPost, "/api/v1/filters/cross",
		`{"widget_id":"w1","field":"region_code","value":"NORTH"}`)
	if status != http.StatusOK {
		t.Fatalf("add status = %d, want 200", status)
	}

	if status, _ := doJSON(t, router, http.MethodPost, "/api/v1/filters/cross", `{"widget_id":"w1"}`); status != http.StatusBadRequest {
		t.Errorf("incomplete cross-filter status = %d, want 400", status)
	}

	if got := filters.CrossFilters().List(); len(got) != 1 || got[0].Value != "NORTH" {
		t.Fatalf("cross filters = %+v, want single NORTH entry", got)
	}

	status, _ = doJSON(t, router, http.MethodDelete, "/api/v1/filters/cross/w1", "")
	if status != http.StatusOK {
		t.Fatalf("remove status = %d, want 200", status)
	}
	if got := filters.CrossFilters().List(); len(got) != 0 {
		t.Errorf("cross filters = %+v after remove, want none", got)
	}
}

func TestFilterStateIncludesCrossFilters(t *testing.T) {
	filters, router := filterTestServer(t)
	filters.AddCrossFilter(models.CrossFilter{WidgetID: "w1", Field: "category", Value: "beverages"})

	status, env := doJSON(t, router, http.MethodGet, "/api/v1/filters/", "")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}

	var state struct {
		DateMode     models.DateMode      `json:"date_mode"`
		CrossFilters []models.CrossFilter `json:"cross_filters"`
	}
	if err := json.Unmarshal(env.Data, &state); err != nil {
		t.Fatalf("data decode: %v", err)
	}
	if state.DateMode != models.DateModeAllTime {
		t.Errorf("DateMode = %q, want all_time", state.DateMode)
	}
	if len(state.CrossFilters) != 1 || state.CrossFilters[0].WidgetID != "w1" {
		t.Errorf("CrossFilters = %+v, want the w1 entry", state.CrossFilters)
	}
}
