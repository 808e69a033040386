package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fundledger/backend/src/config"
	"github.com/fundledger/backend/src/database"
	"github.com/fundledger/backend/src/metrics"
	"github.com/fundledger/backend/src/processors"
	"github.com/fundledger/backend/src/services"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
	token   string
	cookie  *http.Cookie
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "handlers.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.AppConfig{
		AllowedOrigins:            []string{"http://localhost:3000"},
		RateLimitInterval:         time.Millisecond,
		RateLimitBurst:            1000,
		MaxRequestBodyBytes:       1 << 16,
		CSRFEnabled:               true,
		DashboardCacheTTL:         time.Minute,
		DashboardFetchConcurrency: 4,
		DisplayCurrency:           "USD",
	}
	reportCache := cache.New(cfg.DashboardCacheTTL, time.Minute)
	recorder := metrics.NewRecorder()
	opts := []services.Option{services.WithMetrics(recorder)}
	investments := services.NewInvestmentService(db, reportCache, opts...)
	exits := services.NewExitService(db, reportCache, opts...)
	dashboard := services.NewDashboardService(db, processors.NewPortfolioMetricsProcessor(), reportCache, opts...)

	ts := &testServer{
		t: t,
		handler: NewRouter(cfg, recorder,
			NewInvestmentHandler(investments, exits),
			NewExitHandler(exits),
			NewDashboardHandler(dashboard, investments, exits, cfg.DisplayCurrency)),
	}
	ts.fetchToken()
	return ts
}

func (ts *testServer) fetchToken() {
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/csrf", nil))
	if rec.Code != http.StatusOK {
		ts.t.Fatalf("csrf endpoint status = %d", rec.Code)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == csrfCookieName {
			ts.cookie = c
		}
	}
	ts.token = rec.Header().Get(csrfHeaderName)
	if ts.cookie == nil || ts.token == "" || ts.token != ts.cookie.Value {
		ts.t.Fatalf("csrf token not issued: header=%q cookie=%v", ts.token, ts.cookie)
	}
}

func (ts *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			if err != nil {
				ts.t.Fatalf("marshal body: %v", err)
			}
			reader = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(csrfHeaderName, ts.token)
	req.AddCookie(ts.cookie)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	ts.t.Helper()
	form.Set(csrfFormField, ts.token)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(ts.cookie)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return m
}

const acmeJSON = `{"company_name":"Acme","investment_date":"2024-05-10","amount_invested":100000,
	"equity_percentage":10,"funding_round":"Seed","status":"Active"}`

func TestInvestmentExitScenarioOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/investments", acmeJSON)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", rec.Code, rec.Body)
	}
	id := int64(decodeMap(t, rec)["id"].(float64))

	rec = ts.do(http.MethodGet, "/api/investments", nil)
	var list []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("list length = %d", len(list))
	}
	if amount, ok := list[0]["amount_invested"].(float64); !ok || amount != 100000 {
		t.Fatalf("amount_invested should be the number 100000, got %T %v", list[0]["amount_invested"], list[0]["amount_invested"])
	}
	if list[0]["status"] != "Active" {
		t.Fatalf("status = %v", list[0]["status"])
	}

	rec = ts.do(http.MethodPost, "/api/exits", fmt.Sprintf(
		`{"investment_id":%d,"exit_date":"2025-01-01","proceeds_received":250000,"exit_multiple":2.5}`, id))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create exit status = %d body=%s", rec.Code, rec.Body)
	}
	exitID := int64(decodeMap(t, rec)["id"].(float64))

	rec = ts.do(http.MethodGet, fmt.Sprintf("/api/investments/%d", id), nil)
	if got := decodeMap(t, rec)["status"]; got != "Exited" {
		t.Fatalf("status after exit = %v", got)
	}

	rec = ts.do(http.MethodGet, fmt.Sprintf("/api/investments/%d/exit", id), nil)
	if got := decodeMap(t, rec)["proceeds_received"]; got != float64(250000) {
		t.Fatalf("exit proceeds = %v", got)
	}

	rec = ts.do(http.MethodPost, "/api/exits", fmt.Sprintf(
		`{"investment_id":%d,"exit_date":"2025-01-02","proceeds_received":1}`, id))
	if rec.Code != http.StatusConflict {
		t.Fatalf("second exit status = %d, want 409", rec.Code)
	}

	rec = ts.do(http.MethodDelete, fmt.Sprintf("/api/exits/%d", exitID), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete exit status = %d", rec.Code)
	}
	rec = ts.do(http.MethodGet, fmt.Sprintf("/api/investments/%d", id), nil)
	if got := decodeMap(t, rec)["status"]; got != "Active" {
		t.Fatalf("status after exit deletion = %v", got)
	}

	rec = ts.do(http.MethodGet, fmt.Sprintf("/api/investments/%d/exit", id), nil)
	if strings.TrimSpace(rec.Body.String()) != "null" {
		t.Fatalf("missing exit should be null, got %s", rec.Body)
	}
}

func TestNeverCreatedIDOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/investments/999", nil)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "null" {
		t.Fatalf("get missing: %d %s", rec.Code, rec.Body)
	}

	rec = ts.do(http.MethodDelete, "/api/investments/999", nil)
	if rec.Code != http.StatusOK || decodeMap(t, rec)["success"] != false {
		t.Fatalf("delete missing: %d %s", rec.Code, rec.Body)
	}

	rec = ts.do(http.MethodPatch, "/api/investments/999", `{"company_name":"Ghost"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("update missing: %d %s", rec.Code, rec.Body)
	}

	rec = ts.do(http.MethodDelete, "/api/exits/999", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("delete missing exit: %d", rec.Code)
	}

	rec = ts.do(http.MethodPost, "/api/exits", `{"investment_id":999,"exit_date":"2025-01-01","proceeds_received":1}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("exit for missing investment: %d", rec.Code)
	}
}

func TestRequestErrors(t *testing.T) {
	ts := newTestServer(t)
	if rec := ts.do(http.MethodPost, "/api/investments", acmeJSON); rec.Code != http.StatusCreated {
		t.Fatalf("seed investment: %d %s", rec.Code, rec.Body)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"malformed json", http.MethodPost, "/api/investments", `{"company_name":`, http.StatusBadRequest},
		{"bad date", http.MethodPost, "/api/investments", strings.Replace(acmeJSON, "2024-05-10", "10/05/2024", 1), http.StatusBadRequest},
		{"equity out of range", http.MethodPost, "/api/investments", strings.Replace(acmeJSON, `"equity_percentage":10`, `"equity_percentage":150`, 1), http.StatusBadRequest},
		{"unknown round", http.MethodPost, "/api/investments", strings.Replace(acmeJSON, `"Seed"`, `"Series Z"`, 1), http.StatusBadRequest},
		{"missing equity", http.MethodPost, "/api/investments", strings.Replace(acmeJSON, `"equity_percentage":10,`, ``, 1), http.StatusBadRequest},
		{"null equity", http.MethodPost, "/api/investments", strings.Replace(acmeJSON, `"equity_percentage":10`, `"equity_percentage":null`, 1), http.StatusBadRequest},
		{"script in company name", http.MethodPost, "/api/investments", strings.Replace(acmeJSON, `"Acme"`, `"<script>alert(1)</script>Acme"`, 1), http.StatusBadRequest},
		{"patch equity to null", http.MethodPatch, "/api/investments/1", `{"equity_percentage":null}`, http.StatusBadRequest},
		{"patch name to null", http.MethodPatch, "/api/investments/1", `{"company_name":null}`, http.StatusBadRequest},
		{"exit without proceeds", http.MethodPost, "/api/exits", `{"investment_id":1,"exit_date":"2025-01-01"}`, http.StatusBadRequest},
		{"exit with zero proceeds and no multiple", http.MethodPost, "/api/exits", `{"investment_id":1,"exit_date":"2025-01-01","proceeds_received":0}`, http.StatusBadRequest},
		{"non-numeric id", http.MethodGet, "/api/investments/abc", "", http.StatusBadRequest},
		{"oversized body", http.MethodPost, "/api/investments", `{"notes":"` + strings.Repeat("x", 1<<17) + `"}`, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body any
			if tt.body != "" {
				body = tt.body
			}
			rec := ts.do(tt.method, tt.path, body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
			if _, ok := decodeMap(t, rec)["error"]; !ok {
				t.Fatalf("error body missing: %s", rec.Body)
			}
		})
	}

	inv := decodeMap(t, ts.do(http.MethodGet, "/api/investments/1", nil))
	if inv["status"] != "Active" || inv["equity_percentage"] != float64(10) || inv["company_name"] != "Acme" {
		t.Fatalf("rejected requests must leave the investment untouched: %v", inv)
	}
	if rec := ts.do(http.MethodGet, "/api/investments/1/exit", nil); strings.TrimSpace(rec.Body.String()) != "null" {
		t.Fatalf("rejected exits must not be stored: %s", rec.Body)
	}
}

func TestFormsRequireZeroableDecimals(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.postForm("/dashboard/investments", url.Values{
		"company_name":      {"Initech"},
		"investment_date":   {"2023-09-01"},
		"amount_invested":   {"1000"},
		"funding_round":     {"Seed"},
		"equity_percentage": {""},
	})
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "error=") || !strings.Contains(loc, "equity_percentage") {
		t.Fatalf("blank equity should be rejected: %s", loc)
	}

	created := ts.do(http.MethodPost, "/api/investments", acmeJSON)
	id := int64(decodeMap(t, created)["id"].(float64))

	rec = ts.postForm(fmt.Sprintf("/dashboard/investments/%d/exit", id), url.Values{
		"exit_date":         {"2025-04-01"},
		"proceeds_received": {""},
	})
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "error=") || !strings.Contains(loc, "proceeds_received") {
		t.Fatalf("blank proceeds should be rejected: %s", loc)
	}

	rec = ts.postForm(fmt.Sprintf("/dashboard/investments/%d", id), url.Values{"equity_percentage": {""}})
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "error=") {
		t.Fatalf("clearing equity should be rejected: %s", loc)
	}

	inv := decodeMap(t, ts.do(http.MethodGet, fmt.Sprintf("/api/investments/%d", id), nil))
	if inv["status"] != "Active" || inv["equity_percentage"] != float64(10) {
		t.Fatalf("investment changed by rejected forms: %v", inv)
	}
}

func TestPatchClearsValuation(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(http.MethodPost, "/api/investments", strings.Replace(acmeJSON, `"status":"Active"`, `"status":"Active","current_valuation":500000`, 1))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body)
	}
	id := int64(decodeMap(t, rec)["id"].(float64))

	rec = ts.do(http.MethodPatch, fmt.Sprintf("/api/investments/%d", id), `{"current_valuation":null}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: %d %s", rec.Code, rec.Body)
	}
	m := decodeMap(t, rec)
	if m["current_valuation"] != nil || m["company_name"] != "Acme" {
		t.Fatalf("unexpected patch result: %v", m)
	}
}

func TestCSRFRequired(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/investments", strings.NewReader(acmeJSON))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("missing token: status = %d, want 403", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/investments", strings.NewReader(acmeJSON))
	req.Header.Set(csrfHeaderName, "forged")
	req.AddCookie(ts.cookie)
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("mismatched token: status = %d, want 403", rec.Code)
	}

	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/investments", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("safe method should pass without token: %d", rec.Code)
	}
}

func TestDashboardJSON(t *testing.T) {
	ts := newTestServer(t)
	ts.do(http.MethodPost, "/api/investments", acmeJSON)

	rec := ts.do(http.MethodGet, "/api/dashboard", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: %d %s", rec.Code, rec.Body)
	}
	m := decodeMap(t, rec)
	metricsBody := m["metrics"].(map[string]any)
	if metricsBody["total_invested"] != float64(100000) || metricsBody["portfolio_value"] != float64(100000) {
		t.Fatalf("unexpected metrics: %v", metricsBody)
	}
	if metricsBody["moic"] != float64(1) {
		t.Fatalf("moic = %v", metricsBody["moic"])
	}
}

func TestDashboardFormsFlow(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.postForm("/dashboard/investments", url.Values{
		"company_name":      {"Globex"},
		"investment_date":   {"2023-09-01"},
		"amount_invested":   {"1,250,000"},
		"funding_round":     {"Series A"},
		"equity_percentage": {"12.5"},
		"current_valuation": {""},
		"status":            {"Active"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("create form status = %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "notice=") {
		t.Fatalf("redirect should carry a notice: %s", loc)
	}

	list := ts.do(http.MethodGet, "/api/investments", nil)
	var investments []map[string]any
	_ = json.Unmarshal(list.Body.Bytes(), &investments)
	if len(investments) != 1 || investments[0]["amount_invested"] != float64(1250000) {
		t.Fatalf("form create did not store the investment: %s", list.Body)
	}
	id := int64(investments[0]["id"].(float64))

	rec = ts.postForm(fmt.Sprintf("/dashboard/investments/%d/exit", id), url.Values{
		"exit_date":         {"2025-04-01"},
		"proceeds_received": {"2500000"},
	})
	if loc := rec.Header().Get("Location"); rec.Code != http.StatusSeeOther || !strings.Contains(loc, "notice=") {
		t.Fatalf("exit form: %d %s", rec.Code, loc)
	}
	exit := decodeMap(t, ts.do(http.MethodGet, fmt.Sprintf("/api/investments/%d/exit", id), nil))
	if exit["exit_multiple"] != float64(2) {
		t.Fatalf("derived multiple = %v", exit["exit_multiple"])
	}

	rec = ts.postForm(fmt.Sprintf("/dashboard/investments/%d", id), url.Values{"equity_percentage": {"200"}})
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "error=") {
		t.Fatalf("invalid update should redirect with an error: %s", loc)
	}

	page := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(ts.cookie)
	ts.handler.ServeHTTP(page, req)
	if page.Code != http.StatusOK {
		t.Fatalf("page status = %d", page.Code)
	}
	html := page.Body.String()
	for _, want := range []string{"Globex", "$1,250,000.00", "$2,500,000.00", "2.00x", ts.token} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}

	rec = ts.postForm(fmt.Sprintf("/dashboard/exits/%d/delete", int64(exit["id"].(float64))), url.Values{})
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "notice=") {
		t.Fatalf("exit delete: %s", loc)
	}
	rec = ts.postForm(fmt.Sprintf("/dashboard/investments/%d/delete", id), url.Values{})
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "notice=") {
		t.Fatalf("investment delete: %s", loc)
	}
	rec = ts.postForm(fmt.Sprintf("/dashboard/investments/%d/delete", id), url.Values{})
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "error=") {
		t.Fatalf("deleting twice should report an error: %s", loc)
	}
}

func TestOperationalEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("request id header missing")
	}

	ts.do(http.MethodGet, "/api/investments", nil)
	rec = ts.do(http.MethodGet, "/metrics", nil)
	if !strings.Contains(rec.Body.String(), `route="/api/investments"`) {
		t.Fatalf("metrics should include the investments route:\n%s", rec.Body)
	}

	req := httptest.NewRequest(http.MethodOptions, "/api/investments", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Fatalf("CORS header missing for allowed origin")
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in       string
		currency string
		want     string
	}{
		{"1250000", "USD", "$1,250,000.00"},
		{"0.5", "USD", "$0.50"},
		{"1234.567", "USD", "$1,234.57"},
		{"-42", "USD", "-$42.00"},
	}
	for _, tt := range tests {
		if got := formatMoney(decimal.RequireFromString(tt.in), tt.currency); got != tt.want {
			t.Errorf("formatMoney(%s, %s) = %q, want %q", tt.in, tt.currency, got, tt.want)
		}
	}
	if got := formatNullMoney(decimal.NullDecimal{}, "USD"); got != "n/a" {
		t.Errorf("null money = %q", got)
	}
}
