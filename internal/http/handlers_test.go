package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finsight/internal/analytics"
	"finsight/internal/core"
	"finsight/internal/ledger/memory"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	// Pin the clock so the monthly window is always March 2025.
	now := time.Date(2025, time.March, 15, 14, 30, 0, 0, time.UTC)
	at := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)
	store := memory.New(
		core.NewMovement("m1", "alice", core.KindExpense, "groceries", core.Money{Cents: 2500}, at),
		core.NewMovement("m2", "alice", core.KindExpense, "transport", core.Money{Cents: 4000}, at.Add(2*time.Hour)),
		core.NewMovement("m3", "alice", core.KindIncome, "", core.Money{Cents: 100000}, at.Add(time.Hour)),
	)
	engine := analytics.NewEngine(store)
	charts := analytics.NewChartFormatter(store)
	composer := analytics.NewComposer(engine,
		analytics.WithClock(func() time.Time { return now }))
	srv := NewServer(":0", engine, charts, composer, 5*time.Second)
	srv.now = func() time.Time { return now }
	t.Cleanup(func() { srv.rateLimiter.stop() })
	return srv
}

func doRequest(t *testing.T, srv *Server, method, target string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v\n%s", err, rec.Body.String())
	}
	return body
}

func TestTotalsEndpoint(t *testing.T) {
	srv := testServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/analytics/totals?period=monthly",
		map[string]string{"X-User-ID": "alice"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["period"] != "monthly" {
		t.Fatalf("period: %v", body["period"])
	}
	summary := body["summary"].(map[string]any)
	if summary["total_expenses"] != 65.00 {
		t.Fatalf("total_expenses: %v", summary["total_expenses"])
	}
	if summary["total_income"] != 1000.00 {
		t.Fatalf("total_income: %v", summary["total_income"])
	}
	if summary["balance"] != 935.00 {
		t.Fatalf("balance: %v", summary["balance"])
	}
}

func TestTotalsRequiresUser(t *testing.T) {
	srv := testServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/analytics/totals", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUserIDQueryFallback(t *testing.T) {
	srv := testServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/analytics/totals?user_id=alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUnknownPeriodFallsBackToMonthly(t *testing.T) {
	srv := testServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/analytics/totals?period=yearly",
		map[string]string{"X-User-ID": "alice"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["period"] != "monthly" {
		t.Fatalf("unknown period must fall back to monthly, got %v", body["period"])
	}
}

func TestHighlightsEndpoint(t *testing.T) {
	srv := testServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/analytics/highlights",
		map[string]string{"X-User-ID": "alice"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	highlights := body["highlights"].(map[string]any)
	cat := highlights["category_with_highest_expense"].(map[string]any)
	if cat["category"] != "transport" || cat["total"] != 40.00 {
		t.Fatalf("category highlight: %v", cat)
	}
	if _, ok := highlights["day_with_highest_expense"]; !ok {
		t.Fatal("day highlight key must be present")
	}
	hour := highlights["hour_with_highest_expense"].(map[string]any)
	if hour["formatted_hour"] != "11:00" {
		t.Fatalf("hour highlight: %v", hour)
	}
}

func TestHighlightsAbsentForUserWithoutExpenses(t *testing.T) {
	srv := testServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/analytics/highlights",
		map[string]string{"X-User-ID": "nobody"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := decodeBody(t, rec)
	highlights := body["highlights"].(map[string]any)
	// The keys are present and explicitly null.
	for _, key := range []string{"day_with_highest_expense", "category_with_highest_expense", "hour_with_highest_expense"} {
		v, ok := highlights[key]
		if !ok {
			t.Fatalf("missing key %q", key)
		}
		if v != nil {
			t.Fatalf("%q expected null, got %v", key, v)
		}
	}
}

func TestChartsEndpointAllDimensions(t *testing.T) {
	srv := testServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/analytics/charts",
		map[string]string{"X-User-ID": "alice"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	charts := body["charts"].(map[string]any)
	for _, key := range []string{"by_category", "by_weekday", "by_hour"} {
		chart, ok := charts[key].(map[string]any)
		if !ok {
			t.Fatalf("missing chart %q", key)
		}
		if _, ok := chart["labels"]; !ok {
			t.Fatalf("chart %q missing labels", key)
		}
		if _, ok := chart["datasets"]; !ok {
			t.Fatalf("chart %q missing datasets", key)
		}
	}

	weekday := charts["by_weekday"].(map[string]any)
	labels := weekday["labels"].([]any)
	if len(labels) != 7 || labels[0] != "Sun" {
		t.Fatalf("weekday axis: %v", labels)
	}
	hour := charts["by_hour"].(map[string]any)
	if got := len(hour["labels"].([]any)); got != 24 {
		t.Fatalf("hour axis has %d slots", got)
	}
}

func TestChartsSingleDimension(t *testing.T) {
	srv := testServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/analytics/charts?dimension=category",
		map[string]string{"X-User-ID": "alice"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["dimension"] != "category" {
		t.Fatalf("dimension: %v", body["dimension"])
	}
	chart := body["chart"].(map[string]any)
	labels := chart["labels"].([]any)
	if len(labels) != 2 || labels[0] != "transport" {
		t.Fatalf("category labels sorted by total desc: %v", labels)
	}
}

func TestChartsRejectsUnknownDimension(t *testing.T) {
	srv := testServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/analytics/charts?dimension=year",
		map[string]string{"X-User-ID": "alice"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestReportTextEndpoint(t *testing.T) {
	srv := testServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/analytics/report?format=text",
		map[string]string{"X-User-ID": "alice"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content type: %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "MONTHLY FINANCIAL REPORT") {
		t.Fatalf("unexpected body:\n%s", rec.Body.String())
	}
}

func TestReportJSONEndpoint(t *testing.T) {
	srv := testServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/analytics/report?format=json",
		map[string]string{"X-User-ID": "alice"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["period"] != "monthly" {
		t.Fatalf("period: %v", body["period"])
	}
	if _, ok := body["summary"]; !ok {
		t.Fatal("missing summary")
	}
	if body["transaction_count"] != 3.00 {
		t.Fatalf("transaction_count: %v", body["transaction_count"])
	}
}

func TestReportUnknownFormat(t *testing.T) {
	srv := testServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/analytics/report?format=xml",
		map[string]string{"X-User-ID": "alice"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestReportPDFNotImplemented(t *testing.T) {
	srv := testServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/analytics/report?format=pdf",
		map[string]string{"X-User-ID": "alice"})
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", rec.Code)
	}
}

func TestDashboardEndpoint(t *testing.T) {
	srv := testServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/analytics/dashboard?page=1&page_size=2",
		map[string]string{"X-User-ID": "alice"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)

	if _, ok := body["summary"]; !ok {
		t.Fatal("missing summary")
	}
	if _, ok := body["highlights"]; !ok {
		t.Fatal("missing highlights")
	}
	if _, ok := body["charts"]; !ok {
		t.Fatal("missing charts")
	}

	tx := body["transactions"].(map[string]any)
	items := tx["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if tx["total"] != 3.00 || tx["total_pages"] != 2.00 {
		t.Fatalf("pagination: total=%v total_pages=%v", tx["total"], tx["total_pages"])
	}
	if tx["has_next"] != true || tx["has_prev"] != false {
		t.Fatalf("pagination flags: %v", tx)
	}

	first := items[0].(map[string]any)
	for _, key := range []string{"id", "kind", "category", "amount", "occurred_at", "formatted_date", "formatted_hour"} {
		if _, ok := first[key]; !ok {
			t.Fatalf("transaction missing %q: %v", key, first)
		}
	}
}

func TestDashboardSecondPage(t *testing.T) {
	srv := testServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/analytics/dashboard?page=2&page_size=2",
		map[string]string{"X-User-ID": "alice"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := decodeBody(t, rec)
	tx := body["transactions"].(map[string]any)
	items := tx["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected 1 item on the last page, got %d", len(items))
	}
	if tx["has_next"] != false || tx["has_prev"] != true {
		t.Fatalf("pagination flags: %v", tx)
	}
}

func TestEndpointsRejectPost(t *testing.T) {
	srv := testServer(t)
	for _, target := range []string{
		"/api/analytics/totals",
		"/api/analytics/highlights",
		"/api/analytics/charts",
		"/api/analytics/report",
		"/api/analytics/dashboard",
	} {
		rec := doRequest(t, srv, http.MethodPost, target, map[string]string{"X-User-ID": "alice"})
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s expected 405, got %d", target, rec.Code)
		}
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := testServer(t)
	for _, target := range []string{"/healthz", "/readyz"} {
		rec := doRequest(t, srv, http.MethodGet, target, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s expected 200, got %d", target, rec.Code)
		}
	}
}
