package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"econorise/internal/core"
)

type recordedRequest struct {
	method      string
	path        string
	query       string
	contentType string
	accept      string
	body        string
}

// newBackend starts a fake backend that records every request and answers with handler.
func newBackend(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var seen []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, recordedRequest{
			method:      r.Method,
			path:        r.URL.Path,
			query:       r.URL.RawQuery,
			contentType: r.Header.Get("Content-Type"),
			accept:      r.Header.Get("Accept"),
			body:        string(body),
		})
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(srv.URL+"/api/", WithTimeout(2*time.Second))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewRejectsRelativeURL(t *testing.T) {
	if _, err := New("localhost:5000"); err == nil {
		t.Fatal("expected error for URL without scheme")
	}
	if _, err := New("/api"); err == nil {
		t.Fatal("expected error for relative URL")
	}
}

func TestAssessEligibility(t *testing.T) {
	srv, seen := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"loan_eligibility_score":72,"key_risk_factors":["Seasonal revenue","Thin credit file"],"recommendation":"Approve a small starter loan."}`)
	})
	c := newTestClient(t, srv)

	resp, err := c.AssessEligibility(context.Background(), core.AssessmentRequest{
		BusinessDescription: "Small bakery",
		TransactionData:     "1000 income\n500 expense",
	})
	if err != nil {
		t.Fatalf("AssessEligibility: %v", err)
	}
	if resp.LoanEligibilityScore != 72 || len(resp.KeyRiskFactors) != 2 || resp.KeyRiskFactors[0] != "Seasonal revenue" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	req := (*seen)[0]
	if req.method != http.MethodPost || req.path != "/api/assess_eligibility" {
		t.Fatalf("request = %s %s", req.method, req.path)
	}
	if req.contentType != "application/json" || req.accept != "application/json" {
		t.Fatalf("headers: content-type=%q accept=%q", req.contentType, req.accept)
	}

	var sent map[string]string
	if err := json.Unmarshal([]byte(req.body), &sent); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if sent["transaction_data"] != "1000 income\n500 expense" {
		t.Fatalf("transaction_data not sent verbatim: %q", sent["transaction_data"])
	}
	if sent["business_description"] != "Small bakery" {
		t.Fatalf("business_description = %q", sent["business_description"])
	}
}

func TestGetFinancialHealthSendsStructuredTransactions(t *testing.T) {
	srv, seen := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"average_monthly_income":1000,"average_monthly_expenses":500,"cash_flow_trend":"Positive","debt_to_income_ratio":0.35,"summary":"Healthy"}`)
	})
	c := newTestClient(t, srv)

	txs := core.ParseTransactions("1000 income\n500 expense")
	res, err := c.GetFinancialHealth(context.Background(), txs)
	if err != nil {
		t.Fatalf("GetFinancialHealth: %v", err)
	}
	if res.CashFlowTrend != "Positive" || res.DebtToIncomeRatio != 0.35 {
		t.Fatalf("unexpected result: %+v", res)
	}

	want := `{"transactions":[{"amount":1000,"type":"income"},{"amount":500,"type":"expense"}]}`
	if got := (*seen)[0].body; got != want {
		t.Fatalf("body = %s, want %s", got, want)
	}
}

func TestGetRequestsHaveNoContentType(t *testing.T) {
	srv, seen := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	})
	c := newTestClient(t, srv)

	items, err := c.GetMarketData(context.Background())
	if err != nil {
		t.Fatalf("GetMarketData: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("items = %v", items)
	}
	req := (*seen)[0]
	if req.method != http.MethodGet || req.contentType != "" || req.accept != "application/json" {
		t.Fatalf("request = %+v", req)
	}
}

func TestGetEconomicIndicatorsKeepsOrder(t *testing.T) {
	srv, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"unemployment_rate":{"2024-02-01":3.9,"2024-01-01":3.7},"consumer_price_index":{"2024-01-01":310.3}}`)
	})
	c := newTestClient(t, srv)

	ind, err := c.GetEconomicIndicators(context.Background())
	if err != nil {
		t.Fatalf("GetEconomicIndicators: %v", err)
	}
	if len(ind.UnemploymentRate) != 2 || ind.UnemploymentRate[0].Date != "2024-02-01" {
		t.Fatalf("unemployment order lost: %+v", ind.UnemploymentRate)
	}
	if ind.ConsumerPriceIndex.Latest() != 310.3 {
		t.Fatalf("cpi = %+v", ind.ConsumerPriceIndex)
	}
}

func TestGetDevelopmentIndicatorsCountry(t *testing.T) {
	srv, seen := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"country":"`+r.URL.Query().Get("country")+`","indicator":"SP.POP.TOTL","data":[{"year":"2021","value":1.2},{"year":"2020","value":1.1}]}`)
	})
	c := newTestClient(t, srv)

	tests := []struct {
		name      string
		country   string
		wantQuery string
	}{
		{"default", "", "country=IND"},
		{"explicit", "KEN", "country=KEN"},
		{"escaped", "A&B", "country=A%26B"},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := c.GetDevelopmentIndicators(context.Background(), tt.country)
			if err != nil {
				t.Fatalf("GetDevelopmentIndicators: %v", err)
			}
			if got := (*seen)[i].query; got != tt.wantQuery {
				t.Fatalf("query = %q, want %q", got, tt.wantQuery)
			}
			if len(res.Data) != 2 || res.Data[0].Year != "2021" {
				t.Fatalf("data order changed: %+v", res.Data)
			}
		})
	}
}

func TestDefaultCountryOption(t *testing.T) {
	srv, seen := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"country":"BRA","indicator":"x","data":[]}`)
	})
	c, err := New(srv.URL, WithDefaultCountry("BRA"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.GetDevelopmentIndicators(context.Background(), "  "); err != nil {
		t.Fatalf("GetDevelopmentIndicators: %v", err)
	}
	if got := (*seen)[0].query; got != "country=BRA" {
		t.Fatalf("query = %q", got)
	}
}

func TestHTTPErrorKind(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusBadRequest} {
		srv, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"nope"}`, status)
		})
		c := newTestClient(t, srv)

		_, err := c.GetMarketData(context.Background())
		apiErr, ok := AsError(err)
		if !ok {
			t.Fatalf("status %d: error %T is not *Error", status, err)
		}
		if apiErr.Kind != KindHTTP || !apiErr.HasStatus() || apiErr.Status != status {
			t.Fatalf("status %d: got %+v", status, apiErr)
		}
		if apiErr.Endpoint != PathMarketData {
			t.Fatalf("endpoint = %q", apiErr.Endpoint)
		}
		if StatusOf(err) != status {
			t.Fatalf("StatusOf = %d", StatusOf(err))
		}
	}
}

func TestHTTPErrorMessage(t *testing.T) {
	err := &Error{Kind: KindHTTP, Status: 404, Endpoint: PathMarketData}
	if err.Error() != "HTTP error! status: 404" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestConnectionErrorKind(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(base + "/api")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = c.GetEconomicIndicators(context.Background())
	apiErr, ok := AsError(err)
	if !ok {
		t.Fatalf("error %T is not *Error", err)
	}
	if apiErr.Kind != KindConnection || apiErr.HasStatus() || apiErr.Status != 0 {
		t.Fatalf("got %+v", apiErr)
	}
	if apiErr.Unwrap() == nil {
		t.Fatal("connection error should keep its cause")
	}
	host := strings.TrimPrefix(base, "http://")
	want := "Failed to connect to EconoRise API. Please ensure the backend server is running on " + host + "."
	if apiErr.Error() != want {
		t.Fatalf("message = %q, want %q", apiErr.Error(), want)
	}
	if !IsConnection(err) {
		t.Fatal("IsConnection = false")
	}
}

func TestMalformedBodyIsConnectionError(t *testing.T) {
	srv, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"loan_eligibility_score": "high"`)
	})
	c := newTestClient(t, srv)

	_, err := c.AssessEligibility(context.Background(), core.AssessmentRequest{BusinessDescription: "x", TransactionData: "y"})
	if !IsConnection(err) {
		t.Fatalf("expected connection error, got %v", err)
	}
}

func TestCancelledContextIsConnectionError(t *testing.T) {
	srv, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	})
	c := newTestClient(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetMarketData(ctx)
	if !IsConnection(err) {
		t.Fatalf("expected connection error, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("cause should be context.Canceled, got %v", errors.Unwrap(err))
	}
}

func TestCheckHealth(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusInternalServerError} {
		srv, seen := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})
		c := newTestClient(t, srv)
		if !c.CheckHealth(context.Background()) {
			t.Fatalf("status %d: backend should count as reachable", status)
		}
		if (*seen)[0].path != "/api/get_economic_indicators" {
			t.Fatalf("health check hit %q", (*seen)[0].path)
		}
	}

	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()
	c, err := New(base)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.CheckHealth(context.Background()) {
		t.Fatal("closed server should be offline")
	}
}
