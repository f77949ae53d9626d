package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func post(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/apply/step", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestReadSubmissionForm(t *testing.T) {
	form := url.Values{
		"business_description": {"  <b>Family</b> bakery\x00  "},
		"transaction_data":     {"1000 income\n500 expense"},
		"step":                 {"abc"},
	}
	sub, err := readSubmission(post(form.Encode()))
	if err != nil {
		t.Fatalf("readSubmission: %v", err)
	}

	if got := sub.Raw("business_description"); got != "  <b>Family</b> bakery\x00  " {
		t.Errorf("business_description = %q, want the posted value", got)
	}
	if got := sub.Raw("transaction_data"); got != "1000 income\n500 expense" {
		t.Errorf("newlines not preserved: %q", got)
	}
	if got := sub.Int("step", 1); got != 1 {
		t.Errorf("Int on malformed value = %d, want default", got)
	}
	if got := sub.Raw("missing"); got != "" {
		t.Errorf("missing field = %q", got)
	}
}

func TestReadSubmissionKeepsMarkupAndEntities(t *testing.T) {
	text := "1000 income <wholesale\n500 expense\n300 cost> rent &lt;net&gt;\n800 income"
	sub, err := readSubmission(post(url.Values{"transactions": {text}}.Encode()))
	if err != nil {
		t.Fatalf("readSubmission: %v", err)
	}
	if got := sub.Raw("transactions"); got != text {
		t.Fatalf("transactions = %q, want %q", got, text)
	}
}

func TestReadSubmissionJSON(t *testing.T) {
	sub, err := readSubmission(post(` {"business_description": "bakery", "step": 2, "draft": true, "tags": ["a"], "note": null}`))
	if err != nil {
		t.Fatalf("readSubmission: %v", err)
	}

	if got := sub.Raw("business_description"); got != "bakery" {
		t.Errorf("business_description = %q", got)
	}
	if got := sub.Int("step", 1); got != 2 {
		t.Errorf("step = %d, want 2", got)
	}
	if got := sub.Raw("draft"); got != "true" {
		t.Errorf("draft = %q", got)
	}
	if sub.Raw("tags") != "" || sub.Raw("note") != "" {
		t.Error("non-scalar values should be dropped")
	}
}

func TestReadSubmissionErrors(t *testing.T) {
	if _, err := readSubmission(post(`{"broken":`)); !errors.Is(err, errBadBody) {
		t.Errorf("malformed JSON: err = %v", err)
	}
	if _, err := readSubmission(post("a=%zz")); !errors.Is(err, errBadBody) {
		t.Errorf("malformed form: err = %v", err)
	}
	big := "transaction_data=" + strings.Repeat("a", maxBodyBytes)
	if _, err := readSubmission(post(big)); !errors.Is(err, errBodyTooLarge) {
		t.Errorf("oversized body: err = %v", err)
	}
}

func TestDecodeSubmissionWritesBanner(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed", `{"broken":`, http.StatusBadRequest},
		{"too large", "x=" + strings.Repeat("a", maxBodyBytes), http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			if _, ok := decodeSubmission(w, post(tt.body)); ok {
				t.Fatal("expected failure")
			}
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if !strings.Contains(w.Body.String(), "error-banner") {
				t.Errorf("body = %s", w.Body.String())
			}
		})
	}

	w := httptest.NewRecorder()
	sub, ok := decodeSubmission(w, post("a=b"))
	if !ok || sub.Raw("a") != "b" {
		t.Fatalf("unexpected failure: %d %s", w.Code, w.Body.String())
	}
}

func TestCountryParam(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"BRA", "BRA"},
		{" ken ", "KEN"},
		{"", ""},
		{"BR", ""},
		{"INDIA", ""},
		{"I1D", ""},
	}
	for _, tt := range tests {
		if got := countryParam(url.Values{"country": {tt.in}}); got != tt.want {
			t.Errorf("countryParam(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
