package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCreateRuleValidation(t *testing.T) {
	h := New(nil)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"missing professional", `{"kind":"grid"}`, http.StatusBadRequest},
		{"unknown kind", `{"professional_id":"p1","kind":"vacation"}`, http.StatusBadRequest},
		{"grid without weekdays", `{"professional_id":"p1","kind":"grid","start_minute":540,"end_minute":1020}`, http.StatusBadRequest},
		{"grid weekday out of range", `{"professional_id":"p1","kind":"grid","weekdays":[7],"start_minute":540,"end_minute":1020}`, http.StatusBadRequest},
		{"grid inverted minutes", `{"professional_id":"p1","kind":"grid","weekdays":[1],"start_minute":1020,"end_minute":540}`, http.StatusBadRequest},
		{"blocked without range", `{"professional_id":"p1","kind":"blocked"}`, http.StatusBadRequest},
		{"blocked inverted range", `{"professional_id":"p1","kind":"blocked","start_at":"2025-06-02T10:00:00Z","end_at":"2025-06-02T09:00:00Z"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/agenda/rules", strings.NewReader(tc.body))
		req.Header.Set("X-Company-Id", "c1")
		rec := httptest.NewRecorder()
		h.CreateRule(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, rec.Code)
		}
	}
}

func TestCreateRuleRequiresCompanyHeader(t *testing.T) {
	h := New(nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/agenda/rules", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.CreateRule(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateRuleRejectsGet(t *testing.T) {
	h := New(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/agenda/rules", nil)
	rec := httptest.NewRecorder()
	h.CreateRule(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
