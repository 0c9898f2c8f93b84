package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agendasim/agendasim/services/booking-service/internal/storage"
)

func newTestHandler() *BookingHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewBookingHandler(nil, nil, logger, nil, nil, nil)
	h.now = func() time.Time { return time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC) }
	return h
}

func TestTimelineDefaults(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/calendar/timeline", nil)
	rec := httptest.NewRecorder()

	h.Timeline(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var labels []string
	if err := json.Unmarshal(rec.Body.Bytes(), &labels); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(labels) != 33 || labels[0] != "06:00" || labels[32] != "22:00" {
		t.Fatalf("labels = %v", labels)
	}
}

func TestTimelineCustomRange(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/calendar/timeline?step_minutes=60&start_hour=8&end_hour=12", nil)
	rec := httptest.NewRecorder()

	h.Timeline(rec, req)
	var labels []string
	if err := json.Unmarshal(rec.Body.Bytes(), &labels); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []string{"08:00", "09:00", "10:00", "11:00", "12:00"}
	if len(labels) != len(want) {
		t.Fatalf("labels = %v, want %v", labels, want)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("labels[%d] = %s, want %s", i, labels[i], want[i])
		}
	}
}

func TestTimelineRejectsPost(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/calendar/timeline", nil)
	rec := httptest.NewRecorder()

	h.Timeline(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestIdempotentReplayKeepsErrorResponse(t *testing.T) {
	h := newTestHandler()
	stored, _ := json.Marshal(map[string]string{"error": "requested time is not available"})
	rec := httptest.NewRecorder()

	h.writeIdempotentReplay(rec, storage.IdempotencyRecord{
		StatusCode:      http.StatusUnprocessableEntity,
		ResponsePayload: stored,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if rec.Body.String() != string(stored) {
		t.Fatalf("body = %s, want %s", rec.Body.String(), stored)
	}
}

func TestIdempotentReplayFallsBackToCreatedResponse(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()

	h.writeIdempotentReplay(rec, storage.IdempotencyRecord{
		AppointmentID: "appt-1",
		StatusCode:    http.StatusCreated,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	var resp createBookingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AppointmentID != "appt-1" || resp.Status != "scheduled" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestSlotsRejectsBadView(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/slots?company_id=c&professional_id=p&service_id=s&date=2025-06-02&view=busy", nil)
	rec := httptest.NewRecorder()

	h.Slots(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSlotsRequiresParams(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/slots?company_id=c", nil)
	rec := httptest.NewRecorder()

	h.Slots(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestParseClockMinutes(t *testing.T) {
	got, err := parseClockMinutes("09:30", 0)
	if err != nil || got != 9*60+30 {
		t.Fatalf("got %d, %v", got, err)
	}
	got, err = parseClockMinutes("", 17*60)
	if err != nil || got != 17*60 {
		t.Fatalf("fallback got %d, %v", got, err)
	}
	if _, err := parseClockMinutes("25:99", 0); err == nil {
		t.Fatalf("expected error for bad clock value")
	}
}
