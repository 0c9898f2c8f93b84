package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/agendasim/agendasim/services/booking-service/internal/agenda"
	"github.com/agendasim/agendasim/services/booking-service/internal/calendar"
	"github.com/agendasim/agendasim/services/booking-service/internal/model"
	"github.com/agendasim/agendasim/services/booking-service/internal/outbox"
	"github.com/agendasim/agendasim/services/booking-service/internal/policy"
	"github.com/agendasim/agendasim/services/booking-service/internal/scheduling"
	"github.com/agendasim/agendasim/services/booking-service/internal/storage"
	"github.com/jackc/pgx/v5"
)

type BookingHandler struct {
	repo       *storage.BookingRepository
	outboxRepo *outbox.Repository
	logger     *slog.Logger
	policy     policy.Provider
	scheduling scheduling.Provider
	defaults   []time.Duration
	now        func() time.Time
}

func NewBookingHandler(repo *storage.BookingRepository, outboxRepo *outbox.Repository, logger *slog.Logger, policyProvider policy.Provider, schedulingProvider scheduling.Provider, defaults []time.Duration) *BookingHandler {
	return &BookingHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		logger:     logger,
		policy:     policyProvider,
		scheduling: schedulingProvider,
		defaults:   defaults,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type createBookingRequest struct {
	CompanyID       string `json:"company_id"`
	ProfessionalID  string `json:"professional_id"`
	ServiceID       string `json:"service_id"`
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	CustomerPhone   string `json:"customer_phone"`
	StartAt         string `json:"start_at"`
	Note            string `json:"note"`
	DurationMinutes int    `json:"duration_minutes"`
}

type createBookingResponse struct {
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
}

type appointmentActionRequest struct {
	CompanyID     string `json:"company_id"`
	AppointmentID string `json:"appointment_id"`
	Reason        string `json:"reason"`
}

type appointmentActionResponse struct {
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
	UpdatedAt     string `json:"updated_at"`
}

type listAppointmentItem struct {
	AppointmentID   string `json:"appointment_id"`
	ProfessionalID  string `json:"professional_id"`
	ServiceID       string `json:"service_id"`
	StartAt         string `json:"start_at"`
	EndAt           string `json:"end_at"`
	DurationMinutes int    `json:"duration_minutes"`
	Status          string `json:"status"`
	Note            string `json:"note,omitempty"`
	CancelledAt     string `json:"cancelled_at,omitempty"`
	CreatedAt       string `json:"created_at"`
}

type slotItem struct {
	Time      string `json:"time"`
	StartAt   string `json:"start_at"`
	EndAt     string `json:"end_at"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

type calendarCellItem struct {
	Date         string `json:"date"`
	InPeriod     bool   `json:"in_period"`
	Today        bool   `json:"today"`
	Weekend      bool   `json:"weekend"`
	Appointments int    `json:"appointments"`
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	req.CompanyID = strings.TrimSpace(req.CompanyID)
	req.ProfessionalID = strings.TrimSpace(req.ProfessionalID)
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	req.CustomerName = strings.TrimSpace(req.CustomerName)

	if req.CompanyID == "" || req.ProfessionalID == "" || req.ServiceID == "" || req.CustomerName == "" {
		http.Error(w, "missing required fields", http.StatusBadRequest)
		return
	}

	startAt, err := time.Parse(time.RFC3339, req.StartAt)
	if err != nil {
		http.Error(w, "invalid start_at", http.StatusBadRequest)
		return
	}

	cfg, cfgErr := h.resolveAgendaConfig(r.Context(), req.CompanyID, req.ProfessionalID, req.ServiceID, r)
	if cfgErr != nil {
		http.Error(w, "agenda service unavailable", http.StatusServiceUnavailable)
		return
	}

	duration := cfg.DurationMinutes
	if duration <= 0 {
		duration = req.DurationMinutes
	}
	if duration <= 0 {
		http.Error(w, "service duration unknown", http.StatusUnprocessableEntity)
		return
	}

	loc := locationOrUTC(cfg.Timezone, h.logger)
	appt := &model.Appointment{
		CompanyID:       req.CompanyID,
		ProfessionalID:  req.ProfessionalID,
		ServiceID:       req.ServiceID,
		CustomerName:    req.CustomerName,
		CustomerEmail:   strings.TrimSpace(req.CustomerEmail),
		CustomerPhone:   strings.TrimSpace(req.CustomerPhone),
		StartAt:         startAt,
		DurationMinutes: duration,
		Status:          model.StatusScheduled,
		Note:            strings.TrimSpace(req.Note),
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idempotencyKey != "" {
		rec, exists, err := h.repo.LockIdempotencyKey(ctx, tx, appt.CompanyID, idempotencyKey)
		if err != nil {
			http.Error(w, "failed to lock idempotency key", http.StatusInternalServerError)
			return
		}
		if exists && rec.StatusCode > 0 {
			h.writeIdempotentReplay(w, rec)
			return
		}
	}

	// Bookings must land on a slot the professional's rules leave open, clear
	// of every non-cancelled appointment.
	ok, err := h.fitsAgenda(ctx, cfg, appt, loc)
	if err != nil {
		if errors.Is(err, agenda.ErrInvalidRule) || errors.Is(err, agenda.ErrInvalidDuration) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, "availability check failed", http.StatusInternalServerError)
		return
	}
	if !ok {
		if idempotencyKey != "" {
			if h.finalizeIdempotencyError(ctx, tx, appt.CompanyID, idempotencyKey, http.StatusUnprocessableEntity, "requested time is not available") {
				_ = tx.Commit(ctx)
				return
			}
		}
		http.Error(w, "requested time is not available", http.StatusUnprocessableEntity)
		return
	}

	// Billing cap: limit monthly active appointments per company. Companies
	// without an entitlements row get free tier limits.
	if err := h.enforceMonthlyAppointmentLimit(ctx, tx, appt.CompanyID, appt.StartAt); err != nil {
		if errors.Is(err, errPaymentRequired) {
			if idempotencyKey != "" {
				if h.finalizeIdempotencyError(ctx, tx, appt.CompanyID, idempotencyKey, http.StatusPaymentRequired, err.Error()) {
					_ = tx.Commit(ctx)
					return
				}
			}
			http.Error(w, err.Error(), http.StatusPaymentRequired)
			return
		}
		http.Error(w, "entitlements check failed", http.StatusInternalServerError)
		return
	}

	id, err := h.repo.Create(ctx, tx, appt)
	if err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "time slot already booked", http.StatusConflict)
			return
		}
		http.Error(w, "failed to create appointment", http.StatusInternalServerError)
		return
	}

	evtPayload, err := json.Marshal(map[string]any{
		"appointment_id":   id,
		"company_id":       appt.CompanyID,
		"professional_id":  appt.ProfessionalID,
		"service_id":       appt.ServiceID,
		"customer_email":   appt.CustomerEmail,
		"customer_phone":   appt.CustomerPhone,
		"start_at":         appt.StartAt.UTC().Format(time.RFC3339),
		"duration_minutes": appt.DurationMinutes,
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}

	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   id,
		EventType:     "booking.appointment.booked.v1",
		Payload:       evtPayload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	now := h.now()
	offsets := h.defaults
	if h.policy != nil {
		if policyOffsets, err := h.policy.ReminderOffsets(r.Context(), appt.CompanyID); err == nil && len(policyOffsets) > 0 {
			offsets = policyOffsets
		} else if err != nil {
			h.logger.Warn("policy offsets fetch failed; using defaults", "err", err)
		}
	}
	for _, offset := range offsets {
		remindAt := appt.StartAt.Add(-offset)
		if remindAt.Before(now) {
			continue
		}
		h.enqueueReminder(ctx, tx, id, appt, remindAt, "email", appt.CustomerEmail)
		h.enqueueReminder(ctx, tx, id, appt, remindAt, "sms", appt.CustomerPhone)
	}

	respBody, err := json.Marshal(createBookingResponse{AppointmentID: id, Status: string(model.StatusScheduled)})
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	if idempotencyKey != "" {
		if err := h.repo.FinalizeIdempotency(ctx, tx, appt.CompanyID, idempotencyKey, id, http.StatusCreated, respBody); err != nil {
			http.Error(w, "failed to finalize idempotency key", http.StatusInternalServerError)
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(respBody)
}

// writeIdempotentReplay answers a repeated Idempotency-Key with the stored
// outcome, error responses included, so retries never double-book and never
// flip a rejection into a success.
func (h *BookingHandler) writeIdempotentReplay(w http.ResponseWriter, rec storage.IdempotencyRecord) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rec.StatusCode)
	if len(rec.ResponsePayload) > 0 {
		_, _ = w.Write(rec.ResponsePayload)
		return
	}
	_ = json.NewEncoder(w).Encode(createBookingResponse{AppointmentID: rec.AppointmentID, Status: string(model.StatusScheduled)})
}

func (h *BookingHandler) finalizeIdempotencyError(ctx context.Context, tx pgx.Tx, companyID, key string, statusCode int, msg string) bool {
	body, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		return false
	}
	if err := h.repo.FinalizeIdempotency(ctx, tx, companyID, key, "", statusCode, body); err != nil {
		h.logger.Error("failed to finalize idempotency (error)", "err", err)
		return false
	}
	return true
}

var errPaymentRequired = errors.New("monthly appointment limit reached (upgrade required)")

func (h *BookingHandler) enforceMonthlyAppointmentLimit(ctx context.Context, tx pgx.Tx, companyID string, start time.Time) error {
	const defaultFreeMax = 200

	ent, ok, err := h.repo.GetCompanyEntitlements(ctx, tx, companyID)
	if err != nil {
		return err
	}
	max := defaultFreeMax
	if ok && ent.MaxMonthlyAppointments > 0 {
		max = ent.MaxMonthlyAppointments
	}
	if max <= 0 {
		return nil
	}

	startUTC := start.UTC()
	monthStart := time.Date(startUTC.Year(), startUTC.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	cnt, err := h.repo.CountActiveInRange(ctx, tx, companyID, monthStart, monthEnd)
	if err != nil {
		return err
	}
	if cnt >= max {
		return errPaymentRequired
	}
	return nil
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req appointmentActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.CompanyID = strings.TrimSpace(req.CompanyID)
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	req.Reason = strings.TrimSpace(req.Reason)
	if req.CompanyID == "" || req.AppointmentID == "" {
		http.Error(w, "company_id and appointment_id required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.repo.GetAppointmentForUpdate(ctx, tx, req.CompanyID, req.AppointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}

	if appt.Status == model.StatusCancelled && appt.CancelledAt != nil {
		h.writeActionResponse(w, appt.ID, model.StatusCancelled, appt.CancelledAt.UTC())
		return
	}
	if !appt.Status.CanTransition(model.StatusCancelled) {
		http.Error(w, "appointment cannot be cancelled", http.StatusConflict)
		return
	}

	cancelledAt, err := h.repo.CancelAppointment(ctx, tx, req.CompanyID, appt.ID, req.Reason)
	if err != nil {
		http.Error(w, "failed to cancel appointment", http.StatusInternalServerError)
		return
	}

	cancelPayload, err := json.Marshal(map[string]any{
		"appointment_id":   appt.ID,
		"company_id":       appt.CompanyID,
		"professional_id":  appt.ProfessionalID,
		"service_id":       appt.ServiceID,
		"start_at":         appt.StartAt.UTC().Format(time.RFC3339),
		"duration_minutes": appt.DurationMinutes,
		"cancelled_at":     cancelledAt.UTC().Format(time.RFC3339),
		"reason":           req.Reason,
	})
	if err != nil {
		http.Error(w, "failed to build cancellation event", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     "booking.appointment.cancelled.v1",
		Payload:       cancelPayload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	h.writeActionResponse(w, appt.ID, model.StatusCancelled, cancelledAt.UTC())
}

// Confirm moves a scheduled appointment to confirmed and emits the
// confirmation event.
func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, model.StatusConfirmed, "booking.appointment.confirmed.v1")
}

// Start marks a confirmed appointment as in progress.
func (h *BookingHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, model.StatusInProgress, "")
}

// Complete closes out an in-progress appointment.
func (h *BookingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, model.StatusCompleted, "")
}

func (h *BookingHandler) transition(w http.ResponseWriter, r *http.Request, next model.Status, eventType string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req appointmentActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.CompanyID = strings.TrimSpace(req.CompanyID)
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.CompanyID == "" || req.AppointmentID == "" {
		http.Error(w, "company_id and appointment_id required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.repo.GetAppointmentForUpdate(ctx, tx, req.CompanyID, req.AppointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}

	if appt.Status == next {
		h.writeActionResponse(w, appt.ID, next, appt.UpdatedAt.UTC())
		return
	}
	if !appt.Status.CanTransition(next) {
		http.Error(w, "invalid status transition", http.StatusConflict)
		return
	}

	updatedAt, err := h.repo.SetStatus(ctx, tx, req.CompanyID, appt.ID, next)
	if err != nil {
		http.Error(w, "failed to update appointment", http.StatusInternalServerError)
		return
	}

	if eventType != "" {
		payload, err := json.Marshal(map[string]any{
			"appointment_id":  appt.ID,
			"company_id":      appt.CompanyID,
			"professional_id": appt.ProfessionalID,
			"service_id":      appt.ServiceID,
			"start_at":        appt.StartAt.UTC().Format(time.RFC3339),
			"status":          string(next),
		})
		if err != nil {
			http.Error(w, "failed to build event payload", http.StatusInternalServerError)
			return
		}
		if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
			AggregateType: "appointment",
			AggregateID:   appt.ID,
			EventType:     eventType,
			Payload:       payload,
		}); err != nil {
			http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	h.writeActionResponse(w, appt.ID, next, updatedAt.UTC())
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	companyID := strings.TrimSpace(r.Header.Get("X-Company-Id"))
	if companyID == "" {
		companyID = strings.TrimSpace(r.URL.Query().Get("company_id"))
	}
	if companyID == "" {
		http.Error(w, "company_id required", http.StatusBadRequest)
		return
	}

	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	appts, err := h.repo.ListByCompany(r.Context(), companyID, limit)
	if err != nil {
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}

	items := make([]listAppointmentItem, 0, len(appts))
	for _, appt := range appts {
		item := listAppointmentItem{
			AppointmentID:   appt.ID,
			ProfessionalID:  appt.ProfessionalID,
			ServiceID:       appt.ServiceID,
			StartAt:         appt.StartAt.UTC().Format(time.RFC3339),
			EndAt:           appt.EndAt().UTC().Format(time.RFC3339),
			DurationMinutes: appt.DurationMinutes,
			Status:          string(appt.Status),
			Note:            appt.Note,
			CreatedAt:       appt.CreatedAt.UTC().Format(time.RFC3339),
		}
		if appt.CancelledAt != nil {
			item.CancelledAt = appt.CancelledAt.UTC().Format(time.RFC3339)
		}
		items = append(items, item)
	}

	writeJSON(w, http.StatusOK, items)
}

// Slots serves the day grid for one professional. view=available (the
// default) returns only bookable entries; view=all keeps excluded slots
// with their reasons.
func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	companyID := strings.TrimSpace(r.URL.Query().Get("company_id"))
	professionalID := strings.TrimSpace(r.URL.Query().Get("professional_id"))
	serviceID := strings.TrimSpace(r.URL.Query().Get("service_id"))
	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	view := strings.TrimSpace(r.URL.Query().Get("view"))
	if view == "" {
		view = "available"
	}
	if view != "available" && view != "all" {
		http.Error(w, "view must be all or available", http.StatusBadRequest)
		return
	}
	if companyID == "" || professionalID == "" || serviceID == "" || dateStr == "" {
		http.Error(w, "company_id, professional_id, service_id, and date are required", http.StatusBadRequest)
		return
	}

	cfg, err := h.resolveAgendaConfig(r.Context(), companyID, professionalID, serviceID, r)
	if err != nil {
		http.Error(w, "agenda service unavailable", http.StatusServiceUnavailable)
		return
	}
	if !cfg.Active || cfg.DurationMinutes <= 0 {
		writeJSON(w, http.StatusOK, []slotItem{})
		return
	}

	loc := locationOrUTC(cfg.Timezone, h.logger)
	day, err := agenda.ParseDay(dateStr, loc)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	bookings, err := h.dayBookings(r.Context(), companyID, professionalID, day)
	if err != nil {
		http.Error(w, "failed to load booked slots", http.StatusInternalServerError)
		return
	}

	duration := time.Duration(cfg.DurationMinutes) * time.Minute
	step := time.Duration(cfg.SlotStepMinutes) * time.Minute
	grid, err := agenda.DayGrid(day, cfg.Rules, bookings, duration, step)
	if err != nil {
		if errors.Is(err, agenda.ErrInvalidRule) || errors.Is(err, agenda.ErrInvalidDuration) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, "failed to build slot grid", http.StatusInternalServerError)
		return
	}

	now := h.now()
	items := make([]slotItem, 0, len(grid))
	for _, s := range grid {
		if view == "available" && (!s.Available || s.Start.Before(now)) {
			continue
		}
		items = append(items, slotItem{
			Time:      s.Time,
			StartAt:   s.Start.UTC().Format(time.RFC3339),
			EndAt:     s.Start.Add(duration).UTC().Format(time.RFC3339),
			Available: s.Available,
			Reason:    string(s.Reason),
		})
	}
	writeJSON(w, http.StatusOK, items)
}

// Calendar serves the month or week grid with per-day appointment counts.
// Exactly one of month=YYYY-MM or week=YYYY-MM-DD selects the period.
func (h *BookingHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	companyID := strings.TrimSpace(r.URL.Query().Get("company_id"))
	if companyID == "" {
		http.Error(w, "company_id required", http.StatusBadRequest)
		return
	}
	monthStr := strings.TrimSpace(r.URL.Query().Get("month"))
	weekStr := strings.TrimSpace(r.URL.Query().Get("week"))
	if (monthStr == "") == (weekStr == "") {
		http.Error(w, "exactly one of month or week is required", http.StatusBadRequest)
		return
	}

	tz := strings.TrimSpace(r.URL.Query().Get("tz"))
	loc := locationOrUTC(tz, h.logger)
	now := h.now().In(loc)

	var cells []calendar.Cell
	if monthStr != "" {
		ref, err := time.ParseInLocation("2006-01", monthStr, loc)
		if err != nil {
			http.Error(w, "invalid month", http.StatusBadRequest)
			return
		}
		cells = calendar.MonthGrid(ref.Year(), ref.Month(), now)
	} else {
		ref, err := agenda.ParseDay(weekStr, loc)
		if err != nil {
			http.Error(w, "invalid week", http.StatusBadRequest)
			return
		}
		cells = calendar.WeekGrid(ref, now)
	}

	spanStart := cells[0].Date
	spanEnd := cells[len(cells)-1].Date.AddDate(0, 0, 1)
	counts, err := h.repo.CountActiveByDay(r.Context(), companyID, spanStart, spanEnd, loc.String())
	if err != nil {
		http.Error(w, "failed to count appointments", http.StatusInternalServerError)
		return
	}

	items := make([]calendarCellItem, 0, len(cells))
	for _, c := range cells {
		key := c.Date.Format("2006-01-02")
		items = append(items, calendarCellItem{
			Date:         key,
			InPeriod:     c.InMonth,
			Today:        c.Today,
			Weekend:      c.Weekend,
			Appointments: counts[key],
		})
	}
	writeJSON(w, http.StatusOK, items)
}

// Timeline serves the daily time axis labels the booking page renders
// alongside the slot grid.
func (h *BookingHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	step := queryInt(r, "step_minutes", 30)
	startHour := queryInt(r, "start_hour", 6)
	endHour := queryInt(r, "end_hour", 22)

	var labels []string
	for label := range calendar.DayTimeline(step, startHour, endHour) {
		labels = append(labels, label)
	}
	writeJSON(w, http.StatusOK, labels)
}

// fitsAgenda checks the requested interval against the professional's rules
// and current bookings.
func (h *BookingHandler) fitsAgenda(ctx context.Context, cfg scheduling.AgendaConfig, appt *model.Appointment, loc *time.Location) (bool, error) {
	if !cfg.Active {
		return false, nil
	}
	start := appt.StartAt.In(loc)
	bookings, err := h.dayBookings(ctx, appt.CompanyID, appt.ProfessionalID, start)
	if err != nil {
		return false, err
	}
	return agenda.Fits(cfg.Rules, bookings, start, time.Duration(appt.DurationMinutes)*time.Minute)
}

// dayBookings loads the professional's non-cancelled appointments touching
// day's calendar date as generator snapshots.
func (h *BookingHandler) dayBookings(ctx context.Context, companyID, professionalID string, day time.Time) ([]agenda.Booking, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	appts, err := h.repo.ListActiveAppointments(ctx, companyID, professionalID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	bookings := make([]agenda.Booking, 0, len(appts))
	for _, a := range appts {
		bookings = append(bookings, agenda.Booking{
			StartAt:         a.StartAt,
			DurationMinutes: a.DurationMinutes,
			Cancelled:       !a.Status.Occupies(),
		})
	}
	return bookings, nil
}

// resolveAgendaConfig asks agenda-service over gRPC when the provider is
// wired. Without it, dev and test builds accept explicit query parameters
// and fall back to a weekday office schedule.
func (h *BookingHandler) resolveAgendaConfig(ctx context.Context, companyID, professionalID, serviceID string, r *http.Request) (scheduling.AgendaConfig, error) {
	if h.scheduling != nil {
		reqCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()

		cfg, err := h.scheduling.GetAgendaConfig(reqCtx, companyID, professionalID, serviceID)
		if err == nil {
			return cfg, nil
		}
		h.logger.Warn("agenda config fetch failed; falling back to query params", "err", err)
	}

	cfg := scheduling.AgendaConfig{
		Active:          true,
		Timezone:        strings.TrimSpace(r.URL.Query().Get("tz")),
		DurationMinutes: queryInt(r, "duration_minutes", 30),
		SlotStepMinutes: queryInt(r, "slot_step_minutes", 0),
	}

	workStart, err := parseClockMinutes(r.URL.Query().Get("workday_start"), 9*60)
	if err != nil {
		return scheduling.AgendaConfig{}, err
	}
	workEnd, err := parseClockMinutes(r.URL.Query().Get("workday_end"), 17*60)
	if err != nil {
		return scheduling.AgendaConfig{}, err
	}
	weekdays := agenda.Weekdays(0)
	for d := time.Monday; d <= time.Friday; d++ {
		weekdays = weekdays.With(d)
	}
	cfg.Rules = []agenda.Rule{{
		Kind:        agenda.RuleGrid,
		Weekdays:    weekdays,
		StartMinute: workStart,
		EndMinute:   workEnd,
	}}
	return cfg, nil
}

func parseClockMinutes(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	clock, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, err
	}
	return clock.Hour()*60 + clock.Minute(), nil
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback
	}
	if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
		return n
	}
	return fallback
}

func locationOrUTC(name string, logger *slog.Logger) *time.Location {
	if strings.TrimSpace(name) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Warn("unknown timezone, using UTC", "tz", name)
		return time.UTC
	}
	return loc
}

func (h *BookingHandler) enqueueReminder(ctx context.Context, tx pgx.Tx, appointmentID string, appt *model.Appointment, remindAt time.Time, channel string, recipient string) {
	if strings.TrimSpace(recipient) == "" {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"appointment_id": appointmentID,
		"company_id":     appt.CompanyID,
		"channel":        channel,
		"recipient":      recipient,
		"remind_at":      remindAt.UTC().Format(time.RFC3339),
		"template_data": map[string]any{
			"customer_name": appt.CustomerName,
			"service_id":    appt.ServiceID,
			"start_at":      appt.StartAt.UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		h.logger.Error("failed to build reminder payload", "err", err)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appointmentID,
		EventType:     "booking.reminder.requested.v1",
		Payload:       payload,
	}); err != nil {
		h.logger.Error("failed to enqueue reminder", "err", err)
	}
}

func (h *BookingHandler) writeActionResponse(w http.ResponseWriter, appointmentID string, status model.Status, at time.Time) {
	writeJSON(w, http.StatusOK, appointmentActionResponse{
		AppointmentID: appointmentID,
		Status:        string(status),
		UpdatedAt:     at.Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
