package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/agendasim/agendasim/services/agenda-service/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Handler struct {
	repo *storage.Repository
}

func New(repo *storage.Repository) *Handler {
	return &Handler{repo: repo}
}

func companyIDFromHeader(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Company-Id"))
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	companyID := companyIDFromHeader(r)
	if companyID == "" {
		http.Error(w, "missing X-Company-Id", http.StatusBadRequest)
		return
	}

	p, err := h.repo.GetOrCreateProfile(r.Context(), companyID)
	if err != nil {
		http.Error(w, "failed to load profile", http.StatusInternalServerError)
		return
	}

	_ = json.NewEncoder(w).Encode(profileResponse(p))
}

// ResolveBookingLink resolves a public booking slug to the company profile
// the booking page needs.
func (h *Handler) ResolveBookingLink(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	slug := strings.TrimSpace(r.URL.Query().Get("slug"))
	if slug == "" {
		http.Error(w, "slug is required", http.StatusBadRequest)
		return
	}

	p, err := h.repo.GetProfileBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, "booking link not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to resolve booking link", http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(profileResponse(p))
}

func profileResponse(p storage.CompanyProfile) map[string]any {
	return map[string]any{
		"company_id":               p.CompanyID,
		"name":                     p.Name,
		"booking_slug":             p.Slug,
		"timezone":                 p.Timezone,
		"slot_step_minutes":        p.SlotStepMins,
		"reminder_offsets_minutes": p.OffsetsMins,
	}
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	companyID := companyIDFromHeader(r)
	if companyID == "" {
		http.Error(w, "missing X-Company-Id", http.StatusBadRequest)
		return
	}

	var req struct {
		Name                   string `json:"name"`
		BookingSlug            string `json:"booking_slug"`
		Timezone               string `json:"timezone"`
		SlotStepMinutes        int    `json:"slot_step_minutes"`
		ReminderOffsetsMinutes []int  `json:"reminder_offsets_minutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.BookingSlug = strings.TrimSpace(strings.ToLower(req.BookingSlug))
	req.Timezone = strings.TrimSpace(req.Timezone)
	if req.Timezone == "" {
		req.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		http.Error(w, "unknown timezone", http.StatusBadRequest)
		return
	}
	if req.SlotStepMinutes < 0 || req.SlotStepMinutes > 120 {
		http.Error(w, "invalid slot_step_minutes", http.StatusBadRequest)
		return
	}

	var offsets []int
	for _, v := range req.ReminderOffsetsMinutes {
		if v <= 0 || v > 365*24*60 {
			http.Error(w, "invalid reminder_offsets_minutes", http.StatusBadRequest)
			return
		}
		offsets = append(offsets, v)
	}
	if len(offsets) == 0 {
		offsets = []int{1440, 60}
	}

	err := h.repo.UpdateProfile(r.Context(), storage.CompanyProfile{
		CompanyID:    companyID,
		Name:         req.Name,
		Slug:         req.BookingSlug,
		Timezone:     req.Timezone,
		SlotStepMins: req.SlotStepMinutes,
		OffsetsMins:  offsets,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			http.Error(w, "booking_slug already taken", http.StatusConflict)
			return
		}
		http.Error(w, "failed to update profile", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	companyID := companyIDFromHeader(r)
	if companyID == "" {
		http.Error(w, "missing X-Company-Id", http.StatusBadRequest)
		return
	}

	var req struct {
		Name         string  `json:"name"`
		DurationMins int     `json:"duration_minutes"`
		Price        float64 `json:"price"`
		Description  string  `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" || req.DurationMins <= 0 {
		http.Error(w, "name and duration_minutes required", http.StatusBadRequest)
		return
	}

	id, err := h.repo.CreateService(r.Context(), companyID, req.Name, req.DurationMins, strconv.FormatFloat(req.Price, 'f', 2, 64), req.Description)
	if err != nil {
		http.Error(w, "failed to create service", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id": id,
	})
}

func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	companyID := companyIDFromHeader(r)
	if companyID == "" {
		http.Error(w, "missing X-Company-Id", http.StatusBadRequest)
		return
	}

	services, err := h.repo.ListServices(r.Context(), companyID, 100)
	if err != nil {
		http.Error(w, "failed to list services", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(services)
}

func (h *Handler) CreateProfessional(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	companyID := companyIDFromHeader(r)
	if companyID == "" {
		http.Error(w, "missing X-Company-Id", http.StatusBadRequest)
		return
	}

	var req struct {
		Name     string `json:"name"`
		IsActive *bool  `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	id, err := h.repo.CreateProfessional(r.Context(), companyID, req.Name, isActive)
	if err != nil {
		http.Error(w, "failed to create professional", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id": id,
	})
}

func (h *Handler) ListProfessionals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	companyID := companyIDFromHeader(r)
	if companyID == "" {
		http.Error(w, "missing X-Company-Id", http.StatusBadRequest)
		return
	}

	professionals, err := h.repo.ListProfessionals(r.Context(), companyID, 100)
	if err != nil {
		http.Error(w, "failed to list professionals", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(professionals)
}

type ruleRequest struct {
	ProfessionalID string `json:"professional_id"`
	Kind           string `json:"kind"`
	Weekdays       []int  `json:"weekdays"`
	StartMinute    int    `json:"start_minute"`
	EndMinute      int    `json:"end_minute"`
	StartAt        string `json:"start_at"`
	EndAt          string `json:"end_at"`
	Note           string `json:"note"`
}

// CreateRule stores one availability rule. Grid rules carry a weekday list
// and minute offsets; released and blocked rules carry an RFC3339 range.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	companyID := companyIDFromHeader(r)
	if companyID == "" {
		http.Error(w, "missing X-Company-Id", http.StatusBadRequest)
		return
	}

	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ProfessionalID = strings.TrimSpace(req.ProfessionalID)
	req.Kind = strings.TrimSpace(req.Kind)
	if req.ProfessionalID == "" {
		http.Error(w, "professional_id is required", http.StatusBadRequest)
		return
	}

	rule := storage.AvailabilityRule{
		ProfessionalID: req.ProfessionalID,
		Kind:           req.Kind,
		Note:           strings.TrimSpace(req.Note),
	}

	switch req.Kind {
	case "grid":
		if len(req.Weekdays) == 0 {
			http.Error(w, "weekdays required for grid rules", http.StatusBadRequest)
			return
		}
		for _, d := range req.Weekdays {
			if d < 0 || d > 6 {
				http.Error(w, "weekdays must be between 0 (Sunday) and 6", http.StatusBadRequest)
				return
			}
			rule.Weekdays |= 1 << d
		}
		if req.StartMinute < 0 || req.EndMinute > 1440 || req.StartMinute >= req.EndMinute {
			http.Error(w, "invalid start_minute/end_minute", http.StatusBadRequest)
			return
		}
		rule.StartMinute = req.StartMinute
		rule.EndMinute = req.EndMinute
	case "released", "blocked":
		start, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartAt))
		if err != nil {
			http.Error(w, "invalid start_at", http.StatusBadRequest)
			return
		}
		end, err := time.Parse(time.RFC3339, strings.TrimSpace(req.EndAt))
		if err != nil {
			http.Error(w, "invalid end_at", http.StatusBadRequest)
			return
		}
		if !end.After(start) {
			http.Error(w, "end_at must be after start_at", http.StatusBadRequest)
			return
		}
		startUTC := start.UTC()
		endUTC := end.UTC()
		rule.StartAt = &startUTC
		rule.EndAt = &endUTC
	default:
		http.Error(w, "kind must be grid, released, or blocked", http.StatusBadRequest)
		return
	}

	id, err := h.repo.CreateRule(r.Context(), companyID, rule)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, "professional not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to create rule", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": id})
}

func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	companyID := companyIDFromHeader(r)
	if companyID == "" {
		http.Error(w, "missing X-Company-Id", http.StatusBadRequest)
		return
	}

	professionalID := strings.TrimSpace(r.URL.Query().Get("professional_id"))
	if professionalID == "" {
		http.Error(w, "professional_id is required", http.StatusBadRequest)
		return
	}

	rules, err := h.repo.ListRules(r.Context(), companyID, professionalID)
	if err != nil {
		http.Error(w, "failed to list rules", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(rules)
}

func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	companyID := companyIDFromHeader(r)
	if companyID == "" {
		http.Error(w, "missing X-Company-Id", http.StatusBadRequest)
		return
	}

	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	if err := h.repo.DeleteRule(r.Context(), companyID, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, "rule not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to delete rule", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
