package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/atendezap/atende-ai-platform/internal/business"
	"github.com/atendezap/atende-ai-platform/internal/tenancy"
)

type stubConfigs struct {
	cfg *business.Config
}

func (s *stubConfigs) Get(context.Context, string) (*business.Config, error) {
	return s.cfg, nil
}

type stubSlots struct {
	slots       []time.Time
	gotDay      time.Time
	gotDuration int
}

func (s *stubSlots) FreeSlotsForDay(_ context.Context, _ *business.Config, day time.Time, durationMinutes int) ([]time.Time, error) {
	s.gotDay = day
	s.gotDuration = durationMinutes
	return s.slots, nil
}

func slotsRequest(target string, tenantID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if tenantID != "" {
		req = req.WithContext(tenancy.WithTenantID(req.Context(), tenantID))
	}
	return req
}

func TestAvailableSlots(t *testing.T) {
	cfg := business.DefaultConfig("tenant-1")
	cfg.Services = []business.Service{{Name: "Corte de Cabelo", DurationMinutes: 45}}
	loc := cfg.Location()
	slots := &stubSlots{slots: []time.Time{
		time.Date(2026, 3, 10, 9, 0, 0, 0, loc),
		time.Date(2026, 3, 10, 9, 45, 0, 0, loc),
	}}
	h := NewAvailableSlotsHandler(&stubConfigs{cfg: cfg}, slots, nil)

	rec := httptest.NewRecorder()
	h.Handle(rec, slotsRequest("/api/v1/available-slots?date=2026-03-10&service=Corte+de+Cabelo", "tenant-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var body availableSlotsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Date != "2026-03-10" || len(body.AvailableSlots) != 2 {
		t.Errorf("body = %+v", body)
	}
	if body.AvailableSlots[0] != "2026-03-10T09:00:00-03:00" {
		t.Errorf("first slot = %q", body.AvailableSlots[0])
	}
	if slots.gotDuration != 45 {
		t.Errorf("duration = %d, want 45 for the named service", slots.gotDuration)
	}
}

func TestAvailableSlotsMissingDate(t *testing.T) {
	h := NewAvailableSlotsHandler(&stubConfigs{cfg: business.DefaultConfig("tenant-1")}, &stubSlots{}, nil)

	rec := httptest.NewRecorder()
	h.Handle(rec, slotsRequest("/api/v1/available-slots", "tenant-1"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["error"] != "Parâmetro 'date' é obrigatório (formato: YYYY-MM-DD)" {
		t.Errorf("error = %q", body["error"])
	}
}

func TestAvailableSlotsExplicitDuration(t *testing.T) {
	slots := &stubSlots{}
	h := NewAvailableSlotsHandler(&stubConfigs{cfg: business.DefaultConfig("tenant-1")}, slots, nil)

	rec := httptest.NewRecorder()
	h.Handle(rec, slotsRequest("/api/v1/available-slots?date=2026-03-10&duration=90", "tenant-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if slots.gotDuration != 90 {
		t.Errorf("duration = %d, want 90 from the query param", slots.gotDuration)
	}

	rec = httptest.NewRecorder()
	h.Handle(rec, slotsRequest("/api/v1/available-slots?date=2026-03-10&duration=soon", "tenant-1"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for a non-numeric duration", rec.Code)
	}
}

func TestAvailableSlotsInvalidDate(t *testing.T) {
	h := NewAvailableSlotsHandler(&stubConfigs{cfg: business.DefaultConfig("tenant-1")}, &stubSlots{}, nil)

	rec := httptest.NewRecorder()
	h.Handle(rec, slotsRequest("/api/v1/available-slots?date=10-03-2026", "tenant-1"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAvailableSlotsNoTenant(t *testing.T) {
	h := NewAvailableSlotsHandler(&stubConfigs{cfg: business.DefaultConfig("tenant-1")}, &stubSlots{}, nil)

	rec := httptest.NewRecorder()
	h.Handle(rec, slotsRequest("/api/v1/available-slots?date=2026-03-10", ""))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
