package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atendezap/atende-ai-platform/internal/business"
)

type stubTenantLister struct {
	configs []*business.Config
}

func (s *stubTenantLister) AllActive(context.Context) ([]*business.Config, error) {
	return s.configs, nil
}

type stubSyncer struct {
	cancelled map[string]int
	err       error
}

func (s *stubSyncer) Run(_ context.Context, cfg *business.Config) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.cancelled[cfg.TenantID], nil
}

func TestCalendarSyncRunsAllTenants(t *testing.T) {
	lister := &stubTenantLister{configs: []*business.Config{
		business.DefaultConfig("tenant-1"),
		business.DefaultConfig("tenant-2"),
	}}
	syncer := &stubSyncer{cancelled: map[string]int{"tenant-1": 2}}
	h := NewCalendarSyncHandler(lister, syncer, "", nil)

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodPost, "/internal/calendar-sync", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body calendarSyncResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || len(body.Results) != 2 {
		t.Fatalf("body = %+v", body)
	}
	if body.Results[0].TenantID != "tenant-1" || body.Results[0].Cancelled != 2 {
		t.Errorf("first result = %+v", body.Results[0])
	}
	if body.Results[1].Cancelled != 0 {
		t.Errorf("second result = %+v", body.Results[1])
	}
}

func TestCalendarSyncRequiresSecret(t *testing.T) {
	h := NewCalendarSyncHandler(&stubTenantLister{}, &stubSyncer{}, "cron-secret", nil)

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodPost, "/internal/calendar-sync", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 without the secret", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/internal/calendar-sync", nil)
	req.Header.Set("X-Cron-Secret", "cron-secret")
	h.Handle(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with the secret", rec.Code)
	}
}

func TestCalendarSyncTenantFailureIsIsolated(t *testing.T) {
	lister := &stubTenantLister{configs: []*business.Config{business.DefaultConfig("tenant-1")}}
	h := NewCalendarSyncHandler(lister, &stubSyncer{err: errors.New("token revoked")}, "", nil)

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodPost, "/internal/calendar-sync", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 even when a tenant fails", rec.Code)
	}
	var body calendarSyncResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if len(body.Results) != 1 || body.Results[0].Error == "" {
		t.Errorf("body = %+v", body)
	}
}
