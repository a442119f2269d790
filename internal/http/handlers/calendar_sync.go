package handlers

import (
	"context"
	"net/http"

	"github.com/atendezap/atende-ai-platform/internal/business"
	"github.com/atendezap/atende-ai-platform/pkg/logging"
)

type tenantLister interface {
	AllActive(ctx context.Context) ([]*business.Config, error)
}

type calendarSyncer interface {
	Run(ctx context.Context, cfg *business.Config) (int, error)
}

// CalendarSyncHandler exposes the cron-triggered reconciliation pass that
// cancels appointments whose calendar events were removed by the business.
type CalendarSyncHandler struct {
	tenants tenantLister
	sync    calendarSyncer
	secret  string
	logger  *logging.Logger
}

// NewCalendarSyncHandler wires the handler. An empty secret disables the
// X-Cron-Secret check.
func NewCalendarSyncHandler(tenants tenantLister, sync calendarSyncer, secret string, logger *logging.Logger) *CalendarSyncHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &CalendarSyncHandler{tenants: tenants, sync: sync, secret: secret, logger: logger}
}

type tenantSyncResult struct {
	TenantID  string `json:"tenantId"`
	Cancelled int    `json:"cancelled"`
	Error     string `json:"error,omitempty"`
}

type calendarSyncResponse struct {
	Success bool               `json:"success"`
	Results []tenantSyncResult `json:"results"`
}

// Handle runs the sync pass for every active tenant. A failing tenant is
// reported in its result entry without aborting the others.
func (h *CalendarSyncHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" && r.Header.Get("X-Cron-Secret") != h.secret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Não autorizado"})
		return
	}

	tenants, err := h.tenants.AllActive(r.Context())
	if err != nil {
		h.logger.Error("list active tenants failed", "error", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	results := make([]tenantSyncResult, 0, len(tenants))
	for _, cfg := range tenants {
		cancelled, err := h.sync.Run(r.Context(), cfg)
		res := tenantSyncResult{TenantID: cfg.TenantID, Cancelled: cancelled}
		if err != nil {
			h.logger.WithTenant(cfg.TenantID).Error("calendar sync failed", "error", err)
			res.Error = err.Error()
		}
		results = append(results, res)
	}

	writeJSON(w, http.StatusOK, calendarSyncResponse{Success: true, Results: results})
}
