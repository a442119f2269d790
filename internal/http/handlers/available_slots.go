package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/atendezap/atende-ai-platform/internal/business"
	"github.com/atendezap/atende-ai-platform/internal/tenancy"
	"github.com/atendezap/atende-ai-platform/pkg/logging"
)

type configGetter interface {
	Get(ctx context.Context, tenantID string) (*business.Config, error)
}

type slotLister interface {
	FreeSlotsForDay(ctx context.Context, cfg *business.Config, day time.Time, durationMinutes int) ([]time.Time, error)
}

// AvailableSlotsHandler serves the portal's availability query. Auth runs in
// middleware; the tenant id arrives on the request context.
type AvailableSlotsHandler struct {
	configs configGetter
	slots   slotLister
	logger  *logging.Logger
}

// NewAvailableSlotsHandler wires the handler.
func NewAvailableSlotsHandler(configs configGetter, slots slotLister, logger *logging.Logger) *AvailableSlotsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AvailableSlotsHandler{configs: configs, slots: slots, logger: logger}
}

type availableSlotsResponse struct {
	Date           string   `json:"date"`
	AvailableSlots []string `json:"availableSlots"`
}

// Handle answers GET /api/v1/available-slots?date=YYYY-MM-DD with optional
// service (catalog lookup) or duration (explicit minutes) parameters. Slot
// times come back as RFC3339 in the tenant's timezone.
func (h *AvailableSlotsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	dateParam := r.URL.Query().Get("date")
	if dateParam == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Parâmetro 'date' é obrigatório (formato: YYYY-MM-DD)",
		})
		return
	}

	cfg, err := h.configs.Get(r.Context(), tenantID)
	if err != nil {
		h.logger.WithTenant(tenantID).Error("load tenant config failed", "error", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	day, err := time.ParseInLocation("2006-01-02", dateParam, cfg.Location())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Data inválida (formato: YYYY-MM-DD)",
		})
		return
	}

	duration := cfg.Window.DefaultDurationMinutes
	if service := r.URL.Query().Get("service"); service != "" {
		duration = cfg.DurationFor(service)
	}
	if raw := r.URL.Query().Get("duration"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "Parâmetro 'duration' inválido (minutos)",
			})
			return
		}
		duration = parsed
	}

	slots, err := h.slots.FreeSlotsForDay(r.Context(), cfg, day, duration)
	if err != nil {
		h.logger.WithTenant(tenantID).Error("list slots failed", "error", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Format(time.RFC3339))
	}
	writeJSON(w, http.StatusOK, availableSlotsResponse{Date: dateParam, AvailableSlots: out})
}
