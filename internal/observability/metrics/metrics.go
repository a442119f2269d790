package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking flows.
type BookingMetrics struct {
	inboundTotal      *prometheus.CounterVec
	webhookLatency    *prometheus.HistogramVec
	holdsPlaced       prometheus.Counter
	holdsRenewed      prometheus.Counter
	slotConflicts     prometheus.Counter
	confirmations     *prometheus.CounterVec
	outboundSendTotal *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atende",
			Subsystem: "webhook",
			Name:      "inbound_total",
			Help:      "Total inbound messaging webhooks",
		}, []string{"platform", "status"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "atende",
			Subsystem: "webhook",
			Name:      "latency_seconds",
			Help:      "Latency of inbound webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"platform"}),
		holdsPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "atende",
			Subsystem: "booking",
			Name:      "holds_placed_total",
			Help:      "Total new slot holds placed",
		}),
		holdsRenewed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "atende",
			Subsystem: "booking",
			Name:      "holds_renewed_total",
			Help:      "Total slot holds renewed by re-request",
		}),
		slotConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "atende",
			Subsystem: "booking",
			Name:      "slot_conflicts_total",
			Help:      "Total hold attempts rejected due to slot conflicts",
		}),
		confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atende",
			Subsystem: "booking",
			Name:      "confirmations_total",
			Help:      "Total confirmation attempts by result",
		}, []string{"result"}),
		outboundSendTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atende",
			Subsystem: "messaging",
			Name:      "outbound_total",
			Help:      "Total outbound sends through channel adapters",
		}, []string{"platform", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.inboundTotal,
		m.webhookLatency,
		m.holdsPlaced,
		m.holdsRenewed,
		m.slotConflicts,
		m.confirmations,
		m.outboundSendTotal,
	)
	return m
}

func (m *BookingMetrics) ObserveInbound(platform, status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(platform, status).Inc()
}

func (m *BookingMetrics) ObserveWebhookLatency(platform string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(platform).Observe(seconds)
}

func (m *BookingMetrics) ObserveHoldPlaced(renewed bool) {
	if m == nil {
		return
	}
	if renewed {
		m.holdsRenewed.Inc()
		return
	}
	m.holdsPlaced.Inc()
}

func (m *BookingMetrics) ObserveSlotConflict() {
	if m == nil {
		return
	}
	m.slotConflicts.Inc()
}

func (m *BookingMetrics) ObserveConfirmation(result string) {
	if m == nil {
		return
	}
	m.confirmations.WithLabelValues(result).Inc()
}

func (m *BookingMetrics) ObserveOutbound(platform, status string) {
	if m == nil {
		return
	}
	m.outboundSendTotal.WithLabelValues(platform, status).Inc()
}
