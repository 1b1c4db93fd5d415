package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// A degradação do calendário externo e o push best-effort precisam ser
// observáveis: a perda de precisão é silenciosa para o cliente.
var (
	CalendarDegraded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agenda_calendar_degraded_total",
		Help: "Availability/create requests served without external calendar data.",
	})

	CalendarPushFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agenda_calendar_push_failed_total",
		Help: "Failed best-effort event pushes to the external calendar.",
	})

	WaitlistOffers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agenda_waitlist_offers_total",
		Help: "Waitlist entries moved to offered after a freed slot.",
	})

	RescheduleCleanupMarked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agenda_reschedule_cleanup_marked_total",
		Help: "Reschedules that left the old booking uncancelled.",
	})

	// Só o sweep do reconciliador escreve aqui.
	RescheduleCleanupPending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "agenda_reschedule_cleanup_pending",
		Help: "Reschedules whose old booking is still awaiting cancellation.",
	})
)
