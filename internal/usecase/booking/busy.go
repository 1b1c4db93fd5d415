package booking

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/horacerta/agenda-scheduler/internal/calendar"
	domain "github.com/horacerta/agenda-scheduler/internal/domain/booking"
	"github.com/horacerta/agenda-scheduler/internal/metrics"
	"github.com/horacerta/agenda-scheduler/internal/models"
)

// fetchBusyIntervals degrada graciosamente: indisponibilidade do
// calendário externo (timeout, credencial ausente/expirada) nunca
// falha a operação pai, só reduz a precisão. Isso precisa ficar
// visível em log e métrica.
func fetchBusyIntervals(
	ctx context.Context,
	gateway calendar.Gateway,
	biz *models.Business,
	windowStart time.Time,
	windowEnd time.Time,
) []domain.Interval {

	busy, err := gateway.GetBusyIntervals(ctx, biz, windowStart, windowEnd)
	if err != nil {
		metrics.CalendarDegraded.Inc()
		log.Warn().
			Err(err).
			Uint("business_id", biz.ID).
			Msg("external calendar unavailable, using internal bookings only")
		return nil
	}

	return busy
}
