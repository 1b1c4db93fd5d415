package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"github.com/horacerta/agenda-scheduler/internal/calendar"
	domain "github.com/horacerta/agenda-scheduler/internal/domain/booking"
	"github.com/horacerta/agenda-scheduler/internal/httperr"
	"github.com/horacerta/agenda-scheduler/internal/metrics"
	ucbooking "github.com/horacerta/agenda-scheduler/internal/usecase/booking"
)

const batchSize = 50

// Reconciler varre periodicamente duas pendências best-effort:
//   - bookings agendados sem external_event_id (o push falhou na hora
//     da criação) ganham nova tentativa;
//   - reagendamentos com cleanup_pending (o cancelamento do booking
//     antigo falhou) têm o cancelamento repetido.
type Reconciler struct {
	repo    domain.Repository
	gateway calendar.Gateway
	cancel  *ucbooking.CancelBooking
}

func NewReconciler(
	repo domain.Repository,
	gateway calendar.Gateway,
	cancel *ucbooking.CancelBooking,
) *Reconciler {
	return &Reconciler{
		repo:    repo,
		gateway: gateway,
		cancel:  cancel,
	}
}

func (r *Reconciler) Start(interval time.Duration) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	if _, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(r.run),
	); err != nil {
		return nil, err
	}

	s.Start()
	return s, nil
}

func (r *Reconciler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	r.retryEventPushes(ctx)
	r.sweepCleanupPending(ctx)
}

func (r *Reconciler) retryEventPushes(ctx context.Context) {
	rows, err := r.repo.ListBookingsMissingEvent(ctx, batchSize)
	if err != nil {
		log.Error().Err(err).Msg("reconcile: listing bookings without event id failed")
		return
	}

	for i := range rows {
		b := &rows[i]

		eventID, err := r.gateway.PushEvent(ctx, &b.Business, b)
		if err != nil {
			// negócio sem credencial nunca vai conseguir; não conta
			// como falha de push
			if !errors.Is(err, calendar.ErrNoCredential) {
				metrics.CalendarPushFailed.Inc()
				log.Warn().
					Err(err).
					Uint("booking_id", b.ID).
					Msg("reconcile: event push retry failed")
			}
			continue
		}

		if err := r.repo.SetExternalEventID(ctx, b.ID, eventID); err != nil {
			log.Error().
				Err(err).
				Uint("booking_id", b.ID).
				Msg("reconcile: failed to store external event id")
		}
	}
}

func (r *Reconciler) sweepCleanupPending(ctx context.Context) {
	rows, err := r.repo.ListCleanupPending(ctx, batchSize)
	if err != nil {
		log.Error().Err(err).Msg("reconcile: listing cleanup-pending bookings failed")
		return
	}

	remaining := 0
	for i := range rows {
		b := &rows[i]
		if b.RescheduledFromID == nil {
			// marcador órfão, nada para cancelar
			if err := r.repo.ClearCleanupPending(ctx, b.ID); err != nil {
				log.Error().Err(err).Uint("booking_id", b.ID).Msg("reconcile: clear marker failed")
			}
			continue
		}

		_, err := r.cancel.ExecuteSilent(
			ctx,
			*b.RescheduledFromID,
			ucbooking.Actor{},
			"Reagendado pelo cliente",
		)
		if err != nil && !httperr.IsBusiness(err, httperr.CodeAlreadyCancelled) {
			remaining++
			log.Error().
				Err(err).
				Uint("old_booking_id", *b.RescheduledFromID).
				Uint("new_booking_id", b.ID).
				Msg("ALERT: reschedule cleanup still failing")
			continue
		}

		if err := r.repo.ClearCleanupPending(ctx, b.ID); err != nil {
			log.Error().Err(err).Uint("booking_id", b.ID).Msg("reconcile: clear marker failed")
		}
	}

	metrics.RescheduleCleanupPending.Set(float64(remaining))
}
