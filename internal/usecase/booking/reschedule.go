package booking

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/horacerta/agenda-scheduler/internal/audit"
	domain "github.com/horacerta/agenda-scheduler/internal/domain/booking"
	"github.com/horacerta/agenda-scheduler/internal/httperr"
	"github.com/horacerta/agenda-scheduler/internal/metrics"
	"github.com/horacerta/agenda-scheduler/internal/models"
	"github.com/horacerta/agenda-scheduler/internal/notify"
)

type RescheduleInput struct {
	OldPublicID string

	ServiceID uint
	Date      string // YYYY-MM-DD
	Time      string // HH:mm
	Notes     string

	// Tem que bater exatamente com o telefone do booking antigo:
	// impede sequestro de horário por adivinhação de id.
	ClientPhone string
}

type RescheduleBooking struct {
	repo   domain.Repository
	create *CreateBooking
	cancel *CancelBooking

	notifier *notify.Dispatcher
	audit    *audit.Dispatcher
}

func NewRescheduleBooking(
	repo domain.Repository,
	create *CreateBooking,
	cancel *CancelBooking,
	notifier *notify.Dispatcher,
	auditDisp *audit.Dispatcher,
) *RescheduleBooking {
	return &RescheduleBooking{
		repo:     repo,
		create:   create,
		cancel:   cancel,
		notifier: notifier,
		audit:    auditDisp,
	}
}

// Execute reagenda em duas fases: cria o novo booking (com a checagem
// de conflito dele, ignorando o antigo) e só então cancela o antigo;
// o que dispara a oferta de waitlist para o slot liberado. Se o novo
// foi criado e o cancelamento falhar, NÃO desfazemos o novo: o horário
// novo já é compromisso comunicado ao cliente. O caso vira marcador de
// limpeza pendente + alerta operacional, e o sweep resolve depois.
func (uc *RescheduleBooking) Execute(
	ctx context.Context,
	in RescheduleInput,
) (*models.Booking, error) {

	// 1. Booking antigo
	old, err := uc.repo.GetBookingByPublicID(ctx, in.OldPublicID)
	if err != nil {
		return nil, err
	}

	// 2. Autorização: mesmo telefone do booking original
	if in.ClientPhone != old.ClientPhone {
		return nil, httperr.ErrBusiness(httperr.CodePhoneMismatch)
	}

	// 3. Novo booking, excluindo o antigo do filtro de conflito
	// (reagendar para o mesmíssimo horário tem que funcionar)
	oldID := old.ID
	created, err := uc.create.Execute(ctx, CreateBookingInput{
		BusinessID:        old.BusinessID,
		ClientName:        old.ClientName,
		ClientPhone:       old.ClientPhone,
		ServiceID:         in.ServiceID,
		Date:              in.Date,
		Time:              in.Time,
		Notes:             in.Notes,
		ExcludeBookingID:  oldID,
		RescheduledFromID: &oldID,
		SkipConfirmation:  true,
	})
	if err != nil {
		return nil, err
	}

	// 4. Cancela o antigo (dispara a oferta do slot liberado)
	_, err = uc.cancel.ExecuteSilent(
		ctx,
		oldID,
		Actor{Client: true},
		"Reagendado pelo cliente",
	)
	if err != nil && !httperr.IsBusiness(err, httperr.CodeAlreadyCancelled) {
		// inconsistência de dados, não falha de requisição: dois
		// bookings vivos para o mesmo cliente até o sweep cancelar o
		// antigo. Nunca engolir em silêncio.
		if markErr := uc.repo.MarkCleanupPending(ctx, created.ID); markErr != nil {
			log.Error().
				Err(markErr).
				Uint("booking_id", created.ID).
				Msg("failed to persist cleanup marker")
		}
		metrics.RescheduleCleanupMarked.Inc()
		log.Error().
			Err(err).
			Uint("old_booking_id", oldID).
			Uint("new_booking_id", created.ID).
			Msg("ALERT: reschedule left old booking uncancelled")
	}

	uc.audit.Dispatch(audit.Event{
		BusinessID: old.BusinessID,
		Action:     "booking_rescheduled",
		Entity:     "booking",
		EntityID:   &created.ID,
	})

	// confirmação própria do reagendamento, no lugar da confirmação
	// padrão do Create
	uc.notifier.Dispatch(notify.Message{
		To:   created.ClientPhone,
		Kind: notify.KindBookingRescheduled,
		Body: fmt.Sprintf(
			"%s, seu horário em %s foi remarcado para %s.",
			created.ClientName,
			created.Business.Name,
			created.StartTime.Format("02/01/2006 15:04"),
		),
	})

	return created, nil
}
