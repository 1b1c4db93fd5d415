package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/horacerta/agenda-scheduler/internal/audit"
	"github.com/horacerta/agenda-scheduler/internal/calendar"
	domain "github.com/horacerta/agenda-scheduler/internal/domain/booking"
	"github.com/horacerta/agenda-scheduler/internal/httperr"
	"github.com/horacerta/agenda-scheduler/internal/infra/slotlock"
	"github.com/horacerta/agenda-scheduler/internal/metrics"
	"github.com/horacerta/agenda-scheduler/internal/models"
	"github.com/horacerta/agenda-scheduler/internal/notify"
	"github.com/horacerta/agenda-scheduler/internal/timezone"
)

// ======================================================
// INPUT
// ======================================================

type CreateBookingInput struct {
	BusinessID uint

	ClientName  string
	ClientPhone string

	ServiceID uint

	Date string // YYYY-MM-DD
	Time string // HH:mm
	Notes string

	// Cliente quer entrar na fila se abrir horário mais cedo no dia.
	JoinWaitlist bool

	// Preenchidos pelo reagendamento:
	// ExcludeBookingID tira o booking antigo da checagem de conflito
	// (sem ele, reagendar para o mesmo horário falharia contra si
	// próprio). RescheduledFromID marca a origem do novo booking.
	ExcludeBookingID  uint
	RescheduledFromID *uint

	// Reagendamento já confirma pelo fluxo próprio.
	SkipConfirmation bool
}

// ======================================================
// USE CASE
// ======================================================

type CreateBooking struct {
	repo     domain.Repository
	locker   slotlock.Locker
	gateway  calendar.Gateway
	notifier *notify.Dispatcher
	audit    *audit.Dispatcher
}

func NewCreateBooking(
	repo domain.Repository,
	locker slotlock.Locker,
	gateway calendar.Gateway,
	notifier *notify.Dispatcher,
	auditDisp *audit.Dispatcher,
) *CreateBooking {
	return &CreateBooking{
		repo:     repo,
		locker:   locker,
		gateway:  gateway,
		notifier: notifier,
		audit:    auditDisp,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *CreateBooking) Execute(
	ctx context.Context,
	in CreateBookingInput,
) (*models.Booking, error) {

	// 1. Negócio
	biz, err := uc.repo.GetBusinessByID(ctx, in.BusinessID)
	if err != nil {
		return nil, err
	}

	// 2. Data/hora no timezone do negócio
	start, err := time.ParseInLocation(
		"2006-01-02 15:04",
		in.Date+" "+in.Time,
		timezone.Location(biz.Timezone),
	)
	if err != nil {
		return nil, httperr.ErrBusiness("invalid_date_or_time")
	}

	// 3. Antecedência mínima
	minAdvance := biz.MinAdvanceMinutes
	if minAdvance < 0 {
		minAdvance = 0
	}

	now := timezone.NowIn(biz.Timezone)
	if start.Before(now.Add(time.Duration(minAdvance) * time.Minute)) {
		return nil, httperr.ErrBusiness(httperr.CodeTooSoon)
	}

	// 4. Serviço
	svc, err := uc.repo.GetService(ctx, in.BusinessID, in.ServiceID)
	if err != nil {
		return nil, err
	}

	end := start.Add(time.Duration(svc.DurationMin) * time.Minute)

	// 5. Janela de atendimento do dia
	wh, err := uc.repo.GetWorkingHours(ctx, in.BusinessID, int(start.Weekday()))
	if err != nil {
		return nil, err
	}
	if wh == nil || !wh.Active {
		return nil, httperr.ErrBusiness(httperr.CodeClosedDay)
	}

	startMin := start.Hour()*60 + start.Minute()
	endMin := startMin + svc.DurationMin
	if startMin < wh.OpenMinute || endMin > wh.CloseMinute {
		return nil, httperr.ErrBusiness(httperr.CodeOutsideWorkingHours)
	}

	// 6. Ocupação externa (best-effort, degrada)
	dayStart := timezone.StartOfDay(start)
	dayEnd := timezone.EndOfDay(start)
	busy := fetchBusyIntervals(ctx, uc.gateway, biz, dayStart, dayEnd)

	// 7. Criação sob lock business+dia. A checagem de conflito de
	// dentro da transação é a última linha de defesa contra corrida:
	// o snapshot de disponibilidade do cliente não vale nada aqui.
	b := &models.Booking{
		PublicID:          uuid.NewString(),
		BusinessID:        in.BusinessID,
		ServiceID:         svc.ID,
		ClientName:        in.ClientName,
		ClientPhone:       in.ClientPhone,
		StartTime:         start,
		EndTime:           end,
		Status:            string(domain.InitialStatus()),
		Notes:             in.Notes,
		RescheduledFromID: in.RescheduledFromID,
	}

	var entry *models.WaitlistEntry
	if in.JoinWaitlist {
		entry = &models.WaitlistEntry{
			BusinessID:  in.BusinessID,
			ClientName:  in.ClientName,
			ClientPhone: in.ClientPhone,
			DesiredDate: start,
			Status:      string(domain.WaitlistActive),
		}
	}

	err = uc.locker.WithLock(ctx, in.BusinessID, start, func(ctx context.Context) error {
		return uc.repo.CreateBookingGuarded(ctx, b, busy, in.ExcludeBookingID, entry)
	})
	if err != nil {
		return nil, err
	}

	b.Service = *svc
	b.Business = *biz

	// 8. Auditoria
	uc.audit.Dispatch(audit.Event{
		BusinessID: in.BusinessID,
		Action:     "booking_created",
		Entity:     "booking",
		EntityID:   &b.ID,
	})

	// 9. Push no calendário externo: tarefa destacada com timeout
	// próprio; falha fica em log/métrica e o reconciliador tenta de
	// novo depois. O booking já está confirmado de qualquer forma.
	go uc.pushEvent(biz, b)

	// 10. Confirmação ao cliente
	if !in.SkipConfirmation {
		uc.notifier.Dispatch(notify.Message{
			To:   b.ClientPhone,
			Kind: notify.KindBookingConfirmed,
			Body: fmt.Sprintf(
				"Olá %s! Seu horário de %s em %s foi confirmado para %s.",
				b.ClientName,
				svc.Name,
				biz.Name,
				start.Format("02/01/2006 15:04"),
			),
		})
	}

	return b, nil
}

func (uc *CreateBooking) pushEvent(biz *models.Business, b *models.Booking) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	eventID, err := uc.gateway.PushEvent(ctx, biz, b)
	if err != nil {
		metrics.CalendarPushFailed.Inc()
		log.Warn().
			Err(err).
			Uint("booking_id", b.ID).
			Msg("external calendar push failed, booking kept without event id")
		return
	}

	if err := uc.repo.SetExternalEventID(ctx, b.ID, eventID); err != nil {
		log.Error().
			Err(err).
			Uint("booking_id", b.ID).
			Str("event_id", eventID).
			Msg("failed to store external event id")
	}
}
