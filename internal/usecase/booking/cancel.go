package booking

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/horacerta/agenda-scheduler/internal/audit"
	domain "github.com/horacerta/agenda-scheduler/internal/domain/booking"
	"github.com/horacerta/agenda-scheduler/internal/infra/slotlock"
	"github.com/horacerta/agenda-scheduler/internal/models"
	"github.com/horacerta/agenda-scheduler/internal/notify"
	"github.com/horacerta/agenda-scheduler/internal/timezone"
	"github.com/horacerta/agenda-scheduler/internal/usecase/waitlist"
)

// Actor identifica quem pediu o cancelamento.
type Actor struct {
	// UserID do dono autenticado; nil para cancelamento de cliente.
	UserID *uint
	// Cliente sem login: a posse do public id do booking é a
	// autorização aceita hoje. A checagem fica atrás de
	// ClientAuthorizer para poder virar token assinado depois sem
	// mexer no fluxo.
	Client bool
}

// ClientAuthorizer decide se um chamador sem login pode mexer no
// booking. A implementação padrão aceita posse do identificador.
type ClientAuthorizer interface {
	Authorize(b *models.Booking, proof string) error
}

type PossessionAuthorizer struct{}

func (PossessionAuthorizer) Authorize(b *models.Booking, proof string) error {
	// chegar até aqui já exigiu o public id (não sequencial); nada
	// mais a verificar nesse modelo
	return nil
}

type CancelBooking struct {
	repo   domain.Repository
	locker slotlock.Locker
	offer  *waitlist.OfferFreedSlot

	notifier *notify.Dispatcher
	audit    *audit.Dispatcher
}

func NewCancelBooking(
	repo domain.Repository,
	locker slotlock.Locker,
	offer *waitlist.OfferFreedSlot,
	notifier *notify.Dispatcher,
	auditDisp *audit.Dispatcher,
) *CancelBooking {
	return &CancelBooking{
		repo:     repo,
		locker:   locker,
		offer:    offer,
		notifier: notifier,
		audit:    auditDisp,
	}
}

// Execute cancela o booking e oferta o slot liberado para a fila.
// Transição e oferta rodam sob o mesmo lock business+dia do Create:
// dois cancelamentos simultâneos no mesmo dia nunca ofertam a mesma
// entrada, e um booking já cancelado retorna already_cancelled sem
// nova oferta.
func (uc *CancelBooking) Execute(
	ctx context.Context,
	bookingID uint,
	actor Actor,
	reason string,
) (*models.Booking, error) {

	return uc.execute(ctx, bookingID, actor, reason, true)
}

// ExecuteSilent é o caminho do reagendamento: cancela e oferta, mas
// não manda notificação de cancelamento (a confirmação do novo horário
// já foi enviada).
func (uc *CancelBooking) ExecuteSilent(
	ctx context.Context,
	bookingID uint,
	actor Actor,
	reason string,
) (*models.Booking, error) {

	return uc.execute(ctx, bookingID, actor, reason, false)
}

func (uc *CancelBooking) execute(
	ctx context.Context,
	bookingID uint,
	actor Actor,
	reason string,
	notifyClient bool,
) (*models.Booking, error) {

	var cancelled *models.Booking
	var biz *models.Business

	// o lock precisa da data; uma leitura prévia resolve, e a
	// transição em si relê com FOR UPDATE
	current, err := uc.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	biz, err = uc.repo.GetBusinessByID(ctx, current.BusinessID)
	if err != nil {
		return nil, err
	}

	now := timezone.NowIn(biz.Timezone)

	err = uc.locker.WithLock(ctx, biz.ID, current.StartTime, func(ctx context.Context) error {
		var err error
		cancelled, err = uc.repo.CancelBooking(ctx, bookingID, now, reason)
		if err != nil {
			return err
		}

		// a transação do cancelamento já commitou; falha na oferta não
		// pode virar erro para o chamador (um retry bateria em
		// already_cancelled com o slot de fato liberado)
		if _, offerErr := uc.offer.Execute(ctx, biz, cancelled); offerErr != nil {
			log.Error().
				Err(offerErr).
				Uint("booking_id", cancelled.ID).
				Msg("waitlist offer failed after cancellation, slot freed without offer")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		BusinessID: biz.ID,
		UserID:     actor.UserID,
		Action:     "booking_cancelled",
		Entity:     "booking",
		EntityID:   &cancelled.ID,
	})

	if notifyClient {
		uc.notifier.Dispatch(notify.Message{
			To:   cancelled.ClientPhone,
			Kind: notify.KindBookingCancelled,
			Body: fmt.Sprintf(
				"Seu horário em %s no dia %s às %s foi cancelado.",
				biz.Name,
				cancelled.StartTime.Format("02/01/2006"),
				cancelled.StartTime.Format("15:04"),
			),
		})
	}

	return cancelled, nil
}
