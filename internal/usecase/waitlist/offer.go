package waitlist

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/horacerta/agenda-scheduler/internal/audit"
	domain "github.com/horacerta/agenda-scheduler/internal/domain/booking"
	"github.com/horacerta/agenda-scheduler/internal/metrics"
	"github.com/horacerta/agenda-scheduler/internal/models"
	"github.com/horacerta/agenda-scheduler/internal/notify"
	"github.com/horacerta/agenda-scheduler/internal/timezone"
)

type OfferFreedSlot struct {
	repo     domain.Repository
	notifier *notify.Dispatcher
	audit    *audit.Dispatcher
}

func NewOfferFreedSlot(
	repo domain.Repository,
	notifier *notify.Dispatcher,
	auditDisp *audit.Dispatcher,
) *OfferFreedSlot {
	return &OfferFreedSlot{
		repo:     repo,
		notifier: notifier,
		audit:    auditDisp,
	}
}

// Execute oferta o slot liberado para a entrada ativa mais antiga do
// mesmo dia (FIFO estrito por created_at). No máximo uma oferta por
// booking liberado; quem garante isso é a guarda already_cancelled do
// cancelamento: um booking só passa por aqui uma vez.
func (uc *OfferFreedSlot) Execute(
	ctx context.Context,
	biz *models.Business,
	freed *models.Booking,
) (*models.WaitlistEntry, error) {

	day := freed.StartTime.In(timezone.Location(biz.Timezone))
	dayStart := timezone.StartOfDay(day)
	dayEnd := timezone.EndOfDay(day)

	entry, err := uc.repo.OfferNextWaitlistEntry(ctx, biz.ID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		// ninguém esperando esse dia: no-op
		return nil, nil
	}

	metrics.WaitlistOffers.Inc()
	log.Info().
		Uint("business_id", biz.ID).
		Uint("entry_id", entry.ID).
		Time("slot", freed.StartTime).
		Msg("waitlist offer issued")

	uc.notifier.Dispatch(notify.Message{
		To:   entry.ClientPhone,
		Kind: notify.KindWaitlistOffer,
		Body: fmt.Sprintf(
			"Boa notícia, %s! Abriu um horário em %s no dia %s às %s. Responda para garantir.",
			entry.ClientName,
			biz.Name,
			freed.StartTime.Format("02/01/2006"),
			freed.StartTime.Format("15:04"),
		),
	})

	uc.audit.Dispatch(audit.Event{
		BusinessID: biz.ID,
		Action:     "waitlist_offered",
		Entity:     "waitlist_entry",
		EntityID:   &entry.ID,
	})

	return entry, nil
}
