package booking

import (
	"context"

	"github.com/horacerta/agenda-scheduler/internal/calendar"
	domain "github.com/horacerta/agenda-scheduler/internal/domain/booking"
	"github.com/horacerta/agenda-scheduler/internal/timezone"
)

type GetAvailability struct {
	repo    domain.Repository
	gateway calendar.Gateway
}

func NewGetAvailability(
	repo domain.Repository,
	gateway calendar.Gateway,
) *GetAvailability {
	return &GetAvailability{
		repo:    repo,
		gateway: gateway,
	}
}

// Execute calcula os horários livres do dia. Só leitura: pode ser
// chamado repetida e concorrentemente; a resposta é consultiva e o
// Create revalida tudo na escrita.
func (uc *GetAvailability) Execute(
	ctx context.Context,
	in domain.AvailabilityInput,
) ([]domain.TimeSlot, error) {

	biz, err := uc.repo.GetBusinessByID(ctx, in.BusinessID)
	if err != nil {
		return nil, err
	}

	svc, err := uc.repo.GetService(ctx, in.BusinessID, in.ServiceID)
	if err != nil {
		return nil, err
	}

	day := in.Date.In(timezone.Location(biz.Timezone))

	wh, err := uc.repo.GetWorkingHours(ctx, in.BusinessID, int(day.Weekday()))
	if err != nil {
		return nil, err
	}
	if wh == nil || !wh.Active {
		// fechado nesse dia: lista vazia, não é erro
		return []domain.TimeSlot{}, nil
	}

	candidates := domain.CandidateSlots(day, wh, svc.DurationMin)
	if len(candidates) == 0 {
		return []domain.TimeSlot{}, nil
	}

	dayStart := timezone.StartOfDay(day)
	dayEnd := timezone.EndOfDay(day)

	booked, err := uc.repo.ListScheduledForDay(ctx, in.BusinessID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	busy := fetchBusyIntervals(ctx, uc.gateway, biz, dayStart, dayEnd)

	free := domain.FilterConflicts(candidates, booked, busy)

	slots := make([]domain.TimeSlot, 0, len(free))
	for _, iv := range free {
		slots = append(slots, domain.TimeSlot{
			Start: iv.Start.Format("15:04"),
			End:   iv.End.Format("15:04"),
		})
	}

	return slots, nil
}
