package booking

import "github.com/horacerta/agenda-scheduler/internal/models"

// Filtro de conflito único para os dois caminhos: a leitura de
// disponibilidade (consultiva) e o Create (autoritativo, sob lock).
// Os dois nunca podem divergir.

// HasConflict verifica se iv colide com algum booking agendado ou com
// algum intervalo ocupado do calendário externo. excludeBookingID
// permite que um reagendamento ignore o próprio booking antigo.
func HasConflict(
	iv Interval,
	bookings []models.Booking,
	busy []Interval,
	excludeBookingID uint,
) bool {

	for i := range bookings {
		b := &bookings[i]
		if Status(b.Status) != StatusScheduled {
			continue
		}
		if excludeBookingID != 0 && b.ID == excludeBookingID {
			continue
		}
		if iv.Overlaps(BookedInterval(b)) {
			return true
		}
	}

	for _, bz := range busy {
		if iv.Overlaps(bz) {
			return true
		}
	}

	return false
}

// FilterConflicts devolve o subconjunto de candidatos livres.
func FilterConflicts(
	candidates []Interval,
	bookings []models.Booking,
	busy []Interval,
) []Interval {

	free := make([]Interval, 0, len(candidates))
	for _, slot := range candidates {
		if !HasConflict(slot, bookings, busy, 0) {
			free = append(free, slot)
		}
	}
	return free
}
