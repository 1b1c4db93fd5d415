package booking

import (
	"time"

	"github.com/horacerta/agenda-scheduler/internal/models"
)

// ===============================
// Domain Actions
// ===============================

func Cancel(b *models.Booking, now time.Time, reason string) error {
	if err := CanCancel(Status(b.Status)); err != nil {
		return err
	}

	b.Status = string(StatusCancelled)
	b.CancelledAt = &now
	b.CancellationReason = reason
	return nil
}

// BookedInterval retorna o intervalo [start, end) ocupado pelo booking.
func BookedInterval(b *models.Booking) Interval {
	return Interval{Start: b.StartTime, End: b.EndTime}
}
