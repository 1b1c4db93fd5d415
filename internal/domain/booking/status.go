package booking

import "github.com/horacerta/agenda-scheduler/internal/httperr"

// ===============================
// Booking Status
// ===============================

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// ===============================
// Waitlist Status
// ===============================
// Avança de forma monotônica: active → offered → accepted | skipped.

type WaitlistStatus string

const (
	WaitlistActive   WaitlistStatus = "active"
	WaitlistOffered  WaitlistStatus = "offered"
	WaitlistAccepted WaitlistStatus = "accepted"
	WaitlistSkipped  WaitlistStatus = "skipped"
)

// ===============================
// Validations
// ===============================

// CanCancel define se um agendamento pode ser cancelado. Um booking
// já cancelado nunca dispara nova oferta de waitlist.
func CanCancel(current Status) error {
	if current == StatusCancelled {
		return httperr.ErrBusiness(httperr.CodeAlreadyCancelled)
	}
	if current != StatusScheduled {
		return httperr.ErrBusiness(httperr.CodeInvalidState)
	}
	return nil
}

func InitialStatus() Status {
	return StatusScheduled
}
