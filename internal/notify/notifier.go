package notify

import "context"

// O core só decide QUE uma notificação deve sair e PARA QUEM; o
// transporte é colaborador externo e fire-and-forget.

type Kind string

const (
	KindBookingConfirmed   Kind = "booking_confirmed"
	KindBookingCancelled   Kind = "booking_cancelled"
	KindBookingRescheduled Kind = "booking_rescheduled"
	KindWaitlistOffer      Kind = "waitlist_offer"
)

type Message struct {
	To   string // telefone do cliente
	Kind Kind
	Body string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}
