package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Dispatcher desacopla o envio da requisição: fila em memória com
// worker próprio, mesmo desenho do audit. Fila cheia descarta a
// mensagem: notificação nunca bloqueia nem derruba a operação.
type Dispatcher struct {
	sender Sender
	queue  chan Message
}

func NewDispatcher(sender Sender) *Dispatcher {
	d := &Dispatcher{
		sender: sender,
		queue:  make(chan Message, 100),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	for msg := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := d.sender.Send(ctx, msg); err != nil {
			log.Error().
				Err(err).
				Str("kind", string(msg.Kind)).
				Str("to", msg.To).
				Msg("notification send failed")
		}
		cancel()
	}
}

func (d *Dispatcher) Dispatch(msg Message) {
	select {
	case d.queue <- msg:
	default:
		log.Warn().
			Str("kind", string(msg.Kind)).
			Msg("notify queue full, dropping message")
	}
}
