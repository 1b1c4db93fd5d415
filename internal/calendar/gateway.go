package calendar

import (
	"context"
	"errors"
	"time"

	domain "github.com/horacerta/agenda-scheduler/internal/domain/booking"
	"github.com/horacerta/agenda-scheduler/internal/models"
)

// O core trata o calendário externo só como oráculo de ocupação e
// destino de eventos. Falha aqui nunca derruba a operação pai: a
// disponibilidade degrada para "só bookings internos" e o push de
// evento fica pendente para o reconciliador.

// ErrNoCredential indica negócio sem refresh token conectado. É uma
// condição distinguível (não um crash): o chamador degrada e segue.
var ErrNoCredential = errors.New("calendar: missing refresh credential")

type Gateway interface {
	// GetBusyIntervals consulta os intervalos ocupados do calendário
	// do negócio dentro da janela [windowStart, windowEnd].
	GetBusyIntervals(
		ctx context.Context,
		biz *models.Business,
		windowStart time.Time,
		windowEnd time.Time,
	) ([]domain.Interval, error)

	// PushEvent cria o evento correspondente ao booking e devolve o
	// identificador externo para correlação posterior.
	PushEvent(
		ctx context.Context,
		biz *models.Business,
		b *models.Booking,
	) (string, error)
}
