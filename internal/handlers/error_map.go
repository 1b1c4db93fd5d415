package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/horacerta/agenda-scheduler/internal/httperr"
)

// Mapeia erros de negócio para código estável + mensagem humana.
// Nada de detalhe interno (banco, integração) vaza para o cliente.
func mapBookingError(c *gin.Context, err error) {
	code, ok := httperr.BusinessCode(err)
	if !ok {
		httperr.Internal(c, "internal_error", "Erro interno. Tente novamente.")
		return
	}

	switch code {
	case httperr.CodeSlotConflict:
		httperr.Conflict(c, code, "Esse horário acabou de ser ocupado. Escolha outro.")
	case httperr.CodeAlreadyCancelled:
		httperr.Conflict(c, code, "Esse agendamento já foi cancelado.")
	case httperr.CodeClosedDay:
		httperr.BadRequest(c, code, "O negócio não abre nesse dia.")
	case httperr.CodeOutsideWorkingHours:
		httperr.BadRequest(c, code, "Fora do horário de atendimento.")
	case httperr.CodeTooSoon:
		httperr.BadRequest(c, code, "Horário muito em cima da hora.")
	case httperr.CodePhoneMismatch:
		httperr.Forbidden(c, code, "Use o mesmo telefone do agendamento original.")
	case httperr.CodeBusinessNotFound:
		httperr.NotFound(c, code, "Negócio não encontrado.")
	case httperr.CodeServiceNotFound:
		httperr.NotFound(c, code, "Serviço não encontrado.")
	case httperr.CodeBookingNotFound:
		httperr.NotFound(c, code, "Agendamento não encontrado.")
	case "invalid_date_or_time":
		httperr.BadRequest(c, code, "Data ou hora inválida.")
	default:
		httperr.BadRequest(c, code, "Requisição inválida.")
	}
}
