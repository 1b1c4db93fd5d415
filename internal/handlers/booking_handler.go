package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/horacerta/agenda-scheduler/internal/httperr"
	"github.com/horacerta/agenda-scheduler/internal/httpresp"
	"github.com/horacerta/agenda-scheduler/internal/middleware"
	"github.com/horacerta/agenda-scheduler/internal/models"
	ucbooking "github.com/horacerta/agenda-scheduler/internal/usecase/booking"
)

// ======================================================
// HANDLER (lado do dono)
// ======================================================

type BookingHandler struct {
	db     *gorm.DB
	list   *ucbooking.ListBookingsByDate
	cancel *ucbooking.CancelBooking
}

func NewBookingHandler(
	db *gorm.DB,
	list *ucbooking.ListBookingsByDate,
	cancel *ucbooking.CancelBooking,
) *BookingHandler {
	return &BookingHandler{
		db:     db,
		list:   list,
		cancel: cancel,
	}
}

// ======================================================
// LIST (agenda do dia)
// ======================================================

func (h *BookingHandler) ListByDate(c *gin.Context) {
	businessID := c.MustGet(middleware.ContextBusinessID).(uint)

	dateStr := c.Query("date")
	if dateStr == "" {
		httperr.BadRequest(c, "missing_date", "Data obrigatória.")
		return
	}

	var biz models.Business
	if err := h.db.First(&biz, businessID).Error; err != nil {
		httperr.Internal(c, httperr.CodeBusinessNotFound, "Negócio não encontrado.")
		return
	}

	date, err := parseDateInBusiness(&biz, dateStr)
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "Data inválida.")
		return
	}

	out, err := h.list.Execute(c.Request.Context(), businessID, date)
	if err != nil {
		httperr.Internal(c, "failed_to_list_bookings", "Erro ao listar agendamentos.")
		return
	}

	httpresp.List(c, out)
}

// ======================================================
// CANCEL (dono cancela qualquer booking do próprio negócio)
// ======================================================

func (h *BookingHandler) Cancel(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)
	businessID := c.MustGet(middleware.ContextBusinessID).(uint)

	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_booking_id", "Identificador inválido.")
		return
	}

	// autorização: o booking tem que pertencer ao negócio do dono
	var b models.Booking
	if err := h.db.
		Where("id = ? AND business_id = ?", bookingID, businessID).
		First(&b).Error; err != nil {
		httperr.NotFound(c, httperr.CodeBookingNotFound, "Agendamento não encontrado.")
		return
	}

	cancelled, err := h.cancel.Execute(
		c.Request.Context(),
		b.ID,
		ucbooking.Actor{UserID: &userID},
		"Cancelado pelo estabelecimento",
	)
	if err != nil {
		mapBookingError(c, err)
		return
	}

	httpresp.OK(c, cancelled)
}
