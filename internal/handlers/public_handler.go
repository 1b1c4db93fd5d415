package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	domain "github.com/horacerta/agenda-scheduler/internal/domain/booking"
	"github.com/horacerta/agenda-scheduler/internal/httperr"
	"github.com/horacerta/agenda-scheduler/internal/models"
	"github.com/horacerta/agenda-scheduler/internal/ratelimit"
	ucbooking "github.com/horacerta/agenda-scheduler/internal/usecase/booking"
)

////////////////////////////////////////////////////////
// HANDLER
////////////////////////////////////////////////////////

type PublicHandler struct {
	db           *gorm.DB
	availability *ucbooking.GetAvailability
	create       *ucbooking.CreateBooking
	cancel       *ucbooking.CancelBooking
	reschedule   *ucbooking.RescheduleBooking
	authorizer   ucbooking.ClientAuthorizer
	limiter      *ratelimit.Limiter
}

func NewPublicHandler(
	db *gorm.DB,
	availability *ucbooking.GetAvailability,
	create *ucbooking.CreateBooking,
	cancel *ucbooking.CancelBooking,
	reschedule *ucbooking.RescheduleBooking,
	limiter *ratelimit.Limiter,
) *PublicHandler {
	return &PublicHandler{
		db:           db,
		availability: availability,
		create:       create,
		cancel:       cancel,
		reschedule:   reschedule,
		authorizer:   ucbooking.PossessionAuthorizer{},
		limiter:      limiter,
	}
}

// checkRateLimit devolve false (e já responde 429) quando a escrita
// pública estoura o limite.
func (h *PublicHandler) checkRateLimit(c *gin.Context, phone string) bool {
	res := h.limiter.Check(phone, c.ClientIP())
	if res.Allowed {
		return true
	}
	c.Header("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())))
	httperr.TooManyRequests(c, "rate_limited", "Muitas tentativas. Aguarde um pouco.")
	return false
}

////////////////////////////////////////////////////////
// DTOs
////////////////////////////////////////////////////////

type PublicCreateBookingRequest struct {
	ClientName   string `json:"client_name" binding:"required"`
	ClientPhone  string `json:"client_phone" binding:"required"`
	ServiceID    uint   `json:"service_id" binding:"required"`
	Date         string `json:"date" binding:"required"` // YYYY-MM-DD
	Time         string `json:"time" binding:"required"` // HH:mm
	Notes        string `json:"notes"`
	JoinWaitlist bool   `json:"join_waitlist"`
}

type PublicRescheduleRequest struct {
	ClientPhone string `json:"client_phone" binding:"required"`
	ServiceID   uint   `json:"service_id" binding:"required"`
	Date        string `json:"date" binding:"required"`
	Time        string `json:"time" binding:"required"`
	Notes       string `json:"notes"`
}

////////////////////////////////////////////////////////
// SERVICES
////////////////////////////////////////////////////////

func (h *PublicHandler) ListServices(c *gin.Context) {
	slug := c.Param("slug")

	var biz models.Business
	if err := h.db.Where("slug = ?", slug).First(&biz).Error; err != nil {
		httperr.NotFound(c, httperr.CodeBusinessNotFound, "Negócio não encontrado.")
		return
	}

	var services []models.Service
	if err := h.db.
		Where("business_id = ? AND active = true", biz.ID).
		Order("id ASC").
		Find(&services).Error; err != nil {
		httperr.Internal(c, "failed_to_list_services", "Erro ao listar serviços.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"business": biz,
		"services": services,
	})
}

////////////////////////////////////////////////////////
// AVAILABILITY
////////////////////////////////////////////////////////

func (h *PublicHandler) Availability(c *gin.Context) {
	slug := c.Param("slug")
	dateStr := c.Query("date")
	serviceIDStr := c.Query("service_id")

	if dateStr == "" || serviceIDStr == "" {
		httperr.BadRequest(c, "missing_params", "Data e serviço obrigatórios.")
		return
	}

	serviceID, err := strconv.ParseUint(serviceIDStr, 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_service_id", "Serviço inválido.")
		return
	}

	var biz models.Business
	if err := h.db.Where("slug = ?", slug).First(&biz).Error; err != nil {
		httperr.NotFound(c, httperr.CodeBusinessNotFound, "Negócio não encontrado.")
		return
	}

	date, err := parseDateInBusiness(&biz, dateStr)
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "Data inválida.")
		return
	}

	slots, err := h.availability.Execute(
		c.Request.Context(),
		domain.AvailabilityInput{
			BusinessID: biz.ID,
			ServiceID:  uint(serviceID),
			Date:       date,
		},
	)
	if err != nil {
		mapBookingError(c, err)
		return
	}

	// contrato público: lista de horários HH:MM
	starts := make([]string, 0, len(slots))
	for _, s := range slots {
		starts = append(starts, s.Start)
	}

	c.JSON(http.StatusOK, gin.H{
		"date":  dateStr,
		"slots": starts,
	})
}

////////////////////////////////////////////////////////
// CREATE
////////////////////////////////////////////////////////

func (h *PublicHandler) CreateBooking(c *gin.Context) {
	slug := c.Param("slug")

	var biz models.Business
	if err := h.db.Where("slug = ?", slug).First(&biz).Error; err != nil {
		httperr.NotFound(c, httperr.CodeBusinessNotFound, "Negócio não encontrado.")
		return
	}

	var req PublicCreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	if !h.checkRateLimit(c, req.ClientPhone) {
		return
	}

	b, err := h.create.Execute(
		c.Request.Context(),
		ucbooking.CreateBookingInput{
			BusinessID:   biz.ID,
			ClientName:   req.ClientName,
			ClientPhone:  req.ClientPhone,
			ServiceID:    req.ServiceID,
			Date:         req.Date,
			Time:         req.Time,
			Notes:        req.Notes,
			JoinWaitlist: req.JoinWaitlist,
		},
	)
	if err != nil {
		mapBookingError(c, err)
		return
	}

	h.limiter.Record(req.ClientPhone, c.ClientIP())

	c.JSON(http.StatusCreated, b)
}

////////////////////////////////////////////////////////
// CANCEL (por posse do public id)
////////////////////////////////////////////////////////

func (h *PublicHandler) CancelBooking(c *gin.Context) {
	publicID := c.Param("publicId")

	var b models.Booking
	if err := h.db.Where("public_id = ?", publicID).First(&b).Error; err != nil {
		httperr.NotFound(c, httperr.CodeBookingNotFound, "Agendamento não encontrado.")
		return
	}

	if err := h.authorizer.Authorize(&b, publicID); err != nil {
		httperr.Forbidden(c, "not_allowed", "Cancelamento não autorizado.")
		return
	}

	cancelled, err := h.cancel.Execute(
		c.Request.Context(),
		b.ID,
		ucbooking.Actor{Client: true},
		"Cancelado pelo cliente",
	)
	if err != nil {
		mapBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"cancelled_at": cancelled.CancelledAt,
	})
}

////////////////////////////////////////////////////////
// RESCHEDULE
////////////////////////////////////////////////////////

func (h *PublicHandler) RescheduleBooking(c *gin.Context) {
	publicID := c.Param("publicId")

	var req PublicRescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	if !h.checkRateLimit(c, req.ClientPhone) {
		return
	}

	b, err := h.reschedule.Execute(
		c.Request.Context(),
		ucbooking.RescheduleInput{
			OldPublicID: publicID,
			ServiceID:   req.ServiceID,
			Date:        req.Date,
			Time:        req.Time,
			Notes:       req.Notes,
			ClientPhone: req.ClientPhone,
		},
	)
	if err != nil {
		mapBookingError(c, err)
		return
	}

	h.limiter.Record(req.ClientPhone, c.ClientIP())

	c.JSON(http.StatusCreated, b)
}
