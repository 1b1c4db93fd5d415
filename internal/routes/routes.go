package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/horacerta/agenda-scheduler/internal/audit"
	"github.com/horacerta/agenda-scheduler/internal/calendar"
	"github.com/horacerta/agenda-scheduler/internal/config"
	"github.com/horacerta/agenda-scheduler/internal/handlers"
	infraRepo "github.com/horacerta/agenda-scheduler/internal/infra/repository"
	"github.com/horacerta/agenda-scheduler/internal/infra/slotlock"
	"github.com/horacerta/agenda-scheduler/internal/middleware"
	"github.com/horacerta/agenda-scheduler/internal/notify"
	"github.com/horacerta/agenda-scheduler/internal/ratelimit"
	ucBooking "github.com/horacerta/agenda-scheduler/internal/usecase/booking"
	ucWaitlist "github.com/horacerta/agenda-scheduler/internal/usecase/waitlist"
)

type Deps struct {
	DB       *gorm.DB
	Config   *config.Config
	Locker   slotlock.Locker
	Gateway  calendar.Gateway
	Notifier *notify.Dispatcher
}

// RegisterRoutes monta toda a cadeia: repo → use cases → handlers.
// Retorna o use case de cancelamento para o reconciliador reutilizar.
func RegisterRoutes(r *gin.Engine, d Deps) *ucBooking.CancelBooking {

	// ======================================================
	// MIDDLEWARE GLOBAL
	// ======================================================
	r.Use(middleware.CORSMiddleware())

	// ======================================================
	// INFRA (SINGLETONS)
	// ======================================================
	bookingRepo := infraRepo.NewBookingGormRepository(d.DB)

	auditLogger := audit.New(d.DB)
	auditDispatcher := audit.NewDispatcher(auditLogger)

	publicLimiter := ratelimit.New(ratelimit.DefaultConfig())

	// ======================================================
	// USE CASES
	// ======================================================
	offerUC := ucWaitlist.NewOfferFreedSlot(
		bookingRepo,
		d.Notifier,
		auditDispatcher,
	)

	availabilityUC := ucBooking.NewGetAvailability(
		bookingRepo,
		d.Gateway,
	)

	createUC := ucBooking.NewCreateBooking(
		bookingRepo,
		d.Locker,
		d.Gateway,
		d.Notifier,
		auditDispatcher,
	)

	cancelUC := ucBooking.NewCancelBooking(
		bookingRepo,
		d.Locker,
		offerUC,
		d.Notifier,
		auditDispatcher,
	)

	rescheduleUC := ucBooking.NewRescheduleBooking(
		bookingRepo,
		createUC,
		cancelUC,
		d.Notifier,
		auditDispatcher,
	)

	listByDateUC := ucBooking.NewListBookingsByDate(bookingRepo)

	// ======================================================
	// HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(d.DB, d.Config)
	meHandler := handlers.NewMeHandler(d.DB)
	businessHandler := handlers.NewBusinessHandler(d.DB)
	serviceHandler := handlers.NewServiceHandler(d.DB)
	workingHoursHandler := handlers.NewWorkingHoursHandler(d.DB)
	auditLogsHandler := handlers.NewAuditLogsHandler(d.DB)

	publicHandler := handlers.NewPublicHandler(
		d.DB,
		availabilityUC,
		createUC,
		cancelUC,
		rescheduleUC,
		publicLimiter,
	)

	bookingHandler := handlers.NewBookingHandler(
		d.DB,
		listByDateUC,
		cancelUC,
	)

	// ======================================================
	// OBSERVABILIDADE
	// ======================================================
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// API PÚBLICA (cliente final)
		// ------------------------------
		publicAPI := api.Group("/public")
		{
			publicAPI.GET("/:slug/services", publicHandler.ListServices)
			publicAPI.GET("/:slug/availability", publicHandler.Availability)
			publicAPI.POST("/:slug/bookings", publicHandler.CreateBooking)

			publicAPI.POST("/bookings/:publicId/cancel", publicHandler.CancelBooking)
			publicAPI.POST("/bookings/:publicId/reschedule", publicHandler.RescheduleBooking)
		}

		// ------------------------------
		// AUTH
		// ------------------------------
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		// ------------------------------
		// API PRIVADA (dono)
		// ------------------------------
		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(d.Config))
		{
			secured.GET("/me", meHandler.GetMe)

			secured.GET("/me/business", businessHandler.GetMeBusiness)
			secured.PATCH("/me/business", businessHandler.UpdateMeBusiness)

			secured.GET("/me/services", serviceHandler.List)
			secured.POST("/me/services", serviceHandler.Create)
			secured.PATCH("/me/services/:id", serviceHandler.Update)

			secured.GET("/me/working-hours", workingHoursHandler.Get)
			secured.PUT("/me/working-hours", workingHoursHandler.Update)

			// ------------------------------
			// BOOKINGS
			// ------------------------------
			secured.GET("/me/bookings", bookingHandler.ListByDate)
			secured.PATCH("/me/bookings/:id/cancel", bookingHandler.Cancel)

			secured.GET("/me/audit-logs", auditLogsHandler.List)
		}
	}

	return cancelUC
}
