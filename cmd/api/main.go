package main

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/horacerta/agenda-scheduler/internal/calendar"
	"github.com/horacerta/agenda-scheduler/internal/config"
	dbpkg "github.com/horacerta/agenda-scheduler/internal/db"
	infraRepo "github.com/horacerta/agenda-scheduler/internal/infra/repository"
	"github.com/horacerta/agenda-scheduler/internal/infra/slotlock"
	"github.com/horacerta/agenda-scheduler/internal/jobs"
	"github.com/horacerta/agenda-scheduler/internal/notify"
	"github.com/horacerta/agenda-scheduler/internal/routes"
)

func main() {

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()
	db := dbpkg.NewDB(cfg)

	// ======================================================
	// INFRA EXTERNA
	// ======================================================
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	locker := slotlock.NewRedisLocker(redisClient)

	gateway := calendar.NewGoogleGateway(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.CalendarTimeout,
	)

	sender := notify.NewWhatsAppSender(cfg.WhatsAppToken, cfg.WhatsAppPhoneNumberID)
	notifier := notify.NewDispatcher(sender)

	// ======================================================
	// HTTP
	// ======================================================
	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	cancelUC := routes.RegisterRoutes(r, routes.Deps{
		DB:       db,
		Config:   cfg,
		Locker:   locker,
		Gateway:  gateway,
		Notifier: notifier,
	})

	// ======================================================
	// JOBS DE FUNDO
	// ======================================================
	reconciler := jobs.NewReconciler(
		infraRepo.NewBookingGormRepository(db),
		gateway,
		cancelUC,
	)
	if _, err := reconciler.Start(cfg.ReconcileInterval); err != nil {
		log.Fatal().Err(err).Msg("failed to start reconciler")
	}

	log.Info().Str("addr", cfg.Addr()).Msg("server running")
	if err := r.Run(cfg.Addr()); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
