package booking

import (
	"context"
	"time"

	"github.com/horacerta/agenda-scheduler/internal/models"
)

type Repository interface {
	// -------- Business --------
	GetBusinessByID(
		ctx context.Context,
		id uint,
	) (*models.Business, error)

	GetBusinessBySlug(
		ctx context.Context,
		slug string,
	) (*models.Business, error)

	// -------- Service --------
	GetService(
		ctx context.Context,
		businessID uint,
		serviceID uint,
	) (*models.Service, error)

	// -------- Working hours --------
	GetWorkingHours(
		ctx context.Context,
		businessID uint,
		weekday int,
	) (*models.WorkingHours, error)

	// -------- Bookings (read) --------
	ListScheduledForDay(
		ctx context.Context,
		businessID uint,
		dayStart time.Time,
		dayEnd time.Time,
	) ([]models.Booking, error)

	ListBookingsForPeriod(
		ctx context.Context,
		businessID uint,
		start time.Time,
		end time.Time,
	) ([]models.Booking, error)

	GetBookingByID(
		ctx context.Context,
		bookingID uint,
	) (*models.Booking, error)

	GetBookingByPublicID(
		ctx context.Context,
		publicID string,
	) (*models.Booking, error)

	GetBookingForBusiness(
		ctx context.Context,
		bookingID uint,
		businessID uint,
	) (*models.Booking, error)

	// -------- Bookings (write, atômico) --------

	// CreateBookingGuarded roda a checagem de conflito e o insert num
	// único read-modify-write: os bookings do dia são lidos com
	// FOR UPDATE e o filtro de conflito avaliado dentro da transação.
	// entry, quando não nil, entra na mesma transação (join waitlist).
	CreateBookingGuarded(
		ctx context.Context,
		b *models.Booking,
		busy []Interval,
		excludeBookingID uint,
		entry *models.WaitlistEntry,
	) error

	// CancelBooking relê o booking com FOR UPDATE, aplica a transição
	// de domínio (guarda already_cancelled) e persiste, tudo numa
	// transação.
	CancelBooking(
		ctx context.Context,
		bookingID uint,
		now time.Time,
		reason string,
	) (*models.Booking, error)

	SetExternalEventID(
		ctx context.Context,
		bookingID uint,
		eventID string,
	) error

	// -------- Waitlist --------

	// OfferNextWaitlistEntry seleciona a entrada ativa mais antiga do
	// dia (FIFO por created_at) com FOR UPDATE e a move para offered.
	// Retorna nil quando não há candidata.
	OfferNextWaitlistEntry(
		ctx context.Context,
		businessID uint,
		dayStart time.Time,
		dayEnd time.Time,
	) (*models.WaitlistEntry, error)

	// -------- Reconciliação --------
	ListBookingsMissingEvent(
		ctx context.Context,
		limit int,
	) ([]models.Booking, error)

	ListCleanupPending(
		ctx context.Context,
		limit int,
	) ([]models.Booking, error)

	MarkCleanupPending(
		ctx context.Context,
		bookingID uint,
	) error

	ClearCleanupPending(
		ctx context.Context,
		bookingID uint,
	) error
}
