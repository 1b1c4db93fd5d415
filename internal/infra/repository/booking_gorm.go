package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/horacerta/agenda-scheduler/internal/domain/booking"
	"github.com/horacerta/agenda-scheduler/internal/httperr"
	"github.com/horacerta/agenda-scheduler/internal/models"
)

type BookingGormRepository struct {
	db *gorm.DB
}

func NewBookingGormRepository(db *gorm.DB) *BookingGormRepository {
	return &BookingGormRepository{db: db}
}

// --------------------------------------------------
// Business
// --------------------------------------------------

func (r *BookingGormRepository) GetBusinessByID(
	ctx context.Context,
	id uint,
) (*models.Business, error) {

	var biz models.Business
	if err := r.db.WithContext(ctx).First(&biz, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.ErrBusiness(httperr.CodeBusinessNotFound)
		}
		return nil, err
	}
	return &biz, nil
}

func (r *BookingGormRepository) GetBusinessBySlug(
	ctx context.Context,
	slug string,
) (*models.Business, error) {

	var biz models.Business
	if err := r.db.WithContext(ctx).
		Where("slug = ?", slug).
		First(&biz).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.ErrBusiness(httperr.CodeBusinessNotFound)
		}
		return nil, err
	}
	return &biz, nil
}

// --------------------------------------------------
// Service
// --------------------------------------------------

func (r *BookingGormRepository) GetService(
	ctx context.Context,
	businessID uint,
	serviceID uint,
) (*models.Service, error) {

	var svc models.Service
	if err := r.db.WithContext(ctx).
		Where("id = ? AND business_id = ? AND active = true", serviceID, businessID).
		First(&svc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.ErrBusiness(httperr.CodeServiceNotFound)
		}
		return nil, err
	}
	return &svc, nil
}

// --------------------------------------------------
// Working hours
// --------------------------------------------------

func (r *BookingGormRepository) GetWorkingHours(
	ctx context.Context,
	businessID uint,
	weekday int,
) (*models.WorkingHours, error) {

	var wh models.WorkingHours
	if err := r.db.WithContext(ctx).
		Where("business_id = ? AND weekday = ?", businessID, weekday).
		First(&wh).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// dia sem registro = fechado, não é erro
			return nil, nil
		}
		return nil, err
	}

	return &wh, nil
}

// --------------------------------------------------
// Bookings (read)
// --------------------------------------------------

func (r *BookingGormRepository) ListScheduledForDay(
	ctx context.Context,
	businessID uint,
	dayStart time.Time,
	dayEnd time.Time,
) ([]models.Booking, error) {

	return r.listScheduledForDay(r.db.WithContext(ctx), businessID, dayStart, dayEnd, false)
}

func (r *BookingGormRepository) listScheduledForDay(
	tx *gorm.DB,
	businessID uint,
	dayStart time.Time,
	dayEnd time.Time,
	forUpdate bool,
) ([]models.Booking, error) {

	q := tx.
		Where(
			"business_id = ? AND status = 'scheduled' AND start_time >= ? AND start_time <= ?",
			businessID, dayStart, dayEnd,
		).
		Order("start_time ASC")

	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var rows []models.Booking
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *BookingGormRepository) ListBookingsForPeriod(
	ctx context.Context,
	businessID uint,
	start time.Time,
	end time.Time,
) ([]models.Booking, error) {

	var rows []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Service").
		Where(
			"business_id = ? AND start_time >= ? AND start_time < ?",
			businessID, start, end,
		).
		Order("start_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *BookingGormRepository) GetBookingByID(
	ctx context.Context,
	bookingID uint,
) (*models.Booking, error) {

	var b models.Booking
	if err := r.db.WithContext(ctx).
		Preload("Service").
		First(&b, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.ErrBusiness(httperr.CodeBookingNotFound)
		}
		return nil, err
	}

	return &b, nil
}

func (r *BookingGormRepository) GetBookingByPublicID(
	ctx context.Context,
	publicID string,
) (*models.Booking, error) {

	var b models.Booking
	if err := r.db.WithContext(ctx).
		Preload("Business").
		Preload("Service").
		Where("public_id = ?", publicID).
		First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.ErrBusiness(httperr.CodeBookingNotFound)
		}
		return nil, err
	}

	return &b, nil
}

func (r *BookingGormRepository) GetBookingForBusiness(
	ctx context.Context,
	bookingID uint,
	businessID uint,
) (*models.Booking, error) {

	var b models.Booking
	if err := r.db.WithContext(ctx).
		Preload("Service").
		Where("id = ? AND business_id = ?", bookingID, businessID).
		First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.ErrBusiness(httperr.CodeBookingNotFound)
		}
		return nil, err
	}

	return &b, nil
}

// --------------------------------------------------
// Bookings (write)
// --------------------------------------------------

// CreateBookingGuarded é a checagem autoritativa: dentro de uma única
// transação, tranca os bookings agendados do dia (FOR UPDATE), roda o
// mesmo filtro de conflito do caminho de leitura e só então insere. A
// disponibilidade mostrada ao cliente é sempre consultiva; quem decide
// é este caminho.
func (r *BookingGormRepository) CreateBookingGuarded(
	ctx context.Context,
	b *models.Booking,
	busy []domain.Interval,
	excludeBookingID uint,
	entry *models.WaitlistEntry,
) error {

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dayStart := time.Date(
			b.StartTime.Year(), b.StartTime.Month(), b.StartTime.Day(),
			0, 0, 0, 0, b.StartTime.Location(),
		)
		dayEnd := dayStart.Add(24 * time.Hour)

		existing, err := r.listScheduledForDay(tx, b.BusinessID, dayStart, dayEnd, true)
		if err != nil {
			return err
		}

		iv := domain.Interval{Start: b.StartTime, End: b.EndTime}
		if domain.HasConflict(iv, existing, busy, excludeBookingID) {
			return httperr.ErrBusiness(httperr.CodeSlotConflict)
		}

		if err := tx.Create(b).Error; err != nil {
			return err
		}

		if entry != nil {
			entry.LinkedBookingID = &b.ID
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *BookingGormRepository) CancelBooking(
	ctx context.Context,
	bookingID uint,
	now time.Time,
	reason string,
) (*models.Booking, error) {

	var cancelled *models.Booking

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b models.Booking
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&b, bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return httperr.ErrBusiness(httperr.CodeBookingNotFound)
			}
			return err
		}

		if err := domain.Cancel(&b, now, reason); err != nil {
			return err
		}

		if err := tx.Save(&b).Error; err != nil {
			return err
		}

		cancelled = &b
		return nil
	})
	if err != nil {
		return nil, err
	}

	return cancelled, nil
}

func (r *BookingGormRepository) SetExternalEventID(
	ctx context.Context,
	bookingID uint,
	eventID string,
) error {

	return r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", bookingID).
		Update("external_event_id", eventID).Error
}

// --------------------------------------------------
// Waitlist
// --------------------------------------------------

// OfferNextWaitlistEntry faz seleção e transição na mesma transação:
// a entrada ativa mais antiga do dia é trancada com FOR UPDATE antes
// de virar offered, então dois cancelamentos simultâneos nunca ofertam
// a mesma entrada.
func (r *BookingGormRepository) OfferNextWaitlistEntry(
	ctx context.Context,
	businessID uint,
	dayStart time.Time,
	dayEnd time.Time,
) (*models.WaitlistEntry, error) {

	var offered *models.WaitlistEntry

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.WaitlistEntry
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(
				"business_id = ? AND status = 'active' AND desired_date >= ? AND desired_date <= ?",
				businessID, dayStart, dayEnd,
			).
			Order("created_at ASC").
			First(&entry).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// sem candidata: no-op
				return nil
			}
			return err
		}

		entry.Status = string(domain.WaitlistOffered)
		if err := tx.Save(&entry).Error; err != nil {
			return err
		}

		offered = &entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	return offered, nil
}

// --------------------------------------------------
// Reconciliação
// --------------------------------------------------

func (r *BookingGormRepository) ListBookingsMissingEvent(
	ctx context.Context,
	limit int,
) ([]models.Booking, error) {

	var rows []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Business").
		Preload("Service").
		Where("status = 'scheduled' AND external_event_id IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *BookingGormRepository) ListCleanupPending(
	ctx context.Context,
	limit int,
) ([]models.Booking, error) {

	var rows []models.Booking
	err := r.db.WithContext(ctx).
		Where("cleanup_pending = true").
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *BookingGormRepository) MarkCleanupPending(
	ctx context.Context,
	bookingID uint,
) error {

	return r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", bookingID).
		Update("cleanup_pending", true).Error
}

func (r *BookingGormRepository) ClearCleanupPending(
	ctx context.Context,
	bookingID uint,
) error {

	return r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", bookingID).
		Update("cleanup_pending", false).Error
}

// Compile-time check
var _ domain.Repository = (*BookingGormRepository)(nil)
