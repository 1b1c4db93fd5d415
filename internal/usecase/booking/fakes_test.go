package booking

import (
	"context"
	"sync"
	"time"

	"github.com/horacerta/agenda-scheduler/internal/audit"
	"github.com/horacerta/agenda-scheduler/internal/calendar"
	domain "github.com/horacerta/agenda-scheduler/internal/domain/booking"
	"github.com/horacerta/agenda-scheduler/internal/httperr"
	"github.com/horacerta/agenda-scheduler/internal/models"
	"github.com/horacerta/agenda-scheduler/internal/notify"
	"github.com/horacerta/agenda-scheduler/internal/timezone"
)

// ======================================================
// FAKE REPOSITORY
// ======================================================
// Em memória, com a mesma semântica do repositório real: a checagem
// de conflito roda dentro do "write" e usa o mesmo filtro de domínio.

type fakeRepo struct {
	mu sync.Mutex

	business *models.Business
	service  *models.Service
	hours    map[int]*models.WorkingHours

	bookings []models.Booking
	waitlist []models.WaitlistEntry
	nextID   uint

	cancelErr      error
	offerErr       error
	cleanupMarked  []uint
	cleanupCleared []uint
}

var _ domain.Repository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		business: &models.Business{
			ID:       1,
			Name:     "Barbearia Central",
			Slug:     "barbearia-central",
			Timezone: timezone.DefaultTimezone,
		},
		service: &models.Service{
			ID:          10,
			BusinessID:  1,
			Name:        "Corte",
			DurationMin: 60,
			Active:      true,
		},
		hours:  map[int]*models.WorkingHours{},
		nextID: 100,
	}
}

func (r *fakeRepo) setHours(weekday, openMin, closeMin int) {
	r.hours[weekday] = &models.WorkingHours{
		BusinessID:  1,
		Weekday:     weekday,
		OpenMinute:  openMin,
		CloseMinute: closeMin,
		Active:      true,
	}
}

func (r *fakeRepo) addBooking(b models.Booking) uint {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	b.ID = r.nextID
	if b.BusinessID == 0 {
		b.BusinessID = 1
	}
	if b.Status == "" {
		b.Status = string(domain.StatusScheduled)
	}
	r.bookings = append(r.bookings, b)
	return b.ID
}

func (r *fakeRepo) addWaitlistEntry(e models.WaitlistEntry) uint {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	e.ID = r.nextID
	if e.BusinessID == 0 {
		e.BusinessID = 1
	}
	if e.Status == "" {
		e.Status = string(domain.WaitlistActive)
	}
	r.waitlist = append(r.waitlist, e)
	return e.ID
}

func (r *fakeRepo) bookingByID(id uint) *models.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.bookings {
		if r.bookings[i].ID == id {
			b := r.bookings[i]
			return &b
		}
	}
	return nil
}

func (r *fakeRepo) waitlistByID(id uint) *models.WaitlistEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.waitlist {
		if r.waitlist[i].ID == id {
			e := r.waitlist[i]
			return &e
		}
	}
	return nil
}

func (r *fakeRepo) countWaitlist(status string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for i := range r.waitlist {
		if r.waitlist[i].Status == status {
			n++
		}
	}
	return n
}

func (r *fakeRepo) countBookings(status string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for i := range r.bookings {
		if r.bookings[i].Status == status {
			n++
		}
	}
	return n
}

// -------- domain.Repository --------

func (r *fakeRepo) GetBusinessByID(ctx context.Context, id uint) (*models.Business, error) {
	if r.business == nil || r.business.ID != id {
		return nil, httperr.ErrBusiness(httperr.CodeBusinessNotFound)
	}
	biz := *r.business
	return &biz, nil
}

func (r *fakeRepo) GetBusinessBySlug(ctx context.Context, slug string) (*models.Business, error) {
	if r.business == nil || r.business.Slug != slug {
		return nil, httperr.ErrBusiness(httperr.CodeBusinessNotFound)
	}
	biz := *r.business
	return &biz, nil
}

func (r *fakeRepo) GetService(ctx context.Context, businessID, serviceID uint) (*models.Service, error) {
	if r.service == nil || r.service.ID != serviceID || r.service.BusinessID != businessID {
		return nil, httperr.ErrBusiness(httperr.CodeServiceNotFound)
	}
	svc := *r.service
	return &svc, nil
}

func (r *fakeRepo) GetWorkingHours(ctx context.Context, businessID uint, weekday int) (*models.WorkingHours, error) {
	wh, ok := r.hours[weekday]
	if !ok {
		return nil, nil
	}
	cp := *wh
	return &cp, nil
}

func (r *fakeRepo) ListScheduledForDay(ctx context.Context, businessID uint, dayStart, dayEnd time.Time) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scheduledForDayLocked(businessID, dayStart, dayEnd), nil
}

func (r *fakeRepo) scheduledForDayLocked(businessID uint, dayStart, dayEnd time.Time) []models.Booking {
	var out []models.Booking
	for i := range r.bookings {
		b := r.bookings[i]
		if b.BusinessID != businessID || b.Status != string(domain.StatusScheduled) {
			continue
		}
		if b.StartTime.Before(dayStart) || b.StartTime.After(dayEnd) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func (r *fakeRepo) ListBookingsForPeriod(ctx context.Context, businessID uint, start, end time.Time) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Booking
	for i := range r.bookings {
		b := r.bookings[i]
		if b.BusinessID == businessID && !b.StartTime.Before(start) && !b.StartTime.After(end) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetBookingByID(ctx context.Context, bookingID uint) (*models.Booking, error) {
	if b := r.bookingByID(bookingID); b != nil {
		return b, nil
	}
	return nil, httperr.ErrBusiness(httperr.CodeBookingNotFound)
}

func (r *fakeRepo) GetBookingByPublicID(ctx context.Context, publicID string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.bookings {
		if r.bookings[i].PublicID == publicID {
			b := r.bookings[i]
			return &b, nil
		}
	}
	return nil, httperr.ErrBusiness(httperr.CodeBookingNotFound)
}

func (r *fakeRepo) GetBookingForBusiness(ctx context.Context, bookingID, businessID uint) (*models.Booking, error) {
	b := r.bookingByID(bookingID)
	if b == nil || b.BusinessID != businessID {
		return nil, httperr.ErrBusiness(httperr.CodeBookingNotFound)
	}
	return b, nil
}

func (r *fakeRepo) CreateBookingGuarded(
	ctx context.Context,
	b *models.Booking,
	busy []domain.Interval,
	excludeBookingID uint,
	entry *models.WaitlistEntry,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dayStart := timezone.StartOfDay(b.StartTime)
	dayEnd := timezone.EndOfDay(b.StartTime)

	scheduled := r.scheduledForDayLocked(b.BusinessID, dayStart, dayEnd)
	if domain.HasConflict(domain.BookedInterval(b), scheduled, busy, excludeBookingID) {
		return httperr.ErrBusiness(httperr.CodeSlotConflict)
	}

	r.nextID++
	b.ID = r.nextID
	r.bookings = append(r.bookings, *b)

	if entry != nil {
		r.nextID++
		entry.ID = r.nextID
		entry.CreatedAt = time.Now()
		r.waitlist = append(r.waitlist, *entry)
	}
	return nil
}

func (r *fakeRepo) CancelBooking(ctx context.Context, bookingID uint, now time.Time, reason string) (*models.Booking, error) {
	if r.cancelErr != nil {
		return nil, r.cancelErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.bookings {
		if r.bookings[i].ID != bookingID {
			continue
		}
		if err := domain.Cancel(&r.bookings[i], now, reason); err != nil {
			return nil, err
		}
		b := r.bookings[i]
		return &b, nil
	}
	return nil, httperr.ErrBusiness(httperr.CodeBookingNotFound)
}

func (r *fakeRepo) SetExternalEventID(ctx context.Context, bookingID uint, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.bookings {
		if r.bookings[i].ID == bookingID {
			r.bookings[i].ExternalEventID = &eventID
			return nil
		}
	}
	return httperr.ErrBusiness(httperr.CodeBookingNotFound)
}

func (r *fakeRepo) OfferNextWaitlistEntry(ctx context.Context, businessID uint, dayStart, dayEnd time.Time) (*models.WaitlistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.offerErr != nil {
		return nil, r.offerErr
	}

	best := -1
	for i := range r.waitlist {
		e := &r.waitlist[i]
		if e.BusinessID != businessID || e.Status != string(domain.WaitlistActive) {
			continue
		}
		if e.DesiredDate.Before(dayStart) || e.DesiredDate.After(dayEnd) {
			continue
		}
		if best == -1 || e.CreatedAt.Before(r.waitlist[best].CreatedAt) {
			best = i
		}
	}
	if best == -1 {
		return nil, nil
	}

	r.waitlist[best].Status = string(domain.WaitlistOffered)
	e := r.waitlist[best]
	return &e, nil
}

func (r *fakeRepo) ListBookingsMissingEvent(ctx context.Context, limit int) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Booking
	for i := range r.bookings {
		b := r.bookings[i]
		if b.Status == string(domain.StatusScheduled) && b.ExternalEventID == nil {
			out = append(out, b)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeRepo) ListCleanupPending(ctx context.Context, limit int) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Booking
	for i := range r.bookings {
		if r.bookings[i].CleanupPending {
			out = append(out, r.bookings[i])
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeRepo) MarkCleanupPending(ctx context.Context, bookingID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.bookings {
		if r.bookings[i].ID == bookingID {
			r.bookings[i].CleanupPending = true
			r.cleanupMarked = append(r.cleanupMarked, bookingID)
			return nil
		}
	}
	return httperr.ErrBusiness(httperr.CodeBookingNotFound)
}

func (r *fakeRepo) ClearCleanupPending(ctx context.Context, bookingID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.bookings {
		if r.bookings[i].ID == bookingID {
			r.bookings[i].CleanupPending = false
			r.cleanupCleared = append(r.cleanupCleared, bookingID)
			return nil
		}
	}
	return httperr.ErrBusiness(httperr.CodeBookingNotFound)
}

// ======================================================
// FAKE GATEWAY / LOCKER / SENDER
// ======================================================

type fakeGateway struct {
	mu      sync.Mutex
	busy    []domain.Interval
	busyErr error

	pushID  string
	pushErr error
	pushes  int
}

var _ calendar.Gateway = (*fakeGateway)(nil)

func (g *fakeGateway) GetBusyIntervals(ctx context.Context, biz *models.Business, windowStart, windowEnd time.Time) ([]domain.Interval, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.busyErr != nil {
		return nil, g.busyErr
	}
	return g.busy, nil
}

func (g *fakeGateway) PushEvent(ctx context.Context, biz *models.Business, b *models.Booking) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.pushes++
	if g.pushErr != nil {
		return "", g.pushErr
	}
	if g.pushID == "" {
		return "evt-1", nil
	}
	return g.pushID, nil
}

type fakeLocker struct {
	mu    sync.Mutex
	calls int
}

func (l *fakeLocker) WithLock(ctx context.Context, businessID uint, day time.Time, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return fn(ctx)
}

// recordingSender entrega as mensagens num canal para o teste ler com
// timeout, sem sleep.
type recordingSender struct {
	ch chan notify.Message
}

func newRecordingSender() *recordingSender {
	return &recordingSender{ch: make(chan notify.Message, 10)}
}

func (s *recordingSender) Send(ctx context.Context, msg notify.Message) error {
	s.ch <- msg
	return nil
}

func (s *recordingSender) wait(t interface {
	Helper()
	Fatalf(string, ...any)
}) notify.Message {
	t.Helper()
	select {
	case msg := <-s.ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for notification")
		return notify.Message{}
	}
}

func noAudit() *audit.Dispatcher {
	return audit.NewDispatcher(nil)
}
