package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/horacerta/agenda-scheduler/internal/domain/booking"
	"github.com/horacerta/agenda-scheduler/internal/httperr"
	"github.com/horacerta/agenda-scheduler/internal/models"
	"github.com/horacerta/agenda-scheduler/internal/notify"
	"github.com/horacerta/agenda-scheduler/internal/timezone"
)

// 2030-03-04 é uma segunda-feira, bem no futuro para nunca esbarrar
// na antecedência mínima.
const testDay = "2030-03-04"

func testTime(t *testing.T, hhmm string) time.Time {
	t.Helper()
	loc := timezone.Location(timezone.DefaultTimezone)
	parsed, err := time.ParseInLocation("2006-01-02 15:04", testDay+" "+hhmm, loc)
	require.NoError(t, err)
	return parsed
}

func newCreateFixture() (*CreateBooking, *fakeRepo, *fakeGateway, *recordingSender) {
	repo := newFakeRepo()
	repo.setHours(1, 9*60, 18*60) // segunda 09:00–18:00

	gateway := &fakeGateway{}
	sender := newRecordingSender()

	uc := NewCreateBooking(
		repo,
		&fakeLocker{},
		gateway,
		notify.NewDispatcher(sender),
		noAudit(),
	)
	return uc, repo, gateway, sender
}

func TestCreateBooking_Success(t *testing.T) {
	uc, repo, _, sender := newCreateFixture()

	b, err := uc.Execute(context.Background(), CreateBookingInput{
		BusinessID:  1,
		ClientName:  "João",
		ClientPhone: "+5511999990000",
		ServiceID:   10,
		Date:        testDay,
		Time:        "10:00",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, b.PublicID)
	assert.Equal(t, string(domain.StatusScheduled), b.Status)
	assert.True(t, b.StartTime.Equal(testTime(t, "10:00")))
	assert.True(t, b.EndTime.Equal(testTime(t, "11:00")))

	stored := repo.bookingByID(b.ID)
	require.NotNil(t, stored)
	assert.Equal(t, "João", stored.ClientName)

	msg := sender.wait(t)
	assert.Equal(t, notify.KindBookingConfirmed, msg.Kind)
	assert.Equal(t, "+5511999990000", msg.To)
}

func TestCreateBooking_SlotConflict(t *testing.T) {
	uc, repo, _, _ := newCreateFixture()

	repo.addBooking(models.Booking{
		StartTime: testTime(t, "10:00"),
		EndTime:   testTime(t, "11:00"),
	})

	_, err := uc.Execute(context.Background(), CreateBookingInput{
		BusinessID:  1,
		ClientName:  "Maria",
		ClientPhone: "+5511888880000",
		ServiceID:   10,
		Date:        testDay,
		Time:        "10:00",
	})
	assert.True(t, httperr.IsBusiness(err, httperr.CodeSlotConflict))
}

func TestCreateBooking_AdjacentSlotAllowed(t *testing.T) {
	uc, repo, _, _ := newCreateFixture()

	repo.addBooking(models.Booking{
		StartTime: testTime(t, "10:00"),
		EndTime:   testTime(t, "11:00"),
	})

	// termina exatamente quando o outro começa: intervalo meio-aberto
	_, err := uc.Execute(context.Background(), CreateBookingInput{
		BusinessID:  1,
		ClientName:  "Maria",
		ClientPhone: "+5511888880000",
		ServiceID:   10,
		Date:        testDay,
		Time:        "09:00",
	})
	assert.NoError(t, err)
}

func TestCreateBooking_ClosedDay(t *testing.T) {
	uc, _, _, _ := newCreateFixture()

	// 2030-03-05 é terça, sem janela cadastrada
	_, err := uc.Execute(context.Background(), CreateBookingInput{
		BusinessID:  1,
		ClientName:  "João",
		ClientPhone: "+5511999990000",
		ServiceID:   10,
		Date:        "2030-03-05",
		Time:        "10:00",
	})
	assert.True(t, httperr.IsBusiness(err, httperr.CodeClosedDay))
}

func TestCreateBooking_OutsideWorkingHours(t *testing.T) {
	uc, _, _, _ := newCreateFixture()

	cases := []string{"08:00", "17:30"} // antes de abrir; terminaria depois de fechar
	for _, hhmm := range cases {
		_, err := uc.Execute(context.Background(), CreateBookingInput{
			BusinessID:  1,
			ClientName:  "João",
			ClientPhone: "+5511999990000",
			ServiceID:   10,
			Date:        testDay,
			Time:        hhmm,
		})
		assert.True(t, httperr.IsBusiness(err, httperr.CodeOutsideWorkingHours), "time %s", hhmm)
	}
}

func TestCreateBooking_TooSoon(t *testing.T) {
	uc, repo, _, _ := newCreateFixture()
	repo.setHours(1, 0, 24*60)

	_, err := uc.Execute(context.Background(), CreateBookingInput{
		BusinessID:  1,
		ClientName:  "João",
		ClientPhone: "+5511999990000",
		ServiceID:   10,
		Date:        "2020-03-02",
		Time:        "10:00",
	})
	assert.True(t, httperr.IsBusiness(err, httperr.CodeTooSoon))
}

func TestCreateBooking_ExternalBusyBlocks(t *testing.T) {
	uc, _, gateway, _ := newCreateFixture()

	gateway.busy = []domain.Interval{
		{Start: testTime(t, "10:30"), End: testTime(t, "11:30")},
	}

	_, err := uc.Execute(context.Background(), CreateBookingInput{
		BusinessID:  1,
		ClientName:  "João",
		ClientPhone: "+5511999990000",
		ServiceID:   10,
		Date:        testDay,
		Time:        "10:00",
	})
	assert.True(t, httperr.IsBusiness(err, httperr.CodeSlotConflict))
}

func TestCreateBooking_CalendarDownDegrades(t *testing.T) {
	uc, _, gateway, _ := newCreateFixture()

	gateway.busyErr = errors.New("freebusy timeout")

	b, err := uc.Execute(context.Background(), CreateBookingInput{
		BusinessID:  1,
		ClientName:  "João",
		ClientPhone: "+5511999990000",
		ServiceID:   10,
		Date:        testDay,
		Time:        "10:00",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusScheduled), b.Status)
}

func TestCreateBooking_ConcurrentOverlapSingleWinner(t *testing.T) {
	// dois clientes disputando horários sobrepostos ao mesmo tempo:
	// exatamente um entra, o outro recebe slot_conflict
	for round := 0; round < 50; round++ {
		uc, repo, _, _ := newCreateFixture()

		times := []string{"10:00", "10:30"}
		errs := make([]error, len(times))

		var wg sync.WaitGroup
		wg.Add(len(times))
		for i, hhmm := range times {
			go func(i int, hhmm string) {
				defer wg.Done()
				_, errs[i] = uc.Execute(context.Background(), CreateBookingInput{
					BusinessID:  1,
					ClientName:  "Cliente",
					ClientPhone: "+5511900000000",
					ServiceID:   10,
					Date:        testDay,
					Time:        hhmm,
				})
			}(i, hhmm)
		}
		wg.Wait()

		wins, conflicts := 0, 0
		for _, err := range errs {
			switch {
			case err == nil:
				wins++
			case httperr.IsBusiness(err, httperr.CodeSlotConflict):
				conflicts++
			default:
				t.Fatalf("round %d: unexpected error %v", round, err)
			}
		}

		require.Equal(t, 1, wins, "round %d: exactly one create must win", round)
		require.Equal(t, 1, conflicts, "round %d: the loser must get slot_conflict", round)
		require.Equal(t, 1, repo.countBookings(string(domain.StatusScheduled)), "round %d", round)
	}
}

func TestCreateBooking_ConcurrentDisjointBothWin(t *testing.T) {
	for round := 0; round < 20; round++ {
		uc, repo, _, _ := newCreateFixture()

		times := []string{"10:00", "11:00"}
		errs := make([]error, len(times))

		var wg sync.WaitGroup
		wg.Add(len(times))
		for i, hhmm := range times {
			go func(i int, hhmm string) {
				defer wg.Done()
				_, errs[i] = uc.Execute(context.Background(), CreateBookingInput{
					BusinessID:  1,
					ClientName:  "Cliente",
					ClientPhone: "+5511900000000",
					ServiceID:   10,
					Date:        testDay,
					Time:        hhmm,
				})
			}(i, hhmm)
		}
		wg.Wait()

		for i, err := range errs {
			require.NoError(t, err, "round %d, slot %s", round, times[i])
		}
		require.Equal(t, 2, repo.countBookings(string(domain.StatusScheduled)), "round %d", round)
	}
}

func TestCreateBooking_JoinWaitlist(t *testing.T) {
	uc, repo, _, _ := newCreateFixture()

	b, err := uc.Execute(context.Background(), CreateBookingInput{
		BusinessID:   1,
		ClientName:   "João",
		ClientPhone:  "+5511999990000",
		ServiceID:    10,
		Date:         testDay,
		Time:         "15:00",
		JoinWaitlist: true,
	})
	require.NoError(t, err)

	repo.mu.Lock()
	defer repo.mu.Unlock()
	require.Len(t, repo.waitlist, 1)
	assert.Equal(t, string(domain.WaitlistActive), repo.waitlist[0].Status)
	assert.Equal(t, b.ClientPhone, repo.waitlist[0].ClientPhone)
}
