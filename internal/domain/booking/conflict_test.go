package booking

import (
	"testing"
	"time"

	"github.com/horacerta/agenda-scheduler/internal/models"
)

func at(t *testing.T, hhmm string) time.Time {
	t.Helper()
	loc := mustLoc(t, "America/Sao_Paulo")
	parsed, err := time.ParseInLocation("2006-01-02 15:04", "2030-03-04 "+hhmm, loc)
	if err != nil {
		t.Fatalf("parse %s: %v", hhmm, err)
	}
	return parsed
}

func iv(t *testing.T, start, end string) Interval {
	t.Helper()
	return Interval{Start: at(t, start), End: at(t, end)}
}

func TestOverlaps_HalfOpen(t *testing.T) {
	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"identical", iv(t, "10:00", "11:00"), iv(t, "10:00", "11:00"), true},
		{"partial", iv(t, "10:00", "11:00"), iv(t, "10:30", "11:30"), true},
		{"contained", iv(t, "10:00", "12:00"), iv(t, "10:30", "11:00"), true},
		{"adjacent before", iv(t, "09:00", "10:00"), iv(t, "10:00", "11:00"), false},
		{"adjacent after", iv(t, "11:00", "12:00"), iv(t, "10:00", "11:00"), false},
		{"disjoint", iv(t, "08:00", "09:00"), iv(t, "14:00", "15:00"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Overlaps(tc.b); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			// a regra é simétrica
			if got := tc.b.Overlaps(tc.a); got != tc.want {
				t.Fatalf("reversed: expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestHasConflict_IgnoresCancelled(t *testing.T) {
	bookings := []models.Booking{
		{ID: 1, Status: "cancelled", StartTime: at(t, "10:00"), EndTime: at(t, "11:00")},
	}

	if HasConflict(iv(t, "10:00", "11:00"), bookings, nil, 0) {
		t.Fatal("cancelled booking must not block the slot")
	}
}

func TestHasConflict_ExcludesOwnBooking(t *testing.T) {
	bookings := []models.Booking{
		{ID: 7, Status: "scheduled", StartTime: at(t, "10:00"), EndTime: at(t, "11:00")},
	}

	// reagendamento para o mesmo horário: o próprio booking não conta
	if HasConflict(iv(t, "10:00", "11:00"), bookings, nil, 7) {
		t.Fatal("excluded booking must not conflict with itself")
	}
	if !HasConflict(iv(t, "10:00", "11:00"), bookings, nil, 0) {
		t.Fatal("without exclusion the slot must conflict")
	}
}

func TestHasConflict_ExternalBusy(t *testing.T) {
	busy := []Interval{iv(t, "11:00", "11:30")}

	if !HasConflict(iv(t, "11:00", "12:00"), nil, busy, 0) {
		t.Fatal("external busy interval must block the slot")
	}
	if HasConflict(iv(t, "09:00", "10:00"), nil, busy, 0) {
		t.Fatal("disjoint external interval must not block the slot")
	}
}

func TestFilterConflicts_DayScenario(t *testing.T) {
	// janela 09:00–12:00, serviço de 60min
	candidates := []Interval{
		iv(t, "09:00", "10:00"),
		iv(t, "10:00", "11:00"),
		iv(t, "11:00", "12:00"),
	}

	booked := []models.Booking{
		{ID: 1, Status: "scheduled", StartTime: at(t, "10:00"), EndTime: at(t, "11:00")},
	}
	busy := []Interval{iv(t, "11:00", "11:30")}

	free := FilterConflicts(candidates, booked, busy)
	if len(free) != 1 {
		t.Fatalf("expected 1 free slot, got %d", len(free))
	}
	if got := free[0].Start.Format("15:04"); got != "09:00" {
		t.Fatalf("expected 09:00 free, got %s", got)
	}
}
