package booking

import (
	"testing"
	"time"

	"github.com/horacerta/agenda-scheduler/internal/models"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %s: %v", name, err)
	}
	return loc
}

func TestCandidateSlots_Basic(t *testing.T) {
	loc := mustLoc(t, "America/Sao_Paulo")
	day := time.Date(2030, 3, 4, 0, 0, 0, 0, loc) // segunda

	wh := &models.WorkingHours{
		Weekday:     1,
		OpenMinute:  9 * 60,
		CloseMinute: 12 * 60,
		Active:      true,
	}

	slots := CandidateSlots(day, wh, 60)
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(slots))
	}

	want := []string{"09:00", "10:00", "11:00"}
	for i, w := range want {
		if got := slots[i].Start.Format("15:04"); got != w {
			t.Errorf("slot %d: expected start %s, got %s", i, w, got)
		}
	}
	if got := slots[2].End.Format("15:04"); got != "12:00" {
		t.Errorf("last slot must end at close time, got %s", got)
	}
}

func TestCandidateSlots_PartialSlotDropped(t *testing.T) {
	loc := mustLoc(t, "America/Sao_Paulo")
	day := time.Date(2030, 3, 4, 0, 0, 0, 0, loc)

	// 09:00–12:30 com serviço de 60min: o resto de 30min não vira slot
	wh := &models.WorkingHours{
		OpenMinute:  9 * 60,
		CloseMinute: 12*60 + 30,
		Active:      true,
	}

	slots := CandidateSlots(day, wh, 60)
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(slots))
	}
}

func TestCandidateSlots_WindowSmallerThanDuration(t *testing.T) {
	loc := mustLoc(t, "America/Sao_Paulo")
	day := time.Date(2030, 3, 4, 0, 0, 0, 0, loc)

	wh := &models.WorkingHours{
		OpenMinute:  9 * 60,
		CloseMinute: 9*60 + 30,
		Active:      true,
	}

	if slots := CandidateSlots(day, wh, 60); len(slots) != 0 {
		t.Fatalf("expected no slots, got %d", len(slots))
	}
}

func TestCandidateSlots_InactiveOrMissingDay(t *testing.T) {
	loc := mustLoc(t, "America/Sao_Paulo")
	day := time.Date(2030, 3, 4, 0, 0, 0, 0, loc)

	inactive := &models.WorkingHours{
		OpenMinute:  9 * 60,
		CloseMinute: 18 * 60,
		Active:      false,
	}

	if slots := CandidateSlots(day, inactive, 30); len(slots) != 0 {
		t.Fatalf("inactive day: expected no slots, got %d", len(slots))
	}
	if slots := CandidateSlots(day, nil, 30); len(slots) != 0 {
		t.Fatalf("missing day: expected no slots, got %d", len(slots))
	}
}

func TestCandidateSlots_SlotsAreContiguous(t *testing.T) {
	loc := mustLoc(t, "America/Sao_Paulo")
	day := time.Date(2030, 3, 4, 0, 0, 0, 0, loc)

	wh := &models.WorkingHours{
		OpenMinute:  8 * 60,
		CloseMinute: 17 * 60,
		Active:      true,
	}

	slots := CandidateSlots(day, wh, 45)
	for i := 1; i < len(slots); i++ {
		if !slots[i].Start.Equal(slots[i-1].End) {
			t.Fatalf("slot %d does not start where slot %d ends", i, i-1)
		}
	}
	// floor((17h-8h)/45min) = 12
	if len(slots) != 12 {
		t.Fatalf("expected 12 slots, got %d", len(slots))
	}
}
