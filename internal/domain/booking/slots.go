package booking

import (
	"time"

	"github.com/horacerta/agenda-scheduler/internal/models"
)

// CandidateSlots gera os slots candidatos de um dia a partir da janela
// de atendimento e da duração do serviço. Função pura: não sabe nada
// sobre bookings existentes.
//
// A sequência é {open, open+d, open+2d, ...} com start+d <= close.
// Dia inativo ou janela menor que a duração → nenhum candidato.
func CandidateSlots(day time.Time, wh *models.WorkingHours, durationMin int) []Interval {
	if wh == nil || !wh.Active || durationMin <= 0 {
		return nil
	}
	if wh.CloseMinute-wh.OpenMinute < durationMin {
		return nil
	}

	loc := day.Location()
	d := time.Duration(durationMin) * time.Minute

	atMinute := func(m int) time.Time {
		return time.Date(
			day.Year(), day.Month(), day.Day(),
			m/60, m%60, 0, 0,
			loc,
		)
	}

	dayEnd := atMinute(wh.CloseMinute)

	var slots []Interval
	for cur := atMinute(wh.OpenMinute); !cur.Add(d).After(dayEnd); cur = cur.Add(d) {
		slots = append(slots, Interval{Start: cur, End: cur.Add(d)})
	}

	return slots
}
