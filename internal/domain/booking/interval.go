package booking

import "time"

// Interval é um intervalo meio-aberto [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps usa a regra meio-aberta: a.start < b.end && a.end > b.start.
// Slots adjacentes (10:00–11:00 e 11:00–12:00) não conflitam.
func (a Interval) Overlaps(b Interval) bool {
	return a.Start.Before(b.End) && a.End.After(b.Start)
}
