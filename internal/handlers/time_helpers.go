package handlers

import (
	"time"

	"github.com/horacerta/agenda-scheduler/internal/models"
	"github.com/horacerta/agenda-scheduler/internal/timezone"
)

// resolve o timezone oficial do negócio
func locationFromBusiness(biz *models.Business) *time.Location {
	if biz != nil {
		return timezone.Location(biz.Timezone)
	}
	return timezone.Location("")
}

func parseDateInBusiness(biz *models.Business, dateStr string) (time.Time, error) {
	return time.ParseInLocation(
		"2006-01-02",
		dateStr,
		locationFromBusiness(biz),
	)
}
