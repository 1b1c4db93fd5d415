package models

import "time"

// WorkingHours guarda a janela de atendimento em minutos do dia
// (ex.: 09:00 = 540). No máximo um registro por (business, weekday).
type WorkingHours struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	BusinessID uint `gorm:"uniqueIndex:idx_business_weekday" json:"business_id"`

	Weekday int `gorm:"uniqueIndex:idx_business_weekday" json:"weekday"` // 0 = domingo

	OpenMinute  int  `json:"open_minute"`
	CloseMinute int  `json:"close_minute"`
	Active      bool `json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
