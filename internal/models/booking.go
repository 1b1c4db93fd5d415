package models

import "time"

type Booking struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Identificador não sequencial usado nas rotas públicas
	// (cancelamento por posse do link).
	PublicID string `gorm:"size:36;uniqueIndex;not null" json:"public_id"`

	BusinessID uint     `json:"business_id"`
	Business   Business `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"business"`

	ServiceID uint    `json:"service_id"`
	Service   Service `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"service"`

	ClientName  string `gorm:"size:100;not null" json:"client_name"`
	ClientPhone string `gorm:"size:20;not null" json:"client_phone"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	Status string `gorm:"size:20;default:'scheduled'" json:"status"`

	Notes              string     `gorm:"size:255" json:"notes"`
	CancelledAt        *time.Time `json:"cancelled_at"`
	CancellationReason string     `gorm:"size:255" json:"cancellation_reason"`
	CompletedAt        *time.Time `json:"completed_at"`

	// Preenchido best-effort depois do push no calendário externo.
	ExternalEventID *string `gorm:"size:255" json:"external_event_id"`

	// Marcadores de reagendamento: quando o cancelamento do booking
	// antigo falha, CleanupPending fica ligado até o sweep resolver.
	RescheduledFromID *uint `json:"rescheduled_from_id"`
	CleanupPending    bool  `gorm:"default:false" json:"cleanup_pending"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
