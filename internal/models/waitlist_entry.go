package models

import "time"

type WaitlistEntry struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	BusinessID uint `gorm:"index:idx_waitlist_business_date" json:"business_id"`

	ClientName  string `gorm:"size:100;not null" json:"client_name"`
	ClientPhone string `gorm:"size:20;not null" json:"client_phone"`

	DesiredDate time.Time `gorm:"index:idx_waitlist_business_date" json:"desired_date"`

	Status string `gorm:"size:20;default:'active'" json:"status"`

	// Booking que originou a entrada (cliente agendou mais tarde mas
	// quer horário mais cedo no mesmo dia).
	LinkedBookingID *uint `json:"linked_booking_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
