package bookings

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	StatusNegotiating     BookingStatus = "negotiating"
	StatusReadyToContract BookingStatus = "ready_to_contract"
	StatusContracting     BookingStatus = "contracting"
	StatusConfirmed       BookingStatus = "confirmed"
	StatusCancelled       BookingStatus = "cancelled"
)

// Cancellation reason codes.
const (
	CancelReasonDeadlineExpired = "contract_deadline_expired"
)

// Booking carries the terms negotiated before the contract stage. Everything
// here is locked once a contract is initiated: the contract workflow reads
// these fields but never writes them (except Status).
type Booking struct {
	ID string `gorm:"type:uuid;primaryKey" json:"id"`

	ArtistID   uint `gorm:"not null;index" json:"artist_id"`
	PromoterID uint `gorm:"not null;index" json:"promoter_id"`

	ArtistName   string `gorm:"not null" json:"artist_name"`
	PromoterName string `gorm:"not null" json:"promoter_name"`

	EventName    string    `gorm:"not null" json:"event_name"`
	EventDate    time.Time `gorm:"not null" json:"event_date"`
	EventTime    string    `gorm:"type:varchar(5)" json:"event_time"` // "HH:MM"
	VenueName    string    `gorm:"not null" json:"venue_name"`
	VenueAddress string    `json:"venue_address"`
	VenueCity    string    `json:"venue_city"`

	FeeAmount         int64   `gorm:"not null" json:"fee_amount"`
	FeeCurrency       string  `gorm:"type:varchar(3);not null;default:'INR'" json:"fee_currency"`
	CommissionPercent float64 `gorm:"not null;default:10" json:"commission_percent"`

	Status       BookingStatus `gorm:"type:varchar(20);not null;default:'negotiating';index" json:"status"`
	CancelReason *string       `gorm:"column:cancel_reason" json:"cancel_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
