package contracts

import (
	"errors"

	"booking-app/internal/domain/bookings"
	"booking-app/internal/domain/contracts"

	"gorm.io/gorm"
)

func contractByID(db *gorm.DB, id string) (*contracts.Contract, error) {
	var c contracts.Contract
	if err := db.First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func contractByBooking(db *gorm.DB, bookingID string) (*contracts.Contract, error) {
	var c contracts.Contract
	if err := db.First(&c, "booking_id = ?", bookingID).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func bookingByID(db *gorm.DB, id string) (*bookings.Booking, error) {
	var b bookings.Booking
	if err := db.First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// pendingEdit returns the contract's pending edit request, or nil when none
// exists.
func pendingEdit(db *gorm.DB, contractID string) (*contracts.ContractEditRequest, error) {
	var req contracts.ContractEditRequest
	err := db.First(&req, "contract_id = ? AND status = ?", contractID, contracts.EditPending).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}
