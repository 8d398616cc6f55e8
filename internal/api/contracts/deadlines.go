package contracts

import (
	"log/slog"
	"net/http"
	"time"

	"booking-app/database"
	"booking-app/internal/domain/bookings"
	"booking-app/internal/domain/contracts"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SweepExpiredContracts voids every sent contract whose deadline has elapsed
// and cascades the cancellation to its booking. Each contract is voided in
// its own transaction with a status-guarded update, so the sweep is safe to
// run repeatedly and concurrently with live party actions: whoever commits
// first wins, the loser sees zero rows affected.
func SweepExpiredContracts(db *gorm.DB, now time.Time) (int, error) {
	var expired []contracts.Contract
	err := db.
		Where("status = ? AND deadline_at < ?", contracts.StatusSent, now).
		Find(&expired).Error
	if err != nil {
		return 0, err
	}

	voided := 0
	for i := range expired {
		ct := &expired[i]
		err := db.Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&contracts.Contract{}).
				Where("id = ? AND status = ?", ct.ID, contracts.StatusSent).
				Update("status", contracts.StatusVoided)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// Signed or already voided in the meantime; nothing to do.
				return contracts.ErrConflict
			}
			return tx.Model(&bookings.Booking{}).
				Where("id = ?", ct.BookingID).
				Updates(map[string]any{
					"status":        bookings.StatusCancelled,
					"cancel_reason": bookings.CancelReasonDeadlineExpired,
				}).Error
		})
		if err != nil {
			if err != contracts.ErrConflict {
				slog.Error("deadline sweep failed for contract", "contract_id", ct.ID, "error", err)
			}
			continue
		}

		voided++
		emitTransition(db, Transition{
			ActorID:    0, // system
			Action:     ActionContractVoided,
			ContractID: ct.ID,
			BookingID:  ct.BookingID,
			Message:    "The contract was not signed within the 48-hour deadline. The contract is void and the booking has been cancelled.",
			Context:    map[string]any{"reason": bookings.CancelReasonDeadlineExpired},
		})
	}

	return voided, nil
}

// POST /contracts/check-deadlines
func CheckDeadlines(c *gin.Context) {
	voided, err := SweepExpiredContracts(database.DB, time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Deadline sweep failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"voided": voided})
}

// StartDeadlineSweeper runs the sweep on a fixed interval until stop is
// closed. The endpoint remains available for on-demand runs; both paths go
// through the same guarded update.
func StartDeadlineSweeper(db *gorm.DB, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if voided, err := SweepExpiredContracts(db, time.Now().UTC()); err != nil {
					slog.Error("deadline sweep failed", "error", err)
				} else if voided > 0 {
					slog.Info("deadline sweep voided contracts", "count", voided)
				}
			case <-stop:
				return
			}
		}
	}()
}
