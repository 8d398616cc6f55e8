package contracts

import (
	"fmt"
	"net/http"

	"booking-app/database"
	"booking-app/internal/domain/bookings"
	"booking-app/internal/domain/contracts"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// POST /admin/contracts/:id/review
//
// Arbitration gate after both signatures are in. Approval finalizes the
// contract and confirms the booking. Rejection hands the contract back to
// sent so the parties can re-sign; the signature ledger rows stay untouched,
// only the per-party signed flags are cleared.
func AdminReviewContract(c *gin.Context) {
	adminID, ok := mustUserID(c)
	if !ok {
		return
	}

	var req AdminReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var ct *contracts.Contract

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		ct, err = contractByID(tx, c.Param("id"))
		if err != nil {
			return err
		}
		if ct.Status != contracts.StatusAdminReview {
			return contracts.ErrNotAdminReview
		}

		if req.Decision == AdminApproved {
			res := tx.Model(&contracts.Contract{}).
				Where("id = ? AND status = ?", ct.ID, contracts.StatusAdminReview).
				Update("status", contracts.StatusSigned)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return contracts.ErrNotAdminReview
			}
			return tx.Model(&bookings.Booking{}).
				Where("id = ? AND status = ?", ct.BookingID, bookings.StatusContracting).
				Update("status", bookings.StatusConfirmed).Error
		}

		// Rejected: back to sent for another signing round. The deadline is
		// immutable, so a rejection close to it can still end in a void.
		res := tx.Model(&contracts.Contract{}).
			Where("id = ? AND status = ?", ct.ID, contracts.StatusAdminReview).
			Updates(map[string]any{
				"status":             contracts.StatusSent,
				"signed_by_artist":   false,
				"signed_by_promoter": false,
				"artist_signed_at":   nil,
				"promoter_signed_at": nil,
				"signed_at":          nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return contracts.ErrNotAdminReview
		}
		return nil
	})
	if err != nil {
		respondContractError(c, err)
		return
	}

	if req.Decision == AdminApproved {
		emitTransition(database.DB, Transition{
			ActorID:    adminID,
			Action:     ActionAdminApproved,
			ContractID: ct.ID,
			BookingID:  ct.BookingID,
			Message:    "The contract has been approved by the administrator. The booking is confirmed.",
			Context:    map[string]any{"note": req.Note},
		})
		c.JSON(http.StatusOK, gin.H{"status": string(contracts.StatusSigned)})
		return
	}

	emitTransition(database.DB, Transition{
		ActorID:    adminID,
		Action:     ActionAdminRejected,
		ContractID: ct.ID,
		BookingID:  ct.BookingID,
		Message:    fmt.Sprintf("The administrator has returned the contract for re-signing. %s", req.Note),
		Context:    map[string]any{"note": req.Note},
	})
	c.JSON(http.StatusOK, gin.H{"status": string(contracts.StatusSent)})
}

// GET /admin/contracts?status=...
func AdminListContracts(c *gin.Context) {
	query := database.DB.Model(&contracts.Contract{}).Order("created_at DESC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var list []contracts.Contract
	if err := query.Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load contracts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"contracts": list})
}

// GET /admin/contracts/:id — full record with versions, edit requests and
// the signature ledger for arbitration.
func AdminGetContract(c *gin.Context) {
	ct, err := contractByID(database.DB, c.Param("id"))
	if err != nil {
		respondContractError(c, err)
		return
	}

	var versions []contracts.ContractVersion
	if err := database.DB.Where("contract_id = ?", ct.ID).Order("version ASC").Find(&versions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load versions"})
		return
	}
	var editRequests []contracts.ContractEditRequest
	if err := database.DB.Where("contract_id = ?", ct.ID).Order("created_at ASC").Find(&editRequests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load edit requests"})
		return
	}
	var signatures []contracts.ContractSignature
	if err := database.DB.Where("contract_id = ?", ct.ID).Order("signed_at ASC").Find(&signatures).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load signatures"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"contract":      ct,
		"versions":      versions,
		"edit_requests": editRequests,
		"signatures":    signatures,
	})
}
