package contracts

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"booking-app/config"
	"booking-app/database"
	"booking-app/internal/domain/bookings"
	"booking-app/internal/domain/contracts"
	"booking-app/internal/domain/users"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func mustUserID(c *gin.Context) (uint, bool) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return 0, false
	}
	return userID, true
}

func deadlineWindow() time.Duration {
	hours := config.CONTRACT_DEADLINE_HOURS
	if hours <= 0 {
		hours = 48
	}
	return time.Duration(hours) * time.Hour
}

// Column names for the per-party stage flags. The two parties' fields are
// disjoint, so concurrent calls from opposite sides never conflict.
func reviewCol(role string) string {
	if role == contracts.RoleArtist {
		return "artist_review_done_at"
	}
	return "promoter_review_done_at"
}

func acceptCol(role string) string {
	if role == contracts.RoleArtist {
		return "artist_accepted_at"
	}
	return "promoter_accepted_at"
}

func editUsedCol(role string) string {
	if role == contracts.RoleArtist {
		return "artist_edit_used"
	}
	return "promoter_edit_used"
}

func signedCol(role string) string {
	if role == contracts.RoleArtist {
		return "signed_by_artist"
	}
	return "signed_by_promoter"
}

func signedAtCol(role string) string {
	if role == contracts.RoleArtist {
		return "artist_signed_at"
	}
	return "promoter_signed_at"
}

func isStateConflict(err error) bool {
	for _, target := range []error{
		contracts.ErrDeadlinePassed,
		contracts.ErrContractVoided,
		contracts.ErrContractLocked,
		contracts.ErrAlreadyReviewed,
		contracts.ErrReviewNotDone,
		contracts.ErrAlreadyAccepted,
		contracts.ErrNotAccepted,
		contracts.ErrAlreadySigned,
		contracts.ErrEditAlreadyUsed,
		contracts.ErrEditPending,
		contracts.ErrEditProcessed,
		contracts.ErrNotAdminReview,
		contracts.ErrConflict,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondContractError maps domain errors onto the HTTP surface: not-found,
// state-conflict, authorization and validation each get their own shape.
// Validation responses carry the full violations list.
func respondContractError(c *gin.Context, err error) {
	var vErr *contracts.ValidationError
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "violations": vErr.Violations})
	case errors.Is(err, contracts.ErrNotParty), errors.Is(err, contracts.ErrOwnEditRequest):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case isStateConflict(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

// POST /bookings/:id/contract/initiate
//
// Idempotent: re-initiating an existing, non-voided contract returns the
// existing record untouched. A voided contract is terminal, the booking is
// already cancelled.
func InitiateContract(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	b, err := bookingByID(database.DB, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
			return
		}
		respondContractError(c, err)
		return
	}

	role, err := contracts.RoleForUser(b, userID)
	if err != nil {
		respondContractError(c, err)
		return
	}

	now := time.Now().UTC()

	if existing, err := contractByBooking(database.DB, b.ID); err == nil {
		if existing.Status == contracts.StatusVoided {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Contract was voided and the booking cancelled"})
			return
		}
		pending, _ := pendingEdit(database.DB, existing.ID)
		c.JSON(http.StatusOK, buildContractResponse(existing, role, pending != nil, now))
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		respondContractError(c, err)
		return
	}

	if b.Status != bookings.StatusReadyToContract {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Booking is not ready for contracting"})
		return
	}

	terms := contracts.DefaultTerms()
	text := contracts.Render(b, terms)

	ct := contracts.Contract{
		BookingID:      b.ID,
		Status:         contracts.StatusSent,
		CurrentVersion: 1,
		ContractText:   text,
		SignerSequence: datatypes.JSON(`["artist","promoter"]`),
		InitiatedAt:    now,
		DeadlineAt:     now.Add(deadlineWindow()),
		Terms:          datatypes.NewJSONType(terms),
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ct).Error; err != nil {
			return err
		}
		version := contracts.ContractVersion{
			ContractID:    ct.ID,
			Version:       1,
			ContractText:  text,
			Terms:         datatypes.NewJSONType(terms),
			CreatedBy:     userID,
			ChangeSummary: "Initial contract",
		}
		if err := tx.Create(&version).Error; err != nil {
			return err
		}
		res := tx.Model(&bookings.Booking{}).
			Where("id = ? AND status = ?", b.ID, bookings.StatusReadyToContract).
			Update("status", bookings.StatusContracting)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return contracts.ErrConflict
		}
		return nil
	})
	if err != nil {
		// A racing initiate may have won via the unique booking index; the
		// idempotency contract says hand back whatever exists now.
		if existing, lookupErr := contractByBooking(database.DB, b.ID); lookupErr == nil &&
			existing.Status != contracts.StatusVoided {
			pending, _ := pendingEdit(database.DB, existing.ID)
			c.JSON(http.StatusOK, buildContractResponse(existing, role, pending != nil, now))
			return
		}
		respondContractError(c, err)
		return
	}

	emitTransition(database.DB, Transition{
		ActorID:    userID,
		Action:     ActionContractInitiated,
		ContractID: ct.ID,
		BookingID:  b.ID,
		Message: fmt.Sprintf("Contract sent for %s. Both parties have %d hours to review and sign.",
			b.EventName, int(deadlineWindow().Hours())),
		Context: map[string]any{"version": 1, "deadline_at": ct.DeadlineAt},
	})

	c.JSON(http.StatusCreated, buildContractResponse(&ct, role, false, now))
}

// GET /bookings/:id/contract
func GetContract(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	b, err := bookingByID(database.DB, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
			return
		}
		respondContractError(c, err)
		return
	}

	role, err := contracts.RoleForUser(b, userID)
	if err != nil {
		respondContractError(c, err)
		return
	}

	ct, err := contractByBooking(database.DB, b.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No contract for this booking"})
			return
		}
		respondContractError(c, err)
		return
	}

	pending, err := pendingEdit(database.DB, ct.ID)
	if err != nil {
		respondContractError(c, err)
		return
	}

	c.JSON(http.StatusOK, buildContractResponse(ct, role, pending != nil, time.Now().UTC()))
}

// POST /contracts/:id/review
//
// ACCEPT_AS_IS marks the caller's review done. PROPOSE_EDITS additionally
// consumes the caller's one-time edit and parks a pending edit request for
// the other party, all in one transaction.
func ReviewContract(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now().UTC()
	var (
		ct          *contracts.Contract
		role        string
		editRequest *contracts.ContractEditRequest
	)

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		ct, err = contractByID(tx, c.Param("id"))
		if err != nil {
			return err
		}
		b, err := bookingByID(tx, ct.BookingID)
		if err != nil {
			return err
		}
		role, err = contracts.RoleForUser(b, userID)
		if err != nil {
			return err
		}

		if req.Action == ActionAcceptAsIs {
			if err := ct.CanReview(role, now); err != nil {
				return err
			}
			res := tx.Model(&contracts.Contract{}).
				Where("id = ? AND status = ? AND "+reviewCol(role)+" IS NULL",
					ct.ID, contracts.StatusSent).
				Update(reviewCol(role), now)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return contracts.ErrAlreadyReviewed
			}
			return nil
		}

		// PROPOSE_EDITS
		if len(req.Changes) == 0 {
			return &contracts.ValidationError{
				Violations: []string{"changes payload is required for PROPOSE_EDITS"},
			}
		}
		pending, err := pendingEdit(tx, ct.ID)
		if err != nil {
			return err
		}
		if err := ct.CanProposeEdits(role, pending != nil, now); err != nil {
			return err
		}

		cs, err := contracts.ParseChangeSet(req.Changes)
		if err != nil {
			return &contracts.ValidationError{Violations: []string{err.Error()}}
		}
		if _, err := contracts.ValidateChanges(ct.Terms.Data(), cs); err != nil {
			return err
		}

		// Claim review-done and the one-time edit flag together. The contract
		// row update serializes racing proposals; the loser re-reads and gets
		// a business rejection, never a silent overwrite.
		res := tx.Model(&contracts.Contract{}).
			Where("id = ? AND status = ? AND "+reviewCol(role)+" IS NULL AND "+editUsedCol(role)+" = ?",
				ct.ID, contracts.StatusSent, false).
			Updates(map[string]any{
				reviewCol(role):   now,
				editUsedCol(role): true,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return contracts.ErrEditAlreadyUsed
		}

		// Re-check under the row lock: a racing proposal that committed while
		// we were validating would have left its pending request behind.
		if pending, err := pendingEdit(tx, ct.ID); err != nil {
			return err
		} else if pending != nil {
			return contracts.ErrEditPending
		}

		editRequest = &contracts.ContractEditRequest{
			ContractID:      ct.ID,
			RequestedBy:     userID,
			RequestedByRole: role,
			Changes:         datatypes.JSON(req.Changes),
			Note:            req.Note,
			Status:          contracts.EditPending,
		}
		return tx.Create(editRequest).Error
	})
	if err != nil {
		respondContractError(c, err)
		return
	}

	if req.Action == ActionAcceptAsIs {
		emitTransition(database.DB, Transition{
			ActorID:    userID,
			Action:     ActionContractReviewed,
			ContractID: ct.ID,
			BookingID:  ct.BookingID,
			Message:    fmt.Sprintf("The %s has reviewed the contract and accepted it as is.", role),
		})
		c.JSON(http.StatusOK, gin.H{"status": "review_recorded"})
		return
	}

	emitTransition(database.DB, Transition{
		ActorID:    userID,
		Action:     ActionEditProposed,
		ContractID: ct.ID,
		BookingID:  ct.BookingID,
		Message:    fmt.Sprintf("The %s has proposed edits to the contract. Awaiting the other party's response.", role),
		Context:    map[string]any{"edit_request_id": editRequest.ID},
	})
	c.JSON(http.StatusOK, gin.H{
		"status":       "edit_request_created",
		"edit_request": editRequest,
	})
}

// POST /contracts/:id/edit-requests/:reqId/respond
//
// Approval merges the proposal into a new version and re-renders the
// document; rejection leaves the current version standing. Either way the
// requester's one-time edit stays consumed.
func RespondToEditRequest(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now().UTC()
	var (
		ct         *contracts.Contract
		role       string
		newVersion int
	)

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		ct, err = contractByID(tx, c.Param("id"))
		if err != nil {
			return err
		}
		b, err := bookingByID(tx, ct.BookingID)
		if err != nil {
			return err
		}
		role, err = contracts.RoleForUser(b, userID)
		if err != nil {
			return err
		}

		var er contracts.ContractEditRequest
		if err := tx.First(&er, "id = ? AND contract_id = ?", c.Param("reqId"), ct.ID).Error; err != nil {
			return err
		}
		if err := ct.CanRespondToEdit(&er, role, now); err != nil {
			return err
		}

		if req.Decision == DecisionReject {
			res := tx.Model(&contracts.ContractEditRequest{}).
				Where("id = ? AND status = ?", er.ID, contracts.EditPending).
				Updates(map[string]any{
					"status":        contracts.EditRejected,
					"responded_by":  userID,
					"responded_at":  now,
					"response_note": req.ResponseNote,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return contracts.ErrEditProcessed
			}
			return nil
		}

		// Approve: validate against the terms as they stand now and merge.
		cs, err := contracts.ParseChangeSet([]byte(er.Changes))
		if err != nil {
			return &contracts.ValidationError{Violations: []string{err.Error()}}
		}
		merged, err := contracts.ValidateChanges(ct.Terms.Data(), cs)
		if err != nil {
			return err
		}

		newVersion = ct.CurrentVersion + 1
		text := contracts.Render(b, merged)

		res := tx.Model(&contracts.ContractEditRequest{}).
			Where("id = ? AND status = ?", er.ID, contracts.EditPending).
			Updates(map[string]any{
				"status":            contracts.EditApproved,
				"responded_by":      userID,
				"responded_at":      now,
				"response_note":     req.ResponseNote,
				"resulting_version": newVersion,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return contracts.ErrEditProcessed
		}

		version := contracts.ContractVersion{
			ContractID:    ct.ID,
			Version:       newVersion,
			ContractText:  text,
			Terms:         datatypes.NewJSONType(merged),
			CreatedBy:     userID,
			ChangeSummary: fmt.Sprintf("Edits proposed by %s, approved by %s", er.RequestedByRole, role),
		}
		if err := tx.Create(&version).Error; err != nil {
			return err
		}

		res = tx.Model(&contracts.Contract{}).
			Where("id = ? AND current_version = ? AND status = ?",
				ct.ID, ct.CurrentVersion, contracts.StatusSent).
			Updates(map[string]any{
				"current_version": newVersion,
				"contract_text":   text,
				"terms":           datatypes.NewJSONType(merged),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return contracts.ErrConflict
		}
		return nil
	})
	if err != nil {
		respondContractError(c, err)
		return
	}

	if req.Decision == DecisionReject {
		emitTransition(database.DB, Transition{
			ActorID:    userID,
			Action:     ActionEditRejected,
			ContractID: ct.ID,
			BookingID:  ct.BookingID,
			Message:    fmt.Sprintf("The %s has rejected the proposed edits. The contract stays on version %d.", role, ct.CurrentVersion),
		})
		c.JSON(http.StatusOK, gin.H{"status": "edit_request_rejected"})
		return
	}

	emitTransition(database.DB, Transition{
		ActorID:    userID,
		Action:     ActionEditApproved,
		ContractID: ct.ID,
		BookingID:  ct.BookingID,
		Message:    fmt.Sprintf("The %s has approved the proposed edits. Contract updated to version %d.", role, newVersion),
		Context:    map[string]any{"version": newVersion},
	})
	c.JSON(http.StatusOK, gin.H{
		"status":            "edit_request_approved",
		"resulting_version": newVersion,
	})
}

// POST /contracts/:id/accept
func AcceptContract(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	now := time.Now().UTC()
	var (
		ct   *contracts.Contract
		role string
	)

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		ct, err = contractByID(tx, c.Param("id"))
		if err != nil {
			return err
		}
		b, err := bookingByID(tx, ct.BookingID)
		if err != nil {
			return err
		}
		role, err = contracts.RoleForUser(b, userID)
		if err != nil {
			return err
		}
		pending, err := pendingEdit(tx, ct.ID)
		if err != nil {
			return err
		}
		if err := ct.CanAccept(role, pending != nil, now); err != nil {
			return err
		}

		res := tx.Model(&contracts.Contract{}).
			Where("id = ? AND status = ? AND "+acceptCol(role)+" IS NULL",
				ct.ID, contracts.StatusSent).
			Update(acceptCol(role), now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return contracts.ErrAlreadyAccepted
		}
		return nil
	})
	if err != nil {
		respondContractError(c, err)
		return
	}

	emitTransition(database.DB, Transition{
		ActorID:    userID,
		Action:     ActionContractAccepted,
		ContractID: ct.ID,
		BookingID:  ct.BookingID,
		Message:    fmt.Sprintf("The %s has accepted the contract terms.", role),
	})
	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}

// POST /contracts/:id/sign
//
// The second signature flips the contract to admin_review; the booking stays
// in contracting until the administrator approves.
func SignContract(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var req SignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now().UTC()
	var (
		ct            *contracts.Contract
		role          string
		fullyExecuted bool
	)

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		ct, err = contractByID(tx, c.Param("id"))
		if err != nil {
			return err
		}
		b, err := bookingByID(tx, ct.BookingID)
		if err != nil {
			return err
		}
		// Authorization is checked against the booking's party records, not
		// just the token.
		role, err = contracts.RoleForUser(b, userID)
		if err != nil {
			return err
		}
		var u users.User
		if err := tx.First(&u, "id = ?", userID).Error; err != nil {
			return contracts.ErrNotParty
		}

		pending, err := pendingEdit(tx, ct.ID)
		if err != nil {
			return err
		}
		if err := ct.CanSign(role, pending != nil, now); err != nil {
			return err
		}

		res := tx.Model(&contracts.Contract{}).
			Where("id = ? AND status = ? AND "+signedCol(role)+" = ? AND "+acceptCol(role)+" IS NOT NULL AND deadline_at > ?",
				ct.ID, contracts.StatusSent, false, now).
			Updates(map[string]any{
				signedCol(role):   true,
				signedAtCol(role): now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost a race; re-read for the precise rejection.
			fresh, err := contractByID(tx, ct.ID)
			if err != nil {
				return err
			}
			if err := fresh.CanSign(role, false, now); err != nil {
				return err
			}
			return contracts.ErrConflict
		}

		signature := contracts.ContractSignature{
			ContractID:    ct.ID,
			UserID:        userID,
			Role:          role,
			SignatureData: req.SignatureData,
			SignatureType: req.SignatureType,
			IPAddress:     c.ClientIP(),
			UserAgent:     c.Request.UserAgent(),
			SignedAt:      now,
		}
		if err := tx.Create(&signature).Error; err != nil {
			return err
		}

		ct, err = contractByID(tx, ct.ID)
		if err != nil {
			return err
		}
		fullyExecuted = ct.FullyExecuted()
		if fullyExecuted {
			res := tx.Model(&contracts.Contract{}).
				Where("id = ? AND status = ?", ct.ID, contracts.StatusSent).
				Updates(map[string]any{
					"status":    contracts.StatusAdminReview,
					"signed_at": now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return contracts.ErrConflict
			}
		}
		return nil
	})
	if err != nil {
		respondContractError(c, err)
		return
	}

	message := fmt.Sprintf("The %s has signed the contract.", role)
	if fullyExecuted {
		message = fmt.Sprintf("The %s has signed the contract. Both signatures collected; awaiting administrator approval.", role)
	}
	emitTransition(database.DB, Transition{
		ActorID:    userID,
		Action:     ActionContractSigned,
		ContractID: ct.ID,
		BookingID:  ct.BookingID,
		Message:    message,
		Context:    map[string]any{"fully_executed": fullyExecuted},
	})

	c.JSON(http.StatusOK, gin.H{
		"status":        "signed",
		"fullyExecuted": fullyExecuted,
	})
}

// GET /contracts/:id/versions
func ListContractVersions(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	ct, err := contractByID(database.DB, c.Param("id"))
	if err != nil {
		respondContractError(c, err)
		return
	}
	b, err := bookingByID(database.DB, ct.BookingID)
	if err != nil {
		respondContractError(c, err)
		return
	}
	if _, err := contracts.RoleForUser(b, userID); err != nil {
		respondContractError(c, err)
		return
	}

	var versions []contracts.ContractVersion
	err = database.DB.
		Where("contract_id = ?", ct.ID).
		Order("version ASC").
		Find(&versions).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load versions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"versions": versions})
}

// GET /contracts/:id/pdf
//
// Serves the rendered document of the current version. Only available once
// both parties have signed.
func DownloadContractDocument(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	ct, err := contractByID(database.DB, c.Param("id"))
	if err != nil {
		respondContractError(c, err)
		return
	}
	b, err := bookingByID(database.DB, ct.BookingID)
	if err != nil {
		respondContractError(c, err)
		return
	}
	if _, err := contracts.RoleForUser(b, userID); err != nil && c.GetString("role") != users.RoleAdmin {
		respondContractError(c, err)
		return
	}

	if !ct.FullyExecuted() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Contract is not fully signed"})
		return
	}

	c.Header("Content-Disposition",
		fmt.Sprintf(`attachment; filename="contract-%s-v%d.txt"`, ct.ID, ct.CurrentVersion))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(ct.ContractText))
}
