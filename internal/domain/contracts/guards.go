package contracts

import (
	"errors"
	"time"

	"booking-app/internal/domain/bookings"
)

// State-conflict and authorization errors. Handlers map these onto HTTP
// codes; the guards themselves never touch the database.
var (
	ErrDeadlinePassed  = errors.New("contract deadline has passed")
	ErrContractVoided  = errors.New("contract has been voided")
	ErrContractLocked  = errors.New("contract is no longer open for party actions")
	ErrAlreadyReviewed = errors.New("review already completed")
	ErrReviewNotDone   = errors.New("review not completed yet")
	ErrAlreadyAccepted = errors.New("contract already accepted")
	ErrNotAccepted     = errors.New("contract not accepted yet")
	ErrAlreadySigned   = errors.New("contract already signed by this party")
	ErrEditAlreadyUsed = errors.New("edit request already used")
	ErrEditPending     = errors.New("an edit request is already pending")
	ErrEditProcessed   = errors.New("edit request already processed")
	ErrNotParty        = errors.New("user is not a party to this booking")
	ErrOwnEditRequest  = errors.New("requester cannot respond to their own edit request")
	ErrNotAdminReview  = errors.New("contract is not awaiting admin review")
	ErrConflict        = errors.New("contract was modified concurrently, retry")
)

// RoleForUser resolves which side of the booking a user is on.
func RoleForUser(b *bookings.Booking, userID uint) (string, error) {
	switch userID {
	case b.ArtistID:
		return RoleArtist, nil
	case b.PromoterID:
		return RolePromoter, nil
	}
	return "", ErrNotParty
}

func (c *Contract) reviewDoneAt(role string) *time.Time {
	if role == RoleArtist {
		return c.ArtistReviewDoneAt
	}
	return c.PromoterReviewDoneAt
}

func (c *Contract) acceptedAt(role string) *time.Time {
	if role == RoleArtist {
		return c.ArtistAcceptedAt
	}
	return c.PromoterAcceptedAt
}

func (c *Contract) editUsed(role string) bool {
	if role == RoleArtist {
		return c.ArtistEditUsed
	}
	return c.PromoterEditUsed
}

func (c *Contract) signedBy(role string) bool {
	if role == RoleArtist {
		return c.SignedByArtist
	}
	return c.SignedByPromoter
}

// checkOpen is the common precondition for every party-facing mutation: the
// contract must still be in the sent stage and inside its deadline. The
// deadline is re-checked here on every call; the sweep only exists to cascade
// the booking cancellation promptly.
func (c *Contract) checkOpen(now time.Time) error {
	switch c.Status {
	case StatusVoided:
		return ErrContractVoided
	case StatusAdminReview, StatusSigned:
		return ErrContractLocked
	}
	if now.After(c.DeadlineAt) {
		return ErrDeadlinePassed
	}
	return nil
}

// CanReview gates the review step. Completed stages are one-way flags:
// repeating one is a state error, not a no-op.
func (c *Contract) CanReview(role string, now time.Time) error {
	if err := c.checkOpen(now); err != nil {
		return err
	}
	if c.reviewDoneAt(role) != nil {
		return ErrAlreadyReviewed
	}
	return nil
}

// CanProposeEdits gates the PROPOSE_EDITS review action on top of CanReview.
func (c *Contract) CanProposeEdits(role string, hasPendingEdit bool, now time.Time) error {
	if err := c.CanReview(role, now); err != nil {
		return err
	}
	if c.editUsed(role) {
		return ErrEditAlreadyUsed
	}
	if hasPendingEdit {
		return ErrEditPending
	}
	return nil
}

// CanAccept requires review done, no pending edit request, and not already
// accepted.
func (c *Contract) CanAccept(role string, hasPendingEdit bool, now time.Time) error {
	if err := c.checkOpen(now); err != nil {
		return err
	}
	if c.reviewDoneAt(role) == nil {
		return ErrReviewNotDone
	}
	if hasPendingEdit {
		return ErrEditPending
	}
	if c.acceptedAt(role) != nil {
		return ErrAlreadyAccepted
	}
	return nil
}

// CanSign requires prior acceptance, no pending edit request, and no earlier
// signature by the same party.
func (c *Contract) CanSign(role string, hasPendingEdit bool, now time.Time) error {
	if err := c.checkOpen(now); err != nil {
		return err
	}
	if c.acceptedAt(role) == nil {
		return ErrNotAccepted
	}
	if hasPendingEdit {
		return ErrEditPending
	}
	if c.signedBy(role) {
		return ErrAlreadySigned
	}
	return nil
}

// CanRespondToEdit gates the approve/reject of a pending edit request: only
// the other party may respond, and only while the contract is open.
func (c *Contract) CanRespondToEdit(req *ContractEditRequest, role string, now time.Time) error {
	if req.Status != EditPending {
		return ErrEditProcessed
	}
	if err := c.checkOpen(now); err != nil {
		return err
	}
	if req.RequestedByRole == role {
		return ErrOwnEditRequest
	}
	return nil
}
