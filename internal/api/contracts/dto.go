package contracts

import (
	"encoding/json"
	"time"

	"booking-app/internal/domain/contracts"
)

// Review actions.
const (
	ActionAcceptAsIs   = "ACCEPT_AS_IS"
	ActionProposeEdits = "PROPOSE_EDITS"
)

// Edit-request decisions.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// Admin decisions.
const (
	AdminApproved = "approved"
	AdminRejected = "rejected"
)

type ReviewRequest struct {
	Action  string          `json:"action" binding:"required,oneof=ACCEPT_AS_IS PROPOSE_EDITS"`
	Changes json.RawMessage `json:"changes,omitempty"`
	Note    string          `json:"note,omitempty"`
}

type RespondRequest struct {
	Decision     string `json:"decision" binding:"required,oneof=approve reject"`
	ResponseNote string `json:"response_note,omitempty"`
}

type SignRequest struct {
	SignatureData string `json:"signature_data" binding:"required"`
	SignatureType string `json:"signature_type" binding:"required,oneof=typed drawn uploaded"`
}

type AdminReviewRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approved rejected"`
	Note     string `json:"note,omitempty"`
}

// ContractResponse wraps the contract with per-caller derived fields.
type ContractResponse struct {
	Contract *contracts.Contract `json:"contract"`

	UserRole      string `json:"userRole"`
	UserCanEdit   bool   `json:"userCanEdit"`
	TimeRemaining int64  `json:"timeRemaining"` // seconds until deadline, 0 once passed
}

func buildContractResponse(c *contracts.Contract, role string, hasPendingEdit bool, now time.Time) ContractResponse {
	remaining := int64(0)
	if c.Status == contracts.StatusSent && now.Before(c.DeadlineAt) {
		remaining = int64(c.DeadlineAt.Sub(now).Seconds())
	}

	canEdit := c.CanProposeEdits(role, hasPendingEdit, now) == nil

	return ContractResponse{
		Contract:      c,
		UserRole:      role,
		UserCanEdit:   canEdit,
		TimeRemaining: remaining,
	}
}
