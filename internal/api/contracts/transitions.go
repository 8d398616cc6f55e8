package contracts

import (
	"encoding/json"
	"errors"
	"log/slog"

	"booking-app/internal/domain/audit"
	"booking-app/internal/domain/chat"

	"gorm.io/gorm"
)

// Transition describes one committed contract state change. Each mutating
// handler emits exactly one after its transaction commits; the audit writer
// and the notification poster both consume it, so the state machine itself
// stays free of side effects.
type Transition struct {
	ActorID    uint // 0 for the deadline sweeper
	Action     string
	ContractID string
	BookingID  string
	Message    string // human-readable line for the booking conversation
	Context    map[string]any
}

// Audit actions.
const (
	ActionContractInitiated = "contract_initiated"
	ActionContractReviewed  = "contract_reviewed"
	ActionEditProposed      = "contract_edit_proposed"
	ActionEditApproved      = "contract_edit_approved"
	ActionEditRejected      = "contract_edit_rejected"
	ActionContractAccepted  = "contract_accepted"
	ActionContractSigned    = "contract_signed"
	ActionAdminApproved     = "contract_admin_approved"
	ActionAdminRejected     = "contract_admin_rejected"
	ActionContractVoided    = "contract_voided"
)

// emitTransition appends the audit-log entry and then posts the notification,
// in that order. The transition has already committed, so an audit failure is
// logged loudly but cannot fail the request; notification delivery is
// best-effort by contract.
func emitTransition(db *gorm.DB, t Transition) {
	ctxJSON, err := json.Marshal(t.Context)
	if err != nil {
		ctxJSON = []byte(`{}`)
	}

	entry := audit.AuditLog{
		UserID:     t.ActorID,
		Action:     t.Action,
		EntityType: "contract",
		EntityID:   t.ContractID,
		Context:    ctxJSON,
	}
	if err := db.Create(&entry).Error; err != nil {
		slog.Error("audit log write failed",
			"action", t.Action, "contract_id", t.ContractID, "error", err)
	}

	if err := postSystemMessage(db, t.BookingID, t.Message); err != nil {
		slog.Warn("contract notification failed",
			"action", t.Action, "booking_id", t.BookingID, "error", err)
	}
}

// postSystemMessage drops a system line into the booking's conversation,
// creating the thread if it does not exist yet.
func postSystemMessage(db *gorm.DB, bookingID, body string) error {
	var conv chat.Conversation
	err := db.First(&conv, "booking_id = ?", bookingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		conv = chat.Conversation{BookingID: bookingID}
		if err := db.Create(&conv).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	return db.Create(&chat.Message{
		ConversationID: conv.ID,
		Kind:           chat.MessageKindSystem,
		Body:           body,
	}).Error
}
