package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation is the per-booking message thread. The contract workflow only
// ever posts system messages into it; human messaging is handled elsewhere.
type Conversation struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	BookingID string    `gorm:"type:uuid;not null;uniqueIndex:idx_conversations_booking" json:"booking_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Message struct {
	ID             string `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID string `gorm:"type:uuid;not null;index" json:"conversation_id"`
	SenderID       *uint  `gorm:"index" json:"sender_id,omitempty"` // nil for system messages
	Kind           string `gorm:"type:varchar(20);not null;default:'user'" json:"kind"`
	Body           string `gorm:"type:text;not null" json:"body"`

	CreatedAt time.Time `json:"created_at"`
}

const (
	MessageKindUser   = "user"
	MessageKindSystem = "system"
)

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
