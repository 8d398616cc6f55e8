package audit

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records one row per committed mutation. Rows are append-only and
// never updated.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`

	UserID     uint   `gorm:"not null;index" json:"user_id"`
	Action     string `gorm:"type:varchar(64);not null;index" json:"action"`
	EntityType string `gorm:"type:varchar(32);not null;index" json:"entity_type"`
	EntityID   string `gorm:"type:varchar(64);not null;index" json:"entity_id"`

	Context datatypes.JSON `gorm:"type:jsonb" json:"context,omitempty"`
}
