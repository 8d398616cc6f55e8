package contracts

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ContractStatus string

const (
	StatusSent        ContractStatus = "sent"
	StatusAdminReview ContractStatus = "admin_review"
	StatusSigned      ContractStatus = "signed"
	StatusVoided      ContractStatus = "voided"
)

type EditRequestStatus string

const (
	EditPending  EditRequestStatus = "pending"
	EditApproved EditRequestStatus = "approved"
	EditRejected EditRequestStatus = "rejected"
)

const (
	SignatureTyped    = "typed"
	SignatureDrawn    = "drawn"
	SignatureUploaded = "uploaded"
)

// Party roles inside the contract workflow.
const (
	RoleArtist   = "artist"
	RolePromoter = "promoter"
)

// Contract is 1:1 with a booking. Status only ever moves forward through
// sent -> admin_review -> signed, or terminates at voided.
type Contract struct {
	ID        string `gorm:"type:uuid;primaryKey" json:"id"`
	BookingID string `gorm:"type:uuid;not null;uniqueIndex:idx_contracts_booking" json:"booking_id"`

	Status         ContractStatus `gorm:"type:varchar(20);not null;default:'sent';index" json:"status"`
	CurrentVersion int            `gorm:"not null;default:1" json:"current_version"`
	ContractText   string         `gorm:"type:text;not null" json:"contract_text"`

	// Informational: the order parties are expected to sign in.
	SignerSequence datatypes.JSON `gorm:"type:jsonb" json:"signer_sequence"`

	InitiatedAt time.Time `gorm:"not null" json:"initiated_at"`
	DeadlineAt  time.Time `gorm:"not null;index" json:"deadline_at"`

	ArtistReviewDoneAt   *time.Time `json:"artist_review_done_at,omitempty"`
	PromoterReviewDoneAt *time.Time `json:"promoter_review_done_at,omitempty"`

	ArtistAcceptedAt   *time.Time `json:"artist_accepted_at,omitempty"`
	PromoterAcceptedAt *time.Time `json:"promoter_accepted_at,omitempty"`

	// One-time edit flags, each flips exactly once.
	ArtistEditUsed   bool `gorm:"not null;default:false" json:"artist_edit_used"`
	PromoterEditUsed bool `gorm:"not null;default:false" json:"promoter_edit_used"`

	SignedByArtist   bool       `gorm:"not null;default:false" json:"signed_by_artist"`
	SignedByPromoter bool       `gorm:"not null;default:false" json:"signed_by_promoter"`
	ArtistSignedAt   *time.Time `json:"artist_signed_at,omitempty"`
	PromoterSignedAt *time.Time `json:"promoter_signed_at,omitempty"`
	SignedAt         *time.Time `json:"signed_at,omitempty"` // both signatures present

	// Denormalized snapshot of the current version's terms.
	Terms datatypes.JSONType[Terms] `gorm:"type:jsonb" json:"terms"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ContractVersion is the append-only term history. Version numbers are
// contiguous starting at 1 and Contract.CurrentVersion always equals the
// highest version row.
type ContractVersion struct {
	ID         string `gorm:"type:uuid;primaryKey" json:"id"`
	ContractID string `gorm:"type:uuid;not null;uniqueIndex:idx_contract_versions_unique,priority:1" json:"contract_id"`
	Version    int    `gorm:"not null;uniqueIndex:idx_contract_versions_unique,priority:2" json:"version"`

	ContractText  string                    `gorm:"type:text;not null" json:"contract_text"`
	Terms         datatypes.JSONType[Terms] `gorm:"type:jsonb" json:"terms"`
	CreatedBy     uint                      `gorm:"not null" json:"created_by"`
	ChangeSummary string                    `gorm:"type:text" json:"change_summary"`

	CreatedAt time.Time `json:"created_at"`
}

func (ContractVersion) TableName() string { return "contract_versions" }

// ContractEditRequest holds a one-time-per-party change proposal. At most one
// pending row exists per contract at any time; the one-per-party rule is
// enforced through Contract.*EditUsed, not by counting rows.
type ContractEditRequest struct {
	ID         string `gorm:"type:uuid;primaryKey" json:"id"`
	ContractID string `gorm:"type:uuid;not null;index" json:"contract_id"`

	RequestedBy     uint   `gorm:"not null" json:"requested_by"`
	RequestedByRole string `gorm:"type:varchar(10);not null" json:"requested_by_role"`

	Changes datatypes.JSON `gorm:"type:jsonb;not null" json:"changes"`
	Note    string         `gorm:"type:text" json:"note"`

	Status EditRequestStatus `gorm:"type:varchar(10);not null;default:'pending';index" json:"status"`

	RespondedBy      *uint      `json:"responded_by,omitempty"`
	RespondedAt      *time.Time `json:"responded_at,omitempty"`
	ResponseNote     string     `gorm:"type:text" json:"response_note"`
	ResultingVersion *int       `json:"resulting_version,omitempty"` // set only on approval

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ContractSignature is the append-only signing ledger: one row per signing
// event, never mutated afterwards.
type ContractSignature struct {
	ID         string `gorm:"type:uuid;primaryKey" json:"id"`
	ContractID string `gorm:"type:uuid;not null;index" json:"contract_id"`

	UserID        uint   `gorm:"not null" json:"user_id"`
	Role          string `gorm:"type:varchar(10);not null" json:"role"`
	SignatureData string `gorm:"type:text;not null" json:"signature_data"`
	SignatureType string `gorm:"type:varchar(10);not null" json:"signature_type"`

	IPAddress string `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent string `gorm:"type:text" json:"user_agent"`

	SignedAt time.Time `gorm:"not null" json:"signed_at"`
}

// FullyExecuted reports whether both parties have signed. It is derived from
// the two flags, never stored separately.
func (c *Contract) FullyExecuted() bool {
	return c.SignedByArtist && c.SignedByPromoter
}

func (c *Contract) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (v *ContractVersion) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

func (r *ContractEditRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (s *ContractSignature) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
