package contracts

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Editable term categories. Everything outside these (fee, currency, event
// date/time, venue, party names, commission) lives on the booking and is
// locked for the whole contract lifetime.
const (
	CategoryFinancial     = "financial"
	CategoryTravel        = "travel"
	CategoryAccommodation = "accommodation"
	CategoryTechnical     = "technical"
	CategoryHospitality   = "hospitality"
	CategoryBranding      = "branding"
	CategoryContentRights = "contentRights"
	CategoryCancellation  = "cancellation"
)

var editableCategories = []string{
	CategoryFinancial,
	CategoryTravel,
	CategoryAccommodation,
	CategoryTechnical,
	CategoryHospitality,
	CategoryBranding,
	CategoryContentRights,
	CategoryCancellation,
}

// Locked field names that edit proposals sometimes try to smuggle in at the
// top level. Matching any of these rejects the whole proposal.
var lockedFieldNames = map[string]bool{
	"fee":          true,
	"feeAmount":    true,
	"currency":     true,
	"feeCurrency":  true,
	"eventDate":    true,
	"eventTime":    true,
	"venue":        true,
	"venueName":    true,
	"venueAddress": true,
	"artistName":   true,
	"promoterName": true,
	"parties":      true,
	"commission":   true,
}

// categoryFields maps each editable category to the set of field names its
// typed record accepts, derived from the JSON tags so the table cannot drift
// from the structs. Proposals naming anything else are rejected instead of
// being silently dropped by the decode.
var categoryFields = buildCategoryFields()

func buildCategoryFields() map[string]map[string]bool {
	fields := map[string]map[string]bool{}
	terms := reflect.TypeOf(Terms{})
	for i := 0; i < terms.NumField(); i++ {
		category := jsonName(terms.Field(i))
		record := terms.Field(i).Type
		set := map[string]bool{}
		for j := 0; j < record.NumField(); j++ {
			set[jsonName(record.Field(j))] = true
		}
		fields[category] = set
	}
	return fields
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if i := strings.Index(tag, ","); i >= 0 {
		tag = tag[:i]
	}
	return tag
}

type PaymentMilestone struct {
	Description string  `json:"description"`
	Percent     float64 `json:"percent"`
	DueBy       string  `json:"dueBy,omitempty"`
}

type BankDetails struct {
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
	IFSC          string `json:"ifsc,omitempty"`
	BankName      string `json:"bankName,omitempty"`
}

type FinancialTerms struct {
	PaymentMethod string             `json:"paymentMethod,omitempty"`
	Milestones    []PaymentMilestone `json:"milestones,omitempty"`
	BankDetails   *BankDetails       `json:"bankDetails,omitempty"`
}

type TravelTerms struct {
	FlightClass     string `json:"flightClass,omitempty"`
	FlightsPaidBy   string `json:"flightsPaidBy,omitempty"`
	GroundTransport string `json:"groundTransport,omitempty"`
}

type AccommodationTerms struct {
	HotelStars   *int   `json:"hotelStars,omitempty"`
	RoomType     string `json:"roomType,omitempty"`
	Nights       *int   `json:"nights,omitempty"`
	CheckInTime  string `json:"checkInTime,omitempty"`  // "HH:MM"
	CheckOutTime string `json:"checkOutTime,omitempty"` // "HH:MM"
}

type TechnicalTerms struct {
	SoundCheckMinutes *int   `json:"soundCheckMinutes,omitempty"`
	PASystem          string `json:"paSystem,omitempty"`
	Backline          string `json:"backline,omitempty"`
	StageSize         string `json:"stageSize,omitempty"`
}

type HospitalityTerms struct {
	GuestListCount *int   `json:"guestListCount,omitempty"`
	Catering       string `json:"catering,omitempty"`
	DressingRoom   string `json:"dressingRoom,omitempty"`
}

type BrandingTerms struct {
	LogoOnPromo       string `json:"logoOnPromo,omitempty"`
	SponsorVisibility string `json:"sponsorVisibility,omitempty"`
	MerchandiseRights string `json:"merchandiseRights,omitempty"`
}

type ContentRightsTerms struct {
	RecordingAllowed  string `json:"recordingAllowed,omitempty"`
	SocialMediaUse    string `json:"socialMediaUse,omitempty"`
	PhotographyCredit string `json:"photographyCredit,omitempty"`
}

type CancellationTier struct {
	DaysBeforeEvent int     `json:"daysBeforeEvent"`
	PenaltyPercent  float64 `json:"penaltyPercent"`
}

// CancellationTerms holds two independent penalty schedules, tiered by days
// before the event.
type CancellationTerms struct {
	ByArtist   []CancellationTier `json:"byArtist,omitempty"`
	ByPromoter []CancellationTier `json:"byPromoter,omitempty"`
}

// Terms is the structured editable document carried inside a contract and
// each of its versions.
type Terms struct {
	Financial     FinancialTerms     `json:"financial"`
	Travel        TravelTerms        `json:"travel"`
	Accommodation AccommodationTerms `json:"accommodation"`
	Technical     TechnicalTerms     `json:"technical"`
	Hospitality   HospitalityTerms   `json:"hospitality"`
	Branding      BrandingTerms      `json:"branding"`
	ContentRights ContentRightsTerms `json:"contentRights"`
	Cancellation  CancellationTerms  `json:"cancellation"`
}

// DefaultTerms is the baseline every contract starts from at initiation.
// Editable fields left empty here fall back to render-time defaults, so the
// generated document never shows a blank either way.
func DefaultTerms() Terms {
	return Terms{
		Financial: FinancialTerms{
			Milestones: []PaymentMilestone{
				{Description: "On signing", Percent: 50},
				{Description: "After performance", Percent: 50},
			},
		},
		Cancellation: CancellationTerms{
			ByArtist: []CancellationTier{
				{DaysBeforeEvent: 30, PenaltyPercent: 25},
				{DaysBeforeEvent: 7, PenaltyPercent: 50},
			},
			ByPromoter: []CancellationTier{
				{DaysBeforeEvent: 30, PenaltyPercent: 25},
				{DaysBeforeEvent: 7, PenaltyPercent: 100},
			},
		},
	}
}

// ChangeSet is a parsed edit proposal: editable category name -> partial
// category object, keyed by field.
type ChangeSet map[string]map[string]json.RawMessage

// categoryTarget returns a pointer to the typed category record inside t.
func (t *Terms) categoryTarget(category string) any {
	switch category {
	case CategoryFinancial:
		return &t.Financial
	case CategoryTravel:
		return &t.Travel
	case CategoryAccommodation:
		return &t.Accommodation
	case CategoryTechnical:
		return &t.Technical
	case CategoryHospitality:
		return &t.Hospitality
	case CategoryBranding:
		return &t.Branding
	case CategoryContentRights:
		return &t.ContentRights
	case CategoryCancellation:
		return &t.Cancellation
	}
	return nil
}

// Merge applies a change set per category as a shallow key-by-key overwrite:
// keys absent from the change keep their prior value, keys present replace
// the prior value wholesale (a bankDetails record in the change replaces the
// whole record, it is never merged recursively).
func (t Terms) Merge(cs ChangeSet) (Terms, error) {
	merged := t
	for category, fields := range cs {
		target := merged.categoryTarget(category)
		if target == nil {
			return Terms{}, fmt.Errorf("unknown term category: %s", category)
		}

		current, err := json.Marshal(target)
		if err != nil {
			return Terms{}, err
		}
		base := map[string]json.RawMessage{}
		if err := json.Unmarshal(current, &base); err != nil {
			return Terms{}, err
		}
		for key, value := range fields {
			base[key] = value
		}
		mergedJSON, err := json.Marshal(base)
		if err != nil {
			return Terms{}, err
		}
		// Zero the category before decoding: Unmarshal reuses existing pointer
		// and slice values, which would deep-merge nested records and write
		// through pointers shared with the receiver.
		v := reflect.ValueOf(target).Elem()
		v.Set(reflect.Zero(v.Type()))
		if err := json.Unmarshal(mergedJSON, target); err != nil {
			return Terms{}, fmt.Errorf("invalid value in %s: %w", category, err)
		}
	}
	return merged, nil
}

// ParseChangeSet decodes a raw change payload into a ChangeSet without
// judging its contents; locked-field and business validation happen in
// ValidateChanges.
func ParseChangeSet(raw json.RawMessage) (ChangeSet, error) {
	var cs ChangeSet
	if err := json.Unmarshal(raw, &cs); err != nil {
		return nil, fmt.Errorf("malformed changes payload: %w", err)
	}
	if len(cs) == 0 {
		return nil, fmt.Errorf("changes payload is empty")
	}
	return cs, nil
}
