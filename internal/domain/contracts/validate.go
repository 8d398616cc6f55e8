package contracts

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// Bounds for editable numeric fields.
const (
	MinSoundCheckMinutes = 15
	MaxSoundCheckMinutes = 180
	MaxGuestListCount    = 20
)

var hhmmPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ValidationError carries every violation found in a proposal. The whole
// proposal stands or falls together, so all rules run before rejecting.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "invalid contract changes: " + strings.Join(e.Violations, "; ")
}

// ValidateChanges checks a proposal against the locked-field policy and the
// business rules, then returns the merged candidate terms. On failure the
// returned error is a *ValidationError listing every violation; no partial
// merge survives.
func ValidateChanges(current Terms, cs ChangeSet) (Terms, error) {
	var violations []string

	categories := make([]string, 0, len(cs))
	for category := range cs {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	valid := ChangeSet{}
	milestonesProposed := false
	for _, category := range categories {
		switch {
		case lockedFieldNames[category]:
			violations = append(violations, fmt.Sprintf("field %q is locked and cannot be changed", category))
		case !isEditableCategory(category):
			violations = append(violations, fmt.Sprintf("unknown term category %q", category))
		default:
			// Field names inside a category get the same treatment as the
			// category itself: locked names are rejected wherever they appear,
			// and names the record does not have are rejected rather than
			// silently dropped by the decode.
			fields := make([]string, 0, len(cs[category]))
			for field := range cs[category] {
				fields = append(fields, field)
			}
			sort.Strings(fields)

			clean := true
			for _, field := range fields {
				switch {
				case lockedFieldNames[field]:
					violations = append(violations, fmt.Sprintf("field %q is locked and cannot be changed", field))
					clean = false
				case !categoryFields[category][field]:
					violations = append(violations, fmt.Sprintf("unknown field %q in category %q", field, category))
					clean = false
				}
			}
			if clean {
				valid[category] = cs[category]
				if category == CategoryFinancial {
					_, milestonesProposed = cs[category]["milestones"]
				}
			}
		}
	}

	merged, err := current.Merge(valid)
	if err != nil {
		violations = append(violations, err.Error())
		merged = current
	}

	// An absent milestone schedule is a fine standing state, but a proposal
	// that sets one must satisfy the sum rule, so proposing an empty schedule
	// (sum 0) is a violation. Non-empty schedules are checked below.
	if milestonesProposed && len(merged.Financial.Milestones) == 0 {
		violations = append(violations,
			"payment milestone percentages must sum to exactly 100, got 0")
	}

	violations = append(violations, merged.businessViolations()...)

	if len(violations) > 0 {
		return Terms{}, &ValidationError{Violations: violations}
	}
	return merged, nil
}

func isEditableCategory(name string) bool {
	for _, c := range editableCategories {
		if c == name {
			return true
		}
	}
	return false
}

// businessViolations runs the cross-field rules over a candidate term set.
// Unset optional fields are skipped; set fields must be in range.
func (t Terms) businessViolations() []string {
	var violations []string

	if len(t.Financial.Milestones) > 0 {
		sum := 0.0
		for _, m := range t.Financial.Milestones {
			sum += m.Percent
		}
		if math.Abs(sum-100) > 1e-9 {
			violations = append(violations,
				fmt.Sprintf("payment milestone percentages must sum to exactly 100, got %g", sum))
		}
	}

	if t.Accommodation.CheckInTime != "" && !hhmmPattern.MatchString(t.Accommodation.CheckInTime) {
		violations = append(violations,
			fmt.Sprintf("accommodation check-in time %q is not HH:MM", t.Accommodation.CheckInTime))
	}
	if t.Accommodation.CheckOutTime != "" && !hhmmPattern.MatchString(t.Accommodation.CheckOutTime) {
		violations = append(violations,
			fmt.Sprintf("accommodation check-out time %q is not HH:MM", t.Accommodation.CheckOutTime))
	}
	if hhmmPattern.MatchString(t.Accommodation.CheckInTime) &&
		hhmmPattern.MatchString(t.Accommodation.CheckOutTime) &&
		t.Accommodation.CheckInTime >= t.Accommodation.CheckOutTime {
		violations = append(violations,
			"accommodation check-in time must be before check-out time")
	}

	if m := t.Technical.SoundCheckMinutes; m != nil && (*m < MinSoundCheckMinutes || *m > MaxSoundCheckMinutes) {
		violations = append(violations,
			fmt.Sprintf("sound check duration must be between %d and %d minutes, got %d",
				MinSoundCheckMinutes, MaxSoundCheckMinutes, *m))
	}

	if g := t.Hospitality.GuestListCount; g != nil && (*g < 0 || *g > MaxGuestListCount) {
		violations = append(violations,
			fmt.Sprintf("guest list count must be between 0 and %d, got %d", MaxGuestListCount, *g))
	}

	for _, tier := range t.Cancellation.ByArtist {
		if tier.PenaltyPercent < 0 || tier.PenaltyPercent > 100 {
			violations = append(violations,
				fmt.Sprintf("artist cancellation penalty must be between 0 and 100 percent, got %g", tier.PenaltyPercent))
		}
	}
	for _, tier := range t.Cancellation.ByPromoter {
		if tier.PenaltyPercent < 0 || tier.PenaltyPercent > 100 {
			violations = append(violations,
				fmt.Sprintf("promoter cancellation penalty must be between 0 and 100 percent, got %g", tier.PenaltyPercent))
		}
	}

	return violations
}
