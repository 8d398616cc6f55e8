package contracts

import (
	"fmt"
	"strings"

	"booking-app/internal/domain/bookings"
)

// Render-time defaults. Every editable field the parties never touched is
// substituted from here so the generated document never shows a blank.
const (
	DefaultPaymentMethod     = "Bank Transfer"
	DefaultBankDetailsNote   = "To be provided before first payment"
	DefaultFlightClass       = "Economy"
	DefaultFlightsPaidBy     = "Promoter"
	DefaultGroundTransport   = "Provided by promoter"
	DefaultRoomType          = "Single"
	DefaultCheckInTime       = "12:00"
	DefaultCheckOutTime      = "23:00"
	DefaultSoundCheckMinutes = 60
	DefaultPASystem          = "Provided by venue"
	DefaultBackline          = "Provided by venue"
	DefaultStageSize         = "As per venue specification"
	DefaultGuestListCount    = 10
	DefaultCatering          = "Standard meals for artist and crew"
	DefaultDressingRoom      = "One private dressing room"
	DefaultLogoOnPromo       = "Permitted with prior approval"
	DefaultSponsorVisibility = "Event sponsors only"
	DefaultMerchandiseRights = "Artist retains all merchandise rights"
	DefaultRecordingAllowed  = "Not permitted without written consent"
	DefaultSocialMediaUse    = "Short clips permitted with artist credit"
	DefaultPhotoCredit       = "Artist credit required"
	DefaultHotelStars        = 3
	DefaultNights            = 1
)

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func orDefaultInt(value *int, fallback int) int {
	if value == nil {
		return fallback
	}
	return *value
}

// Render produces the human-readable contract document for a booking and a
// term snapshot. It is a pure function: the same inputs always yield
// byte-identical output, because signatures are taken against a specific
// rendered text.
func Render(b *bookings.Booking, t Terms) string {
	var sb strings.Builder

	sb.WriteString("PERFORMANCE AGREEMENT\n")
	sb.WriteString("=====================\n\n")

	sb.WriteString("PARTIES\n")
	fmt.Fprintf(&sb, "Artist: %s\n", b.ArtistName)
	fmt.Fprintf(&sb, "Promoter: %s\n\n", b.PromoterName)

	sb.WriteString("ENGAGEMENT\n")
	fmt.Fprintf(&sb, "Event: %s\n", b.EventName)
	fmt.Fprintf(&sb, "Date: %s\n", b.EventDate.UTC().Format("2 January 2006"))
	fmt.Fprintf(&sb, "Start time: %s\n", orDefault(b.EventTime, "To be confirmed"))
	fmt.Fprintf(&sb, "Venue: %s", b.VenueName)
	if b.VenueCity != "" {
		fmt.Fprintf(&sb, ", %s", b.VenueCity)
	}
	sb.WriteString("\n\n")

	sb.WriteString("FEE\n")
	fmt.Fprintf(&sb, "Performance fee: %d %s\n", b.FeeAmount, b.FeeCurrency)
	fmt.Fprintf(&sb, "Agency commission: %g%% of the performance fee\n\n", b.CommissionPercent)

	sb.WriteString("PAYMENT\n")
	fmt.Fprintf(&sb, "Method: %s\n", orDefault(t.Financial.PaymentMethod, DefaultPaymentMethod))
	if len(t.Financial.Milestones) > 0 {
		sb.WriteString("Schedule:\n")
		for _, m := range t.Financial.Milestones {
			fmt.Fprintf(&sb, "  - %g%% %s", m.Percent, m.Description)
			if m.DueBy != "" {
				fmt.Fprintf(&sb, " (due %s)", m.DueBy)
			}
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString("Schedule: 100% on completion\n")
	}
	if bd := t.Financial.BankDetails; bd != nil {
		fmt.Fprintf(&sb, "Bank details: %s, account %s", bd.AccountName, bd.AccountNumber)
		if bd.BankName != "" {
			fmt.Fprintf(&sb, ", %s", bd.BankName)
		}
		if bd.IFSC != "" {
			fmt.Fprintf(&sb, " (IFSC %s)", bd.IFSC)
		}
		sb.WriteString("\n")
	} else {
		fmt.Fprintf(&sb, "Bank details: %s\n", DefaultBankDetailsNote)
	}
	sb.WriteString("\n")

	sb.WriteString("TRAVEL\n")
	fmt.Fprintf(&sb, "Flight class: %s\n", orDefault(t.Travel.FlightClass, DefaultFlightClass))
	fmt.Fprintf(&sb, "Flights paid by: %s\n", orDefault(t.Travel.FlightsPaidBy, DefaultFlightsPaidBy))
	fmt.Fprintf(&sb, "Ground transport: %s\n\n", orDefault(t.Travel.GroundTransport, DefaultGroundTransport))

	sb.WriteString("ACCOMMODATION\n")
	fmt.Fprintf(&sb, "Hotel: %d-star or better\n", orDefaultInt(t.Accommodation.HotelStars, DefaultHotelStars))
	fmt.Fprintf(&sb, "Room: %s, %d night(s)\n",
		orDefault(t.Accommodation.RoomType, DefaultRoomType),
		orDefaultInt(t.Accommodation.Nights, DefaultNights))
	fmt.Fprintf(&sb, "Check-in: %s, check-out: %s\n\n",
		orDefault(t.Accommodation.CheckInTime, DefaultCheckInTime),
		orDefault(t.Accommodation.CheckOutTime, DefaultCheckOutTime))

	sb.WriteString("TECHNICAL\n")
	fmt.Fprintf(&sb, "Sound check: %d minutes\n", orDefaultInt(t.Technical.SoundCheckMinutes, DefaultSoundCheckMinutes))
	fmt.Fprintf(&sb, "PA system: %s\n", orDefault(t.Technical.PASystem, DefaultPASystem))
	fmt.Fprintf(&sb, "Backline: %s\n", orDefault(t.Technical.Backline, DefaultBackline))
	fmt.Fprintf(&sb, "Stage: %s\n\n", orDefault(t.Technical.StageSize, DefaultStageSize))

	sb.WriteString("HOSPITALITY\n")
	fmt.Fprintf(&sb, "Guest list: %d guests\n", orDefaultInt(t.Hospitality.GuestListCount, DefaultGuestListCount))
	fmt.Fprintf(&sb, "Catering: %s\n", orDefault(t.Hospitality.Catering, DefaultCatering))
	fmt.Fprintf(&sb, "Dressing room: %s\n\n", orDefault(t.Hospitality.DressingRoom, DefaultDressingRoom))

	sb.WriteString("BRANDING\n")
	fmt.Fprintf(&sb, "Artist logo on promotion: %s\n", orDefault(t.Branding.LogoOnPromo, DefaultLogoOnPromo))
	fmt.Fprintf(&sb, "Sponsor visibility: %s\n", orDefault(t.Branding.SponsorVisibility, DefaultSponsorVisibility))
	fmt.Fprintf(&sb, "Merchandise: %s\n\n", orDefault(t.Branding.MerchandiseRights, DefaultMerchandiseRights))

	sb.WriteString("CONTENT RIGHTS\n")
	fmt.Fprintf(&sb, "Recording: %s\n", orDefault(t.ContentRights.RecordingAllowed, DefaultRecordingAllowed))
	fmt.Fprintf(&sb, "Social media: %s\n", orDefault(t.ContentRights.SocialMediaUse, DefaultSocialMediaUse))
	fmt.Fprintf(&sb, "Photography: %s\n\n", orDefault(t.ContentRights.PhotographyCredit, DefaultPhotoCredit))

	sb.WriteString("CANCELLATION\n")
	writePenaltySchedule(&sb, "By artist", t.Cancellation.ByArtist)
	writePenaltySchedule(&sb, "By promoter", t.Cancellation.ByPromoter)

	return sb.String()
}

func writePenaltySchedule(sb *strings.Builder, label string, tiers []CancellationTier) {
	if len(tiers) == 0 {
		fmt.Fprintf(sb, "%s: no penalty schedule agreed\n", label)
		return
	}
	fmt.Fprintf(sb, "%s:\n", label)
	for _, tier := range tiers {
		fmt.Fprintf(sb, "  - within %d days of the event: %g%% of the fee\n",
			tier.DaysBeforeEvent, tier.PenaltyPercent)
	}
}
