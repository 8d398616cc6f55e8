package bookings

import (
	"errors"
	"net/http"
	"time"

	"booking-app/database"
	"booking-app/internal/domain/bookings"
	"booking-app/internal/domain/chat"
	"booking-app/internal/domain/users"

	"github.com/gin-gonic/gin"
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

type CreateBookingRequest struct {
	ArtistID          uint      `json:"artist_id" binding:"required"`
	EventName         string    `json:"event_name" binding:"required"`
	EventDate         time.Time `json:"event_date" binding:"required"`
	EventTime         string    `json:"event_time"`
	VenueName         string    `json:"venue_name" binding:"required"`
	VenueAddress      string    `json:"venue_address"`
	VenueCity         string    `json:"venue_city"`
	FeeAmount         int64     `json:"fee_amount" binding:"required,gt=0"`
	FeeCurrency       string    `json:"fee_currency" binding:"required,len=3"`
	CommissionPercent float64   `json:"commission_percent"`
}

// POST /bookings — promoters open a booking against an artist. The
// negotiation that fills in the final fee happens elsewhere; this handler is
// the thin entry point that the contract workflow later reads from.
func CreateBooking(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var promoter users.User
	if err := database.DB.First(&promoter, "id = ? AND role = ?", userID, users.RolePromoter).Error; err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only promoters can create bookings"})
		return
	}

	var artist users.User
	if err := database.DB.First(&artist, "id = ? AND role = ?", req.ArtistID, users.RoleArtist).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Artist not found"})
		return
	}

	artistName := artist.Name + " " + artist.Lastname
	if artist.StageName != nil && *artist.StageName != "" {
		artistName = *artist.StageName
	}
	promoterName := promoter.Name + " " + promoter.Lastname
	if promoter.CompanyName != nil && *promoter.CompanyName != "" {
		promoterName = *promoter.CompanyName
	}

	commission := req.CommissionPercent
	if commission == 0 {
		commission = 10
	}

	b := bookings.Booking{
		ArtistID:          artist.ID,
		PromoterID:        promoter.ID,
		ArtistName:        artistName,
		PromoterName:      promoterName,
		EventName:         req.EventName,
		EventDate:         req.EventDate,
		EventTime:         req.EventTime,
		VenueName:         req.VenueName,
		VenueAddress:      req.VenueAddress,
		VenueCity:         req.VenueCity,
		FeeAmount:         req.FeeAmount,
		FeeCurrency:       req.FeeCurrency,
		CommissionPercent: commission,
		Status:            bookings.StatusNegotiating,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&b).Error; err != nil {
			return err
		}
		// Every booking gets its conversation thread up front.
		return tx.Create(&chat.Conversation{BookingID: b.ID}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create booking"})
		return
	}

	c.JSON(http.StatusCreated, b)
}

// GET /bookings/:id
func GetBooking(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var b bookings.Booking
	err := database.DB.First(&b,
		"id = ? AND (artist_id = ? OR promoter_id = ?)", c.Param("id"), userID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load booking"})
		return
	}

	c.JSON(http.StatusOK, b)
}

// GET /bookings
func ListBookings(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var list []bookings.Booking
	err := database.DB.
		Where("artist_id = ? OR promoter_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load bookings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": list})
}

// POST /bookings/:id/ready — marks negotiation as finished so a contract can
// be initiated.
func MarkReadyToContract(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	res := database.DB.Model(&bookings.Booking{}).
		Where("id = ? AND (artist_id = ? OR promoter_id = ?) AND status = ?",
			c.Param("id"), userID, userID, bookings.StatusNegotiating).
		Update("status", bookings.StatusReadyToContract)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update booking"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Booking not found or not in negotiation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": string(bookings.StatusReadyToContract)})
}
