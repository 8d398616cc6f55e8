package routes

import (
	authapi "booking-app/internal/api/auth"
	bookingsapi "booking-app/internal/api/bookings"
	contractsapi "booking-app/internal/api/contracts"
	usersapi "booking-app/internal/api/users"
	"booking-app/internal/app/http/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	public := r.Group("/")
	public.Use(middleware.SanitizeAndCleanInputMiddleware())

	public.POST("/register", authapi.Register)
	public.POST("/login", authapi.Login)

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware())
	auth.GET("/me", usersapi.GetCurrentUser)

	auth.POST("/bookings", bookingsapi.CreateBooking)
	auth.GET("/bookings", bookingsapi.ListBookings)
	auth.GET("/bookings/:id", bookingsapi.GetBooking)
	auth.POST("/bookings/:id/ready", bookingsapi.MarkReadyToContract)

	// Contract workflow
	auth.POST("/bookings/:id/contract/initiate", contractsapi.InitiateContract)
	auth.GET("/bookings/:id/contract", contractsapi.GetContract)

	auth.POST("/contracts/:id/review", contractsapi.ReviewContract)
	auth.POST("/contracts/:id/edit-requests/:reqId/respond", contractsapi.RespondToEditRequest)
	auth.POST("/contracts/:id/accept", contractsapi.AcceptContract)
	auth.POST("/contracts/:id/sign", contractsapi.SignContract)
	auth.GET("/contracts/:id/versions", contractsapi.ListContractVersions)
	auth.GET("/contracts/:id/pdf", contractsapi.DownloadContractDocument)

	auth.POST("/contracts/check-deadlines", contractsapi.CheckDeadlines)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.RequireRole("admin"))
	admin.GET("/contracts", contractsapi.AdminListContracts)
	admin.GET("/contracts/:id", contractsapi.AdminGetContract)
	admin.POST("/contracts/:id/review", contractsapi.AdminReviewContract)
}
