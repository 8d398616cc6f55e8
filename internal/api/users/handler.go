package users

import (
	"net/http"

	"booking-app/database"
	"booking-app/internal/domain/users"

	"github.com/gin-gonic/gin"
)

type MeResponse struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Lastname    string  `json:"lastname"`
	Email       string  `json:"email"`
	Role        string  `json:"role"`
	StageName   *string `json:"stage_name,omitempty"`
	CompanyName *string `json:"company_name,omitempty"`
}

func GetCurrentUser(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var user users.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, MeResponse{
		ID:          user.ID,
		Name:        user.Name,
		Lastname:    user.Lastname,
		Email:       user.Email,
		Role:        user.Role,
		StageName:   user.StageName,
		CompanyName: user.CompanyName,
	})
}
