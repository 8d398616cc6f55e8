package users

import (
	"time"
)

const (
	RoleArtist   = "artist"
	RolePromoter = "promoter"
	RoleAdmin    = "admin"
)

type User struct {
	ID       uint `gorm:"primaryKey"`
	Name     string
	Lastname string
	Tel      string
	Email    string  `gorm:"not null;uniqueIndex:idx_users_email"`
	Password *string `gorm:""`
	Role     string  `gorm:"type:varchar(20);not null;default:'artist'"`

	StageName   *string `gorm:"column:stage_name"`
	CompanyName *string `gorm:"column:company_name"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
