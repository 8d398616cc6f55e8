package database

import (
	"fmt"
	"log"
	"os"

	"booking-app/internal/domain/audit"
	"booking-app/internal/domain/bookings"
	"booking-app/internal/domain/chat"
	"booking-app/internal/domain/contracts"
	"booking-app/internal/domain/users"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB() {
	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		log.Fatal("DB_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	DB = db

	if err := Migrate(DB); err != nil {
		log.Fatal("AutoMigrate error:", err)
	}

	fmt.Println("Connected and migrated successfully")
}

// Migrate runs AutoMigrate for every domain model. Split out so tests can run
// it against their own gorm dialector.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// core
		&users.User{},
		&bookings.Booking{},

		// contract workflow
		&contracts.Contract{},
		&contracts.ContractVersion{},
		&contracts.ContractEditRequest{},
		&contracts.ContractSignature{},

		// side channels
		&chat.Conversation{},
		&chat.Message{},
		&audit.AuditLog{},
	)
}
