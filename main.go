package main

import (
	"log/slog"
	"os"
	"time"

	"booking-app/config"
	"booking-app/database"
	contractsapi "booking-app/internal/api/contracts"
	routes "booking-app/internal/app/http"
	"booking-app/internal/app/http/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// gin.SetMode(gin.ReleaseMode) uncomment only in production
	config.LoadEnv()
	database.InitDB()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	r := gin.Default()
	r.Use(middleware.RequestLogger())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.CORS_ORIGIN},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r)

	// The deadline endpoint stays available for on-demand sweeps; this just
	// makes sure expired contracts get voided promptly without a caller.
	stop := make(chan struct{})
	defer close(stop)
	contractsapi.StartDeadlineSweeper(
		database.DB,
		time.Duration(config.SWEEP_INTERVAL_MINUTES)*time.Minute,
		stop,
	)

	r.Run(":" + config.PORT)
}
