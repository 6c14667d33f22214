package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/hms-platform/notification-service/internal/config"
	"github.com/hms-platform/notification-service/internal/database"
	"github.com/hms-platform/notification-service/internal/handlers"
	"github.com/hms-platform/notification-service/internal/jobs"
	"github.com/hms-platform/notification-service/internal/repository"
	cronjobs "github.com/hms-platform/notification-service/internal/scheduler"
	"github.com/hms-platform/notification-service/internal/services"
	"github.com/hms-platform/notification-service/pkg/logger"
	"github.com/hms-platform/notification-service/pkg/middleware"
	"github.com/rs/cors"
)

func main() {
	// Load configuration from .env file
	cfg := config.LoadConfig()

	logger.InitLogger()
	logger.Log.Info("Logger initialized")

	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Database connection error: %v", err)
	}

	notificationRepo := repository.NewNotificationRepository(db)
	notificationService := services.NewNotificationService(notificationRepo)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	router := mux.NewRouter()

	// All notification routes require an authenticated caller.
	notificationRoutes := router.PathPrefix("/notifications").Subrouter()
	notificationRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	notificationRoutes.HandleFunc("", notificationHandler.ListNotificationsHandler).Methods("GET")
	notificationRoutes.HandleFunc("/unread-count", notificationHandler.UnreadCountHandler).Methods("GET")
	notificationRoutes.HandleFunc("/read-all", notificationHandler.MarkAllAsReadHandler).Methods("POST")
	notificationRoutes.HandleFunc("/{id}/read", notificationHandler.MarkAsReadHandler).Methods("POST")

	// Creation is a staff-level write; deletion and stats are administrative.
	staffRoutes := router.PathPrefix("/notifications").Subrouter()
	staffRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	staffRoutes.Use(middleware.RequirePermissionLevel(50))
	staffRoutes.HandleFunc("", notificationHandler.CreateNotificationHandler).Methods("POST")

	adminRoutes := router.PathPrefix("/notifications").Subrouter()
	adminRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	adminRoutes.Use(middleware.RequirePermissionLevel(80))
	adminRoutes.HandleFunc("/stats", notificationHandler.StatsHandler).Methods("GET")
	adminRoutes.HandleFunc("/{id}", notificationHandler.DeleteNotificationHandler).Methods("DELETE")

	router.Use(middleware.LoggingMiddleware)

	// Periodic cleanup of long-expired notifications
	sweeper := jobs.NewExpirySweeper(notificationService)
	cronjobs.StartNotificationCronJobs(sweeper)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"}, // dashboard origin
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	handler := c.Handler(router)

	port := cfg.Port
	fmt.Printf("Server running on port %s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, handler))
}
