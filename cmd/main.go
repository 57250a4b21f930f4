package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rozgarhub/rozgarhub-gobackend/internal/db"
	"github.com/rozgarhub/rozgarhub-gobackend/internal/handlers"
	"github.com/rozgarhub/rozgarhub-gobackend/internal/services"
)

const reconcileInterval = 5 * time.Minute

func main() {
	// Load .env
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Error loading .env: %s", err)
	}

	uri := os.Getenv("MONGOURI")
	if uri == "" {
		log.Fatal("MONGOURI environment variable not set")
	}
	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := db.Connect(ctx, uri)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer disconnectCancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()
	log.Println("Successfully connected to MongoDB")

	database := client.Database("rozgarhubdb")

	// Initialize services and handlers
	settingsService := services.NewSettingsService(database)
	fanoutService := services.NewFanoutService(database)

	userService := services.NewUserService(database, settingsService)
	userHandler := handlers.NewUserHandler(userService)

	reviewService := services.NewReviewService(database, settingsService, fanoutService)
	reviewHandler := handlers.NewReviewHandler(reviewService)

	placementService := services.NewPlacementService(database, settingsService, fanoutService)
	placementHandler := handlers.NewPlacementHandler(placementService)

	reconcileService := services.NewReconcileService(database)
	adminHandler := handlers.NewAdminHandler(settingsService, reconcileService)

	notificationHandler := handlers.NewNotificationHandler(services.NewNotificationStore(database))

	indexCtx, indexCancel := context.WithTimeout(ctx, 30*time.Second)
	defer indexCancel()
	if err := reviewService.EnsureIndexes(indexCtx, database); err != nil {
		log.Printf("Warning: failed to create payment indexes: %v", err)
	}
	if err := placementService.EnsureIndexes(indexCtx, database); err != nil {
		log.Printf("Warning: failed to create placement indexes: %v", err)
	}

	// Background sweep for approved payments whose dependent writes failed.
	go reconcileService.Run(ctx, reconcileInterval)

	// Set up router
	router := mux.NewRouter()
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET", "HEAD")

	router.HandleFunc("/api/user", userHandler.CreateAccount).Methods("POST")
	router.HandleFunc("/api/users", userHandler.GetAccounts).Methods("GET")
	router.HandleFunc("/api/user/{userID}", userHandler.GetAccount).Methods("GET")
	router.HandleFunc("/api/login", userHandler.Login).Methods("POST")

	router.HandleFunc("/api/payment", reviewHandler.SubmitPayment).Methods("POST")
	router.HandleFunc("/api/payments", reviewHandler.GetPayments).Methods("GET")
	router.HandleFunc("/api/payment/{paymentID}", reviewHandler.GetPayment).Methods("GET")
	router.HandleFunc("/api/payment/{paymentID}/approve", reviewHandler.ApprovePayment).Methods("POST")
	router.HandleFunc("/api/payment/{paymentID}/reject", reviewHandler.RejectPayment).Methods("POST")
	router.HandleFunc("/api/userid/{userID}/payments", reviewHandler.GetPaymentsByUserID).Methods("GET")

	router.HandleFunc("/api/placement", placementHandler.CreatePlacement).Methods("POST")
	router.HandleFunc("/api/placements", placementHandler.GetPlacements).Methods("GET")
	router.HandleFunc("/api/placements/overdue", placementHandler.GetOverduePlacements).Methods("GET")
	router.HandleFunc("/api/placement/{placementID}", placementHandler.GetPlacement).Methods("GET")
	router.HandleFunc("/api/placement/{placementID}/collect", placementHandler.CollectCommission).Methods("POST")
	router.HandleFunc("/api/placement/{placementID}/fail", placementHandler.FailCommission).Methods("POST")

	router.HandleFunc("/api/userid/{userID}/notifications", notificationHandler.GetNotifications).Methods("GET")
	router.HandleFunc("/api/notification/{notificationID}/read", notificationHandler.MarkRead).Methods("PATCH")

	router.HandleFunc("/api/settings", adminHandler.GetSettings).Methods("GET")
	router.HandleFunc("/api/admin/reconcile", adminHandler.Reconcile).Methods("POST")

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	server := &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	log.Printf("Server running on port %s", port)
	log.Fatal(server.ListenAndServe())
}
