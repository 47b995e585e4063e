package main

import (
	"database/sql"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/stripe/stripe-go/v82"

	"parkease/internal/api"
	"parkease/internal/auth"
	"parkease/internal/config"
	"parkease/internal/hold"
	"parkease/internal/repository"
	"parkease/internal/service"
	"parkease/internal/state"
)

func main() {
	godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	var (
		remote   state.Remote
		userRepo *repository.UserRepository
		jobRepo  *repository.JobRepository
		lots     service.LotSource = service.CatalogSource{}
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to open DB: %v", err)
		}
		if err := db.Ping(); err != nil {
			log.Fatalf("Failed to connect to DB: %v", err)
		}
		userRepo = repository.NewUserRepository(db)
		jobRepo = repository.NewJobRepository(db)
		vehicleRepo := repository.NewVehicleRepository(db)
		bookingRepo := repository.NewBookingRepository(db)
		lotRepo := repository.NewLotRepository(db)
		remote = repository.NewRemoteStore(userRepo, vehicleRepo, bookingRepo, lotRepo)
		lots = lotRepo
	} else {
		log.Println("DATABASE_URL not set, running in local mode")
	}

	var (
		gateway       service.PaymentGateway
		stripeGateway *service.StripeGateway
		settleDelay   = service.RefundSettleDelay
	)
	if cfg.StripeSecretKey != "" {
		stripe.Key = cfg.StripeSecretKey
		stripeGateway = service.NewStripeGateway(cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)
		gateway = stripeGateway
		// Stripe refunds complete via webhook, not a local timer.
		settleDelay = 0
	} else {
		gateway = service.NewSimulatedGateway()
	}

	stores := state.NewManager(cfg.StateDir, remote)
	holds := hold.NewLeaseStore(hold.DefaultTTL)
	notify := service.NewNotifyService()
	authSvc := service.NewAuthService(userRepo, notify, cfg.JWTSecret)
	bookingSvc := service.NewBookingService(stores, holds, lots, gateway, notify, settleDelay)
	jobSvc := service.NewJobService(holds, authSvc, jobRepo, bookingSvc)

	authHandler := api.NewAuthHandler(authSvc, bookingSvc)
	vehicleHandler := api.NewVehicleHandler(bookingSvc)
	lotHandler := api.NewLotHandler(bookingSvc)
	holdHandler := api.NewHoldHandler(bookingSvc)
	bookingHandler := api.NewBookingHandler(bookingSvc)

	c := cron.New()
	c.AddFunc("@every 1m", jobSvc.SweepExpiredHolds)
	c.AddFunc("@every 5m", func() {
		if err := jobSvc.PurgeExpiredOTPs(); err != nil {
			log.Printf("Error purging expired OTPs: %v", err)
		}
	})
	c.AddFunc("@every 1m", func() {
		if err := jobSvc.CompleteStuckRefunds(); err != nil {
			log.Printf("Error completing stuck refunds: %v", err)
		}
	})
	c.Start()
	defer c.Stop()

	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/api/auth/otp", authHandler.RequestOTP).Methods("POST")
	r.HandleFunc("/api/auth/verify", authHandler.VerifyOTP).Methods("POST")
	r.HandleFunc("/api/lots", lotHandler.ListLots).Methods("GET")
	r.HandleFunc("/api/lots/{id}", lotHandler.GetLot).Methods("GET")
	r.HandleFunc("/api/lots/{id}/slots", lotHandler.SlotGrid).Methods("POST")

	if stripeGateway != nil {
		stripeHandler := api.NewStripeWebhookHandler(cfg.StripeWebhookSecret, bookingSvc, stripeGateway)
		r.HandleFunc("/api/stripe/webhook", stripeHandler.HandleWebhook).Methods("POST")
	}

	// Session-scoped endpoints
	user := r.PathPrefix("/api").Subrouter()
	user.Use(auth.SessionMiddleware(cfg.JWTSecret))
	user.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST")
	user.HandleFunc("/state", bookingHandler.GetState).Methods("GET")
	user.HandleFunc("/location", bookingHandler.SetLocation).Methods("PUT")
	user.HandleFunc("/vehicles", vehicleHandler.ListVehicles).Methods("GET")
	user.HandleFunc("/vehicles", vehicleHandler.AddVehicle).Methods("POST")
	user.HandleFunc("/vehicles/{id}", vehicleHandler.RemoveVehicle).Methods("DELETE")
	user.HandleFunc("/holds", holdHandler.PlaceHold).Methods("POST")
	user.HandleFunc("/holds/{slotID}", holdHandler.GetHold).Methods("GET")
	user.HandleFunc("/holds/{slotID}", holdHandler.ReleaseHold).Methods("DELETE")
	user.HandleFunc("/draft/lot", bookingHandler.SetDraftLot).Methods("PUT")
	user.HandleFunc("/draft/vehicle", bookingHandler.SetDraftVehicle).Methods("PUT")
	user.HandleFunc("/draft/times", bookingHandler.SetDraftTimes).Methods("PUT")
	user.HandleFunc("/draft", bookingHandler.ClearDraft).Methods("DELETE")
	user.HandleFunc("/bookings", bookingHandler.ConfirmBooking).Methods("POST")
	user.HandleFunc("/bookings", bookingHandler.ListBookings).Methods("GET")
	user.HandleFunc("/bookings/{id}", bookingHandler.GetBooking).Methods("GET")
	user.HandleFunc("/bookings/{id}", bookingHandler.CancelBooking).Methods("DELETE")
	user.HandleFunc("/bookings/{id}/checkin", bookingHandler.CheckIn).Methods("POST")
	user.HandleFunc("/bookings/{id}/checkout", bookingHandler.CheckOut).Methods("POST")
	user.HandleFunc("/bookings/{id}/receipt", bookingHandler.GetReceipt).Methods("GET")
	user.HandleFunc("/bookings/{id}/receipt/email", bookingHandler.EmailReceipt).Methods("POST")

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.CORSOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "Stripe-Signature"}),
	)

	log.Printf("Server running on port %s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, cors(r)))
}
