package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	api "presensi-backend/cmd/api"
	empdomain "presensi-backend/internal/employee/domain"
	empRepo "presensi-backend/internal/employee/repository"
	"presensi-backend/internal/notification"
	notifdomain "presensi-backend/internal/notification/domain"
	notifRepo "presensi-backend/internal/notification/repository"
	permitdomain "presensi-backend/internal/permit/domain"
	permitRepo "presensi-backend/internal/permit/repository"
	presencedomain "presensi-backend/internal/presence/domain"
	presenceRepo "presensi-backend/internal/presence/repository"
	"presensi-backend/internal/sync"
	syncRepo "presensi-backend/internal/sync/repository"
	"presensi-backend/internal/sync/scheduler"
	"presensi-backend/pkg/config"
	"presensi-backend/pkg/database"
	"presensi-backend/pkg/fcm"
	"presensi-backend/pkg/firestore"

	"github.com/gin-gonic/gin"
)

func main() {
	// File/line context on every log line helps trace loop failures
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(&empdomain.Employee{}, &permitdomain.Permit{}, &presencedomain.Presence{}, &notifdomain.Notification{}, &notifdomain.DeviceToken{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Source Store adapter (missing credentials are fatal: the service is
	// useless without its system of record)
	sourceClient, err := firestore.NewClient(ctx, cfg.GoogleProjectID, cfg.FirebaseCredentials, cfg.RetryAttempts, cfg.RetryTimeout)
	if err != nil {
		log.Fatal("Failed to initialize Source Store client:", err)
	}
	defer sourceClient.Close()

	// Push Gateway adapter
	fcmClient, err := fcm.NewClient(cfg.FirebaseCredentials)
	if err != nil {
		log.Fatal("Failed to initialize FCM client:", err)
	}

	// Initialize repositories (dependency injection)
	employeeRepository := empRepo.NewGormEmployeeRepository(db)
	permitRepository := permitRepo.NewGormPermitRepository(db)
	presenceRepository := presenceRepo.NewGormPresenceRepository(db)
	notificationRepository := notifRepo.NewNotificationRepository(db)
	deviceTokenRepository := notifRepo.NewDeviceTokenRepository(db)

	// Reconciliation engine over the two stores
	localStore := syncRepo.NewLocalStore(employeeRepository, permitRepository, presenceRepository)
	source := sync.NewFirestoreSource(sourceClient)
	engine := sync.NewEngine(localStore, source)

	// Notification pipeline
	tokenStore := notification.NewTokenStore(sourceClient, deviceTokenRepository, employeeRepository, cfg.TokenRetentionWindow)
	dispatcher := notification.NewDispatcher(tokenStore, fcmClient, notificationRepository, cfg.RetryAttempts, cfg.DefaultPriority)
	trigger := notification.NewTrigger(dispatcher, notificationRepository, engine.Events(), cfg.DefaultPriority)
	trigger.Start(ctx)

	// Polling sync loop
	sched := scheduler.NewScheduler(engine, source, cfg.PollInterval)
	sched.Start(ctx)

	// Push-driven change listener (optional, needs a configured topic)
	if cfg.PubSubTopic != "" {
		listener, err := sync.NewListener(cfg.GoogleProjectID, cfg.PubSubTopic, engine, cfg.FirebaseCredentials)
		if err != nil {
			log.Printf("[WARN] Failed to initialize change listener (polling only): %v", err)
		} else {
			go listener.Start(ctx)
		}
	}

	// HTTP surface
	r := gin.Default()
	handler := api.NewHandler(engine, source, sched, dispatcher, notificationRepository, tokenStore)
	api.SetupRoutes(r, handler)

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := r.Run(":" + cfg.Port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Graceful shutdown: stop the loop after its in-flight iteration
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	sched.Stop()
	cancel()
}
