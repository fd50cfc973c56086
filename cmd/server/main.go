package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"         // Loads .env files in development
	"github.com/labstack/echo/v4"      // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // Built-in Echo middleware

	"github.com/transportpass/api/internal/config"     // Internal config loader
	"github.com/transportpass/api/internal/database"   // MySQL connection pool
	"github.com/transportpass/api/internal/handler"    // HTTP handlers
	"github.com/transportpass/api/internal/queue"      // Ledger event consumer
	"github.com/transportpass/api/internal/repository" // Data access layer
	"github.com/transportpass/api/internal/router"     // Route registration
)

func main() {
	_ = godotenv.Load() // Load .env if present; real env vars win

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when Redis is unreachable; middleware degrades to no-op

	// Repositories.
	users := repository.NewUserRepo(db)
	passes := repository.NewPassRepo(db)
	bookings := repository.NewBookingRepo(db)
	transactions := repository.NewTransactionRepo(db)

	// Handlers.
	authH := handler.NewAuthHandler(users, &cfg)
	passH := handler.NewPassHandler(passes)
	walletH := handler.NewWalletHandler(users)
	bookingH := handler.NewBookingHandler(passes, bookings, users, transactions)
	txH := handler.NewTransactionHandler(users, transactions)
	adminPassH := handler.NewAdminPassHandler(passes)
	adminUserH := handler.NewAdminUserHandler(users)
	adminBookingH := handler.NewAdminBookingHandler(bookings)
	adminTxH := handler.NewAdminTransactionHandler(transactions)
	adminStatsH := handler.NewAdminStatsHandler(users, passes, bookings, transactions)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	router.RegisterRoutes(e)                                      // Health check
	router.RegisterAuth(e, authH, cfg.JWTSecret, rdb)             // Register + login
	router.RegisterPublic(e, passH, rdb)                          // Public pass catalog
	router.RegisterUser(e, walletH, bookingH, txH, cfg.JWTSecret) // Wallet, bookings, ledger
	router.RegisterAdmin(e, adminPassH, adminUserH, adminBookingH, adminTxH, adminStatsH, cfg.JWTSecret)

	// Background consumer that mirrors committed ledger events to a log file.
	go func() {
		if err := queue.StartLedgerConsumer(); err != nil {
			log.Printf("ledger consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
