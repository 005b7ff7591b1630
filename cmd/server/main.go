package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron"

	config "github.com/nmehta6/socialdesk/configs"
	"github.com/nmehta6/socialdesk/internal/api/handlers"
	"github.com/nmehta6/socialdesk/internal/api/middleware"
	"github.com/nmehta6/socialdesk/internal/backend"
	"github.com/nmehta6/socialdesk/internal/connectivity"
	job "github.com/nmehta6/socialdesk/internal/jobs"
	"github.com/nmehta6/socialdesk/internal/queue"
	"github.com/nmehta6/socialdesk/internal/repository"
	"github.com/nmehta6/socialdesk/internal/service"
	"github.com/nmehta6/socialdesk/internal/session"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := fiber.New(fiber.Config{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	userRepo := repository.NewUserRepository(db)
	connectionRepo := repository.NewSocialConnectionRepository(db)

	authClient := backend.New(cfg.BackendURL, cfg.BackendKey, cfg.BackendTokenFile, cfg.SecretKey)

	bootstrapper := session.NewBootstrapper(authClient, userRepo)
	monitor := connectivity.NewMonitor(authClient, bootstrapper.Retry, bootstrapper.Unauthenticated)
	watcher := connectivity.NewNetworkWatcher(authClient.Host(), time.Duration(cfg.NetProbeSeconds)*time.Second)

	go bootstrapper.Run(ctx)
	go monitor.Run(ctx)
	go watcher.Run(ctx, monitor)

	userService := service.NewUserService(userRepo)
	connectionService := service.NewConnectionService(*cfg, connectionRepo)
	facebookService := service.NewFacebookService(*cfg, connectionRepo)
	instagramService := service.NewInstagramService(*cfg, connectionRepo)

	authMiddleware := middleware.NewAuthMiddleware(bootstrapper)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/ready", func(c *fiber.Ctx) error {
		if !bootstrapper.Snapshot().Ready {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	sessionH := handlers.NewSessionHandler(bootstrapper, *cfg)
	app.Get("/api/session", sessionH.GetSession)
	app.Post("/api/session/retry", sessionH.Retry)
	app.Post("/api/session/reset", sessionH.Reset)
	app.Get("/api/session/diagnostics", sessionH.Diagnostics)

	connectivityH := handlers.NewConnectivityHandler(monitor)
	app.Get("/api/connectivity", connectivityH.GetStatus)
	app.Post("/api/connectivity/retry", connectivityH.Retry)
	app.Get("/api/connectivity/diagnostics", connectivityH.Diagnostics)

	connectionH := handlers.NewConnectionHandler(connectionService)
	app.Get("/deletion-status", connectionH.DeletionStatus)

	callback := handlers.NewCallbackHandler(connectionService, facebookService, instagramService, *cfg)
	app.Get("/auth/:provider", authMiddleware.RequireSession(), callback.StartAuth)
	app.Get("/auth/:provider/callback", callback.CallbackHandler)

	api := app.Group("/api")
	api.Use(authMiddleware.RequireSession())

	user := handlers.NewUserHandler(userService)
	api.Get("/user/info", user.GetUserInfo)
	api.Get("/connections", connectionH.ListConnections)

	admin := api.Group("/admin")
	admin.Use(authMiddleware.RequireAdmin())
	admin.Get("/users", user.ListUsers)

	// cron jobs
	refreshTokenJob := job.NewTokenRefreshJob(connectionRepo, client)

	//queue
	queueW := queue.NewQueue(connectionRepo, facebookService, instagramService)

	c := cron.New()
	c.AddFunc("@every 00h10m00s", refreshTokenJob.RefreshTokens)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeRefreshConnection, queueW.HandleRefreshConnectionTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

	gracefulShutdown(app, db, cancel)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB, cancel context.CancelFunc) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	cancel()

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
