package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"tskpay-backend/internal/config"
	"tskpay-backend/internal/routes"
	"tskpay-backend/internal/services/recurring"
	"tskpay-backend/internal/storage/gormstore"
	"tskpay-backend/internal/storage/writeback"
	"tskpay-backend/pkg/logging"
)

func main() {
	log := logging.Setup()

	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, relying on system env")
	}
	cfg := config.Load()

	db, err := config.OpenDatabase()
	if err != nil {
		log.Error("open database", "error", err)
		os.Exit(1)
	}

	backing, err := gormstore.New(db)
	if err != nil {
		log.Error("init store", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := writeback.New(ctx, backing, log)
	if err != nil {
		log.Error("load store cache", "error", err)
		os.Exit(1)
	}
	go store.Run(ctx, 5*time.Second)

	// Generate due recurring costs on startup; the endpoint covers the rest.
	scheduler := recurring.NewScheduler(store, log)
	if created, err := scheduler.Run(ctx); err != nil {
		log.Error("recurring generation", "error", err)
	} else if created > 0 {
		log.Info("recurring costs generated on startup", "count", created)
	}

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, store, log)

	go func() {
		<-ctx.Done()
		if err := store.Close(); err != nil {
			log.Error("close store", "error", err)
		}
		os.Exit(0)
	}()

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
