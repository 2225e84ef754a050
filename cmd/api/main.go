package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"reservations/internal/config"
	"reservations/internal/database"
	"reservations/internal/middleware"
	"reservations/internal/modules/reservation"
	"reservations/internal/pkg/clock"
	"reservations/internal/realtime"
	"reservations/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.IsProd() && os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	store, db, err := server.OpenStore(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}

	hub := realtime.NewHub(middleware.OriginAllowed(cfg.CORSAllowedOrigins))
	reservationService := reservation.NewService(store, clock.System{}, hub)

	r := server.NewRouter(server.Deps{
		Service:        reservationService,
		Hub:            hub,
		DB:             db,
		RequestTimeout: cfg.RequestTimeout,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		AccessLog:      true,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("server_started addr=%s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("server_stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server_shutdown_failed err=%v", err)
	}
	if db != nil {
		if err := database.Close(db); err != nil {
			log.Printf("database_close_failed err=%v", err)
		}
	}
	log.Printf("server_stopped")
}
