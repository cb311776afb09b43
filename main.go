package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"event-service/internal/auth"
	"event-service/internal/config"
	"event-service/internal/metrics"
	"event-service/internal/publisher"
	"event-service/internal/repository"
	"event-service/internal/server"
	"event-service/internal/service"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

type eventStore interface {
	service.EventRepository
	server.Pinger
}

func main() {
	issueFor := flag.String("issue-token", "", "print a signed token for the given subject and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of a token printed by -issue-token")
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	log.SetOutput(os.Stdout)

	if err := godotenv.Load(); err != nil {
		log.Warn("Could not load .env file.")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("log_level", cfg.LogLevel).Warn("Unknown log level, falling back to info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	authenticator, err := auth.NewAuthenticator([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		log.WithError(err).Fatal("Could not create authenticator")
	}

	if *issueFor != "" {
		token, err := authenticator.Issue(*issueFor, *tokenTTL)
		if err != nil {
			log.WithError(err).Fatal("Could not issue token")
		}
		fmt.Println(token)
		return
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.WithError(err).Fatal("Could not open event store")
	}
	defer closeStore()

	var changes *service.ChangeService
	if cfg.Kafka.Enabled() {
		changePublisher, err := publisher.NewChangePublisher(cfg.Kafka.BootstrapServers, cfg.Kafka.Topic)
		if err != nil {
			log.WithError(err).Fatal("Could not create change publisher")
		}
		defer changePublisher.Close()
		changes = service.NewChangeService(changePublisher)
	} else {
		log.Info("KAFKA_BOOTSTRAP_SERVERS not set, event changes will not be published")
		changes = service.NewChangeService(nil)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewWithRegistry(registry)

	authorizer := auth.NewAuthorizer(m)
	eventService := service.NewEventService(store, authorizer, changes)
	srv := server.NewServer(eventService, store)

	e := server.NewRouter(srv, authenticator, m)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithFields(log.Fields{
			"port":  cfg.Port,
			"store": cfg.StoreDriver,
		}).Info("Event service is starting with Echo")

		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Echo server failed to start")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down event service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}

func openStore(cfg *config.Config) (eventStore, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		log.Warn("Using in-memory event store, data will be lost on restart")
		return repository.NewMemoryEventRepository(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DB.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to the database: %w", err)
	}
	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.DB.ConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("could not ping the database: %w", err)
	}
	log.Info("Successfully connected to the PostgreSQL database.")

	log.Info("Starting database migration...")
	if err := repository.RunMigrations(db, cfg.DB.MigrationsPath); err != nil {
		db.Close()
		return nil, nil, err
	}
	log.Info("Database migration finished successfully.")

	return repository.NewPostgresEventRepository(db), func() { db.Close() }, nil
}
