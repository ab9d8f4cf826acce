package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Database *Database
	HTTP     *HTTP
	Saga     *Saga
	App      *App
}

const AppModeProduction = "PROD"
const AppModeDevelop = "DEV"

const StoragePostgres = "postgres"
const StorageMemory = "memory"

type App struct {
	LogLevel string `env:"LOG_LEVEL"`
	Mode     string
	Storage  string `env:"STORAGE"`
}

type Database struct {
	DSN string `env:"DATABASE_URI"`
}

type HTTP struct {
	HostString string `env:"RUN_ADDRESS"`
}

type Saga struct {
	BusPartitions     int           `env:"BUS_PARTITIONS"`
	RedeliveryDelay   time.Duration `env:"BUS_REDELIVERY_DELAY"`
	MaxAttempts       int           `env:"BUS_MAX_ATTEMPTS"`
	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL"`
	PendingMaxAge     time.Duration `env:"PENDING_MAX_AGE"`
}

func NewConfig() (*Config, error) {
	var db Database
	var http HTTP
	var saga Saga
	var app App

	flag.StringVar(&db.DSN, "d", "", "Database string")
	flag.StringVar(&http.HostString, "a", `localhost:8080`, "HTTP server endpoint")
	flag.StringVar(&app.LogLevel, "l", `error`, "Log level")
	flag.StringVar(&app.Mode, "m", `DEV`, "PROD / DEV")
	flag.StringVar(&app.Storage, "s", StoragePostgres, "postgres / memory")
	flag.IntVar(&saga.BusPartitions, "p", 8, "Event bus partitions")
	flag.IntVar(&saga.MaxAttempts, "t", 5, "Delivery attempts before dead-letter")
	flag.DurationVar(&saga.RedeliveryDelay, "w", 500*time.Millisecond, "Redelivery delay")
	flag.DurationVar(&saga.ReconcileInterval, "i", 30*time.Second, "Reconciliation sweep interval")
	flag.DurationVar(&saga.PendingMaxAge, "g", time.Minute, "Age before a PENDING order is re-emitted")
	flag.Parse()

	err := env.Parse(&db)
	if err != nil {
		return nil, fmt.Errorf("error parsing env database config: %w", err)
	}
	err = env.Parse(&http)
	if err != nil {
		return nil, fmt.Errorf("error parsing http config: %w", err)
	}
	err = env.Parse(&app)
	if err != nil {
		return nil, fmt.Errorf("error parsing app config: %w", err)
	}
	err = env.Parse(&saga)
	if err != nil {
		return nil, fmt.Errorf("error parsing saga config: %w", err)
	}

	config := Config{
		Database: &db,
		HTTP:     &http,
		Saga:     &saga,
		App:      &app,
	}

	return &config, nil
}
