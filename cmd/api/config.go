package main

import (
	"log/slog"
	"time"

	"github.com/fastprodman/wagerengine/internal/config"
	"github.com/fastprodman/wagerengine/internal/money"
)

const (
	driverPostgres = "postgres"
	driverMemory   = "memory"
)

type apiConfig struct {
	Port            uint16        `env:"APP_PORT" envDefault:"8080"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" envDefault:"INFO"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"15s"`
	AppEnv          string        `env:"APP_ENV" envDefault:"PROD"`

	StoreDriver  string `env:"STORE_DRIVER" envDefault:"postgres"`
	TxMaxRetries uint   `env:"TX_MAX_RETRIES" envDefault:"5"`

	RuleSetRefreshInterval time.Duration `env:"RULESET_REFRESH_INTERVAL" envDefault:"30s"`
	SessionIdleTimeout     time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`
	SessionSweepInterval   time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"1m"`

	Wallet   walletConfig
	Bets     betConfig
	Postgres config.PostgresConfig
	Auth     config.AuthConfig
	Elastic  config.ElasticConfig
	Tracing  config.TracingConfig
}

type walletConfig struct {
	Currency        string      `env:"WALLET_CURRENCY" envDefault:"VRT"`
	StartingBalance money.Minor `env:"WALLET_STARTING_BALANCE" envDefault:"1000.00"`
}

type betConfig struct {
	Min money.Minor `env:"BET_MIN" envDefault:"0.01"`
	Max money.Minor `env:"BET_MAX" envDefault:"10000.00"`
}
