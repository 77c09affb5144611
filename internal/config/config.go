// Package config holds configuration blocks shared by more than one binary.
package config

import "time"

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN" envDefault:""`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS" envDefault:"10"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" envDefault:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" envDefault:"30m"`
}

type AuthConfig struct {
	JWTSecret string `env:"AUTH_JWT_SECRET"`
	JWTIssuer string `env:"AUTH_JWT_ISSUER" envDefault:""`
}

// ElasticConfig configures the game record mirror. An empty address list
// disables it.
type ElasticConfig struct {
	Addresses []string `env:"ES_ADDRESSES" envDefault:""`
	Username  string   `env:"ES_USERNAME" envDefault:""`
	Password  string   `env:"ES_PASSWORD" envDefault:""`
	Index     string   `env:"ES_INDEX" envDefault:"game-records"`
}

// TracingConfig configures OTLP export. An empty endpoint disables it.
type TracingConfig struct {
	Endpoint    string `env:"OTEL_ENDPOINT" envDefault:""`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"wagerengine"`
}
