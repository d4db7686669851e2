package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "SEAPROCURE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Procurement  ProcurementConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Procurement.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SEAPROCURE_APP_ENV" required:"true"`
	Port         string `envconfig:"SEAPROCURE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SEAPROCURE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SEAPROCURE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SEAPROCURE_DB_DSN" required:"true"`
	Driver string `envconfig:"SEAPROCURE_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"SEAPROCURE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SEAPROCURE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SEAPROCURE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SEAPROCURE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SEAPROCURE_REDIS_URL"`
	Address      string        `envconfig:"SEAPROCURE_REDIS_ADDR"`
	Password     string        `envconfig:"SEAPROCURE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SEAPROCURE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SEAPROCURE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SEAPROCURE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SEAPROCURE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SEAPROCURE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SEAPROCURE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"SEAPROCURE_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"SEAPROCURE_JWT_ISSUER" required:"true"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"SEAPROCURE_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	VendorTopic string `envconfig:"SEAPROCURE_PUBSUB_VENDOR_TOPIC" default:"sp-vendor-notifications"`
}

// ProcurementConfig carries the spend thresholds and matching tolerance that
// gate the purchasing workflow. Amounts are in the requisition currency.
type ProcurementConfig struct {
	// Totals strictly below this limit auto-approve on submit.
	MinorSpendLimit decimal.Decimal `envconfig:"SEAPROCURE_MINOR_SPEND_LIMIT" default:"500"`
	// PO totals strictly above this threshold are created as DRAFT and
	// require an explicit approval before the vendor is notified.
	HighValuePOThreshold decimal.Decimal `envconfig:"SEAPROCURE_HIGH_VALUE_PO_THRESHOLD" default:"25000"`
	// Three-way match passes only when |invoice - po| / po is strictly
	// below this fraction.
	PriceVarianceTolerance decimal.Decimal `envconfig:"SEAPROCURE_PRICE_VARIANCE_TOLERANCE" default:"0.02"`
	RFQDeadlineHours       int             `envconfig:"SEAPROCURE_RFQ_DEADLINE_HOURS" default:"72"`
	EmergencyRFQHours      int             `envconfig:"SEAPROCURE_EMERGENCY_RFQ_HOURS" default:"12"`
}

func (p ProcurementConfig) validate() error {
	if p.MinorSpendLimit.IsNegative() {
		return fmt.Errorf("minor spend limit must not be negative")
	}
	if p.HighValuePOThreshold.IsNegative() {
		return fmt.Errorf("high value po threshold must not be negative")
	}
	if !p.PriceVarianceTolerance.IsPositive() {
		return fmt.Errorf("price variance tolerance must be positive")
	}
	if p.RFQDeadlineHours <= 0 || p.EmergencyRFQHours <= 0 {
		return fmt.Errorf("rfq deadline hours must be positive")
	}
	return nil
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SEAPROCURE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SEAPROCURE_AUTO_MIGRATE" default:"false"`
}
