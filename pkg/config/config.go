package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "FLOWCAST"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "FLOWCAST_DB_DSN"
	EnvDBHost = "FLOWCAST_DB_HOST"
	EnvDBUser = "FLOWCAST_DB_USER"
	EnvDBName = "FLOWCAST_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Projection   ProjectionConfig
	Forecast     ForecastConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Forecast.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultForecast returns forecast settings with defaults applied, for
// callers that need the model constants without a full environment.
func DefaultForecast() (ForecastConfig, error) {
	var f ForecastConfig
	if err := envconfig.Process(EnvPrefix, &f); err != nil {
		return ForecastConfig{}, fmt.Errorf("parsing forecast config: %w", err)
	}
	if err := f.validate(); err != nil {
		return ForecastConfig{}, err
	}
	return f, nil
}

type AppConfig struct {
	Env          string `envconfig:"FLOWCAST_APP_ENV" required:"true"`
	Port         string `envconfig:"FLOWCAST_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FLOWCAST_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FLOWCAST_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"FLOWCAST_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"FLOWCAST_DB_DSN"`
	Driver string `envconfig:"FLOWCAST_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FLOWCAST_DB_HOST"`
	LegacyPort     int    `envconfig:"FLOWCAST_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FLOWCAST_DB_USER"`
	LegacyPassword string `envconfig:"FLOWCAST_DB_PASSWORD"`
	LegacyName     string `envconfig:"FLOWCAST_DB_NAME"`
	LegacySSLMode  string `envconfig:"FLOWCAST_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FLOWCAST_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FLOWCAST_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FLOWCAST_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FLOWCAST_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FLOWCAST_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FLOWCAST_REDIS_ADDR"`
	Password     string        `envconfig:"FLOWCAST_REDIS_PASSWORD"`
	DB           int           `envconfig:"FLOWCAST_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FLOWCAST_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FLOWCAST_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FLOWCAST_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FLOWCAST_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FLOWCAST_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// ProjectionConfig bounds the daily balance simulation.
type ProjectionConfig struct {
	DefaultHorizonDays int `envconfig:"FLOWCAST_PROJECTION_DEFAULT_HORIZON_DAYS" default:"90"`
	MaxHorizonDays     int `envconfig:"FLOWCAST_PROJECTION_MAX_HORIZON_DAYS" default:"180"`
}

// ForecastConfig carries the tunable constants of both payout models. The
// defaults mirror the numbers the product team validated; they are
// configuration, not code, so they can be recalibrated without a deploy.
type ForecastConfig struct {
	UnlockDelayDays      int     `envconfig:"FLOWCAST_FORECAST_UNLOCK_DELAY_DAYS" default:"7"`
	DeliveryEstimateDays int     `envconfig:"FLOWCAST_FORECAST_DELIVERY_ESTIMATE_DAYS" default:"3"`
	PayoutTransferDays   int     `envconfig:"FLOWCAST_FORECAST_PAYOUT_TRANSFER_DAYS" default:"1"`
	TrailingWindowDays   int     `envconfig:"FLOWCAST_FORECAST_TRAILING_WINDOW_DAYS" default:"30"`
	HorizonDays          int     `envconfig:"FLOWCAST_FORECAST_HORIZON_DAYS" default:"90"`
	CycleDays            int     `envconfig:"FLOWCAST_FORECAST_CYCLE_DAYS" default:"14"`
	CyclePeriods         int     `envconfig:"FLOWCAST_FORECAST_CYCLE_PERIODS" default:"6"`
	MinSeasonalHistory   int     `envconfig:"FLOWCAST_FORECAST_MIN_SEASONAL_HISTORY" default:"3"`
	RiskAdjustmentPct    float64 `envconfig:"FLOWCAST_FORECAST_RISK_ADJUSTMENT_PCT" default:"5"`

	// MonthlySeasonality is a comma-separated list of twelve multipliers,
	// January first.
	MonthlySeasonality string `envconfig:"FLOWCAST_FORECAST_MONTHLY_SEASONALITY" default:"0.95,0.92,0.98,1.00,1.02,1.05,1.10,1.02,1.00,1.05,1.15,1.20"`

	LockTTL time.Duration `envconfig:"FLOWCAST_FORECAST_LOCK_TTL" default:"2m"`

	seasonality []decimal.Decimal
}

// SeasonalityFor returns the multiplier for the given month (1..12).
func (f *ForecastConfig) SeasonalityFor(month time.Month) decimal.Decimal {
	if len(f.seasonality) != 12 {
		return decimal.NewFromInt(1)
	}
	return f.seasonality[int(month)-1]
}

func (f *ForecastConfig) validate() error {
	parts := strings.Split(f.MonthlySeasonality, ",")
	if len(parts) != 12 {
		return fmt.Errorf("monthly seasonality requires 12 multipliers, got %d", len(parts))
	}
	parsed := make([]decimal.Decimal, 0, 12)
	for i, part := range parts {
		value, err := decimal.NewFromString(strings.TrimSpace(part))
		if err != nil {
			return fmt.Errorf("monthly seasonality entry %d: %w", i+1, err)
		}
		if value.IsNegative() || value.IsZero() {
			return fmt.Errorf("monthly seasonality entry %d must be positive", i+1)
		}
		parsed = append(parsed, value)
	}
	f.seasonality = parsed

	if f.UnlockDelayDays < 0 || f.DeliveryEstimateDays < 0 {
		return fmt.Errorf("forecast day offsets must not be negative")
	}
	if f.CycleDays <= 0 || f.CyclePeriods <= 0 || f.HorizonDays <= 0 || f.TrailingWindowDays <= 0 {
		return fmt.Errorf("forecast horizon settings must be positive")
	}
	if f.RiskAdjustmentPct < 0 || f.RiskAdjustmentPct >= 100 {
		return fmt.Errorf("risk adjustment pct must be in [0, 100)")
	}
	return nil
}

type CronConfig struct {
	Interval time.Duration `envconfig:"FLOWCAST_CRON_INTERVAL" default:"24h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FLOWCAST_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FLOWCAST_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
