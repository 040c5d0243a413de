package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	Service   ServiceConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Betting   BettingConfig
	GCP       GCPConfig
	PubSub    PubSubConfig
	Outbox    OutboxConfig
	Lifecycle LifecycleConfig

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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BETCHAT_APP_ENV" required:"true"`
	Port         string `envconfig:"BETCHAT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BETCHAT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BETCHAT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"BETCHAT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BETCHAT_DB_DSN"`
	Driver string `envconfig:"BETCHAT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BETCHAT_DB_HOST"`
	LegacyPort     int    `envconfig:"BETCHAT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BETCHAT_DB_USER"`
	LegacyPassword string `envconfig:"BETCHAT_DB_PASSWORD"`
	LegacyName     string `envconfig:"BETCHAT_DB_NAME"`
	LegacySSLMode  string `envconfig:"BETCHAT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BETCHAT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BETCHAT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BETCHAT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BETCHAT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BETCHAT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BETCHAT_REDIS_ADDR"`
	Password     string        `envconfig:"BETCHAT_REDIS_PASSWORD"`
	DB           int           `envconfig:"BETCHAT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BETCHAT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BETCHAT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BETCHAT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BETCHAT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BETCHAT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BETCHAT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BETCHAT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BETCHAT_JWT_EXPIRATION_MINUTES" required:"true"`
}

// BettingConfig carries the wagering policy knobs. Amounts are kobo
// (hundredths of a naira) so arithmetic stays integral end to end.
type BettingConfig struct {
	MinStakeKobo         int64 `envconfig:"BETCHAT_MIN_STAKE_KOBO" default:"10000"`
	MinDurationMinutes   int   `envconfig:"BETCHAT_MIN_EVENT_DURATION_MINUTES" default:"15"`
	MaxParticipantsLimit int   `envconfig:"BETCHAT_MAX_PARTICIPANTS_LIMIT" default:"10000"`
}

// MinDuration returns the minimum event runtime as a duration.
func (b BettingConfig) MinDuration() time.Duration {
	if b.MinDurationMinutes <= 0 {
		return 0
	}
	return time.Duration(b.MinDurationMinutes) * time.Minute
}

type GCPConfig struct {
	ProjectID              string `envconfig:"BETCHAT_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"BETCHAT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"BETCHAT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	RoomTopic        string `envconfig:"BETCHAT_PUBSUB_ROOM_TOPIC" required:"true"`
	RoomSubscription string `envconfig:"BETCHAT_PUBSUB_ROOM_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"BETCHAT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"BETCHAT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"BETCHAT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// LifecycleConfig tunes the background sweep that announces ended events and
// retries pending payouts.
type LifecycleConfig struct {
	SweepInterval time.Duration `envconfig:"BETCHAT_LIFECYCLE_SWEEP_INTERVAL" default:"30s"`
	PayoutBatch   int           `envconfig:"BETCHAT_LIFECYCLE_PAYOUT_BATCH" default:"100"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BETCHAT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BETCHAT_AUTO_MIGRATE" default:"false"`
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
