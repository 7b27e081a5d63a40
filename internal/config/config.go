package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"qrpay/internal/entity"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	EnvProd = "prod"
)

type (
	Config struct {
		App      App      `yaml:"app"      env-prefix:"APP_"`
		Logger   Logger   `yaml:"logger"   env-prefix:"LOGGER_"`
		Storage  Storage  `yaml:"storage"  env-prefix:"STORAGE_"`
		Postgres Postgres `yaml:"postgres" env-prefix:"DB_"`
		Redis    Redis    `yaml:"redis"    env-prefix:"REDIS_"`
		HTTP     HTTP     `yaml:"http"     env-prefix:"HTTP_"`
		Cache    Cache    `yaml:"cache"    env-prefix:"CACHE_"`
		Kafka    Kafka    `yaml:"kafka"    env-prefix:"KAFKA_"`
		NATS     NATS     `yaml:"nats"     env-prefix:"NATS_"`
		Metrics  Metrics  `yaml:"metrics"  env-prefix:"METRICS_"`
		Tracing  Tracing  `yaml:"tracing"  env-prefix:"TRACING_"`
		Auth     Auth     `yaml:"auth"     env-prefix:"AUTH_"`
		Payments Payments `yaml:"payments" env-prefix:"PAYMENTS_"`
		OTP      OTP      `yaml:"otp"      env-prefix:"OTP_"`
		Stripe   Stripe   `yaml:"stripe"   env-prefix:"STRIPE_"`
		QR       QR       `yaml:"qr"       env-prefix:"QR_"`
		Env      string   `yaml:"env"                           env:"ENV" env-default:"local" validate:"oneof=local dev staging prod"`
	}

	App struct {
		Name    string `yaml:"name"    env:"NAME"    validate:"required" env-default:"qrpay"`
		Version string `yaml:"version" env:"VERSION" validate:"required" env-default:"dev"`
	}

	Storage struct {
		Driver string `yaml:"driver" env:"DRIVER" env-default:"memory" validate:"oneof=memory postgres"`
	}

	Postgres struct {
		Host           string        `yaml:"host"             env:"HOST"             validate:"required"                                  env-default:"localhost"`
		Port           string        `yaml:"port"             env:"PORT"             validate:"required"                                  env-default:"5432"`
		Name           string        `yaml:"name"             env:"NAME"             validate:"required"                                  env-default:"qrpay"`
		User           string        `yaml:"user"             env:"USER"             validate:"required"                                  env-default:"qrpay"`
		Password       string        `yaml:"password"         env:"PASSWORD"`
		SSLMode        string        `yaml:"ssl_mode"         env:"SSL_MODE"         validate:"required"                                  env-default:"disable"`
		PoolMax        int32         `yaml:"pool_max"         env:"POOL_MAX"         validate:"min=1,max=100"                             env-default:"20"`
		ConnAttempts   int           `yaml:"conn_attempts"    env:"CONN_ATTEMPTS"    validate:"min=1,max=10"                              env-default:"5"`
		BaseRetryDelay time.Duration `yaml:"base_retry_delay" env:"BASE_RETRY_DELAY" validate:"gte=10ms,lte=10s"                          env-default:"100ms"`
		MaxRetryDelay  time.Duration `yaml:"max_retry_delay"  env:"MAX_RETRY_DELAY"  validate:"gte=100ms,lte=30s,gtefield=BaseRetryDelay" env-default:"5s"`
	}

	Redis struct {
		Enabled      bool          `yaml:"enabled"       env:"ENABLED"       env-default:"false"`
		Addr         string        `yaml:"addr"          env:"ADDR"          env-default:"localhost:6379" validate:"required_if=Enabled true"`
		Password     string        `yaml:"password"      env:"PASSWORD"`
		DB           int           `yaml:"db"            env:"DB"            env-default:"0"              validate:"min=0,max=15"`
		ConnAttempts int           `yaml:"conn_attempts" env:"CONN_ATTEMPTS" env-default:"5"              validate:"min=1,max=10"`
		DialTimeout  time.Duration `yaml:"dial_timeout"  env:"DIAL_TIMEOUT"  env-default:"2s"             validate:"gte=10ms,lte=30s"`
	}

	HTTP struct {
		Host              string        `yaml:"host"                env:"HOST"                validate:"required"         env-default:"0.0.0.0"`
		Port              string        `yaml:"port"                env:"PORT"                validate:"required"         env-default:"8080"`
		ReadTimeout       time.Duration `yaml:"read_timeout"        env:"READ_TIMEOUT"        validate:"gte=10ms,lte=30s" env-default:"5s"`
		WriteTimeout      time.Duration `yaml:"write_timeout"       env:"WRITE_TIMEOUT"       validate:"gte=10ms,lte=60s" env-default:"30s"`
		IdleTimeout       time.Duration `yaml:"idle_timeout"        env:"IDLE_TIMEOUT"        validate:"gte=10ms,lte=5m"  env-default:"60s"`
		ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"    env:"SHUTDOWN_TIMEOUT"    validate:"gte=10ms,lte=30s" env-default:"10s"`
		ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"READ_HEADER_TIMEOUT" validate:"gte=10ms,lte=30s" env-default:"5s"`
		IdempotencyTTL    time.Duration `yaml:"idempotency_ttl"     env:"IDEMPOTENCY_TTL"     validate:"gte=1m,lte=168h"  env-default:"24h"`
	}

	Cache struct {
		Capacity        int           `yaml:"capacity"         env:"CAPACITY"         validate:"required,min=1,max=1000000" env-default:"10000"`
		TTL             time.Duration `yaml:"ttl"              env:"TTL"              validate:"required,gt=0s,lte=24h"     env-default:"5m"`
		CleanupInterval time.Duration `yaml:"cleanup_interval" env:"CLEANUP_INTERVAL" validate:"gt=0s,lte=24h"              env-default:"10s"`
	}

	Kafka struct {
		Enabled       bool          `yaml:"enabled"         env:"ENABLED"         env-default:"false"`
		Brokers       []string      `yaml:"brokers"         env:"BROKERS"         env-separator:","   validate:"required_if=Enabled true,dive,hostname_port"`
		Topic         string        `yaml:"topic"           env:"TOPIC"           env-default:"ledger.transactions"`
		GroupID       string        `yaml:"group_id"        env:"GROUP_ID"        env-default:"qrpayctl"`
		BatchSize     int           `yaml:"batch_size"      env:"BATCH_SIZE"      env-default:"100"   validate:"min=1,max=1000"`
		BatchTimeout  time.Duration `yaml:"batch_timeout"   env:"BATCH_TIMEOUT"   env-default:"1s"    validate:"gte=1ms,lte=30s"`
		WriteTimeout  time.Duration `yaml:"write_timeout"   env:"WRITE_TIMEOUT"   env-default:"2s"    validate:"gte=1ms,lte=30s"`
		MaxRetryCount int           `yaml:"max_retry_count" env:"MAX_RETRY_COUNT" env-default:"5"     validate:"min=1,max=20"`
		RetryDelay    time.Duration `yaml:"retry_delay"     env:"RETRY_DELAY"     env-default:"100ms" validate:"gte=10ms,lte=30s"`
	}

	NATS struct {
		Enabled    bool          `yaml:"enabled"     env:"ENABLED"     env-default:"false"`
		URL        string        `yaml:"url"         env:"URL"         env-default:"nats://localhost:4222" validate:"required_if=Enabled true"`
		SMSSubject string        `yaml:"sms_subject" env:"SMS_SUBJECT" env-default:"sms.outbound"`
		Timeout    time.Duration `yaml:"timeout"     env:"TIMEOUT"     env-default:"3s"                    validate:"gte=10ms,lte=30s"`
	}

	Metrics struct {
		Host              string        `yaml:"host"                env:"HOST"                validate:"required"         env-default:"0.0.0.0"`
		Port              string        `yaml:"port"                env:"PORT"                validate:"required"         env-default:"9090"`
		ReadTimeout       time.Duration `yaml:"read_timeout"        env:"READ_TIMEOUT"        validate:"gte=10ms,lte=30s" env-default:"5s"`
		WriteTimeout      time.Duration `yaml:"write_timeout"       env:"WRITE_TIMEOUT"       validate:"gte=10ms,lte=30s" env-default:"5s"`
		ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"READ_HEADER_TIMEOUT" validate:"gte=10ms,lte=30s" env-default:"5s"`
	}

	Tracing struct {
		Enabled     bool    `yaml:"enabled"      env:"ENABLED"      env-default:"false"`
		Endpoint    string  `yaml:"endpoint"     env:"ENDPOINT"     env-default:"localhost:4318" validate:"required_if=Enabled true"`
		Insecure    bool    `yaml:"insecure"     env:"INSECURE"     env-default:"true"`
		SampleRatio float64 `yaml:"sample_ratio" env:"SAMPLE_RATIO" env-default:"1"              validate:"gte=0,lte=1"`
	}

	Auth struct {
		JWTSecret  string        `yaml:"jwt_secret"  env:"JWT_SECRET"  validate:"required,min=32"`
		Issuer     string        `yaml:"issuer"      env:"ISSUER"      env-default:"qrpay"`
		TokenTTL   time.Duration `yaml:"token_ttl"   env:"TOKEN_TTL"   env-default:"168h" validate:"gte=1m,lte=720h"`
		BcryptCost int           `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"   validate:"min=10,max=14"`
	}

	Payments struct {
		FrontendURL string        `yaml:"frontend_url" env:"FRONTEND_URL" env-default:"http://localhost:3000" validate:"required,url"`
		FeeRate     string        `yaml:"fee_rate"     env:"FEE_RATE"     env-default:"0.01"                  validate:"required,numeric"`
		PaymentTTL  time.Duration `yaml:"payment_ttl"  env:"PAYMENT_TTL"  env-default:"15m"                   validate:"gte=1m,lte=24h"`
		Currency    string        `yaml:"currency"     env:"CURRENCY"     env-default:"usd"                   validate:"len=3"`
		LockTTL     time.Duration `yaml:"lock_ttl"     env:"LOCK_TTL"     env-default:"30s"                   validate:"gte=1s,lte=5m"`
	}

	OTP struct {
		TTL       time.Duration `yaml:"ttl"       env:"TTL"       env-default:"10m" validate:"gte=1m,lte=1h"`
		Digits    int           `yaml:"digits"    env:"DIGITS"    env-default:"4"   validate:"min=4,max=8"`
		Retention time.Duration `yaml:"retention" env:"RETENTION" env-default:"24h" validate:"gtefield=TTL,lte=168h"`
	}

	Stripe struct {
		SecretKey string `yaml:"secret_key" env:"SECRET_KEY"`
	}

	QR struct {
		Size       int    `yaml:"size"       env:"SIZE"       env-default:"300"     validate:"min=64,max=2048"`
		Margin     int    `yaml:"margin"     env:"MARGIN"     env-default:"2"       validate:"min=0,max=16"`
		Foreground string `yaml:"foreground" env:"FOREGROUND" env-default:"#000000" validate:"hexcolor"`
		Background string `yaml:"background" env:"BACKGROUND" env-default:"#FFFFFF" validate:"hexcolor"`
	}

	Logger struct {
		Level      string `yaml:"level"       env:"LEVEL"       env-default:"info"                      validate:"oneof=debug info warn error"`
		Filename   string `yaml:"filename"    env:"FILENAME"    env-default:"./logs/payment-service.log"`
		MaxSize    int    `yaml:"max_size"    env:"MAX_SIZE"    env-default:"100"                       validate:"min=1,max=1000"`
		MaxBackups int    `yaml:"max_backups" env:"MAX_BACKUPS" env-default:"3"                         validate:"min=1,max=20"`
		MaxAge     int    `yaml:"max_age"     env:"MAX_AGE"     env-default:"28"                        validate:"min=1,max=365"`
	}
)

func (c *Config) IsProduction() bool {
	return c.Env == EnvProd
}

func Load() (*Config, error) {
	path := fetchConfigPath()
	if path == "" {
		return nil, entity.ErrConfigPathNotSet
	}
	return LoadPath(path)
}

func LoadPath(configPath string) (*Config, error) {
	const op = "config.LoadPath"

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: config file does not exist: %s", op, configPath)
	} else if err != nil {
		return nil, fmt.Errorf("%s: checking config file: %w", op, err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: read config: %w", op, err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func Validate(cfg *Config) error {
	validate := validator.New()

	var validationErrors []string
	if err := validate.Struct(cfg); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			for _, ve := range validationErrs {
				validationErrors = append(validationErrors,
					fmt.Sprintf("%s=%v must satisfy '%s'", ve.Field(), ve.Value(), ve.Tag()))
			}
			return fmt.Errorf("config validation: %s", strings.Join(validationErrors, "; "))
		}
		return fmt.Errorf("config validation: %w", err)
	}

	return nil
}

func fetchConfigPath() string {
	var path string
	flag.StringVar(&path, "config", "", "Path to config file")
	flag.Parse()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	return path
}
