package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qrpay/internal/config"
	"qrpay/internal/entity"
	"qrpay/internal/gateway/processor"
	"qrpay/internal/gateway/qr"
	"qrpay/internal/gateway/sms"
	"qrpay/internal/repository"
	"qrpay/internal/repository/memory"
	"qrpay/internal/repository/redisrepo"
	"qrpay/internal/service"
	httpt "qrpay/internal/transport/http"
	kafkat "qrpay/internal/transport/kafka"
	"qrpay/pkg/cache"
	"qrpay/pkg/kafka"
	"qrpay/pkg/lock"
	"qrpay/pkg/logger"
	"qrpay/pkg/metric"
	"qrpay/pkg/storage/postgres"
	"qrpay/pkg/storage/postgres/transaction"
	redisstore "qrpay/pkg/storage/redis"
	"qrpay/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const _maxPublishRetryDelay = 5 * time.Second

type repositories struct {
	vendors   service.VendorRepository
	users     service.UserRepository
	customers service.CustomerRepository
	payments  service.PaymentRepository
	transfers service.TransferRepository
	ledger    service.LedgerRepository
}

type ephemeral struct {
	otp         service.OTPStore
	revocations service.RevocationStore
	locker      lock.Locker
	redis       *redisstore.Redis
}

// closers runs registered cleanups in reverse order.
type closers []func()

func (c *closers) add(fn func()) {
	*c = append(*c, fn)
}

func (c closers) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func Run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	eg, ctx := errgroup.WithContext(ctx)

	var cleanup closers
	defer cleanup.run()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics := initMetrics(ctx, eg, &cfg.Metrics, log)

	provider, err := tracing.NewProvider(ctx, cfg)
	if err != nil {
		return fmt.Errorf("app.Run: tracing: %w", err)
	}
	cleanup.add(func() {
		if err := provider.Shutdown(context.WithoutCancel(ctx)); err != nil {
			log.Errorw("failed to shut down tracing", "error", err)
		}
	})

	repos, err := initRepositories(ctx, cfg, log, metrics, &cleanup)
	if err != nil {
		return err
	}

	stores, err := initEphemeralStores(ctx, &cfg.Redis, log, &cleanup)
	if err != nil {
		return err
	}

	publisher, err := initLedgerPublisher(ctx, &cfg.Kafka, log, metrics, &cleanup)
	if err != nil {
		return err
	}

	sender, err := initSMSSender(&cfg.NATS, log, &cleanup)
	if err != nil {
		return err
	}

	services, err := initServices(cfg, repos, stores, publisher, sender, provider, log, metrics, &cleanup)
	if err != nil {
		return err
	}

	handlerOpts := []httpt.HandlerOption{httpt.WithTracer(provider.Tracer())}
	if stores.redis != nil {
		handlerOpts = append(handlerOpts, httpt.WithIdempotency(stores.redis.Client, cfg.HTTP.IdempotencyTTL))
	}
	handler := httpt.NewHandler(services, log.With("component", "http handler"), metrics.HTTP(), handlerOpts...)

	httpServer := httpt.NewHTTPServer(handler.Engine(), &cfg.HTTP, log.With("component", "http server"))
	eg.Go(func() error {
		return httpServer.Start(ctx)
	})

	log.Infow("application started",
		"storage", cfg.Storage.Driver,
		"redis", cfg.Redis.Enabled,
		"kafka", cfg.Kafka.Enabled,
		"nats", cfg.NATS.Enabled,
		"tracing", cfg.Tracing.Enabled,
	)

	return waitForShutdown(eg)
}

func initMetrics(
	ctx context.Context,
	eg *errgroup.Group,
	cfg *config.Metrics,
	log logger.Logger,
) metric.Factory {
	metrics := metric.NewFactory()

	server := httpt.NewMetricsServer(metrics.Handler(), cfg, log.With("component", "metrics server"))
	eg.Go(func() error {
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("app.initMetrics: %w", err)
		}
		return nil
	})

	return metrics
}

func initRepositories(
	ctx context.Context,
	cfg *config.Config,
	log logger.Logger,
	metrics metric.Factory,
	cleanup *closers,
) (*repositories, error) {
	if cfg.Storage.Driver != config.StoragePostgres {
		ledger := memory.NewLedgerRepository()
		return &repositories{
			vendors:   memory.NewVendorRepository(),
			users:     memory.NewUserRepository(),
			customers: memory.NewCustomerRepository(),
			payments:  memory.NewPaymentRepository(ledger),
			transfers: memory.NewTransferRepository(ledger),
			ledger:    ledger,
		}, nil
	}

	db, err := initDatabase(ctx, &cfg.Postgres, log)
	if err != nil {
		return nil, err
	}
	cleanup.add(db.Close)

	if err := repository.Migrate(ctx, db); err != nil {
		return nil, fmt.Errorf("app.initRepositories: %w", err)
	}

	txManager, err := transaction.NewManager(
		db,
		log.With("component", "transaction manager"),
		metrics.Transaction(),
	)
	if err != nil {
		return nil, fmt.Errorf("app.initRepositories: %w", err)
	}

	return &repositories{
		vendors:   repository.NewVendorRepository(db),
		users:     repository.NewUserRepository(db),
		customers: repository.NewCustomerRepository(db, txManager),
		payments:  repository.NewPaymentRepository(db, txManager),
		transfers: repository.NewTransferRepository(db, txManager),
		ledger:    repository.NewLedgerRepository(db),
	}, nil
}

func initDatabase(ctx context.Context, cfg *config.Postgres, log logger.Logger) (*postgres.Postgres, error) {
	db, err := postgres.NewPostgres(
		ctx,
		cfg,
		log.With("component", "database"),
		postgres.MaxPoolSize(cfg.PoolMax),
		postgres.MaxConnAttempts(cfg.ConnAttempts),
		postgres.BaseRetryDelay(cfg.BaseRetryDelay),
		postgres.MaxRetryDelay(cfg.MaxRetryDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("app.initDatabase: %w", err)
	}
	return db, nil
}

// initEphemeralStores keeps OTPs, revoked sessions and locks in Redis when it is
// enabled and in process memory otherwise.
func initEphemeralStores(
	ctx context.Context,
	cfg *config.Redis,
	log logger.Logger,
	cleanup *closers,
) (*ephemeral, error) {
	if !cfg.Enabled {
		return &ephemeral{
			otp:         memory.NewOTPStore(),
			revocations: memory.NewRevocationStore(),
			locker:      lock.NewMemory(),
		}, nil
	}

	rdb, err := redisstore.NewRedis(ctx, cfg, log.With("component", "redis"))
	if err != nil {
		return nil, fmt.Errorf("app.initEphemeralStores: %w", err)
	}
	cleanup.add(func() {
		if err := rdb.Close(); err != nil {
			log.Errorw("failed to close redis", "error", err)
		}
	})

	return &ephemeral{
		otp:         redisrepo.NewOTPStore(rdb.Client),
		revocations: redisrepo.NewRevocationStore(rdb.Client),
		locker:      lock.NewRedis(rdb.Client),
		redis:       rdb,
	}, nil
}

func initLedgerPublisher(
	ctx context.Context,
	cfg *config.Kafka,
	log logger.Logger,
	metrics metric.Factory,
	cleanup *closers,
) (service.EventPublisher, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	writer, err := kafka.NewKafkaWriter(ctx, *cfg, log.With("component", "kafka writer"))
	if err != nil {
		return nil, fmt.Errorf("app.initLedgerPublisher: kafka writer creation: %w", err)
	}
	cleanup.add(func() {
		if err := writer.Close(); err != nil {
			log.Errorw("failed to close kafka writer", "error", err)
		}
	})

	producer, err := kafka.NewProducer(
		writer,
		cfg.Topic,
		log.With("component", "kafka producer"),
		metrics.Publisher(),
		kafka.MaxAttempts(cfg.MaxRetryCount),
		kafka.BaseRetryDelay(cfg.RetryDelay),
		kafka.MaxRetryDelay(max(cfg.RetryDelay, _maxPublishRetryDelay)),
	)
	if err != nil {
		return nil, fmt.Errorf("app.initLedgerPublisher: %w", err)
	}

	return kafkat.NewLedgerPublisher(producer, log.With("component", "ledger publisher")), nil
}

func initSMSSender(cfg *config.NATS, log logger.Logger, cleanup *closers) (service.SMSSender, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	conn, err := nats.Connect(cfg.URL, nats.Name("qrpay"), nats.Timeout(cfg.Timeout))
	if err != nil {
		return nil, fmt.Errorf("app.initSMSSender: connect: %w", err)
	}
	cleanup.add(conn.Close)

	return sms.NewNATSRelay(conn, cfg.SMSSubject, cfg.Timeout, log.With("component", "sms relay")), nil
}

func initServices(
	cfg *config.Config,
	repos *repositories,
	stores *ephemeral,
	publisher service.EventPublisher,
	sender service.SMSSender,
	provider *tracing.Provider,
	log logger.Logger,
	metrics metric.Factory,
	cleanup *closers,
) (httpt.Services, error) {
	const op = "app.initServices"

	feeRate, err := decimal.NewFromString(cfg.Payments.FeeRate)
	if err != nil {
		return httpt.Services{}, fmt.Errorf("%s: fee rate: %w", op, err)
	}

	renderer, err := qr.NewRenderer(cfg.QR)
	if err != nil {
		return httpt.Services{}, fmt.Errorf("%s: %w", op, err)
	}

	var (
		cards   service.CardProcessor   = processor.Disabled{}
		billing service.BillingProfiles = processor.Disabled{}
	)
	if cfg.Stripe.SecretKey != "" {
		stripe := processor.NewStripe(cfg.Stripe.SecretKey, log.With("component", "stripe"))
		cards, billing = stripe, stripe
	} else {
		log.Warnw("stripe secret key is not set, card charges are disabled")
	}

	vendorCache, err := cache.NewLRUCache[uuid.UUID, *entity.Vendor](
		"vendors", cfg.Cache.Capacity, log.With("component", "vendor cache"), metrics.Cache(),
	)
	if err != nil {
		return httpt.Services{}, fmt.Errorf("%s: %w", op, err)
	}
	vendorCache.StartCleanup(cfg.Cache.CleanupInterval)
	cleanup.add(vendorCache.StopCleanup)

	userCache, err := cache.NewLRUCache[uuid.UUID, *entity.User](
		"users", cfg.Cache.Capacity, log.With("component", "user cache"), metrics.Cache(),
	)
	if err != nil {
		return httpt.Services{}, fmt.Errorf("%s: %w", op, err)
	}
	userCache.StartCleanup(cfg.Cache.CleanupInterval)
	cleanup.add(userCache.StopCleanup)

	tracer := service.WithTracer(provider.Tracer())
	locator := service.NewLocator(cfg.Payments.FrontendURL, renderer)

	identity := service.NewIdentityService(
		repos.vendors,
		repos.users,
		repos.customers,
		billing,
		locator,
		vendorCache,
		userCache,
		service.IdentityConfig{BcryptCost: cfg.Auth.BcryptCost, CacheTTL: cfg.Cache.TTL},
		log.With("component", "identity service"),
		tracer,
	)

	sessions := service.NewSessionService(
		identity,
		stores.revocations,
		service.SessionConfig{
			Secret: []byte(cfg.Auth.JWTSecret),
			Issuer: cfg.Auth.Issuer,
			TTL:    cfg.Auth.TokenTTL,
		},
		log.With("component", "session service"),
		tracer,
	)

	otp := service.NewOTPService(
		stores.otp,
		sender,
		metrics.Payments(),
		service.OTPConfig{
			TTL:        cfg.OTP.TTL,
			Digits:     cfg.OTP.Digits,
			Retention:  cfg.OTP.Retention,
			Production: cfg.IsProduction(),
		},
		log.With("component", "otp service"),
		tracer,
	)

	ledger := service.NewLedgerService(
		repos.ledger,
		publisher,
		metrics.Payments(),
		log.With("component", "ledger service"),
	)

	payments := service.NewPaymentService(
		repos.payments,
		repos.transfers,
		identity,
		ledger,
		otp,
		cards,
		stores.locker,
		locator,
		metrics.Payments(),
		service.PaymentConfig{
			FeeRate:    feeRate,
			PaymentTTL: cfg.Payments.PaymentTTL,
			LockTTL:    cfg.Payments.LockTTL,
			Currency:   cfg.Payments.Currency,
		},
		log.With("component", "payment service"),
		tracer,
	)

	return httpt.Services{
		Identity: identity,
		Sessions: sessions,
		OTP:      otp,
		Payments: payments,
		Ledger:   ledger,
	}, nil
}

func waitForShutdown(eg *errgroup.Group) error {
	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("app.waitForShutdown: application failed: %w", err)
	}
	return nil
}
