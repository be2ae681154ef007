package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/freshmarket-storefront/config"
	"github.com/fekuna/freshmarket-storefront/internal/auth"
	"github.com/fekuna/freshmarket-storefront/internal/checkout"
	"github.com/fekuna/freshmarket-storefront/internal/notify"
	"github.com/fekuna/freshmarket-storefront/internal/storage"
	"github.com/fekuna/freshmarket-storefront/pkg/apiclient"
	"github.com/fekuna/freshmarket-storefront/pkg/broker"
	"github.com/fekuna/freshmarket-storefront/pkg/cache"
	"github.com/fekuna/freshmarket-storefront/pkg/database/mongodb"
	"github.com/fekuna/freshmarket-storefront/pkg/database/postgres"
	"github.com/fekuna/freshmarket-storefront/pkg/i18n"
	"github.com/fekuna/freshmarket-storefront/pkg/logger"

	cartH "github.com/fekuna/freshmarket-storefront/internal/cart/handler"
	cartRepoPkg "github.com/fekuna/freshmarket-storefront/internal/cart/repository"
	cartUCPkg "github.com/fekuna/freshmarket-storefront/internal/cart/usecase"

	catalogRepoPkg "github.com/fekuna/freshmarket-storefront/internal/catalog/repository"
	catalogUCPkg "github.com/fekuna/freshmarket-storefront/internal/catalog/usecase"

	checkoutUCPkg "github.com/fekuna/freshmarket-storefront/internal/checkout/usecase"

	orderListenerPkg "github.com/fekuna/freshmarket-storefront/internal/order/listener"
	orderRepoPkg "github.com/fekuna/freshmarket-storefront/internal/order/repository"
	orderUCPkg "github.com/fekuna/freshmarket-storefront/internal/order/usecase"

	storageRepoPkg "github.com/fekuna/freshmarket-storefront/internal/storage/repository"
)

func main() {
	// 1. Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.API.AppEnv == "development" {
		logConfig.IsDevelopment = true
	}
	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Messages
	i18n.Init()
	if cfg.Locale.ExtraFile != "" {
		if err := i18n.Load(cfg.Locale.ExtraFile); err != nil {
			appLogger.Warn("Could not load extra locale file", zap.Error(err))
		}
	}
	localizer := i18n.NewLocalizer(cfg.Locale.Language)
	messenger := notify.NewMessenger(notify.Multi{
		notify.NewWriterNotifier(os.Stdout),
		notify.NewLogNotifier(appLogger),
	}, localizer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Redis, shared by the catalog cache and the redis storage driver
	var redisClient *cache.RedisClient
	if cfg.Storage.Driver == "redis" || cfg.Catalog.CacheTTL > 0 {
		rc, err := cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Redis, catalog cache disabled", zap.Error(err))
		} else {
			redisClient = rc
			defer redisClient.Close()
			appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
		}
	}

	// 5. Durable storage for the cart snapshot
	store, closeStore, err := openStorage(ctx, cfg, redisClient)
	if err != nil {
		appLogger.Fatal("Could not open storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer closeStore()
	appLogger.Info("Storage ready", zap.String("driver", cfg.Storage.Driver))

	// 6. Session and API client
	session := auth.NewTokenSession(cfg.JWT.SecretKey)
	if cfg.API.Token != "" {
		if err := session.SignIn(cfg.API.Token); err != nil {
			appLogger.Warn("Ignoring invalid API_TOKEN, continuing as guest", zap.Error(err))
		}
	}
	api := apiclient.New(apiclient.Config{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout}, session, appLogger)

	// 7. Order events
	var publisher checkout.Publisher
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		})
		defer producer.Close()
		publisher = producer
		appLogger.Info("Kafka producer ready", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	deliveryFee, err := decimal.NewFromString(cfg.Checkout.DeliveryFee)
	if err != nil {
		appLogger.Fatal("Invalid CHECKOUT_DELIVERY_FEE", zap.String("value", cfg.Checkout.DeliveryFee), zap.Error(err))
	}

	// 8. UseCases
	catalogUC := catalogUCPkg.NewCatalogUseCase(
		catalogRepoPkg.NewHTTPRepository(api),
		redisClient,
		messenger,
		appLogger.With(zap.String("component", "catalog")),
		catalogUCPkg.Options{CacheTTL: cfg.Catalog.CacheTTL, MaxConcurrent: cfg.Catalog.MaxConcurrent},
	)
	cartUC := cartUCPkg.NewCartUseCase(
		cartRepoPkg.NewHTTPRepository(api),
		store,
		session,
		messenger,
		appLogger.With(zap.String("component", "cart")),
		cartUCPkg.Options{StoreID: cfg.Cart.StoreID, RemoteTimeout: cfg.Cart.RemoteTimeout, Resolver: catalogUC},
	)
	orderUC := orderUCPkg.NewOrderUseCase(
		orderRepoPkg.NewStorageRepository(store, appLogger),
		session,
		messenger,
		appLogger.With(zap.String("component", "order")),
	)
	checkoutUC := checkoutUCPkg.NewCheckoutUseCase(
		cartUC,
		session,
		publisher,
		orderUC,
		messenger,
		appLogger.With(zap.String("component", "checkout")),
		checkoutUCPkg.Options{DeliveryFee: deliveryFee, ProcessingDelay: cfg.Checkout.ProcessingDelay, StoreID: cfg.Cart.StoreID},
	)

	if err := cartUC.Restore(ctx); err != nil {
		appLogger.Fatal("Could not restore cart", zap.Error(err))
	}
	if cfg.Cart.ReconcileOnStart {
		if err := cartUC.Reconcile(ctx); err != nil {
			appLogger.Warn("Cart reconcile failed, using local snapshot", zap.Error(err))
		}
	}

	// 8.5 Order status listener
	if cfg.Kafka.Enabled {
		consumer := broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.StatusTopic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer consumer.Close()
		appLogger.Info("Connected to Kafka Consumer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.StatusTopic))
		go orderListenerPkg.NewOrderStatusListener(consumer, orderUC, appLogger.With(zap.String("component", "order_listener"))).Start(ctx)
	}

	// 9. Terminal storefront
	h := cartH.NewStorefrontHandler(cartUC, catalogUC, checkoutUC, orderUC, session, os.Stdout, appLogger)
	appLogger.Info("Storefront started", zap.String("api", cfg.API.BaseURL))
	if err := h.Run(ctx, os.Stdin); err != nil {
		appLogger.Error("Storefront stopped with error", zap.Error(err))
	}
	stop()

	// leftover remote deletes get one more attempt before exit
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cartUC.FlushPendingDeletes(flushCtx); err != nil {
		appLogger.Warn("Pending cart deletes remain queued", zap.Error(err))
	}
	appLogger.Info("Storefront stopped")
}

func openStorage(ctx context.Context, cfg *config.Config, redisClient *cache.RedisClient) (storage.Repository, func(), error) {
	noop := func() {}
	switch cfg.Storage.Driver {
	case "memory":
		return storageRepoPkg.NewMemoryRepository(), noop, nil
	case "file":
		repo, err := storageRepoPkg.NewFileRepository(cfg.Storage.FilePath)
		return repo, noop, err
	case "redis":
		if redisClient == nil {
			return nil, noop, fmt.Errorf("redis storage needs a reachable redis at %s", cfg.Redis.Addr)
		}
		return storageRepoPkg.NewRedisRepository(redisClient.Client, cfg.Storage.KeyPrefix), noop, nil
	case "postgres":
		db, err := postgres.NewPostgres(&postgres.Config{
			Host:            cfg.Postgres.Host,
			Port:            cfg.Postgres.Port,
			User:            cfg.Postgres.User,
			Password:        cfg.Postgres.Password,
			DBName:          cfg.Postgres.DBName,
			SSLMode:         cfg.Postgres.SSLMode,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
			ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
		})
		if err != nil {
			return nil, noop, err
		}
		repo := storageRepoPkg.NewPGRepository(db, cfg.Storage.KeyPrefix)
		if err := repo.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		return repo, func() { _ = db.Close() }, nil
	case "mongo":
		client, err := mongodb.NewMongo(&mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, noop, err
		}
		coll := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
		return storageRepoPkg.NewMongoRepository(coll, cfg.Storage.KeyPrefix), func() { _ = client.Disconnect(context.Background()) }, nil
	default:
		return nil, noop, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
