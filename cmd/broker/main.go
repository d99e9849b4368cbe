package main

import (
	"context"

	"github.com/go-redis/redis/v8"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"freightline/internal/analytics"
	analyticshandler "freightline/internal/analytics/handler"
	bookinghandler "freightline/internal/bookings/handler"
	bookingrepo "freightline/internal/bookings/repository"
	bookingservice "freightline/internal/bookings/service"
	carrierhandler "freightline/internal/carriers/handler"
	"freightline/internal/carriers/registry"
	carrierrepo "freightline/internal/carriers/repository"
	carrierservice "freightline/internal/carriers/service"
	loadhandler "freightline/internal/loads/handler"
	"freightline/internal/loads/lockarena"
	loadrepo "freightline/internal/loads/repository"
	loadservice "freightline/internal/loads/service"
	loadvalidator "freightline/internal/loads/validator"
	negotiationhandler "freightline/internal/negotiation/handler"
	"freightline/internal/negotiation/policy"
	negotiationrepo "freightline/internal/negotiation/repository"
	negotiationservice "freightline/internal/negotiation/service"
	systemhandler "freightline/internal/system/handler"
	"freightline/pkg/app"
	"freightline/pkg/config"
	"freightline/pkg/db/mongo"
	"freightline/pkg/kafka"
	"freightline/pkg/model"
)

const ServiceName = "broker"

func main() {
	cfg := config.Load(ServiceName)
	cfg.Log.Info("Starting broker service")

	serverApp := app.NewApplication(cfg)

	var mongoClient *mongodriver.Client
	var loadStore loadrepo.LoadStore
	var sessionStore negotiationrepo.SessionStore
	var bookingStore bookingrepo.BookingStore

	if cfg.StoreBackend == config.StoreBackendMongo {
		client, err := mongo.Connect(context.Background(), cfg)
		if err != nil {
			cfg.Log.Fatal("Failed to connect to MongoDB", "error", err)
		}
		mongoClient = client
		serverApp.AddCloser(client.Disconnect)

		db := client.Database(cfg.MongoDatabaseName)
		if err := negotiationrepo.EnsureSessionIndexes(context.Background(), db); err != nil {
			cfg.Log.Fatal("Failed to create session indexes", "error", err)
		}
		if err := bookingrepo.EnsureBookingIndexes(context.Background(), db); err != nil {
			cfg.Log.Fatal("Failed to create booking indexes", "error", err)
		}
		if err := loadrepo.Seed(context.Background(), db, loadrepo.SeedLoads()); err != nil {
			cfg.Log.Fatal("Failed to seed loads", "error", err)
		}

		loadStore = loadrepo.NewMongoLoadStore(db)
		sessionStore = negotiationrepo.NewMongoSessionStore(db)
		bookingStore = bookingrepo.NewMongoBookingStore(db)
	} else {
		loadStore = loadrepo.NewMemoryLoadStore(loadrepo.SeedLoads())
		sessionStore = negotiationrepo.NewMemorySessionStore()
		bookingStore = bookingrepo.NewMemoryBookingStore()
	}

	recorder := initRecorder(cfg, serverApp)

	var verifyCache carrierrepo.VerificationCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		serverApp.AddCloser(func(context.Context) error { return rdb.Close() })
		verifyCache = carrierrepo.NewRedisVerificationCache(rdb, cfg.VerifyCacheTTL, cfg.Log)
	}

	var registryClient registry.Client
	if cfg.RegistryBaseURL != "" {
		registryClient = registry.NewHTTPClient(cfg.RegistryBaseURL, cfg.RegistryTimeout)
	}

	verificationLog := carrierrepo.NewVerificationLog()
	arena := lockarena.New()

	verifier := carrierservice.NewVerifierService(registryClient, verifyCache, verificationLog, recorder, cfg.Log)
	catalog := loadservice.NewCatalogService(loadStore, loadvalidator.NewCriteriaValidator(), cfg.Log)
	engine := negotiationservice.NewEngineService(
		catalog, sessionStore, verificationLog, arena,
		policy.New(cfg.NegotiationTolerance, cfg.NegotiationConcession, model.MaxRounds),
		recorder, cfg.Log,
	)
	manager := bookingservice.NewManagerService(
		catalog, bookingStore, sessionStore, verificationLog, arena, recorder, cfg.Log,
	)

	sweeper := negotiationservice.NewSweeper(engine, sessionStore, cfg.SessionIdleTTL, cfg.SweepInterval, cfg.Log)
	serverApp.AddWorker(sweeper)

	serverApp.SetApp(
		systemhandler.NewHealthHandler(mongoClient, cfg.Log),
		carrierhandler.NewCarrierHandler(verifier, cfg.Log),
		loadhandler.NewLoadHandler(catalog, cfg.Log),
		negotiationhandler.NewNegotiationHandler(engine, cfg.Log),
		bookinghandler.NewBookingHandler(manager, cfg.Log),
		analyticshandler.NewCallHandler(recorder, cfg.Log),
		systemhandler.NewStatsHandler(catalog, engine, manager, cfg.Log),
	)
	serverApp.Run()
}

func initRecorder(cfg *config.Config, serverApp *app.Application) analytics.Recorder {
	if len(cfg.KafkaBrokers) == 0 {
		cfg.Log.Info("No analytics brokers configured, call outcomes will be dropped")
		return analytics.NewNoopRecorder()
	}

	producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.AnalyticsTopic, ServiceName)
	if err != nil {
		cfg.Log.Fatal("Failed to create analytics producer", "error", err)
	}
	serverApp.AddCloser(func(context.Context) error { return producer.Close() })

	cfg.Log.Info("Analytics recorder initialized",
		"brokers", cfg.KafkaBrokers,
		"topic", cfg.AnalyticsTopic,
	)
	return analytics.NewKafkaRecorder(producer, cfg.Log)
}
