package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"showtime-reservation/cmd"
	"showtime-reservation/internal/data/memory"
	"showtime-reservation/internal/data/repository"
	"showtime-reservation/internal/usecase"
	"showtime-reservation/internal/wire"
	"showtime-reservation/migrations"
	"showtime-reservation/pkg/broker"
	"showtime-reservation/pkg/cache"
	"showtime-reservation/pkg/database"
	"showtime-reservation/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	envFile := flag.String("env", ".env", "path to .env file")
	seed := flag.Bool("seed", false, "provision a demo show and slot on startup")
	flag.Parse()

	config, err := utils.LoadConfig(*envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.String("storage", config.App.StorageDriver),
		zap.String("broker", config.Broker.Driver),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		repos  *repository.Repository
		health wire.HealthChecker
	)
	switch config.App.StorageDriver {
	case "memory":
		repos = memory.NewRepository(logger)
		logger.Warn("Using in-memory storage; data is lost on restart")
	default:
		db, err := database.InitDB(ctx, config.Database)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		logger.Info("Database connected successfully")

		if err := migrations.Apply(ctx, db); err != nil {
			logger.Fatal("Failed to apply migrations", zap.Error(err))
		}
		repos = repository.NewRepository(db, logger)
		health = db.Ping
	}

	deps := usecase.Dependencies{}

	if config.Redis.Addr != "" {
		client, err := cache.NewRedisClient(ctx, cache.Config{
			Address:  config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer client.Close()

		redisSvc := cache.NewRedisService(client)
		deps.Locker = redisSvc
		if config.Cache.Enabled {
			deps.Cache = redisSvc
		}
		logger.Info("Redis connected", zap.Bool("seat_map_cache", config.Cache.Enabled))
	}

	publisher, err := newPublisher(config.Broker)
	if err != nil {
		logger.Fatal("Failed to create event publisher", zap.Error(err))
	}
	defer publisher.Close()
	deps.Publisher = publisher

	app := wire.Wiring(repos, config, deps, health, logger)

	if *seed {
		if _, err := cmd.SeedDemo(ctx, app.Service.Inventory, time.Now().Add(24*time.Hour).Truncate(time.Hour), 10, 12, logger); err != nil {
			logger.Fatal("Failed to seed demo data", zap.Error(err))
		}
	}

	app.Service.Sweeper.Start(ctx)
	defer app.Service.Sweeper.Stop()

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, config.App.ShutdownTimeout, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}
	logger.Info("Shutdown complete")
}

func newPublisher(cfg utils.BrokerConfig) (broker.Publisher, error) {
	switch cfg.Driver {
	case "rabbitmq":
		return broker.NewRabbitMQ(cfg.RabbitMQURL)
	case "kafka":
		return broker.NewKafka(broker.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
	default:
		return broker.Noop{}, nil
	}
}
