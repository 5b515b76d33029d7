package di

import (
	"context"
	"fmt"

	"github.com/kaeky/Yum-Yum-sub001/internal/handler"
	"github.com/kaeky/Yum-Yum-sub001/internal/metrics"
	"github.com/kaeky/Yum-Yum-sub001/internal/migrate"
	"github.com/kaeky/Yum-Yum-sub001/internal/repository"
	"github.com/kaeky/Yum-Yum-sub001/internal/service"
	"github.com/kaeky/Yum-Yum-sub001/internal/worker"
	"github.com/kaeky/Yum-Yum-sub001/pkg/config"
	"github.com/kaeky/Yum-Yum-sub001/pkg/database"
	"github.com/kaeky/Yum-Yum-sub001/pkg/logger"
	"github.com/kaeky/Yum-Yum-sub001/pkg/redis"
)

// Container holds all dependencies for the reservation service
type Container struct {
	Config *config.Config

	// Infrastructure
	DB    *database.PostgresDB
	Redis *redis.Client

	// Repositories
	RestaurantRepo  repository.RestaurantRepository
	ReservationRepo repository.ReservationRepository
	SlotCounter     repository.SlotCounterRepository

	// Publishers
	Publisher service.NotificationPublisher

	// Services
	AvailabilityService service.AvailabilityService
	ReservationService  service.ReservationService

	// Workers
	NoShowWorker *worker.NoShowWorker

	// Handlers
	HealthHandler       *handler.HealthHandler
	AvailabilityHandler *handler.AvailabilityHandler
	ReservationHandler  *handler.ReservationHandler
}

// NewContainer wires infrastructure, repositories, services and handlers
// from the loaded configuration.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}

	if err := metrics.Init(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxOpenConns),
		MinConns:        int32(cfg.Database.MaxIdleConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	c.DB = db

	if err := migrate.Up(ctx, db.Pool()); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	redisClient, err := redis.NewClient(ctx, &redis.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	c.Redis = redisClient

	slotCounter := repository.NewRedisSlotCounterRepository(redisClient)
	if err := slotCounter.LoadScripts(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to load redis scripts: %w", err)
	}
	c.SlotCounter = slotCounter

	c.RestaurantRepo = repository.NewPostgresRestaurantRepository(db.Pool())
	c.ReservationRepo = repository.NewPostgresReservationRepository(db.Pool())

	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := service.NewKafkaNotificationPublisher(ctx, &service.NotificationPublisherConfig{
			Brokers:     cfg.Kafka.Brokers,
			Topic:       cfg.Kafka.Topic,
			ServiceName: cfg.App.Name,
			ClientID:    cfg.Kafka.ClientID,
		})
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
		}
		c.Publisher = publisher
	} else {
		logger.Get().Warn("No Kafka brokers configured, reservation events will not be published")
		c.Publisher = service.NewNoOpNotificationPublisher()
	}

	c.AvailabilityService = service.NewAvailabilityService(
		c.RestaurantRepo,
		c.ReservationRepo,
		&service.AvailabilityServiceConfig{
			MinLeadTime: cfg.Booking.MinLeadTime,
		},
	)
	c.ReservationService = service.NewReservationService(
		c.RestaurantRepo,
		c.ReservationRepo,
		c.SlotCounter,
		c.Publisher,
		&service.ReservationServiceConfig{
			SlotLockTimeout:  cfg.Booking.SlotLockTimeout,
			CommitMaxRetries: cfg.Booking.CommitMaxRetries,
			MinLeadTime:      cfg.Booking.MinLeadTime,
		},
	)

	c.NoShowWorker = worker.NewNoShowWorker(c.ReservationService, &worker.NoShowWorkerConfig{
		ScanInterval: cfg.Booking.NoShowScanInterval,
		BatchSize:    cfg.Booking.NoShowBatchSize,
	})

	c.HealthHandler = handler.NewHealthHandler(c.DB, c.Redis)
	c.AvailabilityHandler = handler.NewAvailabilityHandler(c.AvailabilityService)
	c.ReservationHandler = handler.NewReservationHandler(c.ReservationService)

	return c, nil
}

// Close releases infrastructure resources in reverse dependency order
func (c *Container) Close() {
	if c.NoShowWorker != nil {
		c.NoShowWorker.Stop()
	}
	if c.Publisher != nil {
		if err := c.Publisher.Close(); err != nil {
			logger.Get().Warn(fmt.Sprintf("Failed to close publisher: %v", err))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logger.Get().Warn(fmt.Sprintf("Failed to close redis client: %v", err))
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
