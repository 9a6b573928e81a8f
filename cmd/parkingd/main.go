package main

import (
	locationhandler "lotkeeper/internal/locations/handler"
	locationrepository "lotkeeper/internal/locations/repository"
	locationservice "lotkeeper/internal/locations/service"
	locationvalidator "lotkeeper/internal/locations/validator"
	reservationhandler "lotkeeper/internal/reservations/handler"
	reservationrepository "lotkeeper/internal/reservations/repository"
	reservationservice "lotkeeper/internal/reservations/service"
	reservationvalidator "lotkeeper/internal/reservations/validator"
	slothandler "lotkeeper/internal/slots/handler"
	slotrepository "lotkeeper/internal/slots/repository"
	slotservice "lotkeeper/internal/slots/service"
	slotvalidator "lotkeeper/internal/slots/validator"
	"lotkeeper/internal/sweeper"
	"lotkeeper/pkg/app"
	"lotkeeper/pkg/config"
	"lotkeeper/pkg/kafka"
)

const ServiceName = "parkingd"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	publisher := initPublisher(cfg)

	slotSvc, locationSvc, reservationSvc := initServices(cfg, publisher)

	sweep, err := sweeper.New(cfg, reservationSvc)
	if err != nil {
		cfg.Log.Fatal("Invalid sweep schedule", "schedule", cfg.SweepSchedule, "error", err)
	}
	sweep.Start()

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		reservationhandler.NewReservationHandler(reservationSvc, cfg.Log),
		slothandler.NewSlotHandler(slotSvc, cfg.Log),
		locationhandler.NewLocationHandler(locationSvc, cfg.Log),
	)
	serverApp.OnShutdown(sweep.Stop)
	serverApp.OnShutdown(func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	})
	serverApp.Run()
}

func initPublisher(cfg *config.Config) kafka.Publisher {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Event publishing disabled")
		return kafka.NoopPublisher{}
	}

	producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaEventsTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize event producer", "error", err)
	}
	cfg.Log.Info("Event publishing enabled", "topic", cfg.KafkaEventsTopic)
	return producer
}

func initServices(cfg *config.Config, publisher kafka.Publisher) (slotservice.SlotService, locationservice.LocationService, reservationservice.ReservationService) {
	reservationRepo := reservationrepository.NewMongoReservationRepository(cfg)
	lockRepo := reservationrepository.NewSlotLockRepository(cfg)
	slotRepo := slotrepository.NewMongoSlotRepository(cfg)
	locationRepo := locationrepository.NewMongoLocationRepository(cfg)

	slotSvc := slotservice.NewSlotService(
		slotRepo,
		reservationRepo,
		slotvalidator.NewSlotValidator(cfg.Log),
		cfg,
	)
	locationSvc := locationservice.NewLocationService(
		locationRepo,
		slotSvc,
		locationvalidator.NewLocationValidator(cfg.Log),
		cfg,
	)
	reservationSvc := reservationservice.NewReservationService(
		reservationRepo,
		lockRepo,
		reservationvalidator.NewReservationValidator(cfg.Log),
		slotSvc,
		publisher,
		cfg,
	)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)
	return slotSvc, locationSvc, reservationSvc
}
