package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "lotkeeper"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Reservation policy defaults. A pending reservation that is never
	// confirmed expires after the expiry window; cancellation is allowed
	// only while now < start - cancellation window.
	DefaultExpiryWindow        = 30 * time.Minute
	DefaultCancellationWindow  = 1 * time.Hour
	DefaultSlotLockTTL         = 10 * time.Second
	DefaultCreateRetryAttempts = 3
	DefaultCreateRetryBackoff  = 150 * time.Millisecond
	DefaultSweepSchedule       = "@every 1m"

	DefaultKafkaBrokers     = "localhost:9092"
	DefaultKafkaEventsTopic = "lotkeeper.reservation-events"

	DefaultPaginationLimit = 100
)
