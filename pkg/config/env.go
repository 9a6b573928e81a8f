package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvExpiryWindow        = "RESERVATION_EXPIRY_WINDOW"
	EnvCancellationWindow  = "CANCELLATION_WINDOW"
	EnvSlotLockTTL         = "SLOT_LOCK_TTL"
	EnvCreateRetryAttempts = "CREATE_RETRY_ATTEMPTS"
	EnvCreateRetryBackoff  = "CREATE_RETRY_BACKOFF"
	EnvSweepSchedule       = "SWEEP_SCHEDULE"

	EnvKafkaEnabled     = "KAFKA_ENABLED"
	EnvKafkaBrokers     = "KAFKA_BROKERS"
	EnvKafkaEventsTopic = "KAFKA_EVENTS_TOPIC"
)
