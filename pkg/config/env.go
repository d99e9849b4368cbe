package config

const (
	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvStoreBackend = "STORE_BACKEND"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRegistryBaseURL = "CARRIER_REGISTRY_URL"
	EnvRegistryTimeout = "CARRIER_REGISTRY_TIMEOUT"

	EnvRedisAddr      = "REDIS_ADDR"
	EnvRedisPassword  = "REDIS_PASSWORD"
	EnvRedisDB        = "REDIS_DB"
	EnvVerifyCacheTTL = "VERIFY_CACHE_TTL"

	EnvKafkaBrokers   = "KAFKA_BROKERS"
	EnvAnalyticsTopic = "ANALYTICS_TOPIC"

	EnvNegotiationTolerance  = "NEGOTIATION_TOLERANCE"
	EnvNegotiationConcession = "NEGOTIATION_CONCESSION"
	EnvSessionIdleTTL        = "SESSION_IDLE_TTL"
	EnvSweepInterval         = "SWEEP_INTERVAL"

	EnvRequestTimeout  = "REQUEST_TIMEOUT"
	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
