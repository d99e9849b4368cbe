package config

import "time"

const (
	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	StoreBackendMemory  = "memory"
	StoreBackendMongo   = "mongo"
	DefaultStoreBackend = StoreBackendMemory

	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "freightline"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRegistryBaseURL = ""
	DefaultRegistryTimeout = 3 * time.Second

	DefaultVerifyCacheTTL = 15 * time.Minute

	DefaultAnalyticsTopic = "call-outcomes"

	DefaultNegotiationTolerance  = 0.05
	DefaultNegotiationConcession = 0.05
	DefaultSessionIdleTTL        = 10 * time.Minute
	DefaultSweepInterval         = 1 * time.Minute

	DefaultRequestTimeout  = 30 * time.Second
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)
