package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"freightline/pkg/logger"
)

type Config struct {
	Port         string
	StoreBackend string

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RegistryBaseURL string
	RegistryTimeout time.Duration

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	VerifyCacheTTL time.Duration

	KafkaBrokers   []string
	AnalyticsTopic string

	NegotiationTolerance  float64
	NegotiationConcession float64
	SessionIdleTTL        time.Duration
	SweepInterval         time.Duration

	RequestTimeout  time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log *logger.Logger
}

func Load(serviceName string) *Config {
	cfg := &Config{
		Port:         getEnvStr(EnvPort, DefaultPort),
		StoreBackend: getEnvStr(EnvStoreBackend, DefaultStoreBackend),

		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RegistryBaseURL: getEnvStr(EnvRegistryBaseURL, DefaultRegistryBaseURL),
		RegistryTimeout: getEnvDuration(EnvRegistryTimeout, DefaultRegistryTimeout),

		RedisAddr:      getEnvStr(EnvRedisAddr, ""),
		RedisPassword:  getEnvStr(EnvRedisPassword, ""),
		RedisDB:        getEnvNum(EnvRedisDB, 0),
		VerifyCacheTTL: getEnvDuration(EnvVerifyCacheTTL, DefaultVerifyCacheTTL),

		KafkaBrokers:   getEnvList(EnvKafkaBrokers),
		AnalyticsTopic: getEnvStr(EnvAnalyticsTopic, DefaultAnalyticsTopic),

		NegotiationTolerance:  getEnvFloat(EnvNegotiationTolerance, DefaultNegotiationTolerance),
		NegotiationConcession: getEnvFloat(EnvNegotiationConcession, DefaultNegotiationConcession),
		SessionIdleTTL:        getEnvDuration(EnvSessionIdleTTL, DefaultSessionIdleTTL),
		SweepInterval:         getEnvDuration(EnvSweepInterval, DefaultSweepInterval),

		RequestTimeout:  getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	switch cfg.StoreBackend {
	case StoreBackendMemory, StoreBackendMongo:
	default:
		problems = append(problems, fmt.Sprintf("StoreBackend must be %q or %q, got: %s", StoreBackendMemory, StoreBackendMongo, cfg.StoreBackend))
	}

	if cfg.StoreBackend == StoreBackendMongo {
		if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			problems = append(problems, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
		}
		if cfg.MongoDatabaseName == "" {
			problems = append(problems, "MongoDatabaseName cannot be empty")
		}
		if cfg.MongoConnTimeout <= 0 {
			problems = append(problems, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
		}
	}

	if cfg.RegistryBaseURL != "" && !strings.HasPrefix(cfg.RegistryBaseURL, "http://") && !strings.HasPrefix(cfg.RegistryBaseURL, "https://") {
		problems = append(problems, fmt.Sprintf("RegistryBaseURL must be an http(s) URL, got: %s", cfg.RegistryBaseURL))
	}
	if cfg.RegistryTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("RegistryTimeout must be positive, got: %s", cfg.RegistryTimeout))
	}

	if cfg.NegotiationTolerance <= 0 || cfg.NegotiationTolerance >= 1 {
		problems = append(problems, fmt.Sprintf("NegotiationTolerance must be in (0, 1), got: %g", cfg.NegotiationTolerance))
	}
	if cfg.NegotiationConcession <= 0 || cfg.NegotiationConcession >= 1 {
		problems = append(problems, fmt.Sprintf("NegotiationConcession must be in (0, 1), got: %g", cfg.NegotiationConcession))
	}
	if cfg.SessionIdleTTL <= 0 {
		problems = append(problems, fmt.Sprintf("SessionIdleTTL must be positive, got: %s", cfg.SessionIdleTTL))
	}
	if cfg.SweepInterval <= 0 {
		problems = append(problems, fmt.Sprintf("SweepInterval must be positive, got: %s", cfg.SweepInterval))
	}
	if cfg.VerifyCacheTTL <= 0 {
		problems = append(problems, fmt.Sprintf("VerifyCacheTTL must be positive, got: %s", cfg.VerifyCacheTTL))
	}

	for name, d := range map[string]time.Duration{
		"RequestTimeout":  cfg.RequestTimeout,
		"ReadTimeout":     cfg.ReadTimeout,
		"WriteTimeout":    cfg.WriteTimeout,
		"IdleTimeout":     cfg.IdleTimeout,
		"ShutdownTimeout": cfg.ShutdownTimeout,
	} {
		if d <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive, got: %s", name, d))
		}
	}

	if len(problems) > 0 {
		msg := "Configuration validation failed:\n"
		for i, p := range problems {
			msg += fmt.Sprintf("  %d. %s\n", i+1, p)
		}
		return fmt.Errorf("%s", msg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"port", cfg.Port,
		"store_backend", cfg.StoreBackend,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"registry_url", cfg.RegistryBaseURL,
		"registry_timeout", cfg.RegistryTimeout,
		"redis_addr", cfg.RedisAddr,
		"verify_cache_ttl", cfg.VerifyCacheTTL,
		"kafka_brokers", cfg.KafkaBrokers,
		"analytics_topic", cfg.AnalyticsTopic,
		"negotiation_tolerance", cfg.NegotiationTolerance,
		"negotiation_concession", cfg.NegotiationConcession,
		"session_idle_ttl", cfg.SessionIdleTTL,
		"sweep_interval", cfg.SweepInterval,
		"request_timeout", cfg.RequestTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
