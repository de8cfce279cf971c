package config

import (
	"os"
	"strconv"
	"time"

	"ridehive/internal/utils"
)

type Config struct {
	App      *AppConfig      `yaml:"app"`
	Database *DatabaseConfig `yaml:"database"`
	Redis    *RedisConfig    `yaml:"redis"`
	Push     *PushConfig     `yaml:"push"`
	Fare     *FareConfig     `yaml:"fare"`
	Matching *MatchingConfig `yaml:"matching"`
	Payment  *PaymentConfig  `yaml:"payment"`
	Dispatch *DispatchConfig `yaml:"dispatch"`
	Security *SecurityConfig `yaml:"security"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
	Port        int    `yaml:"port"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	Currency    string `yaml:"currency"`
}

type DatabaseConfig struct {
	URI            string        `yaml:"uri"`
	Database       string        `yaml:"database"`
	MaxPoolSize    int           `yaml:"max_pool_size"`
	MinPoolSize    int           `yaml:"min_pool_size"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	SocketTimeout  time.Duration `yaml:"socket_timeout"`
}

type RedisConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type PushConfig struct {
	Provider           string `yaml:"provider"` // fcm, apns
	FCMCredentialsFile string `yaml:"fcm_credentials_file"`
	APNSKeyFile        string `yaml:"apns_key_file"`
	APNSKeyID          string `yaml:"apns_key_id"`
	APNSTeamID         string `yaml:"apns_team_id"`
	APNSTopic          string `yaml:"apns_topic"`
	APNSProduction     bool   `yaml:"apns_production"`
}

type FareConfig struct {
	GoogleMapsAPIKey string  `yaml:"google_maps_api_key"`
	BaseFare         float64 `yaml:"base_fare"`
	PerKMRate        float64 `yaml:"per_km_rate"`
	MinimumFare      float64 `yaml:"minimum_fare"`
}

type MatchingConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type PaymentConfig struct {
	StripeSecretKey string  `yaml:"stripe_secret_key"`
	CommissionRate  float64 `yaml:"commission_rate"`
	NoShowFee       float64 `yaml:"no_show_fee"`
}

type DispatchConfig struct {
	TickInterval        time.Duration `yaml:"tick_interval"`
	WaveInterval        time.Duration `yaml:"wave_interval"`
	BatchLimit          int           `yaml:"batch_limit"`
	PendingReapInterval time.Duration `yaml:"pending_reap_interval"`
	PendingTimeout      time.Duration `yaml:"pending_timeout"`
	HoardReapInterval   time.Duration `yaml:"hoard_reap_interval"`
	HoardTimeout        time.Duration `yaml:"hoard_timeout"`
	ActivatorInterval   time.Duration `yaml:"activator_interval"`
	ActivationLookahead time.Duration `yaml:"activation_lookahead"`
}

type SecurityConfig struct {
	JWTSecret          string   `yaml:"jwt_secret"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

func Load() (*Config, error) {
	config := &Config{
		App:      loadAppConfig(),
		Database: loadDatabaseConfig(),
		Redis:    loadRedisConfig(),
		Push:     loadPushConfig(),
		Fare:     loadFareConfig(),
		Matching: loadMatchingConfig(),
		Payment:  loadPaymentConfig(),
		Dispatch: loadDispatchConfig(),
		Security: loadSecurityConfig(),
	}

	return config, nil
}

func loadAppConfig() *AppConfig {
	return &AppConfig{
		Name:        getEnv("APP_NAME", utils.AppName),
		Version:     getEnv("APP_VERSION", utils.AppVersion),
		Environment: getEnv("APP_ENV", "development"),
		Port:        getEnvAsInt("APP_PORT", 8080),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
		Currency:    getEnv("APP_CURRENCY", utils.DefaultCurrency),
	}
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		Database:       getEnv("MONGODB_DATABASE", "ridehive"),
		MaxPoolSize:    getEnvAsInt("MONGODB_MAX_POOL_SIZE", 100),
		MinPoolSize:    getEnvAsInt("MONGODB_MIN_POOL_SIZE", 5),
		ConnectTimeout: getEnvAsDuration("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
		SocketTimeout:  getEnvAsDuration("MONGODB_SOCKET_TIMEOUT", 30*time.Second),
	}
}

func loadRedisConfig() *RedisConfig {
	return &RedisConfig{
		Host:         getEnv("REDIS_HOST", "localhost"),
		Port:         getEnvAsInt("REDIS_PORT", 6379),
		Password:     getEnv("REDIS_PASSWORD", ""),
		DB:           getEnvAsInt("REDIS_DB", 0),
		PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
		MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:  getEnvAsDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  getEnvAsDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout: getEnvAsDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
	}
}

func loadPushConfig() *PushConfig {
	return &PushConfig{
		Provider:           getEnv("PUSH_PROVIDER", "fcm"),
		FCMCredentialsFile: getEnv("FCM_CREDENTIALS_FILE", "firebase-credentials.json"),
		APNSKeyFile:        getEnv("APNS_KEY_FILE", ""),
		APNSKeyID:          getEnv("APNS_KEY_ID", ""),
		APNSTeamID:         getEnv("APNS_TEAM_ID", ""),
		APNSTopic:          getEnv("APNS_TOPIC", ""),
		APNSProduction:     getEnvAsBool("APNS_PRODUCTION", false),
	}
}

func loadFareConfig() *FareConfig {
	return &FareConfig{
		GoogleMapsAPIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),
		BaseFare:         getEnvAsFloat("FARE_BASE", 2.0),
		PerKMRate:        getEnvAsFloat("FARE_PER_KM", 1.25),
		MinimumFare:      getEnvAsFloat("FARE_MINIMUM", utils.MinFare),
	}
}

func loadMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		BaseURL: getEnv("MATCHING_BASE_URL", "http://localhost:8090"),
		Timeout: getEnvAsDuration("MATCHING_TIMEOUT", 5*time.Second),
	}
}

func loadPaymentConfig() *PaymentConfig {
	return &PaymentConfig{
		StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
		CommissionRate:  getEnvAsFloat("COMMISSION_RATE", utils.CommissionRate),
		NoShowFee:       getEnvAsFloat("NO_SHOW_FEE", utils.NoShowFee),
	}
}

func loadDispatchConfig() *DispatchConfig {
	return &DispatchConfig{
		TickInterval:        getEnvAsDuration("DISPATCH_TICK_INTERVAL", utils.DispatchTickInterval),
		WaveInterval:        getEnvAsDuration("DISPATCH_WAVE_INTERVAL", utils.DispatchWaveInterval),
		BatchLimit:          getEnvAsInt("DISPATCH_BATCH_LIMIT", utils.DispatchBatchLimit),
		PendingReapInterval: getEnvAsDuration("PENDING_REAP_INTERVAL", utils.PendingReapInterval),
		PendingTimeout:      getEnvAsDuration("PENDING_TIMEOUT", utils.PendingTimeout),
		HoardReapInterval:   getEnvAsDuration("HOARD_REAP_INTERVAL", utils.HoardingReapInterval),
		HoardTimeout:        getEnvAsDuration("HOARD_TIMEOUT", utils.HoardingTimeout),
		ActivatorInterval:   getEnvAsDuration("ACTIVATOR_INTERVAL", utils.ActivatorInterval),
		ActivationLookahead: getEnvAsDuration("ACTIVATION_LOOKAHEAD", utils.ActivationLookahead),
	}
}

func loadSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		JWTSecret:          getEnv("JWT_SECRET", "change-me-in-production"),
		CORSAllowedOrigins: []string{getEnv("CORS_ALLOWED_ORIGINS", "*")},
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
