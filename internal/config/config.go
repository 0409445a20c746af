package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// XPRates mirrors the achievement rate table. Non-positive values switch the
// corresponding XP source off.
type XPRates struct {
	LikeXP             int `yaml:"like_xp"`
	DeckCreateXP       int `yaml:"deck_create_xp"`
	DeckCreateDailyCap int `yaml:"deck_create_daily_cap"`
	LogXP              int `yaml:"log_xp"`
}

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string

	DBHost string
	DBUser string
	DBPass string
	DBName string
	DBPort string

	RedisURL string
	MongoURI string
	MongoDB  string

	MeiliSearchHost string
	MeiliMasterKey  string

	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string

	JWTSecret string

	CardSeedPath string

	// XPReconcileCron is a standard 5-field cron spec; empty disables the job.
	XPReconcileCron        string
	XPReconcileConcurrency int

	RateLimitDeckCreate time.Duration
	RateLimitLike       time.Duration
	RateLimitLogSubmit  time.Duration
	ViewDedupWindow     time.Duration
	ViewSyncInterval    time.Duration

	XP XPRates
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		DBHost: getEnv("DB_HOST", "localhost"),
		DBUser: getEnv("DB_USER", "postgres"),
		DBPass: os.Getenv("DB_PASS"),
		DBName: getEnv("DB_NAME", "algomancy"),
		DBPort: getEnv("DB_PORT", "5432"),

		RedisURL: os.Getenv("REDIS_URL"),
		MongoURI: os.Getenv("MONGO_URI"),
		MongoDB:  os.Getenv("MONGO_DB"),

		MeiliSearchHost: os.Getenv("MEILISEARCH_HOST"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		CloudinaryCloudName:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:       os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret:    os.Getenv("CLOUDINARY_API_SECRET"),
		CloudinaryUploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "deck_covers"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		CardSeedPath: os.Getenv("CARD_SEED_PATH"),

		XPReconcileCron: getEnv("XP_RECONCILE_CRON", "30 3 * * *"),
	}

	var err error
	durations := []struct {
		key      string
		fallback string
		dst      *time.Duration
	}{
		{"RATE_LIMIT_DECK_CREATE", "30s", &cfg.RateLimitDeckCreate},
		{"RATE_LIMIT_LIKE", "3s", &cfg.RateLimitLike},
		{"RATE_LIMIT_LOG_SUBMIT", "10s", &cfg.RateLimitLogSubmit},
		{"VIEW_DEDUP_WINDOW", "1h", &cfg.ViewDedupWindow},
		{"VIEW_SYNC_INTERVAL", "1m", &cfg.ViewSyncInterval},
	}
	for _, d := range durations {
		*d.dst, err = time.ParseDuration(getEnv(d.key, d.fallback))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
	}

	if cfg.XPReconcileConcurrency, err = getEnvInt("XP_RECONCILE_CONCURRENCY", 4); err != nil {
		return nil, err
	}

	if cfg.XP, err = loadXPRates(); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" && cfg.AppEnv != "development" {
		return nil, fmt.Errorf("JWT_SECRET is required outside development")
	}

	return cfg, nil
}

// PostgresDSN builds the gorm/pgx connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPass, c.DBName, c.DBPort,
	)
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// loadXPRates reads env rates first; a YAML table at XP_CONFIG_PATH
// overrides any key it sets.
func loadXPRates() (XPRates, error) {
	var rates XPRates
	var err error

	ints := []struct {
		key      string
		fallback int
		dst      *int
	}{
		{"LIKE_XP", 5, &rates.LikeXP},
		{"DECK_CREATE_XP", 10, &rates.DeckCreateXP},
		{"DECK_CREATE_DAILY_CAP", 50, &rates.DeckCreateDailyCap},
		{"LOG_XP", 5, &rates.LogXP},
	}
	for _, i := range ints {
		*i.dst, err = getEnvInt(i.key, i.fallback)
		if err != nil {
			return rates, err
		}
	}

	path := os.Getenv("XP_CONFIG_PATH")
	if path == "" {
		return rates, nil
	}

	return applyXPTable(rates, path)
}

type xpTable struct {
	LikeXP             *int `yaml:"like_xp"`
	DeckCreateXP       *int `yaml:"deck_create_xp"`
	DeckCreateDailyCap *int `yaml:"deck_create_daily_cap"`
	LogXP              *int `yaml:"log_xp"`
}

func applyXPTable(rates XPRates, path string) (XPRates, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return rates, fmt.Errorf("failed to read XP table %s: %w", path, err)
	}

	var table xpTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return rates, fmt.Errorf("failed to parse XP table %s: %w", path, err)
	}

	if table.LikeXP != nil {
		rates.LikeXP = *table.LikeXP
	}
	if table.DeckCreateXP != nil {
		rates.DeckCreateXP = *table.DeckCreateXP
	}
	if table.DeckCreateDailyCap != nil {
		rates.DeckCreateDailyCap = *table.DeckCreateDailyCap
	}
	if table.LogXP != nil {
		rates.LogXP = *table.LogXP
	}

	return rates, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
