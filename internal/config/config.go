package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr string

	DBUser     string
	DBPassword string
	DBName     string
	DBHost     string
	DBPort     string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	BotToken     string
	MiniAppURL   string
	AdminChatID  int64
	AdminIDs     []int64
	AllowedOrigin string

	AdminJWTSecret string
	AdminTokenTTL  time.Duration

	ReferralReward    float64
	ReferralSpinBonus int64

	OxaPayMerchantKey string
	OxaPayAPIURL      string
	OxaPayCallbackURL string

	SettingsTTL    time.Duration
	LeaderboardTTL time.Duration

	InitDataTTL time.Duration
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", "127.0.0.1:8080"),

		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "skyton_bot"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		BotToken:      getEnv("TELEGRAM_BOT_TOKEN", ""),
		MiniAppURL:    getEnv("MINI_APP_URL", "https://t.me/xSkyTON_Bot/app"),
		AdminChatID:   getEnvInt64("ADMIN_CHAT_ID", 0),
		AdminIDs:      getEnvInt64List("ADMIN_IDS"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:5173"),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", "dev-secret-change-me"),
		AdminTokenTTL:  getEnvDuration("ADMIN_TOKEN_TTL", 12*time.Hour),

		ReferralReward:    getEnvFloat("REFERRAL_REWARD", 50),
		ReferralSpinBonus: getEnvInt64("REFERRAL_SPIN_BONUS", 1),

		OxaPayMerchantKey: getEnv("OXAPAY_MERCHANT_KEY", ""),
		OxaPayAPIURL:      getEnv("OXAPAY_API_URL", "https://api.oxapay.com"),
		OxaPayCallbackURL: getEnv("OXAPAY_CALLBACK_URL", ""),

		SettingsTTL:    getEnvDuration("SETTINGS_TTL", 5*time.Minute),
		LeaderboardTTL: getEnvDuration("LEADERBOARD_TTL", 30*time.Minute),

		InitDataTTL: getEnvDuration("INIT_DATA_TTL", 24*time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		log.Printf("Invalid %s=%q, using %d", key, value, fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Invalid %s=%q, using %g", key, value, fallback)
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid %s=%q, using %s", key, value, fallback)
		return fallback
	}
	return d
}

// getEnvInt64List parses a comma-separated id list, e.g. ADMIN_IDS=123,456.
func getEnvInt64List(key string) []int64 {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(value, ",") {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			log.Printf("Invalid entry %q in %s, skipping", part, key)
			continue
		}
		ids = append(ids, n)
	}
	return ids
}
