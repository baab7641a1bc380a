package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBUser     string
	DBPassword string
	DBName     string
	DBHost     string
	DBPort     string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	BotToken        string
	RequiredChannel string // channel users must join before features unlock

	WebhookListenAddr   string
	WebhookAllowedCIDRs []string

	PushGatewayURL string
	PushGatewayKey string

	DailyRewardAmount int64
	ReferralBonus     int64
	ClaimRetries      int
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "rebltasks_bot"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		BotToken:        getEnv("TELEGRAM_BOT_TOKEN", ""),
		RequiredChannel: getEnv("REQUIRED_CHANNEL", "simplco"),

		WebhookListenAddr:   getEnv("WEBHOOK_LISTEN_ADDR", ":8080"),
		WebhookAllowedCIDRs: getEnvList("WEBHOOK_ALLOWED_CIDRS"),

		PushGatewayURL: getEnv("PUSH_GATEWAY_URL", ""),
		PushGatewayKey: getEnv("PUSH_GATEWAY_KEY", ""),

		DailyRewardAmount: getEnvInt64("DAILY_REWARD_AMOUNT", 10),
		ReferralBonus:     getEnvInt64("REFERRAL_BONUS", 50),
		ClaimRetries:      int(getEnvInt64("CLAIM_RETRIES", 3)),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
		log.Printf("Invalid integer for %s, using default %d", key, fallback)
	}
	return fallback
}

// getEnvList parses a comma-separated value; an unset or empty variable
// yields nil, which callers treat as "no restriction".
func getEnvList(key string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
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
