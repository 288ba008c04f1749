package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	MongoURI        string
	DBName          string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	SessionTTL      time.Duration
	CORSOrigins     []string
	PublicBaseURL   string
	FrontendBaseURL string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	MpesaConsumerKey    string
	MpesaConsumerSecret string
	MpesaShortcode      string
	MpesaPasskey        string
	MpesaEnvironment    string

	CardAPIKey  string
	CardAPIBase string

	PickupMtaaniAPIKey  string
	PickupMtaaniAPIBase string

	StkPollInterval    time.Duration
	StkPollMaxAttempts int
	StkPollMaxElapsed  time.Duration

	CardReconcileAttempts int
	CardReconcileBackoff  time.Duration
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		MongoURI:        getEnvOrDefault("MONGO_URI", ""),
		DBName:          getEnvOrDefault("DB_NAME", "jojos_boutick"),
		JWTSecret:       getEnvOrDefault("JWT_SECRET", ""),
		AccessTokenTTL:  getDurationEnv("ACCESS_TOKEN_TTL", 20, time.Minute),
		SessionTTL:      getDurationEnv("SESSION_TTL", 7, 24*time.Hour),
		CORSOrigins:     splitEnv("CORS_ORIGINS", "*"),
		PublicBaseURL:   getEnvOrDefault("PUBLIC_BASE_URL", "http://localhost:8080"),
		FrontendBaseURL: getEnvOrDefault("FRONTEND_BASE_URL", "http://localhost:3000"),

		GoogleClientID:     getEnvOrDefault("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnvOrDefault("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnvOrDefault("GOOGLE_REDIRECT_URL", "http://localhost:3000/auth/callback"),

		MpesaConsumerKey:    getEnvOrDefault("MPESA_CONSUMER_KEY", ""),
		MpesaConsumerSecret: getEnvOrDefault("MPESA_CONSUMER_SECRET", ""),
		MpesaShortcode:      getEnvOrDefault("MPESA_SHORTCODE", ""),
		MpesaPasskey:        getEnvOrDefault("MPESA_PASSKEY", ""),
		MpesaEnvironment:    getEnvOrDefault("MPESA_ENVIRONMENT", "sandbox"),

		CardAPIKey:  getEnvOrDefault("CARD_API_KEY", ""),
		CardAPIBase: getEnvOrDefault("CARD_API_BASE", "https://api.stripe.com"),

		PickupMtaaniAPIKey:  getEnvOrDefault("PICKUPMTAANI_API_KEY", ""),
		PickupMtaaniAPIBase: getEnvOrDefault("PICKUPMTAANI_API_BASE", "https://api.pickupmtaani.com"),

		StkPollInterval:    getDurationEnv("STK_POLL_INTERVAL", 3, time.Second),
		StkPollMaxAttempts: getIntEnv("STK_POLL_MAX_ATTEMPTS", 30),
		StkPollMaxElapsed:  getDurationEnv("STK_POLL_MAX_ELAPSED", 90, time.Second),

		CardReconcileAttempts: getIntEnv("CARD_RECONCILE_ATTEMPTS", 5),
		CardReconcileBackoff:  getDurationEnv("CARD_RECONCILE_BACKOFF", 2, time.Second),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}

func getIntEnv(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func splitEnv(key, defaultValue string) []string {
	raw := getEnvOrDefault(key, defaultValue)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
