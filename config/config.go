package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

type Config struct {
	ServiceName string
	LoggerLevel string

	AppPort        int
	WebhookBaseURL string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisOTPStore bool

	SupportBotToken  string
	SupportBotSecret string
	OTPBotToken      string
	OTPBotSecret     string
	AlertsBotToken   string
	AlertsBotSecret  string
	CommBotToken     string
	CommBotSecret    string

	// Chat receiving withdrawal/password-reset codes. Codes are relayed
	// through the operations team rather than sent to the requesting
	// user's own chat.
	OpsChatID int64

	AIEnabled      bool
	AIProvider     string
	AIModel        string
	AIMaxTokens    int
	AITemperature  float64
	AIFallbackFAQ  bool
	OpenAIKey      string
	OpenRouterKey  string
	OpenRouterBase string

	BotOffline bool
}

func Load() Config {
	_ = godotenv.Load(".env")

	cfg := Config{}

	cfg.ServiceName = cast.ToString(getOrReturnDefault("SERVICE_NAME", "investbot"))
	cfg.LoggerLevel = cast.ToString(getOrReturnDefault("LOGGER_LEVEL", "debug"))
	cfg.AppPort = cast.ToInt(getOrReturnDefault("APP_PORT", 8080))
	cfg.WebhookBaseURL = cast.ToString(getOrReturnDefault("WEBHOOK_BASE_URL", ""))

	cfg.PostgresHost = cast.ToString(getOrReturnDefault("POSTGRES_HOST", "localhost"))
	cfg.PostgresPort = cast.ToString(getOrReturnDefault("POSTGRES_PORT", "5432"))
	cfg.PostgresUser = cast.ToString(getOrReturnDefault("POSTGRES_USER", "postgres"))
	cfg.PostgresPassword = cast.ToString(getOrReturnDefault("POSTGRES_PASSWORD", "1234"))
	cfg.PostgresDB = cast.ToString(getOrReturnDefault("POSTGRES_DB", "investbot"))

	cfg.RedisHost = cast.ToString(getOrReturnDefault("REDIS_HOST", "localhost"))
	cfg.RedisPort = cast.ToString(getOrReturnDefault("REDIS_PORT", "6379"))
	cfg.RedisPassword = cast.ToString(getOrReturnDefault("REDIS_PASSWORD", ""))
	cfg.RedisOTPStore = cast.ToBool(getOrReturnDefault("REDIS_OTP_STORE", false))

	cfg.SupportBotToken = cast.ToString(getOrReturnDefault("SUPPORT_BOT_TOKEN", ""))
	cfg.SupportBotSecret = cast.ToString(getOrReturnDefault("SUPPORT_BOT_SECRET", ""))
	cfg.OTPBotToken = cast.ToString(getOrReturnDefault("OTP_BOT_TOKEN", ""))
	cfg.OTPBotSecret = cast.ToString(getOrReturnDefault("OTP_BOT_SECRET", ""))
	cfg.AlertsBotToken = cast.ToString(getOrReturnDefault("ALERTS_BOT_TOKEN", ""))
	cfg.AlertsBotSecret = cast.ToString(getOrReturnDefault("ALERTS_BOT_SECRET", ""))
	cfg.CommBotToken = cast.ToString(getOrReturnDefault("COMM_BOT_TOKEN", ""))
	cfg.CommBotSecret = cast.ToString(getOrReturnDefault("COMM_BOT_SECRET", ""))

	cfg.OpsChatID = cast.ToInt64(getOrReturnDefault("OPS_CHAT_ID", 0))

	cfg.AIEnabled = cast.ToBool(getOrReturnDefault("AI_ENABLED", true))
	cfg.AIProvider = cast.ToString(getOrReturnDefault("AI_PROVIDER", "openai"))
	cfg.AIModel = cast.ToString(getOrReturnDefault("AI_MODEL", "gpt-4o-mini"))
	cfg.AIMaxTokens = cast.ToInt(getOrReturnDefault("AI_MAX_TOKENS", 500))
	cfg.AITemperature = cast.ToFloat64(getOrReturnDefault("AI_TEMPERATURE", 0.7))
	cfg.AIFallbackFAQ = cast.ToBool(getOrReturnDefault("AI_FALLBACK_FAQ", true))
	cfg.OpenAIKey = cast.ToString(getOrReturnDefault("OPENAI_API_KEY", ""))
	cfg.OpenRouterKey = cast.ToString(getOrReturnDefault("OPENROUTER_API_KEY", ""))
	cfg.OpenRouterBase = cast.ToString(getOrReturnDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"))

	cfg.BotOffline = cast.ToBool(getOrReturnDefault("BOT_OFFLINE", false))

	return cfg
}

func getOrReturnDefault(key string, defaultValue interface{}) interface{} {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}
