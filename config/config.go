package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// MongoDB configuration.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`
	RedisQueueDB   int    `mapstructure:"REDIS_QUEUE_DB"`

	// Backends: "memory" or "redis" for sessions, "mock" or "mongo" for the
	// calendar, "memory" or "mongo" for preference summaries.
	SessionStore    string        `mapstructure:"SESSION_STORE"`
	SessionTTL      time.Duration `mapstructure:"SESSION_TTL"`
	CalendarBackend string        `mapstructure:"CALENDAR_BACKEND"`
	PreferenceStore string        `mapstructure:"PREFERENCE_STORE"`

	// Language-model classifier. An empty key disables it.
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel  string `mapstructure:"GEMINI_MODEL"`

	ClassifierTimeout time.Duration `mapstructure:"CLASSIFIER_TIMEOUT"`
	CalendarTimeout   time.Duration `mapstructure:"CALENDAR_TIMEOUT"`
	CommitTimeout     time.Duration `mapstructure:"COMMIT_TIMEOUT"`

	// Timezone is the single reference clock every slot is expressed in.
	Timezone string `mapstructure:"TIMEZONE"`

	RemindersEnabled bool          `mapstructure:"REMINDERS_ENABLED"`
	ReminderLead     time.Duration `mapstructure:"REMINDER_LEAD"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "bookingagent")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_SESSION_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("SESSION_STORE", "memory")
	viper.SetDefault("SESSION_TTL", 30*time.Minute)
	viper.SetDefault("CALENDAR_BACKEND", "mock")
	viper.SetDefault("PREFERENCE_STORE", "memory")
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("GEMINI_MODEL", "models/gemini-1.5-pro")
	viper.SetDefault("CLASSIFIER_TIMEOUT", 4*time.Second)
	viper.SetDefault("CALENDAR_TIMEOUT", 5*time.Second)
	viper.SetDefault("COMMIT_TIMEOUT", 5*time.Second)
	viper.SetDefault("TIMEZONE", "UTC")
	viper.SetDefault("REMINDERS_ENABLED", false)
	viper.SetDefault("REMINDER_LEAD", 15*time.Minute)
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// Location resolves the reference timezone, falling back to UTC when the
// configured name is unknown.
func Location() *time.Location {
	if AppConfig.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(AppConfig.Timezone)
	if err != nil {
		log.Printf("Unknown TIMEZONE %q, using UTC", AppConfig.Timezone)
		return time.UTC
	}
	return loc
}
