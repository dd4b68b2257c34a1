package utils

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Telegram     TelegramConfig
	Verification VerificationConfig
	Storage      StorageConfig
	Upload       UploadConfig
	RateLimit    RateLimitConfig
}

type AppConfig struct {
	Name       string
	Port       string
	Debug      bool
	LogPath    string
	ClientURLs []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type RedisConfig struct {
	URL string
}

type JWTConfig struct {
	Secret           string
	AccessTTLMinutes int
	RefreshTTLHours  int
}

type TelegramConfig struct {
	BotUsername string
	BotToken    string
	BotSecret   string
}

type VerificationConfig struct {
	TTLMinutes int
}

type StorageConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	PublicURL string
}

// Enabled reports whether S3 storage is configured at all.
func (c StorageConfig) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

type UploadConfig struct {
	Dir       string
	MaxFiles  int
	MaxFileMB int
}

type RateLimitConfig struct {
	GeneralRequests      int
	GeneralWindowMinutes int
	AuthRequests         int
	AuthWindowMinutes    int
	ListingRequests      int
	ListingWindowMinutes int
	UploadRequests       int
	UploadWindowMinutes  int
	BotRequests          int
	BotWindowMinutes     int
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "myvillage-api")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("CLIENT_URL", "http://localhost:3000")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("JWT_ACCESS_TTL_MINUTES", 15)
	viper.SetDefault("JWT_REFRESH_TTL_HOURS", 168)
	viper.SetDefault("TELEGRAM_BOT_USERNAME", "our_village")
	viper.SetDefault("VERIFICATION_TTL_MINUTES", 15)
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("UPLOAD_DIR", "uploads")
	viper.SetDefault("UPLOAD_MAX_FILES", 5)
	viper.SetDefault("UPLOAD_MAX_FILE_MB", 5)
	viper.SetDefault("RATE_LIMIT_GENERAL", 100)
	viper.SetDefault("RATE_LIMIT_GENERAL_WINDOW_MINUTES", 15)
	viper.SetDefault("RATE_LIMIT_AUTH", 5)
	viper.SetDefault("RATE_LIMIT_AUTH_WINDOW_MINUTES", 15)
	viper.SetDefault("RATE_LIMIT_LISTING", 10)
	viper.SetDefault("RATE_LIMIT_LISTING_WINDOW_MINUTES", 60)
	viper.SetDefault("RATE_LIMIT_UPLOAD", 20)
	viper.SetDefault("RATE_LIMIT_UPLOAD_WINDOW_MINUTES", 15)
	viper.SetDefault("RATE_LIMIT_BOT", 60)
	viper.SetDefault("RATE_LIMIT_BOT_WINDOW_MINUTES", 1)

	// .env is optional in containers where everything comes from the environment
	if _, err := os.Stat(".env"); err == nil {
		if err := viper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:       viper.GetString("APP_NAME"),
			Port:       viper.GetString("PORT"),
			Debug:      viper.GetBool("DEBUG"),
			LogPath:    viper.GetString("LOG_PATH"),
			ClientURLs: splitList(viper.GetString("CLIENT_URL")),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Redis: RedisConfig{
			URL: viper.GetString("REDIS_URL"),
		},
		JWT: JWTConfig{
			Secret:           viper.GetString("JWT_SECRET"),
			AccessTTLMinutes: viper.GetInt("JWT_ACCESS_TTL_MINUTES"),
			RefreshTTLHours:  viper.GetInt("JWT_REFRESH_TTL_HOURS"),
		},
		Telegram: TelegramConfig{
			BotUsername: viper.GetString("TELEGRAM_BOT_USERNAME"),
			BotToken:    viper.GetString("TELEGRAM_BOT_TOKEN"),
			BotSecret:   viper.GetString("TELEGRAM_BOT_API_SECRET"),
		},
		Verification: VerificationConfig{
			TTLMinutes: viper.GetInt("VERIFICATION_TTL_MINUTES"),
		},
		Storage: StorageConfig{
			Endpoint:  viper.GetString("S3_ENDPOINT"),
			Region:    viper.GetString("S3_REGION"),
			Bucket:    viper.GetString("S3_BUCKET"),
			AccessKey: viper.GetString("S3_ACCESS_KEY"),
			SecretKey: viper.GetString("S3_SECRET_KEY"),
			PublicURL: viper.GetString("S3_PUBLIC_URL"),
		},
		Upload: UploadConfig{
			Dir:       viper.GetString("UPLOAD_DIR"),
			MaxFiles:  viper.GetInt("UPLOAD_MAX_FILES"),
			MaxFileMB: viper.GetInt("UPLOAD_MAX_FILE_MB"),
		},
		RateLimit: RateLimitConfig{
			GeneralRequests:      viper.GetInt("RATE_LIMIT_GENERAL"),
			GeneralWindowMinutes: viper.GetInt("RATE_LIMIT_GENERAL_WINDOW_MINUTES"),
			AuthRequests:         viper.GetInt("RATE_LIMIT_AUTH"),
			AuthWindowMinutes:    viper.GetInt("RATE_LIMIT_AUTH_WINDOW_MINUTES"),
			ListingRequests:      viper.GetInt("RATE_LIMIT_LISTING"),
			ListingWindowMinutes: viper.GetInt("RATE_LIMIT_LISTING_WINDOW_MINUTES"),
			UploadRequests:       viper.GetInt("RATE_LIMIT_UPLOAD"),
			UploadWindowMinutes:  viper.GetInt("RATE_LIMIT_UPLOAD_WINDOW_MINUTES"),
			BotRequests:          viper.GetInt("RATE_LIMIT_BOT"),
			BotWindowMinutes:     viper.GetInt("RATE_LIMIT_BOT_WINDOW_MINUTES"),
		},
	}

	return config, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
