package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config содержит все конфигурационные параметры приложения
type Config struct {
	TTS       TTSConfig
	Align     AlignConfig
	Synthesis SynthesisConfig
	Segment   SegmentConfig
	Database  DatabaseConfig
	Store     StoreConfig
	App       AppConfig
}

// TTSConfig содержит настройки провайдера синтеза речи
type TTSConfig struct {
	Provider  string // kokoro, piper
	KokoroURL string
	PiperURL  string
}

// AlignConfig содержит настройки стадии выравнивания таймингов
type AlignConfig struct {
	Provider string // heuristic, wav2vec
	APIURL   string
}

// SynthesisConfig содержит настройки оркестрации синтеза
type SynthesisConfig struct {
	// BudgetMs задает общий бюджет времени одного запроса в миллисекундах
	BudgetMs int
}

// SegmentConfig содержит настройки сегментации и значения по умолчанию
// для внешнего API
type SegmentConfig struct {
	DefaultMaxParagraphChars int
	DefaultLanguage          string
	DefaultVoice             string
	DefaultSampleRate        int
}

type DatabaseConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	MigrationPath string
}

// StoreConfig управляет кэшем подготовленных документов
type StoreConfig struct {
	Enabled      bool
	RetentionHrs int
}

type AppConfig struct {
	Env      string
	LogLevel string
	Port     int
	Version  string
}

// Load загружает конфигурацию из переменных окружения и .env
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	// TTS
	cfg.TTS.Provider = getEnvDefault("TTS_PROVIDER", "kokoro")
	cfg.TTS.KokoroURL = getEnvDefault("KOKORO_API_URL", "http://kokoro:8880")
	cfg.TTS.PiperURL = getEnvDefault("PIPER_API_URL", "http://piper:5000")

	// Выравнивание
	cfg.Align.Provider = getEnvDefault("ALIGN_PROVIDER", "heuristic")
	cfg.Align.APIURL = getEnvDefault("ALIGN_API_URL", "http://wav2vec:8081")

	// Синтез
	cfg.Synthesis.BudgetMs = getEnvIntDefault("CHUNK_TIMEOUT_MS", 30000)

	// Сегментация
	cfg.Segment.DefaultMaxParagraphChars = getEnvIntDefault("MAX_PARAGRAPH_CHARS", 2000)
	cfg.Segment.DefaultLanguage = getEnvDefault("DEFAULT_LANGUAGE", "en")
	cfg.Segment.DefaultVoice = getEnvDefault("DEFAULT_VOICE", "af_heart")
	cfg.Segment.DefaultSampleRate = getEnvIntDefault("DEFAULT_SAMPLE_RATE", 24000)

	// Database
	cfg.Database.Host = getEnvDefault("DB_HOST", "localhost")
	cfg.Database.Port = getEnvIntDefault("DB_PORT", 5432)
	cfg.Database.User = os.Getenv("DB_USER")
	cfg.Database.Password = os.Getenv("DB_PASSWORD")
	cfg.Database.Name = os.Getenv("DB_NAME")
	cfg.Database.SSLMode = getEnvDefault("DB_SSL_MODE", "disable")
	cfg.Database.MigrationPath = getEnvDefault("MIGRATION_PATH", "scripts/migrations")

	// Кэш документов
	cfg.Store.Enabled = getEnvBoolDefault("DOC_STORE_ENABLED", false)
	cfg.Store.RetentionHrs = getEnvIntDefault("DOC_STORE_RETENTION_HOURS", 72)

	// App
	cfg.App.Env = getEnvDefault("APP_ENV", "development")
	cfg.App.LogLevel = getEnvDefault("LOG_LEVEL", "info")
	cfg.App.Port = getEnvIntDefault("APP_PORT", 8080)
	cfg.App.Version = getEnvDefault("READALOUD_VERSION", "0.1.0")

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("ошибка валидации конфигурации: %w", err)
	}

	return cfg, nil
}

func getEnvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// validateConfig проверяет корректность конфигурации
func validateConfig(config *Config) error {
	if config.TTS.Provider != "kokoro" && config.TTS.Provider != "piper" {
		return fmt.Errorf("поддерживаются только TTS_PROVIDER: kokoro, piper")
	}
	if config.TTS.Provider == "kokoro" && config.TTS.KokoroURL == "" {
		return fmt.Errorf("KOKORO_API_URL не установлен")
	}
	if config.TTS.Provider == "piper" && config.TTS.PiperURL == "" {
		return fmt.Errorf("PIPER_API_URL не установлен")
	}
	if config.Align.Provider != "heuristic" && config.Align.Provider != "wav2vec" {
		return fmt.Errorf("поддерживаются только ALIGN_PROVIDER: heuristic, wav2vec")
	}
	if config.Align.Provider == "wav2vec" && config.Align.APIURL == "" {
		return fmt.Errorf("ALIGN_API_URL не установлен")
	}
	if config.Synthesis.BudgetMs <= 0 {
		return fmt.Errorf("CHUNK_TIMEOUT_MS должен быть положительным")
	}
	if config.Store.Enabled {
		if config.Database.Host == "" {
			return fmt.Errorf("DB_HOST не установлен")
		}
		if config.Database.User == "" {
			return fmt.Errorf("DB_USER не установлен")
		}
		if config.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD не установлен")
		}
		if config.Database.Name == "" {
			return fmt.Errorf("DB_NAME не установлен")
		}
	}

	return nil
}

// GetDSN возвращает строку подключения к базе данных
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// IsDevelopment проверяет, запущено ли приложение в режиме разработки
func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction проверяет, запущено ли приложение в продакшн режиме
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// GetLogLevel возвращает уровень логирования в формате zap
func (c *AppConfig) GetLogLevel() zap.AtomicLevel {
	switch c.LogLevel {
	case "debug":
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
}
