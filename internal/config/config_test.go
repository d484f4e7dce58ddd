package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	// Устанавливаем переменные окружения для теста
	os.Setenv("TTS_PROVIDER", "kokoro")
	os.Setenv("KOKORO_API_URL", "http://localhost:8880")
	os.Setenv("CHUNK_TIMEOUT_MS", "15000")
	os.Setenv("DOC_STORE_ENABLED", "false")

	// Загружаем конфигурацию
	cfg, err := Load()

	// Проверяем, что конфигурация загружена без ошибок
	assert.NoError(t, err)
	assert.NotNil(t, cfg)

	// Проверяем значения
	assert.Equal(t, "kokoro", cfg.TTS.Provider)
	assert.Equal(t, "http://localhost:8880", cfg.TTS.KokoroURL)
	assert.Equal(t, 15000, cfg.Synthesis.BudgetMs)
	assert.False(t, cfg.Store.Enabled)

	// Проверяем значения по умолчанию
	assert.Equal(t, "heuristic", cfg.Align.Provider)
	assert.Equal(t, 2000, cfg.Segment.DefaultMaxParagraphChars)
	assert.Equal(t, "en", cfg.Segment.DefaultLanguage)
	assert.Equal(t, "af_heart", cfg.Segment.DefaultVoice)
	assert.Equal(t, 24000, cfg.Segment.DefaultSampleRate)
	assert.Equal(t, 72, cfg.Store.RetentionHrs)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "0.1.0", cfg.App.Version)
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "test_user",
		Password: "test_password",
		Name:     "test_db",
		SSLMode:  "disable",
	}

	dsn := cfg.GetDSN()
	expected := "host=localhost port=5432 user=test_user password=test_password dbname=test_db sslmode=disable"
	assert.Equal(t, expected, dsn)
}

func TestAppConfigMethods(t *testing.T) {
	cfg := &AppConfig{
		Env:      "development",
		LogLevel: "debug",
	}

	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())

	cfg.Env = "production"
	assert.False(t, cfg.IsDevelopment())
	assert.True(t, cfg.IsProduction())
}

func TestValidateConfig(t *testing.T) {
	// Неизвестный TTS провайдер отклоняется
	cfg := &Config{}
	err := validateConfig(cfg)
	assert.Error(t, err)

	// Минимальная корректная конфигурация без хранилища
	cfg = &Config{
		TTS: TTSConfig{
			Provider:  "kokoro",
			KokoroURL: "http://localhost:8880",
		},
		Align: AlignConfig{
			Provider: "heuristic",
		},
		Synthesis: SynthesisConfig{
			BudgetMs: 30000,
		},
	}
	err = validateConfig(cfg)
	assert.NoError(t, err)

	// Нулевой бюджет времени отклоняется
	cfg.Synthesis.BudgetMs = 0
	err = validateConfig(cfg)
	assert.Error(t, err)
	cfg.Synthesis.BudgetMs = 30000

	// wav2vec требует URL сервиса выравнивания
	cfg.Align.Provider = "wav2vec"
	err = validateConfig(cfg)
	assert.Error(t, err)

	cfg.Align.APIURL = "http://localhost:8081"
	err = validateConfig(cfg)
	assert.NoError(t, err)

	// Включенное хранилище требует реквизиты базы данных
	cfg.Store.Enabled = true
	err = validateConfig(cfg)
	assert.Error(t, err)

	cfg.Database = DatabaseConfig{
		Host:     "localhost",
		User:     "test_user",
		Password: "test_password",
		Name:     "test_db",
	}
	err = validateConfig(cfg)
	assert.NoError(t, err)
}
