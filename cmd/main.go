package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"readaloud/internal/align"
	"readaloud/internal/api"
	"readaloud/internal/config"
	"readaloud/internal/metrics"
	"readaloud/internal/migrations"
	"readaloud/internal/pdfextract"
	"readaloud/internal/scheduler"
	"readaloud/internal/store"
	"readaloud/internal/synthesis"
	"readaloud/internal/timing"
	"readaloud/internal/tts"
)

func main() {
	// Инициализация логгера
	logger, err := initLogger()
	if err != nil {
		fmt.Printf("Ошибка инициализации логгера: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("запуск сервиса Read Aloud")

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("ошибка загрузки конфигурации", zap.Error(err))
	}

	// Кэш документов опционален: без него prepare_document работает stateless
	var docStore store.Store
	if cfg.Store.Enabled {
		docStore, err = store.NewStore(cfg, logger)
		if err != nil {
			logger.Fatal("ошибка инициализации базы данных", zap.Error(err))
		}
		defer docStore.Close()

		// Применение миграций
		if err := migrations.RunMigrations(cfg, logger); err != nil {
			logger.Fatal("ошибка применения миграций", zap.Error(err))
		}
	} else {
		logger.Info("кэш документов отключен")
	}

	// Инициализация TTS сервиса
	logger.Info("конфигурация синтеза",
		zap.String("tts_provider", cfg.TTS.Provider),
		zap.String("align_provider", cfg.Align.Provider),
		zap.Int("budget_ms", cfg.Synthesis.BudgetMs))

	var ttsService tts.TTSService
	switch cfg.TTS.Provider {
	case "piper":
		ttsService = tts.NewPiperService(logger, cfg.TTS.PiperURL)
		logger.Info("Piper TTS сервис инициализирован")
	default:
		ttsService = tts.NewKokoroService(logger, cfg.TTS.KokoroURL)
		logger.Info("Kokoro TTS сервис инициализирован")
	}

	// Инициализация оценки таймингов
	var estimator timing.Estimator
	switch cfg.Align.Provider {
	case "wav2vec":
		estimator = align.NewClient(cfg.Align.APIURL, logger)
		logger.Info("клиент выравнивания wav2vec инициализирован", zap.String("url", cfg.Align.APIURL))
	default:
		estimator = timing.NewHeuristicEstimator()
		logger.Info("эвристическая оценка таймингов инициализирована")
	}

	// Инициализация оркестратора синтеза
	budget := time.Duration(cfg.Synthesis.BudgetMs) * time.Millisecond
	orchestrator := synthesis.NewOrchestrator(ttsService, estimator, budget, logger)

	// Инициализация метрик
	metricsSystem := metrics.New(logger)
	metricsHandler := metrics.NewHandler(metricsSystem, logger)

	// Инициализация обработчика операций
	extractor := pdfextract.NewExtractor(logger)

	var docs api.DocumentSaver
	if docStore != nil {
		docs = docStore.Document()
	}

	apiHandler := api.NewHandler(orchestrator, extractor, docs, metricsSystem, cfg, logger)

	// Инициализация планировщика задач
	taskScheduler := scheduler.NewScheduler(logger)
	if docStore != nil {
		retention := time.Duration(cfg.Store.RetentionHrs) * time.Hour
		taskScheduler.AddJob(scheduler.NewPurgeDocumentsJob(docStore.Document(), retention, logger))
	}

	// Создание канала для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Обработка сигналов для graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Запуск HTTP сервера
	go startServer(ctx, cfg.App.Port, apiHandler, metricsHandler, logger)

	// Запуск планировщика задач (каждый час)
	go taskScheduler.Start(ctx, time.Hour)

	logger.Info("сервис запущен и готов к работе",
		zap.String("address", fmt.Sprintf("http://localhost:%d", cfg.App.Port)),
		zap.String("version", cfg.App.Version),
	)

	// Ожидание сигнала завершения
	<-sigChan
	logger.Info("получен сигнал завершения, начинаем graceful shutdown")

	cancel()

	// Даем серверу время закончить текущие запросы
	time.Sleep(time.Second)

	logger.Info("сервис завершен")
}

// initLogger инициализирует логгер
func initLogger() (*zap.Logger, error) {
	// В продакшене можно использовать JSON формат
	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stdout", "logs/app.log"}
	config.ErrorOutputPaths = []string{"stderr", "logs/error.log"}

	// Создаем директорию для логов если её нет
	if err := os.MkdirAll("logs", 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории логов: %w", err)
	}

	return config.Build()
}

// startServer запускает HTTP сервер с endpoint'ом операций и метриками
func startServer(ctx context.Context, port int, apiHandler *api.Handler, metricsHandler *metrics.Handler, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/invoke", apiHandler.Handle)
	mux.Handle("/metrics", metricsHandler.MetricsHandler())
	mux.HandleFunc("/health", metricsHandler.HealthHandler)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	logger.Info("HTTP сервер запущен", zap.String("address", server.Addr))

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("ошибка HTTP сервера", zap.Error(err))
		}
	}()

	// Ожидание сигнала завершения
	<-ctx.Done()

	// Graceful shutdown HTTP сервера
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("ошибка при остановке HTTP сервера", zap.Error(err))
	}

	logger.Info("HTTP сервер остановлен")
}
