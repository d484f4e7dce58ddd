package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"readaloud/internal/config"
	"readaloud/internal/store"
)

func main() {
	var (
		retentionHrs = flag.Int("retention", 0, "Срок хранения документов в часах (0 = из конфигурации)")
		dryRun       = flag.Bool("dry-run", false, "Показать что будет удалено без фактического удаления")
	)
	flag.Parse()

	// Инициализация логгера
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Ошибка инициализации логгера:", err)
	}
	defer logger.Sync()

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Ошибка загрузки конфигурации", zap.Error(err))
	}

	if *retentionHrs <= 0 {
		*retentionHrs = cfg.Store.RetentionHrs
	}
	retention := time.Duration(*retentionHrs) * time.Hour

	// Подключение к базе данных
	docStore, err := store.NewStore(cfg, logger)
	if err != nil {
		logger.Fatal("Ошибка подключения к базе данных", zap.Error(err))
	}
	defer docStore.Close()

	ctx := context.Background()

	total, err := docStore.Document().CountDocuments(ctx)
	if err != nil {
		logger.Fatal("Ошибка подсчета документов", zap.Error(err))
	}

	if *dryRun {
		logger.Info("DRY RUN: очистка не выполнялась",
			zap.Int("total_documents", total),
			zap.Duration("retention", retention))
		return
	}

	deleted, err := docStore.Document().DeleteOlderThan(ctx, retention)
	if err != nil {
		logger.Fatal("Ошибка очистки кэша документов", zap.Error(err))
	}

	logger.Info("Очистка кэша документов завершена успешно",
		zap.Int64("deleted", deleted),
		zap.Int("total_before", total),
		zap.Duration("retention", retention))
}
