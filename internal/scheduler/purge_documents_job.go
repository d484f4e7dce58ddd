package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"readaloud/internal/store"
)

// PurgeDocumentsJob удаляет из кэша документы старше срока хранения
type PurgeDocumentsJob struct {
	documents store.DocumentRepository
	retention time.Duration
	logger    *zap.Logger
}

// NewPurgeDocumentsJob создает джобу очистки кэша документов
func NewPurgeDocumentsJob(documents store.DocumentRepository, retention time.Duration, logger *zap.Logger) *PurgeDocumentsJob {
	return &PurgeDocumentsJob{
		documents: documents,
		retention: retention,
		logger:    logger,
	}
}

// Name возвращает имя джобы для логов планировщика
func (j *PurgeDocumentsJob) Name() string {
	return "purge_documents"
}

// Run удаляет устаревшие документы вместе с параграфами
func (j *PurgeDocumentsJob) Run(ctx context.Context) error {
	deleted, err := j.documents.DeleteOlderThan(ctx, j.retention)
	if err != nil {
		return fmt.Errorf("ошибка очистки кэша документов: %w", err)
	}

	remaining, err := j.documents.CountDocuments(ctx)
	if err != nil {
		j.logger.Warn("не удалось подсчитать оставшиеся документы", zap.Error(err))
		remaining = -1
	}

	j.logger.Info("очистка кэша документов завершена",
		zap.Int64("deleted", deleted),
		zap.Int("remaining", remaining),
		zap.Duration("retention", j.retention))

	return nil
}
