package store

import (
	"context"
	"fmt"
	"time"

	"readaloud/internal/config"
	"readaloud/pkg/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Store представляет интерфейс для работы с базой данных
type Store interface {
	Document() DocumentRepository
	DB() *pgxpool.Pool
	Close() error
}

// store реализует интерфейс Store
type store struct {
	db       *pgxpool.Pool
	logger   *zap.Logger
	document DocumentRepository
}

// DocumentRepository интерфейс для работы с кэшем подготовленных документов
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document, paragraphs []*models.Paragraph) error
	GetByDocID(ctx context.Context, docID string) (*models.Document, error)
	GetParagraphs(ctx context.Context, docID string) ([]models.Paragraph, error)
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)
	CountDocuments(ctx context.Context) (int, error)
}

// NewStore создает новое подключение к базе данных
func NewStore(cfg *config.Config, logger *zap.Logger) (Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Создание пула подключений
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}

	// Настройка пула
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	// Создание пула
	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}

	// Проверка подключения
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ошибка проверки подключения к базе данных: %w", err)
	}

	logger.Info("успешное подключение к базе данных PostgreSQL")

	s := &store{
		db:     db,
		logger: logger,
	}

	// Инициализация репозиториев
	s.document = NewDocumentRepository(db, logger)

	return s, nil
}

// Document возвращает репозиторий документов
func (s *store) Document() DocumentRepository {
	return s.document
}

// DB возвращает подключение к базе данных
func (s *store) DB() *pgxpool.Pool {
	return s.db
}

// Close закрывает подключение к базе данных
func (s *store) Close() error {
	s.logger.Info("закрытие подключения к базе данных")
	s.db.Close()
	return nil
}
