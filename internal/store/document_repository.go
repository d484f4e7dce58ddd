package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"readaloud/pkg/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ErrDocumentNotFound возвращается, когда документ отсутствует в кэше
var ErrDocumentNotFound = errors.New("документ не найден")

// documentRepository реализует DocumentRepository
type documentRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewDocumentRepository создает новый репозиторий документов
func NewDocumentRepository(db *pgxpool.Pool, logger *zap.Logger) DocumentRepository {
	return &documentRepository{
		db:     db,
		logger: logger,
	}
}

// Create сохраняет документ вместе с параграфами в одной транзакции.
// Повторная подготовка того же doc_id замещает старую версию целиком:
// параграфы удаляются каскадом по внешнему ключу.
func (r *documentRepository) Create(ctx context.Context, doc *models.Document, paragraphs []*models.Paragraph) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM documents WHERE doc_id = $1`, doc.DocID); err != nil {
		return fmt.Errorf("ошибка удаления старой версии документа: %w", err)
	}

	doc.CreatedAt = time.Now()

	query := `
		INSERT INTO documents (doc_id, language, source_kind, paragraph_count, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err = tx.QueryRow(ctx, query,
		doc.DocID, doc.Language, doc.SourceKind, doc.ParagraphCount, doc.CreatedAt,
	).Scan(&doc.ID)
	if err != nil {
		return fmt.Errorf("ошибка создания документа: %w", err)
	}

	for _, p := range paragraphs {
		p.DocumentID = doc.ID

		err := tx.QueryRow(ctx, `
			INSERT INTO paragraphs (document_id, paragraph_id, position, text)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			p.DocumentID, p.ParagraphID, p.Position, p.Text,
		).Scan(&p.ID)
		if err != nil {
			return fmt.Errorf("ошибка создания параграфа %s: %w", p.ParagraphID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка коммита транзакции: %w", err)
	}

	r.logger.Debug("документ сохранен",
		zap.Int64("id", doc.ID),
		zap.String("doc_id", doc.DocID),
		zap.Int("paragraphs", len(paragraphs)))
	return nil
}

// GetByDocID получает документ по внешнему идентификатору
func (r *documentRepository) GetByDocID(ctx context.Context, docID string) (*models.Document, error) {
	query := `
		SELECT id, doc_id, language, source_kind, paragraph_count, created_at
		FROM documents
		WHERE doc_id = $1`

	var doc models.Document
	err := r.db.QueryRow(ctx, query, docID).Scan(
		&doc.ID, &doc.DocID, &doc.Language, &doc.SourceKind, &doc.ParagraphCount, &doc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("ошибка получения документа: %w", err)
	}

	return &doc, nil
}

// GetParagraphs получает параграфы документа в порядке чтения
func (r *documentRepository) GetParagraphs(ctx context.Context, docID string) ([]models.Paragraph, error) {
	query := `
		SELECT p.id, p.document_id, p.paragraph_id, p.position, p.text
		FROM paragraphs p
		JOIN documents d ON d.id = p.document_id
		WHERE d.doc_id = $1
		ORDER BY p.position`

	rows, err := r.db.Query(ctx, query, docID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения параграфов: %w", err)
	}
	defer rows.Close()

	var paragraphs []models.Paragraph
	for rows.Next() {
		var p models.Paragraph
		err := rows.Scan(&p.ID, &p.DocumentID, &p.ParagraphID, &p.Position, &p.Text)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования параграфа: %w", err)
		}
		paragraphs = append(paragraphs, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации по параграфам: %w", err)
	}

	return paragraphs, nil
}

// DeleteOlderThan удаляет документы старше указанного возраста.
// Возвращает количество удаленных документов.
func (r *documentRepository) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age)

	tag, err := r.db.Exec(ctx, `DELETE FROM documents WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления устаревших документов: %w", err)
	}

	deleted := tag.RowsAffected()
	if deleted > 0 {
		r.logger.Info("удалены устаревшие документы",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff))
	}

	return deleted, nil
}

// CountDocuments возвращает количество документов в кэше
func (r *documentRepository) CountDocuments(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчета документов: %w", err)
	}
	return count, nil
}
