package pdfextract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// Extractor извлекает текст страниц из PDF документов
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor создает новый экстрактор PDF
func NewExtractor(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Text извлекает текст всех страниц PDF и склеивает непустые страницы
// пустой строкой. Ошибка извлечения отдельной страницы не прерывает
// обработку документа: такая страница дает пустой текст.
func (e *Extractor) Text(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("ошибка разбора PDF: %w", err)
	}

	var texts []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Warn("ошибка извлечения текста страницы",
				zap.Int("page", i),
				zap.Error(err))
			continue
		}
		if text != "" {
			texts = append(texts, text)
		}
	}

	return strings.Join(texts, "\n\n"), nil
}
