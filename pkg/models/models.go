package models

import (
	"time"
)

// Document представляет подготовленный документ в кэше
type Document struct {
	ID             int64     `json:"id" db:"id"`
	DocID          string    `json:"doc_id" db:"doc_id"`
	Language       string    `json:"language" db:"language"`
	SourceKind     string    `json:"source_kind" db:"source_kind"` // pdf_base64, raw_text
	ParagraphCount int       `json:"paragraph_count" db:"paragraph_count"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Paragraph представляет сохраненный параграф подготовленного документа
type Paragraph struct {
	ID          int64  `json:"id" db:"id"`
	DocumentID  int64  `json:"document_id" db:"document_id"`
	ParagraphID string `json:"paragraph_id" db:"paragraph_id"` // pNNNN
	Position    int    `json:"position" db:"position"`         // порядок чтения, с 1
	Text        string `json:"text" db:"text"`
}
