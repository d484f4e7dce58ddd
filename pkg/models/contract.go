package models

import "errors"

// Op представляет операцию внешнего API
type Op string

// Закрытый набор операций. Любое другое значение не проходит парсинг
// и отображается в BadInput на границе API.
const (
	OpHealth          Op = "health"
	OpPrepareDocument Op = "prepare_document"
	OpSynthesizeChunk Op = "synthesize_chunk"
)

// ParseOp проверяет, что строка является известной операцией
func ParseOp(s string) (Op, bool) {
	switch Op(s) {
	case OpHealth, OpPrepareDocument, OpSynthesizeChunk:
		return Op(s), true
	}
	return "", false
}

// ErrorCode представляет код ошибки внешнего API
type ErrorCode string

const (
	CodeBadInput   ErrorCode = "BadInput"
	CodeTimeout    ErrorCode = "Timeout"
	CodeModelLoad  ErrorCode = "ModelLoad"
	CodeAlignError ErrorCode = "AlignError"
	// CodeAlignWarning зарезервирован контрактом: деградация выравнивания,
	// не прерывающая запрос
	CodeAlignWarning ErrorCode = "AlignWarning"
	CodeInternal     ErrorCode = "Internal"
)

// APIError представляет ошибку с кодом из таксономии внешнего API.
// Внутренние слои оборачивают причины через %w, на границе ошибка
// превращается в ErrorResponse.
type APIError struct {
	Code    ErrorCode
	Message string
}

func (e *APIError) Error() string {
	return string(e.Code) + ": " + e.Message
}

// NewAPIError создает ошибку с кодом таксономии
func NewAPIError(code ErrorCode, message string) *APIError {
	return &APIError{Code: code, Message: message}
}

// AsAPIError извлекает из цепочки ошибку с кодом таксономии.
// Ошибки без кода считаются внутренними.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &APIError{Code: CodeInternal, Message: err.Error()}
}

// PrepareKind представляет тип входных данных prepare_document
type PrepareKind string

const (
	KindPDFBase64 PrepareKind = "pdf_base64"
	KindRawText   PrepareKind = "raw_text"
)

// PrepareDocumentInput представляет вложенный input запроса prepare_document
type PrepareDocumentInput struct {
	Kind              PrepareKind `json:"kind"`
	PDFBase64         string      `json:"pdf_base64,omitempty"`
	RawText           string      `json:"raw_text,omitempty"`
	Language          string      `json:"language,omitempty"`
	MaxParagraphChars int         `json:"max_paragraph_chars,omitempty"`
}

// PrepareDocumentRequest представляет запрос prepare_document
type PrepareDocumentRequest struct {
	Op    Op                   `json:"op"`
	DocID string               `json:"doc_id"`
	Input PrepareDocumentInput `json:"input"`
}

// ParagraphRef представляет подготовленный параграф документа
type ParagraphRef struct {
	ParagraphID string `json:"paragraph_id"`
	Text        string `json:"text"`
}

// PrepareDocumentResponse представляет успешный ответ prepare_document
type PrepareDocumentResponse struct {
	OK            bool           `json:"ok"`
	DocID         string         `json:"doc_id"`
	Paragraphs    []ParagraphRef `json:"paragraphs"`
	CleaningNotes []string       `json:"cleaning_notes"`
	Version       string         `json:"version"`
}

// WordTiming представляет тайминг одного слова транскрипта.
// Инвариант: 0 <= StartMs <= EndMs <= длительность аудио,
// StartMs не убывает по последовательности слов.
type WordTiming struct {
	Word      string `json:"word"`
	StartMs   int64  `json:"start_ms"`
	EndMs     int64  `json:"end_ms"`
	CharStart int    `json:"char_start"`
	CharEnd   int    `json:"char_end"`
}

// SynthesizeChunkRequest представляет запрос synthesize_chunk
type SynthesizeChunkRequest struct {
	Op          Op      `json:"op"`
	DocID       string  `json:"doc_id"`
	ParagraphID string  `json:"paragraph_id"`
	Text        string  `json:"text"`
	Voice       string  `json:"voice"`
	Rate        float64 `json:"rate,omitempty"`
	SampleRate  int     `json:"sample_rate,omitempty"`
}

// InferenceMs представляет длительности стадий синтеза в миллисекундах
type InferenceMs struct {
	TTS   int64 `json:"tts"`
	Align int64 `json:"align"`
	Total int64 `json:"total"`
}

// SynthesizeChunkResponse представляет успешный ответ synthesize_chunk
type SynthesizeChunkResponse struct {
	OK          bool         `json:"ok"`
	DocID       string       `json:"doc_id"`
	ParagraphID string       `json:"paragraph_id"`
	CleanedText string       `json:"cleaned_text"`
	AudioBase64 string       `json:"audio_base64"`
	SampleRate  int          `json:"sample_rate"`
	Timings     []WordTiming `json:"timings"`
	InferenceMs InferenceMs  `json:"inference_ms"`
	TTSWarning  string       `json:"tts_warning,omitempty"`
	Version     string       `json:"version"`
}

// HealthResponse представляет ответ операции health
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse представляет конверт ошибки для обеих операций
type ErrorResponse struct {
	OK      bool      `json:"ok"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}
