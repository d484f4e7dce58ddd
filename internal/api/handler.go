package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"readaloud/internal/audio"
	"readaloud/internal/config"
	"readaloud/internal/metrics"
	"readaloud/internal/normalize"
	"readaloud/internal/segment"
	"readaloud/internal/synthesis"
	"readaloud/pkg/models"
)

// SynthesisRunner выполняет ограниченный по времени синтез чанка
type SynthesisRunner interface {
	EnsureReady(ctx context.Context) error
	Run(ctx context.Context, req synthesis.Request) (*synthesis.Result, error)
}

// TextExtractor извлекает текст из бинарного документа
type TextExtractor interface {
	Text(data []byte) (string, error)
}

// DocumentSaver сохраняет подготовленный документ в хранилище
type DocumentSaver interface {
	Create(ctx context.Context, doc *models.Document, paragraphs []*models.Paragraph) error
}

// Handler обрабатывает единственный endpoint вызова операций.
// Все ответы, включая ошибки, возвращаются в конверте с HTTP 200:
// вызывающий различает исходы по полям ok/code, а не по статусу.
type Handler struct {
	runner    SynthesisRunner
	extractor TextExtractor
	docs      DocumentSaver
	metrics   *metrics.Metrics
	cfg       *config.Config
	logger    *zap.Logger
}

// NewHandler создает обработчик операций.
// docs может быть nil: сохранение документов тогда отключено.
func NewHandler(
	runner SynthesisRunner,
	extractor TextExtractor,
	docs DocumentSaver,
	m *metrics.Metrics,
	cfg *config.Config,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		runner:    runner,
		extractor: extractor,
		docs:      docs,
		metrics:   m,
		cfg:       cfg,
		logger:    logger,
	}
}

// Handle обрабатывает входящий запрос операции
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	// Паника любого слоя отображается в Internal, процесс продолжает жить
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("паника при обработке запроса", zap.Any("panic", rec))
			h.writeEnvelope(w, models.ErrorResponse{
				OK:      false,
				Code:    models.CodeInternal,
				Message: fmt.Sprintf("panic: %v", rec),
			})
		}
	}()

	if r.Method != http.MethodPost {
		h.logger.Warn("неверный метод запроса", zap.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.metrics.RequestStarted()
	defer h.metrics.RequestFinished()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("ошибка чтения тела запроса", zap.Error(err))
		h.writeError(w, "", models.NewAPIError(models.CodeInternal, "failed to read request body"))
		return
	}
	defer r.Body.Close()

	var envelope struct {
		Op string `json:"op"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		h.writeError(w, "", models.NewAPIError(models.CodeBadInput, "invalid json: "+err.Error()))
		return
	}

	op, ok := models.ParseOp(envelope.Op)
	if !ok {
		h.writeError(w, envelope.Op, models.NewAPIError(models.CodeBadInput, fmt.Sprintf("unknown op: %s", envelope.Op)))
		return
	}

	var resp any
	switch op {
	case models.OpHealth:
		resp, err = h.handleHealth()
	case models.OpPrepareDocument:
		resp, err = h.handlePrepareDocument(r.Context(), body)
	case models.OpSynthesizeChunk:
		resp, err = h.handleSynthesizeChunk(r.Context(), body)
	}

	if err != nil {
		h.metrics.RecordRequest(string(op), false)
		h.writeError(w, string(op), err)
		return
	}

	h.metrics.RecordRequest(string(op), true)
	h.writeEnvelope(w, resp)
}

// handleHealth отвечает на проверку живости без обращения к внешним способностям
func (h *Handler) handleHealth() (any, error) {
	h.logger.Info("health check",
		zap.String("op", string(models.OpHealth)),
		zap.String("version", h.cfg.App.Version))

	return models.HealthResponse{
		OK:      true,
		Status:  "ok",
		Version: h.cfg.App.Version,
	}, nil
}

// handlePrepareDocument извлекает текст, очищает его и разбивает на параграфы
func (h *Handler) handlePrepareDocument(ctx context.Context, body []byte) (any, error) {
	var req models.PrepareDocumentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, models.NewAPIError(models.CodeBadInput, "invalid prepare_document request: "+err.Error())
	}

	if req.DocID == "" {
		return nil, models.NewAPIError(models.CodeBadInput, "doc_id is required")
	}
	if req.Input.Kind != models.KindPDFBase64 && req.Input.Kind != models.KindRawText {
		return nil, models.NewAPIError(models.CodeBadInput, "kind must be pdf_base64|raw_text")
	}

	language := req.Input.Language
	if language == "" {
		language = h.cfg.Segment.DefaultLanguage
	}

	maxChars := req.Input.MaxParagraphChars
	if maxChars == 0 {
		maxChars = h.cfg.Segment.DefaultMaxParagraphChars
	}
	if maxChars < 100 || maxChars > 10000 {
		return nil, models.NewAPIError(models.CodeBadInput, "max_paragraph_chars must be within 100..10000")
	}

	cleaningNotes := []string{}
	var rawText string

	if req.Input.Kind == models.KindPDFBase64 {
		if req.Input.PDFBase64 == "" {
			return nil, models.NewAPIError(models.CodeBadInput, "pdf_base64 missing")
		}

		pdfBytes, err := base64.StdEncoding.DecodeString(req.Input.PDFBase64)
		if err != nil {
			h.metrics.RecordPDFExtraction(false)
			return nil, models.NewAPIError(models.CodeBadInput, fmt.Sprintf("pdf_decode_or_extract_failed: %v", err))
		}

		rawText, err = h.extractor.Text(pdfBytes)
		if err != nil {
			h.metrics.RecordPDFExtraction(false)
			return nil, models.NewAPIError(models.CodeBadInput, fmt.Sprintf("pdf_decode_or_extract_failed: %v", err))
		}

		h.metrics.RecordPDFExtraction(true)
		cleaningNotes = append(cleaningNotes, "pdf_text_extracted")
	} else {
		rawText = req.Input.RawText
	}

	chunks := segment.ForSpeech(rawText, language, maxChars)

	paragraphs := make([]models.ParagraphRef, 0, len(chunks))
	for i, chunk := range chunks {
		paragraphs = append(paragraphs, models.ParagraphRef{
			ParagraphID: fmt.Sprintf("p%04d", i+1),
			Text:        chunk,
		})
	}

	h.saveDocument(ctx, req.DocID, language, string(req.Input.Kind), paragraphs)
	h.metrics.RecordDocumentParagraphs(len(paragraphs))

	h.logger.Info("документ подготовлен",
		zap.String("op", string(models.OpPrepareDocument)),
		zap.String("doc_id", req.DocID),
		zap.String("kind", string(req.Input.Kind)),
		zap.Int("paragraphs", len(paragraphs)),
		zap.Strings("notes", cleaningNotes),
		zap.String("version", h.cfg.App.Version))

	return models.PrepareDocumentResponse{
		OK:            true,
		DocID:         req.DocID,
		Paragraphs:    paragraphs,
		CleaningNotes: cleaningNotes,
		Version:       h.cfg.App.Version,
	}, nil
}

// saveDocument сохраняет подготовленный документ best-effort:
// ошибка хранилища логируется, но не влияет на ответ вызывающему
func (h *Handler) saveDocument(ctx context.Context, docID, language, sourceKind string, paragraphs []models.ParagraphRef) {
	if h.docs == nil {
		return
	}

	doc := &models.Document{
		DocID:          docID,
		Language:       language,
		SourceKind:     sourceKind,
		ParagraphCount: len(paragraphs),
	}
	stored := make([]*models.Paragraph, 0, len(paragraphs))
	for i, p := range paragraphs {
		stored = append(stored, &models.Paragraph{
			ParagraphID: p.ParagraphID,
			Position:    i + 1,
			Text:        p.Text,
		})
	}

	if err := h.docs.Create(ctx, doc, stored); err != nil {
		h.logger.Warn("ошибка сохранения документа в хранилище",
			zap.Error(err),
			zap.String("doc_id", docID))
	}
}

// handleSynthesizeChunk очищает текст чанка и запускает оркестратор синтеза
func (h *Handler) handleSynthesizeChunk(ctx context.Context, body []byte) (any, error) {
	var req models.SynthesizeChunkRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, models.NewAPIError(models.CodeBadInput, "invalid synthesize_chunk request: "+err.Error())
	}

	if req.DocID == "" || req.ParagraphID == "" || req.Text == "" {
		return nil, models.NewAPIError(models.CodeBadInput, "doc_id, paragraph_id, text are required")
	}

	if req.Voice == "" {
		req.Voice = h.cfg.Segment.DefaultVoice
	}
	if req.Rate == 0 {
		req.Rate = 1.0
	}
	if req.SampleRate == 0 {
		req.SampleRate = h.cfg.Segment.DefaultSampleRate
	}

	cleanedText := normalize.Text(req.Text, h.cfg.Segment.DefaultLanguage)

	if err := h.runner.EnsureReady(ctx); err != nil {
		return nil, models.NewAPIError(models.CodeModelLoad, err.Error())
	}

	result, err := h.runner.Run(ctx, synthesis.Request{
		Text:       cleanedText,
		Voice:      req.Voice,
		Rate:       req.Rate,
		SampleRate: req.SampleRate,
	})
	if err != nil {
		return nil, err
	}

	h.metrics.RecordStage("tts", float64(result.InferenceMs.TTS)/1000)
	h.metrics.RecordStage("align", float64(result.InferenceMs.Align)/1000)
	if result.TTSWarning != "" {
		h.metrics.RecordTTSFallback()
	}

	wavBytes, err := audio.EncodeWAV(result.Samples, req.SampleRate)
	if err != nil {
		return nil, models.NewAPIError(models.CodeInternal, "wav encode failed: "+err.Error())
	}

	timings := result.Timings
	if timings == nil {
		timings = []models.WordTiming{}
	}

	h.logger.Info("чанк синтезирован",
		zap.String("op", string(models.OpSynthesizeChunk)),
		zap.String("doc_id", req.DocID),
		zap.String("paragraph_id", req.ParagraphID),
		zap.Int64("tts_ms", result.InferenceMs.TTS),
		zap.Int64("align_ms", result.InferenceMs.Align),
		zap.Int64("total_ms", result.InferenceMs.Total),
		zap.Bool("fallback", result.TTSWarning != ""),
		zap.String("version", h.cfg.App.Version))

	return models.SynthesizeChunkResponse{
		OK:          true,
		DocID:       req.DocID,
		ParagraphID: req.ParagraphID,
		CleanedText: cleanedText,
		AudioBase64: base64.StdEncoding.EncodeToString(wavBytes),
		SampleRate:  req.SampleRate,
		Timings:     timings,
		InferenceMs: result.InferenceMs,
		TTSWarning:  result.TTSWarning,
		Version:     h.cfg.App.Version,
	}, nil
}

// writeError превращает ошибку в конверт ошибки.
// Ошибки без кода таксономии отображаются в Internal.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	apiErr := models.AsAPIError(err)

	h.logger.Warn("операция завершилась ошибкой",
		zap.String("op", op),
		zap.String("code", string(apiErr.Code)),
		zap.String("message", apiErr.Message))

	h.writeEnvelope(w, models.ErrorResponse{
		OK:      false,
		Code:    apiErr.Code,
		Message: apiErr.Message,
	})
}

// writeEnvelope пишет конверт ответа с HTTP 200
func (h *Handler) writeEnvelope(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("ошибка записи ответа", zap.Error(err))
	}
}
