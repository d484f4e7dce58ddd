package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Metrics содержит все метрики приложения
type Metrics struct {
	logger *zap.Logger

	// Счетчики
	requests       *prometheus.CounterVec
	ttsFallbacks   prometheus.Counter
	pdfExtractions *prometheus.CounterVec

	// Гистограммы
	stageDuration  *prometheus.HistogramVec
	paragraphCount prometheus.Histogram

	// Gauge метрики
	inflightRequests prometheus.Gauge
}

// New создает новый экземпляр метрик
func New(logger *zap.Logger) *Metrics {
	m := &Metrics{
		logger: logger,

		// Счетчик запросов по операциям
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "readaloud_requests_total",
				Help: "Общее количество запросов внешнего API",
			},
			[]string{"op", "status"}, // op: health, prepare_document, synthesize_chunk; status: ok, error
		),

		// Счетчик деградаций синтеза в тишину
		ttsFallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "readaloud_tts_fallbacks_total",
				Help: "Количество подстановок тишины при сбое синтеза",
			},
		),

		// Счетчик извлечений текста из PDF
		pdfExtractions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "readaloud_pdf_extractions_total",
				Help: "Количество извлечений текста из PDF",
			},
			[]string{"status"}, // success, failed
		),

		// Гистограмма длительности стадий синтеза
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "readaloud_stage_duration_seconds",
				Help:    "Длительность стадий обработки в секундах",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"}, // tts, align, total
		),

		// Гистограмма размера подготовленных документов
		paragraphCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "readaloud_document_paragraphs",
				Help:    "Количество параграфов в подготовленном документе",
				Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 200, 500},
			},
		),

		// Gauge запросов в обработке
		inflightRequests: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "readaloud_inflight_requests",
				Help: "Количество запросов в обработке",
			},
		),
	}

	// Регистрируем все метрики
	prometheus.MustRegister(
		m.requests,
		m.ttsFallbacks,
		m.pdfExtractions,
		m.stageDuration,
		m.paragraphCount,
		m.inflightRequests,
	)

	return m
}

// RecordRequest записывает завершенный запрос внешнего API
func (m *Metrics) RecordRequest(op string, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	m.requests.WithLabelValues(op, status).Inc()
	m.logger.Debug("метрика запроса записана",
		zap.String("op", op),
		zap.String("status", status))
}

// RecordStage записывает длительность стадии обработки
func (m *Metrics) RecordStage(stage string, seconds float64) {
	m.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordTTSFallback записывает деградацию синтеза в тишину
func (m *Metrics) RecordTTSFallback() {
	m.ttsFallbacks.Inc()
}

// RecordPDFExtraction записывает попытку извлечения текста из PDF
func (m *Metrics) RecordPDFExtraction(success bool) {
	status := "success"
	if !success {
		status = "failed"
	}
	m.pdfExtractions.WithLabelValues(status).Inc()
}

// RecordDocumentParagraphs записывает размер подготовленного документа
func (m *Metrics) RecordDocumentParagraphs(count int) {
	m.paragraphCount.Observe(float64(count))
}

// RequestStarted отмечает начало обработки запроса
func (m *Metrics) RequestStarted() {
	m.inflightRequests.Inc()
}

// RequestFinished отмечает завершение обработки запроса
func (m *Metrics) RequestFinished() {
	m.inflightRequests.Dec()
}
