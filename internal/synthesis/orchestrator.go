package synthesis

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"readaloud/internal/audio"
	"readaloud/internal/task"
	"readaloud/internal/timing"
	"readaloud/internal/tts"
	"readaloud/pkg/models"
)

// State представляет состояние конечного автомата одного запроса синтеза
type State string

const (
	StateIdle         State = "idle"
	StateSynthesizing State = "synthesizing"
	StateAligning     State = "aligning"
	StateDone         State = "done"
	StateTimedOut     State = "timed_out"
	StateFailed       State = "failed"
)

// Request содержит параметры одного запроса синтеза
type Request struct {
	Text       string
	Voice      string
	Rate       float64
	SampleRate int
}

// Result содержит результат оркестрации синтеза и выравнивания
type Result struct {
	Samples    []float32
	SampleRate int
	Timings    []models.WordTiming
	// TTSWarning заполняется при нефатальном сбое синтеза,
	// когда вместо аудио подставлена тишина
	TTSWarning  string
	InferenceMs models.InferenceMs
	FinalState  State
}

// HealthChecker проверяет доступность внешней способности
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Orchestrator координирует ограниченные по времени стадии синтеза
// и выравнивания под общим дедлайном запроса. Синтез и выравнивание
// выполняются последовательно: выравнивание зависит от аудио буфера.
type Orchestrator struct {
	ttsService tts.TTSService
	estimator  timing.Estimator
	budget     time.Duration
	logger     *zap.Logger

	// ready мемоизирует успешную проверку внешних способностей
	ready atomic.Bool
}

// NewOrchestrator создает оркестратор с инжектированными зависимостями.
// Внешние способности передаются явно, без скрытых глобальных кэшей,
// поэтому оркестратор тестируется с фейками.
func NewOrchestrator(ttsService tts.TTSService, estimator timing.Estimator, budget time.Duration, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		ttsService: ttsService,
		estimator:  estimator,
		budget:     budget,
		logger:     logger,
	}
}

// EnsureReady проверяет доступность внешних способностей.
// Успех мемоизируется: повторные запросы не платят за health check.
// Ошибка отображается вызывающим в код ModelLoad.
func (o *Orchestrator) EnsureReady(ctx context.Context) error {
	if o.ready.Load() {
		return nil
	}

	if err := o.ttsService.HealthCheck(ctx); err != nil {
		return fmt.Errorf("синтез недоступен: %w", err)
	}
	if hc, ok := o.estimator.(HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("выравнивание недоступно: %w", err)
		}
	}

	o.ready.Store(true)
	return nil
}

// Run выполняет синтез и оценку таймингов под общим бюджетом времени.
// Таймаут синтеза фатален (Timeout): он указывает на системную
// неотзывчивость. Прочие сбои синтеза деградируют в буфер тишины с
// предупреждением, чтобы конвейер воспроизведения продолжал работать.
// Сбой выравнивания фатален всегда: неконсистентные тайминги ломают
// подсветку слов у вызывающего.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	state := StateIdle
	budget := task.NewBudget(o.budget)
	result := &Result{SampleRate: req.SampleRate}

	// Стадия синтеза
	state = StateSynthesizing
	ttsStart := time.Now()

	synthRes, synthErr := task.Run(ctx, budget.Remaining(), func(ctx context.Context) (*tts.SynthesisResult, error) {
		return o.ttsService.SynthesizeText(ctx, req.Text, tts.SynthesisOptions{
			Voice:      req.Voice,
			Rate:       req.Rate,
			SampleRate: req.SampleRate,
		})
	})

	switch {
	case errors.Is(synthErr, task.ErrTimeout):
		state = StateTimedOut
		o.logger.Warn("таймаут синтеза",
			zap.Duration("elapsed", budget.Elapsed()),
			zap.Int("text_length", len(req.Text)))
		result.FinalState = state
		return nil, models.NewAPIError(models.CodeTimeout, "tts_timeout")
	case synthErr != nil:
		// Нефатальная деградация: тишина расчетной длительности
		durationSec := audio.FallbackDurationSec(len(req.Text))
		result.Samples = audio.Silence(durationSec, req.SampleRate)
		result.TTSWarning = synthErr.Error()
		o.logger.Warn("сбой синтеза, подставлена тишина",
			zap.Float64("duration_sec", durationSec),
			zap.Error(synthErr))
	default:
		result.Samples = synthRes.Samples
		if synthRes.SampleRate != req.SampleRate {
			// Ресемплинг best-effort: при ошибке остается исходное аудио
			resampled, err := audio.Resample(synthRes.Samples, synthRes.SampleRate, req.SampleRate)
			if err == nil {
				result.Samples = resampled
			} else {
				o.logger.Warn("ошибка ресемплинга, оставляем исходное аудио",
					zap.Int("src_rate", synthRes.SampleRate),
					zap.Int("dst_rate", req.SampleRate),
					zap.Error(err))
			}
		}
	}

	result.InferenceMs.TTS = time.Since(ttsStart).Milliseconds()

	// Стадия выравнивания: остаток считается от того же общего дедлайна
	state = StateAligning
	alignStart := time.Now()

	timings, alignErr := task.Run(ctx, budget.Remaining(), func(ctx context.Context) ([]models.WordTiming, error) {
		if synthErr == nil && len(synthRes.Tokens) > 0 {
			return timing.FromTokens(synthRes.Tokens), nil
		}
		return o.estimator.Estimate(ctx, req.Text, result.Samples, req.SampleRate)
	})

	switch {
	case errors.Is(alignErr, task.ErrTimeout):
		state = StateTimedOut
		o.logger.Warn("таймаут выравнивания", zap.Duration("elapsed", budget.Elapsed()))
		result.FinalState = state
		return nil, models.NewAPIError(models.CodeTimeout, "align_timeout")
	case alignErr != nil:
		state = StateFailed
		result.FinalState = state
		return nil, models.NewAPIError(models.CodeAlignError, alignErr.Error())
	}

	result.Timings = timings
	result.InferenceMs.Align = time.Since(alignStart).Milliseconds()
	result.InferenceMs.Total = budget.Elapsed().Milliseconds()

	state = StateDone
	result.FinalState = state

	o.logger.Info("синтез чанка завершен",
		zap.Int("samples", len(result.Samples)),
		zap.Int("timings", len(result.Timings)),
		zap.Int64("tts_ms", result.InferenceMs.TTS),
		zap.Int64("align_ms", result.InferenceMs.Align),
		zap.Int64("total_ms", result.InferenceMs.Total),
		zap.Bool("fallback", result.TTSWarning != ""))

	return result, nil
}
