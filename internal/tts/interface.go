package tts

import (
	"context"

	"readaloud/internal/timing"
)

// SynthesisOptions содержит параметры одного вызова синтеза
type SynthesisOptions struct {
	Voice      string
	Rate       float64
	SampleRate int
}

// SynthesisResult представляет результат синтеза речи.
// Tokens заполняется, только если провайдер отдает нативные
// пословные таймстемпы.
type SynthesisResult struct {
	Samples    []float32
	SampleRate int
	Tokens     []timing.WordToken
}

// TTSService представляет интерфейс для Text-to-Speech сервиса
type TTSService interface {
	// SynthesizeText преобразует текст в аудио сэмплы
	SynthesizeText(ctx context.Context, text string, opts SynthesisOptions) (*SynthesisResult, error)
	// HealthCheck проверяет доступность сервиса синтеза
	HealthCheck(ctx context.Context) error
}
