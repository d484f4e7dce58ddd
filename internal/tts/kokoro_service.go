package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"readaloud/internal/audio"
	"readaloud/internal/timing"
)

// KokoroService предоставляет функциональность Text-to-Speech через
// HTTP API сервиса Kokoro. Kokoro возвращает WAV вместе с нативными
// пословными таймстемпами.
type KokoroService struct {
	logger     *zap.Logger
	baseURL    string
	httpClient *http.Client
}

// NewKokoroService создает новый Kokoro TTS сервис
func NewKokoroService(logger *zap.Logger, baseURL string) *KokoroService {
	return &KokoroService{
		logger:  logger,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// kokoroRequest представляет тело запроса к Kokoro API
type kokoroRequest struct {
	Text       string  `json:"text"`
	Voice      string  `json:"voice"`
	Rate       float64 `json:"rate"`
	SampleRate int     `json:"sample_rate"`
}

// kokoroResponse представляет ответ Kokoro API
type kokoroResponse struct {
	AudioBase64 string             `json:"audio_base64"`
	SampleRate  int                `json:"sample_rate"`
	Tokens      []timing.WordToken `json:"tokens"`
}

// SynthesizeText преобразует текст в аудио через Kokoro TTS
func (s *KokoroService) SynthesizeText(ctx context.Context, text string, opts SynthesisOptions) (*SynthesisResult, error) {
	s.logger.Info("🎵 генерируем аудио через Kokoro TTS",
		zap.Int("text_length", len(text)),
		zap.String("voice", opts.Voice),
		zap.Int("sample_rate", opts.SampleRate))

	payload, err := json.Marshal(kokoroRequest{
		Text:       text,
		Voice:      opts.Voice,
		Rate:       opts.Rate,
		SampleRate: opts.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка кодирования запроса: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/synthesize", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("неожиданный статус от Kokoro TTS: %d, тело: %s", resp.StatusCode, body)
	}

	var kr kokoroResponse
	if err := json.Unmarshal(body, &kr); err != nil {
		return nil, fmt.Errorf("ошибка парсинга ответа: %w", err)
	}

	wavData, err := base64.StdEncoding.DecodeString(kr.AudioBase64)
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования аудио: %w", err)
	}

	samples, sampleRate, err := audio.DecodeWAV(wavData)
	if err != nil {
		return nil, fmt.Errorf("ошибка разбора WAV: %w", err)
	}
	if kr.SampleRate > 0 {
		sampleRate = kr.SampleRate
	}

	s.logger.Info("🎵 аудио успешно сгенерировано",
		zap.Int("samples", len(samples)),
		zap.Int("sample_rate", sampleRate),
		zap.Int("tokens", len(kr.Tokens)))

	return &SynthesisResult{
		Samples:    samples,
		SampleRate: sampleRate,
		Tokens:     kr.Tokens,
	}, nil
}

// HealthCheck проверяет доступность Kokoro TTS API
func (s *KokoroService) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка отправки запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("нездоровый статус API: %d", resp.StatusCode)
	}

	return nil
}
