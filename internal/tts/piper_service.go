package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"readaloud/internal/audio"
)

// PiperService предоставляет функциональность Text-to-Speech через
// Piper TTS API. Piper возвращает сырой WAV без пословных таймстемпов,
// тайминги в этом случае считает стадия выравнивания.
type PiperService struct {
	logger     *zap.Logger
	baseURL    string
	httpClient *http.Client
}

// NewPiperService создает новый Piper TTS сервис
func NewPiperService(logger *zap.Logger, baseURL string) *PiperService {
	return &PiperService{
		logger:  logger,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// SynthesizeText преобразует текст в аудио через Piper TTS
func (s *PiperService) SynthesizeText(ctx context.Context, text string, opts SynthesisOptions) (*SynthesisResult, error) {
	s.logger.Info("🎵 генерируем аудио через Piper TTS",
		zap.Int("text_length", len(text)),
		zap.String("voice", opts.Voice))

	wavData, err := s.generateAudio(ctx, text, opts)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации аудио: %w", err)
	}

	samples, sampleRate, err := audio.DecodeWAV(wavData)
	if err != nil {
		return nil, fmt.Errorf("ошибка разбора WAV: %w", err)
	}

	s.logger.Info("🎵 аудио успешно сгенерировано",
		zap.Int("samples", len(samples)),
		zap.Int("sample_rate", sampleRate))

	return &SynthesisResult{
		Samples:    samples,
		SampleRate: sampleRate,
	}, nil
}

// generateAudio отправляет запрос к Piper TTS API и получает WAV
func (s *PiperService) generateAudio(ctx context.Context, text string, opts SynthesisOptions) ([]byte, error) {
	url := fmt.Sprintf("%s/synthesize-raw", s.baseURL)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	_ = writer.WriteField("text", text)
	if opts.Voice != "" {
		_ = writer.WriteField("voice", opts.Voice)
	}
	if opts.Rate > 0 {
		_ = writer.WriteField("rate", strconv.FormatFloat(opts.Rate, 'f', -1, 64))
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, "POST", url, body)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("неожиданный статус от Piper TTS: %d, тело: %s", resp.StatusCode, respBody)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения аудио данных: %w", err)
	}

	return audioData, nil
}

// HealthCheck проверяет доступность Piper TTS API
func (s *PiperService) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+"/", nil)
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
