package align

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"readaloud/internal/audio"
	"readaloud/pkg/models"
)

// Client представляет клиент сервиса акустического CTC-выравнивания.
// Сервис принимает WAV и транскрипт и возвращает пословные тайминги.
// Реализует timing.Estimator.
type Client struct {
	apiURL     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient создает новый клиент выравнивания
func NewClient(apiURL string, logger *zap.Logger) *Client {
	return &Client{
		apiURL: apiURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// alignResponse представляет ответ сервиса выравнивания
type alignResponse struct {
	Words []models.WordTiming `json:"words"`
}

// Estimate отправляет аудио и транскрипт на выравнивание и возвращает
// пословные тайминги
func (c *Client) Estimate(ctx context.Context, transcript string, samples []float32, sampleRate int) ([]models.WordTiming, error) {
	wavData, err := audio.EncodeWAV(samples, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("ошибка кодирования WAV: %w", err)
	}

	var requestBody bytes.Buffer
	writer := multipart.NewWriter(&requestBody)

	part, err := writer.CreateFormFile("audio_file", "chunk.wav")
	if err != nil {
		return nil, fmt.Errorf("ошибка создания формы: %w", err)
	}
	if _, err := part.Write(wavData); err != nil {
		return nil, fmt.Errorf("ошибка записи данных: %w", err)
	}
	_ = writer.WriteField("transcript", transcript)
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL+"/align", &requestBody)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.Info("отправка запроса на выравнивание",
		zap.Int("audio_size", len(wavData)),
		zap.Int("transcript_length", len(transcript)),
		zap.String("api_url", c.apiURL))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка отправки запроса: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResponse map[string]interface{}
		if json.Unmarshal(body, &errorResponse) == nil {
			errorJSON, _ := json.Marshal(errorResponse)
			return nil, fmt.Errorf("ошибка API (статус %d): %s", resp.StatusCode, string(errorJSON))
		}
		return nil, fmt.Errorf("ошибка API (статус %d): %s", resp.StatusCode, string(body))
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") && !strings.Contains(contentType, "text/plain") {
		return nil, fmt.Errorf("неожиданный Content-Type: %s, тело: %s", contentType, string(body))
	}

	var response alignResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("ошибка парсинга ответа: %w, тело: %s", err, string(body))
	}

	c.logger.Info("выравнивание завершено",
		zap.Int("words", len(response.Words)))

	return response.Words, nil
}

// HealthCheck проверяет доступность сервиса выравнивания
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.apiURL+"/", nil)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка отправки запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("нездоровый статус API: %d", resp.StatusCode)
	}

	return nil
}
