package align

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"readaloud/pkg/models"
)

func TestNewClient(t *testing.T) {
	logger := zap.NewNop()
	client := NewClient("http://localhost:8081", logger)

	if client == nil {
		t.Fatal("клиент не должен быть nil")
	}

	if client.apiURL != "http://localhost:8081" {
		t.Errorf("ожидался apiURL 'http://localhost:8081', получен '%s'", client.apiURL)
	}

	if client.httpClient == nil {
		t.Error("httpClient не должен быть nil")
	}
}

func TestEstimate(t *testing.T) {
	// Поднимаем фейковый сервис выравнивания
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/align" {
			t.Errorf("ожидался путь /align, получен %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("ошибка разбора multipart формы: %v", err)
		}
		if got := r.FormValue("transcript"); got != "hello world" {
			t.Errorf("ожидался транскрипт 'hello world', получен '%s'", got)
		}

		file, _, err := r.FormFile("audio_file")
		if err != nil {
			t.Errorf("ожидался файл audio_file: %v", err)
		} else {
			file.Close()
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"words": []models.WordTiming{
				{Word: "hello", StartMs: 0, EndMs: 400, CharStart: 0, CharEnd: 5},
				{Word: "world", StartMs: 420, EndMs: 900, CharStart: 6, CharEnd: 11},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, zap.NewNop())
	words, err := client.Estimate(context.Background(), "hello world", make([]float32, 24000), 24000)

	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if len(words) != 2 {
		t.Fatalf("ожидалось 2 слова, получено %d", len(words))
	}
	if words[0].Word != "hello" || words[0].EndMs != 400 {
		t.Errorf("неожиданный первый тайминг: %+v", words[0])
	}
	if words[1].CharStart != 6 {
		t.Errorf("ожидался char_start 6, получен %d", words[1].CharStart)
	}
}

func TestEstimateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"alignment failed"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, zap.NewNop())
	_, err := client.Estimate(context.Background(), "hello", make([]float32, 100), 24000)

	if err == nil {
		t.Error("ожидалась ошибка при статусе 500")
	}
}

func TestEstimateUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", zap.NewNop())

	_, err := client.Estimate(context.Background(), "hello", make([]float32, 100), 24000)
	if err == nil {
		t.Error("ожидалась ошибка при недоступном сервере")
	}
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, zap.NewNop())
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("неожиданная ошибка health check: %v", err)
	}

	// Недоступный сервер возвращает ошибку
	bad := NewClient("http://127.0.0.1:1", zap.NewNop())
	if err := bad.HealthCheck(context.Background()); err == nil {
		t.Error("ожидалась ошибка при проверке несуществующего сервера")
	}
}
