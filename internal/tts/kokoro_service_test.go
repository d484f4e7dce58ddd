package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"readaloud/internal/audio"
)

func TestKokoroSynthesizeText(t *testing.T) {
	wavData, err := audio.EncodeWAV(make([]float32, 2400), 24000)
	if err != nil {
		t.Fatalf("ошибка подготовки WAV: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/synthesize" {
			t.Errorf("ожидался путь /synthesize, получен %s", r.URL.Path)
		}

		var req kokoroRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("ошибка разбора запроса: %v", err)
		}
		if req.Text != "hello world" {
			t.Errorf("ожидался текст 'hello world', получен '%s'", req.Text)
		}
		if req.Voice != "af_heart" {
			t.Errorf("ожидался голос af_heart, получен '%s'", req.Voice)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"audio_base64": base64.StdEncoding.EncodeToString(wavData),
			"sample_rate":  24000,
			"tokens": []map[string]any{
				{"text": "hello", "start_ms": 0, "end_ms": 400},
				{"text": "world", "start_ms": 420, "end_ms": 900},
			},
		})
	}))
	defer server.Close()

	svc := NewKokoroService(zap.NewNop(), server.URL)
	result, err := svc.SynthesizeText(context.Background(), "hello world", SynthesisOptions{
		Voice:      "af_heart",
		Rate:       1.0,
		SampleRate: 24000,
	})

	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if len(result.Samples) != 2400 {
		t.Errorf("ожидалось 2400 сэмплов, получено %d", len(result.Samples))
	}
	if result.SampleRate != 24000 {
		t.Errorf("ожидалась частота 24000, получена %d", result.SampleRate)
	}
	if len(result.Tokens) != 2 {
		t.Fatalf("ожидалось 2 токена, получено %d", len(result.Tokens))
	}
	if result.Tokens[1].Text != "world" || result.Tokens[1].StartMs != 420 {
		t.Errorf("неожиданный второй токен: %+v", result.Tokens[1])
	}
}

func TestKokoroSynthesizeTextBadAudio(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"audio_base64": base64.StdEncoding.EncodeToString([]byte("not wav")),
			"sample_rate":  24000,
		})
	}))
	defer server.Close()

	svc := NewKokoroService(zap.NewNop(), server.URL)
	_, err := svc.SynthesizeText(context.Background(), "hello", SynthesisOptions{SampleRate: 24000})

	if err == nil {
		t.Error("ожидалась ошибка разбора WAV")
	}
}

func TestKokoroSynthesizeTextServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	svc := NewKokoroService(zap.NewNop(), server.URL)
	_, err := svc.SynthesizeText(context.Background(), "hello", SynthesisOptions{SampleRate: 24000})

	if err == nil {
		t.Error("ожидалась ошибка при статусе 503")
	}
}

func TestKokoroHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("ожидался путь /health, получен %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewKokoroService(zap.NewNop(), server.URL)
	if err := svc.HealthCheck(context.Background()); err != nil {
		t.Errorf("неожиданная ошибка health check: %v", err)
	}

	bad := NewKokoroService(zap.NewNop(), "http://127.0.0.1:1")
	if err := bad.HealthCheck(context.Background()); err == nil {
		t.Error("ожидалась ошибка при проверке несуществующего сервера")
	}
}
