package tts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"readaloud/internal/audio"
)

func TestPiperSynthesizeText(t *testing.T) {
	wavData, err := audio.EncodeWAV(make([]float32, 1600), 16000)
	if err != nil {
		t.Fatalf("ошибка подготовки WAV: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/synthesize-raw" {
			t.Errorf("ожидался путь /synthesize-raw, получен %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ошибка разбора multipart формы: %v", err)
		}
		if got := r.FormValue("text"); got != "hello" {
			t.Errorf("ожидался текст 'hello', получен '%s'", got)
		}
		if got := r.FormValue("voice"); got != "ru_irina" {
			t.Errorf("ожидался голос 'ru_irina', получен '%s'", got)
		}

		w.Write(wavData)
	}))
	defer server.Close()

	svc := NewPiperService(zap.NewNop(), server.URL)
	result, err := svc.SynthesizeText(context.Background(), "hello", SynthesisOptions{
		Voice: "ru_irina",
		Rate:  1.0,
	})

	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if len(result.Samples) != 1600 {
		t.Errorf("ожидалось 1600 сэмплов, получено %d", len(result.Samples))
	}
	if result.SampleRate != 16000 {
		t.Errorf("ожидалась частота 16000, получена %d", result.SampleRate)
	}

	// Piper не отдает нативные тайминги
	if len(result.Tokens) != 0 {
		t.Errorf("ожидалось отсутствие токенов, получено %d", len(result.Tokens))
	}
}

func TestPiperSynthesizeTextServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "voice not found", http.StatusBadRequest)
	}))
	defer server.Close()

	svc := NewPiperService(zap.NewNop(), server.URL)
	_, err := svc.SynthesizeText(context.Background(), "hello", SynthesisOptions{})

	if err == nil {
		t.Error("ожидалась ошибка при статусе 400")
	}
}
