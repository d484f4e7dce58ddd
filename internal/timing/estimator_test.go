package timing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"readaloud/pkg/models"
)

func TestHeuristicTwoWords(t *testing.T) {
	// Два слова на 200 мс делятся ровно пополам
	timings := Heuristic("hello world", 200)

	assert.Equal(t, []models.WordTiming{
		{Word: "hello", StartMs: 0, EndMs: 100, CharStart: 0, CharEnd: 5},
		{Word: "world", StartMs: 100, EndMs: 200, CharStart: 6, CharEnd: 11},
	}, timings)
}

func TestHeuristicMonotonicAndBounded(t *testing.T) {
	transcript := "one two three four five six seven"
	durationMs := int64(1000)

	timings := Heuristic(transcript, durationMs)
	assert.Len(t, timings, 7)

	var prevStart int64
	for i, w := range timings {
		assert.GreaterOrEqual(t, w.StartMs, int64(0))
		assert.LessOrEqual(t, w.StartMs, w.EndMs)
		assert.LessOrEqual(t, w.EndMs, durationMs)
		if i > 0 {
			assert.GreaterOrEqual(t, w.StartMs, prevStart)
		}
		prevStart = w.StartMs
	}

	// Последнее слово заканчивается ровно на длительности
	assert.Equal(t, durationMs, timings[len(timings)-1].EndMs)
}

func TestHeuristicSkipsPunctuation(t *testing.T) {
	timings := Heuristic("Hello, world! (42)", 300)

	assert.Len(t, timings, 3)
	assert.Equal(t, "Hello", timings[0].Word)
	assert.Equal(t, "world", timings[1].Word)
	assert.Equal(t, "42", timings[2].Word)
}

func TestHeuristicRuneOffsets(t *testing.T) {
	// Смещения считаются в рунах, не в байтах
	timings := Heuristic("привет мир", 200)

	assert.Len(t, timings, 2)
	assert.Equal(t, 0, timings[0].CharStart)
	assert.Equal(t, 6, timings[0].CharEnd)
	assert.Equal(t, 7, timings[1].CharStart)
	assert.Equal(t, 10, timings[1].CharEnd)
}

func TestHeuristicDegenerateInputs(t *testing.T) {
	assert.Nil(t, Heuristic("", 1000))
	assert.Nil(t, Heuristic("hello", 0))
	assert.Nil(t, Heuristic("hello", -5))
	assert.Nil(t, Heuristic("... !!! ???", 1000))
}

func TestFromTokens(t *testing.T) {
	tokens := []WordToken{
		{Text: "hello", StartMs: 10, EndMs: 250},
		{Text: "world", StartMs: 260, EndMs: 480},
	}

	timings := FromTokens(tokens)

	assert.Equal(t, []models.WordTiming{
		{Word: "hello", StartMs: 10, EndMs: 250, CharStart: 0, CharEnd: 5},
		{Word: "world", StartMs: 260, EndMs: 480, CharStart: 6, CharEnd: 11},
	}, timings)
}

func TestFromTokensEmpty(t *testing.T) {
	assert.Nil(t, FromTokens(nil))
	assert.Nil(t, FromTokens([]WordToken{}))
}

func TestHeuristicEstimator(t *testing.T) {
	est := NewHeuristicEstimator()

	// 24000 сэмплов при 24 кГц — ровно секунда аудио
	samples := make([]float32, 24000)
	timings, err := est.Estimate(context.Background(), "hello world", samples, 24000)

	assert.NoError(t, err)
	assert.Len(t, timings, 2)
	assert.Equal(t, int64(1000), timings[1].EndMs)
}

func TestDurationMs(t *testing.T) {
	assert.Equal(t, int64(1000), DurationMs(24000, 24000))
	assert.Equal(t, int64(500), DurationMs(12000, 24000))
	assert.Equal(t, int64(0), DurationMs(100, 0))
}
