package timing

import (
	"context"
	"regexp"
	"unicode/utf8"

	"readaloud/pkg/models"
)

// wordRe выделяет словесные токены транскрипта с сохранением смещений
var wordRe = regexp.MustCompile(`[\pL\pN_]+`)

// WordToken представляет нативный токен TTS-провайдера с таймстемпами
type WordToken struct {
	Text    string `json:"text"`
	StartMs int64  `json:"start_ms"`
	EndMs   int64  `json:"end_ms"`
}

// FromTokens форматирует нативные словесные токены провайдера в тайминги.
// Таймстемпы проходят без изменений, символьные смещения назначаются
// последовательно: len(слова)+1 на токен (пробел после слова).
// Смещения считаются в рунах.
func FromTokens(tokens []WordToken) []models.WordTiming {
	if len(tokens) == 0 {
		return nil
	}

	timings := make([]models.WordTiming, 0, len(tokens))
	charOffset := 0
	for _, tok := range tokens {
		wordLen := utf8.RuneCountInString(tok.Text)
		timings = append(timings, models.WordTiming{
			Word:      tok.Text,
			StartMs:   tok.StartMs,
			EndMs:     tok.EndMs,
			CharStart: charOffset,
			CharEnd:   charOffset + wordLen,
		})
		charOffset += wordLen + 1
	}
	return timings
}

// Heuristic равномерно распределяет длительность аудио по словам
// транскрипта. Токен i из n занимает [i*dur/n, (i+1)*dur/n): обе границы
// считаются независимо от i, а не накоплением, чтобы ошибка целочисленного
// деления не аккумулировалась. После расчета каждый end_ms ограничивается
// снизу start_ms и сверху durationMs.
// Ноль токенов или неположительная длительность дают пустой результат.
func Heuristic(transcript string, durationMs int64) []models.WordTiming {
	if durationMs <= 0 {
		return nil
	}

	matches := wordRe.FindAllStringIndex(transcript, -1)
	if len(matches) == 0 {
		return nil
	}

	n := int64(len(matches))
	timings := make([]models.WordTiming, 0, len(matches))

	// Байтовые смещения регулярного выражения переводятся в руны
	// накопительно, чтобы не пересчитывать префикс для каждого слова
	runeOffset := 0
	prevByte := 0

	for i, m := range matches {
		runeOffset += utf8.RuneCountInString(transcript[prevByte:m[0]])
		charStart := runeOffset
		wordRunes := utf8.RuneCountInString(transcript[m[0]:m[1]])
		runeOffset += wordRunes
		prevByte = m[1]

		start := int64(i) * durationMs / n
		end := int64(i+1) * durationMs / n
		if end < start {
			end = start
		}
		if end > durationMs {
			end = durationMs
		}

		timings = append(timings, models.WordTiming{
			Word:      transcript[m[0]:m[1]],
			StartMs:   start,
			EndMs:     end,
			CharStart: charStart,
			CharEnd:   charStart + wordRunes,
		})
	}
	return timings
}

// Estimator оценивает тайминги слов по транскрипту и аудио
type Estimator interface {
	Estimate(ctx context.Context, transcript string, samples []float32, sampleRate int) ([]models.WordTiming, error)
}

// HeuristicEstimator реализует Estimator равномерным распределением.
// Это явная заглушка настоящего акустического выравнивания: поведение
// сохраняется точь-в-точь ради совместимости таймингов.
type HeuristicEstimator struct{}

// NewHeuristicEstimator создает эвристический оценщик таймингов
func NewHeuristicEstimator() *HeuristicEstimator {
	return &HeuristicEstimator{}
}

// Estimate распределяет длительность аудио равномерно по словам транскрипта
func (e *HeuristicEstimator) Estimate(_ context.Context, transcript string, samples []float32, sampleRate int) ([]models.WordTiming, error) {
	return Heuristic(transcript, DurationMs(len(samples), sampleRate)), nil
}

// DurationMs возвращает длительность аудио буфера в миллисекундах
func DurationMs(sampleCount, sampleRate int) int64 {
	if sampleRate <= 0 {
		return 0
	}
	return int64(sampleCount) * 1000 / int64(sampleRate)
}
