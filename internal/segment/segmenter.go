package segment

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"readaloud/internal/normalize"
)

// MinChunkChars задает минимальную читаемую длину чанка.
// Более короткие чанки сливаются вперед, последний чанк сохраняется всегда.
const MinChunkChars = 20

var blankLineRe = regexp.MustCompile(`\n\s*\n`)

// ForDisplay разбивает сырой текст на чанки без очистки.
// Применяется только унификация переводов строк, чтобы исходное
// форматирование сохранилось для отображения в UI.
func ForDisplay(rawText string, maxChars int) []string {
	text := normalize.NormalizeLineEndings(rawText)
	paragraphs := splitParagraphs(text)
	chunks := greedyChunk(paragraphs, maxChars)
	return enforceMinLength(chunks, MinChunkChars)
}

// ForSpeech применяет полный конвейер очистки и затем разбивает
// текст на чанки для синтеза речи
func ForSpeech(rawText, language string, maxChars int) []string {
	cleaned := normalize.Text(rawText, language)
	paragraphs := splitParagraphs(cleaned)
	chunks := greedyChunk(paragraphs, maxChars)
	return enforceMinLength(chunks, MinChunkChars)
}

// splitParagraphs делит текст на параграфы по пустым строкам.
// Если пустых строк нет, пробует одиночные переводы строк;
// если и это дает один кусок, весь текст становится одним параграфом.
func splitParagraphs(text string) []string {
	var parts []string
	for _, p := range blankLineRe.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 0 {
		return parts
	}

	var singleLineParts []string
	for _, p := range strings.Split(text, "\n") {
		if p = strings.TrimSpace(p); p != "" {
			singleLineParts = append(singleLineParts, p)
		}
	}
	if len(singleLineParts) > 1 {
		return singleLineParts
	}

	if trimmed := strings.TrimSpace(text); trimmed != "" {
		return []string{trimmed}
	}
	return nil
}

// greedyChunk жадно накапливает параграфы в чанки, не превышающие maxChars.
// Слишком длинный параграф переносится по границам слов, а единственное
// слово длиннее бюджета жестко режется по символам. maxChars <= 0
// отключает чанкинг полностью.
func greedyChunk(paragraphs []string, maxChars int) []string {
	if maxChars <= 0 {
		return paragraphs
	}

	var chunks []string
	var buf []string
	bufLen := 0

	flush := func() {
		if len(buf) > 0 {
			chunks = append(chunks, strings.Join(buf, "\n\n"))
			buf = nil
			bufLen = 0
		}
	}

	for _, p := range paragraphs {
		if p == "" {
			continue
		}
		// Длины считаются в рунах, чтобы бюджет не зависел от кодировки
		pLen := utf8.RuneCountInString(p)
		sep := 0
		if len(buf) > 0 {
			sep = 1
		}
		if bufLen+pLen+sep <= maxChars {
			buf = append(buf, p)
			if bufLen > 0 {
				bufLen++
			}
			bufLen += pLen
			continue
		}

		flush()

		if pLen <= maxChars {
			chunks = append(chunks, p)
			continue
		}
		chunks = append(chunks, wrapLongParagraph(p, maxChars)...)
	}

	flush()
	return chunks
}

// wrapLongParagraph переносит параграф длиннее maxChars по границам слов
func wrapLongParagraph(p string, maxChars int) []string {
	var chunks []string
	var current []string
	currentLen := 0

	for _, word := range strings.Fields(p) {
		wordLen := utf8.RuneCountInString(word)
		joinLen := wordLen
		if len(current) > 0 {
			joinLen++ // пробел-разделитель
		}
		if currentLen+joinLen <= maxChars {
			current = append(current, word)
			currentLen += joinLen
			continue
		}
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current = []string{word}
			currentLen = wordLen
			continue
		}
		// Одно слово длиннее бюджета: жесткий разрез по рунам,
		// чтобы не разрезать многобайтовый символ пополам
		runes := []rune(word)
		for len(runes) > maxChars {
			chunks = append(chunks, string(runes[:maxChars]))
			runes = runes[maxChars:]
		}
		if len(runes) > 0 {
			current = []string{string(runes)}
			currentLen = len(runes)
		}
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

// enforceMinLength сливает чанки короче minChars вперед со следующими,
// пока не будет достигнут порог или не кончится вход.
// Последний чанк сохраняется независимо от длины.
func enforceMinLength(chunks []string, minChars int) []string {
	if minChars <= 0 || len(chunks) == 0 {
		return chunks
	}

	var result []string
	i := 0
	for i < len(chunks) {
		cur := chunks[i]
		if utf8.RuneCountInString(strings.TrimSpace(cur)) >= minChars || i == len(chunks)-1 {
			result = append(result, cur)
			i++
			continue
		}
		merged := cur
		j := i + 1
		for j < len(chunks) && utf8.RuneCountInString(strings.TrimSpace(merged)) < minChars {
			merged = merged + "\n\n" + chunks[j]
			j++
		}
		result = append(result, merged)
		i = j
	}
	return result
}
