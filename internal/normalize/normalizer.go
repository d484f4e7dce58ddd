package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Пакет normalize реализует детерминированную очистку текста документа
// перед синтезом речи. Стадии применяются строго по порядку: более поздние
// стадии опираются на инварианты более ранних. Например, исправление
// переносов должно идти до нормализации пробелов, иначе сигнал переноса
// строки будет уничтожен.

// ligatures заменяет типографские лигатуры на ASCII-эквиваленты
var ligatures = []struct{ from, to string }{
	{"ﬁ", "fi"},
	{"ﬂ", "fl"},
	{"ﬀ", "ff"},
	{"ﬃ", "ffi"},
	{"ﬄ", "ffl"},
}

// symbols заменяет фиксированный набор символов на произносимые эквиваленты
var symbols = []struct{ from, to string }{
	{"±", "+/-"},
	{"µ", "micro"},
	{"α", "alpha"},
	{"β", "beta"},
	{"γ", "gamma"},
	{"×", "x"},
}

var (
	codeFenceRe     = regexp.MustCompile("(?s)```[^`]*```")
	tildeFenceRe    = regexp.MustCompile("(?s)~~~[^~]*~~~")
	inlineCodeRe    = regexp.MustCompile("`([^`]+)`")
	imageRe         = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	linkRe          = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	refLinkRe       = regexp.MustCompile(`\[([^\]]+)\]\[[^\]]+\]`)
	headerRe        = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)
	boldStarRe      = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	boldUnderRe     = regexp.MustCompile(`__([^_]+)__`)
	italicStarRe    = regexp.MustCompile(`\*([^*]+)\*`)
	italicUnderRe   = regexp.MustCompile(`(^|[^_\pL\pN])_([^_]+)_($|[^_\pL\pN])`)
	strikeRe        = regexp.MustCompile(`~~([^~]+)~~`)
	blockquoteRe    = regexp.MustCompile(`(?m)^>\s+`)
	horizontalRe    = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	taskListRe      = regexp.MustCompile(`(?m)^\s*-\s*\[[xX ]\]\s+`)
	unorderedListRe = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	orderedListRe   = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	htmlTagRe       = regexp.MustCompile(`<[^>]+>`)

	hyphenationRe = regexp.MustCompile(`([\pL\pN_]+)-\n([\pL\pN_]+)`)
	pageMarkerRe  = regexp.MustCompile(`(?i)^page\s+\d+$`)
	bareNumberRe  = regexp.MustCompile(`^\d+$`)
	figureRe      = regexp.MustCompile(`(?i)^(figure|table|fig\.)\b`)
	citationRe    = regexp.MustCompile(`\[(\d{1,3})\]`)

	tabsRe       = regexp.MustCompile("[\t\f\v]+")
	spaceRunRe   = regexp.MustCompile("[  ]{2,}")
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

// Text применяет весь конвейер очистки к сырому тексту документа.
// Функция чистая и идемпотентная: повторный вызов на уже очищенном
// тексте возвращает его без изменений. Параметр language зарезервирован
// для языкозависимых правил.
func Text(text, language string) string {
	_ = language
	text = stripMarkdown(text)
	text = stripEmoji(text)
	text = normalizeLigaturesAndSymbols(text)
	text = fixHyphenation(text)
	text = stripHeadersFooters(text)
	text = stripFigureTableNoise(text)
	text = mapInlineCitations(text)
	text = Whitespace(text)
	return text
}

// stripMarkdown убирает markdown-разметку, сохраняя видимый текст.
// Изображения удаляются раньше ссылок, иначе от ![alt](url) останется "!alt".
func stripMarkdown(text string) string {
	text = codeFenceRe.ReplaceAllString(text, "")
	text = tildeFenceRe.ReplaceAllString(text, "")
	text = inlineCodeRe.ReplaceAllString(text, "$1")
	text = imageRe.ReplaceAllString(text, "")
	text = linkRe.ReplaceAllString(text, "$1")
	text = refLinkRe.ReplaceAllString(text, "$1")
	text = headerRe.ReplaceAllString(text, "$1")
	text = boldStarRe.ReplaceAllString(text, "$1")
	text = boldUnderRe.ReplaceAllString(text, "$1")
	text = italicStarRe.ReplaceAllString(text, "$1")
	// RE2 не поддерживает lookbehind, поэтому границы захватываются явно;
	// второй проход подбирает совпадения, примыкающие к уже обработанным
	text = italicUnderRe.ReplaceAllString(text, "$1$2$3")
	text = italicUnderRe.ReplaceAllString(text, "$1$2$3")
	text = strikeRe.ReplaceAllString(text, "$1")
	text = blockquoteRe.ReplaceAllString(text, "")
	text = horizontalRe.ReplaceAllString(text, "")
	// Маркеры списков задач убираются до обычных списков, иначе "- [ ] x"
	// превратится в "[ ] x" и чекбокс останется в тексте
	text = taskListRe.ReplaceAllString(text, "")
	text = unorderedListRe.ReplaceAllString(text, "")
	text = orderedListRe.ReplaceAllString(text, "")
	text = htmlTagRe.ReplaceAllString(text, "")
	return text
}

// emojiRanges покрывает пиктографические блоки Unicode, удаляемые перед TTS
var emojiRanges = [][2]rune{
	{0x1F600, 0x1F64F}, // эмотиконы
	{0x1F300, 0x1F5FF}, // символы и пиктограммы
	{0x1F680, 0x1F6FF}, // транспорт и карты
	{0x1F700, 0x1F77F}, // алхимические символы
	{0x1F780, 0x1F7FF}, // геометрические фигуры
	{0x1F800, 0x1F8FF}, // дополнительные стрелки
	{0x1F900, 0x1F9FF}, // дополнительные пиктограммы
	{0x1FA00, 0x1FA6F}, // шахматные символы
	{0x1FA70, 0x1FAFF}, // пиктограммы расширение A
	{0x2702, 0x27B0},   // дингбаты
	{0x1F170, 0x1F251}, // обведенные буквы и идеограммы
	{0x1F004, 0x1F004}, // маджонг
	{0x1F0CF, 0x1F0CF}, // игральная карта
	{0x24C2, 0x24C2},   // обведенная M
}

// stripEmoji удаляет эмодзи и пиктографические символы
func stripEmoji(text string) string {
	return strings.Map(func(r rune) rune {
		for _, rng := range emojiRanges {
			if r >= rng[0] && r <= rng[1] {
				return -1
			}
		}
		return r
	}, text)
}

// normalizeLigaturesAndSymbols приводит лигатуры и символы к ASCII-безопасному виду
func normalizeLigaturesAndSymbols(text string) string {
	for _, l := range ligatures {
		if strings.Contains(text, l.from) {
			text = strings.ReplaceAll(text, l.from, l.to)
		}
	}
	for _, s := range symbols {
		if strings.Contains(text, s.from) {
			text = strings.ReplaceAll(text, s.from, s.to)
		}
	}
	return text
}

// fixHyphenation склеивает слова, разорванные переносом строки:
// "exam-\nple" -> "example"
func fixHyphenation(text string) string {
	return hyphenationRe.ReplaceAllString(text, "$1$2")
}

// stripHeadersFooters удаляет колонтитулы: маркеры страниц вида "Page 12"
// или просто число, а также короткие строки (до 80 символов),
// повторяющиеся в документе 3 и более раз
func stripHeadersFooters(text string) string {
	lines := strings.Split(text, "\n")

	cleaned := make([]string, 0, len(lines))
	for _, ln := range lines {
		stripped := strings.TrimSpace(ln)
		if pageMarkerRe.MatchString(stripped) {
			continue
		}
		if bareNumberRe.MatchString(stripped) {
			continue
		}
		cleaned = append(cleaned, ln)
	}

	freq := make(map[string]int)
	for _, ln := range cleaned {
		key := strings.TrimSpace(ln)
		if key != "" && utf8.RuneCountInString(key) <= 80 {
			freq[key]++
		}
	}

	repeated := make(map[string]bool)
	for key, count := range freq {
		if count >= 3 {
			repeated[key] = true
		}
	}

	if len(repeated) > 0 {
		kept := cleaned[:0]
		for _, ln := range cleaned {
			if !repeated[strings.TrimSpace(ln)] {
				kept = append(kept, ln)
			}
		}
		cleaned = kept
	}

	return strings.Join(cleaned, "\n")
}

// stripFigureTableNoise удаляет строки подписей к рисункам и таблицам
func stripFigureTableNoise(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, ln := range lines {
		if figureRe.MatchString(strings.TrimSpace(ln)) {
			continue
		}
		kept = append(kept, ln)
	}
	return strings.Join(kept, "\n")
}

// mapInlineCitations превращает короткие числовые ссылки [3] в "reference 3".
// Составные ссылки [10,11] и диапазоны [3-5] не трогаются.
func mapInlineCitations(text string) string {
	return citationRe.ReplaceAllString(text, "reference $1")
}

// Whitespace нормализует пробелы: переводы строк к \n, табуляции и
// спецпробелы к одному пробелу, 3+ пустых строк к двум, обрезка краев
func Whitespace(text string) string {
	text = NormalizeLineEndings(text)
	text = tabsRe.ReplaceAllString(text, " ")
	text = spaceRunRe.ReplaceAllString(text, " ")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// NormalizeLineEndings приводит переводы строк Windows и Mac к \n
func NormalizeLineEndings(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
