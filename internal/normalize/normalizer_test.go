package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextStripsMarkdown(t *testing.T) {
	input := "# Заголовок\n\nSome **bold** and *italic* and _underlined_ text with [link](http://example.com)."
	got := Text(input, "en")

	assert.Equal(t, "Заголовок\n\nSome bold and italic and underlined text with link.", got)
}

func TestTextRemovesImagesBeforeLinks(t *testing.T) {
	// Изображение удаляется целиком, иначе от него остался бы "!alt"
	input := "Before ![diagram](img.png) after [text](http://x)."
	got := Text(input, "en")

	assert.Equal(t, "Before after text.", got)
}

func TestTextStripsCodeBlocks(t *testing.T) {
	input := "Intro.\n\n```go\nfunc main() {}\n```\n\nUse `fmt.Println` here."
	got := Text(input, "en")

	assert.NotContains(t, got, "func main")
	assert.NotContains(t, got, "```")
	assert.Contains(t, got, "fmt.Println")
}

func TestTextStripsLists(t *testing.T) {
	input := "- first item\n- [x] done task\n1. numbered\n> quoted line"
	got := Text(input, "en")

	assert.Equal(t, "first item\ndone task\nnumbered\nquoted line", got)
}

func TestTextStripsEmoji(t *testing.T) {
	got := Text("Hello 😀 world 🚀!", "en")
	assert.Equal(t, "Hello world !", got)
}

func TestTextKeepsCJK(t *testing.T) {
	// Узкие диапазоны эмодзи не должны задевать иероглифы
	got := Text("机器学习 and 日本語", "en")
	assert.Equal(t, "机器学习 and 日本語", got)
}

func TestTextNormalizesLigaturesAndSymbols(t *testing.T) {
	got := Text("scientiﬁc ﬂow: 5 ± 2 µm, α and β", "en")
	assert.Equal(t, "scientific flow: 5 +/- 2 microm, alpha and beta", got)
}

func TestTextFixesHyphenation(t *testing.T) {
	got := Text("This is an exam-\nple of hyphen-\nation.", "en")
	assert.Equal(t, "This is an example of hyphenation.", got)
}

func TestTextStripsPageMarkers(t *testing.T) {
	input := "First paragraph.\nPage 3\n42\nSecond paragraph."
	got := Text(input, "en")

	assert.Equal(t, "First paragraph.\nSecond paragraph.", got)
}

func TestTextStripsRepeatedHeaders(t *testing.T) {
	// Короткая строка, повторяющаяся 3+ раза, считается колонтитулом
	input := "Journal of Testing\nContent one.\nJournal of Testing\nContent two.\nJournal of Testing\nContent three."
	got := Text(input, "en")

	assert.NotContains(t, got, "Journal of Testing")
	assert.Contains(t, got, "Content one.")
	assert.Contains(t, got, "Content three.")
}

func TestTextStripsRepeatedCJKHeaders(t *testing.T) {
	// Порог 80 символов считается в рунах: CJK-колонтитул из 60 иероглифов
	// занимает 180 байт, но все равно распознается как повтор
	header := strings.Repeat("语", 60)
	input := header + "\nContent one.\n" + header + "\nContent two.\n" + header + "\nContent three."
	got := Text(input, "en")

	assert.NotContains(t, got, header)
	assert.Contains(t, got, "Content two.")
}

func TestTextStripsFigureCaptions(t *testing.T) {
	input := "Results are shown below.\nFigure 2: Accuracy over time\nTable 1: Parameters\nDiscussion follows."
	got := Text(input, "en")

	assert.Equal(t, "Results are shown below.\nDiscussion follows.", got)
}

func TestTextMapsInlineCitations(t *testing.T) {
	got := Text("As shown in [3], results hold.", "en")
	assert.Equal(t, "As shown in reference 3, results hold.", got)

	// Составные ссылки и диапазоны не трогаются
	got = Text("See [10,11] and [3-5].", "en")
	assert.Equal(t, "See [10,11] and [3-5].", got)
}

func TestWhitespace(t *testing.T) {
	input := "a\r\nb\rc\td  e\n\n\n\n\nf"
	got := Whitespace(input)

	assert.Equal(t, "a\nb\nc d e\n\nf", got)
}

func TestTextIdempotent(t *testing.T) {
	input := "# Title\n\nSome **bold** text with [3] and exam-\nple 😀.\n\nPage 7\n\nMore   text."
	once := Text(input, "en")
	twice := Text(once, "en")

	assert.Equal(t, once, twice)
}

func TestTextEmptyInput(t *testing.T) {
	assert.Equal(t, "", Text("", "en"))
	assert.Equal(t, "", Text("   \n\n\t  ", "en"))
}
