package render

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "Meow!", want: "Meow!"},
		{name: "emphasis", in: "**bold** and *italic*", want: "<strong>bold</strong> and <em>italic</em>"},
		{name: "heading", in: "# Cats", want: "<b>Cats</b>"},
		{name: "list", in: "- one\n- two", want: "• one\n• two"},
		{name: "inline code", in: "use `go test`", want: "use <code>go test</code>"},
		{name: "escapes html", in: "1 < 2", want: "1 &lt; 2"},
		{name: "strikethrough", in: "~~gone~~", want: "<s>gone</s>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToHTML(tt.in))
		})
	}
}

func TestToHTML_NoParagraphTags(t *testing.T) {
	out := ToHTML("first\n\nsecond")
	assert.NotContains(t, out, "<p>")
	assert.Equal(t, "first\n\nsecond", out)
}

func TestSplit(t *testing.T) {
	assert.Equal(t, []string{"short"}, Split("short", 10))
	assert.Nil(t, Split("", 10))

	chunks := Split("aaaa\nbbbb\ncccc", 10)
	assert.Equal(t, []string{"aaaa\nbbbb", "cccc"}, chunks)

	chunks = Split(strings.Repeat("я", 25), 10)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 10)
	}
	assert.Equal(t, strings.Repeat("я", 25), strings.Join(chunks, ""))
}

func TestChunks_ShortAnswerIsOneChunk(t *testing.T) {
	chunks := Chunks("**Topic**: if a < b && c", MaxMessageLength)

	require.Len(t, chunks, 1)
	assert.Equal(t, "<strong>Topic</strong>: if a &lt; b &amp;&amp; c", chunks[0].HTML)
	assert.Equal(t, "**Topic**: if a < b && c", chunks[0].Text)
}

func TestChunks_LongCodeBlockKeepsTagsBalanced(t *testing.T) {
	markdown := "Here you go:\n\n```go\n" + strings.Repeat("line of code\n", 400) + "```\n\nDone."

	chunks := Chunks(markdown, MaxMessageLength)
	require.Greater(t, len(chunks), 1)

	lines := 0
	for i, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c.HTML), MaxMessageLength, "chunk %d", i)
		assert.Equal(t, strings.Count(c.HTML, "<pre>"), strings.Count(c.HTML, "</pre>"), "chunk %d", i)
		assert.Equal(t, strings.Count(c.HTML, "<code"), strings.Count(c.HTML, "</code>"), "chunk %d", i)
		assert.NotContains(t, c.Text, "<pre>")
		lines += strings.Count(c.HTML, "line of code")
	}
	assert.Equal(t, 400, lines)
	assert.Contains(t, chunks[0].HTML, "Here you go:")
	assert.Contains(t, chunks[len(chunks)-1].HTML, "Done.")
}

func TestChunks_EscapingGrowthIsResplit(t *testing.T) {
	markdown := strings.Repeat("a < b && c\n", 300)

	chunks := Chunks(markdown, 1000)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c.HTML), 1000)
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), 1000)
	}
}
