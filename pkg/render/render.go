// Package render turns LLM markdown into the HTML subset Telegram accepts.
package render

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/russross/blackfriday"
	"github.com/samber/lo"
)

// MaxMessageLength is Telegram's limit for one text message, in characters.
const MaxMessageLength = 4096

var (
	headingOpen  = regexp.MustCompile(`<h[1-6][^>]*>`)
	headingClose = regexp.MustCompile(`</h[1-6]>`)
	listItem     = regexp.MustCompile(`<li>\s*`)
	blankLines   = regexp.MustCompile(`\n{3,}`)

	replacer = strings.NewReplacer(
		"<p>", "",
		"</p>", "\n\n",
		"<ul>\n", "",
		"</ul>\n", "\n",
		"<ol>\n", "",
		"</ol>\n", "\n",
		"</li>\n", "\n",
		"</li>", "\n",
		"<br>", "\n",
		"<br />", "\n",
		"<hr>", "",
		"<hr />", "",
		"<del>", "<s>",
		"</del>", "</s>",
		"<table>", "",
		"</table>", "",
		"<thead>", "",
		"</thead>", "",
		"<tbody>", "",
		"</tbody>", "",
		"<tr>", "",
		"</tr>", "\n",
		"<th>", "<b>",
		"</th>", "</b> ",
		"<td>", "",
		"</td>", " ",
	)
)

// ToHTML renders markdown with blackfriday and rewrites the tags Telegram rejects.
func ToHTML(markdown string) string {
	html := string(blackfriday.MarkdownCommon([]byte(markdown)))

	html = headingOpen.ReplaceAllString(html, "<b>")
	html = headingClose.ReplaceAllString(html, "</b>\n\n")
	html = listItem.ReplaceAllString(html, "• ")
	html = replacer.Replace(html)
	html = blankLines.ReplaceAllString(html, "\n\n")

	return strings.TrimSpace(html)
}

// Split cuts text into chunks of at most limit characters, preferring line breaks.
func Split(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageLength
	}

	var chunks []string
	for text != "" {
		if utf8.RuneCountInString(text) <= limit {
			chunks = append(chunks, text)
			break
		}

		cut := cutIndex(text, limit)
		chunks = append(chunks, text[:cut])
		text = strings.TrimLeft(text[cut:], "\n")
	}
	return chunks
}

// cutIndex returns the byte offset of the last newline within the first limit runes, or the
// offset of the limit-th rune when there is none.
func cutIndex(text string, limit int) int {
	end, runes := 0, 0
	for i := range text {
		if runes == limit {
			end = i
			break
		}
		runes++
	}

	if nl := strings.LastIndexByte(text[:end], '\n'); nl > 0 {
		return nl
	}
	return end
}

const (
	fenceMarker = "```"
	// minBudget stops re-splitting pieces whose HTML still outgrows the limit.
	minBudget = 256
)

// Chunk is one outgoing message: HTML for Telegram and the markdown it was rendered from, sent
// as plain text when the HTML is refused.
type Chunk struct {
	HTML string
	Text string
}

// Chunks splits markdown into pieces that render to at most limit characters each. The source
// is split before rendering, so every chunk is well-formed HTML on its own. A code fence cut in
// two is closed at the end of one piece and reopened at the start of the next.
func Chunks(markdown string, limit int) []Chunk {
	if limit <= 0 {
		limit = MaxMessageLength
	}

	var out []Chunk
	for _, piece := range splitMarkdown(markdown, limit) {
		out = append(out, renderChunks(piece, limit, limit)...)
	}
	return lo.Filter(out, func(c Chunk, _ int) bool { return c.HTML != "" })
}

// renderChunks halves the budget until the rendered HTML fits, since escaping can make it
// longer than its source.
func renderChunks(piece string, limit, budget int) []Chunk {
	html := ToHTML(piece)
	if utf8.RuneCountInString(html) <= limit || budget <= minBudget {
		return []Chunk{{HTML: html, Text: strings.TrimSpace(piece)}}
	}

	var out []Chunk
	for _, p := range splitMarkdown(piece, budget/2) {
		out = append(out, renderChunks(p, limit, budget/2)...)
	}
	return out
}

func splitMarkdown(markdown string, limit int) []string {
	if utf8.RuneCountInString(markdown) <= limit {
		return []string{markdown}
	}

	var (
		chunks []string
		lines  []string
		size   int
		// base is the number of lines a chunk starts with: 1 after a reopened fence.
		base  int
		fence string
	)

	flush := func() {
		if fence != "" {
			lines = append(lines, fenceMarker)
		}
		chunks = append(chunks, strings.Join(lines, "\n"))
		lines, size, base = nil, 0, 0
		if fence != "" {
			lines = []string{fence}
			size, base = utf8.RuneCountInString(fence)+1, 1
		}
	}

	partLimit := max(limit/3, 1)
	for _, line := range strings.Split(markdown, "\n") {
		isFence := strings.HasPrefix(strings.TrimSpace(line), fenceMarker)

		parts := Split(line, partLimit)
		if len(parts) == 0 {
			parts = []string{""}
		}

		for i, part := range parts {
			closing := 0
			if fence != "" && !(isFence && i == len(parts)-1) {
				closing = len(fenceMarker) + 1
			}

			n := utf8.RuneCountInString(part) + 1
			if size+n+closing > limit && len(lines) > base {
				flush()
			}
			lines = append(lines, part)
			size += n
		}

		if isFence && len(parts) == 1 {
			if fence == "" {
				fence = strings.TrimSpace(line)
			} else {
				fence = ""
			}
		}
	}

	if len(lines) > base {
		chunks = append(chunks, strings.Join(lines, "\n"))
	}
	return chunks
}
