// Package render turns backend Markdown into sanitized HTML.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.Strikethrough, extension.Table))

	// ugcPolicy keeps formatting markup and drops scripts, styles and handlers.
	ugcPolicy = bluemonday.UGCPolicy()
)

// Markdown renders a recommendation to sanitized HTML. Outer code fences
// that language models like to wrap answers in are removed first.
func Markdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(stripFences(src)), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(ugcPolicy.SanitizeBytes(buf.Bytes())), nil
}

// MarkdownOrText is Markdown falling back to escaped text on failure.
func MarkdownOrText(src string) template.HTML {
	out, err := Markdown(src)
	if err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return out
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	s = strings.TrimSuffix(s, "```")
	// Drop the opening fence together with its info string, e.g. ```markdown.
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	return strings.TrimSpace(s)
}
