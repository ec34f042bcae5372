package jmap

import (
	"strings"

	"golang.org/x/net/html"
)

// blockElements start and end on their own line.
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "dd": true, "div": true, "dl": true, "dt": true,
	"fieldset": true, "figcaption": true, "figure": true, "footer": true,
	"form": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true,
	"h6": true, "header": true, "hr": true, "li": true, "main": true,
	"nav": true, "ol": true, "p": true, "pre": true, "section": true,
	"table": true, "tr": true, "ul": true,
}

// hiddenElements never contribute text.
var hiddenElements = map[string]bool{
	"head": true, "noscript": true, "script": true, "style": true, "template": true,
}

// sourceBreaks are plain whitespace in HTML text; only elements break lines.
var sourceBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// HTMLToText renders an HTML body as plain text: tags removed, entities
// decoded, block elements on their own lines, whitespace collapsed.
func HTMLToText(src string) string {
	z := html.NewTokenizer(strings.NewReader(src))
	var b strings.Builder
	hidden := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return collapseWhitespace(b.String())

		case html.TextToken:
			if hidden == 0 {
				b.WriteString(sourceBreaks.Replace(string(z.Text())))
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tt == html.StartTagToken && hiddenElements[tag] {
				hidden++
			}
			if blockElements[tag] {
				b.WriteByte('\n')
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if hiddenElements[tag] && hidden > 0 {
				hidden--
			}
			if blockElements[tag] {
				b.WriteByte('\n')
			}
		}
	}
}

// collapseWhitespace squeezes runs of spaces within a line and keeps at most
// one blank line between paragraphs.
func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false

	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			blank = len(out) > 0
			continue
		}
		if blank {
			out = append(out, "")
			blank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
