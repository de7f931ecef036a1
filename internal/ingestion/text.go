// Package ingestion loads builder profiles from files and cleans their free text
// before it is stored, embedded and searched.
package ingestion

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	multiSpace   = regexp.MustCompile(`[ \t]+`)
	excessBlanks = regexp.MustCompile(`\n\n\n+`)
	htmlTag      = regexp.MustCompile(`<[a-zA-Z/!][^>]*>`)
)

// CleanText normalizes line endings and whitespace while keeping paragraph breaks
// and bullet lists
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	result := strings.Join(lines, "\n")
	result = excessBlanks.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

func cleanLine(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return ""
	}
	if isBulletLine(trimmed) {
		return "- " + multiSpace.ReplaceAllString(strings.TrimSpace(trimmed[strings.IndexByte(trimmed, ' ')+1:]), " ")
	}
	return multiSpace.ReplaceAllString(trimmed, " ")
}

func isBulletLine(line string) bool {
	return strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") ||
		strings.HasPrefix(line, "• ") || strings.HasPrefix(line, "· ")
}

// LooksLikeHTML reports whether text contains markup
func LooksLikeHTML(text string) bool {
	return htmlTag.MatchString(text)
}

// HTMLToText extracts readable text from an HTML fragment. Scripts and styles are
// dropped, block elements become line breaks and list items become bullets.
func HTMLToText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript, iframe").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("li").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("\n- ")
	})
	doc.Find("p, div, h1, h2, h3, h4, h5, h6, ul, ol").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n\n")
	})

	return CleanText(doc.Find("body").Text()), nil
}

// CleanProfileText returns plain cleaned text, converting HTML when present.
// Unparseable markup is kept as cleaned text.
func CleanProfileText(text string) string {
	if LooksLikeHTML(text) {
		if plain, err := HTMLToText(text); err == nil {
			return plain
		}
	}
	return CleanText(text)
}
