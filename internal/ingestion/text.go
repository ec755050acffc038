// Package ingestion normalizes raw catalog values before they are sent for enrichment.
package ingestion

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/catalog-enricher/internal/types"
)

var (
	spaceRun     = regexp.MustCompile(`[ \t]+`)
	blankLineRun = regexp.MustCompile(`\n\n\n+`)
	htmlTag      = regexp.MustCompile(`<(?:[a-zA-Z][a-zA-Z0-9]*|/[a-zA-Z][a-zA-Z0-9]*)(?:\s[^<>]*)?/?>`)
)

// CleanText normalizes line endings and whitespace while keeping paragraph breaks
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRun.ReplaceAllString(line, " "))
	}

	result := strings.Join(lines, "\n")
	result = blankLineRun.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

// LooksLikeHTML reports whether s contains at least one HTML tag
func LooksLikeHTML(s string) bool {
	return htmlTag.MatchString(s)
}

// StripHTML returns the visible text of an HTML fragment. Block elements
// become line breaks and script or style content is dropped.
func StripHTML(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, li, h1, h2, h3, h4, h5, h6, tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return CleanText(doc.Text()), nil
}

// PrepareRecord returns a copy of rec with HTML markup stripped from values.
// Values that fail to parse are kept unchanged.
func PrepareRecord(rec types.RawRecord) types.RawRecord {
	out := rec.Clone()
	for i, f := range out {
		if !LooksLikeHTML(f.Value) {
			continue
		}
		if text, err := StripHTML(f.Value); err == nil {
			out[i].Value = text
		}
	}
	return out
}
