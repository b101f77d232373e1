package parser

import (
	"regexp"
	"strings"
)

var (
	multiSpaceRe   = regexp.MustCompile(`[ \t]+`)
	multiNewlineRe = regexp.MustCompile(`\n{3,}`)
	pageNumberRe   = regexp.MustCompile(`^(?:page\s*)?\d{1,4}(?:\s*/\s*\d{1,4})?$`)
)

// NormalizeText joins per-page text into one document string, collapsing
// runs of whitespace and stripping boilerplate lines that repeat on most
// pages (headers, footers, page numbers).
func NormalizeText(pages []string) string {
	if len(pages) == 0 {
		return ""
	}

	repeated := repeatedLines(pages)

	var out []string
	for _, page := range pages {
		for _, line := range strings.Split(page, "\n") {
			line = strings.TrimSpace(multiSpaceRe.ReplaceAllString(line, " "))
			if line == "" {
				out = append(out, "")
				continue
			}
			key := strings.ToLower(line)
			if repeated[key] || pageNumberRe.MatchString(key) {
				continue
			}
			out = append(out, line)
		}
		out = append(out, "")
	}

	text := strings.Join(out, "\n")
	text = multiNewlineRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// repeatedLines returns lines appearing on more than half of a multi-page
// document's pages. Those are headers and footers, not content.
func repeatedLines(pages []string) map[string]bool {
	if len(pages) < 3 {
		return nil
	}

	counts := map[string]int{}
	for _, page := range pages {
		seen := map[string]bool{}
		for _, line := range strings.Split(page, "\n") {
			line = strings.ToLower(strings.TrimSpace(multiSpaceRe.ReplaceAllString(line, " ")))
			if line == "" || seen[line] {
				continue
			}
			seen[line] = true
			counts[line]++
		}
	}

	threshold := len(pages)/2 + 1
	repeated := map[string]bool{}
	for line, n := range counts {
		if n >= threshold {
			repeated[line] = true
		}
	}
	return repeated
}
