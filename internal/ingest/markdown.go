package ingest

import (
	"regexp"
	"strings"
)

var (
	codeBlock    = regexp.MustCompile("(?s)(```|~~~).*?(```|~~~)")
	inlineCode   = regexp.MustCompile("`([^`]+)`")
	images       = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	links        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	emphasis     = regexp.MustCompile(`\*{1,2}([^*\n]+)\*{1,2}`)
	blockquote   = regexp.MustCompile(`(?m)^>\s*`)
	hr           = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	listMarkers  = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`)
	numberedList = regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]+`)
	newlines     = regexp.MustCompile(`\n{3,}`)
)

// stripMarkdown reduces markdown body text to plain prose.
// Code blocks are dropped; inline code keeps its text.
func stripMarkdown(content string) string {
	content = codeBlock.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "")
	content = links.ReplaceAllString(content, "$1")
	content = emphasis.ReplaceAllString(content, "$1")
	content = blockquote.ReplaceAllString(content, "")
	content = hr.ReplaceAllString(content, "")
	content = listMarkers.ReplaceAllString(content, "")
	content = numberedList.ReplaceAllString(content, "")
	content = newlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
