package prompt

import (
	"strings"

	"golang.org/x/net/html"
)

// StripHTML reduces a possibly-marked-up description to plain text so that
// markup never leaks into a generation prompt. Input without tags passes
// through with whitespace collapsed.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	if !strings.ContainsAny(s, "<>") {
		return collapseWhitespace(s)
	}
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return collapseWhitespace(s)
	}
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		switch node.Type {
		case html.TextNode:
			buf.WriteString(node.Data)
			buf.WriteString(" ")
		case html.ElementNode:
			if node.Data == "script" || node.Data == "style" {
				return
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
		if node.Type == html.ElementNode && (node.Data == "p" || node.Data == "br" || node.Data == "div" || node.Data == "li") {
			buf.WriteString(" ")
		}
	}
	walk(doc)
	return collapseWhitespace(buf.String())
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
