package openapi

import (
	"strings"

	"golang.org/x/net/html"
)

var mdxEscaper = strings.NewReplacer("{", `\{`, "}", `\}`, "<", "&lt;", ">", "&gt;")

// CleanDescription strips HTML markup from a schema description and escapes
// characters MDX would read as JSX.
func CleanDescription(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.Contains(s, "<") {
		s = stripHTML(s)
	}

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(mdxEscaper.Replace(line), " \t\r")
	}
	return strings.TrimSpace(collapseBlankLines(lines))
}

// Summary returns the first paragraph line of a cleaned description.
func Summary(s string) string {
	for _, line := range strings.Split(CleanDescription(s), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func stripHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "script", "style":
				return
			case "br":
				b.WriteString("\n")
				return
			}
		case html.TextNode:
			b.WriteString(n.Data)
		case html.CommentNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "p", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6", "pre", "tr":
				b.WriteString("\n\n")
			}
		}
	}
	walk(doc)
	return b.String()
}

func collapseBlankLines(lines []string) string {
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if blank {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
