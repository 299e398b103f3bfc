package content

import (
	"bytes"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// firstHeading returns the text of the first level-1 heading in body.
func firstHeading(body []byte) string {
	root := goldmark.New().Parser().Parse(text.NewReader(body))

	var title string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		h, ok := n.(*gmast.Heading)
		if !ok || h.Level != 1 {
			return gmast.WalkContinue, nil
		}
		title = string(bytes.TrimSpace(nodeText(h, body)))
		return gmast.WalkStop, nil
	})
	return title
}

func nodeText(n gmast.Node, source []byte) []byte {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*gmast.Text); ok {
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
			continue
		}
		buf.Write(nodeText(c, source))
	}
	return buf.Bytes()
}
