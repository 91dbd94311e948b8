package doctree

import "strings"

// PlainText flattens a tree to text for indexing and similarity queries.
// Paragraph-level blocks end with a newline; footnote markers are dropped.
func PlainText(n *Node) string {
	var b strings.Builder
	writePlain(&b, n)
	return strings.TrimSpace(b.String())
}

func writePlain(b *strings.Builder, n *Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case KindText:
		b.WriteString(n.Text)
		return
	case KindHardBreak:
		b.WriteByte('\n')
		return
	case KindFootnoteReference, KindHorizontalRule, KindPageBreak:
		return
	}
	for _, child := range n.Children {
		writePlain(b, child)
	}
	if n.Kind == KindParagraph || n.Kind == KindHeading {
		b.WriteByte('\n')
	}
}
