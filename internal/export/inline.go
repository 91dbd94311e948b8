package export

import (
	"strings"

	"lexdraft/api/internal/doctree"
)

// Fragment is one inline piece of a paragraph-level node. The concrete types
// are TextFragment, BreakFragment and FootnoteFragment.
type Fragment interface {
	fragment()
}

// TextFragment is a run of text with its marks.
type TextFragment struct {
	Content string
	Marks   doctree.Marks
}

// BreakFragment is a hard line break.
type BreakFragment struct{}

// FootnoteFragment is a footnote reference marker. Ref is the source node,
// used to look up the number resolved by the footnote pre-pass.
type FootnoteFragment struct {
	Number *int
	Text   string
	Ref    *doctree.Node
}

func (TextFragment) fragment()     {}
func (BreakFragment) fragment()    {}
func (FootnoteFragment) fragment() {}

// ExtractInline projects the direct text, hardBreak and footnoteReference
// children of node into fragments, preserving order. Other children are
// skipped.
func ExtractInline(node *doctree.Node) []Fragment {
	if node == nil {
		return nil
	}
	fragments := make([]Fragment, 0, len(node.Children))
	for _, child := range node.Children {
		if child == nil {
			continue
		}
		switch child.Kind {
		case doctree.KindText:
			fragments = append(fragments, TextFragment{Content: child.Text, Marks: child.Marks})
		case doctree.KindHardBreak:
			fragments = append(fragments, BreakFragment{})
		case doctree.KindFootnoteReference:
			fragments = append(fragments, FootnoteFragment{Number: child.Number, Text: child.FootnoteText, Ref: child})
		}
	}
	return fragments
}

// isBlank reports whether fragments carry nothing printable. A footnote
// marker counts as content.
func isBlank(fragments []Fragment) bool {
	for _, f := range fragments {
		switch v := f.(type) {
		case TextFragment:
			if strings.TrimSpace(v.Content) != "" {
				return false
			}
		case FootnoteFragment:
			return false
		}
	}
	return true
}
