// Package doctree models the rich-text document tree produced by the editor
// (Tiptap/ProseMirror JSON) as a closed set of node kinds.
package doctree

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind identifies the variant of a Node.
type Kind int

const (
	KindUnknown Kind = iota
	KindDoc
	KindParagraph
	KindHeading
	KindBulletList
	KindOrderedList
	KindListItem
	KindBlockquote
	KindTable
	KindTableRow
	KindTableCell
	KindHorizontalRule
	KindPageBreak
	KindText
	KindHardBreak
	KindFootnoteReference
)

var kindNames = map[Kind]string{
	KindUnknown:           "unknown",
	KindDoc:               "doc",
	KindParagraph:         "paragraph",
	KindHeading:           "heading",
	KindBulletList:        "bulletList",
	KindOrderedList:       "orderedList",
	KindListItem:          "listItem",
	KindBlockquote:        "blockquote",
	KindTable:             "table",
	KindTableRow:          "tableRow",
	KindTableCell:         "tableCell",
	KindHorizontalRule:    "horizontalRule",
	KindPageBreak:         "pageBreak",
	KindText:              "text",
	KindHardBreak:         "hardBreak",
	KindFootnoteReference: "footnoteReference",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Align is a paragraph-level text alignment. The zero value means "not set".
type Align string

const (
	AlignNone    Align = ""
	AlignLeft    Align = "left"
	AlignCenter  Align = "center"
	AlignRight   Align = "right"
	AlignJustify Align = "justify"
)

// Marks is the set of character styles applied to a text run. Each mark type
// appears at most once.
type Marks struct {
	Bold        bool
	Italic      bool
	Underline   bool
	Strike      bool
	Superscript bool
	Subscript   bool
	Link        *Link
}

// Link carries the target of a link mark. Href may be empty when the editor
// did not supply one.
type Link struct {
	Href string
}

// Empty reports whether no mark is set.
func (m Marks) Empty() bool {
	return !m.Bold && !m.Italic && !m.Underline && !m.Strike && !m.Superscript && !m.Subscript && m.Link == nil
}

// Node is one element of the document tree. Which fields are meaningful
// depends on Kind:
//
//	Heading            Level (1..6 as authored), Align
//	Paragraph          Align
//	TableCell          Header
//	Text               Text, Marks
//	FootnoteReference  Number (nil when absent or unparseable), FootnoteText
//	Unknown            RawType
type Node struct {
	Kind         Kind
	RawType      string
	Level        int
	Align        Align
	Header       bool
	Text         string
	Marks        Marks
	Number       *int
	FootnoteText string
	Children     []*Node
}

// Parse decodes editor JSON into a tree. It only fails on invalid JSON;
// structurally odd input degrades to Unknown nodes.
func Parse(data []byte) (*Node, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return &Node{Kind: KindDoc}, nil
	}
	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("decode document tree: %w", err)
	}
	return FromValue(value), nil
}

// FromValue converts an already-decoded JSON value (maps, slices, scalars as
// produced by encoding/json) into a tree. Values that are not objects become
// an empty Unknown node.
func FromValue(value any) *Node {
	object, ok := value.(map[string]any)
	if !ok {
		return &Node{Kind: KindUnknown}
	}
	return decodeNode(object)
}

// TopLevel returns the nodes a renderer walks at the top of the document:
// the children of a doc (or untyped) root, or the root itself otherwise.
func TopLevel(root *Node) []*Node {
	if root == nil {
		return nil
	}
	if root.Kind == KindDoc || root.Kind == KindUnknown {
		return root.Children
	}
	return []*Node{root}
}

// ChildrenOfKind returns the direct children with the given kind.
func (n *Node) ChildrenOfKind(kind Kind) []*Node {
	if n == nil {
		return nil
	}
	out := make([]*Node, 0, len(n.Children))
	for _, child := range n.Children {
		if child != nil && child.Kind == kind {
			out = append(out, child)
		}
	}
	return out
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		Walk(child, fn)
	}
}
