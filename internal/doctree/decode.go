package doctree

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

var kindsByType = map[string]Kind{
	"doc":               KindDoc,
	"paragraph":         KindParagraph,
	"heading":           KindHeading,
	"bulletList":        KindBulletList,
	"orderedList":       KindOrderedList,
	"listItem":          KindListItem,
	"blockquote":        KindBlockquote,
	"table":             KindTable,
	"tableRow":          KindTableRow,
	"tableCell":         KindTableCell,
	"tableHeader":       KindTableCell,
	"horizontalRule":    KindHorizontalRule,
	"pageBreak":         KindPageBreak,
	"text":              KindText,
	"hardBreak":         KindHardBreak,
	"footnoteReference": KindFootnoteReference,
}

func decodeNode(object map[string]any) *Node {
	rawType, _ := object["type"].(string)
	kind, ok := kindsByType[rawType]
	if !ok {
		kind = KindUnknown
	}
	attrs, _ := object["attrs"].(map[string]any)

	node := &Node{Kind: kind, RawType: rawType}
	switch kind {
	case KindHeading:
		node.Level = 1
		if level, ok := intValue(attrs["level"]); ok {
			node.Level = level
		}
		node.Align = alignValue(attrs["textAlign"])
	case KindParagraph:
		node.Align = alignValue(attrs["textAlign"])
	case KindTableCell:
		node.Header = rawType == "tableHeader"
	case KindText:
		node.Text, _ = object["text"].(string)
		node.Marks = decodeMarks(object["marks"])
	case KindFootnoteReference:
		if number, ok := intValue(attrs["number"]); ok {
			node.Number = &number
		}
		if text, ok := attrs["text"].(string); ok {
			node.FootnoteText = text
		} else if text, ok := attrs["content"].(string); ok {
			node.FootnoteText = text
		}
	}

	if items, ok := object["content"].([]any); ok {
		node.Children = make([]*Node, 0, len(items))
		for _, item := range items {
			child, ok := item.(map[string]any)
			if !ok {
				continue
			}
			node.Children = append(node.Children, decodeNode(child))
		}
	}

	if kind == KindFootnoteReference && node.FootnoteText == "" && len(node.Children) > 0 {
		node.FootnoteText = PlainText(&Node{Kind: KindDoc, Children: node.Children})
	}
	return node
}

func decodeMarks(value any) Marks {
	var marks Marks
	items, ok := value.([]any)
	if !ok {
		return marks
	}
	for _, item := range items {
		mark, ok := item.(map[string]any)
		if !ok {
			continue
		}
		markType, _ := mark["type"].(string)
		switch markType {
		case "bold", "strong":
			marks.Bold = true
		case "italic", "em":
			marks.Italic = true
		case "underline":
			marks.Underline = true
		case "strike", "strikethrough":
			marks.Strike = true
		case "superscript":
			marks.Superscript = true
		case "subscript":
			marks.Subscript = true
		case "link":
			if marks.Link != nil {
				continue
			}
			attrs, _ := mark["attrs"].(map[string]any)
			href, _ := attrs["href"].(string)
			marks.Link = &Link{Href: strings.TrimSpace(href)}
		}
	}
	return marks
}

func alignValue(value any) Align {
	raw, _ := value.(string)
	switch Align(strings.ToLower(strings.TrimSpace(raw))) {
	case AlignLeft:
		return AlignLeft
	case AlignCenter:
		return AlignCenter
	case AlignRight:
		return AlignRight
	case AlignJustify:
		return AlignJustify
	default:
		return AlignNone
	}
}

// intValue accepts the numeric shapes JSON decoding can produce plus numeric
// strings. Fractional values are rejected.
func intValue(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), true
		}
		if f, err := v.Float64(); err == nil {
			return intValue(f)
		}
		return 0, false
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}
