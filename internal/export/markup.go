package export

import (
	"fmt"
	"html"
	"html/template"
	"strconv"
	"strings"

	"lexdraft/api/internal/doctree"
)

type markupRenderer struct {
	preset  Preset
	plan    *footnotePlan
	counter int
}

// RenderHTML compiles a document tree into a standalone HTML page styled by
// the named preset. Footnotes are resolved up front and listed at the end.
func RenderHTML(root *doctree.Node, title, presetName string) (string, error) {
	preset := ResolvePreset(presetName)
	r := &markupRenderer{preset: preset, plan: planFootnotes(root)}

	var body strings.Builder
	for _, node := range doctree.TopLevel(root) {
		body.WriteString(r.renderBlock(node, true))
	}

	entries := r.plan.table.Entries()
	footnotes := make([]TemplateFootnote, 0, len(entries))
	for _, entry := range entries {
		footnotes = append(footnotes, TemplateFootnote{Number: entry.Number, Text: entry.Text})
	}

	out, err := RenderDocumentHTML(TemplateData{
		Title:       title,
		FontFamily:  preset.FontFamily,
		FontSize:    preset.FontSize,
		LineHeight:  preset.LineHeight(),
		Margin:      strconv.FormatFloat(preset.MarginInches, 'f', -1, 64),
		ContentHTML: template.HTML(body.String()),
		Footnotes:   footnotes,
	})
	if err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return out, nil
}

// renderBlock renders one block node. Only top-level paragraphs take part in
// paragraph numbering.
func (r *markupRenderer) renderBlock(node *doctree.Node, topLevel bool) string {
	if node == nil {
		return ""
	}
	switch node.Kind {
	case doctree.KindHeading:
		level := clampHeading(node.Level)
		content := r.renderInline(ExtractInline(node))
		return fmt.Sprintf("<h%d%s>%s</h%d>\n", level, alignStyle(node.Align), content, level)
	case doctree.KindParagraph:
		return r.renderParagraph(node, topLevel)
	case doctree.KindBulletList:
		return fmt.Sprintf("<ul>\n%s</ul>\n", r.renderItems(node))
	case doctree.KindOrderedList:
		return fmt.Sprintf("<ol>\n%s</ol>\n", r.renderItems(node))
	case doctree.KindBlockquote:
		var content strings.Builder
		for _, child := range node.Children {
			content.WriteString(r.renderBlock(child, false))
		}
		return fmt.Sprintf("<blockquote>\n%s</blockquote>\n", content.String())
	case doctree.KindHorizontalRule:
		return "<hr>\n"
	case doctree.KindPageBreak:
		return "<div class=\"page-break\"></div>\n"
	case doctree.KindTable:
		return r.renderTable(node)
	default:
		return ""
	}
}

func (r *markupRenderer) renderParagraph(node *doctree.Node, topLevel bool) string {
	fragments := ExtractInline(node)
	style := alignStyle(node.Align)
	if isBlank(fragments) {
		return fmt.Sprintf("<p%s></p>\n", style)
	}
	prefix := ""
	if topLevel {
		r.counter++
		if r.preset.NumberedParagraphs {
			prefix = strconv.Itoa(r.counter) + ". "
		}
	}
	return fmt.Sprintf("<p%s>%s%s</p>\n", style, prefix, r.renderInline(fragments))
}

func (r *markupRenderer) renderItems(list *doctree.Node) string {
	var out strings.Builder
	for _, item := range list.ChildrenOfKind(doctree.KindListItem) {
		paragraphs := make([]string, 0, len(item.Children))
		var nested strings.Builder
		for _, child := range item.Children {
			if child == nil {
				continue
			}
			if child.Kind == doctree.KindParagraph {
				paragraphs = append(paragraphs, r.renderInline(ExtractInline(child)))
				continue
			}
			nested.WriteString(r.renderBlock(child, false))
		}
		fmt.Fprintf(&out, "<li>%s%s</li>\n", strings.Join(paragraphs, "<br>"), nested.String())
	}
	return out.String()
}

func (r *markupRenderer) renderTable(node *doctree.Node) string {
	rows := node.ChildrenOfKind(doctree.KindTableRow)
	if len(rows) == 0 {
		return ""
	}
	var out strings.Builder
	out.WriteString("<table>\n")
	for _, row := range rows {
		out.WriteString("<tr>\n")
		for _, cell := range row.ChildrenOfKind(doctree.KindTableCell) {
			tag := "td"
			if cell.Header {
				tag = "th"
			}
			paragraphs := make([]string, 0, len(cell.Children))
			for _, child := range cell.ChildrenOfKind(doctree.KindParagraph) {
				paragraphs = append(paragraphs, r.renderInline(ExtractInline(child)))
			}
			fmt.Fprintf(&out, "<%s>%s</%s>\n", tag, strings.Join(paragraphs, "<br>"), tag)
		}
		out.WriteString("</tr>\n")
	}
	out.WriteString("</table>\n")
	return out.String()
}

func (r *markupRenderer) renderInline(fragments []Fragment) string {
	var out strings.Builder
	for _, fragment := range fragments {
		switch f := fragment.(type) {
		case TextFragment:
			out.WriteString(wrapMarks(html.EscapeString(f.Content), f.Marks))
		case BreakFragment:
			out.WriteString("<br>")
		case FootnoteFragment:
			n := r.plan.numberFor(f)
			fmt.Fprintf(&out, `<sup class="footnote-ref"><a href="#fn-%d">[%d]</a></sup>`, n, n)
		}
	}
	return out.String()
}

// wrapMarks wraps already-escaped text so that bold ends up outermost and a
// link innermost.
func wrapMarks(text string, marks doctree.Marks) string {
	if text == "" {
		return ""
	}
	if marks.Link != nil {
		text = fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(safeHref(marks.Link.Href)), text)
	}
	switch {
	case marks.Superscript:
		text = fmt.Sprintf("<sup>%s</sup>", text)
	case marks.Subscript:
		text = fmt.Sprintf("<sub>%s</sub>", text)
	}
	if marks.Strike {
		text = fmt.Sprintf("<s>%s</s>", text)
	}
	if marks.Underline {
		text = fmt.Sprintf("<u>%s</u>", text)
	}
	if marks.Italic {
		text = fmt.Sprintf("<em>%s</em>", text)
	}
	if marks.Bold {
		text = fmt.Sprintf("<strong>%s</strong>", text)
	}
	return text
}

func safeHref(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return "#"
	}
	lower := strings.ToLower(href)
	for _, scheme := range []string{"javascript:", "vbscript:", "data:"} {
		if strings.HasPrefix(lower, scheme) {
			return "#"
		}
	}
	return href
}

func alignStyle(align doctree.Align) string {
	if align == doctree.AlignNone {
		return ""
	}
	return fmt.Sprintf(` style="text-align:%s"`, align)
}
