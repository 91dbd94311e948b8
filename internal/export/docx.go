package export

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	docx "github.com/fumiama/go-docx"

	"lexdraft/api/internal/doctree"
)

const (
	letterWidthTwips  = 12240
	letterHeightTwips = 15840
	headingBeforeTwip = 240 // 12pt
	ruleBeforeTwips   = 120 // 6pt
	quoteIndentTwips  = 720 // 0.5in
	listIndentTwips   = 720
	listHangingTwips  = 360
)

var headingSizes = [...]int{14, 13, 12}

// paragraphAdder is satisfied by both the document body and table cells.
type paragraphAdder interface {
	AddParagraph() *docx.Paragraph
}

type flowRenderer struct {
	doc     *docx.Docx
	preset  Preset
	plan    *footnotePlan
	counter int
}

// RenderDOCX compiles a document tree into a WordprocessingML package using
// the named preset. The title is not written into the body; callers use it
// for the download filename. Identical inputs yield identical bytes.
func RenderDOCX(root *doctree.Node, title, presetName string) ([]byte, error) {
	r := &flowRenderer{
		doc:    docx.New().WithDefaultTheme(),
		preset: ResolvePreset(presetName),
		plan:   planFootnotes(root),
	}
	for _, node := range doctree.TopLevel(root) {
		r.renderNode(node)
	}
	r.renderFootnotes()
	r.pageSetup()

	var buf bytes.Buffer
	if _, err := r.doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write docx %q: %w", title, err)
	}
	out, err := repackSorted(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("repack docx: %w", err)
	}
	return out, nil
}

func (r *flowRenderer) renderNode(node *doctree.Node) {
	if node == nil {
		return
	}
	switch node.Kind {
	case doctree.KindHeading:
		r.renderHeading(node)
	case doctree.KindParagraph:
		r.renderParagraph(node)
	case doctree.KindBulletList:
		r.renderList(node, false)
	case doctree.KindOrderedList:
		r.renderList(node, true)
	case doctree.KindBlockquote:
		for _, child := range node.ChildrenOfKind(doctree.KindParagraph) {
			p := r.bodyParagraph(r.doc)
			p.Properties.Ind = &docx.Ind{Left: quoteIndentTwips}
			r.align(p, child.Align)
			r.applyFragments(p, ExtractInline(child))
		}
	case doctree.KindHorizontalRule:
		p := r.doc.AddParagraph()
		p.Properties = &docx.ParagraphProperties{
			Spacing: &docx.Spacing{Before: ruleBeforeTwips},
		}
		r.align(p, doctree.AlignNone)
		run := r.addRun(p, strings.Repeat("_", 60))
		run.Size(halfPoints(8))
	case doctree.KindPageBreak:
		r.doc.AddParagraph().AddPageBreaks()
	case doctree.KindTable:
		r.renderTable(node)
	default:
		// hardBreak at the top level and unknown kinds produce nothing
	}
}

func (r *flowRenderer) renderHeading(node *doctree.Node) {
	level := clampHeading(node.Level)
	p := r.doc.AddParagraph()
	p.Properties = &docx.ParagraphProperties{
		Spacing: &docx.Spacing{Before: headingBeforeTwip},
	}
	r.align(p, node.Align)
	size := headingSizes[level-1]
	for _, run := range r.applyFragmentsSized(p, ExtractInline(node), size) {
		run.Bold()
	}
}

func (r *flowRenderer) renderParagraph(node *doctree.Node) {
	fragments := ExtractInline(node)
	if isBlank(fragments) {
		r.bodyParagraph(r.doc)
		return
	}
	r.counter++
	p := r.bodyParagraph(r.doc)
	if r.preset.NumberedParagraphs {
		r.addRun(p, strconv.Itoa(r.counter)+". ")
	}
	r.align(p, node.Align)
	r.applyFragments(p, fragments)
}

func (r *flowRenderer) renderList(node *doctree.Node, ordered bool) {
	for i, item := range node.ChildrenOfKind(doctree.KindListItem) {
		for j, child := range item.ChildrenOfKind(doctree.KindParagraph) {
			p := r.bodyParagraph(r.doc)
			p.Properties.Ind = &docx.Ind{Left: listIndentTwips, Hanging: listHangingTwips}
			r.align(p, child.Align)
			if j == 0 {
				prefix := "• "
				if ordered {
					prefix = strconv.Itoa(i+1) + ". "
				}
				r.addRun(p, prefix)
			}
			r.applyFragments(p, ExtractInline(child))
		}
	}
}

func (r *flowRenderer) renderTable(node *doctree.Node) {
	rows := node.ChildrenOfKind(doctree.KindTableRow)
	if len(rows) == 0 {
		return
	}
	cols := 1
	for _, row := range rows {
		if n := len(row.ChildrenOfKind(doctree.KindTableCell)); n > cols {
			cols = n
		}
	}

	table := r.doc.AddTable(len(rows), cols, 0, nil)
	for i, row := range rows {
		cells := row.ChildrenOfKind(doctree.KindTableCell)
		for j, target := range table.TableRows[i].TableCells {
			if j < len(cells) {
				for _, child := range cells[j].ChildrenOfKind(doctree.KindParagraph) {
					r.applyFragments(r.bodyParagraph(target), ExtractInline(child))
				}
			}
			if len(target.Paragraphs) == 0 {
				target.AddParagraph()
			}
		}
	}
}

func (r *flowRenderer) renderFootnotes() {
	entries := r.plan.table.Entries()
	if len(entries) == 0 {
		return
	}
	r.doc.AddParagraph().AddPageBreaks()

	heading := r.doc.AddParagraph()
	heading.Properties = &docx.ParagraphProperties{
		Spacing: &docx.Spacing{Before: headingBeforeTwip},
	}
	r.align(heading, doctree.AlignNone)
	r.addRunSized(heading, "Footnotes", headingSizes[0]).Bold()

	for _, entry := range entries {
		p := r.bodyParagraph(r.doc)
		marker := r.addRun(p, fmt.Sprintf("[%d]", entry.Number))
		marker.RunProperties.VertAlign = &docx.VertAlign{Val: "superscript"}
		r.addRun(p, " "+entry.Text)
	}
}

func (r *flowRenderer) pageSetup() {
	margin := r.preset.MarginTwips()
	r.doc.Document.Body.Items = append(r.doc.Document.Body.Items, &docx.SectPr{
		PgSz: &docx.PgSz{W: letterWidthTwips, H: letterHeightTwips},
		PgMar: &docx.PgMar{
			Top:    margin,
			Left:   margin,
			Bottom: margin,
			Right:  margin,
			Header: 720,
			Footer: 720,
		},
	})
}

// bodyParagraph adds a paragraph carrying the preset's line spacing and
// alignment.
func (r *flowRenderer) bodyParagraph(dst paragraphAdder) *docx.Paragraph {
	p := dst.AddParagraph()
	p.Properties = &docx.ParagraphProperties{
		Spacing: &docx.Spacing{Line: r.preset.LineTwips(), LineRule: "auto"},
	}
	r.align(p, doctree.AlignNone)
	return p
}

// align sets jc on the paragraph itself, since the Normal style of the
// default theme is justified. AlignNone means the preset's alignment.
func (r *flowRenderer) align(p *docx.Paragraph, nodeAlign doctree.Align) {
	jc := justification(nodeAlign)
	if jc == "" {
		jc = justification(r.preset.Align)
	}
	if jc != "" {
		p.Justification(jc)
	}
}

func (r *flowRenderer) applyFragments(p *docx.Paragraph, fragments []Fragment) []*docx.Run {
	return r.applyFragmentsSized(p, fragments, r.preset.FontSize)
}

func (r *flowRenderer) applyFragmentsSized(p *docx.Paragraph, fragments []Fragment, size int) []*docx.Run {
	runs := make([]*docx.Run, 0, len(fragments))
	for _, fragment := range fragments {
		switch f := fragment.(type) {
		case TextFragment:
			if f.Content == "" {
				continue
			}
			run := r.addRunSized(p, f.Content, size)
			applyMarks(run, f.Marks)
			runs = append(runs, run)
		case BreakFragment:
			runs = append(runs, r.addRunSized(p, "\n", size))
		case FootnoteFragment:
			n := r.plan.numberFor(f)
			run := r.addRunSized(p, fmt.Sprintf("[%d]", n), size)
			run.RunProperties.VertAlign = &docx.VertAlign{Val: "superscript"}
			runs = append(runs, run)
		}
	}
	return runs
}

func (r *flowRenderer) addRun(p *docx.Paragraph, text string) *docx.Run {
	return r.addRunSized(p, text, r.preset.FontSize)
}

func (r *flowRenderer) addRunSized(p *docx.Paragraph, text string, size int) *docx.Run {
	run := p.AddText(text)
	for _, child := range run.Children {
		if t, ok := child.(*docx.Text); ok {
			t.XMLSpace = "preserve"
		}
	}
	font := r.preset.FontFamily
	run.Font(font, font, font, "")
	run.Size(halfPoints(size))
	return run
}

func applyMarks(run *docx.Run, marks doctree.Marks) {
	if marks.Bold {
		run.Bold()
	}
	if marks.Italic {
		run.Italic()
	}
	if marks.Underline {
		run.Underline("single")
	}
	if marks.Strike {
		run.Strike(true)
	}
	switch {
	case marks.Superscript:
		run.RunProperties.VertAlign = &docx.VertAlign{Val: "superscript"}
	case marks.Subscript:
		run.RunProperties.VertAlign = &docx.VertAlign{Val: "subscript"}
	}
}

func clampHeading(level int) int {
	if level < 1 {
		return 1
	}
	if level > 3 {
		return 3
	}
	return level
}

func justification(align doctree.Align) string {
	switch align {
	case doctree.AlignLeft:
		return "left"
	case doctree.AlignCenter:
		return "center"
	case doctree.AlignRight:
		return "right"
	case doctree.AlignJustify:
		return "both"
	default:
		return ""
	}
}
