package export

import (
	"sort"

	"lexdraft/api/internal/doctree"
)

// FootnoteEntry is one numbered footnote of a render pass.
type FootnoteEntry struct {
	Number int
	Text   string
}

// FootnoteTable accumulates footnotes for a single render call. It is not
// safe for concurrent use and must not be shared across calls.
type FootnoteTable struct {
	entries map[int]*FootnoteEntry
}

func NewFootnoteTable() *FootnoteTable {
	return &FootnoteTable{entries: make(map[int]*FootnoteEntry)}
}

// Next is the fallback number for a reference that declares none.
func (t *FootnoteTable) Next() int {
	return len(t.entries) + 1
}

// Len returns the number of distinct footnote numbers registered.
func (t *FootnoteTable) Len() int {
	return len(t.entries)
}

// Register records a footnote and returns its resolved number: the declared
// number when present, fallback otherwise. Re-registering a number only fills
// in text that was empty.
func (t *FootnoteTable) Register(number *int, text string, fallback int) int {
	resolved := fallback
	if number != nil {
		resolved = *number
	}
	if existing, ok := t.entries[resolved]; ok {
		if existing.Text == "" && text != "" {
			existing.Text = text
		}
		return resolved
	}
	t.entries[resolved] = &FootnoteEntry{Number: resolved, Text: text}
	return resolved
}

// Entries returns the registered footnotes sorted by number.
func (t *FootnoteTable) Entries() []FootnoteEntry {
	out := make([]FootnoteEntry, 0, len(t.entries))
	for _, entry := range t.entries {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// footnotePlan is the result of the pre-pass: the filled table plus the
// number each reference node resolved to.
type footnotePlan struct {
	table   *FootnoteTable
	numbers map[*doctree.Node]int
}

func planFootnotes(root *doctree.Node) *footnotePlan {
	plan := &footnotePlan{
		table:   NewFootnoteTable(),
		numbers: make(map[*doctree.Node]int),
	}
	doctree.Walk(root, func(n *doctree.Node) bool {
		if n.Kind == doctree.KindFootnoteReference {
			plan.numbers[n] = plan.table.Register(n.Number, n.FootnoteText, plan.table.Next())
			return false
		}
		return true
	})
	return plan
}

// numberFor returns the pre-resolved number of a reference. References the
// pre-pass did not see are registered on the spot.
func (p *footnotePlan) numberFor(f FootnoteFragment) int {
	if f.Ref != nil {
		if n, ok := p.numbers[f.Ref]; ok {
			return n
		}
	}
	n := p.table.Register(f.Number, f.Text, p.table.Next())
	if f.Ref != nil {
		p.numbers[f.Ref] = n
	}
	return n
}

// CollectFootnotes walks the whole tree in document order and returns the
// deduplicated footnotes sorted by number. It does not modify the tree.
func CollectFootnotes(root *doctree.Node) []FootnoteEntry {
	return planFootnotes(root).table.Entries()
}
