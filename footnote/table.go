package footnote

import (
	"fmt"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/npillmayer/szenar/check"
	"github.com/npillmayer/szenar/doctree"
)

// Entry is one footnote of a document.
type Entry struct {
	ID          string        // unique key; differs from Written for re-defined ids
	Written     string        // the id as the author wrote it
	Number      int           // 1-based; 0 until the table is sealed
	Definition  *doctree.Node // the definition's body
	Placeholder *doctree.Node // node standing where the definition was written
	Line        int           // source line of the definition
}

// Table collects the footnotes of one document and hands out their
// numbers. It implements doctree.FootnoteSink; hand it to the builder,
// then Seal it once the tree is complete.
type Table struct {
	entries      *linkedhashmap.Map       // key → *Entry, in definition order
	placeholders map[*doctree.Node]*Entry // definition placeholders by identity
	defects      []check.Diagnostic
	sealed       bool
}

// NewTable creates an empty footnote table.
func NewTable() *Table {
	return &Table{
		entries:      linkedhashmap.New(),
		placeholders: make(map[*doctree.Node]*Entry),
	}
}

// AddDefinition records a footnote definition. Re-defining an id is a
// collision: the late definition is flagged, not merged away. It stays
// in the table under a disambiguated key, so its body still renders,
// while references to the id keep resolving to the first definition.
func (t *Table) AddDefinition(id string, def *doctree.Node, placeholder *doctree.Node) {
	key := id
	if v, ok := t.entries.Get(id); ok {
		first := v.(*Entry)
		tracer().Infof("footnote %q re-defined on line %d", id, def.Line)
		t.defects = append(t.defects, check.Diagnostic{
			Line:     def.Line,
			Column:   1,
			Severity: check.Warning,
			Kind:     check.DuplicateFootnote,
			Message: fmt.Sprintf("footnote %q is already defined on line %d — references point to the first definition",
				id, first.Line),
		})
		for i := 2; ; i++ {
			key = fmt.Sprintf("%s-%d", id, i)
			if _, taken := t.entries.Get(key); !taken {
				break
			}
		}
	}
	entry := &Entry{
		ID:          key,
		Written:     id,
		Definition:  def,
		Placeholder: placeholder,
		Line:        def.Line,
	}
	t.entries.Put(key, entry)
	t.placeholders[placeholder] = entry
}

// Seal numbers the footnotes 1…N in definition order. Numbering waits
// for the full document, so body text may reference a footnote defined
// further down and still receive the right number. Seal also walks the
// tree for references to ids that were never defined. Sealing twice is
// a no-op.
func (t *Table) Seal(root *doctree.Node) {
	if t.sealed {
		return
	}
	t.sealed = true
	next := 1
	t.entries.Each(func(_ interface{}, v interface{}) {
		v.(*Entry).Number = next
		next++
	})
	reported := make(map[string]bool)
	doctree.Walk(root, func(n *doctree.Node) bool {
		if n.Kind != doctree.FootnoteRefNode {
			return true
		}
		if _, isDef := t.placeholders[n]; isDef {
			return true // marks a definition's position, not a reference
		}
		if _, ok := t.entries.Get(n.ID); !ok && !reported[n.ID] {
			reported[n.ID] = true
			t.defects = append(t.defects, check.Diagnostic{
				Line:     n.Line,
				Column:   1,
				Severity: check.Warning,
				Kind:     check.UnknownFootnote,
				Message:  fmt.Sprintf("footnote %q is referenced but never defined", n.ID),
			})
		}
		return true
	})
	tracer().Debugf("sealed footnote table with %d entries", t.entries.Size())
}

// Lookup finds a footnote by id. References hit the first definition of
// their id; disambiguated keys of re-defined ids work too.
func (t *Table) Lookup(id string) (*Entry, bool) {
	v, ok := t.entries.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*Entry), true
}

// Number returns the footnote's number, or 0 when the id is unknown or
// the table not yet sealed.
func (t *Table) Number(id string) int {
	if e, ok := t.Lookup(id); ok {
		return e.Number
	}
	return 0
}

// IsPlaceholder tells whether node marks the position a footnote
// definition was written at, and if so, whose.
func (t *Table) IsPlaceholder(node *doctree.Node) (*Entry, bool) {
	e, ok := t.placeholders[node]
	return e, ok
}

// Entries lists the footnotes in definition order, which after sealing
// is number order.
func (t *Table) Entries() []*Entry {
	entries := make([]*Entry, 0, t.entries.Size())
	t.entries.Each(func(_ interface{}, v interface{}) {
		entries = append(entries, v.(*Entry))
	})
	return entries
}

// Len is the number of footnote entries, re-definitions included.
func (t *Table) Len() int {
	return t.entries.Size()
}

// Defects lists duplicate definitions and dangling references, in the
// order they were noticed.
func (t *Table) Defects() []check.Diagnostic {
	return t.defects
}

var _ doctree.FootnoteSink = &Table{}
