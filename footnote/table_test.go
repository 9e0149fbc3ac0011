package footnote

import (
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/szenar/check"
	"github.com/npillmayer/szenar/doctree"
	"github.com/stretchr/testify/assert"
)

func buildWithNotes(src string) (*doctree.Document, *Table) {
	notes := NewTable()
	doc := doctree.NewBuilder(nil, notes).Build(src)
	notes.Seal(doc.Root)
	return doc, notes
}

func TestNumberingFollowsDefinitionOrder(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "szenar.footnote")
	defer teardown()
	//
	src := strings.Join([]string{
		"Early mention of [fn]{zeta}.",
		":::footnote id=alpha",
		"First defined.",
		":::",
		":::footnote id=beta",
		"Second defined.",
		":::",
		"More text [fn]{alpha}.",
		":::footnote id=zeta",
		"Third defined.",
		":::",
	}, "\n")
	doc, notes := buildWithNotes(src)
	assert.Empty(t, doc.Defects)
	assert.Empty(t, notes.Defects())
	assert.Equal(t, 3, notes.Len())
	assert.Equal(t, 1, notes.Number("alpha"))
	assert.Equal(t, 2, notes.Number("beta"))
	assert.Equal(t, 3, notes.Number("zeta"),
		"a forward reference still gets the definition-order number")
	entries := notes.Entries()
	if assert.Len(t, entries, 3) {
		assert.Equal(t, []string{"alpha", "beta", "zeta"},
			[]string{entries[0].ID, entries[1].ID, entries[2].ID})
		assert.Equal(t, "Third defined.", doctree.InnerText(entries[2].Definition))
	}
}

func TestDuplicateDefinitionIsFlaggedNotMerged(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "szenar.footnote")
	defer teardown()
	//
	src := strings.Join([]string{
		":::footnote id=note",
		"First body.",
		":::",
		":::footnote id=note",
		"Second body.",
		":::",
		"See [fn]{note}.",
	}, "\n")
	_, notes := buildWithNotes(src)
	defects := notes.Defects()
	if assert.Len(t, defects, 1) {
		assert.Equal(t, check.DuplicateFootnote, defects[0].Kind)
		assert.Equal(t, check.Warning, defects[0].Severity)
		assert.Equal(t, 4, defects[0].Line)
		assert.Contains(t, defects[0].Message, "already defined on line 1")
	}
	assert.Equal(t, 2, notes.Len(), "the late body is kept, not dropped")
	first, ok := notes.Lookup("note")
	assert.True(t, ok)
	assert.Equal(t, "First body.", doctree.InnerText(first.Definition),
		"references resolve to the first definition")
	second, ok := notes.Lookup("note-2")
	assert.True(t, ok)
	assert.Equal(t, "note", second.Written)
	assert.Equal(t, 2, second.Number)
}

func TestUnknownReference(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "szenar.footnote")
	defer teardown()
	//
	_, notes := buildWithNotes("text [fn]{ghost} and again [fn]{ghost}")
	defects := notes.Defects()
	if assert.Len(t, defects, 1, "one report per dangling id") {
		assert.Equal(t, check.UnknownFootnote, defects[0].Kind)
		assert.Contains(t, defects[0].Message, `"ghost"`)
	}
	assert.Equal(t, 0, notes.Number("ghost"))
}

func TestPlaceholderIsNotAReference(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "szenar.footnote")
	defer teardown()
	//
	doc, notes := buildWithNotes(":::footnote id=solo\nBody.\n:::")
	assert.Empty(t, notes.Defects(),
		"the placeholder marking the definition is no dangling reference")
	entry, ok := notes.IsPlaceholder(doc.Root.Children[0])
	assert.True(t, ok)
	assert.Equal(t, "solo", entry.ID)
	assert.Equal(t, 1, entry.Number)
	_, ok = notes.IsPlaceholder(doc.Root)
	assert.False(t, ok)
}

func TestSealIsIdempotentAndNumbersWait(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "szenar.footnote")
	defer teardown()
	//
	notes := NewTable()
	doc := doctree.NewBuilder(nil, notes).Build(":::footnote id=a\nA.\n:::\n[fn]{ghost}")
	assert.Equal(t, 0, notes.Number("a"), "numbers are assigned at sealing")
	notes.Seal(doc.Root)
	notes.Seal(doc.Root)
	assert.Equal(t, 1, notes.Number("a"))
	assert.Len(t, notes.Defects(), 1, "sealing twice must not double-report")
}
