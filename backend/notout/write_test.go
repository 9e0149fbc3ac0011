package notout

import (
	"errors"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/szenar/check"
	"github.com/npillmayer/szenar/doctree"
	"github.com/npillmayer/szenar/footnote"
	"github.com/npillmayer/szenar/toc"
	"github.com/stretchr/testify/assert"
)

// parse builds src the way the full pipeline would: footnotes numbered,
// heading anchors assigned.
func parse(src string) (*doctree.Document, *footnote.Table) {
	notes := footnote.NewTable()
	doc := doctree.NewBuilder(nil, notes).Build(src)
	notes.Seal(doc.Root)
	toc.Build(doc.Root)
	return doc, notes
}

// TestWriteCanonicalFixedPoint feeds a document that is already in
// canonical form and expects the writer to reproduce it byte for byte.
func TestWriteCanonicalFixedPoint(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "szenar.notout")
	defer teardown()
	//
	src := strings.Join([]string{
		":::h1",
		"Opening Scene",
		":::",
		"",
		"plain [bold]{strong} text with[fn]{guide}",
		"",
		"- alpha",
		"- beta",
		"    - nested",
		"",
		"1. one",
		"2. two",
		"",
		":::quote",
		"quoted line",
		"",
		"second quoted",
		":::",
		"",
		":::table",
		"Name | Role",
		"Aldo | guide",
		":::",
		"",
		":::footnote id=guide",
		"The small print.",
		":::",
		"",
		":::code",
		"px := <a>",
		":::quote",
		":::",
	}, "\n") + "\n"
	doc, notes := parse(src)
	assert.Empty(t, doc.Defects)
	//
	var b strings.Builder
	err := Write(&b, doc, notes)
	assert.NoError(t, err)
	assert.Equal(t, src, b.String())
}

func TestWriteCanonicalizesAliases(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "szenar.notout")
	defer teardown()
	//
	src := strings.Join([]string{
		"：：：引用",
		"言葉の重み",
		"：：：",
		"",
		"太字は[太字]{これ}で、[マーカー color=#e6f3ff]{ひかり}も",
	}, "\n")
	doc, notes := parse(src)
	assert.Empty(t, doc.Defects)
	//
	var b strings.Builder
	err := Write(&b, doc, notes)
	assert.NoError(t, err)
	want := strings.Join([]string{
		":::quote",
		"言葉の重み",
		":::",
		"",
		"太字は[bold]{これ}で、[highlight color=#e6f3ff]{ひかり}も",
	}, "\n") + "\n"
	assert.Equal(t, want, b.String())
}

func TestWriteRenumbersOrderedLists(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "szenar.notout")
	defer teardown()
	//
	doc, notes := parse("7. seven\n9. nine")
	var b strings.Builder
	err := Write(&b, doc, notes)
	assert.NoError(t, err)
	assert.Equal(t, "1. seven\n2. nine\n", b.String())
}

// TestWriteTableEmptyRow: a row whose only cell is empty still takes a
// line of its own, since a bare newline would vanish on the next parse.
func TestWriteTableEmptyRow(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "szenar.notout")
	defer teardown()
	//
	src := strings.Join([]string{
		":::table",
		"Name | Role",
		"|",
		"Keeper | guide",
		":::",
	}, "\n") + "\n"
	doc1, notes1 := parse(src)
	table := doc1.Root.Children[0]
	assert.Len(t, table.Children, 3)
	assert.Len(t, table.Children[1].Children, 1, "the lone pipe reads as one empty cell")
	//
	var b strings.Builder
	err := Write(&b, doc1, notes1)
	assert.NoError(t, err)
	assert.Equal(t, src, b.String())
	//
	doc2, _ := parse(b.String())
	assert.True(t, doctree.Equal(doc1.Root, doc2.Root))
}

// TestWriteRoundTripComplex parses authoring-style input (aliases,
// two-space indents, boundary pipes), writes it canonically, and parses
// the output again: both trees must be structurally equal.
func TestWriteRoundTripComplex(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "szenar.notout")
	defer teardown()
	//
	src := strings.Join([]string{
		":::h1",
		"冒険の書",
		":::",
		"",
		"intro [bold+italic]{text} with[fn]{guide} mark",
		"second line",
		"",
		":::h2+highlight color=#ff0",
		"Scene One",
		":::",
		"",
		"- alpha",
		"- beta",
		"  - nested [code]{x<y}",
		"",
		":::box+quote",
		"framed [color color=#800]{tone}",
		"",
		"closing words",
		":::",
		"",
		":::collapse title=背景",
		"hidden prose",
		":::",
		"",
		":::spoiler",
		"the twist",
		":::",
		"",
		":::table",
		"|Name|Role|",
		"|Aldo|[italic]{guide}|",
		":::",
		"",
		":::img alt=地図",
		"maps/forest.png",
		":::",
		"",
		"pin [img]{icons/pin.png} here",
		"",
		":::footnote id=guide",
		"Aldo knows the path.",
		":::",
	}, "\n")
	doc1, notes1 := parse(src)
	assert.Empty(t, doc1.Defects)
	assert.Empty(t, notes1.Defects())
	//
	var b strings.Builder
	err := Write(&b, doc1, notes1)
	assert.NoError(t, err)
	var again strings.Builder
	err = Write(&again, doc1, notes1)
	assert.NoError(t, err)
	assert.Equal(t, b.String(), again.String(), "writer output is deterministic")
	//
	doc2, notes2 := parse(b.String())
	assert.Empty(t, doc2.Defects)
	assert.True(t, doctree.Equal(doc1.Root, doc2.Root),
		"re-parsing the written notation must reproduce the tree")
	assert.Equal(t, notes1.Len(), notes2.Len())
	assert.Equal(t, 1, notes2.Number("guide"))
}

// TestWriteRoundTripDegraded: marker lines the builder kept as literal
// text re-parse into the same degradation, defects included.
func TestWriteRoundTripDegraded(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "szenar.notout")
	defer teardown()
	//
	src := strings.Join([]string{
		"a [blod]{x} b",
		"",
		"[a=b=c]{y}",
		"",
		":::mystery",
		"stray prose",
	}, "\n") + "\n"
	doc1, notes1 := parse(src)
	kinds := make([]check.Kind, len(doc1.Defects))
	for i, d := range doc1.Defects {
		kinds[i] = d.Kind
	}
	assert.Equal(t, []check.Kind{
		check.UnknownKeyword, check.MalformedMarker, check.UnknownKeyword,
	}, kinds)
	//
	var b strings.Builder
	err := Write(&b, doc1, notes1)
	assert.NoError(t, err)
	assert.Equal(t, src, b.String(), "degraded lines stay as written")
	//
	doc2, _ := parse(b.String())
	assert.True(t, doctree.Equal(doc1.Root, doc2.Root))
	assert.Equal(t, doc1.Defects, doc2.Defects)
}

func TestWriteDuplicateFootnoteDefs(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "szenar.notout")
	defer teardown()
	//
	src := strings.Join([]string{
		"first[fn]{note}",
		"",
		":::footnote id=note",
		"First body.",
		":::",
		"",
		":::footnote id=note",
		"Second body.",
		":::",
	}, "\n")
	doc1, notes1 := parse(src)
	assert.Equal(t, 2, notes1.Len())
	//
	var b strings.Builder
	err := Write(&b, doc1, notes1)
	assert.NoError(t, err)
	assert.Equal(t, 2, strings.Count(b.String(), ":::footnote id=note"),
		"duplicates keep the id the author wrote")
	//
	doc2, notes2 := parse(b.String())
	assert.True(t, doctree.Equal(doc1.Root, doc2.Root))
	assert.Equal(t, 2, notes2.Len())
	assert.Len(t, notes2.Defects(), 1, "the duplicate is re-flagged")
}

func TestWriteWithoutTable(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "szenar.notout")
	defer teardown()
	//
	src := "see[fn]{x}\n:::footnote id=x\nbody\n:::"
	doc, _ := parse(src)
	var b strings.Builder
	err := Write(&b, doc, nil)
	assert.NoError(t, err)
	assert.Equal(t, 2, strings.Count(b.String(), "[fn]{x}"),
		"without the table a placeholder is just a reference mark")
	assert.NotContains(t, b.String(), ":::footnote")
	//
	// built without a sink, the definition sits in the tree itself
	doc = doctree.NewBuilder(nil, nil).Build(src)
	b.Reset()
	err = Write(&b, doc, nil)
	assert.NoError(t, err)
	assert.Contains(t, b.String(), ":::footnote id=x\nbody\n:::")
}

func TestWriteHeadingWithTrappedList(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "szenar.notout")
	defer teardown()
	//
	src := ":::h2\nTitle\n- item\n:::\n"
	doc, notes := parse(src)
	var b strings.Builder
	err := Write(&b, doc, notes)
	assert.NoError(t, err)
	assert.Equal(t, src, b.String())
}

func TestWriteEmptyDocument(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "szenar.notout")
	defer teardown()
	//
	var b strings.Builder
	assert.NoError(t, Write(&b, nil, nil))
	assert.Empty(t, b.String())
}

func TestWritePropagatesWriteError(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "szenar.notout")
	defer teardown()
	//
	doc, notes := parse("a line of text")
	err := Write(failWriter{}, doc, notes)
	assert.Error(t, err)
}

type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) { return 0, errors.New("wall") }
