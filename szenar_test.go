package szenar

import (
	"strings"
	"sync"
	"testing"

	"github.com/andybalholm/cascadia"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/szenar/check"
	"github.com/npillmayer/szenar/doctree"
	"github.com/npillmayer/szenar/vocab"
	"github.com/stretchr/testify/assert"
	"golang.org/x/net/html"
)

// query parses an HTML fragment and returns the nodes matching the
// given CSS selector.
func query(t *testing.T, fragment, sel string) []*html.Node {
	t.Helper()
	root, err := html.Parse(strings.NewReader(fragment))
	assert.NoError(t, err)
	return cascadia.MustCompile(sel).MatchAll(root)
}

func attrOf(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func TestToHTML(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "szenar.pipeline")
	defer teardown()
	//
	src := strings.Join([]string{
		":::h1",
		"Alpha",
		":::",
		"",
		"meet [bold]{Aldo} the guide[fn]{guide}",
		"",
		":::h2",
		"Beta",
		":::",
		"",
		":::footnote id=guide",
		"Knows the path.",
		":::",
	}, "\n")
	out, diags := ToHTML(src)
	assert.Empty(t, diags)
	assert.Len(t, query(t, out, "nav.toc"), 1)
	assert.Len(t, query(t, out, "h1#alpha"), 1)
	assert.Len(t, query(t, out, "h2#beta"), 1)
	assert.Len(t, query(t, out, "p strong"), 1)
	assert.Len(t, query(t, out, "sup.footnote-ref"), 1)
	assert.Len(t, query(t, out, "section.footnotes li#fn-1"), 1)
}

// TestProcessMergesDiagnostics: a defect that both the builder and the
// validator notice is listed once.
func TestProcessMergesDiagnostics(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "szenar.pipeline")
	defer teardown()
	//
	pipe := NewPipeline(Options{})
	result := pipe.Process(":::box\nsee [blod]{x}")
	kinds := make([]check.Kind, len(result.Diagnostics))
	for i, d := range result.Diagnostics {
		kinds[i] = d.Kind
	}
	assert.Equal(t, []check.Kind{check.MissingBlockClose, check.UnknownKeyword}, kinds)
}

func TestProcessTOCPresence(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "szenar.pipeline")
	defer teardown()
	//
	pipe := NewPipeline(Options{})
	one := pipe.Process(":::h1\nOnly\n:::")
	assert.Nil(t, one.TOC, "a single heading needs no contents")
	assert.Equal(t, 1, one.TOCStats.Entries)
	//
	two := pipe.Process(":::h1\nA\n:::\n:::h2\nB\n:::")
	assert.NotNil(t, two.TOC)
	assert.Equal(t, 2, two.TOCStats.Entries)
	assert.Equal(t, 2, two.TOCStats.MaxDepth)
}

func TestProcessFootnoteNumbering(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "szenar.pipeline")
	defer teardown()
	//
	src := strings.Join([]string{
		"a[fn]{z} b[fn]{a}",
		":::footnote id=a",
		"A.",
		":::",
		":::footnote id=z",
		"Z.",
		":::",
	}, "\n")
	result := NewPipeline(Options{}).Process(src)
	assert.Empty(t, result.Diagnostics)
	assert.Equal(t, 1, result.Footnotes.Number("a"), "numbers follow definition order")
	assert.Equal(t, 2, result.Footnotes.Number("z"))
}

func TestProcessReportsDanglingFootnote(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "szenar.pipeline")
	defer teardown()
	//
	result := NewPipeline(Options{}).Process("ghost[fn]{ghost}")
	assert.Len(t, result.Diagnostics, 1)
	assert.Equal(t, check.UnknownFootnote, result.Diagnostics[0].Kind)
}

func TestProcessEmptyInput(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "szenar.pipeline")
	defer teardown()
	//
	pipe := NewPipeline(Options{TOC: true})
	result := pipe.Process("")
	assert.NotNil(t, result.Doc)
	assert.Empty(t, result.Diagnostics)
	assert.Nil(t, result.TOC)
	assert.Equal(t, 0, result.Footnotes.Len())
	//
	var b strings.Builder
	assert.NoError(t, pipe.RenderHTML(&b, result))
	assert.Empty(t, b.String())
}

func TestRenderNotationRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "szenar.pipeline")
	defer teardown()
	//
	src := strings.Join([]string{
		"：：：見出し1",
		"冒険の書",
		"：：：",
		"",
		"intro [太字+italic]{text} with[fn]{guide}",
		"",
		"- alpha",
		"- beta",
		"",
		":::引用",
		"quoted",
		":::",
		"",
		":::footnote id=guide",
		"Aldo knows the path.",
		":::",
	}, "\n")
	pipe := NewPipeline(Options{})
	r1 := pipe.Process(src)
	assert.Empty(t, r1.Diagnostics)
	//
	var b strings.Builder
	assert.NoError(t, pipe.RenderNotation(&b, r1))
	assert.Contains(t, b.String(), ":::h1", "aliases write back under canonical names")
	assert.Contains(t, b.String(), "[bold+italic]{text}")
	//
	r2 := pipe.Process(b.String())
	assert.Empty(t, r2.Diagnostics)
	assert.True(t, doctree.Equal(r1.Doc.Root, r2.Doc.Root))
}

func TestPipelineWithExtendedVocabulary(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "szenar.pipeline")
	defer teardown()
	//
	const extensions = `
[[keyword]]
name = "warning"
alias = "警告"
element = "div"
class = "warning"
placement = "block"
style = "border: 1px solid #c00"
`
	exts, err := vocab.LoadExtensions([]byte(extensions))
	assert.NoError(t, err)
	table, err := vocab.NewTable(exts...)
	assert.NoError(t, err)
	//
	pipe := NewPipeline(Options{Table: table})
	result := pipe.Process(":::警告\ntread lightly\n:::")
	assert.Empty(t, result.Diagnostics)
	var b strings.Builder
	assert.NoError(t, pipe.RenderHTML(&b, result))
	divs := query(t, b.String(), "div.warning")
	if assert.Len(t, divs, 1) {
		assert.Equal(t, "border: 1px solid #c00", attrOf(divs[0], "style"))
	}
	//
	b.Reset()
	assert.NoError(t, pipe.RenderNotation(&b, result))
	assert.Contains(t, b.String(), ":::warning")
}

func TestPipelineConcurrentUse(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "szenar.pipeline")
	defer teardown()
	//
	src := strings.Join([]string{
		":::h1",
		"Alpha",
		":::",
		"see [blod]{x} and[fn]{guide}",
		":::footnote id=guide",
		"Path.",
		":::",
		":::h2",
		"Beta",
		":::",
	}, "\n")
	pipe := NewPipeline(Options{TOC: true})
	results := make([]*Result, 8)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = pipe.Process(src)
		}(i)
	}
	wg.Wait()
	for _, r := range results[1:] {
		assert.True(t, doctree.Equal(results[0].Doc.Root, r.Doc.Root))
		assert.Equal(t, results[0].Diagnostics, r.Diagnostics)
	}
}
