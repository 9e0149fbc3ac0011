package szenar

import (
	"io"
	"strings"

	"github.com/npillmayer/szenar/backend/htmlout"
	"github.com/npillmayer/szenar/backend/notout"
	"github.com/npillmayer/szenar/check"
	"github.com/npillmayer/szenar/doctree"
	"github.com/npillmayer/szenar/footnote"
	"github.com/npillmayer/szenar/toc"
	"github.com/npillmayer/szenar/vocab"
)

// Options configure a pipeline.
type Options struct {
	Table *vocab.Table // keyword vocabulary; nil selects the builtin table
	TOC   bool         // include a table-of-contents nav in rendered HTML
}

// Pipeline processes notation documents. A pipeline is immutable after
// construction; the keyword table inside it is read-only. Concurrent
// callers may share one pipeline, since every Process call runs on
// state of its own.
type Pipeline struct {
	table    *vocab.Table
	renderer *htmlout.Renderer
}

// NewPipeline creates a pipeline.
func NewPipeline(opts Options) *Pipeline {
	table := opts.Table
	if table == nil {
		table = vocab.Builtin()
	}
	return &Pipeline{
		table:    table,
		renderer: htmlout.New(htmlout.Options{TOC: opts.TOC}),
	}
}

// Result is everything one Process call derives from a document.
type Result struct {
	Doc       *doctree.Document
	TOC       *toc.TOC // nil when the document has fewer than two headings
	TOCStats  toc.Stats
	Footnotes *footnote.Table

	// Diagnostics merges the validator's report with the structural
	// defects of builder, footnote table and TOC: sorted by position,
	// deduplicated on (kind, line, column), so a defect both stages
	// notice is listed once.
	Diagnostics []check.Diagnostic
}

// Process parses src and derives the table of contents and the footnote
// numbering. Process never fails; syntax trouble shows up in the
// result's diagnostics, not as an error.
func (p *Pipeline) Process(src string) *Result {
	notes := footnote.NewTable()
	doc := doctree.NewBuilder(p.table, notes).Build(src)
	notes.Seal(doc.Root)
	contents := toc.Build(doc.Root)

	diags := check.New(p.table).Check(src)
	diags = append(diags, doc.Defects...)
	diags = append(diags, notes.Defects()...)
	diags = append(diags, contents.Defects()...)
	check.Sort(diags)
	diags = check.Dedupe(diags)

	result := &Result{
		Doc:         doc,
		TOCStats:    contents.Stats,
		Footnotes:   notes,
		Diagnostics: diags,
	}
	if !contents.Empty() {
		result.TOC = contents
	}
	tracer().Infof("processed document: %d diagnostic(s), %d footnote(s), %d heading(s)",
		len(diags), notes.Len(), contents.Stats.Entries)
	return result
}

// RenderHTML writes the result as an HTML fragment: optional TOC nav,
// body, footnote section.
func (p *Pipeline) RenderHTML(w io.Writer, result *Result) error {
	return p.renderer.Render(w, result.Doc, result.Footnotes, result.TOC)
}

// RenderNotation writes the result back out as canonical notation text.
// Parsing that text again yields a structurally equal document.
func (p *Pipeline) RenderNotation(w io.Writer, result *Result) error {
	return notout.Write(w, result.Doc, result.Footnotes)
}

// ToHTML is the one-call form: builtin vocabulary, TOC enabled. It
// returns the rendered fragment and the merged diagnostics.
func ToHTML(src string) (string, []check.Diagnostic) {
	pipe := NewPipeline(Options{TOC: true})
	result := pipe.Process(src)
	var b strings.Builder
	if err := pipe.RenderHTML(&b, result); err != nil {
		tracer().Errorf("rendering to string failed: %v", err)
	}
	return b.String(), result.Diagnostics
}
