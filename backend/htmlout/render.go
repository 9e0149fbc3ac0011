package htmlout

import (
	"fmt"
	"io"
	"strings"

	"github.com/npillmayer/szenar/doctree"
	"github.com/npillmayer/szenar/footnote"
	"github.com/npillmayer/szenar/toc"
	"github.com/npillmayer/szenar/vocab"
	"golang.org/x/net/html"
)

// Options configure a renderer.
type Options struct {
	TOC bool // emit a <nav> with the table of contents before the body
}

// Renderer writes document trees as HTML fragments. A Renderer is
// immutable and safe for concurrent use.
type Renderer struct {
	opts Options
}

// New creates a renderer.
func New(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

// Render writes doc as an HTML fragment: optional TOC nav, the document
// body, then the footnote section. notes and contents may be nil; nil
// notes renders footnote placeholders as reference marks. The only
// errors are w's write errors.
func (r *Renderer) Render(w io.Writer, doc *doctree.Document, notes *footnote.Table, contents *toc.TOC) error {
	e := &emitter{w: w, notes: notes, fnref: make(map[int]bool)}
	if r.opts.TOC {
		e.tocNav(contents)
	}
	if doc != nil && doc.Root != nil {
		e.node(doc.Root)
	}
	e.footnoteSection(notes)
	if e.err != nil {
		tracer().Errorf("HTML rendering failed: %v", e.err)
	}
	return e.err
}

// --- Emitter ----------------------------------------------------------

// emitter writes HTML with a sticky error, so render code reads
// straight-line instead of checking every write.
type emitter struct {
	w     io.Writer
	err   error
	notes *footnote.Table
	fnref map[int]bool // footnote numbers whose forward anchor is out
}

func (e *emitter) s(s string) {
	if e.err != nil {
		return
	}
	_, e.err = io.WriteString(e.w, s)
}

func (e *emitter) f(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func (e *emitter) text(s string) {
	e.s(html.EscapeString(s))
}

// --- Node dispatch ----------------------------------------------------

func (e *emitter) node(n *doctree.Node) {
	switch n.Kind {
	case doctree.DocumentNode:
		e.nodes(n.Children)
	case doctree.ParagraphNode:
		e.s("<p>")
		e.nodes(n.Children)
		e.s("</p>\n")
	case doctree.HardBreakNode:
		e.s("<br>\n")
	case doctree.TextNode:
		e.text(n.Text)
	case doctree.HeadingNode:
		e.heading(n)
	case doctree.ListNode:
		e.list(n)
	case doctree.ListItemNode:
		e.s("<li>")
		e.nodes(n.Children)
		e.s("</li>\n")
	case doctree.DecoratedBlockNode:
		e.decoratedBlock(n)
	case doctree.DecoratedSpanNode:
		e.wrap(n.Directives, nil, vocab.InlineCap, func() {
			e.nodes(n.Children)
		})
	case doctree.ImageNode:
		e.image(n)
	case doctree.TableNode:
		e.table(n)
	case doctree.FootnoteRefNode:
		e.footnoteRef(n)
	case doctree.FootnoteDefNode:
		// only in trees built without a footnote sink
		e.s(`<aside class="footnote">` + "\n")
		e.nodes(n.Children)
		e.s("</aside>\n")
	case doctree.CollapsibleNode:
		e.collapsible(n)
	default:
		tracer().Errorf("renderer cannot handle node kind %s", n.Kind)
	}
}

func (e *emitter) nodes(children []*doctree.Node) {
	for _, c := range children {
		e.node(c)
	}
}

// --- Wrappers ---------------------------------------------------------

// structuralDir finds the directive that shaped the node's kind; its
// element renders through the node kind, not as a wrapper.
func structuralDir(dirs []vocab.StyleDirective) *vocab.StyleDirective {
	for i := range dirs {
		if dirs[i].Keyword.Kind != vocab.DecorationKind {
			return &dirs[i]
		}
	}
	return nil
}

// wrap emits the decoration wrappers of dirs around inner, skipping the
// directive skip. Wrappers nest outermost-first in authoring order.
func (e *emitter) wrap(dirs []vocab.StyleDirective, skip *vocab.StyleDirective, place vocab.Placement, inner func()) {
	var closes []string
	for i := range dirs {
		d := &dirs[i]
		if d == skip {
			continue
		}
		elem := d.Keyword.ElementFor(place)
		if elem == "" {
			continue
		}
		e.openTag(elem, d.Keyword, d.Attrs)
		closes = append(closes, "</"+elem+">")
	}
	inner()
	for i := len(closes) - 1; i >= 0; i-- {
		e.s(closes[i])
	}
}

// openTag writes a start tag carrying the keyword's class and the style
// declarations the keyword table sanctions: extension CSS validated at
// load time plus color attributes, re-checked against the allow-listed
// hex syntax here at the last moment before emission.
func (e *emitter) openTag(elem string, kw *vocab.Keyword, attrs map[string]string) {
	e.s("<" + elem)
	if kw.Class != "" {
		e.s(` class="` + kw.Class + `"`)
	}
	style := kw.Style
	for _, spec := range kw.Attrs {
		if spec.CSS == "" {
			continue
		}
		v := attrs[spec.Key]
		if v == "" || !vocab.ValidAttrValue(spec.Syntax, v) {
			continue
		}
		if style != "" {
			style += "; "
		}
		style += spec.CSS + ": " + v
	}
	if style != "" {
		e.s(` style="` + html.EscapeString(style) + `"`)
	}
	e.s(">")
}

// --- Block forms ------------------------------------------------------

func (e *emitter) heading(n *doctree.Node) {
	level := n.Level
	if level < 1 || level > 5 {
		level = 1
	}
	if n.ID != "" {
		e.f(`<h%d id="%s">`, level, html.EscapeString(n.ID))
	} else {
		e.f("<h%d>", level)
	}
	e.wrap(n.Directives, structuralDir(n.Directives), vocab.InlineCap, func() {
		e.nodes(n.Children)
	})
	e.f("</h%d>\n", level)
}

func (e *emitter) list(n *doctree.Node) {
	elem := "ul"
	if n.Ordered {
		elem = "ol"
	}
	e.s("<" + elem + ">\n")
	e.nodes(n.Children)
	e.s("</" + elem + ">\n")
}

func (e *emitter) decoratedBlock(n *doctree.Node) {
	if isVerbatim(n.Directives) {
		e.wrap(n.Directives, nil, vocab.BlockCap, func() {
			for _, c := range n.Children {
				if c.Kind == doctree.TextNode {
					e.text(c.Text)
					e.s("\n")
				} else {
					e.node(c)
				}
			}
		})
		e.s("\n")
		return
	}
	e.wrap(n.Directives, nil, vocab.BlockCap, func() {
		e.s("\n")
		e.nodes(n.Children)
	})
	e.s("\n")
}

// isVerbatim is true for blocks whose content renders line for line,
// preformatted.
func isVerbatim(dirs []vocab.StyleDirective) bool {
	for _, d := range dirs {
		if d.Keyword.Name == "code" {
			return true
		}
	}
	return false
}

func (e *emitter) collapsible(n *doctree.Node) {
	lead := structuralDir(n.Directives)
	title := ""
	class := ""
	if lead != nil {
		title = lead.Attr("title")
		class = lead.Keyword.Class
	}
	if title == "" {
		if n.Spoiler {
			title = "Spoiler"
		} else {
			title = "Details"
		}
	}
	e.s("<details")
	if class != "" {
		e.s(` class="` + class + `"`)
	}
	if !n.Spoiler {
		e.s(" open")
	}
	e.s("><summary>")
	e.text(title)
	e.s("</summary>\n")
	e.wrap(n.Directives, lead, vocab.BlockCap, func() {
		e.nodes(n.Children)
	})
	e.s("</details>\n")
}

func (e *emitter) table(n *doctree.Node) {
	lead := structuralDir(n.Directives)
	e.wrap(n.Directives, lead, vocab.BlockCap, func() {
		e.s("<table>\n")
		inBody := false
		for _, row := range n.Children {
			if row.Kind != doctree.TableRowNode {
				continue
			}
			if row.Header {
				e.s("<thead>\n")
				e.tableRow(row, "th")
				e.s("</thead>\n")
				continue
			}
			if !inBody {
				e.s("<tbody>\n")
				inBody = true
			}
			e.tableRow(row, "td")
		}
		if inBody {
			e.s("</tbody>\n")
		}
		e.s("</table>")
	})
	e.s("\n")
}

func (e *emitter) tableRow(row *doctree.Node, cell string) {
	e.s("<tr>")
	for _, c := range row.Children {
		if c.Kind != doctree.TableCellNode {
			continue
		}
		e.s("<" + cell + ">")
		e.nodes(c.Children)
		e.s("</" + cell + ">")
	}
	e.s("</tr>\n")
}

// --- Images -----------------------------------------------------------

// validImageRef admits http(s) URLs and scheme-less relative paths;
// every other scheme stays out of src attributes.
func validImageRef(ref string) bool {
	if ref == "" {
		return false
	}
	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return true
	}
	head := ref
	if i := strings.IndexByte(ref, '/'); i >= 0 {
		head = ref[:i]
	}
	return !strings.Contains(head, ":")
}

func (e *emitter) image(n *doctree.Node) {
	alt := ""
	for _, d := range n.Directives {
		if v := d.Attr("alt"); v != "" {
			alt = v
		}
	}
	if alt == "" {
		alt = n.Ref
	}
	e.wrap(n.Directives, structuralDir(n.Directives), vocab.InlineCap, func() {
		e.s("<img")
		if validImageRef(n.Ref) {
			e.s(` src="` + html.EscapeString(n.Ref) + `"`)
		}
		e.s(` alt="` + html.EscapeString(alt) + `">`)
	})
}

// --- Footnotes --------------------------------------------------------

func (e *emitter) footnoteRef(n *doctree.Node) {
	if e.notes != nil {
		if _, isDef := e.notes.IsPlaceholder(n); isDef {
			return // the definition's body renders in the footnote section
		}
		if num := e.notes.Number(n.ID); num > 0 {
			if !e.fnref[num] {
				e.fnref[num] = true
				e.f(`<sup class="footnote-ref" id="fnref-%d"><a href="#fn-%d">%d</a></sup>`, num, num, num)
			} else {
				e.f(`<sup class="footnote-ref"><a href="#fn-%d">%d</a></sup>`, num, num)
			}
			return
		}
	}
	e.s(`<sup class="footnote-ref footnote-missing">`)
	e.text(n.ID)
	e.s("</sup>")
}

func (e *emitter) footnoteSection(notes *footnote.Table) {
	if notes == nil || notes.Len() == 0 {
		return
	}
	e.s("<section class=\"footnotes\">\n<hr>\n<ol>\n")
	for _, entry := range notes.Entries() {
		e.f(`<li id="fn-%d">`, entry.Number)
		e.s("\n")
		if entry.Definition != nil {
			e.nodes(entry.Definition.Children)
		}
		if e.fnref[entry.Number] {
			// a note never referenced has no anchor to point back to
			e.f(`<a href="#fnref-%d" class="footnote-backref">&#8617;</a>`, entry.Number)
		}
		e.s("</li>\n")
	}
	e.s("</ol>\n</section>\n")
}

// --- Table of contents ------------------------------------------------

func (e *emitter) tocNav(contents *toc.TOC) {
	if contents == nil || contents.Empty() {
		return
	}
	e.s("<nav class=\"toc\">\n")
	e.tocList(contents.Entries)
	e.s("</nav>\n")
}

func (e *emitter) tocList(entries []*toc.Entry) {
	e.s("<ol>\n")
	for _, entry := range entries {
		e.s(`<li><a href="#` + html.EscapeString(entry.Slug) + `">`)
		e.text(entry.Title)
		e.s("</a>")
		if len(entry.Children) > 0 {
			e.s("\n")
			e.tocList(entry.Children)
		}
		e.s("</li>\n")
	}
	e.s("</ol>\n")
}
