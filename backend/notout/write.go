package notout

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/npillmayer/szenar/doctree"
	"github.com/npillmayer/szenar/footnote"
	"github.com/npillmayer/szenar/scan"
	"github.com/npillmayer/szenar/vocab"
)

// Write emits doc as canonical notation. notes supplies the bodies of
// footnote definitions, which the tree only holds placeholders for; a
// nil notes emits placeholders as plain reference marks. The only
// errors are w's write errors.
func Write(w io.Writer, doc *doctree.Document, notes *footnote.Table) error {
	e := &emitter{w: w, notes: notes}
	if doc != nil && doc.Root != nil {
		e.blocks(doc.Root.Children)
	}
	if e.err != nil {
		tracer().Errorf("notation writing failed: %v", e.err)
	}
	return e.err
}

type emitter struct {
	w     io.Writer
	err   error
	notes *footnote.Table
}

func (e *emitter) s(s string) {
	if e.err != nil {
		return
	}
	_, e.err = io.WriteString(e.w, s)
}

// --- Block emission ---------------------------------------------------

// blocks writes sibling block nodes, a blank line between neighbors so
// that paragraphs and lists do not fuse when the output is parsed again.
func (e *emitter) blocks(children []*doctree.Node) {
	for i, c := range children {
		if i > 0 {
			e.s("\n")
		}
		e.block(c)
	}
}

func (e *emitter) block(n *doctree.Node) {
	switch n.Kind {
	case doctree.ParagraphNode:
		e.paragraph(n.Children)
	case doctree.HeadingNode:
		e.marked(n.Directives, func() {
			e.headingBody(n.Children)
		})
	case doctree.ListNode:
		e.list(n, 0)
	case doctree.DecoratedBlockNode:
		if isVerbatim(n.Directives) {
			e.marked(n.Directives, func() {
				for _, c := range n.Children {
					if c.Kind == doctree.TextNode {
						e.s(c.Text + "\n")
					} else {
						e.block(c)
					}
				}
			})
			return
		}
		e.marked(n.Directives, func() {
			e.blocks(n.Children)
		})
	case doctree.CollapsibleNode:
		e.marked(n.Directives, func() {
			e.blocks(n.Children)
		})
	case doctree.TableNode:
		e.marked(n.Directives, func() {
			for _, row := range n.Children {
				if row.Kind == doctree.TableRowNode {
					e.tableRow(row)
				}
			}
		})
	case doctree.ImageNode:
		e.marked(n.Directives, func() {
			if n.Ref != "" {
				e.s(n.Ref + "\n")
			}
		})
	case doctree.FootnoteRefNode:
		if e.notes != nil {
			if entry, ok := e.notes.IsPlaceholder(n); ok {
				e.footnoteDef(entry.Written, entry.Definition)
				return
			}
		}
		e.s("[fn]{" + n.ID + "}\n")
	case doctree.FootnoteDefNode:
		e.footnoteDef(n.ID, n)
	case doctree.TextNode:
		e.s(n.Text + "\n")
	case doctree.HardBreakNode:
		// nothing: breaks only carry meaning inside paragraphs
	default:
		tracer().Errorf("notation writer cannot handle node kind %s", n.Kind)
	}
}

// marked brackets body lines between a block-open marker built from dirs
// and the block-close marker.
func (e *emitter) marked(dirs []vocab.StyleDirective, body func()) {
	e.s(scan.BlockDelimiter + chainString(dirs) + "\n")
	body()
	e.s(scan.BlockDelimiter + "\n")
}

func (e *emitter) footnoteDef(id string, def *doctree.Node) {
	e.s(scan.BlockDelimiter + "footnote id=" + id + "\n")
	if def != nil {
		e.blocks(def.Children)
	}
	e.s(scan.BlockDelimiter + "\n")
}

// paragraph writes inline children as text lines, one per hard break.
func (e *emitter) paragraph(children []*doctree.Node) {
	line := &strings.Builder{}
	for _, c := range children {
		if c.Kind == doctree.HardBreakNode {
			e.s(line.String() + "\n")
			line.Reset()
			continue
		}
		e.inline(line, c)
	}
	e.s(line.String() + "\n")
}

// headingBody writes a heading's children: the inline run as content
// lines, then whatever block content got trapped inside the heading.
func (e *emitter) headingBody(children []*doctree.Node) {
	run, blocks := splitInlineRun(children)
	if len(run) > 0 {
		e.paragraph(run)
	}
	for _, b := range blocks {
		e.block(b)
	}
}

func (e *emitter) list(n *doctree.Node, depth int) {
	indent := strings.Repeat(" ", depth*4)
	number := 1
	for _, item := range n.Children {
		if item.Kind != doctree.ListItemNode {
			continue
		}
		marker := "-"
		if n.Ordered {
			marker = strconv.Itoa(number) + "."
			number++
		}
		run, blocks := splitInlineRun(item.Children)
		line := &strings.Builder{}
		for _, c := range run {
			e.inline(line, c)
		}
		e.s(indent + marker + " " + line.String() + "\n")
		for _, b := range blocks {
			if b.Kind == doctree.ListNode {
				e.list(b, depth+1)
			} else {
				e.block(b)
			}
		}
	}
}

func (e *emitter) tableRow(row *doctree.Node) {
	cells := make([]string, 0, len(row.Children))
	for _, c := range row.Children {
		if c.Kind != doctree.TableCellNode {
			continue
		}
		cell := &strings.Builder{}
		for _, child := range c.Children {
			e.inline(cell, child)
		}
		cells = append(cells, cell.String())
	}
	line := strings.Join(cells, " | ")
	if line == "" {
		line = "|" // an empty join would write a blank line and lose the row
	}
	e.s(line + "\n")
}

// --- Inline emission --------------------------------------------------

func (e *emitter) inline(b *strings.Builder, n *doctree.Node) {
	switch n.Kind {
	case doctree.TextNode:
		b.WriteString(n.Text)
	case doctree.DecoratedSpanNode:
		b.WriteString("[" + chainString(n.Directives) + "]{")
		for _, c := range n.Children {
			e.inline(b, c)
		}
		b.WriteString("}")
	case doctree.FootnoteRefNode:
		b.WriteString("[fn]{" + n.ID + "}")
	case doctree.ImageNode:
		b.WriteString("[" + chainString(n.Directives) + "]{" + n.Ref + "}")
	case doctree.HardBreakNode:
		b.WriteString("\n")
	default:
		tracer().Errorf("node kind %s has no inline notation", n.Kind)
	}
}

// splitInlineRun separates a child list into its leading run of inline
// nodes and the block nodes following it.
func splitInlineRun(children []*doctree.Node) (run, blocks []*doctree.Node) {
	for i, c := range children {
		switch c.Kind {
		case doctree.TextNode, doctree.DecoratedSpanNode, doctree.FootnoteRefNode,
			doctree.ImageNode, doctree.HardBreakNode:
			continue
		default:
			return children[:i], children[i:]
		}
	}
	return children, nil
}

// chainString reconstructs a marker's keyword-string from its directive
// list: canonical names joined by '+', the attribute clause last, where
// parsing will attach it back to the final keyword.
func chainString(dirs []vocab.StyleDirective) string {
	var b strings.Builder
	attr := ""
	for i, d := range dirs {
		if i > 0 {
			b.WriteByte('+')
		}
		b.WriteString(d.Keyword.Name)
		for k, v := range d.Attrs {
			attr = fmt.Sprintf(" %s=%s", k, v)
		}
	}
	b.WriteString(attr)
	return b.String()
}

// isVerbatim is true for blocks whose lines were captured verbatim.
func isVerbatim(dirs []vocab.StyleDirective) bool {
	for _, d := range dirs {
		if d.Keyword.Name == "code" {
			return true
		}
	}
	return false
}
