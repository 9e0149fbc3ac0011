package doctree

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/npillmayer/szenar/check"
	"github.com/npillmayer/szenar/scan"
	"github.com/npillmayer/szenar/vocab"
)

// Builder assembles document trees from notation source. Builders are
// cheap and may be reused; each Build call runs on fresh state.
type Builder struct {
	table *vocab.Table
	sink  FootnoteSink
}

// NewBuilder creates a builder resolving keywords against table; nil
// selects the builtin vocabulary. sink receives footnote definitions as
// they close; with a nil sink, definitions stay in the tree at the spot
// they were written.
func NewBuilder(table *vocab.Table, sink FootnoteSink) *Builder {
	if table == nil {
		table = vocab.Builtin()
	}
	return &Builder{table: table, sink: sink}
}

// Build parses src into a document tree. Build never fails: markers that
// cannot be understood stay in the tree as the literal characters the
// author typed, blocks left open at end of input are closed as if the
// close marker stood on the last line, and each such patch-up lands in
// the document's defect list.
func (b *Builder) Build(src string) *Document {
	r := &run{
		table: b.table,
		sink:  b.sink,
		doc:   &Document{},
		stack: []*frame{{kind: DocumentNode, line: 1}},
	}
	for i, raw := range scan.SplitLines(src) {
		line := scan.NormalizeDelimiters(raw)
		r.consume(i+1, line)
		r.offset += len(line) + 1
	}
	r.finish()
	tracer().Debugf("built document with %d defect(s)", len(r.doc.Defects))
	return r.doc
}

// --- Builder state ---------------------------------------------------

// run is the per-document state of one Build call.
type run struct {
	table  *vocab.Table
	sink   FootnoteSink
	doc    *Document
	stack  []*frame
	lists  []listLevel
	para   []*Node // inline nodes of the pending paragraph
	line   int     // line the pending paragraph started on
	offset int     // byte offset of the current line in the normalized source
}

// frame is one open block on the builder stack. Children collect as the
// block's content lines arrive; seal wraps them into nodes when the block
// closes.
type frame struct {
	kind       NodeKind
	directives []vocab.StyleDirective
	keywords   string // keyword-string as written, for defect messages
	line       int
	column     int
	start, end int // byte span of the open marker
	level      int
	spoiler    bool
	code       bool
	id         string // footnote identifier
	children   []*Node
	raw        []string // image frames: reference text lines
}

type listLevel struct {
	indent int
	list   *Node
}

func (r *run) top() *frame { return r.stack[len(r.stack)-1] }

func (r *run) push(f *frame) { r.stack = append(r.stack, f) }

func (r *run) pop() *frame {
	f := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	return f
}

// appendNodes hangs nodes below the innermost open frame.
func (r *run) appendNodes(nodes ...*Node) {
	top := r.top()
	top.children = append(top.children, nodes...)
}

func (r *run) defect(d check.Diagnostic) {
	tracer().Debugf("builder defect %s", d)
	r.doc.Defects = append(r.doc.Defects, d)
}

// inCode is true while any open frame renders its content verbatim.
func (r *run) inCode() bool {
	for _, f := range r.stack {
		if f.code {
			return true
		}
	}
	return false
}

// --- Line dispatch ---------------------------------------------------

// consume processes one delimiter-normalized source line. Inside a
// verbatim block only the bare close delimiter keeps its structural
// meaning; every other line becomes a text line child, one node per
// line, so code samples may show block markers.
func (r *run) consume(lineNo int, line string) {
	if r.inCode() {
		// inside a code fence only the bare close delimiter is structural
		if strings.HasPrefix(line, scan.BlockDelimiter) {
			if spans := scan.ScanLine(line); spans[0].Kind == scan.BlockClose {
				r.blockClose(lineNo, line)
				return
			}
		}
		r.appendNodes(&Node{Kind: TextNode, Text: line, Line: lineNo})
		return
	}
	if strings.TrimSpace(line) == "" {
		r.flushPara()
		r.closeLists()
		return
	}
	spans := scan.ScanLine(line)
	if len(spans) == 1 {
		switch spans[0].Kind {
		case scan.BlockOpen:
			r.blockOpen(lineNo, line, spans[0])
			return
		case scan.BlockClose:
			r.blockClose(lineNo, line)
			return
		}
	}
	switch r.top().kind {
	case TableNode:
		r.tableRow(lineNo, line)
		return
	case ImageNode:
		r.top().raw = append(r.top().raw, strings.TrimSpace(line))
		return
	}
	if indent, ordered, content, ok := listItem(line); ok {
		r.listLine(lineNo, line, indent, ordered, content)
		return
	}
	r.closeLists()
	r.paraAppend(lineNo, r.inlineNodes(lineNo, line, 0, line))
}

// --- Block frames ----------------------------------------------------

func (r *run) blockOpen(lineNo int, line string, span scan.Span) {
	r.flushPara()
	r.closeLists()
	res, err := r.table.Resolve(span.Keywords)
	if err != nil {
		r.resolveDefect(lineNo, line, span.KeywordStart, span.Keywords, err)
		r.paraAppend(lineNo, []*Node{{Kind: TextNode, Text: line, Line: lineNo}})
		return
	}
	if !r.placementOK(lineNo, line, span.KeywordStart, span.Keywords, res.Directives, vocab.BlockCap) {
		r.paraAppend(lineNo, []*Node{{Kind: TextNode, Text: line, Line: lineNo}})
		return
	}
	f := &frame{
		kind:       DecoratedBlockNode,
		directives: res.Directives,
		keywords:   span.Keywords,
		line:       lineNo,
		column:     check.ColumnAt(line, span.Start),
		start:      r.offset + span.Start,
		end:        r.offset + span.End,
	}
	for _, d := range res.Directives {
		if d.Keyword.Name == "code" {
			f.code = true
		}
	}
	if lead := structural(res.Directives); lead != nil {
		switch lead.Keyword.Kind {
		case vocab.HeadingKind:
			f.kind = HeadingNode
			f.level = lead.Keyword.Level
		case vocab.CollapseKind:
			f.kind = CollapsibleNode
		case vocab.SpoilerKind:
			f.kind = CollapsibleNode
			f.spoiler = true
		case vocab.FootnoteDefKind:
			if id := lead.Attr("id"); id != "" {
				f.kind = FootnoteDefNode
				f.id = id
			} else {
				r.defect(check.Diagnostic{
					Line:     lineNo,
					Column:   check.ColumnAt(line, span.KeywordStart),
					Severity: check.Error,
					Kind:     check.BadAttrValue,
					Message:  "footnote definition needs an identifier — write :::footnote id=name",
					Start:    r.offset + span.KeywordStart,
					End:      r.offset + span.End,
				})
			}
		case vocab.ImageKind:
			f.kind = ImageNode
		case vocab.TableKind:
			f.kind = TableNode
		}
	}
	tracer().Debugf("line %d: open %s block ':::%s'", lineNo, f.kind, span.Keywords)
	r.push(f)
}

func (r *run) blockClose(lineNo int, line string) {
	r.flushPara()
	r.closeLists()
	if len(r.stack) == 1 {
		r.defect(check.Diagnostic{
			Line:     lineNo,
			Column:   1,
			Severity: check.Warning,
			Kind:     check.StrayBlockClose,
			Message:  "':::' closes nothing — no block is open here",
			Start:    r.offset,
			End:      r.offset + len(line),
		})
		return
	}
	f := r.pop()
	tracer().Debugf("line %d: close %s block from line %d", lineNo, f.kind, f.line)
	r.appendNodes(r.seal(f)...)
}

// seal turns a closed frame into tree nodes. Table frames may return
// trailing extra nodes: children that are not rows (nested blocks opened
// inside the table) become siblings following the table.
func (r *run) seal(f *frame) []*Node {
	switch f.kind {
	case HeadingNode:
		return []*Node{{
			Kind:       HeadingNode,
			Directives: f.directives,
			Level:      f.level,
			Line:       f.line,
			Children:   flattenInline(f.children),
		}}
	case CollapsibleNode:
		return []*Node{{
			Kind:       CollapsibleNode,
			Directives: f.directives,
			Spoiler:    f.spoiler,
			Line:       f.line,
			Children:   f.children,
		}}
	case FootnoteDefNode:
		def := &Node{Kind: FootnoteDefNode, ID: f.id, Directives: f.directives, Line: f.line, Children: f.children}
		if r.sink == nil {
			return []*Node{def}
		}
		placeholder := &Node{Kind: FootnoteRefNode, ID: f.id, Line: f.line}
		r.sink.AddDefinition(f.id, def, placeholder)
		return []*Node{placeholder}
	case TableNode:
		table := &Node{Kind: TableNode, Directives: f.directives, Line: f.line}
		var extra []*Node
		for _, c := range f.children {
			if c.Kind == TableRowNode {
				table.AppendChild(c)
			} else {
				extra = append(extra, c)
			}
		}
		return append([]*Node{table}, extra...)
	case ImageNode:
		img := &Node{
			Kind:       ImageNode,
			Directives: f.directives,
			Ref:        strings.TrimSpace(strings.Join(f.raw, " ")),
			Line:       f.line,
		}
		return append([]*Node{img}, f.children...)
	}
	return []*Node{{Kind: DecoratedBlockNode, Directives: f.directives, Line: f.line, Children: f.children}}
}

// flattenInline lifts paragraph content up into the parent, joining
// multiple paragraphs with hard breaks. Headings hold inline content
// directly; a paragraph element inside a heading would be illegal HTML.
func flattenInline(children []*Node) []*Node {
	var out []*Node
	for _, c := range children {
		if c.Kind != ParagraphNode {
			out = append(out, c)
			continue
		}
		if len(out) > 0 {
			out = append(out, &Node{Kind: HardBreakNode, Line: c.Line})
		}
		out = append(out, c.Children...)
	}
	return out
}

func (r *run) finish() {
	r.flushPara()
	r.closeLists()
	for len(r.stack) > 1 {
		f := r.pop()
		r.defect(check.Diagnostic{
			Line:     f.line,
			Column:   f.column,
			Severity: check.Error,
			Kind:     check.MissingBlockClose,
			Message: fmt.Sprintf("block ':::%s' is never closed — add a line holding only ':::' to close it",
				f.keywords),
			Start: f.start,
			End:   f.end,
		})
		r.appendNodes(r.seal(f)...)
	}
	root := r.stack[0]
	r.doc.Root = &Node{Kind: DocumentNode, Line: 1, Children: root.children}
	check.Sort(r.doc.Defects)
}

// --- Paragraphs ------------------------------------------------------

// paraAppend adds inline nodes to the pending paragraph, starting one if
// none is open. Consecutive text lines join with a hard break.
func (r *run) paraAppend(lineNo int, nodes []*Node) {
	if len(nodes) == 0 {
		return
	}
	if len(r.para) == 0 {
		r.line = lineNo
	} else {
		r.para = append(r.para, &Node{Kind: HardBreakNode, Line: lineNo})
	}
	r.para = append(r.para, nodes...)
}

func (r *run) flushPara() {
	if len(r.para) == 0 {
		return
	}
	para := &Node{Kind: ParagraphNode, Line: r.line, Children: r.para}
	r.para = nil
	r.appendNodes(para)
}

// --- Lists -----------------------------------------------------------

var listItemPattern = regexp.MustCompile(`^([ \t]*)([-*]|[0-9]+\.)[ \t](.*)$`)

// listItem splits a list-item line into indentation width, numbering
// style and content. A tab counts as four columns of indentation.
func listItem(line string) (indent int, ordered bool, content string, ok bool) {
	m := listItemPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false, "", false
	}
	for _, ch := range m[1] {
		if ch == '\t' {
			indent += 4
		} else {
			indent++
		}
	}
	return indent, m[2][0] >= '0' && m[2][0] <= '9', strings.TrimLeft(m[3], " \t"), true
}

func (r *run) listLine(lineNo int, line string, indent int, ordered bool, content string) {
	r.flushPara()
	for len(r.lists) > 0 && r.lists[len(r.lists)-1].indent > indent {
		r.lists = r.lists[:len(r.lists)-1]
	}
	if n := len(r.lists); n > 0 {
		top := r.lists[n-1]
		if top.indent == indent && top.list.Ordered != ordered {
			r.lists = r.lists[:n-1] // numbering style switched, start a new list
		}
	}
	if len(r.lists) == 0 || r.lists[len(r.lists)-1].indent < indent {
		list := &Node{Kind: ListNode, Ordered: ordered, Line: lineNo}
		r.attachList(list)
		r.lists = append(r.lists, listLevel{indent: indent, list: list})
	}
	item := &Node{
		Kind:     ListItemNode,
		Line:     lineNo,
		Children: r.inlineNodes(lineNo, line, len(line)-len(content), content),
	}
	r.lists[len(r.lists)-1].list.AppendChild(item)
}

// attachList hangs a new list below the last item of the enclosing list,
// or below the current frame for an outermost list.
func (r *run) attachList(list *Node) {
	if len(r.lists) > 0 {
		parent := r.lists[len(r.lists)-1].list
		if n := len(parent.Children); n > 0 {
			parent.Children[n-1].AppendChild(list)
			return
		}
	}
	r.appendNodes(list)
}

// closeLists ends all open lists. The list nodes are already attached to
// their parents, so closing is dropping the level stack.
func (r *run) closeLists() {
	r.lists = nil
}

// --- Tables ----------------------------------------------------------

// tableRow splits a content line inside a table frame into cells. The
// first row of a table is its header row.
func (r *run) tableRow(lineNo int, line string) {
	top := r.top()
	header := true
	for _, c := range top.children {
		if c.Kind == TableRowNode {
			header = false
			break
		}
	}
	row := &Node{Kind: TableRowNode, Line: lineNo, Header: header}
	cells := cellBounds(line)
	for _, bounds := range cells {
		cell := strings.TrimSpace(line[bounds[0]:bounds[1]])
		lead := strings.Index(line[bounds[0]:bounds[1]], cell)
		row.AppendChild(&Node{
			Kind:     TableCellNode,
			Line:     lineNo,
			Children: r.inlineNodes(lineNo, line, bounds[0]+lead, cell),
		})
	}
	top.children = append(top.children, row)
}

// cellBounds locates the cells of a table row: segments between '|'
// separators, skipping separators that sit inside an inline marker. A
// leading or trailing empty segment from boundary pipes is dropped.
func cellBounds(line string) [][2]int {
	spans := scan.InlineSpans(line)
	var bounds [][2]int
	start := 0
	for i := 0; i < len(line); i++ {
		if line[i] != '|' {
			continue
		}
		inside := false
		for _, s := range spans {
			if i >= s.Start && i < s.End {
				inside = true
				break
			}
		}
		if inside {
			continue
		}
		bounds = append(bounds, [2]int{start, i})
		start = i + 1
	}
	bounds = append(bounds, [2]int{start, len(line)})
	if len(bounds) > 1 && strings.TrimSpace(line[bounds[0][0]:bounds[0][1]]) == "" {
		bounds = bounds[1:]
	}
	if n := len(bounds); n > 1 && strings.TrimSpace(line[bounds[n-1][0]:bounds[n-1][1]]) == "" {
		bounds = bounds[:n-1]
	}
	return bounds
}

// --- Inline content --------------------------------------------------

// inlineNodes parses a segment of body text into inline nodes. line is
// the full source line and base the segment's byte offset within it;
// both feed positions of diagnostics on nested markers.
func (r *run) inlineNodes(lineNo int, line string, base int, text string) []*Node {
	spans := scan.InlineSpans(text)
	var nodes []*Node
	pos := 0
	for _, span := range spans {
		if span.Start > pos {
			nodes = append(nodes, &Node{Kind: TextNode, Text: text[pos:span.Start], Line: lineNo})
		}
		nodes = append(nodes, r.inlineNode(lineNo, line, base, text, span))
		pos = span.End
	}
	if pos < len(text) {
		nodes = append(nodes, &Node{Kind: TextNode, Text: text[pos:], Line: lineNo})
	}
	return nodes
}

// inlineNode turns one inline group into a node. Groups that do not
// resolve fall back to a text node holding the marker characters as
// written.
func (r *run) inlineNode(lineNo int, line string, base int, text string, span scan.Span) *Node {
	literal := &Node{Kind: TextNode, Text: text[span.Start:span.End], Line: lineNo}
	res, err := r.table.Resolve(span.Keywords)
	if err != nil {
		r.resolveDefect(lineNo, line, base+span.KeywordStart, span.Keywords, err)
		return literal
	}
	if !r.placementOK(lineNo, line, base+span.KeywordStart, span.Keywords, res.Directives, vocab.InlineCap) {
		return literal
	}
	content := span.Content
	if lead := structural(res.Directives); lead != nil {
		switch lead.Keyword.Kind {
		case vocab.FootnoteRefKind:
			id := strings.TrimSpace(content)
			if !vocab.ValidAttrValue(vocab.AttrToken, id) {
				r.defect(check.Diagnostic{
					Line:     lineNo,
					Column:   check.ColumnAt(line, base+span.ContentStart),
					Severity: check.Error,
					Kind:     check.BadAttrValue,
					Message: fmt.Sprintf("footnote reference %q is not an identifier — letters, digits, '-' and '_' only",
						id),
					Start: r.offset + base + span.ContentStart,
					End:   r.offset + base + span.ContentStart + len(content),
				})
				return literal
			}
			return &Node{Kind: FootnoteRefNode, ID: id, Line: lineNo}
		case vocab.ImageKind:
			return &Node{
				Kind:       ImageNode,
				Directives: res.Directives,
				Ref:        strings.TrimSpace(content),
				Line:       lineNo,
			}
		}
	}
	node := &Node{Kind: DecoratedSpanNode, Directives: res.Directives, Line: lineNo}
	for _, d := range res.Directives {
		if d.Keyword.Name == "code" {
			node.Children = []*Node{{Kind: TextNode, Text: content, Line: lineNo}}
			return node
		}
	}
	node.Children = r.inlineNodes(lineNo, line, base+span.ContentStart, content)
	return node
}

// --- Defect reporting ------------------------------------------------

// structural returns the first directive that shapes its frame or span
// into something other than a plain decorated wrapper.
func structural(dirs []vocab.StyleDirective) *vocab.StyleDirective {
	for i := range dirs {
		if dirs[i].Keyword.Kind != vocab.DecorationKind {
			return &dirs[i]
		}
	}
	return nil
}

// placementOK verifies every keyword may appear in the given position.
// Position and wording of the defect match the validator's report, so
// merged defect lists collapse to a single entry.
func (r *run) placementOK(lineNo int, line string, keywordStart int, keywords string,
	dirs []vocab.StyleDirective, place vocab.Placement) bool {
	//
	ok := true
	chain, err := vocab.ParseChain(keywords)
	if err != nil {
		return true // resolveDefect already handled unparsable strings
	}
	for i, d := range dirs {
		if d.Keyword.AllowedIn(place) {
			continue
		}
		var msg string
		if place == vocab.InlineCap {
			msg = fmt.Sprintf("keyword %q only works in block markers — write :::%s on its own line",
				d.Keyword.Name, d.Keyword.Name)
		} else {
			msg = fmt.Sprintf("keyword %q only works in inline markers — write [%s]{…} within a line",
				d.Keyword.Name, d.Keyword.Name)
		}
		nameOff := keywordStart + chain.Offsets[i]
		r.defect(check.Diagnostic{
			Line:     lineNo,
			Column:   check.ColumnAt(line, nameOff),
			Severity: check.Error,
			Kind:     check.BadPlacement,
			Message:  msg,
			Start:    r.offset + nameOff,
			End:      r.offset + nameOff + len(chain.Names[i]),
		})
		ok = false
	}
	return ok
}

// resolveDefect records why a keyword-string failed to resolve, placed
// and worded like the validator's report.
func (r *run) resolveDefect(lineNo int, line string, keywordStart int, keywords string, err error) {
	var unknown *vocab.UnknownKeywordError
	if errors.As(err, &unknown) {
		off := keywordStart + unknown.Offset
		msg := fmt.Sprintf("unknown keyword %q", unknown.Token)
		if hint := r.table.Suggest(unknown.Token); hint != "" {
			msg += fmt.Sprintf(" — did you mean %q?", hint)
		}
		r.defect(check.Diagnostic{
			Line:     lineNo,
			Column:   check.ColumnAt(line, off),
			Severity: check.Error,
			Kind:     check.UnknownKeyword,
			Message:  msg,
			Start:    r.offset + off,
			End:      r.offset + off + len(unknown.Token),
		})
		return
	}
	r.defect(check.Diagnostic{
		Line:     lineNo,
		Column:   check.ColumnAt(line, keywordStart),
		Severity: check.Error,
		Kind:     check.MalformedMarker,
		Message: fmt.Sprintf("cannot read keyword string %q — expected name(+name)* with one optional key=value",
			keywords),
		Start: r.offset + keywordStart,
		End:   r.offset + keywordStart + len(keywords),
	})
}
