package doctree

import (
	"strings"

	"github.com/npillmayer/szenar/check"
	"github.com/npillmayer/szenar/vocab"
)

// NodeKind tags the variant of a tree node.
type NodeKind int8

// Node kinds, from document root down to plain text.
const (
	DocumentNode NodeKind = iota + 1
	ParagraphNode
	HardBreakNode
	HeadingNode
	ListNode
	ListItemNode
	DecoratedBlockNode
	DecoratedSpanNode
	ImageNode
	TableNode
	TableRowNode
	TableCellNode
	FootnoteRefNode
	FootnoteDefNode
	CollapsibleNode
	TextNode
)

func (k NodeKind) String() string {
	switch k {
	case DocumentNode:
		return "document"
	case ParagraphNode:
		return "paragraph"
	case HardBreakNode:
		return "break"
	case HeadingNode:
		return "heading"
	case ListNode:
		return "list"
	case ListItemNode:
		return "item"
	case DecoratedBlockNode:
		return "block"
	case DecoratedSpanNode:
		return "span"
	case ImageNode:
		return "image"
	case TableNode:
		return "table"
	case TableRowNode:
		return "row"
	case TableCellNode:
		return "cell"
	case FootnoteRefNode:
		return "footnote-ref"
	case FootnoteDefNode:
		return "footnote-def"
	case CollapsibleNode:
		return "collapsible"
	case TextNode:
		return "text"
	}
	return "<illegal node kind>"
}

// Node is a single node of the document tree. Which fields are
// meaningful depends on Kind; unused fields hold zero values.
type Node struct {
	Kind       NodeKind
	Text       string                 // TextNode: literal run of characters
	Directives []vocab.StyleDirective // decorated blocks and spans, headings, images
	Level      int                    // HeadingNode: 1…5
	Ordered    bool                   // ListNode: numbered list
	Spoiler    bool                   // CollapsibleNode: starts collapsed, reader opts in
	Header     bool                   // TableRowNode: header row
	ID         string                 // footnote identifier, or heading anchor once assigned
	Ref        string                 // ImageNode: image reference as written by the author
	Line       int                    // 1-based source line the node started on
	Children   []*Node
}

// AppendChild appends child to n's children.
func (n *Node) AppendChild(child *Node) {
	n.Children = append(n.Children, child)
}

// IsContainer is true for kinds that may carry children.
func (n *Node) IsContainer() bool {
	switch n.Kind {
	case TextNode, HardBreakNode, FootnoteRefNode, ImageNode:
		return false
	}
	return true
}

// InnerText concatenates the text content of n's subtree in document
// order. Hard breaks count as a single space.
func InnerText(n *Node) string {
	var b strings.Builder
	Walk(n, func(node *Node) bool {
		switch node.Kind {
		case TextNode:
			b.WriteString(node.Text)
		case HardBreakNode:
			b.WriteByte(' ')
		}
		return true
	})
	return b.String()
}

// Walk visits n and all of its descendants in depth-first pre-order.
// Visitor v returning false prunes the subtree below the current node.
func Walk(n *Node, v func(*Node) bool) {
	if n == nil {
		return
	}
	stack := []*Node{n}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !v(node) {
			continue
		}
		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, node.Children[i])
		}
	}
}

// Equal reports structural equality of two trees: kinds, text content,
// directives, flags and children have to match. Source line numbers do
// not take part in the comparison, so a re-parsed rendering of a tree
// compares equal to the original even where line numbers drifted.
func Equal(a, b *Node) bool {
	type pair struct{ a, b *Node }
	stack := []pair{{a, b}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p.a == nil || p.b == nil {
			if p.a != p.b {
				return false
			}
			continue
		}
		if p.a.Kind != p.b.Kind || p.a.Text != p.b.Text ||
			p.a.Level != p.b.Level || p.a.Ordered != p.b.Ordered ||
			p.a.Spoiler != p.b.Spoiler || p.a.Header != p.b.Header ||
			p.a.ID != p.b.ID || p.a.Ref != p.b.Ref {
			return false
		}
		if !directivesEqual(p.a.Directives, p.b.Directives) {
			return false
		}
		if len(p.a.Children) != len(p.b.Children) {
			return false
		}
		for i := range p.a.Children {
			stack = append(stack, pair{p.a.Children[i], p.b.Children[i]})
		}
	}
	return true
}

func directivesEqual(a, b []vocab.StyleDirective) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Keyword.Name != b[i].Keyword.Name {
			return false
		}
		if len(a[i].Attrs) != len(b[i].Attrs) {
			return false
		}
		for k, v := range a[i].Attrs {
			if b[i].Attrs[k] != v {
				return false
			}
		}
	}
	return true
}

// Document is the result of building a tree from notation source.
// Defects lists everything the builder had to gloss over; an empty list
// means the source parsed cleanly.
type Document struct {
	Root    *Node
	Defects []check.Diagnostic
}

// FootnoteSink receives footnote definitions, which the builder routes
// out of the tree: the definition's body must not render at the spot it
// was written, only a placeholder remains there. Package footnote
// provides the standard implementation.
type FootnoteSink interface {
	AddDefinition(id string, def *Node, placeholder *Node)
}
