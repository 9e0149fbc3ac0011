/*
Package xpathadapter implements an xpath.NodeNavigator over document
trees.

We use this library for XPath queries:

	github.com/antchfx/xpath

The adapter lets callers address tree nodes by path expressions instead
of hand-written walks: node kinds act as element names and node
properties as attributes, so that

	//heading[@level='2']
	//span[@keywords='bold']
	//list[@ordered='true']//item

select what they look like they select. Tests and tooling lean on this;
the rendering pipeline itself never queries.

For a description of the methods of interface xpath.NodeNavigator please
refer to the documentation of antchfx/xpath. It is not replicated here.

______________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 Norbert Pillmayer <norbert@pillmayer.com>

*/
package xpathadapter

import (
	"strconv"
	"strings"

	"github.com/antchfx/xpath"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/szenar/core"
	"github.com/npillmayer/szenar/doctree"
)

// tracer traces with key 'szenar.doctree'.
func tracer() tracing.Trace {
	return tracing.Select("szenar.doctree")
}

type attribute struct {
	key, val string
}

// NodeNavigator walks a document tree for the xpath engine. Document
// trees do not carry parent links, so the navigator indexes the tree
// once at construction; the tree must not change while navigators on it
// are live.
type NodeNavigator struct {
	root    *doctree.Node
	current *doctree.Node
	parent  map[*doctree.Node]*doctree.Node
	inx     map[*doctree.Node]int // index within the parent's children
	attr    int                   // attribute index, -1 = on the node itself
}

// NewNavigator creates an xpath.NodeNavigator rooted at node.
func NewNavigator(node *doctree.Node) *NodeNavigator {
	nav := &NodeNavigator{
		root:    node,
		current: node,
		parent:  make(map[*doctree.Node]*doctree.Node),
		inx:     make(map[*doctree.Node]int),
		attr:    -1,
	}
	doctree.Walk(node, func(n *doctree.Node) bool {
		for i, child := range n.Children {
			nav.parent[child] = n
			nav.inx[child] = i
		}
		return true
	})
	return nav
}

// CurrentNode returns the tree node an xpath navigator points at.
func CurrentNode(nav xpath.NodeNavigator) (*doctree.Node, error) {
	mynav, ok := nav.(*NodeNavigator)
	if !ok {
		return nil, core.Error(core.EINVALID, "navigator is not of type xpathadapter.NodeNavigator")
	}
	return mynav.current, nil
}

// Query selects all tree nodes under root matching the path expression.
func Query(root *doctree.Node, expr string) ([]*doctree.Node, error) {
	xp, err := xpath.Compile(expr)
	if err != nil {
		return nil, core.WrapError(err, core.EINVALID, "cannot compile path expression %q", expr)
	}
	iter := xp.Select(NewNavigator(root))
	var nodes []*doctree.Node
	for iter.MoveNext() {
		nav, ok := iter.Current().(*NodeNavigator)
		if ok && nav.attr == -1 {
			nodes = append(nodes, nav.current)
		}
	}
	tracer().Debugf("query %q selected %d node(s)", expr, len(nodes))
	return nodes, nil
}

// attrsOf synthesizes the attribute list of a node: node properties
// first, then the keyword chain and any attribute clause values.
func attrsOf(n *doctree.Node) []attribute {
	var attrs []attribute
	switch n.Kind {
	case doctree.HeadingNode:
		attrs = append(attrs, attribute{"level", strconv.Itoa(n.Level)})
	case doctree.ListNode:
		attrs = append(attrs, attribute{"ordered", strconv.FormatBool(n.Ordered)})
	case doctree.CollapsibleNode:
		attrs = append(attrs, attribute{"spoiler", strconv.FormatBool(n.Spoiler)})
	case doctree.TableRowNode:
		attrs = append(attrs, attribute{"header", strconv.FormatBool(n.Header)})
	}
	if n.ID != "" {
		attrs = append(attrs, attribute{"id", n.ID})
	}
	if n.Ref != "" {
		attrs = append(attrs, attribute{"ref", n.Ref})
	}
	if len(n.Directives) > 0 {
		names := make([]string, len(n.Directives))
		for i, d := range n.Directives {
			names[i] = d.Keyword.Name
		}
		attrs = append(attrs, attribute{"keywords", strings.Join(names, "+")})
		for _, d := range n.Directives {
			for k, v := range d.Attrs {
				attrs = append(attrs, attribute{k, v})
			}
		}
	}
	return attrs
}

func (nav *NodeNavigator) NodeType() xpath.NodeType {
	if nav.attr != -1 {
		return xpath.AttributeNode
	}
	switch nav.current.Kind {
	case doctree.DocumentNode:
		return xpath.RootNode
	case doctree.TextNode, doctree.HardBreakNode:
		return xpath.TextNode
	}
	return xpath.ElementNode
}

func (nav *NodeNavigator) LocalName() string {
	if nav.attr != -1 {
		return attrsOf(nav.current)[nav.attr].key
	}
	return nav.current.Kind.String()
}

func (*NodeNavigator) Prefix() string {
	return ""
}

func (nav *NodeNavigator) Value() string {
	if nav.attr != -1 {
		return attrsOf(nav.current)[nav.attr].val
	}
	switch nav.current.Kind {
	case doctree.TextNode:
		return nav.current.Text
	case doctree.HardBreakNode:
		return "\n"
	}
	return doctree.InnerText(nav.current)
}

func (nav *NodeNavigator) String() string {
	return nav.Value()
}

func (nav *NodeNavigator) Copy() xpath.NodeNavigator {
	n := *nav
	return &n
}

func (nav *NodeNavigator) MoveToRoot() {
	nav.current = nav.root
	nav.attr = -1
}

func (nav *NodeNavigator) MoveToParent() bool {
	if nav.attr != -1 {
		nav.attr = -1 // move from attributes back to the element
		return true
	}
	if nav.current == nav.root {
		return false
	}
	parent := nav.parent[nav.current]
	if parent == nil {
		return false
	}
	nav.current = parent
	return true
}

func (nav *NodeNavigator) MoveToNextAttribute() bool {
	if nav.attr >= len(attrsOf(nav.current))-1 {
		return false
	}
	nav.attr++
	return true
}

func (nav *NodeNavigator) MoveToChild() bool {
	if nav.attr != -1 {
		return false
	}
	if len(nav.current.Children) == 0 {
		return false
	}
	nav.current = nav.current.Children[0]
	return true
}

func (nav *NodeNavigator) MoveToFirst() bool {
	if nav.attr != -1 {
		return false
	}
	parent := nav.parent[nav.current]
	if parent == nil {
		return false
	}
	nav.current = parent.Children[0]
	return true
}

func (nav *NodeNavigator) MoveToNext() bool {
	if nav.attr != -1 {
		return false
	}
	parent := nav.parent[nav.current]
	if parent == nil {
		return false
	}
	i := nav.inx[nav.current] + 1
	if i >= len(parent.Children) {
		return false
	}
	nav.current = parent.Children[i]
	return true
}

func (nav *NodeNavigator) MoveToPrevious() bool {
	if nav.attr != -1 {
		return false
	}
	parent := nav.parent[nav.current]
	if parent == nil {
		return false
	}
	i := nav.inx[nav.current] - 1
	if i < 0 {
		return false
	}
	nav.current = parent.Children[i]
	return true
}

func (nav *NodeNavigator) MoveTo(other xpath.NodeNavigator) bool {
	n, ok := other.(*NodeNavigator)
	if !ok || n.root != nav.root {
		return false
	}
	nav.current = n.current
	nav.attr = n.attr
	return true
}

var _ xpath.NodeNavigator = &NodeNavigator{}
