package vocab

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/derekparker/trie"
	"github.com/npillmayer/szenar/core"
	"golang.org/x/text/width"
)

// Placement says in which marker positions a keyword may appear.
type Placement uint8

const (
	BlockCap  Placement = 1 << iota // usable in block markers
	InlineCap                       // usable in inline markers
)

// AnyPlace is the placement of keywords legal in both marker forms.
const AnyPlace = BlockCap | InlineCap

// Kind classifies the structural role a keyword plays when a marker
// carrying it is turned into a node. Most keywords are plain decorations;
// a few select a dedicated node variant instead.
type Kind uint8

const (
	DecorationKind  Kind = iota // styling wrapper, no structural meaning
	HeadingKind                 // heading of some level
	CollapseKind                // disclosure block, open by default
	SpoilerKind                 // disclosure block, collapsed and visually marked
	FootnoteDefKind             // footnote definition block
	FootnoteRefKind             // footnote reference
	ImageKind                   // image by reference
	TableKind                   // table block, rows separated by '|'
)

// AttrSyntax constrains the value syntax of an accepted attribute.
type AttrSyntax uint8

const (
	AttrText  AttrSyntax = iota // free-form text, escaped on output
	AttrColor                   // hex color triple, #hhh or #hhhhhh
	AttrToken                   // identifier token, [A-Za-z0-9_-]+
)

// AttrSpec describes one attribute accepted by a keyword.
type AttrSpec struct {
	Key    string
	Syntax AttrSyntax
	CSS    string // CSS property fed by the value, "" if not style-relevant
}

// Keyword is a capability descriptor for one style keyword. Keywords are
// created once at table construction and never modified afterwards.
type Keyword struct {
	Name         string     // canonical name
	Alias        string     // alternate author-facing name, "" if none
	Element      string     // HTML element for inline wrappers
	BlockElement string     // HTML element in block position, "" = Element
	Class        string     // CSS class on the wrapper, "" = none
	Attrs        []AttrSpec // accepted attributes; nil: keyword takes none
	Place        Placement
	Kind         Kind
	Level        int    // heading level 1…5, 0 otherwise
	Style        string // extension CSS declarations, validated at construction
}

// AcceptsAttr reports whether the keyword accepts an attribute with the
// given key, and returns its spec if so.
func (kw *Keyword) AcceptsAttr(key string) (AttrSpec, bool) {
	for _, spec := range kw.Attrs {
		if spec.Key == key {
			return spec, true
		}
	}
	return AttrSpec{}, false
}

// AllowedIn reports whether the keyword may be used in the given marker
// position.
func (kw *Keyword) AllowedIn(p Placement) bool {
	return kw.Place&p != 0
}

// ElementFor returns the HTML element the keyword maps to in the given
// marker position.
func (kw *Keyword) ElementFor(p Placement) string {
	if p == BlockCap && kw.BlockElement != "" {
		return kw.BlockElement
	}
	return kw.Element
}

// --- Keyword table ----------------------------------------------------

// Table is a read-only map from keyword name to descriptor. English names
// and their aliases address the same descriptor. A Table is immutable
// after construction and may be shared across concurrent pipelines
// without synchronization.
type Table struct {
	keys  *trie.Trie // folded name → *Keyword
	order []*Keyword // registration order: builtins first, then extensions
}

// NewTable creates a keyword table holding the builtin vocabulary plus
// the given extensions. Extension names must not collide with builtin
// names or with each other; extension styles are validated against a CSS
// property allow-list.
func NewTable(exts ...Extension) (*Table, error) {
	t := &Table{keys: trie.New()}
	for i := range builtins {
		t.register(&builtins[i])
	}
	for _, ext := range exts {
		kw, err := ext.keyword()
		if err != nil {
			return nil, err
		}
		if _, ok := t.Lookup(kw.Name); ok {
			return nil, core.Error(core.ECONFIG, "extension keyword %q already defined", kw.Name)
		}
		if kw.Alias != "" {
			if _, ok := t.Lookup(kw.Alias); ok {
				return nil, core.Error(core.ECONFIG, "extension alias %q already defined", kw.Alias)
			}
		}
		t.register(kw)
	}
	return t, nil
}

func (t *Table) register(kw *Keyword) {
	t.keys.Add(foldName(kw.Name), kw)
	if kw.Alias != "" {
		t.keys.Add(foldName(kw.Alias), kw)
	}
	t.order = append(t.order, kw)
}

// Builtin returns the table of builtin keywords, without any extensions.
// The returned table is shared; callers must not modify it.
func Builtin() *Table {
	return builtinTable
}

var builtinTable = func() *Table {
	t, err := NewTable()
	if err != nil {
		panic(err) // builtins are static and must register
	}
	return t
}()

// Lookup finds the descriptor for a keyword name. Names are width-folded
// and lowercased before lookup, so 'ｂｏｌｄ', 'Bold' and 'bold' address
// the same descriptor.
func (t *Table) Lookup(name string) (*Keyword, bool) {
	node, ok := t.keys.Find(foldName(name))
	if !ok {
		return nil, false
	}
	return node.Meta().(*Keyword), true
}

// Keywords returns all registered descriptors in registration order.
func (t *Table) Keywords() []*Keyword {
	kws := make([]*Keyword, len(t.order))
	copy(kws, t.order)
	return kws
}

// Suggest proposes a known keyword name for an unresolved one, for use in
// "did you mean" diagnostics. It returns "" if nothing plausible is found.
// Suggestions are deterministic for a given table and input.
func (t *Table) Suggest(name string) string {
	key := foldName(name)
	if key == "" {
		return ""
	}
	if cand := t.keys.FuzzySearch(key); len(cand) > 0 {
		return closest(key, cand)
	}
	for len(key) > 0 {
		if cand := t.keys.PrefixSearch(key); len(cand) > 0 {
			return closest(key, cand)
		}
		_, size := utf8.DecodeLastRuneInString(key)
		key = key[:len(key)-size]
	}
	return ""
}

// closest ranks candidates by length distance to the query, ties broken
// lexicographically.
func closest(query string, cand []string) string {
	sort.Slice(cand, func(i, j int) bool {
		di, dj := lenDist(query, cand[i]), lenDist(query, cand[j])
		if di != dj {
			return di < dj
		}
		return cand[i] < cand[j]
	})
	return cand[0]
}

func lenDist(a, b string) int {
	d := len(a) - len(b)
	if d < 0 {
		return -d
	}
	return d
}

// foldName maps a keyword name to its lookup key: full-width characters
// fold to their half-width counterparts, ASCII letters to lower case.
func foldName(name string) string {
	return strings.ToLower(width.Fold.String(strings.TrimSpace(name)))
}

// --- Builtin vocabulary -------------------------------------------------

var builtins = []Keyword{
	{Name: "bold", Alias: "太字", Element: "strong", Place: AnyPlace},
	{Name: "italic", Alias: "斜体", Element: "em", Place: AnyPlace},
	{Name: "underline", Alias: "下線", Element: "u", Place: AnyPlace},
	{Name: "strike", Alias: "打消", Element: "s", Place: AnyPlace},
	{Name: "code", Alias: "コード", Element: "code", BlockElement: "pre", Place: AnyPlace},
	{Name: "highlight", Alias: "マーカー", Element: "mark", Place: AnyPlace,
		Attrs: []AttrSpec{{Key: "color", Syntax: AttrColor, CSS: "background-color"}}},
	{Name: "color", Alias: "文字色", Element: "span", Place: AnyPlace,
		Attrs: []AttrSpec{{Key: "color", Syntax: AttrColor, CSS: "color"}}},
	{Name: "large", Alias: "大", Element: "span", Class: "large", Place: AnyPlace},
	{Name: "small", Alias: "小", Element: "small", Place: AnyPlace},
	{Name: "quote", Alias: "引用", Element: "blockquote", Place: BlockCap},
	{Name: "box", Alias: "枠", Element: "div", Class: "box", Place: BlockCap},
	{Name: "h1", Alias: "見出し1", Element: "h1", Place: BlockCap, Kind: HeadingKind, Level: 1},
	{Name: "h2", Alias: "見出し2", Element: "h2", Place: BlockCap, Kind: HeadingKind, Level: 2},
	{Name: "h3", Alias: "見出し3", Element: "h3", Place: BlockCap, Kind: HeadingKind, Level: 3},
	{Name: "h4", Alias: "見出し4", Element: "h4", Place: BlockCap, Kind: HeadingKind, Level: 4},
	{Name: "h5", Alias: "見出し5", Element: "h5", Place: BlockCap, Kind: HeadingKind, Level: 5},
	{Name: "collapse", Alias: "折りたたみ", Element: "details", Place: BlockCap, Kind: CollapseKind,
		Attrs: []AttrSpec{{Key: "title", Syntax: AttrText}}},
	{Name: "spoiler", Alias: "ネタバレ", Element: "details", Class: "spoiler", Place: BlockCap, Kind: SpoilerKind,
		Attrs: []AttrSpec{{Key: "title", Syntax: AttrText}}},
	{Name: "footnote", Alias: "脚注", Place: BlockCap, Kind: FootnoteDefKind,
		Attrs: []AttrSpec{{Key: "id", Syntax: AttrToken}}},
	{Name: "fn", Alias: "注", Place: InlineCap, Kind: FootnoteRefKind},
	{Name: "img", Alias: "画像", Element: "img", Place: AnyPlace, Kind: ImageKind,
		Attrs: []AttrSpec{{Key: "alt", Syntax: AttrText}}},
	{Name: "table", Alias: "表", Element: "table", Place: BlockCap, Kind: TableKind},
}
