package vocab

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// StyleDirective is a resolved keyword plus an optional attribute map.
// Directives are produced in authoring order; rendering nests the first
// directive outermost.
type StyleDirective struct {
	Keyword *Keyword
	Attrs   map[string]string // nil when the marker carried no attribute
}

// Attr returns the value of an attribute, or "" if unset.
func (d StyleDirective) Attr(key string) string {
	if d.Attrs == nil {
		return ""
	}
	return d.Attrs[key]
}

// NoteKind classifies non-fatal findings from keyword resolution.
type NoteKind uint8

const (
	NoteAttrNotAccepted NoteKind = iota + 1 // attribute on a keyword that takes none
	NoteBadAttrValue                        // value fails the attribute's syntax
)

// Note records a non-fatal finding from resolving a keyword-string. The
// directive list stays usable; notes feed the validator's diagnostics.
type Note struct {
	Kind  NoteKind
	Token string // offending token, e.g. the attribute clause
	Key   string // attribute key, when applicable
}

// Resolution is the outcome of resolving one raw keyword-string.
type Resolution struct {
	Directives []StyleDirective
	Notes      []Note
}

// UnknownKeywordError reports a keyword name not present in the table.
// Callers typically fall back to treating the whole marker as literal text.
type UnknownKeywordError struct {
	Token  string // the unresolved name
	Offset int    // byte offset of the token within the keyword-string
}

func (e *UnknownKeywordError) Error() string {
	return fmt.Sprintf("unknown keyword %q", e.Token)
}

// ErrEmptyKeywordString flags a marker without any keyword names.
var ErrEmptyKeywordString = errors.New("empty keyword string")

// --- Keyword-string grammar ---------------------------------------------

// A keyword-string combines names with '+' and accepts one optional
// trailing key=value attribute clause:
//
//	name(+name)* (key=value)?
//
// Names may be any run of characters except whitespace, '+' and '='.

type chainGrammar struct {
	Head kwToken      `@@`
	Tail []kwToken    `( "+" @@ )*`
	Attr *attrGrammar `@@?`
}

type kwToken struct {
	Pos  lexer.Position
	Name string `@Ident`
}

type attrGrammar struct {
	Pos   lexer.Position
	Key   string `@Ident "="`
	Value string `@Ident`
}

var chainLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Punct", Pattern: `[+=]`},
	{Name: "Ident", Pattern: `[^\s+=]+`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

var chainParser = participle.MustBuild[chainGrammar](
	participle.Lexer(chainLexer),
	participle.Elide("Whitespace"),
)

// Chain is the surface form of a parsed keyword-string: names in
// authoring order plus an optional trailing attribute clause. No table
// lookup has happened yet.
type Chain struct {
	Names   []string
	Offsets []int // byte offset of each name within the keyword-string
	Attr    *AttrClause
}

// AttrClause is a single key=value attribute token.
type AttrClause struct {
	Key    string
	Value  string
	Offset int // byte offset of the clause within the keyword-string
}

// ParseChain parses a raw keyword-string into its surface form. It
// performs no table lookups; use Table.Resolve for full resolution.
func ParseChain(kwstring string) (Chain, error) {
	parsed, err := chainParser.ParseString("", kwstring)
	if err != nil {
		return Chain{}, fmt.Errorf("malformed keyword string %q: %w", kwstring, err)
	}
	chain := Chain{
		Names:   []string{parsed.Head.Name},
		Offsets: []int{parsed.Head.Pos.Offset},
	}
	for _, tok := range parsed.Tail {
		chain.Names = append(chain.Names, tok.Name)
		chain.Offsets = append(chain.Offsets, tok.Pos.Offset)
	}
	if parsed.Attr != nil {
		chain.Attr = &AttrClause{
			Key:    parsed.Attr.Key,
			Value:  parsed.Attr.Value,
			Offset: parsed.Attr.Pos.Offset,
		}
	}
	return chain, nil
}

// --- Resolution ----------------------------------------------------------

var (
	colorValue = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	tokenValue = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// ValidAttrValue reports whether a value satisfies an attribute syntax.
func ValidAttrValue(syntax AttrSyntax, value string) bool {
	switch syntax {
	case AttrColor:
		return colorValue.MatchString(value)
	case AttrToken:
		return tokenValue.MatchString(value)
	}
	return true // AttrText places no constraint
}

// Resolve turns a raw keyword-string into an ordered list of style
// directives. The attribute clause, if present, attaches to the
// immediately preceding keyword, but only if that keyword accepts the
// key and the value passes the key's syntax; otherwise the attribute is
// dropped and a note records the defect.
//
// The first name not present in the table aborts resolution with an
// UnknownKeywordError; callers fall back to literal text in that case.
func (t *Table) Resolve(kwstring string) (Resolution, error) {
	if kwstring == "" {
		return Resolution{}, ErrEmptyKeywordString
	}
	chain, err := ParseChain(kwstring)
	if err != nil {
		return Resolution{}, err
	}
	res := Resolution{Directives: make([]StyleDirective, 0, len(chain.Names))}
	for i, name := range chain.Names {
		kw, ok := t.Lookup(name)
		if !ok {
			tracer().Debugf("keyword %q not in table", name)
			return Resolution{}, &UnknownKeywordError{Token: name, Offset: chain.Offsets[i]}
		}
		res.Directives = append(res.Directives, StyleDirective{Keyword: kw})
	}
	if chain.Attr != nil {
		last := &res.Directives[len(res.Directives)-1]
		token := chain.Attr.Key + "=" + chain.Attr.Value
		spec, ok := last.Keyword.AcceptsAttr(chain.Attr.Key)
		switch {
		case !ok:
			res.Notes = append(res.Notes, Note{
				Kind:  NoteAttrNotAccepted,
				Token: token,
				Key:   chain.Attr.Key,
			})
		case !ValidAttrValue(spec.Syntax, chain.Attr.Value):
			res.Notes = append(res.Notes, Note{
				Kind:  NoteBadAttrValue,
				Token: token,
				Key:   chain.Attr.Key,
			})
		default:
			last.Attrs = map[string]string{chain.Attr.Key: chain.Attr.Value}
		}
	}
	return res, nil
}
