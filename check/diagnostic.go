package check

import (
	"fmt"
	"sort"
	"sync"

	"github.com/npillmayer/uax/grapheme"
)

// Severity grades a diagnostic.
type Severity int8

const (
	Info    Severity = iota + 1 // informational, rendering unaffected
	Warning                     // renders, but probably not as intended
	Error                       // marker degraded to a fallback rendition
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return "invalid"
}

// Kind is the defect class of a diagnostic.
type Kind int8

const (
	MissingContentClose Kind = iota + 1 // inline marker without closing '}' on its line
	UnknownKeyword                      // keyword name not in the table
	LooseColorToken                     // hex color token in body text, outside any attribute
	MissingBlockClose                   // block-open without a matching close
	BadPlacement                        // block-only keyword inline, or vice versa
	AttrNotAccepted                     // attribute on a keyword that takes none
	BadAttrValue                        // attribute value fails the key's syntax
	MalformedMarker                     // keyword-string that does not parse at all
	StrayBlockClose                     // close marker without an open block
	DuplicateFootnote                   // footnote id defined more than once
	UnknownFootnote                     // reference to a footnote id never defined
	SlugCollision                       // two headings mapping to the same id
)

func (k Kind) String() string {
	switch k {
	case MissingContentClose:
		return "missing-content-close"
	case UnknownKeyword:
		return "unknown-keyword"
	case LooseColorToken:
		return "loose-color-token"
	case MissingBlockClose:
		return "missing-block-close"
	case BadPlacement:
		return "bad-placement"
	case AttrNotAccepted:
		return "attr-not-accepted"
	case BadAttrValue:
		return "bad-attr-value"
	case MalformedMarker:
		return "malformed-marker"
	case StrayBlockClose:
		return "stray-block-close"
	case DuplicateFootnote:
		return "duplicate-footnote"
	case UnknownFootnote:
		return "unknown-footnote"
	case SlugCollision:
		return "slug-collision"
	}
	return "invalid"
}

// Diagnostic is one structured report of a recoverable defect. Line and
// Column are 1-based; columns count grapheme clusters, so authors see the
// position they would count on screen, CJK text included. Start and End
// are a byte span into the delimiter-normalized source text (see Apply).
type Diagnostic struct {
	Line       int
	Column     int
	Severity   Severity
	Kind       Kind
	Message    string
	Suggestion string // replacement text for [Start,End); "" if no automatic fix
	Start, End int
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s: %s", d.Line, d.Column, d.Severity, d.Message)
}

// Sort orders diagnostics by position, then by kind. The order is total,
// making validator output reproducible across runs.
func Sort(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].Line != diags[j].Line {
			return diags[i].Line < diags[j].Line
		}
		if diags[i].Column != diags[j].Column {
			return diags[i].Column < diags[j].Column
		}
		return diags[i].Kind < diags[j].Kind
	})
}

// Dedupe drops diagnostics that repeat an earlier (kind, line, column)
// triple. The input must already be sorted; deduplication keeps the first
// occurrence. The builder and the validator both notice some defects
// (unmatched opens, unknown keywords), and merged reports must not list
// them twice.
func Dedupe(diags []Diagnostic) []Diagnostic {
	out := diags[:0]
	for i, d := range diags {
		if i > 0 {
			prev := out[len(out)-1]
			if prev.Kind == d.Kind && prev.Line == d.Line && prev.Column == d.Column {
				continue
			}
		}
		out = append(out, d)
	}
	return out
}

var setupGraphemes sync.Once

// ColumnAt translates a byte offset within a line into a 1-based column,
// counted in grapheme clusters.
func ColumnAt(line string, byteoff int) int {
	setupGraphemes.Do(grapheme.SetupGraphemeClasses)
	if byteoff <= 0 {
		return 1
	}
	if byteoff > len(line) {
		byteoff = len(line)
	}
	return grapheme.StringFromString(line[:byteoff]).Len() + 1
}
