package scan

import (
	"strings"
)

// SpanKind distinguishes the marker forms a scanner reports.
type SpanKind int8

const (
	BlockOpen   SpanKind = iota + 1 // ':::' + keyword-string at line start
	BlockClose                      // ':::' alone at line start
	InlineGroup                     // '[' keyword-string ']' '{' content '}'
)

func (k SpanKind) String() string {
	switch k {
	case BlockOpen:
		return "block-open"
	case BlockClose:
		return "block-close"
	case InlineGroup:
		return "inline-group"
	}
	return "invalid"
}

// Span is one recognized marker within a (normalized) line. Offsets are
// byte positions into the line the span was scanned from.
type Span struct {
	Kind         SpanKind
	Keywords     string // raw keyword-string, surrounding blanks trimmed
	Content      string // delimited content; inline groups only
	Start        int    // offset of the marker's first byte
	End          int    // offset just past the marker's last byte
	KeywordStart int    // offset of the keyword-string
	ContentStart int    // offset of the content; inline groups only
}

// BlockDelimiter opens and closes block markers at line start.
const BlockDelimiter = ":::"

// SplitLines splits source text into lines, tolerating both LF and CRLF
// line endings. The returned lines contain no line-break characters.
func SplitLines(src string) []string {
	lines := strings.Split(src, "\n")
	for i, ln := range lines {
		lines[i] = strings.TrimSuffix(ln, "\r")
	}
	return lines
}

// delimNormalizer folds the full-width variants of the marker syntax
// characters to their half-width forms. Authors working with Japanese
// input methods routinely type the full-width forms; both are documented
// as equivalent. No other look-alike characters are folded; anything
// beyond these eight is literal text.
var delimNormalizer = strings.NewReplacer(
	"：", ":",
	"［", "[",
	"］", "]",
	"｛", "{",
	"｝", "}",
	"＋", "+",
	"＝", "=",
	"＃", "#",
)

// NormalizeDelimiters returns line with full-width marker characters
// folded to their half-width forms. Scanning and all offset reporting
// operate on the normalized text.
func NormalizeDelimiters(line string) string {
	return delimNormalizer.Replace(line)
}

// ScanLine reports all marker spans in a line, in left-to-right order.
// The line must already be normalized (see NormalizeDelimiters) and must
// not contain a line break.
//
// A line starting with the block delimiter is one single block span;
// otherwise the line may hold any number of inline groups. Sequences that
// do not form a complete marker are not reported.
func ScanLine(line string) []Span {
	if strings.HasPrefix(line, BlockDelimiter) {
		return []Span{blockSpan(line)}
	}
	return InlineSpans(line)
}

func blockSpan(line string) Span {
	rest := line[len(BlockDelimiter):]
	kw := strings.TrimSpace(rest)
	if kw == "" {
		return Span{Kind: BlockClose, Start: 0, End: len(line)}
	}
	lead := len(rest) - len(strings.TrimLeft(rest, " \t"))
	return Span{
		Kind:         BlockOpen,
		Keywords:     kw,
		Start:        0,
		End:          len(line),
		KeywordStart: len(BlockDelimiter) + lead,
	}
}

// InlineSpans scans a text segment for inline groups only, without the
// block-delimiter check of ScanLine. Nested group content is scanned with
// this, since a block delimiter inside braces carries no meaning.
func InlineSpans(line string) []Span {
	var spans []Span
	for i := 0; i < len(line); {
		open := strings.IndexByte(line[i:], '[')
		if open < 0 {
			break
		}
		open += i
		span, ok := inlineSpanAt(line, open)
		if !ok {
			i = open + 1
			continue
		}
		tracer().Debugf("inline span [%d:%d] keywords '%s'", span.Start, span.End, span.Keywords)
		spans = append(spans, span)
		i = span.End
	}
	return spans
}

// inlineSpanAt tries to read a complete inline group starting at the '['
// at position open. The keyword-string may not contain further delimiter
// characters; the content's closing brace is found by depth counting, so
// content may hold nested inline groups.
func inlineSpanAt(line string, open int) (Span, bool) {
	closeBracket := -1
scanKeyword:
	for j := open + 1; j < len(line); j++ {
		switch line[j] {
		case ']':
			closeBracket = j
			break scanKeyword
		case '[', '{', '}':
			return Span{}, false
		}
	}
	if closeBracket < 0 {
		return Span{}, false
	}
	kwRegion := line[open+1 : closeBracket]
	kw := strings.TrimSpace(kwRegion)
	if kw == "" {
		return Span{}, false
	}
	if closeBracket+1 >= len(line) || line[closeBracket+1] != '{' {
		return Span{}, false
	}
	depth := 0
	for j := closeBracket + 1; j < len(line); j++ {
		switch line[j] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				lead := len(kwRegion) - len(strings.TrimLeft(kwRegion, " \t"))
				return Span{
					Kind:         InlineGroup,
					Keywords:     kw,
					Content:      line[closeBracket+2 : j],
					Start:        open,
					End:          j + 1,
					KeywordStart: open + 1 + lead,
					ContentStart: closeBracket + 2,
				}, true
			}
		}
	}
	return Span{}, false
}
