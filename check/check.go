package check

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/npillmayer/szenar/scan"
	"github.com/npillmayer/szenar/vocab"
)

// Checker runs the validation rules over raw source text. A Checker holds
// no per-run state and may be reused for any number of documents.
type Checker struct {
	table *vocab.Table
}

// New creates a Checker drawing keyword knowledge from the given table;
// nil selects the builtin table.
func New(table *vocab.Table) *Checker {
	if table == nil {
		table = vocab.Builtin()
	}
	return &Checker{table: table}
}

// openBlock tracks an unclosed block marker for the missing-close rule.
type openBlock struct {
	line, col  int
	start, end int
	keywords   string
	code       bool // block renders as literal code
}

// Check validates the source text and returns all findings, ordered by
// position. Running Check twice on the same input yields the same list.
//
// Line rules fire first (incomplete inline markers, unknown keywords,
// misplaced keywords, dropped attributes, loose color tokens), then a
// whole-document pass reports every block-open that no close matches,
// exactly one diagnostic per unmatched open, naming its opening line.
func (c *Checker) Check(src string) []Diagnostic {
	var diags []Diagnostic
	var opens []openBlock
	offset := 0
	for i, raw := range scan.SplitLines(src) {
		line := scan.NormalizeDelimiters(raw)
		lineNo := i + 1
		spans := scan.ScanLine(line)
		mask := make([]bool, len(line))
		for _, span := range spans {
			switch span.Kind {
			case scan.BlockOpen:
				if anyCode(opens) {
					continue // literal line of a code block
				}
				markRegion(mask, span.Start, span.End)
				sd, isCode := c.spanDiags(line, lineNo, offset, span, vocab.BlockCap)
				diags = append(diags, sd...)
				opens = append(opens, openBlock{
					line:     lineNo,
					col:      ColumnAt(line, span.Start),
					start:    offset + span.Start,
					end:      offset + span.End,
					keywords: span.Keywords,
					code:     isCode,
				})
			case scan.BlockClose:
				if len(opens) > 0 {
					opens = opens[:len(opens)-1]
				}
			case scan.InlineGroup:
				if anyCode(opens) {
					continue // literal content of a code block
				}
				markRegion(mask, span.Start, span.ContentStart)
				sd, isCode := c.spanDiags(line, lineNo, offset, span, vocab.InlineCap)
				diags = append(diags, sd...)
				if isCode {
					markRegion(mask, span.ContentStart, span.End)
				}
			}
		}
		if !anyCode(opens) {
			diags = append(diags, c.missingContentClose(line, lineNo, offset, spans)...)
			diags = append(diags, looseColorTokens(line, lineNo, offset, mask)...)
		}
		offset += len(line) + 1
	}
	for _, open := range opens {
		diags = append(diags, Diagnostic{
			Line:     open.line,
			Column:   open.col,
			Severity: Error,
			Kind:     MissingBlockClose,
			Message: fmt.Sprintf("block ':::%s' is never closed — add a line holding only ':::' to close it",
				open.keywords),
			Start: open.start,
			End:   open.end,
		})
	}
	Sort(diags)
	tracer().Debugf("validator found %d defect(s)", len(diags))
	return diags
}

// spanDiags checks one marker span: every keyword name must resolve, be
// legal in the span's position, and the attribute clause (if any) must be
// accepted by the keyword it attaches to. isCode reports whether the span
// renders its content as literal code, which exempts the content from the
// loose-color rule.
func (c *Checker) spanDiags(line string, lineNo, lineOff int, span scan.Span,
	place vocab.Placement) (diags []Diagnostic, isCode bool) {
	//
	chain, err := vocab.ParseChain(span.Keywords)
	if err != nil {
		return []Diagnostic{{
			Line:     lineNo,
			Column:   ColumnAt(line, span.KeywordStart),
			Severity: Error,
			Kind:     MalformedMarker,
			Message: fmt.Sprintf("cannot read keyword string %q — expected name(+name)* with one optional key=value",
				span.Keywords),
			Start: lineOff + span.KeywordStart,
			End:   lineOff + span.KeywordStart + len(span.Keywords),
		}}, false
	}
	var lastKw *vocab.Keyword
	for i, name := range chain.Names {
		nameOff := span.KeywordStart + chain.Offsets[i]
		kw, ok := c.table.Lookup(name)
		if !ok {
			msg := fmt.Sprintf("unknown keyword %q", name)
			if hint := c.table.Suggest(name); hint != "" {
				msg += fmt.Sprintf(" — did you mean %q?", hint)
			}
			diags = append(diags, Diagnostic{
				Line:     lineNo,
				Column:   ColumnAt(line, nameOff),
				Severity: Error,
				Kind:     UnknownKeyword,
				Message:  msg,
				Start:    lineOff + nameOff,
				End:      lineOff + nameOff + len(name),
			})
			lastKw = nil
			continue
		}
		if kw.Name == "code" {
			isCode = true
		}
		if !kw.AllowedIn(place) {
			var msg string
			if place == vocab.InlineCap {
				msg = fmt.Sprintf("keyword %q only works in block markers — write :::%s on its own line", kw.Name, kw.Name)
			} else {
				msg = fmt.Sprintf("keyword %q only works in inline markers — write [%s]{…} within a line", kw.Name, kw.Name)
			}
			diags = append(diags, Diagnostic{
				Line:     lineNo,
				Column:   ColumnAt(line, nameOff),
				Severity: Error,
				Kind:     BadPlacement,
				Message:  msg,
				Start:    lineOff + nameOff,
				End:      lineOff + nameOff + len(name),
			})
		}
		lastKw = kw
	}
	if chain.Attr != nil && lastKw != nil {
		attrOff := span.KeywordStart + chain.Attr.Offset
		token := chain.Attr.Key + "=" + chain.Attr.Value
		if spec, ok := lastKw.AcceptsAttr(chain.Attr.Key); !ok {
			diags = append(diags, Diagnostic{
				Line:     lineNo,
				Column:   ColumnAt(line, attrOff),
				Severity: Warning,
				Kind:     AttrNotAccepted,
				Message: fmt.Sprintf("keyword %q does not accept attribute %q — the attribute is ignored",
					lastKw.Name, chain.Attr.Key),
				Start: lineOff + attrOff,
				End:   lineOff + attrOff + len(token),
			})
		} else if !vocab.ValidAttrValue(spec.Syntax, chain.Attr.Value) {
			diags = append(diags, Diagnostic{
				Line:     lineNo,
				Column:   ColumnAt(line, attrOff),
				Severity: Warning,
				Kind:     BadAttrValue,
				Message: fmt.Sprintf("value %q is not valid for attribute %q — the attribute is ignored",
					chain.Attr.Value, chain.Attr.Key),
				Start: lineOff + attrOff,
				End:   lineOff + attrOff + len(token),
			})
		}
	}
	return diags, isCode
}

// missingContentClose looks for inline markers that opened their content
// but never close it on the same line: a '[keyword-string]{' prefix with
// no matching '}'. Complete spans have already been carved out; only the
// first incomplete marker per line is reported, since everything after it
// is the marker's unterminated content.
func (c *Checker) missingContentClose(line string, lineNo, lineOff int, spans []scan.Span) []Diagnostic {
	for i := 0; i < len(line); {
		open := strings.IndexByte(line[i:], '[')
		if open < 0 {
			return nil
		}
		open += i
		if end, in := spanAround(spans, open); in {
			i = end
			continue
		}
		kw, ok := incompleteInlineOpen(line, open)
		if !ok {
			i = open + 1
			continue
		}
		if _, err := vocab.ParseChain(kw); err != nil {
			i = open + 1
			continue
		}
		return []Diagnostic{{
			Line:     lineNo,
			Column:   ColumnAt(line, open),
			Severity: Error,
			Kind:     MissingContentClose,
			Message: fmt.Sprintf("inline marker '[%s]{…' lacks a closing '}' before end of line — add '}' to close the content",
				kw),
			Start: lineOff + open,
			End:   lineOff + len(line),
		}}
	}
	return nil
}

// incompleteInlineOpen reports whether position open starts an inline
// marker whose content never closes on this line.
func incompleteInlineOpen(line string, open int) (kw string, ok bool) {
	closeBracket := -1
scanKeyword:
	for j := open + 1; j < len(line); j++ {
		switch line[j] {
		case ']':
			closeBracket = j
			break scanKeyword
		case '[', '{', '}':
			return "", false
		}
	}
	if closeBracket < 0 {
		return "", false
	}
	kw = strings.TrimSpace(line[open+1 : closeBracket])
	if kw == "" {
		return "", false
	}
	if closeBracket+1 >= len(line) || line[closeBracket+1] != '{' {
		return "", false
	}
	depth := 0
	for j := closeBracket + 1; j < len(line); j++ {
		switch line[j] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return "", false // the marker is complete after all
			}
		}
	}
	return kw, true
}

var hexToken = regexp.MustCompile(`#(?:[0-9a-fA-F]{6}|[0-9a-fA-F]{3})\b`)

// looseColorTokens flags hex color tokens sitting in body text, outside
// any attribute position, a frequent authoring mistake. This is the one
// rule with an automatic fix: rewriting the token as explicit literal
// code, so it renders as the text the author typed.
func looseColorTokens(line string, lineNo, lineOff int, mask []bool) []Diagnostic {
	var diags []Diagnostic
	for _, loc := range hexToken.FindAllStringIndex(line, -1) {
		start, end := loc[0], loc[1]
		if start > 0 && (isWordByte(line[start-1]) || line[start-1] == '#') {
			continue // inside a longer token
		}
		if regionMarked(mask, start, end) {
			continue
		}
		token := line[start:end]
		diags = append(diags, Diagnostic{
			Line:     lineNo,
			Column:   ColumnAt(line, start),
			Severity: Warning,
			Kind:     LooseColorToken,
			Message: fmt.Sprintf("color value %q appears in body text — colors belong in an attribute like [highlight color=%s]{…}; to show the value literally, mark it as code",
				token, token),
			Suggestion: "[code]{" + token + "}",
			Start:      lineOff + start,
			End:        lineOff + end,
		})
	}
	return diags
}

// --- Small helpers -------------------------------------------------------

func markRegion(mask []bool, from, to int) {
	for i := from; i < to && i < len(mask); i++ {
		mask[i] = true
	}
}

func regionMarked(mask []bool, from, to int) bool {
	for i := from; i < to && i < len(mask); i++ {
		if mask[i] {
			return true
		}
	}
	return false
}

func spanAround(spans []scan.Span, pos int) (end int, in bool) {
	for _, span := range spans {
		if pos >= span.Start && pos < span.End {
			return span.End, true
		}
	}
	return 0, false
}

func anyCode(opens []openBlock) bool {
	for _, open := range opens {
		if open.code {
			return true
		}
	}
	return false
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= '0' && b <= '9') ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z')
}
