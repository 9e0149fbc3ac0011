package check

import (
	"errors"
	"strings"

	"github.com/npillmayer/cords"
	"github.com/npillmayer/szenar/scan"
)

// ErrNoSuggestion flags an attempt to apply a diagnostic that carries no
// automatic fix.
var ErrNoSuggestion = errors.New("diagnostic carries no suggested fix")

// ErrStaleDiagnostic flags a diagnostic whose span does not fit the given
// source, e.g. because the source changed since validation.
var ErrStaleDiagnostic = errors.New("diagnostic span does not fit source")

// Apply splices a diagnostic's suggested replacement into the source text
// and returns the patched text. The diagnostic's span refers to the
// delimiter-normalized form of the source, so Apply normalizes first; the
// returned text is normalized and uses LF line endings.
//
// Fixes for distinct diagnostics shift subsequent spans; apply one fix,
// then re-validate, rather than applying a stale list.
func Apply(src string, d Diagnostic) (string, error) {
	if d.Suggestion == "" {
		return "", ErrNoSuggestion
	}
	normalized := Normalize(src)
	if d.Start < 0 || d.End < d.Start || d.End > len(normalized) {
		return "", ErrStaleDiagnostic
	}
	b := cords.NewBuilder()
	if d.Start > 0 {
		b.Append(textLeaf(normalized[:d.Start]))
	}
	b.Append(textLeaf(d.Suggestion))
	if d.End < len(normalized) {
		b.Append(textLeaf(normalized[d.End:]))
	}
	patched := b.Cord()
	tracer().Debugf("applied fix %q at [%d:%d]", d.Suggestion, d.Start, d.End)
	return patched.String(), nil
}

// Normalize returns the source text as the validator sees it: every line
// delimiter-normalized, lines joined with LF.
func Normalize(src string) string {
	lines := scan.SplitLines(src)
	for i, ln := range lines {
		lines[i] = scan.NormalizeDelimiters(ln)
	}
	return strings.Join(lines, "\n")
}

// --- Cord leaf over a plain string ----------------------------------------

// textLeaf is the leaf type for cords spliced from source fragments.
type textLeaf string

// Weight is part of interface cords.Leaf.
func (l textLeaf) Weight() uint64 {
	return uint64(len(l))
}

// String is part of interface cords.Leaf.
func (l textLeaf) String() string {
	return string(l)
}

// Split is part of interface cords.Leaf.
func (l textLeaf) Split(i uint64) (cords.Leaf, cords.Leaf) {
	return l[:i], l[i:]
}

// Substring is part of interface cords.Leaf.
func (l textLeaf) Substring(i, j uint64) []byte {
	return []byte(l[i:j])
}

var _ cords.Leaf = textLeaf("")
