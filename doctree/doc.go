/*
Package doctree builds and represents the document tree of a parsed
scenario document.

A Node is a tagged variant over all content forms of the notation:
paragraphs, headings, lists, decorated blocks and spans, tables, images,
footnote references and definitions, collapsible regions and plain text.
Container kinds own an ordered sequence of children.

The Builder consumes the scanner's marker stream and assembles the tree
with an explicit stack of frames, never recursive descent over blocks,
so pathological nesting depth cannot exhaust the call stack, and frames
left open at end of input auto-close with a recorded defect instead of
dropping content. The builder never fails: malformed markers degrade to
literal text, and every degradation is recorded as a diagnostic on the
Document.

______________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 Norbert Pillmayer <norbert@pillmayer.com>

*/
package doctree

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'szenar.doctree'.
func tracer() tracing.Trace {
	return tracing.Select("szenar.doctree")
}
