/*
Package szenar parses annotation-notation text and renders it.

Szenar is a small processing pipeline for a plain-text notation used by
scenario authors: prose stays prose, while lightweight markers annotate
it with structure and styling. Markers come in two shapes:

	:::keyword-string          block marker, opens on its own line
	…content lines…
	:::                        block marker, closes

	[keyword-string]{content}  inline marker, within a line

where a keyword-string combines one or more keyword names with '+' and
may carry one trailing key=value attribute, e.g.

	[bold+color color=#aa0000]{很重要 — don't skip this}

Authors write on Japanese and English keyboards alike, so the notation
accepts full-width variants of every delimiter character; the scanner
normalizes them before any other processing.

The pipeline never refuses a document. Whatever does not parse degrades
to literal text, unclosed blocks close at end of input, and every such
repair is reported as a diagnostic with line, grapheme-accurate column,
severity and, where one is safe, a suggested replacement. A separate
validator (package check) produces the same diagnostics without
building a tree, for editor integrations.

Processing one document:

	pipe := szenar.NewPipeline(szenar.Options{TOC: true})
	result := pipe.Process(source)
	var buf bytes.Buffer
	err := pipe.RenderHTML(&buf, result)

Result carries the document tree, the table of contents, the footnote
table and the merged diagnostics of all stages. RenderNotation writes
the tree back out as canonical notation text.

Package structure: vocab holds the keyword table and the keyword-string
grammar, scan the line scanner, doctree the tree and its builder, check
the validator, toc and footnote the derived structures, and
backend/htmlout, backend/notout the two output forms.

______________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 Norbert Pillmayer <norbert@pillmayer.com>

*/
package szenar

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'szenar.pipeline'.
func tracer() tracing.Trace {
	return tracing.Select("szenar.pipeline")
}
