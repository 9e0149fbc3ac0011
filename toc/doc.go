/*
Package toc derives a table of contents from a document tree.

Build collects the headings of a document in reading order and nests
them by level: a heading adopts the most recent heading of a smaller
level as its parent, holes in the level sequence notwithstanding, so
h1, h3, h2 nests as h1 ( h3, h2 ). Every entry receives a URL-safe slug
derived from the heading text; slugs are written back to the heading
nodes as anchors, which is what links rendered TOC entries to their
sections.

______________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 Norbert Pillmayer <norbert@pillmayer.com>

*/
package toc

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'szenar.toc'.
func tracer() tracing.Trace {
	return tracing.Select("szenar.toc")
}
