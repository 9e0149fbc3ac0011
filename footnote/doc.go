/*
Package footnote collects footnote definitions and numbers them.

Footnotes decouple two positions in a document: the spot a reference
mark appears and the spot the note's body was written. The builder
routes every definition block into a Table (see doctree.FootnoteSink)
and leaves a placeholder node behind; the placeholder remembers where
the definition stood, which keeps re-emitting the notation possible.

Numbering is deferred: definitions may precede or follow their
references in the source, so numbers can only be handed out once the
whole document is known. Seal walks the finished tree and numbers
footnotes in the order a reader first meets them; defined but never
referenced notes queue up behind, in definition order.

______________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 Norbert Pillmayer <norbert@pillmayer.com>

*/
package footnote

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'szenar.footnote'.
func tracer() tracing.Trace {
	return tracing.Select("szenar.footnote")
}
