/*
Package scan finds marker spans in raw notation text.

The scanner recognizes the two marker forms of the notation, block
delimiters at line start and inline delimiter pairs, and reports them as
spans carrying the raw keyword-string plus byte offsets. No semantic
interpretation happens here: unrecognized or unterminated delimiter
sequences are simply not reported and pass through as plain text.

Full-width delimiter characters are accepted as equivalent input; callers
normalize a line with NormalizeDelimiters before scanning it.

______________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 Norbert Pillmayer <norbert@pillmayer.com>

*/
package scan

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'szenar.scan'.
func tracer() tracing.Trace {
	return tracing.Select("szenar.scan")
}
