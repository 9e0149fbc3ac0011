/*
Package check validates scenario notation and reports repair suggestions.

The validator is an independent pass over the raw source text: it shares
the stateless scanner and vocabulary layers with the tree builder, but
none of the builder's state, so it can keep reporting past defects that
the builder papers over with fallbacks. Its output is a deterministic
list of diagnostics (same input, same list), each carrying a position,
a severity, a message, and (for defect classes that support automatic
correction) a replacement suggestion.

Validation never blocks tree construction; rendering proceeds regardless
of what is reported here.

______________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 Norbert Pillmayer <norbert@pillmayer.com>

*/
package check

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'szenar.check'.
func tracer() tracing.Trace {
	return tracing.Select("szenar.check")
}
