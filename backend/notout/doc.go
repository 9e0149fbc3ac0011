/*
Package notout writes document trees back out as notation text.

The writer is the builder's inverse: parsing its output again yields a
structurally equal tree. Emission is canonical, with keywords under
their English names and delimiters in their half-width forms, so the
writer doubles as a formatter for author tooling. Footnote definitions
re-emerge at the position their placeholder marks, with the body the
footnote table holds.

Degraded content round-trips, too: marker lines the builder preserved
as literal text re-parse into the same degradation, defects included.

______________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 Norbert Pillmayer <norbert@pillmayer.com>

*/
package notout

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'szenar.notout'.
func tracer() tracing.Trace {
	return tracing.Select("szenar.notout")
}
