/*
Package htmlout renders document trees to HTML.

Rendering is a pure tree walk: node kinds map onto HTML structure,
style directives onto nested wrapper elements, outermost-first in
authoring order. All decisions were made upstream, the builder having
settled the structure and the keyword table the element names, so this
package holds no parsing logic and never fails on malformed documents;
whatever the builder salvaged renders, degraded but complete.

Text content and author-provided attribute text pass through
html.EscapeString. Values landing in wrapper attributes are restricted
to what the keyword table validated (hex color triples, allow-listed
extension CSS) and re-checked at emission, so untrusted input cannot
inject attributes or scripts.

______________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 Norbert Pillmayer <norbert@pillmayer.com>

*/
package htmlout

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'szenar.htmlout'.
func tracer() tracing.Trace {
	return tracing.Select("szenar.htmlout")
}
