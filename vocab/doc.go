/*
Package vocab provides the keyword vocabulary of the scenario notation.

A Table maps author-facing keyword names (English and Japanese aliases
alike) to capability descriptors: which HTML element a keyword stands
for, whether it accepts attributes, and whether it may be used in block
or inline position. Tables are immutable after construction and safe to
share between concurrently running pipelines.

The package also resolves raw keyword-strings such as

	bold+highlight color=#e6f3ff

into an ordered list of style directives, preserving authoring order.

______________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 Norbert Pillmayer <norbert@pillmayer.com>

*/
package vocab

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'szenar.vocab'.
func tracer() tracing.Trace {
	return tracing.Select("szenar.vocab")
}
