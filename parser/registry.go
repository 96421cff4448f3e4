package parser

// RecognisedFormatMacros are the macro names whose arguments this core
// knows how to decompose with ParseFormatArgs.
var RecognisedFormatMacros = map[string]bool{
	"format": true, "println": true, "write": true, "panic": true,
}

// RecognisedAssertMacros are the macro names whose arguments this core
// knows how to decompose with ParseAssertArgs. debug_assert shares
// assert's plain-condition shape; it's only ever compiled into a
// debug-profile binary, which this core doesn't distinguish when
// decomposing its arguments.
var RecognisedAssertMacros = map[string]bool{
	"assert": true, "assert_eq": true, "assert_ne": true, "debug_assert": true,
}
