package script

// GetScriptGrammar returns the Lark grammar definition for the clip script
// DSL: a thin scripting surface over the notation compiler and the transform
// engine, in the style of
//
//	clip(notes="C3 E3 G3 1|1", dialect="barbeat")
//	time_sig(numerator=3, denominator=4)
//	transform(statements="velocity += 20 * cos(1:0t)")
func GetScriptGrammar() string {
	return `
// Clip script grammar - compile notation and transform note events
// SYNTAX:
//   clip(notes="C3 E3 G3 1|1")                 - compile bar|beat notation
//   clip(notes="C3 E3 G3", dialect="legacy")   - compile the legacy dialect
//   time_sig(numerator=3, denominator=4)       - set the meter for later calls
//   transform(statements="velocity = 100")     - transform compiled events

// ---------- Start rule ----------
start: statement+

// ---------- Statements ----------
statement: clip_call
         | transform_call
         | time_sig_call

// ---------- Clip: compile notation into note events ----------
clip_call: "clip" "(" clip_params ")"

clip_params: clip_param ("," SP clip_param)*
clip_param: "notes" "=" STRING
          | "dialect" "=" DIALECT

// ---------- Transform: modulate compiled events ----------
transform_call: "transform" "(" "statements" "=" STRING ")"

// ---------- Time signature ----------
time_sig_call: "time_sig" "(" time_sig_params ")"

time_sig_params: time_sig_param ("," SP time_sig_param)*
time_sig_param: "numerator" "=" NUMBER
              | "denominator" "=" NUMBER

// ---------- Dialects ----------
DIALECT: "barbeat" | "legacy"

// ---------- Terminals ----------
SP: " "+
STRING: /"[^"]*"/
NUMBER: /-?\d+(\.\d+)?/
`
}
