// Package modulation implements the parametric-modulation expression
// language: parsing assignment statements into ASTs, evaluating them against
// musical time, and applying the results to note events.
package modulation

import "fmt"

// ExprNode is one node of a parsed expression.
type ExprNode interface{ exprNode() }

// Literal is a numeric constant.
type Literal struct {
	Value float64
}

// BinaryOp is an arithmetic operation ("+", "-", "*", "/"). Unary minus is
// represented as 0 - x.
type BinaryOp struct {
	Op    string
	Left  ExprNode
	Right ExprNode
}

// FunctionCall invokes a waveform-library function. Names and arity are
// resolved at evaluation time, so `cos()` parses but fails to evaluate.
type FunctionCall struct {
	Name string
	Args []ExprNode
}

// Variable is a namespaced reference such as note.velocity or audio.energy.
type Variable struct {
	Namespace string
	Name      string
}

// Period is a musical-time literal (`2t`, `1:0t`, `1+1/2t`). Its beat value
// is resolved against the time signature at evaluation time.
type Period struct {
	Bars  float64
	Beats float64
}

func (Literal) exprNode()      {}
func (BinaryOp) exprNode()     {}
func (FunctionCall) exprNode() {}
func (Variable) exprNode()     {}
func (Period) exprNode()       {}

// PitchRange restricts an assignment to notes within [StartPitch, EndPitch].
type PitchRange struct {
	StartPitch int
	EndPitch   int
}

// TimeRange restricts an assignment to notes between two bar|beat positions
// (inclusive at both ends).
type TimeRange struct {
	StartBar  int
	StartBeat float64
	EndBar    int
	EndBeat   float64
}

// Valid assignment parameters and operators.
const (
	ParamVelocity    = "velocity"
	ParamTiming      = "timing"
	ParamDuration    = "duration"
	ParamProbability = "probability"

	OpSet = "set"
	OpAdd = "add"
)

// Assignment is one parsed statement:
//
//	[pitchRange] [timeRange] parameter (= | +=) expression
type Assignment struct {
	PitchRange *PitchRange
	TimeRange  *TimeRange
	Parameter  string
	Operator   string
	Expression ExprNode
}

// SyntaxError reports a malformed statement with its source position.
type SyntaxError struct {
	Offset  int
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d (offset %d): %s",
		e.Line, e.Column, e.Offset, e.Message)
}

// SemanticError reports an unknown function/variable/parameter, a wrong
// arity, or a reversed pitch range.
type SemanticError struct {
	Message string
}

func (e *SemanticError) Error() string { return e.Message }

func semanticErrorf(format string, args ...any) error {
	return &SemanticError{Message: fmt.Sprintf(format, args...)}
}

// NumericError reports invalid waveform arguments at runtime: non-positive
// periods, NaN/Infinity results, bad speeds.
type NumericError struct {
	Message string
}

func (e *NumericError) Error() string { return e.Message }

func numericErrorf(format string, args ...any) error {
	return &NumericError{Message: fmt.Sprintf(format, args...)}
}
