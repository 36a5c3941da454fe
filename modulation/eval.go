package modulation

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/adamjmurray/producer-pal-sub014/models"
)

// EvaluationContext carries everything an expression may reference: the
// musical position being evaluated, the time signature, the optional clip
// time range (for ramp/curve), bound note variables, and the randomness
// source. Contexts are freshly constructed per call and never retained.
type EvaluationContext struct {
	Position    float64
	TimeSig     models.TimeSignature
	ClipRange   *models.ClipRange
	NoteVars    map[string]float64
	AudioVars   map[string]float64
	IsAudioClip bool

	// Rand is the injectable randomness source for rand/choose. Nil means a
	// time-seeded source; tests inject a fixed seed for determinism.
	Rand *rand.Rand
}

func (ctx *EvaluationContext) rng() *rand.Rand {
	if ctx.Rand == nil {
		ctx.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return ctx.Rand
}

// Evaluate computes the numeric value of an expression node. Binary division
// by zero yields 0 (a deliberate non-fatal convention); function argument and
// domain failures always return errors.
func Evaluate(node ExprNode, ctx *EvaluationContext) (float64, error) {
	switch n := node.(type) {
	case Literal:
		return n.Value, nil

	case BinaryOp:
		left, err := Evaluate(n.Left, ctx)
		if err != nil {
			return 0, err
		}
		right, err := Evaluate(n.Right, ctx)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case "+":
			return left + right, nil
		case "-":
			return left - right, nil
		case "*":
			return left * right, nil
		case "/":
			if right == 0 {
				return 0, nil
			}
			return left / right, nil
		default:
			return 0, semanticErrorf("unknown binary operator %q", n.Op)
		}

	case FunctionCall:
		args := make([]float64, len(n.Args))
		for i, argNode := range n.Args {
			v, err := Evaluate(argNode, ctx)
			if err != nil {
				return 0, err
			}
			args[i] = v
		}
		return callFunction(n.Name, args, ctx)

	case Variable:
		return evaluateVariable(n, ctx)

	case Period:
		return n.Bars*ctx.TimeSig.BeatsPerBar() + n.Beats, nil

	default:
		return 0, fmt.Errorf("unknown expression node type %T", node)
	}
}

func evaluateVariable(v Variable, ctx *EvaluationContext) (float64, error) {
	switch v.Namespace {
	case "note":
		if val, ok := ctx.NoteVars[v.Name]; ok {
			return val, nil
		}
		return 0, semanticErrorf("unbound variable note.%s", v.Name)
	case "audio":
		if !ctx.IsAudioClip {
			return 0, semanticErrorf("cannot use audio.%s in MIDI note context", v.Name)
		}
		if val, ok := ctx.AudioVars[v.Name]; ok {
			return val, nil
		}
		return 0, semanticErrorf("unbound variable audio.%s", v.Name)
	case "":
		return 0, semanticErrorf("unknown variable %q", v.Name)
	default:
		return 0, semanticErrorf("unknown variable namespace %q in %s.%s", v.Namespace, v.Namespace, v.Name)
	}
}

// Outcome is the result of evaluating a whole modulation string: the last
// change requested for each parameter, plus non-fatal diagnostics.
type Outcome struct {
	Changes     map[string]models.ParameterChange
	Diagnostics []models.Diagnostic
}

// EvaluateString parses and evaluates a modulation string at the context's
// position. Assignments apply in document order (a later assignment to the
// same parameter wins). A failing assignment is skipped with a diagnostic and
// the rest of the string still evaluates; only syntax errors abort.
func EvaluateString(source string, ctx *EvaluationContext) (*Outcome, error) {
	assignments, err := Parse(source)
	if err != nil {
		return nil, err
	}
	out := &Outcome{Changes: make(map[string]models.ParameterChange)}
	for _, a := range assignments {
		value, err := Evaluate(a.Expression, ctx)
		if err != nil {
			out.Diagnostics = append(out.Diagnostics, models.Warningf(
				"skipping parameter %s: %v", a.Parameter, err))
			continue
		}
		out.Changes[a.Parameter] = models.ParameterChange{Operator: a.Operator, Value: value}
	}
	return out, nil
}
