package modulation

import (
	"math"
)

// callFunction dispatches a waveform-library call with already-evaluated
// arguments. Names and arity are checked here, at evaluation time.
func callFunction(name string, args []float64, ctx *EvaluationContext) (float64, error) {
	switch name {
	case "cos", "sin", "tri", "saw":
		return periodicWave(name, args, ctx)
	case "square":
		return squareWave(args, ctx)
	case "ramp":
		return rampWave(args, ctx)
	case "curve":
		return curveWave(args, ctx)
	case "rand":
		return randValue(args, ctx)
	case "choose":
		return chooseValue(args, ctx)
	case "clamp":
		if len(args) != 3 {
			return 0, semanticErrorf("clamp expects 3 arguments, got %d", len(args))
		}
		return math.Min(math.Max(args[0], args[1]), args[2]), nil
	case "min":
		if len(args) != 2 {
			return 0, semanticErrorf("min expects 2 arguments, got %d", len(args))
		}
		return math.Min(args[0], args[1]), nil
	case "max":
		if len(args) != 2 {
			return 0, semanticErrorf("max expects 2 arguments, got %d", len(args))
		}
		return math.Max(args[0], args[1]), nil
	case "pow":
		if len(args) != 2 {
			return 0, semanticErrorf("pow expects 2 arguments, got %d", len(args))
		}
		v := math.Pow(args[0], args[1])
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, numericErrorf("pow(%g, %g) produced a non-finite result", args[0], args[1])
		}
		return v, nil
	case "floor", "ceil", "abs", "round":
		if len(args) != 1 {
			return 0, semanticErrorf("%s expects 1 argument, got %d", name, len(args))
		}
		switch name {
		case "floor":
			return math.Floor(args[0]), nil
		case "ceil":
			return math.Ceil(args[0]), nil
		case "abs":
			return math.Abs(args[0]), nil
		default:
			return math.Round(args[0]), nil
		}
	default:
		return 0, semanticErrorf("unknown function %q", name)
	}
}

// phaseOf maps the context position into [0,1) within one cycle of the given
// period (in beats), with an optional phase offset.
func phaseOf(ctx *EvaluationContext, period, offset float64) (float64, error) {
	if period <= 0 {
		return 0, numericErrorf("waveform period must be positive, got %g beats", period)
	}
	phase := math.Mod(ctx.Position, period) / period
	if phase < 0 {
		phase++
	}
	phase += offset
	phase -= math.Floor(phase)
	return phase, nil
}

// periodicWave handles cos/sin/tri/saw: (period[, phaseOffset]).
//
//	cos: 1 at phase 0
//	sin: 0 at phase 0
//	tri: 0 -> 1 -> 0 -> -1 over one period
//	saw: 0 at phase 0, ramps to 1 at the half period, wraps to -1 there
func periodicWave(name string, args []float64, ctx *EvaluationContext) (float64, error) {
	if len(args) < 1 || len(args) > 2 {
		return 0, semanticErrorf("%s expects 1 or 2 arguments, got %d", name, len(args))
	}
	offset := 0.0
	if len(args) == 2 {
		offset = args[1]
	}
	phase, err := phaseOf(ctx, args[0], offset)
	if err != nil {
		return 0, err
	}
	switch name {
	case "cos":
		return math.Cos(2 * math.Pi * phase), nil
	case "sin":
		return math.Sin(2 * math.Pi * phase), nil
	case "tri":
		switch {
		case phase < 0.25:
			return 4 * phase, nil
		case phase < 0.75:
			return 2 - 4*phase, nil
		default:
			return 4*phase - 4, nil
		}
	default: // saw
		p := phase + 0.5
		p -= math.Floor(p)
		return 2*p - 1, nil
	}
}

// squareWave handles square(period[, phaseOffset[, pulseWidth=0.5]]): +1
// while the phase is below the pulse width, -1 otherwise.
func squareWave(args []float64, ctx *EvaluationContext) (float64, error) {
	if len(args) < 1 || len(args) > 3 {
		return 0, semanticErrorf("square expects 1 to 3 arguments, got %d", len(args))
	}
	offset := 0.0
	if len(args) >= 2 {
		offset = args[1]
	}
	pulseWidth := 0.5
	if len(args) == 3 {
		pulseWidth = args[2]
	}
	phase, err := phaseOf(ctx, args[0], offset)
	if err != nil {
		return 0, err
	}
	if phase < pulseWidth {
		return 1, nil
	}
	return -1, nil
}

// clipProgress is the fraction of the clip time range traversed so far,
// scaled by speed and wrapped into [0,1).
func clipProgress(ctx *EvaluationContext, name string, speed float64) (float64, error) {
	if ctx.ClipRange == nil {
		return 0, numericErrorf("%s requires a clip time range", name)
	}
	length := ctx.ClipRange.Length()
	if length <= 0 {
		return 0, numericErrorf("%s requires a non-empty clip time range", name)
	}
	p := (ctx.Position - ctx.ClipRange.StartBeats) / length * speed
	if p != 0 && p == math.Floor(p) && p > 0 {
		// reaching an exact traversal boundary counts as the end, not a wrap
		return 1, nil
	}
	p -= math.Floor(p)
	return p, nil
}

// rampWave handles ramp(start, end[, speed=1]).
func rampWave(args []float64, ctx *EvaluationContext) (float64, error) {
	if len(args) < 2 || len(args) > 3 {
		return 0, semanticErrorf("ramp expects 2 or 3 arguments, got %d", len(args))
	}
	speed := 1.0
	if len(args) == 3 {
		speed = args[2]
	}
	if speed <= 0 {
		return 0, numericErrorf("ramp speed must be positive, got %g", speed)
	}
	p, err := clipProgress(ctx, "ramp", speed)
	if err != nil {
		return 0, err
	}
	return args[0] + (args[1]-args[0])*p, nil
}

// curveWave handles curve(start, end, exponent): a ramp shaped by an
// exponent. Exactly 3 arguments.
func curveWave(args []float64, ctx *EvaluationContext) (float64, error) {
	if len(args) != 3 {
		return 0, semanticErrorf("curve expects 3 arguments, got %d", len(args))
	}
	p, err := clipProgress(ctx, "curve", 1)
	if err != nil {
		return 0, err
	}
	shaped := math.Pow(p, args[2])
	if math.IsNaN(shaped) || math.IsInf(shaped, 0) {
		return 0, numericErrorf("curve exponent %g produced a non-finite result", args[2])
	}
	return args[0] + (args[1]-args[0])*shaped, nil
}

// randValue handles rand(): [-1,1], rand(max): [0,max], rand(min,max).
func randValue(args []float64, ctx *EvaluationContext) (float64, error) {
	r := ctx.rng().Float64()
	switch len(args) {
	case 0:
		return -1 + 2*r, nil
	case 1:
		return r * args[0], nil
	case 2:
		return args[0] + r*(args[1]-args[0]), nil
	default:
		return 0, semanticErrorf("rand expects at most 2 arguments, got %d", len(args))
	}
}

// chooseValue returns one of its arguments at random; a single argument is
// returned unconditionally.
func chooseValue(args []float64, ctx *EvaluationContext) (float64, error) {
	if len(args) == 0 {
		return 0, semanticErrorf("choose expects at least 1 argument")
	}
	if len(args) == 1 {
		return args[0], nil
	}
	return args[ctx.rng().Intn(len(args))], nil
}
