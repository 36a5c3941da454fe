package modulation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/adamjmurray/producer-pal-sub014/music"
)

// Parse converts modulation/transform text into assignment statements, one
// statement per line. Comments (`//`, `#`, `/* */`) and blank lines are
// ignored. The first syntax error aborts the parse.
func Parse(source string) ([]Assignment, error) {
	clean := stripComments(source)
	var assignments []Assignment
	offset := 0
	for lineNum, line := range strings.Split(clean, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			a, err := parseStatement(line, lineNum+1, offset)
			if err != nil {
				return nil, err
			}
			assignments = append(assignments, a)
		}
		offset += len(line) + 1
	}
	return assignments, nil
}

// stripComments blanks comments with spaces so byte offsets and line numbers
// of the remaining text stay accurate. A '#' only opens a comment at the
// start of a line or after whitespace; inside a token it is an accidental
// (C#3).
func stripComments(src string) string {
	out := []byte(src)
	inBlock := false
	for i := 0; i < len(out); i++ {
		c := out[i]
		if inBlock {
			if c == '*' && i+1 < len(out) && out[i+1] == '/' {
				out[i], out[i+1] = ' ', ' '
				i++
				inBlock = false
			} else if c != '\n' {
				out[i] = ' '
			}
			continue
		}
		switch {
		case c == '/' && i+1 < len(out) && out[i+1] == '*':
			inBlock = true
			out[i] = ' '
		case c == '/' && i+1 < len(out) && out[i+1] == '/':
			for ; i < len(out) && out[i] != '\n'; i++ {
				out[i] = ' '
			}
		case c == '#' && (i == 0 || out[i-1] == ' ' || out[i-1] == '\t' || out[i-1] == '\n'):
			for ; i < len(out) && out[i] != '\n'; i++ {
				out[i] = ' '
			}
		}
	}
	return string(out)
}

var (
	noteRe      = regexp.MustCompile(`^[A-G][#b]?-?\d+`)
	timeRangeRe = regexp.MustCompile(`^(\d+)\|([\d./+]+)\s*-\s*(\d+)\|([\d./+]+)`)
	paramRe     = regexp.MustCompile(`^[a-z_]+`)
	numberRe    = regexp.MustCompile(`^(?:\d+(?:\.\d+)?|\.\d+)`)
	identRe     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)?`)

	// A period literal is [bars:]beats followed by 't', where beats is a
	// number, a fraction, or a mixed number. `1+2t` is NOT a period literal
	// (no fraction), so addition still works next to periods.
	periodRe = regexp.MustCompile(
		`^(?:(\d+(?:\.\d+)?):)?` +
			`((?:\d+(?:\.\d+)?|\.\d+)\+\d+(?:\.\d+)?/\d+(?:\.\d+)?` +
			`|(?:\d+(?:\.\d+)?|\.\d+)/\d+(?:\.\d+)?` +
			`|(?:\d+(?:\.\d+)?|\.\d+))t`)
)

type stmtContext struct {
	line      string
	lineNum   int
	lineStart int
}

func (sc *stmtContext) errorAt(pos int, format string, args ...any) error {
	return &SyntaxError{
		Offset:  sc.lineStart + pos,
		Line:    sc.lineNum,
		Column:  pos + 1,
		Message: fmt.Sprintf(format, args...),
	}
}

func parseStatement(line string, lineNum, lineStart int) (Assignment, error) {
	sc := &stmtContext{line: line, lineNum: lineNum, lineStart: lineStart}
	pos := skipSpace(line, 0)
	var a Assignment

	// Optional pitch range: a single note or NoteA-NoteB.
	if m := noteRe.FindString(line[pos:]); m != "" {
		start, err := music.NoteNameToMIDI(m)
		if err != nil {
			return a, err
		}
		end := start
		pos += len(m)
		if pos < len(line) && line[pos] == '-' {
			m2 := noteRe.FindString(line[pos+1:])
			if m2 == "" {
				return a, sc.errorAt(pos+1, "expected note name after '-' in pitch range")
			}
			end, err = music.NoteNameToMIDI(m2)
			if err != nil {
				return a, err
			}
			pos += 1 + len(m2)
		}
		if start > end {
			return a, semanticErrorf("pitch range %s-%s is reversed: start must not exceed end",
				music.MIDIToNoteName(start), music.MIDIToNoteName(end))
		}
		a.PitchRange = &PitchRange{StartPitch: start, EndPitch: end}
		pos = skipSpace(line, pos)
	}

	// Optional time range: bar|beat-bar|beat with fractional/mixed beats.
	if m := timeRangeRe.FindStringSubmatch(line[pos:]); m != nil {
		startBar, _ := strconv.Atoi(m[1])
		endBar, _ := strconv.Atoi(m[3])
		startBeat, err := music.ParseBeatValue(m[2])
		if err != nil {
			return a, sc.errorAt(pos, "invalid time range: %v", err)
		}
		endBeat, err := music.ParseBeatValue(m[4])
		if err != nil {
			return a, sc.errorAt(pos, "invalid time range: %v", err)
		}
		if startBar < 1 || endBar < 1 || startBeat < 1 || endBeat < 1 {
			return a, &music.RangeError{Token: m[0], Value: 0, Min: 1, Max: float64(1<<31 - 1)}
		}
		a.TimeRange = &TimeRange{StartBar: startBar, StartBeat: startBeat, EndBar: endBar, EndBeat: endBeat}
		pos += len(m[0])
		pos = skipSpace(line, pos)
	}

	// Parameter name (fixed closed set).
	param := paramRe.FindString(line[pos:])
	if param == "" {
		return a, sc.errorAt(pos, "expected parameter name")
	}
	switch param {
	case ParamVelocity, ParamTiming, ParamDuration, ParamProbability:
		a.Parameter = param
	default:
		return a, semanticErrorf("unknown parameter %q (expected velocity, timing, duration, or probability)", param)
	}
	pos += len(param)
	pos = skipSpace(line, pos)

	// Assignment operator.
	switch {
	case strings.HasPrefix(line[pos:], "+="):
		a.Operator = OpAdd
		pos += 2
	case pos < len(line) && line[pos] == '=':
		a.Operator = OpSet
		pos++
	case pos < len(line) && line[pos] == ':':
		return a, sc.errorAt(pos, "the ':' assignment operator is deprecated; use '=' or '+='")
	default:
		return a, sc.errorAt(pos, "expected '=' or '+=' after parameter %q", param)
	}

	toks, err := lexExpression(line, pos, sc)
	if err != nil {
		return a, err
	}
	ep := &exprParser{toks: toks, sc: sc}
	expr, err := ep.parseExpr()
	if err != nil {
		return a, err
	}
	if tok := ep.peek(); tok.kind != tkEOF {
		return a, sc.errorAt(tok.pos, "unexpected %q after expression", tok.text)
	}
	a.Expression = expr
	return a, nil
}

func skipSpace(s string, pos int) int {
	for pos < len(s) && (s[pos] == ' ' || s[pos] == '\t') {
		pos++
	}
	return pos
}

type tokKind int

const (
	tkEOF tokKind = iota
	tkNumber
	tkPeriod
	tkIdent
	tkPunct
)

type exprToken struct {
	kind  tokKind
	text  string
	value float64 // tkNumber
	bars  float64 // tkPeriod
	beats float64 // tkPeriod
	pos   int
}

func lexExpression(line string, pos int, sc *stmtContext) ([]exprToken, error) {
	var toks []exprToken
	for pos < len(line) {
		c := line[pos]
		if c == ' ' || c == '\t' {
			pos++
			continue
		}
		switch {
		case c >= '0' && c <= '9' || c == '.':
			if m := periodRe.FindStringSubmatch(line[pos:]); m != nil && !identCharFollows(line, pos+len(m[0])) {
				bars := 0.0
				if m[1] != "" {
					bars, _ = strconv.ParseFloat(m[1], 64)
				}
				beats, err := music.ParseBeatValue(m[2])
				if err != nil {
					return nil, sc.errorAt(pos, "invalid period literal %q: %v", m[0], err)
				}
				toks = append(toks, exprToken{kind: tkPeriod, text: m[0], bars: bars, beats: beats, pos: pos})
				pos += len(m[0])
				continue
			}
			m := numberRe.FindString(line[pos:])
			if m == "" {
				return nil, sc.errorAt(pos, "invalid number")
			}
			v, err := strconv.ParseFloat(m, 64)
			if err != nil {
				return nil, sc.errorAt(pos, "invalid number %q", m)
			}
			toks = append(toks, exprToken{kind: tkNumber, text: m, value: v, pos: pos})
			pos += len(m)
		case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_':
			m := identRe.FindString(line[pos:])
			toks = append(toks, exprToken{kind: tkIdent, text: m, pos: pos})
			pos += len(m)
		case strings.ContainsRune("+-*/(),", rune(c)):
			toks = append(toks, exprToken{kind: tkPunct, text: string(c), pos: pos})
			pos++
		default:
			return nil, sc.errorAt(pos, "unexpected character %q", string(c))
		}
	}
	toks = append(toks, exprToken{kind: tkEOF, pos: len(line)})
	return toks, nil
}

func identCharFollows(line string, pos int) bool {
	if pos >= len(line) {
		return false
	}
	c := line[pos]
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '.'
}

// exprParser is a small recursive-descent parser. Same-precedence operators
// associate right-to-left: each precedence level recurses into itself for the
// right-hand side.
type exprParser struct {
	toks []exprToken
	i    int
	sc   *stmtContext
}

func (p *exprParser) peek() exprToken { return p.toks[p.i] }

func (p *exprParser) next() exprToken {
	t := p.toks[p.i]
	if p.toks[p.i].kind != tkEOF {
		p.i++
	}
	return t
}

func (p *exprParser) acceptPunct(texts ...string) (string, bool) {
	t := p.peek()
	if t.kind != tkPunct {
		return "", false
	}
	for _, text := range texts {
		if t.text == text {
			p.next()
			return text, true
		}
	}
	return "", false
}

func (p *exprParser) parseExpr() (ExprNode, error) {
	return p.parseAdditive()
}

func (p *exprParser) parseAdditive() (ExprNode, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	if op, ok := p.acceptPunct("+", "-"); ok {
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return BinaryOp{Op: op, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *exprParser) parseMultiplicative() (ExprNode, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if op, ok := p.acceptPunct("*", "/"); ok {
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		return BinaryOp{Op: op, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *exprParser) parseUnary() (ExprNode, error) {
	if _, ok := p.acceptPunct("-"); ok {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return BinaryOp{Op: "-", Left: Literal{Value: 0}, Right: operand}, nil
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (ExprNode, error) {
	tok := p.peek()
	switch tok.kind {
	case tkEOF:
		return nil, p.sc.errorAt(tok.pos, "unexpected end of statement")
	case tkNumber:
		p.next()
		return Literal{Value: tok.value}, nil
	case tkPeriod:
		p.next()
		return Period{Bars: tok.bars, Beats: tok.beats}, nil
	case tkIdent:
		p.next()
		if _, ok := p.acceptPunct("("); ok {
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			return FunctionCall{Name: tok.text, Args: args}, nil
		}
		if ns, name, ok := strings.Cut(tok.text, "."); ok {
			return Variable{Namespace: ns, Name: name}, nil
		}
		return Variable{Name: tok.text}, nil
	case tkPunct:
		if tok.text == "(" {
			p.next()
			inner, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, ok := p.acceptPunct(")"); !ok {
				return nil, p.sc.errorAt(p.peek().pos, "expected ')'")
			}
			return inner, nil
		}
	}
	return nil, p.sc.errorAt(tok.pos, "unexpected %q in expression", tok.text)
}

func (p *exprParser) parseArgs() ([]ExprNode, error) {
	var args []ExprNode
	if _, ok := p.acceptPunct(")"); ok {
		return args, nil
	}
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if _, ok := p.acceptPunct(","); ok {
			continue
		}
		if _, ok := p.acceptPunct(")"); ok {
			return args, nil
		}
		return nil, p.sc.errorAt(p.peek().pos, "expected ',' or ')' in argument list")
	}
}
