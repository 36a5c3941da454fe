package script

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"

	"github.com/Conceptual-Machines/grammar-school-go/gs"

	"github.com/adamjmurray/producer-pal-sub014/models"
	"github.com/adamjmurray/producer-pal-sub014/modulation"
	"github.com/adamjmurray/producer-pal-sub014/notation"
)

// ScriptParser parses clip script code using Grammar School
type ScriptParser struct {
	engine  *gs.Engine
	dsl     *ClipScriptDSL
	actions []map[string]any
	rawDSL  string
}

// ClipScriptDSL implements the DSL side-effect methods
type ClipScriptDSL struct {
	parser *ScriptParser
}

// NewScriptParser creates a new clip script parser
func NewScriptParser() (*ScriptParser, error) {
	parser := &ScriptParser{
		dsl:     &ClipScriptDSL{},
		actions: make([]map[string]any, 0),
	}

	parser.dsl.parser = parser

	grammar := GetScriptGrammar()

	// Use generic Lark parser from grammar-school
	larkParser := gs.NewLarkParser()

	// Create Engine with ClipScriptDSL instance and parser
	engine, err := gs.NewEngine(grammar, parser.dsl, larkParser)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	parser.engine = engine

	return parser, nil
}

// ParseDSL parses script code and returns actions
func (p *ScriptParser) ParseDSL(dslCode string) ([]map[string]any, error) {
	if dslCode == "" {
		return nil, fmt.Errorf("empty script code")
	}

	p.rawDSL = dslCode

	// Reset actions for new parse
	p.actions = make([]map[string]any, 0)

	ctx := context.Background()
	if err := p.engine.Execute(ctx, dslCode); err != nil {
		return nil, fmt.Errorf("failed to execute script: %w", err)
	}

	if len(p.actions) == 0 {
		return nil, fmt.Errorf("no actions found in script code")
	}

	log.Printf("✅ Script Parser: Translated %d actions from script", len(p.actions))
	return p.actions, nil
}

// ========== DSL Side-Effect Methods (ClipScriptDSL) ==========

// Clip handles clip() calls - creates a compile_clip action
func (d *ClipScriptDSL) Clip(args gs.Args) error {
	p := d.parser

	notes := ""
	if notesValue, ok := args["notes"]; ok && notesValue.Kind == gs.ValueString {
		notes = strings.Trim(notesValue.Str, "\"")
	}
	if notes == "" {
		return fmt.Errorf("clip: missing notes")
	}

	dialect := "barbeat"
	if dialectValue, ok := args["dialect"]; ok && dialectValue.Kind == gs.ValueString {
		dialect = strings.Trim(dialectValue.Str, "\"")
	}
	if dialect != "barbeat" && dialect != "legacy" {
		return fmt.Errorf("clip: unknown dialect %q", dialect)
	}

	action := map[string]any{
		"type":    "compile_clip",
		"notes":   notes,
		"dialect": dialect,
	}

	p.actions = append(p.actions, action)
	log.Printf("🎵 Clip: dialect=%s (%d chars)", dialect, len(notes))

	return nil
}

// Transform handles transform() calls - creates a transform_clip action
func (d *ClipScriptDSL) Transform(args gs.Args) error {
	p := d.parser

	statements := ""
	if stmtValue, ok := args["statements"]; ok && stmtValue.Kind == gs.ValueString {
		statements = strings.Trim(stmtValue.Str, "\"")
	}
	if statements == "" {
		return fmt.Errorf("transform: missing statements")
	}

	action := map[string]any{
		"type":       "transform_clip",
		"statements": statements,
	}

	p.actions = append(p.actions, action)
	log.Printf("🎛️ Transform: %d statement chars", len(statements))

	return nil
}

// TimeSig handles time_sig() calls - creates a set_time_sig action
func (d *ClipScriptDSL) TimeSig(args gs.Args) error {
	p := d.parser

	numerator := 4
	if numValue, ok := args["numerator"]; ok && numValue.Kind == gs.ValueNumber {
		numerator = int(numValue.Num)
	}

	denominator := 4
	if denValue, ok := args["denominator"]; ok && denValue.Kind == gs.ValueNumber {
		denominator = int(denValue.Num)
	}

	if numerator < 1 || denominator < 1 {
		return fmt.Errorf("time_sig: numerator and denominator must be positive")
	}

	action := map[string]any{
		"type":        "set_time_sig",
		"numerator":   numerator,
		"denominator": denominator,
	}

	p.actions = append(p.actions, action)
	log.Printf("🕐 TimeSig: %d/%d", numerator, denominator)

	return nil
}

// ========== Action execution ==========

// CompileResult holds the note events and diagnostics produced by a script run.
type CompileResult struct {
	Events      []models.NoteEvent  `json:"events" yaml:"events"`
	Diagnostics []models.Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// CompileActions runs parsed script actions through the notation compiler and
// the transform engine, in document order. Each clip() call appends its events
// to the running result; transform() calls operate on everything compiled so
// far. The rng is used for rand()/choose() in transform expressions; pass nil
// for a time-seeded source.
func CompileActions(actions []map[string]any, rng *rand.Rand) (*CompileResult, error) {
	result := &CompileResult{}
	ts := models.CommonTime

	for i, action := range actions {
		actionType, _ := action["type"].(string)

		switch actionType {
		case "set_time_sig":
			num, _ := action["numerator"].(int)
			den, _ := action["denominator"].(int)
			ts = models.TimeSignature{Numerator: num, Denominator: den}

		case "compile_clip":
			notes, _ := action["notes"].(string)
			dialect, _ := action["dialect"].(string)

			var compiled *notation.Result
			var err error
			if dialect == "legacy" {
				compiled, err = notation.InterpretLegacy(notes, ts)
			} else {
				compiled, err = notation.Interpret(notes, ts)
			}
			if err != nil {
				return nil, fmt.Errorf("action %d: %w", i, err)
			}
			result.Events = append(result.Events, compiled.Events...)
			result.Diagnostics = append(result.Diagnostics, compiled.Diagnostics...)

		case "transform_clip":
			statements, _ := action["statements"].(string)

			ctx := &modulation.EvaluationContext{
				TimeSig:   ts,
				ClipRange: clipExtent(result.Events, ts),
				Rand:      rng,
			}
			diags, err := modulation.ApplyString(result.Events, statements, ctx)
			if err != nil {
				return nil, fmt.Errorf("action %d: %w", i, err)
			}
			result.Diagnostics = append(result.Diagnostics, diags...)

		default:
			return nil, fmt.Errorf("action %d: unknown action type %q", i, actionType)
		}
	}

	return result, nil
}

// Run parses and executes a complete script in one call.
func (p *ScriptParser) Run(dslCode string, rng *rand.Rand) (*CompileResult, error) {
	actions, err := p.ParseDSL(dslCode)
	if err != nil {
		return nil, err
	}
	return CompileActions(actions, rng)
}

// clipExtent computes a clip range spanning whole bars that covers all events.
func clipExtent(events []models.NoteEvent, ts models.TimeSignature) *models.ClipRange {
	bpb := ts.BeatsPerBar()
	end := bpb
	for _, e := range events {
		if noteEnd := e.StartBeats + e.DurationBeats; noteEnd > end {
			end = noteEnd
		}
	}
	// Round up to a whole bar
	bars := int(end / bpb)
	if float64(bars)*bpb < end {
		bars++
	}
	return &models.ClipRange{StartBeats: 0, EndBeats: float64(bars) * bpb}
}
