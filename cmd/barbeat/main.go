package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"

	"github.com/adamjmurray/producer-pal-sub014/config"
	"github.com/adamjmurray/producer-pal-sub014/export"
	"github.com/adamjmurray/producer-pal-sub014/metrics"
	"github.com/adamjmurray/producer-pal-sub014/models"
	"github.com/adamjmurray/producer-pal-sub014/modulation"
	"github.com/adamjmurray/producer-pal-sub014/notation"
	"github.com/adamjmurray/producer-pal-sub014/script"
)

const sentryFlushTimeout = 2 * time.Second

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	sigFlag := flag.String("sig", "", "time signature, e.g. 4/4 or 6/8 (default from BARBEAT_TIME_SIG)")
	formatFlag := flag.String("format", "json", "output format: json, yaml, or midi")
	legacyFlag := flag.Bool("legacy", false, "compile the legacy dialect instead of bar|beat notation")
	scriptFlag := flag.Bool("script", false, "treat input as a clip script with clip()/transform()/time_sig() calls")
	transformFlag := flag.String("transform", "", "modulation statements to apply after compiling")
	seedFlag := flag.Int64("seed", 0, "seed for rand()/choose() in transforms (0 = time-based)")
	outFlag := flag.String("out", "", "output file (default stdout)")
	flag.Parse()

	// Initialize Sentry
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          "barbeat@" + releaseVersion,
			EnableTracing:    true,
			TracesSampleRate: 1.0,
		}); err != nil {
			log.Printf("Failed to initialize Sentry: %v", err)
		} else {
			defer sentry.Flush(sentryFlushTimeout)
		}
	}

	sig := *sigFlag
	if sig == "" {
		sig = cfg.DefaultTimeSig
	}
	ts, err := parseTimeSig(sig)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	source, err := readSource(flag.Args())
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	m := metrics.NewSentryMetrics()
	ctx := context.Background()

	var rng *rand.Rand
	if *seedFlag != 0 {
		rng = rand.New(rand.NewSource(*seedFlag))
	}

	// Compile
	start := time.Now()
	var result *notation.Result
	if *scriptFlag {
		result, err = runScript(ctx, m, source, rng)
		if err != nil {
			sentry.CaptureException(err)
			log.Fatalf("❌ %v", err)
		}
	} else {
		dialect := "barbeat"
		if *legacyFlag {
			dialect = "legacy"
			result, err = notation.InterpretLegacy(source, ts)
		} else {
			result, err = notation.Interpret(source, ts)
		}
		if err != nil {
			sentry.CaptureException(err)
			log.Fatalf("❌ %v", err)
		}
		m.RecordCompile(ctx, dialect, len(result.Events), len(result.Diagnostics), time.Since(start))
	}

	// Transform
	if *transformFlag != "" {
		evalCtx := &modulation.EvaluationContext{
			TimeSig:   ts,
			ClipRange: clipExtent(result.Events, ts),
			Rand:      rng,
		}
		start = time.Now()
		diags, err := modulation.ApplyString(result.Events, *transformFlag, evalCtx)
		if err != nil {
			sentry.CaptureException(err)
			log.Fatalf("❌ %v", err)
		}
		result.Diagnostics = append(result.Diagnostics, diags...)
		m.RecordTransform(ctx, strings.Count(*transformFlag, "\n")+1, len(result.Events), len(diags), time.Since(start))
	}

	for _, d := range result.Diagnostics {
		log.Printf("⚠️  %s: %s", d.Severity, d.Message)
	}

	doc := &export.Document{
		TimeSig:     fmt.Sprintf("%d/%d", ts.Numerator, ts.Denominator),
		Events:      result.Events,
		Diagnostics: result.Diagnostics,
	}

	out := os.Stdout
	if *outFlag != "" {
		f, err := os.Create(*outFlag)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		defer f.Close()
		out = f
	}

	switch *formatFlag {
	case "json":
		err = export.WriteJSON(out, doc)
	case "yaml":
		err = export.WriteYAML(out, doc)
	case "midi":
		err = export.WriteSMF(out, doc, ts)
	default:
		log.Fatalf("❌ unknown format %q (want json, yaml, or midi)", *formatFlag)
	}
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("❌ %v", err)
	}
}

// runScript parses and executes a clip script, converting its result into the
// shape the output encoders expect.
func runScript(ctx context.Context, m *metrics.SentryMetrics, source string, rng *rand.Rand) (*notation.Result, error) {
	parser, err := script.NewScriptParser()
	if err != nil {
		return nil, err
	}
	actions, err := parser.ParseDSL(source)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	compiled, err := script.CompileActions(actions, rng)
	m.RecordScriptRun(ctx, len(actions), time.Since(start), err == nil)
	if err != nil {
		return nil, err
	}
	return &notation.Result{Events: compiled.Events, Diagnostics: compiled.Diagnostics}, nil
}

// readSource returns the notation source: the remaining args joined, or stdin
// when no args are given.
func readSource(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("no notation given (pass as arguments or on stdin)")
	}
	return string(data), nil
}

func parseTimeSig(s string) (models.TimeSignature, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return models.TimeSignature{}, fmt.Errorf("invalid time signature %q (want N/D)", s)
	}
	num, err := strconv.Atoi(parts[0])
	if err != nil || num < 1 {
		return models.TimeSignature{}, fmt.Errorf("invalid time signature numerator %q", parts[0])
	}
	den, err := strconv.Atoi(parts[1])
	if err != nil || den < 1 {
		return models.TimeSignature{}, fmt.Errorf("invalid time signature denominator %q", parts[1])
	}
	return models.TimeSignature{Numerator: num, Denominator: den}, nil
}

// clipExtent computes a whole-bar clip range covering all events.
func clipExtent(events []models.NoteEvent, ts models.TimeSignature) *models.ClipRange {
	bpb := ts.BeatsPerBar()
	end := bpb
	for _, e := range events {
		if noteEnd := e.StartBeats + e.DurationBeats; noteEnd > end {
			end = noteEnd
		}
	}
	bars := int(end / bpb)
	if float64(bars)*bpb < end {
		bars++
	}
	return &models.ClipRange{StartBeats: 0, EndBeats: float64(bars) * bpb}
}
