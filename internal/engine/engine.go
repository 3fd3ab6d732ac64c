package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jarnaud/docfields/constants"
	"github.com/jarnaud/docfields/internal/acquire"
	"github.com/jarnaud/docfields/internal/candidates"
	"github.com/jarnaud/docfields/internal/fields"
	"github.com/jarnaud/docfields/internal/normalize"
	"github.com/jarnaud/docfields/internal/trace"
)

// Request is the engine's input contract: opaque bytes, a filename or MIME
// hint for classification, and the caller-supplied module hint.
type Request struct {
	Bytes    []byte
	Filename string
	Module   constants.Module
}

// Engine is the document field-extraction and arbitration pipeline. One
// Engine may serve arbitrarily many concurrent Extract calls; each call is
// pure given its inputs and shares only the bounded recognition pool.
type Engine struct {
	logger    *slog.Logger
	acquirer  *acquire.Acquirer
	pattern   *candidates.Pattern
	layout    *candidates.Layout
	proximity *candidates.Proximity
	tabular   *candidates.Tabular
}

func New(acquirer *acquire.Acquirer, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		logger:    logger,
		acquirer:  acquirer,
		pattern:   candidates.NewPattern(logger),
		layout:    candidates.NewLayout(logger),
		proximity: candidates.NewProximity(logger),
		tabular:   candidates.NewTabular(logger),
	}
}

// Extract runs the full pipeline: acquisition, candidate generation,
// arbitration, arithmetic repair, confidence scoring. It always returns a
// usable ExtractionResult and never panics past this boundary; total failure
// degrades to an all-null field set with the base confidence and a trace
// explaining why.
func (e *Engine) Extract(ctx context.Context, req Request) (res fields.ExtractionResult) {
	rec := trace.NewRecorder(e.logger)
	runID := uuid.New()
	module, known := constants.ParseModule(string(req.Module))
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("extraction panic", "run_id", runID, "panic", r)
			rec.Add("extract", trace.StatusFailed, "panic", fmt.Sprint(r))
			res = fields.ExtractionResult{
				RunID:      runID,
				Module:     module,
				FieldSet:   fields.NewSet(),
				Confidence: BaseConfidence,
				Trace:      rec.Steps(),
			}
		}
	}()

	rec.Add("extract", trace.StatusStart, "module", string(module), "bytes", len(req.Bytes), "filename", req.Filename)
	if !known && req.Module != "" {
		rec.Add("classify-module", trace.StatusPartial, "hint", string(req.Module), "fallback", string(module))
	}

	acq := e.acquirer.Acquire(ctx, req.Bytes, req.Filename, rec)

	pool := e.generate(acq, module, rec)
	set := Arbitrate(pool)
	rec.Add("arbitrate", generatorStatus(len(pool)), "candidates", len(pool), "fields", countPresent(set))

	totalsOK := normalize.Repair(set)
	rec.Add("repair", trace.StatusSuccess, "totals_ok", totalsOK)

	confidence := Confidence(set, totalsOK, acq.Text)
	rec.Add("extract", trace.StatusSuccess, "confidence", confidence)

	return fields.ExtractionResult{
		RunID:      runID,
		Module:     module,
		FieldSet:   set,
		Confidence: confidence,
		TotalsOK:   totalsOK,
		Trace:      rec.Steps(),
	}
}

// generate runs every applicable generator independently; none depends on
// another's output. All candidates land in one shared pool keyed by field.
func (e *Engine) generate(acq acquire.Result, module constants.Module, rec *trace.Recorder) []fields.Candidate {
	var pool []fields.Candidate

	if len(acq.Rows) > 0 {
		// Tabular input: the serialized row text exists for trace/debug only,
		// the cells themselves are the signal.
		cands := e.tabular.Generate(acq.Rows)
		rec.Add("generate.tabular", generatorStatus(len(cands)), "candidates", len(cands))
		pool = append(pool, cands...)
		return pool
	}
	if acq.Text != "" {
		cands := e.pattern.Generate(acq.Text, module)
		rec.Add("generate.pattern", generatorStatus(len(cands)), "candidates", len(cands))
		pool = append(pool, cands...)

		cands = e.proximity.Generate(acq.Text)
		rec.Add("generate.proximity", generatorStatus(len(cands)), "candidates", len(cands))
		pool = append(pool, cands...)
	}
	if len(acq.Tokens) > 0 {
		cands := e.layout.Generate(acq.Tokens)
		rec.Add("generate.layout", generatorStatus(len(cands)), "candidates", len(cands))
		pool = append(pool, cands...)
	}
	return pool
}

func generatorStatus(n int) trace.Status {
	if n == 0 {
		return trace.StatusNoMatch
	}
	return trace.StatusSuccess
}

func countPresent(set fields.Set) int {
	n := 0
	for _, v := range set {
		if v != nil {
			n++
		}
	}
	return n
}
