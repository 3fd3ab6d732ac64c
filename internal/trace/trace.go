package trace

import "log/slog"

// Status is the outcome of a single pipeline step.
type Status string

// Stable values (serialized as-is for the review UI).
const (
	StatusStart   Status = "start"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusNoMatch Status = "no_match"
	StatusPartial Status = "partial"
)

// StepRecord is one entry of the ordered run trace. The trace is the only
// log a downstream consumer should rely on; slog output is best-effort.
type StepRecord struct {
	Step    string         `json:"step"`
	Status  Status         `json:"status"`
	Metrics map[string]any `json:"metrics,omitempty"`
}

// Recorder accumulates StepRecords for a single engine invocation.
// It is owned by exactly one invocation and is not safe for concurrent use.
type Recorder struct {
	steps  []StepRecord
	logger *slog.Logger
}

func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{logger: logger}
}

// Add appends one record. kv is an alternating key/value list; odd trailing
// keys are dropped.
func (r *Recorder) Add(step string, status Status, kv ...any) {
	var metrics map[string]any
	if len(kv) >= 2 {
		metrics = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			k, ok := kv[i].(string)
			if !ok {
				continue
			}
			metrics[k] = kv[i+1]
		}
	}
	r.steps = append(r.steps, StepRecord{Step: step, Status: status, Metrics: metrics})
	r.logger.Debug("trace step", "step", step, "status", string(status))
}

// Steps returns the ordered trace collected so far.
func (r *Recorder) Steps() []StepRecord {
	return r.steps
}
