package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/autoflow/autoflow/pkg/telemetry"
)

// RuleStats is the per-rule record of execution history. A zero value means
// the rule has never been executed.
type RuleStats struct {
	// LastExecution is the start time of the most recent attempt.
	LastExecution time.Time `json:"last_execution"`

	// Duration is the wall-clock time of the most recent attempt.
	Duration time.Duration `json:"duration"`

	// SuccessCount is the cumulative number of successful attempts.
	SuccessCount int64 `json:"success_count"`

	// FailureCount is the cumulative number of failed attempts.
	FailureCount int64 `json:"failure_count"`

	// LastSuccess reflects only the most recent attempt.
	LastSuccess bool `json:"last_success"`

	// LastError is the message of the most recent failure. It is
	// overwritten on the next failure, not cleared on success.
	LastError string `json:"last_error,omitempty"`
}

// RuleResult is the outcome of one rule execution within a pass.
type RuleResult struct {
	Rule     string        `json:"rule"`
	Success  bool          `json:"success"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// PassRecord describes one completed execution pass.
type PassRecord struct {
	ID          string       `json:"id"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt time.Time    `json:"completed_at"`
	Success     bool         `json:"success"`
	Results     []RuleResult `json:"results"`
}

// Recorder receives completed pass records, typically for persistence.
// Recorder failures are logged and never affect the pass result.
type Recorder interface {
	RecordPass(ctx context.Context, pass PassRecord) error
}

// Engine holds the ordered registry of rules and their statistics, and
// executes all enabled rules concurrently per pass.
//
// Registration is expected to happen before any concurrent execution begins;
// the Engine does not support registering rules during a pass.
type Engine struct {
	logger   *telemetry.Logger
	metrics  *telemetry.Metrics
	tracer   *telemetry.Tracer
	recorder Recorder

	// mu guards rules and stats. It is held only for registry mutation and
	// for the brief read-modify-write of one rule's stats entry, never
	// across a rule's Execute call.
	mu    sync.Mutex
	rules []Rule
	stats map[string]*RuleStats
}

// New creates an Engine. The logger is required; metrics, tracing, and pass
// recording are attached with the With* methods and may be left unset.
func New(logger *telemetry.Logger) *Engine {
	if logger == nil {
		logger = telemetry.FromContext(context.Background())
	}
	return &Engine{
		logger: logger.NewComponentLogger("engine"),
		stats:  make(map[string]*RuleStats),
	}
}

// WithMetrics attaches a metrics collector.
func (e *Engine) WithMetrics(m *telemetry.Metrics) *Engine {
	e.metrics = m
	return e
}

// WithTracer attaches a tracer.
func (e *Engine) WithTracer(t *telemetry.Tracer) *Engine {
	e.tracer = t
	return e
}

// WithRecorder attaches a pass recorder.
func (e *Engine) WithRecorder(r Recorder) *Engine {
	e.recorder = r
	return e
}

// Register appends a rule to the registry and creates a zeroed statistics
// entry keyed by the rule's name. It fails with a validation error on a nil
// rule, an empty name, or a name that is already registered.
func (e *Engine) Register(rule Rule) error {
	if rule == nil {
		return NewValidationError("rule is nil", nil).WithCode(ErrCodeNilRule)
	}
	name := rule.Name()
	if name == "" {
		return NewValidationError("rule name is empty", nil).WithCode(ErrCodeEmptyName)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.stats[name]; exists {
		return NewValidationError("rule already registered", nil).
			WithCode(ErrCodeDuplicateRule).
			WithRule(name)
	}

	e.rules = append(e.rules, rule)
	e.stats[name] = &RuleStats{}

	e.logger.WithRule(name).Debug("Registered rule")
	return nil
}

// Rules returns the registered rules in registration order. The returned
// slice is a snapshot; the Rule values are shared.
func (e *Engine) Rules() []Rule {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Stats returns a copy of the stored statistics for the named rule, or a
// zero-valued RuleStats if the name is unknown. It never fails.
func (e *Engine) Stats(name string) RuleStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	if st, ok := e.stats[name]; ok {
		return *st
	}
	return RuleStats{}
}

// ExecuteAll runs every enabled rule in its own goroutine, waits for all of
// them to finish, and returns true iff every launched rule succeeded. A
// single failure makes the aggregate false but never prevents the other
// rules from completing; with no enabled rules the result is vacuously true.
// Disabled rules are skipped without touching their statistics.
//
// Errors raised inside a rule are recovered here and recorded in that rule's
// statistics; they are never propagated to the caller.
func (e *Engine) ExecuteAll(ctx context.Context) bool {
	passID := uuid.New().String()
	logger := e.logger.WithPass(passID)
	startedAt := time.Now()

	ctx, span := e.tracer.StartPassSpan(ctx, passID)
	defer span.End()

	rules := e.Rules()

	e.metrics.PassStarted()

	var (
		wg      sync.WaitGroup
		results = make(chan RuleResult, len(rules))
	)

	launched := 0
	for _, rule := range rules {
		if !rule.Enabled() {
			logger.WithRule(rule.Name()).Debug("Skipping disabled rule")
			continue
		}
		launched++
		wg.Add(1)
		go func(r Rule) {
			defer wg.Done()
			results <- e.executeRule(ctx, logger, r)
		}(rule)
	}

	wg.Wait()
	close(results)

	record := PassRecord{
		ID:        passID,
		StartedAt: startedAt,
		Success:   true,
		Results:   make([]RuleResult, 0, launched),
	}
	for res := range results {
		if !res.Success {
			record.Success = false
		}
		record.Results = append(record.Results, res)
	}
	record.CompletedAt = time.Now()

	e.metrics.PassCompleted(record.Success, record.CompletedAt.Sub(startedAt))
	if record.Success {
		telemetry.RecordSuccess(span)
	} else {
		span.SetAttributes(telemetry.AttrPassResult.String("failure"))
	}

	logger.WithField("rules", launched).
		WithField("success", record.Success).
		Info("Execution pass completed")

	if e.recorder != nil {
		if err := e.recorder.RecordPass(ctx, record); err != nil {
			logger.WithError(err).Warn("Failed to record execution pass")
		}
	}

	return record.Success
}

// executeRule runs one rule, converts any error or panic into a failure
// outcome, and applies exactly one statistics update for the attempt.
func (e *Engine) executeRule(ctx context.Context, logger *telemetry.Logger, rule Rule) RuleResult {
	name := rule.Name()
	ruleLogger := logger.WithRule(name)

	ctx, span := e.tracer.StartRuleSpan(ctx, name)
	defer span.End()

	start := time.Now()
	err := runRecovered(ctx, rule)
	elapsed := time.Since(start)

	e.mu.Lock()
	st, ok := e.stats[name]
	if !ok {
		st = &RuleStats{}
		e.stats[name] = st
	}
	st.LastExecution = start
	st.Duration = elapsed
	if err != nil {
		st.FailureCount++
		st.LastSuccess = false
		st.LastError = err.Error()
	} else {
		st.SuccessCount++
		st.LastSuccess = true
	}
	e.mu.Unlock()

	e.metrics.RuleExecuted(name, err == nil, elapsed)

	result := RuleResult{
		Rule:     name,
		Success:  err == nil,
		Duration: elapsed,
	}
	if err != nil {
		result.Error = err.Error()
		telemetry.RecordError(span, err)
		ruleLogger.WithError(err).
			WithField("duration", elapsed.String()).
			Error("Rule execution failed")
	} else {
		telemetry.RecordSuccess(span)
		ruleLogger.WithField("duration", elapsed.String()).
			Debug("Rule execution succeeded")
	}

	return result
}

// runRecovered invokes the rule and converts a panic into an execution error.
func runRecovered(ctx context.Context, rule Rule) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewExecutionError(fmt.Sprintf("rule panicked: %v", r), nil).
				WithRule(rule.Name())
		}
	}()
	return rule.Execute(ctx)
}
