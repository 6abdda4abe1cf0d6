package signals

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoEvaluator indicates a computed signal was defined without an
// evaluator to run its expression.
var ErrNoEvaluator = errors.New("signals: evaluator not configured")

// ComputedOption configures a computed signal definition.
type ComputedOption func(*computedConfig)

type computedConfig struct {
	logger EvaluatorLogger
}

// ComputedWithLogger attaches an evaluator logger to the computed signal.
func ComputedWithLogger(logger EvaluatorLogger) ComputedOption {
	return func(cfg *computedConfig) {
		if logger == nil {
			cfg.logger = noopEvaluatorLogger{}
			return
		}
		cfg.logger = logger
	}
}

// DefineComputed installs name as a derived signal: expression is evaluated
// against the store's current values and re-evaluated whenever any signal it
// saw during its last run changes. An evaluation failure leaves the previous
// value in place.
//
// The expression only observes signals that existed at its last run; a
// brand-new signal joins the evaluation environment on the next recompute.
func DefineComputed(store *Store, name, expression string, evaluator Evaluator, opts ...ComputedOption) (DetachFunc, error) {
	if store == nil {
		return nil, fmt.Errorf("signals: store is required")
	}
	if name == "" {
		return nil, fmt.Errorf("signals: computed signal name must not be empty")
	}
	if evaluator == nil {
		return nil, ErrNoEvaluator
	}

	cfg := computedConfig{logger: noopEvaluatorLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	rule, err := evaluator.Compile(expression)
	if err != nil {
		return nil, err
	}

	engine := evaluatorEngineName(evaluator)
	detach := store.Watch(func() {
		snapshot := trackedSnapshot(store, name)
		start := time.Now()
		value, evalErr := rule.Evaluate(EvalContext{Signals: snapshot})
		duration := time.Since(start)
		evalErr = wrapEvaluationError(engine, expression, evalErr)
		cfg.logger.LogEvaluation(EvaluatorLogEvent{
			Engine:   engine,
			Expr:     expression,
			Signal:   name,
			Duration: duration,
			Err:      evalErr,
		})
		if evalErr != nil {
			return
		}
		store.Set(name, value)
	})
	return detach, nil
}

// trackedSnapshot reads every current signal through Get so the running
// watch picks them up as dependencies. The computed signal's own name is
// excluded to avoid a self-triggering loop.
func trackedSnapshot(store *Store, exclude string) map[string]any {
	names := store.Names()
	snapshot := make(map[string]any, len(names))
	for _, name := range names {
		if name == exclude {
			continue
		}
		if value, ok := store.Get(name); ok {
			snapshot[name] = value
		}
	}
	return snapshot
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*signals.exprEvaluator":
		return "expr"
	case "*signals.celEvaluator":
		return "cel"
	case "*signals.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}
