package signals

import (
	"errors"
	"testing"
)

type mapProgramCache struct {
	programs map[string]any
}

func newMapProgramCache() *mapProgramCache {
	return &mapProgramCache{programs: map[string]any{}}
}

func (c *mapProgramCache) Get(key string) (any, bool) {
	program, ok := c.programs[key]
	return program, ok
}

func (c *mapProgramCache) Set(key string, value any) {
	c.programs[key] = value
}

func TestDefineComputedExpr(t *testing.T) {
	store := NewStore()
	store.Set("count", 2)

	detach, err := DefineComputed(store, "double", "count * 2", NewExprEvaluator())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer detach()

	if value, _ := store.Get("double"); value != 4 {
		t.Fatalf("expected initial computation, got %v", value)
	}

	store.Set("count", 5)
	if value, _ := store.Get("double"); value != 10 {
		t.Fatalf("expected recomputation, got %v", value)
	}
}

func TestDefineComputedCEL(t *testing.T) {
	store := NewStore()
	store.Set("a", 2)
	store.Set("b", 3)

	detach, err := DefineComputed(store, "sum", "a + b", NewCELEvaluator(CELWithProgramCache(newMapProgramCache())))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer detach()

	if value, _ := store.Get("sum"); value != int64(5) {
		t.Fatalf("expected 5, got %v (%T)", value, value)
	}

	store.Set("b", 10)
	if value, _ := store.Get("sum"); value != int64(12) {
		t.Fatalf("expected 12, got %v (%T)", value, value)
	}
}

func TestDefineComputedKeepsValueOnFailure(t *testing.T) {
	registry := NewFunctionRegistry()
	calls := 0
	if err := registry.Register("flaky", func(args ...any) (any, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("downstream gone")
		}
		return "ok", nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store := NewStore()
	store.Set("trigger", 1)

	var events []EvaluatorLogEvent
	detach, err := DefineComputed(store, "status", "trigger >= 1 ? flaky() : 'idle'",
		NewExprEvaluator(ExprWithFunctionRegistry(registry)),
		ComputedWithLogger(EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
			events = append(events, event)
		})),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer detach()

	if value, _ := store.Get("status"); value != "ok" {
		t.Fatalf("expected first evaluation to succeed, got %v", value)
	}

	store.Set("trigger", 2)
	if value, _ := store.Get("status"); value != "ok" {
		t.Fatalf("failed evaluation should keep previous value, got %v", value)
	}

	if len(events) != 2 {
		t.Fatalf("expected two logged evaluations, got %d", len(events))
	}
	if events[0].Err != nil {
		t.Fatalf("first evaluation should log success, got %v", events[0].Err)
	}
	if events[1].Err == nil {
		t.Fatal("second evaluation should log the failure")
	}
	if events[1].Engine != "expr" || events[1].Signal != "status" {
		t.Fatalf("unexpected event metadata %+v", events[1])
	}
}

func TestDefineComputedValidation(t *testing.T) {
	store := NewStore()
	if _, err := DefineComputed(nil, "x", "1", NewExprEvaluator()); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := DefineComputed(store, "", "1", NewExprEvaluator()); err == nil {
		t.Fatal("expected error for empty name")
	}
	if _, err := DefineComputed(store, "x", "1", nil); !errors.Is(err, ErrNoEvaluator) {
		t.Fatalf("expected ErrNoEvaluator, got %v", err)
	}
	if _, err := DefineComputed(store, "x", "", NewExprEvaluator()); err == nil {
		t.Fatal("expected compile error for empty expression")
	}
}

func TestExprProgramCacheReuse(t *testing.T) {
	cache := newMapProgramCache()
	evaluator := NewExprEvaluator(ExprWithProgramCache(cache))

	if _, err := evaluator.Evaluate(EvalContext{Signals: map[string]any{"n": 1}}, "n + 1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cache.programs) != 1 {
		t.Fatalf("expected compiled program cached, got %d entries", len(cache.programs))
	}
	if value, err := evaluator.Evaluate(EvalContext{Signals: map[string]any{"n": 41}}, "n + 1"); err != nil || value != 42 {
		t.Fatalf("cached program misbehaved: value=%v err=%v", value, err)
	}
}
