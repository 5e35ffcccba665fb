package script

import (
	"context"
	"errors"
	"testing"

	"github.com/joelhi/imlet-go/pkg/model"
)

func TestEvaluateEmptySource(t *testing.T) {
	e := NewEngine()
	result, evalErrs, err := e.Evaluate("")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(evalErrs) != 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if result.Model == nil {
		t.Fatal("empty source should yield an empty model")
	}
	if result.Output != "" {
		t.Errorf("output = %q, want none", result.Output)
	}
}

func TestEvaluateSphere(t *testing.T) {
	e := NewEngine()
	result, evalErrs, err := e.Evaluate(`(output (sphere (vec3 5 5 5) 4))`)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(evalErrs) != 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if result.Output != "sphere_1" {
		t.Errorf("output = %q, want sphere_1", result.Output)
	}

	// The sphere evaluates like a distance function.
	v, err := result.Model.EvaluateAt(result.Output, 5, 5, 5)
	if err != nil {
		t.Fatal(err)
	}
	if v != -4.0 {
		t.Errorf("value at center = %v, want -4", v)
	}
}

func TestEvaluateBooleanPipeline(t *testing.T) {
	e := NewEngine()
	src := `(output (intersection (sphere (vec3 0 0 0) 2) (gyroid 2.5)))`
	result, evalErrs, err := e.Evaluate(src)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(evalErrs) != 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	names := result.Model.ComponentNames()
	if len(names) != 3 {
		t.Fatalf("component count = %d, want 3 (%v)", len(names), names)
	}

	if _, err := result.Model.EvaluateAt(result.Output, 0.3, 0.1, -0.2); err != nil {
		t.Fatalf("EvaluateAt: %v", err)
	}
}

func TestEvaluateConstantSum(t *testing.T) {
	e := NewEngine()
	result, evalErrs, err := e.Evaluate(`(output (add (constant 1.0) (constant 1.0)))`)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(evalErrs) != 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	v, err := result.Model.EvaluateAt(result.Output, 0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if v != 2.0 {
		t.Errorf("sum = %v, want exactly 2", v)
	}
}

func TestEvaluateDeterministicNames(t *testing.T) {
	e := NewEngine()
	src := `(union (sphere (vec3 0 0 0) 1) (sphere (vec3 2 0 0) 1))`

	first, _, err := e.Evaluate(src)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := e.Evaluate(src)
	if err != nil {
		t.Fatal(err)
	}

	a := first.Model.ComponentNames()
	b := second.Model.ComponentNames()
	if len(a) != len(b) {
		t.Fatalf("name counts differ: %v vs %v", a, b)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("name %d differs: %q vs %q", i, a[i], b[i])
		}
	}
}

func TestEvaluateParseError(t *testing.T) {
	e := NewEngine()
	result, evalErrs, err := e.Evaluate(`(sphere (vec3 0 0 0)`)
	if err != nil {
		t.Fatalf("parse errors should be non-fatal: %v", err)
	}
	if result != nil {
		t.Error("result should be nil on parse failure")
	}
	if len(evalErrs) == 0 {
		t.Error("expected at least one eval error")
	}
}

func TestEvaluateContextCancelled(t *testing.T) {
	e := NewEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, evalErrs, err := e.EvaluateContext(ctx, `(sphere (vec3 0 0 0) 1)`)
	if !errors.Is(err, model.ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if result != nil || evalErrs != nil {
		t.Error("cancelled evaluation should drop all results")
	}
}

func TestEvaluateBadArgument(t *testing.T) {
	e := NewEngine()
	result, evalErrs, err := e.Evaluate(`(sphere 1 2)`)
	if err != nil {
		t.Fatalf("runtime errors should be non-fatal: %v", err)
	}
	if result != nil {
		t.Error("result should be nil on runtime failure")
	}
	if len(evalErrs) == 0 {
		t.Error("expected at least one eval error")
	}
}
