// Package script provides a small Lisp front-end for assembling implicit
// models. It wraps zygomys in a sandboxed environment: scripts call
// builtins like sphere, gyroid, union and output to build an
// ImplicitModel, and each evaluation runs in a fresh interpreter for
// determinism.
package script

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/joelhi/imlet-go/pkg/model"
)

// DefaultScriptBudget bounds a single evaluation when the caller's
// context carries no deadline of its own.
const DefaultScriptBudget = 5 * time.Second

// EvalError is a non-fatal error encountered while evaluating a script,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Result is the output of a successful evaluation: the assembled model
// and the name of the node selected with (output ...), empty when the
// script never selected one.
type Result struct {
	Model  *model.ImplicitModel[float64]
	Output string
}

// Engine evaluates model scripts. It is safe for concurrent use; each
// call to Evaluate creates a fresh sandboxed environment, so evaluations
// share no state.
type Engine struct {
	// Budget caps one evaluation when the context has no deadline.
	Budget time.Duration
}

// NewEngine creates a new Engine with the default script budget.
func NewEngine() *Engine {
	return &Engine{Budget: DefaultScriptBudget}
}

type evalResult struct {
	result *Result
	errors []EvalError
	err    error
}

// Evaluate runs a script with the engine's default budget.
func (e *Engine) Evaluate(source string) (*Result, []EvalError, error) {
	return e.EvaluateContext(context.Background(), source)
}

// EvaluateContext runs a script and produces an implicit model. The
// interpreter cannot be interrupted mid-instruction, so cancellation is
// observed between the caller and the running script: when the context
// ends first, the call returns ErrCancelled and the abandoned script's
// result is dropped on completion.
//
// Return semantics:
//   - success: Result + nil errors + nil error
//   - parse or runtime failure in the script: nil + eval errors + nil error
//   - cancellation, deadline or interpreter panic: nil + nil + error
func (e *Engine) EvaluateContext(ctx context.Context, source string) (*Result, []EvalError, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: script evaluation: %v", model.ErrCancelled, err)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		budget := e.Budget
		if budget <= 0 {
			budget = DefaultScriptBudget
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	// Buffered so the worker never blocks when the result is dropped.
	ch := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("interpreter panic: %v", r)}
			}
		}()
		result, evalErrs, err := e.evaluate(source)
		ch <- evalResult{result: result, errors: evalErrs, err: err}
	}()

	select {
	case res := <-ch:
		return res.result, res.errors, res.err
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("%w: script evaluation: %v", model.ErrCancelled, ctx.Err())
	}
}

func (e *Engine) evaluate(source string) (*Result, []EvalError, error) {
	if strings.TrimSpace(source) == "" {
		return &Result{Model: model.New[float64]()}, nil, nil
	}

	// Sandbox mode keeps user code away from the filesystem and
	// syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	builder := newBuilder()
	registerBuiltins(env, builder)

	if err := env.LoadString(source); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}

	return &Result{Model: builder.model, Output: builder.output}, nil, nil
}

// linePattern matches zygomys error messages of the form
// "Error on line N: ...".
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	if m := linePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
	}
	return []EvalError{{Message: msg}}
}
