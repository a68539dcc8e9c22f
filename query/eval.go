package query

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/tailored-agentic-units/dotstore/value"
)

// Evaluator runs expr-lang expressions against documents. The top-level keys
// of a mapping root become variables and shadow built-in functions of the
// same name; undefined variables evaluate to nil. Compiled programs are
// cached by source text and the shape of the variables they were checked
// against.
type Evaluator struct {
	mu       sync.RWMutex
	programs map[string]*vm.Program
}

func NewEvaluator() *Evaluator {
	return &Evaluator{programs: make(map[string]*vm.Program)}
}

var defaultEvaluator = NewEvaluator()

// Eval evaluates expression with the shared Evaluator.
func Eval(root value.Value, expression string) (value.Value, error) {
	return defaultEvaluator.Eval(root, expression)
}

// Eval compiles expression against root's variables (or reuses a program
// compiled for the same variable shape) and runs it.
func (e *Evaluator) Eval(root value.Value, expression string) (value.Value, error) {
	env := environment(root)

	program, err := e.compile(expression, env)
	if err != nil {
		return value.Null(), err
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return value.Null(), fmt.Errorf("%w: %s: %v", ErrInvalidExpression, expression, err)
	}

	v, err := value.FromAny(result)
	if err != nil {
		return value.Null(), fmt.Errorf("%w: %s: result: %v", ErrInvalidExpression, expression, err)
	}
	return v, nil
}

func (e *Evaluator) compile(expression string, env map[string]any) (*vm.Program, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, fmt.Errorf("%w: expression is empty", ErrInvalidExpression)
	}

	key := cacheKey(expression, env)
	e.mu.RLock()
	program, ok := e.programs[key]
	e.mu.RUnlock()
	if ok {
		return program, nil
	}

	program, err := expr.Compile(expression,
		expr.Env(env),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidExpression, expression, err)
	}

	e.mu.Lock()
	e.programs[key] = program
	e.mu.Unlock()
	return program, nil
}

// cacheKey joins the expression with the sorted variable names and their Go
// types, which is everything the type checker sees.
func cacheKey(expression string, env map[string]any) string {
	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(expression)
	for _, name := range names {
		fmt.Fprintf(&b, "\x00%s:%T", name, env[name])
	}
	return b.String()
}

func environment(root value.Value) map[string]any {
	env, ok := root.Any().(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return env
}
