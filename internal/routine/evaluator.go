package routine

import (
	"fmt"
	"strings"
	"sync"

	"github.com/aanduque/checkmate/internal/task"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Scope names the variables an expression may refer to.
type Scope int

const (
	// ActivationScope expressions see Context.Env.
	ActivationScope Scope = iota
	// FilterScope expressions see TaskEnv.
	FilterScope
)

func (s Scope) String() string {
	if s == FilterScope {
		return "filter"
	}
	return "activation"
}

// Evaluator evaluates boolean expressions over a flat variable record.
// Expressions are checked against the variables of their scope, so unknown
// names and type mismatches fail validation.
type Evaluator interface {
	Validate(scope Scope, expression string) error
	// Evaluate returns false for malformed expressions or runtime errors.
	Evaluate(scope Scope, expression string, env map[string]any) bool
	Compile(scope Scope, expression string) (Program, error)
}

// Program is a compiled expression that can be evaluated many times.
type Program interface {
	Eval(env map[string]any) bool
}

type cacheKey struct {
	scope Scope
	src   string
}

// ExprEvaluator implements Evaluator with expr-lang/expr. Compiled programs
// are cached by scope and source text; it is safe for concurrent use.
type ExprEvaluator struct {
	mu     sync.Mutex
	cache  map[cacheKey]*vm.Program
	shapes map[Scope]map[string]any
}

// NewExprEvaluator returns an empty evaluator.
func NewExprEvaluator() *ExprEvaluator {
	return &ExprEvaluator{
		cache: make(map[cacheKey]*vm.Program),
		shapes: map[Scope]map[string]any{
			ActivationScope: Context{}.Env(),
			FilterScope:     TaskEnv(&task.Task{}, nil),
		},
	}
}

func (e *ExprEvaluator) compile(scope Scope, src string) (*vm.Program, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, fmt.Errorf("empty expression")
	}
	shape, ok := e.shapes[scope]
	if !ok {
		return nil, fmt.Errorf("unknown expression scope %d", scope)
	}
	key := cacheKey{scope, src}
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.cache[key]; ok {
		return p, nil
	}
	p, err := expr.Compile(src, expr.Env(shape), expr.AsBool())
	if err != nil {
		return nil, err
	}
	e.cache[key] = p
	return p, nil
}

// Validate implements Evaluator.
func (e *ExprEvaluator) Validate(scope Scope, expression string) error {
	_, err := e.compile(scope, expression)
	return err
}

// Evaluate implements Evaluator.
func (e *ExprEvaluator) Evaluate(scope Scope, expression string, env map[string]any) bool {
	p, err := e.compile(scope, expression)
	if err != nil {
		return false
	}
	return exprProgram{p}.Eval(env)
}

// Compile implements Evaluator.
func (e *ExprEvaluator) Compile(scope Scope, expression string) (Program, error) {
	p, err := e.compile(scope, expression)
	if err != nil {
		return nil, err
	}
	return exprProgram{p}, nil
}

type exprProgram struct {
	p *vm.Program
}

func (p exprProgram) Eval(env map[string]any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	out, err := expr.Run(p.p, env)
	if err != nil {
		return false
	}
	b, _ := out.(bool)
	return b
}
