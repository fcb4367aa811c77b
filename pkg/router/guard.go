package router

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	oerrors "github.com/vango-dev/outlet/internal/errors"
)

// GuardEvaluator compiles and evaluates route guard expressions.
//
// A guard is a CEL expression with one variable, `params`, a map of the
// route's params. It must evaluate to a bool:
//
//	params.id != "0"
//	params.tab in ["profile", "settings"]
type GuardEvaluator struct {
	env   *cel.Env
	cache map[string]cel.Program
	mu    sync.RWMutex
}

// NewGuardEvaluator creates a guard evaluator.
func NewGuardEvaluator() (*GuardEvaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("params", cel.MapType(cel.StringType, cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("creating CEL environment: %w", err)
	}
	return &GuardEvaluator{
		env:   env,
		cache: make(map[string]cel.Program),
	}, nil
}

// Validate compiles an expression and checks that it yields a bool.
func (g *GuardEvaluator) Validate(expression string) error {
	_, err := g.program(expression)
	return err
}

// Allow evaluates a guard against route params.
func (g *GuardEvaluator) Allow(ctx context.Context, expression string, params Params) (bool, error) {
	program, err := g.program(expression)
	if err != nil {
		return false, err
	}

	out, _, err := program.ContextEval(ctx, map[string]any{
		"params": map[string]string(params.Clone()),
	})
	if err != nil {
		return false, fmt.Errorf("evaluating guard %q: %w", expression, err)
	}

	allowed, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("guard %q returned %T, want bool", expression, out.Value())
	}
	return allowed, nil
}

// program returns a compiled program from the cache or compiles it.
func (g *GuardEvaluator) program(expression string) (cel.Program, error) {
	g.mu.RLock()
	if program, ok := g.cache[expression]; ok {
		g.mu.RUnlock()
		return program, nil
	}
	g.mu.RUnlock()

	g.mu.Lock()
	defer g.mu.Unlock()

	if program, ok := g.cache[expression]; ok {
		return program, nil
	}

	ast, issues := g.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, invalidGuard(expression, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, invalidGuard(expression, fmt.Errorf("returns %s, want bool", ast.OutputType()))
	}

	program, err := g.env.Program(ast)
	if err != nil {
		return nil, invalidGuard(expression, err)
	}

	g.cache[expression] = program
	return program, nil
}

func invalidGuard(expression string, cause error) error {
	return oerrors.New("R202").
		WithDetailf("%q: %v", expression, cause).
		Wrap(fmt.Errorf("%w: %w", ErrInvalidGuard, cause))
}
