package instrument

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Built-in engine names.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

var ErrNoEvaluator = errors.New("instrument: evaluator not configured")

// EvalContext carries the inputs of a computed attribute evaluation. Every
// engine sees the Values as top level variables next to now, args, metadata
// and attribute.
type EvalContext struct {
	// Values is a snapshot of the instance dict.
	Values    map[string]any
	State     any
	Attribute string
	Now       *time.Time
	Args      map[string]any
	Metadata  map[string]any
}

func (ctx EvalContext) prepared() EvalContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Values == nil {
		ctx.Values = map[string]any{}
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx EvalContext) label() string {
	if ctx.Attribute != "" {
		return ctx.Attribute
	}
	return "unknown"
}

// reservedNames are the bindings instance values cannot shadow.
var reservedNames = map[string]struct{}{
	"now": {}, "args": {}, "metadata": {}, "attribute": {}, "call": {},
}

// bindings flattens a prepared context into variables.
func (ctx EvalContext) bindings() map[string]any {
	vars := make(map[string]any, len(ctx.Values)+4)
	for key, value := range ctx.Values {
		if _, reserved := reservedNames[key]; reserved {
			continue
		}
		vars[key] = value
	}
	vars["now"] = *ctx.Now
	vars["args"] = ctx.Args
	vars["metadata"] = ctx.Metadata
	vars["attribute"] = ctx.Attribute
	return vars
}

// Evaluator runs expressions for computed attributes.
type Evaluator interface {
	Engine() string
	Evaluate(ctx EvalContext, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule is an expression compiled once and evaluated many times.
type CompiledRule interface {
	Evaluate(ctx EvalContext) (any, error)
}

type ruleFunc func(ctx EvalContext) (any, error)

func (f ruleFunc) Evaluate(ctx EvalContext) (any, error) {
	return f(ctx.prepared())
}

func checkExpression(engine, expression string) error {
	if strings.TrimSpace(expression) == "" {
		return evaluatorError(engine, fmt.Errorf("expression must not be empty"))
	}
	return nil
}

// loadProgram returns the program cached under key, compiling and storing it
// on a miss. A nil cache compiles every time.
func loadProgram[P any](cache ProgramCache, key string, compile func() (P, error)) (P, error) {
	if cache != nil {
		if cached, ok := cache.Get(key); ok {
			if program, ok := cached.(P); ok {
				return program, nil
			}
		}
	}
	program, err := compile()
	if err != nil {
		return program, err
	}
	if cache != nil {
		cache.Set(key, program)
	}
	return program, nil
}
