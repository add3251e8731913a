//go:build js_eval

package instrument

import (
	"fmt"
	"time"

	"github.com/dop251/goja"
)

type jsEvaluator struct {
	jsEvaluatorConfig
}

// NewJSEvaluator returns an Evaluator backed by goja. Each evaluation runs in
// a fresh runtime; compiled scripts are shared.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	return &jsEvaluator{jsEvaluatorConfig: newJSEvaluatorConfig(opts)}
}

func (e *jsEvaluator) Engine() string { return EngineJS }

func (e *jsEvaluator) Evaluate(ctx EvalContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *jsEvaluator) Compile(expression string) (CompiledRule, error) {
	if err := checkExpression(EngineJS, expression); err != nil {
		return nil, err
	}
	program, err := loadProgram(e.cache, "js:"+expression, func() (*goja.Program, error) {
		return goja.Compile("", fmt.Sprintf("(function(){ return (%s); })()", expression), true)
	})
	if err != nil {
		return nil, evaluationError(EngineJS, StageCompile, expression, "", err)
	}
	return ruleFunc(func(ctx EvalContext) (any, error) {
		value, err := e.run(ctx, program)
		if err != nil {
			return nil, evaluationError(EngineJS, StageRun, expression, ctx.label(), err)
		}
		return value, nil
	}), nil
}

func (e *jsEvaluator) run(ctx EvalContext, program *goja.Program) (any, error) {
	vm := goja.New()
	for name, value := range ctx.bindings() {
		if err := vm.Set(name, value); err != nil {
			return nil, err
		}
	}
	if e.registry != nil {
		if err := vm.Set("call", func(name string, arguments ...any) (any, error) {
			return e.registry.Call(name, arguments...)
		}); err != nil {
			return nil, err
		}
		for _, name := range e.registry.Names() {
			name := name
			if err := vm.Set(name, func(arguments ...any) (any, error) {
				return e.registry.Call(name, arguments...)
			}); err != nil {
				return nil, err
			}
		}
	}
	if e.timeout > 0 {
		timer := time.AfterFunc(e.timeout, func() {
			vm.Interrupt(fmt.Sprintf("evaluation exceeded %s", e.timeout))
		})
		defer timer.Stop()
	}
	value, err := vm.RunProgram(program)
	if err != nil {
		return nil, err
	}
	return value.Export(), nil
}

func jsEvaluatorAvailable() bool {
	return true
}
