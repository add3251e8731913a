//go:build !js_eval

package instrument

import "fmt"

// NewJSEvaluator returns an evaluator that fails with ErrNoEvaluator: the js
// engine is only compiled in with the js_eval build tag.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	_ = newJSEvaluatorConfig(opts)
	return jsUnavailable{}
}

type jsUnavailable struct{}

func (jsUnavailable) Engine() string { return EngineJS }

func (jsUnavailable) Evaluate(EvalContext, string) (any, error) {
	return nil, fmt.Errorf("%w: js engine requires the js_eval build tag", ErrNoEvaluator)
}

func (jsUnavailable) Compile(string) (CompiledRule, error) {
	return nil, fmt.Errorf("%w: js engine requires the js_eval build tag", ErrNoEvaluator)
}

func jsEvaluatorAvailable() bool {
	return false
}
