package instrument

import (
	"fmt"
	"strings"
	"time"
)

// ExpressionImpl computes an attribute from the other values of the instance
// dict. Its result depends on the whole dict, so it never supports population
// and Getters always route it through the generic path.
type ExpressionImpl struct {
	attribute  string
	expression string
	evaluator  Evaluator
	engine     string
	logger     EvaluatorLogger
	args       map[string]any
	metadata   map[string]any
	rule       CompiledRule
}

type expressionConfig struct {
	engine    string
	evaluator Evaluator
	cache     ProgramCache
	registry  *FunctionRegistry
	logger    EvaluatorLogger
	args      map[string]any
	metadata  map[string]any
	compile   bool
}

// ExpressionOption configures an ExpressionImpl.
type ExpressionOption func(*expressionConfig)

// ExpressionWithEngine selects a built-in engine by name: "expr" (default),
// "cel" or "js". The js engine requires the js_eval build tag.
func ExpressionWithEngine(engine string) ExpressionOption {
	return func(cfg *expressionConfig) {
		cfg.engine = strings.ToLower(strings.TrimSpace(engine))
	}
}

// ExpressionWithEvaluator overrides the engine with a custom Evaluator.
func ExpressionWithEvaluator(evaluator Evaluator) ExpressionOption {
	return func(cfg *expressionConfig) {
		cfg.evaluator = evaluator
	}
}

// ExpressionWithProgramCache shares compiled programs between expressions.
func ExpressionWithProgramCache(cache ProgramCache) ExpressionOption {
	return func(cfg *expressionConfig) {
		cfg.cache = cache
	}
}

// ExpressionWithFunctionRegistry exposes registered helpers to the expression.
func ExpressionWithFunctionRegistry(registry *FunctionRegistry) ExpressionOption {
	return func(cfg *expressionConfig) {
		cfg.registry = registry
	}
}

// ExpressionWithLogger records every evaluation.
func ExpressionWithLogger(logger EvaluatorLogger) ExpressionOption {
	return func(cfg *expressionConfig) {
		cfg.logger = logger
	}
}

// ExpressionWithArgs sets the static args map visible as `args`.
func ExpressionWithArgs(args map[string]any) ExpressionOption {
	return func(cfg *expressionConfig) {
		cfg.args = args
	}
}

// ExpressionWithMetadata sets the static metadata map visible as `metadata`.
func ExpressionWithMetadata(metadata map[string]any) ExpressionOption {
	return func(cfg *expressionConfig) {
		cfg.metadata = metadata
	}
}

// ExpressionCompiled compiles the expression once at construction.
func ExpressionCompiled() ExpressionOption {
	return func(cfg *expressionConfig) {
		cfg.compile = true
	}
}

// NewExpressionImpl builds a computed attribute named attribute.
func NewExpressionImpl(attribute, expression string, opts ...ExpressionOption) (*ExpressionImpl, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, evaluatorError("expression", fmt.Errorf("expression must not be empty"))
	}
	cfg := expressionConfig{engine: EngineExpr}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	evaluator := cfg.evaluator
	if evaluator == nil {
		var err error
		evaluator, err = builtinEvaluator(cfg)
		if err != nil {
			return nil, err
		}
	}
	logger := cfg.logger
	if logger == nil {
		logger = noopEvaluatorLogger{}
	}
	impl := &ExpressionImpl{
		attribute:  attribute,
		expression: expression,
		evaluator:  evaluator,
		engine:     engineName(evaluator),
		logger:     logger,
		args:       cfg.args,
		metadata:   cfg.metadata,
	}
	if cfg.compile {
		rule, err := evaluator.Compile(expression)
		if err != nil {
			return nil, evaluationError(impl.engine, StageCompile, expression, attribute, err)
		}
		impl.rule = rule
	}
	return impl, nil
}

func builtinEvaluator(cfg expressionConfig) (Evaluator, error) {
	switch cfg.engine {
	case "", EngineExpr:
		return NewExprEvaluator(ExprWithProgramCache(cfg.cache), ExprWithFunctionRegistry(cfg.registry)), nil
	case EngineCEL:
		return NewCELEvaluator(CELWithProgramCache(cfg.cache), CELWithFunctionRegistry(cfg.registry)), nil
	case EngineJS:
		if !jsEvaluatorAvailable() {
			return nil, fmt.Errorf("%w: js engine requires the js_eval build tag", ErrNoEvaluator)
		}
		return NewJSEvaluator(JSWithProgramCache(cfg.cache), JSWithFunctionRegistry(cfg.registry)), nil
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", ErrNoEvaluator, cfg.engine)
	}
}

// Expression returns the source expression.
func (e *ExpressionImpl) Expression() string {
	return e.expression
}

// Engine reports the evaluator family.
func (e *ExpressionImpl) Engine() string {
	return e.engine
}

// SupportsPopulation implements PopulationReporter.
func (e *ExpressionImpl) SupportsPopulation() bool {
	return false
}

// Get implements Impl.
func (e *ExpressionImpl) Get(state any, dict Mapping) (any, error) {
	ctx := EvalContext{
		Values:    snapshotMapping(dict),
		State:     state,
		Attribute: e.attribute,
		Args:      e.args,
		Metadata:  e.metadata,
	}
	start := time.Now()
	var (
		result any
		err    error
	)
	if e.rule != nil {
		result, err = e.rule.Evaluate(ctx)
	} else {
		result, err = e.evaluator.Evaluate(ctx, e.expression)
	}
	err = evaluationError(e.engine, StageRun, e.expression, e.attribute, err)
	e.logger.LogEvaluation(EvaluatorLogEvent{
		Engine:    e.engine,
		Expr:      e.expression,
		Attribute: e.attribute,
		Duration:  time.Since(start),
		Err:       err,
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func engineName(evaluator Evaluator) string {
	if name := strings.TrimSpace(evaluator.Engine()); name != "" {
		return name
	}
	return "custom"
}

func snapshotMapping(dict Mapping) map[string]any {
	if snap, ok := dict.(Snapshotter); ok && snap != nil {
		return snap.Snapshot()
	}
	return map[string]any{}
}
