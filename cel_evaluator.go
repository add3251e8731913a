package instrument

import (
	"sort"
	"strings"

	celgo "github.com/google/cel-go/cel"
	functions "github.com/google/cel-go/common/functions"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

// CELEvaluatorOption configures NewCELEvaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache shares checked programs through cache.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry exposes a snapshot of registry through
// call(name, [args]).
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.registry = registry.Clone()
	}
}

type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEvaluator returns an Evaluator backed by cel-go. CEL is type checked
// against the declared variables, so instance values are declared as dyn and
// a program is compiled per distinct set of dict keys.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEvaluator) Engine() string { return EngineCEL }

func (e *celEvaluator) Evaluate(ctx EvalContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

// Compile defers type checking to the first evaluation: the variable set is
// only known once a dict snapshot is available.
func (e *celEvaluator) Compile(expression string) (CompiledRule, error) {
	if err := checkExpression(EngineCEL, expression); err != nil {
		return nil, err
	}
	return ruleFunc(func(ctx EvalContext) (any, error) {
		program, err := e.program(expression, ctx.Values)
		if err != nil {
			return nil, evaluationError(EngineCEL, StageCompile, expression, ctx.label(), err)
		}
		out, _, err := program.Eval(ctx.bindings())
		if err != nil {
			return nil, evaluationError(EngineCEL, StageRun, expression, ctx.label(), err)
		}
		return out.Value(), nil
	}), nil
}

func (e *celEvaluator) program(expression string, values map[string]any) (celgo.Program, error) {
	keys := make([]string, 0, len(values))
	for key := range values {
		if _, reserved := reservedNames[key]; !reserved {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	cacheKey := "cel:" + expression + "|" + strings.Join(keys, ",")

	return loadProgram(e.cache, cacheKey, func() (celgo.Program, error) {
		env, err := e.env(keys)
		if err != nil {
			return nil, err
		}
		ast, issues := env.Compile(expression)
		if issues != nil && issues.Err() != nil {
			return nil, issues.Err()
		}
		return env.Program(ast)
	})
}

func (e *celEvaluator) env(keys []string) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("args", celgo.DynType),
		celgo.Variable("metadata", celgo.DynType),
		celgo.Variable("attribute", celgo.StringType),
	}
	for _, key := range keys {
		opts = append(opts, celgo.Variable(key, celgo.DynType))
	}
	if e.registry != nil {
		opts = append(opts, celgo.Function("call", celgo.Overload(
			"call_string_list",
			[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)},
			celgo.DynType,
			celgo.FunctionBinding(functions.FunctionOp(e.call)),
		)))
	}
	return celgo.NewEnv(opts...)
}

// call adapts call(name, [args]) to the function registry.
func (e *celEvaluator) call(values ...ref.Val) ref.Val {
	if len(values) != 2 {
		return types.NewErr("instrument: call expects a name and an argument list")
	}
	name, ok := values[0].Value().(string)
	if !ok {
		return types.NewErr("instrument: call name must be a string")
	}
	list, ok := values[1].(traits.Lister)
	if !ok {
		return types.NewErr("instrument: call arguments must be a list")
	}
	size, ok := list.Size().(types.Int)
	if !ok {
		return types.NewErr("instrument: call arguments must be a list")
	}
	args := make([]any, 0, int(size))
	for i := types.Int(0); i < size; i++ {
		args = append(args, list.Get(i).Value())
	}
	result, err := e.registry.Call(name, args...)
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}
