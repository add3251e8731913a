package instrument

import "time"

// AccessPath names the route a Getter call took.
type AccessPath string

const (
	// PathUnbound is reported when the call had no instance.
	PathUnbound AccessPath = "unbound"
	// PathFast is reported when the cached identity allowed a direct lookup.
	PathFast AccessPath = "fast"
	// PathPopulation is reported when the value was read from the resolved
	// instance dict on the generic path.
	PathPopulation AccessPath = "population"
	// PathGeneric is reported when the impl resolved the value.
	PathGeneric AccessPath = "generic"
)

// AccessEvent describes a single Getter call for logging.
type AccessEvent struct {
	Name     string
	Key      any
	Path     AccessPath
	Duration time.Duration
	Err      error
}

// AccessLogger records Getter calls.
type AccessLogger interface {
	LogAccess(AccessEvent)
}

// AccessLoggerFunc adapts a function to AccessLogger.
type AccessLoggerFunc func(AccessEvent)

// LogAccess implements AccessLogger.
func (f AccessLoggerFunc) LogAccess(event AccessEvent) {
	if f != nil {
		f(event)
	}
}

type noopAccessLogger struct{}

func (noopAccessLogger) LogAccess(AccessEvent) {}

// WithAccessLogger attaches an access logger to the Getter and every call
// site Getter derived from it.
func WithAccessLogger(logger AccessLogger) Option {
	return func(cfg *getterConfig) {
		if logger == nil {
			cfg.logger = noopAccessLogger{}
			return
		}
		cfg.logger = logger
	}
}

// EvaluatorLogEvent describes one evaluation of a computed attribute.
type EvaluatorLogEvent struct {
	Engine    string
	Expr      string
	Attribute string
	Duration  time.Duration
	Err       error
}

// EvaluatorLogger records computed attribute evaluations.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}
