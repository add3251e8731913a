package instrument

import (
	"errors"
	"fmt"
	"strings"
)

// Evaluation stages reported by EvaluationError.
const (
	StageCompile = "compile"
	StageRun     = "run"
)

// EvaluationError reports a failed compile or run of a computed attribute.
type EvaluationError struct {
	Engine    string
	Stage     string
	Expr      string
	Attribute string
	Err       error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("instrument: ")
	b.WriteString(e.Engine)
	if e.Stage != "" {
		b.WriteString(" " + e.Stage)
	}
	if e.Attribute != "" {
		b.WriteString(" of " + e.Attribute)
	}
	if e.Expr != "" {
		fmt.Fprintf(&b, " (%q)", e.Expr)
	}
	b.WriteString(": ")
	b.WriteString(fmt.Sprint(e.Err))
	return b.String()
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// evaluatorError prefixes configuration errors once.
func evaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) || strings.HasPrefix(err.Error(), "instrument:") {
		return err
	}
	return fmt.Errorf("instrument: %s evaluator: %w", engine, err)
}

// evaluationError wraps err, or fills the blank fields of an EvaluationError
// already in its chain.
func evaluationError(engine, stage, expr, attribute string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		return &EvaluationError{Engine: engine, Stage: stage, Expr: expr, Attribute: attribute, Err: err}
	}
	fill := func(field *string, value string) {
		if *field == "" {
			*field = value
		}
	}
	fill(&evalErr.Engine, engine)
	fill(&evalErr.Stage, stage)
	fill(&evalErr.Expr, expr)
	fill(&evalErr.Attribute, attribute)
	return evalErr
}
