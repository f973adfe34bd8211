package evaluation

import (
	"errors"
	"fmt"
)

// ErrCollectionSizeExceeded is returned when the solutions buffered by
// distinct, intersection, minus, order and group operators exceed
// Options.MaxCollectionSize.
var ErrCollectionSizeExceeded = errors.New("collection size limit exceeded")

// EvaluationError reports a failure while evaluating a query operator.
type EvaluationError struct {
	Op  string
	Err error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// evalError wraps err for op unless it already is an EvaluationError.
func evalError(op string, err error) error {
	if err == nil {
		return nil
	}
	var ee *EvaluationError
	if errors.As(err, &ee) {
		return err
	}
	return &EvaluationError{Op: op, Err: err}
}

// ValueExprError is a recoverable failure of a value expression, such as a
// type error or an unbound operand. Filters treat it as false and
// extensions leave the target unbound.
type ValueExprError struct {
	Msg string
}

func (e *ValueExprError) Error() string { return e.Msg }

func valueErrorf(format string, args ...interface{}) error {
	return &ValueExprError{Msg: fmt.Sprintf(format, args...)}
}

// IsValueExprError reports whether err is, or wraps, a ValueExprError.
func IsValueExprError(err error) bool {
	var ve *ValueExprError
	return errors.As(err, &ve)
}
