package db

import (
	"errors"
	"testing"
)

func TestError_WrapsOp(t *testing.T) {
	inner := errors.New("connection reset")
	err := error(&Error{Op: OpAggregate, Err: inner})

	if err.Error() != "aggregate: connection reset" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to reach the wrapped error")
	}
	var dbErr *Error
	if !errors.As(err, &dbErr) || dbErr.Op != OpAggregate {
		t.Errorf("errors.As = %+v", dbErr)
	}
}
