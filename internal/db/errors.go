package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound = errors.New("db: key not found")
	ErrNoDocument  = errors.New("db: no document")
)

// Op constants name the failing command or driver operation for error context.
const (
	OpPing      = "PING"
	OpGet       = "GET"
	OpSet       = "SET"
	OpDel       = "DEL"
	OpExpire    = "EXPIRE"
	OpAggregate = "aggregate"
	OpFind      = "find"
	OpFindOne   = "findOne"
	OpDistinct  = "distinct"
	OpDecode    = "decode"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
