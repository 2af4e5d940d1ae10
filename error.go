package es

import (
	"errors"
	"fmt"
)

// ErrorKind classifies driver failures, mirroring the DB-API exception
// hierarchy this package is modeled on.
type ErrorKind uint

const (
	// KindInterface covers misuse of the driver itself: operating on a
	// closed cursor/connection or fetching before execute.
	KindInterface ErrorKind = iota
	// KindOperational covers transport-level failures (cluster unreachable).
	KindOperational
	// KindProgramming covers queries the cluster rejected.
	KindProgramming
	// KindData covers responses the driver could not interpret, usually a
	// dialect mismatch or an unknown native type.
	KindData
	// KindNotSupported covers operations the SQL endpoint has no semantics
	// for, such as executemany.
	KindNotSupported
)

var (
	// ErrAlreadyClosed is returned when a closed cursor or connection is
	// used, including a second Close.
	ErrAlreadyClosed = errors.New("already closed")
	// ErrBeforeExecute is returned when a fetch method runs before any
	// successful Execute.
	ErrBeforeExecute = errors.New("called before execute")
	// ErrExecuteManyNotSupported is returned by Executemany unconditionally.
	ErrExecuteManyNotSupported = errors.New("`executemany` is not supported, use `execute` instead")
)

// Error is the concrete error type surfaced by the driver. SQL carries the
// offending statement when one exists.
type Error struct {
	Kind ErrorKind
	SQL  string
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.SQL != "" {
		return fmt.Sprintf("%s (sql: %s)", e.msg, e.SQL)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

func newError(kind ErrorKind, sql, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, SQL: sql, msg: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrorKind, sql string, cause error, msg string) *Error {
	return &Error{Kind: kind, SQL: sql, msg: msg, err: cause}
}

func closedError(what string) *Error {
	return wrapError(KindInterface, "", ErrAlreadyClosed, what+" already closed")
}

// IsKind reports whether err (or anything it wraps) is a driver Error of the
// given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
