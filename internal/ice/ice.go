// Package ice implements the "internal compiler error" reporting
// discipline: programmer bugs in the core and unsupported
// conversions abort with a message and a location, and are never
// recovered by ordinary control flow. It is the one place the core
// panics deliberately, so tests and embedders have a single type to
// recover and inspect.
package ice

import (
	"fmt"

	"github.com/pkg/errors"
)

// Position is a minimal source location, duplicated here (rather than
// importing package ast) so this leaf package has no dependency on the
// rest of the module.
type Position struct {
	File string
	Line int32
	Col  int32
}

func (p Position) String() string {
	if p.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// Error is the panic payload raised by Raise. It carries the
// errors.StackTrace captured at the panic site, grounded in
// dshills-alas's use of github.com/pkg/errors for its codegen
// optimizer's fatal paths.
type Error struct {
	Pos Position
	Msg string
	err error // wraps the pkg/errors-annotated cause for Stack()
}

func (e *Error) Error() string {
	return fmt.Sprintf("internal compiler error at %s: %s", e.Pos, e.Msg)
}

// Unwrap exposes the wrapped stack-trace-carrying cause to
// errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.err }

// Stack returns the formatted stack trace captured when the error was
// raised, for inclusion in crash diagnostics.
func (e *Error) Stack() string {
	type stackTracer interface{ StackTrace() errors.StackTrace }
	if st, ok := e.err.(stackTracer); ok {
		return fmt.Sprintf("%+v", st.StackTrace())
	}
	return ""
}

// Raise panics with an *Error describing an invariant violation or
// unsupported-conversion condition. It is
// never expected to be recovered in production use; tests use Guard.
func Raise(pos Position, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	panic(&Error{
		Pos: pos,
		Msg: msg,
		err: errors.WithStack(errors.New(msg)),
	})
}

// Guard runs fn and converts any *Error panic into a returned error,
// for use by tests and tooling that want to assert on a specific ICE
// without crashing the process. Panics of any other type propagate
// unchanged, since only ice.Raise's invariant is meant to be caught
// here.
func Guard(fn func()) (err *Error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(*Error); ok {
				err = e
				return
			}
			panic(r)
		}
	}()
	fn()
	return nil
}
