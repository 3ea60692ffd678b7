// Package ice models internal compiler errors: invariants an earlier pass
// was supposed to establish and did not. They abort the current crate and are
// never shown as ordinary user diagnostics.
package ice

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// Error is raised with panic and recovered at the crate boundary.
type Error struct {
	Component string
	Message   string
	Stack     []byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("internal compiler error in %s: %s", e.Component, e.Message)
}

// Format renders the error together with the captured stack.
func (e *Error) Format() string {
	var sb strings.Builder
	sb.WriteString(e.Error())
	sb.WriteByte('\n')
	if len(e.Stack) > 0 {
		sb.Write(e.Stack)
	}
	return sb.String()
}

// Raise panics with an *Error.
func Raise(component, format string, args ...any) {
	panic(&Error{
		Component: component,
		Message:   fmt.Sprintf(format, args...),
		Stack:     debug.Stack(),
	})
}

// Assert raises when cond does not hold.
func Assert(cond bool, component, format string, args ...any) {
	if !cond {
		Raise(component, format, args...)
	}
}

// Recover converts an in-flight *Error panic into err. Any other panic value
// is re-raised. Use as `defer ice.Recover(&err)`.
func Recover(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if e, ok := r.(*Error); ok {
		*err = e
		return
	}
	panic(r)
}

// Catch runs fn and returns the internal error it raised, if any.
func Catch(fn func()) (err error) {
	defer Recover(&err)
	fn()
	return nil
}
