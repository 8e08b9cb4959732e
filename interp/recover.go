package interp

import (
	"runtime/debug"

	"github.com/grailbio/base/errors"
)

// Recover runs cb, turning any panic it raises into an error instead of
// crashing the process. Ordinary evaluation failures (unbound macro, wrong
// arity, an operand that won't convert to a Constant) are never panics —
// they return "not reducible" and the caller leaves the CmdEval in place
// per spec.md §7. A panic here means an actual invariant was violated.
func Recover(cb func()) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = errors.E("interp: panic %v: %v", e, string(debug.Stack()))
		}
	}()
	cb()
	return nil
}
