// Package interp implements the fixpoint evaluator (spec §4.D): the
// evaluation context, the built-in table, user-macro dispatch, and the
// evaluate/simplify loop that drives a parsed top-level sequence to its
// final, maximally-reduced form.
package interp

import (
	"github.com/fogti/mangle/ast"
	"github.com/fogti/mangle/parser"
)

// MacroDef is a user-defined macro installed by def/def-lazy: its
// formal arity and its (unevaluated or partially evaluated) body.
type MacroDef struct {
	Argc int
	Body ast.Node
}

// FileSystem abstracts the raw byte I/O that include and the compiled-image
// loader need. Actual file-system access is an external collaborator per
// spec.md §1; the driver supplies a concrete implementation (e.g. backed by
// os.ReadFile) so the core engine never imports "os" directly.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// EvalContext is the mutable state threaded through a single top-level
// evaluation (spec §4.D, §5: owned by exactly one call to Eval).
type EvalContext struct {
	// Defs holds user-installed macros, keyed by name.
	Defs map[string]MacroDef
	// procdefs holds the built-in table, seeded once at construction. User
	// code never mutates it.
	procdefs map[string]procdef
	// Opts are the parser options include re-parses files with.
	Opts parser.Options
	// CompMap maps a source path to a compiled-image path; include
	// consults it before falling back to a fresh parse.
	CompMap map[string]string
	// FS performs the raw reads include and compiled-image loading need.
	FS FileSystem
	// includeCache memoizes parsed includes by content hash, so the same
	// file included from multiple call sites is only parsed once.
	includeCache map[uint64]ast.Seq
	// Trace, if set, is called once per fixpoint round with the round
	// number and the sequence as it stood at the start of that round. It
	// exists so an external driver can implement a verbose AST dump
	// without the core depending on any rendering concern.
	Trace func(round int, data ast.Seq)
}

// NewEvalContext builds an EvalContext with the built-in table installed and
// empty user definitions.
func NewEvalContext(opts parser.Options, fs FileSystem) *EvalContext {
	return &EvalContext{
		Defs:     make(map[string]MacroDef),
		procdefs: registerBuiltins(),
		Opts:     opts,
		CompMap:  make(map[string]string),
		FS:       fs,
	}
}
