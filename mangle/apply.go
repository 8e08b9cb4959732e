package mangle

import (
	"fmt"

	"github.com/fogti/mangle/ast"
)

// ArgIndexError reports that an Argument node referenced an index past the
// end of the argument list supplied to ApplyArguments.
type ArgIndexError struct {
	Index int
}

func (e *ArgIndexError) Error() string {
	return fmt.Sprintf("argument index %d out of range", e.Index)
}

// ApplyArgumentsNode substitutes positional parameters in n with values from
// args (spec §4.B). The traversal is partially in place: container nodes
// (*ast.Grouped, *ast.CmdEval, *ast.Lambda) are mutated as the traversal
// proceeds, so if an Argument references a slot past the end of args, the
// returned error carries the offending index and the tree may be left
// half-substituted. Callers who cannot tolerate that must ast.CloneNode the
// tree beforehand.
func ApplyArgumentsNode(n ast.Node, args ast.Seq) (ast.Node, error) {
	switch v := n.(type) {
	case ast.NullNode:
		return v, nil
	case ast.Constant:
		return v, nil
	case ast.Argument:
		if v.Indirection > 0 {
			return ast.Argument{Indirection: v.Indirection - 1, Index: v.Index}, nil
		}
		if v.Index == nil {
			return ast.Constant{NonSpace: true, Data: []byte("$")}, nil
		}
		idx := *v.Index
		if idx >= len(args) {
			return n, &ArgIndexError{Index: idx}
		}
		return ast.CloneNode(args[idx]), nil
	case *ast.Grouped:
		err := applyArgumentsSeqInPlace(v.Elems, args)
		return v, err
	case *ast.CmdEval:
		if err := applyArgumentsSeqInPlace(v.Cmd, args); err != nil {
			return v, err
		}
		err := applyArgumentsSeqInPlace(v.Args.Items, args)
		return v, err
	case *ast.Lambda:
		newBody, err := ApplyArgumentsNode(v.Body, args)
		v.Body = newBody
		return v, err
	default:
		return n, nil
	}
}

func applyArgumentsSeqInPlace(seq ast.Seq, args ast.Seq) error {
	for i := range seq {
		newNode, err := ApplyArgumentsNode(seq[i], args)
		seq[i] = newNode
		if err != nil {
			return err
		}
	}
	return nil
}

// ApplyArgumentsSeq substitutes positional parameters across every element
// of seq in place, stopping at the first error.
func ApplyArgumentsSeq(seq ast.Seq, args ast.Seq) error {
	return applyArgumentsSeqInPlace(seq, args)
}

// curry2 is the traversal curry uses to bind a prefix of args into n. It
// differs from ApplyArgumentsNode in two ways: an out-of-range
// Argument{0, Some(i)} is not an error, it is re-indexed to
// Argument{0, Some(i-len(args))} for a later round of binding; and Lambda
// bodies are opaque (curry2 does not descend into them), since those
// parameters belong to the inner closure, not the one being curried.
func curry2(n ast.Node, args ast.Seq) ast.Node {
	switch v := n.(type) {
	case ast.NullNode:
		return v
	case ast.Constant:
		return v
	case ast.Argument:
		if v.Indirection > 0 {
			return ast.Argument{Indirection: v.Indirection - 1, Index: v.Index}
		}
		if v.Index == nil {
			return ast.Constant{NonSpace: true, Data: []byte("$")}
		}
		idx := *v.Index
		if idx < len(args) {
			return ast.CloneNode(args[idx])
		}
		return ast.NewArgumentIndexed(0, idx-len(args))
	case *ast.Grouped:
		for i := range v.Elems {
			v.Elems[i] = curry2(v.Elems[i], args)
		}
		return v
	case *ast.CmdEval:
		for i := range v.Cmd {
			v.Cmd[i] = curry2(v.Cmd[i], args)
		}
		for i := range v.Args.Items {
			v.Args.Items[i] = curry2(v.Args.Items[i], args)
		}
		return v
	case *ast.Lambda:
		return v
	default:
		return n
	}
}

// Curry implements partial application (spec §4.B). If self is a Lambda
// with nonzero arity, the first len(args) formal parameters are bound and a
// new Lambda of the remaining (saturating-subtracted) arity is returned;
// otherwise args are bound directly into self via curry2, re-indexing any
// reference past the end of args rather than erroring. This gives the
// canonical semantics "Lambda n body applied to k<=n args => Lambda (n-k)
// body'".
func Curry(self ast.Node, args ast.Seq) ast.Node {
	if lam, ok := self.(*ast.Lambda); ok && lam.Argc != 0 {
		newArgc := lam.Argc - len(args)
		if newArgc < 0 {
			newArgc = 0
		}
		lam.Body = curry2(lam.Body, args)
		lam.Argc = newArgc
		return lam
	}
	return curry2(self, args)
}
