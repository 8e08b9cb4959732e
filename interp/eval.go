package interp

import (
	"io"

	"github.com/fogti/mangle/ast"
	"github.com/fogti/mangle/mangle"
	"github.com/grailbio/base/log"
)

// evalNode reduces a single node by one step: a CmdEval is dispatched, every
// other node recurses into its children. The bool result reports whether n
// is now free of any CmdEval this single pass could have resolved — true
// for every leaf, true for a CmdEval that successfully dispatched, false for
// one that didn't (it is left in place), and the conjunction of children for
// a container.
func (ctx *EvalContext) evalNode(n ast.Node) (ast.Node, bool) {
	switch v := n.(type) {
	case ast.NullNode, ast.Constant, ast.Argument:
		return n, true
	case *ast.Grouped:
		out, resolved := ctx.evalSeq(v.Elems)
		v.Elems = out
		return v, resolved
	case *ast.CmdEval:
		return ctx.evalCmd(v)
	case *ast.Lambda:
		return v, true
	default:
		return n, true
	}
}

// evalSeq reduces every element of a sequence in place, one step each.
func (ctx *EvalContext) evalSeq(seq ast.Seq) (ast.Seq, bool) {
	resolved := true
	for i, n := range seq {
		out, thisResolved := ctx.evalNode(n)
		seq[i] = out
		resolved = resolved && thisResolved
	}
	return seq, resolved
}

// evalAndSpliceArgs evaluates every argument once and splices any that
// reduce to a Dissolving group into the result, per Automatic dispatch
// (spec §4.D).
func (ctx *EvalContext) evalAndSpliceArgs(args *ast.ArgList) (ast.Seq, bool) {
	resolved := true
	var out ast.Seq
	for _, n := range args.Items {
		reduced, thisResolved := ctx.evalNode(n)
		resolved = resolved && thisResolved
		reduced = mangle.SimplifyNode(reduced)
		if g, ok := reduced.(*ast.Grouped); ok && g.Type == ast.Dissolving {
			out = append(out, g.Elems...)
			continue
		}
		out = append(out, reduced)
	}
	return out, resolved
}

// evalCmd implements eval_cmd (spec §4.D): evaluate the command name by one
// step, require it to settle on a bare Constant or a Lambda, then dispatch.
// A computed command name that needs more than one step to resolve finishes
// resolving on a later round of the top-level fixpoint, exactly like any
// other nested call.
func (ctx *EvalContext) evalCmd(v *ast.CmdEval) (ast.Node, bool) {
	cmd, _ := ctx.evalSeq(v.Cmd)
	v.Cmd = mangle.CompactToplevel(mangle.SimplifySeq(cmd))
	cmdNode := mangle.SimplifyNode(ast.LiftSeq(v.Cmd))

	switch head := cmdNode.(type) {
	case ast.Constant:
		if !head.NonSpace {
			return v, false
		}
		name := string(head.Data)
		if proc, ok := ctx.procdefs[name]; ok {
			if out, ok := ctx.dispatchBuiltin(proc, v.Args); ok {
				return out, true
			}
			return v, false
		}
		if def, ok := ctx.Defs[name]; ok {
			if out, ok := ctx.invokeUserMacro(def.Argc, def.Body, &v.Args); ok {
				return out, true
			}
			return v, false
		}
		log.Debug.Printf("interp: undefined macro %q, leaving call in place", name)
		return v, false
	case *ast.Lambda:
		if out, ok := ctx.invokeUserMacro(head.Argc, head.Body, &v.Args); ok {
			return out, true
		}
		return v, false
	default:
		return v, false
	}
}

func (ctx *EvalContext) dispatchBuiltin(proc procdef, args ast.ArgList) (ast.Node, bool) {
	switch proc.mode {
	case Manual:
		if !proc.argc.allows(len(args.Items)) {
			return nil, false
		}
		argsCopy := args
		return proc.manual(&argsCopy, ctx)
	case Automatic:
		// Splicing happens before the arity check: a single argument that
		// evaluates to a Dissolving group can widen the effective count.
		spliced, _ := ctx.evalAndSpliceArgs(&args)
		if !proc.argc.allows(len(spliced)) {
			return nil, false
		}
		return proc.auto(spliced, ctx)
	default:
		return nil, false
	}
}

// invokeUserMacro substitutes args into body per its declared arity and
// returns the result unevaluated; the top-level fixpoint loop reduces it on
// a later round (spec §4.D step 4: "return the resulting node, unsimplified
// at this step"). The supplied argument count must match argcVal exactly; a
// mismatch leaves the call unreduced (a user calling the "curry" built-in
// explicitly is the only sanctioned way to produce a partial application,
// per original_source/src/interp.rs's eval_cmd). Evaluating eagerly here
// instead of deferring to the fixpoint loop would recurse without bound on
// a self-calling macro (e.g. `\(def g 0 \(g))\(g)`), overflowing the Go
// stack rather than stabilizing per spec §5.
func (ctx *EvalContext) invokeUserMacro(argcVal int, body ast.Node, args *ast.ArgList) (ast.Node, bool) {
	spliced, _ := ctx.evalAndSpliceArgs(args)
	args.Items = spliced
	if len(spliced) != argcVal {
		return nil, false
	}

	substituted, err := mangle.ApplyArgumentsNode(ast.CloneNode(body), spliced)
	if err != nil {
		log.Error.Printf("interp: macro invocation failed: %v", err)
		return nil, false
	}
	return substituted, true
}

// containsCmdEval reports whether n or any descendant is still an
// unreduced CmdEval, the test fseq (spec §4.D) uses to fail instead of
// returning a residual call.
func containsCmdEval(n ast.Node) bool {
	switch v := n.(type) {
	case *ast.CmdEval:
		return true
	case *ast.Grouped:
		for _, e := range v.Elems {
			if containsCmdEval(e) {
				return true
			}
		}
	case *ast.Lambda:
		return containsCmdEval(v.Body)
	}
	return false
}

// reduceToCompletion runs the evaluate+simplify loop on a single node until
// its complexity stabilizes, then reports failure if a CmdEval survives.
func (ctx *EvalContext) reduceToCompletion(n ast.Node) (ast.Node, bool) {
	cur := mangle.SimplifyNode(n)
	complexity := mangle.ComplexityNode(cur)
	for {
		next, _ := ctx.evalNode(cur)
		next = mangle.SimplifyNode(next)
		nextComplexity := mangle.ComplexityNode(next)
		cur = next
		if nextComplexity == complexity {
			break
		}
		complexity = nextComplexity
	}
	if containsCmdEval(cur) {
		return nil, false
	}
	return cur, true
}

// Eval drives a parsed top-level sequence to its fixpoint (spec §5, §7):
// repeatedly evaluate and simplify until a round makes no further progress
// (by complexity), tracing each round if ctx.Trace is set. If compOut is
// non-nil, the final sequence and ctx.Defs are written to it via SaveImage
// once the loop stops.
func Eval(ctx *EvalContext, data ast.Seq, compOut io.Writer) (ast.Seq, error) {
	cur := mangle.SimplifySeq(data)
	complexity := mangle.ComplexityNode(ast.LiftSeq(cur))
	round := 0
	for {
		if ctx.Trace != nil {
			ctx.Trace(round, cur)
		}
		next, _ := ctx.evalSeq(cur)
		next = mangle.SimplifySeq(next)
		nextComplexity := mangle.ComplexityNode(ast.LiftSeq(next))
		cur = next
		round++
		if nextComplexity == complexity {
			break
		}
		complexity = nextComplexity
	}
	if compOut != nil {
		if err := SaveImage(compOut, cur, ctx.Defs); err != nil {
			return cur, err
		}
	}
	return cur, nil
}
