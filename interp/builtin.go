package interp

import (
	"bytes"
	"strconv"

	"github.com/fogti/mangle/ast"
	"github.com/fogti/mangle/mangle"
	"github.com/fogti/mangle/parser"
	"github.com/spaolacci/murmur3"
)

// mode distinguishes the two built-in calling conventions (spec §4.D).
type mode uint8

const (
	// Manual built-ins receive the raw, unevaluated ArgList and full
	// control over the context; used where laziness of arguments matters
	// (def, include, foreach, curry, ...).
	Manual mode = iota
	// Automatic built-ins receive already-evaluated, already-spliced
	// arguments; the dispatcher evaluates them before the call.
	Automatic
)

// ManualFn implements a Manual built-in. It returns (result, true) on
// success, or (nil, false) to defer (the call is left in place).
type ManualFn func(args *ast.ArgList, ctx *EvalContext) (ast.Node, bool)

// AutomaticFn implements an Automatic built-in.
type AutomaticFn func(args ast.Seq, ctx *EvalContext) (ast.Node, bool)

// argc describes a built-in's arity constraint.
type argc struct {
	exact int // >= 0 for an exact constraint
	min   int // used when exact < 0 and !any
	any   bool
}

func exactArgc(n int) argc { return argc{exact: n} }
func minArgc(n int) argc   { return argc{exact: -1, min: n} }
func anyArgc() argc        { return argc{exact: -1, any: true} }

func (a argc) allows(n int) bool {
	switch {
	case a.any:
		return true
	case a.exact >= 0:
		return n == a.exact
	default:
		return n >= a.min
	}
}

type procdef struct {
	argc   argc
	mode   mode
	manual ManualFn
	auto   AutomaticFn
}

func registerBuiltins() map[string]procdef {
	return map[string]procdef{
		"add":           {argc: exactArgc(2), mode: Automatic, auto: builtinAdd},
		"def":           {argc: anyArgc(), mode: Manual, manual: builtinDef(false)},
		"def-lazy":      {argc: anyArgc(), mode: Manual, manual: builtinDef(true)},
		"undef":         {argc: exactArgc(1), mode: Manual, manual: builtinUndef},
		"include":       {argc: exactArgc(1), mode: Manual, manual: builtinInclude},
		"pass":          {argc: anyArgc(), mode: Automatic, auto: builtinPass},
		"suppress":      {argc: anyArgc(), mode: Automatic, auto: builtinSuppress},
		"une":           {argc: anyArgc(), mode: Automatic, auto: builtinUne},
		"unee":          {argc: anyArgc(), mode: Automatic, auto: builtinUnee},
		"foreach":       {argc: exactArgc(2), mode: Manual, manual: builtinForeach},
		"fseq":          {argc: anyArgc(), mode: Manual, manual: builtinFseq},
		"lambda":        {argc: minArgc(2), mode: Automatic, auto: builtinLambda},
		"lambda-lazy":   {argc: anyArgc(), mode: Manual, manual: builtinLambdaLazy},
		"lambda-strict": {argc: anyArgc(), mode: Manual, manual: builtinLambdaStrict},
		"curry":         {argc: anyArgc(), mode: Manual, manual: builtinCurry},
		// Supplemented from original_source/src/interp.rs.
		"ifelse": {argc: exactArgc(3), mode: Manual, manual: builtinIfelse},
		"eq":     {argc: exactArgc(2), mode: Automatic, auto: builtinEq},
		"not":    {argc: exactArgc(1), mode: Automatic, auto: builtinNot},
		"len":    {argc: exactArgc(1), mode: Automatic, auto: builtinLen},
	}
}

func parseIntNode(n ast.Node) (int64, bool) {
	data, ok := ast.ConvToConstant(n)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// truthy is crulz-rs's convention: empty or the literal "0" is false,
// anything else is true.
func truthy(data []byte) bool {
	return len(data) != 0 && string(data) != "0"
}

func builtinAdd(args ast.Seq, ctx *EvalContext) (ast.Node, bool) {
	a, ok := parseIntNode(args[0])
	if !ok {
		return nil, false
	}
	b, ok := parseIntNode(args[1])
	if !ok {
		return nil, false
	}
	return ast.NewConstant(true, []byte(strconv.FormatInt(a+b, 10))), true
}

// resolveMacroBody implements the def family's three-way ambiguity
// resolution (spec §4.D/§9): a Lambda in rest[0] is installed directly;
// otherwise exactly one remaining node is a zero-arity body; otherwise
// rest[0] is the arity and the remainder is the body.
func resolveMacroBody(rest ast.Seq) (argcVal int, body ast.Node, ok bool) {
	if lam, isLambda := rest[0].(*ast.Lambda); isLambda {
		return lam.Argc, lam.Body, true
	}
	if len(rest) == 1 {
		return 0, rest[0], true
	}
	n, isInt := parseIntNode(rest[0])
	if !isInt {
		return 0, nil, false
	}
	return int(n), ast.LiftSeq(rest[1:]), true
}

// builtinDef returns the def/def-lazy handler. def-lazy skips evaluating
// the body at definition time; it is only simplified.
func builtinDef(lazy bool) ManualFn {
	return func(args *ast.ArgList, ctx *EvalContext) (ast.Node, bool) {
		items := args.Items
		if len(items) < 2 {
			return nil, false
		}
		name, _ := ctx.evalNode(items[0])
		items[0] = name
		nameBytes, ok := ast.ConvToConstant(name)
		if !ok {
			return nil, false
		}

		rest := items[1:]
		if !lazy {
			for i := range rest {
				evaluated, _ := ctx.evalNode(rest[i])
				rest[i] = evaluated
			}
		}

		argcVal, body, ok := resolveMacroBody(rest)
		if !ok {
			return nil, false
		}
		ctx.Defs[string(nameBytes)] = MacroDef{Argc: argcVal, Body: mangle.SimplifyNode(body)}
		return ast.Null, true
	}
}

func builtinUndef(args *ast.ArgList, ctx *EvalContext) (ast.Node, bool) {
	n, _ := ctx.evalNode(args.Items[0])
	args.Items[0] = n
	name, ok := ast.ConvToConstant(n)
	if !ok {
		return nil, false
	}
	delete(ctx.Defs, string(name))
	return ast.Null, true
}

func builtinInclude(args *ast.ArgList, ctx *EvalContext) (ast.Node, bool) {
	n, _ := ctx.evalNode(args.Items[0])
	args.Items[0] = n
	pathBytes, ok := ast.ConvToConstant(n)
	if !ok || ctx.FS == nil {
		return nil, false
	}
	path := string(pathBytes)

	if compPath, isCompiled := ctx.CompMap[path]; isCompiled {
		data, err := ctx.FS.ReadFile(compPath)
		if err != nil {
			return nil, false
		}
		top, defs, err := LoadImage(bytes.NewReader(data))
		if err != nil {
			return nil, false
		}
		for defName, def := range defs {
			ctx.Defs[defName] = def
		}
		return ast.LiftSeq(top), true
	}

	data, err := ctx.FS.ReadFile(path)
	if err != nil {
		return nil, false
	}

	hash := murmur3.Sum64(data)
	if cached, ok := ctx.includeCache[hash]; ok {
		return ast.LiftSeq(ast.CloneSeq(cached)), true
	}

	seq, err := parser.Parse(data, ctx.Opts)
	if err != nil {
		return nil, false
	}
	if ctx.includeCache == nil {
		ctx.includeCache = make(map[uint64]ast.Seq)
	}
	ctx.includeCache[hash] = seq
	return ast.LiftSeq(ast.CloneSeq(seq)), true
}

func builtinPass(args ast.Seq, ctx *EvalContext) (ast.Node, bool) {
	return ast.LiftSeq(args), true
}

func builtinSuppress(args ast.Seq, ctx *EvalContext) (ast.Node, bool) {
	return ast.Null, true
}

// dissolveTop rewrites a node's top Grouped (if any) to Dissolving, the
// une/unee "un-escape" rule.
func dissolveTop(n ast.Node) ast.Node {
	if g, ok := n.(*ast.Grouped); ok {
		return ast.NewGrouped(ast.Dissolving, g.Elems)
	}
	return n
}

func builtinUne(args ast.Seq, ctx *EvalContext) (ast.Node, bool) {
	out := make(ast.Seq, len(args))
	for i, a := range args {
		out[i] = dissolveTop(a)
	}
	return ast.LiftSeq(out), true
}

func builtinUnee(args ast.Seq, ctx *EvalContext) (ast.Node, bool) {
	rewritten := make(ast.Seq, len(args))
	for i, a := range args {
		rewritten[i] = dissolveTop(a)
	}
	simplified := mangle.SimplifySeq(rewritten)
	newArgs := ast.FromWSDelim(simplified, mangle.SimplifyNode)
	return ast.LiftSeq(newArgs.Items), true
}

// builtinForeach implements foreach (spec §4.D, original_source's
// blti_foreach): the list operand must resolve to a Grouped node (fe_elems
// defers otherwise — a bare scalar is not a list), each whitespace-run
// inside it becomes one tuple, and fn is applied to each tuple in turn,
// producing one result per tuple. A tuple fn can't yet reduce is left as a
// residual CmdEval in that position (spec §7's per-element partial eval),
// not a failure of the whole call.
func builtinForeach(args *ast.ArgList, ctx *EvalContext) (ast.Node, bool) {
	items := args.Items
	listNode, _ := ctx.evalNode(items[0])
	items[0] = listNode

	g, ok := listNode.(*ast.Grouped)
	if !ok {
		return nil, false
	}
	tuples := ast.FromWSDelim(g.Elems, mangle.SimplifyNode)

	fnNode := mangle.SimplifyNode(items[1])
	complexity := mangle.ComplexityNode(fnNode)
	for {
		next, _ := ctx.evalNode(fnNode)
		next = mangle.SimplifyNode(next)
		nextComplexity := mangle.ComplexityNode(next)
		fnNode = next
		if nextComplexity == complexity {
			break
		}
		complexity = nextComplexity
	}
	items[1] = fnNode

	var results ast.Seq
	for _, tuple := range tuples.Items {
		var tupleArgs ast.Seq
		if tg, ok := tuple.(*ast.Grouped); ok {
			tupleArgs = ast.FromWSDelim(tg.Elems, mangle.SimplifyNode).Items
		} else {
			tupleArgs = ast.Seq{tuple}
		}

		call := ast.NewCmdEval(ast.Seq{ast.CloneNode(fnNode)}, ast.NewArgListRaw(tupleArgs))
		out, _ := ctx.evalCmd(call)
		results = append(results, out)
	}
	return ast.LiftSeq(results), true
}

func builtinFseq(args *ast.ArgList, ctx *EvalContext) (ast.Node, bool) {
	items := args.Items
	out := make(ast.Seq, len(items))
	for i, a := range items {
		reduced, ok := ctx.reduceToCompletion(a)
		if !ok {
			return nil, false
		}
		out[i] = reduced
	}
	return ast.LiftSeq(out), true
}

func builtinLambda(args ast.Seq, ctx *EvalContext) (ast.Node, bool) {
	argcVal, ok := parseIntNode(args[0])
	if !ok {
		return nil, false
	}
	body := mangle.SimplifyNode(ast.LiftSeq(args[1:]))
	return ast.NewLambda(int(argcVal), body), true
}

func builtinLambdaLazy(args *ast.ArgList, ctx *EvalContext) (ast.Node, bool) {
	items := args.Items
	if len(items) < 2 {
		return nil, false
	}
	argcNode, _ := ctx.evalNode(items[0])
	items[0] = argcNode
	argcVal, ok := parseIntNode(argcNode)
	if !ok {
		return nil, false
	}
	body := mangle.SimplifyNode(ast.LiftSeq(items[1:]))
	return ast.NewLambda(int(argcVal), body), true
}

func builtinLambdaStrict(args *ast.ArgList, ctx *EvalContext) (ast.Node, bool) {
	items := args.Items
	if len(items) < 2 {
		return nil, false
	}
	for i := range items {
		evaluated, _ := ctx.evalNode(items[i])
		items[i] = evaluated
	}
	argcVal, ok := parseIntNode(items[0])
	if !ok {
		return nil, false
	}
	body := mangle.SimplifyNode(ast.LiftSeq(items[1:]))
	return ast.NewLambda(int(argcVal), body), true
}

// builtinCurry implements blti_curry: with no arguments it is Null; with one
// it returns that argument unevaluated; with two or more, every argument is
// evaluated to completion, the first names (or is) a callable, and the
// remaining arguments are bound against it positionally, producing a Lambda
// over whatever arity remains.
func builtinCurry(args *ast.ArgList, ctx *EvalContext) (ast.Node, bool) {
	items := args.Items
	if len(items) == 0 {
		return ast.Null, true
	}
	if len(items) == 1 {
		return ast.CloneNode(items[0]), true
	}

	resolved := true
	for i := range items {
		next, thisResolved := ctx.evalNode(items[i])
		items[i] = next
		resolved = resolved && thisResolved
	}
	if !resolved {
		return nil, false
	}
	rest := items[1:]

	var self ast.Node
	switch v := items[0].(type) {
	case *ast.Lambda:
		self = v
	case ast.Constant:
		if def, found := ctx.Defs[string(v.Data)]; found {
			self = ast.NewLambda(def.Argc, ast.CloneNode(def.Body))
			break
		}
		proc, found := ctx.procdefs[string(v.Data)]
		if !found || proc.argc.any || proc.argc.exact < 0 {
			// Variable-arity built-ins can't be curried.
			return nil, false
		}
		n := proc.argc.exact
		body := ast.NewCmdEval(ast.Seq{v}, ast.NewArgListRaw(argumentRun(n)))
		self = ast.NewLambda(n, body)
	default:
		return nil, false
	}
	return mangle.Curry(self, rest), true
}

// argumentRun builds the placeholder argument list $0..$n-1 used to curry a
// built-in by name: a synthetic call through which curried arguments flow.
func argumentRun(n int) ast.Seq {
	out := make(ast.Seq, n)
	for i := 0; i < n; i++ {
		out[i] = ast.NewArgumentIndexed(0, i)
	}
	return out
}

// builtinIfelse, builtinEq, builtinNot, and builtinLen are supplemented from
// original_source/src/interp.rs (see SPEC_FULL.md SUPPLEMENTED FEATURES).

func builtinIfelse(args *ast.ArgList, ctx *EvalContext) (ast.Node, bool) {
	items := args.Items
	cond, _ := ctx.evalNode(items[0])
	items[0] = cond
	data, ok := ast.ConvToConstant(cond)
	if !ok {
		return nil, false
	}
	if truthy(data) {
		return ctx.evalNode(items[1])
	}
	return ctx.evalNode(items[2])
}

func builtinEq(args ast.Seq, ctx *EvalContext) (ast.Node, bool) {
	a, ok := ast.ConvToConstant(args[0])
	if !ok {
		return nil, false
	}
	b, ok := ast.ConvToConstant(args[1])
	if !ok {
		return nil, false
	}
	if bytes.Equal(a, b) {
		return ast.NewConstant(true, []byte("1")), true
	}
	return ast.NewConstant(true, []byte("0")), true
}

func builtinNot(args ast.Seq, ctx *EvalContext) (ast.Node, bool) {
	data, ok := ast.ConvToConstant(args[0])
	if !ok {
		return nil, false
	}
	if truthy(data) {
		return ast.NewConstant(true, []byte("0")), true
	}
	return ast.NewConstant(true, []byte("1")), true
}

func builtinLen(args ast.Seq, ctx *EvalContext) (ast.Node, bool) {
	data, ok := ast.ConvToConstant(args[0])
	if !ok {
		return nil, false
	}
	return ast.NewConstant(true, []byte(strconv.Itoa(len(data)))), true
}
