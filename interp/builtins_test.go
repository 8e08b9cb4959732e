package interp

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fogti/mangle/ast"
	"github.com/fogti/mangle/mangle"
	"github.com/fogti/mangle/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noFS struct{}

func (noFS) ReadFile(path string) ([]byte, error) {
	return nil, errors.New("no file system wired for this test")
}

func run(t *testing.T, src string) string {
	t.Helper()
	seq, err := parser.Parse([]byte(src), parser.Options{Escc: '\\', PassEscc: false})
	require.NoError(t, err)
	ctx := NewEvalContext(parser.Options{Escc: '\\', PassEscc: false}, noFS{})
	out, err := Eval(ctx, seq, nil)
	require.NoError(t, err)
	out = mangle.CompactToplevel(out)
	return string(mangle.ToBytesSeq(out, '\\'))
}

func TestScenarioAdd(t *testing.T) {
	assert.Equal(t, "5", run(t, `\(add 2 3)`))
}

func TestScenarioDefZeroArity(t *testing.T) {
	assert.Equal(t, "hello", run(t, `\(def x 0 hello)\(x)`))
}

func TestScenarioTwiceMacro(t *testing.T) {
	assert.Equal(t, "abab", run(t, `\(def twice 1 $0$0)\(twice ab)`))
}

func TestScenarioNestedTwiceQuad(t *testing.T) {
	assert.Equal(t, "aaaa", run(t, `\(def twice 1 $0$0)\(def quad 1 \(twice \(twice $0)))\(quad a)`))
}

func TestScenarioForeachLambda(t *testing.T) {
	assert.Equal(t, "[a][b][c]", run(t, `\(foreach (a b c) \(lambda 1 [$0]))`))
}

func TestScenarioSuppressPreservesWhitespace(t *testing.T) {
	assert.Equal(t, "plain text  done", run(t, `plain text \(suppress \(def z 0 ignored)) done`))
}

func TestScenarioNestedAddFixpoint(t *testing.T) {
	assert.Equal(t, "6", run(t, `\(add \(add 1 2) 3)`))
}

func TestScenarioUndefinedMacroRoundTrips(t *testing.T) {
	assert.Equal(t, `\(bogus x)`, run(t, `\(bogus x)`))
}

// def's two-argument-shape resolution (spec §4.D/§9): a Lambda value wins
// over any other reading; otherwise exactly one remaining body node is a
// zero-arity definition even when it parses as an integer; otherwise the
// first of two-or-more remaining nodes is the arity.
func TestDefAmbiguityPrecedence(t *testing.T) {
	// Single remaining node "42" is a zero-arity body, not an arity with an
	// empty body.
	assert.Equal(t, "42", run(t, `\(def x 42)\(x)`))

	// Two remaining nodes: the first is the arity, the rest the body.
	assert.Equal(t, "Y", run(t, `\(def y 1 $0)\(y Y)`))

	// A Lambda argument is installed directly, regardless of what follows
	// were it read as a literal body.
	assert.Equal(t, "Z", run(t, `\(def w \(lambda 1 $0))\(w Z)`))
}

func TestIfelseShortCircuits(t *testing.T) {
	assert.Equal(t, "yes", run(t, `\(ifelse 1 yes \(add nope nope))`))
	assert.Equal(t, "no", run(t, `\(ifelse 0 \(add nope nope) no)`))
}

func TestEqAndNot(t *testing.T) {
	assert.Equal(t, "1", run(t, `\(eq ab ab)`))
	assert.Equal(t, "0", run(t, `\(eq ab ac)`))
	assert.Equal(t, "1", run(t, `\(not 0)`))
	assert.Equal(t, "0", run(t, `\(not yes)`))
}

func TestLenCountsBytes(t *testing.T) {
	assert.Equal(t, "5", run(t, `\(len hello)`))
}

func TestCurryDefinedMacro(t *testing.T) {
	ctx := NewEvalContext(parser.Options{Escc: '\\', PassEscc: false}, noFS{})
	seq, err := parser.Parse([]byte(`\(def twice 2 $0$1)\(def half \(curry twice a))\(half b)`), ctx.Opts)
	require.NoError(t, err)
	out, err := Eval(ctx, seq, nil)
	require.NoError(t, err)
	out = mangle.CompactToplevel(out)
	assert.Equal(t, "ab", string(mangle.ToBytesSeq(out, '\\')))
}

func TestCurryBuiltinByName(t *testing.T) {
	ctx := NewEvalContext(parser.Options{Escc: '\\', PassEscc: false}, noFS{})
	seq, err := parser.Parse([]byte(`\(def inc \(curry add 1))\(inc 4)`), ctx.Opts)
	require.NoError(t, err)
	out, err := Eval(ctx, seq, nil)
	require.NoError(t, err)
	out = mangle.CompactToplevel(out)
	assert.Equal(t, "5", string(mangle.ToBytesSeq(out, '\\')))
}

func TestCurryVariableArityBuiltinFails(t *testing.T) {
	assert.Equal(t, `\(curry pass a)`, run(t, `\(curry pass a)`))
}

func TestUndefRemovesMacro(t *testing.T) {
	assert.Equal(t, `\(x)`, run(t, `\(def x 0 hi)\(undef x)\(x)`))
}

func TestUneSplicesOneLevel(t *testing.T) {
	ctx := NewEvalContext(parser.Options{Escc: '\\', PassEscc: false}, noFS{})
	grouped := ast.NewGrouped(ast.Strict, ast.Seq{ast.NewConstant(true, []byte("a"))})
	out, ok := builtinUne(ast.Seq{grouped}, ctx)
	require.True(t, ok)
	g, ok := out.(*ast.Grouped)
	require.True(t, ok)
	assert.Equal(t, ast.Dissolving, g.Type)
}

func TestSaveLoadImageRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	top := ast.Seq{ast.NewConstant(true, []byte("persisted"))}
	defs := map[string]MacroDef{"x": {Argc: 0, Body: ast.NewConstant(true, []byte("body"))}}
	require.NoError(t, SaveImage(&buf, top, defs))

	loadedTop, loadedDefs, err := LoadImage(&buf)
	require.NoError(t, err)
	require.Len(t, loadedTop, 1)
	c, ok := loadedTop[0].(ast.Constant)
	require.True(t, ok)
	assert.Equal(t, "persisted", string(c.Data))
	require.Contains(t, loadedDefs, "x")
}
