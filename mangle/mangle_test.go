package mangle

import (
	"testing"

	"github.com/fogti/mangle/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func c(nonSpace bool, s string) ast.Node {
	return ast.NewConstant(nonSpace, []byte(s))
}

func TestToBytesRoundTripShapes(t *testing.T) {
	n := ast.NewGrouped(ast.Strict, ast.Seq{c(true, "a"), c(true, "b")})
	assert.Equal(t, "(ab)", string(ToBytesNode(n, '\\')))

	arg := ast.NewArgumentIndexed(1, 3)
	assert.Equal(t, "$$3", string(ToBytesNode(arg, '\\')))

	bare := ast.NewArgumentBare(0)
	assert.Equal(t, "$", string(ToBytesNode(bare, '\\')))

	cmd := ast.NewCmdEval(ast.Seq{c(true, "add")}, ast.NewArgListRaw(ast.Seq{c(true, "1"), c(true, "2")}))
	assert.Equal(t, `\(add 1 2)`, string(ToBytesNode(cmd, '\\')))

	lam := ast.NewLambda(2, c(true, "body"))
	assert.Equal(t, `\(lambda 2 body)`, string(ToBytesNode(lam, '\\')))
}

func TestComplexityMonotonicity(t *testing.T) {
	n := ast.NewGrouped(ast.Loose, ast.Seq{
		ast.Null,
		c(true, "x"),
		ast.NewGrouped(ast.Dissolving, ast.Seq{c(true, "y"), c(true, "z")}),
	})
	before := ComplexityNode(n)
	simplified := SimplifyNode(n)
	after := ComplexityNode(simplified)
	assert.LessOrEqual(t, after, before)
}

func TestSimplifyIdempotent(t *testing.T) {
	n := ast.NewGrouped(ast.Loose, ast.Seq{
		ast.Null,
		c(true, "x"),
		c(true, "y"),
		ast.NewGrouped(ast.Dissolving, ast.Seq{c(true, "z")}),
	})
	once := SimplifyNode(n)
	twice := SimplifyNode(ast.CloneNode(once))
	assert.Equal(t, ToBytesNode(once, '\\'), ToBytesNode(twice, '\\'))
	assert.Equal(t, ComplexityNode(once), ComplexityNode(twice))
}

func TestSimplifyDropsNullAndMergesConstants(t *testing.T) {
	seq := ast.Seq{c(true, "a"), ast.Null, c(true, "b")}
	out := SimplifySeq(seq)
	require.Len(t, out, 1)
	data, ok := ast.AsConstant(out[0])
	require.True(t, ok)
	assert.Equal(t, "ab", string(data))
}

func TestSimplifyDoesNotMergeDifferentFlags(t *testing.T) {
	seq := ast.Seq{c(true, "a"), c(false, " "), c(true, "b")}
	out := SimplifySeq(seq)
	require.Len(t, out, 3)
}

func TestSimplifyUnwrapsSingleDissolvingInStrict(t *testing.T) {
	inner := ast.NewGrouped(ast.Dissolving, ast.Seq{c(true, "x"), c(true, "y")})
	strict := ast.NewGrouped(ast.Strict, ast.Seq{inner})
	out := SimplifyNode(strict)
	g, ok := out.(*ast.Grouped)
	require.True(t, ok)
	assert.Equal(t, ast.Strict, g.Type)
	require.Len(t, g.Elems, 1)
	data, _ := ast.AsConstant(g.Elems[0])
	assert.Equal(t, "xy", string(data))
}

func TestSimplifyLooseSingleChildUnwraps(t *testing.T) {
	loose := ast.NewGrouped(ast.Loose, ast.Seq{c(true, "solo")})
	out := SimplifyNode(loose)
	data, ok := ast.AsConstant(out)
	require.True(t, ok)
	assert.Equal(t, "solo", string(data))
}

func TestArgListSplicesDissolvingGroup(t *testing.T) {
	a := ast.ArgList{Items: ast.Seq{
		c(true, "x"),
		ast.NewGrouped(ast.Dissolving, ast.Seq{c(true, "y"), ast.NewArgumentIndexed(0, 0)}),
	}}
	out := SimplifyArgList(a)
	require.Equal(t, 3, out.Len())
}

func TestApplyArgumentsSubstitutesAndErrorsOnOutOfRange(t *testing.T) {
	body := ast.NewGrouped(ast.Loose, ast.Seq{
		ast.NewArgumentIndexed(0, 0),
		ast.NewArgumentIndexed(0, 0),
	})
	args := ast.Seq{c(true, "X")}
	out, err := ApplyArgumentsNode(body, args)
	require.NoError(t, err)
	g := out.(*ast.Grouped)
	for _, elem := range g.Elems {
		data, ok := ast.AsConstant(elem)
		require.True(t, ok)
		assert.Equal(t, "X", string(data))
	}

	bad := ast.NewArgumentIndexed(0, 5)
	_, err = ApplyArgumentsNode(bad, args)
	require.Error(t, err)
	aie, ok := err.(*ArgIndexError)
	require.True(t, ok)
	assert.Equal(t, 5, aie.Index)
}

func TestApplyArgumentsIndirectionDecrements(t *testing.T) {
	ind := ast.NewArgumentIndexed(2, 0)
	out, err := ApplyArgumentsNode(ind, ast.Seq{c(true, "x")})
	require.NoError(t, err)
	a := out.(ast.Argument)
	assert.Equal(t, 1, a.Indirection)
}

func TestCurryPartialLambda(t *testing.T) {
	lam := ast.NewLambda(2, ast.NewGrouped(ast.Loose, ast.Seq{
		ast.NewArgumentIndexed(0, 0),
		ast.NewArgumentIndexed(0, 1),
	}))
	out := Curry(lam, ast.Seq{c(true, "X")})
	curried, ok := out.(*ast.Lambda)
	require.True(t, ok)
	assert.Equal(t, 1, curried.Argc)

	body := curried.Body.(*ast.Grouped)
	data, ok := ast.AsConstant(body.Elems[0])
	require.True(t, ok)
	assert.Equal(t, "X", string(data))

	reindexed, ok := body.Elems[1].(ast.Argument)
	require.True(t, ok)
	require.NotNil(t, reindexed.Index)
	assert.Equal(t, 0, *reindexed.Index)
}

func TestCurryBareNodeReindexes(t *testing.T) {
	node := ast.NewGrouped(ast.Loose, ast.Seq{ast.NewArgumentIndexed(0, 3)})
	out := Curry(node, ast.Seq{c(true, "a"), c(true, "b")})
	g := out.(*ast.Grouped)
	arg := g.Elems[0].(ast.Argument)
	require.NotNil(t, arg.Index)
	assert.Equal(t, 1, *arg.Index)
}

func TestCompactToplevelCoalescesRegardlessOfFlag(t *testing.T) {
	seq := ast.Seq{c(true, "a"), c(false, " "), c(true, "b")}
	out := CompactToplevel(seq)
	require.Len(t, out, 1)
	data, ok := ast.AsConstant(out[0])
	require.True(t, ok)
	assert.Equal(t, "a b", string(data))
}
