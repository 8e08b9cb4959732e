// Package mangle implements the Mangle algebra (spec §4.B): serialization of
// an ast.Node/ast.Seq/ast.ArgList back to bytes, the monotone complexity
// metric that witnesses termination of the interpreter's fixpoint loop,
// simplification to the AST's normal form, positional-argument
// substitution, currying, and the aggressive top-level compaction used only
// at final serialization time.
//
// The algebra is implemented as three sets of free functions — one per
// ast type — rather than a single generic interface, following the
// "three monomorphic copies sharing common helpers" option spec §9 allows.
package mangle

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/fogti/mangle/ast"
)

// ToBytesNode serializes a single node, per spec §4.B.
func ToBytesNode(n ast.Node, escc byte) []byte {
	switch v := n.(type) {
	case ast.NullNode:
		return nil
	case ast.Constant:
		return v.Data
	case ast.Argument:
		var buf bytes.Buffer
		for i := 0; i <= v.Indirection; i++ {
			buf.WriteByte('$')
		}
		if v.Index != nil {
			buf.WriteString(strconv.Itoa(*v.Index))
		}
		return buf.Bytes()
	case *ast.Grouped:
		inner := ToBytesSeq(v.Elems, escc)
		if v.Type == ast.Strict {
			var buf bytes.Buffer
			buf.WriteByte('(')
			buf.Write(inner)
			buf.WriteByte(')')
			return buf.Bytes()
		}
		return inner
	case *ast.CmdEval:
		var buf bytes.Buffer
		buf.WriteByte(escc)
		buf.WriteByte('(')
		buf.Write(ToBytesSeq(v.Cmd, escc))
		buf.Write(ToBytesArgList(v.Args, escc))
		buf.WriteByte(')')
		return buf.Bytes()
	case *ast.Lambda:
		var buf bytes.Buffer
		buf.WriteByte(escc)
		buf.WriteString("(lambda ")
		buf.WriteString(strconv.Itoa(v.Argc))
		buf.WriteByte(' ')
		buf.Write(ToBytesNode(v.Body, escc))
		buf.WriteByte(')')
		return buf.Bytes()
	default:
		panic(fmt.Sprintf("mangle: unknown node type %T", n))
	}
}

// ToBytesSeq serializes a sequence by concatenating each element's bytes.
func ToBytesSeq(seq ast.Seq, escc byte) []byte {
	var buf bytes.Buffer
	for _, n := range seq {
		buf.Write(ToBytesNode(n, escc))
	}
	return buf.Bytes()
}

// ToBytesArgList serializes an ArgList: a single space precedes every
// argument's bytes.
func ToBytesArgList(a ast.ArgList, escc byte) []byte {
	var buf bytes.Buffer
	for _, n := range a.Items {
		buf.WriteByte(' ')
		buf.Write(ToBytesNode(n, escc))
	}
	return buf.Bytes()
}

// groupWeight is the per-GroupType constant term in the complexity metric.
func groupWeight(t ast.GroupType) int {
	switch t {
	case ast.Dissolving:
		return 0
	case ast.Loose:
		return 1
	case ast.Strict:
		return 2
	default:
		return 0
	}
}

// ComplexityNode computes the monotone complexity metric for n (spec §4.B).
// Every rewrite Simplify performs is non-increasing in this metric, and
// every effective rewrite strictly decreases it — this is the termination
// proof for the interpreter's fixpoint loop.
func ComplexityNode(n ast.Node) int {
	switch v := n.(type) {
	case ast.NullNode:
		return 0
	case ast.Constant:
		return 1 + len(v.Data)
	case ast.Argument:
		return 3 + v.Indirection
	case *ast.Grouped:
		return groupWeight(v.Type) + ComplexitySeq(v.Elems)
	case *ast.CmdEval:
		return 1 + ComplexitySeq(v.Cmd) + ComplexityArgList(v.Args)
	case *ast.Lambda:
		return 2 + ComplexityNode(v.Body)
	default:
		panic(fmt.Sprintf("mangle: unknown node type %T", n))
	}
}

// ComplexitySeq sums the complexity of every element.
func ComplexitySeq(seq ast.Seq) int {
	sum := 0
	for _, n := range seq {
		sum += ComplexityNode(n)
	}
	return sum
}

// ComplexityArgList sums the complexity of every argument.
func ComplexityArgList(a ast.ArgList) int {
	return ComplexitySeq(a.Items)
}
