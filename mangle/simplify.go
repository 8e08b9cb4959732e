package mangle

import "github.com/fogti/mangle/ast"

// SimplifyNode normalizes a single node per the rules of spec §4.B/§3. It
// recurses into children via SimplifySeq/SimplifyArgList, so a single call
// simplifies the whole subtree rooted at n.
func SimplifyNode(n ast.Node) ast.Node {
	switch v := n.(type) {
	case ast.NullNode:
		return v
	case ast.Constant:
		return v
	case ast.Argument:
		return v
	case *ast.Grouped:
		return simplifyGrouped(v)
	case *ast.CmdEval:
		v.Cmd = SimplifySeq(v.Cmd)
		v.Args = SimplifyArgList(v.Args)
		return v
	case *ast.Lambda:
		v.Body = SimplifyNode(v.Body)
		return v
	default:
		return n
	}
}

func simplifyGrouped(v *ast.Grouped) ast.Node {
	elems := SimplifySeq(v.Elems)
	if v.Type == ast.Strict {
		// Rule 3: Grouped{Strict, [Grouped{Dissolving, xs}]} -> Grouped{Strict, xs}.
		// Unwraps exactly one dissolving layer; elems[0]'s own children are
		// already simplified and normalized, so they can be reused as-is.
		if len(elems) == 1 {
			if inner, ok := elems[0].(*ast.Grouped); ok && inner.Type == ast.Dissolving {
				v.Elems = inner.Elems
				return v
			}
		}
		v.Elems = elems
		return v
	}
	// Rule 1/2 for non-strict groups (Loose, Dissolving): empty -> Null,
	// single child -> that child (unwrapped), invariant-preserving.
	switch len(elems) {
	case 0:
		return ast.Null
	case 1:
		return elems[0]
	default:
		v.Elems = elems
		return v
	}
}

// SimplifySeq simplifies every element and then re-normalizes the sequence:
// dropping Null and empty Constants, inlining every Dissolving group
// (recursively, since an inlined child may itself need inlining), and
// merging left-to-right any adjacent Constants that share a NonSpace flag.
func SimplifySeq(seq ast.Seq) ast.Seq {
	simplified := make(ast.Seq, len(seq))
	for i, n := range seq {
		simplified[i] = SimplifyNode(n)
	}

	var flat ast.Seq
	var flatten func(n ast.Node)
	flatten = func(n ast.Node) {
		switch v := n.(type) {
		case ast.NullNode:
			return
		case ast.Constant:
			if len(v.Data) == 0 {
				return
			}
			flat = append(flat, v)
		case *ast.Grouped:
			if v.Type == ast.Dissolving {
				for _, e := range v.Elems {
					flatten(e)
				}
				return
			}
			if v.Type != ast.Strict && len(v.Elems) == 0 {
				return
			}
			flat = append(flat, v)
		default:
			flat = append(flat, n)
		}
	}
	for _, n := range simplified {
		flatten(n)
	}

	var out ast.Seq
	for _, n := range flat {
		if c2, ok := n.(ast.Constant); ok && len(out) > 0 {
			if c1, ok1 := out[len(out)-1].(ast.Constant); ok1 && c1.NonSpace == c2.NonSpace {
				out[len(out)-1] = ast.Constant{
					NonSpace: c1.NonSpace,
					Data:     append(append([]byte(nil), c1.Data...), c2.Data...),
				}
				continue
			}
		}
		out = append(out, n)
	}
	return out
}

// SimplifyArgList simplifies each argument in place. An argument that
// simplifies to a Dissolving group is spliced into the list (widening the
// argument count); unlike SimplifySeq, arguments are never merged with their
// neighbors, since doing so would silently change which positional index a
// later argument occupies.
func SimplifyArgList(a ast.ArgList) ast.ArgList {
	var out ast.Seq
	for _, n := range a.Items {
		sn := SimplifyNode(n)
		if g, ok := sn.(*ast.Grouped); ok && g.Type == ast.Dissolving {
			out = append(out, g.Elems...)
			continue
		}
		out = append(out, sn)
	}
	return ast.ArgList{Items: out}
}

// CompactToplevel performs the aggressive simplification used only for the
// outermost sequence at final serialization time: every non-Strict Grouped
// is spliced into place regardless of child count, and any adjacent
// Constants (regardless of NonSpace flag) are coalesced, OR-ing their
// flags. This is safe only here because nothing downstream of the outermost
// serialization point consults NonSpace.
func CompactToplevel(seq ast.Seq) ast.Seq {
	var flat ast.Seq
	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		switch v := n.(type) {
		case ast.NullNode:
			return
		case *ast.Grouped:
			if v.Type != ast.Strict {
				for _, e := range v.Elems {
					walk(e)
				}
				return
			}
			flat = append(flat, v)
		default:
			flat = append(flat, n)
		}
	}
	for _, n := range seq {
		walk(n)
	}

	var out ast.Seq
	for _, n := range flat {
		if c2, ok := n.(ast.Constant); ok && len(out) > 0 {
			if c1, ok1 := out[len(out)-1].(ast.Constant); ok1 {
				out[len(out)-1] = ast.Constant{
					NonSpace: c1.NonSpace || c2.NonSpace,
					Data:     append(append([]byte(nil), c1.Data...), c2.Data...),
				}
				continue
			}
		}
		out = append(out, n)
	}
	return out
}
