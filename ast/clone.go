package ast

// CloneNode returns a deep copy of n. Argument substitution installs clones
// of the bound value at every reference site so that later in-place rewrites
// of one substituted copy (e.g. during a further Simplify or ApplyArguments
// pass) never leak into a sibling copy.
func CloneNode(n Node) Node {
	switch v := n.(type) {
	case NullNode:
		return v
	case Constant:
		data := append([]byte(nil), v.Data...)
		return Constant{NonSpace: v.NonSpace, Data: data}
	case Argument:
		if v.Index == nil {
			return v
		}
		idx := *v.Index
		return Argument{Indirection: v.Indirection, Index: &idx}
	case *Grouped:
		return NewGrouped(v.Type, CloneSeq(v.Elems))
	case *CmdEval:
		return NewCmdEval(CloneSeq(v.Cmd), ArgList{Items: CloneSeq(v.Args.Items)})
	case *Lambda:
		return NewLambda(v.Argc, CloneNode(v.Body))
	default:
		return n
	}
}

// CloneSeq returns a deep copy of seq.
func CloneSeq(seq Seq) Seq {
	out := make(Seq, len(seq))
	for i, n := range seq {
		out[i] = CloneNode(n)
	}
	return out
}
