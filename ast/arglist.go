package ast

// ArgList is the ordered sequence of arguments to a CmdEval. It has two
// construction rules: FromWSDelim groups contiguous non-space nodes into one
// argument apiece (whitespace separates, and is discarded); NewArgListRaw is
// a 1:1 wrap of an existing sequence.
type ArgList struct {
	Items Seq
}

// NewArgListRaw wraps seq as an ArgList without any regrouping.
func NewArgListRaw(seq Seq) ArgList {
	return ArgList{Items: seq}
}

// FromWSDelim splits seq into arguments at whitespace boundaries: each
// maximal run of contiguous non-space nodes becomes one argument (the node
// itself if the run is a single node, otherwise a Dissolving group of the
// run), each argument is then passed through simplify, and a result that is
// still a Dissolving group is re-marked Loose. Whitespace nodes between runs
// are dropped entirely.
//
// simplify is the caller-supplied simplification function (ast has no
// dependency on the mangle package, which itself depends on ast; callers
// typically pass mangle.SimplifyNode).
func FromWSDelim(seq Seq, simplify func(Node) Node) ArgList {
	var items Seq
	var run Seq
	flush := func() {
		if len(run) == 0 {
			return
		}
		var n Node
		if len(run) == 1 {
			n = run[0]
		} else {
			n = NewGrouped(Dissolving, append(Seq{}, run...))
		}
		if simplify != nil {
			n = simplify(n)
		}
		// A run spanning more than one node simplifies to a Dissolving
		// group; left as Dissolving it would later be spliced back apart by
		// an enclosing call's argument-splicing (eval_args), undoing the
		// very whitespace-grouping this function exists to perform. Mark it
		// Loose instead, which simplification never auto-dissolves.
		if g, ok := n.(*Grouped); ok && g.Type == Dissolving {
			g.Type = Loose
		}
		items = append(items, n)
		run = nil
	}
	for _, n := range seq {
		if IsSpace(n) {
			flush()
			continue
		}
		run = append(run, n)
	}
	flush()
	return ArgList{Items: items}
}

// Len returns the number of arguments.
func (a ArgList) Len() int { return len(a.Items) }
