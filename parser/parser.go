package parser

import (
	"strconv"

	"github.com/fogti/mangle/ast"
	"github.com/fogti/mangle/mangle"
)

type parser struct {
	src  []byte
	pos  int
	opts Options
}

// Parse parses src into a top-level node sequence per the grammar of spec
// §4.C. At top level only escc-introduced constructs are recognized; every
// other byte run is emitted as one or more Constant nodes.
func Parse(src []byte, opts Options) (ast.Seq, error) {
	p := &parser{src: src, opts: opts}
	var seq ast.Seq
	for p.pos < len(p.src) {
		if p.src[p.pos] == p.opts.Escc {
			n, err := p.parseEscaped()
			if err != nil {
				return nil, err
			}
			seq = append(seq, n)
			continue
		}
		seq = append(seq, p.parseConstRun(true))
	}
	return seq, nil
}

func isWS(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// isMeta reports whether b is one of the grammar's syntactic meta bytes. escc
// itself is excluded here; callers check it separately since it is
// configurable rather than a compile-time constant.
func isMeta(b byte) bool {
	switch b {
	case '(', ')', '{', '}', '$':
		return true
	default:
		return false
	}
}

// parseConstRun consumes a maximal run of bytes sharing a whitespace
// classification. At top level (topLevel=true) only escc additionally
// terminates the run; inside the full grammar, the meta bytes do too.
func (p *parser) parseConstRun(topLevel bool) ast.Node {
	start := p.pos
	ws := isWS(p.src[p.pos])
	for p.pos < len(p.src) {
		b := p.src[p.pos]
		if b == p.opts.Escc {
			break
		}
		if !topLevel && isMeta(b) {
			break
		}
		if isWS(b) != ws {
			break
		}
		p.pos++
	}
	data := append([]byte(nil), p.src[start:p.pos]...)
	return ast.NewConstant(!ws, data)
}

// parseInside parses the full grammar (node*) until it sees closer (without
// consuming it) or the input ends. The caller is responsible for checking
// that closer was actually found and for consuming it; that split is what
// lets a missing-delimiter failure be reported as ExpectedInstead with the
// exact delimiter that was awaited, rather than a generic EOF.
func (p *parser) parseInside(closer byte, origin Span) (ast.Seq, error) {
	var seq ast.Seq
	for {
		if p.pos >= len(p.src) {
			return seq, nil
		}
		b := p.src[p.pos]
		if b == closer {
			return seq, nil
		}
		switch {
		case b == p.opts.Escc:
			n, err := p.parseEscaped()
			if err != nil {
				return seq, err
			}
			seq = append(seq, n)
		case b == '(':
			n, err := p.parseGroup(ast.Strict, '(', ')')
			if err != nil {
				return seq, err
			}
			seq = append(seq, n)
		case b == '{':
			n, err := p.parseGroup(ast.Loose, '{', '}')
			if err != nil {
				return seq, err
			}
			seq = append(seq, n)
		case b == ')' || b == '}':
			return seq, &Error{Kind: UnbalancedEos, Offset: Span{p.pos, p.pos + 1}, Origin: origin, Byte: b}
		case b == '$':
			seq = append(seq, p.parseArgument())
		default:
			seq = append(seq, p.parseConstRun(false))
		}
	}
}

func (p *parser) parseArgument() ast.Node {
	indirection := -1
	for p.pos < len(p.src) && p.src[p.pos] == '$' {
		indirection++
		p.pos++
	}
	digitsStart := p.pos
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == digitsStart {
		return ast.NewArgumentBare(indirection)
	}
	idx, _ := strconv.Atoi(string(p.src[digitsStart:p.pos]))
	return ast.NewArgumentIndexed(indirection, idx)
}

func (p *parser) parseGroup(typ ast.GroupType, open, close byte) (ast.Node, error) {
	origin := Span{p.pos, p.pos + 1}
	p.pos++ // consume open
	elems, err := p.parseInside(close, origin)
	if err != nil {
		return nil, err
	}
	if p.pos >= len(p.src) || p.src[p.pos] != close {
		return nil, &Error{Kind: ExpectedInstead, Offset: Span{p.pos, p.pos}, Origin: origin, Byte: close}
	}
	p.pos++ // consume close
	return ast.NewGrouped(typ, elems), nil
}

// isIdentStart reports whether b can begin a shorthand-call identifier: any
// byte that is neither whitespace nor one of the meta bytes. The caller has
// already excluded escc.
func isIdentStart(b byte) bool {
	return !isWS(b) && !isMeta(b)
}

// parseEscaped parses one "escaped" production (spec §4.C); p.pos points at
// the escc byte on entry.
func (p *parser) parseEscaped() (ast.Node, error) {
	escStart := p.pos
	p.pos++ // consume escc
	if p.pos >= len(p.src) {
		return nil, &Error{Kind: UnexpectedEof, Offset: Span{escStart, escStart + 1}, Origin: Span{escStart, escStart + 1}}
	}
	c := p.src[p.pos]
	switch {
	case c == '(':
		origin := Span{escStart, p.pos + 1}
		p.pos++ // consume '('
		elems, err := p.parseInside(')', origin)
		if err != nil {
			return nil, err
		}
		if p.pos >= len(p.src) || p.src[p.pos] != ')' {
			return nil, &Error{Kind: ExpectedInstead, Offset: Span{p.pos, p.pos}, Origin: origin, Byte: ')'}
		}
		p.pos++ // consume ')'
		if len(elems) == 0 {
			return nil, &Error{Kind: InvalidEval, Offset: origin}
		}
		return splitCmdEval(elems), nil
	case c == '\n':
		p.pos++
		return ast.Null, nil
	case c == '{':
		p.pos++
		return ast.NewConstant(true, []byte{'{'}), nil
	case c == '$':
		p.pos++
		return ast.NewConstant(true, []byte{'$'}), nil
	case c == ')':
		p.pos++
		return nil, &Error{Kind: DangerousEos, Offset: Span{escStart, p.pos}, Origin: Span{escStart, p.pos}, Byte: ')'}
	case c == '}':
		p.pos++
		return nil, &Error{Kind: DangerousEos, Offset: Span{escStart, p.pos}, Origin: Span{escStart, p.pos}, Byte: '}'}
	case c == p.opts.Escc:
		p.pos++
		if p.opts.PassEscc {
			return ast.NewConstant(true, []byte{p.opts.Escc, p.opts.Escc}), nil
		}
		return ast.NewConstant(true, []byte{p.opts.Escc}), nil
	case isIdentStart(c):
		return p.parseShorthand(escStart)
	default:
		return nil, &Error{Kind: InvalidEval, Offset: Span{escStart, p.pos + 1}}
	}
}

// parseShorthand parses the "escc<ident>[(...)]" shorthand-call form;
// p.pos points at the first ident byte on entry.
func (p *parser) parseShorthand(escStart int) (ast.Node, error) {
	identStart := p.pos
	for p.pos < len(p.src) {
		b := p.src[p.pos]
		if isWS(b) || isMeta(b) || b == p.opts.Escc {
			break
		}
		p.pos++
	}
	ident := append([]byte(nil), p.src[identStart:p.pos]...)
	cmd := ast.Seq{ast.NewConstant(true, ident)}

	if p.pos >= len(p.src) || p.src[p.pos] != '(' {
		return ast.NewCmdEval(cmd, ast.ArgList{}), nil
	}

	origin := Span{p.pos, p.pos + 1}
	p.pos++ // consume '('
	elems, err := p.parseInside(')', origin)
	if err != nil {
		return nil, err
	}
	if p.pos >= len(p.src) || p.src[p.pos] != ')' {
		return nil, &Error{Kind: ExpectedInstead, Offset: Span{p.pos, p.pos}, Origin: origin, Byte: ')'}
	}
	p.pos++ // consume ')'
	args := ast.FromWSDelim(elems, mangle.SimplifyNode)
	return ast.NewCmdEval(cmd, args), nil
}

// splitCmdEval implements the CmdEval-splitting rule: the sequence parsed
// from inside an escc(...) block is split at its first whitespace-class
// node, which becomes the boundary between cmd and args (and is itself
// dropped).
func splitCmdEval(elems ast.Seq) ast.Node {
	idx := -1
	for i, n := range elems {
		if ast.IsSpace(n) {
			idx = i
			break
		}
	}
	var cmd, rest ast.Seq
	if idx == -1 {
		cmd = elems
	} else {
		cmd = elems[:idx]
		rest = elems[idx+1:]
	}
	args := ast.FromWSDelim(rest, mangle.SimplifyNode)
	return ast.NewCmdEval(cmd, args)
}
