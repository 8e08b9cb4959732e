package parser

import "fmt"

// ErrorKind distinguishes the parser's error taxonomy (spec §4.C).
type ErrorKind int

const (
	// UnexpectedEof means the input was exhausted mid-construct.
	UnexpectedEof ErrorKind = iota
	// InvalidEval means an eval block was empty, or a shorthand call had no
	// name.
	InvalidEval
	// ExpectedInstead means a required closing delimiter was missing; Byte
	// holds the delimiter that was expected.
	ExpectedInstead
	// DangerousEos means an escaped close-delimiter (\) or \}) was seen. Its
	// naive reading (pass it through literally) almost never matches intent
	// (closing the enclosing group), so it is refused rather than silently
	// misparsed.
	DangerousEos
	// UnbalancedEos means a close-delimiter appeared with no matching scope
	// open.
	UnbalancedEos
)

func (k ErrorKind) String() string {
	switch k {
	case UnexpectedEof:
		return "UnexpectedEof"
	case InvalidEval:
		return "InvalidEval"
	case ExpectedInstead:
		return "ExpectedInstead"
	case DangerousEos:
		return "DangerousEos"
	case UnbalancedEos:
		return "UnbalancedEos"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is a parse failure. It carries both the offending byte span and the
// span of the construct it occurred within, so a caller can render a
// "expected ')' to close the block opened here" style diagnostic without
// re-walking the source. Byte is populated for ExpectedInstead and
// DangerousEos/UnbalancedEos, where a specific delimiter is implicated.
type Error struct {
	Kind   ErrorKind
	Offset Span
	Origin Span
	Byte   byte
}

func (e *Error) Error() string {
	switch e.Kind {
	case ExpectedInstead:
		return fmt.Sprintf("parser: expected %q instead at %s (in construct at %s)", e.Byte, e.Offset, e.Origin)
	case DangerousEos:
		return fmt.Sprintf("parser: dangerous escaped close-delimiter %q at %s (in construct at %s); unescape the matching open instead", e.Byte, e.Offset, e.Origin)
	case UnbalancedEos:
		return fmt.Sprintf("parser: unbalanced close-delimiter %q at %s", e.Byte, e.Offset)
	case InvalidEval:
		return fmt.Sprintf("parser: invalid eval block at %s", e.Offset)
	case UnexpectedEof:
		return fmt.Sprintf("parser: unexpected end of input at %s (in construct at %s)", e.Offset, e.Origin)
	default:
		return fmt.Sprintf("parser: error %s at %s", e.Kind, e.Offset)
	}
}
