package types

import "fmt"

// PairErrorReason explains why a submitted pair line cannot be executed.
// The zero value means the line is valid.
type PairErrorReason string

const (
	PairErrorMalformedLine PairErrorReason = "MALFORMED_LINE"
	PairErrorUser1NotFound PairErrorReason = "USER1_NOT_FOUND"
	PairErrorUser2NotFound PairErrorReason = "USER2_NOT_FOUND"
	PairErrorSelfPair      PairErrorReason = "SELF_PAIR"
)

// AllPairErrorReasons returns every reason in precedence order
func AllPairErrorReasons() []PairErrorReason {
	return []PairErrorReason{
		PairErrorMalformedLine,
		PairErrorUser1NotFound,
		PairErrorUser2NotFound,
		PairErrorSelfPair,
	}
}

// IsValid checks if the reason is one of the known reasons
func (r PairErrorReason) IsValid() bool {
	switch r {
	case PairErrorMalformedLine,
		PairErrorUser1NotFound,
		PairErrorUser2NotFound,
		PairErrorSelfPair:
		return true
	default:
		return false
	}
}

// String returns the string representation of the reason
func (r PairErrorReason) String() string {
	return string(r)
}

// Message returns an operator-facing explanation. input1 and input2 are the
// raw identifiers from the offending line.
func (r PairErrorReason) Message(input1, input2 string) string {
	switch r {
	case PairErrorMalformedLine:
		return "expected exactly two identifiers separated by a comma"
	case PairErrorUser1NotFound:
		return fmt.Sprintf("could not find %q in the directory", input1)
	case PairErrorUser2NotFound:
		return fmt.Sprintf("could not find %q in the directory", input2)
	case PairErrorSelfPair:
		return fmt.Sprintf("%q and %q are the same person", input1, input2)
	default:
		return "unknown error"
	}
}

// ParsePairErrorReason parses a string into a PairErrorReason
func ParsePairErrorReason(s string) (PairErrorReason, error) {
	reason := PairErrorReason(s)
	if !reason.IsValid() {
		return "", fmt.Errorf("invalid pair error reason: %s", s)
	}
	return reason, nil
}
