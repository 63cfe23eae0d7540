package model

import (
	"strings"

	"github.com/lheh1167/slack-pair-bot/pkg/domain/types"
)

// RawPairLine is one non-blank input line split into identifier tokens
type RawPairLine struct {
	LineNumber int // 1-based position among non-blank lines
	RawText    string
	Token1     string
	Token2     string // empty when the line has a single field
	TokenCount int    // number of comma-separated fields on the line
}

// IsWellFormed reports whether the line holds exactly two non-empty tokens
func (l RawPairLine) IsWellFormed() bool {
	return l.TokenCount == 2 && l.Token1 != "" && l.Token2 != ""
}

// ParsePairLines splits raw operator input into candidate pair lines. Blank
// lines are skipped and do not consume a line number. Every other line is
// returned, including malformed ones.
func ParsePairLines(raw string) []RawPairLine {
	var lines []RawPairLine
	n := 0
	for _, line := range strings.Split(raw, "\n") {
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		n++

		fields := strings.Split(text, ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		parsed := RawPairLine{
			LineNumber: n,
			RawText:    text,
			Token1:     fields[0],
			TokenCount: len(fields),
		}
		if len(fields) > 1 {
			parsed.Token2 = fields[1]
		}
		lines = append(lines, parsed)
	}
	return lines
}

// PairUser is one side of a validated pair
type PairUser struct {
	Input    string
	Resolved *User // nil when the input did not resolve
	Valid    bool
}

// Name returns the resolved user's name or the raw input
func (u PairUser) Name() string {
	if u.Resolved != nil {
		return u.Resolved.Name()
	}
	return u.Input
}

// ValidatedPair is a fully classified input line. Valid is true iff both
// users resolved to different identities; ErrorReason is set iff Valid is
// false.
type ValidatedPair struct {
	LineNumber  int
	RawText     string
	User1       PairUser
	User2       PairUser
	Valid       bool
	ErrorReason types.PairErrorReason
}

// Label returns a short human-readable description of the pair
func (p ValidatedPair) Label() string {
	if !p.Valid && p.ErrorReason == types.PairErrorMalformedLine {
		return p.RawText
	}
	return p.User1.Name() + " & " + p.User2.Name()
}

// ErrorMessage returns the operator-facing reason, or "" for valid pairs
func (p ValidatedPair) ErrorMessage() string {
	if p.Valid {
		return ""
	}
	return p.ErrorReason.Message(p.User1.Input, p.User2.Input)
}

// ValidatePairs resolves and classifies each line against snapshot. Output
// order and length match lines. Reasons are checked in a fixed precedence:
// malformed line, first user, second user, self pair.
func ValidatePairs(lines []RawPairLine, snapshot *DirectorySnapshot) []ValidatedPair {
	result := make([]ValidatedPair, 0, len(lines))
	for _, line := range lines {
		result = append(result, validatePair(line, snapshot))
	}
	return result
}

func validatePair(line RawPairLine, snapshot *DirectorySnapshot) ValidatedPair {
	pair := ValidatedPair{
		LineNumber: line.LineNumber,
		RawText:    line.RawText,
		User1:      PairUser{Input: line.Token1},
		User2:      PairUser{Input: line.Token2},
	}

	if !line.IsWellFormed() {
		pair.ErrorReason = types.PairErrorMalformedLine
		return pair
	}

	if u, ok := Resolve(line.Token1, snapshot); ok {
		pair.User1.Resolved = u
		pair.User1.Valid = true
	}
	if u, ok := Resolve(line.Token2, snapshot); ok {
		pair.User2.Resolved = u
		pair.User2.Valid = true
	}

	switch {
	case !pair.User1.Valid:
		pair.ErrorReason = types.PairErrorUser1NotFound
	case !pair.User2.Valid:
		pair.ErrorReason = types.PairErrorUser2NotFound
	case pair.User1.Resolved.ID == pair.User2.Resolved.ID:
		pair.ErrorReason = types.PairErrorSelfPair
	default:
		pair.Valid = true
	}

	return pair
}

// ValidPairs returns the valid subset of pairs, preserving order
func ValidPairs(pairs []ValidatedPair) []ValidatedPair {
	var valid []ValidatedPair
	for _, p := range pairs {
		if p.Valid {
			valid = append(valid, p)
		}
	}
	return valid
}
