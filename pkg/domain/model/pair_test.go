package model_test

import (
	"testing"

	"github.com/lheh1167/slack-pair-bot/pkg/domain/model"
	"github.com/lheh1167/slack-pair-bot/pkg/domain/types"
	"github.com/m-mizutani/gt"
)

func TestParsePairLines(t *testing.T) {
	t.Run("skips blank lines without consuming numbers", func(t *testing.T) {
		lines := model.ParsePairLines("\n  \na, b\n\n\r\nc,d\r\n")
		gt.Array(t, lines).Length(2)
		gt.Value(t, lines[0].LineNumber).Equal(1)
		gt.Value(t, lines[0].Token1).Equal("a")
		gt.Value(t, lines[0].Token2).Equal("b")
		gt.Value(t, lines[1].LineNumber).Equal(2)
		gt.Value(t, lines[1].RawText).Equal("c,d")
	})

	t.Run("well-formedness", func(t *testing.T) {
		tests := []struct {
			input string
			want  bool
		}{
			{"a,b", true},
			{" @a ,  b@co.com ", true},
			{"onlyone", false},
			{"a,", false},
			{",b", false},
			{"a,b,c", false},
			{"a,,b", false},
		}
		for _, tt := range tests {
			t.Run(tt.input, func(t *testing.T) {
				lines := model.ParsePairLines(tt.input)
				gt.Array(t, lines).Length(1)
				gt.Value(t, lines[0].IsWellFormed()).Equal(tt.want)
			})
		}
	})

	t.Run("single token leaves token2 empty", func(t *testing.T) {
		lines := model.ParsePairLines("onlyone")
		gt.Value(t, lines[0].Token2).Equal("")
		gt.Value(t, lines[0].TokenCount).Equal(1)
	})

	t.Run("empty input", func(t *testing.T) {
		gt.Array(t, model.ParsePairLines("")).Length(0)
	})
}

func scenarioSnapshot() *model.DirectorySnapshot {
	return newSnapshot(
		&model.DirectoryEntry{ID: "U1", Handle: "alice", RealName: "Alice", Email: "alice@co.com"},
		&model.DirectoryEntry{ID: "U2", Handle: "bob", RealName: "Bob"},
	)
}

func TestValidatePairs_Scenario(t *testing.T) {
	lines := model.ParsePairLines("@alice, @bob\nalice@co.com, alice@co.com\nonlyone")
	pairs := model.ValidatePairs(lines, scenarioSnapshot())

	gt.Array(t, pairs).Length(3)

	gt.Bool(t, pairs[0].Valid).True()
	gt.Value(t, pairs[0].ErrorReason).Equal(types.PairErrorReason(""))
	gt.Value(t, pairs[0].User1.Resolved.ID).Equal(model.UserID("U1"))
	gt.Value(t, pairs[0].User2.Resolved.ID).Equal(model.UserID("U2"))

	gt.Bool(t, pairs[1].Valid).False()
	gt.Value(t, pairs[1].ErrorReason).Equal(types.PairErrorSelfPair)
	gt.Value(t, pairs[1].User1.Resolved.ID).Equal(model.UserID("U1"))
	gt.Value(t, pairs[1].User2.Resolved.ID).Equal(model.UserID("U1"))

	gt.Bool(t, pairs[2].Valid).False()
	gt.Value(t, pairs[2].ErrorReason).Equal(types.PairErrorMalformedLine)
	gt.Value(t, pairs[2].LineNumber).Equal(3)
}

func TestValidatePairs_Reasons(t *testing.T) {
	snapshot := scenarioSnapshot()

	tests := []struct {
		name   string
		input  string
		reason types.PairErrorReason
	}{
		{"user1 missing is reported before user2", "nobody, nobody-else", types.PairErrorUser1NotFound},
		{"user2 missing", "alice, nobody", types.PairErrorUser2NotFound},
		{"self pair by different identifiers", "U1, @alice", types.PairErrorSelfPair},
		{"three tokens are malformed even if resolvable", "alice, bob, alice", types.PairErrorMalformedLine},
		{"malformed takes precedence over missing", "nobody", types.PairErrorMalformedLine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pairs := model.ValidatePairs(model.ParsePairLines(tt.input), snapshot)
			gt.Array(t, pairs).Length(1)
			gt.Bool(t, pairs[0].Valid).False()
			gt.Value(t, pairs[0].ErrorReason).Equal(tt.reason)
			gt.String(t, pairs[0].ErrorMessage()).NotEqual("")
		})
	}

	t.Run("user2 is still resolved when user1 fails", func(t *testing.T) {
		pairs := model.ValidatePairs(model.ParsePairLines("nobody, bob"), snapshot)
		gt.Value(t, pairs[0].User2.Resolved).NotNil()
		gt.Bool(t, pairs[0].User2.Valid).True()
	})
}

func TestValidatePairs_Invariant(t *testing.T) {
	input := "alice,bob\nbob,alice\nalice,alice\nx,y\nalice\n,\nbob, nobody"
	pairs := model.ValidatePairs(model.ParsePairLines(input), scenarioSnapshot())

	for _, p := range pairs {
		bothValid := p.User1.Valid && p.User2.Valid
		distinct := bothValid && p.User1.Resolved.ID != p.User2.Resolved.ID
		gt.Value(t, p.Valid).Equal(distinct)
		gt.Value(t, p.ErrorReason.IsValid()).Equal(!p.Valid)
	}

	valid := model.ValidPairs(pairs)
	gt.Array(t, valid).Length(2)
	gt.Value(t, valid[0].LineNumber).Equal(1)
	gt.Value(t, valid[1].LineNumber).Equal(2)
}

func TestValidatedPair_Label(t *testing.T) {
	pairs := model.ValidatePairs(model.ParsePairLines("alice, bob\nbroken line"), scenarioSnapshot())
	gt.Value(t, pairs[0].Label()).Equal("Alice & Bob")
	gt.Value(t, pairs[1].Label()).Equal("broken line")
}
