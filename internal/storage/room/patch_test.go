package storage_room

import (
	"testing"

	"github.com/humanbelnik/movieleague/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roomFixture() model.Room {
	return model.Room{
		Code:         "ABC123",
		CurrentRound: 1,
		Status:       model.StatusSubmitting,
		Players: map[model.PlayerID]model.Player{
			"p1": {Nickname: "alice", Order: 0},
		},
		Submissions: map[int]map[model.PlayerID]string{},
		Votes:       map[int]map[model.PlayerID]model.PlayerID{},
	}
}

func TestApply(t *testing.T) {
	t.Parallel()

	room := roomFixture()

	next, err := Apply(room, Patch{
		PlayerField("p2", model.Player{Nickname: "bob", Order: 1}),
		SubmissionField(1, "p1", "Dune"),
		PlayerHasSubmittedField("p1", true),
		VoteField(1, "p1", "p2"),
		PlayerHasVotedField("p1", true),
		StatusField(model.StatusVoting),
		CurrentRoundField(2),
	})
	require.NoError(t, err)

	assert.Equal(t, "bob", next.Players["p2"].Nickname)
	assert.Equal(t, "Dune", next.SubmissionsFor(1)["p1"])
	assert.True(t, next.Players["p1"].HasSubmitted)
	assert.Equal(t, model.PlayerID("p2"), next.VotesFor(1)["p1"])
	assert.True(t, next.Players["p1"].HasVoted)
	assert.Equal(t, model.StatusVoting, next.Status)
	assert.Equal(t, 2, next.CurrentRound)
}

// Apply must not touch the input snapshot; sessions hold on to it.
func TestApplyLeavesInputAlone(t *testing.T) {
	t.Parallel()

	room := roomFixture()

	_, err := Apply(room, Patch{
		SubmissionField(1, "p1", "Dune"),
		PlayerHasSubmittedField("p1", true),
	})
	require.NoError(t, err)

	assert.Empty(t, room.SubmissionsFor(1))
	assert.False(t, room.Players["p1"].HasSubmitted)
}

func TestApplyRejectsBadPaths(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		field Field
	}{
		{"unknown root", Field{Path: "bogus", Value: 1}},
		{"wrong status type", Field{Path: "status", Value: "voting"}},
		{"wrong round type", Field{Path: "currentRound", Value: "2"}},
		{"unknown player flag", Field{Path: "players.p1.score", Value: 3}},
		{"flag on absent player", Field{Path: "players.ghost.hasVoted", Value: true}},
		{"submission without round", Field{Path: "submissions.p1", Value: "Dune"}},
		{"vote with bad round", Field{Path: "votes.zero.p1", Value: model.PlayerID("p2")}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Apply(roomFixture(), Patch{tc.field})
			assert.ErrorIs(t, err, ErrBadPatchPath)
		})
	}
}

func TestCondHolds(t *testing.T) {
	t.Parallel()

	room := roomFixture()

	assert.True(t, Cond{Status: model.StatusSubmitting, CurrentRound: 1}.Holds(room))
	assert.False(t, Cond{Status: model.StatusVoting, CurrentRound: 1}.Holds(room))
	assert.False(t, Cond{Status: model.StatusSubmitting, CurrentRound: 2}.Holds(room))
}
