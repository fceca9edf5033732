package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRoomCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, RoomCode("ABC123"), NormalizeRoomCode(" abc123 "))
	assert.Equal(t, EmptyRoomCode, NormalizeRoomCode("   "))
}

func TestRanked(t *testing.T) {
	t.Parallel()

	room := Room{
		Players: map[PlayerID]Player{
			"a": {Nickname: "alice", Score: 2, Order: 0},
			"b": {Nickname: "bob", Score: 5, Order: 1},
			"c": {Nickname: "carol", Score: 2, Order: 2},
		},
	}

	ranked := Ranked(room)

	require.Len(t, ranked, 3)
	assert.Equal(t, PlayerID("b"), ranked[0].PlayerID)
	// Equal scores keep join order.
	assert.Equal(t, PlayerID("a"), ranked[1].PlayerID)
	assert.Equal(t, PlayerID("c"), ranked[2].PlayerID)
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	room := Room{
		Code:         "ABC123",
		CurrentRound: 1,
		Status:       StatusSubmitting,
		Players:      map[PlayerID]Player{"a": {Nickname: "alice"}},
		Submissions:  map[int]map[PlayerID]string{1: {"a": "Dune"}},
		Votes:        map[int]map[PlayerID]PlayerID{1: {"a": "b"}},
	}

	clone := room.Clone()
	clone.Players["b"] = Player{Nickname: "bob"}
	clone.Submissions[1]["b"] = "Up"
	clone.Votes[1]["b"] = "a"

	assert.Len(t, room.Players, 1)
	assert.Len(t, room.Submissions[1], 1)
	assert.Len(t, room.Votes[1], 1)
}

// Round-keyed maps must survive the JSON trip the redis and postgres
// backends put documents through.
func TestRoomJSONRoundTrip(t *testing.T) {
	t.Parallel()

	room := Room{
		Code:         "ABC123",
		CurrentRound: 3,
		Status:       StatusVoting,
		Players:      map[PlayerID]Player{"a": {Nickname: "alice", Score: 2, Order: 0}},
		Submissions:  map[int]map[PlayerID]string{3: {"a": "Dune"}},
		Votes:        map[int]map[PlayerID]PlayerID{2: {"a": "b"}},
	}

	data, err := json.Marshal(room)
	require.NoError(t, err)

	var decoded Room
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, room, decoded)
}
