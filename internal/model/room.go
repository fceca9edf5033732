package model

import "strings"

type RoomCode string

const EmptyRoomCode RoomCode = ""

// Codes are case-insensitive on input; stored form is upper case.
func NormalizeRoomCode(raw string) RoomCode {
	return RoomCode(strings.ToUpper(strings.TrimSpace(raw)))
}

type PlayerID string

const EmptyPlayerID PlayerID = ""

type Status string

const (
	StatusSubmitting Status = "submitting"
	StatusVoting     Status = "voting"
	StatusFinished   Status = "finished"
)

type Player struct {
	Nickname     string `json:"nickname"`
	Score        int    `json:"score"`
	HasSubmitted bool   `json:"hasSubmitted"`
	HasVoted     bool   `json:"hasVoted"`

	// Join sequence within the room. Leaderboard ties resolve by it;
	// Go maps do not keep insertion order.
	Order int `json:"order"`
}

// Room is the shared document every player session reads and patches.
// Submissions and votes are keyed by round first, then by player.
type Room struct {
	Code         RoomCode                    `json:"code"`
	CurrentRound int                         `json:"currentRound"`
	Status       Status                      `json:"status"`
	Players      map[PlayerID]Player         `json:"players"`
	Submissions  map[int]map[PlayerID]string `json:"submissions"`
	Votes        map[int]map[PlayerID]PlayerID `json:"votes"`
}

func (r Room) SubmissionsFor(round int) map[PlayerID]string {
	return r.Submissions[round]
}

func (r Room) VotesFor(round int) map[PlayerID]PlayerID {
	return r.Votes[round]
}

func (r Room) Clone() Room {
	out := r

	out.Players = make(map[PlayerID]Player, len(r.Players))
	for id, p := range r.Players {
		out.Players[id] = p
	}

	out.Submissions = make(map[int]map[PlayerID]string, len(r.Submissions))
	for round, byPlayer := range r.Submissions {
		m := make(map[PlayerID]string, len(byPlayer))
		for id, title := range byPlayer {
			m[id] = title
		}
		out.Submissions[round] = m
	}

	out.Votes = make(map[int]map[PlayerID]PlayerID, len(r.Votes))
	for round, byVoter := range r.Votes {
		m := make(map[PlayerID]PlayerID, len(byVoter))
		for voter, target := range byVoter {
			m[voter] = target
		}
		out.Votes[round] = m
	}

	return out
}
