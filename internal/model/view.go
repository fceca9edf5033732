package model

import "sort"

type ViewKind string

const (
	ViewJoining               ViewKind = "joining"
	ViewLobby                 ViewKind = "lobby"
	ViewSubmitForm            ViewKind = "submit_form"
	ViewWaitingForSubmissions ViewKind = "waiting_for_submissions"
	ViewVoteForm              ViewKind = "vote_form"
	ViewWaitingForVotes       ViewKind = "waiting_for_votes"
	ViewLeaderboard           ViewKind = "leaderboard"
)

type VoteOption struct {
	PlayerID PlayerID `json:"player_id"`
	Title    string   `json:"title"`
}

type RankedPlayer struct {
	PlayerID PlayerID `json:"player_id"`
	Nickname string   `json:"nickname"`
	Score    int      `json:"score"`
}

// View is the only data the presentation layer consumes.
type View struct {
	Kind      ViewKind       `json:"kind"`
	RoomCode  RoomCode       `json:"room_code,omitempty"`
	Round     int            `json:"round,omitempty"`
	Players   []string       `json:"players,omitempty"`
	Options   []VoteOption   `json:"options,omitempty"`
	Standings []RankedPlayer `json:"standings,omitempty"`
}

// Ranked sorts players score-descending; ties keep join order.
func Ranked(r Room) []RankedPlayer {
	ids := make([]PlayerID, 0, len(r.Players))
	for id := range r.Players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := r.Players[ids[i]], r.Players[ids[j]]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return ids[i] < ids[j]
	})

	ranked := make([]RankedPlayer, 0, len(ids))
	for _, id := range ids {
		ranked = append(ranked, RankedPlayer{
			PlayerID: id,
			Nickname: r.Players[id].Nickname,
			Score:    r.Players[id].Score,
		})
	}
	return ranked
}
