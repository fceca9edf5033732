package usecase_game

import (
	"errors"
	"math/rand"
	"strings"

	"github.com/google/uuid"
	"github.com/humanbelnik/movieleague/internal/model"
	storage_room "github.com/humanbelnik/movieleague/internal/storage/room"
)

var (
	ErrEmptyNickname    = errors.New("nickname is empty")
	ErrEmptyTitle       = errors.New("movie title is empty")
	ErrRoomFull         = errors.New("room is full")
	ErrWrongPhase       = errors.New("action is not allowed in current phase")
	ErrUnknownPlayer    = errors.New("no such player in room")
	ErrAlreadySubmitted = errors.New("already submitted this round")
	ErrAlreadyVoted     = errors.New("already voted this round")
	ErrSelfVote         = errors.New("cannot vote for own submission")
	ErrNoSubmission     = errors.New("vote target has no submission this round")
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type Rules struct {
	Capacity    int
	TotalRounds int
	CodeLength  int
}

func DefaultRules() Rules {
	return Rules{
		Capacity:    6,
		TotalRounds: 6,
		CodeLength:  6,
	}
}

// Machine holds every room transition: pure snapshot-in, snapshot-out,
// no I/O. Each transition also returns the minimal field patch for the
// store, so sessions persist only what they changed.
type Machine struct {
	rules Rules
}

func New(rules Rules) *Machine {
	if rules.Capacity <= 0 {
		rules.Capacity = DefaultRules().Capacity
	}
	if rules.TotalRounds <= 0 {
		rules.TotalRounds = DefaultRules().TotalRounds
	}
	if rules.CodeLength <= 0 {
		rules.CodeLength = DefaultRules().CodeLength
	}
	return &Machine{rules: rules}
}

func (m *Machine) Rules() Rules {
	return m.rules
}

func (m *Machine) NewRoom(code model.RoomCode) model.Room {
	return model.Room{
		Code:         code,
		CurrentRound: 1,
		Status:       model.StatusSubmitting,
		Players:      make(map[model.PlayerID]model.Player),
		Submissions:  make(map[int]map[model.PlayerID]string),
		Votes:        make(map[int]map[model.PlayerID]model.PlayerID),
	}
}

func (m *Machine) Join(room model.Room, nickname string) (model.Room, storage_room.Patch, model.PlayerID, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return model.Room{}, nil, model.EmptyPlayerID, ErrEmptyNickname
	}
	if len(room.Players) >= m.rules.Capacity {
		return model.Room{}, nil, model.EmptyPlayerID, ErrRoomFull
	}

	id := m.BuildPlayerID()
	for room.Players[id].Nickname != "" {
		id = m.BuildPlayerID()
	}

	player := model.Player{
		Nickname: nickname,
		Order:    len(room.Players),
	}

	patch := storage_room.Patch{storage_room.PlayerField(id, player)}
	next, err := storage_room.Apply(room, patch)
	if err != nil {
		return model.Room{}, nil, model.EmptyPlayerID, err
	}
	return next, patch, id, nil
}

func (m *Machine) Submit(room model.Room, id model.PlayerID, title string) (model.Room, storage_room.Patch, error) {
	if room.Status != model.StatusSubmitting {
		return model.Room{}, nil, ErrWrongPhase
	}
	if _, ok := room.Players[id]; !ok {
		return model.Room{}, nil, ErrUnknownPlayer
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Room{}, nil, ErrEmptyTitle
	}

	if existing, ok := room.SubmissionsFor(room.CurrentRound)[id]; ok {
		// Entries are write-once; repeating the same title is harmless.
		if existing == title {
			return room, nil, nil
		}
		return model.Room{}, nil, ErrAlreadySubmitted
	}

	patch := storage_room.Patch{
		storage_room.SubmissionField(room.CurrentRound, id, title),
		storage_room.PlayerHasSubmittedField(id, true),
	}
	next, err := storage_room.Apply(room, patch)
	if err != nil {
		return model.Room{}, nil, err
	}
	return next, patch, nil
}

func (m *Machine) Vote(room model.Room, voter, target model.PlayerID) (model.Room, storage_room.Patch, error) {
	if room.Status != model.StatusVoting {
		return model.Room{}, nil, ErrWrongPhase
	}
	if _, ok := room.Players[voter]; !ok {
		return model.Room{}, nil, ErrUnknownPlayer
	}
	if voter == target {
		return model.Room{}, nil, ErrSelfVote
	}
	if _, ok := room.SubmissionsFor(room.CurrentRound)[target]; !ok {
		return model.Room{}, nil, ErrNoSubmission
	}
	if _, ok := room.VotesFor(room.CurrentRound)[voter]; ok {
		return model.Room{}, nil, ErrAlreadyVoted
	}

	patch := storage_room.Patch{
		storage_room.VoteField(room.CurrentRound, voter, target),
		storage_room.PlayerHasVotedField(voter, true),
	}
	next, err := storage_room.Apply(room, patch)
	if err != nil {
		return model.Room{}, nil, err
	}
	return next, patch, nil
}

// TryAdvance re-evaluates phase completion against a snapshot. Every
// session runs it on every change; the result is idempotent and the
// returned Cond rejects it when the snapshot already went stale.
func (m *Machine) TryAdvance(room model.Room) (model.Room, storage_room.Patch, storage_room.Cond, bool) {
	cond := storage_room.Cond{Status: room.Status, CurrentRound: room.CurrentRound}

	switch room.Status {
	case model.StatusSubmitting:
		if !everyone(room, func(p model.Player) bool { return p.HasSubmitted }) {
			return room, nil, cond, false
		}
		patch := storage_room.Patch{storage_room.StatusField(model.StatusVoting)}
		next, _ := storage_room.Apply(room, patch)
		return next, patch, cond, true

	case model.StatusVoting:
		if !everyone(room, func(p model.Player) bool { return p.HasVoted }) {
			return room, nil, cond, false
		}
		return m.closeRound(room, cond)
	}

	return room, nil, cond, false
}

// closeRound tallies the round's votes, resets per-round flags and either
// opens the next round or finishes the game.
func (m *Machine) closeRound(room model.Room, cond storage_room.Cond) (model.Room, storage_room.Patch, storage_room.Cond, bool) {
	scored := make(map[model.PlayerID]model.Player, len(room.Players))
	for id, p := range room.Players {
		scored[id] = p
	}
	for _, target := range room.VotesFor(room.CurrentRound) {
		p, ok := scored[target]
		if !ok {
			continue
		}
		p.Score++
		scored[target] = p
	}

	patch := make(storage_room.Patch, 0, len(scored)+2)
	for id, p := range scored {
		p.HasSubmitted = false
		p.HasVoted = false
		patch = append(patch, storage_room.PlayerField(id, p))
	}

	if room.CurrentRound >= m.rules.TotalRounds {
		patch = append(patch, storage_room.StatusField(model.StatusFinished))
	} else {
		patch = append(patch,
			storage_room.StatusField(model.StatusSubmitting),
			storage_room.CurrentRoundField(room.CurrentRound+1),
		)
	}

	next, _ := storage_room.Apply(room, patch)
	return next, patch, cond, true
}

func everyone(room model.Room, done func(model.Player) bool) bool {
	if len(room.Players) == 0 {
		return false
	}
	for _, p := range room.Players {
		if !done(p) {
			return false
		}
	}
	return true
}

func (m *Machine) BuildRoomCode() model.RoomCode {
	var builder strings.Builder
	builder.Grow(m.rules.CodeLength)

	for i := 0; i < m.rules.CodeLength; i++ {
		builder.WriteByte(codeAlphabet[rand.Intn(len(codeAlphabet))])
	}

	return model.RoomCode(builder.String())
}

func (m *Machine) BuildPlayerID() model.PlayerID {
	return model.PlayerID(uuid.New().String())
}
