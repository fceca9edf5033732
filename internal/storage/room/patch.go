package storage_room

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/humanbelnik/movieleague/internal/model"
)

var ErrBadPatchPath = errors.New("bad patch path")

// Field addresses one document entry the way the transitions write them:
// whole player records, per-player flags, per-round submission and vote
// entries, status and round counter. Paths on distinct entries commute,
// which is what lets concurrent sessions merge without a transaction.
type Field struct {
	Path  string
	Value any
}

type Patch []Field

func StatusField(s model.Status) Field {
	return Field{Path: "status", Value: s}
}

func CurrentRoundField(round int) Field {
	return Field{Path: "currentRound", Value: round}
}

func PlayerField(id model.PlayerID, p model.Player) Field {
	return Field{Path: "players." + string(id), Value: p}
}

func PlayerHasSubmittedField(id model.PlayerID, v bool) Field {
	return Field{Path: "players." + string(id) + ".hasSubmitted", Value: v}
}

func PlayerHasVotedField(id model.PlayerID, v bool) Field {
	return Field{Path: "players." + string(id) + ".hasVoted", Value: v}
}

func SubmissionField(round int, id model.PlayerID, title string) Field {
	return Field{Path: fmt.Sprintf("submissions.%d.%s", round, id), Value: title}
}

func VoteField(round int, voter, target model.PlayerID) Field {
	return Field{Path: fmt.Sprintf("votes.%d.%s", round, voter), Value: target}
}

// Cond guards phase-advance writes. Two sessions that observe the same
// snapshot produce the same advance; a session acting on a stale one is
// rejected instead of rolling the room forward twice.
type Cond struct {
	Status       model.Status
	CurrentRound int
}

func (c Cond) Holds(r model.Room) bool {
	return r.Status == c.Status && r.CurrentRound == c.CurrentRound
}

// Apply interprets a patch over a deep copy of the document. Every store
// backend funnels writes through here so the path grammar has exactly one
// meaning.
func Apply(room model.Room, patch Patch) (model.Room, error) {
	out := room.Clone()
	for _, f := range patch {
		if err := applyField(&out, f); err != nil {
			return model.Room{}, err
		}
	}
	return out, nil
}

func applyField(room *model.Room, f Field) error {
	parts := strings.Split(f.Path, ".")

	switch parts[0] {
	case "status":
		v, ok := f.Value.(model.Status)
		if !ok || len(parts) != 1 {
			return badPath(f)
		}
		room.Status = v
		return nil

	case "currentRound":
		v, ok := f.Value.(int)
		if !ok || len(parts) != 1 {
			return badPath(f)
		}
		room.CurrentRound = v
		return nil

	case "players":
		return applyPlayerField(room, f, parts)

	case "submissions":
		round, id, err := roundAndPlayer(f, parts)
		if err != nil {
			return err
		}
		title, ok := f.Value.(string)
		if !ok {
			return badPath(f)
		}
		if room.Submissions == nil {
			room.Submissions = make(map[int]map[model.PlayerID]string)
		}
		if room.Submissions[round] == nil {
			room.Submissions[round] = make(map[model.PlayerID]string)
		}
		room.Submissions[round][id] = title
		return nil

	case "votes":
		round, voter, err := roundAndPlayer(f, parts)
		if err != nil {
			return err
		}
		target, ok := f.Value.(model.PlayerID)
		if !ok {
			return badPath(f)
		}
		if room.Votes == nil {
			room.Votes = make(map[int]map[model.PlayerID]model.PlayerID)
		}
		if room.Votes[round] == nil {
			room.Votes[round] = make(map[model.PlayerID]model.PlayerID)
		}
		room.Votes[round][voter] = target
		return nil
	}

	return badPath(f)
}

func applyPlayerField(room *model.Room, f Field, parts []string) error {
	if len(parts) < 2 {
		return badPath(f)
	}
	id := model.PlayerID(parts[1])

	if len(parts) == 2 {
		p, ok := f.Value.(model.Player)
		if !ok {
			return badPath(f)
		}
		if room.Players == nil {
			room.Players = make(map[model.PlayerID]model.Player)
		}
		room.Players[id] = p
		return nil
	}

	p, ok := room.Players[id]
	if !ok {
		return fmt.Errorf("%w: %s addresses unknown player", ErrBadPatchPath, f.Path)
	}
	v, isBool := f.Value.(bool)

	switch {
	case len(parts) == 3 && parts[2] == "hasSubmitted" && isBool:
		p.HasSubmitted = v
	case len(parts) == 3 && parts[2] == "hasVoted" && isBool:
		p.HasVoted = v
	default:
		return badPath(f)
	}
	room.Players[id] = p
	return nil
}

func roundAndPlayer(f Field, parts []string) (int, model.PlayerID, error) {
	if len(parts) != 3 {
		return 0, model.EmptyPlayerID, badPath(f)
	}
	round, err := strconv.Atoi(parts[1])
	if err != nil || round < 1 {
		return 0, model.EmptyPlayerID, badPath(f)
	}
	return round, model.PlayerID(parts[2]), nil
}

func badPath(f Field) error {
	return fmt.Errorf("%w: %s (%T)", ErrBadPatchPath, f.Path, f.Value)
}
