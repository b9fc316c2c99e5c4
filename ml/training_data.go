package ml

import (
	"errors"

	"github.com/randomwalk1225/sport-tennis/atp"
)

// TrainingSet is a balanced labeled dataset ready for the booster.
type TrainingSet struct {
	Features [][]float64
	Labels   []int
}

// BuildTrainingSet expands N matches into exactly 2N samples: one with the
// winner listed first (label 1) and one with the roles swapped (label 0).
// Swapping the roles flips every signed diff, so the model cannot learn a
// first-listed-player bias; the labels are exactly balanced by construction.
func BuildTrainingSet(matches []atp.MatchRecord) (*TrainingSet, error) {
	if len(matches) == 0 {
		return nil, errors.New("no matches to build training set from")
	}

	set := &TrainingSet{
		Features: make([][]float64, 0, 2*len(matches)),
		Labels:   make([]int, 0, 2*len(matches)),
	}
	for _, m := range matches {
		winner := profileFromMatch(m, true)
		loser := profileFromMatch(m, false)
		ctx := ContextFromMatch(m)

		set.Features = append(set.Features, BuildFeatures(winner, loser, ctx).Vector())
		set.Labels = append(set.Labels, 1)
		set.Features = append(set.Features, BuildFeatures(loser, winner, ctx).Vector())
		set.Labels = append(set.Labels, 0)
	}
	return set, nil
}

// Len reports the number of samples.
func (s *TrainingSet) Len() int { return len(s.Labels) }

func profileFromMatch(m atp.MatchRecord, winner bool) atp.PlayerProfile {
	if winner {
		return atp.PlayerProfile{
			ID: m.WinnerID, Name: m.WinnerName, Rank: m.WinnerRank,
			Age: m.WinnerAge, Height: m.WinnerHeight, Hand: m.WinnerHand, AsOf: m.Date,
		}
	}
	return atp.PlayerProfile{
		ID: m.LoserID, Name: m.LoserName, Rank: m.LoserRank,
		Age: m.LoserAge, Height: m.LoserHeight, Hand: m.LoserHand, AsOf: m.Date,
	}
}
