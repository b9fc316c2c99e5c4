// Package atp loads historical ATP match data and current player profiles.
package atp

import (
	"strings"
	"time"
)

// Surface identifies the court surface of a match.
type Surface string

const (
	SurfaceHard    Surface = "Hard"
	SurfaceClay    Surface = "Clay"
	SurfaceGrass   Surface = "Grass"
	SurfaceCarpet  Surface = "Carpet"
	SurfaceUnknown Surface = "Unknown"
)

// ParseSurface normalizes free-form surface strings from the dataset.
func ParseSurface(s string) Surface {
	switch {
	case strings.EqualFold(s, "hard"):
		return SurfaceHard
	case strings.EqualFold(s, "clay"):
		return SurfaceClay
	case strings.EqualFold(s, "grass"):
		return SurfaceGrass
	case strings.EqualFold(s, "carpet"):
		return SurfaceCarpet
	default:
		return SurfaceUnknown
	}
}

// Tournament level codes used by the upstream dataset.
const (
	LevelGrandSlam = "G"
	LevelMasters   = "M"
)

// MatchRecord is one historical match as loaded from a dataset snapshot.
// Rank, age and height fields are zero when the snapshot omits them.
type MatchRecord struct {
	TourneyID   string
	TourneyName string
	Surface     Surface
	Level       string
	Date        time.Time
	Round       string

	WinnerID     int
	WinnerName   string
	WinnerHand   string
	WinnerRank   int
	WinnerAge    float64
	WinnerHeight float64

	LoserID     int
	LoserName   string
	LoserHand   string
	LoserRank   int
	LoserAge    float64
	LoserHeight float64
}

// PlayerProfile is the current snapshot of a player, taken from the most
// recent match the player appears in.
type PlayerProfile struct {
	ID       int       `json:"id"`
	Name     string    `json:"name"`
	Rank     int       `json:"rank"`
	Age      float64   `json:"age"`
	Height   float64   `json:"height"`
	Hand     string    `json:"hand"`
	AsOf     time.Time `json:"as_of"`
}
