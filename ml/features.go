package ml

import (
	"github.com/randomwalk1225/sport-tennis/atp"
)

// Defaults used when a live profile is missing a stat. Predictions must
// always return a result, so missing stats are imputed, never rejected.
const (
	FallbackRank   = 999
	FallbackAge    = 25
	FallbackHeight = 185
)

// MatchContext is the non-player context of a matchup.
type MatchContext struct {
	Surface     atp.Surface
	IsGrandSlam bool
	IsMasters   bool
}

// MatchupFeatures is the fixed-width numeric summary of a (player 1,
// player 2, context) triple. Field order here defines the vector layout the
// model is trained against; changing it invalidates every saved artifact.
type MatchupFeatures struct {
	P1Rank      float64
	P2Rank      float64
	RankDiff    float64
	P1Age       float64
	P2Age       float64
	AgeDiff     float64
	P1Height    float64
	P2Height    float64
	HeightDiff  float64
	IsHard      float64
	IsClay      float64
	IsGrass     float64
	IsGrandSlam float64
	IsMasters   float64
}

// BuildFeatures derives the feature vector for player 1 versus player 2.
// Pure function: identical inputs always produce an identical result.
// Diffs are signed player 1 minus player 2.
func BuildFeatures(p1, p2 atp.PlayerProfile, ctx MatchContext) MatchupFeatures {
	p1Rank := imputeRank(p1.Rank)
	p2Rank := imputeRank(p2.Rank)
	p1Age := imputeAge(p1.Age)
	p2Age := imputeAge(p2.Age)
	p1Height := imputeHeight(p1.Height)
	p2Height := imputeHeight(p2.Height)

	features := MatchupFeatures{
		P1Rank:     p1Rank,
		P2Rank:     p2Rank,
		RankDiff:   p1Rank - p2Rank,
		P1Age:      p1Age,
		P2Age:      p2Age,
		AgeDiff:    p1Age - p2Age,
		P1Height:   p1Height,
		P2Height:   p2Height,
		HeightDiff: p1Height - p2Height,
	}

	switch ctx.Surface {
	case atp.SurfaceHard:
		features.IsHard = 1
	case atp.SurfaceClay:
		features.IsClay = 1
	case atp.SurfaceGrass:
		features.IsGrass = 1
	}
	if ctx.IsGrandSlam {
		features.IsGrandSlam = 1
	}
	if ctx.IsMasters {
		features.IsMasters = 1
	}
	return features
}

// Vector flattens the features in the canonical order.
func (f MatchupFeatures) Vector() []float64 {
	return []float64{
		f.P1Rank,
		f.P2Rank,
		f.RankDiff,
		f.P1Age,
		f.P2Age,
		f.AgeDiff,
		f.P1Height,
		f.P2Height,
		f.HeightDiff,
		f.IsHard,
		f.IsClay,
		f.IsGrass,
		f.IsGrandSlam,
		f.IsMasters,
	}
}

// FeatureNames returns the canonical feature ordering. Saved artifacts record
// this list and loading verifies it, so width mismatches surface at startup.
func FeatureNames() []string {
	return []string{
		"p1_rank",
		"p2_rank",
		"rank_diff",
		"p1_age",
		"p2_age",
		"age_diff",
		"p1_ht",
		"p2_ht",
		"height_diff",
		"is_hard",
		"is_clay",
		"is_grass",
		"is_grand_slam",
		"is_masters",
	}
}

// ContextFromMatch builds the feature context for a historical record.
func ContextFromMatch(m atp.MatchRecord) MatchContext {
	return MatchContext{
		Surface:     m.Surface,
		IsGrandSlam: m.Level == atp.LevelGrandSlam,
		IsMasters:   m.Level == atp.LevelMasters,
	}
}

func imputeRank(rank int) float64 {
	if rank <= 0 {
		return FallbackRank
	}
	return float64(rank)
}

func imputeAge(age float64) float64 {
	if age <= 0 {
		return FallbackAge
	}
	return age
}

func imputeHeight(height float64) float64 {
	if height <= 0 {
		return FallbackHeight
	}
	return height
}
