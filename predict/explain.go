package predict

import (
	"fmt"
	"math"

	"github.com/randomwalk1225/sport-tennis/atp"
	"github.com/randomwalk1225/sport-tennis/ml"
)

// explain turns a prediction into the plain-language analysis lines shown in
// the UI. Ranking dominates the model's feature importance, so it leads.
func explain(p1, p2 atp.PlayerProfile, ctx ml.MatchContext, p1WinProb float64) []string {
	var lines []string

	rank1 := orFallback(float64(p1.Rank), ml.FallbackRank)
	rank2 := orFallback(float64(p2.Rank), ml.FallbackRank)
	rankDiff := rank1 - rank2
	switch {
	case rankDiff < -10:
		lines = append(lines, fmt.Sprintf(
			"Ranking advantage: %s is ranked %d places above %s (#%.0f vs #%.0f); ranking is the strongest predictor.",
			p1.Name, int(math.Abs(rankDiff)), p2.Name, rank1, rank2))
	case rankDiff > 10:
		lines = append(lines, fmt.Sprintf(
			"Ranking advantage: %s is ranked %d places above %s (#%.0f vs #%.0f); ranking is the strongest predictor.",
			p2.Name, int(math.Abs(rankDiff)), p1.Name, rank2, rank1))
	default:
		lines = append(lines, fmt.Sprintf(
			"Similar ranking: the gap is small (#%.0f vs #%.0f), a close match is expected.", rank1, rank2))
	}

	age1 := orFallback(p1.Age, ml.FallbackAge)
	age2 := orFallback(p2.Age, ml.FallbackAge)
	if ageDiff := age1 - age2; math.Abs(ageDiff) > 5 {
		older := p1.Name
		if ageDiff < 0 {
			older = p2.Name
		}
		lines = append(lines, fmt.Sprintf(
			"Age gap: %s is %.1f years older (%.1f vs %.1f); the younger player may have the edge.",
			older, math.Abs(ageDiff), age1, age2))
	}

	height1 := orFallback(p1.Height, ml.FallbackHeight)
	height2 := orFallback(p2.Height, ml.FallbackHeight)
	if heightDiff := height1 - height2; math.Abs(heightDiff) > 5 {
		taller := p1.Name
		if heightDiff < 0 {
			taller = p2.Name
		}
		lines = append(lines, fmt.Sprintf(
			"Height gap: %s is %.0f cm taller (%.0f cm vs %.0f cm), an advantage on serve.",
			taller, math.Abs(heightDiff), height1, height2))
	}

	lines = append(lines, fmt.Sprintf("Surface: %s court (surface has a small effect).", ctx.Surface))

	p1Pct := p1WinProb * 100
	switch {
	case math.Abs(p1Pct-50) < 5:
		lines = append(lines, "Conclusion: effectively a coin flip; either player can win this.")
	case p1Pct > 70:
		lines = append(lines, fmt.Sprintf("Conclusion: %s is a heavy favorite.", p1.Name))
	case p1Pct < 30:
		lines = append(lines, fmt.Sprintf("Conclusion: %s is a heavy favorite.", p2.Name))
	default:
		favorite := p1.Name
		if p1Pct < 50 {
			favorite = p2.Name
		}
		lines = append(lines, fmt.Sprintf(
			"Conclusion: %s is favored, but the opponent has a real chance.", favorite))
	}
	return lines
}

func orFallback(value, fallback float64) float64 {
	if value <= 0 {
		return fallback
	}
	return value
}
