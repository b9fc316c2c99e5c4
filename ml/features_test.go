package ml

import (
	"testing"

	"github.com/randomwalk1225/sport-tennis/atp"
)

func TestBuildFeatures(t *testing.T) {
	p1 := atp.PlayerProfile{Name: "Top Seed", Rank: 1, Age: 25, Height: 188}
	p2 := atp.PlayerProfile{Name: "Challenger", Rank: 50, Age: 30, Height: 180}
	ctx := MatchContext{Surface: atp.SurfaceHard}

	f := BuildFeatures(p1, p2, ctx)

	if f.RankDiff != -49 {
		t.Errorf("Expected rank_diff -49, got %f", f.RankDiff)
	}
	if f.AgeDiff != -5 {
		t.Errorf("Expected age_diff -5, got %f", f.AgeDiff)
	}
	if f.HeightDiff != 8 {
		t.Errorf("Expected height_diff 8, got %f", f.HeightDiff)
	}
	if f.IsHard != 1 || f.IsClay != 0 || f.IsGrass != 0 {
		t.Errorf("Expected hard-court one-hot, got hard=%f clay=%f grass=%f", f.IsHard, f.IsClay, f.IsGrass)
	}
	if f.IsGrandSlam != 0 || f.IsMasters != 0 {
		t.Errorf("Expected regular tournament flags, got gs=%f masters=%f", f.IsGrandSlam, f.IsMasters)
	}
}

func TestBuildFeaturesImputesMissingStats(t *testing.T) {
	p1 := atp.PlayerProfile{Name: "Unranked"}
	p2 := atp.PlayerProfile{Name: "Known", Rank: 10, Age: 28, Height: 190}

	f := BuildFeatures(p1, p2, MatchContext{Surface: atp.SurfaceClay})

	if f.P1Rank != FallbackRank {
		t.Errorf("Expected fallback rank %d, got %f", FallbackRank, f.P1Rank)
	}
	if f.P1Age != FallbackAge {
		t.Errorf("Expected fallback age %d, got %f", FallbackAge, f.P1Age)
	}
	if f.P1Height != FallbackHeight {
		t.Errorf("Expected fallback height %d, got %f", FallbackHeight, f.P1Height)
	}
}

func TestBuildFeaturesIsDeterministic(t *testing.T) {
	p1 := atp.PlayerProfile{Name: "A", Rank: 3, Age: 24.5, Height: 185}
	p2 := atp.PlayerProfile{Name: "B", Rank: 7, Age: 29.1, Height: 193}
	ctx := MatchContext{Surface: atp.SurfaceGrass, IsGrandSlam: true}

	first := BuildFeatures(p1, p2, ctx).Vector()
	second := BuildFeatures(p1, p2, ctx).Vector()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Feature %d differs between identical calls: %f vs %f", i, first[i], second[i])
		}
	}
}

func TestVectorMatchesFeatureNames(t *testing.T) {
	vector := BuildFeatures(atp.PlayerProfile{Rank: 1}, atp.PlayerProfile{Rank: 2}, MatchContext{}).Vector()
	names := FeatureNames()
	if len(vector) != len(names) {
		t.Fatalf("Vector width %d does not match %d feature names", len(vector), len(names))
	}
}

func TestContextFromMatch(t *testing.T) {
	m := atp.MatchRecord{Surface: atp.SurfaceGrass, Level: atp.LevelGrandSlam}
	ctx := ContextFromMatch(m)
	if ctx.Surface != atp.SurfaceGrass || !ctx.IsGrandSlam || ctx.IsMasters {
		t.Errorf("Unexpected context %+v", ctx)
	}
}
