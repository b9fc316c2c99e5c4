package db

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/randomwalk1225/sport-tennis/atp"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "sqlite-test")
	if err != nil {
		panic(err)
	}
	if err := InitDB(filepath.Join(dir, "test.db")); err != nil {
		panic(err)
	}
	code := m.Run()
	Close()
	os.RemoveAll(dir)
	os.Exit(code)
}

var (
	djokovic = atp.PlayerProfile{ID: 1, Name: "Novak Djokovic", Rank: 1, Age: 36, Height: 188, Hand: "R"}
	alcaraz  = atp.PlayerProfile{ID: 2, Name: "Carlos Alcaraz", Rank: 2, Age: 20, Height: 183, Hand: "R"}
)

func storedMatch(day int, winner, loser atp.PlayerProfile, surface atp.Surface) atp.MatchRecord {
	return atp.MatchRecord{
		TourneyID:  "2023-001",
		Surface:    surface,
		Date:       time.Date(2023, 7, day, 0, 0, 0, 0, time.UTC),
		Round:      "F",
		WinnerID:   winner.ID,
		WinnerName: winner.Name,
		WinnerRank: winner.Rank,
		LoserID:    loser.ID,
		LoserName:  loser.Name,
		LoserRank:  loser.Rank,
	}
}

func TestSaveAndLoadPlayers(t *testing.T) {
	asOf := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	profiles := []atp.PlayerProfile{djokovic, alcaraz}
	for i := range profiles {
		profiles[i].AsOf = asOf
	}
	if err := SavePlayers(profiles); err != nil {
		t.Fatalf("SavePlayers failed: %v", err)
	}

	loaded, err := LoadPlayers()
	if err != nil {
		t.Fatalf("LoadPlayers failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("Expected 2 players, got %d", len(loaded))
	}

	// Re-saving the same IDs must not duplicate rows.
	if err := SavePlayers(profiles); err != nil {
		t.Fatalf("SavePlayers failed: %v", err)
	}
	loaded, err = LoadPlayers()
	if err != nil {
		t.Fatalf("LoadPlayers failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Errorf("Expected upsert semantics, got %d players", len(loaded))
	}
}

func TestHeadToHead(t *testing.T) {
	matches := []atp.MatchRecord{
		storedMatch(1, djokovic, alcaraz, atp.SurfaceHard),
		storedMatch(2, djokovic, alcaraz, atp.SurfaceClay),
		storedMatch(3, alcaraz, djokovic, atp.SurfaceGrass),
	}
	if err := SaveMatches(matches); err != nil {
		t.Fatalf("SaveMatches failed: %v", err)
	}

	record, err := QueryHeadToHead(djokovic, alcaraz)
	if err != nil {
		t.Fatalf("QueryHeadToHead failed: %v", err)
	}
	if record.Meetings != 3 {
		t.Errorf("Expected 3 meetings, got %d", record.Meetings)
	}
	if record.Player1Wins != 2 || record.Player2Wins != 1 {
		t.Errorf("Expected 2-1, got %d-%d", record.Player1Wins, record.Player2Wins)
	}
	if record.BySurface["Hard"] != 1 || record.BySurface["Clay"] != 1 {
		t.Errorf("Unexpected surface breakdown: %v", record.BySurface)
	}
	if record.LastMeeting.Day() != 3 {
		t.Errorf("Expected last meeting on day 3, got %v", record.LastMeeting)
	}
}

func TestPlayerForm(t *testing.T) {
	form, err := QueryPlayerForm(djokovic, 10)
	if err != nil {
		t.Fatalf("QueryPlayerForm failed: %v", err)
	}
	if form.Matches == 0 {
		t.Fatal("Expected matches from the head-to-head fixture")
	}
	if form.WinRate <= 0 || form.WinRate > 1 {
		t.Errorf("Win rate out of range: %f", form.WinRate)
	}
	if form.Wins+form.Losses != form.Matches {
		t.Errorf("Wins %d + losses %d != matches %d", form.Wins, form.Losses, form.Matches)
	}
}

func TestSavePrediction(t *testing.T) {
	if err := SavePrediction("pred-1", "Novak Djokovic", "Carlos Alcaraz", "Hard", 0.64); err != nil {
		t.Fatalf("SavePrediction failed: %v", err)
	}
	// Duplicate prediction IDs are rejected by the schema.
	if err := SavePrediction("pred-1", "Novak Djokovic", "Carlos Alcaraz", "Hard", 0.64); err == nil {
		t.Error("Expected unique constraint violation for a duplicate prediction ID")
	}
}

func TestTrainingRuns(t *testing.T) {
	run := TrainingRun{
		ModelPath:    "models/test.json",
		Estimators:   100,
		MaxDepth:     5,
		LearningRate: 0.1,
		Samples:      5000,
		CVAccuracy:   0.653,
		CVStdDev:     0.012,
		TestAccuracy: 0.647,
		TrainedAt:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := SaveTrainingRun(run); err != nil {
		t.Fatalf("SaveTrainingRun failed: %v", err)
	}

	runs, err := LoadTrainingRuns()
	if err != nil {
		t.Fatalf("LoadTrainingRuns failed: %v", err)
	}
	if len(runs) == 0 {
		t.Fatal("Expected at least one run")
	}
	got := runs[0]
	if got.CVAccuracy != run.CVAccuracy || got.Samples != run.Samples {
		t.Errorf("Round trip mismatch: %+v", got)
	}
}
