package atp

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const matchHeader = "tourney_id,tourney_name,surface,tourney_level,tourney_date,round," +
	"winner_id,winner_name,winner_hand,winner_rank,winner_age,winner_ht," +
	"loser_id,loser_name,loser_hand,loser_rank,loser_age,loser_ht\n"

func writeMatchFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMatchFile(t *testing.T) {
	body := matchHeader +
		"2023-580,Australian Open,Hard,G,20230116,F," +
		"104925,Novak Djokovic,R,1,35.6,188," +
		"106401,Stefanos Tsitsipas,R,4,24.4,193\n" +
		"2023-580,Australian Open,Hard,G,20230114,SF," +
		"104925,Novak Djokovic,R,1,35.6,188," +
		"105777,Tommy Paul,R,35,,\n"
	path := writeMatchFile(t, t.TempDir(), "atp_matches_2023.csv", body)

	records, err := LoadMatchFile(path)
	if err != nil {
		t.Fatalf("LoadMatchFile failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	final := records[0]
	if final.Surface != SurfaceHard {
		t.Errorf("Expected Hard surface, got %s", final.Surface)
	}
	if final.Level != LevelGrandSlam {
		t.Errorf("Expected Grand Slam level, got %q", final.Level)
	}
	if final.Date.Year() != 2023 || final.Date.Month() != 1 || final.Date.Day() != 16 {
		t.Errorf("Unexpected date %v", final.Date)
	}
	if final.WinnerRank != 1 || final.LoserRank != 4 {
		t.Errorf("Unexpected ranks %d, %d", final.WinnerRank, final.LoserRank)
	}

	// Blank optional stats stay zero.
	semi := records[1]
	if semi.LoserAge != 0 || semi.LoserHeight != 0 {
		t.Errorf("Expected blank stats to stay zero, got age=%f ht=%f", semi.LoserAge, semi.LoserHeight)
	}
}

func TestLoadMatchFileFloatRanks(t *testing.T) {
	body := matchHeader +
		"1991-301,Adelaide,Hard,A,19910101,R32," +
		"101736,Player One,R,14.0,22.1,185," +
		"101885,Player Two,L,88.0,27.9,180\n"
	path := writeMatchFile(t, t.TempDir(), "atp_matches_1991.csv", body)

	records, err := LoadMatchFile(path)
	if err != nil {
		t.Fatalf("LoadMatchFile failed: %v", err)
	}
	if records[0].WinnerRank != 14 || records[0].LoserRank != 88 {
		t.Errorf("Expected float ranks truncated to ints, got %d, %d", records[0].WinnerRank, records[0].LoserRank)
	}
}

func TestLoadMatchFileLatin1(t *testing.T) {
	// "Viñolas" with the ñ encoded as Latin-1 0xF1.
	body := matchHeader +
		"2016-7290,Barcelona,Clay,A,20160418,R16," +
		"105526,Albert Ramos-Vi\xf1olas,L,48,28.2,188," +
		"104745,Rafael Nadal,L,5,29.8,185\n"
	path := writeMatchFile(t, t.TempDir(), "atp_matches_2016.csv", body)

	records, err := LoadMatchFile(path)
	if err != nil {
		t.Fatalf("LoadMatchFile failed: %v", err)
	}
	if !strings.Contains(records[0].WinnerName, "Viñolas") {
		t.Errorf("Expected Latin-1 name decoded, got %q", records[0].WinnerName)
	}
}

func TestLoadMatchFileBadDate(t *testing.T) {
	body := matchHeader +
		"2023-1,Test,Hard,A,notadate,F,1,A,R,1,25,185,2,B,R,2,26,180\n"
	path := writeMatchFile(t, t.TempDir(), "atp_matches_2023.csv", body)

	_, err := LoadMatchFile(path)
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("Expected LoadError, got %v", err)
	}
	if loadErr.Line != 2 {
		t.Errorf("Expected failure on line 2, got %d", loadErr.Line)
	}
}

func TestLoadMatchFileMissingColumn(t *testing.T) {
	path := writeMatchFile(t, t.TempDir(), "atp_matches_2023.csv", "tourney_id,surface\n1,Hard\n")
	var loadErr *LoadError
	if _, err := LoadMatchFile(path); !errors.As(err, &loadErr) {
		t.Errorf("Expected LoadError for missing columns, got %v", err)
	}
}

func TestLoadMatchesYearFilter(t *testing.T) {
	dir := t.TempDir()
	row := "2023-1,Test,Hard,A,%s,F,1,A,R,1,25,185,2,B,R,2,26,180\n"
	writeMatchFile(t, dir, "atp_matches_2021.csv", matchHeader+strings.Replace(row, "%s", "20210601", 1))
	writeMatchFile(t, dir, "atp_matches_2022.csv", matchHeader+strings.Replace(row, "%s", "20220601", 1))
	writeMatchFile(t, dir, "atp_matches_2023.csv", matchHeader+strings.Replace(row, "%s", "20230601", 1))

	records, err := LoadMatches(dir, 2022, 2023)
	if err != nil {
		t.Fatalf("LoadMatches failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("Expected 2 records from the year window, got %d", len(records))
	}
	for _, r := range records {
		if r.Date.Year() < 2022 {
			t.Errorf("Record outside year window: %v", r.Date)
		}
	}
}

func TestLoadMatchesEmptyDir(t *testing.T) {
	_, err := LoadMatches(t.TempDir(), 2000, 2024)
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Errorf("Expected LoadError for empty directory, got %v", err)
	}
}
