package atp

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// LoadError reports a missing or malformed dataset source. It is fatal: the
// process cannot run on a partial dataset.
type LoadError struct {
	Path string
	Line int
	Err  error
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("load %s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Columns the loader cannot proceed without. Rank, age and height columns are
// optional per row but their headers must exist.
var requiredColumns = []string{
	"tourney_id", "tourney_name", "surface", "tourney_level", "tourney_date",
	"round", "winner_id", "winner_name", "loser_id", "loser_name",
	"winner_rank", "loser_rank", "winner_age", "loser_age",
	"winner_ht", "loser_ht", "winner_hand", "loser_hand",
}

// LoadMatches reads every atp_matches_YYYY.csv under dir whose year falls in
// [fromYear, toYear] and returns the records in file order.
func LoadMatches(dir string, fromYear, toYear int) ([]MatchRecord, error) {
	pattern := filepath.Join(dir, "atp_matches_*.csv")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, &LoadError{Path: dir, Err: err}
	}

	var selected []string
	for _, file := range files {
		year, ok := yearFromFilename(file)
		if !ok {
			continue
		}
		if year >= fromYear && year <= toYear {
			selected = append(selected, file)
		}
	}
	if len(selected) == 0 {
		return nil, &LoadError{Path: dir, Err: fmt.Errorf("no match files for years %d-%d", fromYear, toYear)}
	}
	sort.Strings(selected)

	var records []MatchRecord
	for _, file := range selected {
		fileRecords, err := LoadMatchFile(file)
		if err != nil {
			return nil, err
		}
		records = append(records, fileRecords...)
	}
	return records, nil
}

// LoadMatchFile parses a single dataset snapshot file.
func LoadMatchFile(path string) ([]MatchRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer file.Close()
	return parseMatches(path, file)
}

func parseMatches(path string, r io.Reader) ([]MatchRecord, error) {
	reader := csv.NewReader(decodeReader(r))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("read header: %w", err)}
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("missing column %q", name)}
		}
	}

	var records []MatchRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, &LoadError{Path: path, Line: line, Err: err}
		}
		if len(row) < len(header) {
			return nil, &LoadError{Path: path, Line: line, Err: fmt.Errorf("expected %d columns, got %d", len(header), len(row))}
		}

		field := func(name string) string { return strings.TrimSpace(row[cols[name]]) }

		record := MatchRecord{
			TourneyID:   field("tourney_id"),
			TourneyName: field("tourney_name"),
			Surface:     ParseSurface(field("surface")),
			Level:       field("tourney_level"),
			Round:       field("round"),
			WinnerName:  field("winner_name"),
			WinnerHand:  field("winner_hand"),
			LoserName:   field("loser_name"),
			LoserHand:   field("loser_hand"),
		}

		record.Date, err = time.Parse("20060102", field("tourney_date"))
		if err != nil {
			return nil, &LoadError{Path: path, Line: line, Err: fmt.Errorf("bad tourney_date %q", field("tourney_date"))}
		}
		record.WinnerID, err = strconv.Atoi(field("winner_id"))
		if err != nil {
			return nil, &LoadError{Path: path, Line: line, Err: fmt.Errorf("bad winner_id %q", field("winner_id"))}
		}
		record.LoserID, err = strconv.Atoi(field("loser_id"))
		if err != nil {
			return nil, &LoadError{Path: path, Line: line, Err: fmt.Errorf("bad loser_id %q", field("loser_id"))}
		}

		// Optional stats: blank means unknown, anything else must parse.
		record.WinnerRank, err = optionalInt(field("winner_rank"))
		if err != nil {
			return nil, &LoadError{Path: path, Line: line, Err: err}
		}
		record.LoserRank, err = optionalInt(field("loser_rank"))
		if err != nil {
			return nil, &LoadError{Path: path, Line: line, Err: err}
		}
		record.WinnerAge, err = optionalFloat(field("winner_age"))
		if err != nil {
			return nil, &LoadError{Path: path, Line: line, Err: err}
		}
		record.LoserAge, err = optionalFloat(field("loser_age"))
		if err != nil {
			return nil, &LoadError{Path: path, Line: line, Err: err}
		}
		record.WinnerHeight, err = optionalFloat(field("winner_ht"))
		if err != nil {
			return nil, &LoadError{Path: path, Line: line, Err: err}
		}
		record.LoserHeight, err = optionalFloat(field("loser_ht"))
		if err != nil {
			return nil, &LoadError{Path: path, Line: line, Err: err}
		}

		records = append(records, record)
	}
	return records, nil
}

// decodeReader passes UTF-8 input through unchanged and decodes anything else
// as Latin-1; old snapshots carry accented names in that encoding.
func decodeReader(r io.Reader) io.Reader {
	buffered, err := io.ReadAll(r)
	if err != nil {
		// Let the CSV reader surface the error.
		return &errReader{err: err}
	}
	if utf8.Valid(buffered) {
		return strings.NewReader(string(buffered))
	}
	return transform.NewReader(strings.NewReader(string(buffered)), charmap.ISO8859_1.NewDecoder())
}

type errReader struct{ err error }

func (r *errReader) Read([]byte) (int, error) { return 0, r.err }

func optionalInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	// Ranks occasionally appear as floats ("14.0") in older files.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad numeric field %q", s)
	}
	return int(f), nil
}

func optionalFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad numeric field %q", s)
	}
	return f, nil
}

func yearFromFilename(path string) (int, bool) {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, ".csv")
	idx := strings.LastIndex(base, "_")
	if idx < 0 {
		return 0, false
	}
	year, err := strconv.Atoi(base[idx+1:])
	if err != nil {
		return 0, false
	}
	return year, true
}
