// Package db persists dataset snapshots, served predictions and training
// runs in SQLite.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/randomwalk1225/sport-tennis/atp"
)

var database *sql.DB

// InitDB opens (or creates) the SQLite database and ensures the schema.
func InitDB(path string) error {
	var err error
	database, err = sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return err
	}

	query := `
    CREATE TABLE IF NOT EXISTS matches (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        tourney_id TEXT NOT NULL,
        tourney_name TEXT,
        surface TEXT,
        level TEXT,
        date DATETIME NOT NULL,
        round TEXT,
        winner_id INTEGER NOT NULL,
        winner_name TEXT NOT NULL,
        winner_hand TEXT,
        winner_rank INTEGER,
        winner_age REAL,
        winner_ht REAL,
        loser_id INTEGER NOT NULL,
        loser_name TEXT NOT NULL,
        loser_hand TEXT,
        loser_rank INTEGER,
        loser_age REAL,
        loser_ht REAL,
        UNIQUE(tourney_id, date, winner_id, loser_id, round)
    );
    CREATE INDEX IF NOT EXISTS idx_matches_players ON matches(winner_id, loser_id);
    CREATE TABLE IF NOT EXISTS players (
        id INTEGER PRIMARY KEY,
        name TEXT NOT NULL,
        rank INTEGER,
        age REAL,
        height REAL,
        hand TEXT,
        as_of DATETIME
    );
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        prediction_id TEXT NOT NULL UNIQUE,
        player1 TEXT NOT NULL,
        player2 TEXT NOT NULL,
        surface TEXT,
        p1_win_prob REAL NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    CREATE TABLE IF NOT EXISTS training_runs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        model_path TEXT NOT NULL,
        estimators INTEGER,
        max_depth INTEGER,
        learning_rate REAL,
        samples INTEGER,
        cv_accuracy REAL,
        cv_std_dev REAL,
        test_accuracy REAL,
        trained_at DATETIME NOT NULL
    );
    `

	_, err = database.Exec(query)
	return err
}

// Close releases the database handle.
func Close() error {
	if database == nil {
		return nil
	}
	err := database.Close()
	database = nil
	return err
}

// SaveMatches bulk-inserts cleaned match records inside one transaction.
func SaveMatches(matches []atp.MatchRecord) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	tx, err := database.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
        INSERT OR REPLACE INTO matches (
            tourney_id, tourney_name, surface, level, date, round,
            winner_id, winner_name, winner_hand, winner_rank, winner_age, winner_ht,
            loser_id, loser_name, loser_hand, loser_rank, loser_age, loser_ht
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, m := range matches {
		_, err := stmt.Exec(
			m.TourneyID, m.TourneyName, string(m.Surface), m.Level, m.Date, m.Round,
			m.WinnerID, m.WinnerName, m.WinnerHand, m.WinnerRank, m.WinnerAge, m.WinnerHeight,
			m.LoserID, m.LoserName, m.LoserHand, m.LoserRank, m.LoserAge, m.LoserHeight,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("insert match: %w", err)
		}
	}
	return tx.Commit()
}

// SavePlayers replaces the current player snapshot.
func SavePlayers(profiles []atp.PlayerProfile) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	tx, err := database.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
        INSERT OR REPLACE INTO players (id, name, rank, age, height, hand, as_of)
        VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, p := range profiles {
		if _, err := stmt.Exec(p.ID, p.Name, p.Rank, p.Age, p.Height, p.Hand, p.AsOf); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert player: %w", err)
		}
	}
	return tx.Commit()
}

// LoadPlayers returns the stored player snapshot, empty if none was saved.
func LoadPlayers() ([]atp.PlayerProfile, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	rows, err := database.Query(`SELECT id, name, rank, age, height, hand, as_of FROM players`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []atp.PlayerProfile
	for rows.Next() {
		var p atp.PlayerProfile
		if err := rows.Scan(&p.ID, &p.Name, &p.Rank, &p.Age, &p.Height, &p.Hand, &p.AsOf); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// HeadToHead summarizes the historical meetings between two players.
type HeadToHead struct {
	Player1     string         `json:"player1"`
	Player2     string         `json:"player2"`
	Meetings    int            `json:"meetings"`
	Player1Wins int            `json:"player1_wins"`
	Player2Wins int            `json:"player2_wins"`
	BySurface   map[string]int `json:"player1_wins_by_surface"`
	LastMeeting time.Time      `json:"last_meeting,omitempty"`
}

// QueryHeadToHead counts prior meetings between two player IDs.
func QueryHeadToHead(p1, p2 atp.PlayerProfile) (*HeadToHead, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	rows, err := database.Query(`
        SELECT winner_id, surface, date
        FROM matches
        WHERE (winner_id = ? AND loser_id = ?) OR (winner_id = ? AND loser_id = ?)
        ORDER BY date`, p1.ID, p2.ID, p2.ID, p1.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	record := &HeadToHead{
		Player1:   p1.Name,
		Player2:   p2.Name,
		BySurface: make(map[string]int),
	}
	for rows.Next() {
		var winnerID int
		var surface string
		var date time.Time
		if err := rows.Scan(&winnerID, &surface, &date); err != nil {
			return nil, err
		}
		record.Meetings++
		if winnerID == p1.ID {
			record.Player1Wins++
			record.BySurface[surface]++
		} else {
			record.Player2Wins++
		}
		if date.After(record.LastMeeting) {
			record.LastMeeting = date
		}
	}
	return record, rows.Err()
}

// PlayerForm is a recent-form summary for one player.
type PlayerForm struct {
	Player    string         `json:"player"`
	Matches   int            `json:"matches"`
	Wins      int            `json:"wins"`
	Losses    int            `json:"losses"`
	WinRate   float64        `json:"win_rate"`
	Surfaces  map[string]int `json:"surfaces"`
	LastMatch time.Time      `json:"last_match,omitempty"`
}

// QueryPlayerForm summarizes the player's most recent n matches.
func QueryPlayerForm(p atp.PlayerProfile, n int) (*PlayerForm, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	if n <= 0 {
		n = 10
	}
	rows, err := database.Query(`
        SELECT winner_id, surface, date
        FROM matches
        WHERE winner_id = ? OR loser_id = ?
        ORDER BY date DESC
        LIMIT ?`, p.ID, p.ID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	form := &PlayerForm{Player: p.Name, Surfaces: make(map[string]int)}
	for rows.Next() {
		var winnerID int
		var surface string
		var date time.Time
		if err := rows.Scan(&winnerID, &surface, &date); err != nil {
			return nil, err
		}
		form.Matches++
		if winnerID == p.ID {
			form.Wins++
		} else {
			form.Losses++
		}
		form.Surfaces[surface]++
		if date.After(form.LastMatch) {
			form.LastMatch = date
		}
	}
	if form.Matches > 0 {
		form.WinRate = float64(form.Wins) / float64(form.Matches)
	}
	return form, rows.Err()
}

// SavePrediction appends one served prediction to the log.
func SavePrediction(predictionID, player1, player2, surface string, p1WinProb float64) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	_, err := database.Exec(`
        INSERT INTO predictions (prediction_id, player1, player2, surface, p1_win_prob)
        VALUES (?, ?, ?, ?, ?)`,
		predictionID, player1, player2, surface, p1WinProb)
	return err
}

// TrainingRun is one recorded trainer execution.
type TrainingRun struct {
	ModelPath    string    `json:"model_path"`
	Estimators   int       `json:"estimators"`
	MaxDepth     int       `json:"max_depth"`
	LearningRate float64   `json:"learning_rate"`
	Samples      int       `json:"samples"`
	CVAccuracy   float64   `json:"cv_accuracy"`
	CVStdDev     float64   `json:"cv_std_dev"`
	TestAccuracy float64   `json:"test_accuracy"`
	TrainedAt    time.Time `json:"trained_at"`
}

// SaveTrainingRun records a completed training run.
func SaveTrainingRun(run TrainingRun) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	_, err := database.Exec(`
        INSERT INTO training_runs (
            model_path, estimators, max_depth, learning_rate,
            samples, cv_accuracy, cv_std_dev, test_accuracy, trained_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ModelPath, run.Estimators, run.MaxDepth, run.LearningRate,
		run.Samples, run.CVAccuracy, run.CVStdDev, run.TestAccuracy, run.TrainedAt)
	return err
}

// LoadTrainingRuns returns recorded runs, most recent first.
func LoadTrainingRuns() ([]TrainingRun, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	rows, err := database.Query(`
        SELECT model_path, estimators, max_depth, learning_rate,
               samples, cv_accuracy, cv_std_dev, test_accuracy, trained_at
        FROM training_runs
        ORDER BY trained_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]TrainingRun, 0)
	for rows.Next() {
		var run TrainingRun
		if err := rows.Scan(&run.ModelPath, &run.Estimators, &run.MaxDepth, &run.LearningRate,
			&run.Samples, &run.CVAccuracy, &run.CVStdDev, &run.TestAccuracy, &run.TrainedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
