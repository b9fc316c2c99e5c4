// Package pipeline cleans raw match records before training.
package pipeline

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/randomwalk1225/sport-tennis/atp"
)

// MissingRankSentinel replaces an absent ranking before training, matching
// the reference pipeline. Missing ages and heights take the dataset median.
const MissingRankSentinel = 9999

// CleaningRule validates or corrects one match record. Returning an error
// rejects the record.
type CleaningRule interface {
	Apply(*atp.MatchRecord) error
	Name() string
}

// CleaningStats summarizes a cleaning pass.
type CleaningStats struct {
	TotalProcessed int            `json:"total_processed"`
	Passed         int            `json:"passed"`
	Rejected       int            `json:"rejected"`
	Issues         map[string]int `json:"issues"`
}

// MatchCleaner applies cleaning rules over a loaded dataset. A cleaner is
// built per dataset because the imputation rule depends on dataset medians.
type MatchCleaner struct {
	rules  []CleaningRule
	logger *zap.Logger
}

// NewMatchCleaner assembles the default rule set for a dataset, computing
// the imputation medians from matches up front.
func NewMatchCleaner(matches []atp.MatchRecord, logger *zap.Logger) *MatchCleaner {
	if logger == nil {
		logger = zap.NewNop()
	}
	medianAge, medianHeight := datasetMedians(matches)
	cleaner := &MatchCleaner{logger: logger}
	cleaner.AddRule(&dateValidationRule{})
	cleaner.AddRule(&identityValidationRule{})
	cleaner.AddRule(&statRangeRule{})
	cleaner.AddRule(&imputationRule{medianAge: medianAge, medianHeight: medianHeight})
	cleaner.AddRule(newDuplicateRule())
	return cleaner
}

// AddRule appends a rule to the chain.
func (c *MatchCleaner) AddRule(rule CleaningRule) {
	c.rules = append(c.rules, rule)
	c.logger.Debug("added cleaning rule", zap.String("rule", rule.Name()))
}

// Clean applies every rule to every record and returns the survivors.
func (c *MatchCleaner) Clean(matches []atp.MatchRecord) ([]atp.MatchRecord, CleaningStats) {
	stats := CleaningStats{Issues: make(map[string]int)}
	cleaned := make([]atp.MatchRecord, 0, len(matches))

	for _, match := range matches {
		stats.TotalProcessed++
		rejected := false
		for _, rule := range c.rules {
			if err := rule.Apply(&match); err != nil {
				stats.Rejected++
				stats.Issues[rule.Name()]++
				c.logger.Debug("rejected match",
					zap.String("rule", rule.Name()),
					zap.String("tourney", match.TourneyName),
					zap.Error(err))
				rejected = true
				break
			}
		}
		if rejected {
			continue
		}
		stats.Passed++
		cleaned = append(cleaned, match)
	}

	c.logger.Info("cleaned dataset",
		zap.Int("total", stats.TotalProcessed),
		zap.Int("passed", stats.Passed),
		zap.Int("rejected", stats.Rejected))
	return cleaned, stats
}

// dateValidationRule rejects unset or future-dated matches.
type dateValidationRule struct{}

func (r *dateValidationRule) Name() string { return "date_validation" }

func (r *dateValidationRule) Apply(m *atp.MatchRecord) error {
	if m.Date.IsZero() {
		return fmt.Errorf("match has no date")
	}
	if m.Date.After(time.Now().AddDate(0, 0, 7)) {
		return fmt.Errorf("match date %s is in the future", m.Date.Format("2006-01-02"))
	}
	return nil
}

// identityValidationRule rejects records missing player identity or pairing
// a player against themselves.
type identityValidationRule struct{}

func (r *identityValidationRule) Name() string { return "identity_validation" }

func (r *identityValidationRule) Apply(m *atp.MatchRecord) error {
	if m.WinnerName == "" || m.LoserName == "" {
		return fmt.Errorf("missing player name")
	}
	if m.WinnerID == m.LoserID {
		return fmt.Errorf("winner and loser are the same player (%d)", m.WinnerID)
	}
	return nil
}

// statRangeRule rejects obviously corrupt stats rather than imputing them.
type statRangeRule struct{}

func (r *statRangeRule) Name() string { return "stat_range" }

func (r *statRangeRule) Apply(m *atp.MatchRecord) error {
	for _, age := range []float64{m.WinnerAge, m.LoserAge} {
		if age != 0 && (age < 10 || age > 65) {
			return fmt.Errorf("age %.1f out of range", age)
		}
	}
	for _, height := range []float64{m.WinnerHeight, m.LoserHeight} {
		if height != 0 && (height < 140 || height > 230) {
			return fmt.Errorf("height %.0f out of range", height)
		}
	}
	for _, rank := range []int{m.WinnerRank, m.LoserRank} {
		if rank < 0 {
			return fmt.Errorf("rank %d is negative", rank)
		}
	}
	return nil
}

// imputationRule fills missing stats in place so the feature builder sees a
// complete record.
type imputationRule struct {
	medianAge    float64
	medianHeight float64
}

func (r *imputationRule) Name() string { return "imputation" }

func (r *imputationRule) Apply(m *atp.MatchRecord) error {
	if m.WinnerRank == 0 {
		m.WinnerRank = MissingRankSentinel
	}
	if m.LoserRank == 0 {
		m.LoserRank = MissingRankSentinel
	}
	if m.WinnerAge == 0 {
		m.WinnerAge = r.medianAge
	}
	if m.LoserAge == 0 {
		m.LoserAge = r.medianAge
	}
	if m.WinnerHeight == 0 {
		m.WinnerHeight = r.medianHeight
	}
	if m.LoserHeight == 0 {
		m.LoserHeight = r.medianHeight
	}
	return nil
}

// duplicateRule rejects repeated (tourney, date, winner, loser, round) rows.
type duplicateRule struct {
	seen map[string]bool
}

func newDuplicateRule() *duplicateRule {
	return &duplicateRule{seen: make(map[string]bool)}
}

func (r *duplicateRule) Name() string { return "duplicate_detection" }

func (r *duplicateRule) Apply(m *atp.MatchRecord) error {
	key := fmt.Sprintf("%s|%s|%d|%d|%s", m.TourneyID, m.Date.Format("20060102"), m.WinnerID, m.LoserID, m.Round)
	if r.seen[key] {
		return fmt.Errorf("duplicate match %s", key)
	}
	r.seen[key] = true
	return nil
}

func datasetMedians(matches []atp.MatchRecord) (medianAge, medianHeight float64) {
	var ages, heights []float64
	for _, m := range matches {
		for _, age := range []float64{m.WinnerAge, m.LoserAge} {
			if age > 0 {
				ages = append(ages, age)
			}
		}
		for _, height := range []float64{m.WinnerHeight, m.LoserHeight} {
			if height > 0 {
				heights = append(heights, height)
			}
		}
	}
	return median(ages, 25), median(heights, 185)
}

func median(values []float64, fallback float64) float64 {
	if len(values) == 0 {
		return fallback
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
