package atp

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrPlayerNotFound is returned when a requested player is absent from the
// current profile table. It is the only recoverable lookup error.
var ErrPlayerNotFound = errors.New("player not found")

// PlayerTable holds the current profile snapshot for every known player.
// It is built once at load time and read-only afterwards.
type PlayerTable struct {
	byName   map[string]PlayerProfile // folded name -> profile
	names    []string                 // folded names, sorted, for substring search
	display  map[string]string        // folded name -> display name
}

// BuildPlayerTable derives the latest profile per player from match history.
// Winners and losers both contribute; the most recent appearance wins.
func BuildPlayerTable(matches []MatchRecord) *PlayerTable {
	latest := make(map[string]PlayerProfile)
	seen := func(p PlayerProfile) {
		key := foldName(p.Name)
		if key == "" {
			return
		}
		if existing, ok := latest[key]; !ok || p.AsOf.After(existing.AsOf) {
			latest[key] = p
		}
	}

	for _, m := range matches {
		seen(PlayerProfile{
			ID: m.WinnerID, Name: m.WinnerName, Rank: m.WinnerRank,
			Age: m.WinnerAge, Height: m.WinnerHeight, Hand: m.WinnerHand, AsOf: m.Date,
		})
		seen(PlayerProfile{
			ID: m.LoserID, Name: m.LoserName, Rank: m.LoserRank,
			Age: m.LoserAge, Height: m.LoserHeight, Hand: m.LoserHand, AsOf: m.Date,
		})
	}

	return tableFromLatest(latest)
}

// NewPlayerTable indexes an already-deduplicated profile snapshot, e.g. one
// restored from the database. Duplicate names keep the most recent AsOf.
func NewPlayerTable(profiles []PlayerProfile) *PlayerTable {
	latest := make(map[string]PlayerProfile, len(profiles))
	for _, p := range profiles {
		key := foldName(p.Name)
		if key == "" {
			continue
		}
		if existing, ok := latest[key]; !ok || p.AsOf.After(existing.AsOf) {
			latest[key] = p
		}
	}
	return tableFromLatest(latest)
}

func tableFromLatest(latest map[string]PlayerProfile) *PlayerTable {
	table := &PlayerTable{
		byName:  latest,
		names:   make([]string, 0, len(latest)),
		display: make(map[string]string, len(latest)),
	}
	for key, profile := range latest {
		table.names = append(table.names, key)
		table.display[key] = profile.Name
	}
	sort.Strings(table.names)
	return table
}

// Len reports the number of known players.
func (t *PlayerTable) Len() int { return len(t.byName) }

// Lookup resolves a player by name: exact match first, then case- and
// diacritic-insensitive substring match (first alphabetical hit).
func (t *PlayerTable) Lookup(name string) (PlayerProfile, error) {
	key := foldName(name)
	if key == "" {
		return PlayerProfile{}, fmt.Errorf("%w: empty name", ErrPlayerNotFound)
	}
	if profile, ok := t.byName[key]; ok {
		return profile, nil
	}
	for _, candidate := range t.names {
		if strings.Contains(candidate, key) {
			return t.byName[candidate], nil
		}
	}
	return PlayerProfile{}, fmt.Errorf("%w: %q", ErrPlayerNotFound, name)
}

// Search returns up to limit display names containing the query.
func (t *PlayerTable) Search(query string, limit int) []string {
	key := foldName(query)
	var results []string
	for _, candidate := range t.names {
		if key != "" && !strings.Contains(candidate, key) {
			continue
		}
		results = append(results, t.display[candidate])
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results
}

// Profiles returns all profiles ordered by name.
func (t *PlayerTable) Profiles() []PlayerProfile {
	profiles := make([]PlayerProfile, 0, len(t.names))
	for _, name := range t.names {
		profiles = append(profiles, t.byName[name])
	}
	return profiles
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldName lowercases and strips diacritics so "Ramos-Vinolas" finds
// "Ramos-Viñolas".
func foldName(name string) string {
	folded, _, err := transform.String(foldTransformer, name)
	if err != nil {
		folded = name
	}
	return strings.ToLower(strings.TrimSpace(folded))
}
