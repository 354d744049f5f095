// Package leaderboard ranks the people named in a game's sighting history by
// how often they have been spotted.
package leaderboard

import (
	"sort"

	"github.com/rakhic/spot-the-op/internal/game"
)

// DefaultLimit is the number of entries shown on the leaderboard view.
const DefaultLimit = 5

// Entry is one leaderboard row.
type Entry struct {
	Person string `json:"person"`
	Count  int    `json:"count"`
}

// Rank groups sightings by exact string equality of PersonSpotted and
// returns the top entries by count, at most limit of them. Names are not
// case-folded or trimmed; "alice" and "Alice" are distinct people.
//
// Ties are broken by first-appearance order in the history, which keeps the
// ranking deterministic for a given input. A negative limit yields an empty
// result.
func Rank(sightings []game.Sighting, limit int) []Entry {
	if limit <= 0 {
		return nil
	}

	if len(sightings) == 0 {
		return nil
	}

	counts := make(map[string]int, len(sightings))
	firstSeen := make(map[string]int, len(sightings))
	for i, s := range sightings {
		if _, ok := counts[s.PersonSpotted]; !ok {
			firstSeen[s.PersonSpotted] = i
		}
		counts[s.PersonSpotted]++
	}

	entries := make([]Entry, 0, len(counts))
	for person, count := range counts {
		entries = append(entries, Entry{Person: person, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return firstSeen[entries[i].Person] < firstSeen[entries[j].Person]
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
