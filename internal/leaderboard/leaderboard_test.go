package leaderboard

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/rakhic/spot-the-op/internal/game"
)

func sightingsOf(people ...string) []game.Sighting {
	base := time.Date(2024, 10, 20, 12, 0, 0, 0, time.UTC)
	out := make([]game.Sighting, len(people))
	for i, p := range people {
		out[i] = game.Sighting{
			ID:            fmt.Sprintf("s-%d", i),
			Latitude:      37.8719,
			Longitude:     -122.2585,
			Timestamp:     base.Add(time.Duration(i) * time.Minute),
			PersonSpotted: p,
		}
	}
	return out
}

func TestRank(t *testing.T) {
	tests := []struct {
		name   string
		people []string
		limit  int
		want   []Entry
	}{
		{
			name:   "basic counting",
			people: []string{"Alice", "Bob", "Alice"},
			limit:  5,
			want:   []Entry{{"Alice", 2}, {"Bob", 1}},
		},
		{
			name:   "truncates to limit",
			people: []string{"A", "A", "A", "B", "B", "C"},
			limit:  2,
			want:   []Entry{{"A", 3}, {"B", 2}},
		},
		{
			name:   "tie broken by first appearance",
			people: []string{"Bob", "Alice", "Bob", "Alice"},
			limit:  5,
			want:   []Entry{{"Bob", 2}, {"Alice", 2}},
		},
		{
			name:   "names compared exactly, no case folding",
			people: []string{"alice", "Alice", "alice"},
			limit:  5,
			want:   []Entry{{"alice", 2}, {"Alice", 1}},
		},
		{
			name:   "empty history",
			people: nil,
			limit:  5,
			want:   nil,
		},
		{
			name:   "zero limit",
			people: []string{"Alice"},
			limit:  0,
			want:   nil,
		},
		{
			name:   "negative limit",
			people: []string{"Alice"},
			limit:  -3,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Rank(sightingsOf(tt.people...), tt.limit)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Rank() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRankCountsSumToTotal(t *testing.T) {
	people := []string{"A", "B", "A", "C", "B", "A", "D", "D", "E"}
	sightings := sightingsOf(people...)

	entries := Rank(sightings, len(people))
	total := 0
	for _, e := range entries {
		total += e.Count
	}
	if total != len(sightings) {
		t.Errorf("counts sum to %d, want %d", total, len(sightings))
	}
	if len(entries) > len(people) {
		t.Errorf("got %d entries, more than %d sightings", len(entries), len(people))
	}
}

func TestRankIdempotent(t *testing.T) {
	sightings := sightingsOf("Bob", "Alice", "Bob", "Eve", "Alice", "Bob")
	first := Rank(sightings, 5)
	second := Rank(sightings, 5)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Rank not stable across calls: %v vs %v", first, second)
	}
}

func TestRankDoesNotExceedDistinctPeople(t *testing.T) {
	sightings := sightingsOf("A", "B", "A")
	got := Rank(sightings, 10)
	if len(got) != 2 {
		t.Errorf("got %d entries, want 2 (distinct people)", len(got))
	}
}
