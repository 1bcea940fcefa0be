// Package testfixtures provides deterministic clocks, identifier generators,
// and snapshot builders shared by the package test suites.
package testfixtures

import (
	"fmt"
	"time"

	"github.com/example/courtboard/internal/domain"
	"github.com/example/courtboard/internal/persistence"
)

// ReferenceTime is the anchor instant used by fixtures that need a stable
// "now". A mid-morning Saturday keeps block and session arithmetic readable.
func ReferenceTime() time.Time {
	return time.Date(2025, time.June, 7, 10, 0, 0, 0, time.UTC)
}

// Players builds a group of named players without member ids.
func Players(names ...string) []domain.Player {
	players := make([]domain.Player, len(names))
	for i, name := range names {
		players[i] = domain.Player{Name: name}
	}
	return players
}

// Session builds an active session starting at the supplied instant.
func Session(id string, players []domain.Player, start time.Time, minutes int) *domain.Session {
	return &domain.Session{
		ID:         id,
		Players:    players,
		Start:      start,
		End:        start.Add(time.Duration(minutes) * time.Minute),
		Minutes:    minutes,
		AssignedAt: start,
	}
}

// EmptyCourts builds count unoccupied courts numbered from one.
func EmptyCourts(count int) []domain.Court {
	courts := make([]domain.Court, count)
	for i := range courts {
		courts[i] = domain.Court{Number: i + 1, ID: fmt.Sprintf("court-%d", i+1)}
	}
	return courts
}

// Snapshot builds a version-zero snapshot around the supplied courts.
func Snapshot(courts []domain.Court) persistence.Snapshot {
	return persistence.Snapshot{Version: 0, Courts: courts}
}

// Block builds a block on a court over the supplied window.
func Block(id string, courtNumber int, start, end time.Time, reason string) domain.Block {
	return domain.Block{
		ID:          id,
		CourtNumber: courtNumber,
		Start:       start,
		End:         end,
		Reason:      reason,
		CreatedAt:   start.Add(-time.Hour),
	}
}

// WaitlistEntry builds a queue entry joined at the supplied instant.
func WaitlistEntry(id string, players []domain.Player, joinedAt time.Time) domain.WaitlistEntry {
	return domain.WaitlistEntry{ID: id, Players: players, JoinedAt: joinedAt}
}
