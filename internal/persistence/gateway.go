// Package persistence defines the snapshot provider and apply gateway the
// scheduling core runs against. The core never talks to storage directly; it
// reads a versioned snapshot, builds the next one, and asks the gateway to
// apply it conditionally.
package persistence

import (
	"context"

	"github.com/example/courtboard/internal/domain"
	"github.com/example/courtboard/internal/roster"
)

// Snapshot is the complete shared state at a version. Mutations are
// read-modify-write: build the next snapshot from a base version and apply.
type Snapshot struct {
	Version         int64
	Courts          []domain.Court
	Blocks          []domain.Block
	Waitlist        []domain.WaitlistEntry
	RecentlyCleared []domain.RecentlyClearedEntry
}

// Clone returns a deep copy so callers can mutate a candidate next snapshot
// without touching the one they were given.
func (s Snapshot) Clone() Snapshot {
	next := Snapshot{Version: s.Version}
	if s.Courts != nil {
		next.Courts = make([]domain.Court, len(s.Courts))
		for i, court := range s.Courts {
			next.Courts[i] = domain.CloneCourt(court)
		}
	}
	if s.Blocks != nil {
		next.Blocks = append([]domain.Block(nil), s.Blocks...)
	}
	if s.Waitlist != nil {
		next.Waitlist = make([]domain.WaitlistEntry, len(s.Waitlist))
		for i, entry := range s.Waitlist {
			next.Waitlist[i] = entry
			next.Waitlist[i].Players = domain.ClonePlayers(entry.Players)
		}
	}
	if s.RecentlyCleared != nil {
		next.RecentlyCleared = make([]domain.RecentlyClearedEntry, len(s.RecentlyCleared))
		for i, entry := range s.RecentlyCleared {
			next.RecentlyCleared[i] = entry
			next.RecentlyCleared[i].Players = domain.ClonePlayers(entry.Players)
		}
	}
	return next
}

// SnapshotProvider reads the current shared state.
type SnapshotProvider interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// ApplyGateway conditionally writes the next snapshot. Apply succeeds only
// when the stored version still equals base; a concurrent writer surfaces as
// ErrConflict and the caller must re-fetch and decide.
type ApplyGateway interface {
	Apply(ctx context.Context, base int64, next Snapshot) (int64, error)
}

// Gateway combines reading and conditional writing.
type Gateway interface {
	SnapshotProvider
	ApplyGateway
}

// RosterDirectory exposes the club member directory used for identity
// enrichment. Optional: a nil directory disables enrichment.
type RosterDirectory interface {
	ListMembers(ctx context.Context) ([]roster.Member, error)
	AddMember(ctx context.Context, member roster.Member) error
}
