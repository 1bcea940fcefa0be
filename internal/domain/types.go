// Package domain defines the records shared by the court scheduling core:
// courts, sessions, blocks, waitlist entries and the transient bookkeeping
// records produced by clear and takeover operations.
package domain

import "time"

// Player identifies a person on a court or waitlist entry. MemberID is the
// club directory identifier when known; ID may carry a derived stable id for
// guests or unmatched names.
type Player struct {
	ID       string `json:"id,omitempty"`
	MemberID string `json:"member_id,omitempty"`
	Name     string `json:"name"`
	Guest    bool   `json:"guest,omitempty"`
	Sponsor  string `json:"sponsor,omitempty"`
}

// Session is a group's occupancy of a court. End is always after Start at
// creation; ClearCourt may foreshorten End to the clearing instant.
type Session struct {
	ID          string    `json:"id"`
	Players     []Player  `json:"players"`
	Guests      int       `json:"guests"`
	Start       time.Time `json:"start_time"`
	End         time.Time `json:"end_time"`
	Minutes     int       `json:"duration_minutes"`
	AssignedAt  time.Time `json:"assigned_at"`
	TimeLimited bool      `json:"time_limited,omitempty"`
}

// ClearedSession is an archived session. Sessions are never deleted, only
// moved into a court's history with the reason they ended.
type ClearedSession struct {
	Session
	ClearedAt   time.Time `json:"cleared_at"`
	ClearReason string    `json:"clear_reason"`
}

// Court holds at most one current session plus its archived history.
type Court struct {
	Number  int              `json:"number"`
	ID      string           `json:"id"`
	Session *Session         `json:"current,omitempty"`
	History []ClearedSession `json:"history,omitempty"`
}

// Block is an admin-defined window during which a court is unavailable.
// Overlapping blocks on the same court are allowed; priority is resolved at
// read time (wet court first, then earliest start).
type Block struct {
	ID          string    `json:"id"`
	CourtNumber int       `json:"court_number"`
	Start       time.Time `json:"start_time"`
	End         time.Time `json:"end_time"`
	Reason      string    `json:"reason"`
	WetCourt    bool      `json:"wet_court,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// WaitlistEntry is a queued group. Position is not stored; it is the entry's
// index in the waitlist slice plus one, recomputed on every read.
type WaitlistEntry struct {
	ID       string    `json:"id"`
	Players  []Player  `json:"players"`
	Guests   int       `json:"guests"`
	JoinedAt time.Time `json:"joined_at"`
	Deferred bool      `json:"deferred,omitempty"`
}

// RecentlyClearedEntry records an early clear so that the same group cannot
// re-register elsewhere for a fresh full duration while its original time is
// still running. Entries expire once OriginalEnd passes.
type RecentlyClearedEntry struct {
	CourtNumber int       `json:"court_number"`
	ClearedAt   time.Time `json:"cleared_at"`
	OriginalEnd time.Time `json:"original_end_time"`
	Players     []Player  `json:"players"`
	Source      string    `json:"source"`
}

// DisplacementRecord links a takeover session to the occupant it bumped.
// It is returned by assignment and consumed by the takeover undo.
type DisplacementRecord struct {
	DisplacedSessionID string `json:"displaced_session_id"`
	TakeoverSessionID  string `json:"takeover_session_id"`
}

// ClonePlayers returns a copy of the player slice.
func ClonePlayers(players []Player) []Player {
	if players == nil {
		return nil
	}
	out := make([]Player, len(players))
	copy(out, players)
	return out
}

// CloneSession returns a deep copy of the session, or nil.
func CloneSession(session *Session) *Session {
	if session == nil {
		return nil
	}
	cloned := *session
	cloned.Players = ClonePlayers(session.Players)
	return &cloned
}

// CloneCourt returns a deep copy of the court record.
func CloneCourt(court Court) Court {
	cloned := court
	cloned.Session = CloneSession(court.Session)
	if court.History != nil {
		cloned.History = make([]ClearedSession, len(court.History))
		for i, entry := range court.History {
			cloned.History[i] = entry
			cloned.History[i].Players = ClonePlayers(entry.Players)
		}
	}
	return cloned
}
