// Package blocks resolves court block priority and predicts whether an
// upcoming block restricts a session that is about to start.
package blocks

import (
	"math"
	"time"

	"github.com/example/courtboard/internal/domain"
)

const (
	// RegistrationBufferMinutes is the lead time by which upcoming blocks are
	// treated as starting early, leaving staff time to clear the court.
	RegistrationBufferMinutes = 15
	// RefuseThresholdMinutes is the horizon inside which a session start is
	// refused outright rather than time-limited.
	RefuseThresholdMinutes = 5
	// WetCourtReason is the display reason for wet-court blocks.
	WetCourtReason = "WET COURT"
)

// Status describes the effective block covering a court at an instant.
type Status struct {
	Blocked          bool
	Current          bool
	Reason           string
	WetCourt         bool
	RemainingMinutes int
}

// WarningType classifies an upcoming-block restriction.
type WarningType string

const (
	// WarningBlocked means the session must not start at all.
	WarningBlocked WarningType = "blocked"
	// WarningLimited means the session may start with a shortened duration.
	WarningLimited WarningType = "limited"
)

// Warning reports the earliest upcoming block that restricts a new session.
type Warning struct {
	Type              WarningType
	Reason            string
	Start             time.Time
	MinutesUntilBlock int
	LimitedDuration   int
	OriginalDuration  int
}

// CourtBlockStatus resolves the highest-priority active block for a court.
// An active wet-court block always wins; otherwise the earliest-starting
// active block is reported. Ties on start time break by creation time, then
// by id, so overlapping admin entries resolve deterministically.
func CourtBlockStatus(courtNumber int, now time.Time, blks []domain.Block) Status {
	var best *domain.Block
	for i := range blks {
		block := &blks[i]
		if block.CourtNumber != courtNumber || !covers(block, now) {
			continue
		}
		if block.WetCourt {
			return Status{
				Blocked:          true,
				Current:          true,
				Reason:           WetCourtReason,
				WetCourt:         true,
				RemainingMinutes: minutesUntil(now, block.End),
			}
		}
		if best == nil || startsBefore(block, best) {
			best = block
		}
	}
	if best == nil {
		return Status{}
	}
	return Status{
		Blocked:          true,
		Current:          true,
		Reason:           best.Reason,
		RemainingMinutes: minutesUntil(now, best.End),
	}
}

// UpcomingWarning finds the earliest future non-wet block for the court and
// decides whether it forbids or shortens a session of the given duration.
// The registration buffer shifts the block's effective start earlier when
// computing the conflict. A duration of zero asks for any upcoming block,
// which is reported as a limited warning for display. Returns nil when no
// qualifying block restricts the session.
func UpcomingWarning(courtNumber, durationMinutes int, blks []domain.Block, now time.Time) *Warning {
	var earliest *domain.Block
	for i := range blks {
		block := &blks[i]
		if block.CourtNumber != courtNumber || block.WetCourt {
			continue
		}
		// Only blocks that have not yet started and have not expired qualify.
		if !block.Start.After(now) || !block.End.After(now) {
			continue
		}
		if earliest == nil || startsBefore(block, earliest) {
			earliest = block
		}
	}
	if earliest == nil {
		return nil
	}

	effectiveStart := earliest.Start.Add(-RegistrationBufferMinutes * time.Minute)
	minutesUntilBlock := minutesUntil(now, effectiveStart)
	// A block starting inside the buffer has a shifted start in the past;
	// report zero minutes rather than a negative countdown.
	if minutesUntilBlock < 0 {
		minutesUntilBlock = 0
	}

	if minutesUntilBlock <= RefuseThresholdMinutes {
		return &Warning{
			Type:              WarningBlocked,
			Reason:            earliest.Reason,
			Start:             earliest.Start,
			MinutesUntilBlock: minutesUntilBlock,
		}
	}
	if durationMinutes == 0 || minutesUntilBlock < durationMinutes {
		return &Warning{
			Type:              WarningLimited,
			Reason:            earliest.Reason,
			Start:             earliest.Start,
			MinutesUntilBlock: minutesUntilBlock,
			LimitedDuration:   minutesUntilBlock,
			OriginalDuration:  durationMinutes,
		}
	}
	return nil
}

// ForCourt returns the blocks attached to a single court, in input order.
func ForCourt(courtNumber int, blks []domain.Block) []domain.Block {
	out := make([]domain.Block, 0, len(blks))
	for _, block := range blks {
		if block.CourtNumber == courtNumber {
			out = append(out, block)
		}
	}
	return out
}

func covers(block *domain.Block, now time.Time) bool {
	return !block.Start.After(now) && !block.End.Before(now)
}

func startsBefore(a, b *domain.Block) bool {
	if !a.Start.Equal(b.Start) {
		return a.Start.Before(b.Start)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func minutesUntil(now, t time.Time) int {
	return int(math.Ceil(t.Sub(now).Minutes()))
}
