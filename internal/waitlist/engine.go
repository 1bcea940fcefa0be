// Package waitlist estimates wait times by simulating round-robin court
// turnover and decides which queued entries are currently servable.
package waitlist

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/example/courtboard/internal/blocks"
	"github.com/example/courtboard/internal/courtstate"
	"github.com/example/courtboard/internal/domain"
)

// DefaultAvgGameMinutes is the turnover assumption when no average is
// configured.
const DefaultAvgGameMinutes = 75

// MaxGroupSize bounds the players on a single waitlist entry or court.
const MaxGroupSize = 4

var (
	// ErrEmptyGroup rejects an empty candidate group.
	ErrEmptyGroup = errors.New("waitlist: group must contain at least one player")
	// ErrGroupTooLarge rejects groups beyond the doubles maximum.
	ErrGroupTooLarge = errors.New("waitlist: group exceeds maximum size")
)

// ValidateGroup checks the shape of a candidate group.
func ValidateGroup(group []domain.Player) error {
	if len(group) == 0 {
		return ErrEmptyGroup
	}
	if len(group) > MaxGroupSize {
		return ErrGroupTooLarge
	}
	return nil
}

// CourtNextTrueAvailability computes when a court truly frees up: the later
// of now and the session end, pushed forward past every block whose window
// covers the running availability instant. Blocks chain, so a session ending
// into a block moves availability to that block's end, which may itself abut
// another block.
func CourtNextTrueAvailability(court domain.Court, now time.Time, blks []domain.Block) time.Time {
	available := now
	if court.Session != nil && court.Session.End.After(available) {
		available = court.Session.End
	}

	relevant := blocks.ForCourt(court.Number, blks)
	sort.Slice(relevant, func(i, j int) bool { return relevant[i].Start.Before(relevant[j].Start) })

	for _, block := range relevant {
		if !block.Start.After(available) && block.End.After(available) {
			available = block.End
		}
	}
	return available
}

// EstimateWaitMinutes estimates minutes until the group at the given
// one-based position can expect a court, simulating round-robin turnover.
func EstimateWaitMinutes(position int, courts []domain.Court, blks []domain.Block, now time.Time, avgGameMinutes int) int {
	if position < 1 {
		position = 1
	}
	if avgGameMinutes <= 0 {
		avgGameMinutes = DefaultAvgGameMinutes
	}

	freeCount := 0
	future := make([]time.Time, 0, len(courts))
	for _, court := range courts {
		if available := CourtNextTrueAvailability(court, now, blks); available.After(now) {
			future = append(future, available)
		} else {
			freeCount++
		}
	}
	sort.Slice(future, func(i, j int) bool { return future[i].Before(future[j]) })

	switch {
	case position <= freeCount:
		return 0
	case position-freeCount <= len(future):
		return minutesUntil(now, future[position-freeCount-1])
	case len(future) > 0:
		count := freeCount + len(future)
		rounds := (position + count - 1) / count
		return minutesUntil(now, future[0]) + (rounds-1)*avgGameMinutes
	default:
		count := freeCount
		if count < 1 {
			count = 1
		}
		return fallbackEstimate(position, count, avgGameMinutes)
	}
}

// EstimateWaitForPositions is the batched variant used to annotate a whole
// waitlist at once. Positions at or below the current free court count wait
// zero minutes.
func EstimateWaitForPositions(positions []int, currentFreeCount int, nextFreeTimes []time.Time, now time.Time, avgGameMinutes int) []int {
	if avgGameMinutes <= 0 {
		avgGameMinutes = DefaultAvgGameMinutes
	}
	sorted := make([]time.Time, 0, len(nextFreeTimes))
	for _, t := range nextFreeTimes {
		if t.After(now) {
			sorted = append(sorted, t)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	estimates := make([]int, len(positions))
	for i, position := range positions {
		switch {
		case position <= currentFreeCount:
			estimates[i] = 0
		case position-currentFreeCount <= len(sorted):
			estimates[i] = minutesUntil(now, sorted[position-currentFreeCount-1])
		case len(sorted) > 0:
			count := currentFreeCount + len(sorted)
			if count < 1 {
				count = 1
			}
			rounds := (position + count - 1) / count
			estimates[i] = minutesUntil(now, sorted[0]) + (rounds-1)*avgGameMinutes
		default:
			count := currentFreeCount
			if count < 1 {
				count = 1
			}
			estimates[i] = fallbackEstimate(position, count, avgGameMinutes)
		}
	}
	return estimates
}

// fallbackEstimate spreads positions across courts at the average turnover
// rate when no concrete availability data exists. The ratio is fractional,
// so position two of four courts waits half a round, not zero.
func fallbackEstimate(position, courtCount, avgGameMinutes int) int {
	return int(math.Round(float64(position-1) / float64(courtCount) * float64(avgGameMinutes)))
}

func minutesUntil(now, t time.Time) int {
	minutes := int(math.Ceil(t.Sub(now).Minutes()))
	if minutes < 0 {
		return 0
	}
	return minutes
}

// Policy configures servability decisions: session durations by group size
// and the set of courts reserved for singles play.
type Policy struct {
	SinglesMinutes    int
	DoublesMinutes    int
	SinglesOnlyCourts map[int]bool
	AvgGameMinutes    int
}

// DurationFor returns the session duration an entry's group size implies.
// Four or more players play doubles duration.
func (p Policy) DurationFor(group []domain.Player) int {
	if len(group) >= 4 {
		return p.DoublesMinutes
	}
	return p.SinglesMinutes
}

// eligible reports whether the entry's group may take the court. Doubles
// groups cannot use singles-only courts.
func (p Policy) eligible(entry domain.WaitlistEntry, court domain.Court) bool {
	if len(entry.Players) >= 4 && p.SinglesOnlyCourts[court.Number] {
		return false
	}
	return true
}

// Offer identifies a waitlist entry that can be called to a court now.
type Offer struct {
	Entry       domain.WaitlistEntry
	Position    int
	PassThrough bool
}

// ServableEntries decides which waitlist entries may be offered a court
// right now. The first two positions are evaluated in order; position two
// additionally needs the courts remaining after position one is served. A
// deferred entry is skipped unless no eligible selectable court offers a
// full uninterrupted session for it, in which case holding out is pointless
// and it is servable anyway. When neither of the first two entries can be
// served, later entries are scanned in order and the first servable one is
// offered instead, so an early entry needing an unavailable court type does
// not block the whole queue.
func ServableEntries(entries []domain.WaitlistEntry, courts []domain.Court, blks []domain.Block, now time.Time, policy Policy) []Offer {
	if len(entries) == 0 {
		return nil
	}
	selectable := courtstate.SelectableCourtsStrict(courts, blks, now)
	if len(selectable) == 0 {
		return nil
	}

	offers := make([]Offer, 0, 2)

	first := entries[0]
	firstServed := servable(first, selectable, blks, now, policy, 1)
	if firstServed {
		offers = append(offers, Offer{Entry: first, Position: 1})
	}

	if len(entries) > 1 {
		required := 1
		if firstServed {
			required = 2
		}
		if servable(entries[1], selectable, blks, now, policy, required) {
			offers = append(offers, Offer{Entry: entries[1], Position: 2})
		}
	}

	if len(offers) > 0 {
		return offers
	}

	for i := 2; i < len(entries); i++ {
		if servable(entries[i], selectable, blks, now, policy, 1) {
			return []Offer{{Entry: entries[i], Position: i + 1, PassThrough: true}}
		}
	}
	return nil
}

func servable(entry domain.WaitlistEntry, selectable []domain.Court, blks []domain.Block, now time.Time, policy Policy, required int) bool {
	eligible := make([]domain.Court, 0, len(selectable))
	for _, court := range selectable {
		if policy.eligible(entry, court) {
			eligible = append(eligible, court)
		}
	}
	if len(eligible) < required {
		return false
	}
	if !entry.Deferred {
		return true
	}
	// Deferred entries hold out for a full court; once none exists they are
	// servable like any other entry.
	duration := policy.DurationFor(entry.Players)
	for _, court := range eligible {
		if blocks.UpcomingWarning(court.Number, duration, blks, now) == nil {
			return false
		}
	}
	return true
}
