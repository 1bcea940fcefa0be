// Package courtstate classifies courts from a snapshot at an instant and
// derives the selectable sets offered to the registration kiosk.
package courtstate

import (
	"sort"
	"time"

	"github.com/example/courtboard/internal/blocks"
	"github.com/example/courtboard/internal/domain"
)

// View is the classified state of a single court. Blocked is an overlay: a
// court can be both blocked and hold a session.
type View struct {
	Court      domain.Court
	Unoccupied bool
	Active     bool
	Overtime   bool
	Blocked    bool
	Block      blocks.Status
}

// Info buckets courts by availability for display.
type Info struct {
	Free     []domain.Court
	Overtime []domain.Court
	Occupied []domain.Court
}

// Classify computes the state of every court. A session whose end equals now
// is overtime, not active.
func Classify(courts []domain.Court, blks []domain.Block, now time.Time) []View {
	views := make([]View, 0, len(courts))
	for _, court := range courts {
		status := blocks.CourtBlockStatus(court.Number, now, blks)
		view := View{
			Court:   court,
			Blocked: status.Blocked,
			Block:   status,
		}
		switch {
		case court.Session == nil:
			view.Unoccupied = !status.Blocked
		case court.Session.End.After(now):
			view.Active = true
		default:
			view.Overtime = true
		}
		views = append(views, view)
	}
	return views
}

// FreeCourts returns courts that are unoccupied and not blocked, ascending
// by court number.
func FreeCourts(courts []domain.Court, blks []domain.Block, now time.Time) []domain.Court {
	free := make([]domain.Court, 0, len(courts))
	for _, view := range Classify(courts, blks, now) {
		if view.Unoccupied {
			free = append(free, view.Court)
		}
	}
	sortByNumber(free)
	return free
}

// FreeCourtsInfo buckets courts into free, overtime and occupied sets.
func FreeCourtsInfo(courts []domain.Court, blks []domain.Block, now time.Time) Info {
	var info Info
	for _, view := range Classify(courts, blks, now) {
		switch {
		case view.Unoccupied:
			info.Free = append(info.Free, view.Court)
		case view.Overtime:
			info.Overtime = append(info.Overtime, view.Court)
		case view.Active:
			info.Occupied = append(info.Occupied, view.Court)
		}
	}
	sortByNumber(info.Free)
	sortByNumber(info.Overtime)
	sortByNumber(info.Occupied)
	return info
}

// SelectableCourtsStrict answers what the kiosk can offer right now: free
// courts when any exist, otherwise overtime courts as takeover targets.
// Active and blocked courts are never selectable.
func SelectableCourtsStrict(courts []domain.Court, blks []domain.Block, now time.Time) []domain.Court {
	free := make([]domain.Court, 0, len(courts))
	overtime := make([]domain.Court, 0)
	for _, view := range Classify(courts, blks, now) {
		switch {
		case view.Unoccupied:
			free = append(free, view.Court)
		case view.Overtime && !view.Blocked:
			overtime = append(overtime, view.Court)
		}
	}
	if len(free) > 0 {
		sortByNumber(free)
		return free
	}
	sortByNumber(overtime)
	return overtime
}

// HasSoonBlockConflict reports whether any block on the court starts before
// now plus the required minutes and is still in effect after now.
func HasSoonBlockConflict(courtNumber int, now time.Time, blks []domain.Block, requiredMinutes int) bool {
	horizon := now.Add(time.Duration(requiredMinutes) * time.Minute)
	for _, block := range blks {
		if block.CourtNumber != courtNumber {
			continue
		}
		if block.Start.Before(horizon) && block.End.After(now) {
			return true
		}
	}
	return false
}

// ShouldAllowWaitlistJoin reports whether joining the waitlist makes sense.
// Joining a queue is pointless while a court can be taken directly.
func ShouldAllowWaitlistJoin(courts []domain.Court, blks []domain.Block, now time.Time) bool {
	return len(FreeCourts(courts, blks, now)) == 0
}

func sortByNumber(courts []domain.Court) {
	sort.Slice(courts, func(i, j int) bool { return courts[i].Number < courts[j].Number })
}
