package waitlist

import (
	"testing"
	"time"

	"github.com/example/courtboard/internal/domain"
	"github.com/example/courtboard/internal/testfixtures"
)

func TestValidateGroup(t *testing.T) {
	if err := ValidateGroup(nil); err != ErrEmptyGroup {
		t.Fatalf("expected ErrEmptyGroup, got %v", err)
	}
	if err := ValidateGroup(testfixtures.Players("a", "b", "c", "d", "e")); err != ErrGroupTooLarge {
		t.Fatalf("expected ErrGroupTooLarge, got %v", err)
	}
	if err := ValidateGroup(testfixtures.Players("a", "b")); err != nil {
		t.Fatalf("expected valid group, got %v", err)
	}
}

func TestCourtNextTrueAvailabilityEmptyCourt(t *testing.T) {
	now := testfixtures.ReferenceTime()
	court := domain.Court{Number: 1}
	if got := CourtNextTrueAvailability(court, now, nil); !got.Equal(now) {
		t.Fatalf("an empty court is available now, got %v", got)
	}
}

func TestCourtNextTrueAvailabilitySessionEnd(t *testing.T) {
	now := testfixtures.ReferenceTime()
	court := domain.Court{Number: 1, Session: testfixtures.Session("s1", testfixtures.Players("Ada"), now.Add(-20*time.Minute), 60)}
	want := now.Add(40 * time.Minute)
	if got := CourtNextTrueAvailability(court, now, nil); !got.Equal(want) {
		t.Fatalf("expected availability at session end %v, got %v", want, got)
	}
}

func TestCourtNextTrueAvailabilityChainsBlocks(t *testing.T) {
	now := testfixtures.ReferenceTime()
	court := domain.Court{Number: 1, Session: testfixtures.Session("s1", testfixtures.Players("Ada"), now.Add(-20*time.Minute), 60)}
	blks := []domain.Block{
		// Covers the session end, pushing availability to 11:30.
		testfixtures.Block("b1", 1, now.Add(30*time.Minute), now.Add(90*time.Minute), "maintenance"),
		// Starts exactly at 11:30, chaining availability to 12:00.
		testfixtures.Block("b2", 1, now.Add(90*time.Minute), now.Add(120*time.Minute), "maintenance"),
		// Another court's block never matters.
		testfixtures.Block("b3", 2, now, now.Add(5*time.Hour), "maintenance"),
	}

	want := now.Add(120 * time.Minute)
	if got := CourtNextTrueAvailability(court, now, blks); !got.Equal(want) {
		t.Fatalf("expected chained availability %v, got %v", want, got)
	}
}

func TestEstimateWaitMinutesFirstWithFreeCourt(t *testing.T) {
	now := testfixtures.ReferenceTime()
	courts := testfixtures.EmptyCourts(2)
	if got := EstimateWaitMinutes(1, courts, nil, now, 75); got != 0 {
		t.Fatalf("first in line with a free court waits zero, got %d", got)
	}
}

func TestEstimateWaitMinutesMixedFreeAndBusy(t *testing.T) {
	now := testfixtures.ReferenceTime()
	courts := testfixtures.EmptyCourts(2)
	courts[1].Session = testfixtures.Session("s1", testfixtures.Players("Ada"), now.Add(-30*time.Minute), 60)

	if got := EstimateWaitMinutes(1, courts, nil, now, 75); got != 0 {
		t.Fatalf("position 1 with a free court waits zero, got %d", got)
	}
	if got := EstimateWaitMinutes(2, courts, nil, now, 75); got != 30 {
		t.Fatalf("position 2 waits for the busy court, got %d", got)
	}
}

func TestEstimateWaitMinutesWithinFutureAvailabilities(t *testing.T) {
	now := testfixtures.ReferenceTime()
	courts := testfixtures.EmptyCourts(2)
	courts[0].Session = testfixtures.Session("s1", testfixtures.Players("Ada"), now.Add(-30*time.Minute), 60)
	courts[1].Session = testfixtures.Session("s2", testfixtures.Players("Grace"), now.Add(-10*time.Minute), 60)

	if got := EstimateWaitMinutes(1, courts, nil, now, 75); got != 30 {
		t.Fatalf("position 1 waits for the earliest court, got %d", got)
	}
	if got := EstimateWaitMinutes(2, courts, nil, now, 75); got != 50 {
		t.Fatalf("position 2 waits for the second court, got %d", got)
	}
}

func TestEstimateWaitMinutesRoundRobinBeyondCourts(t *testing.T) {
	now := testfixtures.ReferenceTime()
	courts := testfixtures.EmptyCourts(2)
	courts[0].Session = testfixtures.Session("s1", testfixtures.Players("Ada"), now.Add(-30*time.Minute), 60)
	courts[1].Session = testfixtures.Session("s2", testfixtures.Players("Grace"), now.Add(-10*time.Minute), 60)

	// Position 3 on 2 courts is round 2: earliest turnover plus one average.
	if got := EstimateWaitMinutes(3, courts, nil, now, 75); got != 30+75 {
		t.Fatalf("expected 105, got %d", got)
	}
}

func TestEstimateWaitMinutesNoDataFallback(t *testing.T) {
	now := testfixtures.ReferenceTime()
	courts := testfixtures.EmptyCourts(2)
	if got := EstimateWaitMinutes(3, courts, nil, now, 75); got != 75 {
		t.Fatalf("expected one average round, got %d", got)
	}
}

func TestEstimateWaitMinutesNoDataFallbackFractional(t *testing.T) {
	now := testfixtures.ReferenceTime()
	courts := testfixtures.EmptyCourts(2)

	// Three queue slots ahead over two courts is one and a half rounds,
	// rounded to the nearest minute rather than truncated.
	if got := EstimateWaitMinutes(4, courts, nil, now, 75); got != 113 {
		t.Fatalf("expected 113, got %d", got)
	}
	if got := EstimateWaitForPositions([]int{4}, 2, nil, now, 75); got[0] != 113 {
		t.Fatalf("expected 113 from the batched variant, got %d", got[0])
	}
}

func TestEstimateWaitForPositions(t *testing.T) {
	now := testfixtures.ReferenceTime()
	nextFree := []time.Time{now.Add(30 * time.Minute), now.Add(50 * time.Minute)}

	got := EstimateWaitForPositions([]int{1, 2, 3, 4}, 1, nextFree, now, 75)
	want := []int{0, 30, 50, 30 + 75}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: expected %d, got %d (all %v)", i+1, want[i], got[i], got)
		}
	}
}

func testPolicy() Policy {
	return Policy{SinglesMinutes: 60, DoublesMinutes: 90, SinglesOnlyCourts: map[int]bool{1: true}, AvgGameMinutes: 75}
}

func TestPolicyDurationFor(t *testing.T) {
	p := testPolicy()
	if got := p.DurationFor(testfixtures.Players("a", "b")); got != 60 {
		t.Fatalf("expected singles duration, got %d", got)
	}
	if got := p.DurationFor(testfixtures.Players("a", "b", "c", "d")); got != 90 {
		t.Fatalf("expected doubles duration, got %d", got)
	}
}

func TestServableEntriesFirstTwo(t *testing.T) {
	now := testfixtures.ReferenceTime()
	courts := testfixtures.EmptyCourts(2)
	entries := []domain.WaitlistEntry{
		testfixtures.WaitlistEntry("w1", testfixtures.Players("Ada"), now.Add(-time.Hour)),
		testfixtures.WaitlistEntry("w2", testfixtures.Players("Grace"), now.Add(-30*time.Minute)),
	}

	offers := ServableEntries(entries, courts, nil, now, testPolicy())
	if len(offers) != 2 || offers[0].Position != 1 || offers[1].Position != 2 {
		t.Fatalf("expected both entries servable, got %+v", offers)
	}
	if offers[0].PassThrough || offers[1].PassThrough {
		t.Fatalf("in-order offers are not pass-through: %+v", offers)
	}
}

func TestServableEntriesSecondNeedsRemainingCourt(t *testing.T) {
	now := testfixtures.ReferenceTime()
	courts := testfixtures.EmptyCourts(1)
	entries := []domain.WaitlistEntry{
		testfixtures.WaitlistEntry("w1", testfixtures.Players("Ada"), now.Add(-time.Hour)),
		testfixtures.WaitlistEntry("w2", testfixtures.Players("Grace"), now.Add(-30*time.Minute)),
	}

	offers := ServableEntries(entries, courts, nil, now, testPolicy())
	if len(offers) != 1 || offers[0].Entry.ID != "w1" {
		t.Fatalf("one court serves only the first entry, got %+v", offers)
	}
}

func TestServableEntriesDoublesSkipsSinglesOnlyCourt(t *testing.T) {
	now := testfixtures.ReferenceTime()
	// Court 1 is singles-only and the only selectable court.
	courts := testfixtures.EmptyCourts(1)
	doubles := testfixtures.WaitlistEntry("w1", testfixtures.Players("a", "b", "c", "d"), now.Add(-time.Hour))
	singles := testfixtures.WaitlistEntry("w2", testfixtures.Players("Ada"), now.Add(-30*time.Minute))

	offers := ServableEntries([]domain.WaitlistEntry{doubles, singles}, courts, nil, now, testPolicy())
	if len(offers) != 1 || offers[0].Entry.ID != "w2" {
		t.Fatalf("expected the singles entry at position 2, got %+v", offers)
	}
}

func TestServableEntriesPassThrough(t *testing.T) {
	now := testfixtures.ReferenceTime()
	courts := testfixtures.EmptyCourts(1)
	entries := []domain.WaitlistEntry{
		testfixtures.WaitlistEntry("w1", testfixtures.Players("a", "b", "c", "d"), now.Add(-time.Hour)),
		testfixtures.WaitlistEntry("w2", testfixtures.Players("e", "f", "g", "h"), now.Add(-45*time.Minute)),
		testfixtures.WaitlistEntry("w3", testfixtures.Players("Ada"), now.Add(-30*time.Minute)),
	}

	offers := ServableEntries(entries, courts, nil, now, testPolicy())
	if len(offers) != 1 || offers[0].Entry.ID != "w3" || !offers[0].PassThrough {
		t.Fatalf("expected pass-through offer for w3, got %+v", offers)
	}
	if offers[0].Position != 3 {
		t.Fatalf("pass-through keeps the original position, got %d", offers[0].Position)
	}
}

func TestServableEntriesDeferredHoldsOutForFullSession(t *testing.T) {
	now := testfixtures.ReferenceTime()
	courts := testfixtures.EmptyCourts(2)
	deferred := testfixtures.WaitlistEntry("w1", testfixtures.Players("Ada"), now.Add(-time.Hour))
	deferred.Deferred = true

	// Court 2 offers a full uninterrupted hour, so the deferred entry waits.
	offers := ServableEntries([]domain.WaitlistEntry{deferred}, courts, nil, now, testPolicy())
	if len(offers) != 0 {
		t.Fatalf("deferred entry must hold out while a full session exists, got %+v", offers)
	}

	// Blocks shorten every court below the session duration; holding out is
	// now pointless and the entry becomes servable.
	blks := []domain.Block{
		testfixtures.Block("b1", 1, now.Add(40*time.Minute), now.Add(3*time.Hour), "maintenance"),
		testfixtures.Block("b2", 2, now.Add(40*time.Minute), now.Add(3*time.Hour), "maintenance"),
	}
	offers = ServableEntries([]domain.WaitlistEntry{deferred}, courts, blks, now, testPolicy())
	if len(offers) != 1 || offers[0].Entry.ID != "w1" {
		t.Fatalf("deferred entry is servable once no full session exists, got %+v", offers)
	}
}

func TestServableEntriesNoSelectableCourts(t *testing.T) {
	now := testfixtures.ReferenceTime()
	courts := testfixtures.EmptyCourts(1)
	courts[0].Session = testfixtures.Session("s1", testfixtures.Players("Ada"), now.Add(-10*time.Minute), 60)
	entries := []domain.WaitlistEntry{testfixtures.WaitlistEntry("w1", testfixtures.Players("Grace"), now.Add(-time.Hour))}

	if offers := ServableEntries(entries, courts, nil, now, testPolicy()); offers != nil {
		t.Fatalf("no selectable courts means no offers, got %+v", offers)
	}
}
