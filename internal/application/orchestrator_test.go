package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/courtboard/internal/domain"
	"github.com/example/courtboard/internal/persistence"
	"github.com/example/courtboard/internal/roster"
	"github.com/example/courtboard/internal/testfixtures"
)

type gatewayStub struct {
	snap         persistence.Snapshot
	snapshotErr  error
	applyErr     error
	applyErrOnce bool
	applyCalls   int
}

func (g *gatewayStub) Snapshot(ctx context.Context) (persistence.Snapshot, error) {
	if g.snapshotErr != nil {
		return persistence.Snapshot{}, g.snapshotErr
	}
	return g.snap.Clone(), nil
}

func (g *gatewayStub) Apply(ctx context.Context, base int64, next persistence.Snapshot) (int64, error) {
	g.applyCalls++
	if g.applyErr != nil {
		err := g.applyErr
		if g.applyErrOnce {
			g.applyErr = nil
		}
		return 0, err
	}
	if base != g.snap.Version {
		return 0, persistence.ErrConflict
	}
	next.Version = base + 1
	g.snap = next
	return next.Version, nil
}

type directoryStub struct {
	members []roster.Member
	added   []roster.Member
	err     error
}

func (d *directoryStub) ListMembers(ctx context.Context) ([]roster.Member, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.members, nil
}

func (d *directoryStub) AddMember(ctx context.Context, member roster.Member) error {
	if d.err != nil {
		return d.err
	}
	d.added = append(d.added, member)
	return nil
}

func newTestOrchestrator(t *testing.T, courts int) (*Orchestrator, *gatewayStub, *testfixtures.Clock) {
	t.Helper()
	gateway := &gatewayStub{snap: testfixtures.Snapshot(testfixtures.EmptyCourts(courts))}
	clock := testfixtures.NewClock(time.Time{})
	ids := testfixtures.NewIDGenerator("id")
	orch := NewOrchestrator(gateway, &directoryStub{}, nil, nil, Settings{
		CourtCount:     courts,
		SinglesMinutes: 60,
		DoublesMinutes: 90,
		AvgGameMinutes: 75,
	}, ids.NextFunc(), clock.NowFunc(), nil)
	return orch, gateway, clock
}

func TestAssignCourtRejectsInvalidCourt(t *testing.T) {
	orch, gateway, _ := newTestOrchestrator(t, 2)

	_, err := orch.AssignCourt(context.Background(), 5, testfixtures.Players("Ada"), AssignOptions{})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if gateway.applyCalls != 0 {
		t.Fatalf("validation failures must not touch the store, got %d applies", gateway.applyCalls)
	}
}

func TestAssignCourtRejectsEmptyGroup(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, 2)
	_, err := orch.AssignCourt(context.Background(), 1, nil, AssignOptions{})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAssignCourtDefaultsDurationByGroupSize(t *testing.T) {
	orch, gateway, clock := newTestOrchestrator(t, 2)
	now := clock.Now()

	result, err := orch.AssignCourt(context.Background(), 1, testfixtures.Players("Ada"), AssignOptions{})
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if !result.Session.End.Equal(now.Add(60 * time.Minute)) {
		t.Fatalf("singles default is 60 minutes, got end %v", result.Session.End)
	}

	result, err = orch.AssignCourt(context.Background(), 2, testfixtures.Players("a", "b", "c", "d"), AssignOptions{})
	if err != nil {
		t.Fatalf("doubles assign failed: %v", err)
	}
	if !result.Session.End.Equal(now.Add(90 * time.Minute)) {
		t.Fatalf("doubles default is 90 minutes, got end %v", result.Session.End)
	}
	if gateway.snap.Courts[0].Session == nil || gateway.snap.Courts[1].Session == nil {
		t.Fatal("both sessions should be stored")
	}
}

func TestAssignThenClearRoundTrip(t *testing.T) {
	orch, gateway, clock := newTestOrchestrator(t, 2)

	if _, err := orch.AssignCourt(context.Background(), 1, testfixtures.Players("Ada", "Grace"), AssignOptions{}); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	clock.Advance(20 * time.Minute)

	result, err := orch.ClearCourt(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if result.Archived.ClearReason != ClearReasonDefault {
		t.Fatalf("expected default reason, got %q", result.Archived.ClearReason)
	}
	if !result.Archived.End.Equal(clock.Now()) {
		t.Fatalf("an early clear foreshortens the session to now, got %v", result.Archived.End)
	}

	court := gateway.snap.Courts[0]
	if court.Session != nil {
		t.Fatal("court should be empty after clear")
	}
	if len(court.History) != 1 {
		t.Fatalf("expected exactly one history entry, got %d", len(court.History))
	}
	if len(gateway.snap.RecentlyCleared) != 1 {
		t.Fatalf("an early clear records a recently-cleared entry, got %d", len(gateway.snap.RecentlyCleared))
	}
}

func TestClearCourtWithoutSession(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, 1)
	_, err := orch.ClearCourt(context.Background(), 1, "")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error for empty court, got %v", err)
	}
}

func TestEarlyReuseKeepsOriginalEnd(t *testing.T) {
	orch, _, clock := newTestOrchestrator(t, 2)
	start := clock.Now()

	// Assign at 10:00 for 60 minutes, clear at 10:10, re-register the same
	// group at 10:15. The new session must end at the original 11:00.
	if _, err := orch.AssignCourt(context.Background(), 1, testfixtures.Players("Ada", "Grace"), AssignOptions{}); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	clock.Advance(10 * time.Minute)
	if _, err := orch.ClearCourt(context.Background(), 1, ""); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	clock.Advance(5 * time.Minute)

	result, err := orch.AssignCourt(context.Background(), 2, testfixtures.Players("Ada", "Grace"), AssignOptions{})
	if err != nil {
		t.Fatalf("re-assign failed: %v", err)
	}
	if !result.TimeLimited {
		t.Fatal("early reuse must mark the session time limited")
	}
	if !result.Session.End.Equal(start.Add(60 * time.Minute)) {
		t.Fatalf("expected the original end %v, got %v", start.Add(60*time.Minute), result.Session.End)
	}
}

func TestEarlyReuseRequiresExactGroup(t *testing.T) {
	orch, _, clock := newTestOrchestrator(t, 2)

	if _, err := orch.AssignCourt(context.Background(), 1, testfixtures.Players("Ada", "Grace"), AssignOptions{}); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	clock.Advance(10 * time.Minute)
	if _, err := orch.ClearCourt(context.Background(), 1, ""); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	// A partial overlap gets a fresh full duration.
	result, err := orch.AssignCourt(context.Background(), 2, testfixtures.Players("Ada", "Barbara"), AssignOptions{})
	if err != nil {
		t.Fatalf("re-assign failed: %v", err)
	}
	if result.TimeLimited {
		t.Fatal("a different group must not inherit the cleared session's end")
	}
	if !result.Session.End.Equal(clock.Now().Add(60 * time.Minute)) {
		t.Fatalf("expected a fresh duration, got end %v", result.Session.End)
	}
}

func TestEarlyReuseExpiresWithOriginalEnd(t *testing.T) {
	orch, gateway, clock := newTestOrchestrator(t, 2)

	if _, err := orch.AssignCourt(context.Background(), 1, testfixtures.Players("Ada"), AssignOptions{}); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	clock.Advance(10 * time.Minute)
	if _, err := orch.ClearCourt(context.Background(), 1, ""); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	// Past the original end the entry is pruned and a new registration gets a
	// full session again.
	clock.Advance(60 * time.Minute)
	result, err := orch.AssignCourt(context.Background(), 1, testfixtures.Players("Ada"), AssignOptions{})
	if err != nil {
		t.Fatalf("re-assign failed: %v", err)
	}
	if result.TimeLimited {
		t.Fatal("an expired recently-cleared entry must not limit the session")
	}
	if len(gateway.snap.RecentlyCleared) != 0 {
		t.Fatalf("expired entries should be pruned, got %d", len(gateway.snap.RecentlyCleared))
	}
}

func TestAssignDisplacesOccupant(t *testing.T) {
	orch, gateway, clock := newTestOrchestrator(t, 1)

	first, err := orch.AssignCourt(context.Background(), 1, testfixtures.Players("Ada", "Grace"), AssignOptions{})
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	clock.Advance(70 * time.Minute)

	second, err := orch.AssignCourt(context.Background(), 1, testfixtures.Players("Alan", "Edsger"), AssignOptions{})
	if err != nil {
		t.Fatalf("takeover failed: %v", err)
	}
	if second.Displacement == nil {
		t.Fatal("expected a displacement record")
	}
	if second.Displacement.DisplacedSessionID != first.Session.ID {
		t.Fatalf("displacement names the wrong session: %+v", second.Displacement)
	}
	if len(second.ReplacedGroup) != 2 {
		t.Fatalf("expected the bumped group, got %+v", second.ReplacedGroup)
	}

	history := gateway.snap.Courts[0].History
	if len(history) != 1 || history[0].ClearReason != ClearReasonBumped {
		t.Fatalf("displaced sessions archive as bumped, got %+v", history)
	}
}

func TestUndoOvertimeTakeoverRestores(t *testing.T) {
	orch, gateway, clock := newTestOrchestrator(t, 1)

	first, err := orch.AssignCourt(context.Background(), 1, testfixtures.Players("Ada"), AssignOptions{})
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	clock.Advance(70 * time.Minute)
	second, err := orch.AssignCourt(context.Background(), 1, testfixtures.Players("Alan"), AssignOptions{})
	if err != nil {
		t.Fatalf("takeover failed: %v", err)
	}

	result, err := orch.UndoOvertimeTakeover(context.Background(), second.Session.ID, first.Session.ID)
	if err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if result.FellBack {
		t.Fatal("an uncontended undo must not fall back")
	}
	if result.Restored == nil || result.Restored.ID != first.Session.ID {
		t.Fatalf("expected the displaced session restored, got %+v", result.Restored)
	}

	court := gateway.snap.Courts[0]
	if court.Session == nil || court.Session.ID != first.Session.ID {
		t.Fatalf("court should hold the restored session, got %+v", court.Session)
	}
	if len(court.History) != 0 {
		t.Fatalf("the bumped history entry should be consumed, got %+v", court.History)
	}
}

func TestUndoOvertimeTakeoverFallsBackOnConflict(t *testing.T) {
	orch, gateway, clock := newTestOrchestrator(t, 1)

	first, err := orch.AssignCourt(context.Background(), 1, testfixtures.Players("Ada"), AssignOptions{})
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	clock.Advance(70 * time.Minute)
	second, err := orch.AssignCourt(context.Background(), 1, testfixtures.Players("Alan"), AssignOptions{})
	if err != nil {
		t.Fatalf("takeover failed: %v", err)
	}

	// Force the first apply to lose the race; the fallback clear against the
	// fresh snapshot must still succeed.
	gateway.applyErr = persistence.ErrConflict
	gateway.applyErrOnce = true

	result, err := orch.UndoOvertimeTakeover(context.Background(), second.Session.ID, first.Session.ID)
	if err != nil {
		t.Fatalf("undo fallback failed: %v", err)
	}
	if !result.FellBack {
		t.Fatal("expected the undo to degrade to a clear")
	}
	if result.Restored != nil {
		t.Fatalf("a fallback restores nothing, got %+v", result.Restored)
	}

	court := gateway.snap.Courts[0]
	if court.Session != nil {
		t.Fatalf("the takeover session should be cleared, got %+v", court.Session)
	}
	last := court.History[len(court.History)-1]
	if last.ID != second.Session.ID || last.ClearReason != ClearReasonBumped {
		t.Fatalf("the takeover session archives as bumped, got %+v", last)
	}
}

func TestUndoOvertimeTakeoverUnknownSession(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, 1)
	if _, err := orch.UndoOvertimeTakeover(context.Background(), "ghost", "also-ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMoveCourt(t *testing.T) {
	orch, gateway, _ := newTestOrchestrator(t, 2)

	assigned, err := orch.AssignCourt(context.Background(), 1, testfixtures.Players("Ada"), AssignOptions{})
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if err := orch.MoveCourt(context.Background(), 1, 2); err != nil {
		t.Fatalf("move failed: %v", err)
	}
	if gateway.snap.Courts[0].Session != nil {
		t.Fatal("source court should be empty")
	}
	if got := gateway.snap.Courts[1].Session; got == nil || got.ID != assigned.Session.ID {
		t.Fatalf("destination court should hold the session, got %+v", got)
	}

	var vErr *ValidationError
	if err := orch.MoveCourt(context.Background(), 2, 2); !errors.As(err, &vErr) {
		t.Fatalf("expected validation error for same court, got %v", err)
	}
	if err := orch.MoveCourt(context.Background(), 1, 2); !errors.As(err, &vErr) {
		t.Fatalf("expected validation error for empty source, got %v", err)
	}
}

func TestJoinWaitlistRefusedWhileCourtFree(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, 2)
	_, err := orch.JoinWaitlist(context.Background(), testfixtures.Players("Ada"), 0, false)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error while a court is free, got %v", err)
	}
}

func fillCourts(t *testing.T, orch *Orchestrator, count int) {
	t.Helper()
	names := []string{"P1", "P2", "P3", "P4", "P5", "P6", "P7", "P8"}
	for i := 1; i <= count; i++ {
		if _, err := orch.AssignCourt(context.Background(), i, testfixtures.Players(names[i-1]), AssignOptions{}); err != nil {
			t.Fatalf("filling court %d: %v", i, err)
		}
	}
}

func TestJoinWaitlistDetectsConflicts(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, 1)
	fillCourts(t, orch, 1)

	_, err := orch.JoinWaitlist(context.Background(), testfixtures.Players("P1"), 0, false)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected conflict validation error, got %v", err)
	}
}

func TestJoinLeaveReorderWaitlist(t *testing.T) {
	orch, gateway, _ := newTestOrchestrator(t, 1)
	fillCourts(t, orch, 1)

	first, err := orch.JoinWaitlist(context.Background(), testfixtures.Players("Ada"), 0, false)
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	second, err := orch.JoinWaitlist(context.Background(), testfixtures.Players("Grace"), 1, true)
	if err != nil {
		t.Fatalf("second join failed: %v", err)
	}

	if err := orch.ReorderWaitlist(context.Background(), []string{second.ID, first.ID}); err != nil {
		t.Fatalf("reorder failed: %v", err)
	}
	if gateway.snap.Waitlist[0].ID != second.ID {
		t.Fatalf("expected %s first after reorder, got %s", second.ID, gateway.snap.Waitlist[0].ID)
	}

	if err := orch.ReorderWaitlist(context.Background(), []string{first.ID}); err == nil {
		t.Fatal("a partial order must be rejected")
	}
	if err := orch.ReorderWaitlist(context.Background(), []string{first.ID, "ghost"}); err == nil {
		t.Fatal("unknown ids must be rejected")
	}

	if err := orch.LeaveWaitlist(context.Background(), first.ID); err != nil {
		t.Fatalf("leave failed: %v", err)
	}
	if len(gateway.snap.Waitlist) != 1 {
		t.Fatalf("expected one remaining entry, got %d", len(gateway.snap.Waitlist))
	}
	if err := orch.LeaveWaitlist(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetWaitlistDeferred(t *testing.T) {
	orch, gateway, _ := newTestOrchestrator(t, 1)
	fillCourts(t, orch, 1)

	entry, err := orch.JoinWaitlist(context.Background(), testfixtures.Players("Ada"), 0, false)
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	applies := gateway.applyCalls

	if err := orch.SetWaitlistDeferred(context.Background(), entry.ID, true); err != nil {
		t.Fatalf("set deferred failed: %v", err)
	}
	if !gateway.snap.Waitlist[0].Deferred {
		t.Fatal("entry should be deferred")
	}
	// Setting the flag to its current value is a no-op apply-wise.
	if err := orch.SetWaitlistDeferred(context.Background(), entry.ID, true); err != nil {
		t.Fatalf("idempotent set failed: %v", err)
	}
	if gateway.applyCalls != applies+1 {
		t.Fatalf("expected one apply, got %d", gateway.applyCalls-applies)
	}
}

func TestAssignFromWaitlistIsAtomic(t *testing.T) {
	orch, gateway, clock := newTestOrchestrator(t, 1)
	fillCourts(t, orch, 1)

	entry, err := orch.JoinWaitlist(context.Background(), testfixtures.Players("Ada", "Grace"), 0, false)
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	clock.Advance(70 * time.Minute)
	applies := gateway.applyCalls

	result, err := orch.AssignFromWaitlist(context.Background(), entry.ID, 1)
	if err != nil {
		t.Fatalf("assign from waitlist failed: %v", err)
	}
	if gateway.applyCalls != applies+1 {
		t.Fatalf("removal and assignment must share one apply, got %d", gateway.applyCalls-applies)
	}
	if len(gateway.snap.Waitlist) != 0 {
		t.Fatalf("entry should be gone, got %d", len(gateway.snap.Waitlist))
	}
	if got := gateway.snap.Courts[0].Session; got == nil || got.ID != result.Session.ID {
		t.Fatalf("court should hold the new session, got %+v", got)
	}
	if result.Displacement == nil {
		t.Fatal("seating over the overtime occupant records a displacement")
	}

	if _, err := orch.AssignFromWaitlist(context.Background(), "ghost", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAssignRemovesPlayersFromWaitlist(t *testing.T) {
	orch, gateway, clock := newTestOrchestrator(t, 1)
	fillCourts(t, orch, 1)

	if _, err := orch.JoinWaitlist(context.Background(), testfixtures.Players("Ada", "Grace"), 0, false); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	clock.Advance(70 * time.Minute)

	// Ada registers directly; she must disappear from the queued entry while
	// Grace stays behind.
	if _, err := orch.AssignCourt(context.Background(), 1, testfixtures.Players("Ada"), AssignOptions{}); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if len(gateway.snap.Waitlist) != 1 {
		t.Fatalf("expected the entry to survive, got %d entries", len(gateway.snap.Waitlist))
	}
	remaining := gateway.snap.Waitlist[0].Players
	if len(remaining) != 1 || remaining[0].Name != "Grace" {
		t.Fatalf("expected only Grace queued, got %+v", remaining)
	}
}

func TestAddRemoveBlocks(t *testing.T) {
	orch, gateway, clock := newTestOrchestrator(t, 2)
	now := clock.Now()

	block, err := orch.AddBlock(context.Background(), BlockInput{
		CourtNumber: 1,
		Start:       now.Add(time.Hour),
		End:         now.Add(2 * time.Hour),
		Reason:      "junior clinic",
	})
	if err != nil {
		t.Fatalf("add block failed: %v", err)
	}
	if len(gateway.snap.Blocks) != 1 {
		t.Fatalf("expected one stored block, got %d", len(gateway.snap.Blocks))
	}

	var vErr *ValidationError
	if _, err := orch.AddBlock(context.Background(), BlockInput{CourtNumber: 1, Start: now.Add(time.Hour), End: now}); !errors.As(err, &vErr) {
		t.Fatalf("expected validation error for inverted window, got %v", err)
	}
	if _, err := orch.AddBlock(context.Background(), BlockInput{CourtNumber: 1, Start: now, End: now.Add(time.Hour)}); !errors.As(err, &vErr) {
		t.Fatalf("expected validation error for missing reason, got %v", err)
	}

	if err := orch.RemoveBlock(context.Background(), block.ID); err != nil {
		t.Fatalf("remove block failed: %v", err)
	}
	if err := orch.RemoveBlock(context.Background(), block.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWetCourtBlockDefaultsReason(t *testing.T) {
	orch, _, clock := newTestOrchestrator(t, 1)
	now := clock.Now()

	block, err := orch.AddBlock(context.Background(), BlockInput{
		CourtNumber: 1,
		Start:       now,
		End:         now.Add(2 * time.Hour),
		WetCourt:    true,
	})
	if err != nil {
		t.Fatalf("wet block failed: %v", err)
	}
	if block.Reason != "WET COURT" {
		t.Fatalf("expected wet-court reason, got %q", block.Reason)
	}
}

func TestClearWetCourts(t *testing.T) {
	orch, gateway, clock := newTestOrchestrator(t, 2)
	now := clock.Now()

	if _, err := orch.AddBlock(context.Background(), BlockInput{CourtNumber: 1, Start: now, End: now.Add(time.Hour), WetCourt: true}); err != nil {
		t.Fatalf("wet block failed: %v", err)
	}
	if _, err := orch.AddBlock(context.Background(), BlockInput{CourtNumber: 2, Start: now, End: now.Add(time.Hour), Reason: "clinic"}); err != nil {
		t.Fatalf("block failed: %v", err)
	}
	applies := gateway.applyCalls

	removed, err := orch.ClearWetCourts(context.Background())
	if err != nil {
		t.Fatalf("clear wet failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected one wet block removed, got %d", removed)
	}
	if len(gateway.snap.Blocks) != 1 || gateway.snap.Blocks[0].WetCourt {
		t.Fatalf("only the non-wet block should remain, got %+v", gateway.snap.Blocks)
	}

	// A second sweep has nothing to remove and must not write.
	removed, err = orch.ClearWetCourts(context.Background())
	if err != nil || removed != 0 {
		t.Fatalf("expected a no-op sweep, got %d/%v", removed, err)
	}
	if gateway.applyCalls != applies+1 {
		t.Fatalf("a no-op sweep must not apply, got %d applies", gateway.applyCalls-applies)
	}
}

func TestVersionConflictSurfacesAsErrConflict(t *testing.T) {
	orch, gateway, _ := newTestOrchestrator(t, 1)
	gateway.applyErr = persistence.ErrConflict

	_, err := orch.AssignCourt(context.Background(), 1, testfixtures.Players("Ada"), AssignOptions{})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestAssignEnrichesFromDirectory(t *testing.T) {
	gateway := &gatewayStub{snap: testfixtures.Snapshot(testfixtures.EmptyCourts(1))}
	directory := &directoryStub{members: []roster.Member{{Name: "Ada Lovelace", MemberID: "m1"}}}
	clock := testfixtures.NewClock(time.Time{})
	ids := testfixtures.NewIDGenerator("id")
	orch := NewOrchestrator(gateway, directory, nil, nil, Settings{CourtCount: 1, SinglesMinutes: 60, DoublesMinutes: 90}, ids.NextFunc(), clock.NowFunc(), nil)

	result, err := orch.AssignCourt(context.Background(), 1, []domain.Player{{Name: "ada lovelace"}, {Name: "Someone Else"}}, AssignOptions{})
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if result.Session.Players[0].MemberID != "m1" {
		t.Fatalf("expected directory enrichment, got %+v", result.Session.Players[0])
	}
	if result.Session.Players[1].ID == "" {
		t.Fatal("unmatched players get a derived id")
	}
}
