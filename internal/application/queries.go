package application

import (
	"context"
	"fmt"

	"github.com/example/courtboard/internal/blocks"
	"github.com/example/courtboard/internal/courtstate"
	"github.com/example/courtboard/internal/domain"
	"github.com/example/courtboard/internal/roster"
	"github.com/example/courtboard/internal/waitlist"
)

// CourtViews returns the classified state of every court.
func (o *Orchestrator) CourtViews(ctx context.Context) ([]courtstate.View, error) {
	snap, err := o.store.Snapshot(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return courtstate.Classify(snap.Courts, snap.Blocks, o.now()), nil
}

// SelectableCourts answers what the kiosk can offer right now.
func (o *Orchestrator) SelectableCourts(ctx context.Context) ([]domain.Court, error) {
	snap, err := o.store.Snapshot(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return courtstate.SelectableCourtsStrict(snap.Courts, snap.Blocks, o.now()), nil
}

// FreeCourtsInfo buckets courts into free/overtime/occupied for display.
func (o *Orchestrator) FreeCourtsInfo(ctx context.Context) (courtstate.Info, error) {
	snap, err := o.store.Snapshot(ctx)
	if err != nil {
		return courtstate.Info{}, mapRepoError(err)
	}
	return courtstate.FreeCourtsInfo(snap.Courts, snap.Blocks, o.now()), nil
}

// UpcomingBlockWarning reports whether an upcoming block restricts a session
// of the given duration on the court. Duration zero asks for any upcoming
// block for display.
func (o *Orchestrator) UpcomingBlockWarning(ctx context.Context, courtNumber, durationMinutes int) (*blocks.Warning, error) {
	if err := o.validateCourtNumber(courtNumber); err != nil {
		return nil, err
	}
	snap, err := o.store.Snapshot(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return blocks.UpcomingWarning(courtNumber, durationMinutes, snap.Blocks, o.now()), nil
}

// CourtHistory returns the archived sessions of a court, oldest first.
func (o *Orchestrator) CourtHistory(ctx context.Context, courtNumber int) ([]domain.ClearedSession, error) {
	if err := o.validateCourtNumber(courtNumber); err != nil {
		return nil, err
	}
	snap, err := o.store.Snapshot(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	idx, err := courtIndex(snap.Courts, courtNumber)
	if err != nil {
		return nil, err
	}
	return snap.Courts[idx].History, nil
}

// WaitlistViews lists the queue with recomputed positions and wait
// estimates.
func (o *Orchestrator) WaitlistViews(ctx context.Context) ([]WaitlistView, error) {
	snap, err := o.store.Snapshot(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	views := make([]WaitlistView, len(snap.Waitlist))
	for i, entry := range snap.Waitlist {
		views[i] = WaitlistView{
			Entry:           entry,
			Position:        i + 1,
			EstimateMinutes: o.estimateForSnapshot(snap.Version, i+1, snap.Courts, snap.Blocks),
		}
	}
	return views, nil
}

// EstimateWait estimates minutes until the given one-based waitlist position
// can expect a court. Results are cached per snapshot version.
func (o *Orchestrator) EstimateWait(ctx context.Context, position int) (int, error) {
	if position < 1 {
		return 0, validationError("position", "position must be at least 1")
	}
	snap, err := o.store.Snapshot(ctx)
	if err != nil {
		return 0, mapRepoError(err)
	}
	return o.estimateForSnapshot(snap.Version, position, snap.Courts, snap.Blocks), nil
}

func (o *Orchestrator) estimateForSnapshot(version int64, position int, courts []domain.Court, blks []domain.Block) int {
	key := fmt.Sprintf("%d:%d", version, position)
	if minutes, ok := o.estimates.Get(key); ok {
		return minutes
	}
	minutes := waitlist.EstimateWaitMinutes(position, courts, blks, o.now(), o.settings.AvgGameMinutes)
	o.recorder.RecordEstimate()
	o.estimates.Store(key, minutes)
	return minutes
}

// ServableOffers decides which waitlist entries can be called to a court
// right now under the deferred and pass-through policies.
func (o *Orchestrator) ServableOffers(ctx context.Context) ([]waitlist.Offer, error) {
	snap, err := o.store.Snapshot(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	policy := waitlist.Policy{
		SinglesMinutes:    o.settings.SinglesMinutes,
		DoublesMinutes:    o.settings.DoublesMinutes,
		SinglesOnlyCourts: o.settings.SinglesOnlyCourts,
		AvgGameMinutes:    o.settings.AvgGameMinutes,
	}
	return waitlist.ServableEntries(snap.Waitlist, snap.Courts, snap.Blocks, o.now(), policy), nil
}

// GroupConflicts reports where candidate players are already engaged.
func (o *Orchestrator) GroupConflicts(ctx context.Context, group []domain.Player) (roster.Conflicts, error) {
	snap, err := o.store.Snapshot(ctx)
	if err != nil {
		return roster.Conflicts{}, mapRepoError(err)
	}
	group = o.enrich(ctx, group)
	return roster.CheckGroupConflicts(roster.State{Courts: snap.Courts, Waitlist: snap.Waitlist}, group), nil
}

// Blocks lists all blocks in the snapshot.
func (o *Orchestrator) Blocks(ctx context.Context) ([]domain.Block, error) {
	snap, err := o.store.Snapshot(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return snap.Blocks, nil
}

// Members lists the club directory; empty when no directory is wired.
func (o *Orchestrator) Members(ctx context.Context) ([]roster.Member, error) {
	if o.directory == nil {
		return nil, nil
	}
	return o.directory.ListMembers(ctx)
}

// AddMember inserts a directory entry.
func (o *Orchestrator) AddMember(ctx context.Context, member roster.Member) error {
	if o.directory == nil {
		return fmt.Errorf("roster directory not configured")
	}
	vErr := &ValidationError{}
	if member.MemberID == "" {
		vErr.add("member_id", "member id is required")
	}
	if roster.NormalizeName(member.Name) == "" {
		vErr.add("name", "name is required")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return mapRepoError(o.directory.AddMember(ctx, member))
}
