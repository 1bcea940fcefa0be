package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/courtboard/internal/courtstate"
	"github.com/example/courtboard/internal/domain"
	"github.com/example/courtboard/internal/events"
	"github.com/example/courtboard/internal/roster"
)

// JoinWaitlist queues a group. Joining is refused while a court is free for
// direct registration, and no player may already be seated or queued.
func (o *Orchestrator) JoinWaitlist(ctx context.Context, group []domain.Player, guests int, deferred bool) (domain.WaitlistEntry, error) {
	if o == nil || o.store == nil {
		return domain.WaitlistEntry{}, fmt.Errorf("orchestrator not configured")
	}
	if err := o.validateGroup(group); err != nil {
		return domain.WaitlistEntry{}, err
	}
	if guests < 0 {
		return domain.WaitlistEntry{}, validationError("guests", "guest count cannot be negative")
	}

	snap, err := o.store.Snapshot(ctx)
	if err != nil {
		return domain.WaitlistEntry{}, mapRepoError(err)
	}
	now := o.now()

	if !courtstate.ShouldAllowWaitlistJoin(snap.Courts, snap.Blocks, now) {
		return domain.WaitlistEntry{}, validationError("waitlist", "a court is free; register directly instead of queueing")
	}

	group = o.enrich(ctx, group)
	conflicts := roster.CheckGroupConflicts(roster.State{Courts: snap.Courts, Waitlist: snap.Waitlist}, group)
	if conflicts.HasAny() {
		return domain.WaitlistEntry{}, validationError("players", describeConflicts(conflicts))
	}

	entry := domain.WaitlistEntry{
		ID:       o.idGenerator(),
		Players:  domain.ClonePlayers(group),
		Guests:   guests,
		JoinedAt: now,
		Deferred: deferred,
	}
	next := snap.Clone()
	next.Waitlist = append(next.Waitlist, entry)

	version, err := o.apply(ctx, "waitlist-join", snap.Version, next)
	if err != nil {
		return domain.WaitlistEntry{}, err
	}
	o.recorder.RecordWaitlistJoin()
	o.publish(version, events.TopicWaitlistChanged)
	o.opLogger(ctx, "JoinWaitlist").InfoContext(ctx, "group queued", "entry", entry.ID, "players", len(group), "deferred", deferred)
	return entry, nil
}

// LeaveWaitlist removes an entry by id.
func (o *Orchestrator) LeaveWaitlist(ctx context.Context, entryID string) error {
	if o == nil || o.store == nil {
		return fmt.Errorf("orchestrator not configured")
	}
	snap, err := o.store.Snapshot(ctx)
	if err != nil {
		return mapRepoError(err)
	}
	next := snap.Clone()

	idx := -1
	for i, entry := range next.Waitlist {
		if entry.ID == entryID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotFound
	}
	next.Waitlist = append(next.Waitlist[:idx], next.Waitlist[idx+1:]...)

	version, err := o.apply(ctx, "waitlist-leave", snap.Version, next)
	if err != nil {
		return err
	}
	o.publish(version, events.TopicWaitlistChanged)
	o.opLogger(ctx, "LeaveWaitlist").InfoContext(ctx, "entry removed", "entry", entryID)
	return nil
}

// ReorderWaitlist rewrites the queue order. The id list must be a
// permutation of the current entries.
func (o *Orchestrator) ReorderWaitlist(ctx context.Context, orderedIDs []string) error {
	if o == nil || o.store == nil {
		return fmt.Errorf("orchestrator not configured")
	}
	snap, err := o.store.Snapshot(ctx)
	if err != nil {
		return mapRepoError(err)
	}
	if len(orderedIDs) != len(snap.Waitlist) {
		return validationError("order", "order must list every waitlist entry exactly once")
	}
	byID := make(map[string]domain.WaitlistEntry, len(snap.Waitlist))
	for _, entry := range snap.Waitlist {
		byID[entry.ID] = entry
	}
	reordered := make([]domain.WaitlistEntry, 0, len(orderedIDs))
	for _, id := range orderedIDs {
		entry, ok := byID[id]
		if !ok {
			return validationError("order", fmt.Sprintf("unknown waitlist entry: %s", id))
		}
		delete(byID, id)
		reordered = append(reordered, entry)
	}

	next := snap.Clone()
	next.Waitlist = reordered

	version, err := o.apply(ctx, "waitlist-reorder", snap.Version, next)
	if err != nil {
		return err
	}
	o.publish(version, events.TopicWaitlistChanged)
	o.opLogger(ctx, "ReorderWaitlist").InfoContext(ctx, "waitlist reordered", "entries", len(orderedIDs))
	return nil
}

// SetWaitlistDeferred toggles an entry's preference to hold out for a
// full-duration court.
func (o *Orchestrator) SetWaitlistDeferred(ctx context.Context, entryID string, deferred bool) error {
	if o == nil || o.store == nil {
		return fmt.Errorf("orchestrator not configured")
	}
	snap, err := o.store.Snapshot(ctx)
	if err != nil {
		return mapRepoError(err)
	}
	next := snap.Clone()

	idx := -1
	for i, entry := range next.Waitlist {
		if entry.ID == entryID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotFound
	}
	if next.Waitlist[idx].Deferred == deferred {
		return nil
	}
	next.Waitlist[idx].Deferred = deferred

	version, err := o.apply(ctx, "waitlist-deferred", snap.Version, next)
	if err != nil {
		return err
	}
	o.publish(version, events.TopicWaitlistChanged)
	return nil
}

func describeConflicts(conflicts roster.Conflicts) string {
	parts := make([]string, 0, len(conflicts.Playing)+len(conflicts.Waiting))
	for _, p := range conflicts.Playing {
		parts = append(parts, fmt.Sprintf("%s is playing on court %d", p.Name, p.Court))
	}
	for _, w := range conflicts.Waiting {
		parts = append(parts, fmt.Sprintf("%s is already waiting at position %d", w.Name, w.Position))
	}
	return strings.Join(parts, "; ")
}
