package application

import (
	"context"
	"fmt"

	"github.com/example/courtboard/internal/blocks"
	"github.com/example/courtboard/internal/domain"
	"github.com/example/courtboard/internal/events"
)

// AddBlock creates an admin block on a court. Overlapping blocks are
// allowed; read-time priority resolution sorts them out.
func (o *Orchestrator) AddBlock(ctx context.Context, input BlockInput) (domain.Block, error) {
	if o == nil || o.store == nil {
		return domain.Block{}, fmt.Errorf("orchestrator not configured")
	}
	if err := o.validateCourtNumber(input.CourtNumber); err != nil {
		return domain.Block{}, err
	}
	vErr := &ValidationError{}
	if input.Start.IsZero() {
		vErr.add("start", "start is required")
	}
	if input.End.IsZero() {
		vErr.add("end", "end is required")
	}
	if !input.Start.IsZero() && !input.End.IsZero() && !input.Start.Before(input.End) {
		vErr.add("time", "start must be before end")
	}
	if input.Reason == "" && !input.WetCourt {
		vErr.add("reason", "reason is required")
	}
	if vErr.HasErrors() {
		return domain.Block{}, vErr
	}

	reason := input.Reason
	if input.WetCourt && reason == "" {
		reason = blocks.WetCourtReason
	}

	snap, err := o.store.Snapshot(ctx)
	if err != nil {
		return domain.Block{}, mapRepoError(err)
	}
	block := domain.Block{
		ID:          o.idGenerator(),
		CourtNumber: input.CourtNumber,
		Start:       input.Start,
		End:         input.End,
		Reason:      reason,
		WetCourt:    input.WetCourt,
		CreatedAt:   o.now(),
	}
	next := snap.Clone()
	next.Blocks = append(next.Blocks, block)

	version, err := o.apply(ctx, "block-add", snap.Version, next)
	if err != nil {
		return domain.Block{}, err
	}
	o.publish(version, events.TopicBlocksChanged)
	o.opLogger(ctx, "AddBlock").InfoContext(ctx, "block created",
		"court", block.CourtNumber, "reason", block.Reason, "wet", block.WetCourt)
	return block, nil
}

// RemoveBlock deletes a single block by id.
func (o *Orchestrator) RemoveBlock(ctx context.Context, blockID string) error {
	if o == nil || o.store == nil {
		return fmt.Errorf("orchestrator not configured")
	}
	snap, err := o.store.Snapshot(ctx)
	if err != nil {
		return mapRepoError(err)
	}

	idx := -1
	for i, block := range snap.Blocks {
		if block.ID == blockID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotFound
	}
	next := snap.Clone()
	next.Blocks = append(next.Blocks[:idx], next.Blocks[idx+1:]...)

	version, err := o.apply(ctx, "block-remove", snap.Version, next)
	if err != nil {
		return err
	}
	o.publish(version, events.TopicBlocksChanged)
	o.opLogger(ctx, "RemoveBlock").InfoContext(ctx, "block removed", "block", blockID)
	return nil
}

// ClearWetCourts removes every wet-court block: the "all courts dry" admin
// action after rain. Non-wet blocks are untouched.
func (o *Orchestrator) ClearWetCourts(ctx context.Context) (int, error) {
	if o == nil || o.store == nil {
		return 0, fmt.Errorf("orchestrator not configured")
	}
	snap, err := o.store.Snapshot(ctx)
	if err != nil {
		return 0, mapRepoError(err)
	}

	next := snap.Clone()
	kept := next.Blocks[:0]
	removed := 0
	for _, block := range next.Blocks {
		if block.WetCourt {
			removed++
			continue
		}
		kept = append(kept, block)
	}
	if removed == 0 {
		return 0, nil
	}
	next.Blocks = kept

	version, err := o.apply(ctx, "blocks-dry", snap.Version, next)
	if err != nil {
		return 0, err
	}
	o.publish(version, events.TopicBlocksChanged)
	o.opLogger(ctx, "ClearWetCourts").InfoContext(ctx, "wet blocks cleared", "removed", removed)
	return removed, nil
}
