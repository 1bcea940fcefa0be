// Package application hosts the stateful command layer of the scheduling
// core. The orchestrator owns all writes: every mutation reads a versioned
// snapshot, builds the next one without touching the original, and applies
// it through the persistence gateway, which detects concurrent writers.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/courtboard/internal/domain"
	"github.com/example/courtboard/internal/events"
	"github.com/example/courtboard/internal/metrics"
	"github.com/example/courtboard/internal/persistence"
	"github.com/example/courtboard/internal/roster"
	"github.com/example/courtboard/internal/waitlist"
)

// ClearReasonBumped archives sessions displaced by an overtime takeover.
const ClearReasonBumped = "Bumped"

// ClearReasonDefault archives sessions ended by an ordinary clear.
const ClearReasonDefault = "Cleared"

// Orchestrator executes assign/clear/move/undo operations against the
// snapshot gateway and notifies collaborators after successful mutations.
type Orchestrator struct {
	store       persistence.Gateway
	directory   persistence.RosterDirectory
	bus         *events.Bus
	recorder    *metrics.Recorder
	settings    Settings
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
	estimates   *estimateCache
}

// NewOrchestrator wires dependencies for scheduling operations. The roster
// directory and bus may be nil; identity enrichment and notifications are
// then disabled.
func NewOrchestrator(store persistence.Gateway, directory persistence.RosterDirectory, bus *events.Bus, recorder *metrics.Recorder, settings Settings, idGenerator func() string, now func() time.Time, logger *slog.Logger) *Orchestrator {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if settings.CourtCount <= 0 {
		settings.CourtCount = 12
	}
	if settings.SinglesMinutes <= 0 {
		settings.SinglesMinutes = 60
	}
	if settings.DoublesMinutes <= 0 {
		settings.DoublesMinutes = 90
	}
	if settings.AvgGameMinutes <= 0 {
		settings.AvgGameMinutes = waitlist.DefaultAvgGameMinutes
	}
	return &Orchestrator{
		store:       store,
		directory:   directory,
		bus:         bus,
		recorder:    recorder,
		settings:    settings,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
		estimates:   newEstimateCache(15*time.Second, 256),
	}
}

// AssignCourt registers a group on a court. An occupant that was never
// cleared is displaced: archived as bumped, with a displacement record
// returned so the takeover can be undone. If the exact same group cleared a
// court early and its original end time has not passed, the new session
// reuses that end time instead of a fresh full duration.
func (o *Orchestrator) AssignCourt(ctx context.Context, courtNumber int, group []domain.Player, opts AssignOptions) (AssignResult, error) {
	if o == nil || o.store == nil {
		return AssignResult{}, fmt.Errorf("orchestrator not configured")
	}
	if err := o.validateCourtNumber(courtNumber); err != nil {
		return AssignResult{}, err
	}
	if err := o.validateGroup(group); err != nil {
		return AssignResult{}, err
	}
	minutes := opts.Minutes
	if minutes == 0 {
		minutes = o.durationFor(group)
	}
	if err := o.validateMinutes(minutes); err != nil {
		return AssignResult{}, err
	}

	snap, err := o.store.Snapshot(ctx)
	if err != nil {
		return AssignResult{}, mapRepoError(err)
	}
	next := snap.Clone()

	result, topics, err := o.buildAssign(ctx, &next, courtNumber, group, minutes, opts)
	if err != nil {
		return AssignResult{}, err
	}

	version, err := o.apply(ctx, "assign", snap.Version, next)
	if err != nil {
		return AssignResult{}, err
	}

	o.recorder.RecordAssignment(result.Displacement != nil)
	o.publish(version, topics...)
	o.opLogger(ctx, "AssignCourt").InfoContext(ctx, "court assigned",
		"court", courtNumber, "players", len(group), "time_limited", result.TimeLimited,
		"displaced", result.Displacement != nil)
	return result, nil
}

// buildAssign mutates the candidate snapshot in place and reports what the
// assignment did. Shared by AssignCourt and AssignFromWaitlist so a
// waitlist-driven assignment stays a single atomic apply.
func (o *Orchestrator) buildAssign(ctx context.Context, next *persistence.Snapshot, courtNumber int, group []domain.Player, minutes int, opts AssignOptions) (AssignResult, []events.Topic, error) {
	now := o.now()
	idx, err := courtIndex(next.Courts, courtNumber)
	if err != nil {
		return AssignResult{}, nil, err
	}

	group = o.enrich(ctx, group)

	end := now.Add(time.Duration(minutes) * time.Minute)
	timeLimited := false
	pruneRecentlyCleared(next, now)
	if reuse := matchRecentlyCleared(next.RecentlyCleared, group, now); reuse != nil {
		end = reuse.OriginalEnd
		timeLimited = true
	}

	session := domain.Session{
		ID:          o.idGenerator(),
		Players:     domain.ClonePlayers(group),
		Guests:      opts.Guests,
		Start:       now,
		End:         end,
		Minutes:     minutes,
		AssignedAt:  now,
		TimeLimited: timeLimited,
	}

	result := AssignResult{Session: session, TimeLimited: timeLimited}
	court := &next.Courts[idx]
	if court.Session != nil {
		displaced := *court.Session
		court.History = append(court.History, domain.ClearedSession{
			Session:     displaced,
			ClearedAt:   now,
			ClearReason: ClearReasonBumped,
		})
		result.ReplacedGroup = domain.ClonePlayers(displaced.Players)
		result.Displacement = &domain.DisplacementRecord{
			DisplacedSessionID: displaced.ID,
			TakeoverSessionID:  session.ID,
		}
	}
	court.Session = &session

	topics := []events.Topic{events.TopicCourtsChanged}
	if removePlayersFromWaitlist(next, group) {
		topics = append(topics, events.TopicWaitlistChanged)
	}
	return result, topics, nil
}

// ClearCourt ends the court's current session. A session cleared before its
// natural end is foreshortened to now and logged in the recently-cleared
// list with its original end time, which drives the early-reuse rule.
func (o *Orchestrator) ClearCourt(ctx context.Context, courtNumber int, reason string) (ClearResult, error) {
	if o == nil || o.store == nil {
		return ClearResult{}, fmt.Errorf("orchestrator not configured")
	}
	if err := o.validateCourtNumber(courtNumber); err != nil {
		return ClearResult{}, err
	}
	if reason == "" {
		reason = ClearReasonDefault
	}

	snap, err := o.store.Snapshot(ctx)
	if err != nil {
		return ClearResult{}, mapRepoError(err)
	}
	next := snap.Clone()

	archived, err := o.buildClear(&next, courtNumber, reason)
	if err != nil {
		return ClearResult{}, err
	}

	version, err := o.apply(ctx, "clear", snap.Version, next)
	if err != nil {
		return ClearResult{}, err
	}

	o.recorder.RecordClear(reason)
	o.publish(version, events.TopicCourtsChanged)
	o.opLogger(ctx, "ClearCourt").InfoContext(ctx, "court cleared", "court", courtNumber, "reason", reason)
	return ClearResult{Archived: archived}, nil
}

func (o *Orchestrator) buildClear(next *persistence.Snapshot, courtNumber int, reason string) (domain.ClearedSession, error) {
	now := o.now()
	idx, err := courtIndex(next.Courts, courtNumber)
	if err != nil {
		return domain.ClearedSession{}, err
	}
	court := &next.Courts[idx]
	if court.Session == nil {
		return domain.ClearedSession{}, validationError("court", "court has no current session")
	}

	session := *court.Session
	originalEnd := session.End
	if session.End.After(now) {
		session.End = now
	}

	archived := domain.ClearedSession{Session: session, ClearedAt: now, ClearReason: reason}
	court.History = append(court.History, archived)
	court.Session = nil

	pruneRecentlyCleared(next, now)
	if originalEnd.After(now) {
		next.RecentlyCleared = append(next.RecentlyCleared, domain.RecentlyClearedEntry{
			CourtNumber: courtNumber,
			ClearedAt:   now,
			OriginalEnd: originalEnd,
			Players:     domain.ClonePlayers(session.Players),
			Source:      reason,
		})
	}
	return archived, nil
}

// UndoOvertimeTakeover restores a session displaced by a takeover and
// discards the takeover session. When the apply loses a race (the state
// moved since the takeover), the undo is never blindly retried; instead the
// takeover session is cleared as bumped so no two conflicting current
// sessions can exist.
func (o *Orchestrator) UndoOvertimeTakeover(ctx context.Context, takeoverSessionID, displacedSessionID string) (UndoResult, error) {
	if o == nil || o.store == nil {
		return UndoResult{}, fmt.Errorf("orchestrator not configured")
	}
	snap, err := o.store.Snapshot(ctx)
	if err != nil {
		return UndoResult{}, mapRepoError(err)
	}

	courtNumber, restored, next, err := buildUndo(snap, takeoverSessionID, displacedSessionID)
	if err != nil {
		return UndoResult{}, err
	}

	version, err := o.apply(ctx, "undo-takeover", snap.Version, next)
	if err == nil {
		o.recorder.RecordTakeoverUndo(false)
		o.publish(version, events.TopicCourtsChanged)
		o.opLogger(ctx, "UndoOvertimeTakeover").InfoContext(ctx, "takeover undone", "court", courtNumber)
		return UndoResult{Restored: restored}, nil
	}
	if !errors.Is(err, ErrConflict) {
		return UndoResult{}, err
	}

	// Someone modified state since the takeover. Fall back to an ordinary
	// clear of the takeover session against the fresh snapshot.
	fresh, ferr := o.store.Snapshot(ctx)
	if ferr != nil {
		return UndoResult{}, mapRepoError(ferr)
	}
	fallbackCourt, found := courtHoldingSession(fresh.Courts, takeoverSessionID)
	if !found {
		o.opLogger(ctx, "UndoOvertimeTakeover").WarnContext(ctx, "takeover session already gone", "session", takeoverSessionID)
		return UndoResult{}, ErrNotFound
	}
	fallbackNext := fresh.Clone()
	if _, err := o.buildClear(&fallbackNext, fallbackCourt, ClearReasonBumped); err != nil {
		return UndoResult{}, err
	}
	version, err = o.apply(ctx, "undo-takeover-fallback", fresh.Version, fallbackNext)
	if err != nil {
		return UndoResult{}, err
	}
	o.recorder.RecordTakeoverUndo(true)
	o.publish(version, events.TopicCourtsChanged)
	o.opLogger(ctx, "UndoOvertimeTakeover").WarnContext(ctx, "undo degraded to clear", "court", fallbackCourt)
	return UndoResult{FellBack: true}, nil
}

func buildUndo(snap persistence.Snapshot, takeoverSessionID, displacedSessionID string) (int, *domain.Session, persistence.Snapshot, error) {
	next := snap.Clone()
	courtNumber, found := courtHoldingSession(next.Courts, takeoverSessionID)
	if !found {
		return 0, nil, persistence.Snapshot{}, ErrNotFound
	}
	idx, err := courtIndex(next.Courts, courtNumber)
	if err != nil {
		return 0, nil, persistence.Snapshot{}, err
	}
	court := &next.Courts[idx]

	historyIdx := -1
	for i, entry := range court.History {
		if entry.ID == displacedSessionID && entry.ClearReason == ClearReasonBumped {
			historyIdx = i
		}
	}
	if historyIdx < 0 {
		return 0, nil, persistence.Snapshot{}, ErrNotFound
	}

	restored := court.History[historyIdx].Session
	court.History = append(court.History[:historyIdx], court.History[historyIdx+1:]...)
	court.Session = &restored
	return courtNumber, &restored, next, nil
}

// MoveCourt relocates a session to an empty court.
func (o *Orchestrator) MoveCourt(ctx context.Context, from, to int) error {
	if o == nil || o.store == nil {
		return fmt.Errorf("orchestrator not configured")
	}
	if err := o.validateCourtNumber(from); err != nil {
		return err
	}
	if err := o.validateCourtNumber(to); err != nil {
		return err
	}
	if from == to {
		return validationError("court", "source and destination are the same court")
	}

	snap, err := o.store.Snapshot(ctx)
	if err != nil {
		return mapRepoError(err)
	}
	next := snap.Clone()
	fromIdx, err := courtIndex(next.Courts, from)
	if err != nil {
		return err
	}
	toIdx, err := courtIndex(next.Courts, to)
	if err != nil {
		return err
	}
	if next.Courts[fromIdx].Session == nil {
		return validationError("from", "court has no current session")
	}
	if next.Courts[toIdx].Session != nil {
		return validationError("to", "court is already occupied")
	}

	next.Courts[toIdx].Session = next.Courts[fromIdx].Session
	next.Courts[fromIdx].Session = nil

	version, err := o.apply(ctx, "move", snap.Version, next)
	if err != nil {
		return err
	}
	o.publish(version, events.TopicCourtsChanged)
	o.opLogger(ctx, "MoveCourt").InfoContext(ctx, "session moved", "from", from, "to", to)
	return nil
}

// AssignFromWaitlist removes the entry and assigns its group in one apply.
func (o *Orchestrator) AssignFromWaitlist(ctx context.Context, entryID string, courtNumber int) (AssignResult, error) {
	if o == nil || o.store == nil {
		return AssignResult{}, fmt.Errorf("orchestrator not configured")
	}
	if err := o.validateCourtNumber(courtNumber); err != nil {
		return AssignResult{}, err
	}

	snap, err := o.store.Snapshot(ctx)
	if err != nil {
		return AssignResult{}, mapRepoError(err)
	}
	next := snap.Clone()

	entryIdx := -1
	for i, entry := range next.Waitlist {
		if entry.ID == entryID {
			entryIdx = i
			break
		}
	}
	if entryIdx < 0 {
		return AssignResult{}, ErrNotFound
	}
	entry := next.Waitlist[entryIdx]
	next.Waitlist = append(next.Waitlist[:entryIdx], next.Waitlist[entryIdx+1:]...)

	minutes := o.durationFor(entry.Players)
	result, _, err := o.buildAssign(ctx, &next, courtNumber, entry.Players, minutes, AssignOptions{Guests: entry.Guests, Source: "waitlist"})
	if err != nil {
		return AssignResult{}, err
	}

	version, err := o.apply(ctx, "assign-from-waitlist", snap.Version, next)
	if err != nil {
		return AssignResult{}, err
	}

	o.recorder.RecordAssignment(result.Displacement != nil)
	o.recorder.RecordWaitlistServed(entryIdx > 1)
	o.publish(version, events.TopicCourtsChanged, events.TopicWaitlistChanged)
	o.opLogger(ctx, "AssignFromWaitlist").InfoContext(ctx, "waitlist entry assigned",
		"entry", entryID, "court", courtNumber, "position", entryIdx+1)
	return result, nil
}

func (o *Orchestrator) validateCourtNumber(courtNumber int) error {
	if courtNumber < 1 || courtNumber > o.settings.CourtCount {
		return validationError("court", fmt.Sprintf("court number must be between 1 and %d", o.settings.CourtCount))
	}
	return nil
}

func (o *Orchestrator) validateGroup(group []domain.Player) error {
	switch err := waitlist.ValidateGroup(group); {
	case errors.Is(err, waitlist.ErrEmptyGroup):
		return validationError("players", "at least one player is required")
	case errors.Is(err, waitlist.ErrGroupTooLarge):
		return validationError("players", fmt.Sprintf("no more than %d players per court", waitlist.MaxGroupSize))
	case err != nil:
		return err
	}
	for _, player := range group {
		if roster.NormalizeName(player.Name) == "" {
			return validationError("players", "player name is required")
		}
	}
	return nil
}

func (o *Orchestrator) validateMinutes(minutes int) error {
	if minutes <= 0 {
		return validationError("duration", "duration must be positive")
	}
	if o.settings.MinSessionMinutes > 0 && minutes < o.settings.MinSessionMinutes {
		return validationError("duration", fmt.Sprintf("duration must be at least %d minutes", o.settings.MinSessionMinutes))
	}
	if o.settings.MaxSessionMinutes > 0 && minutes > o.settings.MaxSessionMinutes {
		return validationError("duration", fmt.Sprintf("duration must be at most %d minutes", o.settings.MaxSessionMinutes))
	}
	return nil
}

func (o *Orchestrator) durationFor(group []domain.Player) int {
	if len(group) >= 4 {
		return o.settings.DoublesMinutes
	}
	return o.settings.SinglesMinutes
}

// enrich resolves member ids from the club directory and mints stable
// derived ids for names without one, so identity comparisons survive
// restarts. Directory errors degrade to the unenriched group.
func (o *Orchestrator) enrich(ctx context.Context, group []domain.Player) []domain.Player {
	enriched := domain.ClonePlayers(group)
	if o.directory != nil {
		members, err := o.directory.ListMembers(ctx)
		if err != nil {
			o.opLogger(ctx, "enrich").WarnContext(ctx, "roster lookup failed", "error", err)
		} else {
			enriched = roster.EnrichPlayersWithIDs(enriched, members)
		}
	}
	for i := range enriched {
		if enriched[i].MemberID == "" && enriched[i].ID == "" {
			enriched[i].ID = roster.DerivedID(enriched[i].Name)
		}
	}
	return enriched
}

func (o *Orchestrator) apply(ctx context.Context, op string, base int64, next persistence.Snapshot) (int64, error) {
	version, err := o.store.Apply(ctx, base, next)
	if err != nil {
		if errors.Is(err, persistence.ErrConflict) {
			o.recorder.RecordVersionConflict(op)
			return 0, ErrConflict
		}
		return 0, mapRepoError(err)
	}
	o.estimates.Purge()
	return version, nil
}

func (o *Orchestrator) publish(version int64, topics ...events.Topic) {
	if o.bus == nil {
		return
	}
	at := o.now()
	for _, topic := range topics {
		o.bus.Publish(events.Event{Topic: topic, At: at, Version: version})
	}
}

func courtIndex(courts []domain.Court, courtNumber int) (int, error) {
	for i := range courts {
		if courts[i].Number == courtNumber {
			return i, nil
		}
	}
	return 0, ErrNotFound
}

func courtHoldingSession(courts []domain.Court, sessionID string) (int, bool) {
	for i := range courts {
		if courts[i].Session != nil && courts[i].Session.ID == sessionID {
			return courts[i].Number, true
		}
	}
	return 0, false
}

// matchRecentlyCleared finds a still-valid cleared entry whose player
// identity set exactly equals the candidate group's. Partial overlaps do not
// match; three of four original players re-registering get a fresh duration.
func matchRecentlyCleared(entries []domain.RecentlyClearedEntry, group []domain.Player, now time.Time) *domain.RecentlyClearedEntry {
	want := identitySet(group)
	for i := range entries {
		entry := &entries[i]
		if !entry.OriginalEnd.After(now) {
			continue
		}
		if setsEqual(want, identitySet(entry.Players)) {
			return entry
		}
	}
	return nil
}

func identitySet(players []domain.Player) map[string]struct{} {
	set := make(map[string]struct{}, len(players))
	for _, player := range players {
		set[roster.IdentityKey(player)] = struct{}{}
	}
	return set
}

func setsEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for key := range a {
		if _, ok := b[key]; !ok {
			return false
		}
	}
	return true
}

func pruneRecentlyCleared(next *persistence.Snapshot, now time.Time) {
	kept := next.RecentlyCleared[:0]
	for _, entry := range next.RecentlyCleared {
		if entry.OriginalEnd.After(now) {
			kept = append(kept, entry)
		}
	}
	next.RecentlyCleared = kept
}

// removePlayersFromWaitlist strips the assigned players out of every entry
// and drops entries left empty. Reports whether the waitlist changed.
func removePlayersFromWaitlist(next *persistence.Snapshot, assigned []domain.Player) bool {
	changed := false
	kept := next.Waitlist[:0]
	for _, entry := range next.Waitlist {
		remaining := entry.Players[:0:0]
		for _, player := range entry.Players {
			engaged := false
			for _, a := range assigned {
				if roster.SameIdentity(player, a) {
					engaged = true
					break
				}
			}
			if !engaged {
				remaining = append(remaining, player)
			}
		}
		if len(remaining) != len(entry.Players) {
			changed = true
		}
		if len(remaining) == 0 {
			continue
		}
		entry.Players = remaining
		kept = append(kept, entry)
	}
	next.Waitlist = kept
	return changed
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrConflict) {
		return ErrConflict
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	return err
}
