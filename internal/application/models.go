package application

import (
	"time"

	"github.com/example/courtboard/internal/domain"
)

// Settings carries the club's court layout and duration policy into the
// orchestrator.
type Settings struct {
	CourtCount        int
	SinglesMinutes    int
	DoublesMinutes    int
	AvgGameMinutes    int
	MinSessionMinutes int
	MaxSessionMinutes int
	SinglesOnlyCourts map[int]bool
}

// AssignOptions tunes an assignment. Zero Minutes selects the duration the
// group size implies (doubles for four players, singles otherwise).
type AssignOptions struct {
	Minutes int
	Guests  int
	Source  string
}

// AssignResult reports a completed assignment. Displacement is set when the
// assignment bumped an occupant; ReplacedGroup names who was bumped.
type AssignResult struct {
	Session       domain.Session
	ReplacedGroup []domain.Player
	Displacement  *domain.DisplacementRecord
	TimeLimited   bool
}

// ClearResult reports a completed clear.
type ClearResult struct {
	Archived domain.ClearedSession
}

// UndoResult reports how a takeover undo concluded. FellBack means the undo
// lost a write race and degraded to clearing the takeover session instead of
// restoring the displaced one.
type UndoResult struct {
	Restored *domain.Session
	FellBack bool
}

// WaitlistView annotates an entry with its recomputed position and estimate.
type WaitlistView struct {
	Entry           domain.WaitlistEntry
	Position        int
	EstimateMinutes int
}

// BlockInput captures caller provided block fields.
type BlockInput struct {
	CourtNumber int
	Start       time.Time
	End         time.Time
	Reason      string
	WetCourt    bool
}
