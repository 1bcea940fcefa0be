package http

import (
	"time"

	"github.com/example/courtboard/internal/application"
	"github.com/example/courtboard/internal/blocks"
	"github.com/example/courtboard/internal/courtstate"
	"github.com/example/courtboard/internal/domain"
)

type playerPayload struct {
	ID       string `json:"id,omitempty"`
	MemberID string `json:"member_id,omitempty"`
	Name     string `json:"name"`
	Guest    bool   `json:"guest,omitempty"`
	Sponsor  string `json:"sponsor,omitempty"`
}

func (p playerPayload) toDomain() domain.Player {
	return domain.Player{ID: p.ID, MemberID: p.MemberID, Name: p.Name, Guest: p.Guest, Sponsor: p.Sponsor}
}

func toPlayerPayloads(players []domain.Player) []playerPayload {
	out := make([]playerPayload, len(players))
	for i, player := range players {
		out[i] = playerPayload{
			ID:       player.ID,
			MemberID: player.MemberID,
			Name:     player.Name,
			Guest:    player.Guest,
			Sponsor:  player.Sponsor,
		}
	}
	return out
}

func toDomainPlayers(payloads []playerPayload) []domain.Player {
	out := make([]domain.Player, len(payloads))
	for i, payload := range payloads {
		out[i] = payload.toDomain()
	}
	return out
}

type sessionResponse struct {
	ID          string          `json:"id"`
	Players     []playerPayload `json:"players"`
	Guests      int             `json:"guests"`
	Start       time.Time       `json:"start_time"`
	End         time.Time       `json:"end_time"`
	Minutes     int             `json:"duration_minutes"`
	AssignedAt  time.Time       `json:"assigned_at"`
	TimeLimited bool            `json:"time_limited,omitempty"`
}

func toSessionResponse(session domain.Session) sessionResponse {
	return sessionResponse{
		ID:          session.ID,
		Players:     toPlayerPayloads(session.Players),
		Guests:      session.Guests,
		Start:       session.Start,
		End:         session.End,
		Minutes:     session.Minutes,
		AssignedAt:  session.AssignedAt,
		TimeLimited: session.TimeLimited,
	}
}

type blockStatusResponse struct {
	Blocked          bool   `json:"blocked"`
	Reason           string `json:"reason,omitempty"`
	WetCourt         bool   `json:"wet_court,omitempty"`
	RemainingMinutes int    `json:"remaining_minutes,omitempty"`
}

type courtViewResponse struct {
	Number     int                 `json:"number"`
	State      string              `json:"state"`
	Session    *sessionResponse    `json:"session,omitempty"`
	Block      blockStatusResponse `json:"block_status"`
	HistoryLen int                 `json:"history_length"`
}

func toCourtViewResponse(view courtstate.View) courtViewResponse {
	state := "unoccupied"
	switch {
	case view.Active:
		state = "active"
	case view.Overtime:
		state = "overtime"
	case view.Blocked:
		state = "blocked"
	}
	resp := courtViewResponse{
		Number: view.Court.Number,
		State:  state,
		Block: blockStatusResponse{
			Blocked:          view.Block.Blocked,
			Reason:           view.Block.Reason,
			WetCourt:         view.Block.WetCourt,
			RemainingMinutes: view.Block.RemainingMinutes,
		},
		HistoryLen: len(view.Court.History),
	}
	if view.Court.Session != nil {
		session := toSessionResponse(*view.Court.Session)
		resp.Session = &session
	}
	return resp
}

type assignRequest struct {
	Players []playerPayload `json:"players"`
	Guests  int             `json:"guests"`
	Minutes int             `json:"duration_minutes"`
	Source  string          `json:"source,omitempty"`
}

type assignResponse struct {
	Session       sessionResponse            `json:"session"`
	TimeLimited   bool                       `json:"time_limited"`
	ReplacedGroup []playerPayload            `json:"replaced_group,omitempty"`
	Displacement  *domain.DisplacementRecord `json:"displacement,omitempty"`
}

func toAssignResponse(result application.AssignResult) assignResponse {
	resp := assignResponse{
		Session:     toSessionResponse(result.Session),
		TimeLimited: result.TimeLimited,
	}
	if len(result.ReplacedGroup) > 0 {
		resp.ReplacedGroup = toPlayerPayloads(result.ReplacedGroup)
	}
	resp.Displacement = result.Displacement
	return resp
}

type warningResponse struct {
	Type              string    `json:"type"`
	Reason            string    `json:"reason"`
	StartTime         time.Time `json:"start_time"`
	MinutesUntilBlock int       `json:"minutes_until_block"`
	LimitedDuration   int       `json:"limited_duration,omitempty"`
	OriginalDuration  int       `json:"original_duration,omitempty"`
}

func toWarningResponse(warning *blocks.Warning) *warningResponse {
	if warning == nil {
		return nil
	}
	return &warningResponse{
		Type:              string(warning.Type),
		Reason:            warning.Reason,
		StartTime:         warning.Start,
		MinutesUntilBlock: warning.MinutesUntilBlock,
		LimitedDuration:   warning.LimitedDuration,
		OriginalDuration:  warning.OriginalDuration,
	}
}

type waitlistEntryResponse struct {
	ID              string          `json:"id"`
	Players         []playerPayload `json:"players"`
	Guests          int             `json:"guests"`
	JoinedAt        time.Time       `json:"joined_at"`
	Deferred        bool            `json:"deferred"`
	Position        int             `json:"position"`
	EstimateMinutes int             `json:"estimate_minutes"`
}

func toWaitlistEntryResponse(view application.WaitlistView) waitlistEntryResponse {
	return waitlistEntryResponse{
		ID:              view.Entry.ID,
		Players:         toPlayerPayloads(view.Entry.Players),
		Guests:          view.Entry.Guests,
		JoinedAt:        view.Entry.JoinedAt,
		Deferred:        view.Entry.Deferred,
		Position:        view.Position,
		EstimateMinutes: view.EstimateMinutes,
	}
}

type blockResponse struct {
	ID          string    `json:"id"`
	CourtNumber int       `json:"court_number"`
	Start       time.Time `json:"start_time"`
	End         time.Time `json:"end_time"`
	Reason      string    `json:"reason"`
	WetCourt    bool      `json:"wet_court"`
	CreatedAt   time.Time `json:"created_at"`
}

func toBlockResponse(block domain.Block) blockResponse {
	return blockResponse{
		ID:          block.ID,
		CourtNumber: block.CourtNumber,
		Start:       block.Start,
		End:         block.End,
		Reason:      block.Reason,
		WetCourt:    block.WetCourt,
		CreatedAt:   block.CreatedAt,
	}
}
