// Package roster normalizes player identity and detects whether candidate
// players are already engaged on a court or in the waitlist.
package roster

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/example/courtboard/internal/domain"
)

// Member is a club directory entry used for identity resolution.
type Member struct {
	Name       string
	MemberID   string
	ClubNumber string
}

// State is the engagement view the checker scans: current court sessions and
// the waitlist, both read-only.
type State struct {
	Courts   []domain.Court
	Waitlist []domain.WaitlistEntry
}

// EngagementType distinguishes where a player was found.
type EngagementType string

const (
	// EngagementPlaying means the player holds a court session.
	EngagementPlaying EngagementType = "playing"
	// EngagementWaitlist means the player is queued.
	EngagementWaitlist EngagementType = "waitlist"
)

// Engagement locates a player on a court or at a waitlist position.
type Engagement struct {
	Type     EngagementType
	Court    int
	Position int
}

// PlayingConflict reports a candidate already seated on a court.
type PlayingConflict struct {
	Name  string
	Court int
}

// WaitingConflict reports a candidate already queued.
type WaitingConflict struct {
	Name     string
	Position int
}

// Conflicts aggregates the engagements found for a candidate group.
type Conflicts struct {
	Playing []PlayingConflict
	Waiting []WaitingConflict
}

// HasAny reports whether any candidate is already engaged.
func (c Conflicts) HasAny() bool {
	return len(c.Playing) > 0 || len(c.Waiting) > 0
}

// NormalizeName produces the identity key used when no stable member id
// exists: NFKC normalized, lowercased, trimmed, internal whitespace
// collapsed, punctuation stripped except apostrophe and hyphen.
func NormalizeName(s string) string {
	s = strings.ToLower(norm.NFKC.String(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		case r == '\'' || r == '-':
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Hash53 derives a deterministic 53-bit hash of a string rendered in base36.
// It mints reproducible pseudo-ids for names with no directory entry, so the
// same name maps to the same derived id across runs.
func Hash53(s string) string {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
		mask53   = 1<<53 - 1
	)
	var h uint64 = offset64
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime64
	}
	return strconv.FormatUint(h&mask53, 36)
}

// DerivedID returns the stable pseudo-id for a player name.
func DerivedID(name string) string {
	return "n-" + Hash53(NormalizeName(name))
}

// IdentityKey computes the comparison key for a player. Member id takes
// precedence, then the assigned id, then the normalized name.
func IdentityKey(p domain.Player) string {
	if p.MemberID != "" {
		return "m:" + p.MemberID
	}
	if p.ID != "" {
		return "i:" + p.ID
	}
	return "n:" + NormalizeName(p.Name)
}

// SameIdentity reports whether two players refer to the same person.
// Players match on member id when both carry one, otherwise on normalized
// name. A member id on only one side does not preclude a name match, since
// legacy sessions may predate directory enrichment.
func SameIdentity(a, b domain.Player) bool {
	if a.MemberID != "" && b.MemberID != "" {
		return a.MemberID == b.MemberID
	}
	if a.ID != "" && b.ID != "" && a.ID == b.ID {
		return true
	}
	na, nb := NormalizeName(a.Name), NormalizeName(b.Name)
	return na != "" && na == nb
}

// CheckGroupConflicts scans all court sessions and waitlist entries for each
// candidate player and reports where they are already engaged.
func CheckGroupConflicts(state State, group []domain.Player) Conflicts {
	var conflicts Conflicts
	for _, candidate := range group {
		engagement := FindEngagementFor(candidate, state)
		if engagement == nil {
			continue
		}
		switch engagement.Type {
		case EngagementPlaying:
			conflicts.Playing = append(conflicts.Playing, PlayingConflict{Name: candidate.Name, Court: engagement.Court})
		case EngagementWaitlist:
			conflicts.Waiting = append(conflicts.Waiting, WaitingConflict{Name: candidate.Name, Position: engagement.Position})
		}
	}
	return conflicts
}

// FindEngagementFor locates a single player, or returns nil when the player
// is not engaged anywhere.
func FindEngagementFor(player domain.Player, state State) *Engagement {
	for _, court := range state.Courts {
		if court.Session == nil {
			continue
		}
		for _, seated := range court.Session.Players {
			if SameIdentity(player, seated) {
				return &Engagement{Type: EngagementPlaying, Court: court.Number}
			}
		}
	}
	for i, entry := range state.Waitlist {
		for _, queued := range entry.Players {
			if SameIdentity(player, queued) {
				return &Engagement{Type: EngagementWaitlist, Position: i + 1}
			}
		}
	}
	return nil
}

// ResolveMemberID returns the player's member id, looking the roster up by
// normalized name when the player carries none. An ambiguous name (more than
// one roster match) resolves to empty rather than guessing.
func ResolveMemberID(player domain.Player, members []Member) string {
	if player.MemberID != "" {
		return player.MemberID
	}
	want := NormalizeName(player.Name)
	if want == "" {
		return ""
	}
	found := ""
	for _, member := range members {
		if NormalizeName(member.Name) != want {
			continue
		}
		if found != "" && found != member.MemberID {
			return ""
		}
		found = member.MemberID
	}
	return found
}

// EnrichPlayersWithIDs applies ResolveMemberID to each player, leaving
// unresolved entries unchanged. It never fabricates directory ids.
func EnrichPlayersWithIDs(players []domain.Player, members []Member) []domain.Player {
	out := make([]domain.Player, len(players))
	for i, player := range players {
		out[i] = player
		if player.MemberID == "" {
			if id := ResolveMemberID(player, members); id != "" {
				out[i].MemberID = id
			}
		}
	}
	return out
}
