package roster

import (
	"testing"
	"time"

	"github.com/example/courtboard/internal/domain"
)

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  Ada   Lovelace  ", "ada lovelace"},
		{"O'Brien", "o'brien"},
		{"Jean-Luc", "jean-luc"},
		{"ANNA!! (guest)", "anna guest"},
		{"ｆｕｌｌｗｉｄｔｈ", "fullwidth"},
		{"", ""},
		{"...", ""},
	}
	for _, tc := range cases {
		if got := NormalizeName(tc.in); got != tc.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestHash53Stable(t *testing.T) {
	first := Hash53("ada lovelace")
	second := Hash53("ada lovelace")
	if first != second {
		t.Fatalf("hash is not deterministic: %q vs %q", first, second)
	}
	if first == Hash53("grace hopper") {
		t.Fatal("distinct names should not collide in this fixture set")
	}
}

func TestDerivedIDIgnoresFormatting(t *testing.T) {
	if DerivedID("Ada  Lovelace") != DerivedID("ada lovelace") {
		t.Fatal("derived ids must be stable across formatting differences")
	}
}

func TestSameIdentity(t *testing.T) {
	withMember := func(id string) domain.Player { return domain.Player{Name: "Ada Lovelace", MemberID: id} }

	if !SameIdentity(withMember("m1"), withMember("m1")) {
		t.Fatal("matching member ids are the same person")
	}
	if SameIdentity(withMember("m1"), withMember("m2")) {
		t.Fatal("differing member ids are different people even with equal names")
	}
	if !SameIdentity(domain.Player{Name: "ADA LOVELACE"}, domain.Player{Name: "ada lovelace"}) {
		t.Fatal("names match case-insensitively")
	}
	if !SameIdentity(withMember("m1"), domain.Player{Name: "Ada Lovelace"}) {
		t.Fatal("a member id on only one side still allows a name match")
	}
	if SameIdentity(domain.Player{Name: ""}, domain.Player{Name: ""}) {
		t.Fatal("empty names never match")
	}
}

func TestCheckGroupConflicts(t *testing.T) {
	now := time.Date(2025, time.June, 7, 10, 0, 0, 0, time.UTC)
	state := State{
		Courts: []domain.Court{
			{Number: 1},
			{Number: 2, Session: &domain.Session{
				ID:      "s1",
				Players: []domain.Player{{Name: "Ada Lovelace"}},
				Start:   now.Add(-20 * time.Minute),
				End:     now.Add(40 * time.Minute),
			}},
		},
		Waitlist: []domain.WaitlistEntry{
			{ID: "w1", Players: []domain.Player{{Name: "Grace Hopper"}}},
			{ID: "w2", Players: []domain.Player{{Name: "Alan Turing"}}},
		},
	}

	conflicts := CheckGroupConflicts(state, []domain.Player{
		{Name: "ada lovelace"},
		{Name: "Alan Turing"},
		{Name: "Barbara Liskov"},
	})

	if len(conflicts.Playing) != 1 || conflicts.Playing[0].Court != 2 {
		t.Fatalf("expected one playing conflict on court 2, got %+v", conflicts.Playing)
	}
	if len(conflicts.Waiting) != 1 || conflicts.Waiting[0].Position != 2 {
		t.Fatalf("expected one waiting conflict at position 2, got %+v", conflicts.Waiting)
	}
	if !conflicts.HasAny() {
		t.Fatal("expected HasAny to report conflicts")
	}
}

func TestCheckGroupConflictsClean(t *testing.T) {
	conflicts := CheckGroupConflicts(State{}, []domain.Player{{Name: "Ada"}})
	if conflicts.HasAny() {
		t.Fatalf("expected no conflicts, got %+v", conflicts)
	}
}

func TestResolveMemberID(t *testing.T) {
	members := []Member{
		{Name: "Ada Lovelace", MemberID: "m1"},
		{Name: "Grace Hopper", MemberID: "m2"},
		{Name: "Pat Smith", MemberID: "m3"},
		{Name: "Pat  SMITH", MemberID: "m4"},
	}

	if got := ResolveMemberID(domain.Player{Name: "ada lovelace"}, members); got != "m1" {
		t.Fatalf("expected m1, got %q", got)
	}
	if got := ResolveMemberID(domain.Player{Name: "Pat Smith"}, members); got != "" {
		t.Fatalf("ambiguous names must not resolve, got %q", got)
	}
	if got := ResolveMemberID(domain.Player{Name: "Nobody"}, members); got != "" {
		t.Fatalf("unknown names must not resolve, got %q", got)
	}
	if got := ResolveMemberID(domain.Player{Name: "Grace Hopper", MemberID: "m9"}, members); got != "m9" {
		t.Fatalf("an existing member id wins, got %q", got)
	}
}

func TestEnrichPlayersWithIDs(t *testing.T) {
	members := []Member{{Name: "Ada Lovelace", MemberID: "m1"}}
	enriched := EnrichPlayersWithIDs([]domain.Player{
		{Name: "Ada Lovelace"},
		{Name: "Unknown Guest"},
	}, members)

	if enriched[0].MemberID != "m1" {
		t.Fatalf("expected enrichment to m1, got %q", enriched[0].MemberID)
	}
	if enriched[1].MemberID != "" {
		t.Fatalf("expected no fabricated id, got %q", enriched[1].MemberID)
	}
}
