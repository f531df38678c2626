package service

import (
	"testing"
	"time"

	"github.com/chantierpro/chantierpro/internal/entity"
)

func TestValiderEvent(t *testing.T) {
	debut := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := &PlanningService{}

	cases := []struct {
		name    string
		req     EventRequest
		wantErr bool
	}{
		{
			"valide",
			EventRequest{Titre: "Réunion chantier", DateDebut: debut, DateFin: debut.Add(time.Hour)},
			false,
		},
		{
			"fin avant debut",
			EventRequest{Titre: "RDV", DateDebut: debut, DateFin: debut.Add(-time.Hour)},
			true,
		},
		{
			"fin egale debut",
			EventRequest{Titre: "RDV", DateDebut: debut, DateFin: debut},
			true,
		},
		{
			"sans titre",
			EventRequest{DateDebut: debut, DateFin: debut.Add(time.Hour)},
			true,
		},
		{
			"type inconnu",
			EventRequest{Titre: "RDV", Type: "PAUSE_CAFE", DateDebut: debut, DateFin: debut.Add(time.Hour)},
			true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.valider(&tc.req)
			if (err != nil) != tc.wantErr {
				t.Errorf("valider() err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestDedupIDs(t *testing.T) {
	got := dedupIDs([]string{"a", "b", "a", "", "c", "b"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("dedupIDs = %v, attendu %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("dedupIDs[%d] = %q, attendu %q", i, got[i], want[i])
		}
	}
}

func TestEventConcerne(t *testing.T) {
	ev := &entity.PlanningEvent{
		OrganisateurID: "org-1",
		Participants:   entity.IDList{"u-1", "u-2"},
	}

	if !eventConcerne(ev, entity.IDList{"u-2"}) {
		t.Error("participant u-2 devrait être concerné")
	}
	if !eventConcerne(ev, entity.IDList{"org-1"}) {
		t.Error("l'organisateur devrait être concerné")
	}
	if eventConcerne(ev, entity.IDList{"u-9"}) {
		t.Error("u-9 ne participe pas, pas de conflit attendu")
	}
}
