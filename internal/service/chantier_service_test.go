package service

import (
	"testing"
	"time"

	"github.com/chantierpro/chantierpro/internal/entity"
)

func TestTransitionsChantier(t *testing.T) {
	cases := []struct {
		from, to string
		allowed  bool
	}{
		{entity.ChantierPlanifie, entity.ChantierEnCours, true},
		{entity.ChantierPlanifie, entity.ChantierTermine, false},
		{entity.ChantierEnCours, entity.ChantierEnAttente, true},
		{entity.ChantierEnCours, entity.ChantierTermine, true},
		{entity.ChantierEnAttente, entity.ChantierEnCours, true},
		{entity.ChantierTermine, entity.ChantierEnCours, false},
		{entity.ChantierAnnule, entity.ChantierEnCours, false},
	}

	for _, tc := range cases {
		allowed := false
		for _, target := range transitionsChantier[tc.from] {
			if target == tc.to {
				allowed = true
			}
		}
		if allowed != tc.allowed {
			t.Errorf("transition %s → %s : %v, attendu %v", tc.from, tc.to, allowed, tc.allowed)
		}
	}
}

func TestValiderChantier(t *testing.T) {
	debut := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	fin := debut.AddDate(0, 3, 0)
	budget := 50000.0
	budgetNegatif := -1.0

	cases := []struct {
		name    string
		req     ChantierRequest
		wantErr bool
	}{
		{"valide", ChantierRequest{Nom: "Maison Dupont", DateDebut: &debut, DateFin: &fin, Budget: &budget}, false},
		{"sans nom", ChantierRequest{}, true},
		{"fin avant debut", ChantierRequest{Nom: "x", DateDebut: &fin, DateFin: &debut}, true},
		{"budget negatif", ChantierRequest{Nom: "x", Budget: &budgetNegatif}, true},
		{"dates absentes", ChantierRequest{Nom: "x"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validerChantier(&tc.req)
			if (err != nil) != tc.wantErr {
				t.Errorf("validerChantier() err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
