package service

import (
	"testing"

	"github.com/chantierpro/chantierpro/internal/entity"
)

func taux(v float64) *float64 { return &v }

func TestComputeTotauxForfaitaire(t *testing.T) {
	// 2 lignes à 50 € + 1 ligne à 100 €, TVA forfaitaire 20%
	lignes := []LigneInput{
		{Designation: "Main d'œuvre", Quantite: 2, PrixUnitaire: 50},
		{Designation: "Fournitures", Quantite: 1, PrixUnitaire: 100},
	}

	totaux := ComputeTotaux(lignes, false)

	if totaux.TotalHT != 200 {
		t.Errorf("TotalHT = %v, attendu 200", totaux.TotalHT)
	}
	if totaux.TotalTVA != 40 {
		t.Errorf("TotalTVA = %v, attendu 40", totaux.TotalTVA)
	}
	if totaux.TotalTTC != 240 {
		t.Errorf("TotalTTC = %v, attendu 240", totaux.TotalTTC)
	}
	if totaux.TVA20 != 40 {
		t.Errorf("TVA20 = %v, attendu 40", totaux.TVA20)
	}
}

func TestComputeTotauxMultiTaux(t *testing.T) {
	lignes := []LigneInput{
		{Designation: "Rénovation énergétique", Quantite: 1, PrixUnitaire: 1000, TauxTVA: taux(5.5)},
		{Designation: "Travaux d'amélioration", Quantite: 1, PrixUnitaire: 500, TauxTVA: taux(10)},
		{Designation: "Construction neuve", Quantite: 1, PrixUnitaire: 200, TauxTVA: taux(20)},
		// Sans taux explicite : 20% par défaut en mode multi-taux
		{Designation: "Divers", Quantite: 1, PrixUnitaire: 100},
	}

	totaux := ComputeTotaux(lignes, false)

	if totaux.TotalHT != 1800 {
		t.Errorf("TotalHT = %v, attendu 1800", totaux.TotalHT)
	}
	if totaux.TVA55 != 55 {
		t.Errorf("TVA55 = %v, attendu 55", totaux.TVA55)
	}
	if totaux.TVA10 != 50 {
		t.Errorf("TVA10 = %v, attendu 50", totaux.TVA10)
	}
	if totaux.TVA20 != 60 {
		t.Errorf("TVA20 = %v, attendu 60", totaux.TVA20)
	}
	if totaux.TotalTVA != 165 {
		t.Errorf("TotalTVA = %v, attendu 165", totaux.TotalTVA)
	}
	if totaux.TotalTTC != 1965 {
		t.Errorf("TotalTTC = %v, attendu 1965", totaux.TotalTTC)
	}
}

func TestComputeTotauxAutoliquidation(t *testing.T) {
	lignes := []LigneInput{
		{Designation: "Sous-traitance gros œuvre", Quantite: 1, PrixUnitaire: 1000},
	}

	totaux := ComputeTotaux(lignes, true)

	if totaux.TotalHT != 1000 {
		t.Errorf("TotalHT = %v, attendu 1000", totaux.TotalHT)
	}
	if totaux.TotalTVA != 0 {
		t.Errorf("TotalTVA = %v, attendu 0", totaux.TotalTVA)
	}
	if totaux.TotalTTC != 1000 {
		t.Errorf("TotalTTC = %v, attendu 1000 (TTC = HT)", totaux.TotalTTC)
	}
	if totaux.TVA55 != 0 || totaux.TVA10 != 0 || totaux.TVA20 != 0 {
		t.Errorf("ventilation TVA non nulle en autoliquidation: %+v", totaux)
	}
}

func TestComputeTotauxArrondis(t *testing.T) {
	lignes := []LigneInput{
		{Designation: "Carrelage", Quantite: 3, PrixUnitaire: 33.33},
	}

	totaux := ComputeTotaux(lignes, false)

	if totaux.TotalHT != 99.99 {
		t.Errorf("TotalHT = %v, attendu 99.99", totaux.TotalHT)
	}
	if totaux.TotalTVA != 20.00 {
		t.Errorf("TotalTVA = %v, attendu 20.00", totaux.TotalTVA)
	}
	if totaux.TotalTTC != 119.99 {
		t.Errorf("TotalTTC = %v, attendu 119.99", totaux.TotalTTC)
	}
}

func TestComputeTotauxSituation(t *testing.T) {
	// Situation à 50% d'un parent de 10 lignes × 100 € : prix unitaires proratisés
	var lignes []LigneInput
	for i := 0; i < 10; i++ {
		lignes = append(lignes, LigneInput{
			Designation:  "Lot",
			Quantite:     1,
			PrixUnitaire: round2(100 * 0.5),
		})
	}

	totaux := ComputeTotaux(lignes, false)

	if totaux.TotalHT != 500 {
		t.Errorf("TotalHT = %v, attendu 500", totaux.TotalHT)
	}
	if totaux.TotalTVA != 100 {
		t.Errorf("TotalTVA = %v, attendu 100", totaux.TotalTVA)
	}
	if totaux.TotalTTC != 600 {
		t.Errorf("TotalTTC = %v, attendu 600", totaux.TotalTTC)
	}
}

func TestValiderLignes(t *testing.T) {
	cases := []struct {
		name    string
		lignes  []LigneInput
		wantErr bool
	}{
		{"vide", nil, true},
		{"valide", []LigneInput{{Designation: "ok", Quantite: 1, PrixUnitaire: 10}}, false},
		{"sans designation", []LigneInput{{Quantite: 1, PrixUnitaire: 10}}, true},
		{"quantite nulle", []LigneInput{{Designation: "ok", Quantite: 0, PrixUnitaire: 10}}, true},
		{"prix negatif", []LigneInput{{Designation: "ok", Quantite: 1, PrixUnitaire: -5}}, true},
		{"taux interdit", []LigneInput{{Designation: "ok", Quantite: 1, PrixUnitaire: 10, TauxTVA: taux(7)}}, true},
		{"taux reduit", []LigneInput{{Designation: "ok", Quantite: 1, PrixUnitaire: 10, TauxTVA: taux(5.5)}}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validerLignes(tc.lignes)
			if (err != nil) != tc.wantErr {
				t.Errorf("validerLignes() err = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil && !IsValidation(err) {
				t.Errorf("erreur non typée validation: %v", err)
			}
		})
	}
}

func TestTransitionsStatut(t *testing.T) {
	cases := []struct {
		from, to string
		allowed  bool
	}{
		{entity.DevisBrouillon, entity.DevisEnvoye, true},
		{entity.DevisBrouillon, entity.DevisAnnule, true},
		{entity.DevisBrouillon, entity.DevisAccepte, false},
		{entity.DevisEnvoye, entity.DevisAccepte, true},
		{entity.DevisEnvoye, entity.DevisRefuse, true},
		{entity.DevisAccepte, entity.DevisPaye, true},
		{entity.DevisPaye, entity.DevisEnvoye, false},
		{entity.DevisAnnule, entity.DevisEnvoye, false},
		{entity.DevisRefuse, entity.DevisAccepte, false},
	}

	for _, tc := range cases {
		allowed := false
		for _, target := range transitionsStatut[tc.from] {
			if target == tc.to {
				allowed = true
			}
		}
		if allowed != tc.allowed {
			t.Errorf("transition %s → %s : %v, attendu %v", tc.from, tc.to, allowed, tc.allowed)
		}
	}
}

func TestExportRow(t *testing.T) {
	d := &entity.Devis{
		Numero:   "FAC0042",
		Type:     entity.TypeFacture,
		Statut:   entity.DevisPaye,
		Objet:    "Extension garage",
		ClientID: "client-1",
		Client:   &entity.User{Name: "Dupont BTP"},
		TotalHT:  1234.5,
		TotalTVA: 246.9,
		TotalTTC: 1481.4,
	}

	row := exportRow(d)

	if row[0] != "FAC0042" {
		t.Errorf("numero = %q", row[0])
	}
	if row[4] != "Dupont BTP" {
		t.Errorf("client = %q, attendu le nom et non l'id", row[4])
	}
	if row[5] != "1234.50" || row[7] != "1481.40" {
		t.Errorf("montants = %q / %q", row[5], row[7])
	}
}
