package service

import (
	"strings"
	"testing"
	"time"

	"github.com/chantierpro/chantierpro/internal/entity"
)

func TestDevisCSV(t *testing.T) {
	items := []entity.Devis{
		{
			Numero:    "DEV0001",
			Type:      "DEVIS",
			Statut:    "BROUILLON",
			Objet:     `Rénovation "complète", étage 2`,
			ClientID:  "client-1",
			TotalHT:   100,
			TotalTVA:  20,
			TotalTTC:  120,
			CreatedAt: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
		},
	}

	out, err := devisCSV(items)
	if err != nil {
		t.Fatalf("devisCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) != 2 {
		t.Fatalf("lignes = %d, attendu en-tête + 1 ligne", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Numéro,Type,Statut,") {
		t.Errorf("en-tête = %q, le séparateur doit être la virgule", lines[0])
	}
	// Champ contenant virgules et guillemets : entouré de guillemets, guillemets doublés
	if !strings.Contains(lines[1], `"Rénovation ""complète"", étage 2"`) {
		t.Errorf("ligne = %q, échappement CSV attendu par doublement des guillemets", lines[1])
	}
	if !strings.Contains(lines[1], "100.00,20.00,120.00,2026-03-15") {
		t.Errorf("ligne = %q, montants à deux décimales séparés par des virgules attendus", lines[1])
	}
}
