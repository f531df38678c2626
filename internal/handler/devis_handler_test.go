package handler

import (
	"fmt"
	"testing"

	"github.com/chantierpro/chantierpro/internal/repository"
	"github.com/chantierpro/chantierpro/internal/service"
	"github.com/chantierpro/chantierpro/internal/testutil"
	"github.com/gin-gonic/gin"
)

func setupDevisTest(t *testing.T) (*gin.Engine, string) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := service.NewDevisService(repos.Devis, nil, nil)
	h := NewDevisHandler(svc)

	r := testutil.SetupRouter()
	g := testutil.AuthGroup(r, "/api/v1")
	devis := g.Group("/devis")
	{
		devis.GET("", h.List)
		devis.GET("/:id", h.Get)
		devis.POST("", h.Create)
		devis.PUT("/:id", h.Update)
		devis.DELETE("/:id", h.Delete)
		devis.POST("/:id/send", h.Send)
		devis.PATCH("/:id/statut", h.ChangeStatut)
		devis.POST("/:id/convert", h.Convert)
		devis.POST("/:id/situations", h.CreateSituation)
		devis.GET("/:id/situations", h.ListSituations)
		devis.PUT("/:id/autoliquidation", h.ToggleAutoliquidation)
		devis.POST("/:id/paiements", h.RecordPaiement)
	}

	testutil.SeedUser(t, db, "client-1", "Martin Construction", "martin@example.com", "CLIENT")
	return r, testutil.AdminToken()
}

func createDevisPayload() map[string]interface{} {
	return map[string]interface{}{
		"type":      "DEVIS",
		"objet":     "Rénovation salle de bain",
		"client_id": "client-1",
		"lignes": []map[string]interface{}{
			{"designation": "Dépose existant", "quantite": 2, "prix_unitaire": 50},
			{"designation": "Pose carrelage", "quantite": 1, "prix_unitaire": 100},
		},
	}
}

func dataOf(t *testing.T, resp map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := resp["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("réponse sans data: %v", resp)
	}
	return data
}

func TestCreateDevis(t *testing.T) {
	r, token := setupDevisTest(t)

	w := testutil.DoRequest(r, "POST", "/api/v1/devis", createDevisPayload(), token)
	if w.Code != 201 {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	data := dataOf(t, testutil.ParseResponse(w))
	if data["numero"] != "DEV0001" {
		t.Errorf("numero = %v, attendu DEV0001", data["numero"])
	}
	if data["statut"] != "BROUILLON" {
		t.Errorf("statut = %v, attendu BROUILLON", data["statut"])
	}
	if data["total_ht"].(float64) != 200 {
		t.Errorf("total_ht = %v, attendu 200", data["total_ht"])
	}
	if data["total_tva"].(float64) != 40 {
		t.Errorf("total_tva = %v, attendu 40", data["total_tva"])
	}
	if data["total_ttc"].(float64) != 240 {
		t.Errorf("total_ttc = %v, attendu 240", data["total_ttc"])
	}

	// Le second document prend le numéro suivant
	w = testutil.DoRequest(r, "POST", "/api/v1/devis", createDevisPayload(), token)
	data = dataOf(t, testutil.ParseResponse(w))
	if data["numero"] != "DEV0002" {
		t.Errorf("numero = %v, attendu DEV0002", data["numero"])
	}
}

func TestDevisLifecycle(t *testing.T) {
	r, token := setupDevisTest(t)

	w := testutil.DoRequest(r, "POST", "/api/v1/devis", createDevisPayload(), token)
	id := dataOf(t, testutil.ParseResponse(w))["id"].(string)

	// Envoi
	w = testutil.DoRequest(r, "POST", fmt.Sprintf("/api/v1/devis/%s/send", id), nil, token)
	if w.Code != 200 {
		t.Fatalf("send status = %d, body = %s", w.Code, w.Body.String())
	}
	if statut := dataOf(t, testutil.ParseResponse(w))["statut"]; statut != "ENVOYE" {
		t.Errorf("statut après envoi = %v", statut)
	}

	// Modification interdite hors BROUILLON
	w = testutil.DoRequest(r, "PUT", "/api/v1/devis/"+id,
		map[string]interface{}{"objet": "nouveau"}, token)
	if w.Code != 400 {
		t.Errorf("update hors brouillon: status = %d, attendu 400", w.Code)
	}

	// Suppression interdite hors BROUILLON
	w = testutil.DoRequest(r, "DELETE", "/api/v1/devis/"+id, nil, token)
	if w.Code != 400 {
		t.Errorf("delete hors brouillon: status = %d, attendu 400", w.Code)
	}

	// Acceptation
	w = testutil.DoRequest(r, "PATCH", fmt.Sprintf("/api/v1/devis/%s/statut", id),
		map[string]interface{}{"statut": "ACCEPTE"}, token)
	if w.Code != 200 {
		t.Fatalf("accept status = %d, body = %s", w.Code, w.Body.String())
	}

	// Transition invalide : ACCEPTE → REFUSE
	w = testutil.DoRequest(r, "PATCH", fmt.Sprintf("/api/v1/devis/%s/statut", id),
		map[string]interface{}{"statut": "REFUSE"}, token)
	if w.Code != 400 {
		t.Errorf("transition invalide: status = %d, attendu 400", w.Code)
	}
}

func TestConvertDevisEnFacture(t *testing.T) {
	r, token := setupDevisTest(t)

	w := testutil.DoRequest(r, "POST", "/api/v1/devis", createDevisPayload(), token)
	id := dataOf(t, testutil.ParseResponse(w))["id"].(string)

	// Conversion refusée tant que le devis n'est pas ACCEPTE
	w = testutil.DoRequest(r, "POST", fmt.Sprintf("/api/v1/devis/%s/convert", id), nil, token)
	if w.Code != 400 {
		t.Errorf("convert en brouillon: status = %d, attendu 400", w.Code)
	}

	testutil.DoRequest(r, "POST", fmt.Sprintf("/api/v1/devis/%s/send", id), nil, token)
	testutil.DoRequest(r, "PATCH", fmt.Sprintf("/api/v1/devis/%s/statut", id),
		map[string]interface{}{"statut": "ACCEPTE"}, token)

	w = testutil.DoRequest(r, "POST", fmt.Sprintf("/api/v1/devis/%s/convert", id), nil, token)
	if w.Code != 201 {
		t.Fatalf("convert status = %d, body = %s", w.Code, w.Body.String())
	}

	facture := dataOf(t, testutil.ParseResponse(w))
	if facture["numero"] != "FAC0001" {
		t.Errorf("numero facture = %v, attendu FAC0001", facture["numero"])
	}
	if facture["type"] != "FACTURE" {
		t.Errorf("type = %v", facture["type"])
	}
	if facture["statut"] != "ENVOYE" {
		t.Errorf("statut facture = %v, attendu ENVOYE", facture["statut"])
	}
	if facture["total_ttc"].(float64) != 240 {
		t.Errorf("total_ttc = %v, les montants doivent être repris", facture["total_ttc"])
	}

	// Seconde conversion refusée
	w = testutil.DoRequest(r, "POST", fmt.Sprintf("/api/v1/devis/%s/convert", id), nil, token)
	if w.Code != 400 {
		t.Errorf("double conversion: status = %d, attendu 400", w.Code)
	}
}

func TestRecordPaiement(t *testing.T) {
	r, token := setupDevisTest(t)

	// Création d'une facture directe (TTC = 240)
	payload := createDevisPayload()
	payload["type"] = "FACTURE"
	w := testutil.DoRequest(r, "POST", "/api/v1/devis", payload, token)
	id := dataOf(t, testutil.ParseResponse(w))["id"].(string)

	testutil.DoRequest(r, "POST", fmt.Sprintf("/api/v1/devis/%s/send", id), nil, token)

	// Paiement partiel : la facture n'est pas soldée
	w = testutil.DoRequest(r, "POST", fmt.Sprintf("/api/v1/devis/%s/paiements", id),
		map[string]interface{}{"montant": 100, "methode": "VIREMENT"}, token)
	if w.Code != 201 {
		t.Fatalf("paiement status = %d, body = %s", w.Code, w.Body.String())
	}
	data := dataOf(t, testutil.ParseResponse(w))
	if data["reste_a_payer"].(float64) != 140 {
		t.Errorf("reste_a_payer = %v, attendu 140", data["reste_a_payer"])
	}
	devis := data["devis"].(map[string]interface{})
	if devis["statut"] == "PAYE" {
		t.Error("un paiement partiel ne doit pas solder la facture")
	}

	// Solde
	w = testutil.DoRequest(r, "POST", fmt.Sprintf("/api/v1/devis/%s/paiements", id),
		map[string]interface{}{"montant": 140, "methode": "CHEQUE", "reference": "CHQ-123"}, token)
	data = dataOf(t, testutil.ParseResponse(w))
	if data["reste_a_payer"].(float64) != 0 {
		t.Errorf("reste_a_payer = %v, attendu 0", data["reste_a_payer"])
	}
	devis = data["devis"].(map[string]interface{})
	if devis["statut"] != "PAYE" {
		t.Errorf("statut = %v, attendu PAYE une fois le cumul atteint", devis["statut"])
	}
}

func TestCreateSituation(t *testing.T) {
	r, token := setupDevisTest(t)

	w := testutil.DoRequest(r, "POST", "/api/v1/devis", createDevisPayload(), token)
	parent := dataOf(t, testutil.ParseResponse(w))
	parentID := parent["id"].(string)

	w = testutil.DoRequest(r, "POST", fmt.Sprintf("/api/v1/devis/%s/situations", parentID),
		map[string]interface{}{"avancement": 50}, token)
	if w.Code != 201 {
		t.Fatalf("situation status = %d, body = %s", w.Code, w.Body.String())
	}

	situation := dataOf(t, testutil.ParseResponse(w))
	wantNumero := parent["numero"].(string) + "-S1"
	if situation["numero"] != wantNumero {
		t.Errorf("numero = %v, attendu %s", situation["numero"], wantNumero)
	}
	// 50% de 240 TTC
	if situation["total_ttc"].(float64) != 120 {
		t.Errorf("total_ttc = %v, attendu 120", situation["total_ttc"])
	}

	// Avancement hors bornes
	w = testutil.DoRequest(r, "POST", fmt.Sprintf("/api/v1/devis/%s/situations", parentID),
		map[string]interface{}{"avancement": 150}, token)
	if w.Code != 400 {
		t.Errorf("avancement 150: status = %d, attendu 400", w.Code)
	}
}

func TestToggleAutoliquidation(t *testing.T) {
	r, token := setupDevisTest(t)

	w := testutil.DoRequest(r, "POST", "/api/v1/devis", createDevisPayload(), token)
	id := dataOf(t, testutil.ParseResponse(w))["id"].(string)

	w = testutil.DoRequest(r, "PUT", fmt.Sprintf("/api/v1/devis/%s/autoliquidation", id),
		map[string]interface{}{"autoliquidation": true}, token)
	if w.Code != 200 {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	data := dataOf(t, testutil.ParseResponse(w))
	if data["total_tva"].(float64) != 0 {
		t.Errorf("total_tva = %v, attendu 0", data["total_tva"])
	}
	if data["total_ttc"].(float64) != 200 {
		t.Errorf("total_ttc = %v, attendu 200 (TTC = HT)", data["total_ttc"])
	}
	mention, _ := data["mention_autoliq"].(string)
	if mention == "" {
		t.Error("la mention légale d'autoliquidation doit être posée")
	}
}

func TestDevisSansAuthentification(t *testing.T) {
	r, _ := setupDevisTest(t)

	w := testutil.DoRequest(r, "GET", "/api/v1/devis", nil, "")
	if w.Code != 401 {
		t.Errorf("status = %d, attendu 401", w.Code)
	}
}
