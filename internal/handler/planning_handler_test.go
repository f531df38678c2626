package handler

import (
	"testing"
	"time"

	"github.com/chantierpro/chantierpro/internal/repository"
	"github.com/chantierpro/chantierpro/internal/service"
	"github.com/chantierpro/chantierpro/internal/testutil"
	"github.com/gin-gonic/gin"
)

func setupPlanningTest(t *testing.T) (*gin.Engine, string) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := service.NewPlanningService(repos.Planning)
	h := NewPlanningHandler(svc)

	r := testutil.SetupRouter()
	g := testutil.AuthGroup(r, "/api/v1")
	planning := g.Group("/planning")
	{
		planning.GET("", h.List)
		planning.POST("", h.Create)
		planning.PUT("/:id", h.Update)
		planning.POST("/conflicts", h.CheckConflicts)
	}

	return r, testutil.AdminToken()
}

func TestCreateEventValidation(t *testing.T) {
	r, token := setupPlanningTest(t)
	debut := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	// date_fin antérieure à date_debut
	w := testutil.DoRequest(r, "POST", "/api/v1/planning", map[string]interface{}{
		"titre":      "RDV client",
		"type":       "RDV_CLIENT",
		"date_debut": debut,
		"date_fin":   debut.Add(-time.Hour),
	}, token)
	if w.Code != 400 {
		t.Errorf("fin avant début: status = %d, attendu 400", w.Code)
	}

	w = testutil.DoRequest(r, "POST", "/api/v1/planning", map[string]interface{}{
		"titre":        "RDV client",
		"type":         "RDV_CLIENT",
		"date_debut":   debut,
		"date_fin":     debut.Add(time.Hour),
		"participants": []string{"u-1", "u-1", "u-2"},
	}, token)
	if w.Code != 201 {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	data := dataOf(t, testutil.ParseResponse(w))
	participants := data["participants"].([]interface{})
	if len(participants) != 2 {
		t.Errorf("participants = %v, les doublons doivent être retirés", participants)
	}
}

func TestCheckConflicts(t *testing.T) {
	r, token := setupPlanningTest(t)
	debut := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	w := testutil.DoRequest(r, "POST", "/api/v1/planning", map[string]interface{}{
		"titre":        "Coulage dalle",
		"type":         "PLANNING_CHANTIER",
		"date_debut":   debut,
		"date_fin":     debut.Add(4 * time.Hour),
		"participants": []string{"ouvrier-1"},
	}, token)
	if w.Code != 201 {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	eventID := dataOf(t, testutil.ParseResponse(w))["id"].(string)

	// Chevauchement avec participant commun : conflit
	w = testutil.DoRequest(r, "POST", "/api/v1/planning/conflicts", map[string]interface{}{
		"date_debut":   debut.Add(2 * time.Hour),
		"date_fin":     debut.Add(6 * time.Hour),
		"participants": []string{"ouvrier-1"},
	}, token)
	data := dataOf(t, testutil.ParseResponse(w))
	if data["conflict"] != true {
		t.Error("conflit attendu pour un participant commun sur un créneau chevauchant")
	}

	// Même créneau, autre participant : pas de conflit
	w = testutil.DoRequest(r, "POST", "/api/v1/planning/conflicts", map[string]interface{}{
		"date_debut":   debut.Add(2 * time.Hour),
		"date_fin":     debut.Add(6 * time.Hour),
		"participants": []string{"ouvrier-2"},
	}, token)
	data = dataOf(t, testutil.ParseResponse(w))
	if data["conflict"] != false {
		t.Error("pas de conflit attendu sans participant commun")
	}

	// Créneau disjoint : pas de conflit
	w = testutil.DoRequest(r, "POST", "/api/v1/planning/conflicts", map[string]interface{}{
		"date_debut":   debut.Add(24 * time.Hour),
		"date_fin":     debut.Add(26 * time.Hour),
		"participants": []string{"ouvrier-1"},
	}, token)
	data = dataOf(t, testutil.ParseResponse(w))
	if data["conflict"] != false {
		t.Error("pas de conflit attendu sur un créneau disjoint")
	}

	// Bornes inclusives : un créneau qui commence à la fin de l'existant chevauche
	w = testutil.DoRequest(r, "POST", "/api/v1/planning/conflicts", map[string]interface{}{
		"date_debut":   debut.Add(4 * time.Hour),
		"date_fin":     debut.Add(5 * time.Hour),
		"participants": []string{"ouvrier-1"},
	}, token)
	data = dataOf(t, testutil.ParseResponse(w))
	if data["conflict"] != true {
		t.Error("conflit attendu, le test de chevauchement est inclusif")
	}

	// exclude_id : l'événement lui-même n'est pas son propre conflit
	w = testutil.DoRequest(r, "POST", "/api/v1/planning/conflicts", map[string]interface{}{
		"date_debut":   debut,
		"date_fin":     debut.Add(4 * time.Hour),
		"participants": []string{"ouvrier-1"},
		"exclude_id":   eventID,
	}, token)
	data = dataOf(t, testutil.ParseResponse(w))
	if data["conflict"] != false {
		t.Error("l'événement exclu ne doit pas apparaître en conflit")
	}
}
