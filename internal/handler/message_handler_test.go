package handler

import (
	"strings"
	"testing"

	"github.com/chantierpro/chantierpro/internal/entity"
	"github.com/chantierpro/chantierpro/internal/repository"
	"github.com/chantierpro/chantierpro/internal/service"
	"github.com/chantierpro/chantierpro/internal/testutil"
	"github.com/gin-gonic/gin"
)

func setupMessageTest(t *testing.T) (*gin.Engine, string) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := service.NewMessageService(repos.Message, nil)
	h := NewMessageHandler(svc)

	r := testutil.SetupRouter()
	g := testutil.AuthGroup(r, "/api/v1")
	messages := g.Group("/messages")
	{
		messages.POST("", h.Send)
		messages.GET("/conversations/:id", h.History)
		messages.POST("/conversations/:id/read", h.MarkRead)
		messages.POST("/:id/reactions", h.ToggleReaction)
		messages.DELETE("/:id", h.Delete)
	}

	testutil.SeedUser(t, db, "test-admin-001", "Admin", "admin@example.com", entity.RoleAdmin)
	testutil.SeedUser(t, db, "dest-1", "Destinataire", "dest@example.com", entity.RoleOuvrier)
	return r, testutil.AdminToken()
}

func TestSendMessage(t *testing.T) {
	r, token := setupMessageTest(t)

	w := testutil.DoRequest(r, "POST", "/api/v1/messages", map[string]interface{}{
		"message":         "Le carrelage est livré",
		"destinataire_id": "dest-1",
	}, token)
	if w.Code != 201 {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	data := dataOf(t, testutil.ParseResponse(w))
	if data["message"] != "Le carrelage est livré" {
		t.Errorf("message = %v", data["message"])
	}
	if data["lu"] != false {
		t.Error("un nouveau message doit être non lu")
	}
}

func TestSendMessageTropLong(t *testing.T) {
	r, token := setupMessageTest(t)

	w := testutil.DoRequest(r, "POST", "/api/v1/messages", map[string]interface{}{
		"message":         strings.Repeat("a", entity.MessageMaxLen+1),
		"destinataire_id": "dest-1",
	}, token)
	if w.Code != 400 {
		t.Errorf("status = %d, attendu 400 au-delà de %d caractères", w.Code, entity.MessageMaxLen)
	}
}

func TestSendMessageLongueurEnCaracteres(t *testing.T) {
	r, token := setupMessageTest(t)

	// La limite se compte en caractères : 2000 caractères accentués
	// dépassent 2000 octets mais restent acceptés
	w := testutil.DoRequest(r, "POST", "/api/v1/messages", map[string]interface{}{
		"message":         strings.Repeat("é", entity.MessageMaxLen),
		"destinataire_id": "dest-1",
	}, token)
	if w.Code != 201 {
		t.Errorf("status = %d, un message de %d caractères multi-octets doit passer", w.Code, entity.MessageMaxLen)
	}

	w = testutil.DoRequest(r, "POST", "/api/v1/messages", map[string]interface{}{
		"message":         strings.Repeat("é", entity.MessageMaxLen+1),
		"destinataire_id": "dest-1",
	}, token)
	if w.Code != 400 {
		t.Errorf("status = %d, attendu 400 au-delà de %d caractères", w.Code, entity.MessageMaxLen)
	}
}

func TestSendMessageSansDestination(t *testing.T) {
	r, token := setupMessageTest(t)

	// Ni chantier ni destinataire
	w := testutil.DoRequest(r, "POST", "/api/v1/messages", map[string]interface{}{
		"message": "perdu",
	}, token)
	if w.Code != 400 {
		t.Errorf("status = %d, attendu 400", w.Code)
	}
}

func TestToggleReaction(t *testing.T) {
	r, token := setupMessageTest(t)

	w := testutil.DoRequest(r, "POST", "/api/v1/messages", map[string]interface{}{
		"message":         "ok pour demain",
		"destinataire_id": "dest-1",
	}, token)
	id := dataOf(t, testutil.ParseResponse(w))["id"].(string)

	// Ajout
	w = testutil.DoRequest(r, "POST", "/api/v1/messages/"+id+"/reactions",
		map[string]interface{}{"emoji": "👍"}, token)
	if w.Code != 200 {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	data := dataOf(t, testutil.ParseResponse(w))
	reactions, _ := data["reactions"].([]interface{})
	if len(reactions) != 1 {
		t.Errorf("reactions = %v, attendu une réaction", data["reactions"])
	}

	// Second envoi du même emoji : retrait
	w = testutil.DoRequest(r, "POST", "/api/v1/messages/"+id+"/reactions",
		map[string]interface{}{"emoji": "👍"}, token)
	data = dataOf(t, testutil.ParseResponse(w))
	reactions, _ = data["reactions"].([]interface{})
	if len(reactions) != 0 {
		t.Errorf("reactions = %v, le toggle devait retirer la réaction", data["reactions"])
	}
}

func TestDeleteMessageTombstone(t *testing.T) {
	r, token := setupMessageTest(t)

	w := testutil.DoRequest(r, "POST", "/api/v1/messages", map[string]interface{}{
		"message":         "à supprimer",
		"destinataire_id": "dest-1",
	}, token)
	id := dataOf(t, testutil.ParseResponse(w))["id"].(string)

	w = testutil.DoRequest(r, "DELETE", "/api/v1/messages/"+id, nil, token)
	if w.Code != 200 {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	data := dataOf(t, testutil.ParseResponse(w))
	if data["message"] != entity.MessageSupprime {
		t.Errorf("message = %v, attendu le marqueur de suppression", data["message"])
	}
	if data["supprime"] != true {
		t.Error("le drapeau supprime doit être posé")
	}

	// L'entrée reste dans l'historique de la conversation
	w = testutil.DoRequest(r, "GET", "/api/v1/messages/conversations/dest-1", nil, token)
	listData := dataOf(t, testutil.ParseResponse(w))
	items := listData["items"].([]interface{})
	if len(items) != 1 {
		t.Errorf("items = %d, le message supprimé doit rester visible en tombstone", len(items))
	}
}

func TestDeleteMessageAutrui(t *testing.T) {
	r, token := setupMessageTest(t)

	w := testutil.DoRequest(r, "POST", "/api/v1/messages", map[string]interface{}{
		"message":         "message de l'admin",
		"destinataire_id": "dest-1",
	}, token)
	id := dataOf(t, testutil.ParseResponse(w))["id"].(string)

	autreToken := testutil.GenerateTestToken("dest-1", entity.RoleOuvrier)
	w = testutil.DoRequest(r, "DELETE", "/api/v1/messages/"+id, nil, autreToken)
	if w.Code != 403 {
		t.Errorf("status = %d, attendu 403 pour un non-expéditeur", w.Code)
	}
}
