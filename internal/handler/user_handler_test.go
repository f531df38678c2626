package handler

import (
	"testing"

	"github.com/chantierpro/chantierpro/internal/entity"
	"github.com/chantierpro/chantierpro/internal/repository"
	"github.com/chantierpro/chantierpro/internal/service"
	"github.com/chantierpro/chantierpro/internal/testutil"
	"github.com/gin-gonic/gin"
)

func setupUserTest(t *testing.T) (*gin.Engine, string) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := service.NewUserService(repos.User)
	h := NewUserHandler(svc)

	r := testutil.SetupRouter()
	g := testutil.AuthGroup(r, "/api/v1")
	users := g.Group("/users")
	{
		users.GET("", h.List)
		users.GET("/:id", h.Get)
		users.GET("/:id/permissions", h.Permissions)
		users.POST("", h.Create)
		users.PUT("/:id", h.Update)
	}

	return r, testutil.AdminToken()
}

func TestCreateUser(t *testing.T) {
	r, token := setupUserTest(t)

	w := testutil.DoRequest(r, "POST", "/api/v1/users", map[string]interface{}{
		"name":     "Paul Ouvrier",
		"email":    "Paul@Example.COM",
		"password": "motdepasse",
		"role":     "OUVRIER",
	}, token)
	if w.Code != 201 {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	data := dataOf(t, testutil.ParseResponse(w))
	if data["email"] != "paul@example.com" {
		t.Errorf("email = %v, attendu normalisé en minuscules", data["email"])
	}
	if _, exposed := data["password_hash"]; exposed {
		t.Error("le hash de mot de passe ne doit jamais sortir en JSON")
	}

	// Email déjà pris
	w = testutil.DoRequest(r, "POST", "/api/v1/users", map[string]interface{}{
		"name":     "Doublon",
		"email":    "paul@example.com",
		"password": "motdepasse",
	}, token)
	if w.Code != 400 {
		t.Errorf("email en doublon: status = %d, attendu 400", w.Code)
	}
}

func TestCreateUserMotDePasseCourt(t *testing.T) {
	r, token := setupUserTest(t)

	w := testutil.DoRequest(r, "POST", "/api/v1/users", map[string]interface{}{
		"name":     "Paul",
		"email":    "paul2@example.com",
		"password": "court",
	}, token)
	if w.Code != 400 {
		t.Errorf("status = %d, attendu 400 pour un mot de passe trop court", w.Code)
	}
}

func TestUserPermissions(t *testing.T) {
	r, token := setupUserTest(t)

	w := testutil.DoRequest(r, "POST", "/api/v1/users", map[string]interface{}{
		"name":     "Claire Commerciale",
		"email":    "claire@example.com",
		"password": "motdepasse",
		"role":     entity.RoleCommercial,
	}, token)
	id := dataOf(t, testutil.ParseResponse(w))["id"].(string)

	w = testutil.DoRequest(r, "GET", "/api/v1/users/"+id+"/permissions", nil, token)
	if w.Code != 200 {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	data := dataOf(t, testutil.ParseResponse(w))
	perms := data["permissions"].([]interface{})

	found := false
	for _, p := range perms {
		if p == "devis:write" {
			found = true
		}
		if p == "*" {
			t.Error("un commercial ne doit pas avoir le joker admin")
		}
	}
	if !found {
		t.Errorf("permissions = %v, devis:write attendu pour un commercial", perms)
	}
}
