package handler

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/chantierpro/chantierpro/internal/entity"
	"github.com/chantierpro/chantierpro/internal/repository"
	"github.com/chantierpro/chantierpro/internal/service"
	"github.com/chantierpro/chantierpro/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/minio/minio-go/v7"
)

func setupDocumentTest(t *testing.T) (*gin.Engine, *repository.Repositories, string) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	// Client objet non connecté : suffisant tant que la validation rejette
	// le fichier avant tout accès au stockage
	mc, err := minio.New("127.0.0.1:9000", &minio.Options{})
	if err != nil {
		t.Fatalf("client minio: %v", err)
	}
	svc := service.NewDocumentService(repos.Document, mc, "test-documents")
	h := NewDocumentHandler(svc)

	r := testutil.SetupRouter()
	g := testutil.AuthGroup(r, "/api/v1")
	documents := g.Group("/documents")
	{
		documents.POST("", h.Upload)
		documents.GET("/:id", h.Get)
		documents.PUT("/:id", h.Update)
	}

	return r, repos, testutil.AdminToken()
}

func uploadFile(r *gin.Engine, filename, contentType string, content []byte, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, _ := mw.CreatePart(header)
	part.Write(content)
	mw.Close()

	req, _ := http.NewRequest("POST", "/api/v1/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUploadTypeInterdit(t *testing.T) {
	r, _, token := setupDocumentTest(t)

	w := uploadFile(r, "archive.zip", "application/zip", []byte("PK\x03\x04"), token)
	if w.Code != 400 {
		t.Fatalf("status = %d, attendu 400 pour un type non autorisé, body = %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	message, _ := resp["message"].(string)
	if !strings.Contains(message, "type non autorisé") {
		t.Errorf("message = %q, la raison du rejet doit être indiquée", message)
	}
}

func TestUpdateDocumentMetadonnees(t *testing.T) {
	r, repos, token := setupDocumentTest(t)

	doc := &entity.Document{
		ID:         "doc-meta-001",
		Nom:        "plan-rdc.pdf",
		Type:       entity.DocumentPDF,
		URL:        "/api/v1/documents/doc-meta-001/download",
		UploaderID: "test-admin-001",
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := repos.Document.Create(context.Background(), doc); err != nil {
		t.Fatalf("création du document: %v", err)
	}

	w := testutil.DoRequest(r, "PUT", "/api/v1/documents/doc-meta-001", map[string]interface{}{
		"nom":         "plan-rez-de-chaussee.pdf",
		"metadonnees": `{"etage":0,"echelle":"1/50"}`,
	}, token)
	if w.Code != 200 {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	data := dataOf(t, testutil.ParseResponse(w))
	if data["metadonnees"] != `{"etage":0,"echelle":"1/50"}` {
		t.Errorf("metadonnees = %v, la mise à jour doit être appliquée", data["metadonnees"])
	}

	// Persistance vérifiée en base
	stored, err := repos.Document.FindByID(context.Background(), "doc-meta-001")
	if err != nil {
		t.Fatalf("relecture du document: %v", err)
	}
	if stored.Metadonnees != `{"etage":0,"echelle":"1/50"}` {
		t.Errorf("metadonnees en base = %q", stored.Metadonnees)
	}
	if stored.Nom != "plan-rez-de-chaussee.pdf" {
		t.Errorf("nom en base = %q", stored.Nom)
	}
}
