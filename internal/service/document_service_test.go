package service

import (
	"context"
	"errors"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
)

func fileHeader(name, contentType string, size int64) *multipart.FileHeader {
	h := textproto.MIMEHeader{}
	h.Set("Content-Type", contentType)
	return &multipart.FileHeader{
		Filename: name,
		Header:   h,
		Size:     size,
	}
}

func TestUploadOneRejetteTypeInterdit(t *testing.T) {
	svc := &DocumentService{}

	_, err := svc.uploadOne(context.Background(), "user-1",
		fileHeader("archive.zip", "application/zip", 1024), &UploadMeta{})

	var invalide *ErrFichierInvalide
	if !errors.As(err, &invalide) {
		t.Fatalf("attendu ErrFichierInvalide, obtenu %v", err)
	}
}

func TestUploadOneRejetteFichierTropGros(t *testing.T) {
	svc := &DocumentService{}

	_, err := svc.uploadOne(context.Background(), "user-1",
		fileHeader("plan.pdf", "application/pdf", 11<<20), &UploadMeta{})

	var invalide *ErrFichierInvalide
	if !errors.As(err, &invalide) {
		t.Fatalf("attendu ErrFichierInvalide, obtenu %v", err)
	}
}

func TestUploadOneContentTypeAvecParametre(t *testing.T) {
	// Le paramètre charset doit être ignoré lors du contrôle du type
	svc := &DocumentService{}

	_, err := svc.uploadOne(context.Background(), "user-1",
		fileHeader("data.bin", "application/octet-stream; charset=binary", 1024), &UploadMeta{})

	var invalide *ErrFichierInvalide
	if !errors.As(err, &invalide) {
		t.Fatalf("attendu ErrFichierInvalide, obtenu %v", err)
	}
	if invalide.Raison != "type non autorisé: application/octet-stream" {
		t.Errorf("raison = %q, le paramètre charset aurait dû être retiré", invalide.Raison)
	}
}

func TestUploadLotEntierementRejete(t *testing.T) {
	// Aucun fichier valide : l'appel échoue en erreur de validation
	mc, err := minio.New("127.0.0.1:9000", &minio.Options{})
	if err != nil {
		t.Fatalf("client minio: %v", err)
	}
	svc := NewDocumentService(nil, mc, "documents")

	_, err = svc.Upload(context.Background(), "user-1",
		[]*multipart.FileHeader{fileHeader("archive.zip", "application/zip", 1024)}, &UploadMeta{})

	if !IsValidation(err) {
		t.Fatalf("attendu une erreur de validation, obtenu %v", err)
	}
	if !strings.Contains(err.Error(), "type non autorisé") {
		t.Errorf("erreur = %v, la raison du rejet doit être reprise", err)
	}
}

func TestUploadSansStockage(t *testing.T) {
	svc := &DocumentService{}

	_, err := svc.Upload(context.Background(), "user-1",
		[]*multipart.FileHeader{fileHeader("a.pdf", "application/pdf", 10)}, &UploadMeta{})

	if !errors.Is(err, ErrStockageIndisponible) {
		t.Fatalf("attendu ErrStockageIndisponible, obtenu %v", err)
	}
}
