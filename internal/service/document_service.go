package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/chantierpro/chantierpro/internal/entity"
	"github.com/chantierpro/chantierpro/internal/repository"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// MaxUploadSize taille maximale d'un fichier déposé (10 Mo)
const MaxUploadSize = 10 << 20

// ErrStockageIndisponible le stockage objet n'est pas configuré
var ErrStockageIndisponible = errors.New("stockage de documents indisponible")

// ErrFichierInvalide fichier rejeté (type ou taille)
type ErrFichierInvalide struct {
	Nom    string
	Raison string
}

func (e *ErrFichierInvalide) Error() string {
	return fmt.Sprintf("fichier %s rejeté: %s", e.Nom, e.Raison)
}

// mimeAutorises types MIME acceptés à l'upload
var mimeAutorises = map[string]string{
	"image/jpeg":      entity.DocumentPhoto,
	"image/png":       entity.DocumentPhoto,
	"image/webp":      entity.DocumentPhoto,
	"image/gif":       entity.DocumentPhoto,
	"application/pdf": entity.DocumentPDF,
	"text/plain":      entity.DocumentAutre,
}

// DocumentService dépôt et restitution de fichiers, binaires dans MinIO
type DocumentService struct {
	repo   *repository.DocumentRepository
	minio  *minio.Client
	bucket string
}

func NewDocumentService(repo *repository.DocumentRepository, minioClient *minio.Client, bucket string) *DocumentService {
	return &DocumentService{repo: repo, minio: minioClient, bucket: bucket}
}

// EnsureBucket crée le bucket s'il n'existe pas (appelé au démarrage)
func (s *DocumentService) EnsureBucket(ctx context.Context) error {
	if s.minio == nil {
		return nil
	}
	exists, err := s.minio.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return s.minio.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

// UploadMeta métadonnées accompagnant un dépôt de fichiers
type UploadMeta struct {
	ChantierID string
	Dossier    string
	Public     bool
	Tags       []string
}

// UploadResult résultat par fichier d'un dépôt multiple
type UploadResult struct {
	Documents []entity.Document `json:"documents"`
	Rejetes   []string          `json:"rejetes,omitempty"`
}

// Upload dépose un lot de fichiers. Chaque fichier est contrôlé (type MIME,
// taille) indépendamment : les fichiers valides passent, les autres sont
// listés dans Rejetes. Si aucun fichier ne passe, l'appel échoue en erreur
// de validation.
func (s *DocumentService) Upload(ctx context.Context, uploaderID string, files []*multipart.FileHeader, meta *UploadMeta) (*UploadResult, error) {
	if s.minio == nil {
		return nil, ErrStockageIndisponible
	}
	if len(files) == 0 {
		return nil, newValidationError("files")
	}

	result := &UploadResult{}
	for _, fh := range files {
		doc, err := s.uploadOne(ctx, uploaderID, fh, meta)
		if err != nil {
			var invalide *ErrFichierInvalide
			if errors.As(err, &invalide) {
				result.Rejetes = append(result.Rejetes, invalide.Error())
				continue
			}
			return nil, err
		}
		result.Documents = append(result.Documents, *doc)
	}
	if len(result.Documents) == 0 {
		return nil, &ValidationError{Champs: result.Rejetes}
	}
	return result, nil
}

func (s *DocumentService) uploadOne(ctx context.Context, uploaderID string, fh *multipart.FileHeader, meta *UploadMeta) (*entity.Document, error) {
	if fh.Size > MaxUploadSize {
		return nil, &ErrFichierInvalide{Nom: fh.Filename, Raison: "taille supérieure à 10 Mo"}
	}

	mimeType := fh.Header.Get("Content-Type")
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	docType, ok := mimeAutorises[mimeType]
	if !ok {
		return nil, &ErrFichierInvalide{Nom: fh.Filename, Raison: "type non autorisé: " + mimeType}
	}

	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	id := uuid.New().String()[:32]
	objectName := fmt.Sprintf("%s/%s%s", time.Now().Format("2006/01"), id, filepath.Ext(fh.Filename))

	_, err = s.minio.PutObject(ctx, s.bucket, objectName, src, fh.Size, minio.PutObjectOptions{
		ContentType: mimeType,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	doc := &entity.Document{
		ID:          id,
		Nom:         fh.Filename,
		NomOriginal: fh.Filename,
		Type:        docType,
		Taille:      fh.Size,
		MimeType:    mimeType,
		URL:         fmt.Sprintf("/api/v1/documents/%s/download", id),
		CheminMinio: objectName,
		UploaderID:  uploaderID,
		ChantierID:  meta.ChantierID,
		Dossier:     meta.Dossier,
		Public:      meta.Public,
		Tags:        meta.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, doc); err != nil {
		// Pas de rollback MinIO : l'objet orphelin sera purgé hors ligne
		return nil, err
	}
	return doc, nil
}

// List liste paginée avec filtres chantier/type/dossier/recherche
func (s *DocumentService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Document, int64, error) {
	return s.repo.FindAll(ctx, page, pageSize, filters)
}

// Get métadonnées d'un document
func (s *DocumentService) Get(ctx context.Context, id string) (*entity.Document, error) {
	return s.repo.FindByID(ctx, id)
}

// Download ouvre le flux binaire du document. L'appelant doit fermer le reader.
func (s *DocumentService) Download(ctx context.Context, id string) (*entity.Document, io.ReadCloser, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if s.minio == nil {
		return nil, nil, ErrStockageIndisponible
	}
	obj, err := s.minio.GetObject(ctx, s.bucket, doc.CheminMinio, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, err
	}
	return doc, obj, nil
}

// UpdateDocumentRequest mise à jour des métadonnées
type UpdateDocumentRequest struct {
	Nom         *string  `json:"nom"`
	Dossier     *string  `json:"dossier"`
	Public      *bool    `json:"public"`
	Tags        []string `json:"tags"`
	Metadonnees *string  `json:"metadonnees"`
}

// Update modifie les métadonnées, jamais le binaire
func (s *DocumentService) Update(ctx context.Context, id string, req *UpdateDocumentRequest) (*entity.Document, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Nom != nil {
		doc.Nom = *req.Nom
	}
	if req.Dossier != nil {
		doc.Dossier = *req.Dossier
	}
	if req.Public != nil {
		doc.Public = *req.Public
	}
	if req.Tags != nil {
		doc.Tags = req.Tags
	}
	if req.Metadonnees != nil {
		doc.Metadonnees = *req.Metadonnees
	}
	doc.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete supprime les métadonnées puis l'objet MinIO (meilleur effort)
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.minio != nil && doc.CheminMinio != "" {
		_ = s.minio.RemoveObject(ctx, s.bucket, doc.CheminMinio, minio.RemoveObjectOptions{})
	}
	return nil
}
