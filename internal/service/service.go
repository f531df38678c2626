package service

import (
	"github.com/chantierpro/chantierpro/internal/config"
	"github.com/chantierpro/chantierpro/internal/repository"
	"github.com/chantierpro/chantierpro/internal/sse"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
)

// Services collection des services métier
type Services struct {
	Auth     *AuthService
	User     *UserService
	Chantier *ChantierService
	Devis    *DevisService
	Document *DocumentService
	Message  *MessageService
	Planning *PlanningService
}

// NewServices crée la collection des services
func NewServices(repos *repository.Repositories, rdb *redis.Client, hub *sse.Hub, cfg *config.Config) *Services {
	// Client MinIO pour le stockage des documents
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			// Le service documents fonctionne en mode dégradé sans stockage
			minioClient = nil
		}
	}

	return &Services{
		Auth:     NewAuthService(repos.User, rdb, cfg),
		User:     NewUserService(repos.User),
		Chantier: NewChantierService(repos.Chantier),
		Devis:    NewDevisService(repos.Devis, rdb, hub),
		Document: NewDocumentService(repos.Document, minioClient, cfg.MinIO.Bucket),
		Message:  NewMessageService(repos.Message, hub),
		Planning: NewPlanningService(repos.Planning),
	}
}
