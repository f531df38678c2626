package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/chantierpro/chantierpro/internal/entity"
	"github.com/chantierpro/chantierpro/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrEmailPris adresse déjà utilisée par un autre compte
var ErrEmailPris = errors.New("adresse email déjà utilisée")

var rolesValides = map[string]bool{
	entity.RoleAdmin:      true,
	entity.RoleCommercial: true,
	entity.RoleOuvrier:    true,
	entity.RoleClient:     true,
}

// UserService gestion des comptes utilisateur
type UserService struct {
	repo *repository.UserRepository
}

func NewUserService(repo *repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// CreateUserRequest création d'un compte
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role"`
	Company  string `json:"company"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

// UpdateUserRequest mise à jour partielle d'un compte
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
	Company  *string `json:"company"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	Status   *string `json:"status"`
}

// List liste paginée avec filtres rôle/recherche
func (s *UserService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.User, int64, error) {
	return s.repo.FindAll(ctx, page, pageSize, filters)
}

// Get détail d'un compte
func (s *UserService) Get(ctx context.Context, id string) (*entity.User, error) {
	return s.repo.FindByID(ctx, id)
}

// Create crée un compte ; l'email est normalisé et doit être unique
func (s *UserService) Create(ctx context.Context, req *CreateUserRequest) (*entity.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Name == "" || len(req.Password) < 8 {
		return nil, newValidationError("name", "email", "password")
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailPris
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = entity.RoleOuvrier
	}
	if !rolesValides[role] {
		return nil, newValidationError("role")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &entity.User{
		ID:           uuid.New().String()[:32],
		Name:         req.Name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Company:      req.Company,
		Phone:        req.Phone,
		Address:      req.Address,
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Update met à jour un compte ; le changement d'email revérifie l'unicité
func (s *UserService) Update(ctx context.Context, id string, req *UpdateUserRequest) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != user.Email {
			if _, err := s.repo.FindByEmail(ctx, email); err == nil {
				return nil, ErrEmailPris
			} else if !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}
			user.Email = email
		}
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Role != nil {
		if !rolesValides[*req.Role] {
			return nil, newValidationError("role")
		}
		user.Role = *req.Role
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			return nil, newValidationError("password")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}
	if req.Company != nil {
		user.Company = *req.Company
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Address != nil {
		user.Address = *req.Address
	}
	if req.Status != nil {
		user.Status = *req.Status
	}
	user.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete supprime un compte
func (s *UserService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Permissions permissions effectives d'un compte
func (s *UserService) Permissions(ctx context.Context, id string) ([]string, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return entity.PermissionsForRole(user.Role), nil
}
