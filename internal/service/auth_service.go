package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/chantierpro/chantierpro/internal/config"
	"github.com/chantierpro/chantierpro/internal/entity"
	"github.com/chantierpro/chantierpro/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// ErrIdentifiantsInvalides email ou mot de passe incorrect
var ErrIdentifiantsInvalides = errors.New("identifiants invalides")

// ErrTokenInvalide token absent, expiré ou révoqué
var ErrTokenInvalide = errors.New("token invalide")

const refreshKeyPrefix = "token:refresh:"

// AuthService authentification JWT avec refresh tokens stockés dans Redis
type AuthService struct {
	users *repository.UserRepository
	rdb   *redis.Client
	cfg   *config.Config
}

func NewAuthService(users *repository.UserRepository, rdb *redis.Client, cfg *config.Config) *AuthService {
	return &AuthService{users: users, rdb: rdb, cfg: cfg}
}

// Claims claims du token d'accès
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenPair paire access/refresh retournée au client
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// LoginRequest identifiants de connexion
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResult utilisateur connecté + tokens
type LoginResult struct {
	User        *entity.User `json:"user"`
	Tokens      *TokenPair   `json:"tokens"`
	Permissions []string     `json:"permissions"`
}

// Login vérifie les identifiants et émet une paire de tokens
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrIdentifiantsInvalides
		}
		return nil, err
	}
	if user.Status != "active" {
		return nil, ErrIdentifiantsInvalides
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrIdentifiantsInvalides
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user.LastLoginAt = &now
	_ = s.users.Update(ctx, user)

	return &LoginResult{
		User:        user,
		Tokens:      tokens,
		Permissions: entity.PermissionsForRole(user.Role),
	}, nil
}

// Refresh échange un refresh token valide contre une nouvelle paire.
// Le token consommé est révoqué (rotation).
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.ParseToken(refreshToken)
	if err != nil {
		return nil, ErrTokenInvalide
	}
	jti := claims.ID
	if jti == "" {
		return nil, ErrTokenInvalide
	}

	key := refreshKeyPrefix + jti
	storedUserID, err := s.rdb.Get(ctx, key).Result()
	if err != nil || storedUserID != claims.UserID {
		return nil, ErrTokenInvalide
	}

	// Rotation : le token consommé ne resservira pas
	s.rdb.Del(ctx, key)

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrTokenInvalide
	}
	return s.issueTokens(ctx, user)
}

// Logout révoque le refresh token courant
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.ParseToken(refreshToken)
	if err != nil || claims.ID == "" {
		return nil // token déjà invalide, rien à révoquer
	}
	return s.rdb.Del(ctx, refreshKeyPrefix+claims.ID).Err()
}

// Me profil et permissions de l'utilisateur courant
func (s *AuthService) Me(ctx context.Context, userID string) (*entity.User, []string, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return user, entity.PermissionsForRole(user.Role), nil
}

// ParseToken valide la signature et l'expiration d'un token
func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalide
		}
		return []byte(s.cfg.JWT.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalide
	}
	return claims, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *entity.User) (*TokenPair, error) {
	now := time.Now()

	accessClaims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.JWT.Issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWT.AccessTokenExpire)),
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).
		SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return nil, err
	}

	jti := uuid.New().String()
	refreshClaims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.cfg.JWT.Issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWT.RefreshTokenExpire)),
		},
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).
		SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return nil, err
	}

	if err := s.rdb.Set(ctx, refreshKeyPrefix+jti, user.ID, s.cfg.JWT.RefreshTokenExpire).Err(); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.cfg.JWT.AccessTokenExpire.Seconds()),
	}, nil
}
