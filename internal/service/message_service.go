package service

import (
	"context"
	"encoding/json"
	"time"
	"unicode/utf8"

	"github.com/chantierpro/chantierpro/internal/entity"
	"github.com/chantierpro/chantierpro/internal/repository"
	"github.com/chantierpro/chantierpro/internal/sse"
	"github.com/google/uuid"
)

// MessageService messagerie de chantier et conversations directes.
// Les messages sont persistés en base ; le hub SSE ne porte que la
// notification temps réel.
type MessageService struct {
	repo *repository.MessageRepository
	hub  *sse.Hub
}

func NewMessageService(repo *repository.MessageRepository, hub *sse.Hub) *MessageService {
	return &MessageService{repo: repo, hub: hub}
}

// SendMessageRequest envoi d'un message
type SendMessageRequest struct {
	Message        string   `json:"message" binding:"required"`
	ChantierID     string   `json:"chantier_id"`
	DestinataireID string   `json:"destinataire_id"`
	Photos         []string `json:"photos"`
	ThreadID       string   `json:"thread_id"`
}

// Send crée un message et notifie le destinataire via SSE
func (s *MessageService) Send(ctx context.Context, expediteurID string, req *SendMessageRequest) (*entity.Message, error) {
	if req.Message == "" {
		return nil, newValidationError("message")
	}
	// Limite en caractères, pas en octets
	if utf8.RuneCountInString(req.Message) > entity.MessageMaxLen {
		return nil, newValidationError("message")
	}
	if req.ChantierID == "" && req.DestinataireID == "" {
		return nil, newValidationError("chantier_id", "destinataire_id")
	}

	// Une réponse doit référencer un message existant
	if req.ThreadID != "" {
		if _, err := s.repo.FindByID(ctx, req.ThreadID); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	msg := &entity.Message{
		ID:             uuid.New().String()[:32],
		ExpediteurID:   expediteurID,
		ChantierID:     req.ChantierID,
		DestinataireID: req.DestinataireID,
		Message:        req.Message,
		Photos:         req.Photos,
		ThreadID:       req.ThreadID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}

	s.notify(msg)
	return s.repo.FindByID(ctx, msg.ID)
}

// History historique paginé d'une conversation
func (s *MessageService) History(ctx context.Context, conversationID, userID string, page, pageSize int) ([]entity.Message, int64, error) {
	return s.repo.FindByConversation(ctx, conversationID, userID, page, pageSize)
}

// Recent boîte de réception : derniers messages d'un utilisateur
func (s *MessageService) Recent(ctx context.Context, userID string, limit int) ([]entity.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.FindRecent(ctx, userID, limit)
}

// MarkRead marque lus les messages d'une conversation, retourne le nombre traité
func (s *MessageService) MarkRead(ctx context.Context, conversationID, userID string) (int64, error) {
	return s.repo.MarkRead(ctx, conversationID, userID)
}

// ToggleReaction ajoute la réaction si absente, la retire si déjà posée
func (s *MessageService) ToggleReaction(ctx context.Context, messageID, userID, emoji string) (*entity.Message, error) {
	if emoji == "" {
		return nil, newValidationError("emoji")
	}
	if _, err := s.repo.FindByID(ctx, messageID); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindReaction(ctx, messageID, userID, emoji)
	switch {
	case err == nil:
		if err := s.repo.DeleteReaction(ctx, existing.ID); err != nil {
			return nil, err
		}
	case err == repository.ErrNotFound:
		reaction := &entity.MessageReaction{
			ID:        uuid.New().String()[:32],
			MessageID: messageID,
			UserID:    userID,
			Emoji:     emoji,
			CreatedAt: time.Now(),
		}
		if err := s.repo.CreateReaction(ctx, reaction); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	return s.repo.FindByID(ctx, messageID)
}

// Delete suppression douce : le corps est remplacé par un marqueur,
// l'entrée reste dans l'historique
func (s *MessageService) Delete(ctx context.Context, messageID, userID string) (*entity.Message, error) {
	msg, err := s.repo.FindByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.ExpediteurID != userID {
		return nil, ErrAccesRefuse
	}

	msg.Message = entity.MessageSupprime
	msg.Photos = nil
	msg.Supprime = true
	msg.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *MessageService) notify(msg *entity.Message) {
	if s.hub == nil {
		return
	}
	data, _ := json.Marshal(msg)
	event := sse.Event{EventType: "message", Data: string(data)}
	if msg.DestinataireID != "" {
		s.hub.SendToUser(msg.DestinataireID, event)
		return
	}
	// Message de chantier : diffusion, les clients filtrent par chantier_id
	s.hub.Broadcast(event)
}
