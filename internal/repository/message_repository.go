package repository

import (
	"context"
	"errors"

	"github.com/chantierpro/chantierpro/internal/entity"
	"gorm.io/gorm"
)

// MessageRepository dépôt messages (historique durable, pas de map en mémoire)
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// FindByConversation historique paginé d'une conversation, ordre chronologique.
// Une conversation est soit un chantier, soit un échange direct entre deux
// utilisateurs (conversationID = id du chantier ou de l'interlocuteur).
func (r *MessageRepository) FindByConversation(ctx context.Context, conversationID, userID string, page, pageSize int) ([]entity.Message, int64, error) {
	var items []entity.Message
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Message{}).
		Where("chantier_id = ? OR (destinataire_id = ? AND expediteur_id = ?) OR (destinataire_id = ? AND expediteur_id = ?)",
			conversationID, userID, conversationID, conversationID, userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Expediteur").
		Preload("Reactions").
		Order("created_at ASC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindRecent derniers messages visibles par un utilisateur (boîte de réception)
func (r *MessageRepository) FindRecent(ctx context.Context, userID string, limit int) ([]entity.Message, error) {
	var items []entity.Message
	err := r.db.WithContext(ctx).
		Preload("Expediteur").
		Where("destinataire_id = ? OR expediteur_id = ?", userID, userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

// FindByID recherche par identifiant
func (r *MessageRepository) FindByID(ctx context.Context, id string) (*entity.Message, error) {
	var m entity.Message
	err := r.db.WithContext(ctx).
		Preload("Reactions").
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Create crée un message
func (r *MessageRepository) Create(ctx context.Context, m *entity.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// Update enregistre un message
func (r *MessageRepository) Update(ctx context.Context, m *entity.Message) error {
	return r.db.WithContext(ctx).Omit("Reactions").Save(m).Error
}

// MarkRead marque lus tous les messages d'une conversation adressés à l'utilisateur
func (r *MessageRepository) MarkRead(ctx context.Context, conversationID, userID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("lu = false AND (chantier_id = ? OR (expediteur_id = ? AND destinataire_id = ?))",
			conversationID, conversationID, userID).
		Update("lu", true)
	return res.RowsAffected, res.Error
}

// FindReaction réaction existante d'un utilisateur sur un message
func (r *MessageRepository) FindReaction(ctx context.Context, messageID, userID, emoji string) (*entity.MessageReaction, error) {
	var reaction entity.MessageReaction
	err := r.db.WithContext(ctx).
		Where("message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji).
		First(&reaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &reaction, nil
}

// CreateReaction ajoute une réaction
func (r *MessageRepository) CreateReaction(ctx context.Context, reaction *entity.MessageReaction) error {
	return r.db.WithContext(ctx).Create(reaction).Error
}

// DeleteReaction retire une réaction
func (r *MessageRepository) DeleteReaction(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.MessageReaction{}).Error
}
