package chat

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JongGun06/dialx-back/internal/models"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) ProfileByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) ProfilesByIDs(ctx context.Context, ids []string) ([]models.Profile, error) {
	var ps []models.Profile
	if len(ids) == 0 {
		return ps, nil
	}
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&ps).Error; err != nil {
		return nil, err
	}
	return ps, nil
}

func (r *Repo) ChatByID(ctx context.Context, chatID string) (*Chat, error) {
	var c Chat
	if err := r.db.WithContext(ctx).
		Preload("Participants.Profile").
		First(&c, "id = ?", chatID).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repo) IsMember(ctx context.Context, chatID, profileID string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).Model(&Participant{}).
		Where("chat_id = ? AND profile_id = ?", chatID, profileID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

// ChatsForProfile returns every chat the profile participates in, with
// participants preloaded.
func (r *Repo) ChatsForProfile(ctx context.Context, profileID string) ([]Chat, error) {
	var chats []Chat
	if err := r.db.WithContext(ctx).
		Preload("Participants.Profile").
		Joins("JOIN chat_participants m ON m.chat_id = chats.id").
		Where("m.profile_id = ?", profileID).
		Find(&chats).Error; err != nil {
		return nil, err
	}
	return chats, nil
}

// FindPrivateChatBetween returns the PRIVATE chat containing both
// profiles, or nil when none exists.
func (r *Repo) FindPrivateChatBetween(ctx context.Context, profileA, profileB string) (*Chat, error) {
	var c Chat
	err := r.db.WithContext(ctx).
		Where("type = ?", TypePrivate).
		Where("EXISTS (SELECT 1 FROM chat_participants pa WHERE pa.chat_id = chats.id AND pa.profile_id = ?)", profileA).
		Where("EXISTS (SELECT 1 FROM chat_participants pb WHERE pb.chat_id = chats.id AND pb.profile_id = ?)", profileB).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateChatWithParticipants persists the chat and its membership rows
// in one transaction.
func (r *Repo) CreateChatWithParticipants(ctx context.Context, c *Chat, profileIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		rows := make([]Participant, 0, len(profileIDs))
		for _, pid := range profileIDs {
			rows = append(rows, Participant{ChatID: c.ID, ProfileID: pid})
		}
		return tx.Create(&rows).Error
	})
}

// AddParticipants inserts membership rows, silently skipping pairs
// that already exist.
func (r *Repo) AddParticipants(ctx context.Context, chatID string, profileIDs []string) error {
	if len(profileIDs) == 0 {
		return nil
	}
	rows := make([]Participant, 0, len(profileIDs))
	for _, pid := range profileIDs {
		rows = append(rows, Participant{ChatID: chatID, ProfileID: pid})
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

// RemoveParticipant deletes by the unique (chat_id, profile_id) pair;
// removing an absent member is a no-op.
func (r *Repo) RemoveParticipant(ctx context.Context, chatID, profileID string) error {
	return r.db.WithContext(ctx).
		Where("chat_id = ? AND profile_id = ?", chatID, profileID).
		Delete(&Participant{}).Error
}

func (r *Repo) UpdateChatAvatar(ctx context.Context, chatID, avatarURL string) error {
	return r.db.WithContext(ctx).Model(&Chat{}).
		Where("id = ?", chatID).
		Update("avatar_url", avatarURL).Error
}

func (r *Repo) CreateMessage(ctx context.Context, m *Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// MessagesForChat returns the full chat history in insertion order.
func (r *Repo) MessagesForChat(ctx context.Context, chatID string) ([]Message, error) {
	var msgs []Message
	if err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("chat_id = ?", chatID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// LastMessage returns the newest message of a chat, or nil when the
// chat is empty.
func (r *Repo) LastMessage(ctx context.Context, chatID string) (*Message, error) {
	var m Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("chat_id = ?", chatID).
		Order("created_at DESC, id DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repo) ProfileByID(ctx context.Context, profileID string) (*models.Profile, error) {
	var p models.Profile
	if err := r.db.WithContext(ctx).
		First(&p, "id = ?", profileID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}
