package aichar

import (
	"context"

	"gorm.io/gorm"

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

func (r *Repo) UserByID(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).
		First(&u, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) CharacterByID(ctx context.Context, characterID string) (*Character, error) {
	var c Character
	if err := r.db.WithContext(ctx).
		First(&c, "id = ?", characterID).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repo) CountCharactersByCreator(ctx context.Context, profileID string) (int64, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).Model(&Character{}).
		Where("creator_profile_id = ?", profileID).
		Count(&cnt).Error; err != nil {
		return 0, err
	}
	return cnt, nil
}

func (r *Repo) CreateCharacter(ctx context.Context, c *Character) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *Repo) CharactersByCreator(ctx context.Context, profileID string) ([]Character, error) {
	var cs []Character
	if err := r.db.WithContext(ctx).
		Where("creator_profile_id = ?", profileID).
		Order("created_at ASC").
		Find(&cs).Error; err != nil {
		return nil, err
	}
	return cs, nil
}

func (r *Repo) UpdateCharacterAvatar(ctx context.Context, characterID, avatarURL string) error {
	return r.db.WithContext(ctx).Model(&Character{}).
		Where("id = ?", characterID).
		Update("avatar_url", avatarURL).Error
}

// RecentTurnsDesc returns the newest turns of a (character, profile)
// thread, newest first; callers reverse for chronological order.
func (r *Repo) RecentTurnsDesc(ctx context.Context, characterID, profileID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 10
	}
	var msgs []Message
	if err := r.db.WithContext(ctx).
		Where("character_id = ? AND profile_id = ?", characterID, profileID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// TurnsAsc returns the full thread in chronological order.
func (r *Repo) TurnsAsc(ctx context.Context, characterID, profileID string) ([]Message, error) {
	var msgs []Message
	if err := r.db.WithContext(ctx).
		Where("character_id = ? AND profile_id = ?", characterID, profileID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// AppendExchange writes the USER and MODEL turns as one transaction so
// a failure cannot leave an orphaned half of the exchange.
func (r *Repo) AppendExchange(ctx context.Context, userTurn, modelTurn *Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(userTurn).Error; err != nil {
			return err
		}
		return tx.Create(modelTurn).Error
	})
}
