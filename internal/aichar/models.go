package aichar

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JongGun06/dialx-back/internal/common"
	"github.com/JongGun06/dialx-back/internal/models"
)

const (
	RoleUser  = "USER"
	RoleModel = "MODEL"
)

// Character is a user-authored AI persona. Creation is capped by the
// owner's subscription tier.
type Character struct {
	ID               string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name             string    `gorm:"type:varchar(128);not null" json:"name"`
	Persona          string    `gorm:"type:text;not null" json:"persona"`
	AvatarURL        string    `gorm:"type:varchar(512)" json:"avatar_url"`
	CreatorProfileID string    `gorm:"type:varchar(36);not null;index" json:"creator_profile_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Character) TableName() string { return "ai_characters" }

func (c *Character) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Message is one turn of a (character, profile) conversation thread.
// Append-only; ULID ids keep thread order stable under created_at ties.
type Message struct {
	ID          string    `gorm:"type:varchar(26);primaryKey" json:"id"`
	CharacterID string    `gorm:"type:varchar(36);not null;index:idx_ai_msg_thread,priority:1" json:"character_id"`
	ProfileID   string    `gorm:"type:varchar(36);not null;index:idx_ai_msg_thread,priority:2" json:"profile_id"`
	Role        string    `gorm:"type:varchar(8);not null" json:"role"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	CreatedAt   time.Time `gorm:"index:idx_ai_msg_thread,priority:3" json:"created_at"`
}

func (Message) TableName() string { return "ai_messages" }

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		id, err := common.NewULID()
		if err != nil {
			return err
		}
		m.ID = id
	}
	return nil
}

// Reply is what the originating connection receives as an aiMessage
// event.
type Reply struct {
	CharacterID   string    `json:"characterId"`
	CharacterName string    `json:"characterName"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"createdAt"`
}

// TurnView is a history entry shaped for clients: MODEL turns carry
// the character as author, USER turns the profile.
type TurnView struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	CreatedAt time.Time      `json:"createdAt"`
	Author    models.Summary `json:"author"`
}
