package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JongGun06/dialx-back/internal/common"
	"github.com/JongGun06/dialx-back/internal/models"
)

const (
	TypePrivate = "PRIVATE"
	TypeGroup   = "GROUP"
)

type Chat struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Type      string    `gorm:"type:varchar(16);not null;index" json:"-"`
	Name      string    `gorm:"type:varchar(128)" json:"name"`
	AvatarURL string    `gorm:"type:varchar(512)" json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Participants []Participant `gorm:"foreignKey:ChatID" json:"-"`
}

func (Chat) TableName() string { return "chats" }

func (c *Chat) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Participant binds a profile to a chat; membership is binary, no
// roles. The (chat_id, profile_id) pair is unique.
type Participant struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	ChatID    string    `gorm:"type:varchar(36);not null;index;uniqueIndex:uniq_chat_profile,priority:1" json:"chat_id"`
	ProfileID string    `gorm:"type:varchar(36);not null;uniqueIndex:uniq_chat_profile,priority:2" json:"profile_id"`
	CreatedAt time.Time `json:"created_at"`

	Profile models.Profile `gorm:"foreignKey:ProfileID" json:"-"`
}

func (Participant) TableName() string { return "chat_participants" }

// Message is immutable once created. IDs are ULIDs so id order follows
// insertion order within a chat, which breaks created_at ties.
type Message struct {
	ID       string `gorm:"type:varchar(26);primaryKey" json:"id"`
	ChatID   string `gorm:"type:varchar(36);not null;index:idx_chat_msg_chat_created,priority:1" json:"chat_id"`
	SenderID string `gorm:"type:varchar(36);not null;index" json:"sender_id"`
	Content  string `gorm:"type:text" json:"content"`
	FileURL  string `gorm:"type:varchar(512)" json:"file_url"`
	FileType string `gorm:"type:varchar(64)" json:"file_type"`

	CreatedAt time.Time `gorm:"index:idx_chat_msg_chat_created,priority:2" json:"created_at"`

	Sender models.Profile `gorm:"foreignKey:SenderID" json:"-"`
}

func (Message) TableName() string { return "chat_messages" }

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
