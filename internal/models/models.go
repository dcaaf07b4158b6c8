package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SubscriptionFree   = "FREE"
	SubscriptionActive = "ACTIVE"
)

// User is the authentication identity. Password handling and token
// issuance live outside this service; only the subscription tier is
// consulted here (AI character cardinality caps).
type User struct {
	ID                 string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email              string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	SubscriptionStatus string    `gorm:"type:varchar(16);not null;default:FREE" json:"subscription_status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.SubscriptionStatus == "" {
		u.SubscriptionStatus = SubscriptionFree
	}
	return nil
}

// Profile is the chat-facing identity, one-to-one with User. Messages
// and chat membership reference profiles, never users directly.
type Profile struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"-"`
	Username  string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	AvatarURL string    `gorm:"type:varchar(512)" json:"avatar_url"`
	Settings  string    `gorm:"type:text" json:"-"` // opaque JSON blob owned by the client
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Summary is the flattened profile shape embedded in chat and message
// views.
type Summary struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

func (p *Profile) Summary() Summary {
	return Summary{ID: p.ID, Username: p.Username, AvatarURL: p.AvatarURL}
}
