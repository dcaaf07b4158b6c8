package chat

import (
	"time"

	"github.com/JongGun06/dialx-back/internal/models"
)

// MessageView is the author-enriched shape broadcast to rooms and
// returned to callers; join rows are flattened away.
type MessageView struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	FileURL   string         `json:"fileUrl"`
	FileType  string         `json:"fileType"`
	CreatedAt time.Time      `json:"createdAt"`
	Author    models.Summary `json:"author"`
}

// ChatView surfaces the chat type only as the derived isGroup flag and
// participants as bare profile summaries.
type ChatView struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	AvatarURL    string           `json:"avatarUrl"`
	IsGroup      bool             `json:"isGroup"`
	Participants []models.Summary `json:"participants"`
	LastMessage  *MessageView     `json:"lastMessage,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
}

func messageView(m *Message) MessageView {
	return MessageView{
		ID:        m.ID,
		Content:   m.Content,
		FileURL:   m.FileURL,
		FileType:  m.FileType,
		CreatedAt: m.CreatedAt,
		Author:    m.Sender.Summary(),
	}
}

func chatView(c *Chat, last *Message) ChatView {
	v := ChatView{
		ID:           c.ID,
		Name:         c.Name,
		AvatarURL:    c.AvatarURL,
		IsGroup:      c.Type == TypeGroup,
		Participants: make([]models.Summary, 0, len(c.Participants)),
		CreatedAt:    c.CreatedAt,
	}
	for i := range c.Participants {
		v.Participants = append(v.Participants, c.Participants[i].Profile.Summary())
	}
	if last != nil {
		mv := messageView(last)
		v.LastMessage = &mv
	}
	return v
}
