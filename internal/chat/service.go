package chat

import (
	"context"
	"errors"
	"log"
	"strings"

	"gorm.io/gorm"

	"github.com/JongGun06/dialx-back/internal/apperr"
	"github.com/JongGun06/dialx-back/internal/broadcast"
	"github.com/JongGun06/dialx-back/internal/models"
)

// Service owns the message pipeline and chat lifecycle. It depends on
// the abstract Broadcaster only; the transport adapter implementing it
// is wired in after construction, so there is no cycle between the
// gateway and this package.
type Service struct {
	repo *Repo
	bc   broadcast.Broadcaster
}

func NewService(repo *Repo, bc broadcast.Broadcaster) *Service {
	return &Service{repo: repo, bc: bc}
}

// validateMembership resolves (chatID, userID) to the caller's profile
// and the chat. Every chat operation calls this first; it has no side
// effects, so a rejected operation leaves no trace.
func (s *Service) validateMembership(ctx context.Context, chatID, userID string) (*models.Profile, *Chat, error) {
	profile, err := s.repo.ProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFound("your profile was not found")
		}
		return nil, nil, err
	}

	chat, err := s.repo.ChatByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFound("chat not found")
		}
		return nil, nil, err
	}

	member, err := s.repo.IsMember(ctx, chatID, profile.ID)
	if err != nil {
		return nil, nil, err
	}
	if !member {
		return nil, nil, apperr.Forbidden("you are not a participant of this chat")
	}
	return profile, chat, nil
}

// CreateMessage validates, persists and then broadcasts. The broadcast
// happens strictly after the insert commits; a store failure means no
// broadcast at all.
func (s *Service) CreateMessage(ctx context.Context, chatID, senderUserID, content, fileURL, fileType string) (*MessageView, error) {
	if strings.TrimSpace(content) == "" && fileURL == "" {
		return nil, apperr.BadRequest("message cannot be empty")
	}

	profile, _, err := s.validateMembership(ctx, chatID, senderUserID)
	if err != nil {
		return nil, err
	}

	msg := &Message{
		ChatID:   chatID,
		SenderID: profile.ID,
		Content:  content,
		FileURL:  fileURL,
		FileType: fileType,
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	msg.Sender = *profile
	view := messageView(msg)

	// Delivery is best effort; the persisted row is the source of truth.
	if err := s.bc.Broadcast(ctx, broadcast.ChatChannel(chatID), broadcast.EventNewMessage, view); err != nil {
		log.Printf("chat: broadcast newMessage failed chat_id=%s err=%v", chatID, err)
	}
	return &view, nil
}

func (s *Service) FindMessagesForChat(ctx context.Context, chatID, userID string) ([]MessageView, error) {
	if _, _, err := s.validateMembership(ctx, chatID, userID); err != nil {
		return nil, err
	}
	msgs, err := s.repo.MessagesForChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	views := make([]MessageView, 0, len(msgs))
	for i := range msgs {
		views = append(views, messageView(&msgs[i]))
	}
	return views, nil
}

// FindAllForUser lists the caller's chats with flattened participants
// and the newest message of each as a summary.
func (s *Service) FindAllForUser(ctx context.Context, userID string) ([]ChatView, error) {
	profile, err := s.repo.ProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("your profile was not found")
		}
		return nil, err
	}

	chats, err := s.repo.ChatsForProfile(ctx, profile.ID)
	if err != nil {
		return nil, err
	}

	views := make([]ChatView, 0, len(chats))
	for i := range chats {
		last, err := s.repo.LastMessage(ctx, chats[i].ID)
		if err != nil {
			return nil, err
		}
		views = append(views, chatView(&chats[i], last))
	}
	return views, nil
}

func (s *Service) FindChatByID(ctx context.Context, chatID, userID string) (*ChatView, error) {
	_, chat, err := s.validateMembership(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	view := chatView(chat, nil)
	return &view, nil
}

// CreateOrFindPrivateChat is idempotent per unordered profile pair: a
// repeated request returns the existing chat and notifies nobody.
func (s *Service) CreateOrFindPrivateChat(ctx context.Context, creatorUserID, otherProfileID string) (*ChatView, error) {
	creator, err := s.repo.ProfileByUserID(ctx, creatorUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("your profile was not found")
		}
		return nil, err
	}
	if creator.ID == otherProfileID {
		return nil, apperr.BadRequest("you cannot create a chat with yourself")
	}

	other, err := s.repo.ProfileByID(ctx, otherProfileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.BadRequest("invited user not found")
		}
		return nil, err
	}

	existing, err := s.repo.FindPrivateChatBetween(ctx, creator.ID, otherProfileID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.FindChatByID(ctx, existing.ID, creatorUserID)
	}

	chat := &Chat{Type: TypePrivate}
	if err := s.repo.CreateChatWithParticipants(ctx, chat, []string{creator.ID, otherProfileID}); err != nil {
		return nil, err
	}

	view, err := s.FindChatByID(ctx, chat.ID, creatorUserID)
	if err != nil {
		return nil, err
	}
	s.notifyNewChat(ctx, *view, []string{creator.UserID, other.UserID})
	return view, nil
}

// CreateGroupChat always creates. The creator is a participant even
// when omitted from (or duplicated in) the invite list.
func (s *Service) CreateGroupChat(ctx context.Context, creatorUserID string, profileIDs []string, name, avatarURL string) (*ChatView, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperr.BadRequest("group name is required")
	}

	creator, err := s.repo.ProfileByUserID(ctx, creatorUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("your profile was not found")
		}
		return nil, err
	}

	invited, err := s.requireProfilesExist(ctx, profileIDs)
	if err != nil {
		return nil, err
	}

	unique := dedupe(append([]string{creator.ID}, profileIDs...))

	chat := &Chat{Type: TypeGroup, Name: name, AvatarURL: avatarURL}
	if err := s.repo.CreateChatWithParticipants(ctx, chat, unique); err != nil {
		return nil, err
	}

	view, err := s.FindChatByID(ctx, chat.ID, creatorUserID)
	if err != nil {
		return nil, err
	}
	userIDs := []string{creator.UserID}
	for i := range invited {
		userIDs = append(userIDs, invited[i].UserID)
	}
	s.notifyNewChat(ctx, *view, dedupe(userIDs))
	return view, nil
}

// AddMembers requires the actor to already be a participant. Newly
// added members learn about the chat over their personal channels.
func (s *Service) AddMembers(ctx context.Context, chatID, userID string, profileIDs []string) (*ChatView, error) {
	if _, _, err := s.validateMembership(ctx, chatID, userID); err != nil {
		return nil, err
	}
	added, err := s.requireProfilesExist(ctx, profileIDs)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AddParticipants(ctx, chatID, dedupe(profileIDs)); err != nil {
		return nil, err
	}

	view, err := s.FindChatByID(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	userIDs := make([]string, 0, len(added))
	for i := range added {
		userIDs = append(userIDs, added[i].UserID)
	}
	s.notifyNewChat(ctx, *view, dedupe(userIDs))
	return view, nil
}

func (s *Service) RemoveMember(ctx context.Context, chatID, userID, memberProfileID string) error {
	if _, _, err := s.validateMembership(ctx, chatID, userID); err != nil {
		return err
	}
	return s.repo.RemoveParticipant(ctx, chatID, memberProfileID)
}

func (s *Service) UpdateAvatar(ctx context.Context, chatID, userID, avatarURL string) (*ChatView, error) {
	if _, _, err := s.validateMembership(ctx, chatID, userID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateChatAvatar(ctx, chatID, avatarURL); err != nil {
		return nil, err
	}
	return s.FindChatByID(ctx, chatID, userID)
}

func (s *Service) requireProfilesExist(ctx context.Context, profileIDs []string) ([]models.Profile, error) {
	unique := dedupe(profileIDs)
	found, err := s.repo.ProfilesByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(found) != len(unique) {
		return nil, apperr.BadRequest("one or more invited users were not found")
	}
	return found, nil
}

// notifyNewChat reaches participants over their personal channels, so
// an online invitee learns about the chat without having joined its
// room.
func (s *Service) notifyNewChat(ctx context.Context, view ChatView, userIDs []string) {
	for _, uid := range userIDs {
		if err := s.bc.Broadcast(ctx, broadcast.UserChannel(uid), broadcast.EventNewChat, view); err != nil {
			log.Printf("chat: broadcast newChat failed chat_id=%s user_id=%s err=%v", view.ID, uid, err)
		}
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
