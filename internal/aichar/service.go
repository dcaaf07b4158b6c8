package aichar

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/JongGun06/dialx-back/internal/ai"
	"github.com/JongGun06/dialx-back/internal/apperr"
	"github.com/JongGun06/dialx-back/internal/models"
)

const fallbackReply = "The assistant is unavailable right now. Please try again later."

const (
	freeCharacterLimit = 1
	paidCharacterLimit = 5
)

// Service orchestrates AI conversations: bounded history assembly,
// the completion round trip, and the atomic persistence of each
// exchanged turn pair.
type Service struct {
	repo          *Repo
	provider      ai.Provider
	historyWindow int
	timeout       time.Duration
}

func NewService(repo *Repo, provider ai.Provider, historyWindow int, timeout time.Duration) *Service {
	if historyWindow <= 0 || historyWindow > 100 {
		historyWindow = 10
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Service{repo: repo, provider: provider, historyWindow: historyWindow, timeout: timeout}
}

// SendToCharacter runs one conversation turn. On collaborator failure
// it recovers into a fallback reply and persists nothing; the error is
// logged, never surfaced to the client as a protocol error.
func (s *Service) SendToCharacter(ctx context.Context, characterID, userID, content string) (*Reply, error) {
	profile, err := s.repo.ProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("your profile was not found")
		}
		return nil, err
	}

	character, err := s.repo.CharacterByID(ctx, characterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("character not found")
		}
		return nil, err
	}

	// Bounded context: the newest turns of this thread only, restored
	// to chronological order, with the fresh utterance appended last.
	recentDesc, err := s.repo.RecentTurnsDesc(ctx, characterID, profile.ID, s.historyWindow)
	if err != nil {
		return nil, err
	}
	history := make([]ai.Turn, 0, len(recentDesc)+1)
	for i := len(recentDesc) - 1; i >= 0; i-- {
		m := recentDesc[i]
		history = append(history, ai.Turn{Role: strings.ToLower(m.Role), Content: m.Content})
	}
	history = append(history, ai.Turn{Role: ai.RoleUser, Content: content})

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	replyText, err := s.provider.Complete(cctx, character.Persona, history)
	if err != nil {
		log.Printf("aichar: completion failed character_id=%s profile_id=%s err=%v", characterID, profile.ID, err)
		return &Reply{
			CharacterID:   character.ID,
			CharacterName: character.Name,
			Content:       fallbackReply,
			CreatedAt:     time.Now(),
		}, nil
	}

	userTurn := &Message{CharacterID: characterID, ProfileID: profile.ID, Role: RoleUser, Content: content}
	modelTurn := &Message{CharacterID: characterID, ProfileID: profile.ID, Role: RoleModel, Content: replyText}
	if err := s.repo.AppendExchange(ctx, userTurn, modelTurn); err != nil {
		return nil, err
	}

	return &Reply{
		CharacterID:   character.ID,
		CharacterName: character.Name,
		Content:       replyText,
		CreatedAt:     modelTurn.CreatedAt,
	}, nil
}

// CreateCharacter enforces the tier cap: FREE users get one character,
// paid subscribers five.
func (s *Service) CreateCharacter(ctx context.Context, userID, name, persona, avatarURL string) (*Character, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperr.BadRequest("character name is required")
	}
	if len(strings.TrimSpace(persona)) < 10 {
		return nil, apperr.BadRequest("persona must be at least 10 characters")
	}

	profile, err := s.repo.ProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("your profile was not found")
		}
		return nil, err
	}
	user, err := s.repo.UserByID(ctx, profile.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}

	count, err := s.repo.CountCharactersByCreator(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	switch user.SubscriptionStatus {
	case models.SubscriptionActive:
		if count >= paidCharacterLimit {
			return nil, apperr.Forbidden("character limit of 5 reached")
		}
	default:
		if count >= freeCharacterLimit {
			return nil, apperr.Forbidden("free users can create only 1 character")
		}
	}

	c := &Character{
		Name:             name,
		Persona:          persona,
		AvatarURL:        avatarURL,
		CreatorProfileID: profile.ID,
	}
	if err := s.repo.CreateCharacter(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) CharactersForUser(ctx context.Context, userID string) ([]Character, error) {
	profile, err := s.repo.ProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("your profile was not found")
		}
		return nil, err
	}
	return s.repo.CharactersByCreator(ctx, profile.ID)
}

// MessagesForCharacter returns the caller's thread with the character;
// only the creator may read it.
func (s *Service) MessagesForCharacter(ctx context.Context, characterID, userID string) ([]TurnView, error) {
	profile, character, err := s.requireOwnedCharacter(ctx, characterID, userID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.repo.TurnsAsc(ctx, characterID, profile.ID)
	if err != nil {
		return nil, err
	}

	views := make([]TurnView, 0, len(msgs))
	for i := range msgs {
		m := &msgs[i]
		author := profile.Summary()
		if m.Role == RoleModel {
			author = models.Summary{ID: character.ID, Username: character.Name, AvatarURL: character.AvatarURL}
		}
		views = append(views, TurnView{ID: m.ID, Content: m.Content, CreatedAt: m.CreatedAt, Author: author})
	}
	return views, nil
}

func (s *Service) UpdateCharacterAvatar(ctx context.Context, characterID, userID, avatarURL string) (*Character, error) {
	_, character, err := s.requireOwnedCharacter(ctx, characterID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateCharacterAvatar(ctx, characterID, avatarURL); err != nil {
		return nil, err
	}
	character.AvatarURL = avatarURL
	return character, nil
}

func (s *Service) requireOwnedCharacter(ctx context.Context, characterID, userID string) (*models.Profile, *Character, error) {
	profile, err := s.repo.ProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFound("your profile was not found")
		}
		return nil, nil, err
	}
	character, err := s.repo.CharacterByID(ctx, characterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFound("character not found")
		}
		return nil, nil, err
	}
	if character.CreatorProfileID != profile.ID {
		return nil, nil, apperr.Forbidden("you do not own this character")
	}
	return profile, character, nil
}
