package chat

import (
	"context"
	"fmt"
	"sync"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JongGun06/dialx-back/internal/apperr"
	"github.com/JongGun06/dialx-back/internal/broadcast"
	"github.com/JongGun06/dialx-back/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Profile{}, &Chat{}, &Participant{}, &Message{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) (*models.User, *models.Profile) {
	t.Helper()
	u := &models.User{Email: username + "@example.com"}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	p := &models.Profile{UserID: u.ID, Username: username}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed profile %s: %v", username, err)
	}
	return u, p
}

type recordedEvent struct {
	Channel string
	Event   string
	Payload any
}

// recordingBroadcaster captures events and, via the optional probe,
// lets tests observe database state at the moment of broadcast.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
	probe  func(ev recordedEvent)
}

func (b *recordingBroadcaster) Broadcast(ctx context.Context, channel, event string, payload any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	ev := recordedEvent{Channel: channel, Event: event, Payload: payload}
	b.events = append(b.events, ev)
	if b.probe != nil {
		b.probe(ev)
	}
	return nil
}

func (b *recordingBroadcaster) byEvent(event string) []recordedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []recordedEvent
	for _, ev := range b.events {
		if ev.Event == event {
			out = append(out, ev)
		}
	}
	return out
}

func newGroup(t *testing.T, svc *Service, creatorUserID string, memberProfileIDs []string) *ChatView {
	t.Helper()
	view, err := svc.CreateGroupChat(context.Background(), creatorUserID, memberProfileIDs, "room", "")
	if err != nil {
		t.Fatalf("create group chat: %v", err)
	}
	return view
}

func TestCreateMessage_PersistsBeforeBroadcast(t *testing.T) {
	db := openTestDB(t)
	bc := &recordingBroadcaster{}
	svc := NewService(NewRepo(db), bc)

	userA, _ := seedUser(t, db, "alice")
	_, profB := seedUser(t, db, "bob")
	view := newGroup(t, svc, userA.ID, []string{profB.ID})

	// The probe runs inside Broadcast: the message must already be
	// durably queryable when the room hears about it.
	durable := false
	bc.probe = func(ev recordedEvent) {
		if ev.Event != broadcast.EventNewMessage {
			return
		}
		mv := ev.Payload.(MessageView)
		var cnt int64
		if err := db.Model(&Message{}).Where("id = ?", mv.ID).Count(&cnt).Error; err != nil {
			t.Errorf("probe query: %v", err)
		}
		durable = cnt == 1
	}

	mv, err := svc.CreateMessage(context.Background(), view.ID, userA.ID, "hi", "", "")
	if err != nil {
		t.Fatalf("create message: %v", err)
	}
	if !durable {
		t.Fatalf("message was broadcast before it was durably queryable")
	}
	if mv.Author.Username != "alice" || mv.Content != "hi" {
		t.Fatalf("unexpected view: author=%q content=%q", mv.Author.Username, mv.Content)
	}

	events := bc.byEvent(broadcast.EventNewMessage)
	if len(events) != 1 {
		t.Fatalf("expected 1 newMessage broadcast, got %d", len(events))
	}
	if events[0].Channel != broadcast.ChatChannel(view.ID) {
		t.Fatalf("broadcast on wrong channel: %s", events[0].Channel)
	}

	// Same message, same position, through the read path.
	msgs, err := svc.FindMessagesForChat(context.Background(), view.ID, userA.ID)
	if err != nil {
		t.Fatalf("find messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != mv.ID || msgs[0].Content != "hi" {
		t.Fatalf("read path mismatch: %+v", msgs)
	}
}

func TestCreateMessage_EmptyRejected(t *testing.T) {
	db := openTestDB(t)
	bc := &recordingBroadcaster{}
	svc := NewService(NewRepo(db), bc)

	userA, _ := seedUser(t, db, "alice")
	_, profB := seedUser(t, db, "bob")
	view := newGroup(t, svc, userA.ID, []string{profB.ID})

	_, err := svc.CreateMessage(context.Background(), view.ID, userA.ID, "", "", "")
	if apperr.KindOf(err) != apperr.KindBadRequest {
		t.Fatalf("expected BadRequest, got %v", err)
	}
	if events := bc.byEvent(broadcast.EventNewMessage); len(events) != 0 {
		t.Fatalf("empty message must not broadcast, got %d events", len(events))
	}
	var cnt int64
	if err := db.Model(&Message{}).Count(&cnt).Error; err != nil || cnt != 0 {
		t.Fatalf("empty message must not persist: cnt=%d err=%v", cnt, err)
	}

	// A file-only message is fine.
	if _, err := svc.CreateMessage(context.Background(), view.ID, userA.ID, "", "https://cdn/x.png", "image/png"); err != nil {
		t.Fatalf("file-only message: %v", err)
	}
}

func TestCreateMessage_ValidatorRejections(t *testing.T) {
	db := openTestDB(t)
	bc := &recordingBroadcaster{}
	svc := NewService(NewRepo(db), bc)

	userA, _ := seedUser(t, db, "alice")
	_, profB := seedUser(t, db, "bob")
	userC, _ := seedUser(t, db, "carol")
	view := newGroup(t, svc, userA.ID, []string{profB.ID})

	// Unknown user -> no profile -> NotFound.
	if _, err := svc.CreateMessage(context.Background(), view.ID, uuid.NewString(), "hi", "", ""); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected NotFound for missing profile, got %v", err)
	}
	// Missing chat -> NotFound.
	if _, err := svc.CreateMessage(context.Background(), uuid.NewString(), userA.ID, "hi", "", ""); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected NotFound for missing chat, got %v", err)
	}
	// Carol has a profile but is not a participant -> Forbidden.
	if _, err := svc.CreateMessage(context.Background(), view.ID, userC.ID, "hi", "", ""); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected Forbidden for non-member, got %v", err)
	}

	// No side effects from any rejection.
	var cnt int64
	if err := db.Model(&Message{}).Count(&cnt).Error; err != nil || cnt != 0 {
		t.Fatalf("rejections must leave no rows: cnt=%d err=%v", cnt, err)
	}
}

func TestCreateOrFindPrivateChat_Idempotent(t *testing.T) {
	db := openTestDB(t)
	bc := &recordingBroadcaster{}
	svc := NewService(NewRepo(db), bc)

	userA, profA := seedUser(t, db, "alice")
	userB, profB := seedUser(t, db, "bob")

	first, err := svc.CreateOrFindPrivateChat(context.Background(), userA.ID, profB.ID)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := svc.CreateOrFindPrivateChat(context.Background(), userA.ID, profB.ID)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same chat id, got %s and %s", first.ID, second.ID)
	}

	// Argument order must not matter either.
	third, err := svc.CreateOrFindPrivateChat(context.Background(), userB.ID, profA.ID)
	if err != nil {
		t.Fatalf("reversed call: %v", err)
	}
	if third.ID != first.ID {
		t.Fatalf("reversed pair created a second chat: %s vs %s", third.ID, first.ID)
	}

	var cnt int64
	if err := db.Model(&Chat{}).Where("type = ?", TypePrivate).Count(&cnt).Error; err != nil || cnt != 1 {
		t.Fatalf("expected exactly 1 private chat, got %d (err=%v)", cnt, err)
	}

	// Bob's personal channel heard about the chat exactly once, from
	// the creating call only.
	bobEvents := 0
	for _, ev := range bc.byEvent(broadcast.EventNewChat) {
		if ev.Channel == broadcast.UserChannel(userB.ID) {
			bobEvents++
		}
	}
	if bobEvents != 1 {
		t.Fatalf("expected exactly 1 newChat for bob, got %d", bobEvents)
	}
}

func TestCreateOrFindPrivateChat_SelfRejected(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(NewRepo(db), &recordingBroadcaster{})

	userA, profA := seedUser(t, db, "alice")
	if _, err := svc.CreateOrFindPrivateChat(context.Background(), userA.ID, profA.ID); apperr.KindOf(err) != apperr.KindBadRequest {
		t.Fatalf("expected BadRequest for self chat, got %v", err)
	}
}

func TestCreateGroupChat_DeduplicatesParticipants(t *testing.T) {
	db := openTestDB(t)
	bc := &recordingBroadcaster{}
	svc := NewService(NewRepo(db), bc)

	userA, profA := seedUser(t, db, "alice")
	userB, profB := seedUser(t, db, "bob")

	// Creator listed explicitly and bob twice; both collapse.
	view, err := svc.CreateGroupChat(context.Background(), userA.ID, []string{profA.ID, profB.ID, profB.ID}, "team", "")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if !view.IsGroup {
		t.Fatalf("expected isGroup=true")
	}
	if len(view.Participants) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(view.Participants))
	}

	channels := map[string]bool{}
	for _, ev := range bc.byEvent(broadcast.EventNewChat) {
		channels[ev.Channel] = true
	}
	if !channels[broadcast.UserChannel(userA.ID)] || !channels[broadcast.UserChannel(userB.ID)] {
		t.Fatalf("every participant's personal channel must hear newChat, got %v", channels)
	}
}

func TestAddMembers_UnknownProfileRejected(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(NewRepo(db), &recordingBroadcaster{})

	userA, _ := seedUser(t, db, "alice")
	_, profB := seedUser(t, db, "bob")
	view := newGroup(t, svc, userA.ID, []string{profB.ID})

	_, err := svc.AddMembers(context.Background(), view.ID, userA.ID, []string{uuid.NewString()})
	if apperr.KindOf(err) != apperr.KindBadRequest {
		t.Fatalf("expected BadRequest for unknown invitee, got %v", err)
	}
	var cnt int64
	if err := db.Model(&Participant{}).Where("chat_id = ?", view.ID).Count(&cnt).Error; err != nil || cnt != 2 {
		t.Fatalf("membership must be unchanged: cnt=%d err=%v", cnt, err)
	}
}

func TestRemoveMember_NoopSafe(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(NewRepo(db), &recordingBroadcaster{})

	userA, _ := seedUser(t, db, "alice")
	_, profB := seedUser(t, db, "bob")
	_, profC := seedUser(t, db, "carol")
	view := newGroup(t, svc, userA.ID, []string{profB.ID})

	// Carol is not in the chat; removal is a no-op, not an error.
	if err := svc.RemoveMember(context.Background(), view.ID, userA.ID, profC.ID); err != nil {
		t.Fatalf("no-op removal errored: %v", err)
	}
	if err := svc.RemoveMember(context.Background(), view.ID, userA.ID, profB.ID); err != nil {
		t.Fatalf("removal errored: %v", err)
	}
	var cnt int64
	if err := db.Model(&Participant{}).Where("chat_id = ?", view.ID).Count(&cnt).Error; err != nil || cnt != 1 {
		t.Fatalf("expected 1 remaining participant, got %d (err=%v)", cnt, err)
	}
}

func TestFindAllForUser_IncludesLastMessage(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(NewRepo(db), &recordingBroadcaster{})

	userA, _ := seedUser(t, db, "alice")
	_, profB := seedUser(t, db, "bob")
	view := newGroup(t, svc, userA.ID, []string{profB.ID})

	if _, err := svc.CreateMessage(context.Background(), view.ID, userA.ID, "first", "", ""); err != nil {
		t.Fatalf("send first: %v", err)
	}
	if _, err := svc.CreateMessage(context.Background(), view.ID, userA.ID, "second", "", ""); err != nil {
		t.Fatalf("send second: %v", err)
	}

	chats, err := svc.FindAllForUser(context.Background(), userA.ID)
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(chats) != 1 {
		t.Fatalf("expected 1 chat, got %d", len(chats))
	}
	if chats[0].LastMessage == nil || chats[0].LastMessage.Content != "second" {
		t.Fatalf("expected last message %q, got %+v", "second", chats[0].LastMessage)
	}
}
