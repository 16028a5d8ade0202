package client

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"chatproxy-backend/internal/models"
)

// ErrNoChatsAfterCreate means a chat was created but the follow-up listing was still empty.
var ErrNoChatsAfterCreate = errors.New("no chats found after creating one")

const sendFailedNotice = "Failed to get AI response"

// Notifier shows transient, user-visible notices.
type Notifier interface {
	Notify(message string)
}

type chatAPI interface {
	HasToken() bool
	CreateChat(ctx context.Context) error
	ListChats(ctx context.Context) ([]models.Chat, error)
	SendMessage(ctx context.Context, chatID, prompt string) (*models.Message, error)
}

// AppState holds the signed-in user's chat list and the selected chat. It is only
// mutated through LoadChats, CreateNewChat and SendMessage.
type AppState struct {
	mu       sync.Mutex
	api      chatAPI
	notifier Notifier
	now      func() time.Time

	chats    []models.Chat
	selected *models.Chat
}

func NewAppState(api chatAPI, notifier Notifier) *AppState {
	return &AppState{api: api, notifier: notifier, now: time.Now}
}

// Chats returns a copy of the current list, most recent first.
func (s *AppState) Chats() []models.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Chat(nil), s.chats...)
}

// Selected returns a copy of the selected chat, or nil.
func (s *AppState) Selected() *models.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return nil
	}
	cp := *s.selected
	cp.Messages = append([]models.Message(nil), s.selected.Messages...)
	return &cp
}

// LoadChats fetches the user's chats, creating one when there are none, then sorts them
// by UpdatedAt (newest first) and selects the newest. Creation is attempted at most once.
// Failures are shown through the Notifier and also returned.
func (s *AppState) LoadChats(ctx context.Context) ([]models.Chat, *models.Chat, error) {
	created := false
	for {
		chats, err := s.api.ListChats(ctx)
		if err != nil {
			s.notify(err.Error())
			return nil, nil, err
		}

		if len(chats) > 0 {
			sortByRecency(chats)
			s.mu.Lock()
			s.chats = chats
			s.selected = &s.chats[0]
			s.mu.Unlock()
			return s.Chats(), s.Selected(), nil
		}

		if created {
			s.notify(ErrNoChatsAfterCreate.Error())
			return nil, nil, ErrNoChatsAfterCreate
		}

		if err := s.api.CreateChat(ctx); err != nil {
			s.notify(err.Error())
			return nil, nil, err
		}
		created = true
	}
}

// ErrUnknownChat means Select was given an ID that is not in the loaded list.
var ErrUnknownChat = errors.New("chat is not in the loaded list")

// Select makes the loaded chat with the given ID the selected one.
func (s *AppState) Select(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.chats {
		if s.chats[i].ID == id {
			s.selected = &s.chats[i]
			return nil
		}
	}
	return ErrUnknownChat
}

// CreateNewChat creates a chat for the signed-in user and reloads the list.
// It does nothing without a signed-in user.
func (s *AppState) CreateNewChat(ctx context.Context) error {
	if !s.api.HasToken() {
		return nil
	}

	if err := s.api.CreateChat(ctx); err != nil {
		s.notify(err.Error())
		return err
	}

	_, _, err := s.LoadChats(ctx)
	return err
}

// SendMessage posts prompt to chatID and, on success, appends the prompt and the
// assistant reply to the selected chat when it is chatID.
func (s *AppState) SendMessage(ctx context.Context, chatID, prompt string) (*models.Message, error) {
	reply, err := s.api.SendMessage(ctx, chatID, prompt)
	if err != nil {
		var apiErr *APIError
		switch {
		case errors.As(err, &apiErr) && apiErr.Message != "":
			s.notify(apiErr.Message)
		case apiErr != nil:
			s.notify(sendFailedNotice)
		default:
			s.notify(err.Error())
		}
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected != nil && s.selected.ID.String() == chatID {
		s.selected.Append(models.NewMessage(models.RoleUser, prompt, s.now()))
		s.selected.Append(*reply)
	}
	return reply, nil
}

func (s *AppState) notify(message string) {
	if s.notifier != nil {
		s.notifier.Notify(message)
	}
}

// sortByRecency orders chats newest-first by UpdatedAt, keeping input order on ties.
func sortByRecency(chats []models.Chat) {
	sort.SliceStable(chats, func(i, j int) bool {
		return chats[i].UpdatedAt.After(chats[j].UpdatedAt)
	})
}
