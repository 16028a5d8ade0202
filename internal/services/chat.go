package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chatproxy-backend/internal/cache"
	"chatproxy-backend/internal/metrics"
	"chatproxy-backend/internal/models"
	"chatproxy-backend/internal/repository"
)

const (
	maxChatNameLength = 100
	// Bound on persistence done after the caller may have gone away.
	writeTimeout = 10 * time.Second
)

type chatStore interface {
	Create(ctx context.Context, c *models.Chat) error
	FindByUserAndID(ctx context.Context, userID string, id uuid.UUID) (*models.Chat, error)
	ListByUser(ctx context.Context, userID string) ([]models.Chat, error)
	Save(ctx context.Context, c *models.Chat) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

type chatListCache interface {
	Get(ctx context.Context, userID string) ([]models.Chat, error)
	Generation(ctx context.Context, userID string) (int64, error)
	SetIfGeneration(ctx context.Context, userID string, gen int64, chats []models.Chat) error
	Invalidate(ctx context.Context, userID string) error
}

type eventPublisher interface {
	Publish(ctx context.Context, userID string, msg models.WSMessage) error
}

type ChatService struct {
	store        chatStore
	inferencer   Inferencer
	cache        chatListCache
	events       eventPublisher
	fallbackText string
	logger       zerolog.Logger
	now          func() time.Time
}

func NewChatService(
	store chatStore,
	inferencer Inferencer,
	cache chatListCache,
	events eventPublisher,
	fallbackText string,
	logger zerolog.Logger,
) *ChatService {
	return &ChatService{
		store:        store,
		inferencer:   inferencer,
		cache:        cache,
		events:       events,
		fallbackText: fallbackText,
		logger:       logger.With().Str("component", "chat_service").Logger(),
		now:          time.Now,
	}
}

// AppendExchange records prompt as a user message, asks the inferencer for a reply, records
// the reply as an assistant message and persists the chat in one write. Only the assistant
// message is returned. If the chat cannot be loaded nothing is written.
func (s *ChatService) AppendExchange(ctx context.Context, userID, chatID, prompt string) (*models.Message, error) {
	if userID == "" {
		metrics.IncChatExchange("unauthenticated")
		return nil, errUnauthenticated
	}
	if strings.TrimSpace(prompt) == "" {
		metrics.IncChatExchange("invalid")
		return nil, &ValidationError{Fields: map[string]string{"prompt": "Prompt is required"}}
	}

	chat, err := s.findChat(ctx, userID, chatID)
	if err != nil {
		s.countExchangeError(err)
		return nil, err
	}

	chat.Append(models.NewMessage(models.RoleUser, prompt, s.now()))

	reply := s.generate(ctx, chat.ID, prompt)
	assistant := models.NewMessage(models.RoleAssistant, reply, s.now())
	chat.Append(assistant)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	if err := s.store.Save(ctx, chat); err != nil {
		err = saveError(err)
		s.countExchangeError(err)
		return nil, err
	}
	metrics.IncChatExchange("ok")

	s.afterWrite(ctx, userID, models.WSMessage{
		Type: models.EventChatMessage,
		Payload: models.ChatMessageEvent{
			ChatID:   chat.ID.String(),
			Messages: chat.Messages[len(chat.Messages)-2:],
		},
	})

	return &assistant, nil
}

// generate never fails: any inference problem degrades to the fallback text.
func (s *ChatService) generate(ctx context.Context, chatID uuid.UUID, prompt string) string {
	provider := s.inferencer.Provider()
	start := time.Now()
	reply, err := s.inferencer.Generate(ctx, prompt)
	elapsed := time.Since(start)

	switch {
	case err != nil && !errors.Is(err, ErrEmptyGeneration):
		metrics.ObserveInference(provider, "error", elapsed)
		s.logger.Warn().Err(err).
			Str("provider", provider).
			Str("chat_id", chatID.String()).
			Dur("elapsed", elapsed).
			Msg("inference failed, using fallback reply")
	case err != nil || reply == "":
		metrics.ObserveInference(provider, "empty", elapsed)
		s.logger.Warn().
			Str("provider", provider).
			Str("chat_id", chatID.String()).
			Msg("inference returned no text, using fallback reply")
	default:
		metrics.ObserveInference(provider, "ok", elapsed)
		return reply
	}

	metrics.IncFallbackReply()
	return s.fallbackText
}

func (s *ChatService) CreateChat(ctx context.Context, userID string) (*models.Chat, error) {
	if userID == "" {
		return nil, errUnauthenticated
	}

	chat := &models.Chat{
		UserID:   userID,
		Name:     models.DefaultChatName,
		Messages: []models.Message{},
	}
	if err := s.store.Create(ctx, chat); err != nil {
		return nil, &PersistenceError{Op: "create chat", Err: err}
	}
	metrics.IncChatCreated()

	s.afterWrite(ctx, userID, models.WSMessage{
		Type:    models.EventChatCreated,
		Payload: models.ChatEvent{ChatID: chat.ID.String(), Name: chat.Name},
	})
	return chat, nil
}

// ListChats returns the user's chats, most recently updated first.
func (s *ChatService) ListChats(ctx context.Context, userID string) ([]models.Chat, error) {
	if userID == "" {
		return nil, errUnauthenticated
	}

	chats, err := s.cache.Get(ctx, userID)
	switch {
	case err == nil:
		metrics.IncCacheRequest("chat_list", "hit")
		return chats, nil
	case errors.Is(err, cache.ErrMiss):
		metrics.IncCacheRequest("chat_list", "miss")
	default:
		metrics.IncCacheRequest("chat_list", "error")
		s.logger.Warn().Err(err).Msg("chat list cache read failed")
	}

	// The generation is read before the database so a write that lands in between
	// keeps this (older) list out of the cache.
	gen, genErr := s.cache.Generation(ctx, userID)
	if genErr != nil {
		s.logger.Warn().Err(genErr).Msg("chat list cache generation read failed")
	}

	chats, err = s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, &PersistenceError{Op: "list chats", Err: err}
	}

	if genErr == nil {
		switch err := s.cache.SetIfGeneration(ctx, userID, gen, chats); {
		case errors.Is(err, cache.ErrStale):
			s.logger.Debug().Msg("chat list changed during read, not cached")
		case err != nil:
			s.logger.Warn().Err(err).Msg("chat list cache write failed")
		}
	}
	return chats, nil
}

func (s *ChatService) RenameChat(ctx context.Context, userID, chatID, name string) (*models.Chat, error) {
	if userID == "" {
		return nil, errUnauthenticated
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Fields: map[string]string{"name": "Name is required"}}
	}
	if utf8.RuneCountInString(name) > maxChatNameLength {
		return nil, &ValidationError{Fields: map[string]string{"name": "Name is too long"}}
	}

	chat, err := s.findChat(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	chat.Name = name
	chat.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, chat); err != nil {
		return nil, saveError(err)
	}

	s.afterWrite(ctx, userID, models.WSMessage{
		Type:    models.EventChatRenamed,
		Payload: models.ChatEvent{ChatID: chat.ID.String(), Name: chat.Name},
	})
	return chat, nil
}

func (s *ChatService) DeleteChat(ctx context.Context, userID, chatID string) error {
	if userID == "" {
		return errUnauthenticated
	}

	id, err := uuid.Parse(chatID)
	if err != nil {
		return &NotFoundError{Message: "Chat not found"}
	}

	if err := s.store.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			return &NotFoundError{Message: "Chat not found"}
		}
		return &PersistenceError{Op: "delete chat", Err: err}
	}

	s.afterWrite(ctx, userID, models.WSMessage{
		Type:    models.EventChatDeleted,
		Payload: models.ChatEvent{ChatID: id.String()},
	})
	return nil
}

func (s *ChatService) findChat(ctx context.Context, userID, chatID string) (*models.Chat, error) {
	id, err := uuid.Parse(chatID)
	if err != nil {
		return nil, &NotFoundError{Message: "Chat not found"}
	}

	chat, err := s.store.FindByUserAndID(ctx, userID, id)
	if errors.Is(err, repository.ErrChatNotFound) {
		return nil, &NotFoundError{Message: "Chat not found"}
	}
	if err != nil {
		return nil, &PersistenceError{Op: "load chat", Err: err}
	}
	return chat, nil
}

func saveError(err error) error {
	switch {
	case errors.Is(err, repository.ErrVersionConflict):
		return &ConflictError{Message: "Chat was updated by another request, please retry"}
	case errors.Is(err, repository.ErrChatNotFound):
		return &NotFoundError{Message: "Chat not found"}
	default:
		return &PersistenceError{Op: "save chat", Err: err}
	}
}

func (s *ChatService) countExchangeError(err error) {
	var (
		notFound *NotFoundError
		conflict *ConflictError
	)
	switch {
	case errors.As(err, &notFound):
		metrics.IncChatExchange("not_found")
	case errors.As(err, &conflict):
		metrics.IncChatExchange("conflict")
	default:
		metrics.IncChatExchange("persistence_error")
	}
}

// afterWrite drops the cached chat list and notifies the user's open sessions.
// Both are best-effort; the write already succeeded.
func (s *ChatService) afterWrite(ctx context.Context, userID string, event models.WSMessage) {
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Msg("chat list cache invalidation failed")
	}
	if err := s.events.Publish(ctx, userID, event); err != nil {
		s.logger.Warn().Err(err).Str("event", event.Type).Msg("realtime publish failed")
	}
}
