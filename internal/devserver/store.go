package devserver

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/buyerdesk/pkg/models"
)

// BuyerProfile is the buyer identity attached to a chat row. In production
// this lives with the buyer CRUD collaborator; here it is captured from the
// token claims on first contact.
type BuyerProfile struct {
	ID      string
	Name    string
	Email   string
	Company string
}

type chatState struct {
	id              string
	profile         BuyerProfile
	messages        []models.Message
	hiddenFromAdmin bool
}

// Store is the in-memory backing for the reference backend. Exactly one
// chat exists per buyer, created implicitly on first contact. Admin-side
// deletion is a soft hide; the chat reappears on the next message exchange.
type Store struct {
	mu    sync.Mutex
	chats map[string]*chatState
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{chats: make(map[string]*chatState)}
}

func (s *Store) ensureLocked(p BuyerProfile) *chatState {
	cs, ok := s.chats[p.ID]
	if !ok {
		cs = &chatState{id: uuid.NewString(), profile: p}
		s.chats[p.ID] = cs
	}
	if p.Name != "" {
		cs.profile.Name = p.Name
	}
	if p.Email != "" {
		cs.profile.Email = p.Email
	}
	if p.Company != "" {
		cs.profile.Company = p.Company
	}
	return cs
}

// Append stores a new message in the buyer's chat, creating the chat if
// needed. A hidden conversation is resurrected: a new exchange recreates it
// in the admin's list.
func (s *Store) Append(p BuyerProfile, sender models.Role, content string) models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs := s.ensureLocked(p)
	cs.hiddenFromAdmin = false
	msg := models.Message{
		ID:         uuid.NewString(),
		ChatID:     cs.id,
		SenderRole: sender,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	cs.messages = append(cs.messages, msg)
	return msg
}

// Conversations renders the admin list: one entry per non-hidden chat,
// unread relative to the admin viewer, newest activity first.
func (s *Store) Conversations() []models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]models.Conversation, 0, len(s.chats))
	for _, cs := range s.chats {
		if cs.hiddenFromAdmin {
			continue
		}
		conv := models.Conversation{
			BuyerID:     cs.profile.ID,
			BuyerName:   cs.profile.Name,
			BuyerEmail:  cs.profile.Email,
			CompanyName: cs.profile.Company,
			UnreadCount: unreadFor(cs.messages, models.RoleAdmin),
		}
		conv.HasUnread = conv.UnreadCount > 0
		if n := len(cs.messages); n > 0 {
			conv.LastMessage = cs.messages[n-1].Content
			conv.LastMessageAt = cs.messages[n-1].CreatedAt
		}
		list = append(list, conv)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].LastMessageAt.After(list[j].LastMessageAt)
	})
	return list
}

// ChatFor renders one buyer's thread with unread counted relative to the
// viewer. The chat is created implicitly so its identity is stable from the
// first fetch onward.
func (s *Store) ChatFor(p BuyerProfile, viewer models.Role) models.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs := s.ensureLocked(p)
	return models.Chat{
		ID:          cs.id,
		BuyerID:     cs.profile.ID,
		BuyerName:   cs.profile.Name,
		Messages:    append([]models.Message(nil), cs.messages...),
		UnreadCount: unreadFor(cs.messages, viewer),
	}
}

// MarkRead flips every counter-party message to read. Idempotent. Reports
// whether the chat exists.
func (s *Store) MarkRead(chatID string, viewer models.Role) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs := s.byChatIDLocked(chatID)
	if cs == nil {
		return false
	}
	other := viewer.Other()
	for i := range cs.messages {
		if cs.messages[i].SenderRole == other {
			cs.messages[i].IsRead = true
		}
	}
	return true
}

// UnreadFor counts the admin-sent messages a buyer has not read yet.
func (s *Store) UnreadFor(buyerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.chats[buyerID]
	if !ok {
		return 0
	}
	return unreadFor(cs.messages, models.RoleBuyer)
}

// HideFromAdmin removes the conversation from the admin list only. The
// buyer-side chat and its history are untouched.
func (s *Store) HideFromAdmin(buyerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.chats[buyerID]
	if !ok {
		return false
	}
	cs.hiddenFromAdmin = true
	return true
}

// Clear empties a thread for both parties while keeping the chat entity.
func (s *Store) Clear(chatID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs := s.byChatIDLocked(chatID)
	if cs == nil {
		return false
	}
	cs.messages = nil
	return true
}

func (s *Store) byChatIDLocked(chatID string) *chatState {
	for _, cs := range s.chats {
		if cs.id == chatID {
			return cs
		}
	}
	return nil
}

func unreadFor(msgs []models.Message, viewer models.Role) int {
	other := viewer.Other()
	n := 0
	for _, m := range msgs {
		if m.SenderRole == other && !m.IsRead {
			n++
		}
	}
	return n
}
