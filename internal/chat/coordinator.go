package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/buyerdesk/pkg/models"
)

var (
	// ErrEmptyMessage rejects a send whose content trims to nothing. No
	// network call is made.
	ErrEmptyMessage = errors.New("chat: message content is empty")
	// ErrNoOpenThread means an operation needs an open thread view.
	ErrNoOpenThread = errors.New("chat: no open thread")
	// ErrNotAdmin guards admin-only operations.
	ErrNotAdmin = errors.New("chat: admin role required")
)

// Transport is the slice of the support backend the coordinator consumes.
// *api.Client satisfies it; tests substitute fakes.
type Transport interface {
	ListConversations(ctx context.Context) ([]models.Conversation, error)
	GetMyChat(ctx context.Context) (*models.Chat, error)
	GetConversation(ctx context.Context, buyerID string) (*models.Chat, error)
	SendMessage(ctx context.Context, content, buyerID string) (*models.Message, error)
	MarkRead(ctx context.Context, chatID string) error
	UnreadCount(ctx context.Context) (int, error)
	DeleteConversation(ctx context.Context, buyerID string) error
	ClearChat(ctx context.Context, chatID string) error
}

// Snapshot is a read-only copy of coordinator state for the presentation
// layer. Thread is a deep copy; mutating it has no effect on the store.
type Snapshot struct {
	Role                models.Role
	Conversations       []models.Conversation
	UnreadConversations int
	Thread              *models.Chat
	Loading             bool
	UnreadCount         int
	Err                 error
}

// Coordinator owns the local view of the support messaging state for one
// viewer session: the admin's conversation list or the buyer's single
// thread, plus the currently open thread's messages and unread counters.
// All state is single-owner: only the coordinator mutates it, in response to
// fetch completions and explicit intents, and every mutation happens behind
// one mutex. The presentation layer reads snapshots and dispatches intents.
type Coordinator struct {
	transport Transport
	role      models.Role
	logger    zerolog.Logger
	arb       Arbitrator

	mu            sync.Mutex
	conversations []models.Conversation
	unreadConvs   int
	thread        *models.Chat
	threadGen     uint64
	loading       bool
	unread        int
	err           error
	subs          []func(Event)
}

// New builds a coordinator for one viewer session. A viewer change means a
// new Coordinator; state never carries across sessions.
func New(transport Transport, role models.Role, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		transport: transport,
		role:      role,
		logger:    logger.With().Str("component", "chat").Str("role", string(role)).Logger(),
	}
}

// Role returns the viewer role this coordinator serves.
func (c *Coordinator) Role() models.Role {
	return c.role
}

// Subscribe registers a callback invoked after committed state changes.
// Callbacks run outside the coordinator lock and may call Snapshot.
func (c *Coordinator) Subscribe(fn func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

// Snapshot returns a consistent copy of the current state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{
		Role:                c.role,
		UnreadConversations: c.unreadConvs,
		Loading:             c.loading,
		UnreadCount:         c.unread,
		Err:                 c.err,
	}
	if c.conversations != nil {
		snap.Conversations = append([]models.Conversation(nil), c.conversations...)
	}
	if c.thread != nil {
		t := *c.thread
		t.Messages = append([]models.Message(nil), c.thread.Messages...)
		snap.Thread = &t
	}
	return snap
}

// LoadConversations fetches the admin's conversation list and replaces the
// local copy wholesale. Replacement, not merge: a refresh can never leave
// stale or duplicate entries. Foreground flavor; the error is returned.
func (c *Coordinator) LoadConversations(ctx context.Context) ([]models.Conversation, error) {
	if c.role != models.RoleAdmin {
		return nil, ErrNotAdmin
	}
	list, err := c.transport.ListConversations(ctx)
	if err != nil {
		c.recordError(err, "load conversations")
		return nil, err
	}
	c.commitConversations(list)
	return list, nil
}

// pollConversations is the background flavor: errors are recorded on the
// snapshot and swallowed so the next poll cycle retries naturally.
func (c *Coordinator) pollConversations(ctx context.Context) {
	list, err := c.transport.ListConversations(ctx)
	if err != nil {
		c.recordError(err, "poll conversations")
		return
	}
	c.commitConversations(list)
}

func (c *Coordinator) commitConversations(list []models.Conversation) {
	c.mu.Lock()
	c.conversations = list
	c.unreadConvs = countUnreadConversations(list)
	c.err = nil
	c.mu.Unlock()
	c.notify(EventConversations)
}

// OpenThread issues a thread-selection intent. It returns immediately; the
// fetch resolves asynchronously and either commits (if it is still the
// newest intent when it returns) or is dropped. Rapid reselection is safe:
// the last intent wins regardless of response arrival order. Buyers open
// their implicit "my chat" and may pass an empty buyerID.
func (c *Coordinator) OpenThread(ctx context.Context, buyerID string) {
	ticket := c.arb.Begin(buyerID)
	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()
	go c.fetchThread(ctx, ticket)
}

// CloseThread discards the open thread view and invalidates outstanding
// fetches so a late response cannot resurrect it.
func (c *Coordinator) CloseThread() {
	c.mu.Lock()
	c.thread = nil
	c.loading = false
	c.arb.Invalidate()
	c.mu.Unlock()
	c.notify(EventClosed)
}

// fetchThread resolves one selection intent. The response is applied only
// if the ticket is still the latest; otherwise it is discarded whole — no
// partial merge, no loading-state change, no error surfaced.
func (c *Coordinator) fetchThread(ctx context.Context, ticket Ticket) {
	var chat *models.Chat
	var err error
	if c.role == models.RoleAdmin {
		chat, err = c.transport.GetConversation(ctx, ticket.BuyerID)
	} else {
		chat, err = c.transport.GetMyChat(ctx)
	}

	c.mu.Lock()
	if !c.arb.Latest(ticket) {
		c.mu.Unlock()
		c.logger.Debug().Str("buyer_id", ticket.BuyerID).Msg("stale thread response discarded")
		return
	}
	if err != nil {
		c.loading = false
		c.err = err
		c.mu.Unlock()
		c.logger.Warn().Str("buyer_id", ticket.BuyerID).Err(err).Msg("thread fetch failed")
		c.notify(EventError)
		return
	}
	sortMessages(chat.Messages)
	c.thread = chat
	c.threadGen = ticket.gen
	c.loading = false
	c.err = nil
	if c.role == models.RoleBuyer {
		c.unread = chat.UnreadCount
	}
	needMarkRead := chat.UnreadCount > 0
	chatID := chat.ID
	c.mu.Unlock()

	c.notify(EventThread)

	// The thread is now actually in view; consume unread state only when the
	// server says there is any. Never eagerly on mere selection.
	if needMarkRead {
		c.markRead(ctx, chatID, false)
	}
}

// MarkRead explicitly marks the open thread as read. Idempotent: with zero
// unread messages it is a no-op and no network call is made.
func (c *Coordinator) MarkRead(ctx context.Context) error {
	c.mu.Lock()
	if c.thread == nil {
		c.mu.Unlock()
		return ErrNoOpenThread
	}
	if c.thread.UnreadCount == 0 {
		c.mu.Unlock()
		return nil
	}
	chatID := c.thread.ID
	c.mu.Unlock()
	return c.markRead(ctx, chatID, true)
}

// markRead performs the mark-read call and its follow-ups: the admin list is
// refreshed so the aggregate badge catches up; the buyer's own counter is
// zeroed optimistically. foreground controls the error policy.
func (c *Coordinator) markRead(ctx context.Context, chatID string, foreground bool) error {
	if err := c.transport.MarkRead(ctx, chatID); err != nil {
		if foreground {
			return err
		}
		c.recordError(err, "mark read")
		return nil
	}

	c.mu.Lock()
	if c.thread != nil && c.thread.ID == chatID {
		c.thread.UnreadCount = 0
		other := c.role.Other()
		for i := range c.thread.Messages {
			if c.thread.Messages[i].SenderRole == other {
				c.thread.Messages[i].IsRead = true
			}
		}
	}
	if c.role == models.RoleBuyer {
		c.unread = 0
	}
	c.mu.Unlock()
	c.notify(EventUnread)

	if c.role == models.RoleAdmin {
		c.pollConversations(ctx)
	}
	return nil
}

// Send posts a message. Content must be non-empty after trimming. Admin
// sends go to the open thread's buyer; buyer sends always reach "my chat".
// On success the message is appended locally so it is visible before the
// next authoritative refresh, and the admin list is refreshed to surface
// the new last message. On failure the caller keeps its draft.
func (c *Coordinator) Send(ctx context.Context, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	buyerID := ""
	if c.role == models.RoleAdmin {
		c.mu.Lock()
		if c.thread == nil {
			c.mu.Unlock()
			return nil, ErrNoOpenThread
		}
		buyerID = c.thread.BuyerID
		c.mu.Unlock()
	}

	msg, err := c.transport.SendMessage(ctx, content, buyerID)
	if err != nil {
		c.logger.Error().Str("buyer_id", buyerID).Err(err).Msg("send failed")
		return nil, err
	}

	c.appendLocal(*msg)
	if c.role == models.RoleAdmin {
		c.pollConversations(ctx)
	}
	return msg, nil
}

// appendLocal optimistically appends a just-sent message to the open
// thread. Identity is the server-assigned ID, so a racing poll that already
// delivered the message cannot duplicate it.
func (c *Coordinator) appendLocal(msg models.Message) {
	c.mu.Lock()
	if c.thread == nil || c.thread.ID != msg.ChatID {
		c.mu.Unlock()
		return
	}
	c.thread.Messages = insertMessage(c.thread.Messages, msg)
	c.mu.Unlock()
	c.notify(EventThread)
}

// DeleteConversation removes a buyer's conversation from the admin's list.
// Admin-scoped and soft: the buyer keeps their view, and the conversation
// reappears on the next message exchange. If the deleted conversation is the
// open thread, the thread view closes with it — no orphaned state.
func (c *Coordinator) DeleteConversation(ctx context.Context, buyerID string) error {
	if c.role != models.RoleAdmin {
		return ErrNotAdmin
	}
	if err := c.transport.DeleteConversation(ctx, buyerID); err != nil {
		c.logger.Error().Str("buyer_id", buyerID).Err(err).Msg("delete conversation failed")
		return err
	}

	c.mu.Lock()
	kept := make([]models.Conversation, 0, len(c.conversations))
	for _, conv := range c.conversations {
		if conv.BuyerID != buyerID {
			kept = append(kept, conv)
		}
	}
	c.conversations = kept
	c.unreadConvs = countUnreadConversations(kept)
	closed := c.thread != nil && c.thread.BuyerID == buyerID
	if closed {
		c.thread = nil
		c.loading = false
		c.arb.Invalidate()
	}
	c.mu.Unlock()

	c.notify(EventConversations)
	if closed {
		c.notify(EventClosed)
	}
	return nil
}

// ClearThread empties the open thread's messages for both parties. The chat
// entity and its identity persist; confirmation is the caller's concern.
func (c *Coordinator) ClearThread(ctx context.Context) error {
	c.mu.Lock()
	if c.thread == nil {
		c.mu.Unlock()
		return ErrNoOpenThread
	}
	chatID := c.thread.ID
	c.mu.Unlock()

	if err := c.transport.ClearChat(ctx, chatID); err != nil {
		c.logger.Error().Str("chat_id", chatID).Err(err).Msg("clear thread failed")
		return err
	}

	c.mu.Lock()
	if c.thread != nil && c.thread.ID == chatID {
		c.thread.Messages = nil
		c.thread.UnreadCount = 0
	}
	if c.role == models.RoleBuyer {
		c.unread = 0
	}
	c.mu.Unlock()
	c.notify(EventThread)
	return nil
}

// PollOnce is one gated poll cycle: the admin refreshes the conversation
// list (and the open thread, if any); the buyer refreshes the open thread,
// or just the lightweight unread counter when no thread view is open.
// Errors are recorded and swallowed; the next cycle retries naturally.
func (c *Coordinator) PollOnce(ctx context.Context) {
	if c.role == models.RoleAdmin {
		c.pollConversations(ctx)
	}

	// The refresh reuses the committed selection's ticket instead of minting
	// a new one: a poll is not a user intent and must never outrank a
	// selection still in flight. If a newer selection exists, skip the
	// refresh; the next cycle picks up whatever it commits.
	c.mu.Lock()
	open := c.thread != nil
	ticket := Ticket{gen: c.threadGen}
	if open {
		ticket.BuyerID = c.thread.BuyerID
	}
	refresh := open && c.arb.Latest(ticket)
	c.mu.Unlock()

	if refresh {
		c.fetchThread(ctx, ticket)
		return
	}
	if c.role == models.RoleBuyer && !open {
		c.pollUnreadCount(ctx)
	}
}

// pollUnreadCount is the buyer's unread-count-only poll. Failures here are
// swallowed entirely — not even recorded — to keep the badge poll silent.
func (c *Coordinator) pollUnreadCount(ctx context.Context) {
	n, err := c.transport.UnreadCount(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("unread count poll failed")
		return
	}
	c.mu.Lock()
	changed := c.unread != n
	c.unread = n
	c.mu.Unlock()
	if changed {
		c.notify(EventUnread)
	}
}

// Reset tears down all derived state. Called on session end: a user change
// means the prior view is invalid for the new viewer, so this is a full
// teardown, not a pause.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	c.conversations = nil
	c.unreadConvs = 0
	c.thread = nil
	c.loading = false
	c.unread = 0
	c.err = nil
	c.arb.Invalidate()
	c.mu.Unlock()
	c.notify(EventClosed)
}

func (c *Coordinator) recordError(err error, action string) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
	c.logger.Warn().Str("action", action).Err(err).Msg("background operation failed")
	c.notify(EventError)
}

func (c *Coordinator) notify(kind EventKind) {
	c.mu.Lock()
	subs := append([]func(Event){}, c.subs...)
	c.mu.Unlock()
	for _, fn := range subs {
		fn(Event{Kind: kind})
	}
}
