package devserver

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buyerdesk/internal/api"
	"github.com/buyerdesk/internal/chat"
	"github.com/buyerdesk/pkg/models"
)

type env struct {
	srv   *httptest.Server
	admin *api.Client
	buyer *api.Client
}

func newEnv(t *testing.T) *env {
	t.Helper()
	srv := httptest.NewServer(New(NewStore(), zerolog.Nop()))
	t.Cleanup(srv.Close)

	adminToken, err := DevToken(models.RoleAdmin, "admin-1", "Support Admin")
	require.NoError(t, err)
	buyerToken, err := DevToken(models.RoleBuyer, "buyer-1", "Jordan Reyes")
	require.NoError(t, err)

	admin, err := api.NewClient(api.Config{BaseURL: srv.URL, Token: adminToken}, zerolog.Nop())
	require.NoError(t, err)
	buyer, err := api.NewClient(api.Config{BaseURL: srv.URL, Token: buyerToken}, zerolog.Nop())
	require.NoError(t, err)

	return &env{srv: srv, admin: admin, buyer: buyer}
}

func waitFor(t *testing.T, events chan chat.Event, kind chat.EventKind) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case e := <-events:
			if e.Kind == kind {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q event", kind)
		}
	}
}

func TestRejectsMissingAndInvalidTokens(t *testing.T) {
	e := newEnv(t)

	client, err := api.NewClient(api.Config{BaseURL: e.srv.URL, Token: "not-a-jwt"}, zerolog.Nop())
	require.NoError(t, err)
	_, err = client.ListConversations(context.Background())
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestRoleGuards(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.buyer.ListConversations(ctx)
	assert.ErrorIs(t, err, api.ErrUnauthorized, "buyer cannot list conversations")

	_, err = e.admin.GetMyChat(ctx)
	assert.ErrorIs(t, err, api.ErrUnauthorized, "admin has no my-chat")

	_, err = e.admin.UnreadCount(ctx)
	assert.ErrorIs(t, err, api.ErrUnauthorized, "unread-count is buyer-facing")
}

func TestChatIdentityIsStableFromFirstFetch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	first, err := e.buyer.GetMyChat(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, first.ID, "chat is created implicitly on first contact")
	assert.Empty(t, first.Messages)

	again, err := e.buyer.GetMyChat(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

func TestBuyerHelloReachesAdminUnread(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	msg, err := e.buyer.SendMessage(ctx, "Hello", "")
	require.NoError(t, err)
	require.NotEmpty(t, msg.ID)

	list, err := e.admin.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "buyer-1", list[0].BuyerID)
	assert.Equal(t, "Jordan Reyes", list[0].BuyerName)
	assert.Equal(t, "Hello", list[0].LastMessage)
	assert.True(t, list[0].HasUnread)
	assert.Equal(t, 1, list[0].UnreadCount)
}

func TestAdminCoordinatorFullExchange(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.buyer.SendMessage(ctx, "Hello", "")
	require.NoError(t, err)

	coord := chat.New(e.admin, models.RoleAdmin, zerolog.Nop())
	events := make(chan chat.Event, 64)
	coord.Subscribe(func(ev chat.Event) { events <- ev })

	list, err := coord.LoadConversations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, coord.Snapshot().UnreadConversations)

	// Opening the thread consumes the unread state automatically.
	coord.OpenThread(ctx, "buyer-1")
	waitFor(t, events, chat.EventUnread)

	snap := coord.Snapshot()
	require.NotNil(t, snap.Thread)
	assert.Equal(t, 0, snap.Thread.UnreadCount)
	require.Len(t, snap.Thread.Messages, 1)
	assert.True(t, snap.Thread.Messages[0].IsRead)

	fresh, err := e.admin.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.False(t, fresh[0].HasUnread, "mark-read resets the admin badge")

	// The admin reply lands in the buyer's unread counter.
	_, err = coord.Send(ctx, "Hi, how can we help?")
	require.NoError(t, err)

	n, err := e.buyer.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	buyerChat, err := e.buyer.GetMyChat(ctx)
	require.NoError(t, err)
	require.Len(t, buyerChat.Messages, 2)
	assert.Equal(t, 1, buyerChat.UnreadCount)
}

func TestDeleteIsAdminScopedAndSoft(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.buyer.SendMessage(ctx, "Hello", "")
	require.NoError(t, err)
	before, err := e.buyer.GetMyChat(ctx)
	require.NoError(t, err)

	require.NoError(t, e.admin.DeleteConversation(ctx, "buyer-1"))

	list, err := e.admin.ListConversations(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "deleted conversation leaves the admin list")

	after, err := e.buyer.GetMyChat(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.ID, after.ID, "buyer keeps the chat")
	assert.Len(t, after.Messages, 1, "buyer keeps the history")

	// A new exchange resurrects the conversation.
	_, err = e.buyer.SendMessage(ctx, "Are you still there?", "")
	require.NoError(t, err)
	list, err = e.admin.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Are you still there?", list[0].LastMessage)

	err = e.admin.DeleteConversation(ctx, "buyer-404")
	require.Error(t, err, "unknown buyer yields not found")
}

func TestClearEmptiesBothViewsKeepsIdentity(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.buyer.SendMessage(ctx, "one", "")
	require.NoError(t, err)
	_, err = e.admin.SendMessage(ctx, "two", "buyer-1")
	require.NoError(t, err)

	before, err := e.buyer.GetMyChat(ctx)
	require.NoError(t, err)
	require.Len(t, before.Messages, 2)

	require.NoError(t, e.buyer.ClearChat(ctx, before.ID))

	after, err := e.buyer.GetMyChat(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.ID, after.ID)
	assert.Empty(t, after.Messages)
	assert.Equal(t, 0, after.UnreadCount)

	adminView, err := e.admin.GetConversation(ctx, "buyer-1")
	require.NoError(t, err)
	assert.Empty(t, adminView.Messages, "clear affects both parties")
}

func TestSendValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.buyer.SendMessage(ctx, "   ", "")
	require.Error(t, err, "blank content is rejected")

	_, err = e.admin.SendMessage(ctx, "hello", "")
	require.Error(t, err, "admin sends must address a buyer")
}
