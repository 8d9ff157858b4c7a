package chat

import (
	"sort"

	"github.com/buyerdesk/pkg/models"
)

// countUnreadConversations derives the admin's aggregate badge: the number
// of conversations with at least one unread message. Per-entry counts are
// authoritative from the server payload; nothing is summed from message
// flags client-side.
func countUnreadConversations(list []models.Conversation) int {
	n := 0
	for _, conv := range list {
		if conv.HasUnread {
			n++
		}
	}
	return n
}

// sortMessages orders a thread by CreatedAt ascending. Stable so that
// same-timestamp messages keep server order.
func sortMessages(msgs []models.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
}

// insertMessage appends an optimistic message, keeping ID uniqueness and
// CreatedAt ordering. A racing authoritative refresh may already have
// delivered the same message; identity is the server-assigned ID.
func insertMessage(msgs []models.Message, m models.Message) []models.Message {
	for _, existing := range msgs {
		if existing.ID == m.ID {
			return msgs
		}
	}
	msgs = append(msgs, m)
	sortMessages(msgs)
	return msgs
}
