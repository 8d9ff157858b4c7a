package models

import "time"

// Role identifies which side of a support thread a participant is on.
// The admin side is a single logical pool; every buyer account has at most
// one standing thread with it.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleBuyer Role = "buyer"
)

// Valid reports whether the role is one of the two known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleBuyer
}

// Other returns the counter-party role.
func (r Role) Other() Role {
	if r == RoleAdmin {
		return RoleBuyer
	}
	return RoleAdmin
}

// Message is a single chat message. Immutable once created except for the
// IsRead flag, which only ever flips false to true.
type Message struct {
	ID         string    `json:"id"`
	ChatID     string    `json:"chatId"`
	SenderRole Role      `json:"senderRole"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
	IsRead     bool      `json:"isRead"`
}

// Chat is the full ordered message history between one buyer and the admin
// pool. Messages are ordered by CreatedAt ascending. UnreadCount is relative
// to the viewer and is authoritative from the server on every fetch.
type Chat struct {
	ID          string    `json:"id"`
	BuyerID     string    `json:"buyerId"`
	BuyerName   string    `json:"buyerName"`
	Messages    []Message `json:"messages"`
	UnreadCount int       `json:"unreadCount"`
}

// Conversation is the admin-side summary entry for one buyer's thread,
// keyed by BuyerID. Entries are unique per buyer.
type Conversation struct {
	BuyerID       string    `json:"buyerId"`
	BuyerName     string    `json:"buyerName"`
	BuyerEmail    string    `json:"buyerEmail"`
	CompanyName   string    `json:"companyName"`
	LastMessage   string    `json:"lastMessage"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	UnreadCount   int       `json:"unreadCount"`
	HasUnread     bool      `json:"hasUnread"`
}
