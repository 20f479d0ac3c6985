package entity

import (
	"fmt"
	"time"
)

// Conversation is the thread between one buyer and the owner of one post.
// It is keyed by (PostID, BuyerID); SellerID is stored for authorization.
type Conversation struct {
	ID            string     `json:"_id" firestore:"id"`
	PostID        string     `json:"postId" firestore:"postId"`
	BuyerID       string     `json:"buyerId" firestore:"buyerId"`
	SellerID      string     `json:"sellerId" firestore:"sellerId"`
	Messages      []*Message `json:"messages" firestore:"messages"`
	LastMessageAt time.Time  `json:"lastMessageAt" firestore:"lastMessageAt"`
	CreatedAt     time.Time  `json:"createdAt" firestore:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt" firestore:"updatedAt"`
}

// ConversationID is the deterministic document id for a (post, buyer) pair, which is what
// keeps the store at one conversation per pair.
func ConversationID(postID, buyerID string) string {
	return fmt.Sprintf("%s_%s", postID, buyerID)
}

func NewConversation(postID, buyerID, sellerID string, now time.Time) *Conversation {
	return &Conversation{
		ID:            ConversationID(postID, buyerID),
		PostID:        postID,
		BuyerID:       buyerID,
		SellerID:      sellerID,
		Messages:      []*Message{},
		LastMessageAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Append adds msg at the end of the thread and moves LastMessageAt to its timestamp.
func (c *Conversation) Append(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.LastMessageAt = msg.CreatedAt
	c.UpdatedAt = msg.CreatedAt
}

// MarkSeen marks every unseen message whose id is in ids and returns how many changed.
func (c *Conversation) MarkSeen(ids map[string]struct{}, at time.Time) int {
	updated := 0
	for _, msg := range c.Messages {
		if _, ok := ids[msg.ID]; !ok {
			continue
		}
		if msg.MarkSeen(at) {
			updated++
		}
	}
	if updated > 0 {
		c.UpdatedAt = at
	}
	return updated
}

// UnreadCount counts messages the viewer has not sent and that are still unseen.
func (c *Conversation) UnreadCount(viewerID string) int {
	count := 0
	for _, msg := range c.Messages {
		if msg.SenderID != viewerID && !msg.Seen {
			count++
		}
	}
	return count
}

func (c *Conversation) IsParticipant(userID string) bool {
	return userID != "" && (userID == c.BuyerID || userID == c.SellerID)
}

// Counterpart returns the participant that is not userID.
func (c *Conversation) Counterpart(userID string) string {
	if userID == c.BuyerID {
		return c.SellerID
	}
	return c.BuyerID
}

func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// ConversationSummary is an inbox row.
type ConversationSummary struct {
	ConversationID string    `json:"chatId"`
	PostID         string    `json:"postId"`
	PostTitle      string    `json:"postTitle,omitempty"`
	BuyerID        string    `json:"buyerId"`
	SellerID       string    `json:"sellerId"`
	LastMessage    *Message  `json:"lastMessage,omitempty"`
	LastMessageAt  time.Time `json:"lastMessageAt"`
	UnreadCount    int       `json:"unreadCount"`
}
