package entity

import "time"

// Message is owned by exactly one Conversation. Only Seen/SeenAt ever change after append,
// and only from unseen to seen.
type Message struct {
	ID        string     `json:"_id" firestore:"id"`
	SenderID  string     `json:"senderId" firestore:"senderId"`
	Text      string     `json:"text" firestore:"text"`
	CreatedAt time.Time  `json:"createdAt" firestore:"createdAt"`
	Seen      bool       `json:"seen" firestore:"seen"`
	SeenAt    *time.Time `json:"seenAt" firestore:"seenAt,omitempty"`
}

// MarkSeen flips the message to seen at the given instant. It reports false when the
// message was already seen, leaving SeenAt untouched.
func (m *Message) MarkSeen(at time.Time) bool {
	if m.Seen {
		return false
	}
	m.Seen = true
	seenAt := at
	m.SeenAt = &seenAt
	return true
}
