package entity

import "time"

const NotificationTypeChat = "chat"

// Notification is the persisted record a receiver fetches later, whether or not a live
// signal or push reached them.
type Notification struct {
	ID        string    `json:"_id" firestore:"id"`
	UserID    string    `json:"userId" firestore:"userId"`
	PostID    string    `json:"postId" firestore:"postId"`
	SenderID  string    `json:"senderId" firestore:"senderId"`
	BuyerID   string    `json:"buyerId" firestore:"buyerId"`
	Type      string    `json:"type" firestore:"type"`
	Message   string    `json:"message" firestore:"message"`
	IsRead    bool      `json:"isRead" firestore:"isRead"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
}
