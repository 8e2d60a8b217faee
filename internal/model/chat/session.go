package chat

import "time"

// Session is a conversation handle issued by the assistant service.
type Session struct {
	ID        string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
}
