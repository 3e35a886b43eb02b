package models

// ChatMessage is a stored chat message row. Rows are append-only; the history
// store trims each room to the newest entries by deleting the oldest ids.
type ChatMessage struct {
	// ID is the insertion sequence and defines history order within a room.
	ID uint `gorm:"primaryKey;autoIncrement"`
	// MessageID is the public ULID of the message.
	MessageID string `gorm:"type:varchar(26);not null;uniqueIndex"`
	// RoomID is the room identifier the message belongs to.
	RoomID string `gorm:"type:varchar(191);not null;index:idx_room_seq,priority:1"`
	// SenderID is the identity bound to the sending connection.
	SenderID string `gorm:"type:varchar(191);not null"`
	// SenderName is the display name carried by the sender's session.
	SenderName string `gorm:"type:varchar(191)"`
	// Text is the HTML-escaped message content.
	Text string `gorm:"type:text;not null"`
	// SentAt is the send time in epoch milliseconds.
	SentAt int64 `gorm:"not null;index:idx_room_seq,priority:2"`
}

// Message is the wire and domain form of a chat message.
type Message struct {
	ID         string `json:"id"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Text       string `json:"text"`
	Time       int64  `json:"time"`
}

// ToMessage converts a stored row to its wire form.
func (m ChatMessage) ToMessage() Message {
	return Message{
		ID:         m.MessageID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Text:       m.Text,
		Time:       m.SentAt,
	}
}
