package models

import "time"

// ChatMessage is one message in a hackathon's chat room. The hackathon
// reference is a typed foreign key; the raw-string form is normalized away
// at the write boundary. Messages are append-only.
type ChatMessage struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	HackathonID uint      `gorm:"index;not null" json:"hackathon_id"`
	SenderID    uint      `gorm:"index;not null" json:"sender_id"`
	Sender      *User     `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	SenderName  string    `json:"sender_name"`
	Body        string    `gorm:"not null" json:"body"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}
