package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// MessageTypeText is the default message type. Other types (system
// notices, attachments) share the same row shape.
const MessageTypeText = "text"

// MaxMessageLength bounds message text, in runes
const MaxMessageLength = 4000

// Message represents a single chat message in a board's thread
type Message struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	ThreadID       uuid.UUID      `json:"threadId" db:"thread_id"`
	SenderID       uuid.UUID      `json:"senderId" db:"sender_id"`
	Text           string         `json:"text" db:"text"`
	MessageType    string         `json:"messageType" db:"message_type"`
	MentionedUsers pq.StringArray `json:"mentionedUsers" db:"mentioned_users"`
	ReplyToID      *uuid.UUID     `json:"replyToId,omitempty" db:"reply_to_id"`
	IsEdited       bool           `json:"isEdited" db:"is_edited"`
	EditedAt       *time.Time     `json:"editedAt,omitempty" db:"edited_at"`
	IsDeleted      bool           `json:"isDeleted" db:"is_deleted"`
	DeletedAt      *time.Time     `json:"deletedAt,omitempty" db:"deleted_at"`
	CreatedAt      time.Time      `json:"createdAt" db:"created_at"`
}

// NewMessage creates a new text message in the given thread
func NewMessage(threadID, senderID uuid.UUID, text string, replyToID *uuid.UUID, mentioned []uuid.UUID) *Message {
	return &Message{
		ID:             uuid.New(),
		ThreadID:       threadID,
		SenderID:       senderID,
		Text:           text,
		MessageType:    MessageTypeText,
		MentionedUsers: uuidsToStrings(mentioned),
		ReplyToID:      replyToID,
		CreatedAt:      time.Now(),
	}
}

// Edit replaces the message text and mention set and stamps the edit
func (m *Message) Edit(text string, mentioned []uuid.UUID) {
	now := time.Now()
	m.Text = text
	m.MentionedUsers = uuidsToStrings(mentioned)
	m.IsEdited = true
	m.EditedAt = &now
}

// SoftDelete marks the message as deleted without removing the row
func (m *Message) SoftDelete() {
	now := time.Now()
	m.IsDeleted = true
	m.DeletedAt = &now
}

// MentionedUserIDs returns the mention set as parsed UUIDs, skipping
// anything unparseable.
func (m *Message) MentionedUserIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m.MentionedUsers))
	for _, s := range m.MentionedUsers {
		if id, err := uuid.Parse(s); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func uuidsToStrings(ids []uuid.UUID) pq.StringArray {
	out := make(pq.StringArray, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// MessageSender is the sender projection attached to message read-models
type MessageSender struct {
	ID        uuid.UUID `json:"id" db:"id"`
	FirstName string    `json:"firstName" db:"first_name"`
	LastName  string    `json:"lastName" db:"last_name"`
	Email     string    `json:"email" db:"email"`
	Avatar    *string   `json:"avatar,omitempty" db:"avatar"`
}

// MessageWithSender is the detail read-model: a message joined with its
// sender's public fields.
type MessageWithSender struct {
	Message
	Sender MessageSender `json:"sender" db:"sender"`
}
