package models

import (
	"sort"
	"time"
)

// MessageKind is the payload type of a message.
type MessageKind string

const (
	KindText     MessageKind = "text"
	KindImage    MessageKind = "image"
	KindDocument MessageKind = "document"
)

// Valid reports whether k is one of the closed set of kinds.
func (k MessageKind) Valid() bool {
	switch k {
	case KindText, KindImage, KindDocument:
		return true
	}
	return false
}

// Message is a single entry in a conversation's append-only log. Messages are
// never mutated or deleted once written.
type Message struct {
	Seq            int64       `db:"seq" json:"-"`
	ID             string      `db:"id" json:"id"`
	ConversationID string      `db:"conversation_id" json:"conversation_id"`
	FromID         string      `db:"from_id" json:"from_id"`
	ToID           string      `db:"to_id" json:"to_id"`
	Kind           MessageKind `db:"kind" json:"kind"`
	Body           string      `db:"body" json:"body,omitempty"`
	ContentURL     string      `db:"content_url" json:"content_url,omitempty"`
	FileName       string      `db:"file_name" json:"file_name,omitempty"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
}

// SortMessages orders messages for delivery: timestamp ascending, insertion
// sequence as the tie-break.
func SortMessages(msgs []Message) {
	sort.Slice(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].Seq < msgs[j].Seq
		}
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
}

// MessageSnapshot is broadcast through websockets: the full current ordered
// log of a conversation, replacing whatever the client held before.
type MessageSnapshot struct {
	Type           string    `json:"type"`
	ConversationID string    `json:"conversation_id"`
	Messages       []Message `json:"messages"`
}

// RequestSnapshot is broadcast through websockets: the viewer's full current
// incoming and outgoing active request sets.
type RequestSnapshot struct {
	Type     string        `json:"type"`
	Incoming []RequestView `json:"incoming"`
	Outgoing []RequestView `json:"outgoing"`
}
