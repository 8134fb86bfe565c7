// Package entities contains core business entities.
// These are the enterprise business rules - pure domain objects with no external dependencies.
package entities

import (
	"encoding/json"
	"time"
)

// ChunkMeta is the source metadata for one knowledge chunk.
// Ordinal-aligned with the vector index: record i describes the vector
// stored at ordinal i, produced by the same ingestion pass.
type ChunkMeta struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// SentinelID marks a padded "no neighbor" slot in a search result.
const SentinelID int64 = -1

// SearchHit is one entry of a similarity search result.
// ID is the chunk ordinal, or SentinelID when fewer than k neighbors exist.
type SearchHit struct {
	ID    int64
	Score float32
}

// RetrievedContext is the bounded, deduplicated context built from search hits.
type RetrievedContext struct {
	Chunks  []string // truncated chunk texts in similarity-rank order
	Joined  string   // separator-joined context text, globally capped
	Sources []string // citation urls, deduplicated, first-seen order
}

// ConversationSession groups the turns of one browser/client into a durable record.
// SessionKey is unique; UserID starts nil and is set at most once on login.
type ConversationSession struct {
	ID         int64
	SessionKey string
	UserID     *int64
	Channel    string
	CreatedAt  time.Time
}

// Sender identifies which side of the conversation produced a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one logged conversation turn. Append-only.
type Message struct {
	ID         int64
	SessionID  int64
	Sender     Sender
	Text       string
	Intent     string
	Confidence *float64
	Metadata   json.RawMessage // verbatim engine payload for bot turns
	CreatedAt  time.Time
}

// BotMessage is one reply emitted by the dialogue engine.
// The engine owns the shape; everything beyond Text stays opaque in Raw.
type BotMessage struct {
	Text string
	Raw  json.RawMessage
}

// EngineReply is the dialogue engine's response to one user turn.
// IsList reports whether the payload had the standard message-array shape;
// Raw always carries the payload verbatim so it can be forwarded untouched.
type EngineReply struct {
	Messages []BotMessage
	IsList   bool
	Raw      json.RawMessage
}
