package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ErrMalformedMessage indicates a stored message document does not conform to
// the Message shape.
var ErrMalformedMessage = errors.New("malformed message document")

// Message is one immutable turn in a thread. ParentID records lineage to the
// message being replied to; nothing traverses it.
type Message struct {
	ID        string      `json:"u_id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	ParentID  string      `json:"parent_id,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

func (m Message) validate() error {
	if m.ID == "" {
		return fmt.Errorf("%w: missing u_id", ErrMalformedMessage)
	}
	if m.Role != RoleUser && m.Role != RoleAssistant {
		return fmt.Errorf("%w: role %q", ErrMalformedMessage, m.Role)
	}
	if m.CreatedAt.IsZero() {
		return fmt.Errorf("%w: missing created_at", ErrMalformedMessage)
	}
	return nil
}

// Thread is the single persistent conversation record per user. Messages are
// stored as one JSON array and mutated only by appending.
type Thread struct {
	ID        string    `json:"u_id"`
	UserID    string    `json:"user_id"`
	Messages  []Message `json:"messages"`
	Summary   string    `json:"summary,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Append adds a message to the in-memory list and returns the resulting
// count. It does not persist anything.
func (t *Thread) Append(msg Message) int {
	t.Messages = append(t.Messages, msg)
	return len(t.Messages)
}

// History returns the messages sorted by created_at ascending. Storage order
// and chronological order usually coincide, but the schema does not guarantee
// it, so the sort is a correctness step.
func (t *Thread) History() []Message {
	out := make([]Message, len(t.Messages))
	copy(out, t.Messages)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// DecodeMessages parses a stored message array, rejecting any element that
// does not conform to the Message shape.
func DecodeMessages(raw []byte) ([]Message, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var msgs []Message
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	for _, msg := range msgs {
		if err := msg.validate(); err != nil {
			return nil, err
		}
	}
	return msgs, nil
}

// EncodeMessages serializes the message array for storage.
func EncodeMessages(msgs []Message) ([]byte, error) {
	if msgs == nil {
		msgs = []Message{}
	}
	raw, err := json.Marshal(msgs)
	if err != nil {
		return nil, fmt.Errorf("encode messages: %w", err)
	}
	return raw, nil
}
