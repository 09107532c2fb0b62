package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MemoryHub is an in-process Source and Publisher. It backs local play and
// tests; production wires a real platform client instead.
type MemoryHub struct {
	botHandle string

	mu       sync.Mutex
	nextID   int
	inbox    []Message
	outbox   []Message
	handles  map[string]struct{}
	now      func() time.Time
}

// NewMemoryHub builds a hub that knows the bot's own handle.
func NewMemoryHub(botHandle string) *MemoryHub {
	return &MemoryHub{
		botHandle: botHandle,
		handles:   make(map[string]struct{}),
		now:       time.Now,
	}
}

// RegisterUser makes a handle resolvable.
func (h *MemoryHub) RegisterUser(handle string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handles[strings.ToLower(handle)] = struct{}{}
}

// Post injects an inbound message and returns its assigned id. An empty
// threadID starts a new conversation rooted at the message itself.
func (h *MemoryHub) Post(author, threadID, text string) Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	msg := Message{
		ID:           fmt.Sprintf("m%06d", h.nextID),
		ThreadID:     threadID,
		AuthorHandle: author,
		Text:         text,
		CreatedAt:    h.now(),
	}
	if msg.ThreadID == "" {
		msg.ThreadID = msg.ID
	}
	h.inbox = append(h.inbox, msg)
	return msg
}

// Mentions returns inbound posts mentioning the bot newer than sinceID.
func (h *MemoryHub) Mentions(_ context.Context, sinceID string) ([]Message, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []Message
	needle := "@" + strings.ToLower(h.botHandle)
	for _, msg := range h.inbox {
		if msg.ID <= sinceID {
			continue
		}
		if strings.Contains(strings.ToLower(msg.Text), needle) {
			out = append(out, msg)
		}
	}
	return out, nil
}

// Thread returns posts in a conversation newer than sinceID, including the
// bot's own replies.
func (h *MemoryHub) Thread(_ context.Context, threadID, sinceID string) ([]Message, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []Message
	for _, msg := range h.inbox {
		if msg.ThreadID == threadID && msg.ID > sinceID {
			out = append(out, msg)
		}
	}
	return out, nil
}

// ResolveHandle reports whether the handle was registered.
func (h *MemoryHub) ResolveHandle(_ context.Context, handle string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.handles[strings.ToLower(handle)]; !ok {
		return fmt.Errorf("unknown user %q", handle)
	}
	return nil
}

// Reply records an outbound post. The reply lands in the conversation of the
// message it answers so Thread sees it.
func (h *MemoryHub) Reply(_ context.Context, inReplyTo, text string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	threadID := inReplyTo
	for _, msg := range h.inbox {
		if msg.ID == inReplyTo {
			threadID = msg.ThreadID
			break
		}
	}

	h.nextID++
	msg := Message{
		ID:           fmt.Sprintf("m%06d", h.nextID),
		ThreadID:     threadID,
		AuthorHandle: h.botHandle,
		Text:         text,
		CreatedAt:    h.now(),
	}
	h.inbox = append(h.inbox, msg)
	h.outbox = append(h.outbox, msg)
	return msg.ID, nil
}

// Outbox returns a copy of everything the bot has posted.
func (h *MemoryHub) Outbox() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Message, len(h.outbox))
	copy(out, h.outbox)
	return out
}

var _ Source = (*MemoryHub)(nil)
var _ Publisher = (*MemoryHub)(nil)
