// Package memory maintains bounded conversational history per (user, module).
//
// Writes are read-modify-write cycles against the context store. The service
// serializes them per key, so concurrent AddMessage calls for the same
// conversation cannot clobber each other; both messages land, in lock
// acquisition order. Different keys never block each other.
package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/creatorlab/labengine/internal/model"
	"github.com/creatorlab/labengine/internal/store"
)

// DefaultMaxMessages is the bounded window applied when no size is given.
const DefaultMaxMessages = 50

// Service provides keyed conversational memory over a context store.
type Service struct {
	store       store.ContextStore
	maxMessages int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a memory service. maxMessages <= 0 selects the default
// window of 50 messages.
func NewService(cs store.ContextStore, maxMessages int) *Service {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	return &Service{
		store:       cs,
		maxMessages: maxMessages,
		locks:       make(map[string]*sync.Mutex),
	}
}

// keyLock returns the mutex serializing writes for one (user, module) pair.
func (s *Service) keyLock(userID, moduleID string) *sync.Mutex {
	key := userID + "\x00" + moduleID
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// GetContext returns the stored context for the key, or an empty, unpersisted
// context when none exists.
func (s *Service) GetContext(ctx context.Context, userID, moduleID string) (*model.MemoryContext, error) {
	mc, err := s.store.GetContext(ctx, userID, moduleID)
	if errors.Is(err, store.ErrNotFound) {
		return &model.MemoryContext{UserID: userID, ModuleID: moduleID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load context: %w", err)
	}
	return mc, nil
}

// AddMessage appends a message with a generated timestamp and trims the
// window to the configured bound, dropping oldest messages first.
func (s *Service) AddMessage(ctx context.Context, userID, moduleID, role, content string) error {
	l := s.keyLock(userID, moduleID)
	l.Lock()
	defer l.Unlock()

	mc, err := s.GetContext(ctx, userID, moduleID)
	if err != nil {
		return err
	}

	mc.Messages = append(mc.Messages, model.ConversationMessage{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
	if len(mc.Messages) > s.maxMessages {
		mc.Messages = mc.Messages[len(mc.Messages)-s.maxMessages:]
	}

	return s.store.SaveContext(ctx, mc)
}

// RecentMessages returns the most recent limit messages in original order.
func (s *Service) RecentMessages(ctx context.Context, userID, moduleID string, limit int) ([]model.ConversationMessage, error) {
	mc, err := s.GetContext(ctx, userID, moduleID)
	if err != nil {
		return nil, err
	}
	msgs := mc.Messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

// ClearContext deletes the stored context for the key.
func (s *Service) ClearContext(ctx context.Context, userID, moduleID string) error {
	l := s.keyLock(userID, moduleID)
	l.Lock()
	defer l.Unlock()
	return s.store.DeleteContext(ctx, userID, moduleID)
}

// SetMetadata merges one key/value into the context's metadata map, under the
// same per-key serialization as AddMessage.
func (s *Service) SetMetadata(ctx context.Context, userID, moduleID, key, value string) error {
	l := s.keyLock(userID, moduleID)
	l.Lock()
	defer l.Unlock()

	mc, err := s.GetContext(ctx, userID, moduleID)
	if err != nil {
		return err
	}
	if mc.Metadata == nil {
		mc.Metadata = make(map[string]string)
	}
	mc.Metadata[key] = value

	return s.store.SaveContext(ctx, mc)
}

// Flatten renders messages as "role: content" lines, one per turn, keeping
// the most recent turns that fit in charBudget (oldest dropped first). A
// budget <= 0 means unlimited. If even the newest message alone exceeds the
// budget its tail is kept, since the latest turn carries the most signal.
func Flatten(messages []model.ConversationMessage, charBudget int) string {
	if len(messages) == 0 {
		return ""
	}

	lines := make([]string, len(messages))
	for i, m := range messages {
		lines[i] = m.Role + ": " + m.Content
	}

	if charBudget <= 0 {
		return strings.Join(lines, "\n")
	}

	used := 0
	start := len(lines)
	for i := len(lines) - 1; i >= 0; i-- {
		cost := len(lines[i])
		if used > 0 {
			cost++ // joining newline
		}
		if used+cost > charBudget {
			break
		}
		used += cost
		start = i
	}

	if start == len(lines) {
		// Nothing fits whole; excerpt the newest line.
		last := lines[len(lines)-1]
		return last[len(last)-charBudget:]
	}

	return strings.Join(lines[start:], "\n")
}
