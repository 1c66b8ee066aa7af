package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/creatorlab/labengine/internal/model"
)

func (s *SQLiteStore) GetContext(ctx context.Context, userID, moduleID string) (*model.MemoryContext, error) {
	var messagesJSON string
	var metadataJSON sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT messages, metadata FROM memory_contexts WHERE user_id = ? AND module_id = ?`,
		userID, moduleID).Scan(&messagesJSON, &metadataJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("context %s/%s: %w", userID, moduleID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	mc := &model.MemoryContext{UserID: userID, ModuleID: moduleID}
	if err := json.Unmarshal([]byte(messagesJSON), &mc.Messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &mc.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}

	return mc, nil
}

func (s *SQLiteStore) SaveContext(ctx context.Context, mc *model.MemoryContext) error {
	messages := mc.Messages
	if messages == nil {
		messages = []model.ConversationMessage{}
	}
	messagesJSON, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}

	var metadataPtr *string
	if len(mc.Metadata) > 0 {
		b, err := json.Marshal(mc.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		s := string(b)
		metadataPtr = &s
	}

	now := time.Now().UTC().Format(timeLayout)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO memory_contexts (user_id, module_id, messages, metadata, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, module_id) DO UPDATE SET
		   messages = excluded.messages,
		   metadata = excluded.metadata,
		   updated_at = excluded.updated_at`,
		mc.UserID, mc.ModuleID, string(messagesJSON), metadataPtr, now)
	if err != nil {
		return fmt.Errorf("save context: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteContext(ctx context.Context, userID, moduleID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM memory_contexts WHERE user_id = ? AND module_id = ?`, userID, moduleID)
	return err
}
