package core

import "encoding/json"

const (
	ActionCreate OutboxAction = "create"
	ActionUpdate OutboxAction = "update"
	ActionDelete OutboxAction = "delete"
)

// MaxSyncAttempts bounds outbox retries. Items at or above it are
// dead-lettered: kept for inspection, excluded from pending queries.
const MaxSyncAttempts = 3

type (
	OutboxAction string

	// OutboxItem is one pending mutation awaiting transmission to the sync
	// server. Data is a JSON snapshot taken at enqueue time, so later edits
	// of the same entity never rewrite an already-queued item.
	OutboxItem struct {
		ID        int64
		TableName string
		RecordID  string
		Action    OutboxAction
		Data      json.RawMessage
		CreatedAt int64
		Attempts  int64
		LastError *string
	}
)

func (a OutboxAction) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// Dead reports whether the item exhausted its retry budget.
func (i OutboxItem) Dead() bool {
	return i.Attempts >= MaxSyncAttempts
}
