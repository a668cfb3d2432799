// Package audit defines how domain services leave an audit trail for
// changes that are not themselves ledger entries (entry deletions,
// product edits, soft deletes).
package audit

import (
	"context"
	"fmt"

	"stockledger/internal/core/id"
)

// Action represents the type of audited operation.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Recorder persists audit records. Calls inside a transaction must be
// written in that same transaction.
type Recorder interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action Action, actorID string, changes map[string]any) error
}

// Nop discards audit records.
type Nop struct{}

func (Nop) LogChange(context.Context, string, id.ID, Action, string, map[string]any) error {
	return nil
}

// Diff returns the fields whose values differ between two states
// as {"field": {"old": x, "new": y}}.
func Diff(oldState, newState map[string]any) map[string]any {
	changes := make(map[string]any)

	for key, newVal := range newState {
		oldVal, exists := oldState[key]
		if !exists {
			changes[key] = map[string]any{"old": nil, "new": newVal}
		} else if !equal(oldVal, newVal) {
			changes[key] = map[string]any{"old": oldVal, "new": newVal}
		}
	}

	for key, oldVal := range oldState {
		if _, exists := newState[key]; !exists {
			changes[key] = map[string]any{"old": oldVal, "new": nil}
		}
	}

	return changes
}

// equal compares by printed form so decimal and string values compare sanely.
func equal(a, b any) bool {
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}
