// internal/audit/audit.go
package audit

import (
	"context"

	"github.com/rs/zerolog/log"
)

type Operation string

const (
	OpCreate  Operation = "create"
	OpUpdate  Operation = "update"
	OpDelete  Operation = "delete"
	OpCascade Operation = "cascade"
)

// Entry is one structured audit record. Before and After are entity
// snapshots; formatting and long-term storage belong to the sink, not to the
// engines emitting entries.
type Entry struct {
	Operation Operation
	Entity    string
	EntityIDs []int64
	ActorID   int64
	Before    any
	After     any
}

// Sink consumes audit entries. Like the notification gateway it must never
// fail the operation that produced the entry.
type Sink interface {
	Record(ctx context.Context, entry Entry)
}

// LogSink writes audit entries to the structured log.
type LogSink struct{}

func (LogSink) Record(ctx context.Context, entry Entry) {
	event := log.Ctx(ctx).Info().
		Str("audit_op", string(entry.Operation)).
		Str("entity", entry.Entity).
		Int64("actor_id", entry.ActorID).
		Ints64("entity_ids", entry.EntityIDs)
	if entry.Before != nil {
		event = event.Interface("before", entry.Before)
	}
	if entry.After != nil {
		event = event.Interface("after", entry.After)
	}
	event.Msg("Audit event")
}
