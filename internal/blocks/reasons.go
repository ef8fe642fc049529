// internal/blocks/reasons.go
package blocks

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/clubcourts/courtbook/internal/audit"
	"github.com/clubcourts/courtbook/internal/models"
	"github.com/clubcourts/courtbook/internal/store"
)

var ErrReasonNameRequired = errors.New("block reason name is required")

// CreateReason registers a new block reason. Only administrators manage
// reasons; teamsters merely use the ones flagged for them.
func (e *Engine) CreateReason(ctx context.Context, name string, teamsterUsable bool, actorID int64) (models.BlockReason, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.BlockReason{}, ErrReasonNameRequired
	}

	actor, err := store.GetMember(ctx, e.db, actorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.BlockReason{}, ErrNotFound
		}
		return models.BlockReason{}, err
	}
	if actor.Role != models.RoleAdministrator {
		return models.BlockReason{}, ErrNotStaff
	}

	reason, err := store.CreateReason(ctx, e.db, store.CreateReasonParams{
		Name:           name,
		TeamsterUsable: teamsterUsable,
		CreatedByID:    actorID,
	})
	if err != nil {
		return models.BlockReason{}, err
	}

	e.sink.Record(ctx, audit.Entry{
		Operation: audit.OpCreate,
		Entity:    "block_reason",
		EntityIDs: []int64{reason.ID},
		ActorID:   actorID,
		After:     reason,
	})
	return reason, nil
}

// ListReasons returns the reasons the acting staff member may use.
func (e *Engine) ListReasons(ctx context.Context, actorID int64) ([]models.BlockReason, error) {
	actor, err := store.GetMember(ctx, e.db, actorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !actor.IsStaff() {
		return nil, ErrNotStaff
	}
	return store.ListReasons(ctx, e.db, actor.Role == models.RoleTeamster)
}

// RemoveReason deletes an unreferenced reason, or soft-deactivates one that
// blocks still point at. A referenced reason is never silently removed.
func (e *Engine) RemoveReason(ctx context.Context, reasonID, actorID int64) error {
	actor, err := store.GetMember(ctx, e.db, actorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if actor.Role != models.RoleAdministrator {
		return ErrNotStaff
	}

	var before models.BlockReason
	var deactivated bool
	err = e.db.RunInTx(ctx, func(tx *sqlx.Tx) error {
		reason, err := store.GetReason(ctx, tx, reasonID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		before = reason

		references, err := store.CountBlocksByReason(ctx, tx, reasonID)
		if err != nil {
			return err
		}
		if references > 0 {
			deactivated = true
			return store.DeactivateReason(ctx, tx, reasonID)
		}
		return store.DeleteReason(ctx, tx, reasonID)
	})
	if err != nil {
		return err
	}

	operation := audit.OpDelete
	if deactivated {
		operation = audit.OpUpdate
	}
	e.sink.Record(ctx, audit.Entry{
		Operation: operation,
		Entity:    "block_reason",
		EntityIDs: []int64{reasonID},
		ActorID:   actorID,
		Before:    before,
	})
	return nil
}
