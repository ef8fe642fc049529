// internal/blocks/engine.go
package blocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/clubcourts/courtbook/internal/audit"
	"github.com/clubcourts/courtbook/internal/booking"
	"github.com/clubcourts/courtbook/internal/clock"
	"github.com/clubcourts/courtbook/internal/db"
	"github.com/clubcourts/courtbook/internal/models"
	"github.com/clubcourts/courtbook/internal/store"
)

var (
	ErrNotFound         = errors.New("block not found")
	ErrInvalidWindow    = errors.New("block window is invalid")
	ErrReasonInactive   = errors.New("block reason is not active")
	ErrReasonRestricted = errors.New("block reason is not usable by this staff role")
	ErrNotStaff         = errors.New("blocks can only be managed by staff")
	ErrNotOwner         = errors.New("teamsters may only manage blocks they created")
)

// Engine owns blocks and block series. Every mutation cascades over
// conflicting reservations inside the same transaction as the block write:
// either both commit or neither does.
type Engine struct {
	db        *db.DB
	clk       *clock.Clock
	lifecycle *booking.Service
	sink      audit.Sink
}

func NewEngine(database *db.DB, clk *clock.Clock, lifecycle *booking.Service, sink audit.Sink) *Engine {
	if sink == nil {
		sink = audit.LogSink{}
	}
	return &Engine{db: database, clk: clk, lifecycle: lifecycle, sink: sink}
}

type CreateBlockParams struct {
	CourtID     int64
	Start       time.Time
	End         time.Time
	ReasonID    int64
	Details     string
	Temporary   bool
	CreatedByID int64
}

// CreateBlock persists a block and cascades over the reservations it
// covers: a regular block cancels them with a reason naming the block's
// reason, a temporary block suspends them until it is removed.
func (e *Engine) CreateBlock(ctx context.Context, params CreateBlockParams) (models.Block, error) {
	reason, err := e.authorizeReason(ctx, params.CreatedByID, params.ReasonID)
	if err != nil {
		return models.Block{}, err
	}
	start, end := e.clk.Ensure(params.Start), e.clk.Ensure(params.End)
	if !end.After(start) {
		return models.Block{}, ErrInvalidWindow
	}

	var created models.Block
	var cascaded []models.Reservation
	err = e.db.RunInTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := store.GetCourt(ctx, tx, params.CourtID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		created, err = store.CreateBlock(ctx, tx, store.CreateBlockParams{
			CourtID:     params.CourtID,
			StartTime:   start,
			EndTime:     end,
			ReasonID:    params.ReasonID,
			Details:     params.Details,
			Temporary:   params.Temporary,
			CreatedByID: params.CreatedByID,
		})
		if err != nil {
			return err
		}

		cascaded, err = e.cascade(ctx, tx, created, reason)
		return err
	})
	if err != nil {
		return models.Block{}, err
	}

	e.notifyCascade(ctx, created, reason, cascaded)
	e.sink.Record(ctx, audit.Entry{
		Operation: audit.OpCreate,
		Entity:    "block",
		EntityIDs: []int64{created.ID},
		ActorID:   params.CreatedByID,
		After:     created,
	})
	return created, nil
}

type CreateBatchParams struct {
	CourtIDs    []int64
	Start       time.Time
	End         time.Time
	ReasonID    int64
	Details     string
	Temporary   bool
	CreatedByID int64
}

// CreateMultiCourtBlocks creates one block per court under a fresh batch id
// and cascades per court, all in one transaction. The batch id targets later
// group update and delete.
func (e *Engine) CreateMultiCourtBlocks(ctx context.Context, params CreateBatchParams) (string, []models.Block, error) {
	if len(params.CourtIDs) == 0 {
		return "", nil, ErrInvalidWindow
	}
	reason, err := e.authorizeReason(ctx, params.CreatedByID, params.ReasonID)
	if err != nil {
		return "", nil, err
	}
	start, end := e.clk.Ensure(params.Start), e.clk.Ensure(params.End)
	if !end.After(start) {
		return "", nil, ErrInvalidWindow
	}

	batchID := uuid.NewString()
	var created []models.Block
	var cascaded []models.Reservation
	err = e.db.RunInTx(ctx, func(tx *sqlx.Tx) error {
		for _, courtID := range dedupe(params.CourtIDs) {
			block, err := store.CreateBlock(ctx, tx, store.CreateBlockParams{
				CourtID:     courtID,
				StartTime:   start,
				EndTime:     end,
				ReasonID:    params.ReasonID,
				Details:     params.Details,
				Temporary:   params.Temporary,
				BatchID:     batchID,
				CreatedByID: params.CreatedByID,
			})
			if err != nil {
				return err
			}
			created = append(created, block)

			courtCascaded, err := e.cascade(ctx, tx, block, reason)
			if err != nil {
				return err
			}
			cascaded = append(cascaded, courtCascaded...)
		}
		return nil
	})
	if err != nil {
		return "", nil, err
	}

	for _, reservation := range cascaded {
		e.lifecycle.NotifyCascade(ctx, reservation, cascadeReason(reason))
	}
	e.sink.Record(ctx, audit.Entry{
		Operation: audit.OpCreate,
		Entity:    "block_batch",
		EntityIDs: blockIDs(created),
		ActorID:   params.CreatedByID,
		After:     created,
	})
	return batchID, created, nil
}

type UpdateBatchParams struct {
	Start    time.Time
	End      time.Time
	ReasonID int64
	Details  string
	ActorID  int64
}

// UpdateBatch reconciles a batch against a new court set: dropped courts
// lose their block rows, retained courts are updated in place and
// re-cascaded against the new window, added courts get fresh rows under the
// same batch id. One audit record covers the whole reconciliation.
func (e *Engine) UpdateBatch(ctx context.Context, batchID string, params UpdateBatchParams, newCourtIDs []int64) ([]models.Block, error) {
	reason, err := e.authorizeReason(ctx, params.ActorID, params.ReasonID)
	if err != nil {
		return nil, err
	}
	start, end := e.clk.Ensure(params.Start), e.clk.Ensure(params.End)
	if !end.After(start) {
		return nil, ErrInvalidWindow
	}

	var result []models.Block
	var cascaded []models.Reservation
	var touched []int64
	err = e.db.RunInTx(ctx, func(tx *sqlx.Tx) error {
		existing, err := store.ListBlocksByBatch(ctx, tx, batchID)
		if err != nil {
			return err
		}
		if len(existing) == 0 {
			return ErrNotFound
		}

		next := make(map[int64]struct{}, len(newCourtIDs))
		for _, courtID := range dedupe(newCourtIDs) {
			next[courtID] = struct{}{}
		}
		current := make(map[int64]models.Block, len(existing))
		for _, block := range existing {
			current[block.CourtID] = block
		}

		for courtID, block := range current {
			if _, keep := next[courtID]; keep {
				continue
			}
			if err := e.removeBlock(ctx, tx, block); err != nil {
				return err
			}
			touched = append(touched, block.ID)
		}

		for courtID := range next {
			if block, exists := current[courtID]; exists {
				// A temporary block releases its old window before it
				// moves, or the reservations it suspended there would
				// stay suspended with no block left to remove.
				if block.Temporary {
					if err := e.restoreSuspended(ctx, tx, block); err != nil {
						return err
					}
				}
				if err := store.UpdateBlockWindow(ctx, tx, store.UpdateBlockWindowParams{
					ID:        block.ID,
					StartTime: start,
					EndTime:   end,
					ReasonID:  params.ReasonID,
					Details:   params.Details,
				}); err != nil {
					return err
				}
				updated, err := store.GetBlock(ctx, tx, block.ID)
				if err != nil {
					return err
				}
				result = append(result, updated)
				touched = append(touched, updated.ID)

				courtCascaded, err := e.cascade(ctx, tx, updated, reason)
				if err != nil {
					return err
				}
				cascaded = append(cascaded, courtCascaded...)
				continue
			}

			block, err := store.CreateBlock(ctx, tx, store.CreateBlockParams{
				CourtID:     courtID,
				StartTime:   start,
				EndTime:     end,
				ReasonID:    params.ReasonID,
				Details:     params.Details,
				BatchID:     batchID,
				CreatedByID: params.ActorID,
			})
			if err != nil {
				return err
			}
			result = append(result, block)
			touched = append(touched, block.ID)

			courtCascaded, err := e.cascade(ctx, tx, block, reason)
			if err != nil {
				return err
			}
			cascaded = append(cascaded, courtCascaded...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, reservation := range cascaded {
		e.lifecycle.NotifyCascade(ctx, reservation, cascadeReason(reason))
	}
	e.sink.Record(ctx, audit.Entry{
		Operation: audit.OpUpdate,
		Entity:    "block_batch",
		EntityIDs: touched,
		ActorID:   params.ActorID,
		After:     result,
	})
	return result, nil
}

// DeleteBlock removes a block. Deleting a temporary block restores the
// reservations it had suspended; deleting a regular block never resurrects
// cancelled reservations.
func (e *Engine) DeleteBlock(ctx context.Context, blockID, actorID int64) error {
	actor, err := e.authorizeActor(ctx, actorID)
	if err != nil {
		return err
	}

	var removed models.Block
	err = e.db.RunInTx(ctx, func(tx *sqlx.Tx) error {
		block, err := store.GetBlock(ctx, tx, blockID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if actor.Role == models.RoleTeamster && block.CreatedByID != actor.ID {
			return ErrNotOwner
		}
		removed = block
		return e.removeBlock(ctx, tx, block)
	})
	if err != nil {
		return err
	}

	e.sink.Record(ctx, audit.Entry{
		Operation: audit.OpDelete,
		Entity:    "block",
		EntityIDs: []int64{removed.ID},
		ActorID:   actorID,
		Before:    removed,
	})
	return nil
}

// ConflictPreview returns the currently-active reservations a block with
// these parameters would cascade-cancel, without mutating anything. Used to
// warn an operator before committing.
func (e *Engine) ConflictPreview(ctx context.Context, courtIDs []int64, start, end time.Time) ([]models.Reservation, error) {
	now := e.clk.Now()
	start, end = e.clk.Ensure(start), e.clk.Ensure(end)

	var preview []models.Reservation
	for _, courtID := range dedupe(courtIDs) {
		reservations, err := store.ListReservationsInWindow(ctx, e.db, courtID, start, end, models.ReservationActive)
		if err != nil {
			return nil, err
		}
		for _, reservation := range reservations {
			if e.lifecycle.Validator().IsActive(ctx, reservation, now, false) {
				preview = append(preview, reservation)
			}
		}
	}
	return preview, nil
}

// cascade applies a freshly written block window to the reservations whose
// start falls inside it. Regular blocks cancel; temporary blocks suspend.
// Returns the cancelled reservations for post-commit notification.
func (e *Engine) cascade(ctx context.Context, tx *sqlx.Tx, block models.Block, reason models.BlockReason) ([]models.Reservation, error) {
	now := e.clk.Now()
	active, err := store.ListReservationsInWindow(ctx, tx, block.CourtID, block.StartTime, block.EndTime, models.ReservationActive)
	if err != nil {
		return nil, err
	}

	var cascaded []models.Reservation
	for _, reservation := range active {
		if !e.lifecycle.Validator().IsActive(ctx, reservation, now, false) {
			continue
		}
		if block.Temporary {
			if err := store.SetReservationStatus(ctx, tx, reservation.ID, models.ReservationSuspended, ""); err != nil {
				return nil, fmt.Errorf("suspend reservation %d: %w", reservation.ID, err)
			}
			continue
		}
		if err := e.lifecycle.CascadeCancel(ctx, tx, reservation, cascadeReason(reason)); err != nil {
			return nil, err
		}
		cascaded = append(cascaded, reservation)
	}
	return cascaded, nil
}

// removeBlock deletes one block row, restoring suspended reservations first
// when the block was temporary.
func (e *Engine) removeBlock(ctx context.Context, tx *sqlx.Tx, block models.Block) error {
	if block.Temporary {
		if err := e.restoreSuspended(ctx, tx, block); err != nil {
			return err
		}
	}
	return store.DeleteBlock(ctx, tx, block.ID)
}

// restoreSuspended reactivates the reservations a temporary block holds
// suspended inside its current window. A reservation whose slot is still
// covered by a different temporary block stays suspended until that block
// goes away too.
func (e *Engine) restoreSuspended(ctx context.Context, tx *sqlx.Tx, block models.Block) error {
	suspended, err := store.ListReservationsInWindow(ctx, tx, block.CourtID, block.StartTime, block.EndTime, models.ReservationSuspended)
	if err != nil {
		return err
	}
	for _, reservation := range suspended {
		covered, err := store.OtherTemporaryBlockCovers(ctx, tx, block.CourtID, block.ID, reservation.StartTime)
		if err != nil {
			return err
		}
		if covered {
			continue
		}
		if err := store.SetReservationStatus(ctx, tx, reservation.ID, models.ReservationActive, ""); err != nil {
			return fmt.Errorf("restore reservation %d: %w", reservation.ID, err)
		}
		log.Ctx(ctx).Info().
			Int64("reservation_id", reservation.ID).
			Int64("block_id", block.ID).
			Msg("Suspended reservation restored")
	}
	return nil
}

// authorizeActor loads the acting member and requires a staff role.
func (e *Engine) authorizeActor(ctx context.Context, actorID int64) (models.Member, error) {
	actor, err := store.GetMember(ctx, e.db, actorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Member{}, ErrNotFound
		}
		return models.Member{}, err
	}
	if !actor.IsStaff() {
		return models.Member{}, ErrNotStaff
	}
	return actor, nil
}

// authorizeReason loads the reason and checks the acting staff member may
// use it: teamsters are limited to teamster-usable reasons.
func (e *Engine) authorizeReason(ctx context.Context, actorID, reasonID int64) (models.BlockReason, error) {
	actor, err := e.authorizeActor(ctx, actorID)
	if err != nil {
		return models.BlockReason{}, err
	}

	reason, err := store.GetReason(ctx, e.db, reasonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.BlockReason{}, ErrNotFound
		}
		return models.BlockReason{}, err
	}
	if !reason.IsActive {
		return models.BlockReason{}, ErrReasonInactive
	}
	if actor.Role == models.RoleTeamster && !reason.TeamsterUsable {
		return models.BlockReason{}, ErrReasonRestricted
	}
	return reason, nil
}

func (e *Engine) notifyCascade(ctx context.Context, block models.Block, reason models.BlockReason, cascaded []models.Reservation) {
	for _, reservation := range cascaded {
		e.lifecycle.NotifyCascade(ctx, reservation, cascadeReason(reason))
	}
	if len(cascaded) > 0 {
		log.Ctx(ctx).Info().
			Int64("block_id", block.ID).
			Int("cancelled", len(cascaded)).
			Msg("Block cascade complete")
	}
}

func cascadeReason(reason models.BlockReason) string {
	return fmt.Sprintf("cancelled due to block: %s", reason.Name)
}

func blockIDs(blocks []models.Block) []int64 {
	ids := make([]int64, len(blocks))
	for i, block := range blocks {
		ids[i] = block.ID
	}
	return ids
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
