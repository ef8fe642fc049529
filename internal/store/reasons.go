// internal/store/reasons.go
package store

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/clubcourts/courtbook/internal/models"
)

type CreateReasonParams struct {
	Name           string
	TeamsterUsable bool
	CreatedByID    int64
}

func CreateReason(ctx context.Context, q Querier, params CreateReasonParams) (models.BlockReason, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO block_reasons (name, teamster_usable, created_by_id)
		VALUES (?, ?, ?)`,
		params.Name, params.TeamsterUsable, params.CreatedByID)
	if err != nil {
		return models.BlockReason{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.BlockReason{}, err
	}
	return GetReason(ctx, q, id)
}

func GetReason(ctx context.Context, q Querier, id int64) (models.BlockReason, error) {
	var reason models.BlockReason
	err := sqlx.GetContext(ctx, q, &reason, `SELECT * FROM block_reasons WHERE id = ?`, id)
	return reason, err
}

// ListReasons returns active reasons. With teamsterOnly set, only reasons
// non-admin staff may use are returned.
func ListReasons(ctx context.Context, q Querier, teamsterOnly bool) ([]models.BlockReason, error) {
	query := `SELECT * FROM block_reasons WHERE is_active = 1 ORDER BY name`
	if teamsterOnly {
		query = `SELECT * FROM block_reasons WHERE is_active = 1 AND teamster_usable = 1 ORDER BY name`
	}
	var reasons []models.BlockReason
	err := sqlx.SelectContext(ctx, q, &reasons, query)
	return reasons, err
}

// DeactivateReason soft-deactivates a reason so it stops appearing in
// pickers while referencing blocks keep resolving it.
func DeactivateReason(ctx context.Context, q Querier, id int64) error {
	result, err := q.ExecContext(ctx,
		`UPDATE block_reasons SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// DeleteReason removes a reason outright. It must only be called for reasons
// no block references; callers check CountBlocksByReason first and fall back
// to DeactivateReason otherwise.
func DeleteReason(ctx context.Context, q Querier, id int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM block_reasons WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}
