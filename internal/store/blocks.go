// internal/store/blocks.go
package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/clubcourts/courtbook/internal/models"
)

type CreateBlockParams struct {
	CourtID     int64
	StartTime   time.Time
	EndTime     time.Time
	ReasonID    int64
	Details     string
	Temporary   bool
	BatchID     string
	SeriesID    int64
	CreatedByID int64
}

func CreateBlock(ctx context.Context, q Querier, params CreateBlockParams) (models.Block, error) {
	var details, batchID, seriesID any
	if params.Details != "" {
		details = params.Details
	}
	if params.BatchID != "" {
		batchID = params.BatchID
	}
	if params.SeriesID != 0 {
		seriesID = params.SeriesID
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO blocks (court_id, start_time, end_time, reason_id, details, temporary, batch_id, series_id, created_by_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		params.CourtID,
		params.StartTime.UTC(),
		params.EndTime.UTC(),
		params.ReasonID,
		details,
		params.Temporary,
		batchID,
		seriesID,
		params.CreatedByID,
	)
	if err != nil {
		return models.Block{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Block{}, err
	}
	return GetBlock(ctx, q, id)
}

func GetBlock(ctx context.Context, q Querier, id int64) (models.Block, error) {
	var block models.Block
	err := sqlx.GetContext(ctx, q, &block, `SELECT * FROM blocks WHERE id = ?`, id)
	return block, err
}

func DeleteBlock(ctx context.Context, q Querier, id int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM blocks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

type UpdateBlockWindowParams struct {
	ID         int64
	StartTime  time.Time
	EndTime    time.Time
	ReasonID   int64
	Details    string
	IsModified bool
}

// UpdateBlockWindow rewrites a block's time window, reason and details.
func UpdateBlockWindow(ctx context.Context, q Querier, params UpdateBlockWindowParams) error {
	var details any
	if params.Details != "" {
		details = params.Details
	}
	result, err := q.ExecContext(ctx, `
		UPDATE blocks SET start_time = ?, end_time = ?, reason_id = ?, details = ?, is_modified = ?
		WHERE id = ?`,
		params.StartTime.UTC(), params.EndTime.UTC(), params.ReasonID, details, params.IsModified, params.ID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// ListBlocksBetween returns all blocks overlapping [start, end), across all
// courts.
func ListBlocksBetween(ctx context.Context, q Querier, start, end time.Time) ([]models.Block, error) {
	var blocks []models.Block
	err := sqlx.SelectContext(ctx, q, &blocks, `
		SELECT * FROM blocks
		WHERE start_time < ? AND end_time > ?
		ORDER BY court_id, start_time`,
		end.UTC(), start.UTC())
	return blocks, err
}

// ListBlocksCoveringSlot returns blocks on one court whose window contains
// slotStart.
func ListBlocksCoveringSlot(ctx context.Context, q Querier, courtID int64, slotStart time.Time) ([]models.Block, error) {
	var blocks []models.Block
	err := sqlx.SelectContext(ctx, q, &blocks, `
		SELECT * FROM blocks
		WHERE court_id = ? AND start_time <= ? AND end_time > ?
		ORDER BY temporary DESC, start_time`,
		courtID, slotStart.UTC(), slotStart.UTC())
	return blocks, err
}

// OtherTemporaryBlockCovers reports whether a temporary block other than
// excludeID covers slotStart on the court.
func OtherTemporaryBlockCovers(ctx context.Context, q Querier, courtID, excludeID int64, slotStart time.Time) (bool, error) {
	var count int64
	err := sqlx.GetContext(ctx, q, &count, `
		SELECT COUNT(*) FROM blocks
		WHERE court_id = ? AND id != ? AND temporary = 1
		  AND start_time <= ? AND end_time > ?`,
		courtID, excludeID, slotStart.UTC(), slotStart.UTC())
	return count > 0, err
}

func ListBlocksByBatch(ctx context.Context, q Querier, batchID string) ([]models.Block, error) {
	var blocks []models.Block
	err := sqlx.SelectContext(ctx, q, &blocks, `
		SELECT * FROM blocks WHERE batch_id = ? ORDER BY court_id`, batchID)
	return blocks, err
}

func ListBlocksBySeries(ctx context.Context, q Querier, seriesID int64) ([]models.Block, error) {
	var blocks []models.Block
	err := sqlx.SelectContext(ctx, q, &blocks, `
		SELECT * FROM blocks WHERE series_id = ? ORDER BY start_time, court_id`, seriesID)
	return blocks, err
}

// ListBlocksBySeriesFrom returns series occurrences starting at or after the
// given instant.
func ListBlocksBySeriesFrom(ctx context.Context, q Querier, seriesID int64, from time.Time) ([]models.Block, error) {
	var blocks []models.Block
	err := sqlx.SelectContext(ctx, q, &blocks, `
		SELECT * FROM blocks WHERE series_id = ? AND start_time >= ?
		ORDER BY start_time, court_id`,
		seriesID, from.UTC())
	return blocks, err
}

// ListBlocksBySeriesOn returns the series occurrences dated within
// [dayStart, dayEnd).
func ListBlocksBySeriesOn(ctx context.Context, q Querier, seriesID int64, dayStart, dayEnd time.Time) ([]models.Block, error) {
	var blocks []models.Block
	err := sqlx.SelectContext(ctx, q, &blocks, `
		SELECT * FROM blocks WHERE series_id = ? AND start_time >= ? AND start_time < ?
		ORDER BY court_id`,
		seriesID, dayStart.UTC(), dayEnd.UTC())
	return blocks, err
}

// CountBlocksByReason reports how many blocks still reference a reason.
func CountBlocksByReason(ctx context.Context, q Querier, reasonID int64) (int64, error) {
	var count int64
	err := sqlx.GetContext(ctx, q, &count,
		`SELECT COUNT(*) FROM blocks WHERE reason_id = ?`, reasonID)
	return count, err
}
