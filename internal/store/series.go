// internal/store/series.go
package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/clubcourts/courtbook/internal/models"
)

type CreateSeriesParams struct {
	Name        string
	Pattern     models.RecurrencePattern
	Weekdays    models.WeekdaySet
	StartDate   time.Time
	EndDate     time.Time
	StartClock  string
	EndClock    string
	ReasonID    int64
	CreatedByID int64
}

func CreateSeries(ctx context.Context, q Querier, params CreateSeriesParams) (models.BlockSeries, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO block_series (name, pattern, weekdays, start_date, end_date, start_clock, end_clock, reason_id, created_by_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		params.Name,
		params.Pattern,
		params.Weekdays.String(),
		params.StartDate.UTC(),
		params.EndDate.UTC(),
		params.StartClock,
		params.EndClock,
		params.ReasonID,
		params.CreatedByID,
	)
	if err != nil {
		return models.BlockSeries{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.BlockSeries{}, err
	}
	return GetSeries(ctx, q, id)
}

func GetSeries(ctx context.Context, q Querier, id int64) (models.BlockSeries, error) {
	var series models.BlockSeries
	err := sqlx.GetContext(ctx, q, &series, `SELECT * FROM block_series WHERE id = ?`, id)
	return series, err
}

type UpdateSeriesParams struct {
	ID         int64
	Name       string
	StartClock string
	EndClock   string
	ReasonID   int64
}

// UpdateSeries rewrites the template fields that scope=all edits carry over
// to the series record itself. Pattern and date range changes require
// deleting and recreating the series.
func UpdateSeries(ctx context.Context, q Querier, params UpdateSeriesParams) error {
	result, err := q.ExecContext(ctx, `
		UPDATE block_series SET name = ?, start_clock = ?, end_clock = ?, reason_id = ?
		WHERE id = ?`,
		params.Name, params.StartClock, params.EndClock, params.ReasonID, params.ID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func DeleteSeries(ctx context.Context, q Querier, id int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM block_series WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}
