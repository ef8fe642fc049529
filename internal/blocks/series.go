// internal/blocks/series.go
package blocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/clubcourts/courtbook/internal/audit"
	"github.com/clubcourts/courtbook/internal/models"
	"github.com/clubcourts/courtbook/internal/store"
)

// Scope selects which occurrences a series update or delete touches.
type Scope string

const (
	ScopeSingle Scope = "single"
	ScopeFuture Scope = "future"
	ScopeAll    Scope = "all"
)

var (
	ErrInvalidPattern = errors.New("recurrence pattern is invalid")
	ErrInvalidScope   = errors.New("series scope is invalid")
)

const clockLayout = "15:04"

type CreateSeriesParams struct {
	Name        string
	CourtIDs    []int64
	StartDate   time.Time
	EndDate     time.Time
	StartClock  string
	EndClock    string
	Pattern     models.RecurrencePattern
	Weekdays    models.WeekdaySet
	ReasonID    int64
	Details     string
	CreatedByID int64
}

// CreateRecurringSeries expands a recurrence template into one block per
// (court, occurrence date), all linked by a series id, cascading per block
// exactly like a single create. The whole expansion is one transaction.
func (e *Engine) CreateRecurringSeries(ctx context.Context, params CreateSeriesParams) (models.BlockSeries, []models.Block, error) {
	reason, err := e.authorizeReason(ctx, params.CreatedByID, params.ReasonID)
	if err != nil {
		return models.BlockSeries{}, nil, err
	}
	if len(params.CourtIDs) == 0 {
		return models.BlockSeries{}, nil, ErrInvalidWindow
	}

	startClock, endClock, err := parseClockWindow(params.StartClock, params.EndClock)
	if err != nil {
		return models.BlockSeries{}, nil, err
	}

	startDate := e.clk.Date(params.StartDate)
	endDate := e.clk.Date(params.EndDate)
	if endDate.Before(startDate) {
		return models.BlockSeries{}, nil, ErrInvalidWindow
	}

	weekdays := params.Weekdays.Normalize()
	occurrences, err := ExpandOccurrences(params.Pattern, startDate, endDate, weekdays)
	if err != nil {
		return models.BlockSeries{}, nil, err
	}

	var series models.BlockSeries
	var created []models.Block
	var cascaded []models.Reservation
	err = e.db.RunInTx(ctx, func(tx *sqlx.Tx) error {
		series, err = store.CreateSeries(ctx, tx, store.CreateSeriesParams{
			Name:        params.Name,
			Pattern:     params.Pattern,
			Weekdays:    weekdays,
			StartDate:   startDate,
			EndDate:     endDate,
			StartClock:  params.StartClock,
			EndClock:    params.EndClock,
			ReasonID:    params.ReasonID,
			CreatedByID: params.CreatedByID,
		})
		if err != nil {
			return err
		}

		for _, day := range occurrences {
			for _, courtID := range dedupe(params.CourtIDs) {
				block, err := store.CreateBlock(ctx, tx, store.CreateBlockParams{
					CourtID:     courtID,
					StartTime:   combine(day, startClock),
					EndTime:     combine(day, endClock),
					ReasonID:    params.ReasonID,
					Details:     params.Details,
					SeriesID:    series.ID,
					CreatedByID: params.CreatedByID,
				})
				if err != nil {
					return err
				}
				created = append(created, block)

				blockCascaded, err := e.cascade(ctx, tx, block, reason)
				if err != nil {
					return err
				}
				cascaded = append(cascaded, blockCascaded...)
			}
		}
		return nil
	})
	if err != nil {
		return models.BlockSeries{}, nil, err
	}

	for _, reservation := range cascaded {
		e.lifecycle.NotifyCascade(ctx, reservation, cascadeReason(reason))
	}
	e.sink.Record(ctx, audit.Entry{
		Operation: audit.OpCreate,
		Entity:    "block_series",
		EntityIDs: append([]int64{series.ID}, blockIDs(created)...),
		ActorID:   params.CreatedByID,
		After:     series,
	})
	return series, created, nil
}

type UpdateSeriesFields struct {
	Name       string
	StartClock string
	EndClock   string
	ReasonID   int64
	Details    string
}

// UpdateSeries edits series occurrences by scope. Scope single touches
// exactly the occurrences dated fromDate and marks them independently
// modified; future touches every occurrence dated at or after fromDate; all
// touches every occurrence and rewrites the series template itself. Each
// touched block re-cascades against its new window.
func (e *Engine) UpdateSeries(ctx context.Context, seriesID int64, scope Scope, fromDate time.Time, fields UpdateSeriesFields, actorID int64) error {
	reason, err := e.authorizeReason(ctx, actorID, fields.ReasonID)
	if err != nil {
		return err
	}
	startClock, endClock, err := parseClockWindow(fields.StartClock, fields.EndClock)
	if err != nil {
		return err
	}

	var touched []int64
	var cascaded []models.Reservation
	err = e.db.RunInTx(ctx, func(tx *sqlx.Tx) error {
		series, err := store.GetSeries(ctx, tx, seriesID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		targets, markModified, err := e.scopedBlocks(ctx, tx, series.ID, scope, fromDate)
		if err != nil {
			return err
		}

		for _, block := range targets {
			day := e.clk.Date(block.StartTime)
			if err := store.UpdateBlockWindow(ctx, tx, store.UpdateBlockWindowParams{
				ID:         block.ID,
				StartTime:  combine(day, startClock),
				EndTime:    combine(day, endClock),
				ReasonID:   fields.ReasonID,
				Details:    fields.Details,
				IsModified: markModified || block.IsModified,
			}); err != nil {
				return err
			}
			updated, err := store.GetBlock(ctx, tx, block.ID)
			if err != nil {
				return err
			}
			touched = append(touched, updated.ID)

			blockCascaded, err := e.cascade(ctx, tx, updated, reason)
			if err != nil {
				return err
			}
			cascaded = append(cascaded, blockCascaded...)
		}

		if scope == ScopeAll {
			name := fields.Name
			if name == "" {
				name = series.Name
			}
			if err := store.UpdateSeries(ctx, tx, store.UpdateSeriesParams{
				ID:         series.ID,
				Name:       name,
				StartClock: fields.StartClock,
				EndClock:   fields.EndClock,
				ReasonID:   fields.ReasonID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, reservation := range cascaded {
		e.lifecycle.NotifyCascade(ctx, reservation, cascadeReason(reason))
	}
	e.sink.Record(ctx, audit.Entry{
		Operation: audit.OpUpdate,
		Entity:    "block_series",
		EntityIDs: append([]int64{seriesID}, touched...),
		ActorID:   actorID,
		After:     fields,
	})
	return nil
}

// DeleteSeries removes series occurrences by scope. Scope all also removes
// the series record; single and future leave the series row and its
// remaining occurrences intact.
func (e *Engine) DeleteSeries(ctx context.Context, seriesID int64, scope Scope, fromDate time.Time, actorID int64) error {
	actor, err := e.authorizeActor(ctx, actorID)
	if err != nil {
		return err
	}

	var removed []int64
	err = e.db.RunInTx(ctx, func(tx *sqlx.Tx) error {
		series, err := store.GetSeries(ctx, tx, seriesID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if actor.Role == models.RoleTeamster && series.CreatedByID != actor.ID {
			return ErrNotOwner
		}

		targets, _, err := e.scopedBlocks(ctx, tx, series.ID, scope, fromDate)
		if err != nil {
			return err
		}

		for _, block := range targets {
			if err := e.removeBlock(ctx, tx, block); err != nil {
				return err
			}
			removed = append(removed, block.ID)
		}

		if scope == ScopeAll {
			if err := store.DeleteSeries(ctx, tx, series.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.sink.Record(ctx, audit.Entry{
		Operation: audit.OpDelete,
		Entity:    "block_series",
		EntityIDs: append([]int64{seriesID}, removed...),
		ActorID:   actorID,
	})
	return nil
}

// scopedBlocks resolves the occurrence set a scope refers to. The returned
// flag tells the caller whether edits must mark instances as independently
// modified (scope single only).
func (e *Engine) scopedBlocks(ctx context.Context, tx *sqlx.Tx, seriesID int64, scope Scope, fromDate time.Time) ([]models.Block, bool, error) {
	switch scope {
	case ScopeSingle:
		dayStart := e.clk.Date(fromDate)
		blocks, err := store.ListBlocksBySeriesOn(ctx, tx, seriesID, dayStart, dayStart.AddDate(0, 0, 1))
		return blocks, true, err
	case ScopeFuture:
		blocks, err := store.ListBlocksBySeriesFrom(ctx, tx, seriesID, e.clk.Date(fromDate))
		return blocks, false, err
	case ScopeAll:
		blocks, err := store.ListBlocksBySeries(ctx, tx, seriesID)
		return blocks, false, err
	default:
		return nil, false, ErrInvalidScope
	}
}

// ExpandOccurrences lists the civil dates a recurrence pattern produces over
// [startDate, endDate], both inclusive. Monthly recurrences anchor on
// startDate's day-of-month and clamp to the last valid day of shorter
// months.
func ExpandOccurrences(pattern models.RecurrencePattern, startDate, endDate time.Time, weekdays models.WeekdaySet) ([]time.Time, error) {
	switch pattern {
	case models.RecurDaily:
		var days []time.Time
		for day := startDate; !day.After(endDate); day = day.AddDate(0, 0, 1) {
			days = append(days, day)
		}
		return days, nil

	case models.RecurWeekly:
		if len(weekdays) == 0 {
			return nil, fmt.Errorf("%w: weekly pattern requires weekdays", ErrInvalidPattern)
		}
		var days []time.Time
		for day := startDate; !day.After(endDate); day = day.AddDate(0, 0, 1) {
			if weekdays.Contains(day.Weekday()) {
				days = append(days, day)
			}
		}
		return days, nil

	case models.RecurMonthly:
		anchor := startDate.Day()
		var days []time.Time
		year, month := startDate.Year(), startDate.Month()
		for {
			day := time.Date(year, month, clampDay(year, month, anchor), 0, 0, 0, 0, startDate.Location())
			if day.After(endDate) {
				break
			}
			if !day.Before(startDate) {
				days = append(days, day)
			}
			month++
			if month > time.December {
				month = time.January
				year++
			}
		}
		return days, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}
}

// clampDay clamps an anchor day-of-month to the last valid day of the given
// month (day 31 in February becomes 28 or 29).
func clampDay(year int, month time.Month, day int) int {
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > lastDay {
		return lastDay
	}
	return day
}

type clockOfDay struct {
	hour   int
	minute int
}

func parseClockWindow(startValue, endValue string) (clockOfDay, clockOfDay, error) {
	start, err := parseClock(startValue)
	if err != nil {
		return clockOfDay{}, clockOfDay{}, err
	}
	end, err := parseClock(endValue)
	if err != nil {
		return clockOfDay{}, clockOfDay{}, err
	}
	if end.hour*60+end.minute <= start.hour*60+start.minute {
		return clockOfDay{}, clockOfDay{}, ErrInvalidWindow
	}
	return start, end, nil
}

func parseClock(value string) (clockOfDay, error) {
	parsed, err := time.Parse(clockLayout, value)
	if err != nil {
		return clockOfDay{}, fmt.Errorf("%w: %q", ErrInvalidWindow, value)
	}
	return clockOfDay{hour: parsed.Hour(), minute: parsed.Minute()}, nil
}

func combine(day time.Time, clock clockOfDay) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), clock.hour, clock.minute, 0, 0, day.Location())
}
