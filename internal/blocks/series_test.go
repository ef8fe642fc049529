package blocks_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clubcourts/courtbook/internal/blocks"
	"github.com/clubcourts/courtbook/internal/models"
	"github.com/clubcourts/courtbook/internal/store"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExpandOccurrencesDaily(t *testing.T) {
	got, err := blocks.ExpandOccurrences(models.RecurDaily, day(2026, 6, 1), day(2026, 6, 7), nil)
	require.NoError(t, err)
	require.Len(t, got, 7, "both endpoints are inclusive")
	require.Equal(t, day(2026, 6, 1), got[0])
	require.Equal(t, day(2026, 6, 7), got[6])
}

func TestExpandOccurrencesWeekly(t *testing.T) {
	// June 2026 opens on a Monday; four Mondays fall before the 25th.
	got, err := blocks.ExpandOccurrences(models.RecurWeekly, day(2026, 6, 1), day(2026, 6, 24), models.WeekdaySet{time.Monday})
	require.NoError(t, err)
	require.Len(t, got, 4)
	for _, occurrence := range got {
		require.Equal(t, time.Monday, occurrence.Weekday())
	}

	got, err = blocks.ExpandOccurrences(models.RecurWeekly, day(2026, 6, 1), day(2026, 6, 14), models.WeekdaySet{time.Tuesday, time.Thursday})
	require.NoError(t, err)
	require.Len(t, got, 4)
}

func TestExpandOccurrencesWeeklyRequiresWeekdays(t *testing.T) {
	_, err := blocks.ExpandOccurrences(models.RecurWeekly, day(2026, 6, 1), day(2026, 6, 30), nil)
	require.ErrorIs(t, err, blocks.ErrInvalidPattern)
}

func TestExpandOccurrencesMonthlyClampsShortMonths(t *testing.T) {
	got, err := blocks.ExpandOccurrences(models.RecurMonthly, day(2026, 1, 31), day(2026, 4, 30), nil)
	require.NoError(t, err)

	want := []time.Time{
		day(2026, 1, 31),
		day(2026, 2, 28),
		day(2026, 3, 31),
		day(2026, 4, 30),
	}
	require.Equal(t, want, got)
}

func TestExpandOccurrencesMonthlyLeapFebruary(t *testing.T) {
	got, err := blocks.ExpandOccurrences(models.RecurMonthly, day(2028, 1, 31), day(2028, 2, 29), nil)
	require.NoError(t, err)
	require.Equal(t, []time.Time{day(2028, 1, 31), day(2028, 2, 29)}, got)
}

func TestExpandOccurrencesUnknownPattern(t *testing.T) {
	_, err := blocks.ExpandOccurrences("yearly", day(2026, 6, 1), day(2026, 6, 30), nil)
	require.ErrorIs(t, err, blocks.ErrInvalidPattern)
}

func TestCreateRecurringSeries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	series, created, err := f.engine.CreateRecurringSeries(ctx, blocks.CreateSeriesParams{
		Name:        "Evening training",
		CourtIDs:    []int64{1, 2},
		StartDate:   day(2026, 6, 1),
		EndDate:     day(2026, 6, 3),
		StartClock:  "18:00",
		EndClock:    "20:00",
		Pattern:     models.RecurDaily,
		ReasonID:    f.reason.ID,
		CreatedByID: f.admin.ID,
	})
	require.NoError(t, err)
	require.Len(t, created, 6, "three days across two courts")
	require.Equal(t, models.RecurDaily, series.Pattern)

	stored, err := store.ListBlocksBySeries(ctx, f.database, series.ID)
	require.NoError(t, err)
	require.Len(t, stored, 6)
	for _, block := range stored {
		require.Equal(t, series.ID, block.SeriesID.Int64)
		require.Equal(t, 18, block.StartTime.UTC().Hour())
		require.Equal(t, 20, block.EndTime.UTC().Hour())
	}
}

func TestCreateRecurringSeriesCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	victim := f.seedReservation(t, 1, time.Date(2026, 6, 2, 18, 0, 0, 0, time.UTC))

	_, _, err := f.engine.CreateRecurringSeries(ctx, blocks.CreateSeriesParams{
		Name:        "Evening training",
		CourtIDs:    []int64{1},
		StartDate:   day(2026, 6, 1),
		EndDate:     day(2026, 6, 3),
		StartClock:  "18:00",
		EndClock:    "20:00",
		Pattern:     models.RecurDaily,
		ReasonID:    f.reason.ID,
		CreatedByID: f.admin.ID,
	})
	require.NoError(t, err)

	cancelled, err := store.GetReservation(ctx, f.database, victim.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReservationCancelled, cancelled.Status)
	require.Equal(t, "cancelled due to block: Maintenance", cancelled.CancelReason.String)
}

func TestCreateRecurringSeriesRejectsBadClockWindow(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.engine.CreateRecurringSeries(context.Background(), blocks.CreateSeriesParams{
		Name:        "Backwards",
		CourtIDs:    []int64{1},
		StartDate:   day(2026, 6, 1),
		EndDate:     day(2026, 6, 3),
		StartClock:  "20:00",
		EndClock:    "18:00",
		Pattern:     models.RecurDaily,
		ReasonID:    f.reason.ID,
		CreatedByID: f.admin.ID,
	})
	require.ErrorIs(t, err, blocks.ErrInvalidWindow)
}

func TestUpdateSeriesScopeSingle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	series, _, err := f.engine.CreateRecurringSeries(ctx, blocks.CreateSeriesParams{
		Name:        "Evening training",
		CourtIDs:    []int64{1},
		StartDate:   day(2026, 6, 1),
		EndDate:     day(2026, 6, 3),
		StartClock:  "18:00",
		EndClock:    "20:00",
		Pattern:     models.RecurDaily,
		ReasonID:    f.reason.ID,
		CreatedByID: f.admin.ID,
	})
	require.NoError(t, err)

	err = f.engine.UpdateSeries(ctx, series.ID, blocks.ScopeSingle, day(2026, 6, 2), blocks.UpdateSeriesFields{
		StartClock: "19:00",
		EndClock:   "21:00",
		ReasonID:   f.reason.ID,
	}, f.admin.ID)
	require.NoError(t, err)

	stored, err := store.ListBlocksBySeries(ctx, f.database, series.ID)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	for _, block := range stored {
		if block.StartTime.UTC().Day() == 2 {
			require.Equal(t, 19, block.StartTime.UTC().Hour())
			require.True(t, block.IsModified, "single-occurrence edits mark the instance")
		} else {
			require.Equal(t, 18, block.StartTime.UTC().Hour())
			require.False(t, block.IsModified)
		}
	}

	// A single-scope edit leaves the series template untouched.
	template, err := store.GetSeries(ctx, f.database, series.ID)
	require.NoError(t, err)
	require.Equal(t, "18:00", template.StartClock)
}

func TestUpdateSeriesScopeAllRewritesTemplate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	series, _, err := f.engine.CreateRecurringSeries(ctx, blocks.CreateSeriesParams{
		Name:        "Evening training",
		CourtIDs:    []int64{1},
		StartDate:   day(2026, 6, 1),
		EndDate:     day(2026, 6, 3),
		StartClock:  "18:00",
		EndClock:    "20:00",
		Pattern:     models.RecurDaily,
		ReasonID:    f.reason.ID,
		CreatedByID: f.admin.ID,
	})
	require.NoError(t, err)

	err = f.engine.UpdateSeries(ctx, series.ID, blocks.ScopeAll, time.Time{}, blocks.UpdateSeriesFields{
		Name:       "Late training",
		StartClock: "19:00",
		EndClock:   "21:00",
		ReasonID:   f.reason.ID,
	}, f.admin.ID)
	require.NoError(t, err)

	stored, err := store.ListBlocksBySeries(ctx, f.database, series.ID)
	require.NoError(t, err)
	for _, block := range stored {
		require.Equal(t, 19, block.StartTime.UTC().Hour())
	}

	template, err := store.GetSeries(ctx, f.database, series.ID)
	require.NoError(t, err)
	require.Equal(t, "Late training", template.Name)
	require.Equal(t, "19:00", template.StartClock)
}

func TestDeleteSeriesScopeFuture(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	series, _, err := f.engine.CreateRecurringSeries(ctx, blocks.CreateSeriesParams{
		Name:        "Evening training",
		CourtIDs:    []int64{1},
		StartDate:   day(2026, 6, 1),
		EndDate:     day(2026, 6, 5),
		StartClock:  "18:00",
		EndClock:    "20:00",
		Pattern:     models.RecurDaily,
		ReasonID:    f.reason.ID,
		CreatedByID: f.admin.ID,
	})
	require.NoError(t, err)

	require.NoError(t, f.engine.DeleteSeries(ctx, series.ID, blocks.ScopeFuture, day(2026, 6, 3), f.admin.ID))

	stored, err := store.ListBlocksBySeries(ctx, f.database, series.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2, "occurrences before the cut survive")

	// The series record itself survives a scoped delete.
	_, err = store.GetSeries(ctx, f.database, series.ID)
	require.NoError(t, err)
}

func TestDeleteSeriesScopeSingle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	series, _, err := f.engine.CreateRecurringSeries(ctx, blocks.CreateSeriesParams{
		Name:        "Evening training",
		CourtIDs:    []int64{1},
		StartDate:   day(2026, 6, 1),
		EndDate:     day(2026, 6, 3),
		StartClock:  "18:00",
		EndClock:    "20:00",
		Pattern:     models.RecurDaily,
		ReasonID:    f.reason.ID,
		CreatedByID: f.admin.ID,
	})
	require.NoError(t, err)

	require.NoError(t, f.engine.DeleteSeries(ctx, series.ID, blocks.ScopeSingle, day(2026, 6, 2), f.admin.ID))

	stored, err := store.ListBlocksBySeries(ctx, f.database, series.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	for _, block := range stored {
		require.NotEqual(t, 2, block.StartTime.UTC().Day())
	}
}

func TestDeleteSeriesScopeAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	series, _, err := f.engine.CreateRecurringSeries(ctx, blocks.CreateSeriesParams{
		Name:        "Evening training",
		CourtIDs:    []int64{1},
		StartDate:   day(2026, 6, 1),
		EndDate:     day(2026, 6, 3),
		StartClock:  "18:00",
		EndClock:    "20:00",
		Pattern:     models.RecurDaily,
		ReasonID:    f.reason.ID,
		CreatedByID: f.admin.ID,
	})
	require.NoError(t, err)

	require.NoError(t, f.engine.DeleteSeries(ctx, series.ID, blocks.ScopeAll, time.Time{}, f.admin.ID))

	stored, err := store.ListBlocksBySeries(ctx, f.database, series.ID)
	require.NoError(t, err)
	require.Empty(t, stored)

	_, err = store.GetSeries(ctx, f.database, series.ID)
	require.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestUpdateSeriesInvalidScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	series, _, err := f.engine.CreateRecurringSeries(ctx, blocks.CreateSeriesParams{
		Name:        "Evening training",
		CourtIDs:    []int64{1},
		StartDate:   day(2026, 6, 1),
		EndDate:     day(2026, 6, 2),
		StartClock:  "18:00",
		EndClock:    "20:00",
		Pattern:     models.RecurDaily,
		ReasonID:    f.reason.ID,
		CreatedByID: f.admin.ID,
	})
	require.NoError(t, err)

	err = f.engine.UpdateSeries(ctx, series.ID, blocks.Scope("sometimes"), time.Time{}, blocks.UpdateSeriesFields{
		StartClock: "18:00",
		EndClock:   "20:00",
		ReasonID:   f.reason.ID,
	}, f.admin.ID)
	require.ErrorIs(t, err, blocks.ErrInvalidScope)
}
