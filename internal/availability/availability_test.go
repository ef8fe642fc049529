package availability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clubcourts/courtbook/internal/availability"
	"github.com/clubcourts/courtbook/internal/booking"
	"github.com/clubcourts/courtbook/internal/clock"
	"github.com/clubcourts/courtbook/internal/db"
	"github.com/clubcourts/courtbook/internal/models"
	"github.com/clubcourts/courtbook/internal/store"
	"github.com/clubcourts/courtbook/internal/testutil"
)

var testNow = time.Date(2026, 5, 12, 10, 30, 0, 0, time.UTC)

func newQuery() *availability.Query {
	clk := clock.NewFixed(testNow)
	return availability.NewQuery(clk, booking.NewValidator(booking.DefaultRules()))
}

func seedMember(t *testing.T, database *db.DB) models.Member {
	t.Helper()
	member, err := store.CreateMember(context.Background(), database, store.CreateMemberParams{
		Name: "Alex", FeePaid: true,
	})
	require.NoError(t, err)
	return member
}

func seedReservation(t *testing.T, database *db.DB, courtID int64, member models.Member, start time.Time, shortNotice bool) models.Reservation {
	t.Helper()
	reservation, err := store.CreateReservation(context.Background(), database, store.CreateReservationParams{
		CourtID:       courtID,
		StartTime:     start,
		EndTime:       start.Add(models.SlotDuration),
		BookedForID:   member.ID,
		BookedByID:    member.ID,
		IsShortNotice: shortNotice,
	})
	require.NoError(t, err)
	return reservation
}

func slotAt(t *testing.T, grid []availability.CourtDay, courtID int64, hour int) availability.Slot {
	t.Helper()
	for _, row := range grid {
		if row.Court.ID != courtID {
			continue
		}
		for _, slot := range row.Slots {
			if slot.Hour == hour {
				return slot
			}
		}
	}
	t.Fatalf("no slot for court %d hour %d", courtID, hour)
	return availability.Slot{}
}

func TestOccupiedGridShape(t *testing.T) {
	database := testutil.NewTestDB(t)
	query := newQuery()

	grid, err := query.Occupied(context.Background(), database, testNow)
	require.NoError(t, err)
	require.Len(t, grid, 6, "the fleet has six courts")
	for _, row := range grid {
		require.Len(t, row.Slots, 16, "hours 6 through 21")
		require.Equal(t, 6, row.Slots[0].Hour)
		require.Equal(t, 21, row.Slots[15].Hour)
		for _, slot := range row.Slots {
			require.Equal(t, row.Court.ID, slot.CourtID)
		}
	}
}

func TestOccupiedStatuses(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	member := seedMember(t, database)
	query := newQuery()

	// A future booking, an ongoing short-notice one, and one that has
	// already ended this morning.
	future := seedReservation(t, database, 1, member, time.Date(2026, 5, 12, 14, 0, 0, 0, time.UTC), false)
	seedReservation(t, database, 2, member, time.Date(2026, 5, 12, 10, 0, 0, 0, time.UTC), true)
	seedReservation(t, database, 3, member, time.Date(2026, 5, 12, 8, 0, 0, 0, time.UTC), false)

	grid, err := query.Occupied(ctx, database, testNow)
	require.NoError(t, err)

	reserved := slotAt(t, grid, 1, 14)
	require.Equal(t, availability.StatusReserved, reserved.Status)
	require.NotNil(t, reserved.Booking)
	require.Equal(t, future.ID, reserved.Booking.ID)

	shortNotice := slotAt(t, grid, 2, 10)
	require.Equal(t, availability.StatusShortNotice, shortNotice.Status)

	// The stored row is still active, but the slot has elapsed.
	elapsed := slotAt(t, grid, 3, 8)
	require.Equal(t, availability.StatusAvailable, elapsed.Status)
	require.Nil(t, elapsed.Booking)

	empty := slotAt(t, grid, 4, 14)
	require.Equal(t, availability.StatusAvailable, empty.Status)
}

func TestOccupiedBlockWinsOverReservation(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	member := seedMember(t, database)
	query := newQuery()

	admin, err := store.CreateMember(ctx, database, store.CreateMemberParams{
		Name: "Admin", Role: models.RoleAdministrator,
	})
	require.NoError(t, err)
	reason, err := store.CreateReason(ctx, database, store.CreateReasonParams{
		Name: "Maintenance", CreatedByID: admin.ID,
	})
	require.NoError(t, err)

	seedReservation(t, database, 1, member, time.Date(2026, 5, 12, 14, 0, 0, 0, time.UTC), false)
	_, err = store.CreateBlock(ctx, database, store.CreateBlockParams{
		CourtID:     1,
		StartTime:   time.Date(2026, 5, 12, 13, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2026, 5, 12, 16, 0, 0, 0, time.UTC),
		ReasonID:    reason.ID,
		CreatedByID: admin.ID,
	})
	require.NoError(t, err)

	grid, err := query.Occupied(ctx, database, testNow)
	require.NoError(t, err)

	for hour := 13; hour < 16; hour++ {
		slot := slotAt(t, grid, 1, hour)
		require.Equal(t, availability.StatusBlocked, slot.Status, "hour %d", hour)
		require.NotNil(t, slot.Block)
	}
	require.Equal(t, availability.StatusAvailable, slotAt(t, grid, 1, 16).Status)
}

func TestOccupiedRevealsSuspendedUnderTemporaryBlock(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	member := seedMember(t, database)
	query := newQuery()

	admin, err := store.CreateMember(ctx, database, store.CreateMemberParams{
		Name: "Admin", Role: models.RoleAdministrator,
	})
	require.NoError(t, err)
	reason, err := store.CreateReason(ctx, database, store.CreateReasonParams{
		Name: "Rain delay", CreatedByID: admin.ID,
	})
	require.NoError(t, err)

	reservation := seedReservation(t, database, 1, member, time.Date(2026, 5, 12, 14, 0, 0, 0, time.UTC), false)
	require.NoError(t, store.SetReservationStatus(ctx, database, reservation.ID, models.ReservationSuspended, ""))

	_, err = store.CreateBlock(ctx, database, store.CreateBlockParams{
		CourtID:     1,
		StartTime:   time.Date(2026, 5, 12, 14, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2026, 5, 12, 15, 0, 0, 0, time.UTC),
		ReasonID:    reason.ID,
		Temporary:   true,
		CreatedByID: admin.ID,
	})
	require.NoError(t, err)

	grid, err := query.Occupied(ctx, database, testNow)
	require.NoError(t, err)

	slot := slotAt(t, grid, 1, 14)
	require.Equal(t, availability.StatusBlocked, slot.Status)
	require.NotNil(t, slot.Block)
	require.True(t, slot.Block.Temporary)
	require.NotNil(t, slot.Suspended)
	require.Equal(t, reservation.ID, slot.Suspended.ID)
	require.Nil(t, slot.Booking)
}
