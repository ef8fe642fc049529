package members_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clubcourts/courtbook/internal/clock"
	"github.com/clubcourts/courtbook/internal/db"
	"github.com/clubcourts/courtbook/internal/members"
	"github.com/clubcourts/courtbook/internal/models"
	"github.com/clubcourts/courtbook/internal/store"
	"github.com/clubcourts/courtbook/internal/testutil"
)

var testNow = time.Date(2026, 5, 12, 10, 0, 0, 0, time.UTC)

func seedMember(t *testing.T, database *db.DB, params store.CreateMemberParams) models.Member {
	t.Helper()
	member, err := store.CreateMember(context.Background(), database, params)
	if err != nil {
		t.Fatalf("seed member: %v", err)
	}
	return member
}

func TestCanReserve(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	full := seedMember(t, database, store.CreateMemberParams{Name: "Full", FeePaid: true})
	unpaid := seedMember(t, database, store.CreateMemberParams{Name: "Unpaid"})
	sustaining := seedMember(t, database, store.CreateMemberParams{
		Name:           "Sustaining",
		MembershipType: models.MembershipSustaining,
		FeePaid:        true,
	})
	inactive := seedMember(t, database, store.CreateMemberParams{Name: "Former", FeePaid: true})
	if _, err := database.ExecContext(ctx, "UPDATE members SET is_active = 0 WHERE id = ?", inactive.ID); err != nil {
		t.Fatalf("deactivate member: %v", err)
	}

	deadlinePassed := testNow.AddDate(0, -1, 0)
	deadlineAhead := testNow.AddDate(0, 1, 0)

	tests := []struct {
		name     string
		member   models.Member
		deadline time.Time
		want     bool
	}{
		{name: "full_paid", member: full, deadline: deadlinePassed, want: true},
		{name: "full_unpaid_before_deadline", member: unpaid, deadline: deadlineAhead, want: true},
		{name: "full_unpaid_after_deadline", member: unpaid, deadline: deadlinePassed, want: false},
		{name: "full_unpaid_no_deadline", member: unpaid, want: true},
		{name: "sustaining_membership", member: sustaining, deadline: deadlineAhead, want: false},
		{name: "inactive_member", member: inactive, deadline: deadlineAhead, want: false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			svc := members.NewService(database, clock.NewFixed(testNow), test.deadline)
			got, err := svc.CanReserve(ctx, test.member.ID)
			if err != nil {
				t.Fatalf("CanReserve: %v", err)
			}
			if got != test.want {
				t.Fatalf("CanReserve(%s) = %t, want %t", test.member.Name, got, test.want)
			}
		})
	}
}

func TestCanReserveUnknownMember(t *testing.T) {
	database := testutil.NewTestDB(t)
	svc := members.NewService(database, clock.NewFixed(testNow), time.Time{})

	_, err := svc.CanReserve(context.Background(), 9999)
	if !errors.Is(err, members.ErrMemberNotFound) {
		t.Fatalf("err = %v, want ErrMemberNotFound", err)
	}
}
