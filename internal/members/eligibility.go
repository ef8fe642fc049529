// internal/members/eligibility.go
package members

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/clubcourts/courtbook/internal/clock"
	"github.com/clubcourts/courtbook/internal/db"
	"github.com/clubcourts/courtbook/internal/models"
	"github.com/clubcourts/courtbook/internal/store"
)

var ErrMemberNotFound = errors.New("member not found")

// Eligibility answers whether a member may currently reserve courts.
type Eligibility interface {
	CanReserve(ctx context.Context, memberID int64) (bool, error)
}

// Service is the store-backed eligibility view: a member can reserve while
// active with a full membership. Once the fee deadline has passed, the
// yearly fee must also be paid.
type Service struct {
	db          *db.DB
	clk         *clock.Clock
	feeDeadline time.Time
}

func NewService(database *db.DB, clk *clock.Clock, feeDeadline time.Time) *Service {
	return &Service{db: database, clk: clk, feeDeadline: feeDeadline}
}

func (s *Service) CanReserve(ctx context.Context, memberID int64) (bool, error) {
	member, err := store.GetMember(ctx, s.db, memberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrMemberNotFound
		}
		return false, fmt.Errorf("load member %d: %w", memberID, err)
	}
	return s.canReserve(member), nil
}

func (s *Service) canReserve(member models.Member) bool {
	if !member.IsActive {
		return false
	}
	if member.MembershipType != models.MembershipFull {
		return false
	}
	if s.feeDeadline.IsZero() || member.FeePaid {
		return true
	}
	return s.clk.Now().Before(s.feeDeadline)
}
