// internal/store/members.go
package store

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/clubcourts/courtbook/internal/models"
)

type CreateMemberParams struct {
	Name           string
	Email          string
	Role           models.Role
	MembershipType models.MembershipType
	FeePaid        bool
}

func CreateMember(ctx context.Context, q Querier, params CreateMemberParams) (models.Member, error) {
	var email any
	if params.Email != "" {
		email = params.Email
	}
	role := params.Role
	if role == "" {
		role = models.RoleMember
	}
	membershipType := params.MembershipType
	if membershipType == "" {
		membershipType = models.MembershipFull
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO members (name, email, role, membership_type, fee_paid)
		VALUES (?, ?, ?, ?, ?)`,
		params.Name, email, role, membershipType, params.FeePaid)
	if err != nil {
		return models.Member{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Member{}, err
	}
	return GetMember(ctx, q, id)
}

func GetMember(ctx context.Context, q Querier, id int64) (models.Member, error) {
	var member models.Member
	err := sqlx.GetContext(ctx, q, &member, `SELECT * FROM members WHERE id = ?`, id)
	return member, err
}

// ResetAllFeeFlags clears every member's fee-paid flag. The yearly scheduler
// job runs this at the turn of the season.
func ResetAllFeeFlags(ctx context.Context, q Querier) (int64, error) {
	result, err := q.ExecContext(ctx, `UPDATE members SET fee_paid = 0 WHERE fee_paid = 1`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func SetMemberFeePaid(ctx context.Context, q Querier, id int64, paid bool) error {
	result, err := q.ExecContext(ctx, `UPDATE members SET fee_paid = ? WHERE id = ?`, paid, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}
