// internal/store/courts.go
package store

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/clubcourts/courtbook/internal/models"
)

func GetCourt(ctx context.Context, q Querier, id int64) (models.Court, error) {
	var court models.Court
	err := sqlx.GetContext(ctx, q, &court, `SELECT * FROM courts WHERE id = ?`, id)
	return court, err
}

func GetCourtByNumber(ctx context.Context, q Querier, number int64) (models.Court, error) {
	var court models.Court
	err := sqlx.GetContext(ctx, q, &court, `SELECT * FROM courts WHERE number = ?`, number)
	return court, err
}

func ListCourts(ctx context.Context, q Querier) ([]models.Court, error) {
	var courts []models.Court
	err := sqlx.SelectContext(ctx, q, &courts, `SELECT * FROM courts ORDER BY number`)
	return courts, err
}

func SetCourtStatus(ctx context.Context, q Querier, id int64, status models.CourtStatus) error {
	result, err := q.ExecContext(ctx, `UPDATE courts SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}
