// internal/models/court.go
package models

import "time"

type CourtStatus string

const (
	CourtActive       CourtStatus = "active"
	CourtOutOfService CourtStatus = "out_of_service"
)

// Court is one of the club's fixed fleet. The set is seeded by migration and
// never grows at runtime; only the status changes.
type Court struct {
	ID        int64       `db:"id" json:"id"`
	Number    int64       `db:"number" json:"number"`
	Status    CourtStatus `db:"status" json:"status"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
}

func (c Court) Bookable() bool {
	return c.Status == CourtActive
}
