// internal/models/block.go
package models

import (
	"database/sql"
	"time"
)

type RecurrencePattern string

const (
	RecurDaily   RecurrencePattern = "daily"
	RecurWeekly  RecurrencePattern = "weekly"
	RecurMonthly RecurrencePattern = "monthly"
)

// BlockReason is an admin-managed label for why courts are taken offline.
// Reasons referenced by existing blocks are deactivated, never deleted.
type BlockReason struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	IsActive       bool      `db:"is_active" json:"isActive"`
	TeamsterUsable bool      `db:"teamster_usable" json:"teamsterUsable"`
	CreatedByID    int64     `db:"created_by_id" json:"createdById"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// Block removes one court from availability for a time window on one date.
// A temporary block suspends conflicting reservations instead of cancelling
// them, and restores them when it is removed.
type Block struct {
	ID          int64          `db:"id" json:"id"`
	CourtID     int64          `db:"court_id" json:"courtId"`
	StartTime   time.Time      `db:"start_time" json:"startTime"`
	EndTime     time.Time      `db:"end_time" json:"endTime"`
	ReasonID    int64          `db:"reason_id" json:"reasonId"`
	Details     sql.NullString `db:"details" json:"details,omitempty"`
	Temporary   bool           `db:"temporary" json:"temporary"`
	BatchID     sql.NullString `db:"batch_id" json:"batchId,omitempty"`
	SeriesID    sql.NullInt64  `db:"series_id" json:"seriesId,omitempty"`
	IsModified  bool           `db:"is_modified" json:"isModified"`
	CreatedByID int64          `db:"created_by_id" json:"createdById"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
}

// Date returns the block's civil date at midnight in loc.
func (b Block) Date(loc *time.Location) time.Time {
	local := b.StartTime.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// Covers reports whether slotStart falls inside the block's [start, end)
// window.
func (b Block) Covers(slotStart time.Time) bool {
	return !slotStart.Before(b.StartTime) && slotStart.Before(b.EndTime)
}

// BlockSeries is the recurring template a set of dated blocks was generated
// from. Weekdays is only meaningful for the weekly pattern.
type BlockSeries struct {
	ID          int64             `db:"id" json:"id"`
	Name        string            `db:"name" json:"name"`
	Pattern     RecurrencePattern `db:"pattern" json:"pattern"`
	Weekdays    WeekdaySet        `db:"weekdays" json:"weekdays"`
	StartDate   time.Time         `db:"start_date" json:"startDate"`
	EndDate     time.Time         `db:"end_date" json:"endDate"`
	StartClock  string            `db:"start_clock" json:"startClock"`
	EndClock    string            `db:"end_clock" json:"endClock"`
	ReasonID    int64             `db:"reason_id" json:"reasonId"`
	CreatedByID int64             `db:"created_by_id" json:"createdById"`
	CreatedAt   time.Time         `db:"created_at" json:"createdAt"`
}
